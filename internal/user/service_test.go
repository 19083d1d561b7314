package user

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/medmitra/internal/model"
	"github.com/hitoshi/medmitra/internal/repository"
	"github.com/hitoshi/medmitra/internal/security"
)

// --- モック ---

type mockProfileRepo struct {
	getFn    func(ctx context.Context) (*model.UserProfile, error)
	updateFn func(ctx context.Context, p *model.UserProfile) error
}

func (m *mockProfileRepo) Get(ctx context.Context) (*model.UserProfile, error) {
	return m.getFn(ctx)
}

func (m *mockProfileRepo) Update(ctx context.Context, p *model.UserProfile) error {
	return m.updateFn(ctx, p)
}

func newService(initial model.UserProfile) (*Service, *repository.MemoryProfileRepo) {
	repo := repository.NewMemoryProfileRepo(initial)
	return NewService(repo, security.NewTextSanitizer()), repo
}

func TestService_Setup(t *testing.T) {
	svc, _ := newService(model.UserProfile{})

	p, err := svc.Setup(context.Background(), " <b>Mr. Sharma</b> ", "+91-9876543210")
	if err != nil {
		t.Fatalf("Setup() error: %v", err)
	}
	if p.UserName != "Mr. Sharma" {
		t.Errorf("UserName = %q, want %q", p.UserName, "Mr. Sharma")
	}
	if p.CaregiverContact != "+91-9876543210" {
		t.Errorf("CaregiverContact = %q", p.CaregiverContact)
	}
}

func TestService_Setup_EmptyNameFallsBackToDefault(t *testing.T) {
	svc, _ := newService(model.UserProfile{UserName: "Mr. Sharma"})

	p, err := svc.Setup(context.Background(), "", "")
	if err != nil {
		t.Fatalf("Setup() error: %v", err)
	}
	if p.UserName != model.DefaultUserName {
		t.Errorf("UserName = %q, want %q", p.UserName, model.DefaultUserName)
	}
}

func TestService_Setup_RepoError(t *testing.T) {
	repo := &mockProfileRepo{
		updateFn: func(ctx context.Context, p *model.UserProfile) error {
			return errors.New("write failed")
		},
	}
	svc := NewService(repo, security.NewTextSanitizer())

	_, err := svc.Setup(context.Background(), "A", "B")
	if err == nil || !strings.Contains(err.Error(), "write failed") {
		t.Errorf("Setup() error = %v, want wrapped write failure", err)
	}
}

func TestService_AdoptUserName(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		adopt   string
		want    string
	}{
		{name: "デフォルト名は置き換える", initial: "", adopt: "Mr. Sharma", want: "Mr. Sharma"},
		{name: "設定済みの名前は保持する", initial: "Mrs. Gupta", adopt: "Mr. Sharma", want: "Mrs. Gupta"},
		{name: "デフォルト名の採用は何もしない", initial: "", adopt: model.DefaultUserName, want: model.DefaultUserName},
		{name: "空文字は無視する", initial: "", adopt: "", want: model.DefaultUserName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newService(model.UserProfile{UserName: tt.initial})
			if err := svc.AdoptUserName(context.Background(), tt.adopt); err != nil {
				t.Fatalf("AdoptUserName() error: %v", err)
			}
			p, _ := repo.Get(context.Background())
			if p.UserName != tt.want {
				t.Errorf("UserName = %q, want %q", p.UserName, tt.want)
			}
		})
	}
}
