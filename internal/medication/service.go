// Package medication は服薬リストの管理ロジックを提供する。
package medication

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/medmitra/internal/event"
	"github.com/hitoshi/medmitra/internal/model"
	"github.com/hitoshi/medmitra/internal/repository"
	"github.com/hitoshi/medmitra/internal/security"
)

// 入力値の上限
const (
	MaxNameLength         = 100
	MaxDosageLength       = 50
	MaxInstructionsLength = 500
)

// Publisher はイベント送信のインターフェース。
type Publisher interface {
	Publish(ev event.Event)
}

// UserNameAdopter は薬に記載された利用者名をプロフィールに反映するインターフェース。
type UserNameAdopter interface {
	AdoptUserName(ctx context.Context, name string) error
}

// AddInput は薬の登録パラメータ。
type AddInput struct {
	Name         string
	Dosage       string
	TimeSlot     string
	Instructions string
	UserName     string
}

// Service は服薬リストのサービス層。
// 薬は作成後に変更せず、編集は削除と再登録で表現する。
type Service struct {
	repo      repository.MedicationRepository
	sanitizer security.TextSanitizer
	users     UserNameAdopter
	publisher Publisher
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。usersはnilでもよい。
func NewService(
	repo repository.MedicationRepository,
	sanitizer security.TextSanitizer,
	users UserNameAdopter,
	publisher Publisher,
) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		users:     users,
		publisher: publisher,
		now:       time.Now,
	}
}

// List は登録順に全ての薬を返す。
func (s *Service) List(ctx context.Context) ([]*model.Medication, error) {
	meds, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("服薬リストの取得に失敗しました: %w", err)
	}
	return meds, nil
}

// Get は名前で薬を取得する。見つからない場合はMEDICATION_NOT_FOUNDエラーを返す。
func (s *Service) Get(ctx context.Context, name string) (*model.Medication, error) {
	med, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("薬の取得に失敗しました: %w", err)
	}
	if med == nil {
		return nil, model.NewMedicationNotFoundError(name)
	}
	return med, nil
}

// Add は入力を検証して薬を登録する。
// 時間帯が未定義の場合はINVALID_TIME_SLOT、同名の薬がある場合はDUPLICATE_MEDICATIONを返す。
func (s *Service) Add(ctx context.Context, in AddInput) (*model.Medication, error) {
	name := s.sanitizer.Sanitize(in.Name)
	dosage := s.sanitizer.Sanitize(in.Dosage)
	instructions := s.sanitizer.Sanitize(in.Instructions)
	userName := s.sanitizer.Sanitize(in.UserName)

	switch {
	case name == "":
		return nil, model.NewInvalidInputError("name is required")
	case dosage == "":
		return nil, model.NewInvalidInputError("dosage is required")
	case len(name) > MaxNameLength:
		return nil, model.NewInvalidInputError(fmt.Sprintf("name must be at most %d characters", MaxNameLength))
	case len(dosage) > MaxDosageLength:
		return nil, model.NewInvalidInputError(fmt.Sprintf("dosage must be at most %d characters", MaxDosageLength))
	case len(instructions) > MaxInstructionsLength:
		return nil, model.NewInvalidInputError(fmt.Sprintf("instructions must be at most %d characters", MaxInstructionsLength))
	}

	slot, err := model.ParseTimeSlot(in.TimeSlot)
	if err != nil {
		return nil, err
	}
	if userName == "" {
		userName = model.DefaultUserName
	}

	med := &model.Medication{
		Name:         name,
		Dosage:       dosage,
		TimeSlot:     slot,
		Instructions: instructions,
		UserName:     userName,
		CreatedAt:    s.now(),
	}
	if err := s.repo.Create(ctx, med); err != nil {
		return nil, err
	}

	if s.users != nil {
		if err := s.users.AdoptUserName(ctx, userName); err != nil {
			slog.Warn("利用者名の反映に失敗しました",
				slog.String("medication", name),
				slog.String("error", err.Error()),
			)
		}
	}

	slog.Info("薬を登録しました",
		slog.String("medication", name),
		slog.String("time_slot", string(slot)),
	)
	s.publisher.Publish(event.Event{
		Type:       event.TypeMedicationAdded,
		Medication: med,
		OccurredAt: med.CreatedAt,
	})
	return med, nil
}

// Delete は名前で薬を削除する。服薬記録は履歴として残る。
// 見つからない場合はMEDICATION_NOT_FOUNDエラーを返す。
func (s *Service) Delete(ctx context.Context, name string) error {
	med, err := s.Get(ctx, name)
	if err != nil {
		return err
	}

	deleted, err := s.repo.DeleteByName(ctx, med.Name)
	if err != nil {
		return fmt.Errorf("薬の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewMedicationNotFoundError(name)
	}

	slog.Info("薬を削除しました",
		slog.String("medication", med.Name),
	)
	s.publisher.Publish(event.Event{
		Type:       event.TypeMedicationDeleted,
		Medication: med,
		OccurredAt: s.now(),
	})
	return nil
}
