package repository

import (
	"context"
	"sync"

	"github.com/hitoshi/medmitra/internal/model"
)

// MemoryProfileRepo はインメモリのユーザー情報リポジトリ。
type MemoryProfileRepo struct {
	mu      sync.RWMutex
	profile model.UserProfile
}

// NewMemoryProfileRepo は初期値を指定してMemoryProfileRepoを生成する。
// ユーザー名が空の場合はmodel.DefaultUserNameを使用する。
func NewMemoryProfileRepo(initial model.UserProfile) *MemoryProfileRepo {
	if initial.UserName == "" {
		initial.UserName = model.DefaultUserName
	}
	return &MemoryProfileRepo{profile: initial}
}

var _ ProfileRepository = (*MemoryProfileRepo)(nil)

// Get は現在のユーザー情報のコピーを返す。
func (r *MemoryProfileRepo) Get(ctx context.Context) (*model.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p := r.profile
	return &p, nil
}

// Update はユーザー情報を上書きする。
func (r *MemoryProfileRepo) Update(ctx context.Context, profile *model.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := *profile
	if p.UserName == "" {
		p.UserName = model.DefaultUserName
	}
	r.profile = p
	return nil
}
