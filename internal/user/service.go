// Package user はユーザー情報（表示名と介護者連絡先）の管理ロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/medmitra/internal/model"
	"github.com/hitoshi/medmitra/internal/repository"
	"github.com/hitoshi/medmitra/internal/security"
)

// Service はユーザー情報のサービス層。
// 単一ユーザー前提のため、プロセス全体で1つのプロフィールを扱う。
type Service struct {
	profiles  repository.ProfileRepository
	sanitizer security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(profiles repository.ProfileRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{
		profiles:  profiles,
		sanitizer: sanitizer,
	}
}

// Profile は現在のユーザー情報を返す。
func (s *Service) Profile(ctx context.Context) (*model.UserProfile, error) {
	p, err := s.profiles.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー情報の取得に失敗しました: %w", err)
	}
	return p, nil
}

// Setup はユーザー名と介護者連絡先を上書きする。
// ユーザー名が空の場合はmodel.DefaultUserNameになる。
func (s *Service) Setup(ctx context.Context, userName, caregiverContact string) (*model.UserProfile, error) {
	p := &model.UserProfile{
		UserName:         s.sanitizer.Sanitize(userName),
		CaregiverContact: s.sanitizer.Sanitize(caregiverContact),
	}
	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("ユーザー情報の更新に失敗しました: %w", err)
	}

	slog.Info("ユーザー情報を更新しました",
		slog.Bool("has_caregiver_contact", p.CaregiverContact != ""),
	)

	return s.Profile(ctx)
}

// AdoptUserName はユーザー名が未設定（デフォルト値）の場合のみ指定した名前を設定する。
// 薬の登録時に、薬に記載された利用者名をプロフィールへ反映するために使用する。
func (s *Service) AdoptUserName(ctx context.Context, name string) error {
	if name == "" || name == model.DefaultUserName {
		return nil
	}
	p, err := s.profiles.Get(ctx)
	if err != nil {
		return fmt.Errorf("ユーザー情報の取得に失敗しました: %w", err)
	}
	if p.UserName != "" && p.UserName != model.DefaultUserName {
		return nil
	}
	p.UserName = name
	if err := s.profiles.Update(ctx, p); err != nil {
		return fmt.Errorf("ユーザー情報の更新に失敗しました: %w", err)
	}
	return nil
}
