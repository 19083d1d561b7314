// Package escalation は飲み忘れが続いた場合に介護者への通知を判定・生成する。
package escalation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/medmitra/internal/event"
	"github.com/hitoshi/medmitra/internal/message"
	"github.com/hitoshi/medmitra/internal/metrics"
	"github.com/hitoshi/medmitra/internal/model"
	"github.com/hitoshi/medmitra/internal/repository"
	"github.com/hitoshi/medmitra/internal/schedule"
)

// DefaultThreshold は介護者通知を行う1日あたりの飲み忘れ回数の下限。
const DefaultThreshold = 2

// MissedCounter は飲み忘れ件数の取得インターフェース。
// repository.DoseRecordRepositoryの部分集合として定義する。
type MissedCounter interface {
	MissedCountSince(ctx context.Context, medicationName string, since time.Time) (int, error)
}

// Publisher はイベント送信のインターフェース。
type Publisher interface {
	Publish(ev event.Event)
}

// Config はエスカレーションポリシーの設定。
type Config struct {
	// Threshold は通知を行う飲み忘れ回数（デフォルト: 2）。
	Threshold int
	// DedupDaily がtrueの場合、同じ薬について1日1回のみ通知する。
	DedupDaily bool
	// Clock は現在時刻を返す関数。nilの場合はtime.Nowを使用する。
	Clock func() time.Time
}

// Policy は介護者通知の判定と生成を行う。
type Policy struct {
	records       MissedCounter
	notifications repository.NotificationRepository
	profiles      repository.ProfileRepository
	publisher     Publisher
	metrics       metrics.MetricsCollector
	logger        *slog.Logger
	config        Config
}

// NewPolicy はPolicyの新しいインスタンスを生成する。
func NewPolicy(
	records MissedCounter,
	notifications repository.NotificationRepository,
	profiles repository.ProfileRepository,
	publisher Publisher,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	config Config,
) *Policy {
	if config.Threshold < 1 {
		config.Threshold = DefaultThreshold
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Policy{
		records:       records,
		notifications: notifications,
		profiles:      profiles,
		publisher:     publisher,
		metrics:       collector,
		logger:        logger,
		config:        config,
	}
}

// MissedToday は指定した薬の当日（現地時刻0時以降）に予定された飲み忘れ件数を返す。
func (p *Policy) MissedToday(ctx context.Context, med *model.Medication) (int, error) {
	since := schedule.StartOfDay(p.config.Clock())
	count, err := p.records.MissedCountSince(ctx, med.Name, since)
	if err != nil {
		return 0, fmt.Errorf("飲み忘れ件数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// ShouldNotifyCaregiver は当日の飲み忘れ件数が閾値以上かどうかを返す。
func (p *Policy) ShouldNotifyCaregiver(ctx context.Context, med *model.Medication) (bool, error) {
	count, err := p.MissedToday(ctx, med)
	if err != nil {
		return false, err
	}
	return count >= p.config.Threshold, nil
}

// BuildNotification は介護者向けの通知を生成し、通知履歴に追加する。
// 実際の送信（SMS等）は行わず、CaregiverAlertイベントの発行までを担う。
func (p *Policy) BuildNotification(ctx context.Context, med *model.Medication, missedCount int) (*model.Notification, error) {
	profile, err := p.profiles.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー情報の取得に失敗しました: %w", err)
	}

	now := p.config.Clock()
	n := &model.Notification{
		ID:               uuid.New().String(),
		UserName:         profile.UserName,
		MedicationName:   med.Name,
		TimeSlot:         med.TimeSlot,
		MissedCount:      missedCount,
		Message:          message.CaregiverAlert(profile.UserName, med.TimeSlot, missedCount),
		CaregiverContact: profile.CaregiverContact,
		CreatedAt:        now,
	}
	if err := p.notifications.Append(ctx, n); err != nil {
		return nil, fmt.Errorf("通知履歴の保存に失敗しました: %w", err)
	}

	p.logger.Warn("介護者通知を生成しました",
		slog.String("medication", med.Name),
		slog.Int("missed_count", missedCount),
		slog.String("caregiver_contact", profile.CaregiverContact),
	)
	p.metrics.RecordEscalation(med.Name)
	p.publisher.Publish(event.Event{
		Type:         event.TypeCaregiverAlert,
		Medication:   med,
		Notification: n,
		OccurredAt:   now,
	})
	return n, nil
}

// CheckAndNotify は閾値判定を行い、該当する場合は通知を生成する。
// 通知しなかった場合はnilを返す（エラーではない）。
func (p *Policy) CheckAndNotify(ctx context.Context, med *model.Medication) (*model.Notification, error) {
	if med == nil {
		return nil, nil
	}

	count, err := p.MissedToday(ctx, med)
	if err != nil {
		return nil, err
	}
	if count < p.config.Threshold {
		return nil, nil
	}

	if p.config.DedupDaily {
		since := schedule.StartOfDay(p.config.Clock())
		sent, err := p.notifications.ExistsSince(ctx, med.Name, since)
		if err != nil {
			return nil, fmt.Errorf("通知履歴の確認に失敗しました: %w", err)
		}
		if sent {
			p.logger.Debug("本日は通知済みのためスキップします",
				slog.String("medication", med.Name),
			)
			return nil, nil
		}
	}

	return p.BuildNotification(ctx, med, count)
}

// History は生成済みの通知を生成順に返す。
func (p *Policy) History(ctx context.Context) ([]*model.Notification, error) {
	return p.notifications.List(ctx)
}
