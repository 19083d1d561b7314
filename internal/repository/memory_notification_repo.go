package repository

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/medmitra/internal/model"
)

// MemoryNotificationRepo はインメモリの介護者通知履歴リポジトリ。
type MemoryNotificationRepo struct {
	mu            sync.RWMutex
	notifications []*model.Notification
}

// NewMemoryNotificationRepo はMemoryNotificationRepoを生成する。
func NewMemoryNotificationRepo() *MemoryNotificationRepo {
	return &MemoryNotificationRepo{}
}

var _ NotificationRepository = (*MemoryNotificationRepo)(nil)

// Append は通知を履歴の末尾に追加する。
func (r *MemoryNotificationRepo) Append(ctx context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *n
	r.notifications = append(r.notifications, &c)
	return nil
}

// List は全ての通知を追加順に返す。
func (r *MemoryNotificationRepo) List(ctx context.Context) ([]*model.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*model.Notification, len(r.notifications))
	for i, n := range r.notifications {
		c := *n
		list[i] = &c
	}
	return list, nil
}

// ExistsSince は指定した薬についてsince以降の通知が存在するかを返す。
func (r *MemoryNotificationRepo) ExistsSince(ctx context.Context, medicationName string, since time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.notifications {
		if n.MedicationName == medicationName && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}
