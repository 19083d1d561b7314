package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/medmitra/internal/model"
)

// NotificationHistoryInterface は介護者通知履歴の参照インターフェース。
type NotificationHistoryInterface interface {
	History(ctx context.Context) ([]*model.Notification, error)
}

// NotificationHandler は介護者通知履歴のHTTPハンドラー。
type NotificationHandler struct {
	history NotificationHistoryInterface
}

// NewNotificationHandler はNotificationHandlerを生成する。
func NewNotificationHandler(history NotificationHistoryInterface) *NotificationHandler {
	return &NotificationHandler{history: history}
}

// ListNotifications は介護者通知を生成順に返す。
// GET /api/notifications
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ns, err := h.history.History(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]notificationResponse, len(ns))
	for i, n := range ns {
		items[i] = toNotificationResponse(n)
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": items})
}
