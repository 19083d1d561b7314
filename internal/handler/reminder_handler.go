package handler

import (
	"context"
	"net/http"
	"sort"

	"github.com/hitoshi/medmitra/internal/conversation"
	"github.com/hitoshi/medmitra/internal/model"
)

// DoseHistoryInterface は服薬記録の参照インターフェース。
type DoseHistoryInterface interface {
	ListAll(ctx context.Context) ([]*model.DoseRecord, error)
}

// PendingReminderInterface は確認待ちリマインダーの参照インターフェース。
type PendingReminderInterface interface {
	PendingReminders(ctx context.Context) ([]*model.DoseRecord, error)
}

// CurrentReminderInterface は現在のリマインダーの参照インターフェース。
type CurrentReminderInterface interface {
	Current(ctx context.Context) (*conversation.CurrentReminder, error)
}

// ReminderHandler は服薬記録とリマインダー参照のHTTPハンドラー。
type ReminderHandler struct {
	history DoseHistoryInterface
	pending PendingReminderInterface
	current CurrentReminderInterface
}

// NewReminderHandler はReminderHandlerを生成する。
func NewReminderHandler(
	history DoseHistoryInterface,
	pending PendingReminderInterface,
	current CurrentReminderInterface,
) *ReminderHandler {
	return &ReminderHandler{
		history: history,
		pending: pending,
		current: current,
	}
}

// History は服薬記録を予定時刻の新しい順で返す。
// GET /api/history
func (h *ReminderHandler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.history.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ScheduledAt.After(records[j].ScheduledAt)
	})

	writeJSON(w, http.StatusOK, map[string]any{"history": toDoseRecordResponses(records)})
}

// Pending は服用が未確認の記録を返す。
// GET /api/reminders/pending
func (h *ReminderHandler) Pending(w http.ResponseWriter, r *http.Request) {
	records, err := h.pending.PendingReminders(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"pending": toDoseRecordResponses(records)})
}

// Current は確認待ちのリマインダーを返す。なければhas_reminder=falseを返す。
// GET /api/reminder/current
func (h *ReminderHandler) Current(w http.ResponseWriter, r *http.Request) {
	cur, err := h.current.Current(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if cur == nil {
		writeJSON(w, http.StatusOK, map[string]any{"has_reminder": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"has_reminder":  true,
		"medication":    toMedicationResponse(cur.Medication),
		"record":        toDoseRecordResponse(cur.Record),
		"reminder_text": cur.Text,
	})
}

func toDoseRecordResponses(records []*model.DoseRecord) []doseRecordResponse {
	items := make([]doseRecordResponse, len(records))
	for i, rec := range records {
		items[i] = toDoseRecordResponse(rec)
	}
	return items
}
