package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/medmitra/internal/conversation"
	"github.com/hitoshi/medmitra/internal/model"
)

func newTestReminderHandler(history *mockDoseHistory, pending *mockPendingReminders, current *mockCurrentReminder) *ReminderHandler {
	if history == nil {
		history = &mockDoseHistory{}
	}
	if pending == nil {
		pending = &mockPendingReminders{}
	}
	if current == nil {
		current = &mockCurrentReminder{}
	}
	return NewReminderHandler(history, pending, current)
}

// --- GET /api/history テスト ---

func TestReminderHandler_History_SortsNewestFirst(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	history := &mockDoseHistory{
		listAllFn: func(ctx context.Context) ([]*model.DoseRecord, error) {
			return []*model.DoseRecord{
				{ID: "a", MedicationName: "Metoprolol", TimeSlot: model.TimeSlotMorning, ScheduledAt: day.Add(8 * time.Hour)},
				{ID: "b", MedicationName: "Metformin", TimeSlot: model.TimeSlotEvening, ScheduledAt: day.Add(18 * time.Hour), Missed: true, ReminderCount: 1},
				{ID: "c", MedicationName: "Metoprolol", TimeSlot: model.TimeSlotMorning, ScheduledAt: day.Add(-16 * time.Hour)},
			}, nil
		},
	}
	h := newTestReminderHandler(history, nil, nil)

	w := httptest.NewRecorder()
	h.History(w, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	items := decodeBody(t, w)["history"].([]any)
	if len(items) != 3 {
		t.Fatalf("len(history) = %d, want 3", len(items))
	}
	wantOrder := []string{"b", "a", "c"}
	for i, want := range wantOrder {
		if got := items[i].(map[string]any)["id"]; got != want {
			t.Errorf("history[%d].id = %v, want %s", i, got, want)
		}
	}

	missed := items[0].(map[string]any)
	if missed["missed"] != true || missed["reminder_count"] != float64(1) {
		t.Errorf("history[0] = %v, want missed with reminder_count 1", missed)
	}
	if missed["taken_time"] != nil {
		t.Errorf("taken_time = %v, want null", missed["taken_time"])
	}
}

func TestReminderHandler_History_InternalError(t *testing.T) {
	history := &mockDoseHistory{
		listAllFn: func(ctx context.Context) ([]*model.DoseRecord, error) {
			return nil, errors.New("boom")
		},
	}
	h := newTestReminderHandler(history, nil, nil)

	w := httptest.NewRecorder()
	h.History(w, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

// --- GET /api/reminders/pending テスト ---

func TestReminderHandler_Pending(t *testing.T) {
	pending := &mockPendingReminders{
		pendingFn: func(ctx context.Context) ([]*model.DoseRecord, error) {
			return []*model.DoseRecord{
				{ID: "p1", MedicationName: "Metformin", TimeSlot: model.TimeSlotEvening},
			}, nil
		},
	}
	h := newTestReminderHandler(nil, pending, nil)

	w := httptest.NewRecorder()
	h.Pending(w, httptest.NewRequest(http.MethodGet, "/api/reminders/pending", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	items := decodeBody(t, w)["pending"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["medication_name"] != "Metformin" {
		t.Errorf("pending = %v, want one Metformin record", items)
	}
}

// --- GET /api/reminder/current テスト ---

func TestReminderHandler_Current_NoReminder(t *testing.T) {
	h := newTestReminderHandler(nil, nil, nil)

	w := httptest.NewRecorder()
	h.Current(w, httptest.NewRequest(http.MethodGet, "/api/reminder/current", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := decodeBody(t, w)
	if body["has_reminder"] != false {
		t.Errorf("has_reminder = %v, want false", body["has_reminder"])
	}
	if _, ok := body["medication"]; ok {
		t.Error("medication should be absent when there is no reminder")
	}
}

func TestReminderHandler_Current_WithReminder(t *testing.T) {
	current := &mockCurrentReminder{
		currentFn: func(ctx context.Context) (*conversation.CurrentReminder, error) {
			return &conversation.CurrentReminder{
				Medication: &model.Medication{Name: "Metformin", Dosage: "500mg", TimeSlot: model.TimeSlotEvening},
				Record:     &model.DoseRecord{ID: "r1", MedicationName: "Metformin", TimeSlot: model.TimeSlotEvening},
				Text:       "Namaste Mr. Sharma!",
			}, nil
		},
	}
	h := newTestReminderHandler(nil, nil, current)

	w := httptest.NewRecorder()
	h.Current(w, httptest.NewRequest(http.MethodGet, "/api/reminder/current", nil))

	body := decodeBody(t, w)
	if body["has_reminder"] != true {
		t.Errorf("has_reminder = %v, want true", body["has_reminder"])
	}
	if body["reminder_text"] != "Namaste Mr. Sharma!" {
		t.Errorf("reminder_text = %v", body["reminder_text"])
	}
	if med := body["medication"].(map[string]any); med["name"] != "Metformin" {
		t.Errorf("medication.name = %v, want Metformin", med["name"])
	}
	if rec := body["record"].(map[string]any); rec["id"] != "r1" {
		t.Errorf("record.id = %v, want r1", rec["id"])
	}
}
