package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/medmitra/internal/conversation"
	"github.com/hitoshi/medmitra/internal/event"
	"github.com/hitoshi/medmitra/internal/medication"
	"github.com/hitoshi/medmitra/internal/middleware"
	"github.com/hitoshi/medmitra/internal/model"
)

// --- モック定義 ---

// mockMedicationService はMedicationServiceInterfaceのモック実装。
type mockMedicationService struct {
	listFn   func(ctx context.Context) ([]*model.Medication, error)
	addFn    func(ctx context.Context, in medication.AddInput) (*model.Medication, error)
	deleteFn func(ctx context.Context, name string) error
}

func (m *mockMedicationService) List(ctx context.Context) ([]*model.Medication, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockMedicationService) Add(ctx context.Context, in medication.AddInput) (*model.Medication, error) {
	if m.addFn != nil {
		return m.addFn(ctx, in)
	}
	return nil, nil
}

func (m *mockMedicationService) Delete(ctx context.Context, name string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, name)
	}
	return nil
}

// mockDoseHistory はDoseHistoryInterfaceのモック実装。
type mockDoseHistory struct {
	listAllFn func(ctx context.Context) ([]*model.DoseRecord, error)
}

func (m *mockDoseHistory) ListAll(ctx context.Context) ([]*model.DoseRecord, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}

// mockPendingReminders はPendingReminderInterfaceのモック実装。
type mockPendingReminders struct {
	pendingFn func(ctx context.Context) ([]*model.DoseRecord, error)
}

func (m *mockPendingReminders) PendingReminders(ctx context.Context) ([]*model.DoseRecord, error) {
	if m.pendingFn != nil {
		return m.pendingFn(ctx)
	}
	return nil, nil
}

// mockCurrentReminder はCurrentReminderInterfaceのモック実装。
type mockCurrentReminder struct {
	currentFn func(ctx context.Context) (*conversation.CurrentReminder, error)
}

func (m *mockCurrentReminder) Current(ctx context.Context) (*conversation.CurrentReminder, error) {
	if m.currentFn != nil {
		return m.currentFn(ctx)
	}
	return nil, nil
}

// mockConversationService はConversationServiceInterfaceのモック実装。
type mockConversationService struct {
	respondFn      func(ctx context.Context, text string) (*conversation.Reply, error)
	reminderTextFn func(ctx context.Context, med *model.Medication) (string, error)
}

func (m *mockConversationService) Respond(ctx context.Context, text string) (*conversation.Reply, error) {
	if m.respondFn != nil {
		return m.respondFn(ctx, text)
	}
	return &conversation.Reply{}, nil
}

func (m *mockConversationService) ReminderText(ctx context.Context, med *model.Medication) (string, error) {
	if m.reminderTextFn != nil {
		return m.reminderTextFn(ctx, med)
	}
	return "", nil
}

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	profileFn func(ctx context.Context) (*model.UserProfile, error)
	setupFn   func(ctx context.Context, userName, caregiverContact string) (*model.UserProfile, error)
}

func (m *mockUserService) Profile(ctx context.Context) (*model.UserProfile, error) {
	if m.profileFn != nil {
		return m.profileFn(ctx)
	}
	return &model.UserProfile{UserName: model.DefaultUserName}, nil
}

func (m *mockUserService) Setup(ctx context.Context, userName, caregiverContact string) (*model.UserProfile, error) {
	if m.setupFn != nil {
		return m.setupFn(ctx, userName, caregiverContact)
	}
	return &model.UserProfile{UserName: userName, CaregiverContact: caregiverContact}, nil
}

// mockNotificationHistory はNotificationHistoryInterfaceのモック実装。
type mockNotificationHistory struct {
	historyFn func(ctx context.Context) ([]*model.Notification, error)
}

func (m *mockNotificationHistory) History(ctx context.Context) ([]*model.Notification, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx)
	}
	return nil, nil
}

// mockEventSubscriber はEventSubscriberのモック実装。
type mockEventSubscriber struct {
	ch           chan event.Event
	unsubscribed chan struct{}
}

func newMockEventSubscriber() *mockEventSubscriber {
	return &mockEventSubscriber{
		ch:           make(chan event.Event, 4),
		unsubscribed: make(chan struct{}),
	}
}

func (m *mockEventSubscriber) Subscribe() (<-chan event.Event, func()) {
	return m.ch, func() { close(m.unsubscribed) }
}

// --- テストヘルパー ---

// discardLogger はテスト用に出力を捨てるロガーを返す。
func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// withURLParam はテスト用にchiのURLパラメータを注入したコンテキストを返す。
func withURLParam(ctx context.Context, key, value string) context.Context {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return context.WithValue(ctx, chi.RouteCtxKey, rctx)
}

// parseAPIErrorResponse はレスポンスボディからエラーレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var result middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// decodeBody はレスポンスボディを汎用マップにデコードするヘルパー。
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return result
}
