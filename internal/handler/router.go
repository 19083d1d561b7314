package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/medmitra/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 服薬リスト
	MedicationService MedicationServiceInterface

	// 服薬記録とリマインダー
	DoseHistory      DoseHistoryInterface
	PendingReminders PendingReminderInterface
	CurrentReminder  CurrentReminderInterface

	// ユーザー
	ConversationService ConversationServiceInterface
	UserService         UserServiceInterface

	// 介護者通知
	NotificationHistory NotificationHistoryInterface

	// イベント配信
	Events EventSubscriber

	// メトリクス（nilの場合は/metricsを公開しない）
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → Logging → Recovery → SecurityHeaders → CORS → RateLimitMiddleware(GeneralMiddleware)
//
// /health、/metrics、/ws/events はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	medHandler := NewMedicationHandler(deps.MedicationService)
	reminderHandler := NewReminderHandler(deps.DoseHistory, deps.PendingReminders, deps.CurrentReminder)
	userHandler := NewUserHandler(deps.ConversationService, deps.UserService)
	notificationHandler := NewNotificationHandler(deps.NotificationHistory)

	// --- 運用系のルート ---
	r.Get("/health", Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	if deps.Events != nil {
		r.Method(http.MethodGet, "/ws/events", NewEventStreamHandler(deps.Events, deps.ConversationService, deps.CORSAllowedOrigin))
	}

	// --- API ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 服薬リスト
		r.Route("/api/medications", func(r chi.Router) {
			r.Get("/", medHandler.ListMedications)
			r.Post("/", medHandler.AddMedication)
			r.Delete("/{name}", medHandler.DeleteMedication)
		})

		// 服薬記録とリマインダー
		r.Get("/api/history", reminderHandler.History)
		r.Get("/api/reminders/pending", reminderHandler.Pending)
		r.Get("/api/reminder/current", reminderHandler.Current)

		// ユーザー返答（返答専用レート制限を追加）
		r.With(deps.RateLimiter.ResponseMiddleware()).Post("/api/user/response", userHandler.Respond)

		// 初期設定
		r.Get("/api/setup", userHandler.GetProfile)
		r.Post("/api/setup", userHandler.Setup)

		// 介護者通知
		r.Get("/api/notifications", notificationHandler.ListNotifications)
	})

	return r
}

// Health はプロセスの稼働状況を返す。
// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
