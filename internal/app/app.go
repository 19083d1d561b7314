package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/medmitra/internal/config"
	"github.com/hitoshi/medmitra/internal/conversation"
	"github.com/hitoshi/medmitra/internal/escalation"
	"github.com/hitoshi/medmitra/internal/event"
	"github.com/hitoshi/medmitra/internal/handler"
	"github.com/hitoshi/medmitra/internal/intent"
	"github.com/hitoshi/medmitra/internal/logger"
	"github.com/hitoshi/medmitra/internal/medication"
	"github.com/hitoshi/medmitra/internal/metrics"
	"github.com/hitoshi/medmitra/internal/middleware"
	"github.com/hitoshi/medmitra/internal/model"
	"github.com/hitoshi/medmitra/internal/repository"
	"github.com/hitoshi/medmitra/internal/security"
	"github.com/hitoshi/medmitra/internal/user"
	"github.com/hitoshi/medmitra/internal/worker/reminder"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, *slog.Logger, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再セットアップ
	l := logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, l, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, l, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("timezone", cfg.Location.String()),
	)

	return runServe(cfg, l)
}

// Application は依存関係をワイヤリングしたアプリケーション本体。
// グローバル状態を持たず、全コンポーネントはここで生成して注入する。
type Application struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry

	Medications   *repository.MemoryMedicationRepo
	DoseRecords   *repository.MemoryDoseRecordRepo
	Notifications *repository.MemoryNotificationRepo

	Bus          *event.Bus
	Engine       *reminder.Engine
	Escalation   *escalation.Policy
	Users        *user.Service
	Medication   *medication.Service
	Conversation *conversation.Service
	RateLimiter  *middleware.RateLimiter

	Handler http.Handler
}

// New は設定からアプリケーションを構築する。
// clockがnilの場合は設定タイムゾーンの現在時刻を使用する。
func New(cfg *config.Config, l *slog.Logger, clock func() time.Time) *Application {
	if clock == nil {
		loc := cfg.Location
		clock = func() time.Time { return time.Now().In(loc) }
	}

	// 1. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	// 2. リポジトリの初期化
	medRepo := repository.NewMemoryMedicationRepo()
	doseRepo := repository.NewMemoryDoseRecordRepo()
	notificationRepo := repository.NewMemoryNotificationRepo()
	profileRepo := repository.NewMemoryProfileRepo(model.UserProfile{
		UserName:         cfg.UserName,
		CaregiverContact: cfg.CaregiverContact,
	})

	// 3. イベントバス
	bus := event.NewBus(cfg.EventBufferSize, l, collector)

	// 4. ドメインサービスの初期化
	sanitizer := security.NewTextSanitizer()
	userService := user.NewService(profileRepo, sanitizer)
	medService := medication.NewService(medRepo, sanitizer, userService, bus)

	engine := reminder.NewEngine(medRepo, doseRepo, bus, collector, l, reminder.Config{
		Interval:     cfg.ReminderCheckInterval,
		DueTolerance: cfg.ReminderDueTolerance,
		MissedAfter:  cfg.ReminderMissedAfter,
		Clock:        clock,
	})
	policy := escalation.NewPolicy(doseRepo, notificationRepo, profileRepo, bus, collector, l, escalation.Config{
		Threshold:  cfg.EscalationThreshold,
		DedupDaily: cfg.EscalationDedupDaily,
		Clock:      clock,
	})
	convService := conversation.NewService(
		intent.NewKeywordClassifier(), medService, engine, policy, userService, sanitizer, l,
	)

	// 5. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitResponse),
	)
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            l,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		MedicationService: medService,

		DoseHistory:      doseRepo,
		PendingReminders: engine,
		CurrentReminder:  convService,

		ConversationService: convService,
		UserService:         userService,

		NotificationHistory: policy,

		Events:         bus,
		MetricsHandler: metrics.Handler(reg),
	})

	return &Application{
		Config:        cfg,
		Logger:        l,
		Registry:      reg,
		Medications:   medRepo,
		DoseRecords:   doseRepo,
		Notifications: notificationRepo,
		Bus:           bus,
		Engine:        engine,
		Escalation:    policy,
		Users:         userService,
		Medication:    medService,
		Conversation:  convService,
		RateLimiter:   rateLimiter,
		Handler:       router,
	}
}

// Serve はリマインダーエンジンとHTTPサーバーを起動し、ctxがキャンセルされるまでブロックする。
// キャンセル後はHTTPサーバーをグレースフルに停止し、エンジンの停止をShutdownTimeoutまで待つ。
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	defer a.RateLimiter.Stop()

	engineCtx, stopEngine := context.WithCancel(ctx)
	defer stopEngine()

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		a.Engine.Start(engineCtx)
	}()

	server := &http.Server{
		Handler:     a.Handler,
		ReadTimeout: 15 * time.Second,
		// WebSocket配信を切らないため書き込みタイムアウトは設定しない
		IdleTimeout: 60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", ln.Addr().String()),
		)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			stopEngine()
			<-engineDone
			return fmt.Errorf("server listen error: %w", err)
		}
	}

	slog.Info("shutting down API server...")
	stopEngine()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	select {
	case <-engineDone:
	case <-shutdownCtx.Done():
		return fmt.Errorf("reminder engine did not stop within %s", a.Config.ShutdownTimeout)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runServe はAPIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config, l *slog.Logger) error {
	application := New(cfg, l, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.SeedSampleData {
		if err := application.SeedSampleData(ctx); err != nil {
			return fmt.Errorf("failed to seed sample data: %w", err)
		}
	}

	ln, err := net.Listen("tcp", ":"+cfg.ServerPort)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	return application.Serve(ctx, ln)
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
