// Package reminder は服薬リマインダーのライフサイクルを駆動するバックグラウンドエンジンを提供する。
// 定期ティックで服薬時刻を迎えた薬を検出して記録を作成し、
// 予定時刻から一定時間を過ぎても未服用の記録を飲み忘れとしてマークする。
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/medmitra/internal/event"
	"github.com/hitoshi/medmitra/internal/metrics"
	"github.com/hitoshi/medmitra/internal/model"
	"github.com/hitoshi/medmitra/internal/repository"
	"github.com/hitoshi/medmitra/internal/schedule"
)

// MedicationLister は服薬リストの取得インターフェース。
// repository.MedicationRepositoryの部分集合として定義する。
type MedicationLister interface {
	List(ctx context.Context) ([]*model.Medication, error)
}

// Publisher はイベント送信のインターフェース。
type Publisher interface {
	Publish(ev event.Event)
}

// Config はエンジンの設定パラメータ。
type Config struct {
	// Interval はティック間隔（デフォルト: 60秒）。
	Interval time.Duration
	// DueTolerance は予定時刻からの許容幅（デフォルト: 5分）。
	DueTolerance time.Duration
	// MissedAfter は飲み忘れと判定するまでの経過時間（デフォルト: 1時間）。
	MissedAfter time.Duration
	// Clock は現在時刻を返す関数。nilの場合はtime.Nowを使用する。
	// 戻り値のタイムゾーンが暦日の判定に使われる。
	Clock func() time.Time
}

// DefaultConfig はデフォルトのエンジン設定を返す。
func DefaultConfig() Config {
	return Config{
		Interval:     60 * time.Second,
		DueTolerance: 5 * time.Minute,
		MissedAfter:  time.Hour,
		Clock:        time.Now,
	}
}

// Engine はリマインダーの検出と飲み忘れ判定を行うエンジン。
// 服薬記録の唯一の情報源はDoseRecordRepositoryであり、エンジン自身は記録を保持しない。
type Engine struct {
	medications MedicationLister
	records     repository.DoseRecordRepository
	publisher   Publisher
	metrics     metrics.MetricsCollector
	logger      *slog.Logger
	config      Config
}

// NewEngine はEngineの新しいインスタンスを生成する。
// 0以下の設定値はDefaultConfigの値で補完する。
func NewEngine(
	medications MedicationLister,
	records repository.DoseRecordRepository,
	publisher Publisher,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	config Config,
) *Engine {
	def := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.DueTolerance <= 0 {
		config.DueTolerance = def.DueTolerance
	}
	if config.MissedAfter <= 0 {
		config.MissedAfter = def.MissedAfter
	}
	if config.Clock == nil {
		config.Clock = def.Clock
	}
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Engine{
		medications: medications,
		records:     records,
		publisher:   publisher,
		metrics:     collector,
		logger:      logger,
		config:      config,
	}
}

// Now はエンジンの時計で現在時刻を返す。
func (e *Engine) Now() time.Time {
	return e.config.Clock()
}

// Start は設定間隔のティッカーでエンジンを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
// キャンセルはティックの合間に確認されるため、実行中のティックは最後まで完了する。
func (e *Engine) Start(ctx context.Context) {
	ticker := time.NewTicker(e.config.Interval)
	defer ticker.Stop()

	e.logger.Info("リマインダーエンジンを開始しました",
		slog.Duration("interval", e.config.Interval),
		slog.Duration("due_tolerance", e.config.DueTolerance),
		slog.Duration("missed_after", e.config.MissedAfter),
	)

	// 起動直後に1回実行
	e.runTick(ctx)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("リマインダーエンジンを停止しました")
			return
		case <-ticker.C:
			e.runTick(ctx)
		}
	}
}

// RunOnce は現在時刻で1回分のティックを実行する。
func (e *Engine) RunOnce(ctx context.Context) error {
	return e.Tick(ctx, e.Now())
}

// runTick はティックを実行し、エラーやpanicをログに記録して握りつぶす。
// 1回のティックの失敗で以降のリマインダーが止まってはならない。
func (e *Engine) runTick(ctx context.Context) {
	if err := e.safeTick(ctx, e.Now()); err != nil {
		e.metrics.RecordTickFailure()
		e.logger.Error("リマインダーティックの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}

// safeTick はTick中のpanicをエラーに変換する。
func (e *Engine) safeTick(ctx context.Context, now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during tick: %v", r)
		}
	}()
	return e.Tick(ctx, now)
}

// Tick はnow時点での服薬時刻検出と飲み忘れ判定を1回実行する。
// 経過時間ではなく絶対時刻で評価するため、ティックの遅延や欠落は次回で自己修正される。
// 服薬時刻検出と飲み忘れ判定は独立しており、一方の失敗が他方を妨げない。
func (e *Engine) Tick(ctx context.Context, now time.Time) error {
	start := time.Now()
	var errs []error

	if err := e.detectDue(ctx, now); err != nil {
		errs = append(errs, err)
	}
	if err := e.sweepMissed(ctx, now); err != nil {
		errs = append(errs, err)
	}

	if pending, err := e.records.ListPending(ctx); err == nil {
		e.metrics.SetPendingReminders(len(pending))
	}

	e.metrics.RecordTickLatency(time.Since(start))
	return errors.Join(errs...)
}

// detectDue は許容幅内に予定時刻がある薬について、当日分の記録が未作成なら作成してReminderDueを発行する。
func (e *Engine) detectDue(ctx context.Context, now time.Time) error {
	meds, err := e.medications.List(ctx)
	if err != nil {
		return fmt.Errorf("服薬リストの取得に失敗しました: %w", err)
	}

	var errs []error
	for _, med := range meds {
		if !schedule.IsWithinWindow(now, med.TimeSlot, e.config.DueTolerance) {
			continue
		}

		rec, created, err := e.records.CreateIfAbsent(ctx, med, schedule.DueAt(now, med.TimeSlot))
		if err != nil {
			errs = append(errs, fmt.Errorf("服薬記録の作成に失敗しました (%s): %w", med.Name, err))
			continue
		}
		if !created {
			continue
		}

		e.logger.Info("服薬リマインダーを発行します",
			slog.String("medication", med.Name),
			slog.String("dedup_key", rec.DedupKey),
			slog.Time("scheduled_at", rec.ScheduledAt),
		)
		e.metrics.RecordReminderDue(med.Name)
		e.publisher.Publish(event.Event{
			Type:       event.TypeReminderDue,
			Medication: med,
			Record:     rec,
			OccurredAt: now,
		})
	}
	return errors.Join(errs...)
}

// sweepMissed は予定時刻からMissedAfterを超えた未服用記録を飲み忘れとしてマークする。
// 未服用のままであればティックのたびに再マークされ、reminderCountが増加する。
// DoseMissedの発行とメトリクスの記録は未マークから飲み忘れへ遷移したときの1回のみ。
func (e *Engine) sweepMissed(ctx context.Context, now time.Time) error {
	flagged, err := e.records.MarkOverdueMissed(ctx, now, e.config.MissedAfter)
	if err != nil {
		return fmt.Errorf("飲み忘れ判定に失敗しました: %w", err)
	}

	for _, rec := range flagged {
		if !rec.FirstMissed() {
			e.logger.Debug("飲み忘れ記録を再マークしました",
				slog.String("medication", rec.MedicationName),
				slog.String("dedup_key", rec.DedupKey),
				slog.Int("reminder_count", rec.ReminderCount),
			)
			continue
		}
		e.logger.Warn("服薬記録を飲み忘れとしてマークしました",
			slog.String("medication", rec.MedicationName),
			slog.String("dedup_key", rec.DedupKey),
			slog.Int("reminder_count", rec.ReminderCount),
		)
		e.metrics.RecordDoseMissed(rec.MedicationName)
		e.publisher.Publish(event.Event{
			Type:       event.TypeDoseMissed,
			Record:     rec,
			OccurredAt: now,
		})
	}
	return nil
}

// MarkTaken は当日の重複排除キーで特定した記録を服用済みにする。
// 該当する未服用記録がない場合はnilを返す（エラーではない）。
func (e *Engine) MarkTaken(ctx context.Context, med *model.Medication) (*model.DoseRecord, error) {
	if med == nil {
		return nil, model.NewInvalidInputError("medication is required")
	}
	now := e.Now()
	rec, err := e.records.ConfirmTakenByKey(ctx, schedule.DedupKey(med.Name, now), now)
	if err != nil {
		return nil, fmt.Errorf("服用記録の更新に失敗しました: %w", err)
	}
	if rec != nil {
		e.onTaken(rec, now)
	}
	return rec, nil
}

// ConfirmTaken は指定した薬の最新の未服用記録を服用済みにする。
// 飲み忘れ判定済みの記録も対象となり、missedフラグはクリアされる。
// 該当する記録がない場合はnilを返す（エラーではない）。
func (e *Engine) ConfirmTaken(ctx context.Context, medicationName string, at time.Time) (*model.DoseRecord, error) {
	rec, err := e.records.ConfirmTaken(ctx, medicationName, at)
	if err != nil {
		return nil, fmt.Errorf("服用記録の更新に失敗しました: %w", err)
	}
	if rec != nil {
		e.onTaken(rec, at)
	}
	return rec, nil
}

// PendingReminders は未服用の記録を返す。
func (e *Engine) PendingReminders(ctx context.Context) ([]*model.DoseRecord, error) {
	return e.records.ListPending(ctx)
}

func (e *Engine) onTaken(rec *model.DoseRecord, at time.Time) {
	e.logger.Info("服用を記録しました",
		slog.String("medication", rec.MedicationName),
		slog.String("dedup_key", rec.DedupKey),
		slog.Time("taken_at", at),
	)
	e.metrics.RecordDoseTaken(rec.MedicationName)
	e.publisher.Publish(event.Event{
		Type:       event.TypeDoseTaken,
		Record:     rec,
		OccurredAt: at,
	})
}
