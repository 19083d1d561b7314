// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// リマインダーエンジンやエスカレーションポリシーから利用する。
type MetricsCollector interface {
	RecordReminderDue(medication string)
	RecordDoseMissed(medication string)
	RecordDoseTaken(medication string)
	RecordEscalation(medication string)
	RecordTickLatency(duration time.Duration)
	RecordTickFailure()
	RecordEventDropped(eventType string)
	SetPendingReminders(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	remindersDue     *prometheus.CounterVec
	dosesMissed      *prometheus.CounterVec
	dosesTaken       *prometheus.CounterVec
	escalations      *prometheus.CounterVec
	tickLatency      prometheus.Histogram
	tickFailures     prometheus.Counter
	eventsDropped    *prometheus.CounterVec
	pendingReminders prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		remindersDue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medmitra_reminders_due_total",
			Help: "発行されたリマインダーの合計数",
		}, []string{"medication"}),
		dosesMissed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medmitra_doses_missed_total",
			Help: "飲み忘れとしてマークされた回数（再マークを含む）",
		}, []string{"medication"}),
		dosesTaken: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medmitra_doses_taken_total",
			Help: "服用が確認された回数",
		}, []string{"medication"}),
		escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medmitra_caregiver_escalations_total",
			Help: "介護者通知の生成数",
		}, []string{"medication"}),
		tickLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "medmitra_tick_duration_seconds",
			Help:    "スケジューラティック1回あたりの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		tickFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medmitra_tick_failures_total",
			Help: "失敗したスケジューラティックの合計数",
		}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medmitra_events_dropped_total",
			Help: "購読者のバッファ溢れで破棄されたイベント数",
		}, []string{"event_type"}),
		pendingReminders: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "medmitra_pending_reminders",
			Help: "未服用の服薬記録数",
		}),
	}

	reg.MustRegister(
		c.remindersDue,
		c.dosesMissed,
		c.dosesTaken,
		c.escalations,
		c.tickLatency,
		c.tickFailures,
		c.eventsDropped,
		c.pendingReminders,
	)

	return c
}

// RecordReminderDue はリマインダー発行を記録する。
func (c *Collector) RecordReminderDue(medication string) {
	c.remindersDue.WithLabelValues(medication).Inc()
}

// RecordDoseMissed は飲み忘れマークを記録する。
func (c *Collector) RecordDoseMissed(medication string) {
	c.dosesMissed.WithLabelValues(medication).Inc()
}

// RecordDoseTaken は服用確認を記録する。
func (c *Collector) RecordDoseTaken(medication string) {
	c.dosesTaken.WithLabelValues(medication).Inc()
}

// RecordEscalation は介護者通知の生成を記録する。
func (c *Collector) RecordEscalation(medication string) {
	c.escalations.WithLabelValues(medication).Inc()
}

// RecordTickLatency はティックの処理時間を記録する。
func (c *Collector) RecordTickLatency(duration time.Duration) {
	c.tickLatency.Observe(duration.Seconds())
}

// RecordTickFailure はティックの失敗を記録する。
func (c *Collector) RecordTickFailure() {
	c.tickFailures.Inc()
}

// RecordEventDropped はイベント破棄を記録する。
func (c *Collector) RecordEventDropped(eventType string) {
	c.eventsDropped.WithLabelValues(eventType).Inc()
}

// SetPendingReminders は未服用記録数を設定する。
func (c *Collector) SetPendingReminders(count int) {
	c.pendingReminders.Set(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector。テストやメトリクス無効時に使用する。
type NopCollector struct{}

func (NopCollector) RecordReminderDue(string)        {}
func (NopCollector) RecordDoseMissed(string)         {}
func (NopCollector) RecordDoseTaken(string)          {}
func (NopCollector) RecordEscalation(string)         {}
func (NopCollector) RecordTickLatency(time.Duration) {}
func (NopCollector) RecordTickFailure()              {}
func (NopCollector) RecordEventDropped(string)       {}
func (NopCollector) SetPendingReminders(int)         {}
