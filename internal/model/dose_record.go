package model

import "time"

// DoseRecord は特定の日における1回分の服薬予定とその結果を表す。
// 薬は名前で弱参照する。レコードは履歴として削除しない。
type DoseRecord struct {
	ID             string
	MedicationName string
	Dosage         string
	TimeSlot       TimeSlot
	// DedupKey は「薬名|日付」形式の重複排除キー。
	DedupKey      string
	ScheduledAt   time.Time
	Taken         bool
	TakenAt       *time.Time
	Missed        bool
	ReminderCount int
	CreatedAt     time.Time
}

// Pending は服薬が未確認かどうかを返す。
func (r *DoseRecord) Pending() bool {
	return !r.Taken
}

// FirstMissed は飲み忘れマークが初めて付いた直後の状態かどうかを返す。
// reminderCountは飲み忘れスイープでのみ増えるため、1であれば未マークからの遷移を意味する。
func (r *DoseRecord) FirstMissed() bool {
	return r.Missed && r.ReminderCount == 1
}
