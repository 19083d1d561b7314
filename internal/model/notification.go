package model

import "time"

// Notification は介護者向けに生成された通知を表す。
// 通知履歴として追記のみ行う。
type Notification struct {
	ID               string
	UserName         string
	MedicationName   string
	TimeSlot         TimeSlot
	MissedCount      int
	Message          string
	CaregiverContact string
	CreatedAt        time.Time
}
