// Package event はリマインダーエンジンからトランスポート層への通知チャネルを提供する。
// エンジンは配送方法を知らず、購読者はチャネルからイベントを受け取る。
package event

import (
	"time"

	"github.com/hitoshi/medmitra/internal/model"
)

// Type はイベント種別を表す。
type Type string

const (
	// TypeReminderDue は新たに服薬時刻を迎えたことを示す。
	TypeReminderDue Type = "medication_reminder"
	// TypeDoseMissed は服薬記録が飲み忘れとしてマークされたことを示す。
	TypeDoseMissed Type = "dose_missed"
	// TypeDoseTaken は服薬が確認されたことを示す。
	TypeDoseTaken Type = "medication_taken"
	// TypeCaregiverAlert は介護者向け通知が生成されたことを示す。
	TypeCaregiverAlert Type = "caregiver_alert"
	// TypeMedicationAdded は薬が追加されたことを示す。
	TypeMedicationAdded Type = "medication_added"
	// TypeMedicationDeleted は薬が削除されたことを示す。
	TypeMedicationDeleted Type = "medication_deleted"
)

// Event はバスを流れるイベント。種別に応じて該当するフィールドのみ設定される。
type Event struct {
	Type         Type
	Medication   *model.Medication
	Record       *model.DoseRecord
	Notification *model.Notification
	OccurredAt   time.Time
}
