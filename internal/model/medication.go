// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// TimeSlot は服薬の時間帯を表す。
type TimeSlot string

const (
	// TimeSlotMorning は朝（08:00）の時間帯。
	TimeSlotMorning TimeSlot = "Morning"
	// TimeSlotAfternoon は昼（14:00）の時間帯。
	TimeSlotAfternoon TimeSlot = "Afternoon"
	// TimeSlotEvening は夕方（18:00）の時間帯。
	TimeSlotEvening TimeSlot = "Evening"
	// TimeSlotNight は夜（21:00）の時間帯。
	TimeSlotNight TimeSlot = "Night"
)

// TimeSlots は定義済みの全時間帯を時刻順に返す。
func TimeSlots() []TimeSlot {
	return []TimeSlot{TimeSlotMorning, TimeSlotAfternoon, TimeSlotEvening, TimeSlotNight}
}

// ParseTimeSlot は文字列を時間帯に変換する。大文字小文字は区別しない。
// 未定義の時間帯の場合はバリデーションエラーを返す。
func ParseTimeSlot(s string) (TimeSlot, error) {
	for _, slot := range TimeSlots() {
		if strings.EqualFold(strings.TrimSpace(s), string(slot)) {
			return slot, nil
		}
	}
	return "", NewInvalidTimeSlotError(s)
}

// Medication はユーザーが服用する薬を表す。
// 作成後は変更しない。編集は削除と再作成で表現する。
type Medication struct {
	Name         string
	Dosage       string
	TimeSlot     TimeSlot
	Instructions string
	UserName     string
	CreatedAt    time.Time
}
