// Package schedule は時間帯から服薬予定時刻への変換を提供する。
// 状態を持たない純粋関数のみで構成する。
package schedule

import (
	"fmt"
	"time"

	"github.com/hitoshi/medmitra/internal/model"
)

// dateLayout は重複排除キーに使用する日付フォーマット。
const dateLayout = "2006-01-02"

// TimeOfDay は1日の中の時刻（時・分）を表す。
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Minutes は0時からの経過分を返す。時刻の全順序比較に使用する。
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// String は "HH:MM" 形式の文字列を返す。
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// DueTimeOf は時間帯に対応する服薬予定時刻を返す。
//
//	Morning→08:00, Afternoon→14:00, Evening→18:00, Night→21:00
//
// 未定義の時間帯はプログラミングエラーとしてpanicする。
func DueTimeOf(slot model.TimeSlot) TimeOfDay {
	switch slot {
	case model.TimeSlotMorning:
		return TimeOfDay{Hour: 8}
	case model.TimeSlotAfternoon:
		return TimeOfDay{Hour: 14}
	case model.TimeSlotEvening:
		return TimeOfDay{Hour: 18}
	case model.TimeSlotNight:
		return TimeOfDay{Hour: 21}
	default:
		panic(fmt.Sprintf("schedule: unknown time slot %q", slot))
	}
}

// MinutesOfDay はtの0時からの経過分を返す。秒以下は切り捨てる。
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// IsWithinWindow はnowが時間帯の予定時刻から許容幅以内かどうかを返す。
// 比較は分単位で |nowMinutes - dueMinutes| <= tolerance を評価する。
// 日付をまたぐ比較は行わない。
func IsWithinWindow(now time.Time, slot model.TimeSlot, tolerance time.Duration) bool {
	diff := MinutesOfDay(now) - DueTimeOf(slot).Minutes()
	if diff < 0 {
		diff = -diff
	}
	return diff <= int(tolerance/time.Minute)
}

// DueAt はnowと同じ暦日における時間帯の予定時刻を返す。
// 秒・ナノ秒は0に丸める。タイムゾーンはnowのものを使用する。
func DueAt(now time.Time, slot model.TimeSlot) time.Time {
	due := DueTimeOf(slot)
	return time.Date(now.Year(), now.Month(), now.Day(), due.Hour, due.Minute, 0, 0, now.Location())
}

// StartOfDay はnowと同じ暦日の0時を返す。
func StartOfDay(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// DedupKey は薬名と暦日から重複排除キーを生成する。
// 同一キーのレコードは1日に1つまでしか作成されない。
func DedupKey(medicationName string, now time.Time) string {
	return medicationName + "|" + now.Format(dateLayout)
}
