package schedule

import (
	"testing"
	"time"

	"github.com/hitoshi/medmitra/internal/model"
)

func TestDueTimeOf_AllSlots(t *testing.T) {
	tests := []struct {
		slot model.TimeSlot
		want TimeOfDay
	}{
		{model.TimeSlotMorning, TimeOfDay{Hour: 8}},
		{model.TimeSlotAfternoon, TimeOfDay{Hour: 14}},
		{model.TimeSlotEvening, TimeOfDay{Hour: 18}},
		{model.TimeSlotNight, TimeOfDay{Hour: 21}},
	}

	for _, tt := range tests {
		t.Run(string(tt.slot), func(t *testing.T) {
			got := DueTimeOf(tt.slot)
			if got != tt.want {
				t.Errorf("DueTimeOf(%s) = %v, want %v", tt.slot, got, tt.want)
			}
			// 同じ入力には常に同じ結果を返す
			if again := DueTimeOf(tt.slot); again != got {
				t.Errorf("DueTimeOf(%s) is not deterministic: %v != %v", tt.slot, again, got)
			}
		})
	}
}

func TestDueTimeOf_OrderedByMinutes(t *testing.T) {
	prev := -1
	for _, slot := range model.TimeSlots() {
		m := DueTimeOf(slot).Minutes()
		if m <= prev {
			t.Errorf("slot %s minutes = %d, want > %d", slot, m, prev)
		}
		prev = m
	}
}

func TestDueTimeOf_UnknownSlotPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("DueTimeOf with unknown slot should panic")
		}
	}()
	DueTimeOf(model.TimeSlot("Midnight"))
}

func TestTimeOfDay_String(t *testing.T) {
	if got := DueTimeOf(model.TimeSlotMorning).String(); got != "08:00" {
		t.Errorf("String() = %q, want %q", got, "08:00")
	}
}

func TestIsWithinWindow(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"exact", day.Add(18 * time.Hour), true},
		{"two minutes late", day.Add(18*time.Hour + 2*time.Minute), true},
		{"five minutes early", day.Add(17*time.Hour + 55*time.Minute), true},
		{"five minutes late with seconds", day.Add(18*time.Hour + 5*time.Minute + 59*time.Second), true},
		{"six minutes late", day.Add(18*time.Hour + 6*time.Minute), false},
		{"an hour later", day.Add(19 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsWithinWindow(tt.now, model.TimeSlotEvening, 5*time.Minute)
			if got != tt.want {
				t.Errorf("IsWithinWindow(%v) = %v, want %v", tt.now.Format("15:04:05"), got, tt.want)
			}
		})
	}
}

func TestDueAt_TruncatesToSlotTime(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2026, 3, 10, 18, 2, 37, 123, loc)

	got := DueAt(now, model.TimeSlotEvening)
	want := time.Date(2026, 3, 10, 18, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("DueAt = %v, want %v", got, want)
	}
	if got.Location() != loc {
		t.Errorf("DueAt location = %v, want %v", got.Location(), loc)
	}
}

func TestStartOfDay(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 2, 37, 0, time.UTC)
	want := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	if got := StartOfDay(now); !got.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", got, want)
	}
}

func TestDedupKey_SameDaySameKey(t *testing.T) {
	a := DedupKey("Metformin", time.Date(2026, 3, 10, 18, 2, 0, 0, time.UTC))
	b := DedupKey("Metformin", time.Date(2026, 3, 10, 18, 4, 0, 0, time.UTC))
	c := DedupKey("Metformin", time.Date(2026, 3, 11, 18, 2, 0, 0, time.UTC))

	if a != b {
		t.Errorf("keys on the same day differ: %q != %q", a, b)
	}
	if a == c {
		t.Errorf("keys on different days are equal: %q", a)
	}
	if a != "Metformin|2026-03-10" {
		t.Errorf("DedupKey = %q, want %q", a, "Metformin|2026-03-10")
	}
}
