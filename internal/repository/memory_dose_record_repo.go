package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/medmitra/internal/model"
	"github.com/hitoshi/medmitra/internal/schedule"
)

// MemoryDoseRecordRepo はインメモリの服薬記録リポジトリ。
// 全ての記録を挿入順のスライスで保持し、単一のミューテックスで読み書きを保護する。
// 呼び出し元にはコピーを返すため、記録の変更はリポジトリ経由でのみ行われる。
type MemoryDoseRecordRepo struct {
	mu      sync.Mutex
	records []*model.DoseRecord
	byKey   map[string]*model.DoseRecord
}

// NewMemoryDoseRecordRepo はMemoryDoseRecordRepoを生成する。
func NewMemoryDoseRecordRepo() *MemoryDoseRecordRepo {
	return &MemoryDoseRecordRepo{
		byKey: make(map[string]*model.DoseRecord),
	}
}

var _ DoseRecordRepository = (*MemoryDoseRecordRepo)(nil)

// Create は記録を末尾に追加する。重複チェックは行わない。
// 同一キーの記録が既にある場合、キー索引は新しい記録を指す。
func (r *MemoryDoseRecordRepo) Create(ctx context.Context, med *model.Medication, scheduledAt time.Time) (*model.DoseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.appendLocked(med, scheduledAt)
	return cloneRecord(rec), nil
}

// CreateIfAbsent は重複排除キーの記録が存在しない場合のみ追加する。
func (r *MemoryDoseRecordRepo) CreateIfAbsent(ctx context.Context, med *model.Medication, scheduledAt time.Time) (*model.DoseRecord, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := schedule.DedupKey(med.Name, scheduledAt)
	if existing, ok := r.byKey[key]; ok {
		return cloneRecord(existing), false, nil
	}

	rec := r.appendLocked(med, scheduledAt)
	return cloneRecord(rec), true, nil
}

// FindByDedupKey は重複排除キーで記録を検索する。
func (r *MemoryDoseRecordRepo) FindByDedupKey(ctx context.Context, dedupKey string) (*model.DoseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byKey[dedupKey]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

// FindActive は指定した薬の未服用記録のうち最新のものを返す。
func (r *MemoryDoseRecordRepo) FindActive(ctx context.Context, medicationName string) (*model.DoseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.findActiveLocked(medicationName)
	if rec == nil {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

// ConfirmTaken は指定した薬の最新の未服用記録を服用済みにする。
// 検索と更新を同一ロック内で行い、飲み忘れスイープとの競合による更新の消失を防ぐ。
func (r *MemoryDoseRecordRepo) ConfirmTaken(ctx context.Context, medicationName string, at time.Time) (*model.DoseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.findActiveLocked(medicationName)
	if rec == nil {
		return nil, nil
	}
	markTaken(rec, at)
	return cloneRecord(rec), nil
}

// ConfirmTakenByKey は重複排除キーで特定した未服用記録を服用済みにする。
func (r *MemoryDoseRecordRepo) ConfirmTakenByKey(ctx context.Context, dedupKey string, at time.Time) (*model.DoseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byKey[dedupKey]
	if !ok || rec.Taken {
		return nil, nil
	}
	markTaken(rec, at)
	return cloneRecord(rec), nil
}

// MarkOverdueMissed は予定時刻からafterを超えて未服用の記録を飲み忘れとしてマークする。
// 呼び出しのたびにreminderCountは単調増加する。missedフラグの再設定は冪等。
func (r *MemoryDoseRecordRepo) MarkOverdueMissed(ctx context.Context, now time.Time, after time.Duration) ([]*model.DoseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var flagged []*model.DoseRecord
	for _, rec := range r.records {
		if rec.Taken {
			continue
		}
		if now.Sub(rec.ScheduledAt) > after {
			rec.Missed = true
			rec.ReminderCount++
			flagged = append(flagged, cloneRecord(rec))
		}
	}
	return flagged, nil
}

// MissedCountSince は指定した薬のsince以降に予定された飲み忘れ記録数を返す。
func (r *MemoryDoseRecordRepo) MissedCountSince(ctx context.Context, medicationName string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, rec := range r.records {
		if rec.MedicationName == medicationName && !rec.ScheduledAt.Before(since) && rec.Missed {
			count++
		}
	}
	return count, nil
}

// ListPending は未服用の記録を挿入順に返す。
func (r *MemoryDoseRecordRepo) ListPending(ctx context.Context) ([]*model.DoseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending := make([]*model.DoseRecord, 0)
	for _, rec := range r.records {
		if rec.Pending() {
			pending = append(pending, cloneRecord(rec))
		}
	}
	return pending, nil
}

// ListAll は全ての記録を挿入順に返す。
func (r *MemoryDoseRecordRepo) ListAll(ctx context.Context) ([]*model.DoseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]*model.DoseRecord, len(r.records))
	for i, rec := range r.records {
		all[i] = cloneRecord(rec)
	}
	return all, nil
}

// appendLocked は新しい記録を生成して末尾に追加する。r.muを保持した状態で呼ぶこと。
func (r *MemoryDoseRecordRepo) appendLocked(med *model.Medication, scheduledAt time.Time) *model.DoseRecord {
	rec := &model.DoseRecord{
		ID:             uuid.New().String(),
		MedicationName: med.Name,
		Dosage:         med.Dosage,
		TimeSlot:       med.TimeSlot,
		DedupKey:       schedule.DedupKey(med.Name, scheduledAt),
		ScheduledAt:    scheduledAt,
		CreatedAt:      time.Now().UTC(),
	}
	r.records = append(r.records, rec)
	r.byKey[rec.DedupKey] = rec
	return rec
}

// findActiveLocked は末尾から走査し、指定した薬の最初の未服用記録を返す。
func (r *MemoryDoseRecordRepo) findActiveLocked(medicationName string) *model.DoseRecord {
	for i := len(r.records) - 1; i >= 0; i-- {
		rec := r.records[i]
		if rec.MedicationName == medicationName && !rec.Taken {
			return rec
		}
	}
	return nil
}

// markTaken は記録を服用済み状態に遷移させる。reminderCountは履歴として保持する。
func markTaken(rec *model.DoseRecord, at time.Time) {
	takenAt := at
	rec.Taken = true
	rec.TakenAt = &takenAt
	rec.Missed = false
}

func cloneRecord(rec *model.DoseRecord) *model.DoseRecord {
	c := *rec
	if rec.TakenAt != nil {
		t := *rec.TakenAt
		c.TakenAt = &t
	}
	return &c
}
