package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/hitoshi/medmitra/internal/model"
)

// MemoryMedicationRepo はインメモリの服薬リストリポジトリ。
type MemoryMedicationRepo struct {
	mu          sync.RWMutex
	medications []*model.Medication
}

// NewMemoryMedicationRepo はMemoryMedicationRepoを生成する。
func NewMemoryMedicationRepo() *MemoryMedicationRepo {
	return &MemoryMedicationRepo{}
}

var _ MedicationRepository = (*MemoryMedicationRepo)(nil)

// List は登録順に全ての薬を返す。
func (r *MemoryMedicationRepo) List(ctx context.Context) ([]*model.Medication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meds := make([]*model.Medication, len(r.medications))
	for i, m := range r.medications {
		c := *m
		meds[i] = &c
	}
	return meds, nil
}

// FindByName は名前で薬を検索する。
func (r *MemoryMedicationRepo) FindByName(ctx context.Context, name string) (*model.Medication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexLocked(name); i >= 0 {
		c := *r.medications[i]
		return &c, nil
	}
	return nil, nil
}

// Create は薬を追加する。
func (r *MemoryMedicationRepo) Create(ctx context.Context, med *model.Medication) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexLocked(med.Name) >= 0 {
		return model.NewDuplicateMedicationError(med.Name)
	}
	c := *med
	r.medications = append(r.medications, &c)
	return nil
}

// DeleteByName は名前で薬を削除する。
func (r *MemoryMedicationRepo) DeleteByName(ctx context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(name)
	if i < 0 {
		return false, nil
	}
	r.medications = append(r.medications[:i], r.medications[i+1:]...)
	return true, nil
}

func (r *MemoryMedicationRepo) indexLocked(name string) int {
	for i, m := range r.medications {
		if strings.EqualFold(m.Name, name) {
			return i
		}
	}
	return -1
}
