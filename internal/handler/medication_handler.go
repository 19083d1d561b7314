package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/medmitra/internal/medication"
	"github.com/hitoshi/medmitra/internal/model"
)

// MedicationServiceInterface は服薬リストハンドラーが必要とするサービスインターフェース。
type MedicationServiceInterface interface {
	// List は登録順に全ての薬を返す。
	List(ctx context.Context) ([]*model.Medication, error)
	// Add は入力を検証して薬を登録する。
	Add(ctx context.Context, in medication.AddInput) (*model.Medication, error)
	// Delete は名前で薬を削除する。服薬記録は残る。
	Delete(ctx context.Context, name string) error
}

// MedicationHandler は服薬リスト管理のHTTPハンドラー。
type MedicationHandler struct {
	service MedicationServiceInterface
}

// NewMedicationHandler はMedicationHandlerを生成する。
func NewMedicationHandler(service MedicationServiceInterface) *MedicationHandler {
	return &MedicationHandler{
		service: service,
	}
}

// addMedicationRequest は薬登録リクエストのボディ。
type addMedicationRequest struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	TimeSlot     string `json:"time_slot"`
	Instructions string `json:"doctor_instructions"`
	UserName     string `json:"user_name"`
}

// ListMedications は服薬リストを返す。
// GET /api/medications
func (h *MedicationHandler) ListMedications(w http.ResponseWriter, r *http.Request) {
	meds, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]medicationResponse, len(meds))
	for i, med := range meds {
		items[i] = toMedicationResponse(med)
	}
	writeJSON(w, http.StatusOK, map[string]any{"medications": items})
}

// AddMedication は薬を登録する。
// POST /api/medications
func (h *MedicationHandler) AddMedication(w http.ResponseWriter, r *http.Request) {
	var req addMedicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	med, err := h.service.Add(r.Context(), medication.AddInput{
		Name:         req.Name,
		Dosage:       req.Dosage,
		TimeSlot:     req.TimeSlot,
		Instructions: req.Instructions,
		UserName:     req.UserName,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":    true,
		"medication": toMedicationResponse(med),
	})
}

// DeleteMedication は薬を削除する。
// DELETE /api/medications/{name}
func (h *MedicationHandler) DeleteMedication(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.service.Delete(r.Context(), name); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
