package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/medmitra/internal/middleware"
	"github.com/hitoshi/medmitra/internal/model"
	"github.com/hitoshi/medmitra/internal/schedule"
)

// maxRequestBodyBytes はJSONリクエストボディの上限サイズ。
const maxRequestBodyBytes = 64 << 10

// medicationResponse は薬情報のAPIレスポンス。
type medicationResponse struct {
	Name         string    `json:"name"`
	Dosage       string    `json:"dosage"`
	TimeSlot     string    `json:"time_slot"`
	DueTime      string    `json:"due_time,omitempty"`
	Instructions string    `json:"doctor_instructions"`
	UserName     string    `json:"user_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// doseRecordResponse は服薬記録のAPIレスポンス。
type doseRecordResponse struct {
	ID             string     `json:"id"`
	MedicationName string     `json:"medication_name"`
	Dosage         string     `json:"dosage"`
	TimeSlot       string     `json:"time_slot"`
	ScheduledTime  time.Time  `json:"scheduled_time"`
	Taken          bool       `json:"taken"`
	TakenTime      *time.Time `json:"taken_time"`
	Missed         bool       `json:"missed"`
	ReminderCount  int        `json:"reminder_count"`
}

// notificationResponse は介護者通知のAPIレスポンス。
type notificationResponse struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	User             string    `json:"user"`
	Medication       string    `json:"medication"`
	TimeSlot         string    `json:"time_slot"`
	MissedCount      int       `json:"missed_count"`
	Message          string    `json:"message"`
	CaregiverContact string    `json:"caregiver_contact"`
}

func toMedicationResponse(med *model.Medication) medicationResponse {
	return medicationResponse{
		Name:         med.Name,
		Dosage:       med.Dosage,
		TimeSlot:     string(med.TimeSlot),
		DueTime:      schedule.DueTimeOf(med.TimeSlot).String(),
		Instructions: med.Instructions,
		UserName:     med.UserName,
		CreatedAt:    med.CreatedAt,
	}
}

func toDoseRecordResponse(rec *model.DoseRecord) doseRecordResponse {
	return doseRecordResponse{
		ID:             rec.ID,
		MedicationName: rec.MedicationName,
		Dosage:         rec.Dosage,
		TimeSlot:       string(rec.TimeSlot),
		ScheduledTime:  rec.ScheduledAt,
		Taken:          rec.Taken,
		TakenTime:      rec.TakenAt,
		Missed:         rec.Missed,
		ReminderCount:  rec.ReminderCount,
	}
}

func toNotificationResponse(n *model.Notification) notificationResponse {
	return notificationResponse{
		ID:               n.ID,
		Timestamp:        n.CreatedAt,
		User:             n.UserName,
		Medication:       n.MedicationName,
		TimeSlot:         string(n.TimeSlot),
		MissedCount:      n.MissedCount,
		Message:          n.Message,
		CaregiverContact: n.CaregiverContact,
	}
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON はリクエストボディをデコードする。失敗時は400を書き込んでfalseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		middleware.WriteAPIError(w, model.NewInvalidRequestError())
		return false
	}
	return true
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}
