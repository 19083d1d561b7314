package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/medmitra/internal/conversation"
	"github.com/hitoshi/medmitra/internal/model"
)

// ConversationServiceInterface はユーザー返答の処理インターフェース。
type ConversationServiceInterface interface {
	Respond(ctx context.Context, text string) (*conversation.Reply, error)
	ReminderText(ctx context.Context, med *model.Medication) (string, error)
}

// UserServiceInterface はユーザー情報の更新インターフェース。
type UserServiceInterface interface {
	Profile(ctx context.Context) (*model.UserProfile, error)
	Setup(ctx context.Context, userName, caregiverContact string) (*model.UserProfile, error)
}

// UserHandler はユーザー返答と初期設定のHTTPハンドラー。
type UserHandler struct {
	conversation ConversationServiceInterface
	users        UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(conversation ConversationServiceInterface, users UserServiceInterface) *UserHandler {
	return &UserHandler{
		conversation: conversation,
		users:        users,
	}
}

type userResponseRequest struct {
	Text string `json:"text"`
}

// replyResponse はユーザー返答への応答。WebSocketではTypeを付けて送る。
// caregiver_alertは介護者通知が生成された場合のみメッセージ文字列、それ以外はnull。
type replyResponse struct {
	Type            string  `json:"type,omitempty"`
	Response        string  `json:"response"`
	Intent          string  `json:"intent"`
	CaregiverAlert  *string `json:"caregiver_alert"`
	MedicationTaken bool    `json:"medication_taken"`
}

func toReplyResponse(reply *conversation.Reply) replyResponse {
	var alert *string
	if reply.CaregiverAlert != nil {
		alert = &reply.CaregiverAlert.Message
	}
	return replyResponse{
		Response:        reply.Text,
		Intent:          string(reply.Intent),
		CaregiverAlert:  alert,
		MedicationTaken: reply.MedicationTaken,
	}
}

type setupRequest struct {
	UserName         string `json:"user_name"`
	CaregiverContact string `json:"caregiver_contact"`
}

type profileResponse struct {
	UserName         string `json:"user_name"`
	CaregiverContact string `json:"caregiver_contact"`
}

// Respond はユーザーの返答に応答する。
// POST /api/user/response
func (h *UserHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req userResponseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.conversation.Respond(r.Context(), req.Text)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReplyResponse(reply))
}

// Setup はユーザー名と介護者連絡先を設定する。
// POST /api/setup
func (h *UserHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var req setupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.users.Setup(r.Context(), req.UserName, req.CaregiverContact)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    profileResponse{UserName: p.UserName, CaregiverContact: p.CaregiverContact},
	})
}

// GetProfile は現在のユーザー情報を返す。
// GET /api/setup
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.users.Profile(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{UserName: p.UserName, CaregiverContact: p.CaregiverContact})
}
