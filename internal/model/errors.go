// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, medication, reminder, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidTimeSlot     = "INVALID_TIME_SLOT"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeMedicationNotFound  = "MEDICATION_NOT_FOUND"
	ErrCodeDuplicateMedication = "DUPLICATE_MEDICATION"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// NewInvalidTimeSlotError は未定義の時間帯が指定された場合のエラーを生成する。
func NewInvalidTimeSlotError(slot string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTimeSlot,
		Message:  fmt.Sprintf("無効な時間帯です: %s", slot),
		Category: "validation",
		Action:   "時間帯には Morning、Afternoon、Evening、Night のいずれかを指定してください。",
	}
}

// NewInvalidInputError は入力値が不正な場合のエラーを生成する。
func NewInvalidInputError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInput,
		Message:  fmt.Sprintf("入力が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewMedicationNotFoundError は薬が見つからない場合のエラーを生成する。
func NewMedicationNotFoundError(name string) *APIError {
	return &APIError{
		Code:     ErrCodeMedicationNotFound,
		Message:  fmt.Sprintf("指定された薬が見つかりません: %s", name),
		Category: "medication",
		Action:   "薬の名前を確認してください。",
	}
}

// NewDuplicateMedicationError は同名の薬が既に登録されている場合のエラーを生成する。
func NewDuplicateMedicationError(name string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateMedication,
		Message:  fmt.Sprintf("同じ名前の薬が既に登録されています: %s", name),
		Category: "medication",
		Action:   "変更する場合は既存の薬を削除してから登録し直してください。",
	}
}

// NewInvalidRequestError はリクエストボディが解析できない場合のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewRateLimitError はリクエスト数が上限を超えた場合のエラーを生成する。
func NewRateLimitError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
