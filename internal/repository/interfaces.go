// Package repository はデータ保持のインターフェースとインメモリ実装を定義する。
// 永続化は行わず、プロセス終了とともにデータは失われる。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/medmitra/internal/model"
)

// MedicationRepository は服薬リストの保持インターフェース。
type MedicationRepository interface {
	// List は登録順に全ての薬を返す。
	List(ctx context.Context) ([]*model.Medication, error)

	// FindByName は名前で薬を検索する。大文字小文字は区別しない。見つからない場合はnilを返す。
	FindByName(ctx context.Context, name string) (*model.Medication, error)

	// Create は薬を追加する。同名の薬が存在する場合はDUPLICATE_MEDICATIONエラーを返す。
	Create(ctx context.Context, med *model.Medication) error

	// DeleteByName は名前で薬を削除する。削除した場合はtrueを返す。
	// 関連する服薬記録は履歴として残す。
	DeleteByName(ctx context.Context, name string) (bool, error)
}

// DoseRecordRepository は服薬記録の保持インターフェース。
// 記録は挿入順に保持し、「最新」は最後に挿入された該当レコードを指す。
type DoseRecordRepository interface {
	// Create は記録を末尾に追加する。重複チェックは行わない。
	Create(ctx context.Context, med *model.Medication, scheduledAt time.Time) (*model.DoseRecord, error)

	// CreateIfAbsent は重複排除キー（薬名|予定日）の記録が存在しない場合のみ追加する。
	// チェックと追加はアトミックに行う。作成した場合は第2戻り値がtrueになる。
	CreateIfAbsent(ctx context.Context, med *model.Medication, scheduledAt time.Time) (*model.DoseRecord, bool, error)

	// FindByDedupKey は重複排除キーで記録を検索する。見つからない場合はnilを返す。
	FindByDedupKey(ctx context.Context, dedupKey string) (*model.DoseRecord, error)

	// FindActive は指定した薬の未服用記録のうち最新のものを返す。見つからない場合はnilを返す。
	FindActive(ctx context.Context, medicationName string) (*model.DoseRecord, error)

	// ConfirmTaken は指定した薬の未服用記録のうち最新のものを服用済みにする。
	// taken=true、takenAt=at、missed=falseを設定する。
	// 未服用記録が存在しない場合はnilを返す（エラーではない）。
	ConfirmTaken(ctx context.Context, medicationName string, at time.Time) (*model.DoseRecord, error)

	// ConfirmTakenByKey は重複排除キーで特定した未服用記録を服用済みにする。
	// 記録が存在しないか既に服用済みの場合はnilを返す。
	ConfirmTakenByKey(ctx context.Context, dedupKey string, at time.Time) (*model.DoseRecord, error)

	// MarkOverdueMissed は予定時刻からafterを超えて未服用の記録をすべて飲み忘れとしてマークする。
	// missed=trueを設定し、reminderCountを1増やす。マークした記録を返す。
	MarkOverdueMissed(ctx context.Context, now time.Time, after time.Duration) ([]*model.DoseRecord, error)

	// MissedCountSince は指定した薬のscheduledAt >= sinceかつmissed=trueの記録数を返す。
	MissedCountSince(ctx context.Context, medicationName string, since time.Time) (int, error)

	// ListPending は未服用の記録を挿入順に返す。
	ListPending(ctx context.Context) ([]*model.DoseRecord, error)

	// ListAll は全ての記録を挿入順に返す。
	ListAll(ctx context.Context) ([]*model.DoseRecord, error)
}

// NotificationRepository は介護者通知履歴の保持インターフェース。追記のみ。
type NotificationRepository interface {
	// Append は通知を履歴の末尾に追加する。
	Append(ctx context.Context, n *model.Notification) error

	// List は全ての通知を追加順に返す。
	List(ctx context.Context) ([]*model.Notification, error)

	// ExistsSince は指定した薬についてsince以降の通知が存在するかを返す。
	ExistsSince(ctx context.Context, medicationName string, since time.Time) (bool, error)
}

// ProfileRepository はユーザー情報の保持インターフェース。
type ProfileRepository interface {
	// Get は現在のユーザー情報を返す。
	Get(ctx context.Context) (*model.UserProfile, error)

	// Update はユーザー情報を上書きする。
	Update(ctx context.Context, profile *model.UserProfile) error
}
