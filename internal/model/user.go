package model

// DefaultUserName はユーザー名が未設定の場合の表示名。
const DefaultUserName = "User"

// UserProfile はプロセス全体で共有するユーザー情報を表す。
// 単一ユーザー前提のため、1インスタンスにつき1つだけ存在する。
type UserProfile struct {
	UserName         string
	CaregiverContact string
}
