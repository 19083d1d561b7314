// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は薬の名前や医師の指示、ユーザーの返答などの自由入力から
// マークアップを除去し、プレーンテキストとして保存できる形に整える。
// bluemondayのStrictPolicyを使用し、全てのタグと属性を取り除く。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は自由入力のサニタイズ機能のインターフェースを定義する。
// 薬の登録時とユーザー返答の受付時に使用される。
type TextSanitizer interface {
	// Sanitize は入力から全てのHTMLタグを除去し、前後の空白を取り除いたテキストを返す。
	// script, styleタグは内容ごと除去される。
	// 戻り値はプレーンテキストであり、HTMLとして埋め込む場合は呼び出し側でエスケープすること。
	// 同一入力に対して常に同一出力を返す。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなため共有して使用する。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からマークアップを除去する。
// StrictPolicyが行うエンティティのエスケープは元に戻し、"&"などを含む指示文をそのまま保持する。
func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}
