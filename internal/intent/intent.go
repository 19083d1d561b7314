// Package intent はユーザーの自由入力を意図に分類する。
// 自然言語理解は行わず、単語境界でのキーワード一致のみで判定する。
package intent

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Intent はユーザー入力の分類結果。
type Intent string

const (
	Emergency Intent = "emergency"
	Yes       Intent = "yes"
	No        Intent = "no"
	Question  Intent = "question"
	Confused  Intent = "confused"
	Unknown   Intent = "unknown"
)

// Classifier は入力テキストを意図に分類するインターフェース。
type Classifier interface {
	Classify(text string) Intent
}

type rule struct {
	intent   Intent
	keywords []string
	// negatable が真の場合、否定語の直後に現れたキーワードは一致とみなさない。
	negatable bool
}

// negators は肯定キーワードを打ち消す直前の語。
var negators = map[string]bool{
	"not": true, "no": true, "nahi": true, "na": true, "never": true,
	"didn't": true, "didnt": true, "haven't": true, "havent": true,
}

// KeywordClassifier はキーワード一覧を単語境界で照合して分類するClassifier。
// ルールは定義順に評価し、最初に一致した意図を返す。
type KeywordClassifier struct {
	rules []rule
}

// NewKeywordClassifier は既定のキーワード一覧（英語とHinglish）でKeywordClassifierを生成する。
// 緊急症状の判定を最優先とする。
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		rules: []rule{
			{Emergency, []string{"emergency", "severe", "gambhir", "tez dard", "sans nahi aa rahi", "chest pain", "heart attack", "stroke"}, false},
			{Yes, []string{"haan", "yes", "hmm", "le li", "le liya", "ho gaya", "done", "ok"}, true},
			{No, []string{"nahi", "no", "not", "abhi nahi", "baad mein", "not yet", "wait"}, false},
			{Question, []string{"kisliye", "kyun", "kya hai", "what is", "why", "purpose", "kaam"}, false},
			{Confused, []string{"confused", "sad", "upset", "pareshan", "udaas", "samajh nahi aa raha"}, false},
		},
	}
}

var _ Classifier = (*KeywordClassifier)(nil)

// Classify は入力を小文字化し、キーワードを単語として含む最初のルールの意図を返す。
func (c *KeywordClassifier) Classify(text string) Intent {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return Unknown
	}
	for _, r := range c.rules {
		for _, kw := range r.keywords {
			if containsWord(lower, kw, r.negatable) {
				return r.intent
			}
		}
	}
	return Unknown
}

// containsWord はkwが前後を単語境界に挟まれて出現するかを返す。
// negatableの場合、直前の語が否定語である出現は除外する。
func containsWord(s, kw string, negatable bool) bool {
	for offset := 0; offset < len(s); {
		i := strings.Index(s[offset:], kw)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(kw)
		offset = start + 1

		if !isBoundaryBefore(s, start) || !isBoundaryAfter(s, end) {
			continue
		}
		if negatable && negators[previousWord(s, start)] {
			continue
		}
		return true
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isBoundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func isBoundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

// previousWord はiより前にある直近の語を返す。アポストロフィは語の一部として扱う。
func previousWord(s string, i int) string {
	fields := strings.FieldsFunc(s[:i], func(r rune) bool {
		return !isWordRune(r) && r != '\''
	})
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
