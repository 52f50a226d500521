// Package security はアプリケーションのセキュリティ機能を提供する。
//
// CommentSanitizerService は上流から取得したコメント本文をサニタイズし、
// HTMLタグを除去した素のテキストに変換する。
// コメント本文はそのままLLMプロンプトに埋め込まれるため、
// マークアップやscriptタグの混入をここで遮断する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// CommentSanitizerService はコメント本文のサニタイズ機能のインターフェースを定義する。
type CommentSanitizerService interface {
	// Sanitize はコメント本文からすべてのHTMLタグを除去し、素のテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// commentSanitizer はCommentSanitizerServiceの実装。
// bluemondayのStrictPolicy（全タグ除去）を保持し、スレッドセーフにサニタイズ処理を行う。
type commentSanitizer struct {
	policy *bluemonday.Policy
}

// NewCommentSanitizer はCommentSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはすべてのHTML要素と属性を除去し、テキストノードのみを残す。
func NewCommentSanitizer() *commentSanitizer {
	return &commentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はコメント本文からHTMLタグを除去し、前後の空白をトリムして返す。
// bluemondayはテキストをHTMLエスケープして返すため、エスケープを戻してから返す。
func (s *commentSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// compile-time interface check
var _ CommentSanitizerService = (*commentSanitizer)(nil)
