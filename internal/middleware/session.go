// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/saritasubhra/ai-task-summarizer/internal/model"
)

const sessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// clickupUserIDContextKey はリクエストコンテキストにClickUpユーザーIDを格納するためのキー。
var clickupUserIDContextKey = contextKey("clickup_user_id")

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// 有効性を検証するミドルウェアを返す。
// 認証済みClickUpユーザーIDをリクエストコンテキストに注入する。
// 未認証リクエストには401と {"error": "Login required"} を返し、
// 上流呼び出しを一切発生させない。
func NewSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. CookieからセッションIDを取得
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				writeLoginRequired(w)
				return
			}

			// 2. セッションの有効性を検証（期限切れはストア側でnil扱い）
			session, err := sessionFinder.FindByID(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to find session",
					slog.String("error", err.Error()),
				)
				writeLoginRequired(w)
				return
			}
			if session == nil {
				writeLoginRequired(w)
				return
			}

			// 3. 認証済みClickUpユーザーIDをコンテキストに注入
			ctx := context.WithValue(r.Context(), clickupUserIDContextKey, session.ClickUpUserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClickUpUserIDFromContext はリクエストコンテキストからClickUpユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func ClickUpUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(clickupUserIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("clickup user ID not found in context")
	}
	return userID, nil
}

// ContextWithClickUpUserID はコンテキストにClickUpユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithClickUpUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, clickupUserIDContextKey, userID)
}

// writeLoginRequired は未認証レスポンスを書き込む。
func writeLoginRequired(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Login required"})
}
