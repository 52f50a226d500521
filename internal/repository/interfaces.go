// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/saritasubhra/ai-task-summarizer/internal/model"
)

// IdentityRepository はClickUpユーザーIDとアクセストークンの紐付け（Credential Store）の
// 永続化インターフェース。
type IdentityRepository interface {
	// Upsert はclickup_user_idをキーにidentityを作成または更新する。
	// 既存レコードがある場合はaccess_tokenを上書きする（last-write-wins）。
	Upsert(ctx context.Context, identity *model.Identity) error

	// FindByClickUpUserID は指定ClickUpユーザーIDのidentityを取得する。
	// 見つからない場合はnilを返す。
	FindByClickUpUserID(ctx context.Context, clickupUserID string) (*model.Identity, error)
}

// SessionRepository はセッションデータ（Session Store）の永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}
