package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/saritasubhra/ai-task-summarizer/internal/model"
)

// PostgresIdentityRepo はPostgreSQLを使用したidentityリポジトリ。
type PostgresIdentityRepo struct {
	db *sql.DB
}

// NewPostgresIdentityRepo はPostgresIdentityRepoを生成する。
func NewPostgresIdentityRepo(db *sql.DB) *PostgresIdentityRepo {
	return &PostgresIdentityRepo{db: db}
}

// Upsert はclickup_user_idをキーにidentityを作成または更新する。
// 同一ユーザーの並行ログインはDBのアトミックなupsertによりlast-write-winsで解決される。
func (r *PostgresIdentityRepo) Upsert(ctx context.Context, identity *model.Identity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO identities (id, clickup_user_id, access_token, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (clickup_user_id)
		 DO UPDATE SET access_token = EXCLUDED.access_token, updated_at = EXCLUDED.updated_at`,
		identity.ID, identity.ClickUpUserID, identity.AccessToken, identity.CreatedAt, identity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert identity: %w", err)
	}
	return nil
}

// FindByClickUpUserID は指定ClickUpユーザーIDのidentityを取得する。
// 見つからない場合はnilを返す。
func (r *PostgresIdentityRepo) FindByClickUpUserID(ctx context.Context, clickupUserID string) (*model.Identity, error) {
	identity := &model.Identity{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, clickup_user_id, access_token, created_at, updated_at
		 FROM identities
		 WHERE clickup_user_id = $1`,
		clickupUserID,
	).Scan(&identity.ID, &identity.ClickUpUserID, &identity.AccessToken, &identity.CreatedAt, &identity.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find identity: %w", err)
	}

	return identity, nil
}

// compile-time interface check
var _ IdentityRepository = (*PostgresIdentityRepo)(nil)
