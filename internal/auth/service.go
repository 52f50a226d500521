// Package auth はClickUp OAuth認証フローとセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/saritasubhra/ai-task-summarizer/internal/model"
	"github.com/saritasubhra/ai-task-summarizer/internal/repository"
)

// OAuthResult はOAuth交換で取得した認証情報を表す。
type OAuthResult struct {
	ClickUpUserID string
	AccessToken   string
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// GetAuthorizeURL はOAuth認可URLを生成する。
	GetAuthorizeURL() string
	// ExchangeCode は認可コードをトークンに交換し、認証ユーザーのIDを取得する。
	ExchangeCode(ctx context.Context, code string) (*OAuthResult, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	oauth       OAuthProvider
	identRepo   repository.IdentityRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	oauth OAuthProvider,
	identRepo repository.IdentityRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		oauth:       oauth,
		identRepo:   identRepo,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// GetAuthorizeURL はOAuth認可URLを生成する。
func (s *Service) GetAuthorizeURL() string {
	return s.oauth.GetAuthorizeURL()
}

// CompleteLogin はOAuthコールバックを処理し、セッションを発行する。
// 認可コードの交換 → 認証ユーザー取得 → トークンのupsert → セッション作成の順に実行し、
// いずれかのステップが失敗した場合は操作全体を中断する。
// ストアへの部分的な書き込みは発生しない（失敗時点より後の書き込みは行われない）。
func (s *Service) CompleteLogin(ctx context.Context, code string) (*model.Session, error) {
	// 1. 認可コードをトークンに交換し、認証ユーザーを特定
	result, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	// 2. トークンをupsert（同一ユーザーの再ログインは上書き）
	now := time.Now()
	identity := &model.Identity{
		ID:            uuid.New().String(),
		ClickUpUserID: result.ClickUpUserID,
		AccessToken:   result.AccessToken,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.identRepo.Upsert(ctx, identity); err != nil {
		return nil, fmt.Errorf("failed to store credential: %w", err)
	}

	// 3. セッションを発行
	session, err := s.createSession(ctx, result.ClickUpUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in",
		slog.String("clickup_user_id", result.ClickUpUserID),
	)

	return session, nil
}

// CurrentIdentity はセッションIDから現在の認証済みidentityを取得する。
// セッションが無効・期限切れ、またはidentityが存在しない場合はエラーを返す。
func (s *Service) CurrentIdentity(ctx context.Context, sessionID string) (*model.Identity, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session not found or expired")
	}

	identity, err := s.identRepo.FindByClickUpUserID(ctx, session.ClickUpUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find identity: %w", err)
	}
	if identity == nil {
		return nil, fmt.Errorf("identity not found")
	}

	return identity, nil
}

// Logout はセッションを破棄する。保存済みトークンは削除しない。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, clickupUserID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:            sessionID,
		ClickUpUserID: clickupUserID,
		ExpiresAt:     time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt:     time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
