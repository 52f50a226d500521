package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const (
	defaultClickUpAuthorizeURL = "https://app.clickup.com/api"
	defaultClickUpTokenURL     = "https://api.clickup.com/api/v2/oauth/token"
	defaultClickUpUserURL      = "https://api.clickup.com/api/v2/user"
)

// ClickUpOAuthConfig はClickUp OAuthプロバイダーの設定。
type ClickUpOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なURL
	AuthorizeURL string
	TokenURL     string
	UserURL      string
}

// ClickUpOAuthProvider はClickUp OAuth 2.0による認証を提供する。
type ClickUpOAuthProvider struct {
	config     ClickUpOAuthConfig
	httpClient *http.Client
}

// NewClickUpOAuthProvider はClickUpOAuthProviderを生成する。
func NewClickUpOAuthProvider(config ClickUpOAuthConfig, httpClient *http.Client) *ClickUpOAuthProvider {
	if config.AuthorizeURL == "" {
		config.AuthorizeURL = defaultClickUpAuthorizeURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultClickUpTokenURL
	}
	if config.UserURL == "" {
		config.UserURL = defaultClickUpUserURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ClickUpOAuthProvider{config: config, httpClient: httpClient}
}

// GetAuthorizeURL はClickUpのOAuth認可URLを生成する。
func (p *ClickUpOAuthProvider) GetAuthorizeURL() string {
	params := url.Values{
		"client_id":    {p.config.ClientID},
		"redirect_uri": {p.config.RedirectURL},
	}
	return p.config.AuthorizeURL + "?" + params.Encode()
}

// clickupTokenResponse はClickUpのトークンエンドポイントのレスポンス。
type clickupTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// clickupUserResponse はClickUpの認証ユーザーエンドポイントのレスポンス。
// user.idは数値で返るためjson.Numberで受ける。
type clickupUserResponse struct {
	User struct {
		ID       json.Number `json:"id"`
		Username string      `json:"username"`
	} `json:"user"`
}

// ExchangeCode は認可コードをアクセストークンに交換し、認証ユーザーのIDを取得する。
// どちらかのステップが失敗した場合は操作全体が失敗する。
func (p *ClickUpOAuthProvider) ExchangeCode(ctx context.Context, code string) (*OAuthResult, error) {
	accessToken, err := p.exchangeToken(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	userID, err := p.fetchAuthorizedUser(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch authorized user: %w", err)
	}

	return &OAuthResult{
		ClickUpUserID: userID,
		AccessToken:   accessToken,
	}, nil
}

// exchangeToken は認可コードをアクセストークンに交換する。
// ClickUpのトークンエンドポイントはJSONボディを受け取る。
func (p *ClickUpOAuthProvider) exchangeToken(ctx context.Context, code string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"client_id":     p.config.ClientID,
		"client_secret": p.config.ClientSecret,
		"code":          code,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp clickupTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("empty access token in response")
	}

	return tokenResp.AccessToken, nil
}

// fetchAuthorizedUser はアクセストークンで認証ユーザーのClickUpユーザーIDを取得する。
// ClickUp APIのAuthorizationヘッダーはBearerプレフィックスなしの生トークンを取る。
func (p *ClickUpOAuthProvider) fetchAuthorizedUser(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create user request: %w", err)
	}
	req.Header.Set("Authorization", accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("user request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read user response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("user fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var userResp clickupUserResponse
	if err := json.Unmarshal(body, &userResp); err != nil {
		return "", fmt.Errorf("failed to parse user response: %w", err)
	}

	if userResp.User.ID.String() == "" {
		return "", fmt.Errorf("empty user id in response")
	}

	return userResp.User.ID.String(), nil
}

// compile-time interface check
var _ OAuthProvider = (*ClickUpOAuthProvider)(nil)
