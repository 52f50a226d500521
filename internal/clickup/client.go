// Package clickup はClickUpタスクAPIのクライアントを提供する。
// タスク詳細とタスクコメントの取得を含む。
package clickup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// defaultBaseURL はClickUp API v2のベースURL。
const defaultBaseURL = "https://api.clickup.com/api/v2"

// Task はタスク詳細エンドポイントのレスポンスのうち、要約に使用するフィールド。
// 任意フィールドはポインタまたはゼロ値で欠損を表現し、正規化は上位層で行う。
type Task struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Status       *Status     `json:"status"`
	Priority     *Priority   `json:"priority"`
	Assignees    []Assignee  `json:"assignees"`
	StartDate    string      `json:"start_date"`    // ミリ秒epochの文字列。欠損時は空
	DueDate      string      `json:"due_date"`      // ミリ秒epochの文字列。欠損時は空
	TimeEstimate json.Number `json:"time_estimate"` // ミリ秒。欠損時は空
}

// Status はタスクのステータス。
type Status struct {
	Status string `json:"status"`
}

// Priority はタスクの優先度。
type Priority struct {
	Priority string `json:"priority"`
}

// Assignee はタスクの担当者。
type Assignee struct {
	Username string `json:"username"`
}

// Comment はタスクのディスカッションコメント。
type Comment struct {
	CommentText string `json:"comment_text"`
}

// commentsResponse はコメント一覧エンドポイントのレスポンス。
type commentsResponse struct {
	Comments []Comment `json:"comments"`
}

// StatusRecorder は上流レスポンスのHTTPステータスコードを記録するインターフェース。
type StatusRecorder interface {
	RecordUpstreamStatus(statusCode int)
}

// Client はClickUpタスクAPIのクライアント。
// すべての呼び出しはアクセストークンによるbearer認証を行う
// （ClickUpのAuthorizationヘッダーはBearerプレフィックスなしの生トークン）。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string // テスト用にベースURLを差し替え可能
	recorder   StatusRecorder
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    defaultBaseURL,
	}
}

// NewClientWithBaseURL はベースURLを指定してClientを生成する。テスト用。
func NewClientWithBaseURL(httpClient *http.Client, logger *slog.Logger, baseURL string) *Client {
	c := NewClient(httpClient, logger)
	c.baseURL = baseURL
	return c
}

// SetStatusRecorder は上流ステータスコードのレコーダーを設定する。
func (c *Client) SetStatusRecorder(recorder StatusRecorder) {
	c.recorder = recorder
}

// GetTask は指定タスクIDのタスク詳細を取得する。
func (c *Client) GetTask(ctx context.Context, taskID, accessToken string) (*Task, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/task/%s", c.baseURL, taskID), accessToken)
	if err != nil {
		return nil, err
	}

	var task Task
	if err := json.Unmarshal(body, &task); err != nil {
		return nil, fmt.Errorf("failed to parse task response: %w", err)
	}

	return &task, nil
}

// GetTaskComments は指定タスクIDのコメント一覧を上流の返却順のまま取得する。
func (c *Client) GetTaskComments(ctx context.Context, taskID, accessToken string) ([]Comment, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/task/%s/comment", c.baseURL, taskID), accessToken)
	if err != nil {
		return nil, err
	}

	var resp commentsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse comments response: %w", err)
	}

	return resp.Comments, nil
}

// get は認証付きGETリクエストを実行し、レスポンスボディを返す。
func (c *Client) get(ctx context.Context, reqURL, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("clickup api request failed",
			slog.String("url", reqURL),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("clickup api request failed: %w", err)
	}
	defer resp.Body.Close()

	if c.recorder != nil {
		c.recorder.RecordUpstreamStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("clickup api returned error status",
			slog.String("url", reqURL),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("clickup api returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
