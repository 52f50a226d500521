package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// Categoryは障害の分類（client / upstream / infra）を示し、
// HTTPステータスコードへのマッピングに使用する。
// Detailは上流サービスの診断情報で、ログとレスポンスのdetailsにのみ現れる。
type APIError struct {
	Code     string // エラーコード
	Message  string // クライアント向けメッセージ
	Category string // カテゴリ: client, upstream, infra
	Detail   string // 上流エラーの診断情報（任意）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// エラーカテゴリ
const (
	CategoryClient   = "client"
	CategoryUpstream = "upstream"
	CategoryInfra    = "infra"
)

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeInvalidTaskID      = "INVALID_TASK_ID"
	ErrCodeOAuthFailed        = "OAUTH_FAILED"
	ErrCodeTaskFetchFailed    = "TASK_FETCH_FAILED"
	ErrCodeCommentFetchFailed = "COMMENT_FETCH_FAILED"
	ErrCodeGenerationFailed   = "GENERATION_FAILED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewUnauthorizedError は認証が必要な操作への未認証アクセスエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Login required",
		Category: CategoryClient,
	}
}

// NewInvalidTaskIDError はタスクIDが欠落または不正な場合のエラーを生成する。
// 上流呼び出し前に検出されるクライアント入力エラー。
func NewInvalidTaskIDError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTaskID,
		Message:  "taskId is required",
		Category: CategoryClient,
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "Invalid request body",
		Category: CategoryClient,
	}
}

// NewOAuthFailedError はOAuth交換の失敗エラーを生成する。
// 上流の詳細はDetailに保持し、クライアントには一般的なメッセージのみ返す。
func NewOAuthFailedError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeOAuthFailed,
		Message:  "Authentication failed",
		Category: CategoryUpstream,
		Detail:   detail,
	}
}

// NewTaskFetchFailedError はタスクメタデータ取得の失敗エラーを生成する。
func NewTaskFetchFailedError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeTaskFetchFailed,
		Message:  "Failed to fetch task from ClickUp",
		Category: CategoryUpstream,
		Detail:   detail,
	}
}

// NewCommentFetchFailedError はコメント一覧取得の失敗エラーを生成する。
func NewCommentFetchFailedError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeCommentFetchFailed,
		Message:  "Failed to fetch task comments from ClickUp",
		Category: CategoryUpstream,
		Detail:   detail,
	}
}

// NewGenerationFailedError は要約生成呼び出しの失敗エラーを生成する。
func NewGenerationFailedError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeGenerationFailed,
		Message:  "Failed to summarize task",
		Category: CategoryUpstream,
		Detail:   detail,
	}
}

// NewInternalError はストア障害などのインフラエラーを生成する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Internal server error",
		Category: CategoryInfra,
	}
}
