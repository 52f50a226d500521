package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/saritasubhra/ai-task-summarizer/internal/middleware"
	"github.com/saritasubhra/ai-task-summarizer/internal/model"
)

// CredentialResolver は保存済みアクセストークンの解決に必要なインターフェース。
// repository.IdentityRepositoryの部分集合として定義する。
type CredentialResolver interface {
	FindByClickUpUserID(ctx context.Context, clickupUserID string) (*model.Identity, error)
}

// AggregatorInterface はタスク集約のインターフェース。
type AggregatorInterface interface {
	Aggregate(ctx context.Context, taskID, accessToken string) (*model.TaskSnapshot, error)
}

// SummarizerInterface は要約生成のインターフェース。
type SummarizerInterface interface {
	Summarize(ctx context.Context, snapshot *model.TaskSnapshot) (*model.SummaryResult, error)
}

// SummarizeMetrics は要約パイプラインのメトリクス記録インターフェース。
type SummarizeMetrics interface {
	RecordSummarizeSuccess()
	RecordSummarizeFailure(stage string)
	RecordSummarizeLatency(duration time.Duration)
}

// SummarizeHandler はタスク要約のHTTPハンドラー。
// 保存済みトークンの解決 → 集約 → 生成のパイプラインを1リクエスト内で編成する。
type SummarizeHandler struct {
	credentials CredentialResolver
	aggregator  AggregatorInterface
	summarizer  SummarizerInterface
	metrics     SummarizeMetrics
}

// NewSummarizeHandler はSummarizeHandlerを生成する。
func NewSummarizeHandler(
	credentials CredentialResolver,
	aggregator AggregatorInterface,
	summarizer SummarizerInterface,
	metrics SummarizeMetrics,
) *SummarizeHandler {
	return &SummarizeHandler{
		credentials: credentials,
		aggregator:  aggregator,
		summarizer:  summarizer,
		metrics:     metrics,
	}
}

// summarizeRequest は要約リクエストのボディ。
type summarizeRequest struct {
	TaskID string `json:"taskId"`
}

// summarizeResponse は要約成功時のレスポンス。
type summarizeResponse struct {
	Summary string            `json:"summary"`
	Meta    model.SummaryMeta `json:"meta"`
}

// errorResponse は要約失敗時のレスポンス。
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Summarize はタスク要約を処理する。
// POST /summarize
// セッションミドルウェアを通過した認証済みリクエストのみが到達する。
// レスポンスは完全な要約またはエラーのいずれかであり、部分的な結果は返さない。
func (h *SummarizeHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.ClickUpUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, model.NewUnauthorizedError())
		return
	}

	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewInvalidRequestError())
		return
	}

	if req.TaskID == "" {
		// 上流呼び出し前に検出するクライアント入力エラー
		writeError(w, model.NewInvalidTaskIDError())
		return
	}

	start := time.Now()

	// 1. 保存済みトークンの解決
	identity, err := h.credentials.FindByClickUpUserID(r.Context(), userID)
	if err != nil {
		slog.Error("failed to resolve credential",
			slog.String("clickup_user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, model.NewInternalError())
		return
	}
	if identity == nil {
		writeError(w, model.NewUnauthorizedError())
		return
	}

	// 2. タスク集約
	snapshot, err := h.aggregator.Aggregate(r.Context(), req.TaskID, identity.AccessToken)
	if err != nil {
		h.recordFailure("aggregate")
		handlePipelineError(w, err)
		return
	}

	// 3. 要約生成
	result, err := h.summarizer.Summarize(r.Context(), snapshot)
	if err != nil {
		h.recordFailure("generate")
		handlePipelineError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSummarizeSuccess()
		h.metrics.RecordSummarizeLatency(time.Since(start))
	}

	writeJSON(w, http.StatusOK, summarizeResponse{
		Summary: result.SummaryText,
		Meta:    result.Meta,
	})
}

// recordFailure は失敗メトリクスを記録する。
func (h *SummarizeHandler) recordFailure(stage string) {
	if h.metrics != nil {
		h.metrics.RecordSummarizeFailure(stage)
	}
}

// handlePipelineError はパイプラインから返されたエラーを適切なHTTPレスポンスに変換する。
// APIError以外のエラーは内部サーバーエラーとして扱う。
func handlePipelineError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Category != model.CategoryClient {
			slog.Error("summarize pipeline failed",
				slog.String("code", apiErr.Code),
				slog.String("detail", apiErr.Detail),
			)
		}
		writeError(w, apiErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	writeError(w, model.NewInternalError())
}

// writeError はAPIErrorをカテゴリに応じたHTTPステータスで書き込む。
// 上流エラーのDetailは診断用としてdetailsに含める。
func writeError(w http.ResponseWriter, apiErr *model.APIError) {
	writeJSON(w, statusForError(apiErr), errorResponse{
		Error:   apiErr.Message,
		Details: apiErr.Detail,
	})
}

// statusForError はAPIErrorからHTTPステータスコードにマッピングする。
func statusForError(apiErr *model.APIError) int {
	switch apiErr.Category {
	case model.CategoryClient:
		if apiErr.Code == model.ErrCodeUnauthorized {
			return http.StatusUnauthorized
		}
		return http.StatusBadRequest
	case model.CategoryUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
