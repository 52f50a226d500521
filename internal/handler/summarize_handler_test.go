package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/saritasubhra/ai-task-summarizer/internal/middleware"
	"github.com/saritasubhra/ai-task-summarizer/internal/model"
)

// --- モック定義 ---

type mockCredentialResolver struct {
	findByClickUpUserIDFn func(ctx context.Context, clickupUserID string) (*model.Identity, error)
}

func (m *mockCredentialResolver) FindByClickUpUserID(ctx context.Context, clickupUserID string) (*model.Identity, error) {
	if m.findByClickUpUserIDFn != nil {
		return m.findByClickUpUserIDFn(ctx, clickupUserID)
	}
	return &model.Identity{ClickUpUserID: clickupUserID, AccessToken: "stored-token"}, nil
}

type mockAggregator struct {
	aggregateFn func(ctx context.Context, taskID, accessToken string) (*model.TaskSnapshot, error)
}

func (m *mockAggregator) Aggregate(ctx context.Context, taskID, accessToken string) (*model.TaskSnapshot, error) {
	if m.aggregateFn != nil {
		return m.aggregateFn(ctx, taskID, accessToken)
	}
	return &model.TaskSnapshot{TaskID: taskID}, nil
}

type mockSummarizer struct {
	summarizeFn func(ctx context.Context, snapshot *model.TaskSnapshot) (*model.SummaryResult, error)
}

func (m *mockSummarizer) Summarize(ctx context.Context, snapshot *model.TaskSnapshot) (*model.SummaryResult, error) {
	if m.summarizeFn != nil {
		return m.summarizeFn(ctx, snapshot)
	}
	return &model.SummaryResult{}, nil
}

type mockMetrics struct {
	successCount int
	failures     []string
	latencies    []time.Duration
}

func (m *mockMetrics) RecordSummarizeSuccess()                { m.successCount++ }
func (m *mockMetrics) RecordSummarizeFailure(stage string)    { m.failures = append(m.failures, stage) }
func (m *mockMetrics) RecordSummarizeLatency(d time.Duration) { m.latencies = append(m.latencies, d) }

var _ CredentialResolver = (*mockCredentialResolver)(nil)
var _ AggregatorInterface = (*mockAggregator)(nil)
var _ SummarizerInterface = (*mockSummarizer)(nil)
var _ SummarizeMetrics = (*mockMetrics)(nil)

func summarizeRequestWithUser(body, userID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.ContextWithClickUpUserID(req.Context(), userID))
	return req
}

// --- テスト ---

func TestSummarize_Success_ReturnsSummaryAndMeta(t *testing.T) {
	aggregator := &mockAggregator{
		aggregateFn: func(ctx context.Context, taskID, accessToken string) (*model.TaskSnapshot, error) {
			if taskID != "task-1" {
				t.Errorf("taskID = %q, want %q", taskID, "task-1")
			}
			if accessToken != "stored-token" {
				t.Errorf("accessToken = %q, want stored token", accessToken)
			}
			return &model.TaskSnapshot{
				TaskID:        taskID,
				Name:          "Fix signup bug",
				Status:        "in progress",
				RemainingDays: "3 days left",
			}, nil
		},
	}
	summarizer := &mockSummarizer{
		summarizeFn: func(ctx context.Context, snapshot *model.TaskSnapshot) (*model.SummaryResult, error) {
			return &model.SummaryResult{
				SummaryText: "## Task Overview\n- summary",
				Meta: model.SummaryMeta{
					RemainingDays: snapshot.RemainingDays,
					TaskName:      snapshot.Name,
					Status:        snapshot.Status,
				},
			}, nil
		},
	}
	metrics := &mockMetrics{}
	h := NewSummarizeHandler(&mockCredentialResolver{}, aggregator, summarizer, metrics)

	rec := httptest.NewRecorder()
	h.Summarize(rec, summarizeRequestWithUser(`{"taskId": "task-1"}`, "user-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		Summary string `json:"summary"`
		Meta    struct {
			RemainingDays string `json:"remainingDays"`
			TaskName      string `json:"taskName"`
			Status        string `json:"status"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if resp.Summary != "## Task Overview\n- summary" {
		t.Errorf("summary = %q", resp.Summary)
	}
	if resp.Meta.RemainingDays != "3 days left" {
		t.Errorf("meta.remainingDays = %q, want %q", resp.Meta.RemainingDays, "3 days left")
	}
	if resp.Meta.TaskName != "Fix signup bug" {
		t.Errorf("meta.taskName = %q", resp.Meta.TaskName)
	}
	if resp.Meta.Status != "in progress" {
		t.Errorf("meta.status = %q", resp.Meta.Status)
	}

	// 成功メトリクスが記録されること
	if metrics.successCount != 1 {
		t.Errorf("successCount = %d, want 1", metrics.successCount)
	}
	if len(metrics.latencies) != 1 {
		t.Errorf("latencies = %d entries, want 1", len(metrics.latencies))
	}
}

func TestSummarize_EmptyTaskID_Returns400BeforeUpstream(t *testing.T) {
	upstreamCalled := false
	aggregator := &mockAggregator{
		aggregateFn: func(ctx context.Context, taskID, accessToken string) (*model.TaskSnapshot, error) {
			upstreamCalled = true
			return nil, nil
		},
	}
	h := NewSummarizeHandler(&mockCredentialResolver{}, aggregator, &mockSummarizer{}, nil)

	rec := httptest.NewRecorder()
	h.Summarize(rec, summarizeRequestWithUser(`{"taskId": ""}`, "user-1"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	// 上流呼び出し前に拒否されること
	if upstreamCalled {
		t.Error("aggregator should not be called for empty taskId")
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["error"] != "taskId is required" {
		t.Errorf(`error = %q, want "taskId is required"`, resp["error"])
	}
}

func TestSummarize_MalformedBody_Returns400(t *testing.T) {
	h := NewSummarizeHandler(&mockCredentialResolver{}, &mockAggregator{}, &mockSummarizer{}, nil)

	rec := httptest.NewRecorder()
	h.Summarize(rec, summarizeRequestWithUser(`{not json`, "user-1"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSummarize_NoStoredCredential_Returns401(t *testing.T) {
	credentials := &mockCredentialResolver{
		findByClickUpUserIDFn: func(ctx context.Context, clickupUserID string) (*model.Identity, error) {
			return nil, nil
		},
	}
	h := NewSummarizeHandler(credentials, &mockAggregator{}, &mockSummarizer{}, nil)

	rec := httptest.NewRecorder()
	h.Summarize(rec, summarizeRequestWithUser(`{"taskId": "task-1"}`, "user-unknown"))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["error"] != "Login required" {
		t.Errorf(`error = %q, want "Login required"`, resp["error"])
	}
}

func TestSummarize_CredentialStoreError_Returns500(t *testing.T) {
	credentials := &mockCredentialResolver{
		findByClickUpUserIDFn: func(ctx context.Context, clickupUserID string) (*model.Identity, error) {
			return nil, errors.New("db connection lost")
		},
	}
	h := NewSummarizeHandler(credentials, &mockAggregator{}, &mockSummarizer{}, nil)

	rec := httptest.NewRecorder()
	h.Summarize(rec, summarizeRequestWithUser(`{"taskId": "task-1"}`, "user-1"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestSummarize_AggregateFailure_Returns502_NoGenerationCall(t *testing.T) {
	aggregator := &mockAggregator{
		aggregateFn: func(ctx context.Context, taskID, accessToken string) (*model.TaskSnapshot, error) {
			return nil, model.NewTaskFetchFailedError("clickup api returned status 500")
		},
	}
	generatorCalled := false
	summarizer := &mockSummarizer{
		summarizeFn: func(ctx context.Context, snapshot *model.TaskSnapshot) (*model.SummaryResult, error) {
			generatorCalled = true
			return nil, nil
		},
	}
	metrics := &mockMetrics{}
	h := NewSummarizeHandler(&mockCredentialResolver{}, aggregator, summarizer, metrics)

	rec := httptest.NewRecorder()
	h.Summarize(rec, summarizeRequestWithUser(`{"taskId": "task-1"}`, "user-1"))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
	// 集約失敗時は生成呼び出しを行わないこと
	if generatorCalled {
		t.Error("generator should not be called when aggregation fails")
	}
	// 失敗ステージがメトリクスに記録されること
	if len(metrics.failures) != 1 || metrics.failures[0] != "aggregate" {
		t.Errorf("failures = %v, want [aggregate]", metrics.failures)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["error"] != "Failed to fetch task from ClickUp" {
		t.Errorf("error = %q", resp["error"])
	}
	// 診断用detailが含まれること
	if resp["details"] != "clickup api returned status 500" {
		t.Errorf("details = %q", resp["details"])
	}
}

func TestSummarize_GenerationFailure_Returns502(t *testing.T) {
	summarizer := &mockSummarizer{
		summarizeFn: func(ctx context.Context, snapshot *model.TaskSnapshot) (*model.SummaryResult, error) {
			return nil, model.NewGenerationFailedError("gemini api returned status 429")
		},
	}
	metrics := &mockMetrics{}
	h := NewSummarizeHandler(&mockCredentialResolver{}, &mockAggregator{}, summarizer, metrics)

	rec := httptest.NewRecorder()
	h.Summarize(rec, summarizeRequestWithUser(`{"taskId": "task-1"}`, "user-1"))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
	if len(metrics.failures) != 1 || metrics.failures[0] != "generate" {
		t.Errorf("failures = %v, want [generate]", metrics.failures)
	}
	// 失敗時に成功メトリクスが記録されないこと
	if metrics.successCount != 0 {
		t.Errorf("successCount = %d, want 0", metrics.successCount)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["error"] != "Failed to summarize task" {
		t.Errorf(`error = %q, want "Failed to summarize task"`, resp["error"])
	}
}

func TestSummarize_NoUserIDInContext_Returns401(t *testing.T) {
	h := NewSummarizeHandler(&mockCredentialResolver{}, &mockAggregator{}, &mockSummarizer{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader(`{"taskId": "task-1"}`))
	rec := httptest.NewRecorder()

	h.Summarize(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
