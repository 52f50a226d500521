package gemini

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestGenerateContent_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// モデル名を含むパスとAPIキーヘッダーの検証
		if r.URL.Path != "/models/gemini-2.5-flash:generateContent" {
			t.Errorf("unexpected path: %q", r.URL.Path)
		}
		if key := r.Header.Get("x-goog-api-key"); key != "test-api-key" {
			t.Errorf("unexpected api key header: %q", key)
		}

		// リクエストボディの形式を確認
		var reqBody generateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		if len(reqBody.Contents) != 1 || len(reqBody.Contents[0].Parts) != 1 {
			t.Errorf("unexpected request shape: %+v", reqBody)
		}
		if reqBody.Contents[0].Parts[0].Text != "test prompt" {
			t.Errorf("prompt = %q, want %q", reqBody.Contents[0].Parts[0].Text, "test prompt")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"candidates": [
				{"content": {"parts": [{"text": "## Task Overview\n"}, {"text": "- summary"}]}}
			]
		}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.Client(), testLogger(), "test-api-key", "gemini-2.5-flash", server.URL)

	text, err := client.GenerateContent(context.Background(), "test prompt")
	if err != nil {
		t.Fatalf("GenerateContent() error = %v", err)
	}

	// 複数partは連結されること
	want := "## Task Overview\n- summary"
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestGenerateContent_ErrorStatus_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"code": 429, "status": "RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.Client(), testLogger(), "test-api-key", "gemini-2.5-flash", server.URL)

	_, err := client.GenerateContent(context.Background(), "test prompt")
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestGenerateContent_NoCandidates_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.Client(), testLogger(), "test-api-key", "gemini-2.5-flash", server.URL)

	_, err := client.GenerateContent(context.Background(), "test prompt")
	if err == nil {
		t.Fatal("expected error for empty candidates")
	}
}

func TestGenerateContent_EmptyText_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": ""}]}}]}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.Client(), testLogger(), "test-api-key", "gemini-2.5-flash", server.URL)

	_, err := client.GenerateContent(context.Background(), "test prompt")
	if err == nil {
		t.Fatal("expected error for empty generated text")
	}
}

func TestGenerateContent_MalformedJSON_ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{invalid`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.Client(), testLogger(), "test-api-key", "gemini-2.5-flash", server.URL)

	_, err := client.GenerateContent(context.Background(), "test prompt")
	if err == nil {
		t.Fatal("expected error for malformed response")
	}
}
