package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// gatherCounterValue はレジストリから指定メトリクスのカウンタ値を取得する。
func gatherCounterValue(t *testing.T, reg *prometheus.Registry, name string) (float64, bool) {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			var total float64
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			return total, true
		}
	}
	return 0, false
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordSummarizeSuccess_IncrementsCounter は要約成功カウンタが増加することを検証する。
func TestRecordSummarizeSuccess_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSummarizeSuccess()
	c.RecordSummarizeSuccess()

	val, found := gatherCounterValue(t, reg, "summarizer_summarize_success_total")
	if !found {
		t.Fatal("summarizer_summarize_success_total metric not found")
	}
	if val != 2 {
		t.Errorf("summarize_success_total = %v, want 2", val)
	}
}

// TestRecordSummarizeFailure_RecordsPerStage は失敗カウンタがステージ別に記録されることを検証する。
func TestRecordSummarizeFailure_RecordsPerStage(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSummarizeFailure("aggregate")
	c.RecordSummarizeFailure("generate")
	c.RecordSummarizeFailure("generate")

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	stageValues := make(map[string]float64)
	for _, mf := range metrics {
		if mf.GetName() != "summarizer_summarize_fail_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "stage" {
					stageValues[label.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}

	if stageValues["aggregate"] != 1 {
		t.Errorf("fail_total{stage=aggregate} = %v, want 1", stageValues["aggregate"])
	}
	if stageValues["generate"] != 2 {
		t.Errorf("fail_total{stage=generate} = %v, want 2", stageValues["generate"])
	}
}

// TestRecordSummarizeLatency_ObservesHistogram はレイテンシヒストグラムが観測されることを検証する。
func TestRecordSummarizeLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSummarizeLatency(1500 * time.Millisecond)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "summarizer_summarize_latency_seconds" {
			found = true
			h := mf.GetMetric()[0].GetHistogram()
			if h.GetSampleCount() != 1 {
				t.Errorf("sample count = %d, want 1", h.GetSampleCount())
			}
			if h.GetSampleSum() != 1.5 {
				t.Errorf("sample sum = %v, want 1.5", h.GetSampleSum())
			}
		}
	}
	if !found {
		t.Error("summarizer_summarize_latency_seconds metric not found")
	}
}

// TestRecordUpstreamStatus_RecordsPerStatusCode は上流ステータスカウンタが
// ステータスコード別に記録されることを検証する。
func TestRecordUpstreamStatus_RecordsPerStatusCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstreamStatus(200)
	c.RecordUpstreamStatus(200)
	c.RecordUpstreamStatus(502)

	val, found := gatherCounterValue(t, reg, "summarizer_upstream_status_total")
	if !found {
		t.Fatal("summarizer_upstream_status_total metric not found")
	}
	if val != 3 {
		t.Errorf("upstream_status_total = %v, want 3", val)
	}
}

// TestRecordLogin_IncrementsCounters はログイン成功/失敗カウンタが増加することを検証する。
func TestRecordLogin_IncrementsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLoginSuccess()
	c.RecordLoginFailure()
	c.RecordLoginFailure()

	success, _ := gatherCounterValue(t, reg, "summarizer_login_success_total")
	if success != 1 {
		t.Errorf("login_success_total = %v, want 1", success)
	}
	fail, _ := gatherCounterValue(t, reg, "summarizer_login_fail_total")
	if fail != 2 {
		t.Errorf("login_fail_total = %v, want 2", fail)
	}
}

// TestHandler_ServesPrometheusFormat はハンドラーがPrometheusテキスト形式で
// メトリクスを公開することを検証する。
func TestHandler_ServesPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSummarizeSuccess()

	handler := Handler(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !strings.Contains(string(body), "summarizer_summarize_success_total 1") {
		t.Errorf("metrics output should contain success counter, got:\n%s", string(body))
	}
}
