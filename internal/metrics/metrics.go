// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 要約パイプラインのハンドラーから利用する。
type MetricsCollector interface {
	RecordSummarizeSuccess()
	RecordSummarizeFailure(stage string)
	RecordSummarizeLatency(duration time.Duration)
	RecordUpstreamStatus(statusCode int)
	RecordLoginSuccess()
	RecordLoginFailure()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	summarizeSuccess prometheus.Counter
	summarizeFail    *prometheus.CounterVec
	summarizeLatency prometheus.Histogram
	upstreamStatus   *prometheus.CounterVec
	loginSuccess     prometheus.Counter
	loginFail        prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		summarizeSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "summarizer_summarize_success_total",
			Help: "要約リクエスト成功の合計数",
		}),
		summarizeFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summarizer_summarize_fail_total",
			Help: "要約リクエスト失敗のステージ別合計数",
		}, []string{"stage"}),
		summarizeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "summarizer_summarize_latency_seconds",
			Help:    "要約パイプライン全体のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		upstreamStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "summarizer_upstream_status_total",
			Help: "上流APIのHTTPステータスコード別レスポンス数",
		}, []string{"status_code"}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "summarizer_login_success_total",
			Help: "OAuthログイン成功の合計数",
		}),
		loginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "summarizer_login_fail_total",
			Help: "OAuthログイン失敗の合計数",
		}),
	}

	reg.MustRegister(
		c.summarizeSuccess,
		c.summarizeFail,
		c.summarizeLatency,
		c.upstreamStatus,
		c.loginSuccess,
		c.loginFail,
	)

	return c
}

// RecordSummarizeSuccess は要約リクエストの成功を記録する。
func (c *Collector) RecordSummarizeSuccess() {
	c.summarizeSuccess.Inc()
}

// RecordSummarizeFailure は要約リクエストの失敗をステージ（aggregate / generate）別に記録する。
func (c *Collector) RecordSummarizeFailure(stage string) {
	c.summarizeFail.WithLabelValues(stage).Inc()
}

// RecordSummarizeLatency は要約パイプライン全体のレイテンシを記録する。
func (c *Collector) RecordSummarizeLatency(duration time.Duration) {
	c.summarizeLatency.Observe(duration.Seconds())
}

// RecordUpstreamStatus は上流APIのHTTPステータスコードを記録する。
func (c *Collector) RecordUpstreamStatus(statusCode int) {
	c.upstreamStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordLoginSuccess はOAuthログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はOAuthログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFail.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
