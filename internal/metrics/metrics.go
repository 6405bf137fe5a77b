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
// 自動投稿ワーカーやパブリッシャーから利用する。
type MetricsCollector interface {
	RecordSiteChecked()
	RecordSiteProcessed()
	RecordSiteFailed(siteName string, reason string)
	RecordArticleGenerated()
	RecordPostPublished()
	RecordPlanPending()
	RecordPublishStatus(statusCode int)
	RecordGenerateLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	sitesChecked      prometheus.Counter
	sitesProcessed    prometheus.Counter
	sitesFailed       prometheus.Counter
	articlesGenerated prometheus.Counter
	postsPublished    prometheus.Counter
	plansPending      prometheus.Counter
	publishStatus     *prometheus.CounterVec
	generateLatency   prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sitesChecked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postflow_sites_checked_total",
			Help: "投稿期限を判定したサイトの合計数",
		}),
		sitesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postflow_sites_processed_total",
			Help: "投稿処理が完了したサイトの合計数",
		}),
		sitesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postflow_sites_failed_total",
			Help: "投稿処理に失敗したサイトの合計数",
		}),
		articlesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postflow_articles_generated_total",
			Help: "生成された記事の合計数",
		}),
		postsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postflow_posts_published_total",
			Help: "WordPressに公開された投稿の合計数",
		}),
		plansPending: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postflow_plans_pending_total",
			Help: "承認待ちとして保存されたプランの合計数",
		}),
		publishStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postflow_publish_status_total",
			Help: "公開APIのHTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		generateLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "postflow_generate_latency_seconds",
			Help: "記事生成のレイテンシ（秒）",
			// 記事生成はLLM呼び出しを含むため数十秒かかる
			Buckets: []float64{1, 5, 10, 20, 30, 60, 90, 120, 180},
		}),
	}

	reg.MustRegister(
		c.sitesChecked,
		c.sitesProcessed,
		c.sitesFailed,
		c.articlesGenerated,
		c.postsPublished,
		c.plansPending,
		c.publishStatus,
		c.generateLatency,
	)

	return c
}

// RecordSiteChecked は投稿期限判定を記録する。
func (c *Collector) RecordSiteChecked() {
	c.sitesChecked.Inc()
}

// RecordSiteProcessed はサイト処理完了を記録する。
func (c *Collector) RecordSiteProcessed() {
	c.sitesProcessed.Inc()
}

// RecordSiteFailed はサイト処理失敗を記録する。
func (c *Collector) RecordSiteFailed(siteName string, reason string) {
	c.sitesFailed.Inc()
}

// RecordArticleGenerated は記事生成成功を記録する。
func (c *Collector) RecordArticleGenerated() {
	c.articlesGenerated.Inc()
}

// RecordPostPublished はWordPressへの公開成功を記録する。
func (c *Collector) RecordPostPublished() {
	c.postsPublished.Inc()
}

// RecordPlanPending は承認待ちプランの保存を記録する。
func (c *Collector) RecordPlanPending() {
	c.plansPending.Inc()
}

// RecordPublishStatus は公開APIのHTTPステータスコードを記録する。
func (c *Collector) RecordPublishStatus(statusCode int) {
	c.publishStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordGenerateLatency は記事生成のレイテンシを記録する。
func (c *Collector) RecordGenerateLatency(duration time.Duration) {
	c.generateLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
