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
// サービス層とミドルウェアから利用する。
type MetricsCollector interface {
	RecordListingCreated()
	RecordListingCreateFailure(step string)
	RecordImagesUploaded(count int)
	RecordSessionEvent(eventType string)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	listingsCreated   prometheus.Counter
	listingCreateFail *prometheus.CounterVec
	imagesUploaded    prometheus.Counter
	sessionEvents     *prometheus.CounterVec
	httpStatus        *prometheus.CounterVec
	requestLatency    prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		listingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleamart_listings_created_total",
			Help: "作成に成功した出品の合計数",
		}),
		listingCreateFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleamart_listing_create_failures_total",
			Help: "失敗ステップ別の出品作成失敗数",
		}, []string{"step"}),
		imagesUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleamart_images_uploaded_total",
			Help: "アップロードされた出品画像の合計数",
		}),
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleamart_session_events_total",
			Help: "イベント種別ごとのセッション状態遷移数",
		}, []string{"event"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleamart_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleamart_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.listingsCreated,
		c.listingCreateFail,
		c.imagesUploaded,
		c.sessionEvents,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordListingCreated は出品作成の成功を記録する。
func (c *Collector) RecordListingCreated() {
	c.listingsCreated.Inc()
}

// RecordListingCreateFailure は出品作成の失敗を失敗ステップとともに記録する。
func (c *Collector) RecordListingCreateFailure(step string) {
	c.listingCreateFail.WithLabelValues(step).Inc()
}

// RecordImagesUploaded はアップロードされた画像数を記録する。
func (c *Collector) RecordImagesUploaded(count int) {
	c.imagesUploaded.Add(float64(count))
}

// RecordSessionEvent はセッション状態遷移を記録する。
func (c *Collector) RecordSessionEvent(eventType string) {
	c.sessionEvents.WithLabelValues(eventType).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsをPrometheusスクレイプ用に公開し、
// それ以外のリクエストをnextへ委譲するHTTPハンドラーを返す。
// /metricsはAPIのミドルウェアチェーンの外に置く。
func SetupMetricsRoute(gatherer prometheus.Gatherer, next http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	mux.Handle("/", next)
	return mux
}
