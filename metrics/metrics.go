// Package metrics provides Prometheus metrics for the ticker plant
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MessagesRead 从介质读到的原始消息数
	MessagesRead = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticker_messages_read_total",
		Help: "Raw messages read from the source medium",
	}, []string{"source"})

	// ParseSkipped 解析器跳过的消息数（格式错误/截断/忽略的类型）
	ParseSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticker_parse_skipped_total",
		Help: "Messages the parser declined to decode",
	}, []string{"source"})

	TicksDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticker_ticks_dispatched_total",
		Help: "Ticks delivered to every registered handler",
	}, []string{"source", "kind"})

	HandlerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticker_handler_failures_total",
		Help: "Dispatches aborted by a handler error",
	}, []string{"source"})

	ReadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticker_read_failures_total",
		Help: "Medium open or read failures",
	}, []string{"source", "stage"})

	// DispatchLatency 单个 tick 分发给全部 handler 的耗时
	DispatchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ticker_dispatch_latency_seconds",
		Help:    "Time spent running all handlers for one tick",
		Buckets: []float64{0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	}, []string{"source"})

	FeedLag = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ticker_feed_lag_seconds",
		Help: "Received minus exchange time of the last dispatched tick",
	}, []string{"source"})

	FeedConnected = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ticker_feed_connected",
		Help: "1 while the live feed connection is open",
	}, []string{"source"})
)

// StartMetricsServer 启动Prometheus指标服务器
func StartMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
