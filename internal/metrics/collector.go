package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// dispatchBuckets 分发作用于内存画布或一次 WebSocket 写入，远小于默认桶
var dispatchBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 识别指标
	recognitionAttempts    *prometheus.CounterVec
	recognitionTransitions *prometheus.CounterVec

	// 指令指标
	commandsParsed   *prometheus.CounterVec
	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec

	// 编辑器连接
	editorsConnected prometheus.Gauge

	logger *zap.Logger
}

// NewCollector 在默认注册表上创建指标收集器，/metrics 由 promhttp.Handler 暴露
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	return NewCollectorWithRegistry(prometheus.DefaultRegisterer, namespace, logger)
}

// NewCollectorWithRegistry 在指定注册表上创建指标收集器
func NewCollectorWithRegistry(reg prometheus.Registerer, namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := promauto.With(reg)
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return f.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help}, labels)
	}
	histogram := func(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
		return f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: name, Help: help, Buckets: buckets,
		}, labels)
	}

	c := &Collector{
		httpRequestsTotal: counter("http_requests_total",
			"HTTP requests by method, route and status class", "method", "path", "status"),
		httpRequestDuration: histogram("http_request_duration_seconds",
			"HTTP request latency", prometheus.DefBuckets, "method", "path"),

		recognitionAttempts: counter("recognition_attempts_total",
			"Recognition attempts by backend and outcome", "backend", "outcome"),
		recognitionTransitions: counter("recognition_state_transitions_total",
			"Recognition session state transitions", "from_state", "to_state"),

		commandsParsed: counter("commands_parsed_total",
			"Parsed voice commands by kind and matching rule", "kind", "rule"),
		dispatchTotal: counter("command_dispatch_total",
			"Dispatched commands by kind and outcome", "kind", "outcome"),
		dispatchDuration: histogram("command_dispatch_duration_seconds",
			"Time spent invoking the canvas actuator", dispatchBuckets, "kind"),

		editorsConnected: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "editors_connected",
			Help:      "Attached browser editors (0 or 1)",
		}),

		logger: logger.With(zap.String("component", "metrics")),
	}
	c.logger.Debug("metrics collector registered", zap.String("namespace", namespace))
	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// =============================================================================
// 🎙️ 识别指标记录
// =============================================================================

// RecordRecognitionAttempt 记录一次识别尝试的结束方式
func (c *Collector) RecordRecognitionAttempt(backend, outcome string) {
	c.recognitionAttempts.WithLabelValues(backend, outcome).Inc()
}

// RecordRecognitionTransition 记录识别状态迁移
func (c *Collector) RecordRecognitionTransition(fromState, toState string) {
	c.recognitionTransitions.WithLabelValues(fromState, toState).Inc()
}

// =============================================================================
// 🧭 指令指标记录
// =============================================================================

// RecordCommandParsed 记录解析结果；未命中规则时 rule 记为 none。
func (c *Collector) RecordCommandParsed(kind, rule string) {
	if rule == "" {
		rule = "none"
	}
	c.commandsParsed.WithLabelValues(kind, rule).Inc()
}

// RecordDispatch 记录分发结果，实现 dispatch.Recorder。
func (c *Collector) RecordDispatch(kind, outcome string, duration time.Duration) {
	c.dispatchTotal.WithLabelValues(kind, outcome).Inc()
	c.dispatchDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// SetEditorsConnected 更新编辑器连接数
func (c *Collector) SetEditorsConnected(n int) {
	c.editorsConnected.Set(float64(n))
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码归类为 2xx/3xx/4xx/5xx
func statusCode(code int) string {
	if code < 200 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}
