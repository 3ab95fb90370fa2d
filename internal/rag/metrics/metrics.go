// Package metrics 提供文档问答流水线的业务指标收集。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kart-io/sentinel-docqa/pkg/llm/resilience"
)

// 分块入库结果标签值
const (
	ResultStored  = "stored"
	ResultDropped = "dropped"
)

// 操作结果标签值
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// 流水线阶段标签值
const (
	StageEmbed    = "embed"
	StageUpsert   = "upsert"
	StageSearch   = "search"
	StageGenerate = "generate"
)

// PoolStats 工作池运行状态，由 pool.Pool 实现。
type PoolStats interface {
	Name() string
	Cap() int
	Running() int
	Waiting() int
}

// RAGMetrics 流水线业务指标。
// 所有指标注册在独立的 Registry 上，由 /metrics 端点导出。
type RAGMetrics struct {
	registry *prometheus.Registry

	ingestChunks  *prometheus.CounterVec   // 分块入库数（stored / dropped）
	ingestTotal   *prometheus.CounterVec   // 文档入库次数
	answersTotal  *prometheus.CounterVec   // 问答次数
	stageDuration *prometheus.HistogramVec // 各阶段耗时
}

// New 创建指标收集器并注册 Go 运行时与进程指标。
func New(namespace string) *RAGMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &RAGMetrics{
		registry: reg,
		ingestChunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_chunks_total",
			Help:      "Number of chunks processed during ingestion, by result.",
		}, []string{"result"}),
		ingestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_documents_total",
			Help:      "Number of ingestion requests, by status.",
		}, []string{"status"}),
		answersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Number of answered questions, by status.",
		}, []string{"status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),
	}

	reg.MustRegister(m.ingestChunks, m.ingestTotal, m.answersTotal, m.stageDuration)
	return m
}

// Registry 返回底层 Registry，供 HTTP 中间件注册请求指标。
func (m *RAGMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回 Prometheus 抓取端点。
func (m *RAGMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordIngest 记录一次文档入库。
func (m *RAGMetrics) RecordIngest(stored, dropped int, err error) {
	if stored > 0 {
		m.ingestChunks.WithLabelValues(ResultStored).Add(float64(stored))
	}
	if dropped > 0 {
		m.ingestChunks.WithLabelValues(ResultDropped).Add(float64(dropped))
	}
	m.ingestTotal.WithLabelValues(status(err)).Inc()
}

// RecordAnswer 记录一次问答。
func (m *RAGMetrics) RecordAnswer(err error) {
	m.answersTotal.WithLabelValues(status(err)).Inc()
}

// ObserveStage 记录阶段耗时。
func (m *RAGMetrics) ObserveStage(stage string, start time.Time) {
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RegisterPool 导出工作池的容量、运行数与等待数。
func (m *RAGMetrics) RegisterPool(namespace string, p PoolStats) {
	labels := prometheus.Labels{"pool": p.Name()}
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "pool", Name: "capacity",
			Help: "Worker pool capacity.", ConstLabels: labels,
		}, func() float64 { return float64(p.Cap()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "pool", Name: "running",
			Help: "Running workers.", ConstLabels: labels,
		}, func() float64 { return float64(p.Running()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "pool", Name: "waiting",
			Help: "Tasks waiting for a worker.", ConstLabels: labels,
		}, func() float64 { return float64(p.Waiting()) }),
	)
}

// RegisterBreaker 导出模型端点熔断器的状态（0 关闭，1 打开，2 半开）与拒绝次数。
// cb 为 nil（未启用熔断）时不注册。
func (m *RAGMetrics) RegisterBreaker(namespace, endpoint string, cb *resilience.CircuitBreaker) {
	if cb == nil {
		return
	}
	labels := prometheus.Labels{"endpoint": endpoint}
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "breaker", Name: "state",
			Help: "Circuit breaker state: 0 closed, 1 open, 2 half-open.", ConstLabels: labels,
		}, func() float64 { return float64(cb.State()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "breaker", Name: "rejected_total",
			Help: "Calls rejected by an open circuit breaker.", ConstLabels: labels,
		}, func() float64 { return float64(cb.Stats().Rejected) }),
	)
}

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}
