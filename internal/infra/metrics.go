package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: сколько времени заняла обработка запроса
	RequestDuration *prometheus.HistogramVec

	// Traffic: общее кол-во запросов
	TotalRequests *prometheus.CounterVec

	// Errors: классификация отказов API
	ErrorTotal *prometheus.CounterVec

	// Audit: отказавшие записи аудита. Аудит не прерывает основную операцию,
	// поэтому единственный сигнал о деградации — этот счетчик.
	AuditFailures prometheus.Counter

	// Saturation: состояние Circuit Breaker вокруг записи аудита (0 - ок, 1 - выбило)
	AuditBreakerState prometheus.Gauge

	// Compliance: нарушения, зафиксированные Эвалюатором
	PolicyViolations *prometheus.CounterVec

	// Retention: удаленные свипером записи
	SweptRecords *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledgerd_request_duration_seconds",
			Help:    "Histogram of request latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"route", "status"}),

		TotalRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ledgerd_requests_total",
			Help: "Total number of processed requests.",
		}, []string{"route"}),

		ErrorTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ledgerd_errors_total",
			Help: "Total number of errors by type.",
		}, []string{"type"}), // типы: validation, conflict, not_found, storage

		AuditFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "ledgerd_audit_failures_total",
			Help: "Audit entries that could not be persisted.",
		}),

		AuditBreakerState: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "ledgerd_audit_breaker_state",
			Help: "Circuit breaker state for audit writes (0=closed, 1=open).",
		}),

		PolicyViolations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ledgerd_policy_violations_total",
			Help: "Compliance violations detected by the evaluator.",
		}, []string{"content_type"}),

		SweptRecords: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ledgerd_swept_records_total",
			Help: "Metadata records deleted by the retention sweeper.",
		}, []string{"content_type"}),
	}
}
