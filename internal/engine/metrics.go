package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: время обработки HTTP-запроса
	RequestDuration *prometheus.HistogramVec

	// Traffic: сколько раз политики проверялись на корзинах
	Evaluations *prometheus.CounterVec

	// Сработавшие сделки
	DealsApplied *prometheus.CounterVec

	// Errors: классификация отказов
	ErrorTotal *prometheus.CounterVec

	// Saturation: состояние Circuit Breaker (0 - ок, 1 - выбило)
	CircuitBreakerState *prometheus.GaugeVec

	// Journal: заполненность буфера (backpressure)
	JournalBufferFill prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loyalty_request_duration_seconds",
			Help:    "Histogram of request latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"route", "status"}),

		Evaluations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_policy_evaluations_total",
			Help: "Total number of policy evaluations against carts.",
		}, []string{"restaurant_id", "result"}), // result: qualified, skipped, locked

		DealsApplied: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_deals_applied_total",
			Help: "Total number of applied deals by action type.",
		}, []string{"restaurant_id", "action"}),

		ErrorTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_errors_total",
			Help: "Total number of errors by type.",
		}, []string{"type"}), // типы: pricing, not_found, verifier, storage

		CircuitBreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "loyalty_circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=open).",
		}, []string{"name"}),

		JournalBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "loyalty_journal_buffer_utilization",
			Help: "Current number of events in the deal journal buffer.",
		}),
	}
}
