// Package metrics собирает метрики Prometheus сервиса.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "baloot"

// Metrics содержит счётчики сервиса. Методы безопасны для nil-получателя.
type Metrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	ruleViolations *prometheus.CounterVec
	ordersChecked  prometheus.Counter
	ordersFlagged  prometheus.Counter
	excessQuantity prometheus.Histogram
}

// New создаёт метрики в собственном реестре.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		ruleViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_violations_total",
			Help:      "Rejected domain operations by error kind.",
		}, []string{"kind"}),
		ordersChecked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fraud",
			Name:      "orders_checked_total",
			Help:      "Orders evaluated by the fraud detector.",
		}),
		ordersFlagged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fraud",
			Name:      "orders_flagged_total",
			Help:      "Orders with a positive fraudulent excess quantity.",
		}),
		excessQuantity: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fraud",
			Name:      "excess_quantity",
			Help:      "Fraudulent excess quantity of flagged orders.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.ruleViolations,
		m.ordersChecked,
		m.ordersFlagged,
		m.excessQuantity,
	)
	return m
}

// Handler отдаёт метрики в формате Prometheus. Для nil-получателя отвечает 404.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest учитывает обработанный HTTP-запрос.
func (m *Metrics) ObserveRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// RuleViolation учитывает отклонённую доменную операцию.
func (m *Metrics) RuleViolation(kind string) {
	if m == nil {
		return
	}
	m.ruleViolations.WithLabelValues(kind).Inc()
}

// OrderEvaluated учитывает проверку заказа детектором.
func (m *Metrics) OrderEvaluated(excess int) {
	if m == nil {
		return
	}
	m.ordersChecked.Inc()
	if excess > 0 {
		m.ordersFlagged.Inc()
		m.excessQuantity.Observe(float64(excess))
	}
}
