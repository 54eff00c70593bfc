package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор prometheus-метрик сервиса
// Все методы безопасны для nil-ресивера: при выключенных метриках передаётся nil
type Metrics struct {
	serviceName string

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	dbQueryDuration *prometheus.HistogramVec
	dbQueryErrors   *prometheus.CounterVec
	dbConnections   *prometheus.GaugeVec

	notificationsTotal   *prometheus.CounterVec
	reconciliationsTotal *prometheus.CounterVec
	sweptBookingsTotal   *prometheus.CounterVec
	emailFailuresTotal   *prometheus.CounterVec
}

// New создает метрики и регистрирует их в prometheus.DefaultRegisterer
func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegisterer создает метрики с указанным регистратором (для тестов)
func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		serviceName: serviceName,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "route"}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"service", "operation"}),
		dbQueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of failed database queries",
		}, []string{"service", "operation"}),
		dbConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_connections",
			Help: "Database connection pool state",
		}, []string{"service", "state"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_notifications_total",
			Help: "Payment gateway notifications by source and classified outcome",
		}, []string{"service", "source", "outcome"}),
		reconciliationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_reconciliations_total",
			Help: "Reconciliation results of payment notifications",
		}, []string{"service", "result"}),
		sweptBookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swept_bookings_total",
			Help: "Unpaid booking holds cancelled by a competing confirmed booking",
		}, []string{"service"}),
		emailFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "email_dispatch_failures_total",
			Help: "Failed payment confirmation email hand-offs",
		}, []string{"service", "template"}),
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.dbQueryDuration,
		m.dbQueryErrors,
		m.dbConnections,
		m.notificationsTotal,
		m.reconciliationsTotal,
		m.sweptBookingsTotal,
		m.emailFailuresTotal,
	)

	return m
}

// ObserveHTTPRequest фиксирует обработанный HTTP запрос
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(m.serviceName, method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(m.serviceName, method, route).Observe(duration.Seconds())
}

// ObserveDBQuery фиксирует длительность запроса к БД
func (m *Metrics) ObserveDBQuery(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(m.serviceName, operation).Observe(duration.Seconds())
	if err != nil {
		m.dbQueryErrors.WithLabelValues(m.serviceName, operation).Inc()
	}
}

// SetDBConnections обновляет состояние пула соединений
func (m *Metrics) SetDBConnections(open, inUse, idle int) {
	if m == nil {
		return
	}
	m.dbConnections.WithLabelValues(m.serviceName, "open").Set(float64(open))
	m.dbConnections.WithLabelValues(m.serviceName, "in_use").Set(float64(inUse))
	m.dbConnections.WithLabelValues(m.serviceName, "idle").Set(float64(idle))
}

// RecordNotification фиксирует входящее уведомление шлюза
func (m *Metrics) RecordNotification(source, outcome string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(m.serviceName, source, outcome).Inc()
}

// RecordReconciliation фиксирует итог обработки уведомления
func (m *Metrics) RecordReconciliation(result string) {
	if m == nil {
		return
	}
	m.reconciliationsTotal.WithLabelValues(m.serviceName, result).Inc()
}

// RecordSweptBookings фиксирует количество автоматически отменённых броней
func (m *Metrics) RecordSweptBookings(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sweptBookingsTotal.WithLabelValues(m.serviceName).Add(float64(n))
}

// RecordEmailFailure фиксирует неудачную отправку письма
func (m *Metrics) RecordEmailFailure(template string) {
	if m == nil {
		return
	}
	m.emailFailuresTotal.WithLabelValues(m.serviceName, template).Inc()
}
