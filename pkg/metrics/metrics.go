package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор Prometheus коллекторов сервиса
type Metrics struct {
	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// База данных
	DBQueryDuration   *prometheus.HistogramVec
	DBConnections     *prometheus.GaugeVec
	DBQueryErrorTotal *prometheus.CounterVec

	// Бронирования и напоминания
	BookingsTotal        *prometheus.CounterVec
	RemindersTotal       *prometheus.CounterVec
	ReminderSweepSeconds *prometheus.HistogramVec
}

// New создает метрики и регистрирует их в глобальном реестре Prometheus
func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegisterer создает метрики и регистрирует их в переданном реестре
func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),

		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query latency",
			ConstLabels: constLabels,
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),

		DBConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_connections",
			Help:        "Database connection pool state",
			ConstLabels: constLabels,
		}, []string{"state"}),

		DBQueryErrorTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_query_errors_total",
			Help:        "Total number of failed database queries",
			ConstLabels: constLabels,
		}, []string{"operation"}),

		BookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "bookings_total",
			Help:        "Booking submissions by outcome",
			ConstLabels: constLabels,
		}, []string{"outcome"}),

		RemindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "reminders_total",
			Help:        "Reminder dispatch outcomes by reminder type",
			ConstLabels: constLabels,
		}, []string{"reminder_type", "status"}),

		ReminderSweepSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "reminder_sweep_duration_seconds",
			Help:        "Duration of a reminder sweep",
			ConstLabels: constLabels,
			Buckets:     []float64{.05, .1, .5, 1, 5, 10, 30, 60},
		}, []string{}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.DBConnections,
		m.DBQueryErrorTotal,
		m.BookingsTotal,
		m.RemindersTotal,
		m.ReminderSweepSeconds,
	)

	return m
}

// ObserveReminder учитывает результат обработки одного напоминания
func (m *Metrics) ObserveReminder(reminderType, status string) {
	if m == nil {
		return
	}
	m.RemindersTotal.WithLabelValues(reminderType, status).Inc()
}

// ObserveSweep учитывает длительность прогона рассылки напоминаний
func (m *Metrics) ObserveSweep(seconds float64) {
	if m == nil {
		return
	}
	m.ReminderSweepSeconds.WithLabelValues().Observe(seconds)
}

// ObserveBooking учитывает результат попытки бронирования
func (m *Metrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.BookingsTotal.WithLabelValues(outcome).Inc()
}
