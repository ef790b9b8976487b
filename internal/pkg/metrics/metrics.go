package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	RequestsTotal       *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	ApplicationsCreated *prometheus.CounterVec
	Notifications       *prometheus.CounterVec
}

// New creates the application metrics and registers them with reg.
// A nil reg falls back to the default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kebele_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kebele_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ApplicationsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kebele_applications_created_total",
			Help: "Total number of applications submitted, by application type",
		}, []string{"type"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kebele_notifications_total",
			Help: "Status-change notification attempts by outcome",
		}, []string{"outcome"}),
	}
}

// IncrementApplicationsCreated counts one submitted application of the given type
func (m *Metrics) IncrementApplicationsCreated(applicationType string) {
	if m == nil {
		return
	}
	m.ApplicationsCreated.WithLabelValues(applicationType).Inc()
}

// IncrementNotifications counts one notification attempt with the given outcome
func (m *Metrics) IncrementNotifications(outcome string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(outcome).Inc()
}

// GinMiddleware records request count and latency per matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
