// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and records application metrics. It satisfies the
// notification dispatcher's Metrics interface.
type Collector struct {
	notifySent    *prometheus.CounterVec
	notifySkipped prometheus.Counter
	notifyFailed  *prometheus.CounterVec
	httpStatus    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		notifySent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskline_notifications_sent_total",
			Help: "Notifications delivered, by messenger platform.",
		}, []string{"platform"}),
		notifySkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskline_notifications_skipped_total",
			Help: "Notifications skipped because the user has no messenger link.",
		}),
		notifyFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskline_notifications_failed_total",
			Help: "Notification delivery failures, by messenger platform.",
		}, []string{"platform"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskline_http_responses_total",
			Help: "HTTP responses served, by status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.notifySent,
		c.notifySkipped,
		c.notifyFailed,
		c.httpStatus,
	)

	return c
}

// RecordNotificationSent records a delivered notification.
func (c *Collector) RecordNotificationSent(platform string) {
	c.notifySent.WithLabelValues(platform).Inc()
}

// RecordNotificationSkipped records a notification dropped for lack of a link.
func (c *Collector) RecordNotificationSkipped() {
	c.notifySkipped.Inc()
}

// RecordNotificationFailed records a failed delivery attempt.
func (c *Collector) RecordNotificationFailed(platform string) {
	c.notifyFailed.WithLabelValues(platform).Inc()
}

// RecordHTTPStatus records a served response status code.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
