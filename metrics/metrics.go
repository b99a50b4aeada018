package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	TurnsProcessed      *prometheus.CounterVec
	TurnDuration        prometheus.Histogram
	ProviderFallbacks   prometheus.Counter
	EnrichmentFailures  *prometheus.CounterVec
	CasesCreated        *prometheus.CounterVec
	UrgentAlertsSent    prometheus.Counter
	ActiveConnections   prometheus.Gauge
	ClientReconnects    prometheus.Counter
	NotificationsPushed *prometheus.CounterVec
	VitalsAbnormal      prometheus.Counter
	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TurnsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "session_turns_processed_total",
			Help: "Total number of user turns processed",
		}, []string{"provider"}),
		TurnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "session_turn_duration_seconds",
			Help:    "Time taken to produce an assistant reply for a user turn",
			Buckets: prometheus.DefBuckets,
		}),
		ProviderFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "ai_provider_fallbacks_total",
			Help: "Total number of turns answered by the template responder",
		}),
		EnrichmentFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_enrichment_failures_total",
			Help: "Total number of failed audio/video enrichment attempts",
		}, []string{"kind"}),
		CasesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cases_created_total",
			Help: "Total number of cases opened from sessions",
		}, []string{"priority"}),
		UrgentAlertsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "urgent_alerts_sent_total",
			Help: "Total number of urgent alerts broadcast to doctors",
		}),
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ws_active_connections",
			Help: "Current number of connected websocket clients",
		}),
		ClientReconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "ws_client_reconnects_total",
			Help: "Total number of reconnect attempts observed from clients",
		}),
		NotificationsPushed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_pushed_total",
			Help: "Total number of notifications pushed to users",
		}, []string{"type"}),
		VitalsAbnormal: factory.NewCounter(prometheus.CounterOpts{
			Name: "vitals_abnormal_total",
			Help: "Total number of vitals submissions flagged abnormal",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served",
		}, []string{"method", "path", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}
