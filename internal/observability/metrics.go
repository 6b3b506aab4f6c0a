package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	WebSocketConnectionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of active WebSocket connections",
		},
		[]string{"service"},
	)

	OnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_online_users",
			Help: "Number of users with a registered live connection",
		},
	)

	MessagesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Total messages durably appended",
		},
	)

	LiveHintsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_live_hints_dropped_total",
			Help: "Live hints dropped because the peer had no registered connection",
		},
		[]string{"event"},
	)

	AttachmentUploadFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_attachment_upload_failures_total",
			Help: "Attachment uploads that failed and were omitted from the message",
		},
	)
)
