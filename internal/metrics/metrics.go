package metrics

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
		[]string{"method", "path", "status"},
	)

	ResponseTimeHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_time_seconds",
			Help:    "Histogram of response times",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	WithdrawalsRequested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "withdrawals_requested_total",
			Help: "Withdrawal requests accepted",
		},
	)

	// code - код отказа из eligibility или ошибка валидации
	WithdrawalsDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdrawals_denied_total",
			Help: "Withdrawal requests denied by code",
		},
		[]string{"code"},
	)

	Settlements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdrawal_settlements_total",
			Help: "Settlement actions by outcome",
		},
		[]string{"action", "outcome"},
	)

	PayoutDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payout_duration_seconds",
			Help:    "Payout provider call latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	DailyClaims = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "daily_claims_total",
			Help: "Successful daily reward claims",
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Outbound chat notifications",
		},
		[]string{"kind", "outcome"},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections",
			Help: "Open ledger feed websocket connections",
		},
	)
)
