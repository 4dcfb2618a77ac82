package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersInitiatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_initiated_total",
		Help: "Total number of ledger entries created, by order kind",
	}, []string{"kind"})

	OrdersPaidTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_paid_total",
		Help: "Total number of ledger entries transitioned to paid, by order kind",
	}, []string{"kind"})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed order operations",
	}, []string{"reason"})

	PaymentVerificationFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_verification_failed_total",
		Help: "Total number of payment confirmations with an invalid signature",
	})

	PaymentReplaysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_replays_total",
		Help: "Total number of confirmations received for already paid orders",
	})

	GatewayLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gateway_create_order_latency_seconds",
		Help:    "Latency of payment gateway order creation",
		Buckets: prometheus.DefBuckets,
	})

	CommissionsRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commissions_recorded_total",
		Help: "Total number of commissions recorded, by commission type",
	}, []string{"type"})

	CommissionAttributionFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commission_attribution_failed_total",
		Help: "Total number of attribution runs that failed",
	})

	CommissionsSettledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commissions_settled_total",
		Help: "Total number of commission settlement updates, by resulting status",
	}, []string{"status"})

	ReconciledOrdersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconciled_orders_total",
		Help: "Total number of paid orders re-attributed by reconciliation",
	})

	TagsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tags_created_total",
		Help: "Total number of tags registered",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
