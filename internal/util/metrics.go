package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HoldsAcquiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "holds_acquired_total",
		Help: "Total number of product holds acquired",
	})

	HoldsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "holds_rejected_total",
		Help: "Total number of rejected hold attempts",
	}, []string{"reason"})

	HoldsReleasedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "holds_released_total",
		Help: "Total number of product holds released",
	})

	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created at checkout",
	})

	OrdersTransitionedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_transitioned_total",
		Help: "Total number of order status transitions",
	}, []string{"status"})

	CheckoutFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failed_total",
		Help: "Total number of failed checkouts",
	}, []string{"reason"})

	StockRestoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_restored_total",
		Help: "Total units of stock restored by order cancellations",
	})

	NotificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notification_failures_total",
		Help: "Total number of failed notification deliveries",
	})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_latency_seconds",
		Help:    "Latency of checkout operations",
		Buckets: prometheus.DefBuckets,
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
