package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersDispatchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_dispatched_total",
		Help: "Total number of orders handed off to the chat channel",
	}, []string{"payment_method"})

	OrderValue = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_value",
		Help:    "Grand total of dispatched orders",
		Buckets: prometheus.ExponentialBuckets(5000, 2, 8),
	})

	CartMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Total number of cart mutations",
	}, []string{"operation"})

	CheckoutBlockedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_blocked_total",
		Help: "Total number of checkout step advances rejected by validation",
	}, []string{"step"})

	CatalogReplacesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_replaces_total",
		Help: "Total number of bulk catalog replaces",
	})

	CatalogFallbackLoadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_fallback_loads_total",
		Help: "Total number of catalog loads served from the built-in fallback",
	})

	CatalogStoreLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_store_latency_seconds",
		Help:    "Latency of catalog store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	ImageUploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "image_uploads_total",
		Help: "Total number of image uploads",
	}, []string{"result"})

	ImageBytesSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "image_bytes_saved_total",
		Help: "Bytes saved by recompressing uploaded images",
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
