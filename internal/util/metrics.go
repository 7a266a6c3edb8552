package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CredentialFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credential_fetches_total",
		Help: "Total number of credential fetches against the issuing endpoint",
	}, []string{"provider"})

	CredentialCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credential_cache_hits_total",
		Help: "Total number of credential cache hits",
	}, []string{"provider"})

	CredentialFetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credential_fetch_failures_total",
		Help: "Total number of failed credential fetches",
	}, []string{"provider", "reason"})

	MenuFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "menu_fetches_total",
		Help: "Total number of menu fetches from POS providers",
	}, []string{"provider", "outcome"})

	MenuFetchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "menu_fetch_latency_seconds",
		Help:    "Latency of provider menu fetches",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	MenuCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "menu_cache_hits_total",
		Help: "Total number of menu cache hits by tier",
	}, []string{"tier"})

	MenuBackgroundRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "menu_background_refreshes_total",
		Help: "Total number of silent background menu refreshes",
	}, []string{"outcome"})

	OrdersReconciledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_reconciled_total",
		Help: "Total number of order status updates applied by the reconciler",
	})

	ReconcileFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_failures_total",
		Help: "Total number of per-order reconcile failures skipped",
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
