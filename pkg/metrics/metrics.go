package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "contractdesk"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	ContractsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "contracts_created_total", Help: "Number of contract requests submitted."},
	)
	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "contract_status_transitions_total", Help: "Number of contract status changes by target status."},
		[]string{"to"},
	)
	ObligationsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "obligations_completed_total", Help: "Number of obligations marked completed."},
	)
	FileUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "file_uploads_total", Help: "Number of contract file uploads by result."},
		[]string{"result"},
	)
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_lookups_total", Help: "Collection cache lookups by key and result."},
		[]string{"key", "result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(
		RateLimitAllowed,
		RateLimitRejected,
		ContractsCreated,
		StatusTransitions,
		ObligationsCompleted,
		FileUploads,
		CacheLookups,
	)
}
