package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the billing core.
type Metrics struct {
	// Admission metrics
	RecordsAdmitted prometheus.Counter

	// Service ledger metrics
	ServicesAdded     prometheus.Counter
	ServicesCompleted prometheus.Counter
	ServiceAmount     prometheus.Histogram

	// Payment ledger metrics
	PaymentsRecorded *prometheus.CounterVec
	PaymentAmount    prometheus.Histogram

	// Discharge metrics
	Discharges        prometheus.Counter
	PartialDischarges prometheus.Counter
	BedsReleased      prometheus.Counter

	// Merge metrics
	MergeConflicts prometheus.Counter
	MergeDuration  prometheus.Histogram

	// Invoice metrics
	InvoiceCacheHits   prometheus.Counter
	InvoiceCacheMisses prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RecordsAdmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gautami_records_admitted_total",
			Help: "Total number of billing records created at admission",
		}),

		ServicesAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gautami_services_added_total",
			Help: "Total number of service line items appended",
		}),
		ServicesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gautami_services_completed_total",
			Help: "Total number of service line items completed",
		}),
		ServiceAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gautami_service_amount_minor_units",
			Help:    "Service line item amounts in minor units",
			Buckets: []float64{1000, 10000, 100000, 1000000, 10000000},
		}),

		PaymentsRecorded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gautami_payments_recorded_total",
				Help: "Total number of payment entries by method",
			},
			[]string{"method"},
		),
		PaymentAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gautami_payment_amount_minor_units",
			Help:    "Payment amounts in minor units",
			Buckets: []float64{1000, 10000, 100000, 1000000, 10000000},
		}),

		Discharges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gautami_discharges_total",
			Help: "Total number of completed discharges",
		}),
		PartialDischarges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gautami_partial_discharges_total",
			Help: "Total number of discharges whose bed release failed",
		}),
		BedsReleased: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gautami_beds_released_total",
			Help: "Total number of beds released",
		}),

		MergeConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gautami_merge_conflicts_total",
			Help: "Total number of optimistic merge conflicts",
		}),
		MergeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gautami_merge_duration_seconds",
			Help:    "Duration of record merge operations",
			Buckets: prometheus.DefBuckets,
		}),

		InvoiceCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gautami_invoice_cache_hits_total",
			Help: "Invoice projections served from cache",
		}),
		InvoiceCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gautami_invoice_cache_misses_total",
			Help: "Invoice projections computed from the record",
		}),
	}
}
