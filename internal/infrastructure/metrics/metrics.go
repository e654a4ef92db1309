package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Journal metrics
	EntriesDrafted  prometheus.Counter
	EntriesPosted   prometheus.Counter
	EntriesReversed prometheus.Counter
	PostingDuration prometheus.Histogram
	PostedAmount    prometheus.Histogram
	PostingErrors   *prometheus.CounterVec

	// Account metrics
	AccountsCreated prometheus.Counter
	AccountBalance  *prometheus.GaugeVec

	// Report metrics
	TrialBalanceImbalance prometheus.Gauge
	TrialBalanceRuns      prometheus.Counter

	// Float sync metrics
	FloatSyncRuns     *prometheus.CounterVec
	FloatSyncUpdated  prometheus.Counter
	FloatSyncFailures prometheus.Counter
	FloatSyncDuration prometheus.Histogram
	BreakerState      *prometheus.GaugeVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		EntriesDrafted: f.NewCounter(prometheus.CounterOpts{
			Name: "gl_journal_entries_drafted_total",
			Help: "Total number of journal entries drafted",
		}),
		EntriesPosted: f.NewCounter(prometheus.CounterOpts{
			Name: "gl_journal_entries_posted_total",
			Help: "Total number of journal entries posted",
		}),
		EntriesReversed: f.NewCounter(prometheus.CounterOpts{
			Name: "gl_journal_entries_reversed_total",
			Help: "Total number of journal entries reversed",
		}),
		PostingDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gl_posting_duration_seconds",
			Help:    "Duration of posting operations",
			Buckets: prometheus.DefBuckets,
		}),
		PostedAmount: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gl_posted_amount",
			Help:    "Debit total of posted entries",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		PostingErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gl_posting_errors_total",
				Help: "Total number of posting errors by type",
			},
			[]string{"error_type"},
		),

		AccountsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "gl_accounts_created_total",
			Help: "Total number of GL accounts created",
		}),
		AccountBalance: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gl_account_balance",
				Help: "Current GL account balance in its normal sign",
			},
			[]string{"code"},
		),

		TrialBalanceImbalance: f.NewGauge(prometheus.GaugeOpts{
			Name: "gl_trial_balance_imbalance",
			Help: "Total debits minus total credits of the last trial balance",
		}),
		TrialBalanceRuns: f.NewCounter(prometheus.CounterOpts{
			Name: "gl_trial_balance_runs_total",
			Help: "Total number of trial balance computations",
		}),

		FloatSyncRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gl_float_sync_runs_total",
				Help: "Total float sync runs by outcome",
			},
			[]string{"status"},
		),
		FloatSyncUpdated: f.NewCounter(prometheus.CounterOpts{
			Name: "gl_float_sync_accounts_updated_total",
			Help: "Total float accounts that needed a balancing entry",
		}),
		FloatSyncFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "gl_float_sync_failures_total",
			Help: "Total float accounts that failed to sync",
		}),
		FloatSyncDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gl_float_sync_duration_seconds",
			Help:    "Duration of float sync runs",
			Buckets: prometheus.DefBuckets,
		}),
		BreakerState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gl_circuit_breaker_state",
				Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),

		EventsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gl_outbox_events_published_total",
				Help: "Total outbox events relayed by outcome",
			},
			[]string{"event_type", "status"},
		),

		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gl_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gl_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		RateLimitHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gl_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),

		AuditLogsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gl_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),
	}
}
