package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	DepositsCreated  prometheus.Counter
	TransfersCreated prometheus.Counter
	TransferDuration prometheus.Histogram
	TransferAmount   prometheus.Histogram
	LedgerErrors     *prometheus.CounterVec
	LockTimeouts     prometheus.Counter

	// Account metrics
	AccountsCreated        prometheus.Counter
	AccountNumberRetries   prometheus.Counter
	AccountNumberExhausted prometheus.Counter

	// Reconciliation metrics
	ReconciliationRuns    prometheus.Counter
	DiscrepanciesDetected prometheus.Gauge

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBConnections prometheus.Gauge

	// Authentication metrics
	AuthAttempts *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		DepositsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "minibank_deposits_created_total",
			Help: "Total number of deposits recorded",
		}),
		TransfersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "minibank_transfers_created_total",
			Help: "Total number of transfers recorded",
		}),
		TransferDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "minibank_transfer_duration_seconds",
			Help:    "Duration of transfer operations",
			Buckets: prometheus.DefBuckets,
		}),
		TransferAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "minibank_transfer_amount",
			Help:    "Transfer amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		LedgerErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minibank_ledger_errors_total",
				Help: "Total number of ledger operation errors by type",
			},
			[]string{"error_type"},
		),
		LockTimeouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "minibank_lock_timeouts_total",
			Help: "Total number of account lock acquisitions that timed out",
		}),

		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "minibank_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountNumberRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "minibank_account_number_retries_total",
			Help: "Total number of account number collisions retried",
		}),
		AccountNumberExhausted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "minibank_account_number_exhausted_total",
			Help: "Total number of account creations that ran out of retry attempts",
		}),

		ReconciliationRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "minibank_reconciliation_runs_total",
			Help: "Total number of ledger consistency checks",
		}),
		DiscrepanciesDetected: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "minibank_reconciliation_discrepancies",
			Help: "Accounts with a balance differing from their log sum at last check",
		}),

		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minibank_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "minibank_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "minibank_db_connections",
			Help: "Current number of database connections",
		}),

		AuthAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minibank_auth_attempts_total",
				Help: "Total authentication attempts",
			},
			[]string{"status"},
		),

		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minibank_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}
