package observability

import (
	"time"

	"github.com/eventpay/connect-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the connect core.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	processorErrors *prometheus.CounterVec
	operationsTotal *prometheus.CounterVec
	moneyMoved      *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	leaseWaits      prometheus.Histogram
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "connect_request_duration_seconds",
				Help:    "Duration of operations by name.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		processorErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "connect_processor_errors_total",
				Help: "Total translated processor errors by kind.",
			},
			[]string{"kind"},
		),
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "connect_operations_total",
				Help: "Total operations processed by name and status.",
			},
			[]string{"operation", "status"},
		),
		moneyMoved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "connect_money_moved_cents_total",
				Help: "Total cents moved by flow (topup, payout).",
			},
			[]string{"flow"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "connect_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "connect_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		leaseWaits: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "connect_lease_wait_seconds",
				Help:    "Time spent waiting for the per-owner lease.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrProcessorError increments the translated-error counter for a kind.
func (m *Metrics) IncrProcessorError(kind string) {
	m.processorErrors.WithLabelValues(kind).Inc()
}

// IncrOperation increments the operation counter with a status label.
func (m *Metrics) IncrOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordMoneyMoved adds the moved cents for a flow (topup, payout).
func (m *Metrics) RecordMoneyMoved(flow string, amountCents int64) {
	m.moneyMoved.WithLabelValues(flow).Add(float64(amountCents))
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordLeaseWait records how long an operation waited for its owner lease.
func (m *Metrics) RecordLeaseWait(d time.Duration) {
	m.leaseWaits.Observe(d.Seconds())
}

// GetProcessorSnapshot returns a snapshot of processor-boundary metrics
// suitable for the GET /v1/metrics/processor endpoint.
func (m *Metrics) GetProcessorSnapshot() *domain.ProcessorHealth {
	// Prometheus counters expose cumulative values.
	success := getCounterSum(m.operationsTotal, "success")
	failure := getCounterSum(m.operationsTotal, "error")
	total := success + failure

	errorRate := float64(0)
	if total > 0 {
		errorRate = failure / total
	}

	cacheHits := getCounterValue(m.cacheHits, "account_id")
	cacheMisses := getCounterValue(m.cacheMisses, "account_id")
	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.ProcessorHealth{
		TotalRequests: int64(total),
		ErrorRate:     errorRate,
		TopUps:        int64(getOperationCount(m.operationsTotal, "topUpIssuing", "success")),
		Payouts:       int64(getOperationCount(m.operationsTotal, "createPayout", "success")),
		CardsIssued:   int64(getOperationCount(m.operationsTotal, "createVirtualCard", "success")),
		CacheHitRate:  cacheHitRate,
		Period:        "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// getOperationCount reads a single operation/status counter.
func getOperationCount(cv *prometheus.CounterVec, operation, status string) float64 {
	counter := cv.WithLabelValues(operation, status)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// getCounterSum totals a status label across all operations the process has
// touched so far. Untouched label combinations contribute zero.
func getCounterSum(cv *prometheus.CounterVec, status string) float64 {
	var total float64
	for _, op := range []string{
		"createAccount", "createOnboardingLink", "getAccountStatus",
		"updateCapabilities", "getIssuingBalance", "topUpIssuing",
		"createCardholder", "createVirtualCard", "getCardDetails",
		"getBalance", "getTransactions", "getAccountDetails",
		"getPayouts", "createPayout", "addBankAccount",
		"updateAccountInfo", "acceptTermsOfService",
	} {
		total += getOperationCount(cv, op, status)
	}
	return total
}
