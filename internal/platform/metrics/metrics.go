package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	EndpointLatency *prometheus.HistogramVec

	// Chain
	ChainCalls        *prometheus.CounterVec
	ChainCallLatency  *prometheus.HistogramVec
	Transactions      *prometheus.CounterVec
	SupplyProbeTokens prometheus.Counter

	// Wallet
	WalletRequests *prometheus.CounterVec

	// Metadata
	MetadataFetches      *prometheus.CounterVec
	MetadataFetchLatency prometheus.Histogram
	GatewayCircuitOpen   *prometheus.GaugeVec

	// Diplomas
	DiplomasSkipped *prometheus.CounterVec
	Verifications   *prometheus.CounterVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers on reg; tests pass a fresh prometheus.NewRegistry().
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EndpointLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credentia_endpoint_latency_seconds",
			Help:    "Latency of HTTP endpoints in seconds, by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		ChainCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credentia_chain_calls_total",
			Help: "Contract view calls, labeled by method and outcome",
		}, []string{"method", "outcome"}),
		ChainCallLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credentia_chain_call_latency_seconds",
			Help:    "Latency of contract view calls in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		Transactions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credentia_transactions_total",
			Help: "Submitted transactions, labeled by kind and outcome",
		}, []string{"kind", "outcome"}),
		SupplyProbeTokens: f.NewCounter(prometheus.CounterOpts{
			Name: "credentia_supply_probe_calls_total",
			Help: "ownerOf calls spent probing supply when totalMinted is unavailable",
		}),
		WalletRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credentia_wallet_requests_total",
			Help: "Wallet provider requests, labeled by operation and outcome",
		}, []string{"operation", "outcome"}),
		MetadataFetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credentia_metadata_fetches_total",
			Help: "Off-chain metadata fetches, labeled by gateway host and outcome",
		}, []string{"gateway", "outcome"}),
		MetadataFetchLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "credentia_metadata_fetch_latency_seconds",
			Help:    "Latency of metadata fetches in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		GatewayCircuitOpen: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "credentia_gateway_circuit_open",
			Help: "1 while the gateway's circuit breaker is open",
		}, []string{"gateway"}),
		DiplomasSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credentia_diplomas_skipped_total",
			Help: "Tokens omitted from listings, labeled by the failing stage",
		}, []string{"stage"}),
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "credentia_verifications_total",
			Help: "Diploma verifications, labeled by result",
		}, []string{"result"}),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveEndpointLatency matches the request middleware's observer signature.
func (m *Metrics) ObserveEndpointLatency(route, method string, seconds float64) {
	if m == nil {
		return
	}
	m.EndpointLatency.WithLabelValues(route, method).Observe(seconds)
}

func (m *Metrics) ObserveChainCall(method string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.ChainCalls.WithLabelValues(method, outcome(err)).Inc()
	m.ChainCallLatency.WithLabelValues(method).Observe(seconds)
}

// IncrementTransaction records a write; outcome is the domain error code or "ok".
func (m *Metrics) IncrementTransaction(kind, outcome string) {
	if m == nil {
		return
	}
	m.Transactions.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) IncrementSupplyProbe() {
	if m == nil {
		return
	}
	m.SupplyProbeTokens.Inc()
}

func (m *Metrics) IncrementWalletRequest(operation string, err error) {
	if m == nil {
		return
	}
	m.WalletRequests.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Metrics) ObserveMetadataFetch(gateway string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.MetadataFetches.WithLabelValues(gateway, outcome(err)).Inc()
	m.MetadataFetchLatency.Observe(seconds)
}

func (m *Metrics) SetGatewayCircuitOpen(gateway string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.GatewayCircuitOpen.WithLabelValues(gateway).Set(v)
}

// IncrementDiplomaSkipped counts a token dropped from a listing at stage
// ("owner", "uri", "metadata").
func (m *Metrics) IncrementDiplomaSkipped(stage string) {
	if m == nil {
		return
	}
	m.DiplomasSkipped.WithLabelValues(stage).Inc()
}

func (m *Metrics) IncrementVerification(valid bool) {
	if m == nil {
		return
	}
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.Verifications.WithLabelValues(result).Inc()
}
