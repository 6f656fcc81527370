package metadata

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"credentia/internal/platform/metrics"
	"credentia/internal/platform/tracer"
	dErrors "credentia/pkg/domain-errors"
	"credentia/pkg/platform/circuit"
)

// Resolved is a fetched and parsed token URI.
type Resolved struct {
	URL        string
	Gateway    string
	Document   *Document
	Attributes Attributes
}

type gateway struct {
	base    string
	label   string
	breaker *circuit.Breaker
}

// Resolver normalizes, fetches and extracts. ipfs:// URIs go to the primary
// gateway unless its breaker is open, in which case the first healthy
// fallback serves the request. A failed fetch is reported, not retried.
type Resolver struct {
	fetcher  *Fetcher
	gateways []*gateway
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
	breaker  []circuit.Option
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(r *Resolver) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithFallbackGateways adds gateways tried, in order, while the primary's
// circuit is open.
func WithFallbackGateways(bases ...string) Option {
	return func(r *Resolver) {
		for _, base := range bases {
			if base != "" {
				r.gateways = append(r.gateways, &gateway{base: base})
			}
		}
	}
}

// WithBreakerOptions configures every gateway's circuit breaker.
func WithBreakerOptions(opts ...circuit.Option) Option {
	return func(r *Resolver) {
		r.breaker = append(r.breaker, opts...)
	}
}

// NewResolver builds a resolver around fetcher with primary as the first
// gateway (DefaultGateway when empty).
func NewResolver(fetcher *Fetcher, primary string, opts ...Option) *Resolver {
	if fetcher == nil {
		fetcher = NewFetcher(nil, 0)
	}
	if primary == "" {
		primary = DefaultGateway
	}
	r := &Resolver{
		fetcher:  fetcher,
		gateways: []*gateway{{base: primary}},
		logger:   slog.Default(),
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, g := range r.gateways {
		g.label = gatewayLabel(g.base)
		g.breaker = circuit.New(g.label, r.breaker...)
	}
	return r
}

// PrimaryGateway returns the gateway used while it is healthy.
func (r *Resolver) PrimaryGateway() string {
	return r.gateways[0].base
}

// Normalize rewrites uri against the primary gateway.
func (r *Resolver) Normalize(uri string) string {
	return NormalizeURI(uri, r.PrimaryGateway())
}

// Resolve normalizes rawURI, fetches it and extracts the diploma traits.
func (r *Resolver) Resolve(ctx context.Context, rawURI string) (res *Resolved, err error) {
	ctx, span := r.tracer.Start(ctx, tracer.SpanMetadataResolve)
	defer func() { span.End(err) }()

	if !IsContentAddressed(rawURI) {
		span.SetAttributes(tracer.String(tracer.AttrGateway, "direct"))
		doc, err := r.fetch(ctx, "direct", rawURI)
		if err != nil {
			return nil, err
		}
		return &Resolved{URL: rawURI, Document: doc, Attributes: ExtractAttributes(doc)}, nil
	}

	gw := r.pick(ctx)
	span.SetAttributes(tracer.String(tracer.AttrGateway, gw.label))
	if gw != r.gateways[0] {
		span.AddEvent(tracer.EventGatewayFallback, tracer.String(tracer.AttrGateway, gw.label))
	}

	target := NormalizeURI(rawURI, gw.base)
	doc, err := r.fetch(ctx, gw.label, target)
	r.record(ctx, gw, err)
	if err != nil {
		return nil, err
	}
	return &Resolved{URL: target, Gateway: gw.base, Document: doc, Attributes: ExtractAttributes(doc)}, nil
}

// pick returns the first gateway whose breaker admits a request. With every
// circuit open the primary is used anyway.
func (r *Resolver) pick(ctx context.Context) *gateway {
	for _, g := range r.gateways {
		if g.breaker.Allow() {
			return g
		}
	}
	r.logger.WarnContext(ctx, "all metadata gateways are open, using primary",
		"gateway", r.gateways[0].label,
	)
	return r.gateways[0]
}

func (r *Resolver) fetch(ctx context.Context, label, target string) (*Document, error) {
	start := time.Now()
	doc, err := r.fetcher.Fetch(ctx, target)
	r.metrics.ObserveMetadataFetch(label, time.Since(start).Seconds(), err)
	return doc, err
}

// record feeds the outcome to the gateway's breaker. Malformed documents are
// the publisher's fault and do not count against the gateway; neither do
// cancelled requests.
func (r *Resolver) record(ctx context.Context, gw *gateway, err error) {
	var change circuit.StateChange
	switch {
	case err == nil:
		change = gw.breaker.RecordSuccess()
	case ctx.Err() != nil:
		// a cancelled probe must not leave the circuit half-open forever
		if gw.breaker.State() == circuit.StateHalfOpen {
			gw.breaker.RecordFailure()
		}
		return
	case isUnreachable(err):
		change = gw.breaker.RecordFailure()
	default:
		change = gw.breaker.RecordSuccess()
	}

	if change.Opened {
		r.logger.WarnContext(ctx, "metadata gateway circuit opened", "gateway", gw.label)
		r.metrics.SetGatewayCircuitOpen(gw.label, true)
	}
	if change.Closed {
		r.logger.InfoContext(ctx, "metadata gateway circuit closed", "gateway", gw.label)
		r.metrics.SetGatewayCircuitOpen(gw.label, false)
	}
}

func isUnreachable(err error) bool {
	return dErrors.HasCode(err, dErrors.CodeMetadataUnreachable)
}

func gatewayLabel(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return base
	}
	return u.Host
}
