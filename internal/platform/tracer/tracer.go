// Package tracer is a small tracing abstraction so chain, metadata, and
// diploma code can emit spans without importing OpenTelemetry directly.
//
// Implementations:
//   - NoopTracer: for tests and CLIs
//   - OTelTracer: OpenTelemetry adapter for the server
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks it failed.
	// End must be called exactly once, typically via defer.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
//
//	ctx, span := tr.Start(ctx, tracer.SpanDiplomaList,
//	    tracer.String(tracer.AttrInstitution, inst.Hex()),
//	)
//	defer func() { span.End(err) }()
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanDiplomaList      = "diploma.list"
	SpanDiplomaVerify    = "diploma.verify"
	SpanMetadataResolve  = "metadata.resolve"
	SpanChainTotalMinted = "chain.total_minted"
	SpanChainMint        = "chain.mint"
	SpanChainCreate      = "chain.create_institution"
	SpanInstitutionList  = "institution.list"
)

// Attribute keys.
const (
	AttrInstitution  = "institution"
	AttrTokenID      = "token_id"
	AttrTotalMinted  = "total_minted"
	AttrSkipped      = "skipped"
	AttrGateway      = "gateway"
	AttrSupplySource = "supply_source"
	AttrValid        = "valid"
	AttrTxHash       = "tx_hash"
)

// Event names.
const (
	EventTokenSkipped    = "token.skipped"
	EventGatewayFallback = "gateway.fallback"
)
