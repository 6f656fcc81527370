// Package diploma assembles diploma records from on-chain state and
// off-chain metadata, for listing and for verification.
package diploma

//go:generate mockgen -source=service.go -destination=mocks/service_mock.go -package=mocks Chain,Resolver

import (
	"context"
	"log/slog"
	"math/big"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"credentia/internal/metadata"
	"credentia/internal/platform/metrics"
	"credentia/internal/platform/tracer"
	dErrors "credentia/pkg/domain-errors"
)

// Chain is the subset of the contract gateway used to project diplomas.
type Chain interface {
	TotalMinted(ctx context.Context, inst common.Address) (uint64, error)
	OwnerOf(ctx context.Context, inst common.Address, tokenID *big.Int) (common.Address, error)
	TokenURI(ctx context.Context, inst common.Address, tokenID *big.Int) (string, error)
	Name(ctx context.Context, inst common.Address) (string, error)
}

// Resolver turns a raw token URI into parsed metadata.
type Resolver interface {
	Resolve(ctx context.Context, rawURI string) (*metadata.Resolved, error)
	Normalize(uri string) string
}

// Skip stages, used in logs and the skipped-diploma metric.
const (
	stageOwner    = "owner"
	stageURI      = "uri"
	stageMetadata = "metadata"
)

const defaultConcurrency = 4

type Service struct {
	chain       Chain
	resolver    Resolver
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      tracer.Tracer
	concurrency int
	explorers   []string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithConcurrency bounds parallel metadata fetches in List. 1 is sequential.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithExplorerURLs sets the block explorers linked from a Verification.
func WithExplorerURLs(bases ...string) Option {
	return func(s *Service) {
		s.explorers = append(s.explorers[:0], bases...)
	}
}

func NewService(chain Chain, resolver Resolver, opts ...Option) *Service {
	s := &Service{
		chain:       chain,
		resolver:    resolver,
		logger:      slog.Default(),
		tracer:      tracer.NewNoop(),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type pending struct {
	tokenID uint64
	owner   common.Address
	uri     string
}

// List returns every diploma of inst in ascending token id order.
//
// Tokens whose owner, URI, or metadata cannot be read are logged and left
// out; the listing itself only fails when the supply cannot be determined or
// ctx ends. A cancelled listing never returns a partial result.
func (s *Service) List(ctx context.Context, inst common.Address) (out []Diploma, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanDiplomaList,
		tracer.String(tracer.AttrInstitution, inst.Hex()),
	)
	defer func() { span.End(err) }()

	total, err := s.chain.TotalMinted(ctx, inst)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracer.Int64(tracer.AttrTotalMinted, int64(total)))
	if total == 0 {
		return []Diploma{}, nil
	}

	var resolved []pending
	for id := uint64(1); id <= total; id++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tokenID := new(big.Int).SetUint64(id)
		owner, err := s.chain.OwnerOf(ctx, inst, tokenID)
		if err != nil {
			s.skip(ctx, span, inst, id, stageOwner, err)
			continue
		}
		uri, err := s.chain.TokenURI(ctx, inst, tokenID)
		if err != nil {
			s.skip(ctx, span, inst, id, stageURI, err)
			continue
		}
		resolved = append(resolved, pending{tokenID: id, owner: owner, uri: uri})
	}

	slots := make([]*Diploma, len(resolved))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, p := range resolved {
		g.Go(func() error {
			res, err := s.resolver.Resolve(gctx, p.uri)
			if err != nil {
				if cerr := gctx.Err(); cerr != nil {
					return cerr
				}
				s.skip(gctx, span, inst, p.tokenID, stageMetadata, err)
				return nil
			}
			slots[i] = &Diploma{
				TokenID:     p.tokenID,
				Owner:       p.owner,
				MetadataURI: p.uri,
				MetadataURL: res.URL,
				Metadata:    toMetadata(res),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out = make([]Diploma, 0, len(slots))
	for _, d := range slots {
		if d != nil {
			out = append(out, *d)
		}
	}
	if skipped := int(total) - len(out); skipped > 0 {
		span.SetAttributes(tracer.Int64(tracer.AttrSkipped, int64(skipped)))
	}
	return out, nil
}

func (s *Service) skip(ctx context.Context, span tracer.Span, inst common.Address, tokenID uint64, stage string, err error) {
	s.logger.WarnContext(ctx, "skipping diploma",
		"institution", inst.Hex(),
		"token_id", tokenID,
		"stage", stage,
		"error", err,
	)
	s.metrics.IncrementDiplomaSkipped(stage)
	span.AddEvent(tracer.EventTokenSkipped,
		tracer.Int64(tracer.AttrTokenID, int64(tokenID)),
		tracer.String("stage", stage),
	)
}

// Verify checks that tokenID was minted by inst and resolves its metadata.
// It never fails: every problem is folded into the returned Verification.
func (s *Service) Verify(ctx context.Context, inst common.Address, tokenID uint64) *Verification {
	ctx, span := s.tracer.Start(ctx, tracer.SpanDiplomaVerify,
		tracer.String(tracer.AttrInstitution, inst.Hex()),
		tracer.Int64(tracer.AttrTokenID, int64(tokenID)),
	)
	v := &Verification{
		Institution:   inst,
		TokenID:       tokenID,
		ExplorerLinks: s.explorerLinks(inst),
	}
	defer func() {
		span.SetAttributes(tracer.Bool(tracer.AttrValid, v.Valid))
		span.End(nil)
		s.metrics.IncrementVerification(v.Valid)
	}()

	if tokenID == 0 {
		v.Reason = ReasonInvalidTokenID
		return v
	}

	// The display name is informational; only ownerOf and tokenURI decide validity.
	if name, err := s.chain.Name(ctx, inst); err != nil {
		s.logger.WarnContext(ctx, "institution name unavailable during verification",
			"institution", inst.Hex(),
			"token_id", tokenID,
			"error", err,
		)
	} else {
		v.InstitutionName = name
	}

	id := new(big.Int).SetUint64(tokenID)
	owner, err := s.chain.OwnerOf(ctx, inst, id)
	if err != nil {
		reason := ReasonOwnerUnavailable
		if dErrors.HasCode(err, dErrors.CodeTokenNotFound) {
			reason = ReasonTokenNotMinted
		}
		s.invalid(ctx, v, reason, err)
		return v
	}
	v.Owner = &owner

	uri, err := s.chain.TokenURI(ctx, inst, id)
	if err != nil {
		s.invalid(ctx, v, ReasonTokenURIUnavailable, err)
		return v
	}
	v.TokenURI = uri
	v.Valid = true

	res, err := s.resolver.Resolve(ctx, uri)
	if err != nil {
		s.logger.WarnContext(ctx, "verified diploma has unreadable metadata",
			"institution", inst.Hex(),
			"token_id", tokenID,
			"error", err,
		)
		v.MetadataURL = s.resolver.Normalize(uri)
		v.MetadataError = err.Error()
		return v
	}
	md := toMetadata(res)
	v.MetadataURL = res.URL
	v.Metadata = &md
	return v
}

func (s *Service) invalid(ctx context.Context, v *Verification, reason string, err error) {
	v.Reason = reason
	s.logger.InfoContext(ctx, "diploma verification failed",
		"institution", v.Institution.Hex(),
		"token_id", v.TokenID,
		"reason", reason,
		"error", err,
	)
}

// explorerLinks builds one link per configured explorer, keyed by host.
func (s *Service) explorerLinks(inst common.Address) []ExplorerLink {
	links := make([]ExplorerLink, 0, len(s.explorers))
	for _, base := range s.explorers {
		base = strings.TrimRight(base, "/")
		name := base
		if u, err := url.Parse(base); err == nil && u.Host != "" {
			name = u.Host
		}
		links = append(links, ExplorerLink{Name: name, URL: base + "/address/" + inst.Hex()})
	}
	return links
}
