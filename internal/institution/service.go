// Package institution lists, inspects, creates and awards through
// institution contracts, gating writes the way the issuing UI does.
package institution

//go:generate mockgen -source=service.go -destination=mocks/service_mock.go -package=mocks Chain

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"credentia/internal/chain"
	"credentia/internal/platform/tracer"
	dErrors "credentia/pkg/domain-errors"
)

// Chain is the subset of the contract gateway the service needs.
type Chain interface {
	ListInstitutions(ctx context.Context) ([]common.Address, error)
	Profile(ctx context.Context, inst common.Address) (*chain.Profile, error)
	MintedCounter(ctx context.Context, inst common.Address) (uint64, error)
	Role(ctx context.Context, inst, account common.Address) (string, error)
	CreateInstitution(ctx context.Context, from common.Address, req chain.CreateInstitutionRequest) (*chain.CreateResult, error)
	Mint(ctx context.Context, from, inst, recipient common.Address, metadataURI string) (*chain.MintResult, error)
}

type Service struct {
	chain  Chain
	logger *slog.Logger
	tracer tracer.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func NewService(c Chain, opts ...Option) *Service {
	s := &Service{
		chain:  c,
		logger: slog.Default(),
		tracer: tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every registered institution with its profile. Institutions
// whose profile cannot be read are logged and skipped.
func (s *Service) List(ctx context.Context) (out []Institution, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanInstitutionList)
	defer func() { span.End(err) }()

	addrs, err := s.chain.ListInstitutions(ctx)
	if err != nil {
		return nil, err
	}

	out = make([]Institution, 0, len(addrs))
	for _, addr := range addrs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		inst, err := s.load(ctx, addr)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping unreadable institution",
				"institution", addr.Hex(),
				"error", err,
			)
			continue
		}
		out = append(out, *inst)
	}
	if skipped := len(addrs) - len(out); skipped > 0 {
		span.SetAttributes(tracer.Int64(tracer.AttrSkipped, int64(skipped)))
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, addr common.Address) (*Institution, error) {
	profile, err := s.chain.Profile(ctx, addr)
	if err != nil {
		return nil, err
	}
	inst := &Institution{
		Address: addr,
		Name:    profile.Name,
		Symbol:  profile.Symbol,
		LogoURL: profile.LogoURL,
	}
	if n, err := s.chain.MintedCounter(ctx, addr); err == nil {
		inst.MintedCount = &n
	}
	return inst, nil
}

// Get returns inst's profile and viewer's role in it. A zero viewer gets
// RoleNone without a chain read.
func (s *Service) Get(ctx context.Context, addr, viewer common.Address) (*Detail, error) {
	inst, err := s.load(ctx, addr)
	if err != nil {
		return nil, err
	}
	detail := &Detail{Institution: *inst, Viewer: viewer, Role: chain.RoleNone}
	if viewer == (common.Address{}) {
		return detail, nil
	}
	role, err := s.chain.Role(ctx, addr, viewer)
	if err != nil {
		return nil, err
	}
	detail.Role = role
	detail.CanAward = chain.CanAward(role)
	return detail, nil
}

// Role returns account's role label in inst.
func (s *Service) Role(ctx context.Context, inst, account common.Address) (string, error) {
	return s.chain.Role(ctx, inst, account)
}

// Create registers a new institution through the Factory, signed by from.
func (s *Service) Create(ctx context.Context, from common.Address, req chain.CreateInstitutionRequest) (*chain.CreateResult, error) {
	if from == (common.Address{}) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "connect a wallet before creating an institution")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Symbol = strings.TrimSpace(req.Symbol)
	req.LogoURL = strings.TrimSpace(req.LogoURL)
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	res, err := s.chain.CreateInstitution(ctx, from, req)
	if err != nil {
		s.logger.ErrorContext(ctx, "create institution failed",
			"from", from.Hex(),
			"name", req.Name,
			"error", err,
		)
		return nil, err
	}
	attrs := []any{"from", from.Hex(), "tx_hash", res.TxHash.Hex()}
	if res.Institution != nil {
		attrs = append(attrs, "institution", res.Institution.Hex())
	}
	s.logger.InfoContext(ctx, "institution created", attrs...)
	return res, nil
}

func validateCreate(req chain.CreateInstitutionRequest) error {
	switch {
	case req.Name == "":
		return dErrors.New(dErrors.CodeValidation, "name is required")
	case req.Symbol == "":
		return dErrors.New(dErrors.CodeValidation, "symbol is required")
	case req.Rector == (common.Address{}):
		return dErrors.New(dErrors.CodeValidation, "rector address is required")
	case req.Secretaria == (common.Address{}):
		return dErrors.New(dErrors.CodeValidation, "secretaria address is required")
	}
	return nil
}

// Award mints a diploma to recipient. Only a Rector or Secretaria of inst may
// award; the role is read fresh on every call.
func (s *Service) Award(ctx context.Context, from, inst, recipient common.Address, metadataURI string) (*chain.MintResult, error) {
	if from == (common.Address{}) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "connect a wallet before awarding")
	}
	if recipient == (common.Address{}) {
		return nil, dErrors.New(dErrors.CodeValidation, "recipient address is required")
	}
	metadataURI = strings.TrimSpace(metadataURI)
	if metadataURI == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "metadata URI is required")
	}

	role, err := s.chain.Role(ctx, inst, from)
	if err != nil {
		return nil, err
	}
	if !chain.CanAward(role) {
		s.logger.WarnContext(ctx, "award refused",
			"institution", inst.Hex(),
			"from", from.Hex(),
			"role", role,
		)
		return nil, dErrors.New(dErrors.CodeForbidden, "only a Rector or Secretaria can award diplomas")
	}

	res, err := s.chain.Mint(ctx, from, inst, recipient, metadataURI)
	if err != nil {
		return nil, err
	}
	tokenID := "unknown"
	if res.TokenID != nil {
		tokenID = res.TokenID.String()
	}
	s.logger.InfoContext(ctx, "diploma awarded",
		"institution", inst.Hex(),
		"recipient", recipient.Hex(),
		"token_id", tokenID,
		"tx_hash", res.TxHash.Hex(),
	)
	return res, nil
}
