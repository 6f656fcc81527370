package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	diplomahandler "credentia/internal/diploma/handler"
	institutionhandler "credentia/internal/institution/handler"
	jwttoken "credentia/internal/jwt_token"
	"credentia/internal/platform/health"
	"credentia/internal/platform/metrics"
	wallethandler "credentia/internal/wallet/handler"
	"credentia/pkg/platform/middleware/auth"
	"credentia/pkg/platform/middleware/request"
)

// Handlers are the per-domain HTTP handlers mounted by NewRouter.
type Handlers struct {
	Health      *health.Handler
	Wallet      *wallethandler.Handler
	Institution *institutionhandler.Handler
	Diploma     *diplomahandler.Handler
}

// Options tune the middleware stack.
type Options struct {
	Validator      auth.TokenValidator
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// NewRouter wires all public endpoints with middleware. Reads are open;
// every state-changing route needs an operator token carrying the route's
// scope.
func NewRouter(h Handlers, opts Options, logger *slog.Logger) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}

	r := chi.NewRouter()

	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(logger))
	r.Use(request.LatencyMiddleware(opts.Metrics.ObserveEndpointLatency))
	r.Use(request.BodyLimit(opts.MaxBodyBytes))
	r.Use(request.Timeout(opts.RequestTimeout))
	r.Use(request.ContentTypeJSON)

	if h.Health != nil {
		h.Health.Register(r)
	}
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	h.Wallet.Register(r)
	h.Institution.Register(r)
	h.Diploma.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireOperator(opts.Validator, logger))

		r.With(auth.RequireScope(jwttoken.ScopeWallet, logger)).Group(h.Wallet.RegisterProtected)
		r.With(auth.RequireScope(jwttoken.ScopeInstitutions, logger)).Group(h.Institution.RegisterCreate)
		r.With(auth.RequireScope(jwttoken.ScopeDiplomas, logger)).Group(h.Institution.RegisterAward)
	})

	return r
}
