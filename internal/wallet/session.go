package wallet

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"credentia/internal/platform/metrics"
	dErrors "credentia/pkg/domain-errors"
	"credentia/pkg/requestcontext"
)

// Session is the process-wide record of which account the operator has
// authorized. It is read-mostly: only Connect, SwitchAccount, and Disconnect
// write. Services never read it implicitly; handlers snapshot Account() and
// pass it in.
type Session struct {
	provider Provider
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu      sync.RWMutex
	account common.Address
}

// Option configures a Session.
type Option func(*Session)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// NewSession creates a session over provider. A nil provider is allowed and
// behaves as "no injected wallet".
func NewSession(provider Provider, opts ...Option) *Session {
	s := &Session{provider: provider, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect asks the wallet for account access and remembers the primary
// account. On failure the session is left as it was.
func (s *Session) Connect(ctx context.Context) (common.Address, error) {
	if s.provider == nil {
		return common.Address{}, dErrors.New(dErrors.CodeProviderUnavailable, "no wallet provider available")
	}
	accounts, err := s.provider.RequestAccounts(ctx)
	s.metrics.IncrementWalletRequest("connect", err)
	if err != nil {
		s.logger.WarnContext(ctx, "wallet connect failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return common.Address{}, err
	}
	return s.adopt(ctx, accounts, "connect")
}

// SwitchAccount requests a fresh permission grant, then re-reads the active
// account.
func (s *Session) SwitchAccount(ctx context.Context) (common.Address, error) {
	if s.provider == nil {
		return common.Address{}, dErrors.New(dErrors.CodeProviderUnavailable, "no wallet provider available")
	}
	err := s.provider.RequestPermissions(ctx)
	if err == nil {
		var accounts []common.Address
		accounts, err = s.provider.Accounts(ctx)
		if err == nil {
			s.metrics.IncrementWalletRequest("switch", nil)
			return s.adopt(ctx, accounts, "switch")
		}
	}
	s.metrics.IncrementWalletRequest("switch", err)
	s.logger.WarnContext(ctx, "wallet switch failed",
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return common.Address{}, err
}

// CurrentAccount returns the already-authorized account without prompting.
// It returns the zero address when nothing was granted or no wallet exists,
// so it is safe to call on startup.
func (s *Session) CurrentAccount(ctx context.Context) (common.Address, error) {
	if s.provider == nil {
		return common.Address{}, nil
	}
	accounts, err := s.provider.Accounts(ctx)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeProviderUnavailable) {
			return common.Address{}, nil
		}
		return common.Address{}, err
	}
	if len(accounts) == 0 {
		return common.Address{}, nil
	}

	s.mu.Lock()
	s.account = accounts[0]
	s.mu.Unlock()
	return accounts[0], nil
}

// Account returns the cached account without I/O; zero when unauthenticated.
func (s *Session) Account() common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

// Connected reports whether an account is held.
func (s *Session) Connected() bool {
	return s.Account() != (common.Address{})
}

// Disconnect forgets the account. Wallet-side permissions are untouched.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.account = common.Address{}
	s.mu.Unlock()
}

func (s *Session) adopt(ctx context.Context, accounts []common.Address, op string) (common.Address, error) {
	if len(accounts) == 0 {
		return common.Address{}, dErrors.New(dErrors.CodeUserRejected, "wallet authorized no accounts")
	}
	s.mu.Lock()
	s.account = accounts[0]
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "wallet account active",
		"operation", op,
		"account", accounts[0].Hex(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return accounts[0], nil
}
