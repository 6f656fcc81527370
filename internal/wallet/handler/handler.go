package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"credentia/pkg/platform/httputil"
	"credentia/pkg/requestcontext"
)

// Service is the wallet session as seen by HTTP.
type Service interface {
	Connect(ctx context.Context) (common.Address, error)
	SwitchAccount(ctx context.Context) (common.Address, error)
	CurrentAccount(ctx context.Context) (common.Address, error)
	Disconnect()
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the read-only route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/wallet/account", h.HandleAccount)
}

// RegisterProtected mounts routes that change the session; the caller wraps
// r with operator auth.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/wallet/connect", h.HandleConnect)
	r.Post("/wallet/switch", h.HandleSwitch)
	r.Post("/wallet/disconnect", h.HandleDisconnect)
}

type AccountResponse struct {
	Account   string `json:"account"`
	Connected bool   `json:"connected"`
}

func toAccountResponse(account common.Address) *AccountResponse {
	if account == (common.Address{}) {
		return &AccountResponse{}
	}
	return &AccountResponse{Account: account.Hex(), Connected: true}
}

// HandleAccount reports the authorized account without prompting the wallet.
func (h *Handler) HandleAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := h.service.CurrentAccount(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "read current account failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	h.prompt(w, r, "connect", h.service.Connect)
}

func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	h.prompt(w, r, "switch", h.service.SwitchAccount)
}

func (h *Handler) prompt(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context) (common.Address, error)) {
	ctx := r.Context()
	account, err := fn(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "wallet "+op+" failed",
			"error", err,
			"operator", requestcontext.Operator(ctx),
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.service.Disconnect()
	h.logger.InfoContext(ctx, "wallet disconnected",
		"operator", requestcontext.Operator(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, &AccountResponse{})
}
