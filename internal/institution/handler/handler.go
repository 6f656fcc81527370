package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service,AccountSource

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"credentia/internal/chain"
	"credentia/internal/institution"
	dErrors "credentia/pkg/domain-errors"
	"credentia/pkg/platform/httputil"
	"credentia/pkg/requestcontext"
)

type Service interface {
	List(ctx context.Context) ([]institution.Institution, error)
	Get(ctx context.Context, addr, viewer common.Address) (*institution.Detail, error)
	Role(ctx context.Context, inst, account common.Address) (string, error)
	Create(ctx context.Context, from common.Address, req chain.CreateInstitutionRequest) (*chain.CreateResult, error)
	Award(ctx context.Context, from, inst, recipient common.Address, metadataURI string) (*chain.MintResult, error)
}

// AccountSource yields the wallet account that signs writes.
type AccountSource interface {
	Account() common.Address
}

type Handler struct {
	service  Service
	accounts AccountSource
	logger   *slog.Logger
}

func New(service Service, accounts AccountSource, logger *slog.Logger) *Handler {
	return &Handler{service: service, accounts: accounts, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/institutions", h.HandleList)
	r.Get("/institutions/{address}", h.HandleGet)
	r.Get("/institutions/{address}/roles/{account}", h.HandleRole)
}

// RegisterCreate and RegisterAward mount the write routes. They are split so
// the router can require a different operator scope for each.
func (h *Handler) RegisterCreate(r chi.Router) {
	r.Post("/institutions", h.HandleCreate)
}

func (h *Handler) RegisterAward(r chi.Router) {
	r.Post("/institutions/{address}/diplomas", h.HandleAward)
}

type InstitutionResponse struct {
	Address     string  `json:"address"`
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	LogoURL     string  `json:"logoUrl"`
	MintedCount *uint64 `json:"mintedCount,omitempty"`
}

type DetailResponse struct {
	InstitutionResponse
	Viewer   string `json:"viewer,omitempty"`
	Role     string `json:"role"`
	CanAward bool   `json:"canAward"`
}

type RoleResponse struct {
	Institution string `json:"institution"`
	Account     string `json:"account"`
	Role        string `json:"role"`
	CanAward    bool   `json:"canAward"`
}

type CreateResponse struct {
	TxHash      string  `json:"txHash"`
	Institution *string `json:"institution"`
}

type AwardResponse struct {
	TxHash  string  `json:"txHash"`
	TokenID *string `json:"tokenId"`
}

// CreateRequest is the body of POST /institutions.
type CreateRequest struct {
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	LogoURL    string `json:"logoUrl"`
	Rector     string `json:"rector"`
	Secretaria string `json:"secretaria"`
}

func (r *CreateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Symbol = strings.TrimSpace(r.Symbol)
	r.LogoURL = strings.TrimSpace(r.LogoURL)
	r.Rector = strings.TrimSpace(r.Rector)
	r.Secretaria = strings.TrimSpace(r.Secretaria)
}

func (r *CreateRequest) Validate() error {
	if r.Name == "" || r.Symbol == "" {
		return dErrors.New(dErrors.CodeValidation, "name and symbol are required")
	}
	if _, err := chain.ParseAddress(r.Rector, "rector"); err != nil {
		return err
	}
	if _, err := chain.ParseAddress(r.Secretaria, "secretaria"); err != nil {
		return err
	}
	return nil
}

func (r *CreateRequest) toChain() chain.CreateInstitutionRequest {
	return chain.CreateInstitutionRequest{
		Name:       r.Name,
		Symbol:     r.Symbol,
		LogoURL:    r.LogoURL,
		Rector:     common.HexToAddress(r.Rector),
		Secretaria: common.HexToAddress(r.Secretaria),
	}
}

// AwardRequest is the body of POST /institutions/{address}/diplomas.
type AwardRequest struct {
	Recipient   string `json:"recipient"`
	MetadataURI string `json:"metadataUri"`
}

func (r *AwardRequest) Normalize() {
	r.Recipient = strings.TrimSpace(r.Recipient)
	r.MetadataURI = strings.TrimSpace(r.MetadataURI)
}

func (r *AwardRequest) Validate() error {
	if _, err := chain.ParseAddress(r.Recipient, "recipient"); err != nil {
		return err
	}
	if r.MetadataURI == "" {
		return dErrors.New(dErrors.CodeValidation, "metadataUri is required")
	}
	return nil
}

func toInstitutionResponse(i institution.Institution) InstitutionResponse {
	return InstitutionResponse{
		Address:     i.Address.Hex(),
		Name:        i.Name,
		Symbol:      i.Symbol,
		LogoURL:     i.LogoURL,
		MintedCount: i.MintedCount,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list institutions failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	resp := make([]InstitutionResponse, 0, len(list))
	for _, i := range list {
		resp = append(resp, toInstitutionResponse(i))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet describes an institution for ?viewer=, defaulting to the
// connected wallet account.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, err := chain.ParseAddress(chi.URLParam(r, "address"), "address")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	viewer := h.accounts.Account()
	if raw := r.URL.Query().Get("viewer"); raw != "" {
		if viewer, err = chain.ParseAddress(raw, "viewer"); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	detail, err := h.service.Get(ctx, addr, viewer)
	if err != nil {
		h.logger.ErrorContext(ctx, "get institution failed",
			"institution", addr.Hex(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	resp := &DetailResponse{
		InstitutionResponse: toInstitutionResponse(detail.Institution),
		Role:                detail.Role,
		CanAward:            detail.CanAward,
	}
	if detail.Viewer != (common.Address{}) {
		resp.Viewer = detail.Viewer.Hex()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	inst, err := chain.ParseAddress(chi.URLParam(r, "address"), "address")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	account, err := chain.ParseAddress(chi.URLParam(r, "account"), "account")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	role, err := h.service.Role(ctx, inst, account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &RoleResponse{
		Institution: inst.Hex(),
		Account:     account.Hex(),
		Role:        role,
		CanAward:    chain.CanAward(role),
	})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger)
	if !ok {
		return
	}

	res, err := h.service.Create(ctx, h.accounts.Account(), req.toChain())
	if err != nil {
		h.logger.WarnContext(ctx, "create institution failed",
			"error", err,
			"operator", requestcontext.Operator(ctx),
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	resp := &CreateResponse{TxHash: res.TxHash.Hex()}
	if res.Institution != nil {
		addr := res.Institution.Hex()
		resp.Institution = &addr
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) HandleAward(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	inst, err := chain.ParseAddress(chi.URLParam(r, "address"), "address")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[AwardRequest](w, r, h.logger)
	if !ok {
		return
	}

	res, err := h.service.Award(ctx, h.accounts.Account(), inst, common.HexToAddress(req.Recipient), req.MetadataURI)
	if err != nil {
		h.logger.WarnContext(ctx, "award diploma failed",
			"institution", inst.Hex(),
			"error", err,
			"operator", requestcontext.Operator(ctx),
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	resp := &AwardResponse{TxHash: res.TxHash.Hex()}
	if res.TokenID != nil {
		id := res.TokenID.String()
		resp.TokenID = &id
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}
