package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"credentia/internal/chain"
	"credentia/internal/diploma"
	dErrors "credentia/pkg/domain-errors"
	"credentia/pkg/platform/httputil"
	"credentia/pkg/requestcontext"
)

// Service lists and verifies diplomas.
type Service interface {
	List(ctx context.Context, inst common.Address) ([]diploma.Diploma, error)
	Verify(ctx context.Context, inst common.Address, tokenID uint64) *diploma.Verification
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/institutions/{address}/diplomas", h.HandleList)
	r.Get("/institutions/{address}/diplomas/{tokenId}/verify", h.HandleVerify)
	r.Post("/verify", h.HandleVerifyBody)
}

type MetadataResponse struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	ExternalURL string  `json:"externalUrl,omitempty"`
	Institution *string `json:"institution,omitempty"`
	StudentName *string `json:"studentName,omitempty"`
	StartDate   *string `json:"startDate,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`
	Programme   *string `json:"programme,omitempty"`
}

type DiplomaResponse struct {
	TokenID     uint64           `json:"tokenId"`
	Owner       string           `json:"owner"`
	MetadataURI string           `json:"metadataUri"`
	MetadataURL string           `json:"metadataUrl"`
	Metadata    MetadataResponse `json:"metadata"`
}

type ListResponse struct {
	Institution string            `json:"institution"`
	Total       int               `json:"total"`
	Diplomas    []DiplomaResponse `json:"diplomas"`
}

type ExplorerLinkResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type VerificationResponse struct {
	Valid           bool                   `json:"valid"`
	Reason          string                 `json:"reason,omitempty"`
	Institution     string                 `json:"institution"`
	TokenID         uint64                 `json:"tokenId"`
	Owner           string                 `json:"owner,omitempty"`
	InstitutionName string                 `json:"institutionName,omitempty"`
	TokenURI        string                 `json:"tokenUri,omitempty"`
	MetadataURL     string                 `json:"metadataUrl,omitempty"`
	Metadata        *MetadataResponse      `json:"metadata,omitempty"`
	MetadataError   string                 `json:"metadataError,omitempty"`
	ExplorerLinks   []ExplorerLinkResponse `json:"explorerLinks"`
}

// VerifyRequest is the body of POST /verify.
type VerifyRequest struct {
	Institution string `json:"institution"`
	TokenID     uint64 `json:"tokenId"`
}

func (r *VerifyRequest) Normalize() {
	r.Institution = strings.TrimSpace(r.Institution)
}

func (r *VerifyRequest) Validate() error {
	if r.Institution == "" {
		return dErrors.New(dErrors.CodeValidation, "institution is required")
	}
	if _, err := chain.ParseAddress(r.Institution, "institution"); err != nil {
		return err
	}
	return nil
}

func toMetadataResponse(m diploma.Metadata) MetadataResponse {
	return MetadataResponse{
		Name:        m.Name,
		Description: m.Description,
		Image:       m.Image,
		ExternalURL: m.ExternalURL,
		Institution: m.Institution,
		StudentName: m.StudentName,
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
		Programme:   m.Programme,
	}
}

func toVerificationResponse(v *diploma.Verification) *VerificationResponse {
	resp := &VerificationResponse{
		Valid:           v.Valid,
		Reason:          v.Reason,
		Institution:     v.Institution.Hex(),
		TokenID:         v.TokenID,
		InstitutionName: v.InstitutionName,
		TokenURI:        v.TokenURI,
		MetadataURL:     v.MetadataURL,
		MetadataError:   v.MetadataError,
		ExplorerLinks:   make([]ExplorerLinkResponse, 0, len(v.ExplorerLinks)),
	}
	if v.Owner != nil {
		resp.Owner = v.Owner.Hex()
	}
	if v.Metadata != nil {
		md := toMetadataResponse(*v.Metadata)
		resp.Metadata = &md
	}
	for _, l := range v.ExplorerLinks {
		resp.ExplorerLinks = append(resp.ExplorerLinks, ExplorerLinkResponse{Name: l.Name, URL: l.URL})
	}
	return resp
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	inst, err := chain.ParseAddress(chi.URLParam(r, "address"), "address")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	list, err := h.service.List(ctx, inst)
	if err != nil {
		h.logger.ErrorContext(ctx, "list diplomas failed",
			"institution", inst.Hex(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	resp := &ListResponse{
		Institution: inst.Hex(),
		Total:       len(list),
		Diplomas:    make([]DiplomaResponse, 0, len(list)),
	}
	for _, d := range list {
		resp.Diplomas = append(resp.Diplomas, DiplomaResponse{
			TokenID:     d.TokenID,
			Owner:       d.Owner.Hex(),
			MetadataURI: d.MetadataURI,
			MetadataURL: d.MetadataURL,
			Metadata:    toMetadataResponse(d.Metadata),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	inst, err := chain.ParseAddress(chi.URLParam(r, "address"), "address")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tokenID, err := strconv.ParseUint(chi.URLParam(r, "tokenId"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "tokenId must be a non-negative integer"))
		return
	}
	h.verify(w, r, inst, tokenID)
}

func (h *Handler) HandleVerifyBody(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger)
	if !ok {
		return
	}
	h.verify(w, r, common.HexToAddress(req.Institution), req.TokenID)
}

// verify always answers 200: an invalid diploma is a result, not an error.
func (h *Handler) verify(w http.ResponseWriter, r *http.Request, inst common.Address, tokenID uint64) {
	ctx := r.Context()
	v := h.service.Verify(ctx, inst, tokenID)
	h.logger.InfoContext(ctx, "diploma verified",
		"institution", inst.Hex(),
		"token_id", tokenID,
		"valid", v.Valid,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, toVerificationResponse(v))
}
