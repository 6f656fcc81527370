package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "credentia/pkg/domain-errors"
	"credentia/pkg/requestcontext"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent, so an encoding failure cannot change the status.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		response := map[string]string{
			"error": DomainCodeToHTTPCode(domainErr.Code),
		}
		if domainErr.Message != "" {
			response["error_description"] = domainErr.Message
		}
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), response)
		return
	}

	WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error": DomainCodeToHTTPCode(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound, dErrors.CodeTokenNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden, dErrors.CodeUserRejected:
		return http.StatusForbidden
	case dErrors.CodeTransactionRejected, dErrors.CodeTransactionReverted:
		return http.StatusUnprocessableEntity
	case dErrors.CodeContractRead, dErrors.CodeMetadataUnreachable, dErrors.CodeMetadataMalformed:
		return http.StatusBadGateway
	case dErrors.CodeProviderUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the JSON "error" field.
// Chain and wallet codes pass through unchanged so clients can branch on them.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeValidation:
		return "validation_error"
	case dErrors.CodeTimeout:
		return "chain_timeout"
	case dErrors.CodeNotFound,
		dErrors.CodeUnauthorized,
		dErrors.CodeForbidden,
		dErrors.CodeProviderUnavailable,
		dErrors.CodeUserRejected,
		dErrors.CodeTransactionRejected,
		dErrors.CodeTransactionReverted,
		dErrors.CodeContractRead,
		dErrors.CodeTokenNotFound,
		dErrors.CodeMetadataUnreachable,
		dErrors.CodeMetadataMalformed:
		return string(code)
	default:
		return "internal_error"
	}
}

// RequireOperator extracts the authenticated operator subject from context.
func RequireOperator(ctx context.Context, logger *slog.Logger) (string, error) {
	operator := requestcontext.Operator(ctx)
	if operator == "" {
		if logger != nil {
			logger.ErrorContext(ctx, "operator missing from context despite auth middleware",
				"request_id", requestcontext.RequestID(ctx))
		}
		return "", dErrors.New(dErrors.CodeUnauthorized, "operator token required")
	}
	return operator, nil
}
