package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"credentia/pkg/requestcontext"
)

type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateToken(tokenString string) (*Claims, error) {
	args := m.Called(tokenString)
	if claims := args.Get(0); claims != nil {
		return claims.(*Claims), args.Error(1)
	}
	return nil, args.Error(1)
}

type captureHandler struct {
	called bool
	ctx    context.Context
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

type AuthMiddlewareSuite struct {
	suite.Suite
	validator *MockTokenValidator
	logger    *slog.Logger
	next      *captureHandler
}

func TestAuthMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareSuite))
}

func (s *AuthMiddlewareSuite) SetupTest() {
	s.validator = new(MockTokenValidator)
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.next = &captureHandler{}
}

func (s *AuthMiddlewareSuite) serve(header string, chain http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/diplomas", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	chain.ServeHTTP(w, req)
	return w
}

func (s *AuthMiddlewareSuite) TestRequireOperator() {
	s.Run("missing header", func() {
		w := s.serve("", RequireOperator(s.validator, s.logger)(s.next))
		s.Equal(http.StatusUnauthorized, w.Code)
		s.False(s.next.called)
	})

	s.Run("invalid token", func() {
		s.validator.On("ValidateToken", "bad").Return(nil, errors.New("invalid token")).Once()
		w := s.serve("Bearer bad", RequireOperator(s.validator, s.logger)(s.next))
		s.Equal(http.StatusUnauthorized, w.Code)
		s.Contains(w.Body.String(), "Invalid or expired token")
	})

	s.Run("valid token populates context", func() {
		s.validator.On("ValidateToken", "good").
			Return(&Claims{Operator: "registrar", Scopes: []string{"diplomas:write"}}, nil).Once()
		w := s.serve("Bearer good", RequireOperator(s.validator, s.logger)(s.next))
		s.Equal(http.StatusOK, w.Code)
		s.Require().True(s.next.called)
		s.Equal("registrar", requestcontext.Operator(s.next.ctx))
		s.Equal([]string{"diplomas:write"}, requestcontext.Scopes(s.next.ctx))
	})

	s.validator.AssertExpectations(s.T())
}

func (s *AuthMiddlewareSuite) TestRequireScope() {
	s.validator.On("ValidateToken", "good").
		Return(&Claims{Operator: "registrar", Scopes: []string{"wallet:write"}}, nil)

	s.Run("missing scope is forbidden", func() {
		chain := RequireOperator(s.validator, s.logger)(RequireScope("diplomas:write", s.logger)(s.next))
		w := s.serve("Bearer good", chain)
		s.Equal(http.StatusForbidden, w.Code)
		s.False(s.next.called)
	})

	s.Run("granted scope passes", func() {
		chain := RequireOperator(s.validator, s.logger)(RequireScope("wallet:write", s.logger)(s.next))
		w := s.serve("Bearer good", chain)
		s.Equal(http.StatusOK, w.Code)
		s.True(s.next.called)
	})
}
