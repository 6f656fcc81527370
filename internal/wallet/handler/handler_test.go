package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"credentia/internal/wallet/handler/mocks"
	dErrors "credentia/pkg/domain-errors"
)

var operatorAccount = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

type HandlerSuite struct {
	suite.Suite
	router      http.Handler
	ctrl        *gomock.Controller
	mockService *mocks.MockService
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockService(s.ctrl)
	h := New(s.mockService, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	r := chi.NewRouter()
	h.Register(r)
	h.RegisterProtected(r)
	s.router = r
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) do(method, path string) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func (s *HandlerSuite) TestAccount() {
	s.Run("connected", func() {
		s.mockService.EXPECT().CurrentAccount(gomock.Any()).Return(operatorAccount, nil)
		rec, body := s.do(http.MethodGet, "/wallet/account")
		s.Equal(http.StatusOK, rec.Code)
		s.Equal(operatorAccount.Hex(), body["account"])
		s.Equal(true, body["connected"])
	})

	s.Run("none granted", func() {
		s.mockService.EXPECT().CurrentAccount(gomock.Any()).Return(common.Address{}, nil)
		_, body := s.do(http.MethodGet, "/wallet/account")
		s.Equal(false, body["connected"])
		s.Equal("", body["account"])
	})
}

func (s *HandlerSuite) TestConnect() {
	s.Run("success", func() {
		s.mockService.EXPECT().Connect(gomock.Any()).Return(operatorAccount, nil)
		rec, body := s.do(http.MethodPost, "/wallet/connect")
		s.Equal(http.StatusOK, rec.Code)
		s.Equal(operatorAccount.Hex(), body["account"])
	})

	s.Run("user rejected", func() {
		s.mockService.EXPECT().Connect(gomock.Any()).
			Return(common.Address{}, dErrors.New(dErrors.CodeUserRejected, "rejected by wallet owner"))
		rec, body := s.do(http.MethodPost, "/wallet/connect")
		s.Equal(http.StatusForbidden, rec.Code)
		s.Equal("user_rejected", body["error"])
	})

	s.Run("no provider", func() {
		s.mockService.EXPECT().Connect(gomock.Any()).
			Return(common.Address{}, dErrors.New(dErrors.CodeProviderUnavailable, "no wallet provider available"))
		rec, _ := s.do(http.MethodPost, "/wallet/connect")
		s.Equal(http.StatusServiceUnavailable, rec.Code)
	})
}

func (s *HandlerSuite) TestSwitchAndDisconnect() {
	other := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	s.mockService.EXPECT().SwitchAccount(gomock.Any()).Return(other, nil)
	_, body := s.do(http.MethodPost, "/wallet/switch")
	s.Equal(other.Hex(), body["account"])

	s.mockService.EXPECT().Disconnect()
	rec, body := s.do(http.MethodPost, "/wallet/disconnect")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(false, body["connected"])
}
