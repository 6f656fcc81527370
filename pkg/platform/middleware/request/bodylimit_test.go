package request

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBodyLimit(t *testing.T) {
	var readErr error
	var n int
	handler := BodyLimit(64)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		n, readErr = len(data), err
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("under limit", func(t *testing.T) {
		handler.ServeHTTP(httptest.NewRecorder(),
			httptest.NewRequest(http.MethodPost, "/diplomas", strings.NewReader(strings.Repeat("x", 64))))
		assert.NoError(t, readErr)
		assert.Equal(t, 64, n)
	})

	t.Run("over limit", func(t *testing.T) {
		handler.ServeHTTP(httptest.NewRecorder(),
			httptest.NewRequest(http.MethodPost, "/diplomas", strings.NewReader(strings.Repeat("x", 65))))
		var tooLarge *http.MaxBytesError
		assert.True(t, errors.As(readErr, &tooLarge))
	})
}
