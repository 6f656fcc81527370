package metadata_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credentia/internal/metadata"
	dErrors "credentia/pkg/domain-errors"
)

type failingDoer struct{ err error }

func (d failingDoer) Do(*http.Request) (*http.Response, error) { return nil, d.err }

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.json":
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			_, _ = w.Write([]byte(diplomaJSON))
		case "/broken.json":
			_, _ = w.Write([]byte(`{"name": `))
		case "/null.json":
			_, _ = w.Write([]byte(" null\n"))
		case "/huge.json":
			_, _ = w.Write([]byte(`{"description":"` + strings.Repeat("a", metadata.MaxDocumentBytes) + `"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	fetcher := metadata.NewFetcher(srv.Client(), time.Second)
	ctx := context.Background()

	t.Run("valid document", func(t *testing.T) {
		doc, err := fetcher.Fetch(ctx, srv.URL+"/ok.json")
		require.NoError(t, err)
		assert.Equal(t, "Grado en Ingenieria Informatica", doc.Name)
		assert.Equal(t, "https://uni.example/d/1", doc.ExternalURL)
	})

	t.Run("non-2xx is unreachable", func(t *testing.T) {
		_, err := fetcher.Fetch(ctx, srv.URL+"/missing.json")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMetadataUnreachable))
	})

	t.Run("invalid json is malformed", func(t *testing.T) {
		_, err := fetcher.Fetch(ctx, srv.URL+"/broken.json")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMetadataMalformed))
	})

	t.Run("null body is malformed", func(t *testing.T) {
		doc, err := fetcher.Fetch(ctx, srv.URL+"/null.json")
		assert.Nil(t, doc)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMetadataMalformed))
	})

	t.Run("oversized body is malformed", func(t *testing.T) {
		_, err := fetcher.Fetch(ctx, srv.URL+"/huge.json")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMetadataMalformed))
	})
}

func TestFetchNetworkError(t *testing.T) {
	fetcher := metadata.NewFetcher(failingDoer{err: errors.New("dial tcp: connection refused")}, time.Second)

	_, err := fetcher.Fetch(context.Background(), "https://gateway.invalid/ipfs/Qm1")

	assert.True(t, dErrors.HasCode(err, dErrors.CodeMetadataUnreachable))
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	fetcher := metadata.NewFetcher(srv.Client(), 20*time.Millisecond)
	_, err := fetcher.Fetch(context.Background(), srv.URL)

	assert.True(t, dErrors.HasCode(err, dErrors.CodeMetadataUnreachable))
}
