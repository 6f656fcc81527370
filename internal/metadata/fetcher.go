package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	dErrors "credentia/pkg/domain-errors"
)

const (
	// MaxDocumentBytes caps a metadata response body.
	MaxDocumentBytes = 1 << 20

	defaultFetchTimeout = 10 * time.Second
)

// HTTPDoer is the part of *http.Client the fetcher uses.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher retrieves metadata documents over HTTP.
type Fetcher struct {
	client  HTTPDoer
	timeout time.Duration
}

// NewFetcher returns a Fetcher. A nil client gets a default *http.Client;
// timeout bounds each fetch (zero means ten seconds).
func NewFetcher(client HTTPDoer, timeout time.Duration) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Fetcher{client: client, timeout: timeout}
}

// Fetch GETs url and decodes the document. Network errors and non-2xx
// responses are MetadataUnreachable; an undecodable or oversized body is
// MetadataMalformed.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeMetadataUnreachable, "invalid metadata url")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, dErrors.Wrap(err, dErrors.CodeMetadataUnreachable, "metadata fetch timed out")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeMetadataUnreachable, "metadata fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, dErrors.New(dErrors.CodeMetadataUnreachable, fmt.Sprintf("metadata fetch returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentBytes+1))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeMetadataUnreachable, "reading metadata body")
	}
	if len(body) > MaxDocumentBytes {
		return nil, dErrors.New(dErrors.CodeMetadataMalformed, "metadata document exceeds 1 MiB")
	}

	var doc *Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeMetadataMalformed, "metadata is not a valid document")
	}
	if doc == nil {
		return nil, dErrors.New(dErrors.CodeMetadataMalformed, "metadata document is null")
	}
	return doc, nil
}
