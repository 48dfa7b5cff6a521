package keyset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

// DefaultMaxBodySize caps the key set documents HTTPFetcher reads.
const DefaultMaxBodySize = 1 << 20

// ErrBodyTooLarge is returned by HTTPFetcher when a response body exceeds
// its MaxBodySize.
var ErrBodyTooLarge = errors.New("keyset: key set too large")

// Response is what a Fetcher returns for one GET.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Fetcher issues "GET uri" with the given extra request headers.
// The Cache only ever sends If-None-Match. Implementations must honor
// ctx cancellation.
type Fetcher interface {
	Fetch(ctx context.Context, uri string, header http.Header) (*Response, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, uri string, header http.Header) (*Response, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, uri string, header http.Header) (*Response, error) {
	return f(ctx, uri, header)
}

// HTTPFetcher is the net/http Fetcher.
//
// The client is taken from the context first (oauth2.HTTPClient, the way
// golang.org/x/oauth2 callers already inject one), then Client, then
// http.DefaultClient.
type HTTPFetcher struct {
	Client      *http.Client
	MaxBodySize int64
}

var _ Fetcher = (*HTTPFetcher)(nil)

func (f *HTTPFetcher) client(ctx context.Context) *http.Client {
	if hc, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok {
		return hc
	}
	if f != nil && f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, uri string, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client(ctx).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	limit := int64(DefaultMaxBodySize)
	if f != nil && f.MaxBodySize > 0 {
		limit = f.MaxBodySize
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: %s: more than %d bytes", ErrBodyTooLarge, uri, limit)
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}
