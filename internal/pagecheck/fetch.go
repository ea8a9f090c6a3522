// Package pagecheck inspects page markup and redirect behavior for phishing
// tricks: status-bar spoofing, long redirect chains and forms that post
// credentials to another origin.
package pagecheck

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// Page is a fetched document.
type Page struct {
	URL      string
	FinalURL string
	Status   int
	HTML     string
	// Hops is the number of redirects followed to reach FinalURL.
	Hops int
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

const (
	defaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultMaxRedirects = 10
	defaultMaxBody      = 2 << 20
)

type hopsKey struct{}

// HTTPFetcher downloads pages with net/http, counting redirect hops and
// converting the body to UTF-8.
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	maxRedirects int
	maxBody      int64
}

type FetchOption func(*HTTPFetcher)

func WithTimeout(d time.Duration) FetchOption {
	return func(f *HTTPFetcher) { f.client.Timeout = d }
}

func WithMaxRedirects(n int) FetchOption {
	return func(f *HTTPFetcher) { f.maxRedirects = n }
}

func WithMaxBody(n int64) FetchOption {
	return func(f *HTTPFetcher) { f.maxBody = n }
}

func WithUserAgent(ua string) FetchOption {
	return func(f *HTTPFetcher) { f.userAgent = ua }
}

// WithTransport swaps the round tripper, e.g. for httptest servers.
func WithTransport(rt http.RoundTripper) FetchOption {
	return func(f *HTTPFetcher) { f.client.Transport = rt }
}

func NewHTTPFetcher(opts ...FetchOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:       &http.Client{Timeout: 10 * time.Second},
		userAgent:    defaultUserAgent,
		maxRedirects: defaultMaxRedirects,
		maxBody:      defaultMaxBody,
	}
	for _, o := range opts {
		o(f)
	}
	f.client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if hops, ok := req.Context().Value(hopsKey{}).(*int); ok {
			*hops = len(via)
		}
		if len(via) >= f.maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}
	return f
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	hops := 0
	ctx = context.WithValue(ctx, hopsKey{}, &hops)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil && len(body) == 0 {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Page{
		URL:      url,
		FinalURL: resp.Request.URL.String(),
		Status:   resp.StatusCode,
		HTML:     string(toUTF8(body, resp.Header.Get("Content-Type"))),
		Hops:     hops,
	}, nil
}

// toUTF8 decodes body using the charset from the Content-Type header, or
// sniffs it from the document when the header has none.
func toUTF8(body []byte, contentType string) []byte {
	var enc encoding.Encoding

	if _, params, err := mime.ParseMediaType(contentType); err == nil && params["charset"] != "" {
		if e, err := htmlindex.Get(params["charset"]); err == nil {
			enc = e
		}
	}
	if enc == nil {
		enc, _, _ = charset.DetermineEncoding(body, contentType)
	}

	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return body
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return body
	}
	return bytes.ToValidUTF8(decoded, []byte("�"))
}

// FallbackFetcher tries Primary and falls back to Secondary on error.
type FallbackFetcher struct {
	Primary   Fetcher
	Secondary Fetcher
}

func (f FallbackFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	p, err := f.Primary.Fetch(ctx, url)
	if err == nil {
		return p, nil
	}
	p, err2 := f.Secondary.Fetch(ctx, url)
	if err2 != nil {
		return nil, fmt.Errorf("primary: %w; fallback: %w", err, err2)
	}
	return p, nil
}
