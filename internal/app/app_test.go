package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dmitrijs2005/phishguard/internal/config"
	"github.com/dmitrijs2005/phishguard/internal/lexical"
	"github.com/dmitrijs2005/phishguard/internal/models"
	"github.com/dmitrijs2005/phishguard/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(apiURL string) *config.Config {
	var c config.Config
	c.LoadDefaults()
	c.APIBaseURL = apiURL
	c.StoreDSN = ":memory:"
	c.Tier = "plus"
	c.ReportEnabled = false
	c.OracleRate = 0
	return &c
}

func TestNewApp_ScanEndToEnd(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/api/whois":
			fmt.Fprint(w, `{"WhoisRecord":{"createdDate":"2001-01-01"}}`)
		case "/api/whitelist/check":
			fmt.Fprint(w, `{"response":false}`)
		case "/api/phishing/check":
			fmt.Fprint(w, `{"response":[{"source":"OpenPhish","details":"listed","isPhishing":true}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer api.Close()

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>claim your prize</p></body></html>`)
	}))
	defer site.Close()

	var seen []scanner.EventKind
	a, err := NewApp(context.Background(), testConfig(api.URL),
		WithLogOutput(io.Discard),
		WithNotifier(scanner.NotifyFunc(func(_ context.Context, e scanner.Event) { seen = append(seen, e.Kind) })),
	)
	require.NoError(t, err)
	defer a.Close()

	out, err := a.Scanner().Scan(context.Background(), site.URL+"/claim")
	require.NoError(t, err)

	assert.Equal(t, models.VerdictMalicious, out.Verdict)
	assert.Contains(t, out.Warnings, lexical.WarnRawIP)
	assert.Contains(t, out.Warnings, models.Warning("⚠️ OpenPhish: listed"))

	mu.Lock()
	assert.Contains(t, paths, "/api/whois")
	assert.Contains(t, paths, "/api/whitelist/check")
	assert.Contains(t, paths, "/api/phishing/check")
	mu.Unlock()

	assert.Equal(t, []scanner.EventKind{scanner.EventScanning, scanner.EventWarning, scanner.EventVerdict}, seen)
	assert.Len(t, a.Events().Drain(), 3)

	n, err := a.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, a.Wipe(context.Background()))
	data, err := a.Scanner().History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, data.RecentScans)
	assert.Empty(t, data.CurrentSite.URL)
}

func TestNewApp_RejectsInvalidConfig(t *testing.T) {
	c := testConfig("http://127.0.0.1:1")
	c.Tier = "gold"
	_, err := NewApp(context.Background(), c, WithLogOutput(io.Discard))
	assert.Error(t, err)

	c = testConfig("http://127.0.0.1:1")
	c.TrustedFile = "/does/not/exist.txt"
	_, err = NewApp(context.Background(), c, WithLogOutput(io.Discard))
	assert.Error(t, err)
}
