package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/phishguard/internal/common"
	"github.com/dmitrijs2005/phishguard/internal/logging"
	"github.com/dmitrijs2005/phishguard/internal/models"
	"github.com/dmitrijs2005/phishguard/internal/policy"
	"github.com/dmitrijs2005/phishguard/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScanner struct {
	scanErr   error
	linksErr  error
	historyOK bool
	accepted  []string
	resets    int
}

func (f *fakeScanner) Scan(_ context.Context, u string) (models.Outcome, error) {
	if f.scanErr != nil {
		if errors.Is(f.scanErr, common.ErrQuotaExceeded) {
			return models.Outcome{URL: u, Reason: models.ReasonQuotaExceeded, Message: common.UpgradeMessage}, f.scanErr
		}
		return models.Outcome{}, f.scanErr
	}
	return models.Outcome{URL: u, Verdict: models.VerdictMalicious, Reason: models.ReasonFlagged, Warnings: []models.Warning{"bad"}}, nil
}

func (f *fakeScanner) ScanLinks(_ context.Context, req scanner.LinkRequest) ([]models.LinkVerdict, error) {
	if f.linksErr != nil {
		return nil, f.linksErr
	}
	var out []models.LinkVerdict
	for _, l := range scanner.ExtractLinks(req.Text) {
		out = append(out, models.LinkVerdict{URL: l})
	}
	return out, nil
}

func (f *fakeScanner) AcceptRisk(_ context.Context, u string) error {
	if u == "" {
		return common.ErrInvalidURL
	}
	f.accepted = append(f.accepted, u)
	return nil
}

func (f *fakeScanner) History(context.Context) (models.ScanData, error) {
	if !f.historyOK {
		return models.ScanData{}, fmt.Errorf("scanHistory: %w", common.ErrFeatureNotAllowed)
	}
	return models.ScanData{SuspiciousSites: []string{"evil.example"}}, nil
}

func (f *fakeScanner) Quota(context.Context) (int, int, error) { return 7, 200, nil }

func (f *fakeScanner) ResetQuota(context.Context) error {
	f.resets++
	return nil
}

func (f *fakeScanner) Features() []policy.Feature {
	return []policy.Feature{policy.FeatureSecurityChecks, policy.FeatureScanHistory}
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, s *fakeScanner, events *scanner.ChanNotifier) *httptest.Server {
	t.Helper()
	if events == nil {
		events = scanner.NewChanNotifier(8)
	}
	srv := httptest.NewServer(NewHandler(s, events, nil, logging.Nop()).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeScanner{}, nil)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	tests := []struct {
		name string
		ping error
		want int
	}{
		{"store up", nil, http.StatusOK},
		{"store down", errors.New("database is closed"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeScanner{}, scanner.NewChanNotifier(1), fakePinger{err: tt.ping}, logging.Nop())
			srv := httptest.NewServer(h.Routes())
			defer srv.Close()

			resp, err := http.Get(srv.URL + "/healthz")
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestFeatures(t *testing.T) {
	srv := newTestServer(t, &fakeScanner{}, nil)
	resp, err := http.Get(srv.URL + "/v1/features")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Features []policy.Feature `json:"features"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []policy.Feature{policy.FeatureSecurityChecks, policy.FeatureScanHistory}, body.Features)
}

func TestScan(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		srv := newTestServer(t, &fakeScanner{}, nil)
		resp := post(t, srv.URL+"/v1/scans", `{"url":"http://192.168.1.5/login"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out models.Outcome
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, models.VerdictMalicious, out.Verdict)
		assert.Equal(t, []models.Warning{"bad"}, out.Warnings)
	})

	t.Run("quota", func(t *testing.T) {
		srv := newTestServer(t, &fakeScanner{scanErr: common.ErrQuotaExceeded}, nil)
		resp := post(t, srv.URL+"/v1/scans", `{"url":"https://a.example"}`)
		require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)

		var out models.Outcome
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, common.UpgradeMessage, out.Message)
	})

	t.Run("invalid url", func(t *testing.T) {
		srv := newTestServer(t, &fakeScanner{scanErr: common.ErrInvalidURL}, nil)
		resp := post(t, srv.URL+"/v1/scans", `{"url":""}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("bad body", func(t *testing.T) {
		srv := newTestServer(t, &fakeScanner{}, nil)
		resp := post(t, srv.URL+"/v1/scans", `{not json`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("internal error is not leaked", func(t *testing.T) {
		srv := newTestServer(t, &fakeScanner{scanErr: errors.New("db password is hunter2")}, nil)
		resp := post(t, srv.URL+"/v1/scans", `{"url":"https://a.example"}`)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

		var body errorBody
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "internal error", body.Error)
	})
}

func TestLinks(t *testing.T) {
	srv := newTestServer(t, &fakeScanner{}, nil)
	resp := post(t, srv.URL+"/v1/links", `{"source":"email","text":"see https://a.example and https://b.example."}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Links []models.LinkVerdict `json:"links"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Links, 2)
	assert.Equal(t, "https://b.example", body.Links[1].URL)

	denied := newTestServer(t, &fakeScanner{linksErr: common.ErrFeatureNotAllowed}, nil)
	resp = post(t, denied.URL+"/v1/links", `{"source":"feed","text":""}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	unknown := newTestServer(t, &fakeScanner{linksErr: fmt.Errorf("%w: unknown link source \"sms\"", common.ErrInvalidRequest)}, nil)
	resp = post(t, unknown.URL+"/v1/links", `{"source":"sms","text":"https://a.example"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAcceptedRisksAndQuota(t *testing.T) {
	fs := &fakeScanner{}
	srv := newTestServer(t, fs, nil)

	resp := post(t, srv.URL+"/v1/accepted-risks", `{"url":"https://evil.example"}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{"https://evil.example"}, fs.accepted)

	resp = post(t, srv.URL+"/v1/quota/reset", ``)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 1, fs.resets)

	r, err := http.Get(srv.URL + "/v1/quota")
	require.NoError(t, err)
	defer r.Body.Close()
	var q map[string]int
	require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
	assert.Equal(t, map[string]int{"used": 7, "limit": 200}, q)
}

func TestScanData(t *testing.T) {
	denied := newTestServer(t, &fakeScanner{}, nil)
	r, err := http.Get(denied.URL + "/v1/scan-data")
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusForbidden, r.StatusCode)

	allowed := newTestServer(t, &fakeScanner{historyOK: true}, nil)
	r, err = http.Get(allowed.URL + "/v1/scan-data")
	require.NoError(t, err)
	defer r.Body.Close()
	var data models.ScanData
	require.NoError(t, json.NewDecoder(r.Body).Decode(&data))
	assert.Equal(t, []string{"evil.example"}, data.SuspiciousSites)
}

func TestEvents(t *testing.T) {
	events := scanner.NewChanNotifier(8)
	srv := newTestServer(t, &fakeScanner{}, events)
	events.Notify(context.Background(), scanner.Event{Kind: scanner.EventWarning, Outcome: models.Outcome{URL: "https://evil.example"}})

	get := func() []scanner.Event {
		r, err := http.Get(srv.URL + "/v1/events")
		require.NoError(t, err)
		defer r.Body.Close()
		var body struct {
			Events []scanner.Event `json:"events"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		return body.Events
	}

	got := get()
	require.Len(t, got, 1)
	assert.Equal(t, scanner.EventWarning, got[0].Kind)
	assert.Empty(t, get(), "events are drained")
}

func TestServer_RunAndShutdown(t *testing.T) {
	ready := make(chan string, 1)
	s := NewServer("127.0.0.1:0", NewHandler(&fakeScanner{}, scanner.NewChanNotifier(1), nil, logging.Nop()).Routes(), logging.Nop())
	s.Ready = ready

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	addr := <-ready
	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
