package scanner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/phishguard/internal/cache"
	"github.com/dmitrijs2005/phishguard/internal/lexical"
	"github.com/dmitrijs2005/phishguard/internal/logging"
	"github.com/dmitrijs2005/phishguard/internal/models"
	"github.com/dmitrijs2005/phishguard/internal/oracle"
	"github.com/dmitrijs2005/phishguard/internal/pagecheck"
	"github.com/dmitrijs2005/phishguard/internal/policy"
	"github.com/dmitrijs2005/phishguard/internal/repositories/kv"
	"github.com/dmitrijs2005/phishguard/internal/timex"
	"github.com/dmitrijs2005/phishguard/internal/trustlist"
	"github.com/dmitrijs2005/phishguard/internal/typosquat"
)

var t0 = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type mapFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls int
}

func (m *mapFetcher) Fetch(_ context.Context, u string) (*pagecheck.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	html, ok := m.pages[u]
	if !ok {
		html = "<html><body>hello</body></html>"
	}
	return &pagecheck.Page{URL: u, FinalURL: u, HTML: html, Status: 200}, nil
}

func (m *mapFetcher) set(u, html string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[u] = html
}

func (m *mapFetcher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type fakeAge struct {
	young map[string]bool
	calls atomic.Int32
}

func (f *fakeAge) Check(_ context.Context, domain string) []models.Warning {
	f.calls.Add(1)
	if f.young[domain] {
		return []models.Warning{oracle.WarnYoungDomain}
	}
	return nil
}

type fakeWhitelist struct {
	list  *trustlist.List
	calls atomic.Int32
}

func (f *fakeWhitelist) IsWhitelisted(_ context.Context, domain string) bool {
	f.calls.Add(1)
	return f.list.Contains(domain)
}

type fakeDB struct {
	mu      sync.Mutex
	results map[string][]models.PhishingResult
	err     error
	calls   int
}

func (f *fakeDB) Check(_ context.Context, u string) ([]models.PhishingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results[u], nil
}

func (f *fakeDB) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeReporter struct {
	mu      sync.Mutex
	reports []string
	alerts  []string
}

func (f *fakeReporter) Report(_ context.Context, u string, _ []models.Warning) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, u)
	return errors.New("backend down")
}

func (f *fakeReporter) Alert(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, text)
	return nil
}

func (f *fakeReporter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reports)
}

type panicTypo struct{}

func (panicTypo) Check(string) []models.Warning { panic("boom") }

type panicTier struct{}

func (panicTier) Tier() policy.Tier { panic("auth collaborator exploded") }

type failingRecord struct {
	*cache.Store
}

func (failingRecord) RecordScan(context.Context, models.CurrentSite) error {
	return errors.New("disk full")
}

type fixture struct {
	s        *Scanner
	cache    *cache.Store
	clock    *timex.ManualClock
	fetch    *mapFetcher
	age      *fakeAge
	wl       *fakeWhitelist
	db       *fakeDB
	reporter *fakeReporter
	events   *ChanNotifier
}

func newFixture(t *testing.T, tier policy.Tier, tweak ...func(*Deps)) *fixture {
	t.Helper()
	clock := timex.NewManualClock(t0)
	f := &fixture{
		clock:    clock,
		cache:    cache.New(kv.NewMemoryStore(), logging.Nop(), cache.WithClock(clock), cache.WithQuota(3)),
		fetch:    &mapFetcher{pages: map[string]string{}},
		age:      &fakeAge{young: map[string]bool{}},
		wl:       &fakeWhitelist{list: trustlist.Default()},
		db:       &fakeDB{results: map[string][]models.PhishingResult{}},
		reporter: &fakeReporter{},
		events:   NewChanNotifier(64),
	}
	d := Deps{
		Cache:        f.cache,
		Entitlements: policy.Static(tier),
		Lexical:      lexical.NewAnalyzer(logging.Nop()),
		Typosquat:    typosquat.New(trustlist.Default()),
		DomainAge:    f.age,
		Pages:        pagecheck.NewChecker(f.fetch, f.fetch, logging.Nop()),
		Whitelist:    f.wl,
		PhishingDB:   f.db,
		Reporter:     f.reporter,
		Alerter:      f.reporter,
		Notifier:     f.events,
		Clock:        clock,
		Logger:       logging.Nop(),
	}
	for _, fn := range tweak {
		fn(&d)
	}
	f.s = New(d)
	t.Cleanup(f.s.Wait)
	return f
}

func (f *fixture) oracleCalls() int {
	return f.fetch.count() + int(f.age.calls.Load()) + int(f.wl.calls.Load()) + f.db.count()
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}
