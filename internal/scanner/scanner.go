// Package scanner orchestrates a scan: entitlement and quota gating, the
// heuristic and oracle checks, the verdict, and the cache and history
// updates that follow it.
package scanner

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/phishguard/internal/common"
	"github.com/dmitrijs2005/phishguard/internal/lexical"
	"github.com/dmitrijs2005/phishguard/internal/logging"
	"github.com/dmitrijs2005/phishguard/internal/models"
	"github.com/dmitrijs2005/phishguard/internal/oracle"
	"github.com/dmitrijs2005/phishguard/internal/pagecheck"
	"github.com/dmitrijs2005/phishguard/internal/policy"
	"github.com/dmitrijs2005/phishguard/internal/timex"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// WarnDegraded is attached when the pipeline itself failed.
const WarnDegraded models.Warning = "⚠️ This site could not be fully checked. Proceed with caution."

type Cache interface {
	IsCachedSafe(ctx context.Context, url string) (bool, error)
	RecordSafe(ctx context.Context, url string) error
	IsRiskAccepted(ctx context.Context, url string) (bool, error)
	RecordRiskAccepted(ctx context.Context, url string) error
	CheckAndConsumeQuota(ctx context.Context, url string) (bool, error)
	QuotaUsage(ctx context.Context) (used, limit int, err error)
	ResetQuota(ctx context.Context) error
	ScanData(ctx context.Context) (models.ScanData, error)
	SetCurrentSite(ctx context.Context, site models.CurrentSite) error
	RecordScan(ctx context.Context, site models.CurrentSite) error
}

type Lexical interface {
	Analyze(ctx context.Context, in lexical.Input) []models.Warning
}

type Typosquat interface {
	Check(domain string) []models.Warning
}

type DomainAge interface {
	Check(ctx context.Context, domain string) []models.Warning
}

type Pages interface {
	Load(ctx context.Context, url string) (*pagecheck.Page, error)
	Run(ctx context.Context, url string, page *pagecheck.Page) []models.Warning
}

type Whitelist interface {
	IsWhitelisted(ctx context.Context, domain string) bool
}

type PhishingDB interface {
	Check(ctx context.Context, url string) ([]models.PhishingResult, error)
}

type Reporter interface {
	Report(ctx context.Context, url string, warnings []models.Warning) error
}

type Alerter interface {
	Alert(ctx context.Context, text string) error
}

// Deps are the collaborators of a Scanner. Reporter, Alerter and Notifier
// are optional.
type Deps struct {
	Cache        Cache
	Entitlements policy.Entitlements
	Lexical      Lexical
	Typosquat    Typosquat
	DomainAge    DomainAge
	Pages        Pages
	Whitelist    Whitelist
	PhishingDB   PhishingDB
	Reporter     Reporter
	Alerter      Alerter
	Notifier     Notifier
	Clock        timex.Clock
	Logger       logging.Logger
}

type Scanner struct {
	Deps
	linkLimit     int
	reportTimeout time.Duration
	background    sync.WaitGroup
}

type Option func(*Scanner)

// WithLinkConcurrency bounds how many links ScanLinks checks at once.
func WithLinkConcurrency(n int) Option {
	return func(s *Scanner) { s.linkLimit = max(n, 1) }
}

func WithReportTimeout(d time.Duration) Option {
	return func(s *Scanner) { s.reportTimeout = d }
}

func New(d Deps, opts ...Option) *Scanner {
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Clock == nil {
		d.Clock = timex.SystemClock{}
	}
	if d.Logger == nil {
		d.Logger = logging.Nop()
	}
	s := &Scanner{Deps: d, linkLimit: 4, reportTimeout: 10 * time.Second}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NormalizeURL trims raw, assumes https when no scheme is given and rejects
// input without a host.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw != "" && !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidURL, raw)
	}
	return raw, nil
}

// Scan runs the pipeline on rawURL. A quota denial returns the outcome
// together with common.ErrQuotaExceeded. Any other internal failure yields a
// degraded malicious outcome and a nil error.
func (s *Scanner) Scan(ctx context.Context, rawURL string) (out models.Outcome, err error) {
	rawURL, err = NormalizeURL(rawURL)
	if err != nil {
		return models.Outcome{}, err
	}

	target := models.NewScanTarget(rawURL)
	out = models.Outcome{
		ID:        uuid.NewString(),
		URL:       target.RawURL,
		Domain:    target.Domain,
		Verdict:   models.VerdictScanning,
		StartedAt: s.Clock.Now(),
	}
	logger := s.Logger.With("scan_id", out.ID, "url", rawURL)

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "scan panicked", "panic", fmt.Sprint(p))
			out, err = s.degrade(ctx, logger, out, nil), nil
		}
	}()

	s.Notifier.Notify(ctx, Event{Kind: EventScanning, Outcome: out})

	tier := s.Entitlements.Tier()
	if tier.IsLowest() {
		allowed, qerr := s.Cache.CheckAndConsumeQuota(ctx, rawURL)
		if qerr != nil {
			logger.Warn(ctx, "quota check failed", "err", qerr)
		} else if !allowed {
			out.Verdict = ""
			out.Reason = models.ReasonQuotaExceeded
			out.Message = common.UpgradeMessage
			out.FinishedAt = s.Clock.Now()
			s.Notifier.Notify(ctx, Event{Kind: EventUpgrade, Outcome: out})
			return out, common.ErrQuotaExceeded
		}
	}
	s.setCurrent(ctx, logger, out)

	if cached, cerr := s.Cache.IsCachedSafe(ctx, rawURL); cerr != nil {
		logger.Warn(ctx, "safe cache read failed", "err", cerr)
	} else if cached {
		return s.shortCircuit(ctx, logger, out, models.ReasonCached), nil
	}

	r := s.inspect(ctx, logger, tier, target)
	if r.whitelisted {
		return s.shortCircuit(ctx, logger, out, models.ReasonWhitelisted), nil
	}

	warnings := r.warnings
	ranAny := r.ran
	if policy.Allowed(tier, policy.FeaturePhishingDB) {
		ranAny = true
		warnings = append(warnings, s.phishing(ctx, logger, rawURL)...)
	}

	out.Warnings = warnings
	out.Verdict = models.VerdictSafe
	out.Reason = models.ReasonClean
	if len(warnings) > 0 {
		out.Verdict = models.VerdictMalicious
		out.Reason = models.ReasonFlagged
	} else if !ranAny {
		out.Reason = models.ReasonUnchecked
	}

	if perr := s.Cache.RecordScan(ctx, s.site(out)); perr != nil {
		logger.Error(ctx, "persisting verdict failed", "err", perr)
		return s.degrade(ctx, logger, out, warnings), nil
	}

	switch {
	case out.Verdict == models.VerdictMalicious:
		accepted, aerr := s.Cache.IsRiskAccepted(ctx, rawURL)
		if aerr != nil {
			logger.Warn(ctx, "accepted risk read failed", "err", aerr)
		}
		out.Accepted = accepted
		if !accepted {
			s.Notifier.Notify(ctx, Event{Kind: EventWarning, Outcome: out})
			s.report(ctx, logger, rawURL, warnings)
		}
	case out.Reason == models.ReasonClean:
		if serr := s.Cache.RecordSafe(ctx, rawURL); serr != nil {
			logger.Warn(ctx, "safe cache write failed", "err", serr)
		}
	}

	out.FinishedAt = s.Clock.Now()
	s.Notifier.Notify(ctx, Event{Kind: EventVerdict, Outcome: out})
	logger.Info(ctx, "scan finished", "verdict", out.Verdict, "reason", out.Reason, "warnings", len(out.Warnings))
	return out, nil
}

type inspection struct {
	warnings    []models.Warning
	whitelisted bool
	ran         bool
}

// inspect runs the page load, the domain age lookup and the whitelist
// lookup concurrently, then the synchronous heuristics. Warnings are ordered
// lexical, typosquat, domain age, page.
func (s *Scanner) inspect(ctx context.Context, logger logging.Logger, tier policy.Tier, target models.ScanTarget) inspection {
	security := policy.Allowed(tier, policy.FeatureSecurityChecks)
	html := policy.Allowed(tier, policy.FeatureHTMLChecks)

	var (
		page        *pagecheck.Page
		pageWarns   []models.Warning
		ageWarns    []models.Warning
		whitelisted bool
		g           errgroup.Group
	)

	if security || html {
		g.Go(func() error {
			guard(ctx, logger, "page", func() {
				p, err := s.Pages.Load(ctx, target.RawURL)
				if err != nil {
					logger.Warn(ctx, "page load failed", "err", err)
				}
				page = p
				if html {
					pageWarns = s.Pages.Run(ctx, target.RawURL, p)
				}
			})
			return nil
		})
	}
	if security {
		g.Go(func() error {
			guard(ctx, logger, "domain_age", func() {
				ageWarns = s.DomainAge.Check(ctx, target.Domain)
			})
			return nil
		})
	}
	g.Go(func() error {
		guard(ctx, logger, "whitelist", func() {
			whitelisted = s.Whitelist.IsWhitelisted(ctx, models.StripWWW(target.Host))
		})
		return nil
	})
	_ = g.Wait()

	r := inspection{whitelisted: whitelisted, ran: security || html}
	if whitelisted {
		return r
	}

	if security {
		in := lexical.Input{URL: target.RawURL}
		if page != nil {
			in.Scripts = pagecheck.InlineScripts(page.HTML)
		}
		guard(ctx, logger, "lexical", func() {
			r.warnings = append(r.warnings, s.Lexical.Analyze(ctx, in)...)
		})
		guard(ctx, logger, "typosquat", func() {
			r.warnings = append(r.warnings, s.Typosquat.Check(target.Domain)...)
		})
		r.warnings = append(r.warnings, ageWarns...)
	}
	r.warnings = append(r.warnings, pageWarns...)
	return r
}

func (s *Scanner) phishing(ctx context.Context, logger logging.Logger, rawURL string) (out []models.Warning) {
	guard(ctx, logger, "phishing_db", func() {
		results, err := s.PhishingDB.Check(ctx, rawURL)
		if err != nil {
			logger.Warn(ctx, "phishing database check failed", "err", err)
			return
		}
		out = oracle.FlaggedWarnings(results)
	})
	return out
}

// guard runs fn and logs a panic instead of propagating it.
func guard(ctx context.Context, logger logging.Logger, check string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "check panicked", "check", check, "panic", fmt.Sprint(p))
		}
	}()
	fn()
}

func (s *Scanner) shortCircuit(ctx context.Context, logger logging.Logger, out models.Outcome, reason models.Reason) models.Outcome {
	out.Verdict = models.VerdictSafe
	out.Reason = reason
	out.FinishedAt = s.Clock.Now()
	s.setCurrent(ctx, logger, out)
	s.Notifier.Notify(ctx, Event{Kind: EventVerdict, Outcome: out})
	logger.Info(ctx, "scan short-circuited", "reason", reason)
	return out
}

// degrade turns out into a malicious verdict and makes it the current site so
// that no reader is left with the scanning state.
func (s *Scanner) degrade(ctx context.Context, logger logging.Logger, out models.Outcome, warnings []models.Warning) models.Outcome {
	out.Verdict = models.VerdictMalicious
	out.Reason = models.ReasonDegraded
	out.Warnings = append(append([]models.Warning(nil), warnings...), WarnDegraded)
	out.FinishedAt = s.Clock.Now()
	guard(ctx, logger, "current_site", func() { s.setCurrent(ctx, logger, out) })
	s.Notifier.Notify(ctx, Event{Kind: EventWarning, Outcome: out})
	s.Notifier.Notify(ctx, Event{Kind: EventVerdict, Outcome: out})
	return out
}

func (s *Scanner) setCurrent(ctx context.Context, logger logging.Logger, out models.Outcome) {
	if err := s.Cache.SetCurrentSite(ctx, s.site(out)); err != nil {
		logger.Warn(ctx, "updating current site failed", "err", err)
	}
}

func (s *Scanner) site(out models.Outcome) models.CurrentSite {
	return models.CurrentSite{
		URL:      out.URL,
		Domain:   out.Domain,
		Status:   out.Verdict,
		Warnings: out.Warnings,
	}
}

// report sends the verdict to the report endpoint and Slack in the
// background. Failures are only logged.
func (s *Scanner) report(ctx context.Context, logger logging.Logger, rawURL string, warnings []models.Warning) {
	if s.Reporter == nil && s.Alerter == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.reportTimeout)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer cancel()
		if s.Reporter != nil {
			if err := s.Reporter.Report(ctx, rawURL, warnings); err != nil {
				logger.Warn(ctx, "scam report failed", "err", err)
			}
		}
		if s.Alerter != nil {
			if err := s.Alerter.Alert(ctx, oracle.AlertText(rawURL, warnings)); err != nil {
				logger.Warn(ctx, "slack alert failed", "err", err)
			}
		}
	}()
}

// Wait blocks until background reports have finished.
func (s *Scanner) Wait() {
	s.background.Wait()
}

// Refresh rescans the current site.
func (s *Scanner) Refresh(ctx context.Context) (models.Outcome, error) {
	data, err := s.Cache.ScanData(ctx)
	if err != nil {
		return models.Outcome{}, err
	}
	if data.CurrentSite.URL == "" {
		return models.Outcome{}, fmt.Errorf("current site: %w", common.ErrNotFound)
	}
	return s.Scan(ctx, data.CurrentSite.URL)
}

// AcceptRisk records that the user chose to proceed to rawURL despite a
// malicious verdict. The override lasts as long as the cache TTL.
func (s *Scanner) AcceptRisk(ctx context.Context, rawURL string) error {
	rawURL, err := NormalizeURL(rawURL)
	if err != nil {
		return err
	}
	return s.Cache.RecordRiskAccepted(ctx, rawURL)
}

// History returns the stored scan data when the tier includes scan history.
func (s *Scanner) History(ctx context.Context) (models.ScanData, error) {
	if !policy.Allowed(s.Entitlements.Tier(), policy.FeatureScanHistory) {
		return models.ScanData{}, fmt.Errorf("%s: %w", policy.FeatureScanHistory, common.ErrFeatureNotAllowed)
	}
	return s.Cache.ScanData(ctx)
}

// Quota reports the monthly usage of the lowest tier.
func (s *Scanner) Quota(ctx context.Context) (used, limit int, err error) {
	return s.Cache.QuotaUsage(ctx)
}

func (s *Scanner) ResetQuota(ctx context.Context) error {
	return s.Cache.ResetQuota(ctx)
}

// Features lists what the session's tier is entitled to.
func (s *Scanner) Features() []policy.Feature {
	return policy.Features(s.Entitlements.Tier())
}
