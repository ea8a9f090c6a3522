package scanner

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/phishguard/internal/common"
	"github.com/dmitrijs2005/phishguard/internal/lexical"
	"github.com/dmitrijs2005/phishguard/internal/logging"
	"github.com/dmitrijs2005/phishguard/internal/models"
	"github.com/dmitrijs2005/phishguard/internal/pagecheck"
	"github.com/dmitrijs2005/phishguard/internal/policy"
	"golang.org/x/sync/errgroup"
)

type LinkSource string

const (
	SourceEmail LinkSource = "email"
	SourceFeed  LinkSource = "feed"
)

func (s LinkSource) feature() (policy.Feature, error) {
	switch s {
	case SourceEmail:
		return policy.FeatureEmailScan, nil
	case SourceFeed:
		return policy.FeatureTwitterFeedScan, nil
	}
	return "", fmt.Errorf("%w: unknown link source %q", common.ErrInvalidRequest, string(s))
}

// LinkRequest asks for every link in Text to be checked. Origin is the page
// the text came from; for feeds, links back to its host are skipped.
type LinkRequest struct {
	Source LinkSource `json:"source"`
	Text   string     `json:"text"`
	Origin string     `json:"origin,omitempty"`
}

var linkPattern = regexp.MustCompile(`https?://\S+`)

// ExtractLinks returns the distinct http(s) links in text in order of first
// appearance, with trailing sentence punctuation removed.
func ExtractLinks(text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, l := range linkPattern.FindAllString(text, -1) {
		l = strings.TrimRight(l, ".,;")
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

// ScanLinks checks the links of an email body or social feed. Links do not
// count against the quota and do not touch the safe cache or history.
func (s *Scanner) ScanLinks(ctx context.Context, req LinkRequest) ([]models.LinkVerdict, error) {
	feature, err := req.Source.feature()
	if err != nil {
		return nil, err
	}
	tier := s.Entitlements.Tier()
	if !policy.Allowed(tier, feature) {
		return nil, fmt.Errorf("%s: %w", feature, common.ErrFeatureNotAllowed)
	}

	originHost := ""
	if req.Source == SourceFeed {
		originHost = models.StripWWW(models.Hostname(req.Origin))
	}

	var links []string
	for _, l := range ExtractLinks(req.Text) {
		if originHost != "" && models.StripWWW(models.Hostname(l)) == originHost {
			continue
		}
		links = append(links, l)
	}

	out := make([]models.LinkVerdict, len(links))
	logger := s.Logger.With("source", string(req.Source))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.linkLimit)
	for i, link := range links {
		g.Go(func() error {
			out[i] = s.scanLink(gctx, logger, tier, req.Source, link)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Scanner) scanLink(ctx context.Context, logger logging.Logger, tier policy.Tier, source LinkSource, link string) models.LinkVerdict {
	v := models.LinkVerdict{URL: link}

	target := link
	if source == SourceFeed {
		if resolved := s.resolve(ctx, logger, link); resolved != "" {
			v.Resolved = resolved
			target = resolved
		}
	}

	var warnings []models.Warning
	if policy.Allowed(tier, policy.FeaturePhishingDB) {
		warnings = append(warnings, s.phishing(ctx, logger, target)...)
	}
	if policy.Allowed(tier, policy.FeatureSecurityChecks) {
		domain := models.NormalizeDomain(target)
		guard(ctx, logger, "lexical", func() {
			warnings = append(warnings, s.Lexical.Analyze(ctx, lexical.Input{URL: target})...)
		})
		guard(ctx, logger, "typosquat", func() {
			warnings = append(warnings, s.Typosquat.Check(domain)...)
		})
		guard(ctx, logger, "domain_age", func() {
			warnings = append(warnings, s.DomainAge.Check(ctx, domain)...)
		})
	}

	v.Warnings = warnings
	v.Flagged = len(warnings) > 0
	return v
}

// resolve follows a meta refresh or location.replace on the page behind
// link, which is how link shorteners in feeds hand off to the real target.
func (s *Scanner) resolve(ctx context.Context, logger logging.Logger, link string) string {
	var resolved string
	guard(ctx, logger, "resolve", func() {
		page, err := s.Pages.Load(ctx, link)
		if err != nil {
			logger.Debug(ctx, "link load failed", "link", link, "err", err)
			return
		}
		next := pagecheck.ExtractRedirectURL(page.HTML)
		if next == "" {
			return
		}
		base, err := url.Parse(link)
		if err != nil {
			return
		}
		ref, err := base.Parse(next)
		if err != nil {
			return
		}
		resolved = ref.String()
	})
	return resolved
}
