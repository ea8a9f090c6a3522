package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/phishguard/internal/common"
	"github.com/dmitrijs2005/phishguard/internal/logging"
	"github.com/dmitrijs2005/phishguard/internal/models"
	"github.com/dmitrijs2005/phishguard/internal/timex"
)

const WarnYoungDomain models.Warning = "High Alert: This site has no trust history and might steal your info or funds."

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
}

// ParseDate accepts the creation date formats WHOIS servers commonly emit.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", common.ErrInvalidDate, s)
}

// DomainAgeOf labels the age of a domain created at created as seen at now.
// Domains a month old or younger raise an alert, as do unreadable dates.
func DomainAgeOf(created string, now time.Time) models.DomainAge {
	t, err := ParseDate(created)
	if err != nil {
		return models.DomainAge{Label: "Invalid date", Alert: true}
	}

	days := int(now.Sub(t).Hours() / 24)
	months := (now.Year()-t.Year())*12 + int(now.Month()) - int(t.Month())

	var label string
	switch {
	case days <= 1:
		label = "Registered today"
	case months < 1:
		label = "Less than 1 month"
	case months == 1:
		label = "1 month"
	case months < 12:
		label = fmt.Sprintf("%d months", months)
	default:
		label = fmt.Sprintf("%d year%s", months/12, plural(months/12))
		if rem := months % 12; rem > 0 {
			label += fmt.Sprintf(" and %d month%s", rem, plural(rem))
		}
	}

	return models.DomainAge{
		Created: t,
		Label:   label,
		Alert:   days <= 1 || months <= 1,
		Valid:   true,
	}
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}

// AgeChecker turns a WHOIS creation date into a young-domain warning.
type AgeChecker struct {
	whois  WhoisOracle
	clock  timex.Clock
	logger logging.Logger
}

func NewAgeChecker(w WhoisOracle, clock timex.Clock, logger logging.Logger) *AgeChecker {
	return &AgeChecker{whois: w, clock: clock, logger: logger}
}

// Lookup returns the age of domain. Local hosts are not looked up.
func (a *AgeChecker) Lookup(ctx context.Context, domain string) (models.DomainAge, error) {
	if isLocal(domain) {
		return models.DomainAge{}, fmt.Errorf("whois %s: %w", domain, common.ErrNotFound)
	}
	created, err := a.whois.CreatedDate(ctx, domain)
	if err != nil {
		return models.DomainAge{}, err
	}
	return DomainAgeOf(created, a.clock.Now()), nil
}

// Check returns WarnYoungDomain for recently registered domains. Lookup
// failures are logged and produce no warning.
func (a *AgeChecker) Check(ctx context.Context, domain string) []models.Warning {
	if isLocal(domain) {
		a.logger.Debug(ctx, "skipping whois for local domain", "domain", domain)
		return nil
	}
	age, err := a.Lookup(ctx, domain)
	if err != nil {
		a.logger.Warn(ctx, "domain age check failed", "domain", domain, "err", err)
		return nil
	}
	if age.Alert && age.Valid {
		return []models.Warning{WarnYoungDomain}
	}
	return nil
}

func isLocal(domain string) bool {
	return domain == "localhost" || strings.HasPrefix(domain, "localhost:")
}
