package pagecheck

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/phishguard/internal/logging"
	"github.com/dmitrijs2005/phishguard/internal/models"
)

const (
	WarnStatusBar  models.Warning = "⚠️ These tricks are often used in phishing sites to steal funds or personal data."
	WarnForwarding models.Warning = "⚠️ This may redirect you to scam or malicious sites."
	WarnFakeForm   models.Warning = "⚠️ This page contains forms that may be collecting data for malicious purposes."
)

// MaxHops is the number of redirects tolerated before a page is flagged.
const MaxHops = 2

// webmailHosts are skipped by the form check; their login and compose forms
// legitimately post to other origins.
var webmailHosts = []string{"mail.google.com", "outlook.live.com", "mail.yahoo.com"}

// Checker runs the page checks. Every sub-check fails open: an error is
// logged and contributes no warning.
type Checker struct {
	fetcher Fetcher
	live    Fetcher
	logger  logging.Logger
}

// NewChecker builds a Checker that loads pages with fetcher and follows
// redirect chains with the live fetcher.
func NewChecker(fetcher, live Fetcher, logger logging.Logger) *Checker {
	return &Checker{fetcher: fetcher, live: live, logger: logger}
}

// Load fetches the page at url with the primary fetcher.
func (c *Checker) Load(ctx context.Context, url string) (*Page, error) {
	return c.fetcher.Fetch(ctx, url)
}

// Run returns warnings in the order status bar, forwarding, fake form. A nil
// page skips the markup checks; forwarding always fetches the live URL.
func (c *Checker) Run(ctx context.Context, url string, page *Page) []models.Warning {
	var out []models.Warning

	if page != nil && c.safely(ctx, "status_bar", func() (bool, error) { return SpoofsStatusBar(page.HTML), nil }) {
		out = append(out, WarnStatusBar)
	}

	if c.safely(ctx, "forwarding", func() (bool, error) { return c.forwards(ctx, url) }) {
		out = append(out, WarnForwarding)
	}

	if page != nil && !isWebmail(url) && c.safely(ctx, "fake_form", func() (bool, error) { return FakeForm(url, page.HTML) }) {
		out = append(out, WarnFakeForm)
	}

	return out
}

func (c *Checker) forwards(ctx context.Context, url string) (bool, error) {
	p, err := c.live.Fetch(ctx, url)
	if err != nil {
		return false, err
	}
	return p.Hops > MaxHops, nil
}

func (c *Checker) safely(ctx context.Context, name string, fn func() (bool, error)) bool {
	hit, err := recovered(fn)
	if err != nil {
		c.logger.Warn(ctx, "page check failed", "check", name, "err", err)
		return false
	}
	return hit
}

func recovered(fn func() (bool, error)) (hit bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn()
}

func isWebmail(url string) bool {
	host := models.Hostname(url)
	for _, h := range webmailHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
