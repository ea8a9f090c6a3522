package oracle

import (
	"context"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/phishguard/internal/logging"
	"github.com/dmitrijs2005/phishguard/internal/trustlist"
	"golang.org/x/net/idna"
)

// Whitelist answers whether a host is known-good, consulting the local
// trust list before the remote service.
type Whitelist struct {
	static *trustlist.List
	client *Client
	logger logging.Logger
}

func NewWhitelist(static *trustlist.List, c *Client, logger logging.Logger) *Whitelist {
	return &Whitelist{static: static, client: c, logger: logger}
}

// IsWhitelisted never fails; remote errors are logged and read as false.
func (w *Whitelist) IsWhitelisted(ctx context.Context, domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return false
	}
	if w.static != nil && w.static.Contains(domain) {
		return true
	}
	if w.client == nil {
		return false
	}

	query := domain
	if ascii, err := idna.Lookup.ToASCII(domain); err == nil {
		query = ascii
	}

	var resp struct {
		Response bool `json:"response"`
	}
	if err := w.client.get(ctx, "/api/whitelist/check", url.Values{"domain": {query}}, &resp); err != nil {
		w.logger.Warn(ctx, "whitelist check failed", "domain", domain, "err", err)
		return false
	}
	return resp.Response
}
