package oracle

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/phishguard/internal/common"
	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"golang.org/x/net/publicsuffix"
)

// WhoisOracle returns the raw creation date string of a domain.
type WhoisOracle interface {
	CreatedDate(ctx context.Context, domain string) (string, error)
}

// APIWhois asks the reputation API for WHOIS data.
type APIWhois struct {
	client *Client
}

func NewAPIWhois(c *Client) *APIWhois {
	return &APIWhois{client: c}
}

type whoisResponse struct {
	WhoisRecord *struct {
		CreatedDate string `json:"createdDate"`
	} `json:"WhoisRecord"`
}

func (w *APIWhois) CreatedDate(ctx context.Context, domain string) (string, error) {
	var resp whoisResponse
	if err := w.client.get(ctx, "/api/whois", url.Values{"domain": {domain}}, &resp); err != nil {
		return "", err
	}
	if resp.WhoisRecord == nil || resp.WhoisRecord.CreatedDate == "" {
		return "", fmt.Errorf("whois %s: %w", domain, common.ErrNotFound)
	}
	return resp.WhoisRecord.CreatedDate, nil
}

// DirectWhois queries WHOIS servers over port 43 and parses the response.
// Subdomains are resolved to their registrable domain first; when a server
// still has no record, parent domains are tried in turn.
type DirectWhois struct {
	timeout time.Duration
	query   func(domain string) (string, error)
}

func NewDirectWhois(timeout time.Duration) *DirectWhois {
	c := whois.NewClient().SetTimeout(timeout)
	return &DirectWhois{
		timeout: timeout,
		query:   func(domain string) (string, error) { return c.Whois(domain) },
	}
}

func (w *DirectWhois) CreatedDate(ctx context.Context, domain string) (string, error) {
	type result struct {
		created string
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		created, err := w.lookup(registrable(domain))
		ch <- result{created, err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", common.ErrOracleUnavailable, ctx.Err())
	case r := <-ch:
		return r.created, r.err
	}
}

func (w *DirectWhois) lookup(domain string) (string, error) {
	raw, err := w.query(domain)
	if err != nil {
		return "", fmt.Errorf("%w: whois %s: %w", common.ErrOracleUnavailable, domain, err)
	}

	info, err := whoisparser.Parse(raw)
	if err != nil || info.Domain == nil || strings.TrimSpace(info.Domain.CreatedDate) == "" {
		if parent, ok := parentDomain(domain); ok {
			return w.lookup(parent)
		}
		return "", fmt.Errorf("whois %s: %w", domain, common.ErrNotFound)
	}
	return strings.TrimSpace(info.Domain.CreatedDate), nil
}

func registrable(domain string) string {
	if d, err := publicsuffix.EffectiveTLDPlusOne(domain); err == nil {
		return d
	}
	return domain
}

func parentDomain(domain string) (string, bool) {
	parts := strings.Split(domain, ".")
	if len(parts) <= 2 {
		return "", false
	}
	return strings.Join(parts[1:], "."), true
}
