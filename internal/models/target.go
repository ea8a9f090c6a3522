// Package models holds the value types that flow through the scan pipeline.
package models

import (
	"net/url"
	"strings"
)

// subdomainPrefixes are stripped (at most one) when deriving a ScanTarget's
// Domain so that "docs.example.com" groups with "example.com" in history.
var subdomainPrefixes = []string{
	"api.", "docs.", "app.", "admin.", "test.", "staging.", "dev.", "manage.",
	"blog.", "support.", "mail.", "shop.", "static.", "cdn.", "analytics.",
	"search.", "demo.", "mvp.",
}

// ScanTarget is derived once per scan from the URL being inspected.
type ScanTarget struct {
	RawURL string
	// Domain is the normalized grouping key used for history and typosquatting.
	Domain string
	// Host is the lowercased hostname; empty when the URL does not parse.
	Host string
}

func NewScanTarget(raw string) ScanTarget {
	return ScanTarget{
		RawURL: raw,
		Domain: NormalizeDomain(raw),
		Host:   Hostname(raw),
	}
}

// NormalizeDomain strips the scheme, a leading "www.", everything from the
// first "/", one known subdomain prefix, and lowercases the rest. It works on
// the raw string and never fails.
func NormalizeDomain(raw string) string {
	d := strings.TrimSpace(raw)
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	for _, p := range subdomainPrefixes {
		if strings.HasPrefix(d, p) {
			d = d[len(p):]
			break
		}
	}
	return strings.ToLower(d)
}

// Hostname returns the lowercased hostname of raw, or "" when raw is not an
// absolute URL.
func Hostname(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// StripWWW removes a single leading "www." label.
func StripWWW(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
