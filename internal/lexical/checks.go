// Package lexical implements URL-shape heuristics that need nothing but the
// URL string (and, for clipboard hijacking, the page's inline script text).
//
// Every predicate is total: malformed input yields false, never a panic or an
// error.
package lexical

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/phishguard/internal/models"
)

var freeHostingProviders = []string{
	"github.io", "netlify.app", "vercel.app", "herokuapp.com", "pages.cloudflare.com",
	"firebaseapp.com", "surge.sh", "glitch.com", "replit.com", "render.com",
	"railway.com", "neocities.org", "awardspace.com", "byet.host",
	"infinityfree.com", "koyeb.com", "wix.com",
}

var (
	ipv4Re           = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)
	ipv6Re           = regexp.MustCompile(`^([0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}$`)
	atNotAfterSlash  = regexp.MustCompile(`(^|[^/])@`)
	repeatedHyphens  = regexp.MustCompile(`-{2,}`)
	percentEncodedRe = regexp.MustCompile(`%[0-9a-fA-F]{2}`)
)

var clipboardPatterns = []string{
	"clipboarddata.setdata",
	`addeventlistener("copy"`,
	`addeventlistener('copy'`,
	`addeventlistener("paste"`,
	`addeventlistener('paste'`,
}

// IsFreeHosting reports whether the hostname belongs to a free hosting
// platform.
func IsFreeHosting(raw string) bool {
	host := hostOf(raw)
	if host == "" {
		return false
	}
	for _, p := range freeHostingProviders {
		if strings.Contains(host, p) {
			return true
		}
	}
	return false
}

// IsRawIP reports whether the hostname is a dotted-quad IPv4 address or a
// fully written IPv6 address.
func IsRawIP(raw string) bool {
	host := hostOf(raw)
	return ipv4Re.MatchString(host) || ipv6Re.MatchString(host)
}

// HasSuspiciousSymbols looks for an '@' not preceded by '/' (credential-style
// URL obfuscation) or a run of two or more hyphens anywhere in the URL.
func HasSuspiciousSymbols(raw string) bool {
	return atNotAfterSlash.MatchString(raw) || repeatedHyphens.MatchString(raw)
}

// HasSchemeInHost reports hostnames such as "https-secure-login.example".
func HasSchemeInHost(raw string) bool {
	return strings.Contains(hostOf(raw), "http")
}

// IsHomoglyph reports hostnames carrying non-ASCII characters or written in
// punycode.
func IsHomoglyph(raw string) bool {
	host := hostOf(raw)
	if host == "" {
		return false
	}
	if strings.HasPrefix(host, "xn--") {
		return true
	}
	for i := 0; i < len(host); i++ {
		if host[i] >= utf8.RuneSelf {
			return true
		}
	}
	return false
}

// HasDoubleEncoding reports URLs whose second percent-decoding still changes
// them.
func HasDoubleEncoding(raw string) bool {
	once, err := url.PathUnescape(raw)
	if err != nil {
		return false
	}
	twice, err := url.PathUnescape(once)
	if err != nil {
		return false
	}
	return twice != once
}

// HasEncodedTraversal reports a path traversal sequence that only shows up
// after decoding.
func HasEncodedTraversal(raw string) bool {
	once, err := url.PathUnescape(raw)
	if err != nil {
		return false
	}
	return strings.Contains(once, "../") || strings.Contains(once, `..\`)
}

// HasEncodedHost reports percent-encoded bytes in the authority's host part.
func HasEncodedHost(raw string) bool {
	return percentEncodedRe.MatchString(authorityHost(raw))
}

// IsEncodingAbuse is the union of the three encoding predicates.
func IsEncodingAbuse(raw string) bool {
	return HasDoubleEncoding(raw) || HasEncodedTraversal(raw) || HasEncodedHost(raw)
}

// IsClipboardHijack scans inline script text for clipboard write or copy/paste
// interception.
func IsClipboardHijack(scripts string) bool {
	if scripts == "" {
		return false
	}
	lower := strings.ToLower(scripts)
	for _, p := range clipboardPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// hostOf returns the lowercased hostname, falling back to the raw authority
// when the URL does not parse (for example because of an encoded host).
func hostOf(raw string) string {
	if h := models.Hostname(raw); h != "" {
		return h
	}
	h := authorityHost(raw)
	if i := strings.LastIndex(h, ":"); i >= 0 && !strings.Contains(h, "]") {
		h = h[:i]
	}
	return strings.Trim(h, "[]")
}

// authorityHost extracts host[:port] from scheme://userinfo@host:port/... by
// plain string slicing.
func authorityHost(raw string) string {
	i := strings.Index(raw, "://")
	if i < 0 {
		return ""
	}
	rest := raw[i+3:]
	if j := strings.IndexAny(rest, "/?#"); j >= 0 {
		rest = rest[:j]
	}
	if k := strings.LastIndex(rest, "@"); k >= 0 {
		rest = rest[k+1:]
	}
	return strings.ToLower(rest)
}
