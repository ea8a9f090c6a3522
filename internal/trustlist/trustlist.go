// Package trustlist provides the curated set of trusted domains shared by the
// typosquatting detector and the local whitelist.
package trustlist

import (
	_ "embed"
	"slices"
	"strings"

	"github.com/dmitrijs2005/phishguard/internal/filex"
)

//go:embed trusted_domains.txt
var defaultList string

// List is an ordered, de-duplicated set of lowercased domains. Order matters
// to the typosquatting detector, which reports the first close match.
type List struct {
	domains []string
	index   map[string]struct{}
}

func New(domains []string) *List {
	l := &List{index: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if _, dup := l.index[d]; dup {
			continue
		}
		l.index[d] = struct{}{}
		l.domains = append(l.domains, d)
	}
	return l
}

// Default returns the embedded list.
func Default() *List {
	lines, _ := filex.ReadLines(strings.NewReader(defaultList))
	return New(lines)
}

// Load reads a newline-delimited list from path; an empty path yields Default.
func Load(path string) (*List, error) {
	if path == "" {
		return Default(), nil
	}
	lines, err := filex.ReadLinesFile(path)
	if err != nil {
		return nil, err
	}
	return New(lines), nil
}

// Contains reports whether host, minus a leading "www.", is listed.
func (l *List) Contains(host string) bool {
	_, ok := l.index[strings.TrimPrefix(strings.ToLower(host), "www.")]
	return ok
}

// Domains returns a copy of the list in order.
func (l *List) Domains() []string {
	return slices.Clone(l.domains)
}

func (l *List) Len() int { return len(l.domains) }
