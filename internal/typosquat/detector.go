// Package typosquat flags domains that sit within a small edit distance of a
// trusted domain without being that domain.
package typosquat

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/dmitrijs2005/phishguard/internal/models"
	"github.com/dmitrijs2005/phishguard/internal/trustlist"
)

// MaxDistance is the largest edit distance still considered a lookalike.
const MaxDistance = 2

// Warning is attached when a lookalike is found.
const Warning models.Warning = "⚠️ This site is using a domain that is similar to a trusted website. Be Cautious!"

type Detector struct {
	trusted []string
	list    *trustlist.List
	closest bool
}

type Option func(*Detector)

// WithClosestMatch makes Match return the trusted domain with the smallest
// distance (ties go to the earlier entry) instead of the first one within
// MaxDistance.
func WithClosestMatch() Option {
	return func(d *Detector) { d.closest = true }
}

func New(list *trustlist.List, opts ...Option) *Detector {
	d := &Detector{trusted: list.Domains(), list: list}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Match returns the trusted domain that domain imitates, if any. A domain
// that is itself trusted is never reported.
func (d *Detector) Match(domain string) (string, bool) {
	domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), "www.")
	if domain == "" || d.list.Contains(domain) {
		return "", false
	}

	best, bestDist := "", MaxDistance+1
	for _, t := range d.trusted {
		dist := levenshtein.ComputeDistance(domain, t)
		if dist == 0 || dist > MaxDistance {
			continue
		}
		if !d.closest {
			return t, true
		}
		if dist < bestDist {
			best, bestDist = t, dist
		}
	}
	return best, best != ""
}

// Check returns the typosquatting warning for domain, or nil.
func (d *Detector) Check(domain string) []models.Warning {
	if _, ok := d.Match(domain); ok {
		return []models.Warning{Warning}
	}
	return nil
}
