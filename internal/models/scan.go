package models

import "time"

// ScanRecord is one entry of the recent-scans list. JSON names match the
// persisted scanData document.
type ScanRecord struct {
	Domain    string  `json:"url"`
	Verdict   Verdict `json:"status"`
	Timestamp int64   `json:"timestamp"`
}

// CurrentSite is the state of the scan in progress or last finished.
type CurrentSite struct {
	URL      string    `json:"url"`
	Domain   string    `json:"domain"`
	Status   Verdict   `json:"status"`
	Warnings []Warning `json:"warnings,omitempty"`
}

type ScanData struct {
	CurrentSite     CurrentSite  `json:"currentSite"`
	RecentScans     []ScanRecord `json:"recentScans"`
	SuspiciousSites []string     `json:"suspiciousSites"`
}

// PushRecent front-inserts rec, drops any older entry for the same domain and
// trims to limit.
func (d *ScanData) PushRecent(rec ScanRecord, limit int) {
	out := make([]ScanRecord, 0, limit)
	out = append(out, rec)
	for _, r := range d.RecentScans {
		if len(out) >= limit {
			break
		}
		if r.Domain != rec.Domain {
			out = append(out, r)
		}
	}
	d.RecentScans = out
}

// PushSuspicious front-inserts domain with the same de-dup and cap rules.
func (d *ScanData) PushSuspicious(domain string, limit int) {
	out := make([]string, 0, limit)
	out = append(out, domain)
	for _, s := range d.SuspiciousSites {
		if len(out) >= limit {
			break
		}
		if s != domain {
			out = append(out, s)
		}
	}
	d.SuspiciousSites = out
}

// TimedEntry is the value stored per URL in the safe-url and accepted-risk maps.
type TimedEntry struct {
	Timestamp int64 `json:"timestamp"`
}

func (e TimedEntry) Time() time.Time { return time.UnixMilli(e.Timestamp) }

// DomainAge summarizes a WHOIS creation date.
type DomainAge struct {
	Created time.Time `json:"created"`
	Label   string    `json:"label"`
	// Alert is set for registrations a month old or younger, and when the
	// date could not be interpreted.
	Alert bool `json:"alert"`
	Valid bool `json:"valid"`
}
