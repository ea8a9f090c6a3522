package models

import "time"

type Verdict string

const (
	VerdictScanning   Verdict = "scanning"
	VerdictSafe       Verdict = "safe"
	VerdictSuspicious Verdict = "suspicious"
	VerdictMalicious  Verdict = "malicious"
)

// IsFinal reports whether v may be persisted as a scan result.
func (v Verdict) IsFinal() bool {
	return v == VerdictSafe || v == VerdictSuspicious || v == VerdictMalicious
}

// Warning is a human-readable reason attached to a verdict.
type Warning string

// Reason explains how an Outcome was reached.
type Reason string

const (
	ReasonClean         Reason = "clean"
	ReasonFlagged       Reason = "flagged"
	ReasonWhitelisted   Reason = "whitelisted"
	ReasonCached        Reason = "cached"
	ReasonQuotaExceeded Reason = "quota_exceeded"
	ReasonDegraded      Reason = "degraded"
	// ReasonUnchecked marks a safe verdict reached without any check being
	// entitled to run. Such results are never cached.
	ReasonUnchecked Reason = "unchecked"
)

// Outcome is the result of one scan as handed to the presentation layer.
type Outcome struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Domain     string    `json:"domain"`
	Verdict    Verdict   `json:"verdict,omitempty"`
	Warnings   []Warning `json:"warnings"`
	Reason     Reason    `json:"reason"`
	Accepted   bool      `json:"accepted,omitempty"`
	Message    string    `json:"message,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
