package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PhishingResult is one source's answer from the phishing database oracle.
type PhishingResult struct {
	Source     string          `json:"source"`
	Details    string          `json:"details"`
	IsPhishing bool            `json:"isPhishing"`
	Warnings   json.RawMessage `json:"warnings,omitempty"`
}

// Flagged reports whether the source considers the URL dangerous: either an
// explicit isPhishing or any non-empty warnings payload.
func (r PhishingResult) Flagged() bool {
	return r.IsPhishing || hasContent(r.Warnings)
}

func (r PhishingResult) Warning() Warning {
	return Warning(fmt.Sprintf("⚠️ %s: %s", r.Source, r.Details))
}

func hasContent(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	switch string(v) {
	case "", "null", "[]", "{}", `""`, "false":
		return false
	}
	return true
}

// LinkVerdict is the result of scanning one link found in an email body or a
// social feed.
type LinkVerdict struct {
	URL      string    `json:"url"`
	Resolved string    `json:"resolved,omitempty"`
	Flagged  bool      `json:"flagged"`
	Warnings []Warning `json:"warnings,omitempty"`
}
