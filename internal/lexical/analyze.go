package lexical

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/phishguard/internal/logging"
	"github.com/dmitrijs2005/phishguard/internal/models"
)

const (
	WarnFreeHosting       models.Warning = "This site is hosted on a free hosting platform. Be Cautious!"
	WarnRawIP             models.Warning = "This site is using a raw IP address without a domain name, a common red flag in phishing scams."
	WarnHomoglyph         models.Warning = "This domain is trying to impersonate a trusted website."
	WarnSuspiciousSymbols models.Warning = "These tricks are often used in phishing sites to steal funds or personal data."
	WarnSchemeInHost      models.Warning = "Domain name itself contains http or https to confuse users. Be Cautious!"
	WarnEncodingAbuse     models.Warning = "⚠️ This URL uses suspicious encoding techniques that may hide malicious intent."
	WarnClipboardHijack   models.Warning = "⚠️ This site is trying to access your clipboard, a common technique used in scams to replace copied crypto wallet addresses or payment details."
)

// Input is what the lexical checks look at.
type Input struct {
	URL string
	// Scripts is the concatenated inline script text of the page, if fetched.
	Scripts string
}

type Check struct {
	Name    string
	Warning models.Warning
	Match   func(Input) bool
}

func urlCheck(f func(string) bool) func(Input) bool {
	return func(in Input) bool { return f(in.URL) }
}

// Checks is evaluated in order; warnings come out in the same order.
var Checks = []Check{
	{Name: "free_hosting", Warning: WarnFreeHosting, Match: urlCheck(IsFreeHosting)},
	{Name: "raw_ip", Warning: WarnRawIP, Match: urlCheck(IsRawIP)},
	{Name: "homoglyph", Warning: WarnHomoglyph, Match: urlCheck(IsHomoglyph)},
	{Name: "suspicious_symbols", Warning: WarnSuspiciousSymbols, Match: urlCheck(HasSuspiciousSymbols)},
	{Name: "scheme_in_host", Warning: WarnSchemeInHost, Match: urlCheck(HasSchemeInHost)},
	{Name: "encoding_abuse", Warning: WarnEncodingAbuse, Match: urlCheck(IsEncodingAbuse)},
	{Name: "clipboard_hijack", Warning: WarnClipboardHijack, Match: func(in Input) bool { return IsClipboardHijack(in.Scripts) }},
}

type Analyzer struct {
	checks []Check
	logger logging.Logger
}

func NewAnalyzer(logger logging.Logger) *Analyzer {
	return &Analyzer{checks: Checks, logger: logger}
}

// Analyze runs every check and returns the warnings of those that matched.
// A panicking check is logged and contributes nothing.
func (a *Analyzer) Analyze(ctx context.Context, in Input) []models.Warning {
	var out []models.Warning
	for _, c := range a.checks {
		matched, err := run(c, in)
		if err != nil {
			a.logger.Warn(ctx, "lexical check failed", "check", c.Name, "err", err)
			continue
		}
		if matched {
			out = append(out, c.Warning)
		}
	}
	return out
}

func run(c Check, in Input) (matched bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return c.Match(in), nil
}
