// Package cli is the interactive front end: a REPL over the scanner plus a
// one-shot mode for scripts.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/phishguard/internal/common"
	"github.com/dmitrijs2005/phishguard/internal/models"
	"github.com/dmitrijs2005/phishguard/internal/policy"
	"github.com/dmitrijs2005/phishguard/internal/scanner"
	"golang.org/x/term"
)

var (
	errUsage          = errors.New("usage")
	errUnknownCommand = errors.New("unknown command")
)

type Scanner interface {
	Scan(ctx context.Context, url string) (models.Outcome, error)
	Refresh(ctx context.Context) (models.Outcome, error)
	AcceptRisk(ctx context.Context, url string) error
	ScanLinks(ctx context.Context, req scanner.LinkRequest) ([]models.LinkVerdict, error)
	History(ctx context.Context) (models.ScanData, error)
	Quota(ctx context.Context) (used, limit int, err error)
	ResetQuota(ctx context.Context) error
	Features() []policy.Feature
}

// Maintainer manages the local store.
type Maintainer interface {
	Sweep(ctx context.Context) (int, error)
	Wipe(ctx context.Context) error
}

type CLI struct {
	scanner Scanner
	store   Maintainer
	tier    policy.Tier
	in      io.Reader
}

func New(s Scanner, store Maintainer, tier policy.Tier) *CLI {
	return &CLI{scanner: s, store: store, tier: tier, in: os.Stdin}
}

// Notifier prints the interruptions a browser extension would show as
// overlays: the malicious-page warning and the upgrade prompt.
func Notifier() scanner.Notifier {
	return scanner.NotifyFunc(func(_ context.Context, e scanner.Event) {
		switch e.Kind {
		case scanner.EventWarning:
			printlnFn(fmt.Sprintf("🚨 Warning: %s may be a scam", e.Outcome.URL))
			for _, w := range e.Outcome.Warnings {
				printlnFn("   " + string(w))
			}
			printlnFn(fmt.Sprintf("   Run 'accept %s' to proceed anyway.", e.Outcome.URL))
		case scanner.EventUpgrade:
			printlnFn("⛔ " + e.Outcome.Message)
		}
	})
}

// Run starts the REPL on stdin. The prompt is shown only for a terminal.
func (c *CLI) Run(ctx context.Context) {
	interactive := false
	if f, ok := c.in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	if interactive {
		printlnFn("Welcome to phishguard (type 'help' for commands)")
	}
	runREPL(ctx, c, c.status, bufio.NewScanner(c.in), interactive)
}

// RunOnce executes a single command given on the command line.
func (c *CLI) RunOnce(ctx context.Context, args []string) error {
	_, err := dispatch(ctx, c, args)
	return err
}

func (c *CLI) status() string {
	if !c.tier.IsLowest() {
		return fmt.Sprintf("(%s)", c.tier)
	}
	used, limit, err := c.scanner.Quota(context.Background())
	if err != nil {
		return fmt.Sprintf("(%s)", c.tier)
	}
	return fmt.Sprintf("(%s %d/%d)", c.tier, used, limit)
}

func (c *CLI) Scan(ctx context.Context, url string) error {
	out, err := c.scanner.Scan(ctx, url)
	if errors.Is(err, common.ErrQuotaExceeded) {
		return nil
	}
	if err != nil {
		return err
	}
	printOutcome(out)
	return nil
}

func (c *CLI) Refresh(ctx context.Context) error {
	out, err := c.scanner.Refresh(ctx)
	if errors.Is(err, common.ErrNotFound) {
		printlnFn("Nothing to refresh yet; scan a URL first.")
		return nil
	}
	if errors.Is(err, common.ErrQuotaExceeded) {
		return nil
	}
	if err != nil {
		return err
	}
	printOutcome(out)
	return nil
}

func (c *CLI) Accept(ctx context.Context, url string) error {
	if err := c.scanner.AcceptRisk(ctx, url); err != nil {
		return err
	}
	printlnFn("Accepted for the next 24 hours:", url)
	return nil
}

func (c *CLI) Links(ctx context.Context, source, file, origin string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	verdicts, err := c.scanner.ScanLinks(ctx, scanner.LinkRequest{
		Source: scanner.LinkSource(source),
		Text:   string(data),
		Origin: origin,
	})
	if err != nil {
		return err
	}
	if len(verdicts) == 0 {
		printlnFn("No links found.")
		return nil
	}
	for _, v := range verdicts {
		mark := "✅"
		if v.Flagged {
			mark = "🚨"
		}
		line := fmt.Sprintf("%s %s", mark, v.URL)
		if v.Resolved != "" {
			line += " -> " + v.Resolved
		}
		printlnFn(line)
		for _, w := range v.Warnings {
			printlnFn("   " + string(w))
		}
	}
	return nil
}

func (c *CLI) History(ctx context.Context) error {
	data, err := c.scanner.History(ctx)
	if err != nil {
		return err
	}
	if data.CurrentSite.URL != "" {
		printlnFn(fmt.Sprintf("Current: %s (%s)", data.CurrentSite.URL, data.CurrentSite.Status))
	}
	printlnFn("Recent scans:")
	if len(data.RecentScans) == 0 {
		printlnFn("  (none)")
	}
	for _, r := range data.RecentScans {
		printlnFn(fmt.Sprintf("  %-10s %s  %s", r.Verdict, r.Domain, time.UnixMilli(r.Timestamp).Format("2006-01-02 15:04")))
	}
	if len(data.SuspiciousSites) > 0 {
		printlnFn("Suspicious sites: " + strings.Join(data.SuspiciousSites, ", "))
	}
	return nil
}

func (c *CLI) Quota(ctx context.Context) error {
	used, limit, err := c.scanner.Quota(ctx)
	if err != nil {
		return err
	}
	if !c.tier.IsLowest() {
		printlnFn(fmt.Sprintf("The %s plan has no monthly limit.", c.tier))
		return nil
	}
	printlnFn(fmt.Sprintf("%d of %d unique URLs scanned this month.", used, limit))
	return nil
}

func (c *CLI) Sweep(ctx context.Context) error {
	n, err := c.store.Sweep(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Removed %d expired cache entries.", n))
	return nil
}

func (c *CLI) ResetQuota(ctx context.Context) error {
	if err := c.scanner.ResetQuota(ctx); err != nil {
		return err
	}
	printlnFn("Monthly scan ledger cleared.")
	return nil
}

func (c *CLI) Wipe(ctx context.Context) error {
	if err := c.store.Wipe(ctx); err != nil {
		return err
	}
	printlnFn("All local scan data erased.")
	return nil
}

func (c *CLI) Features(context.Context) error {
	features := c.scanner.Features()
	if len(features) == 0 {
		printlnFn(fmt.Sprintf("The %s plan includes no checks.", c.tier))
		return nil
	}
	printlnFn(fmt.Sprintf("The %s plan includes:", c.tier))
	for _, f := range features {
		printlnFn("  " + string(f))
	}
	return nil
}

func printOutcome(o models.Outcome) {
	switch {
	case o.Reason == models.ReasonDegraded:
		printlnFn(fmt.Sprintf("⚠️  %s could not be fully checked; treat it as unsafe.", o.URL))
	case o.Verdict == models.VerdictSafe:
		printlnFn(fmt.Sprintf("✅ %s looks safe (%s).", o.URL, o.Reason))
	case o.Accepted:
		printlnFn(fmt.Sprintf("🚨 %s is flagged; you accepted the risk.", o.URL))
	default:
		printlnFn(fmt.Sprintf("🚨 %s is flagged as %s.", o.URL, o.Verdict))
	}
}
