package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn and printFn are test seams for user-facing output.
var (
	printlnFn = fmt.Println
	printFn   = fmt.Print
)

// execIface is the command surface the REPL dispatches to. *CLI satisfies
// it; tests provide a lightweight stub.
type execIface interface {
	Scan(ctx context.Context, url string) error
	Refresh(ctx context.Context) error
	Accept(ctx context.Context, url string) error
	Links(ctx context.Context, source, file, origin string) error
	History(ctx context.Context) error
	Quota(ctx context.Context) error
	Features(ctx context.Context) error
	Sweep(ctx context.Context) error
	ResetQuota(ctx context.Context) error
	Wipe(ctx context.Context) error
}

const helpText = `Available commands:
  scan <url>                     check a URL
  refresh                        rescan the current site
  accept <url>                   proceed to a flagged URL for the next 24h
  links <email|feed> <file> [origin]
                                 check every link in a file
  history                        show recent and suspicious sites
  quota                          show monthly scan usage
  features                       list what the current plan includes
  sweep                          purge expired cache entries
  reset-quota                    clear the monthly scan ledger
  wipe                           erase all cached verdicts, history and quota
  exit | quit                    leave the program`

// dispatch runs one command line. It returns the command error, and quit is
// set when the user asked to leave.
func dispatch(ctx context.Context, a execIface, parts []string) (quit bool, err error) {
	cmd, args := parts[0], parts[1:]

	usage := func(u string) error {
		printlnFn("Usage:", u)
		return errUsage
	}

	switch cmd {
	case "help":
		printlnFn(helpText)
	case "scan":
		if len(args) != 1 {
			return false, usage("scan <url>")
		}
		return false, a.Scan(ctx, args[0])
	case "refresh":
		return false, a.Refresh(ctx)
	case "accept":
		if len(args) != 1 {
			return false, usage("accept <url>")
		}
		return false, a.Accept(ctx, args[0])
	case "links":
		if len(args) < 2 || len(args) > 3 {
			return false, usage("links <email|feed> <file> [origin]")
		}
		origin := ""
		if len(args) == 3 {
			origin = args[2]
		}
		return false, a.Links(ctx, args[0], args[1], origin)
	case "history":
		return false, a.History(ctx)
	case "quota":
		return false, a.Quota(ctx)
	case "features":
		return false, a.Features(ctx)
	case "sweep":
		return false, a.Sweep(ctx)
	case "reset-quota":
		return false, a.ResetQuota(ctx)
	case "wipe":
		return false, a.Wipe(ctx)
	case "exit", "quit":
		printlnFn("Bye!")
		return true, nil
	default:
		printlnFn("Unknown command:", cmd)
		return false, errUnknownCommand
	}
	return false, nil
}

// runREPL reads commands from scanner until EOF, "exit" or "quit". The
// prompt is only shown when interactive is set. Command errors are printed
// and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner, interactive bool) {
	for {
		if interactive {
			printFn(fmt.Sprintf("phishguard %s> ", statusFn()))
		}
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		quit, err := dispatch(ctx, a, parts)
		if quit {
			return
		}
		if err != nil && err != errUsage && err != errUnknownCommand {
			printlnFn("Error:", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}
