package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/phishguard/internal/flagx"
)

var (
	valueFlags = []string{"-a", "-b", "-d", "-t", "-o", "-r", "-n", "-w", "-f", "-m", "-x", "-s", "-l", "-g", "-j"}
	boolFlags  = []string{"-p", "-k", "-q"}
)

// ValueFlags lists every flag that takes a separate value argument,
// including the config and dotenv file flags. The CLI passes them to
// flagx.Positional to find its one-shot command.
func ValueFlags() []string {
	return append(append([]string{}, valueFlags...), "-c", "-config", "-env")
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP listen address
//	-b string   reputation API base URL
//	-d string   store DSN (SQLite path or postgres:// URL)
//	-t string   subscription tier (free, monthly, plus)
//	-o int      oracle call timeout (seconds)
//	-r float    oracle requests per second (0 disables limiting)
//	-n int      oracle burst
//	-w int      cache sweep interval (minutes)
//	-f string   trusted domain list file
//	-m string   whois mode (api, direct)
//	-p          render pages with headless Chrome
//	-x string   Chrome executable path
//	-k          report malicious verdicts to the backend
//	-s string   Slack webhook URL
//	-l string   log level
//	-g string   log format (text, json)
//	-q          use the closest typosquatting match instead of the first
//	-j int      concurrent link scans
//
// Bool flags must be written as -p or -p=false; a separate value is not read.
func parseFlags(cfg *Config) {
	args := append(flagx.FilterArgs(os.Args[1:], valueFlags), flagx.FilterBoolArgs(os.Args[1:], boolFlags)...)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ListenAddr, "a", cfg.ListenAddr, "HTTP listen address")
	fs.StringVar(&cfg.APIBaseURL, "b", cfg.APIBaseURL, "reputation API base URL")
	fs.StringVar(&cfg.StoreDSN, "d", cfg.StoreDSN, "store DSN")
	fs.StringVar(&cfg.Tier, "t", cfg.Tier, "subscription tier")
	oracleTimeout := fs.Int("o", int(cfg.OracleTimeout.Seconds()), "oracle timeout (in seconds)")
	fs.Float64Var(&cfg.OracleRate, "r", cfg.OracleRate, "oracle requests per second")
	fs.IntVar(&cfg.OracleBurst, "n", cfg.OracleBurst, "oracle burst")
	sweepInterval := fs.Int("w", int(cfg.SweepInterval.Minutes()), "cache sweep interval (in minutes)")
	fs.StringVar(&cfg.TrustedFile, "f", cfg.TrustedFile, "trusted domain list file")
	fs.StringVar(&cfg.WhoisMode, "m", cfg.WhoisMode, "whois mode (api, direct)")
	fs.BoolVar(&cfg.RenderPages, "p", cfg.RenderPages, "render pages with headless Chrome")
	fs.StringVar(&cfg.ChromePath, "x", cfg.ChromePath, "Chrome executable path")
	fs.BoolVar(&cfg.ReportEnabled, "k", cfg.ReportEnabled, "report malicious verdicts")
	fs.StringVar(&cfg.SlackWebhookURL, "s", cfg.SlackWebhookURL, "Slack webhook URL")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "g", cfg.LogFormat, "log format (text, json)")
	fs.BoolVar(&cfg.ClosestMatch, "q", cfg.ClosestMatch, "closest typosquatting match")
	fs.IntVar(&cfg.LinkConcurrency, "j", cfg.LinkConcurrency, "concurrent link scans")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			cfg.OracleTimeout = time.Duration(*oracleTimeout) * time.Second
		case "w":
			cfg.SweepInterval = time.Duration(*sweepInterval) * time.Minute
		}
	})
}
