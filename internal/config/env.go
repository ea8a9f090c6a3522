package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/phishguard/internal/flagx"
	"github.com/joho/godotenv"
)

const envPrefix = "PHISHGUARD_"

// loadDotenv loads the file named by -env (default ".env") into the process
// environment. A missing file is not an error.
func loadDotenv() {
	path := flagx.EnvFileFlag()
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Errorf("load %s: %w", path, err))
	}
}

// parseEnv overlays Config with PHISHGUARD_* variables. Malformed numbers,
// booleans or durations panic, like malformed flags.
func parseEnv(cfg *Config) {
	envString("API_BASE_URL", &cfg.APIBaseURL)
	envString("STORE_DSN", &cfg.StoreDSN)
	envString("TIER", &cfg.Tier)
	envDuration("ORACLE_TIMEOUT", &cfg.OracleTimeout)
	envParsed("ORACLE_RATE", &cfg.OracleRate, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
	envParsed("ORACLE_BURST", &cfg.OracleBurst, strconv.Atoi)
	envDuration("SWEEP_INTERVAL", &cfg.SweepInterval)
	envString("TRUSTED_FILE", &cfg.TrustedFile)
	envString("WHOIS_MODE", &cfg.WhoisMode)
	envParsed("RENDER_PAGES", &cfg.RenderPages, strconv.ParseBool)
	envString("CHROME_PATH", &cfg.ChromePath)
	envParsed("REPORT_ENABLED", &cfg.ReportEnabled, strconv.ParseBool)
	envString("SLACK_WEBHOOK_URL", &cfg.SlackWebhookURL)
	envString("LISTEN_ADDR", &cfg.ListenAddr)
	envString("LOG_LEVEL", &cfg.LogLevel)
	envString("LOG_FORMAT", &cfg.LogFormat)
	envParsed("CLOSEST_MATCH", &cfg.ClosestMatch, strconv.ParseBool)
	envParsed("LINK_CONCURRENCY", &cfg.LinkConcurrency, strconv.Atoi)
}

func envString(name string, dst *string) {
	if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
		*dst = v
	}
}

func envDuration(name string, dst *time.Duration) {
	envParsed(name, dst, time.ParseDuration)
}

func envParsed[T any](name string, dst *T, parse func(string) (T, error)) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || v == "" {
		return
	}
	parsed, err := parse(v)
	if err != nil {
		panic(fmt.Errorf("%s%s: %w", envPrefix, name, err))
	}
	*dst = parsed
}
