package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/phishguard/internal/common"
	"github.com/dmitrijs2005/phishguard/internal/policy"
)

const (
	WhoisAPI    = "api"
	WhoisDirect = "direct"
)

// Config holds runtime settings shared by the CLI and the HTTP server.
//
// StoreDSN selects the storage backend: a postgres:// URL uses PostgreSQL,
// anything else is a SQLite path (":memory:" for a throwaway store).
type Config struct {
	APIBaseURL      string
	StoreDSN        string
	Tier            string
	OracleTimeout   time.Duration
	OracleRate      float64
	OracleBurst     int
	SweepInterval   time.Duration
	TrustedFile     string
	WhoisMode       string
	RenderPages     bool
	ChromePath      string
	ReportEnabled   bool
	SlackWebhookURL string
	ListenAddr      string
	LogLevel        string
	LogFormat       string
	ClosestMatch    bool
	LinkConcurrency int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "https://api.scambuzzer.com"
	c.StoreDSN = "phishguard.db"
	c.Tier = "free"
	c.OracleTimeout = common.DefaultOracleTimeout
	c.OracleRate = 5
	c.OracleBurst = 5
	c.SweepInterval = time.Hour
	c.WhoisMode = WhoisAPI
	c.ReportEnabled = true
	c.ListenAddr = ":8080"
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.LinkConcurrency = 4
}

// LoadConfig constructs a Config, applies defaults, then overlays the dotenv
// file, the environment, JSON (if present) and command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	loadDotenv()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate checks values that cannot be caught while parsing.
func (c *Config) Validate() error {
	if _, err := policy.ParseTier(c.Tier); err != nil {
		return err
	}
	switch c.WhoisMode {
	case WhoisAPI, WhoisDirect:
	default:
		return fmt.Errorf("whois mode must be %q or %q, got %q", WhoisAPI, WhoisDirect, c.WhoisMode)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.LogFormat)
	}
	if c.OracleTimeout <= 0 {
		return fmt.Errorf("oracle timeout must be positive, got %s", c.OracleTimeout)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval)
	}
	return nil
}

// TierValue returns the parsed tier. Call Validate first.
func (c *Config) TierValue() policy.Tier {
	t, _ := policy.ParseTier(c.Tier)
	return t
}
