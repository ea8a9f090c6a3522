package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/phishguard/internal/flagx"
	"github.com/dmitrijs2005/phishguard/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer fields
// distinguish "absent" from the zero value.
type JsonConfig struct {
	APIBaseURL      string          `json:"api_base_url"`
	StoreDSN        string          `json:"store_dsn"`
	Tier            string          `json:"tier"`
	OracleTimeout   *timex.Duration `json:"oracle_timeout"`
	OracleRate      *float64        `json:"oracle_rate"`
	OracleBurst     *int            `json:"oracle_burst"`
	SweepInterval   *timex.Duration `json:"sweep_interval"`
	TrustedFile     string          `json:"trusted_file"`
	WhoisMode       string          `json:"whois_mode"`
	RenderPages     *bool           `json:"render_pages"`
	ChromePath      string          `json:"chrome_path"`
	ReportEnabled   *bool           `json:"report_enabled"`
	SlackWebhookURL string          `json:"slack_webhook_url"`
	ListenAddr      string          `json:"listen_addr"`
	LogLevel        string          `json:"log_level"`
	LogFormat       string          `json:"log_format"`
	ClosestMatch    *bool           `json:"closest_match"`
	LinkConcurrency *int            `json:"link_concurrency"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag it does nothing. Read or unmarshal
// errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.StoreDSN, jc.StoreDSN)
	setString(&cfg.Tier, jc.Tier)
	setString(&cfg.TrustedFile, jc.TrustedFile)
	setString(&cfg.WhoisMode, jc.WhoisMode)
	setString(&cfg.ChromePath, jc.ChromePath)
	setString(&cfg.SlackWebhookURL, jc.SlackWebhookURL)
	setString(&cfg.ListenAddr, jc.ListenAddr)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)

	if jc.OracleTimeout != nil {
		cfg.OracleTimeout = jc.OracleTimeout.Duration
	}
	if jc.SweepInterval != nil {
		cfg.SweepInterval = jc.SweepInterval.Duration
	}
	setPtr(&cfg.OracleRate, jc.OracleRate)
	setPtr(&cfg.OracleBurst, jc.OracleBurst)
	setPtr(&cfg.RenderPages, jc.RenderPages)
	setPtr(&cfg.ReportEnabled, jc.ReportEnabled)
	setPtr(&cfg.ClosestMatch, jc.ClosestMatch)
	setPtr(&cfg.LinkConcurrency, jc.LinkConcurrency)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setPtr[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
