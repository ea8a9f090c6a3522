// Package config loads runtime configuration for the phishguard CLI and
// HTTP server.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A dotenv file (default ".env", override with -env) loaded into the
//     process environment without replacing variables that are already set.
//  3. PHISHGUARD_* environment variables (see parseEnv).
//  4. Optional JSON file selected via -c or -config (see parseJson).
//  5. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
// Durations use timex.Duration, so they may be strings like "4s" or integer
// nanoseconds. Omitted keys keep their earlier value.
//
//	{
//	  "api_base_url": "https://api.scambuzzer.com",
//	  "store_dsn": "phishguard.db",
//	  "tier": "free",
//	  "oracle_timeout": "4s",
//	  "oracle_rate": 5,
//	  "oracle_burst": 5,
//	  "sweep_interval": "1h",
//	  "trusted_file": "",
//	  "whois_mode": "api",
//	  "render_pages": false,
//	  "chrome_path": "",
//	  "report_enabled": true,
//	  "slack_webhook_url": "",
//	  "listen_addr": ":8080",
//	  "log_level": "info",
//	  "log_format": "text",
//	  "closest_match": false,
//	  "link_concurrency": 4
//	}
package config
