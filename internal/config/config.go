// Package config loads gateway settings from the environment and an
// optional YAML file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every process-level setting. Credential resolution is the
// operator's concern; this package only reads what it is given.
type Config struct {
	LogLevel   string `mapstructure:"log_level"`
	ListenAddr string `mapstructure:"listen_addr"`

	// PostgresDSN connects the protected database. Empty disables the
	// database surface.
	PostgresDSN string `mapstructure:"postgres_dsn"`

	// ManagementAPIURL and ManagementAPIToken configure the management-API
	// client. An empty token disables the API surface.
	ManagementAPIURL   string `mapstructure:"management_api_url"`
	ManagementAPIToken string `mapstructure:"management_api_token"`

	// ClickHouseDSN enables the audit sink; empty falls back to log output.
	ClickHouseDSN string `mapstructure:"clickhouse_dsn"`

	// APIKeyHash is the bcrypt hash callers of the gateway itself must
	// match. Empty disables caller authentication (development only).
	APIKeyHash string `mapstructure:"api_key_hash"`

	// LedgerTable overrides the migration ledger target.
	LedgerTable string `mapstructure:"ledger_table"`
}

// Load reads configuration with the precedence env > file > defaults.
// configFile may be empty.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")
	v.SetDefault("listen_addr", ":8085")
	v.SetDefault("management_api_url", "https://api.supabase.com")
	v.SetDefault("ledger_table", "")

	v.SetEnvPrefix("QUERYGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{
		"log_level", "listen_addr", "postgres_dsn",
		"management_api_url", "management_api_token",
		"clickhouse_dsn", "api_key_hash", "ledger_table",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
