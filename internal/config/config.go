// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	Port   string
	DBPath string

	// Language model.
	OpenAIBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string

	// Chain access. RPCURL and AgentPrivateKey may be left empty; the routes
	// that need them report a configuration error instead of failing boot.
	RPCURL          string
	AgentPrivateKey string
	ChainID         int64
	Network         string
	SafeServiceURL  string

	HistoryLimit int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8090"),
		DBPath:          getEnv("DB_PATH", "safepilot.db"),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		RPCURL:          getEnv("RPC_URL", ""),
		AgentPrivateKey: getEnv("AGENT_PRIVATE_KEY", ""),
		ChainID:         getEnvInt64("CHAIN_ID", 8453),
		Network:         getEnv("NETWORK", "base"),
		SafeServiceURL:  getEnv("SAFE_SERVICE_URL", "https://safe-transaction-base.safe.global"),
		HistoryLimit:    int(getEnvInt64("HISTORY_LIMIT", 10)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the fields every request depends on are set.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.ChainID <= 0 {
		return fmt.Errorf("CHAIN_ID must be positive, got %d", c.ChainID)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be positive, got %d", c.HistoryLimit)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
