// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	weights := cfg.Matching.ScoringConfig()
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/finvoice/reconcile-backend/internal/domain/bankcsv"
	"github.com/finvoice/reconcile-backend/internal/domain/matching"
	"github.com/finvoice/reconcile-backend/internal/domain/scoring"
)

// Config represents the entire application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Parser        ParserConfig        `yaml:"parser"`
	Matching      MatchingConfig      `yaml:"matching"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ParserConfig holds the CSV column-detection policy. Keyword sets and
// currency symbols are configurable so other locales can be supported
// without touching the parser.
type ParserConfig struct {
	DateKeywords        []string `yaml:"date_keywords"`
	AmountKeywords      []string `yaml:"amount_keywords"`
	DescriptionKeywords []string `yaml:"description_keywords"`
	ReferenceKeywords   []string `yaml:"reference_keywords"`
	CurrencySymbols     []string `yaml:"currency_symbols"`
}

// MatchingConfig holds scoring weights and ranking thresholds
type MatchingConfig struct {
	AmountWeight        int     `yaml:"amount_weight"`
	InvoiceNumberWeight int     `yaml:"invoice_number_weight"`
	ClientNameWeight    int     `yaml:"client_name_weight"`
	DateWeight          int     `yaml:"date_weight"`
	AmountTolerancePct  float64 `yaml:"amount_tolerance_pct"`
	HighCutoff          int     `yaml:"high_cutoff"`
	MediumCutoff        int     `yaml:"medium_cutoff"`
	LowCutoff           int     `yaml:"low_cutoff"`
	MaxSuggestions      int     `yaml:"max_suggestions"`
	AutoMatchScore      int     `yaml:"auto_match_score"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Policy converts the parser section to a bankcsv.Policy, falling back
// to the stock policy for any empty keyword set.
func (p ParserConfig) Policy() bankcsv.Policy {
	policy := bankcsv.DefaultPolicy()
	if len(p.DateKeywords) > 0 {
		policy.DateKeywords = p.DateKeywords
	}
	if len(p.AmountKeywords) > 0 {
		policy.AmountKeywords = p.AmountKeywords
	}
	if len(p.DescriptionKeywords) > 0 {
		policy.DescriptionKeywords = p.DescriptionKeywords
	}
	if len(p.ReferenceKeywords) > 0 {
		policy.ReferenceKeywords = p.ReferenceKeywords
	}
	if len(p.CurrencySymbols) > 0 {
		policy.CurrencySymbols = p.CurrencySymbols
	}
	return policy
}

// ScoringConfig converts the matching section to a scoring.Config,
// keeping stock values for anything unset.
func (m MatchingConfig) ScoringConfig() scoring.Config {
	cfg := scoring.DefaultConfig()
	if m.AmountWeight > 0 {
		cfg.AmountWeight = m.AmountWeight
	}
	if m.InvoiceNumberWeight > 0 {
		cfg.InvoiceNumberWeight = m.InvoiceNumberWeight
	}
	if m.ClientNameWeight > 0 {
		cfg.ClientNameWeight = m.ClientNameWeight
	}
	if m.DateWeight > 0 {
		cfg.DateWeight = m.DateWeight
	}
	if m.AmountTolerancePct > 0 {
		cfg.AmountTolerancePct = decimal.NewFromFloat(m.AmountTolerancePct)
	}
	if m.HighCutoff > 0 {
		cfg.HighCutoff = m.HighCutoff
	}
	if m.MediumCutoff > 0 {
		cfg.MediumCutoff = m.MediumCutoff
	}
	if m.LowCutoff > 0 {
		cfg.LowCutoff = m.LowCutoff
	}
	return cfg
}

// EngineConfig converts the matching section to a matching.Config.
func (m MatchingConfig) EngineConfig() matching.Config {
	cfg := matching.DefaultConfig()
	if m.LowCutoff > 0 {
		cfg.MinScore = m.LowCutoff
	}
	if m.MaxSuggestions > 0 {
		cfg.MaxSuggestions = m.MaxSuggestions
	}
	if m.AutoMatchScore > 0 {
		cfg.AutoMatchScore = m.AutoMatchScore
	}
	return cfg
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${RECONCILE_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnvInt("PORT", 8080),
			AllowedOrigins: splitEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("RECONCILE_DB_PATH", "reconcile.db"),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

// splitEnvList retrieves a comma-separated environment variable
func splitEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parts := strings.Split(val, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
