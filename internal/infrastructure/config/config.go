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
//	tolerance := cfg.Matching.DateToleranceDays
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Importers     ImportersConfig     `yaml:"importers"`
	Matching      MatchingConfig      `yaml:"matching"`
	Rates         RatesConfig         `yaml:"rates"`
	Ledger        LedgerConfig        `yaml:"ledger"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// AccountConfig holds the ledger account and currency for one platform
type AccountConfig struct {
	Account  string `yaml:"account"`
	Currency string `yaml:"currency"`
}

// ImportersConfig holds per-platform importer settings
type ImportersConfig struct {
	Alipay    AccountConfig   `yaml:"alipay"`
	Wechat    AccountConfig   `yaml:"wechat"`
	WechatHK  AccountConfig   `yaml:"wechat_hk"`
	CMBCredit CMBCreditConfig `yaml:"cmb_credit"`
	CMBDebit  AccountConfig   `yaml:"cmb_debit"`
	JD        JDConfig        `yaml:"jd"`
	Aldi      AccountConfig   `yaml:"aldi"`
	Costco    AccountConfig   `yaml:"costco"`
}

// CMBCreditConfig holds CMB credit card settings
type CMBCreditConfig struct {
	Account    string `yaml:"account"`
	Currency   string `yaml:"currency"`
	CardSuffix string `yaml:"card_suffix"`
}

// JDConfig holds JD settings; OrdersFile optionally points at the orders JSON
// export used to itemize transactions
type JDConfig struct {
	Account    string `yaml:"account"`
	Currency   string `yaml:"currency"`
	OrdersFile string `yaml:"orders_file"`
}

// AdjacencyRuleConfig declares that transactions on Platform whose payment
// method contains MethodPattern settle through SettlesVia
type AdjacencyRuleConfig struct {
	Name          string `yaml:"name"`
	Platform      string `yaml:"platform"`
	MethodPattern string `yaml:"method_pattern"`
	SettlesVia    string `yaml:"settles_via"`
}

// MatchingConfig holds the matching engine knobs. The numeric knobs are
// pointers because an explicit zero is a valid setting and must survive
// defaulting; nil means the key was absent.
type MatchingConfig struct {
	DateToleranceDays *int                  `yaml:"date_tolerance_days"`
	FuzzyThreshold    *float64              `yaml:"fuzzy_threshold"`
	AmountEpsilon     string                `yaml:"amount_epsilon"`
	PlatformPriority  []string              `yaml:"platform_priority"`
	AdjacencyRules    []AdjacencyRuleConfig `yaml:"adjacency_rules"`
}

// RatesConfig holds currency rate sources. Static pairs look like
// "HKD/CNY": "0.9150"; URL optionally points at a JSON rate document
type RatesConfig struct {
	Static map[string]string `yaml:"static"`
	URL    string            `yaml:"url"`
}

// LedgerConfig holds output settings
type LedgerConfig struct {
	OutputPath      string `yaml:"output_path"`
	Directory       string `yaml:"directory"`
	DefaultCurrency string `yaml:"default_currency"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
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

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${LEDGERLINK_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{
		Matching: MatchingConfig{
			DateToleranceDays: intPtr(getEnvInt("LEDGERLINK_DATE_TOLERANCE_DAYS", 3)),
			FuzzyThreshold:    floatPtr(getEnvFloat("LEDGERLINK_FUZZY_THRESHOLD", 0.7)),
			AmountEpsilon:     getEnv("LEDGERLINK_AMOUNT_EPSILON", "0.01"),
		},
		Ledger: LedgerConfig{
			OutputPath:      getEnv("LEDGERLINK_OUTPUT", "importers/imported.bean"),
			Directory:       getEnv("LEDGERLINK_LEDGER_DIR", "."),
			DefaultCurrency: getEnv("LEDGERLINK_CURRENCY", "CNY"),
		},
		Storage: StorageConfig{
			DatabasePath: os.Getenv("LEDGERLINK_DB_PATH"),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from the specified path, falls back to
// environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// applyDefaults fills zero values with the documented defaults
func (c *Config) applyDefaults() {
	if c.Matching.DateToleranceDays == nil {
		c.Matching.DateToleranceDays = intPtr(3)
	}
	if c.Matching.FuzzyThreshold == nil {
		c.Matching.FuzzyThreshold = floatPtr(0.7)
	}
	if c.Matching.AmountEpsilon == "" {
		c.Matching.AmountEpsilon = "0.01"
	}
	if c.Ledger.DefaultCurrency == "" {
		c.Ledger.DefaultCurrency = "CNY"
	}
	if c.Ledger.OutputPath == "" {
		c.Ledger.OutputPath = "importers/imported.bean"
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

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

// getEnvFloat retrieves a float environment variable with a fallback default
func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		var result float64
		if _, err := fmt.Sscanf(val, "%g", &result); err == nil {
			return result
		}
	}
	return fallback
}
