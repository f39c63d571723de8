package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
importers:
  alipay:
    account: "Assets:Alipay"
    currency: "CNY"
  wechat_hk:
    account: "Assets:WeChatHK"
    currency: "HKD"
  cmb_credit:
    account: "Liabilities:CreditCard:CMB"
    card_suffix: "1234"
  jd:
    account: "Assets:JD"
    orders_file: "exports/jd_orders.json"
matching:
  date_tolerance_days: 5
  fuzzy_threshold: 0.8
  amount_epsilon: "0.02"
  platform_priority: [jd, alipay, wechat]
  adjacency_rules:
    - name: wechat-cmb
      platform: wechat
      method_pattern: 招商银行
      settles_via: cmb-credit
rates:
  static:
    HKD/CNY: "0.9150"
ledger:
  output_path: "importers/march.bean"
  default_currency: "CNY"
storage:
  database_path: "ledgerlink.db"
observability:
  logging:
    level: debug
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "Assets:Alipay", cfg.Importers.Alipay.Account)
	assert.Equal(t, "HKD", cfg.Importers.WechatHK.Currency)
	assert.Equal(t, "1234", cfg.Importers.CMBCredit.CardSuffix)
	assert.Equal(t, "exports/jd_orders.json", cfg.Importers.JD.OrdersFile)
	require.NotNil(t, cfg.Matching.DateToleranceDays)
	assert.Equal(t, 5, *cfg.Matching.DateToleranceDays)
	require.NotNil(t, cfg.Matching.FuzzyThreshold)
	assert.Equal(t, 0.8, *cfg.Matching.FuzzyThreshold)
	assert.Equal(t, "0.02", cfg.Matching.AmountEpsilon)
	assert.Equal(t, []string{"jd", "alipay", "wechat"}, cfg.Matching.PlatformPriority)
	require.Len(t, cfg.Matching.AdjacencyRules, 1)
	assert.Equal(t, "wechat-cmb", cfg.Matching.AdjacencyRules[0].Name)
	assert.Equal(t, "cmb-credit", cfg.Matching.AdjacencyRules[0].SettlesVia)
	assert.Equal(t, "0.9150", cfg.Rates.Static["HKD/CNY"])
	assert.Equal(t, "importers/march.bean", cfg.Ledger.OutputPath)
	assert.Equal(t, "ledgerlink.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("storage:\n  database_path: x.db\n"), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	require.NotNil(t, cfg.Matching.DateToleranceDays)
	assert.Equal(t, 3, *cfg.Matching.DateToleranceDays)
	require.NotNil(t, cfg.Matching.FuzzyThreshold)
	assert.Equal(t, 0.7, *cfg.Matching.FuzzyThreshold)
	assert.Equal(t, "0.01", cfg.Matching.AmountEpsilon)
	assert.Equal(t, "CNY", cfg.Ledger.DefaultCurrency)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
}

func TestLoad_ExplicitZeroSurvivesDefaults(t *testing.T) {
	// Same-day-only matching is a valid configuration and must not be
	// rewritten to the defaults.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	content := "matching:\n  date_tolerance_days: 0\n  fuzzy_threshold: 0\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	require.NotNil(t, cfg.Matching.DateToleranceDays)
	assert.Equal(t, 0, *cfg.Matching.DateToleranceDays)
	require.NotNil(t, cfg.Matching.FuzzyThreshold)
	assert.Equal(t, 0.0, *cfg.Matching.FuzzyThreshold)
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("LEDGERLINK_DB_PATH", "test.db")
	os.Setenv("LEDGERLINK_DATE_TOLERANCE_DAYS", "7")
	os.Setenv("LEDGERLINK_FUZZY_THRESHOLD", "0.85")
	defer func() {
		os.Unsetenv("LEDGERLINK_DB_PATH")
		os.Unsetenv("LEDGERLINK_DATE_TOLERANCE_DAYS")
		os.Unsetenv("LEDGERLINK_FUZZY_THRESHOLD")
	}()

	cfg := LoadFromEnv()
	assert.Equal(t, "test.db", cfg.Storage.DatabasePath)
	require.NotNil(t, cfg.Matching.DateToleranceDays)
	assert.Equal(t, 7, *cfg.Matching.DateToleranceDays)
	require.NotNil(t, cfg.Matching.FuzzyThreshold)
	assert.Equal(t, 0.85, *cfg.Matching.FuzzyThreshold)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	os.Unsetenv("LEDGERLINK_DATE_TOLERANCE_DAYS")
	os.Unsetenv("LEDGERLINK_FUZZY_THRESHOLD")

	cfg := LoadFromEnv()
	require.NotNil(t, cfg.Matching.DateToleranceDays)
	assert.Equal(t, 3, *cfg.Matching.DateToleranceDays)
	require.NotNil(t, cfg.Matching.FuzzyThreshold)
	assert.Equal(t, 0.7, *cfg.Matching.FuzzyThreshold)
	assert.Equal(t, "CNY", cfg.Ledger.DefaultCurrency)
}

func TestLoadOrEnv_FallbackToEnv(t *testing.T) {
	os.Setenv("LEDGERLINK_DB_PATH", "fallback.db")
	defer os.Unsetenv("LEDGERLINK_DB_PATH")

	cfg := LoadOrEnvWithPath("nonexistent.yaml")
	assert.NotNil(t, cfg)
	assert.Equal(t, "fallback.db", cfg.Storage.DatabasePath)
}

func TestEnvVarExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  database_path: "${TEST_LL_DB_PATH}"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	os.Setenv("TEST_LL_DB_PATH", "expanded.db")
	defer os.Unsetenv("TEST_LL_DB_PATH")

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "expanded.db", cfg.Storage.DatabasePath)
}
