package matching

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liuming-dev/ledgerlink/internal/domain/model"
)

// Helper to create test transactions with sensible defaults
func makeTx(id string, platform model.Platform, amount string, date time.Time) model.Transaction {
	return model.Transaction{
		ID:             id,
		SourcePlatform: platform,
		SourceAccount:  "Assets:" + string(platform),
		PostedAt:       date,
		Amount:         decimal.RequireFromString(amount),
		Currency:       "CNY",
		Counterparty:   "星巴克",
		Narration:      "咖啡",
		Direction:      model.DirectionExpense,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// testRates returns a fixed deterministic rate table for cross-currency tests
func testRates(rates map[string]string) RateLookup {
	return func(from, to string) (decimal.Decimal, bool) {
		if r, ok := rates[from+"/"+to]; ok {
			return decimal.RequireFromString(r), true
		}
		return decimal.Decimal{}, false
	}
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	engine, err := New(cfg, nil)
	require.NoError(t, err)
	return engine
}

func TestEngine_ReferenceScenario(t *testing.T) {
	// Arrange - Alipay outflow and CMB inflow sharing a platform reference
	engine := newTestEngine(t, DefaultConfig())

	alipay := makeTx("a1", model.PlatformAlipay, "-50.00", day(2024, 1, 1))
	alipay.ReferenceID = "2024010112345"
	cmb := makeTx("b1", model.PlatformCMBCredit, "50.00", day(2024, 1, 1))
	cmb.ReferenceID = "2024010112345"

	// Act
	result := engine.Run([]model.Transaction{alipay, cmb})

	// Assert - one group with an exact_reference link
	require.Len(t, result.Groups, 1)
	require.Len(t, result.Groups[0].Links, 1)
	assert.Equal(t, PhaseReference, result.Groups[0].Links[0].Phase)
	assert.Equal(t, "exact_reference", result.Groups[0].Links[0].Reason)
	assert.Empty(t, result.Ambiguities)
}

func TestEngine_IntermediaryScenario(t *testing.T) {
	// Arrange - WeChat outflow funded by a CMB credit card, charge one day later
	cfg := DefaultConfig()
	cfg.DateToleranceDays = 1
	cfg.AdjacencyRules = []AdjacencyRule{
		{Name: "wechat-cmb", Platform: model.PlatformWechat, MethodPattern: "招商银行", SettlesVia: model.PlatformCMBCredit},
	}
	engine := newTestEngine(t, cfg)

	wechat := makeTx("w1", model.PlatformWechat, "-100.00", day(2024, 1, 5))
	wechat.PaymentMethod = "招商银行信用卡(1234)"
	charge := makeTx("c1", model.PlatformCMBCredit, "-100.00", day(2024, 1, 6))
	charge.Counterparty = "财付通-美团"

	// Act
	result := engine.Run([]model.Transaction{wechat, charge})

	// Assert
	require.Len(t, result.Groups, 1)
	require.Len(t, result.Groups[0].Links, 1)
	assert.Equal(t, PhaseIntermediary, result.Groups[0].Links[0].Phase)
	assert.Equal(t, "intermediary:wechat-cmb", result.Groups[0].Links[0].Reason)
}

func TestEngine_FuzzyCrossCurrencyScenario(t *testing.T) {
	// Arrange - WeChat HK outflow in HKD against a CMB debit charge in CNY,
	// same day, similar merchant text, correct conversion rate configured
	cfg := DefaultConfig()
	cfg.Rates = testRates(map[string]string{
		"HKD/CNY": "0.856",
		"CNY/HKD": "1.1682243",
	})
	engine := newTestEngine(t, cfg)

	hk := makeTx("h1", model.PlatformWechatHK, "-100.00", day(2024, 2, 1))
	hk.Currency = "HKD"
	hk.Counterparty = "ABC Store"
	hk.Narration = ""
	cny := makeTx("d1", model.PlatformCMBDebit, "-85.60", day(2024, 2, 1))
	cny.Counterparty = "ABC STORE HK"
	cny.Narration = ""

	// Act
	result := engine.Run([]model.Transaction{hk, cny})

	// Assert
	require.Len(t, result.Groups, 1)
	require.Len(t, result.Groups[0].Links, 1)
	assert.Equal(t, PhaseFuzzy, result.Groups[0].Links[0].Phase)
	assert.Contains(t, result.Groups[0].Links[0].Reason, "fuzzy:")
}

func TestEngine_UnrelatedSameAmountStaysUnmatched(t *testing.T) {
	// Arrange - same amount and date but unrelated merchants
	engine := newTestEngine(t, DefaultConfig())

	tx1 := makeTx("u1", model.PlatformAlipay, "-200.00", day(2024, 3, 1))
	tx1.Counterparty = "Blue Bottle Coffee"
	tx1.Narration = ""
	tx2 := makeTx("u2", model.PlatformCMBDebit, "-200.00", day(2024, 3, 1))
	tx2.Counterparty = "Shell Gas Station"
	tx2.Narration = ""

	// Act
	result := engine.Run([]model.Transaction{tx1, tx2})

	// Assert - both remain singletons
	require.Len(t, result.Groups, 2)
	assert.Empty(t, result.Groups[0].Links)
	assert.Empty(t, result.Groups[1].Links)
}

func TestEngine_PhasePrecedence(t *testing.T) {
	// A pair qualifying for both exact reference and fuzzy criteria must be
	// matched by phase 1 and never re-evaluated by phase 3
	engine := newTestEngine(t, DefaultConfig())

	a := makeTx("p1", model.PlatformAlipay, "-35.00", day(2024, 1, 15))
	a.ReferenceID = "REF001"
	b := makeTx("p2", model.PlatformCMBCredit, "-35.00", day(2024, 1, 15))
	b.ReferenceID = "REF001"

	result := engine.Run([]model.Transaction{a, b})

	require.Len(t, result.Groups, 1)
	require.Len(t, result.Groups[0].Links, 1)
	assert.Equal(t, PhaseReference, result.Groups[0].Links[0].Phase)
}

func TestEngine_Determinism(t *testing.T) {
	// Arrange - a pool exercising all three phases
	cfg := DefaultConfig()
	cfg.AdjacencyRules = []AdjacencyRule{
		{Name: "alipay-cmb", Platform: model.PlatformAlipay, MethodPattern: "招商银行", SettlesVia: model.PlatformCMBCredit},
	}
	engine := newTestEngine(t, cfg)

	pool := []model.Transaction{}
	ref1 := makeTx("r1", model.PlatformAlipay, "-10.00", day(2024, 1, 1))
	ref1.ReferenceID = "X1"
	ref2 := makeTx("r2", model.PlatformCMBCredit, "10.00", day(2024, 1, 1))
	ref2.ReferenceID = "X1"
	mid1 := makeTx("m1", model.PlatformAlipay, "-45.50", day(2024, 1, 3))
	mid1.PaymentMethod = "招商银行信用卡(尾号1234)"
	mid2 := makeTx("m2", model.PlatformCMBCredit, "-45.50", day(2024, 1, 3))
	fz1 := makeTx("f1", model.PlatformWechat, "-88.00", day(2024, 1, 5))
	fz2 := makeTx("f2", model.PlatformCMBDebit, "-88.00", day(2024, 1, 5))
	single := makeTx("s1", model.PlatformJD, "-999.00", day(2024, 1, 9))
	pool = append(pool, ref1, ref2, mid1, mid2, fz1, fz2, single)

	// Act - run twice on the same input
	first := engine.Run(pool)
	second := engine.Run(pool)

	// Assert - identical groups, identical ordering
	assert.Equal(t, first, second)
}

func TestEngine_Conservation(t *testing.T) {
	// The union of all records across output groups equals the input pool
	cfg := DefaultConfig()
	cfg.AdjacencyRules = []AdjacencyRule{
		{Name: "alipay-cmb", Platform: model.PlatformAlipay, MethodPattern: "招商银行", SettlesVia: model.PlatformCMBCredit},
	}
	engine := newTestEngine(t, cfg)

	ids := []string{"c1", "c2", "c3", "c4", "c5"}
	pool := []model.Transaction{
		makeTx("c1", model.PlatformAlipay, "-10.00", day(2024, 1, 1)),
		makeTx("c2", model.PlatformCMBCredit, "-10.00", day(2024, 1, 1)),
		makeTx("c3", model.PlatformWechat, "-20.00", day(2024, 1, 2)),
		makeTx("c4", model.PlatformJD, "-30.00", day(2024, 1, 3)),
		makeTx("c5", model.PlatformCMBDebit, "-40.00", day(2024, 1, 4)),
	}

	result := engine.Run(pool)

	seen := map[string]int{}
	for _, g := range result.Groups {
		for _, rec := range g.Records() {
			seen[rec.ID]++
		}
	}
	for _, id := range ids {
		assert.Equal(t, 1, seen[id], "record %s must appear exactly once", id)
	}
	assert.Len(t, seen, len(ids))
}

func TestEngine_MalformedRecordRejected(t *testing.T) {
	// A record missing its currency is rejected per-record, not fatally
	engine := newTestEngine(t, DefaultConfig())

	bad := makeTx("bad1", model.PlatformAlipay, "-10.00", day(2024, 1, 1))
	bad.Currency = ""
	good := makeTx("good1", model.PlatformWechat, "-20.00", day(2024, 1, 1))

	result := engine.Run([]model.Transaction{bad, good})

	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "bad1", result.Rejected[0].RecordID)
	assert.Equal(t, "missing currency", result.Rejected[0].Reason)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, "good1", result.Groups[0].Canonical.ID)
}

func TestEngine_ConfigErrors(t *testing.T) {
	// Invalid configuration aborts at engine construction, naming the key
	cases := []struct {
		name string
		cfg  Config
		key  string
	}{
		{"negative tolerance", Config{DateToleranceDays: -1, FuzzyThreshold: 0.7}, "date_tolerance_days"},
		{"threshold above one", Config{DateToleranceDays: 3, FuzzyThreshold: 1.5}, "fuzzy_threshold"},
		{"rule without name", Config{DateToleranceDays: 3, FuzzyThreshold: 0.7, AdjacencyRules: []AdjacencyRule{{Platform: "alipay", MethodPattern: "x", SettlesVia: "cmb-credit"}}}, "adjacency_rules[0].name"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg, nil)
			require.Error(t, err)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.key, cfgErr.Key)
		})
	}
}

func TestEngine_InputNotMutated(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	a := makeTx("i1", model.PlatformAlipay, "-50.00", day(2024, 1, 1))
	a.ReferenceID = "SAME"
	b := makeTx("i2", model.PlatformCMBCredit, "50.00", day(2024, 1, 1))
	b.ReferenceID = "SAME"
	pool := []model.Transaction{a, b}

	_ = engine.Run(pool)

	assert.Equal(t, "i1", pool[0].ID)
	assert.Equal(t, "i2", pool[1].ID)
	assert.Nil(t, pool[0].Raw)
}
