package matching

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liuming-dev/ledgerlink/internal/domain/model"
)

func TestMerchantSimilarity(t *testing.T) {
	cases := []struct {
		a, b string
		min  float64
		max  float64
	}{
		{"ABC Store", "ABC STORE", 1.0, 1.0},
		{"ABC Store", "abc  store.", 1.0, 1.0},
		{"Store ABC", "ABC Store", 1.0, 1.0}, // word order ignored
		{"ABC Store", "ABC STORE HK", 0.7, 0.9},
		{"星巴克", "星巴克咖啡", 0.5, 0.8},
		{"Blue Bottle Coffee", "Shell Gas Station", 0.0, 0.4},
		{"KFC", "星巴克", 0.0, 0.0}, // nothing shared, never below zero
		{"", "anything", 0.0, 0.0},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s_vs_%s", tc.a, tc.b), func(t *testing.T) {
			got := merchantSimilarity(tc.a, tc.b)
			assert.GreaterOrEqual(t, got, tc.min)
			assert.LessOrEqual(t, got, tc.max)
		})
	}
}

func TestFuzzy_ExactAmountOutscoresNearAmount(t *testing.T) {
	// Two candidates with identical merchants; the exact-amount one wins
	engine := newTestEngine(t, DefaultConfig())

	base := makeTx("base", model.PlatformWechatHK, "-50.00", day(2024, 3, 1))
	base.Counterparty = "Star Cafe"
	base.Narration = ""
	base.Currency = "CNY"
	exact := makeTx("exact", model.PlatformCMBDebit, "-50.00", day(2024, 3, 1))
	exact.Counterparty = "Star Cafe"
	exact.Narration = ""
	near := makeTx("near", model.PlatformCMBCredit, "-50.01", day(2024, 3, 1))
	near.Counterparty = "Star Cafe"
	near.Narration = ""

	result := engine.Run([]model.Transaction{base, exact, near})

	// base pairs with exact; near stays a singleton or pairs later
	var baseGroup *MatchGroup
	for i := range result.Groups {
		for _, rec := range result.Groups[i].Records() {
			if rec.ID == "base" {
				baseGroup = &result.Groups[i]
			}
		}
	}
	require.NotNil(t, baseGroup)
	require.Len(t, baseGroup.Links, 1)
	ids := []string{baseGroup.Canonical.ID, baseGroup.Links[0].Record.ID}
	assert.Contains(t, ids, "exact")
}

func TestFuzzy_BelowThresholdUnmatched(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FuzzyThreshold = 0.9
	engine := newTestEngine(t, cfg)

	a := makeTx("a", model.PlatformAlipay, "-75.00", day(2024, 3, 5))
	a.Counterparty = "Corner Bakery"
	a.Narration = ""
	b := makeTx("b", model.PlatformCMBDebit, "-75.00", day(2024, 3, 7))
	b.Counterparty = "Bakery Corner Shop"
	b.Narration = ""

	result := engine.Run([]model.Transaction{a, b})

	require.Len(t, result.Groups, 2)
	assert.Empty(t, result.Groups[0].Links)
	assert.Empty(t, result.Groups[1].Links)
}

func TestFuzzy_GreedyDescendingScore(t *testing.T) {
	// One record plausibly matches two others; the higher-scoring pairing is
	// applied first and the consumed record is never re-matched
	engine := newTestEngine(t, DefaultConfig())

	target := makeTx("target", model.PlatformWechat, "-30.00", day(2024, 4, 1))
	target.Counterparty = "Noodle House Central"
	target.Narration = ""
	best := makeTx("best", model.PlatformCMBDebit, "-30.00", day(2024, 4, 1))
	best.Counterparty = "Noodle House Central"
	best.Narration = ""
	worse := makeTx("worse", model.PlatformCMBCredit, "-30.00", day(2024, 4, 3))
	worse.Counterparty = "Noodle House"
	worse.Narration = ""

	result := engine.Run([]model.Transaction{target, worse, best})

	var targetGroup *MatchGroup
	for i := range result.Groups {
		for _, rec := range result.Groups[i].Records() {
			if rec.ID == "target" {
				targetGroup = &result.Groups[i]
			}
		}
	}
	require.NotNil(t, targetGroup)
	require.Len(t, targetGroup.Links, 1)
	ids := []string{targetGroup.Canonical.ID, targetGroup.Links[0].Record.ID}
	assert.Contains(t, ids, "best")
}

func TestFuzzy_WithinPlatformDuplicateDetection(t *testing.T) {
	// Phase 3 also catches same-platform duplicates lacking references
	engine := newTestEngine(t, DefaultConfig())

	a := makeTx("dup1", model.PlatformAldi, "-123.45", day(2024, 5, 1))
	a.Counterparty = "ALDI 南京西路店"
	a.Narration = ""
	b := makeTx("dup2", model.PlatformAldi, "-123.45", day(2024, 5, 1))
	b.Counterparty = "ALDI 南京西路店"
	b.Narration = ""

	result := engine.Run([]model.Transaction{a, b})

	require.Len(t, result.Groups, 1)
	require.Len(t, result.Groups[0].Links, 1)
	assert.Equal(t, PhaseFuzzy, result.Groups[0].Links[0].Phase)
}

func TestFuzzy_DateWindowBoundsCandidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DateToleranceDays = 2
	engine := newTestEngine(t, cfg)

	a := makeTx("a", model.PlatformWechat, "-60.00", day(2024, 6, 1))
	a.Counterparty = "Same Shop"
	a.Narration = ""
	b := makeTx("b", model.PlatformCMBDebit, "-60.00", day(2024, 6, 5))
	b.Counterparty = "Same Shop"
	b.Narration = ""

	result := engine.Run([]model.Transaction{a, b})

	// 4 days apart, outside the 2-day window: no comparison happens
	require.Len(t, result.Groups, 2)
	assert.Empty(t, result.Groups[0].Links)
	assert.Empty(t, result.Groups[1].Links)
}

func TestFuzzy_ReasonCarriesScore(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	a := makeTx("a", model.PlatformWechat, "-60.00", day(2024, 6, 1))
	a.Counterparty = "Same Shop"
	a.Narration = ""
	b := makeTx("b", model.PlatformCMBDebit, "-60.00", day(2024, 6, 1))
	b.Counterparty = "Same Shop"
	b.Narration = ""

	result := engine.Run([]model.Transaction{a, b})

	require.Len(t, result.Groups, 1)
	require.Len(t, result.Groups[0].Links, 1)
	assert.Equal(t, "fuzzy:1.00", result.Groups[0].Links[0].Reason)
}
