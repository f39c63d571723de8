package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liuming-dev/ledgerlink/internal/domain/model"
)

func TestReference_SamePlatformNotMatched(t *testing.T) {
	// Same-platform duplicates sharing a reference are a separate concern
	engine := newTestEngine(t, DefaultConfig())

	a := makeTx("s1", model.PlatformAlipay, "-35.00", day(2024, 1, 15))
	a.ReferenceID = "REF001"
	b := makeTx("s2", model.PlatformAlipay, "-35.00", day(2024, 1, 15))
	b.ReferenceID = "REF001"
	// Keep phase 3 out of the way: different amounts
	b.Amount = a.Amount.Add(a.Amount)

	result := engine.Run([]model.Transaction{a, b})

	require.Len(t, result.Groups, 2)
	assert.Empty(t, result.Groups[0].Links)
	assert.Empty(t, result.Groups[1].Links)
}

func TestReference_CounterpartRefAlsoIndexed(t *testing.T) {
	// A merchant order number on one side matching the reference id on the
	// other still pairs the records
	engine := newTestEngine(t, DefaultConfig())

	wallet := makeTx("w1", model.PlatformWechat, "-68.00", day(2024, 1, 10))
	wallet.CounterpartRef = "ORDER-777"
	bank := makeTx("b1", model.PlatformCMBCredit, "68.00", day(2024, 1, 10))
	bank.ReferenceID = "ORDER-777"

	result := engine.Run([]model.Transaction{wallet, bank})

	require.Len(t, result.Groups, 1)
	require.Len(t, result.Groups[0].Links, 1)
	assert.Equal(t, "exact_reference", result.Groups[0].Links[0].Reason)
}

func TestReference_ThreeWaySharedRef(t *testing.T) {
	// With three records sharing a reference, only the unique inflow/outflow
	// pair matches; the remainder is surfaced as an ambiguity
	engine := newTestEngine(t, DefaultConfig())

	out := makeTx("t1", model.PlatformAlipay, "-50.00", day(2024, 1, 1))
	out.ReferenceID = "TRIPLE"
	in := makeTx("t2", model.PlatformCMBCredit, "50.00", day(2024, 1, 1))
	in.ReferenceID = "TRIPLE"
	extra := makeTx("t3", model.PlatformJD, "-60.00", day(2024, 1, 20))
	extra.ReferenceID = "TRIPLE"
	extra.Counterparty = "京东商城"

	result := engine.Run([]model.Transaction{out, in, extra})

	require.Len(t, result.Ambiguities, 1)
	assert.Equal(t, PhaseReference, result.Ambiguities[0].Phase)
	assert.Equal(t, []string{"t3"}, result.Ambiguities[0].RecordIDs)

	// t1 and t2 paired, t3 singleton
	matched := 0
	for _, g := range result.Groups {
		matched += len(g.Links)
	}
	assert.Equal(t, 1, matched)
	require.Len(t, result.Groups, 2)
}

func TestReference_AllOutflowsSharedRefAmbiguous(t *testing.T) {
	// No unique inflow/outflow combination: everything stays unmatched and
	// the whole candidate set is reported
	engine := newTestEngine(t, DefaultConfig())

	txs := []model.Transaction{}
	for i, platform := range []model.Platform{model.PlatformAlipay, model.PlatformWechat, model.PlatformJD} {
		tx := makeTx(string(rune('a'+i)), platform, "-9.99", day(2024, 1, 1+i*5))
		tx.ReferenceID = "ALLOUT"
		tx.Counterparty = string(platform)
		txs = append(txs, tx)
	}

	result := engine.Run(txs)

	require.Len(t, result.Ambiguities, 1)
	assert.Len(t, result.Ambiguities[0].RecordIDs, 3)
	require.Len(t, result.Groups, 3)
	for _, g := range result.Groups {
		assert.Empty(t, g.Links)
	}
}

func TestReference_OrderIndependence(t *testing.T) {
	// Identical input in reversed order yields the same pairing
	engine := newTestEngine(t, DefaultConfig())

	a := makeTx("o1", model.PlatformAlipay, "-12.00", day(2024, 2, 2))
	a.ReferenceID = "ORD"
	b := makeTx("o2", model.PlatformCMBCredit, "12.00", day(2024, 2, 2))
	b.ReferenceID = "ORD"

	forward := engine.Run([]model.Transaction{a, b})
	reversed := engine.Run([]model.Transaction{b, a})

	require.Len(t, forward.Groups, 1)
	require.Len(t, reversed.Groups, 1)
	assert.Equal(t, forward.Groups[0].Canonical.ID, reversed.Groups[0].Canonical.ID)
	assert.Equal(t, forward.Groups[0].Links[0].Record.ID, reversed.Groups[0].Links[0].Record.ID)
}

func TestReference_DateSkewIrrelevant(t *testing.T) {
	// Phase 1 pairs on reference identity alone, regardless of date distance
	engine := newTestEngine(t, DefaultConfig())

	a := makeTx("d1", model.PlatformAlipay, "-30.00", day(2024, 1, 1))
	a.ReferenceID = "FAR"
	b := makeTx("d2", model.PlatformCMBCredit, "30.00", time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC))
	b.ReferenceID = "FAR"

	result := engine.Run([]model.Transaction{a, b})

	require.Len(t, result.Groups, 1)
	assert.Len(t, result.Groups[0].Links, 1)
}
