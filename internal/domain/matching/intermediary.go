package matching

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/liuming-dev/ledgerlink/internal/domain/model"
)

// phaseIntermediary detects the "platform A settles through platform B"
// pattern: a wallet-side record whose payment-method text resolves, via a
// configured adjacency rule, to the platform carrying the underlying charge.
//
// A candidate qualifies when it sits on the rule's settling platform, is
// dated within the tolerance, and carries an equal amount after currency
// normalization. Among qualifying candidates the smallest date difference
// wins, then the smallest amount difference; a residual tie is surfaced as an
// ambiguity instead of guessing.
func (e *Engine) phaseIntermediary(p *pool, ix *candidateIndex) ([]pairing, []Ambiguity) {
	var pairs []pairing
	var ambiguities []Ambiguity

	for i := range p.records {
		if p.consumed[i] {
			continue
		}
		rec := p.records[i]
		if rec.PaymentMethod == "" {
			continue
		}
		rule, ok := e.resolveRule(rec)
		if !ok {
			continue
		}

		best, tied := e.bestSettlementCandidate(p, ix, i, rule)
		if best < 0 {
			continue
		}
		if tied {
			ambiguities = append(ambiguities, Ambiguity{
				Phase:     PhaseIntermediary,
				Reason:    fmt.Sprintf("rule %s: multiple equally-close settlement candidates for record %s", rule.Name, rec.ID),
				RecordIDs: []string{rec.ID},
			})
			continue
		}
		pairs = append(pairs, p.consumePair(i, best, PhaseIntermediary, "intermediary:"+rule.Name))
	}

	return pairs, ambiguities
}

// resolveRule finds the first adjacency rule, in configuration order, whose
// platform and payment-method pattern apply to the record.
func (e *Engine) resolveRule(rec model.Transaction) (AdjacencyRule, bool) {
	for _, rule := range e.cfg.AdjacencyRules {
		if rule.Platform == rec.SourcePlatform && strings.Contains(rec.PaymentMethod, rule.MethodPattern) {
			return rule, true
		}
	}
	return AdjacencyRule{}, false
}

// bestSettlementCandidate scans the settling platform for the closest
// qualifying counterpart. Returns -1 when nothing qualifies, and tied=true
// when two candidates are indistinguishable on both date and amount.
func (e *Engine) bestSettlementCandidate(p *pool, ix *candidateIndex, i int, rule AdjacencyRule) (best int, tied bool) {
	rec := p.records[i]
	best = -1
	var bestDateDiff int
	var bestAmountDiff decimal.Decimal

	for _, j := range ix.byPlatform[rule.SettlesVia] {
		if j == i || p.consumed[j] {
			continue
		}
		cand := p.records[j]

		dateDiff := absInt(int(dayKey(rec.PostedAt) - dayKey(cand.PostedAt)))
		if dateDiff > e.cfg.DateToleranceDays {
			continue
		}

		// Normalize the candidate amount into the record's currency. A
		// missing rate skips this pair; it is not an error for the batch.
		candAmount, ok := e.normalize(cand.AbsAmount(), cand.Currency, rec.Currency)
		if !ok {
			continue
		}
		amountDiff := rec.AbsAmount().Sub(candAmount).Abs()
		if amountDiff.GreaterThan(e.cfg.AmountEpsilon) {
			continue
		}

		switch {
		case best < 0,
			dateDiff < bestDateDiff,
			dateDiff == bestDateDiff && amountDiff.LessThan(bestAmountDiff):
			best, bestDateDiff, bestAmountDiff, tied = j, dateDiff, amountDiff, false
		case dateDiff == bestDateDiff && amountDiff.Equal(bestAmountDiff):
			tied = true
		}
	}
	return best, tied
}

// normalize converts an amount between currencies using the injected rate
// lookup. Same-currency amounts pass through untouched.
func (e *Engine) normalize(amount decimal.Decimal, from, to string) (decimal.Decimal, bool) {
	if from == to {
		return amount, true
	}
	if e.cfg.Rates == nil {
		return decimal.Decimal{}, false
	}
	rate, ok := e.cfg.Rates(from, to)
	if !ok {
		return decimal.Decimal{}, false
	}
	return amount.Mul(rate), true
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
