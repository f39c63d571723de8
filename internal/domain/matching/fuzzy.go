package matching

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Score weights for phase 3. Merchant similarity carries the most signal
// because amount and date equality alone pair unrelated transactions.
const (
	weightSimilarity = 0.5
	weightAmount     = 0.3
	weightDate       = 0.2
)

// scoredPair is a phase 3 candidate that cleared the threshold.
type scoredPair struct {
	a, b  int
	score float64
}

// phaseFuzzy is the last-resort pairing pass. Candidates are restricted to
// the date-bucket window from the index, scored on amount closeness, date
// closeness, and merchant-string similarity, and applied greedily in
// descending score order so a record consumed by a higher-scoring pair is
// never re-matched.
func (e *Engine) phaseFuzzy(p *pool, ix *candidateIndex) []pairing {
	var candidates []scoredPair

	for i := range p.records {
		if p.consumed[i] {
			continue
		}
		for _, j := range ix.window(dayKey(p.records[i].PostedAt), e.cfg.DateToleranceDays) {
			if j <= i || p.consumed[j] {
				continue
			}
			score, ok := e.scorePair(i, j, p)
			if !ok || score < e.cfg.FuzzyThreshold {
				continue
			}
			candidates = append(candidates, scoredPair{a: i, b: j, score: score})
		}
	}

	// Greedy descending-score assignment. Ties break on pool positions so
	// identical inputs always yield identical pairings.
	sort.Slice(candidates, func(x, y int) bool {
		if candidates[x].score != candidates[y].score {
			return candidates[x].score > candidates[y].score
		}
		if candidates[x].a != candidates[y].a {
			return candidates[x].a < candidates[y].a
		}
		return candidates[x].b < candidates[y].b
	})

	var pairs []pairing
	for _, c := range candidates {
		if p.consumed[c.a] || p.consumed[c.b] {
			continue
		}
		pairs = append(pairs, p.consumePair(c.a, c.b, PhaseFuzzy, fmt.Sprintf("fuzzy:%.2f", c.score)))
	}
	return pairs
}

// scorePair combines the three fuzzy signals for a candidate pair. ok=false
// means the pair is structurally ineligible (amount outside tolerance or no
// conversion rate available).
func (e *Engine) scorePair(i, j int, p *pool) (float64, bool) {
	a, b := p.records[i], p.records[j]

	bAmount, ok := e.normalize(b.AbsAmount(), b.Currency, a.Currency)
	if !ok {
		return 0, false
	}
	amountDiff := a.AbsAmount().Sub(bAmount).Abs()
	if amountDiff.GreaterThan(e.cfg.AmountEpsilon) {
		return 0, false
	}

	// Exact amounts score full marks; a near-match within tolerance scores
	// proportionally lower.
	amountScore := 1.0
	if !amountDiff.IsZero() && e.cfg.AmountEpsilon.IsPositive() {
		frac, _ := amountDiff.Div(e.cfg.AmountEpsilon).Float64()
		amountScore = 1.0 - 0.5*frac
	}

	dateDiff := absInt(int(dayKey(a.PostedAt) - dayKey(b.PostedAt)))
	dateScore := 1.0 - float64(dateDiff)/float64(e.cfg.DateToleranceDays+1)

	sim := merchantSimilarity(
		a.Counterparty+" "+a.Narration,
		b.Counterparty+" "+b.Narration,
	)

	return weightSimilarity*sim + weightAmount*amountScore + weightDate*dateScore, true
}

// merchantSimilarity scores two free-text merchant strings in [0,1] using a
// token-sorted Levenshtein ratio, so "ABC STORE HK" and "abc store" compare
// well despite casing, punctuation, and word-order noise.
func merchantSimilarity(a, b string) float64 {
	na, nb := normalizeMerchant(a), normalizeMerchant(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	// RatioForStrings stays in [0,1]: with the default substitution cost of
	// 2 the distance is bounded by the combined length it is divided by.
	ratio := levenshtein.RatioForStrings([]rune(na), []rune(nb), levenshtein.DefaultOptions)
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

// normalizeMerchant lowercases, strips punctuation, and sorts tokens so the
// comparison is insensitive to case, whitespace, and word order.
func normalizeMerchant(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteRune(' ')
		}
	}
	tokens := strings.Fields(sb.String())
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
