package matching

import (
	"github.com/liuming-dev/ledgerlink/internal/domain/model"
)

// resolver decides which record of a matched pair is canonical. Precedence is
// fixed: a record with itemized postings wins, then the configured platform
// priority, then the earlier posting date, then the smaller ID. The losing
// record is never discarded - it becomes a cross-reference link.
type resolver struct {
	rank map[model.Platform]int
}

func newResolver(priority []model.Platform) *resolver {
	rank := make(map[model.Platform]int, len(priority))
	for i, p := range priority {
		rank[p] = i
	}
	return &resolver{rank: rank}
}

// Resolve builds the match group for a pair, choosing the canonical side.
func (r *resolver) Resolve(a, b model.Transaction, phase Phase, reason string) MatchGroup {
	canonical, linked := a, b
	if r.prefer(b, a) {
		canonical, linked = b, a
	}
	return MatchGroup{
		Canonical: canonical,
		Links:     []Link{{Record: linked, Phase: phase, Reason: reason}},
	}
}

// prefer reports whether a should be canonical over b.
func (r *resolver) prefer(a, b model.Transaction) bool {
	if (len(a.Postings) > 0) != (len(b.Postings) > 0) {
		return len(a.Postings) > 0
	}
	ra, rb := r.platformRank(a.SourcePlatform), r.platformRank(b.SourcePlatform)
	if ra != rb {
		return ra < rb
	}
	if !a.PostedAt.Equal(b.PostedAt) {
		return a.PostedAt.Before(b.PostedAt)
	}
	return a.ID < b.ID
}

func (r *resolver) platformRank(p model.Platform) int {
	if rank, ok := r.rank[p]; ok {
		return rank
	}
	return len(r.rank) // unlisted platforms rank last
}

// Merged produces the single logical transaction a group contributes to the
// ledger: the canonical record's fields plus audit metadata identifying every
// linked record. When a link spans currencies the settled side's amount and
// currency are retained so the writer can emit a price annotation.
func (g MatchGroup) Merged() model.Transaction {
	merged := g.Canonical
	merged.Raw = make(map[string]string, len(g.Canonical.Raw)+4*len(g.Links))
	for k, v := range g.Canonical.Raw {
		merged.Raw[k] = v
	}
	for _, link := range g.Links {
		merged.Raw["matched_id"] = link.Record.ID
		merged.Raw["matched_platform"] = string(link.Record.SourcePlatform)
		merged.Raw["match_reason"] = link.Reason
		if link.Record.Currency != g.Canonical.Currency {
			merged.Raw["settled_amount"] = link.Record.Amount.String()
			merged.Raw["settled_currency"] = link.Record.Currency
		}
	}
	return merged
}
