// Package matching implements the cross-platform transaction matching engine:
// the batch pass that detects when two independently-imported records
// represent the same real-world economic event and must be merged rather than
// double-counted.
//
// The engine runs three phases strictly in order over a shrinking pool:
//
//	Phase 1: exact match by shared platform reference
//	Phase 2: intermediary settlement chains (wallet charge funded by a card)
//	Phase 3: fuzzy pairing by amount, date proximity, and merchant similarity
//
// Each record is consumed at most once, and rerunning the engine on the same
// pool and configuration yields the same groups. Per-record and per-pair
// issues are collected into the Result; only configuration problems abort a
// run.
package matching

import (
	"log/slog"
	"sort"

	"github.com/liuming-dev/ledgerlink/internal/domain/model"
)

// Engine orchestrates the three matching phases.
type Engine struct {
	cfg      Config
	resolver *resolver
	logger   *slog.Logger
}

// New validates the configuration and builds an engine. Configuration errors
// are fatal here; no partial run is attempted.
func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:      cfg,
		resolver: newResolver(cfg.PlatformPriority),
		logger:   logger,
	}, nil
}

// Run executes the full matching pass over an in-memory batch. The input is
// never mutated; the records in the result are copies by value.
func (e *Engine) Run(records []model.Transaction) Result {
	accepted, rejected := e.screen(records)

	p := &pool{
		records:  accepted,
		consumed: make([]bool, len(accepted)),
	}
	ix := buildIndex(accepted)

	result := Result{Rejected: rejected}
	var pairs []pairing

	refPairs, refAmbiguities := e.phaseReference(p, ix)
	pairs = append(pairs, refPairs...)
	result.Ambiguities = append(result.Ambiguities, refAmbiguities...)
	e.logger.Debug("reference phase complete", "pairs", len(refPairs), "ambiguous", len(refAmbiguities))

	intPairs, intAmbiguities := e.phaseIntermediary(p, ix)
	pairs = append(pairs, intPairs...)
	result.Ambiguities = append(result.Ambiguities, intAmbiguities...)
	e.logger.Debug("intermediary phase complete", "pairs", len(intPairs), "ambiguous", len(intAmbiguities))

	fuzzyPairs := e.phaseFuzzy(p, ix)
	pairs = append(pairs, fuzzyPairs...)
	e.logger.Debug("fuzzy phase complete", "pairs", len(fuzzyPairs))

	result.Groups = e.buildGroups(p, pairs)

	e.logger.Info("matching complete",
		"records", len(accepted),
		"matched_pairs", result.MatchedPairs(),
		"singletons", result.Singletons(),
		"ambiguous", len(result.Ambiguities),
		"rejected", len(result.Rejected),
	)
	return result
}

// screen rejects malformed records before they enter the pool. Rejection is
// per-record and never aborts the batch.
func (e *Engine) screen(records []model.Transaction) ([]model.Transaction, []RecordError) {
	accepted := make([]model.Transaction, 0, len(records))
	var rejected []RecordError
	for _, rec := range records {
		if reason, ok := malformed(rec); ok {
			rejected = append(rejected, RecordError{RecordID: rec.ID, Platform: rec.SourcePlatform, Reason: reason})
			continue
		}
		accepted = append(accepted, rec)
	}
	return accepted, rejected
}

func malformed(rec model.Transaction) (string, bool) {
	switch {
	case rec.ID == "":
		return "missing id", true
	case rec.SourcePlatform == "":
		return "missing source platform", true
	case rec.Currency == "":
		return "missing currency", true
	case rec.PostedAt.IsZero():
		return "missing posting date", true
	}
	return "", false
}

// buildGroups turns the consumed pairs and remaining singletons into ordered
// match groups. Groups are ordered by the pool position of their earliest
// member so output order tracks input order deterministically.
func (e *Engine) buildGroups(p *pool, pairs []pairing) []MatchGroup {
	type keyed struct {
		pos   int
		group MatchGroup
	}
	groups := make([]keyed, 0, len(p.records))

	for _, pr := range pairs {
		groups = append(groups, keyed{
			pos:   pr.a,
			group: e.resolver.Resolve(p.records[pr.a], p.records[pr.b], pr.phase, pr.reason),
		})
	}
	for i, rec := range p.records {
		if !p.consumed[i] {
			groups = append(groups, keyed{pos: i, group: MatchGroup{Canonical: rec}})
		}
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].pos < groups[j].pos })
	out := make([]MatchGroup, len(groups))
	for i, g := range groups {
		out[i] = g.group
	}
	return out
}

// pool tracks which records the phases have consumed. Records never move; a
// consumed flag keeps earlier positions stable for deterministic ordering.
type pool struct {
	records  []model.Transaction
	consumed []bool
}

// live filters positions down to the ones not yet consumed.
func (p *pool) live(positions []int) []int {
	out := make([]int, 0, len(positions))
	for _, pos := range positions {
		if !p.consumed[pos] {
			out = append(out, pos)
		}
	}
	return out
}

// consumePair marks both positions consumed and returns the pairing with
// positions ordered ascending.
func (p *pool) consumePair(a, b int, phase Phase, reason string) pairing {
	if b < a {
		a, b = b, a
	}
	p.consumed[a] = true
	p.consumed[b] = true
	return pairing{a: a, b: b, phase: phase, reason: reason}
}

func (p *pool) recordIDs(positions []int) []string {
	ids := make([]string, len(positions))
	for i, pos := range positions {
		ids[i] = p.records[pos].ID
	}
	return ids
}
