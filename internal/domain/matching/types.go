package matching

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/liuming-dev/ledgerlink/internal/domain/model"
)

// Phase identifies which matching pass produced a link.
type Phase string

const (
	PhaseReference    Phase = "reference"
	PhaseIntermediary Phase = "intermediary"
	PhaseFuzzy        Phase = "fuzzy"
)

// RateLookup resolves a conversion rate from one currency to another.
// Returning ok=false means no rate is known; the candidate pair is then
// skipped rather than failing the run.
type RateLookup func(from, to string) (decimal.Decimal, bool)

// AdjacencyRule states that transactions on Platform whose payment-method
// text contains MethodPattern settle through the SettlesVia platform.
type AdjacencyRule struct {
	Name          string
	Platform      model.Platform
	MethodPattern string
	SettlesVia    model.Platform
}

// Config holds all knobs the engine consumes. It is passed explicitly into
// New so test runs are isolated and reproducible.
type Config struct {
	// DateToleranceDays bounds how far apart two records may be posted and
	// still pair in phases 2 and 3.
	DateToleranceDays int

	// FuzzyThreshold is the minimum combined score (0-1) for a phase 3 pair.
	FuzzyThreshold float64

	// AmountEpsilon is the maximum residual after currency normalization for
	// two amounts to count as equal.
	AmountEpsilon decimal.Decimal

	// AdjacencyRules drive phase 2. Empty is valid: phase 2 becomes a no-op.
	AdjacencyRules []AdjacencyRule

	// PlatformPriority orders platforms for canonical-record selection,
	// highest priority first. Platforms not listed rank last.
	PlatformPriority []model.Platform

	// Rates resolves cross-currency candidate pairs. Nil means same-currency
	// matching only.
	Rates RateLookup
}

// DefaultConfig returns the documented defaults. The exact production values
// for tolerance and threshold are configuration, not constants; these are the
// sane starting points.
func DefaultConfig() Config {
	return Config{
		DateToleranceDays: 3,
		FuzzyThreshold:    0.7,
		AmountEpsilon:     decimal.NewFromFloat(0.01),
	}
}

// ConfigError reports an invalid engine configuration. Configuration problems
// are fatal at engine start; no partial run is attempted.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("matching config %s: %s", e.Key, e.Reason)
}

// Validate checks the configuration before any matching work happens.
func (c Config) Validate() error {
	if c.DateToleranceDays < 0 {
		return &ConfigError{Key: "date_tolerance_days", Reason: fmt.Sprintf("must be >= 0, got %d", c.DateToleranceDays)}
	}
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 1 {
		return &ConfigError{Key: "fuzzy_threshold", Reason: fmt.Sprintf("must be in [0,1], got %g", c.FuzzyThreshold)}
	}
	if c.AmountEpsilon.IsNegative() {
		return &ConfigError{Key: "amount_epsilon", Reason: "must be >= 0"}
	}
	for i, rule := range c.AdjacencyRules {
		if strings.TrimSpace(rule.Name) == "" {
			return &ConfigError{Key: fmt.Sprintf("adjacency_rules[%d].name", i), Reason: "must not be empty"}
		}
		if rule.Platform == "" {
			return &ConfigError{Key: fmt.Sprintf("adjacency_rules[%d].platform", i), Reason: "must not be empty"}
		}
		if strings.TrimSpace(rule.MethodPattern) == "" {
			return &ConfigError{Key: fmt.Sprintf("adjacency_rules[%d].method_pattern", i), Reason: "must not be empty"}
		}
		if rule.SettlesVia == "" {
			return &ConfigError{Key: fmt.Sprintf("adjacency_rules[%d].settles_via", i), Reason: "must not be empty"}
		}
	}
	return nil
}

// Link attaches a non-canonical record to a match group along with the phase
// and human-readable reason that produced the pairing.
type Link struct {
	Record model.Transaction
	Phase  Phase
	Reason string // e.g. "exact_reference", "intermediary:alipay-cmb", "fuzzy:0.84"
}

// MatchGroup is the engine's output unit: one canonical record plus zero or
// more linked records. A record belongs to exactly one group.
type MatchGroup struct {
	Canonical model.Transaction
	Links     []Link
}

// Records returns every record in the group, canonical first.
func (g MatchGroup) Records() []model.Transaction {
	out := make([]model.Transaction, 0, 1+len(g.Links))
	out = append(out, g.Canonical)
	for _, l := range g.Links {
		out = append(out, l.Record)
	}
	return out
}

// Ambiguity records a candidate set that could not be resolved to a single
// pairing. The affected records remain singletons and the ambiguity is
// surfaced for manual resolution.
type Ambiguity struct {
	Phase     Phase
	Reason    string
	RecordIDs []string
}

// RecordError reports a malformed record rejected before entering the pool.
type RecordError struct {
	RecordID string
	Platform model.Platform
	Reason   string
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %s (%s): %s", e.RecordID, e.Platform, e.Reason)
}

// Result is everything a run produces. Per-record and per-pair issues are
// collected here rather than escaping as errors; only configuration problems
// abort a run.
type Result struct {
	Groups      []MatchGroup
	Ambiguities []Ambiguity
	Rejected    []RecordError
}

// MatchedPairs counts groups with at least one link.
func (r Result) MatchedPairs() int {
	n := 0
	for _, g := range r.Groups {
		if len(g.Links) > 0 {
			n++
		}
	}
	return n
}

// Singletons counts groups with no links.
func (r Result) Singletons() int {
	return len(r.Groups) - r.MatchedPairs()
}
