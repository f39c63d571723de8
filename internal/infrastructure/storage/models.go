package storage

// MatchLink is one persisted record pairing.
type MatchLink struct {
	CanonicalID string
	LinkedID    string
	Phase       string
	Reason      string
}

// RunSummary is the stored outcome of a match run.
type RunSummary struct {
	ID           string
	StartedAt    string
	Status       string
	MatchedPairs int
	Singletons   int
	Ambiguities  int
	Rejected     int
}
