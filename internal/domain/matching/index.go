package matching

import (
	"sort"
	"time"

	"github.com/liuming-dev/ledgerlink/internal/domain/model"
)

// candidateIndex holds the lookup structures the phases use to keep matching
// sub-quadratic. It is rebuilt once per engine run over the full pool and is
// never mutated afterwards; consumption is tracked separately in the pool.
type candidateIndex struct {
	// byReference maps every non-empty ReferenceID and CounterpartRef to the
	// positions of the records carrying it.
	byReference map[string][]int

	// byPlatform maps a platform to the positions of its records, in input
	// order. Phase 2 scans the settling platform's slice.
	byPlatform map[model.Platform][]int

	// byDay buckets positions by posting day so phase 3 only compares records
	// within a bounded window.
	byDay map[int64][]int
}

func buildIndex(records []model.Transaction) *candidateIndex {
	ix := &candidateIndex{
		byReference: make(map[string][]int),
		byPlatform:  make(map[model.Platform][]int),
		byDay:       make(map[int64][]int),
	}
	for i, rec := range records {
		if rec.ReferenceID != "" {
			ix.byReference[rec.ReferenceID] = append(ix.byReference[rec.ReferenceID], i)
		}
		if rec.CounterpartRef != "" && rec.CounterpartRef != rec.ReferenceID {
			ix.byReference[rec.CounterpartRef] = append(ix.byReference[rec.CounterpartRef], i)
		}
		ix.byPlatform[rec.SourcePlatform] = append(ix.byPlatform[rec.SourcePlatform], i)
		ix.byDay[dayKey(rec.PostedAt)] = append(ix.byDay[dayKey(rec.PostedAt)], i)
	}
	return ix
}

// dayKey collapses a timestamp to a day-granularity bucket key.
func dayKey(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// sortedReferences returns the reference keys in lexical order so phase 1
// pairing is independent of map iteration order.
func (ix *candidateIndex) sortedReferences() []string {
	keys := make([]string, 0, len(ix.byReference))
	for k := range ix.byReference {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// window returns the positions of all records posted within toleranceDays of
// the given day, in ascending position order.
func (ix *candidateIndex) window(day int64, toleranceDays int) []int {
	var out []int
	for d := day - int64(toleranceDays); d <= day+int64(toleranceDays); d++ {
		out = append(out, ix.byDay[d]...)
	}
	sort.Ints(out)
	return out
}
