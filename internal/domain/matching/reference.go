package matching

import (
	"fmt"
	"sort"
)

const reasonExactReference = "exact_reference"

// pairing records two pool positions matched by a phase.
type pairing struct {
	a, b   int // pool positions, a < b
	phase  Phase
	reason string
}

// phaseReference pairs records that share a platform-provided reference across
// two different platforms. Same-platform duplicates are a separate concern and
// are left alone. When more than two records share a reference, only the two
// with compatible signed amounts (one inflow, one outflow) are paired; the
// rest is surfaced as an ambiguity rather than silently dropped.
func (e *Engine) phaseReference(p *pool, ix *candidateIndex) ([]pairing, []Ambiguity) {
	var pairs []pairing
	var ambiguities []Ambiguity

	for _, ref := range ix.sortedReferences() {
		positions := p.live(ix.byReference[ref])
		if len(positions) < 2 {
			continue
		}

		crossPlatform := false
		for _, pos := range positions[1:] {
			if p.records[pos].SourcePlatform != p.records[positions[0]].SourcePlatform {
				crossPlatform = true
				break
			}
		}
		if !crossPlatform {
			continue
		}

		if len(positions) == 2 {
			pairs = append(pairs, p.consumePair(positions[0], positions[1], PhaseReference, reasonExactReference))
			continue
		}

		// More than two records share this reference. Pair the unique
		// compatible combination - one inflow and one outflow, cross-platform,
		// with equal unsigned amounts - if there is exactly one.
		var inflows, outflows []int
		for _, pos := range positions {
			if p.records[pos].Outflow() {
				outflows = append(outflows, pos)
			} else {
				inflows = append(inflows, pos)
			}
		}
		var compatible [][2]int
		for _, in := range inflows {
			for _, out := range outflows {
				if p.records[in].SourcePlatform == p.records[out].SourcePlatform {
					continue
				}
				diff := p.records[in].AbsAmount().Sub(p.records[out].AbsAmount()).Abs()
				if diff.LessThanOrEqual(e.cfg.AmountEpsilon) {
					compatible = append(compatible, [2]int{in, out})
				}
			}
		}
		if len(compatible) == 1 {
			in, out := compatible[0][0], compatible[0][1]
			pairs = append(pairs, p.consumePair(in, out, PhaseReference, reasonExactReference))
			remainder := exclude(positions, in, out)
			ambiguities = append(ambiguities, Ambiguity{
				Phase:     PhaseReference,
				Reason:    fmt.Sprintf("reference %s shared by %d records, remainder unresolved", ref, len(positions)),
				RecordIDs: p.recordIDs(remainder),
			})
			continue
		}

		ambiguities = append(ambiguities, Ambiguity{
			Phase:     PhaseReference,
			Reason:    fmt.Sprintf("reference %s shared by %d records with no unique inflow/outflow pair", ref, len(positions)),
			RecordIDs: p.recordIDs(positions),
		})
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].a < pairs[j].a })
	return pairs, ambiguities
}

func exclude(positions []int, drop ...int) []int {
	out := make([]int, 0, len(positions))
	for _, pos := range positions {
		skip := false
		for _, d := range drop {
			if pos == d {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, pos)
		}
	}
	return out
}
