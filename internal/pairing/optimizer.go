package pairing

import "sort"

// edge is one feasible cross pairing between the two sub-pools.
type edge struct {
	anchor  int
	partner int
	value   float64
	spread  float64
}

// matchOutcome is the matching stage's result: the AUTO pairs, who was
// left over, and which strategy ran.
type matchOutcome struct {
	pairs     []Pair
	unmatched []Candidate
	mode      SearchMode
	shortfall int
	edges     []edge
}

// matchPools computes a one-to-one matching between the two sub-pools
// maximizing total combined value subject to the active validity rules.
//
// The exhaustive search runs only when the smaller pool fits under the
// configured size guard; the guard is checked before any enumeration, so
// an oversized pool can never start a factorial search. Beyond the guard,
// or when no complete exact assignment is feasible, a weighted-assignment
// fallback produces the best feasible (possibly partial) matching.
//
// The returned error is non-nil only when both pools are non-empty and no
// valid cross pair exists at all; the outcome still describes the
// leftovers so the caller can report them.
func matchPools(rc *runContext, anchors, partners []Candidate) (matchOutcome, error) {
	out := matchOutcome{mode: ModeNone}

	if len(anchors) == 0 || len(partners) == 0 {
		out.unmatched = append(out.unmatched, anchors...)
		out.unmatched = append(out.unmatched, partners...)
		return out, nil
	}

	out.edges = feasibleEdges(rc, anchors, partners)
	if len(out.edges) == 0 {
		out.unmatched = append(out.unmatched, anchors...)
		out.unmatched = append(out.unmatched, partners...)
		out.shortfall = minInt(len(anchors), len(partners))
		return out, &InfeasibleConstraintError{Detail: "every cross combination between the sub-pools is excluded"}
	}

	size := minInt(len(anchors), len(partners))
	if size <= rc.cfg.ExactSearchLimit {
		if pairs, ok := exactSearch(rc, anchors, partners, out.edges); ok {
			out.pairs = pairs
			out.mode = ModeExact
			out.finish(rc, anchors, partners, size)
			return out, nil
		}
		rc.log.WithField("pool_size", size).Debug("No feasible complete assignment, degrading to weighted matching")
	}

	out.pairs = matchingAssignment(anchors, partners, out.edges)
	out.mode = ModeMatching
	out.finish(rc, anchors, partners, size)
	return out, nil
}

// finish fills the unmatched list and shortfall once pairs are decided.
func (out *matchOutcome) finish(rc *runContext, anchors, partners []Candidate, size int) {
	matched := make(map[string]bool, len(out.pairs)*2)
	for _, p := range out.pairs {
		matched[p.Anchor.ID] = true
		matched[p.Partner.ID] = true
	}
	for _, c := range anchors {
		if !matched[c.ID] {
			out.unmatched = append(out.unmatched, c)
		}
	}
	for _, c := range partners {
		if !matched[c.ID] {
			out.unmatched = append(out.unmatched, c)
		}
	}
	out.shortfall = size - len(out.pairs)
	if out.shortfall > 0 {
		rc.log.WithField("shortfall", out.shortfall).Warn("Matching left candidates unpaired")
	}
}

// feasibleEdges enumerates every cross pairing the validity rules allow,
// in (anchor, partner) index order.
func feasibleEdges(rc *runContext, anchors, partners []Candidate) []edge {
	var edges []edge
	for i, a := range anchors {
		for j, p := range partners {
			if rc.pairViolation(a, p) != "" {
				continue
			}
			edges = append(edges, edge{
				anchor:  i,
				partner: j,
				value:   a.ValueOrZero() + p.ValueOrZero(),
				spread:  spread(a, p),
			})
		}
	}
	return edges
}

// rankEdges orders edges by value descending, then smaller spread, then
// candidate identifiers: the total order every heuristic walks.
func rankEdges(anchors, partners []Candidate, edges []edge) []edge {
	ranked := make([]edge, len(edges))
	copy(ranked, edges)
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.value != b.value {
			return a.value > b.value
		}
		if a.spread != b.spread {
			return a.spread < b.spread
		}
		if anchors[a.anchor].ID != anchors[b.anchor].ID {
			return anchors[a.anchor].ID < anchors[b.anchor].ID
		}
		return partners[a.partner].ID < partners[b.partner].ID
	})
	return ranked
}

// exactSearch enumerates complete assignments of the smaller pool onto the
// larger and keeps the best feasible one. Ties on total value break by
// smaller total spread, then by the partner identifier sequence, so the
// winner is a single well-defined assignment.
func exactSearch(rc *runContext, anchors, partners []Candidate, edges []edge) ([]Pair, bool) {
	// Orient the recursion over the smaller side.
	rows, cols := anchors, partners
	rowOf := func(e edge) int { return e.anchor }
	colOf := func(e edge) int { return e.partner }
	if len(partners) < len(anchors) {
		rows, cols = partners, anchors
		rowOf = func(e edge) int { return e.partner }
		colOf = func(e edge) int { return e.anchor }
	}

	adj := make([][]edge, len(rows))
	for _, e := range edges {
		r := rowOf(e)
		adj[r] = append(adj[r], edge{anchor: r, partner: colOf(e), value: e.value, spread: e.spread})
	}
	for _, options := range adj {
		if len(options) == 0 {
			return nil, false
		}
	}

	var (
		current   = make([]int, len(rows))
		curValue  float64
		curSpread float64
		best      []int
		bestOK    bool
		bestValue float64
		bestSprd  float64
	)

	better := func() bool {
		if !bestOK || curValue > bestValue {
			return true
		}
		if curValue < bestValue {
			return false
		}
		if curSpread != bestSprd {
			return curSpread < bestSprd
		}
		for r := range current {
			ci, bi := cols[current[r]].ID, cols[best[r]].ID
			if ci != bi {
				return ci < bi
			}
		}
		return false
	}

	var usedCols uint64
	var walk func(r int)
	walk = func(r int) {
		if r == len(rows) {
			if better() {
				best = append(best[:0], current...)
				bestOK = true
				bestValue = curValue
				bestSprd = curSpread
			}
			return
		}
		for _, e := range adj[r] {
			bit := uint64(1) << uint(e.partner)
			if usedCols&bit != 0 {
				continue
			}
			usedCols |= bit
			current[r] = e.partner
			curValue += e.value
			curSpread += e.spread
			walk(r + 1)
			curValue -= e.value
			curSpread -= e.spread
			usedCols &^= bit
		}
	}
	walk(0)

	if !bestOK {
		return nil, false
	}
	pairs := make([]Pair, 0, len(rows))
	for r, c := range best {
		pairs = append(pairs, newPair(rows[r], cols[c], ProvenanceAuto))
	}
	return pairs, true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
