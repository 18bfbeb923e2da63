package pairing

import "sort"

// poolSelection is the outcome of the candidate pool build.
type poolSelection struct {
	selected  []Candidate
	reserves  []Reserve
	shortfall *InsufficientCandidatesError
}

// buildPool filters and ranks the raw roster into the working pool.
// Unscored candidates are set aside as reserves. Scored candidates are
// ordered by priority tier, then value, then identifier; the prefix of
// that order fills the pool, so a higher tier is never truncated in favor
// of a lower one. target is the pool size to select; required is the
// number of candidates needed to fill every slot, and falling short of it
// is recoverable.
func buildPool(candidates []Candidate, target, required int) poolSelection {
	var sel poolSelection

	scored := make([]Candidate, 0, len(candidates))
	var unscored []Candidate
	for _, c := range candidates {
		if c.Scored() {
			scored = append(scored, c)
		} else {
			unscored = append(unscored, c)
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Tier != scored[j].Tier {
			return scored[i].Tier < scored[j].Tier
		}
		if scored[i].ValueOrZero() != scored[j].ValueOrZero() {
			return scored[i].ValueOrZero() > scored[j].ValueOrZero()
		}
		return scored[i].ID < scored[j].ID
	})

	if target > len(scored) {
		target = len(scored)
	}
	sel.selected = scored[:target]
	for _, c := range scored[target:] {
		sel.reserves = append(sel.reserves, Reserve{
			CandidateID: c.ID,
			Value:       c.ValueOrZero(),
			Reason:      ReasonBeyondPool,
		})
	}

	sort.Slice(unscored, func(i, j int) bool { return unscored[i].ID < unscored[j].ID })
	for _, c := range unscored {
		sel.reserves = append(sel.reserves, Reserve{
			CandidateID: c.ID,
			Reason:      ReasonUnscored,
		})
	}

	if len(sel.selected) < required {
		sel.shortfall = &InsufficientCandidatesError{
			Required:  required,
			Available: len(sel.selected),
		}
	}
	return sel
}

// splitByIndex partitions the remainder into the two matching sub-pools by
// a median split on the ordering attribute: anchors take the lower half.
// Ties on the attribute fall back to identifier order so the split is a
// total order, and the halves never differ in size by more than one.
func splitByIndex(pool []Candidate) (anchors, partners []Candidate) {
	ordered := make([]Candidate, len(pool))
	copy(ordered, pool)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Index != ordered[j].Index {
			return ordered[i].Index < ordered[j].Index
		}
		return ordered[i].ID < ordered[j].ID
	})
	mid := (len(ordered) + 1) / 2
	return ordered[:mid], ordered[mid:]
}
