package pairing

import "sort"

// allocateSlots seats finished pairs into the configured slots. Allocation
// runs in two passes: pairs ineligible for the primary (first-declared)
// section claim their specialist slots first, then everything else fills
// remaining capacity strongest-first, trying slots in declaration order.
// Pairs that cannot be seated come back as reserves with an explicit
// reason.
func allocateSlots(rc *runContext, pairs []Pair, slots []Slot) ([]Pair, []Reserve) {
	remaining := make([]int, len(slots))
	seated := make([][]Pair, len(slots))
	for i, s := range slots {
		remaining[i] = s.Capacity
	}

	ordered := append([]Pair(nil), pairs...)
	orderPairs(ordered)

	// Pass 1 pulls out pairs the primary section cannot take, so they claim
	// restricted slots before the general fill consumes the capacity.
	var specialist, general []Pair
	if len(slots) > 0 {
		primary := slots[0].RequiredCategory
		for _, p := range ordered {
			if !p.EligibleFor(primary) {
				specialist = append(specialist, p)
			} else {
				general = append(general, p)
			}
		}
	}

	var reserves []Reserve
	place := func(p Pair) {
		eligible := false
		for i := range slots {
			if !p.EligibleFor(slots[i].RequiredCategory) {
				continue
			}
			eligible = true
			if remaining[i] <= 0 {
				continue
			}
			remaining[i]--
			p.SectionID = slots[i].SectionID
			seated[i] = append(seated[i], p)
			return
		}
		reason := ReasonNoEligibleSlot
		if eligible {
			reason = ReasonSlotsFull
		}
		held := p
		reserves = append(reserves, Reserve{Pair: &held, Value: p.CombinedValue, Reason: reason})
	}

	for _, p := range specialist {
		place(p)
	}
	for _, p := range general {
		place(p)
	}

	var out []Pair
	for i := range seated {
		orderPairs(seated[i])
		out = append(out, seated[i]...)
	}
	if len(reserves) > 0 {
		rc.log.WithField("unseated_pairs", len(reserves)).Debug("Some pairs did not fit the configured sections")
	}
	return out, reserves
}

// orderPairs sorts strongest first, with spread and anchor identifier as
// deterministic tie-breakers.
func orderPairs(ps []Pair) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].CombinedValue != ps[j].CombinedValue {
			return ps[i].CombinedValue > ps[j].CombinedValue
		}
		if ps[i].Spread != ps[j].Spread {
			return ps[i].Spread < ps[j].Spread
		}
		return ps[i].Anchor.ID < ps[j].Anchor.ID
	})
}
