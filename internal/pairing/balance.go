package pairing

import "gonum.org/v1/gonum/stat"

// balancedSelection builds the balance-aware alternative solution: instead
// of always taking the globally best remaining combination, it alternates
// between a "strong" window (a quarter of the way down the ranked list)
// and a "middle" window (halfway down), discarding conflicting
// combinations after each pick. The result spreads strength across pairs
// at some cost in total value.
func balancedSelection(anchors, partners []Candidate, edges []edge, nPairs int) []Pair {
	remaining := rankEdges(anchors, partners, edges)
	var pairs []Pair
	for i := 0; i < nPairs && len(remaining) > 0; i++ {
		idx := len(remaining) / 4
		if i%2 == 1 {
			idx = len(remaining) / 2
		}
		if idx >= len(remaining) {
			idx = len(remaining) - 1
		}
		pick := remaining[idx]
		pairs = append(pairs, newPair(anchors[pick.anchor], partners[pick.partner], ProvenanceAuto))

		kept := remaining[:0]
		for _, e := range remaining {
			if e.anchor == pick.anchor || e.partner == pick.partner {
				continue
			}
			kept = append(kept, e)
		}
		remaining = kept
	}
	return pairs
}

// chooseSolution applies the balanced objective's fixed comparison policy:
// prefer the solution with the higher minimum pair value when it wins by
// more than the margin, otherwise fall back to lower variance, and on a
// full tie keep the value-optimal solution. Metrics are computed over the
// complete solution, constraint-fixed pairs included, since that is what
// the league actually fields.
func chooseSolution(cfg Config, fixed, optimal, balanced []Pair) ([]Pair, *BalanceReport) {
	optAll := append(append([]Pair{}, fixed...), optimal...)
	balAll := append(append([]Pair{}, fixed...), balanced...)

	optMin, optVar := solutionMetrics(optAll)
	balMin, balVar := solutionMetrics(balAll)

	report := &BalanceReport{
		OptimalMin:       optMin,
		OptimalVariance:  optVar,
		BalancedMin:      balMin,
		BalancedVariance: balVar,
		Chosen:           "optimal",
	}

	// A solution that pairs fewer candidates never wins on balance alone.
	if len(balanced) < len(optimal) {
		return optimal, report
	}

	switch {
	case balMin > optMin+cfg.BalanceMargin:
		report.Chosen = "balanced"
		return balanced, report
	case optMin > balMin+cfg.BalanceMargin:
		return optimal, report
	case balVar < optVar:
		report.Chosen = "balanced"
		return balanced, report
	default:
		return optimal, report
	}
}

// solutionMetrics returns the minimum pair value and the variance of pair
// values across the solution.
func solutionMetrics(pairs []Pair) (minValue, variance float64) {
	if len(pairs) == 0 {
		return 0, 0
	}
	values := make([]float64, len(pairs))
	minValue = pairs[0].CombinedValue
	for i, p := range pairs {
		values[i] = p.CombinedValue
		if p.CombinedValue < minValue {
			minValue = p.CombinedValue
		}
	}
	if len(values) < 2 {
		return minValue, 0
	}
	return minValue, stat.Variance(values, nil)
}
