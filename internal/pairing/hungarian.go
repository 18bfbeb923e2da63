package pairing

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// infeasiblePenalty dominates any realistic sum of value scores, so the
// assignment solver only routes through an excluded combination when a row
// cannot be matched any other way; those assignments are stripped from the
// result afterwards.
const infeasiblePenalty = 1e9

// matchingAssignment is the fallback matching strategy: a Hungarian-style
// maximum-weight assignment over the feasible cross pairs. It keeps the
// exact mode's contract (best feasible total value, deterministic output)
// but tolerates incomplete matchings: candidates whose every combination
// is excluded are simply left unmatched.
func matchingAssignment(anchors, partners []Candidate, edges []edge) []Pair {
	n := len(anchors)
	if len(partners) > n {
		n = len(partners)
	}

	// Build the padded square weight matrix. Dummy rows/columns and
	// excluded combinations carry the penalty weight.
	weights := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			weights.Set(i, j, -infeasiblePenalty)
		}
	}
	for _, e := range edges {
		weights.Set(e.anchor, e.partner, e.value)
	}
	// A dummy pairing costs nothing: real candidates prefer real partners,
	// but matching a leftover with a dummy stays free of the penalty.
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i >= len(anchors) || j >= len(partners) {
				weights.Set(i, j, 0)
			}
		}
	}

	assign := solveAssignment(weights)

	feasible := make(map[[2]int]bool, len(edges))
	for _, e := range edges {
		feasible[[2]int{e.anchor, e.partner}] = true
	}

	var pairs []Pair
	for i, j := range assign {
		if i >= len(anchors) || j >= len(partners) {
			continue
		}
		if !feasible[[2]int{i, j}] {
			continue
		}
		pairs = append(pairs, newPair(anchors[i], partners[j], ProvenanceAuto))
	}
	return pairs
}

// solveAssignment computes a minimum-cost perfect assignment on the square
// matrix of negated weights using the potentials form of the Hungarian
// algorithm (shortest augmenting paths, O(n^3)). All iteration is in fixed
// index order and ties resolve to the lowest column, so the solution is
// deterministic for identical input.
func solveAssignment(weights *mat.Dense) []int {
	n, _ := weights.Dims()

	// Convert to a minimization problem.
	maxW := math.Inf(-1)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if w := weights.At(i, j); w > maxW {
				maxW = w
			}
		}
	}
	cost := func(i, j int) float64 { return maxW - weights.At(i, j) }

	u := make([]float64, n+1)
	v := make([]float64, n+1)
	rowOf := make([]int, n+1) // rowOf[j]: row currently assigned to column j (1-based)
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		rowOf[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = math.Inf(1)
		}
		for {
			used[j0] = true
			i0 := rowOf[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost(i0-1, j-1) - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[rowOf[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if rowOf[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			j1 := way[j0]
			rowOf[j0] = rowOf[j1]
			j0 = j1
		}
	}

	assign := make([]int, n)
	for j := 1; j <= n; j++ {
		if rowOf[j] > 0 {
			assign[rowOf[j]-1] = j - 1
		}
	}
	return assign
}
