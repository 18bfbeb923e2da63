package pairing

import "time"

// SearchMode identifies which matching strategy produced the AUTO pairs.
type SearchMode string

const (
	// ModeExact is the exhaustive assignment search, used when the smaller
	// sub-pool fits under the configured size guard.
	ModeExact SearchMode = "exact"
	// ModeMatching is the weighted-assignment fallback used beyond the size
	// guard, or when no complete exact assignment is feasible.
	ModeMatching SearchMode = "matching"
	// ModeNone means the matching stage had nothing to pair.
	ModeNone SearchMode = "none"
)

// ReserveReason explains why a candidate or pair ended up unplaced.
type ReserveReason string

const (
	// ReasonUnscored excludes a candidate with no value score from ranked selection.
	ReasonUnscored ReserveReason = "unscored"
	// ReasonBeyondPool marks candidates ranked below the pool-size cutoff.
	ReasonBeyondPool ReserveReason = "beyond_pool_size"
	// ReasonUnmatched marks candidates left without a feasible partner.
	ReasonUnmatched ReserveReason = "unmatched"
	// ReasonNoEligibleSlot marks a pair whose eligibility matches no configured slot.
	ReasonNoEligibleSlot ReserveReason = "no_eligible_slot"
	// ReasonSlotsFull marks a pair that lost out on capacity in every eligible slot.
	ReasonSlotsFull ReserveReason = "slots_full"
)

// Reserve is one unplaced entry in the output. Either Pair is set (a whole
// pair that could not be seated) or CandidateID names a single candidate.
type Reserve struct {
	Pair        *Pair         `json:"pair,omitempty"`
	CandidateID string        `json:"candidate_id,omitempty"`
	Value       float64       `json:"value"`
	Reason      ReserveReason `json:"reason"`
}

// WarningKind classifies non-fatal degradations reported in diagnostics.
type WarningKind string

const (
	WarningInsufficientCandidates WarningKind = "insufficient_candidates"
	WarningConstraintViolation    WarningKind = "constraint_violation"
	WarningAbsentReference        WarningKind = "absent_reference"
	WarningInfeasibleRemainder    WarningKind = "infeasible_remainder"
)

// Warning is a structured, auditable record of a degradation the run
// absorbed instead of failing.
type Warning struct {
	Kind       WarningKind `json:"kind"`
	Constraint string      `json:"constraint,omitempty"`
	Detail     string      `json:"detail"`
}

// BalanceReport records the balanced-versus-optimal comparison when the
// balanced objective is active.
type BalanceReport struct {
	OptimalMin       float64 `json:"optimal_min"`
	OptimalVariance  float64 `json:"optimal_variance"`
	BalancedMin      float64 `json:"balanced_min"`
	BalancedVariance float64 `json:"balanced_variance"`
	Chosen           string  `json:"chosen"`
}

// Diagnostics summarizes one run for the caller.
type Diagnostics struct {
	Mode              SearchMode     `json:"mode"`
	ObjectiveValue    float64        `json:"objective_value"`
	PoolSize          int            `json:"pool_size"`
	RequiredSatisfied int            `json:"required_satisfied"`
	RequiredFailed    int            `json:"required_failed"`
	PairShortfall     int            `json:"pair_shortfall"`
	Warnings          []Warning      `json:"warnings,omitempty"`
	Balance           *BalanceReport `json:"balance,omitempty"`
	ElapsedMS         int64          `json:"elapsed_ms"`
}

// Result is the complete outcome of one pairing run. Pairs are ordered by
// slot declaration order, strongest first within each section; Reserves
// list unseated pairs first (by value), then unmatched and overflow
// candidates.
type Result struct {
	RunID       string      `json:"run_id"`
	GeneratedAt time.Time   `json:"generated_at"`
	Pairs       []Pair      `json:"pairs"`
	Reserves    []Reserve   `json:"reserves"`
	Diagnostics Diagnostics `json:"diagnostics"`
}
