package pairing

import "fmt"

// Objective selects what the matching stage optimizes for.
type Objective string

const (
	// ObjectiveMaxValue takes the highest total combined value outright.
	ObjectiveMaxValue Objective = "max_value"
	// ObjectiveBalanced still maximizes value but prefers a solution with a
	// higher minimum pair value (within the configured margin), breaking
	// ties by lower value variance across pairs.
	ObjectiveBalanced Objective = "balanced"
)

// MissingRequiredPolicy controls what happens when a RequiredPair cannot
// be honored.
type MissingRequiredPolicy string

const (
	// MissingRequiredFail aborts the run. This is the default: silently
	// degrading a forced pairing tends to mask roster data errors.
	MissingRequiredFail MissingRequiredPolicy = "fail"
	// MissingRequiredReport records the failure as a warning and continues.
	MissingRequiredReport MissingRequiredPolicy = "report"
)

// maxExactSearchLimit caps the size guard so the exhaustive search can
// never be configured into factorial blowup.
const maxExactSearchLimit = 10

// Config tunes one Engine. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	// ExactSearchLimit is the size guard: the exhaustive search runs only
	// when the smaller sub-pool has at most this many candidates.
	ExactSearchLimit int `json:"exact_search_limit"`
	// Objective selects pure value maximization or the balanced secondary
	// objective.
	Objective Objective `json:"objective"`
	// BalanceMargin is how much higher the optimal solution's minimum pair
	// value must be before it beats a more balanced alternative.
	BalanceMargin float64 `json:"balance_margin"`
	// MissingRequired selects the policy for unsatisfiable RequiredPairs.
	MissingRequired MissingRequiredPolicy `json:"missing_required"`
}

// DefaultConfig returns the standard league configuration.
func DefaultConfig() Config {
	return Config{
		ExactSearchLimit: 8,
		Objective:        ObjectiveBalanced,
		BalanceMargin:    0.5,
		MissingRequired:  MissingRequiredFail,
	}
}

func (c Config) validate() error {
	if c.ExactSearchLimit < 1 || c.ExactSearchLimit > maxExactSearchLimit {
		return fmt.Errorf("%w: exact search limit %d out of range [1,%d]",
			ErrInvalidConfig, c.ExactSearchLimit, maxExactSearchLimit)
	}
	switch c.Objective {
	case ObjectiveMaxValue, ObjectiveBalanced:
	default:
		return fmt.Errorf("%w: unknown objective %q", ErrInvalidConfig, c.Objective)
	}
	if c.BalanceMargin < 0 {
		return fmt.Errorf("%w: balance margin must be non-negative, got %v",
			ErrInvalidConfig, c.BalanceMargin)
	}
	switch c.MissingRequired {
	case MissingRequiredFail, MissingRequiredReport:
	default:
		return fmt.Errorf("%w: unknown missing-required policy %q",
			ErrInvalidConfig, c.MissingRequired)
	}
	return nil
}
