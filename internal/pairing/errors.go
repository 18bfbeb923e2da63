package pairing

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is wrapped by all request validation failures.
var ErrInvalidRequest = errors.New("invalid pairing request")

// ErrInvalidConfig is wrapped by engine configuration failures.
var ErrInvalidConfig = errors.New("invalid engine configuration")

// InsufficientCandidatesError reports a working pool smaller than the
// configured slots require. It is recoverable: the run proceeds with the
// smaller pool and under-fills slots.
type InsufficientCandidatesError struct {
	Required  int
	Available int
}

func (e *InsufficientCandidatesError) Error() string {
	return fmt.Sprintf("insufficient candidates: need %d for full slots, have %d", e.Required, e.Available)
}

// InfeasibleConstraintError reports a constraint that cannot be honored:
// a required pair with a missing or conflicting member, or a remainder in
// which no valid cross pair exists at all.
type InfeasibleConstraintError struct {
	Constraint string
	Detail     string
}

func (e *InfeasibleConstraintError) Error() string {
	if e.Constraint == "" {
		return fmt.Sprintf("infeasible constraints: %s", e.Detail)
	}
	return fmt.Sprintf("infeasible constraint %s: %s", e.Constraint, e.Detail)
}

// IsInfeasible reports whether err is an InfeasibleConstraintError.
func IsInfeasible(err error) bool {
	var ice *InfeasibleConstraintError
	return errors.As(err, &ice)
}
