package pairing

import "fmt"

// constraintOutcome is what constraint application hands to the matching
// stage: the pairs fixed by constraints, the candidates still to be
// matched, and everything worth reporting.
type constraintOutcome struct {
	fixed             []Pair
	remainder         []Candidate
	warnings          []Warning
	requiredSatisfied int
	requiredFailed    int
}

// applyConstraints resolves the constraint configuration against the
// working pool in strict order: every RequiredPair first, then every
// EitherOrPair in declaration order. ForbiddenPair and MinSpread stay
// active for the remainder, which the matching stage pairs.
//
// A RequiredPair that cannot be realized (a member missing from the pool,
// already consumed by an earlier constraint, or in conflict with the
// validity rules) fails the run under MissingRequiredFail, or is recorded
// and skipped under MissingRequiredReport. An EitherOrPair with no usable
// option is always a warning; its fixed candidate returns to the pool.
func applyConstraints(rc *runContext, pool []Candidate, cons Constraints) (constraintOutcome, error) {
	out := constraintOutcome{}

	byID := make(map[string]Candidate, len(pool))
	for _, c := range pool {
		byID[c.ID] = c
	}
	used := make(map[string]bool)

	out.warnings = append(out.warnings, absentForbiddenRefs(byID, cons.Forbidden)...)

	for _, rp := range cons.Required {
		name := fmt.Sprintf("required(%s,%s)", rp.A, rp.B)
		if reason := requiredFailure(rc, byID, used, rp); reason != "" {
			if rc.cfg.MissingRequired == MissingRequiredFail {
				return out, &InfeasibleConstraintError{Constraint: name, Detail: reason}
			}
			out.requiredFailed++
			out.warnings = append(out.warnings, Warning{
				Kind:       WarningConstraintViolation,
				Constraint: name,
				Detail:     reason,
			})
			rc.log.WithField("constraint", name).Warn("Required pair skipped: " + reason)
			continue
		}
		a, b := byID[rp.A], byID[rp.B]
		used[rp.A], used[rp.B] = true, true
		out.fixed = append(out.fixed, newPair(a, b, ProvenanceRequired))
		out.requiredSatisfied++
	}

	for _, eo := range cons.EitherOr {
		name := fmt.Sprintf("either_or(%s)", eo.Fixed)
		fixed, ok := byID[eo.Fixed]
		if !ok || used[eo.Fixed] {
			out.warnings = append(out.warnings, Warning{
				Kind:       WarningAbsentReference,
				Constraint: name,
				Detail:     fmt.Sprintf("fixed candidate %s not available in the working pool", eo.Fixed),
			})
			continue
		}
		best, found := bestOption(rc, byID, used, fixed, eo.Options)
		if !found {
			out.warnings = append(out.warnings, Warning{
				Kind:       WarningConstraintViolation,
				Constraint: name,
				Detail:     "no listed option is available; candidate returned to the general pool",
			})
			rc.log.WithField("constraint", name).Warn("Either-or pair skipped, no option available")
			continue
		}
		used[eo.Fixed], used[best.ID] = true, true
		out.fixed = append(out.fixed, newPair(fixed, best, ProvenanceConstrained))
	}

	for _, c := range pool {
		if !used[c.ID] {
			out.remainder = append(out.remainder, c)
		}
	}
	return out, nil
}

// requiredFailure explains why a RequiredPair cannot be realized, or ""
// when it can.
func requiredFailure(rc *runContext, byID map[string]Candidate, used map[string]bool, rp RequiredPair) string {
	if rp.A == rp.B {
		return "both sides reference the same candidate"
	}
	a, aOK := byID[rp.A]
	b, bOK := byID[rp.B]
	switch {
	case !aOK:
		return fmt.Sprintf("candidate %s is not in the working pool", rp.A)
	case !bOK:
		return fmt.Sprintf("candidate %s is not in the working pool", rp.B)
	case used[rp.A]:
		return fmt.Sprintf("candidate %s is already consumed by an earlier constraint", rp.A)
	case used[rp.B]:
		return fmt.Sprintf("candidate %s is already consumed by an earlier constraint", rp.B)
	}
	if v := rc.pairViolation(a, b); v != "" {
		return v
	}
	return ""
}

// bestOption picks the available option maximizing combined value with the
// fixed candidate, breaking ties by smaller spread and then identifier.
// Options are considered in declaration order, which only matters for
// duplicate entries.
func bestOption(rc *runContext, byID map[string]Candidate, used map[string]bool, fixed Candidate, options []string) (Candidate, bool) {
	var best Candidate
	found := false
	for _, id := range options {
		opt, ok := byID[id]
		if !ok || used[id] || id == fixed.ID {
			continue
		}
		if rc.pairViolation(fixed, opt) != "" {
			continue
		}
		if !found || betterOption(fixed, opt, best) {
			best = opt
			found = true
		}
	}
	return best, found
}

func betterOption(fixed, candidate, current Candidate) bool {
	cv, bv := candidate.ValueOrZero()+fixed.ValueOrZero(), current.ValueOrZero()+fixed.ValueOrZero()
	if cv != bv {
		return cv > bv
	}
	cs, bs := spread(fixed, candidate), spread(fixed, current)
	if cs != bs {
		return cs < bs
	}
	return candidate.ID < current.ID
}

// absentForbiddenRefs reports forbidden-pair references that are not in
// the working pool, the subject and its exclusions alike. The rule is
// vacuously honored either way; the report exists so a misspelled roster
// name never fails silently.
func absentForbiddenRefs(byID map[string]Candidate, forbidden []ForbiddenPair) []Warning {
	var warnings []Warning
	for _, fp := range forbidden {
		name := fmt.Sprintf("forbidden(%s)", fp.ID)
		ids := append([]string{fp.ID}, fp.Excluded...)
		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				warnings = append(warnings, Warning{
					Kind:       WarningAbsentReference,
					Constraint: name,
					Detail:     fmt.Sprintf("candidate %s is not in the working pool", id),
				})
			}
		}
	}
	return warnings
}
