package pairing

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/besterhub/kgc-league/pkg/logger"
)

// Engine runs pairing batches. It is stateless between runs and safe to
// reuse; every run gets its own immutable context.
type Engine struct {
	cfg Config
	log *logrus.Entry
}

// NewEngine validates the configuration and returns a ready engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg: cfg,
		log: logger.WithComponent("pairing-engine"),
	}, nil
}

// Run executes one synchronous pairing batch over the request.
//
// The returned error is nil for every recoverable degradation (shortfalls,
// skipped optional constraints, unseated pairs); those are reported through
// reserves and diagnostics instead. A non-nil error means the run produced
// nothing usable: an invalid request, an unsatisfiable RequiredPair under
// the fail policy, or a remainder in which no valid pair exists at all.
func (e *Engine) Run(req Request) (*Result, error) {
	start := time.Now()
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	rlog := e.log.WithField("run_id", runID)
	rlog.WithFields(logrus.Fields{
		"candidates": len(req.Candidates),
		"slots":      len(req.Slots),
		"objective":  e.cfg.Objective,
	}).Info("Starting pairing run")

	required := 0
	for _, s := range req.Slots {
		required += 2 * s.Capacity
	}
	target := req.PoolSize
	if target <= 0 {
		target = required
	}

	var warnings []Warning

	pool := buildPool(req.Candidates, target, required)
	if pool.shortfall != nil {
		rlog.WithFields(logrus.Fields{
			"required":  pool.shortfall.Required,
			"available": pool.shortfall.Available,
		}).Warn("Pool smaller than the configured sections need")
		warnings = append(warnings, Warning{
			Kind:   WarningInsufficientCandidates,
			Detail: pool.shortfall.Error(),
		})
	}

	rc := newRunContext(e.cfg, req.Constraints, rlog)

	cons, err := applyConstraints(rc, pool.selected, req.Constraints)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, cons.warnings...)

	anchors, partners := splitByIndex(cons.remainder)
	match, err := matchPools(rc, anchors, partners)
	if err != nil {
		// A dead remainder is fatal only when the run formed no pairs at
		// all; with constraint-fixed pairs in hand it degrades to a warning
		// and the leftovers become reserves.
		if len(cons.fixed) == 0 {
			return nil, err
		}
		warnings = append(warnings, Warning{
			Kind:   WarningInfeasibleRemainder,
			Detail: err.Error(),
		})
	}

	auto := match.pairs
	var balance *BalanceReport
	if e.cfg.Objective == ObjectiveBalanced && len(match.pairs) > 0 {
		alternative := balancedSelection(anchors, partners, match.edges, len(match.pairs))
		auto, balance = chooseSolution(e.cfg, cons.fixed, match.pairs, alternative)
	}

	solution := append(append([]Pair{}, cons.fixed...), auto...)
	placed, unseated := allocateSlots(rc, solution, req.Slots)

	objective := 0.0
	for _, p := range solution {
		objective += p.CombinedValue
	}

	result := &Result{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Pairs:       placed,
		Reserves:    assembleReserves(unseated, match.unmatched, pool.reserves),
		Diagnostics: Diagnostics{
			Mode:              match.mode,
			ObjectiveValue:    objective,
			PoolSize:          len(pool.selected),
			RequiredSatisfied: cons.requiredSatisfied,
			RequiredFailed:    cons.requiredFailed,
			PairShortfall:     match.shortfall,
			Warnings:          warnings,
			Balance:           balance,
			ElapsedMS:         time.Since(start).Milliseconds(),
		},
	}

	rlog.WithFields(logrus.Fields{
		"pairs":           len(result.Pairs),
		"reserves":        len(result.Reserves),
		"mode":            result.Diagnostics.Mode,
		"objective_value": result.Diagnostics.ObjectiveValue,
		"elapsed_ms":      result.Diagnostics.ElapsedMS,
	}).Info("Pairing run complete")
	return result, nil
}

// assembleReserves builds the reserve list in its fixed output order:
// unseated pairs first (strongest first), then unmatched pool candidates,
// then the overflow and unscored entries the pool build produced.
func assembleReserves(unseated []Reserve, unmatched []Candidate, poolReserves []Reserve) []Reserve {
	out := make([]Reserve, 0, len(unseated)+len(unmatched)+len(poolReserves))

	sort.SliceStable(unseated, func(i, j int) bool {
		if unseated[i].Value != unseated[j].Value {
			return unseated[i].Value > unseated[j].Value
		}
		return unseated[i].Pair.Anchor.ID < unseated[j].Pair.Anchor.ID
	})
	out = append(out, unseated...)

	left := append([]Candidate(nil), unmatched...)
	sort.Slice(left, func(i, j int) bool {
		if left[i].ValueOrZero() != left[j].ValueOrZero() {
			return left[i].ValueOrZero() > left[j].ValueOrZero()
		}
		return left[i].ID < left[j].ID
	})
	for _, c := range left {
		out = append(out, Reserve{
			CandidateID: c.ID,
			Value:       c.ValueOrZero(),
			Reason:      ReasonUnmatched,
		})
	}

	return append(out, poolReserves...)
}

func validateRequest(req Request) error {
	if len(req.Slots) == 0 {
		return fmt.Errorf("%w: at least one slot is required", ErrInvalidRequest)
	}
	sections := make(map[string]bool, len(req.Slots))
	for _, s := range req.Slots {
		if s.SectionID == "" {
			return fmt.Errorf("%w: slot with empty section id", ErrInvalidRequest)
		}
		if sections[s.SectionID] {
			return fmt.Errorf("%w: duplicate section id %q", ErrInvalidRequest, s.SectionID)
		}
		sections[s.SectionID] = true
		if s.Capacity < 1 {
			return fmt.Errorf("%w: slot %q has capacity %d", ErrInvalidRequest, s.SectionID, s.Capacity)
		}
	}
	ids := make(map[string]bool, len(req.Candidates))
	for _, c := range req.Candidates {
		if c.ID == "" {
			return fmt.Errorf("%w: candidate with empty id", ErrInvalidRequest)
		}
		if ids[c.ID] {
			return fmt.Errorf("%w: duplicate candidate id %q", ErrInvalidRequest, c.ID)
		}
		ids[c.ID] = true
	}
	if req.PoolSize < 0 {
		return fmt.Errorf("%w: pool size must be non-negative, got %d", ErrInvalidRequest, req.PoolSize)
	}
	if req.Constraints.MinSpread < 0 {
		return fmt.Errorf("%w: minimum spread must be non-negative, got %v", ErrInvalidRequest, req.Constraints.MinSpread)
	}
	return nil
}
