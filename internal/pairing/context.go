package pairing

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// runContext is the immutable per-run state shared by every phase: the
// engine configuration, the active validity rules, and the run-scoped
// logger. It is built once in Run and never mutated afterwards.
type runContext struct {
	cfg       Config
	minSpread float64
	forbidden map[string]map[string]bool
	log       *logrus.Entry
}

func newRunContext(cfg Config, cons Constraints, log *logrus.Entry) *runContext {
	forbidden := make(map[string]map[string]bool)
	block := func(a, b string) {
		if forbidden[a] == nil {
			forbidden[a] = make(map[string]bool)
		}
		forbidden[a][b] = true
	}
	for _, fp := range cons.Forbidden {
		for _, other := range fp.Excluded {
			block(fp.ID, other)
			block(other, fp.ID)
		}
	}
	return &runContext{
		cfg:       cfg,
		minSpread: cons.MinSpread,
		forbidden: forbidden,
		log:       log,
	}
}

// pairViolation reports why the two candidates may not form a pair, or ""
// when the pair is valid. Every pair the run emits, whatever its
// provenance, passes through this check.
func (rc *runContext) pairViolation(a, b Candidate) string {
	if a.ID == b.ID {
		return "candidate paired with itself"
	}
	if rc.forbidden[a.ID][b.ID] {
		return fmt.Sprintf("pairing %s with %s is forbidden", a.ID, b.ID)
	}
	if rc.minSpread > 0 && spread(a, b) < rc.minSpread {
		return fmt.Sprintf("attribute spread %.2f below minimum %.2f", spread(a, b), rc.minSpread)
	}
	return ""
}
