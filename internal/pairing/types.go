package pairing

import "sort"

// Provenance records how a pair came to exist.
type Provenance string

const (
	// ProvenanceRequired marks a pair forced by a RequiredPair constraint.
	ProvenanceRequired Provenance = "REQUIRED"
	// ProvenanceConstrained marks a pair chosen by an EitherOrPair constraint.
	ProvenanceConstrained Provenance = "CONSTRAINED"
	// ProvenanceAuto marks a pair produced by the matching stage.
	ProvenanceAuto Provenance = "AUTO"
)

// Tags carries the optional categorical labels the rating engine assigns.
type Tags struct {
	Role             string `json:"role,omitempty"`
	ConsistencyClass string `json:"consistency_class,omitempty"`
}

// Candidate is one immutable roster entry offered to a pairing run.
// Value is nil for a player the rating engine has not scored; such players
// are excluded from ranked selection but still reported as reserves.
// Index is the ordering attribute (handicap index): it drives the median
// split and the minimum-spread rule. Lower Tier means higher selection
// priority.
type Candidate struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Value       *float64 `json:"value"`
	Index       float64  `json:"index"`
	Eligibility []string `json:"eligibility,omitempty"`
	Tags        Tags     `json:"tags,omitempty"`
	Tier        int      `json:"tier"`
}

// Scored reports whether the candidate has a value score.
func (c Candidate) Scored() bool {
	return c.Value != nil
}

// ValueOrZero returns the candidate's value score, treating an absent score as 0.
func (c Candidate) ValueOrZero() float64 {
	if c.Value == nil {
		return 0
	}
	return *c.Value
}

// EligibleFor reports whether the candidate may occupy slots requiring the
// given category.
func (c Candidate) EligibleFor(category string) bool {
	for _, cat := range c.Eligibility {
		if cat == category {
			return true
		}
	}
	return false
}

// Float is a convenience for building optional value scores.
func Float(v float64) *float64 {
	return &v
}

// Pair is a matched two-candidate unit. Anchor is always the member with
// the lower ordering attribute (ties broken by identifier), so a pair's
// shape does not depend on input order.
type Pair struct {
	SectionID     string     `json:"section_id,omitempty"`
	Anchor        Candidate  `json:"anchor"`
	Partner       Candidate  `json:"partner"`
	CombinedValue float64    `json:"combined_value"`
	Spread        float64    `json:"attribute_spread"`
	Eligibility   []string   `json:"eligibility,omitempty"`
	Provenance    Provenance `json:"provenance"`
}

func newPair(a, b Candidate, prov Provenance) Pair {
	anchor, partner := a, b
	if b.Index < a.Index || (b.Index == a.Index && b.ID < a.ID) {
		anchor, partner = b, a
	}
	return Pair{
		Anchor:        anchor,
		Partner:       partner,
		CombinedValue: a.ValueOrZero() + b.ValueOrZero(),
		Spread:        spread(a, b),
		Eligibility:   intersectCategories(a.Eligibility, b.Eligibility),
		Provenance:    prov,
	}
}

// Contains reports whether the pair includes the candidate with the given id.
func (p Pair) Contains(id string) bool {
	return p.Anchor.ID == id || p.Partner.ID == id
}

// EligibleFor reports whether the pair may occupy a slot requiring the
// given category. An empty category means the slot is open to any pair.
func (p Pair) EligibleFor(category string) bool {
	if category == "" {
		return true
	}
	for _, cat := range p.Eligibility {
		if cat == category {
			return true
		}
	}
	return false
}

func spread(a, b Candidate) float64 {
	d := a.Index - b.Index
	if d < 0 {
		d = -d
	}
	return d
}

// intersectCategories returns the sorted intersection of two eligibility
// sets. Sorting keeps pair eligibility independent of roster input order.
func intersectCategories(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	inA := make(map[string]bool, len(a))
	for _, cat := range a {
		inA[cat] = true
	}
	var out []string
	seen := make(map[string]bool, len(b))
	for _, cat := range b {
		if inA[cat] && !seen[cat] {
			out = append(out, cat)
			seen[cat] = true
		}
	}
	sort.Strings(out)
	return out
}

// Slot is a capacity-bounded destination for finished pairs. Slots are
// filled in declaration order; the first slot is the primary section.
// An empty RequiredCategory admits any pair.
type Slot struct {
	SectionID        string `json:"section_id"`
	Capacity         int    `json:"capacity"`
	RequiredCategory string `json:"required_category,omitempty"`
}

// RequiredPair forces two candidates to be paired together.
type RequiredPair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// EitherOrPair forces Fixed to pair with exactly one member of Options,
// chosen to maximize combined value among those still available.
type EitherOrPair struct {
	Fixed   string   `json:"fixed"`
	Options []string `json:"options"`
}

// ForbiddenPair bans ID from being paired with any member of Excluded.
type ForbiddenPair struct {
	ID       string   `json:"id"`
	Excluded []string `json:"excluded"`
}

// Constraints is the full constraint configuration for one run.
// MinSpread requires every pair's attribute spread to be at least the
// threshold; zero disables the rule.
type Constraints struct {
	Required  []RequiredPair  `json:"required,omitempty"`
	EitherOr  []EitherOrPair  `json:"either_or,omitempty"`
	Forbidden []ForbiddenPair `json:"forbidden,omitempty"`
	MinSpread float64         `json:"min_spread,omitempty"`
}

// Request is the immutable input to a single pairing run.
// PoolSize 0 derives the target pool from total slot capacity
// (two candidates per pair).
type Request struct {
	Candidates  []Candidate `json:"candidates"`
	Constraints Constraints `json:"constraints"`
	Slots       []Slot      `json:"slots"`
	PoolSize    int         `json:"pool_size,omitempty"`
}
