package facematch

import (
	"fmt"
	"slices"
)

// AttendancePolicy holds the acceptance thresholds for an attendance match.
// A best match is accepted when cosine > MinCosine AND distance < MaxDistance.
type AttendancePolicy struct {
	MinCosine   float64 `yaml:"min_cosine"`
	MaxDistance float64 `yaml:"max_distance"`
}

// DefaultAttendancePolicy favours recall over the stricter enrollment policy.
func DefaultAttendancePolicy() AttendancePolicy {
	return AttendancePolicy{MinCosine: 0.85, MaxDistance: 0.6}
}

// Accepts reports whether a best match passes the policy.
func (p AttendancePolicy) Accepts(m MatchResult) bool {
	return m.Found() && m.Cosine > p.MinCosine && m.Euclidean < p.MaxDistance
}

// DescriptorOutcome classifies what happened to a single descriptor during Resolve.
type DescriptorOutcome string

const (
	OutcomeAccepted DescriptorOutcome = "accepted"
	OutcomeRepeat   DescriptorOutcome = "repeat"   // matched someone already marked present
	OutcomeRejected DescriptorOutcome = "rejected" // no candidate or below threshold
)

// Resolver maps a batch of detected descriptors to present students.
type Resolver struct {
	finder Finder
	policy AttendancePolicy

	// OnDescriptor, when set, is called once per descriptor with its outcome.
	OnDescriptor func(DescriptorOutcome)
}

// NewResolver creates a resolver. A nil finder falls back to LinearFinder.
func NewResolver(finder Finder, policy AttendancePolicy) *Resolver {
	if finder == nil {
		finder = LinearFinder{}
	}
	return &Resolver{finder: finder, policy: policy}
}

// Resolve matches each descriptor in input order against the roster.
// Unrecognized descriptors are dropped silently; an identity is marked at most once.
func (r *Resolver) Resolve(descriptors []Embedding, roster []Identity) (AttendanceDecision, error) {
	decision := AttendanceDecision{
		Present: []string{},
		Matches: []AttendanceMatch{},
	}

	for i, desc := range descriptors {
		best, err := r.finder.FindBest(desc, roster)
		if err != nil {
			return AttendanceDecision{}, fmt.Errorf("descriptor %d: %w", i, err)
		}

		if !r.policy.Accepts(best) {
			r.report(OutcomeRejected)
			continue
		}

		if slices.Contains(decision.Present, best.Identity.RollID) {
			r.report(OutcomeRepeat)
			continue
		}

		decision.Present = append(decision.Present, best.Identity.RollID)
		decision.Matches = append(decision.Matches, AttendanceMatch{
			RollID: best.Identity.RollID,
			Name:   best.Identity.Name,
			Score:  best.Cosine,
		})
		r.report(OutcomeAccepted)
	}

	return decision, nil
}

func (r *Resolver) report(o DescriptorOutcome) {
	if r.OnDescriptor != nil {
		r.OnDescriptor(o)
	}
}
