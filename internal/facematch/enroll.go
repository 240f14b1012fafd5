package facematch

import "fmt"

// EnrollmentPolicy holds the joint thresholds for a biometric duplicate.
// A roster member is a duplicate when distance < MaxDistance AND cosine > MinCosine.
type EnrollmentPolicy struct {
	MaxDistance float64 `yaml:"max_distance"`
	MinCosine   float64 `yaml:"min_cosine"`
}

// DefaultEnrollmentPolicy favours precision: only near-identical faces are flagged.
func DefaultEnrollmentPolicy() EnrollmentPolicy {
	return EnrollmentPolicy{MaxDistance: 0.35, MinCosine: 0.92}
}

// Guard decides whether a new enrollment collides with an existing identity.
type Guard struct {
	policy EnrollmentPolicy
}

// NewGuard creates an enrollment guard with the given policy.
func NewGuard(policy EnrollmentPolicy) *Guard {
	return &Guard{policy: policy}
}

// CheckDuplicate runs the identifier check first and the biometric check second.
// A roll collision names no match, and the embedding is not inspected for it.
// Both the new embedding and every stored embedding are normalized before comparison.
// The scan stops at the first roster member that satisfies both thresholds.
func (g *Guard) CheckDuplicate(rollID string, embedding Embedding, roster []Identity) (DuplicateVerdict, error) {
	for i := range roster {
		if roster[i].RollID == rollID {
			return DuplicateVerdict{Duplicate: true, Reason: ReasonRollAlreadyExists}, nil
		}
	}

	query, err := Normalize(embedding)
	if err != nil {
		return DuplicateVerdict{}, fmt.Errorf("new embedding for %s: %w", rollID, err)
	}

	for i := range roster {
		member := &roster[i]
		if len(member.Embedding) == 0 {
			continue
		}

		stored, err := Normalize(member.Embedding)
		if err != nil {
			return DuplicateVerdict{}, fmt.Errorf("stored embedding for %s: %w", member.RollID, err)
		}
		dist, err := EuclideanDistance(query, stored)
		if err != nil {
			return DuplicateVerdict{}, fmt.Errorf("comparing with %s: %w", member.RollID, err)
		}
		cos, err := CosineSimilarity(query, stored)
		if err != nil {
			return DuplicateVerdict{}, fmt.Errorf("comparing with %s: %w", member.RollID, err)
		}

		if dist < g.policy.MaxDistance && cos > g.policy.MinCosine {
			return DuplicateVerdict{
				Duplicate: true,
				Reason:    ReasonBiometricMatch,
				Match:     member,
				Cosine:    cos,
				Euclidean: dist,
			}, nil
		}
	}

	return DuplicateVerdict{Reason: ReasonNone}, nil
}
