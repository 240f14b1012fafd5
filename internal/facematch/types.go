// Package facematch is the matching and decision engine shared by the CLI and web handlers.
// It scores face descriptors against a roster snapshot and applies the enrollment and
// attendance acceptance policies. Everything here is a pure computation over caller-owned data.
package facematch

// Identity is an enrolled student as seen by the matching engine.
type Identity struct {
	RollID    string
	Name      string
	Batch     string
	Section   string
	Embedding Embedding // nil when the student has no enrolled face
}

// MatchResult is the best-scoring candidate for one query embedding.
// Identity is nil when no eligible candidate exists.
type MatchResult struct {
	Identity  *Identity
	Cosine    float64
	Euclidean float64
}

// Found reports whether the result names a candidate.
func (m MatchResult) Found() bool {
	return m.Identity != nil
}

// DuplicateReason tells why an enrollment was rejected
type DuplicateReason string

const (
	ReasonNone              DuplicateReason = ""
	ReasonRollAlreadyExists DuplicateReason = "roll_already_exists"
	ReasonBiometricMatch    DuplicateReason = "biometric_match"
)

// DuplicateVerdict is the outcome of an enrollment duplicate check.
type DuplicateVerdict struct {
	Duplicate bool
	Reason    DuplicateReason
	Match     *Identity // set for ReasonBiometricMatch
	Cosine    float64
	Euclidean float64
}

// AttendanceMatch is one accepted identity in an attendance decision.
type AttendanceMatch struct {
	RollID string  `json:"roll"`
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
}

// AttendanceDecision is the result of resolving one batch of descriptors.
// Present holds each roll id at most once, in first-acceptance order, and
// Matches has exactly one entry per Present roll id.
type AttendanceDecision struct {
	Present []string
	Matches []AttendanceMatch
}
