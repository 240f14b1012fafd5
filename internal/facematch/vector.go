package facematch

import (
	"errors"
	"fmt"
	"math"

	"github.com/viterin/vek"
)

var (
	// ErrDimensionMismatch is returned when two compared vectors differ in length.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrInvalidVector is returned for vectors that cannot be normalized or contain non-finite values.
	ErrInvalidVector = errors.New("invalid vector")
)

// Embedding is a face descriptor produced by an external extractor.
// Callers must treat it as immutable once produced.
type Embedding []float64

// Magnitude returns the Euclidean norm of v. The zero vector has magnitude 0.
func Magnitude(v Embedding) float64 {
	if len(v) == 0 {
		return 0
	}
	return vek.Norm(v)
}

// Normalize returns a new unit-length copy of v.
func Normalize(v Embedding) (Embedding, error) {
	m := Magnitude(v)
	if m == 0 {
		return nil, fmt.Errorf("normalize: zero magnitude: %w", ErrInvalidVector)
	}
	return vek.DivNumber(v, m), nil
}

// Dot returns the dot product of a and b.
func Dot(a, b Embedding) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dot: %d vs %d: %w", len(a), len(b), ErrDimensionMismatch)
	}
	if len(a) == 0 {
		return 0, nil
	}
	return vek.Dot(a, b), nil
}

// CosineSimilarity returns dot(a,b) / (|a|*|b|).
// It is exactly 0 when either vector has zero magnitude.
func CosineSimilarity(a, b Embedding) (float64, error) {
	dot, err := Dot(a, b)
	if err != nil {
		return 0, err
	}
	ma, mb := Magnitude(a), Magnitude(b)
	if ma == 0 || mb == 0 {
		return 0, nil
	}
	sim := dot / (ma * mb)
	// Clamp floating point overshoot so the result stays within [-1, 1].
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim, nil
}

// EuclideanDistance returns the straight-line distance between a and b.
func EuclideanDistance(a, b Embedding) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("euclidean distance: %d vs %d: %w", len(a), len(b), ErrDimensionMismatch)
	}
	if len(a) == 0 {
		return 0, nil
	}
	return vek.Distance(a, b), nil
}

// Validate checks that v has exactly dim components and that each one is finite.
// A dim of 0 disables the length check.
func Validate(v Embedding, dim int) error {
	if len(v) == 0 {
		return fmt.Errorf("empty embedding: %w", ErrInvalidVector)
	}
	if dim > 0 && len(v) != dim {
		return fmt.Errorf("embedding has %d values, expected %d: %w", len(v), dim, ErrDimensionMismatch)
	}
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("embedding value %d is not finite: %w", i, ErrInvalidVector)
		}
	}
	return nil
}

// ToFloat32 converts an embedding to the single precision form used by storage and the HNSW index.
func ToFloat32(v Embedding) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// FromFloat32 converts a stored single precision vector back to an Embedding.
func FromFloat32(v []float32) Embedding {
	if v == nil {
		return nil
	}
	out := make(Embedding, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
