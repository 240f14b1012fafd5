package facematch

import (
	"errors"
	"math"
	"testing"
)

func TestFindBest_EmptyCandidates(t *testing.T) {
	for _, candidates := range [][]Identity{
		nil,
		{},
		{{RollID: "R1"}, {RollID: "R2", Embedding: Embedding{}}},
	} {
		got, err := FindBest(Embedding{1, 0, 0}, candidates)
		if err != nil {
			t.Fatalf("FindBest() error = %v", err)
		}
		if got.Found() {
			t.Errorf("expected no match, got %s", got.Identity.RollID)
		}
		if got.Cosine != 0 {
			t.Errorf("Cosine = %v, want 0", got.Cosine)
		}
		if !math.IsInf(got.Euclidean, 1) {
			t.Errorf("Euclidean = %v, want +Inf", got.Euclidean)
		}
	}
}

func TestFindBest_PicksHighestCosine(t *testing.T) {
	candidates := []Identity{
		{RollID: "R1", Embedding: Embedding{0, 1, 0}},
		{RollID: "R2", Embedding: Embedding{0.9, 0.1, 0}},
		{RollID: "R3"},
		{RollID: "R4", Embedding: Embedding{0.5, 0.5, 0}},
	}

	got, err := FindBest(Embedding{1, 0, 0}, candidates)
	if err != nil {
		t.Fatalf("FindBest() error = %v", err)
	}
	if !got.Found() || got.Identity.RollID != "R2" {
		t.Fatalf("expected R2, got %+v", got)
	}
	wantDist := math.Sqrt(0.1*0.1 + 0.1*0.1)
	if math.Abs(got.Euclidean-wantDist) > 1e-9 {
		t.Errorf("Euclidean = %v, want %v", got.Euclidean, wantDist)
	}
}

func TestFindBest_TieBreakFirstWins(t *testing.T) {
	// Same direction means equal cosine; the closer candidate comes second
	// and must not win on distance.
	candidates := []Identity{
		{RollID: "FAR", Embedding: Embedding{2, 0}},
		{RollID: "NEAR", Embedding: Embedding{1, 0}},
	}

	got, err := FindBest(Embedding{1, 0}, candidates)
	if err != nil {
		t.Fatalf("FindBest() error = %v", err)
	}
	if got.Identity.RollID != "FAR" {
		t.Errorf("expected first candidate FAR on tie, got %s", got.Identity.RollID)
	}
}

func TestFindBest_NegativeOnlyCandidate(t *testing.T) {
	got, err := FindBest(Embedding{1, 0}, []Identity{{RollID: "R1", Embedding: Embedding{-1, 0}}})
	if err != nil {
		t.Fatalf("FindBest() error = %v", err)
	}
	if !got.Found() || got.Identity.RollID != "R1" {
		t.Fatalf("expected the only eligible candidate, got %+v", got)
	}
	if math.Abs(got.Cosine+1) > 1e-9 {
		t.Errorf("Cosine = %v, want -1", got.Cosine)
	}
}

func TestFindBest_Deterministic(t *testing.T) {
	candidates := []Identity{
		{RollID: "R1", Embedding: Embedding{0.3, 0.2, 0.9}},
		{RollID: "R2", Embedding: Embedding{0.31, 0.2, 0.88}},
		{RollID: "R3", Embedding: Embedding{-0.3, 0.7, 0.1}},
	}
	query := Embedding{0.3, 0.21, 0.89}

	first, err := FindBest(query, candidates)
	if err != nil {
		t.Fatalf("FindBest() error = %v", err)
	}
	second, err := FindBest(query, candidates)
	if err != nil {
		t.Fatalf("FindBest() error = %v", err)
	}
	if first.Identity != second.Identity ||
		math.Float64bits(first.Cosine) != math.Float64bits(second.Cosine) ||
		math.Float64bits(first.Euclidean) != math.Float64bits(second.Euclidean) {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
}

func TestFindBest_DimensionMismatchAborts(t *testing.T) {
	candidates := []Identity{
		{RollID: "R1", Embedding: Embedding{1, 0, 0}},
		{RollID: "R2", Embedding: Embedding{1, 0}},
	}

	_, err := FindBest(Embedding{1, 0, 0}, candidates)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestLinearFinder_ImplementsFinder(t *testing.T) {
	var f Finder = LinearFinder{}
	got, err := f.FindBest(Embedding{0, 1}, []Identity{
		{RollID: "R1", Embedding: Embedding{1, 0}},
		{RollID: "R2", Embedding: Embedding{0, 1}},
	})
	if err != nil {
		t.Fatalf("FindBest() error = %v", err)
	}
	if got.Identity.RollID != "R2" {
		t.Errorf("expected R2, got %s", got.Identity.RollID)
	}
}
