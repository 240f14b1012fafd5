package facematch

import (
	"fmt"
	"math"
)

// Finder returns the best-scoring candidate for a query embedding.
// Implementations apply no acceptance threshold.
type Finder interface {
	FindBest(query Embedding, candidates []Identity) (MatchResult, error)
}

// LinearFinder scans every candidate. Candidate sets are one class section,
// so an exhaustive scan is the reference implementation.
type LinearFinder struct{}

// FindBest implements Finder.
func (LinearFinder) FindBest(query Embedding, candidates []Identity) (MatchResult, error) {
	return FindBest(query, candidates)
}

// NoMatch is the sentinel result for an empty or fully ineligible candidate set.
func NoMatch() MatchResult {
	return MatchResult{Cosine: 0, Euclidean: math.Inf(1)}
}

// FindBest returns the candidate with the strictly greatest cosine similarity to query.
// Candidates without an embedding are skipped. On ties the earlier candidate wins.
// A dimension mismatch aborts the scan.
func FindBest(query Embedding, candidates []Identity) (MatchResult, error) {
	best := NoMatch()

	for i := range candidates {
		c := &candidates[i]
		if len(c.Embedding) == 0 {
			continue
		}

		cos, err := CosineSimilarity(query, c.Embedding)
		if err != nil {
			return NoMatch(), fmt.Errorf("scoring %s: %w", c.RollID, err)
		}
		dist, err := EuclideanDistance(query, c.Embedding)
		if err != nil {
			return NoMatch(), fmt.Errorf("scoring %s: %w", c.RollID, err)
		}

		if best.Identity == nil || cos > best.Cosine {
			best = MatchResult{Identity: c, Cosine: cos, Euclidean: dist}
		}
	}

	return best, nil
}
