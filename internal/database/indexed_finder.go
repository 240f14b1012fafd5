package database

import (
	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// IndexedFinder answers best-match queries from the HNSW roster index.
// Candidate lists no longer than the search width are scanned exactly. For
// longer lists the index proposes the nearest students over the whole
// roster; those, plus every candidate the index does not know yet, are
// re-scored exactly in candidate order, so ties resolve the same way as the
// linear scan. When that yields no eligible candidate the linear scan runs.
type IndexedFinder struct {
	index *IdentityIndex
	k     int
}

// NewIndexedFinder creates a finder that fetches k neighbours per query.
func NewIndexedFinder(index *IdentityIndex, k int) *IndexedFinder {
	if k <= 0 {
		k = 1
	}
	return &IndexedFinder{index: index, k: k}
}

func (f *IndexedFinder) searchWidth() int {
	return f.k * HNSWSearchMultiplier
}

// FindBest implements facematch.Finder.
func (f *IndexedFinder) FindBest(query facematch.Embedding, candidates []facematch.Identity) (facematch.MatchResult, error) {
	if f.index == nil || f.index.Len() == 0 || len(candidates) <= f.searchWidth() {
		return facematch.FindBest(query, candidates)
	}

	hits, err := f.index.Search(facematch.ToFloat32(query), f.searchWidth())
	if err != nil {
		return facematch.FindBest(query, candidates)
	}

	hitSet := make(map[string]struct{}, len(hits))
	for _, id := range hits {
		hitSet[id] = struct{}{}
	}

	// Students enrolled after the index was built are always re-scored.
	restricted := make([]facematch.Identity, 0, len(hits))
	for _, c := range candidates {
		if _, ok := hitSet[c.RollID]; ok || !f.index.Contains(c.RollID) {
			restricted = append(restricted, c)
		}
	}

	result, err := facematch.FindBest(query, restricted)
	if err != nil {
		return facematch.NoMatch(), err
	}
	if !result.Found() {
		return facematch.FindBest(query, candidates)
	}
	return result, nil
}
