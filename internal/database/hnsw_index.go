package database

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/coder/hnsw"
	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// IdentityIndexMetadata stores metadata for validating cached roster indexes.
type IdentityIndexMetadata struct {
	StudentCount int       `json:"student_count"`
	Dim          int       `json:"dim"`
	BuildTime    time.Time `json:"build_time"`
	Version      int       `json:"version"`
}

const identityIndexVersion = 1

// IdentityIndex wraps an HNSW graph over the enrolled roster, keyed by roll id.
type IdentityIndex struct {
	graph *hnsw.Graph[string]
	rolls map[string]struct{}
	dim   int
	mu    sync.RWMutex
}

// NewIdentityIndex creates a new empty index.
func NewIdentityIndex() *IdentityIndex {
	return &IdentityIndex{
		rolls: make(map[string]struct{}),
	}
}

func newRosterGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.EfSearch = HNSWEfSearch
	g.Distance = hnsw.CosineDistance
	return g
}

// Build replaces the index contents with the given students.
// Students without an embedding are skipped.
func (h *IdentityIndex) Build(students []Student) error {
	g := newRosterGraph()
	rolls := make(map[string]struct{}, len(students))
	dim := 0

	for i := range students {
		s := &students[i]
		if len(s.Embedding) == 0 {
			continue
		}
		if dim == 0 {
			dim = len(s.Embedding)
		} else if len(s.Embedding) != dim {
			return fmt.Errorf("student %s: %w", s.RollID, facematch.ErrDimensionMismatch)
		}
		g.Add(hnsw.MakeNode(s.RollID, s.Embedding))
		rolls[s.RollID] = struct{}{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.graph = g
	h.rolls = rolls
	h.dim = dim
	return nil
}

// Add inserts a newly enrolled student. Already indexed roll ids are ignored.
func (h *IdentityIndex) Add(student Student) error {
	if len(student.Embedding) == 0 {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rolls[student.RollID]; ok {
		return nil
	}
	if h.dim != 0 && len(student.Embedding) != h.dim {
		return fmt.Errorf("student %s: %w", student.RollID, facematch.ErrDimensionMismatch)
	}
	if h.graph == nil {
		h.graph = newRosterGraph()
	}

	h.graph.Add(hnsw.MakeNode(student.RollID, student.Embedding))
	h.rolls[student.RollID] = struct{}{}
	h.dim = len(student.Embedding)
	return nil
}

// Search returns the roll ids of the k nearest students by cosine distance, nearest first.
func (h *IdentityIndex) Search(query []float32, k int) ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil || len(h.rolls) == 0 {
		return nil, errors.New("index not initialized")
	}
	if len(query) != h.dim {
		return nil, fmt.Errorf("query has %d values, index has %d: %w", len(query), h.dim, facematch.ErrDimensionMismatch)
	}

	neighbors := h.graph.Search(query, k)
	ids := make([]string, len(neighbors))
	for i, n := range neighbors {
		ids[i] = n.Key
	}
	return ids, nil
}

// Len returns the number of indexed students.
func (h *IdentityIndex) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rolls)
}

// Contains reports whether the roll id is indexed.
func (h *IdentityIndex) Contains(rollID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rolls[rollID]
	return ok
}

// Save persists the graph to path, the indexed roll ids to path.rolls and metadata to path.meta.
func (h *IdentityIndex) Save(path string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil || len(h.rolls) == 0 {
		// Remove existing files if index is empty (best-effort cleanup).
		_ = os.Remove(path)
		_ = os.Remove(path + ".meta")
		_ = os.Remove(path + ".rolls")
		return nil
	}

	f, err := os.Create(path) //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("failed to create HNSW index file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := h.graph.Export(w); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to export HNSW graph: %w", err)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to flush HNSW index file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close HNSW index file: %w", err)
	}

	rolls := make([]string, 0, len(h.rolls))
	for id := range h.rolls {
		rolls = append(rolls, id)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rolls); err != nil {
		return fmt.Errorf("failed to encode roll ids: %w", err)
	}
	if err := os.WriteFile(path+".rolls", buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write roll ids file: %w", err)
	}

	metadata := IdentityIndexMetadata{
		StudentCount: len(h.rolls),
		Dim:          h.dim,
		BuildTime:    time.Now(),
		Version:      identityIndexVersion,
	}
	metaData, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(path+".meta", metaData, 0600); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	return nil
}

// LoadIdentityIndexMetadata loads metadata from the .meta file next to path.
func LoadIdentityIndexMetadata(path string) (IdentityIndexMetadata, error) {
	var metadata IdentityIndexMetadata

	data, err := os.ReadFile(path + ".meta") //nolint:gosec // path is from trusted config
	if err != nil {
		return metadata, fmt.Errorf("failed to read metadata file: %w", err)
	}
	if err := json.Unmarshal(data, &metadata); err != nil {
		return metadata, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return metadata, nil
}

// Load replaces the index contents with the graph saved at path.
func (h *IdentityIndex) Load(path string) error {
	metadata, err := LoadIdentityIndexMetadata(path)
	if err != nil {
		return err
	}
	if metadata.Version != identityIndexVersion {
		return fmt.Errorf("unsupported index version %d", metadata.Version)
	}

	f, err := os.Open(path) //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("failed to open HNSW index file: %w", err)
	}
	defer f.Close()

	// Import needs an io.ByteReader.
	g := newRosterGraph()
	if err := g.Import(bufio.NewReader(f)); err != nil {
		return fmt.Errorf("failed to import HNSW graph: %w", err)
	}

	data, err := os.ReadFile(path + ".rolls") //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("failed to read roll ids file: %w", err)
	}
	var ids []string
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&ids); err != nil {
		return fmt.Errorf("failed to decode roll ids: %w", err)
	}

	rolls := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		rolls[id] = struct{}{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.graph = g
	h.rolls = rolls
	h.dim = metadata.Dim
	return nil
}
