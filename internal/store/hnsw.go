package store

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"
)

// HNSWStore implements VectorStore with coder/hnsw, a pure Go HNSW graph.
// It is the default backend: embedded, no external service to run.
type HNSWStore struct {
	mu         sync.RWMutex
	graph      *hnsw.Graph[uint64]
	dimensions int

	// ID mapping (chunk ID <-> internal key) plus per-chunk metadata
	// for post-filtering search results.
	idMap   map[string]uint64
	keyMap  map[uint64]string
	meta    map[uint64]Meta
	nextKey uint64

	closed bool
}

// hnswSidecar is the gob-encoded state saved next to the graph file.
type hnswSidecar struct {
	IDMap      map[string]uint64
	Meta       map[uint64]Meta
	NextKey    uint64
	Dimensions int
}

// filterOversample controls how many extra candidates a filtered search
// requests from the graph before post-filtering, since the graph itself
// knows nothing about metadata.
const filterOversample = 4

// NewHNSWStore creates an in-process vector store for vectors of the
// given dimensionality, using cosine distance.
func NewHNSWStore(dimensions int) (*HNSWStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 20
	graph.Ml = 0.25

	return &HNSWStore{
		graph:      graph,
		dimensions: dimensions,
		idMap:      make(map[string]uint64),
		keyMap:     make(map[uint64]string),
		meta:       make(map[uint64]Meta),
	}, nil
}

// Add inserts records. Existing chunk IDs are lazily replaced: the old
// graph node is orphaned rather than removed, because coder/hnsw breaks
// when the last node is deleted.
func (s *HNSWStore) Add(ctx context.Context, records []EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	for _, r := range records {
		if len(r.Vector) != s.dimensions {
			return ErrDimensionMismatch{
				Expected: s.dimensions,
				Got:      len(r.Vector),
			}
		}
	}

	for _, r := range records {
		if existingKey, exists := s.idMap[r.ChunkID]; exists {
			delete(s.keyMap, existingKey)
			delete(s.meta, existingKey)
			delete(s.idMap, r.ChunkID)
		}

		key := s.nextKey
		s.nextKey++

		vec := make([]float32, len(r.Vector))
		copy(vec, r.Vector)
		normalizeVectorInPlace(vec)

		s.graph.Add(hnsw.MakeNode(key, vec))

		s.idMap[r.ChunkID] = key
		s.keyMap[key] = r.ChunkID
		s.meta[key] = r.Meta
	}

	return nil
}

// Search finds the k nearest neighbors of query, restricted by filter.
// Filtering is applied after the graph search, with oversampling so a
// selective filter still fills k results when enough matches exist.
func (s *HNSWStore) Search(ctx context.Context, query []float32, k int, filter Filter) ([]*VectorResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	if len(query) != s.dimensions {
		return nil, ErrDimensionMismatch{
			Expected: s.dimensions,
			Got:      len(query),
		}
	}

	if s.graph.Len() == 0 {
		return []*VectorResult{}, nil
	}

	normalizedQuery := make([]float32, len(query))
	copy(normalizedQuery, query)
	normalizeVectorInPlace(normalizedQuery)

	fetch := k
	if !filter.Empty() {
		fetch = k * filterOversample
		if total := s.graph.Len(); fetch > total {
			fetch = total
		}
	}

	nodes := s.graph.Search(normalizedQuery, fetch)

	results := make([]*VectorResult, 0, k)
	for _, node := range nodes {
		id, exists := s.keyMap[node.Key]
		if !exists {
			// Orphaned by a lazy delete.
			continue
		}
		if !s.matchesFilter(node.Key, filter) {
			continue
		}

		distance := s.graph.Distance(normalizedQuery, node.Value)
		results = append(results, &VectorResult{
			ChunkID: id,
			Score:   cosineDistanceToScore(distance),
		})
		if len(results) == k {
			break
		}
	}

	return results, nil
}

// matchesFilter checks a node's metadata against the filter.
// Caller holds at least a read lock.
func (s *HNSWStore) matchesFilter(key uint64, filter Filter) bool {
	if filter.Empty() {
		return true
	}
	m, ok := s.meta[key]
	if !ok {
		return false
	}
	return m.Brand == filter.Brand
}

// Metadata returns the stored metadata for a chunk ID.
func (s *HNSWStore) Metadata(chunkID string) (Meta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.idMap[chunkID]
	if !ok {
		return Meta{}, false
	}
	m, ok := s.meta[key]
	return m, ok
}

// Count returns the number of live vectors.
func (s *HNSWStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, fmt.Errorf("store is closed")
	}

	return len(s.idMap), nil
}

// Clear drops every vector and resets the graph. A fresh graph is
// cheaper and safer than deleting nodes one by one, since coder/hnsw
// breaks when the last node is removed.
func (s *HNSWStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 20
	graph.Ml = 0.25

	s.graph = graph
	s.idMap = make(map[string]uint64)
	s.keyMap = make(map[uint64]string)
	s.meta = make(map[uint64]Meta)
	s.nextKey = 0

	return nil
}

// Dimensions returns the store's vector dimensionality.
func (s *HNSWStore) Dimensions() int {
	return s.dimensions
}

// Save persists the graph and sidecar atomically (temp file + rename).
func (s *HNSWStore) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpIndexPath := path + ".tmp"
	file, err := os.Create(tmpIndexPath)
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}

	if err := s.graph.Export(file); err != nil {
		file.Close()
		os.Remove(tmpIndexPath)
		return fmt.Errorf("failed to export graph: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpIndexPath)
		return fmt.Errorf("failed to close index file: %w", err)
	}

	if err := os.Rename(tmpIndexPath, path); err != nil {
		os.Remove(tmpIndexPath)
		return fmt.Errorf("failed to rename index file: %w", err)
	}

	if err := s.saveSidecar(path + ".meta"); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	return nil
}

func (s *HNSWStore) saveSidecar(path string) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp metadata file: %w", err)
	}

	sidecar := hnswSidecar{
		IDMap:      s.idMap,
		Meta:       s.meta,
		NextKey:    s.nextKey,
		Dimensions: s.dimensions,
	}

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(sidecar); err != nil {
		if closeErr := file.Close(); closeErr != nil {
			slog.Warn("failed to close temp file during cleanup", slog.String("error", closeErr.Error()))
		}
		os.Remove(tmpPath)
		return fmt.Errorf("encode metadata: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close metadata file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Load restores a previously saved graph and sidecar.
func (s *HNSWStore) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}

	if err := s.loadSidecar(path + ".meta"); err != nil {
		return fmt.Errorf("failed to load metadata: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open index file: %w", err)
	}
	defer file.Close()

	// coder/hnsw Import requires an io.ByteReader.
	reader := bufio.NewReader(file)
	if err := s.graph.Import(reader); err != nil {
		return fmt.Errorf("failed to import graph: %w", err)
	}

	return nil
}

func (s *HNSWStore) loadSidecar(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open metadata file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.Warn("failed to close metadata file", slog.String("error", err.Error()))
		}
	}()

	var sidecar hnswSidecar

	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&sidecar); err != nil {
		return fmt.Errorf("decode hnsw metadata: %w", err)
	}

	s.idMap = sidecar.IDMap
	s.meta = sidecar.Meta
	s.nextKey = sidecar.NextKey
	s.dimensions = sidecar.Dimensions
	s.keyMap = make(map[uint64]string, len(s.idMap))

	for id, key := range s.idMap {
		s.keyMap[key] = id
	}

	return nil
}

// Close releases resources.
func (s *HNSWStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	s.graph = nil

	return nil
}

// ReadHNSWDimensions reads the dimensionality from an existing store's
// sidecar. Returns 0 if the sidecar does not exist yet.
func ReadHNSWDimensions(vectorPath string) (int, error) {
	file, err := os.Open(vectorPath + ".meta")
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to open hnsw metadata: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.Warn("failed to close hnsw metadata file", slog.String("error", err.Error()))
		}
	}()

	var sidecar hnswSidecar
	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&sidecar); err != nil {
		return 0, fmt.Errorf("failed to decode hnsw metadata: %w", err)
	}

	return sidecar.Dimensions, nil
}

var _ VectorStore = (*HNSWStore)(nil)

// normalizeVectorInPlace normalizes a vector to unit length in place.
func normalizeVectorInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	invMagnitude := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= invMagnitude
	}
}

// cosineDistanceToScore converts cosine distance (0 identical, 2 opposite)
// to a similarity score in [0, 1].
func cosineDistanceToScore(distance float32) float32 {
	return 1.0 - distance/2.0
}
