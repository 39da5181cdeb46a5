package knowledge

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"sort"
)

var (
	// ErrDimensionMismatch is returned when a vector's length does not match
	// the index dimensionality.
	ErrDimensionMismatch = errors.New("knowledge: vector dimension mismatch")

	// ErrPairMismatch is returned when the index and metadata arrays disagree
	// in length, meaning the pairing invariant is broken.
	ErrPairMismatch = errors.New("knowledge: index and metadata length mismatch")

	// ErrEmptyQuery is returned for a nil or empty query vector.
	ErrEmptyQuery = errors.New("knowledge: empty query vector")
)

// Hit is a single nearest-neighbor result. Position is the ordinal position
// of the matched vector (and its metadata chunk); Distance is squared L2,
// smaller is closer.
type Hit struct {
	Position int
	Distance float64
}

// FlatIndex is a read-mostly flat vector index with exhaustive L2 search.
// It is built offline, loaded read-only at runtime, and never mutated by the
// retrieval path. Concurrent Search calls are safe once loading is complete.
type FlatIndex struct {
	dim     int
	vectors [][]float32
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dim int) *FlatIndex {
	if dim <= 0 {
		panic("knowledge: index dimension must be positive")
	}
	return &FlatIndex{dim: dim}
}

// Dim returns the vector dimensionality.
func (ix *FlatIndex) Dim() int { return ix.dim }

// Len returns the number of stored vectors.
func (ix *FlatIndex) Len() int { return len(ix.vectors) }

// Add appends a vector at the next ordinal position. Used only by the
// offline build path.
func (ix *FlatIndex) Add(vec []float32) error {
	if len(vec) != ix.dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), ix.dim)
	}
	ix.vectors = append(ix.vectors, vec)
	return nil
}

// Search returns up to k nearest vectors to query, ordered by ascending
// distance. Fewer than k hits are returned when the index holds fewer
// entries.
func (ix *FlatIndex) Search(query []float32, k int) ([]Hit, error) {
	if len(query) == 0 {
		return nil, ErrEmptyQuery
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), ix.dim)
	}
	if k <= 0 || len(ix.vectors) == 0 {
		return nil, nil
	}

	hits := make([]Hit, len(ix.vectors))
	for i, vec := range ix.vectors {
		hits[i] = Hit{Position: i, Distance: squaredL2(query, vec)}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Position < hits[j].Position
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// indexFile is the on-disk representation of a FlatIndex.
type indexFile struct {
	Dim     int
	Vectors [][]float32
}

// Save persists the index with gob encoding.
func (ix *FlatIndex) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("knowledge: create index file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(indexFile{Dim: ix.dim, Vectors: ix.vectors}); err != nil {
		return fmt.Errorf("knowledge: encode index: %w", err)
	}
	return nil
}

// LoadIndex reads a persisted index from disk.
func LoadIndex(path string) (*FlatIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("knowledge: open index file: %w", err)
	}
	defer f.Close()

	var file indexFile
	if err := gob.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("knowledge: decode index: %w", err)
	}
	if file.Dim <= 0 {
		return nil, fmt.Errorf("knowledge: index file has invalid dimension %d", file.Dim)
	}
	for i, vec := range file.Vectors {
		if len(vec) != file.Dim {
			return nil, fmt.Errorf("%w: vector %d has %d dims, want %d", ErrDimensionMismatch, i, len(vec), file.Dim)
		}
	}
	return &FlatIndex{dim: file.Dim, vectors: file.Vectors}, nil
}

// LoadPair loads the index and its parallel metadata array, enforcing the
// equal-length invariant between the two.
func LoadPair(indexPath, metadataPath string) (*FlatIndex, []Chunk, error) {
	ix, err := LoadIndex(indexPath)
	if err != nil {
		return nil, nil, err
	}
	chunks, err := LoadChunks(metadataPath)
	if err != nil {
		return nil, nil, err
	}
	if ix.Len() != len(chunks) {
		return nil, nil, fmt.Errorf("%w: %d vectors, %d chunks", ErrPairMismatch, ix.Len(), len(chunks))
	}
	return ix, chunks, nil
}
