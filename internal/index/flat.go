// Package index implements the flat nearest-neighbor index backing the
// knowledge store.
//
// The index is append-only: vectors are assigned consecutive positions
// starting at zero, and positions never change or disappear. The caller
// (the vector store) relies on this to keep documents and vectors
// positionally aligned.
//
// Distances are squared Euclidean (L2). All stored vectors and queries
// are expected to be unit-normalized, which makes ascending L2 order
// identical to descending cosine-similarity order.
package index

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors for index operations.
var (
	// ErrInvalidDimension is returned when an index is created with a
	// non-positive dimension.
	ErrInvalidDimension = errors.New("index dimension must be positive")

	// ErrDimensionMismatch is returned when a vector's width differs
	// from the index dimension fixed at creation time.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidK is returned when a search is requested with k <= 0.
	ErrInvalidK = errors.New("k must be positive")
)

// Candidate is a single nearest-neighbor search hit.
type Candidate struct {
	// Position is the zero-based insertion position of the vector.
	Position int

	// Distance is the squared L2 distance to the query.
	Distance float32
}

// Flat is a brute-force squared-L2 index over fixed-dimension vectors.
//
// It is not safe for concurrent use; the owning store serializes access.
type Flat struct {
	dimension int
	vectors   []float32 // row-major, len = count*dimension
	count     int
}

// New creates an empty flat index. The dimension is fixed for the
// lifetime of the index.
func New(dimension int) (*Flat, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDimension, dimension)
	}
	return &Flat{dimension: dimension}, nil
}

// Dimension returns the vector width fixed at creation time.
func (f *Flat) Dimension() int {
	return f.dimension
}

// Len returns the number of vectors in the index.
func (f *Flat) Len() int {
	return f.count
}

// Add appends vectors to the index in order.
//
// Every row is validated against the index dimension before anything is
// appended, so a failed Add leaves the index unchanged.
func (f *Flat) Add(vectors [][]float32) error {
	for i, vec := range vectors {
		if len(vec) != f.dimension {
			return fmt.Errorf("%w: vector %d has width %d, index has %d",
				ErrDimensionMismatch, i, len(vec), f.dimension)
		}
	}

	for _, vec := range vectors {
		f.vectors = append(f.vectors, vec...)
	}
	f.count += len(vectors)

	return nil
}

// Search returns up to min(k, Len()) nearest neighbors of query,
// ascending by squared L2 distance. Equal distances order by position.
// An empty index yields an empty result, not an error.
func (f *Flat) Search(query []float32, k int) ([]Candidate, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	if len(query) != f.dimension {
		return nil, fmt.Errorf("%w: query has width %d, index has %d",
			ErrDimensionMismatch, len(query), f.dimension)
	}
	if f.count == 0 {
		return []Candidate{}, nil
	}

	candidates := make([]Candidate, f.count)
	for i := 0; i < f.count; i++ {
		row := f.vectors[i*f.dimension : (i+1)*f.dimension]
		candidates[i] = Candidate{Position: i, Distance: squaredL2(query, row)}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Distance != candidates[j].Distance {
			return candidates[i].Distance < candidates[j].Distance
		}
		return candidates[i].Position < candidates[j].Position
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	return candidates[:k], nil
}

// squaredL2 computes the squared Euclidean distance between two vectors
// of equal length.
func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
