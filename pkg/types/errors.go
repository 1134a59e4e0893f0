package types

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors
var (
	ErrEmptyID    = errors.New("id cannot be empty")
	ErrEmptyName  = errors.New("name cannot be empty")
	ErrEmptyQuery = errors.New("query cannot be empty")
)

// Degradable failures. These are caught at the component boundary and
// converted into best-effort results; they never reach the caller as a
// hard failure.
var (
	// ErrNotFound indicates a lookup by identifier matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrEmbeddingUnavailable indicates the embedding provider failed or
	// returned no vector. Callers degrade to keyword-only behavior.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrGraphUnavailable indicates a graph store call failed or timed out.
	// Callers degrade to similarity-only ranking.
	ErrGraphUnavailable = errors.New("graph store unavailable")
)

// DimensionMismatchError reports stored vectors whose dimensionality does
// not match the query vector or the rest of the store. It indicates an
// ingestion bug (e.g. two embedding-model versions mixed in one store) and
// is the only error allowed to bubble out of a search as a hard failure.
type DimensionMismatchError struct {
	Want    int
	Got     int
	ItemIDs []string
}

func (e *DimensionMismatchError) Error() string {
	msg := fmt.Sprintf("embedding dimension mismatch: want %d, got %d", e.Want, e.Got)
	if len(e.ItemIDs) > 0 {
		msg += fmt.Sprintf(" (items: %s)", strings.Join(e.ItemIDs, ", "))
	}
	return msg
}

// IsDimensionMismatch reports whether err is (or wraps) a
// DimensionMismatchError.
func IsDimensionMismatch(err error) bool {
	var dm *DimensionMismatchError
	return errors.As(err, &dm)
}
