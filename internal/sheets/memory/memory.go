package memory

import (
	"context"
	"sync"

	ports "pipeline/internal/sheets"
)

// Store is an in-memory pipeline source. It is used for tests and for local
// runs without a spreadsheet.
type Store struct {
	mu       sync.Mutex
	identity string
	grid     [][]any
	err      error
	reads    int
}

var _ ports.Source = (*Store)(nil)

// New returns a store serving grid under the given identity.
func New(identity string, grid [][]any) *Store {
	return &Store{identity: identity, grid: copyGrid(grid)}
}

// Identity returns the identity given to New.
func (s *Store) Identity() string {
	return s.identity
}

// ReadRows returns a copy of the stored grid, or the configured failure.
func (s *Store) ReadRows(ctx context.Context) ([][]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.err != nil {
		return nil, s.err
	}
	return copyGrid(s.grid), nil
}

// SetGrid replaces the stored grid.
func (s *Store) SetGrid(grid [][]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid = copyGrid(grid)
	s.err = nil
}

// Fail makes every following read return err until SetGrid is called.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Reads returns how many times ReadRows was called.
func (s *Store) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func copyGrid(in [][]any) [][]any {
	out := make([][]any, len(in))
	for i, row := range in {
		out[i] = append([]any(nil), row...)
	}
	return out
}
