package sheets

import (
	"context"
)

// Ports for inbound pipeline sources.
type (
	// RowReader reads the raw cell grid of a pipeline sheet, title rows
	// included. Cells hold strings, float64s, bools or nil.
	RowReader interface {
		ReadRows(ctx context.Context) ([][]any, error)
	}

	// Source is a RowReader with a stable identity, used as the cache key of
	// the batches it produces.
	Source interface {
		RowReader
		Identity() string
	}
)
