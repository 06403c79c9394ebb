// Package progress provides display adapters for merge progress and the
// tool's slog logger construction.
package progress

import (
	"context"

	"github.com/npstools/npsmerge/pkg/merge"
)

// Display renders merge progress to the user.
type Display interface {
	// Run consumes merge events and renders them. It returns when ch is
	// closed or ctx is cancelled.
	Run(ctx context.Context, baseName string, ch <-chan merge.Event) error
}
