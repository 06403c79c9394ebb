package progress

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/npstools/npsmerge/pkg/merge"
	"github.com/npstools/npsmerge/pkg/slogctx"
)

// Quiet only surfaces file failures; all other progress is suppressed.
// A failed source file is a warning, not a merge failure, so Run still
// returns nil once the channel closes.
type Quiet struct{}

// Run consumes merge events, logging only file failures. It returns when ch
// is closed or ctx is cancelled.
func (*Quiet) Run(ctx context.Context, _ string, ch <-chan merge.Event) error {
	log := slogctx.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			// Drain so Merge can close the channel and return.
			//revive:disable-next-line:empty-block // intentionally draining
			for range ch {
			}
			return fmt.Errorf("progress display cancelled: %w", ctx.Err())
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if ev.Kind == merge.EventFileFailed {
				//nolint:sloglint // dynamic msg encodes user-facing formatted output
				log.LogAttrs(ctx, slog.LevelError, fmt.Sprintf("[%s] FAILED: %v", ev.Path, ev.File.Err),
					slog.String("event", "file.failed"),
					slog.String("file", ev.Path),
				)
			}
		}
	}
}
