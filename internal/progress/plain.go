package progress

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/npstools/npsmerge/pkg/merge"
	"github.com/npstools/npsmerge/pkg/slogctx"
)

// Plain consumes merge events and emits them as slog messages. The slog
// handler (pretty/json/text) decides how to render.
type Plain struct{}

// Run consumes merge events and logs them. It returns when ch is closed or
// ctx is cancelled.
func (*Plain) Run(ctx context.Context, baseName string, ch <-chan merge.Event) error {
	log := slogctx.FromContext(ctx)

	for {
		select {
		case <-ctx.Done():
			// Drain so the sender can finish and close ch. Without this, a
			// sender blocked on ch<- never returns to close the channel,
			// leaking its goroutine. Safe because Merge closes ch on return.
			//revive:disable-next-line:empty-block // intentionally draining
			for range ch {
			}
			return fmt.Errorf("progress display cancelled: %w", ctx.Err())
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			logEvent(ctx, log, baseName, ev)
		}
	}
}

func logEvent(ctx context.Context, log *slog.Logger, baseName string, ev merge.Event) {
	switch ev.Kind {
	case merge.EventFileStart:
		//nolint:sloglint // dynamic msg encodes user-facing formatted output
		log.LogAttrs(ctx, slog.LevelInfo, fmt.Sprintf("[%s] merging %s", baseName, ev.Path),
			slog.String("event", "file.start"),
			slog.String("file", ev.Path),
		)
	case merge.EventNodeAdded:
		// The key rides as an attribute; the pretty handler renders it
		// inline, json/text keep it structured.
		//nolint:sloglint // dynamic msg encodes user-facing formatted output
		log.LogAttrs(ctx, slog.LevelInfo, fmt.Sprintf("[%s] added", ev.Path),
			slog.String("event", "node.added"),
			slog.String("file", ev.Path),
			slog.String("key", string(ev.Key)),
			slog.String("rule", ev.Rule.String()),
		)
	case merge.EventDuplicateSkipped:
		level := slog.LevelDebug
		msg := fmt.Sprintf("[%s] duplicate", ev.Path)
		if ev.ContentDiffers {
			level = slog.LevelWarn
			msg = fmt.Sprintf("[%s] duplicate (content differs, first kept)", ev.Path)
		}
		//nolint:sloglint // dynamic msg encodes user-facing formatted output
		log.LogAttrs(ctx, level, msg,
			slog.String("event", "node.skipped"),
			slog.String("file", ev.Path),
			slog.String("key", string(ev.Key)),
			slog.Bool("content_differs", ev.ContentDiffers),
		)
	case merge.EventFileDone:
		//nolint:sloglint // dynamic msg encodes user-facing formatted output
		log.LogAttrs(ctx, slog.LevelInfo,
			fmt.Sprintf("[%s] done: %d added, %d skipped", ev.Path, ev.File.Added, ev.File.Skipped),
			slog.String("event", "file.done"),
			slog.String("file", ev.Path),
			slog.Int("added", ev.File.Added),
			slog.Int("skipped", ev.File.Skipped),
		)
	case merge.EventFileFailed:
		//nolint:sloglint // dynamic msg encodes user-facing formatted output
		log.LogAttrs(ctx, slog.LevelError, fmt.Sprintf("[%s] FAILED: %v", ev.Path, ev.File.Err),
			slog.String("event", "file.failed"),
			slog.String("file", ev.Path),
			slog.String("error", fmt.Sprint(ev.File.Err)),
		)
	default:
	}
}
