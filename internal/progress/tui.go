package progress

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/npstools/npsmerge/pkg/merge"
)

// TUI renders progress using a bubbletea interactive terminal display.
type TUI struct {
	Boring bool // use ASCII icons instead of emoji
}

// eventSender is the part of *tea.Program that forwardEvents needs.
type eventSender interface {
	Send(tea.Msg)
}

// Run starts a bubbletea program that displays merge progress.
func (t *TUI) Run(ctx context.Context, baseName string, ch <-chan merge.Event) error {
	m := newModel(baseName, t.Boring)

	p := tea.NewProgram(m, tea.WithContext(ctx))

	go forwardEvents(ctx, p, ch)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// forwardEvents pumps merge events into the bubbletea event loop until ch is
// closed. On cancellation it keeps draining ch so a sender blocked on a full
// buffer can still finish and close the channel; Send on a finished program
// is a no-op, so late forwards are harmless.
func forwardEvents(ctx context.Context, p eventSender, ch <-chan merge.Event) {
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				p.Send(doneMsg{})
				return
			}
			p.Send(eventMsg{ev: ev})
		case <-ctx.Done():
			//revive:disable-next-line:empty-block // intentionally draining
			for range ch {
			}
			return
		}
	}
}
