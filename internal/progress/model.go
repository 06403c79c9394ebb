package progress

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/npstools/npsmerge/pkg/merge"
)

// fileStatus represents the current state of a source file in the merge.
type fileStatus int

const (
	statusMerging fileStatus = iota
	statusDone
	statusFailed
)

var _emojiIcons = map[fileStatus]string{
	statusMerging: "\U0001f500",
	statusDone:    "✅",
	statusFailed:  "❌",
}

var _boringIcons = map[fileStatus]string{
	statusMerging: "[merge] ",
	statusDone:    "[done]  ",
	statusFailed:  "[FAIL]  ",
}

// fileState tracks a single source file's render state.
type fileState struct {
	path      string
	status    fileStatus
	added     int
	skipped   int
	conflicts int
	err       error
}

// model is the bubbletea model for rendering merge progress.
// All methods use pointer receivers so mutations to the files map
// (via applyEvent) operate on the same instance without copy aliasing.
type model struct {
	baseName string
	files    map[string]*fileState
	order    []string // source paths in first-observed order
	recent   []string // recent added/skipped keys (capped)
	width    int
	boring   bool // use ASCII icons instead of emoji
	done     bool
}

// _maxRecent caps the number of retained key lines per model instance to
// bound memory and keep the viewport readable.
const _maxRecent = 10

func newModel(baseName string, boring bool) *model {
	return &model{
		baseName: baseName,
		boring:   boring,
		files:    make(map[string]*fileState),
	}
}

// eventMsg carries a merge event from the channel to the bubbletea event loop.
type eventMsg struct{ ev merge.Event }

// doneMsg signals the event channel has been closed.
type doneMsg struct{}

// Init implements tea.Model.
func (*model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case eventMsg:
		m.applyEvent(msg.ev)
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *model) applyEvent(ev merge.Event) {
	st, ok := m.files[ev.Path]
	if !ok {
		st = &fileState{path: ev.Path, status: statusMerging}
		m.files[ev.Path] = st
		m.order = append(m.order, ev.Path)
	}

	switch ev.Kind {
	case merge.EventNodeAdded:
		st.added++
		m.appendRecent(fmt.Sprintf("+ %s", ev.Key))
	case merge.EventDuplicateSkipped:
		st.skipped++
		if ev.ContentDiffers {
			st.conflicts++
			m.appendRecent(fmt.Sprintf("! %s (content differs)", ev.Key))
		}
	case merge.EventFileDone:
		st.status = statusDone
		st.added = ev.File.Added
		st.skipped = ev.File.Skipped
		st.conflicts = ev.File.Conflicts
	case merge.EventFileFailed:
		st.status = statusFailed
		st.err = ev.File.Err
	case merge.EventFileStart:
	default:
	}
}

func (m *model) appendRecent(line string) {
	m.recent = append(m.recent, line)
	if len(m.recent) > _maxRecent {
		m.recent = m.recent[len(m.recent)-_maxRecent:]
	}
}

var (
	_headerStyle   = lipgloss.NewStyle().Bold(true)
	_recentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	_conflictStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// View implements tea.Model.
func (m *model) View() string {
	var b strings.Builder

	_, _ = b.WriteString(_headerStyle.Render(fmt.Sprintf("Base: %s", m.baseName)))
	_ = b.WriteByte('\n')

	icons := _emojiIcons
	if m.boring {
		icons = _boringIcons
	}

	for _, path := range m.order {
		st := m.files[path]
		icon := icons[st.status]

		switch st.status {
		case statusFailed:
			_, _ = fmt.Fprintf(&b, "  %s %s  %v\n", icon, st.path, st.err)
		default:
			counts := fmt.Sprintf("%d added, %d skipped", st.added, st.skipped)
			if st.conflicts > 0 {
				counts += " " + _conflictStyle.Render(fmt.Sprintf("(%d conflicts)", st.conflicts))
			}
			_, _ = fmt.Fprintf(&b, "  %s %s  %s\n", icon, st.path, counts)
		}
	}

	if len(m.recent) > 0 {
		_ = b.WriteByte('\n')
		for _, l := range m.recent {
			_, _ = b.WriteString(_recentStyle.Render(fmt.Sprintf("    > %s", l)))
			_ = b.WriteByte('\n')
		}
	}

	return b.String()
}
