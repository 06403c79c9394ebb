package merge

// EventKind discriminates merge progress events.
type EventKind int

// Event kinds emitted by Merge, in the order a display can expect them:
// one FileStart per source, zero or more NodeAdded/DuplicateSkipped, then
// exactly one of FileDone or FileFailed.
const (
	EventFileStart EventKind = iota
	EventNodeAdded
	EventDuplicateSkipped
	EventFileDone
	EventFileFailed
)

// Event is a single merge progress notification.
type Event struct {
	Kind EventKind
	// Path is the source file the event belongs to.
	Path string
	// Key is set for NodeAdded and DuplicateSkipped.
	Key Key
	// Rule is the placement rule that chose the attachment point; set for
	// NodeAdded.
	Rule Rule
	// ContentDiffers is set for DuplicateSkipped when the skipped subtree's
	// fingerprint does not match the node already kept.
	ContentDiffers bool
	// File carries the finished per-file counts for FileDone and FileFailed.
	File FileReport
}

// emit sends ev on ch when a channel is configured.
func emit(ch chan<- Event, ev Event) {
	if ch != nil {
		ch <- ev
	}
}
