package merge

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/opencontainers/go-digest"

	"github.com/npstools/npsmerge/pkg/rules"
	"github.com/npstools/npsmerge/pkg/slogctx"
	"github.com/npstools/npsmerge/pkg/xmltree"
)

// Source is one contributor document. A Source with a non-nil Err (its file
// failed to load) is skipped in its entirety and reported, without stopping
// the merge.
type Source struct {
	Path string
	Root *xmltree.Node
	Err  error
}

// Options configures a merge run.
type Options struct {
	// Rules is the placement ruleset. Zero value falls back to the
	// compiled-in defaults.
	Rules rules.Ruleset
	// Events, when non-nil, receives progress events during the merge.
	// Merge closes the channel before returning.
	Events chan<- Event
}

// FileReport holds per-source counts.
type FileReport struct {
	Path string
	// Eligible is the number of Properties-bearing nodes found in the file.
	Eligible int
	// Added counts subtrees attached to the base.
	Added int
	// Skipped counts duplicates (key already present).
	Skipped int
	// Conflicts counts skipped duplicates whose content differed from the
	// node kept; first occurrence wins, so these were discarded.
	Conflicts int
	// Err is set when the file could not be processed at all.
	Err error
}

// Report aggregates a whole merge run.
type Report struct {
	// SeededKeys is the number of unique eligible keys found in the base.
	SeededKeys int
	Files      []FileReport
}

// Added returns the total number of subtrees attached across all files.
func (r Report) Added() int {
	var n int
	for i := range r.Files {
		n += r.Files[i].Added
	}
	return n
}

// Skipped returns the total number of duplicates skipped across all files.
func (r Report) Skipped() int {
	var n int
	for i := range r.Files {
		n += r.Files[i].Skipped
	}
	return n
}

// Failed returns the number of source files that could not be processed.
func (r Report) Failed() int {
	var n int
	for i := range r.Files {
		if r.Files[i].Err != nil {
			n++
		}
	}
	return n
}

// Merge folds every contributor source into base, in order. The base tree is
// mutated in place: each eligible node not already present (by identity key)
// is deep-cloned and appended under the subtree chosen by the placement
// resolver. Duplicate keys are skipped; the first occurrence, starting with
// the base itself, wins. Merge does not fail: per-file load errors are
// recorded in the report and processing continues.
func Merge(ctx context.Context, base *xmltree.Node, sources []Source, opts Options) Report {
	log := slogctx.FromContext(ctx)
	if opts.Rules.Containers == nil {
		opts.Rules = rules.Default()
	}
	resolver := NewResolver(opts.Rules)

	seen := seedIdentity(base)
	report := Report{SeededKeys: len(seen)}
	log.LogAttrs(ctx, slog.LevelDebug, "seeded identity set from base",
		slog.Int("keys", len(seen)))

	for _, src := range sources {
		report.Files = append(report.Files, mergeSource(ctx, base, src, resolver, seen, opts.Events))
	}

	if opts.Events != nil {
		close(opts.Events)
	}
	return report
}

// seedIdentity catalogs every eligible node already in the base. The base is
// never deduplicated against itself: on a repeated key the first pre-order
// occurrence is the one recorded.
func seedIdentity(base *xmltree.Node) map[Key]digest.Digest {
	seen := make(map[Key]digest.Digest)
	registerEligible(base, seen)
	return seen
}

// registerEligible records the key and fingerprint of every eligible node in
// the subtree, keeping the first occurrence on key collisions.
func registerEligible(root *xmltree.Node, seen map[Key]digest.Digest) {
	root.Walk(func(n *xmltree.Node) bool {
		if Eligible(n) {
			k := KeyOf(n)
			if _, dup := seen[k]; !dup {
				seen[k] = xmltree.Fingerprint(n)
			}
		}
		return true
	})
}

func mergeSource(
	ctx context.Context,
	base *xmltree.Node,
	src Source,
	resolver *Resolver,
	seen map[Key]digest.Digest,
	events chan<- Event,
) FileReport {
	ctx = slogctx.With(ctx, slog.String("file", src.Path))
	log := slogctx.FromContext(ctx)
	fr := FileReport{Path: src.Path, Err: src.Err}
	emit(events, Event{Kind: EventFileStart, Path: src.Path})

	if src.Err != nil {
		log.LogAttrs(ctx, slog.LevelWarn, "skipping source file",
			slog.String("error", src.Err.Error()))
		emit(events, Event{Kind: EventFileFailed, Path: src.Path, File: fr})
		return fr
	}

	// Candidates are collected up front so subtrees attached to the base
	// during this pass are not rescanned as contributors.
	var candidates []*xmltree.Node
	src.Root.Walk(func(n *xmltree.Node) bool {
		if Eligible(n) {
			candidates = append(candidates, n)
		}
		return true
	})
	fr.Eligible = len(candidates)
	log.LogAttrs(ctx, slog.LevelDebug, "found eligible nodes",
		slog.Int("count", len(candidates)))

	for _, cand := range candidates {
		key := KeyOf(cand)

		if kept, dup := seen[key]; dup {
			fr.Skipped++
			differs := kept != xmltree.Fingerprint(cand)
			if differs {
				fr.Conflicts++
				log.LogAttrs(ctx, slog.LevelWarn, "duplicate with differing content skipped",
					slog.String("key", string(key)))
			} else {
				log.LogAttrs(ctx, slog.LevelDebug, "duplicate skipped",
					slog.String("key", string(key)))
			}
			emit(events, Event{
				Kind: EventDuplicateSkipped, Path: src.Path,
				Key: key, ContentDiffers: differs,
			})
			continue
		}

		parent, rule := resolver.Resolve(base, cand)
		clone := cand.Clone()
		parent.Append(clone)
		// Register every eligible node inside the attached subtree, not just
		// its root: a nested eligible node would otherwise be attached a
		// second time at its own resolved location when the walk reaches it.
		registerEligible(clone, seen)
		fr.Added++

		log.LogAttrs(ctx, slog.LevelDebug, "node attached",
			slog.String("key", string(key)),
			slog.String("rule", rule.String()),
			slog.String("parent", parent.Tag))
		emit(events, Event{Kind: EventNodeAdded, Path: src.Path, Key: key, Rule: rule})
	}

	emit(events, Event{Kind: EventFileDone, Path: src.Path, File: fr})
	return fr
}

// PrintReport writes a human-readable merge summary to w.
func PrintReport(w io.Writer, r Report) {
	_, _ = fmt.Fprintf(w, "Merge summary (%d keys in base):\n", r.SeededKeys)
	for _, fr := range r.Files {
		if fr.Err != nil {
			_, _ = fmt.Fprintf(w, "  %-32s FAILED: %v\n", fr.Path, fr.Err)
			continue
		}
		line := fmt.Sprintf("  %-32s %d eligible, %d added, %d skipped",
			fr.Path, fr.Eligible, fr.Added, fr.Skipped)
		if fr.Conflicts > 0 {
			line += fmt.Sprintf(" (%d content conflicts)", fr.Conflicts)
		}
		_, _ = fmt.Fprintln(w, line)
	}
	_, _ = fmt.Fprintf(w, "  Total: %d added, %d skipped", r.Added(), r.Skipped())
	if failed := r.Failed(); failed > 0 {
		_, _ = fmt.Fprintf(w, ", %d file(s) failed", failed)
	}
	_, _ = fmt.Fprintln(w)
}
