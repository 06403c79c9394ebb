// Package main provides the CLI entry point for npsmerge.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/npstools/npsmerge/internal/loader"
	"github.com/npstools/npsmerge/internal/progress"
	"github.com/npstools/npsmerge/pkg/merge"
	"github.com/npstools/npsmerge/pkg/rules"
	"github.com/npstools/npsmerge/pkg/slogctx"
	"github.com/npstools/npsmerge/pkg/xmltree"
)

// _eventBuffer sizes the merge event channel so the single-threaded merge
// rarely blocks on a slow display.
const _eventBuffer = 64

// app bundles dependencies so CLI action handlers become testable methods.
type app struct {
	load      func(ctx context.Context, paths []string) (loader.Inputs, error)
	parse     func(path string) (*xmltree.Node, error)
	loadRules func(path string) (rules.Ruleset, error)
	writeTree func(path string, root *xmltree.Node) error
	stdout    io.Writer
	isTTY     bool
	format    string // resolved output format (pretty, json, text)
}

func main() {
	a := &app{
		load:      loader.Load,
		parse:     xmltree.ParseFile,
		loadRules: rules.ParseFile,
		writeTree: xmltree.WriteFile,
		stdout:    os.Stdout,
		isTTY:     term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("CI") == "",
	}

	cmd := &cli.Command{
		Name:  "npsmerge",
		Usage: "merge NPS configuration XML exports into a single document",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Usage:   "output format (auto, pretty, json, text)",
				Value:   "auto",
				Sources: cli.EnvVars("NPSMERGE_FORMAT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("NPSMERGE_LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			a.format = cmd.String("format")
			if a.format == "auto" {
				if a.isTTY {
					a.format = "pretty"
				} else {
					a.format = "text"
				}
			}
			var level slog.Level
			if err := level.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
				return ctx, fmt.Errorf("invalid log level %q: %w", cmd.String("log-level"), err)
			}
			logger, err := progress.NewLogger(a.stdout, a.format, level)
			if err != nil {
				return ctx, fmt.Errorf("initializing logger: %w", err)
			}
			slog.SetDefault(logger)
			return slogctx.ContextWithLogger(ctx, logger), nil
		},
		Commands: []*cli.Command{
			{
				Name:      "merge",
				Usage:     "merge source exports into the first file given",
				ArgsUsage: "<base.xml> <source.xml>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "merged document path",
						Value:   "merged.xml",
					},
					&cli.StringFlag{
						Name:  "rules",
						Usage: "placement ruleset file (KDL); defaults to the compiled-in rules",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "merge and report without writing the output file",
					},
					&cli.StringFlag{
						Name:  "progress",
						Usage: "progress output mode (auto, tui, plain, quiet)",
						Value: "auto",
					},
					&cli.BoolFlag{
						Name:  "boring",
						Usage: "use ASCII instead of emoji in TUI output",
					},
				},
				Action: a.mergeAction,
			},
			{
				Name:      "inspect",
				Usage:     "list the mergeable elements of a single export",
				ArgsUsage: "<file.xml>",
				Action:    a.inspectAction,
			},
			{
				Name:  "rules",
				Usage: "print the active placement ruleset",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "rules",
						Usage: "placement ruleset file (KDL); defaults to the compiled-in rules",
					},
				},
				Action: a.rulesAction,
			},
		},
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		os.Exit(1)
	}
}

// resolveRules loads the ruleset file given on the command line, falling back
// to the compiled-in defaults when the flag is empty.
func (a *app) resolveRules(cmd *cli.Command) (rules.Ruleset, error) {
	path := cmd.String("rules")
	if path == "" {
		return rules.Default(), nil
	}
	rs, err := a.loadRules(path)
	if err != nil {
		return rules.Ruleset{}, fmt.Errorf("loading ruleset %s: %w", path, err)
	}
	return rs, nil
}

func (a *app) mergeAction(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return errors.New("usage: npsmerge merge <base.xml> <source.xml>...")
	}

	rs, err := a.resolveRules(cmd)
	if err != nil {
		return err
	}

	in, err := a.load(ctx, paths)
	if err != nil {
		return fmt.Errorf("loading inputs: %w", err)
	}

	display, err := a.selectDisplay(cmd.String("progress"), cmd.Bool("boring"))
	if err != nil {
		return err
	}

	events := make(chan merge.Event, _eventBuffer)

	var report merge.Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Merge closes the events channel on return, releasing the display.
		report = merge.Merge(gctx, in.Base, in.Sources, merge.Options{
			Rules:  rs,
			Events: events,
		})
		return nil
	})
	g.Go(func() error {
		return display.Run(gctx, in.BasePath, events)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("merging: %w", err)
	}

	merge.PrintReport(a.stdout, report)

	if cmd.Bool("dry-run") {
		_, _ = fmt.Fprintln(a.stdout, "Dry run: no output written")
		return nil
	}

	out := cmd.String("output")
	if err := a.writeTree(out, in.Base); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	_, _ = fmt.Fprintf(a.stdout, "Wrote %s\n", out)
	return nil
}

func (a *app) inspectAction(_ context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errors.New("usage: npsmerge inspect <file.xml>")
	}

	root, err := a.parse(path)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	type entry struct {
		key  merge.Key
		ip   bool
		kids int
	}
	var entries []entry
	root.Walk(func(n *xmltree.Node) bool {
		if merge.Eligible(n) {
			entries = append(entries, entry{
				key:  merge.KeyOf(n),
				ip:   merge.HasIPAddress(n),
				kids: len(n.Children),
			})
		}
		return true
	})

	_, _ = fmt.Fprintf(a.stdout, "Document '%s' (root: %s)\n", path, root.Tag)
	_, _ = fmt.Fprintf(a.stdout, "  Mergeable elements: %d\n", len(entries))
	for _, e := range entries {
		if e.ip {
			_, _ = fmt.Fprintf(a.stdout, "    - %s (%d children, RADIUS client)\n", e.key, e.kids)
		} else {
			_, _ = fmt.Fprintf(a.stdout, "    - %s (%d children)\n", e.key, e.kids)
		}
	}
	return nil
}

func (a *app) rulesAction(_ context.Context, cmd *cli.Command) error {
	rs, err := a.resolveRules(cmd)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(a.stdout, "Known containers:")
	for _, tag := range rs.ContainerOrder {
		_, _ = fmt.Fprintf(a.stdout, "  %-24s %s\n", tag, strings.Join(rs.Containers[tag], "/"))
	}
	_, _ = fmt.Fprintf(a.stdout, "Clients path:\n  %s\n", strings.Join(rs.ClientsPath, "/"))
	_, _ = fmt.Fprintf(a.stdout, "Profile container: %s\n", rs.ProfileContainer)
	if len(rs.ProfileSuffixes) > 0 {
		_, _ = fmt.Fprintf(a.stdout, "  name suffixes: %s\n", strings.Join(rs.ProfileSuffixes, ", "))
	}
	if len(rs.ProfileContains) > 0 {
		_, _ = fmt.Fprintf(a.stdout, "  name substrings: %s\n", strings.Join(rs.ProfileContains, ", "))
	}
	return nil
}

func (a *app) selectDisplay(mode string, boring bool) (progress.Display, error) {
	switch mode {
	case "auto":
		if a.isTTY && a.format == "pretty" {
			return &progress.TUI{Boring: boring}, nil
		}
		return &progress.Plain{}, nil
	case "tui":
		return &progress.TUI{Boring: boring}, nil
	case "plain":
		return &progress.Plain{}, nil
	case "quiet":
		return &progress.Quiet{}, nil
	default:
		return nil, fmt.Errorf("unknown progress mode %q (valid: auto, tui, plain, quiet)", mode)
	}
}
