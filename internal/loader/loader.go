// Package loader reads merge input documents. The first existing path is the
// base and must parse; the remaining files are contributor sources whose
// parse failures are recorded per-file and handled downstream.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/npstools/npsmerge/pkg/merge"
	"github.com/npstools/npsmerge/pkg/slogctx"
	"github.com/npstools/npsmerge/pkg/xmltree"
)

// ErrNoInputs indicates that none of the given paths point to an existing file.
var ErrNoInputs = errors.New("no valid input files")

// Inputs holds the parsed base document and the contributor sources, in
// command-line order.
type Inputs struct {
	BasePath string
	Base     *xmltree.Node
	Sources  []merge.Source
}

// Load parses all input documents. Missing paths are warned about and
// dropped; the first remaining path becomes the base. A base parse failure
// is fatal. Sources are parsed concurrently but keep their original order;
// a source parse failure is stored on its Source entry, not returned.
func Load(ctx context.Context, paths []string) (Inputs, error) {
	log := slogctx.FromContext(ctx)

	valid := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			log.LogAttrs(ctx, slog.LevelWarn, "input file not found",
				slog.String("file", path))
			continue
		}
		valid = append(valid, path)
	}
	if len(valid) == 0 {
		return Inputs{}, ErrNoInputs
	}

	in := Inputs{
		BasePath: valid[0],
		Sources:  make([]merge.Source, len(valid)-1),
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		root, err := xmltree.ParseFile(in.BasePath)
		if err != nil {
			return fmt.Errorf("base file: %w", err)
		}
		in.Base = root
		return nil
	})
	for i, path := range valid[1:] {
		g.Go(func() error {
			root, err := xmltree.ParseFile(path)
			// Source errors ride along in the slot; only the base is fatal.
			in.Sources[i] = merge.Source{Path: path, Root: root, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Inputs{}, err
	}
	return in, nil
}
