package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dshills/strata/internal/interpolate"
	"github.com/dshills/strata/internal/merge"
	"github.com/dshills/strata/internal/source"
	"github.com/dshills/strata/internal/tree"
)

// Resolver turns a source into its documents. A missing source is reported
// with an error matching source.ErrNotFound.
type Resolver interface {
	Resolve(ctx context.Context, src source.Source) ([]*tree.Node, error)
}

// Options configures a Loader.
type Options struct {
	// Strategy folds each document into the accumulator. Nil means
	// merge.Simple.
	Strategy merge.Strategy
	// Merge is passed to every merge call.
	Merge merge.Options
	// Interpolate runs one interpolation pass over the result, using the
	// result as bindings.
	Interpolate bool
	// Evaluator overrides the template evaluator used for interpolation.
	Evaluator interpolate.Evaluator
	// MissingLevel decides what a missing source does: at slog.LevelError or
	// above the load fails; below it the source is logged at that level and
	// skipped.
	MissingLevel slog.Level
	// Default is returned when no source produced a document.
	Default *tree.Node
	Logger  *slog.Logger
}

// DefaultOptions returns Simple merging with list merging on, no
// interpolation and missing sources treated as errors.
func DefaultOptions() Options {
	return Options{
		Strategy:     merge.Simple,
		Merge:        merge.DefaultOptions(),
		MissingLevel: slog.LevelError,
	}
}

// Loader folds sources left to right.
type Loader struct {
	resolver Resolver
	opts     Options
	log      *slog.Logger
}

// New returns a Loader reading through resolver.
func New(resolver Resolver, opts Options) *Loader {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if opts.Strategy == nil {
		opts.Strategy = merge.Simple
	}
	if opts.Merge.Logger == nil {
		opts.Merge.Logger = log
	}
	return &Loader{resolver: resolver, opts: opts, log: log}
}

// Load resolves each source in order and merges every document into the
// accumulator, later documents overriding earlier ones. Repeated sources are
// skipped. The context is checked between sources.
func (l *Loader) Load(ctx context.Context, sources ...source.Source) (*tree.Node, error) {
	var acc *tree.Node
	seen := make(map[string]bool, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := src.Key()
		if seen[key] {
			l.log.Warn("ignoring duplicate source", "source", src.String())
			continue
		}
		seen[key] = true

		docs, err := l.resolver.Resolve(ctx, src)
		if err != nil {
			if errors.Is(err, source.ErrNotFound) && l.opts.MissingLevel < slog.LevelError {
				l.log.Log(ctx, l.opts.MissingLevel, "skipping missing source", "source", src.String(), "error", err)
				continue
			}
			if errors.Is(err, source.ErrNotFound) {
				l.log.Log(ctx, l.opts.MissingLevel, "missing source", "source", src.String())
			}
			return nil, fmt.Errorf("load %s: %w", src, err)
		}

		for _, doc := range docs {
			if acc.IsNull() {
				acc = doc
				continue
			}
			acc, err = merge.Merge(acc, doc, l.opts.Strategy, l.opts.Merge)
			if err != nil {
				return nil, fmt.Errorf("merge %s: %w", src, err)
			}
		}
		l.log.Debug("merged source", "source", src.String(), "documents", len(docs))
	}

	if acc.IsNull() {
		if l.opts.Default != nil {
			return l.opts.Default, nil
		}
		return tree.NewNull(), nil
	}
	if l.opts.Interpolate {
		out, err := interpolate.New(l.opts.Evaluator, l.log).Interpolate(acc, acc)
		if err != nil {
			return nil, err
		}
		acc = out
	}
	return acc, nil
}
