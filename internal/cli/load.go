package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/dshills/strata/internal/cache"
	"github.com/dshills/strata/internal/config"
	"github.com/dshills/strata/internal/loader"
	"github.com/dshills/strata/internal/merge"
	"github.com/dshills/strata/internal/output"
	"github.com/dshills/strata/internal/redact"
	"github.com/dshills/strata/internal/source"
	"github.com/dshills/strata/internal/tree"
)

// Load flags
var (
	flagMethod      methodValue
	flagMergeLists  bool
	flagInterpolate bool
	flagMissing     levelValue
	flagFormat      string
	flagOut         string
	flagBaseDir     string
	flagRecursive   bool
	flagEncoding    string
	flagRedact      bool
	flagRedactPaths []string
	flagCache       bool
	flagWatch       bool
	flagDefault     string
)

// watchDebounce groups bursts of file events into one reload.
const watchDebounce = 150 * time.Millisecond

func addLoadFlags(fs *pflag.FlagSet) {
	fs.Var(&flagMethod, "method", "Merge method: simple (1), deep (2), substitute (3)")
	fs.BoolVar(&flagMergeLists, "merge-lists", true, "Deep: merge list elements that are mappings sharing a key")
	fs.BoolVar(&flagInterpolate, "interpolate", false, "Render Jinja templates against the merged tree")
	fs.Var(&flagMissing, "missing", "Level for missing sources; error or above fails the load")
	fs.StringVar(&flagFormat, "format", "", "Output format (yaml, json, toml, text, env)")
	fs.StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	fs.StringVar(&flagBaseDir, "base-dir", "", "Directory relative source paths are resolved against")
	fs.BoolVar(&flagRecursive, "recursive", false, "Let ** in globs cross directories")
	fs.StringVar(&flagEncoding, "encoding", "", "Character encoding of source files")
	fs.BoolVar(&flagRedact, "redact", false, "Mask secrets in the output")
	fs.StringSliceVar(&flagRedactPaths, "redact-path", nil, "Key path glob to mask entirely (repeatable)")
	fs.BoolVar(&flagCache, "cache", false, "Serve and store rendered output in the cache")
	fs.BoolVar(&flagWatch, "watch", false, "Reload and print again whenever a source file changes")
	fs.StringVar(&flagDefault, "default", "", "YAML value printed when no source yields a document")
}

var loadCmd = &cobra.Command{
	Use:   "load [sources...]",
	Short: "Load and merge configuration sources",
	Long: "Load merges each source into the result from left to right. A source is a file path, " +
		"a glob, - for stdin, or inline YAML text containing a newline.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagEnvFile, buildOverrides(cmd.Flags()))
		if err != nil {
			return err
		}
		log := newLogger(cfg.LogLevel)

		sources, err := parseSources(args, os.Stdin)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if flagWatch {
			exitCode = watch(cmd.Context(), cfg, sources, log)
			return nil
		}
		exitCode = loadOnce(cmd.Context(), cfg, sources, log)
		return nil
	},
}

// parseSources turns arguments into sources. "-" reads one inline document
// from stdin.
func parseSources(args []string, stdin io.Reader) ([]source.Source, error) {
	out := make([]source.Source, 0, len(args))
	for _, a := range args {
		if a == "-" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("reading stdin: %w", err)
			}
			out = append(out, source.Source{Inline: string(data)})
			continue
		}
		out = append(out, source.Parse(a))
	}
	return out, nil
}

// loadOnce renders the sources, going through the cache when enabled.
func loadOnce(ctx context.Context, cfg config.Config, sources []source.Source, log *slog.Logger) int {
	c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitRuntimeError
	}
	key, err := cacheKey(cfg, sources)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitRuntimeError
	}

	if rendered, ok := c.Get(key); ok {
		log.Debug("serving cached output", "dir", c.Dir())
		return emit(rendered)
	}

	rendered, files, err := render(ctx, cfg, sources, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCodeFor(err)
	}
	if err := c.Put(key, rendered, files); err != nil {
		log.Warn("caching output failed", "err", err)
	}
	return emit(rendered)
}

func emit(rendered string) int {
	if err := output.Emit(stdout, rendered, flagOut); err != nil {
		fmt.Fprintf(stderr, "Error writing output: %v\n", err)
		return ExitRuntimeError
	}
	return ExitSuccess
}

// cacheKey hashes everything that shapes the output: the working
// directory, the effective settings, the default and the sources in order.
func cacheKey(cfg config.Config, sources []source.Source) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	settings, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling settings: %w", err)
	}
	parts := []string{wd, string(settings), flagDefault}
	for _, s := range sources {
		parts = append(parts, s.Key())
	}
	return cache.BuildCacheKey(parts...), nil
}

// render loads the sources and formats the result. It also returns every
// file the load read.
func render(ctx context.Context, cfg config.Config, sources []source.Source, log *slog.Logger) (string, []string, error) {
	opts, err := loaderOptions(cfg, log)
	if err != nil {
		return "", nil, err
	}
	res := source.NewResolver(
		source.WithBaseDir(cfg.BaseDir),
		source.WithRecursive(cfg.Recursive),
		source.WithEncoding(cfg.Encoding),
		source.WithLogger(log),
	)

	n, err := loader.New(res, opts).Load(ctx, sources...)
	if err != nil {
		return "", nil, err
	}
	if cfg.Redact.Enabled {
		n = redact.Tree(n, cfg.Redact.Paths)
	}
	rendered, err := output.Render(n, cfg.Format)
	if err != nil {
		return "", nil, fmt.Errorf("writing %s output: %w", cfg.Format, err)
	}
	return rendered, res.Files(), nil
}

func loaderOptions(cfg config.Config, log *slog.Logger) (loader.Options, error) {
	opts := loader.DefaultOptions()
	method, err := merge.ParseMethod(cfg.Method)
	if err != nil {
		return opts, err
	}
	missing, err := loader.ParseLevel(cfg.Missing)
	if err != nil {
		return opts, err
	}
	opts.Strategy = method
	opts.Merge.MergeLists = cfg.MergeLists
	opts.Interpolate = cfg.Interpolate
	opts.MissingLevel = missing
	opts.Logger = log
	if flagDefault != "" {
		var doc yaml.Node
		if err := yaml.Unmarshal([]byte(flagDefault), &doc); err != nil {
			return opts, fmt.Errorf("parsing --default: %w", err)
		}
		if opts.Default, err = tree.FromYAML(&doc, nil); err != nil {
			return opts, fmt.Errorf("parsing --default: %w", err)
		}
	}
	return opts, nil
}

// watch renders the sources, then renders again after every change to a
// directory holding a source until the context ends. Directories are
// watched rather than files so editors that replace files are noticed.
func watch(ctx context.Context, cfg config.Config, sources []source.Source, log *slog.Logger) int {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitRuntimeError
	}
	defer w.Close()

	watched := make(map[string]bool)
	add := func(dir string) {
		if watched[dir] {
			return
		}
		if err := w.Add(dir); err != nil {
			log.Warn("cannot watch directory", "dir", dir, "err", err)
			return
		}
		watched[dir] = true
	}
	for _, dir := range sourceDirs(cfg.BaseDir, sources) {
		add(dir)
	}

	for {
		rendered, files, err := render(ctx, cfg, sources, log)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		} else if code := emit(rendered); code != ExitSuccess {
			return code
		}
		for _, f := range files {
			add(filepath.Dir(f))
		}
		if len(watched) == 0 {
			fmt.Fprintln(stderr, "Error: nothing to watch")
			return ExitUsageError
		}

		select {
		case <-ctx.Done():
			return ExitSuccess
		case ev, ok := <-w.Events:
			if !ok {
				return ExitSuccess
			}
			log.Info("change detected", "file", ev.Name, "op", ev.Op.String())
			drain(ctx, w, watchDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return ExitSuccess
			}
			log.Warn("watch error", "err", err)
		}
	}
}

// drain swallows events until the watcher has been quiet for d.
func drain(ctx context.Context, w *fsnotify.Watcher, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.Events:
			timer.Reset(d)
		case <-timer.C:
			return
		}
	}
}

// sourceDirs returns the fixed directory part of every path source, so a
// source that does not exist yet is picked up once it is created.
func sourceDirs(baseDir string, sources []source.Source) []string {
	var dirs []string
	for _, s := range sources {
		if s.Path == "" {
			continue
		}
		p := s.Path
		if !filepath.IsAbs(p) && baseDir != "" {
			p = filepath.Join(baseDir, p)
		}
		base, _ := doublestar.SplitPattern(filepath.ToSlash(p))
		dirs = append(dirs, filepath.FromSlash(base))
	}
	return dirs
}

func init() {
	addLoadFlags(loadCmd.Flags())
}
