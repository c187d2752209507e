package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/dshills/strata/internal/tree"
)

// Resolver reads sources from a file system. It records every file it reads
// so callers can tell when a rendered result goes stale. A Resolver is not
// safe for concurrent use.
type Resolver struct {
	fs        afero.Fs
	baseDir   string
	recursive bool
	encoding  string
	log       *slog.Logger
	readers   []reader
	files     map[string]struct{}
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFs sets the file system. afero.NewMemMapFs gives purely in-memory
// paths.
func WithFs(fsys afero.Fs) Option {
	return func(r *Resolver) { r.fs = fsys }
}

// WithBaseDir sets the directory relative source paths are resolved against.
func WithBaseDir(dir string) Option {
	return func(r *Resolver) { r.baseDir = dir }
}

// WithRecursive lets `**` in globs cross directories.
func WithRecursive(on bool) Option {
	return func(r *Resolver) { r.recursive = on }
}

// WithEncoding sets the text encoding of source files (an IANA or WHATWG
// name such as "latin1" or "utf-16le").
func WithEncoding(name string) Option {
	return func(r *Resolver) { r.encoding = name }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// NewResolver returns a Resolver reading from the OS file system by default.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		fs:    afero.NewOsFs(),
		log:   slog.New(slog.DiscardHandler),
		files: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.readers = defaultReaders()
	return r
}

// Fs returns the file system the resolver reads from.
func (r *Resolver) Fs() afero.Fs { return r.fs }

// Files returns every file read so far, sorted.
func (r *Resolver) Files() []string {
	out := make([]string, 0, len(r.files))
	for f := range r.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// readCtx is the state of the document being read.
type readCtx struct {
	ctx context.Context
	// path is the file being read; empty for inline documents.
	path string
	// dir anchors relative !include paths.
	dir string
	// stack holds the files currently open through includes.
	stack []string
}

// Resolve returns the documents of src in order. A multi-document YAML file
// yields one tree per document; a glob yields the documents of every match
// in lexical order.
func (r *Resolver) Resolve(ctx context.Context, src Source) ([]*tree.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch {
	case src.Tree != nil:
		return []*tree.Node{src.Tree}, nil
	case src.Inline != "":
		rd, err := r.readerFor("", src.Reader)
		if err != nil {
			return nil, err
		}
		return rd.read(r, readCtx{ctx: ctx, dir: r.baseDir}, []byte(src.Inline))
	case src.Path == "":
		return nil, errors.New("empty source")
	}

	files, err := r.expand(r.join(r.baseDir, src.Path), r.recursive)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", src.Path, err)
	}
	if len(files) == 0 {
		return nil, &NotFoundError{Source: src.Path, Err: fs.ErrNotExist}
	}
	var docs []*tree.Node
	for _, f := range files {
		d, err := r.readFile(readCtx{ctx: ctx}, f, src.Reader, "")
		if err != nil {
			return nil, err
		}
		docs = append(docs, d...)
	}
	return docs, nil
}

func (r *Resolver) join(dir, p string) string {
	if filepath.IsAbs(p) || dir == "" {
		return p
	}
	return filepath.Join(dir, p)
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// expand returns the files matching pattern. Without recursion `**` behaves
// like `*`.
func (r *Resolver) expand(pattern string, recursive bool) ([]string, error) {
	pattern = filepath.Clean(pattern)
	if !hasMeta(pattern) {
		info, err := r.fs.Stat(pattern)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, nil
			}
			return nil, err
		}
		if info.IsDir() {
			return nil, nil
		}
		return []string{pattern}, nil
	}

	slashed := filepath.ToSlash(pattern)
	if !recursive {
		slashed = strings.ReplaceAll(slashed, "**", "*")
	}
	if !doublestar.ValidatePattern(slashed) {
		return nil, fmt.Errorf("invalid glob %q", pattern)
	}
	base, rest := doublestar.SplitPattern(slashed)
	depth := strings.Count(rest, "/")

	var out []string
	err := afero.Walk(r.fs, filepath.FromSlash(base), func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			rel, err := filepath.Rel(filepath.FromSlash(base), path)
			if err != nil {
				return err
			}
			if !recursive && rel != "." && strings.Count(filepath.ToSlash(rel), "/")+1 > depth {
				return filepath.SkipDir
			}
			return nil
		}
		ok, err := doublestar.Match(slashed, filepath.ToSlash(path))
		if err != nil {
			return err
		}
		if ok {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

// readFile parses one file with the named reader, or the one its name
// selects.
func (r *Resolver) readFile(rc readCtx, name, readerName, encoding string) ([]*tree.Node, error) {
	if err := rc.ctx.Err(); err != nil {
		return nil, err
	}
	if slices.Contains(rc.stack, name) {
		return nil, fmt.Errorf("include cycle: %s", strings.Join(append(rc.stack, name), " -> "))
	}
	r.log.Debug("loading file", "path", name)

	data, err := afero.ReadFile(r.fs, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Source: name, Err: err}
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	r.files[name] = struct{}{}

	if encoding == "" {
		encoding = r.encoding
	}
	data, err = decodeText(data, encoding)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	rd, err := r.readerFor(name, readerName)
	if err != nil {
		return nil, err
	}
	next := readCtx{
		ctx:   rc.ctx,
		path:  name,
		dir:   filepath.Dir(name),
		stack: append(slices.Clone(rc.stack), name),
	}
	docs, err := rd.read(r, next, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return docs, nil
}

func decodeText(data []byte, name string) ([]byte, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return data, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
	return enc.NewDecoder().Bytes(data)
}
