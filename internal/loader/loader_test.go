package loader

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dshills/strata/internal/interpolate"
	"github.com/dshills/strata/internal/merge"
	"github.com/dshills/strata/internal/source"
	"github.com/dshills/strata/internal/tree"
)

func doc(t *testing.T, src string) *tree.Node {
	t.Helper()
	var y yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &y))
	n, err := tree.FromYAML(&y, nil)
	require.NoError(t, err)
	return n
}

func assertTree(t *testing.T, want, got *tree.Node) {
	t.Helper()
	assert.Truef(t, tree.Equal(want, got), "got %s, want %s", got, want)
}

func testResolver(t *testing.T, files map[string]string) *source.Resolver {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/etc/app", 0o755))
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fsys, name, []byte(content), 0o644))
	}
	return source.NewResolver(source.WithFs(fsys), source.WithBaseDir("/etc/app"))
}

const (
	docA = "{x: {y: 1}, l: [1, 2], name: a}"
	docB = "{x: {z: 2}, l: [2, 3]}"
	docC = "{x: {y: 9}, name: c}"
)

func TestLoadFoldOrder(t *testing.T) {
	for _, m := range merge.Methods() {
		t.Run(m.String(), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Strategy = m
			l := New(testResolver(t, nil), opts)

			got, err := l.Load(context.Background(),
				source.FromTree(doc(t, docA)), source.FromTree(doc(t, docB)))
			require.NoError(t, err)
			want, err := merge.Merge(doc(t, docA), doc(t, docB), m, opts.Merge)
			require.NoError(t, err)
			assertTree(t, want, got)

			got, err = l.Load(context.Background(),
				source.FromTree(doc(t, docA)), source.FromTree(doc(t, docB)), source.FromTree(doc(t, docC)))
			require.NoError(t, err)
			ab, err := merge.Merge(doc(t, docA), doc(t, docB), m, opts.Merge)
			require.NoError(t, err)
			want, err = merge.Merge(ab, doc(t, docC), m, opts.Merge)
			require.NoError(t, err)
			assertTree(t, want, got)
		})
	}
}

func TestLoadFilesAndDocuments(t *testing.T) {
	r := testResolver(t, map[string]string{
		"/etc/app/base.yaml":     "db: {host: localhost, port: 5432}\n---\ndb: {pool: 5}\n",
		"/etc/app/override.json": `{"db": {"host": "db.internal"}}`,
	})
	opts := DefaultOptions()
	opts.Strategy = merge.Deep
	got, err := New(r, opts).Load(context.Background(),
		source.Parse("base.yaml"), source.Parse("override.json"))
	require.NoError(t, err)
	assertTree(t, doc(t, "{db: {host: db.internal, port: 5432, pool: 5}}"), got)
}

func TestLoadMissingSourceEscalates(t *testing.T) {
	r := testResolver(t, map[string]string{"/etc/app/a.yaml": "a: 1\n"})
	l := New(r, DefaultOptions())
	_, err := l.Load(context.Background(), source.Parse("a.yaml"), source.Parse("missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, source.ErrNotFound))

	var nf *source.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "missing.yaml", nf.Source)
}

func TestLoadMissingSourceSkipped(t *testing.T) {
	r := testResolver(t, map[string]string{
		"/etc/app/a.yaml": "a: 1\n",
		"/etc/app/c.yaml": "c: 1\n",
	})
	var logs bytes.Buffer
	opts := DefaultOptions()
	opts.MissingLevel = slog.LevelWarn
	opts.Logger = slog.New(slog.NewTextHandler(&logs, nil))

	got, err := New(r, opts).Load(context.Background(),
		source.Parse("a.yaml"), source.Parse("missing.yaml"), source.Parse("c.yaml"))
	require.NoError(t, err)
	assertTree(t, doc(t, "{a: 1, c: 1}"), got)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "missing.yaml")
}

func TestLoadOtherErrorsAlwaysFail(t *testing.T) {
	r := testResolver(t, map[string]string{"/etc/app/bad.yaml": "a: [\n"})
	opts := DefaultOptions()
	opts.MissingLevel = slog.LevelDebug
	_, err := New(r, opts).Load(context.Background(), source.Parse("bad.yaml"))
	assert.Error(t, err)
}

func TestLoadDuplicateSourcesIgnored(t *testing.T) {
	r := testResolver(t, map[string]string{"/etc/app/l.yaml": "[1]\n"})
	var logs bytes.Buffer
	opts := DefaultOptions()
	opts.Strategy = merge.Simple
	opts.Logger = slog.New(slog.NewTextHandler(&logs, nil))

	got, err := New(r, opts).Load(context.Background(),
		source.Parse("l.yaml"), source.Parse("l.yaml"))
	require.NoError(t, err)
	assertTree(t, doc(t, "[1]"), got)
	assert.Contains(t, logs.String(), "ignoring duplicate source")
}

func TestLoadDefault(t *testing.T) {
	r := testResolver(t, map[string]string{"/etc/app/empty.yaml": ""})
	opts := DefaultOptions()
	opts.Default = doc(t, "{fallback: true}")
	opts.MissingLevel = slog.LevelInfo

	got, err := New(r, opts).Load(context.Background(), source.Parse("empty.yaml"), source.Parse("gone.yaml"))
	require.NoError(t, err)
	assert.Same(t, opts.Default, got)

	got, err = New(r, DefaultOptions()).Load(context.Background())
	require.NoError(t, err)
	assert.True(t, got.IsNull())
}

func TestLoadMergeFailure(t *testing.T) {
	opts := DefaultOptions()
	opts.Strategy = merge.Deep
	_, err := New(testResolver(t, nil), opts).Load(context.Background(),
		source.FromTree(doc(t, "{a: 1}")), source.FromTree(doc(t, "{a: {b: 1}}")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, merge.ErrUnsupported))
}

func TestLoadInterpolates(t *testing.T) {
	r := testResolver(t, map[string]string{
		"/etc/app/base.yaml": "db: {host: localhost, port: 5432}\nurl: \"pg://{{ db.host }}:{{ db.port }}\"\nport: \"{{ db.port }}\"\n",
		"/etc/app/prod.yaml": "db: {host: prod.internal}\n",
	})
	opts := DefaultOptions()
	opts.Strategy = merge.Deep
	opts.Interpolate = true
	got, err := New(r, opts).Load(context.Background(), source.Parse("base.yaml"), source.Parse("prod.yaml"))
	require.NoError(t, err)

	url, _ := got.Get("url")
	assert.Equal(t, "pg://prod.internal:5432", url.Value())
	port, _ := got.Get("port")
	assert.Equal(t, int64(5432), port.Value())

	opts.Interpolate = false
	got, err = New(r, opts).Load(context.Background(), source.Parse("base.yaml"))
	require.NoError(t, err)
	url, _ = got.Get("url")
	assert.Equal(t, "pg://{{ db.host }}:{{ db.port }}", url.Value())
}

func TestLoadInterpolationFailure(t *testing.T) {
	opts := DefaultOptions()
	opts.Interpolate = true
	_, err := New(testResolver(t, nil), opts).Load(context.Background(),
		source.FromTree(doc(t, "a: \"{{ nothing.here }}\"")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, interpolate.ErrInterpolation))
}

func TestLoadCustomStrategy(t *testing.T) {
	var calls int
	opts := DefaultOptions()
	opts.Strategy = merge.StrategyFunc(func(a, b *tree.Node, _ merge.Options) (*tree.Node, error) {
		calls++
		return b, nil
	})
	got, err := New(testResolver(t, nil), opts).Load(context.Background(),
		source.FromTree(doc(t, "1")), source.FromTree(doc(t, "2")), source.FromTree(doc(t, "3")))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(3), got.Value())
}

func TestLoadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(testResolver(t, nil), DefaultOptions()).Load(ctx, source.FromTree(doc(t, "a: 1")))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"critical", LevelCritical},
		{"ERROR", slog.LevelError},
		{"Warning", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"info", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"-2", slog.Level(-2)},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)

	assert.Equal(t, "warning", LevelName(slog.LevelWarn))
	assert.Equal(t, "critical", LevelName(LevelCritical))
	assert.Equal(t, "3", LevelName(slog.Level(3)))
}
