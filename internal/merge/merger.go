package merge

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dshills/strata/internal/tree"
)

// merger carries per-call state: the active strategy, options and the key
// path of the node being merged, for error reporting.
type merger struct {
	method Method
	opts   Options
	log    *slog.Logger
	path   []string
}

func newMerger(m Method, opts Options) *merger {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &merger{method: m, opts: opts, log: log}
}

func (m *merger) push(key string) { m.path = append(m.path, key) }
func (m *merger) pushIndex(i int) { m.path = append(m.path, "["+strconv.Itoa(i)+"]") }

func (m *merger) pop() {
	if len(m.path) == 0 {
		panic("merge: unbalanced path pop")
	}
	m.path = m.path[:len(m.path)-1]
}

func (m *merger) pathString() string {
	var b strings.Builder
	for i, p := range m.path {
		if i > 0 && !strings.HasPrefix(p, "[") {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
}

func (m *merger) trace(msg string, a, b *tree.Node) {
	if !m.log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	m.log.Debug(msg,
		"method", m.method.String(),
		"path", m.pathString(),
		"base", a.String(),
		"override", b.String(),
	)
}

func (m *merger) unsupported(a, b *tree.Node, detail string) error {
	return &UnsupportedMergeError{
		Method:   m.method.String(),
		Path:     m.pathString(),
		Base:     a.TypeName(),
		Override: b.TypeName(),
		Detail:   detail,
	}
}

// child merges one nested value under key with fn, keeping the error path.
func (m *merger) child(key string, a, b *tree.Node, fn func(a, b *tree.Node) (*tree.Node, error)) (*tree.Node, error) {
	m.push(key)
	defer m.pop()
	return fn(a, b)
}

func (m *merger) element(i int, a, b *tree.Node, fn func(a, b *tree.Node) (*tree.Node, error)) (*tree.Node, error) {
	m.pushIndex(i)
	defer m.pop()
	return fn(a, b)
}

// mergeMappings merges every key of b into a, recursing with fn where a
// already holds the key. Keys only present in a are kept.
func (m *merger) mergeMappings(a, b *tree.Node, fn func(a, b *tree.Node) (*tree.Node, error)) (*tree.Node, error) {
	for k, bv := range b.Fields() {
		av, ok := a.Get(k)
		if !ok {
			m.log.Debug("set key", "method", m.method.String(), "path", m.pathString(), "key", k)
			a.Set(k, bv)
			continue
		}
		merged, err := m.child(k, av, bv, fn)
		if err != nil {
			return nil, err
		}
		a.Set(k, merged)
	}
	return a, nil
}

// foldSequence merges each mapping element of b into the mapping a, one after
// the other.
func (m *merger) foldSequence(a, b *tree.Node, fn func(a, b *tree.Node) (*tree.Node, error)) (*tree.Node, error) {
	for i, elem := range b.Items() {
		if !elem.IsMapping() {
			m.pushIndex(i)
			err := m.unsupported(a, elem, "sequence folded into a mapping may only hold mappings")
			m.pop()
			return nil, err
		}
		var err error
		a, err = fn(a, elem)
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}
