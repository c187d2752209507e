package output

import (
	"fmt"
	"io"

	"github.com/dshills/strata/internal/tree"
)

// TextWriter outputs one `path = value` line per leaf, in tree order.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, n *tree.Node) error {
	ew := &errWriter{w: w}
	for _, leaf := range Flatten(n) {
		path := tree.JoinPath(leaf.Path)
		if path == "" {
			path = "."
		}
		ew.printf("%s = %s\n", path, leafText(leaf.Value))
	}
	return ew.err
}

// Leaf is a scalar, null or empty collection at a path.
type Leaf struct {
	Path  []tree.Segment
	Value *tree.Node
}

// Flatten lists the leaves of n depth first.
func Flatten(n *tree.Node) []Leaf {
	var out []Leaf
	var walk func(n *tree.Node, path []tree.Segment)
	walk = func(n *tree.Node, path []tree.Segment) {
		switch {
		case n.IsMapping() && n.Len() > 0:
			for k, v := range n.Fields() {
				walk(v, append(path[:len(path):len(path)], tree.Segment{Key: k}))
			}
		case n.IsSequence() && n.Len() > 0:
			for i, v := range n.Items() {
				walk(v, append(path[:len(path):len(path)], tree.Segment{Index: i, IsIndex: true}))
			}
		default:
			out = append(out, Leaf{Path: path, Value: n})
		}
	}
	walk(n, nil)
	return out
}

func leafText(n *tree.Node) string {
	switch n.Kind() {
	case tree.Null:
		return "null"
	case tree.Mapping:
		return "{}"
	case tree.Sequence:
		return "[]"
	}
	return n.ScalarString()
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
