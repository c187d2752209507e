package source

import (
	"fmt"
	"strings"

	"github.com/dshills/strata/internal/tree"
)

// Source describes one input to a load. Exactly one of Path, Inline or Tree
// is expected to be set.
type Source struct {
	// Path is a file name or glob, relative to the resolver's base dir.
	Path string
	// Inline holds a YAML document given as text.
	Inline string
	// Tree is an already parsed document.
	Tree *tree.Node
	// Reader forces a reader by name instead of choosing by file name.
	Reader string
}

// Parse turns a command line argument into a Source. Text containing a
// newline is an inline document; anything else is a path.
func Parse(s string) Source {
	if strings.Contains(s, "\n") {
		return Source{Inline: s}
	}
	return Source{Path: s}
}

// FromTree wraps a parsed document.
func FromTree(n *tree.Node) Source {
	return Source{Tree: n}
}

// Key identifies the source for duplicate detection.
func (s Source) Key() string {
	switch {
	case s.Tree != nil:
		return fmt.Sprintf("tree:%p", s.Tree)
	case s.Inline != "":
		return "inline:" + s.Inline
	default:
		return "path:" + s.Reader + ":" + s.Path
	}
}

func (s Source) String() string {
	switch {
	case s.Tree != nil:
		return "<tree>"
	case s.Inline != "":
		line, _, _ := strings.Cut(s.Inline, "\n")
		return fmt.Sprintf("<inline %q...>", line)
	default:
		return s.Path
	}
}
