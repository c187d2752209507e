package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step of a path: a mapping key or a sequence index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

func (s Segment) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Key
}

// ParsePath parses expressions such as `db.hosts[0].name` or
// `servers['web-1'].port`. A purely numeric dotted segment (`hosts.0`) is
// kept as a key and matches a sequence index at lookup time.
func ParsePath(expr string) ([]Segment, error) {
	var segs []Segment
	s := strings.TrimSpace(expr)
	if s == "" {
		return nil, fmt.Errorf("empty path")
	}
	expectKey := true
	for len(s) > 0 {
		switch {
		case s[0] == '[':
			end := strings.IndexByte(s, ']')
			if end < 0 {
				return nil, fmt.Errorf("path %q: unterminated '['", expr)
			}
			inner := strings.TrimSpace(s[1:end])
			seg, err := bracketSegment(inner)
			if err != nil {
				return nil, fmt.Errorf("path %q: %w", expr, err)
			}
			segs = append(segs, seg)
			s = s[end+1:]
			expectKey = false
		case s[0] == '.':
			if expectKey {
				return nil, fmt.Errorf("path %q: unexpected '.'", expr)
			}
			s = s[1:]
			expectKey = true
			if s == "" {
				return nil, fmt.Errorf("path %q: trailing '.'", expr)
			}
		default:
			if !expectKey {
				return nil, fmt.Errorf("path %q: expected '.' or '['", expr)
			}
			end := strings.IndexAny(s, ".[")
			if end < 0 {
				end = len(s)
			}
			key := s[:end]
			if !isIdentifier(key) {
				return nil, fmt.Errorf("path %q: invalid key %q", expr, key)
			}
			segs = append(segs, Segment{Key: key})
			s = s[end:]
			expectKey = false
		}
	}
	return segs, nil
}

func bracketSegment(inner string) (Segment, error) {
	if len(inner) >= 2 && (inner[0] == '\'' || inner[0] == '"') && inner[len(inner)-1] == inner[0] {
		return Segment{Key: inner[1 : len(inner)-1]}, nil
	}
	i, err := strconv.Atoi(inner)
	if err != nil || i < 0 {
		return Segment{}, fmt.Errorf("invalid index %q", inner)
	}
	return Segment{Index: i, IsIndex: true}, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '_' && (r < '0' || r > '9') && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// Lookup walks segs from n and returns the node found there.
func (n *Node) Lookup(segs []Segment) (*Node, bool) {
	cur := n
	for _, seg := range segs {
		switch cur.Kind() {
		case Mapping:
			key := seg.Key
			if seg.IsIndex {
				key = strconv.Itoa(seg.Index)
			}
			next, ok := cur.Get(key)
			if !ok {
				return nil, false
			}
			cur = next
		case Sequence:
			idx := seg.Index
			if !seg.IsIndex {
				i, err := strconv.Atoi(seg.Key)
				if err != nil {
					return nil, false
				}
				idx = i
			}
			next, ok := cur.Index(idx)
			if !ok {
				return nil, false
			}
			cur = next
		default:
			return nil, false
		}
	}
	return cur, true
}

// JoinPath renders segments back to a display path.
func JoinPath(segs []Segment) string {
	var b strings.Builder
	for i, seg := range segs {
		if !seg.IsIndex && i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.String())
	}
	return b.String()
}
