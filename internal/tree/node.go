package tree

import (
	"encoding/json"
	"fmt"
	"iter"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies the variant of a Node.
type Kind int

const (
	Null Kind = iota
	Scalar
	Sequence
	Mapping
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Scalar:
		return "scalar"
	case Sequence:
		return "sequence"
	case Mapping:
		return "mapping"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is a single configuration value. The zero value is not usable; build
// nodes with the constructors below.
type Node struct {
	kind   Kind
	value  any // int64, float64, bool or string when kind == Scalar
	items  []*Node
	fields *orderedmap.OrderedMap[string, *Node]
}

// NewNull returns a Null node.
func NewNull() *Node {
	return &Node{kind: Null}
}

// Int returns an integer scalar.
func Int(v int64) *Node {
	return &Node{kind: Scalar, value: v}
}

// Float returns a floating point scalar.
func Float(v float64) *Node {
	return &Node{kind: Scalar, value: v}
}

// Bool returns a boolean scalar.
func Bool(v bool) *Node {
	return &Node{kind: Scalar, value: v}
}

// String returns a string scalar.
func String(v string) *Node {
	return &Node{kind: Scalar, value: v}
}

// NewSequence returns a Sequence holding items in order.
func NewSequence(items ...*Node) *Node {
	n := &Node{kind: Sequence, items: make([]*Node, 0, len(items))}
	n.Append(items...)
	return n
}

// NewMapping returns an empty Mapping.
func NewMapping() *Node {
	return &Node{kind: Mapping, fields: orderedmap.New[string, *Node]()}
}

// Kind reports the node variant. A nil node is Null.
func (n *Node) Kind() Kind {
	if n == nil {
		return Null
	}
	return n.kind
}

func (n *Node) IsNull() bool     { return n.Kind() == Null }
func (n *Node) IsScalar() bool   { return n.Kind() == Scalar }
func (n *Node) IsSequence() bool { return n.Kind() == Sequence }
func (n *Node) IsMapping() bool  { return n.Kind() == Mapping }

// Value returns the scalar payload, or nil for any other kind.
func (n *Node) Value() any {
	if n.Kind() != Scalar {
		return nil
	}
	return n.value
}

// Str returns the payload of a string scalar.
func (n *Node) Str() (string, bool) {
	if n.Kind() != Scalar {
		return "", false
	}
	s, ok := n.value.(string)
	return s, ok
}

// Len returns the number of elements of a Sequence or entries of a Mapping.
func (n *Node) Len() int {
	switch n.Kind() {
	case Sequence:
		return len(n.items)
	case Mapping:
		return n.fields.Len()
	default:
		return 0
	}
}

// Index returns the i-th element of a Sequence.
func (n *Node) Index(i int) (*Node, bool) {
	if n.Kind() != Sequence || i < 0 || i >= len(n.items) {
		return nil, false
	}
	return n.items[i], true
}

// SetIndex replaces the i-th element of a Sequence. It panics when n is not a
// Sequence or i is out of range, like a slice assignment would.
func (n *Node) SetIndex(i int, v *Node) {
	n.mustBe(Sequence)
	n.items[i] = orNull(v)
}

// Append adds elements to the end of a Sequence.
func (n *Node) Append(vs ...*Node) {
	n.mustBe(Sequence)
	for _, v := range vs {
		n.items = append(n.items, orNull(v))
	}
}

// Items returns the elements of a Sequence. The returned slice aliases the
// node's storage and must not be appended to.
func (n *Node) Items() []*Node {
	if n.Kind() != Sequence {
		return nil
	}
	return n.items
}

// Get returns the value stored under key in a Mapping.
func (n *Node) Get(key string) (*Node, bool) {
	if n.Kind() != Mapping {
		return nil, false
	}
	return n.fields.Get(key)
}

// Has reports whether a Mapping contains key.
func (n *Node) Has(key string) bool {
	_, ok := n.Get(key)
	return ok
}

// Set stores v under key. Existing keys keep their position.
func (n *Node) Set(key string, v *Node) {
	n.mustBe(Mapping)
	n.fields.Set(key, orNull(v))
}

// Delete removes key from a Mapping.
func (n *Node) Delete(key string) {
	if n.Kind() != Mapping {
		return
	}
	n.fields.Delete(key)
}

// Keys returns the keys of a Mapping in insertion order.
func (n *Node) Keys() []string {
	if n.Kind() != Mapping {
		return nil
	}
	keys := make([]string, 0, n.fields.Len())
	for pair := n.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Fields iterates the entries of a Mapping in insertion order.
func (n *Node) Fields() iter.Seq2[string, *Node] {
	return func(yield func(string, *Node) bool) {
		if n.Kind() != Mapping {
			return
		}
		for pair := n.fields.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	switch n.Kind() {
	case Scalar:
		return &Node{kind: Scalar, value: n.value}
	case Sequence:
		c := &Node{kind: Sequence, items: make([]*Node, len(n.items))}
		for i, item := range n.items {
			c.items[i] = item.Clone()
		}
		return c
	case Mapping:
		c := NewMapping()
		for k, v := range n.Fields() {
			c.fields.Set(k, v.Clone())
		}
		return c
	default:
		return NewNull()
	}
}

// MarshalJSON encodes the tree with mapping order preserved.
func (n *Node) MarshalJSON() ([]byte, error) {
	switch n.Kind() {
	case Scalar:
		return json.Marshal(n.value)
	case Sequence:
		return json.Marshal(n.items)
	case Mapping:
		return n.fields.MarshalJSON()
	default:
		return []byte("null"), nil
	}
}

// String renders n as compact JSON for logs and error messages.
func (n *Node) String() string {
	data, err := n.MarshalJSON()
	if err != nil {
		if n.Kind() == Scalar {
			return fmt.Sprint(n.value)
		}
		return fmt.Sprintf("<%s>", n.Kind())
	}
	return string(data)
}

// TypeName describes the node for error messages: the scalar payload type or
// the node kind.
func (n *Node) TypeName() string {
	if n.Kind() != Scalar {
		return n.Kind().String()
	}
	switch n.value.(type) {
	case int64:
		return "int"
	case float64:
		return "float"
	case bool:
		return "bool"
	default:
		return "string"
	}
}

// ScalarString formats a scalar payload the way YAML would print it. Non-scalar
// nodes render as JSON.
func (n *Node) ScalarString() string {
	switch v := n.Value().(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return n.String()
	}
}

func (n *Node) mustBe(k Kind) {
	if n.Kind() != k {
		panic(fmt.Sprintf("tree: %s operation on %s node", k, n.Kind()))
	}
}

func orNull(v *Node) *Node {
	if v == nil {
		return NewNull()
	}
	return v
}
