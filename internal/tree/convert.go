package tree

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FromAny classifies decoded Go data into a tree. Maps with string keys become
// Mappings; plain Go maps have no order, so their keys are sorted. Integer,
// float, bool and string values become scalars; times are formatted as
// RFC 3339 strings.
func FromAny(v any) (*Node, error) {
	switch x := v.(type) {
	case nil:
		return NewNull(), nil
	case *Node:
		return orNull(x), nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return fromUint(uint64(x)), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return fromUint(x), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case time.Time:
		return String(x.Format(time.RFC3339Nano)), nil
	case fmt.Stringer:
		return String(x.String()), nil
	case []any:
		seq := NewSequence()
		for i, item := range x {
			child, err := FromAny(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			seq.Append(child)
		}
		return seq, nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMapping()
		for _, k := range keys {
			child, err := FromAny(x[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			m.Set(k, child)
		}
		return m, nil
	}
	return fromReflect(reflect.ValueOf(v))
}

func fromUint(u uint64) *Node {
	if u > math.MaxInt64 {
		return Float(float64(u))
	}
	return Int(int64(u))
}

// fromReflect covers typed slices and maps such as []string or
// map[string]int that decoders and callers commonly produce.
func fromReflect(rv reflect.Value) (*Node, error) {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		seq := NewSequence()
		for i := 0; i < rv.Len(); i++ {
			child, err := FromAny(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			seq.Append(child)
		}
		return seq, nil
	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		values := make(map[string]reflect.Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := fmt.Sprint(iter.Key().Interface())
			keys = append(keys, k)
			values[k] = iter.Value()
		}
		sort.Strings(keys)
		m := NewMapping()
		for _, k := range keys {
			child, err := FromAny(values[k].Interface())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			m.Set(k, child)
		}
		return m, nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return NewNull(), nil
		}
		return FromAny(rv.Elem().Interface())
	}
	return nil, fmt.Errorf("unsupported value of type %T", rv.Interface())
}

// ToAny converts the tree to plain Go values: nil, int64, float64, bool,
// string, []any and map[string]any. Mapping order is lost.
func (n *Node) ToAny() any {
	switch n.Kind() {
	case Scalar:
		return n.value
	case Sequence:
		out := make([]any, len(n.items))
		for i, item := range n.items {
			out[i] = item.ToAny()
		}
		return out
	case Mapping:
		out := make(map[string]any, n.fields.Len())
		for k, v := range n.Fields() {
			out[k] = v.ToAny()
		}
		return out
	default:
		return nil
	}
}

// TagHook lets a caller take over conversion of YAML nodes carrying a local
// tag such as !include. Returning handled=false falls back to the default
// conversion.
type TagHook func(n *yaml.Node) (result *Node, handled bool, err error)

// FromYAML converts a parsed YAML node into a tree, preserving mapping order.
// Aliases are expanded and << merge keys are applied with explicit keys taking
// precedence.
func FromYAML(n *yaml.Node, hook TagHook) (*Node, error) {
	if n == nil {
		return NewNull(), nil
	}
	if hook != nil && isLocalTag(n.Tag) {
		result, handled, err := hook(n)
		if err != nil {
			return nil, err
		}
		if handled {
			return orNull(result), nil
		}
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return NewNull(), nil
		}
		return FromYAML(n.Content[0], hook)
	case yaml.AliasNode:
		return FromYAML(n.Alias, hook)
	case yaml.ScalarNode:
		return scalarFromYAML(n)
	case yaml.SequenceNode:
		seq := NewSequence()
		for i, item := range n.Content {
			child, err := FromYAML(item, hook)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			seq.Append(child)
		}
		return seq, nil
	case yaml.MappingNode:
		return mappingFromYAML(n, hook)
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
}

func isLocalTag(tag string) bool {
	return len(tag) > 1 && tag[0] == '!' && tag[1] != '!'
}

func scalarFromYAML(n *yaml.Node) (*Node, error) {
	switch n.ShortTag() {
	case "!!null":
		return NewNull(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return Int(i), nil
		}
		var u uint64
		if err := n.Decode(&u); err == nil {
			return fromUint(u), nil
		}
		return String(n.Value), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return Float(f), nil
	default:
		return String(n.Value), nil
	}
}

func mappingFromYAML(n *yaml.Node, hook TagHook) (*Node, error) {
	m := NewMapping()
	var explicit [][2]*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		if key.Kind == yaml.ScalarNode && key.ShortTag() == "!!merge" {
			if err := applyMergeKey(m, value, hook); err != nil {
				return nil, fmt.Errorf("line %d: %w", key.Line, err)
			}
			continue
		}
		explicit = append(explicit, [2]*yaml.Node{key, value})
	}
	for _, kv := range explicit {
		key, value := kv[0], kv[1]
		if key.Kind == yaml.AliasNode {
			key = key.Alias
		}
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping keys must be scalars", key.Line)
		}
		child, err := FromYAML(value, hook)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key.Value, err)
		}
		m.Set(key.Value, child)
	}
	return m, nil
}

func applyMergeKey(m *Node, value *yaml.Node, hook TagHook) error {
	src, err := FromYAML(value, hook)
	if err != nil {
		return err
	}
	var sources []*Node
	switch src.Kind() {
	case Mapping:
		sources = []*Node{src}
	case Sequence:
		sources = src.Items()
	default:
		return fmt.Errorf("merge key value must be a mapping or a sequence of mappings, got %s", src.TypeName())
	}
	for _, s := range sources {
		if !s.IsMapping() {
			return fmt.Errorf("merge key sequence element must be a mapping, got %s", s.TypeName())
		}
		for k, v := range s.Fields() {
			// Earlier merge sources win over later ones.
			if !m.Has(k) {
				m.Set(k, v.Clone())
			}
		}
	}
	return nil
}

// ToYAML returns an ordered yaml.Node for encoding.
func (n *Node) ToYAML() (*yaml.Node, error) {
	switch n.Kind() {
	case Scalar:
		out := &yaml.Node{}
		if f, ok := n.value.(float64); ok {
			out.Kind = yaml.ScalarNode
			out.Tag = "!!float"
			out.Value = formatYAMLFloat(f)
			return out, nil
		}
		if err := out.Encode(n.value); err != nil {
			return nil, err
		}
		return out, nil
	case Sequence:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range n.items {
			child, err := item.ToYAML()
			if err != nil {
				return nil, err
			}
			out.Content = append(out.Content, child)
		}
		return out, nil
	case Mapping:
		out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for k, v := range n.Fields() {
			child, err := v.ToYAML()
			if err != nil {
				return nil, err
			}
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
			out.Content = append(out.Content, key, child)
		}
		return out, nil
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
}

func formatYAMLFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if f == math.Trunc(f) && !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Decode decodes the tree into a Go value using yaml struct tags.
func (n *Node) Decode(v any) error {
	y, err := n.ToYAML()
	if err != nil {
		return err
	}
	return y.Decode(v)
}
