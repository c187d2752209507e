// Package tree defines the configuration value model shared by every strata
// component.
//
// A [Node] is one of four kinds: [Null], [Scalar] (int64, float64, bool or
// string payload), [Sequence] (ordered, mixed-kind elements) or [Mapping]
// (ordered, unique string keys). A nil *Node behaves as a Null node, which
// lets callers treat an absent accumulator and an explicit YAML null alike.
//
// Mapping order is insertion order and survives every conversion the package
// offers: [FromAny] and [FromYAML] build trees from decoded data, [Node.ToYAML]
// and [Node.MarshalJSON] write them back out in the same order. [Equal]
// compares two trees structurally; numbers compare by value across int and
// float.
//
// Nodes are mutable. The merge engine updates mappings and sequences in place,
// so a subtree must not be shared between two trees that are merged
// independently.
package tree
