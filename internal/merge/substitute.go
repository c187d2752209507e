package merge

import "github.com/dshills/strata/internal/tree"

// substitute: scalars and sequences replace the base whatever its kind;
// only mappings merge, recursively.
func (m *merger) substitute(a, b *tree.Node) (*tree.Node, error) {
	m.trace("substitute merge", a, b)
	if b.IsNull() {
		return a, nil
	}
	if a.IsNull() || b.IsScalar() || b.IsSequence() {
		return b, nil
	}
	if a.IsMapping() && b.IsMapping() {
		return m.mergeMappings(a, b, m.substitute)
	}
	return nil, m.unsupported(a, b, "")
}
