package merge

import "github.com/dshills/strata/internal/tree"

// deep merges everything recursively and reconciles sequence elements.
func (m *merger) deep(a, b *tree.Node) (*tree.Node, error) {
	m.trace("deep merge", a, b)
	if b.IsNull() {
		return a, nil
	}
	if a.IsNull() || b.IsScalar() {
		return b, nil
	}
	switch a.Kind() {
	case tree.Sequence:
		if b.IsSequence() {
			return m.deepSequences(a, b)
		}
	case tree.Mapping:
		switch b.Kind() {
		case tree.Mapping:
			return m.mergeMappings(a, b, m.deep)
		case tree.Sequence:
			return m.foldSequence(a, b, m.deep)
		}
	}
	return nil, m.unsupported(a, b, "")
}

// deepSequences unions b into a.
//
// Scalar and sequence elements of b are appended unless a structurally equal
// element is already present. Mapping elements of b are matched to a by
// position: when MergeLists is set and the mapping at the same index of a
// shares at least one key, the two are deep merged in place. This is a
// positional heuristic, not an identity key. Unmatched mappings are appended
// in their original order. Null elements of b are dropped.
func (m *merger) deepSequences(a, b *tree.Node) (*tree.Node, error) {
	for _, elem := range b.Items() {
		if (elem.IsScalar() || elem.IsSequence()) && !tree.Contains(a, elem) {
			a.Append(elem)
		}
	}

	pending := make(map[int]*tree.Node)
	var order []int
	for i, elem := range b.Items() {
		if elem.IsMapping() {
			pending[i] = elem
			order = append(order, i)
		}
	}

	for i, elem := range a.Items() {
		if !elem.IsMapping() {
			continue
		}
		src, ok := pending[i]
		if !ok || !m.opts.MergeLists || !sharesKey(elem, src) {
			continue
		}
		merged, err := m.element(i, elem, src, m.deep)
		if err != nil {
			return nil, err
		}
		a.SetIndex(i, merged)
		delete(pending, i)
	}

	for _, i := range order {
		if src, ok := pending[i]; ok {
			m.log.Debug("append list mapping", "path", m.pathString(), "index", i)
			a.Append(src)
		}
	}
	return a, nil
}

func sharesKey(a, b *tree.Node) bool {
	for k := range a.Fields() {
		if b.Has(k) {
			return true
		}
	}
	return false
}
