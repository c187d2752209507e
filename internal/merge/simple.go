package merge

import "github.com/dshills/strata/internal/tree"

// simple: the override wins unless it is null. Mapping updates are shallow.
func (m *merger) simple(a, b *tree.Node) (*tree.Node, error) {
	m.trace("simple merge", a, b)
	switch b.Kind() {
	case tree.Null:
		return a, nil
	case tree.Scalar:
		return b, nil
	case tree.Sequence:
		if !a.IsSequence() {
			return b, nil
		}
		for i, item := range b.Items() {
			cur, ok := a.Index(i)
			if !ok {
				a.Append(item)
				continue
			}
			merged, err := m.element(i, cur, item, m.simple)
			if err != nil {
				return nil, err
			}
			a.SetIndex(i, merged)
		}
		return a, nil
	case tree.Mapping:
		switch a.Kind() {
		case tree.Mapping:
			for k, v := range b.Fields() {
				a.Set(k, v)
			}
			return a, nil
		case tree.Null, tree.Sequence:
			return b, nil
		}
	}
	return nil, m.unsupported(a, b, "")
}
