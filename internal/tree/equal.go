package tree

// Equal reports whether a and b are structurally equal. Mapping comparison
// ignores key order. Two integers compare exactly; an integer and a float
// compare as floats. Booleans never equal numbers.
func Equal(a, b *Node) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case Null:
		return true
	case Scalar:
		return scalarEqual(a.value, b.value)
	case Sequence:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case Mapping:
		if a.Len() != b.Len() {
			return false
		}
		for k, av := range a.Fields() {
			bv, ok := b.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}

func scalarEqual(a, b any) bool {
	ai, aInt := a.(int64)
	bi, bInt := b.(int64)
	if aInt && bInt {
		return ai == bi
	}
	if af, ok := number(a); ok {
		bf, ok := number(b)
		return ok && af == bf
	}
	return a == b
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// Contains reports whether seq holds an element structurally equal to v.
func Contains(seq, v *Node) bool {
	for _, item := range seq.Items() {
		if Equal(item, v) {
			return true
		}
	}
	return false
}
