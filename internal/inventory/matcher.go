package inventory

// StackMatcher is a value key over item identity and, unless ItemOnly is set,
// the component payload. It is comparable and safe to use as a map key.
type StackMatcher struct {
	Item       string
	Components Components
	ItemOnly   bool
}

func MatchExact(s Stack) StackMatcher {
	return StackMatcher{Item: s.Item, Components: s.Components}
}

func MatchItem(s Stack) StackMatcher {
	return StackMatcher{Item: s.Item, ItemOnly: true}
}

func (m StackMatcher) Matches(s Stack) bool {
	if s.Item != m.Item {
		return false
	}
	return m.ItemOnly || s.Components == m.Components
}

// IndexOf returns the first position in order matched by m, or -1.
func (m StackMatcher) IndexOf(order []StackMatcher) int {
	for i, e := range order {
		if e.Item != m.Item {
			continue
		}
		if m.ItemOnly || e.Components == m.Components {
			return i
		}
	}
	return -1
}
