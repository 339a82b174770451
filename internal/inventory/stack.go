// Package inventory holds the item stack model shared by the client planner
// and the authoritative world: stacks, matchers, the ordering oracle and the
// pick-up/place click rule.
package inventory

import (
	"fmt"
	"sort"
	"strings"
)

// Components is the comparable tag payload of a stack. Two stacks combine only
// when their Components are equal.
type Components struct {
	CustomName string `json:"custom_name,omitempty"`
	Damage     int    `json:"damage,omitempty"`
	Dyed       bool   `json:"dyed,omitempty"`
	Color      int32  `json:"color,omitempty"` // 0xRRGGBB, valid when Dyed
	// Enchantments is the canonical "id:level" list, comma joined and sorted.
	Enchantments string `json:"enchantments,omitempty"`
	Lore         string `json:"lore,omitempty"` // newline separated
}

type Stack struct {
	Item       string     `json:"item,omitempty"`
	Count      int        `json:"count,omitempty"`
	Components Components `json:"components,omitempty"`
}

var Empty = Stack{}

func (s Stack) IsEmpty() bool { return s.Item == "" || s.Count <= 0 }

// WithCount returns a copy of s with the given count; counts <= 0 yield Empty.
func (s Stack) WithCount(n int) Stack {
	if n <= 0 {
		return Empty
	}
	s.Count = n
	return s
}

func (s Stack) String() string {
	if s.IsEmpty() {
		return "-"
	}
	return fmt.Sprintf("%sx%d", s.Item, s.Count)
}

// CanCombine reports item and component equality (counts ignored).
func CanCombine(a, b Stack) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return false
	}
	return a.Item == b.Item && a.Components == b.Components
}

// SameItem reports item equality, ignoring components and counts.
func SameItem(a, b Stack) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return false
	}
	return a.Item == b.Item
}

// Equal is full equality including count. All empties are equal.
func Equal(a, b Stack) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return a.IsEmpty() == b.IsEmpty()
	}
	return a == b
}

// CanonicalEnchantments normalizes an enchantment list into Components.Enchantments form.
func CanonicalEnchantments(list []string) string {
	if len(list) == 0 {
		return ""
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}
