package sorting

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"slotsort.ai/internal/inventory"
)

// Order returns the permutation target position -> origin position that
// sorts stacks under mode. The sort is stable, so equal inputs always give
// the same permutation and sorted inputs give the identity.
func Order(stacks []inventory.Stack, mode Mode, oracle inventory.Oracle, optimizeCreative bool) []int {
	ids := make([]int, len(stacks))
	for i := range ids {
		ids[i] = i
	}
	tie := func(a, b int) int { return oracle.CompareEqualItems(stacks[a], stacks[b]) }

	switch mode {
	case ModeAlphabet:
		names := make([]string, len(stacks))
		for i, s := range stacks {
			if !s.IsEmpty() {
				names[i] = inventory.FoldName(oracle.Name(s))
			}
		}
		slices.SortStableFunc(ids, func(a, b int) int {
			ea, eb := stacks[a].IsEmpty(), stacks[b].IsEmpty()
			switch {
			case ea && eb:
				return 0
			case ea:
				return 1
			case eb:
				return -1
			}
			if c := strings.Compare(names[a], names[b]); c != 0 {
				return c
			}
			return tie(a, b)
		})

	case ModeCreative:
		var values []int
		if optimizeCreative {
			values = creativeRanks(stacks, oracle)
		} else {
			values = scanCreativeRanks(stacks, oracle.CreativeOrder())
		}
		sortByValues(ids, values, tie)

	case ModeQuantity:
		totals := map[string]int{}
		for _, s := range stacks {
			if !s.IsEmpty() {
				totals[s.Item] += s.Count
			}
		}
		slices.SortStableFunc(ids, func(a, b int) int {
			ea, eb := stacks[a].IsEmpty(), stacks[b].IsEmpty()
			switch {
			case ea && eb:
				return 0
			case ea:
				return 1
			case eb:
				return -1
			}
			if c := cmp.Compare(totals[stacks[b].Item], totals[stacks[a].Item]); c != 0 {
				return c
			}
			return tie(a, b)
		})

	case ModeRawID:
		values := make([]int, len(stacks))
		for i, s := range stacks {
			values[i] = math.MaxInt
			if s.IsEmpty() {
				continue
			}
			if id, ok := oracle.RawID(s.Item); ok {
				values[i] = id
			}
		}
		sortByValues(ids, values, tie)
	}
	return ids
}

func sortByValues(ids, values []int, tie func(a, b int) int) {
	slices.SortStableFunc(ids, func(a, b int) int {
		if c := cmp.Compare(values[a], values[b]); c != 0 {
			return c
		}
		return tie(a, b)
	})
}

// creativeRanks uses the oracle's precomputed lookup. Unresolved and empty
// stacks rank after every resolved one.
func creativeRanks(stacks []inventory.Stack, oracle inventory.Oracle) []int {
	values := make([]int, len(stacks))
	for i, s := range stacks {
		values[i] = math.MaxInt
		if r, ok := oracle.CreativeRank(s); ok {
			values[i] = r
		}
	}
	return values
}

// scanCreativeRanks searches the catalog ordering directly, exact match
// first, then item-only. Lookups are cached per matcher for this call only.
func scanCreativeRanks(stacks []inventory.Stack, order []inventory.StackMatcher) []int {
	cache := make(map[inventory.StackMatcher]int, len(stacks))
	lookup := func(m inventory.StackMatcher) int {
		if v, ok := cache[m]; ok {
			return v
		}
		v := m.IndexOf(order)
		cache[m] = v
		return v
	}
	values := make([]int, len(stacks))
	for i, s := range stacks {
		values[i] = math.MaxInt
		if s.IsEmpty() {
			continue
		}
		if r := lookup(inventory.MatchExact(s)); r >= 0 {
			values[i] = r
			continue
		}
		if r := lookup(inventory.MatchItem(s)); r >= 0 {
			values[i] = r
		}
	}
	return values
}

// IsIdentity reports whether perm leaves every slot in place.
func IsIdentity(perm []int) bool {
	for i, o := range perm {
		if i != o {
			return false
		}
	}
	return true
}
