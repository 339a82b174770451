package sorting

import "slotsort.ai/internal/inventory"

// PlanPrimitive expands perm (target -> origin) into positions to click with
// pick-up/place only. stacks is the post-merge snapshot and is not modified.
//
// Chains start at the origin of the first unsettled target and follow the
// displaced content to wherever it belongs, stopping at a settled slot or at a
// slot that was empty.
func PlanPrimitive(stacks []inventory.Stack, perm []int) []int {
	n := len(stacks)
	if n < 2 || len(perm) != n {
		return nil
	}
	target := make([]int, n)
	for t, o := range perm {
		target[o] = t
	}
	settled := make([]bool, n)
	empty := make([]bool, n)
	for i := 0; i < n; i++ {
		if perm[i] == i {
			settled[i] = true
			continue
		}
		empty[i] = stacks[i].IsEmpty()
	}

	var clicks []int
	for i := 0; i < n; i++ {
		if settled[i] {
			continue
		}
		origin := perm[i]
		if empty[origin] {
			settled[i] = true
			continue
		}

		clicks = append(clicks, origin)
		empty[origin] = true
		carried := stacks[origin]
		working := origin
		id := i
		for {
			here := stacks[id]
			if !empty[id] && inventory.CanCombine(here, carried) {
				if here.Count == carried.Count {
					settled[id] = true
					id = target[id]
					if settled[id] {
						break
					}
					continue
				}
				if carried.Count < here.Count {
					// A partial stack clicked onto a full one is ignored, so
					// park it in the working slot and split by hand.
					clicks = append(clicks, working, id, working, id, working)
					carried = here
					settled[id] = true
					id = target[id]
					if settled[id] {
						break
					}
					continue
				}
			}

			clicks = append(clicks, id)
			carried = here
			settled[id] = true
			if empty[id] {
				break
			}
			id = target[id]
			if settled[id] {
				break
			}
		}
	}
	return clicks
}

// Apply remaps stacks by perm: out[t] = stacks[perm[t]].
func Apply(stacks []inventory.Stack, perm []int) []inventory.Stack {
	out := make([]inventory.Stack, len(perm))
	for t, o := range perm {
		out[t] = stacks[o]
	}
	return out
}
