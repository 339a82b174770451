package sorting

import "slotsort.ai/internal/inventory"

// Merge consolidates partial stacks in place. Scanning from the last slot
// backward, each non-full stack is poured into every earlier combinable
// non-full stack. Each returned batch lists the positions to click: the
// source, the receiving targets, and the source again when a remainder has
// to be put back. Sources that found no target produce no batch.
//
// Afterwards at most one non-full stack of each combinable kind remains.
func Merge(stacks []inventory.Stack, limits inventory.MaxCounter) [][]int {
	var batches [][]int
	for i := len(stacks) - 1; i >= 0; i-- {
		src := stacks[i]
		if src.IsEmpty() || src.Count >= limits.MaxCount(src.Item) {
			continue
		}
		remaining := src.Count
		batch := []int{i}
		for j := 0; j < i && remaining > 0; j++ {
			dst := stacks[j]
			if dst.IsEmpty() || !inventory.CanCombine(src, dst) {
				continue
			}
			room := limits.MaxCount(dst.Item) - dst.Count
			if room <= 0 {
				continue
			}
			n := min(room, remaining)
			remaining -= n
			stacks[j] = dst.WithCount(dst.Count + n)
			batch = append(batch, j)
		}
		if len(batch) <= 1 {
			continue
		}
		if remaining > 0 {
			batch = append(batch, i)
		}
		stacks[i] = src.WithCount(remaining)
		batches = append(batches, batch)
	}
	return batches
}
