package layered

import "slices"

// Crossing counting between adjacent layers uses a Fenwick tree (binary
// indexed tree) to count inversions in O(E log V), which keeps repeated
// evaluation during the ordering sweeps cheap. Two segs (u1,v1) and
// (u2,v2) between the same layer pair cross iff pos(u1) < pos(u2) and
// pos(v1) > pos(v2).

// countCrossings returns the total crossing count across every pair of
// adjacent layers under the arena's current order.
func (a *arena) countCrossings() int {
	total := 0
	for l := 0; l+1 < len(a.layers); l++ {
		total += a.countLayerCrossings(l)
	}
	return total
}

// countLayerCrossings counts crossings between layer l and layer l+1.
func (a *arena) countLayerCrossings(l int) int {
	upper := a.layers[l]
	lower := a.layers[l+1]
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}

	type pair struct{ upper, lower int }
	var pairs []pair
	for upos, vi := range upper {
		for _, si := range a.out[vi] {
			pairs = append(pairs, pair{upos, a.vnodes[a.segs[si].head].order})
		}
	}
	if len(pairs) < 2 {
		return 0
	}

	slices.SortFunc(pairs, func(x, y pair) int {
		if x.upper != y.upper {
			return x.upper - y.upper
		}
		return x.lower - y.lower
	})

	// Count inversions of the lower positions.
	fenwick := make([]int, len(lower)+1)
	crossings, total := 0, 0
	for _, p := range pairs {
		lessOrEqual := 0
		for q := p.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual

		total++
		for idx := p.lower + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}
