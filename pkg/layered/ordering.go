package layered

import (
	"slices"
	"sort"

	"github.com/stratumlab/stratum/pkg/graph"
)

// minimizeCrossings reorders each layer to reduce the number of edge
// crossings between adjacent layers. It runs alternating top-down and
// bottom-up sweeps; each sweep re-keys every node by the median of its
// neighbor positions in the adjacent, already-fixed layer (barycenter of
// the two middle neighbors when the count is even) and stably re-sorts the
// layer. A sweep's result is kept only if it does not increase the total
// crossing count; the best ordering seen is always retained, so the full
// run never ends worse than the initial order.
//
// The sweep count is bounded by Config.Iterations; if the bound is reached
// while sweeps are still changing the ordering, a convergence warning is
// returned alongside the best result found.
//
// Determinism: layers start in node insertion order, sorts are stable, and
// the seeded PRNG is consulted only to choose between whole orderings of
// equal crossing count. Identical graph, config, and seed reproduce the
// final order exactly.
func minimizeCrossings(a *arena) []Warning {
	defer a.writeOrders()

	if len(a.layers) < 2 || len(a.segs) == 0 {
		return nil
	}

	best := a.snapshotOrder()
	bestCount := a.countCrossings()

	iterations := a.cfg.Iterations
	if iterations < 1 {
		iterations = 1
	}

	settled := false
	for i := 0; i < iterations && bestCount > 0; i++ {
		before := a.snapshotOrder()
		a.sweep(i%2 == 0)

		switch count := a.countCrossings(); {
		case count < bestCount:
			best = a.snapshotOrder()
			bestCount = count
		case count == bestCount:
			// Equally good ordering; the seed decides which one survives.
			if a.rng.Intn(2) == 0 {
				best = a.snapshotOrder()
			}
		default:
			a.restoreOrder(best)
		}

		if sameOrder(before, a.layers) {
			settled = true
			break
		}
	}

	a.restoreOrder(best)

	if !settled && bestCount > 0 {
		return []Warning{{
			Phase:   PhaseOrdering,
			Message: "sweep bound reached before the ordering settled; keeping best of all sweeps",
		}}
	}
	return nil
}

// sweep re-keys and re-sorts every free layer against its fixed neighbor.
// down walks layers top to bottom keying against predecessors; otherwise
// bottom to top keying against successors.
func (a *arena) sweep(down bool) {
	if down {
		for l := 1; l < len(a.layers); l++ {
			a.sortLayer(l, true)
		}
	} else {
		for l := len(a.layers) - 2; l >= 0; l-- {
			a.sortLayer(l, false)
		}
	}
	a.renumber()
}

func (a *arena) sortLayer(l int, usePreds bool) {
	layer := a.layers[l]
	keys := make(map[int]float64, len(layer))
	for _, vi := range layer {
		keys[vi] = a.neighborKey(vi, usePreds)
	}
	sort.SliceStable(layer, func(i, j int) bool {
		return keys[layer[i]] < keys[layer[j]]
	})
	for pos, vi := range layer {
		a.vnodes[vi].order = pos
	}
}

// neighborKey returns the node's sort key: the median neighbor position in
// the adjacent fixed layer, the barycenter of the two middle neighbors for
// even counts, or the node's own position when it has no neighbors there.
// Neighbor positions are refined by fixed-port ranks so that edges into a
// fixed-port node pull their other endpoints into the configured port
// order.
func (a *arena) neighborKey(vi int, usePreds bool) float64 {
	var positions []float64
	if usePreds {
		for _, si := range a.in[vi] {
			s := a.segs[si]
			positions = append(positions, a.attachPos(s.tail, s.edge, false))
		}
	} else {
		for _, si := range a.out[vi] {
			s := a.segs[si]
			positions = append(positions, a.attachPos(s.head, s.edge, true))
		}
	}
	if len(positions) == 0 {
		return float64(a.vnodes[vi].order)
	}
	slices.Sort(positions)
	mid := len(positions) / 2
	if len(positions)%2 == 1 {
		return positions[mid]
	}
	return (positions[mid-1] + positions[mid]) / 2
}

// attachPos is a neighbor's position for keying purposes: its order index,
// shifted within ±0.5 by the rank of the port the edge attaches to when
// the neighbor constrains its port order.
func (a *arena) attachPos(vi int, e *graph.Edge, incoming bool) float64 {
	v := a.vnodes[vi]
	pos := float64(v.order)
	if e == nil || !v.fixedPorts() {
		return pos
	}
	portID := attachPortID(e, incoming)
	if portID == "" {
		return pos
	}
	p, ok := v.node.Port(portID)
	if !ok {
		return pos
	}
	ports := v.node.PortsOnSide(p.Side)
	rank := 0
	for i, sp := range ports {
		if sp.ID == p.ID {
			rank = i
			break
		}
	}
	frac := (float64(rank) + 1) / (float64(len(ports)) + 1)
	return pos - 0.5 + frac
}

// attachPortID resolves which declared port an edge uses at one of its
// ends. incoming refers to the effective direction; reversal swaps which
// declared end that is.
func attachPortID(e *graph.Edge, incoming bool) string {
	if incoming != e.Reversed { // at the declared target end
		return e.ToPort
	}
	return e.FromPort
}

func (a *arena) snapshotOrder() [][]int {
	out := make([][]int, len(a.layers))
	for i, l := range a.layers {
		out[i] = slices.Clone(l)
	}
	return out
}

func (a *arena) restoreOrder(snap [][]int) {
	for i := range snap {
		a.layers[i] = slices.Clone(snap[i])
	}
	a.renumber()
}

func sameOrder(x, y [][]int) bool {
	for i := range x {
		if !slices.Equal(x[i], y[i]) {
			return false
		}
	}
	return true
}

// writeOrders copies final order indices onto the real nodes.
func (a *arena) writeOrders() {
	for _, v := range a.vnodes {
		if v.node != nil {
			v.node.Order = v.order
		}
	}
}
