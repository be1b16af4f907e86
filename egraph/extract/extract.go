// Package extract implements minimum-cost extraction from a saturated
// (or partially saturated) e-graph: picking, for each e-class, the
// cheapest e-node witness, and reassembling a concrete host term from
// the winners (spec §4.7).
package extract

import (
	"errors"
	"math"

	"github.com/rogpeppe/eqsat/anyhash"
	"github.com/rogpeppe/eqsat/egraph"
)

// CostModel assigns a nonnegative local cost to a single e-node,
// independent of its children's cost.
type CostModel[K any] interface {
	Cost(n egraph.ENode[K]) float64
}

// RecCoster is an optional refinement of CostModel for callers that
// need more than "local cost plus sum of children's costs" (spec
// §4.7: "typically enode_cost(n) + Σ costs[find(arg)].cost, but may be
// overridden"). classCost returns the current best cost for a
// (canonical) e-class, or +Inf if it has no assigned cost yet.
type RecCoster[K any] interface {
	CostModel[K]
	CostRec(n egraph.ENode[K], classCost func(egraph.Id) float64) float64
}

// ErrNoFiniteTerm is returned by Extract when the requested e-class (or
// one of its transitive dependencies) has no finite-cost e-node: every
// witness in its class depends, directly or indirectly, on itself or
// on another unreachable class (spec §4.7: "Classes that remain at +∞
// ... report as an extraction failure").
var ErrNoFiniteTerm = errors.New("extract: e-class has no finite-cost term")

type best[K any] struct {
	cost float64
	node egraph.ENode[K]
	has  bool
}

// Extract computes the minimum-cost term rooted at eid and reassembles
// it as a T via build, the caller's sole coupling back to a concrete
// host tree representation.
//
// The cost fixpoint (step 2 of spec §4.7) considers every canonical
// e-class reachable via g.Eclasses, not just those below eid, matching
// the spec's "for every class c" phrasing; this also means Extract's
// fixpoint cost is reusable across multiple calls sharing the same
// e-graph snapshot, though this implementation recomputes it each call
// for simplicity.
func Extract[K, T any, H anyhash.Hasher[K], D comparable](g *egraph.EGraph[K, H, D], eid egraph.Id, model CostModel[K], build egraph.NodeBuilder[K, T]) (T, error) {
	costs := fixpointCosts(g, model)
	return reconstruct(g, eid, costs, build)
}

// fixpointCosts runs the Dijkstra-style relaxation to a fixed point:
// repeatedly recompute every class's best witness until a full pass
// makes no improvement. Costs only ever decrease, and are bounded below
// by zero, so the loop terminates (spec §4.7 "Termination").
func fixpointCosts[K any, H anyhash.Hasher[K], D comparable](g *egraph.EGraph[K, H, D], model CostModel[K]) map[egraph.Id]best[K] {
	eclasses := g.Eclasses()
	costs := make(map[egraph.Id]best[K], len(eclasses))

	classCost := func(id egraph.Id) float64 {
		if b, ok := costs[g.Find(id)]; ok {
			return b.cost
		}
		return math.Inf(1)
	}
	rec, hasRec := model.(RecCoster[K])

	for {
		changed := false
		for id, nodes := range eclasses {
			for _, n := range nodes {
				var k float64
				if hasRec {
					k = rec.CostRec(n, classCost)
				} else {
					k = defaultCostRec(model, n, classCost)
				}
				cur, ok := costs[id]
				if !ok || k < cur.cost {
					costs[id] = best[K]{cost: k, node: n, has: true}
					changed = true
				}
			}
		}
		if !changed {
			return costs
		}
	}
}

func defaultCostRec[K any](model CostModel[K], n egraph.ENode[K], classCost func(egraph.Id) float64) float64 {
	total := model.Cost(n)
	for _, a := range n.Args {
		total += classCost(a)
	}
	return total
}

func reconstruct[K, T any, H anyhash.Hasher[K], D comparable](g *egraph.EGraph[K, H, D], eid egraph.Id, costs map[egraph.Id]best[K], build egraph.NodeBuilder[K, T]) (T, error) {
	var zero T
	id := g.Find(eid)
	b, ok := costs[id]
	if !ok || !b.has || math.IsInf(b.cost, 1) {
		return zero, ErrNoFiniteTerm
	}

	children := make([]T, len(b.node.Args))
	for i, a := range b.node.Args {
		c, err := reconstruct(g, a, costs, build)
		if err != nil {
			return zero, err
		}
		children[i] = c
	}
	return build(b.node.Key, children), nil
}
