package egraph_test

import (
	"testing"
	"time"

	"github.com/go-quicktest/qt"

	"github.com/rogpeppe/eqsat/anyhash"
	"github.com/rogpeppe/eqsat/egraph"
	"github.com/rogpeppe/eqsat/internal/exprtree"
	"github.com/rogpeppe/eqsat/poller"
)

func newGraph(t Tree) *egraph.EGraph[exprtree.Key, anyhash.ComparableHasher[exprtree.Key], struct{}] {
	return egraph.New[exprtree.Key, anyhash.ComparableHasher[exprtree.Key], struct{}](
		anyhash.ComparableHasher[exprtree.Key]{}, nil, t)
}

// Tree is the egraph.Tree[exprtree.Key] alias used by this file's helper,
// to keep New's call sites short.
type Tree = egraph.Tree[exprtree.Key]

func TestAddIsIdempotent(t *testing.T) {
	term := exprtree.App("+", exprtree.Sym("a"), exprtree.Lit(1))
	g := newGraph(term)
	id1 := g.Add(term)
	v := g.Version()
	id2 := g.Add(term)
	qt.Assert(t, qt.Equals(id1, id2))
	qt.Assert(t, qt.Equals(g.Version(), v))
}

func TestFindUnion(t *testing.T) {
	a := exprtree.Lit(1)
	b := exprtree.Lit(2)
	g := newGraph(a)
	idA := g.Add(a)
	idB := g.Add(b)
	qt.Assert(t, qt.Not(qt.Equals(idA, idB)))

	winner, err := g.Merge(idA, idB)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(g.Find(idA), winner))
	qt.Assert(t, qt.Equals(g.Find(idB), winner))
	qt.Assert(t, qt.Equals(g.Find(winner), winner))
}

func TestCongruenceRepair(t *testing.T) {
	// f(a, b) and f(c, d), then merge(a,c) and merge(b,d): after
	// rebuild the two original e-nodes must land in the same class
	// (spec §8.3 scenario 5).
	a, b, c, d := exprtree.Sym("a"), exprtree.Sym("b"), exprtree.Sym("c"), exprtree.Sym("d")
	fab := exprtree.App("f", a, b)
	g := newGraph(fab)
	idFab := g.Root()
	idFcd := g.Add(exprtree.App("f", c, d))
	qt.Assert(t, qt.Not(qt.Equals(idFab, idFcd)))

	_, err := g.Merge(g.Add(a), g.Add(c))
	qt.Assert(t, qt.IsNil(err))
	_, err = g.Merge(g.Add(b), g.Add(d))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsNil(g.Rebuild()))

	qt.Assert(t, qt.Equals(g.Find(idFab), g.Find(idFcd)))
}

func TestRebuildIdempotent(t *testing.T) {
	term := exprtree.App("*", exprtree.Sym("a"), exprtree.Lit(2))
	g := newGraph(term)
	qt.Assert(t, qt.IsNil(g.Rebuild()))
	qt.Assert(t, qt.IsTrue(g.IsSaturated()))
	v := g.Version()
	qt.Assert(t, qt.IsNil(g.Rebuild()))
	qt.Assert(t, qt.Equals(g.Version(), v))
	qt.Assert(t, qt.IsTrue(g.IsSaturated()))
}

func TestEclassesCacheCoherence(t *testing.T) {
	term := exprtree.App("+", exprtree.Lit(1), exprtree.Lit(2))
	g := newGraph(term)
	m1 := g.Eclasses()
	m2 := g.Eclasses()
	qt.Assert(t, qt.DeepEquals(m1, m2))

	g.Add(exprtree.Lit(3))
	m3 := g.Eclasses()
	qt.Assert(t, qt.Not(qt.DeepEquals(m1, m3)))
}

// boolFact is a minimal analysis domain used to exercise the conflict
// path: make records the value of any integer-literal e-node, join
// requires agreement between two concrete facts.
type boolFact struct {
	has      bool
	value    int64
	conflict bool
}

func (f boolFact) IsConflict() bool { return f.conflict }

type boolAnalysis struct{}

func (boolAnalysis) Make(g *egraph.EGraph[exprtree.Key, anyhash.ComparableHasher[exprtree.Key], boolFact], n egraph.ENode[exprtree.Key]) boolFact {
	if n.Key.IsInt {
		return boolFact{has: true, value: n.Key.N}
	}
	return boolFact{}
}

func (boolAnalysis) Join(a, b boolFact) boolFact {
	switch {
	case !a.has:
		return b
	case !b.has:
		return a
	case a.value != b.value:
		return boolFact{conflict: true}
	default:
		return a
	}
}

func (boolAnalysis) Modify(*egraph.EGraph[exprtree.Key, anyhash.ComparableHasher[exprtree.Key], boolFact], egraph.Id) {
}

func TestMergeConflictLeavesGraphUntouched(t *testing.T) {
	g := egraph.New[exprtree.Key, anyhash.ComparableHasher[exprtree.Key], boolFact](
		anyhash.ComparableHasher[exprtree.Key]{}, boolAnalysis{}, nil)

	id0 := g.Add(exprtree.Lit(0))
	id1 := g.Add(exprtree.Lit(1))
	v := g.Version()
	eclasses := g.Eclasses()

	_, err := g.Merge(id0, id1)
	qt.Assert(t, qt.ErrorAs(err, new(*egraph.ConflictError[boolFact])))
	qt.Assert(t, qt.Equals(g.Version(), v))
	qt.Assert(t, qt.DeepEquals(g.Eclasses(), eclasses))
	qt.Assert(t, qt.Not(qt.Equals(g.Find(id0), g.Find(id1))))
}

// cycleFact is a trivial analysis domain (the defect under test is in
// Modify, not in the lattice), used by TestRebuildReportsModifyCycle.
type cycleFact struct{}

func (cycleFact) IsConflict() bool { return false }

// cycleAnalysis.Modify deliberately violates its documented idempotence
// contract: every time the root class settles, it adds a brand new
// literal e-node and merges it in, which dirties the root all over
// again. Modify only acts on the captured root (identified via Find, so
// it keeps tracking the root across merges) so the fresh literal
// e-nodes it creates don't themselves recurse into more Modify calls.
type cycleAnalysis struct {
	root egraph.Id
}

func (cycleAnalysis) Make(*egraph.EGraph[exprtree.Key, anyhash.ComparableHasher[exprtree.Key], cycleFact], egraph.ENode[exprtree.Key]) cycleFact {
	return cycleFact{}
}

func (cycleAnalysis) Join(a, b cycleFact) cycleFact { return a }

func (a cycleAnalysis) Modify(g *egraph.EGraph[exprtree.Key, anyhash.ComparableHasher[exprtree.Key], cycleFact], class egraph.Id) {
	if g.Find(class) != g.Find(a.root) {
		return
	}
	fresh := g.Add(exprtree.Lit(int64(g.NumClasses())))
	if _, err := g.Merge(class, fresh); err != nil {
		panic(err)
	}
}

// TestRebuildReportsModifyCycle exercises the non-idempotent-modify
// failure mode: Rebuild must not hang forever when an analysis's Modify
// keeps re-dirtying the class it just settled; it should instead report
// a *ModifyCycleError once the drain-round bound is exceeded.
func TestRebuildReportsModifyCycle(t *testing.T) {
	root := exprtree.Sym("a")

	// A single leaf's class id is assigned deterministically (the first
	// and only class a fresh e-graph creates for it), so building the
	// same one-node tree under a no-op analysis first gives the exact
	// id cycleAnalysis needs to track under the real one.
	probe := egraph.New[exprtree.Key, anyhash.ComparableHasher[exprtree.Key], struct{}](
		anyhash.ComparableHasher[exprtree.Key]{}, nil, root)
	rootID := probe.Root()

	g := egraph.New[exprtree.Key, anyhash.ComparableHasher[exprtree.Key], cycleFact](
		anyhash.ComparableHasher[exprtree.Key]{}, cycleAnalysis{root: rootID}, root)
	qt.Assert(t, qt.Equals(g.Root(), rootID))

	err := g.Rebuild()
	qt.Assert(t, qt.ErrorAs(err, new(*egraph.ModifyCycleError)))
}

func TestVersionWatchableAcrossGoroutines(t *testing.T) {
	g := newGraph(exprtree.Lit(0))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := int64(1); i <= 5; i++ {
			time.Sleep(time.Millisecond)
			g.Add(exprtree.Lit(i))
		}
	}()

	// IsSaturated/Version are documented as safe to poll from any
	// goroutine (spec §5); poller.WaitFor exercises exactly that by
	// waiting for Version to settle at its final value.
	final := poller.WaitFor(t, time.Second,
		func() (int, error) { return g.Version(), nil },
		func(v int) bool { return v >= 6 },
	)
	<-done
	qt.Assert(t, qt.Equals(final, g.Version()))
}
