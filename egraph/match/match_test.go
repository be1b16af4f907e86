package match_test

import (
	"sort"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/rogpeppe/eqsat/anyhash"
	"github.com/rogpeppe/eqsat/egraph"
	"github.com/rogpeppe/eqsat/egraph/match"
	"github.com/rogpeppe/eqsat/internal/exprtree"
)

type hasher = anyhash.ComparableHasher[exprtree.Key]

func newGraph(t egraph.Tree[exprtree.Key]) *egraph.EGraph[exprtree.Key, hasher, struct{}] {
	return egraph.New[exprtree.Key, hasher, struct{}](hasher{}, nil, t)
}

func TestEmatchLiteralPattern(t *testing.T) {
	// (+ a 1) and (+ b 1); pattern (+ x 1) should match both roots,
	// each binding x to the respective addend's class.
	a, b, one := exprtree.Sym("a"), exprtree.Sym("b"), exprtree.Lit(1)
	lhs1 := exprtree.App("+", a, one)
	g := newGraph(lhs1)
	idLhs1 := g.Root()
	idLhs2 := g.Add(exprtree.App("+", b, one))

	pat := exprtree.App("+", exprtree.PatSym("x"), exprtree.Lit(1))
	matches := match.Ematch(g, pat)

	qt.Assert(t, qt.Equals(len(matches), 2))
	roots := []egraph.Id{matches[0].Root, matches[1].Root}
	sort.Slice(roots, func(i, j int) bool { return roots[i].Less(roots[j]) })
	want := []egraph.Id{idLhs1, idLhs2}
	sort.Slice(want, func(i, j int) bool { return want[i].Less(want[j]) })
	qt.Assert(t, qt.DeepEquals(roots, want))

	for _, m := range matches {
		xClass, ok := m.Subst.Get(exprtree.OpKey("x"), g.KeyEqual)
		qt.Assert(t, qt.IsTrue(ok))
		if m.Root == idLhs1 {
			qt.Assert(t, qt.Equals(xClass, g.Find(g.Add(a))))
		} else {
			qt.Assert(t, qt.Equals(xClass, g.Find(g.Add(b))))
		}
	}
}

func TestEmatchArityMismatchYieldsNoMatches(t *testing.T) {
	term := exprtree.App("+", exprtree.Lit(1), exprtree.Lit(2))
	g := newGraph(term)

	// Pattern has the right operator but wrong arity: must yield no
	// matches, not an error (spec §7 error kind 3).
	pat := exprtree.App("+", exprtree.PatSym("x"))
	matches := match.Ematch(g, pat)
	qt.Assert(t, qt.Equals(len(matches), 0))
}

func TestEmatchSameVariableMustAgree(t *testing.T) {
	// (f a a): pattern (f x x) matches; (f a b) doesn't, since x can't
	// be bound to two different classes.
	a, b := exprtree.Sym("a"), exprtree.Sym("b")
	faa := exprtree.App("f", a, a)
	g := newGraph(faa)
	idFaa := g.Root()
	g.Add(exprtree.App("f", a, b))

	pat := exprtree.App("f", exprtree.PatSym("x"), exprtree.PatSym("x"))
	matches := match.Ematch(g, pat)

	qt.Assert(t, qt.Equals(len(matches), 1))
	qt.Assert(t, qt.Equals(matches[0].Root, idFaa))
}
