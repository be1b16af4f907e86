// Package analysis collects e-class analyses (spec §4.4) built in terms
// of the core egraph package rather than tied to one host language.
package analysis

import (
	"fmt"

	"github.com/rogpeppe/eqsat/anyhash"
	"github.com/rogpeppe/eqsat/egraph"
	"github.com/rogpeppe/eqsat/merge"
)

// IntOps is the small capability set ConstantFold needs from a host key
// type to recognize integer literals and fold supported binary
// operators over them. A host package (e.g. internal/exprtree) supplies
// a concrete implementation; ConstantFold itself never assumes anything
// about K beyond this.
type IntOps[K any] interface {
	// IntValue reports k's integer value, if k is an integer literal.
	IntValue(k K) (int64, bool)
	// MakeInt constructs the literal key for n.
	MakeInt(n int64) K
	// Fold evaluates the binary operator k over operands a, b, if k
	// names a supported operator and the operands are in its domain
	// (e.g. division requires a nonzero divisor).
	Fold(k K, a, b int64) (int64, bool)
}

// Fact is the constant-folding analysis domain: either "unknown"
// (HasValue false, the bottom element) or a concrete folded integer.
// Two concrete Facts with different Values are an unresolvable
// conflict (spec §4.4 failure mode), surfaced via [egraph.ConflictReporter].
type Fact struct {
	Value    int64
	HasValue bool
	conflict bool
}

// IsConflict implements [egraph.ConflictReporter].
func (f Fact) IsConflict() bool {
	return f.conflict
}

// ConstantFold is the built-in analysis that evaluates integer literals
// and folds binary operators over already-concrete operands, replacing
// a class with its literal value once it settles (spec §8.3 scenario
// 3), grounded on the original implementation's ExprConstantFolding:
// make returns the literal for an int key or folds a binop when both
// operands are concrete, join takes whichever side is concrete (or
// flags a conflict when both are concrete and differ), and modify adds
// the folded literal as a fresh e-node and merges it into the class.
type ConstantFold[K any, H anyhash.Hasher[K]] struct {
	Ops IntOps[K]
}

func (c ConstantFold[K, H]) Make(g *egraph.EGraph[K, H, Fact], n egraph.ENode[K]) Fact {
	if v, ok := c.Ops.IntValue(n.Key); ok {
		return Fact{Value: v, HasValue: true}
	}
	if n.Arity() != 2 {
		return Fact{}
	}
	a, b := g.Data(n.Args[0]), g.Data(n.Args[1])
	if !a.HasValue || !b.HasValue {
		return Fact{}
	}
	v, ok := c.Ops.Fold(n.Key, a.Value, b.Value)
	if !ok {
		return Fact{}
	}
	return Fact{Value: v, HasValue: true}
}

// Join is the bottom/fact semilattice: an unknown side yields to a
// concrete one (via merge.Join's "whichever side has a value wins"
// combinator), and two concrete sides must agree.
func (c ConstantFold[K, H]) Join(a, b Fact) Fact {
	if a.HasValue && b.HasValue && a.Value != b.Value {
		return Fact{conflict: true}
	}
	return Fact{
		Value:    merge.Join(a.Value, a.HasValue, b.Value, b.HasValue),
		HasValue: a.HasValue || b.HasValue,
	}
}

func (c ConstantFold[K, H]) Modify(g *egraph.EGraph[K, H, Fact], class egraph.Id) {
	d := g.Data(class)
	if !d.HasValue {
		return
	}
	id := g.AddENode(egraph.ENode[K]{Key: c.Ops.MakeInt(d.Value)})
	if _, err := g.Merge(class, id); err != nil {
		// Make always reports id's own data as {d.Value, true}, so
		// joining it against class's current (already {d.Value, true})
		// data can never disagree; a conflict here means Modify was
		// called on a class whose data wasn't actually settled yet.
		panic(fmt.Sprintf("analysis: constant-fold invariant broken: %v", err))
	}
}
