package egraph

import (
	"strconv"

	"github.com/rogpeppe/eqsat/anyhash"
)

// Analysis computes a semilattice-valued fact for every e-class,
// maintained as a fixpoint alongside congruence (spec §4.4).
//
// D should be treated as an immutable value type; Join must be
// associative, commutative, idempotent and monotonic.
type Analysis[K any, H anyhash.Hasher[K], D comparable] interface {
	// Make computes the value for a freshly added e-node. Children's
	// data slots are already populated (children are always added
	// before their parents), so Make may read g.Data(arg) for each
	// arg in n.Args.
	Make(g *EGraph[K, H, D], n ENode[K]) D

	// Join computes the least upper bound of two facts for the same
	// class (one becoming the other's union-find parent). If the two
	// facts are concrete and incompatible, Join should return a value
	// whose IsConflict method (see [ConflictReporter]) reports true;
	// the engine will then surface a *[ConflictError] instead of
	// mutating anything.
	Join(a, b D) D

	// Modify runs after a class's data settles to a new value. It may
	// call g.Add/g.Merge to perform an opportunistic rewrite (e.g.
	// replacing a class with a folded constant), but must be
	// idempotent at the fixed point: calling it again with the same
	// data must not change anything further.
	Modify(g *EGraph[K, H, D], class Id)
}

// ConflictError is returned by Merge, and by Rebuild (which merges and
// re-joins while repairing), when an Analysis's Join is asked to
// combine two incompatible concrete facts for the same class. This signals a client bug in the analysis, not an engine bug.
type ConflictError[D any] struct {
	Class Id
	A, B  D
}

func (e *ConflictError[D]) Error() string {
	return "egraph: analysis conflict merging e-class " + e.Class.String()
}

// ConflictReporter is an optional interface an Analysis's domain type D
// may implement so that Join can signal an unresolvable conflict
// between two concrete facts without needing its own error return (the
// engine checks for it via a type assertion after every Join call).
type ConflictReporter interface {
	IsConflict() bool
}

// ModifyCycleError is returned by Rebuild when the worklist fails to
// drain within a bound proportional to the number of e-classes. The
// only way Rebuild can fail to converge is a non-idempotent Analysis.Modify
// that keeps re-dirtying classes it just settled, violating the
// idempotence Modify's doc comment requires; this is a contract
// violation in the supplied analysis, not a transient condition, so
// callers should treat it as fatal rather than retry.
type ModifyCycleError struct {
	Rounds int
}

func (e *ModifyCycleError) Error() string {
	return "egraph: analysis modify did not converge after " + strconv.Itoa(e.Rounds) + " rebuild rounds"
}
