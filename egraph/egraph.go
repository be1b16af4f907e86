// Package egraph implements a hash-consed, congruence-closed e-graph:
// e-nodes, e-classes glued together by a union-find, deferred
// congruence repair ("rebuild"), and an optional e-class analysis
// framework. It is generic over a host Tree abstraction (see Tree) and
// never inspects host-specific structure.
package egraph

import (
	"fmt"
	"slices"

	"github.com/rogpeppe/eqsat/anyhash"
	"github.com/rogpeppe/eqsat/ring"
	"github.com/rogpeppe/eqsat/tuple"
	"github.com/rogpeppe/eqsat/watcher"
)

// classInfo holds the mutable per-e-class state: the union-find parent
// link, the reverse "uses" index of parents that mention this class as
// an argument, and (if an analysis is installed) the class's analysis
// data. uses and data are meaningful only while the class is canonical;
// they're folded into the winner's on union.
type classInfo[K, D any] struct {
	parent Id
	uses   []tuple.T2[ENode[K], Id]
	data   D
}

// EGraph is an e-graph over e-nodes with host-language keys of type K.
// H is the Hasher used to hash and compare keys (see package anyhash);
// D is the value domain of the optional installed [Analysis] (use
// struct{} if no analysis is installed).
type EGraph[K any, H anyhash.Hasher[K], D comparable] struct {
	keyHasher H
	hashcons  *anyhash.Map[ENode[K], Id, enodeHasher[K, H]]
	classes   []classInfo[K, D]
	analysis  Analysis[K, H, D]

	worklist *ring.Buffer[Id]
	version  *watcher.Value[int]
	saturated int32

	root Id

	cacheVersion  int
	cacheEclasses map[Id][]ENode[K]
}

// New returns a new empty e-graph, or, if tree is non-nil, an e-graph
// seeded with tree added as its root (see Root). keyHasher supplies the
// hash/equality relation over host keys K; analysis may be nil to run
// without an e-class analysis.
func New[K any, H anyhash.Hasher[K], D comparable](keyHasher H, analysis Analysis[K, H, D], tree Tree[K]) *EGraph[K, H, D] {
	g := &EGraph[K, H, D]{
		keyHasher: keyHasher,
		analysis:  analysis,
		worklist:  ring.NewBuffer[Id](0),
		version:   watcher.NewValue(0),
	}
	g.hashcons = anyhash.NewMap[ENode[K], Id, enodeHasher[K, H]](enodeHasher[K, H]{keyHasher: keyHasher})
	if tree != nil {
		g.root = g.Add(tree)
	}
	return g
}

// Root returns the e-class of the term originally passed to New, with
// find applied so it stays valid across merges.
func (g *EGraph[K, H, D]) Root() Id {
	return g.Find(g.root)
}

// Version returns the monotonic counter that is incremented by every
// structural change (new e-class, new e-node, or a union that actually
// changed find). It never decreases and never bumps on a no-op.
func (g *EGraph[K, H, D]) Version() int {
	return g.version.Get()
}

// WatchVersion returns a watcher that blocks on Next until Version next
// changes, letting an external caller observe saturation progress
// instead of busy-polling IsSaturated.
func (g *EGraph[K, H, D]) WatchVersion() *watcher.Watcher[int] {
	return g.version.Watch()
}

// IsSaturated reports whether the most recent Rebuild detected no
// structural change relative to the search+apply batch that preceded
// it. Safe to call from any goroutine.
func (g *EGraph[K, H, D]) IsSaturated() bool {
	return loadSaturated(&g.saturated) != 0
}

func (g *EGraph[K, H, D]) bumpVersion() {
	g.version.Set(g.version.Get() + 1)
	storeSaturated(&g.saturated, 0)
}

// MarkSaturationCheckpoint re-clears the saturated flag if Version has
// moved on from preVersion. It is the coupling point for a saturation
// driver (package rewrite's ApplyRules): Rebuild always leaves
// saturated set once it quiesces, but a driver's one iteration spans
// search+merge+rebuild, and the flag must reflect whether *that whole
// iteration* changed anything, not just whether the final Rebuild call
// was itself a no-op (spec §4.6 step 5: "if version ≠ pre_version,
// clear saturated; otherwise leave it set").
func (g *EGraph[K, H, D]) MarkSaturationCheckpoint(preVersion int) {
	if g.Version() != preVersion {
		g.setSaturated(false)
	}
}

func (g *EGraph[K, H, D]) setSaturated(v bool) {
	var i int32
	if v {
		i = 1
	}
	storeSaturated(&g.saturated, i)
}

// Find returns the canonical id for id, compressing the union-find path
// as it goes. Find is idempotent: Find(Find(id)) == Find(id).
func (g *EGraph[K, H, D]) Find(id Id) Id {
	root := id
	for {
		p := g.classes[root.index()].parent
		if p == root {
			break
		}
		root = p
	}
	for id != root {
		next := g.classes[id.index()].parent
		g.classes[id.index()].parent = root
		id = next
	}
	return root
}

// union merges the classes rooted at a and b (precondition: a != b, and
// both already canonical) and returns the surviving root. The smaller
// numeric id always wins, a deterministic tie-break required for
// reproducible test fixtures and union-find determinism in general.
func (g *EGraph[K, H, D]) union(a, b Id) Id {
	winner, loser := a, b
	if b.Less(a) {
		winner, loser = b, a
	}
	g.classes[loser.index()].parent = winner
	g.classes[winner.index()].uses = append(g.classes[winner.index()].uses, g.classes[loser.index()].uses...)
	g.classes[loser.index()].uses = nil
	return winner
}

func (g *EGraph[K, H, D]) newClass() Id {
	id := idFromIndex(len(g.classes))
	g.classes = append(g.classes, classInfo[K, D]{parent: id})
	return id
}

// KeyEqual reports whether a and b are the same host key under the
// e-graph's installed key hasher. Exported so other packages (e.g.
// match) can compare pattern-variable identity without needing their
// own copy of H.
func (g *EGraph[K, H, D]) KeyEqual(a, b K) bool {
	return g.keyHasher.Equal(a, b)
}

// NumClasses returns the number of e-classes ever created, including
// ones since merged away (i.e. the valid range of Id.index is
// [0, NumClasses)). Used by callers that need to iterate all live
// canonical classes, such as the e-matcher's per-class search.
func (g *EGraph[K, H, D]) NumClasses() int {
	return len(g.classes)
}

// Data returns the current analysis data for id's class (resolved
// through Find). It returns the zero D if no analysis is installed.
func (g *EGraph[K, H, D]) Data(id Id) D {
	return g.classes[g.Find(id).index()].data
}

func (g *EGraph[K, H, D]) setData(id Id, d D) {
	g.classes[id.index()].data = d
}

// Add recursively adds tree (and all its subtrees) to the e-graph,
// returning the canonical e-class id of the root.
func (g *EGraph[K, H, D]) Add(t Tree[K]) Id {
	children := t.Children()
	args := make([]Id, len(children))
	for i, c := range children {
		args[i] = g.Add(c)
	}
	return g.AddENode(ENode[K]{Key: t.Value(), Args: args})
}

// AddENode adds a single e-node (whose Args must already be valid ids in
// this e-graph), returning the canonical id of its e-class. If an
// e-node congruent to n already exists, no new class is created and its
// existing (canonical) id is returned.
func (g *EGraph[K, H, D]) AddENode(n ENode[K]) Id {
	n = n.canonicalize(g.Find)
	if _, id, ok := g.hashcons.Get(n); ok {
		return g.Find(id)
	}

	id := g.newClass()
	g.hashcons.Set(n, id)
	for _, a := range n.Args {
		ac := g.Find(a)
		g.classes[ac.index()].uses = append(g.classes[ac.index()].uses, tuple.MkT2(n, id))
	}
	g.bumpVersion()

	if g.analysis != nil {
		g.setData(id, g.analysis.Make(g, n))
		g.analysis.Modify(g, id)
	}
	return g.Find(id)
}

// Merge unifies the classes of a and b, if they aren't already the
// same, and returns the (possibly new) canonical id. If installing an
// analysis and the two classes' facts are concrete and incompatible,
// Merge performs no mutation at all and returns a *ConflictError: the
// e-graph is left exactly as it was before the call.
func (g *EGraph[K, H, D]) Merge(a, b Id) (Id, error) {
	ea, eb := g.Find(a), g.Find(b)
	if ea == eb {
		return ea, nil
	}

	var joined D
	if g.analysis != nil {
		da, db := g.classes[ea.index()].data, g.classes[eb.index()].data
		var err error
		joined, err = g.joinChecked(ea, da, db)
		if err != nil {
			return invalidId, err
		}
	}

	g.bumpVersion()
	winner := g.union(ea, eb)
	g.worklist.PushEnd(winner)
	if g.analysis != nil {
		g.setData(winner, joined)
	}
	return winner, nil
}

// joinChecked calls the installed analysis's Join and, if the joined
// value reports itself as an unresolvable conflict (see
// [ConflictReporter]), returns a *ConflictError instead.
func (g *EGraph[K, H, D]) joinChecked(class Id, a, b D) (D, error) {
	joined := g.analysis.Join(a, b)
	if cr, ok := any(joined).(ConflictReporter); ok && cr.IsConflict() {
		return joined, &ConflictError[D]{Class: class, A: a, B: b}
	}
	return joined, nil
}

// Eclasses returns a snapshot view mapping every canonical e-class id to
// its member e-nodes. The snapshot is cached and invalidated whenever
// Version changes (cache-coherence invariant), so repeated calls between
// mutations are cheap.
func (g *EGraph[K, H, D]) Eclasses() map[Id][]ENode[K] {
	v := g.Version()
	if g.cacheEclasses != nil && g.cacheVersion == v {
		return g.cacheEclasses
	}
	m := make(map[Id][]ENode[K])
	for n, id := range g.hashcons.All() {
		c := g.Find(id)
		m[c] = append(m[c], n)
	}
	g.cacheEclasses = m
	g.cacheVersion = v
	return m
}

// rebuildRoundBound caps the number of drain-and-repair rounds Rebuild
// will attempt before concluding the worklist can never quiesce. A
// well-behaved (idempotent) Analysis.Modify settles every class in at
// most one round per e-class generation; this is a generous multiple
// of the class count, not a tight estimate, so it never trips for a
// correct analysis.
const rebuildRoundBound = 64

// Rebuild drains the worklist, repairing congruence for every e-class
// that may have been affected by a merge, until quiescent. It must be
// called after a batch of Merge calls to restore the canonical-id and
// hashcons-congruence invariants (spec §3.4).
//
// If an installed analysis's Modify is non-idempotent, it can keep
// re-dirtying classes it just settled, so the worklist never empties;
// Rebuild bounds the number of drain rounds against the class count and
// reports a *ModifyCycleError rather than looping forever.
func (g *EGraph[K, H, D]) Rebuild() error {
	bound := rebuildRoundBound * (len(g.classes) + 1)
	rounds := 0
	for g.worklist.Len() > 0 {
		rounds++
		if rounds > bound {
			return &ModifyCycleError{Rounds: rounds}
		}
		todo := g.drainWorklist()
		for _, c := range todo {
			if err := g.repair(c); err != nil {
				return err
			}
		}
	}
	g.setSaturated(true)
	return nil
}

// drainWorklist empties the worklist into a deduplicated, sorted slice
// of canonical ids, giving deterministic repair order.
func (g *EGraph[K, H, D]) drainWorklist() []Id {
	seen := make(map[Id]struct{})
	for g.worklist.Len() > 0 {
		seen[g.Find(g.worklist.PopStart())] = struct{}{}
	}
	todo := make([]Id, 0, len(seen))
	for id := range seen {
		todo = append(todo, id)
	}
	slices.SortFunc(todo, Id.Compare)
	return todo
}

// repair restores the hashcons and uses-list invariants for the single
// class c, detecting and resolving any congruence collapses among c's
// former parents, and reconverges the installed analysis (if any) for
// every affected parent.
//
// If c is not canonical, repair is a no-op: the canonical root will be
// repaired on its own worklist entry (spec §9 open question).
func (g *EGraph[K, H, D]) repair(c Id) error {
	if g.Find(c) != c {
		return nil
	}

	uses := g.classes[c.index()].uses
	g.classes[c.index()].uses = nil

	seen := anyhash.NewMap[ENode[K], Id, enodeHasher[K, H]](enodeHasher[K, H]{keyHasher: g.keyHasher})
	newUses := make([]tuple.T2[ENode[K], Id], 0, len(uses))
	for _, u := range uses {
		enode, owner := u.T()
		g.hashcons.Delete(enode)
		canon := enode.canonicalize(g.Find)
		ownerCanon := g.Find(owner)
		g.hashcons.Set(canon, ownerCanon)

		if _, existingOwner, ok := seen.Get(canon); ok {
			if g.Find(existingOwner) != g.Find(ownerCanon) {
				if _, err := g.Merge(existingOwner, ownerCanon); err != nil {
					return err
				}
			}
		} else {
			seen.Set(canon, ownerCanon)
		}
		newUses = append(newUses, tuple.MkT2(canon, g.Find(ownerCanon)))
	}
	g.classes[c.index()].uses = append(g.classes[c.index()].uses, newUses...)

	if g.analysis == nil {
		return nil
	}
	g.analysis.Modify(g, c)

	for _, u := range g.classes[c.index()].uses {
		enode, owner := u.T()
		ownerCanon := g.Find(owner)
		made := g.analysis.Make(g, enode)
		newData, err := g.joinChecked(ownerCanon, g.classes[ownerCanon.index()].data, made)
		if err != nil {
			return err
		}
		if newData != g.classes[ownerCanon.index()].data {
			g.setData(ownerCanon, newData)
			g.worklist.PushEnd(ownerCanon)
		}
	}
	return nil
}

// String is for debugging only; it isn't part of the engine's
// contractual interface.
func (g *EGraph[K, H, D]) String() string {
	return fmt.Sprintf("egraph{classes=%d, version=%d, saturated=%v}", len(g.classes), g.Version(), g.IsSaturated())
}
