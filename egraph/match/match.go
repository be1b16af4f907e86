// Package match implements e-matching: searching an e-graph for all
// (root e-class, substitution) pairs at which a pattern tree matches,
// per spec §4.5.
package match

import (
	"slices"

	"github.com/rogpeppe/eqsat/anyhash"
	"github.com/rogpeppe/eqsat/chans"
	"github.com/rogpeppe/eqsat/egraph"
)

// binding is one variable→e-class entry in a Subst.
type binding[K any] struct {
	v  K
	id egraph.Id
}

// Subst maps pattern variables to e-class ids. The zero Subst is the
// empty substitution.
//
// Subst has value-copy semantics: Get never mutates the receiver and
// extend always allocates a fresh backing slice, so two substitutions
// that diverge after a common prefix (as happens constantly during
// backtracking) never alias each other's storage (spec §4.5:
// "substitutions must be value-copied when branching").
type Subst[K any] struct {
	bindings []binding[K]
}

// Get reports v's bound e-class, if any, comparing variable identity
// with equal (ordinarily the owning e-graph's KeyEqual).
func (s Subst[K]) Get(v K, equal func(K, K) bool) (egraph.Id, bool) {
	for _, b := range s.bindings {
		if equal(b.v, v) {
			return b.id, true
		}
	}
	return egraph.Id{}, false
}

// Vars returns the substitution's bound variables in binding order.
// Intended for callers (e.g. package rewrite) that need to walk every
// binding rather than look one up.
func (s Subst[K]) Vars() []K {
	vs := make([]K, len(s.bindings))
	for i, b := range s.bindings {
		vs[i] = b.v
	}
	return vs
}

func (s Subst[K]) extend(v K, id egraph.Id) Subst[K] {
	nb := make([]binding[K], len(s.bindings)+1)
	copy(nb, s.bindings)
	nb[len(s.bindings)] = binding[K]{v: v, id: id}
	return Subst[K]{bindings: nb}
}

// Match pairs a matched root e-class with the substitution that
// produced the match.
type Match[K any] struct {
	Root  egraph.Id
	Subst Subst[K]
}

// maxShards bounds how many goroutines a single Ematch call fans its
// per-class search across (spec §5: "implementations may parallelise
// the independent search").
const maxShards = 8

// Ematch returns every (root, subst) pair at which pat's root matches
// root, for pat expressed in the same Tree[K] language as host terms
// except that leaves for which IsPatternSymbol reports true are treated
// as pattern variables rather than concrete keys.
//
// The search is read-only: it only calls g.Eclasses and g.Find, and
// must not be interleaved with a Merge/Rebuild on the same e-graph.
// Matching a substitution to the same root twice (once per distinct
// e-node witness) is permitted and expected; callers (package rewrite)
// must tolerate the duplication (spec §4.5 contract).
//
// Work is sharded by contiguous ranges of canonical e-class ids across
// up to maxShards goroutines; each shard emits its matches in ascending
// root-id order on its own channel, and chans.Merge fans them back into
// one globally root-id-ordered stream, so Ematch's result is
// deterministic regardless of goroutine scheduling.
func Ematch[K any, H anyhash.Hasher[K], D comparable](g *egraph.EGraph[K, H, D], pat egraph.Tree[K]) []Match[K] {
	ids := canonicalIds(g)
	if len(ids) == 0 {
		return nil
	}

	shards := shardIds(ids, maxShards)
	chs := make([]<-chan Match[K], len(shards))
	for i, shard := range shards {
		c := make(chan Match[K])
		chs[i] = c
		go searchShard(g, pat, shard, c)
	}

	merged := chans.Merge(chs, func(a, b Match[K]) bool {
		return a.Root.Less(b.Root)
	})

	var out []Match[K]
	for m := range merged {
		out = append(out, m)
	}
	return out
}

func searchShard[K any, H anyhash.Hasher[K], D comparable](g *egraph.EGraph[K, H, D], pat egraph.Tree[K], shard []egraph.Id, c chan<- Match[K]) {
	defer close(c)
	for _, id := range shard {
		for _, env := range matchInEclass(g, pat, id, []Subst[K]{{}}) {
			c <- Match[K]{Root: id, Subst: env}
		}
	}
}

// matchInEclass is the recursive, backtracking core of e-matching
// (spec §4.5's match_in_eclass): it threads a set of candidate
// substitutions through a pattern subtree matched against a single
// e-class.
func matchInEclass[K any, H anyhash.Hasher[K], D comparable](g *egraph.EGraph[K, H, D], pat egraph.Tree[K], eid egraph.Id, envs []Subst[K]) []Subst[K] {
	eid = g.Find(eid)

	if pat.IsPatternSymbol() {
		v := pat.Value()
		out := make([]Subst[K], 0, len(envs))
		for _, env := range envs {
			if bound, ok := env.Get(v, g.KeyEqual); ok {
				if bound == eid {
					out = append(out, env)
				}
				continue
			}
			out = append(out, env.extend(v, eid))
		}
		return out
	}

	eclasses := g.Eclasses()
	var out []Subst[K]
	for _, n := range eclasses[eid] {
		out = append(out, enodeMatches(g, pat, n, envs)...)
	}
	return out
}

// enodeMatches is spec §4.5's enode_matches: it checks pat's operator
// and arity against a single e-node witness, then recurses pairwise
// into children, threading the accumulated substitution set.
func enodeMatches[K any, H anyhash.Hasher[K], D comparable](g *egraph.EGraph[K, H, D], pat egraph.Tree[K], n egraph.ENode[K], envs []Subst[K]) []Subst[K] {
	if !g.KeyEqual(pat.Value(), n.Key) {
		return nil
	}
	children := pat.Children()
	if len(children) != n.Arity() {
		return nil
	}

	cur := envs
	for i, pc := range children {
		cur = matchInEclass(g, pc, n.Args[i], cur)
		if len(cur) == 0 {
			return nil
		}
	}
	return cur
}

func canonicalIds[K any, H anyhash.Hasher[K], D comparable](g *egraph.EGraph[K, H, D]) []egraph.Id {
	eclasses := g.Eclasses()
	ids := make([]egraph.Id, 0, len(eclasses))
	for id := range eclasses {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, egraph.Id.Compare)
	return ids
}

// shardIds splits a sorted slice of ids into at most n contiguous,
// roughly equal shards (fewer than n if there aren't enough ids to go
// around), preserving order within each shard.
func shardIds(ids []egraph.Id, n int) [][]egraph.Id {
	if n > len(ids) {
		n = len(ids)
	}
	if n < 1 {
		n = 1
	}
	shards := make([][]egraph.Id, n)
	base, rem := len(ids)/n, len(ids)%n
	start := 0
	for i := range shards {
		size := base
		if i < rem {
			size++
		}
		shards[i] = ids[start : start+size]
		start += size
	}
	return shards
}
