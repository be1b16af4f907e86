// Package rewrite implements rewrite rules and the equality-saturation
// driver (spec §4.6): searching an e-graph for rule matches, applying
// them, and iterating to a fixed point.
package rewrite

import (
	"errors"
	"fmt"

	"github.com/rogpeppe/eqsat/anyhash"
	"github.com/rogpeppe/eqsat/egraph"
	"github.com/rogpeppe/eqsat/egraph/match"
)

// Searcher finds every place a rule could fire, read-only against the
// e-graph's current state.
type Searcher[K any, H anyhash.Hasher[K], D comparable] interface {
	Search(g *egraph.EGraph[K, H, D]) []match.Match[K]
}

// Rewriter applies a rule at one matched e-class, returning the
// e-class its right-hand side evaluates to (the caller then merges
// this with the matched root).
type Rewriter[K any, H anyhash.Hasher[K], D comparable] interface {
	ApplyToEclass(g *egraph.EGraph[K, H, D], eid egraph.Id, subst match.Subst[K]) (egraph.Id, error)
}

// Rule is the general searcher/rewriter pair a rewrite rule must
// implement; conditional and procedural rules fit the same interface
// as the default pattern-pair rule (spec §4.6).
type Rule[K any, H anyhash.Hasher[K], D comparable] interface {
	Searcher[K, H, D]
	Rewriter[K, H, D]
}

// PatternRule is the default rule: a pair of pattern trees. Search
// e-matches LHS; ApplyToEclass structurally substitutes the found
// bindings into RHS.
type PatternRule[K any, H anyhash.Hasher[K], D comparable] struct {
	LHS, RHS egraph.Tree[K]
}

func (r PatternRule[K, H, D]) Search(g *egraph.EGraph[K, H, D]) []match.Match[K] {
	return match.Ematch(g, r.LHS)
}

func (r PatternRule[K, H, D]) ApplyToEclass(g *egraph.EGraph[K, H, D], _ egraph.Id, subst match.Subst[K]) (egraph.Id, error) {
	return substitute(g, r.RHS, subst)
}

// errUnboundVar is returned by ApplyToEclass when a rule's right-hand
// side mentions a pattern variable the left-hand side never bound —
// a malformed rule, not an engine bug.
var errUnboundVar = errors.New("rewrite: right-hand side mentions an unbound pattern variable")

// errNoCheck is returned when a ConditionalRule with a nil Check is
// applied. The spec treats a missing predicate as a rule-authoring
// error rather than defaulting to "always true".
var errNoCheck = errors.New("rewrite: conditional rule has no Check predicate")

// substitute structurally rebuilds pat with every pattern-variable leaf
// replaced by its bound e-class, adding freshly substituted operator
// nodes along the way (spec §4.6: "subst is a structural recursion").
func substitute[K any, H anyhash.Hasher[K], D comparable](g *egraph.EGraph[K, H, D], pat egraph.Tree[K], subst match.Subst[K]) (egraph.Id, error) {
	if pat.IsPatternSymbol() {
		id, ok := subst.Get(pat.Value(), g.KeyEqual)
		if !ok {
			return egraph.Id{}, fmt.Errorf("%w", errUnboundVar)
		}
		return id, nil
	}
	children := pat.Children()
	args := make([]egraph.Id, len(children))
	for i, c := range children {
		id, err := substitute(g, c, subst)
		if err != nil {
			return egraph.Id{}, err
		}
		args[i] = id
	}
	return g.AddENode(egraph.ENode[K]{Key: pat.Value(), Args: args}), nil
}

// ConditionalRule wraps a Rule so that ApplyToEclass only actually
// fires Rule's rewrite when Check reports true; otherwise the match is
// a no-op (the matched root is returned unchanged, so the caller's
// merge with itself is a no-op too).
type ConditionalRule[K any, H anyhash.Hasher[K], D comparable] struct {
	Rule  Rule[K, H, D]
	Check func(g *egraph.EGraph[K, H, D], eid egraph.Id, subst match.Subst[K]) bool
}

func (r ConditionalRule[K, H, D]) Search(g *egraph.EGraph[K, H, D]) []match.Match[K] {
	return r.Rule.Search(g)
}

func (r ConditionalRule[K, H, D]) ApplyToEclass(g *egraph.EGraph[K, H, D], eid egraph.Id, subst match.Subst[K]) (egraph.Id, error) {
	if r.Check == nil {
		return egraph.Id{}, errNoCheck
	}
	if !r.Check(g, eid, subst) {
		return eid, nil
	}
	return r.Rule.ApplyToEclass(g, eid, subst)
}

// ApplyRules runs one equality-saturation iteration (spec §4.6
// apply_rules): it searches every rule against the pre-iteration
// e-graph, applies every match found (merging each matched root with
// its rewrite's result), then rebuilds to quiescence. It returns an
// error from the first rule application, analysis conflict, or rebuild
// failure it encounters; the e-graph may be left partially mutated in
// that case, matching "apply_rules is O(matches + merges + repairs)"
// rather than being itself transactional.
func ApplyRules[K any, H anyhash.Hasher[K], D comparable](g *egraph.EGraph[K, H, D], rules []Rule[K, H, D]) error {
	preVersion := g.Version()

	type batch struct {
		rule    Rule[K, H, D]
		matches []match.Match[K]
	}
	batches := make([]batch, len(rules))
	for i, r := range rules {
		batches[i] = batch{rule: r, matches: r.Search(g)}
	}

	for _, b := range batches {
		for _, m := range b.matches {
			newEid, err := b.rule.ApplyToEclass(g, m.Root, m.Subst)
			if err != nil {
				return err
			}
			if _, err := g.Merge(m.Root, newEid); err != nil {
				return err
			}
		}
	}

	if err := g.Rebuild(); err != nil {
		return err
	}
	g.MarkSaturationCheckpoint(preVersion)
	return nil
}

// Saturate repeatedly calls ApplyRules until the e-graph reports
// saturated, or until maxIterations iterations have run (0 means
// unbounded). It's the "while not egraph.is_saturated(): apply_rules(…)"
// loop from spec §4.6, with the iteration-count timeout spec §5 leaves
// as an external concern.
func Saturate[K any, H anyhash.Hasher[K], D comparable](g *egraph.EGraph[K, H, D], rules []Rule[K, H, D], maxIterations int) error {
	for i := 0; maxIterations == 0 || i < maxIterations; i++ {
		if g.IsSaturated() {
			return nil
		}
		if err := ApplyRules(g, rules); err != nil {
			return err
		}
	}
	return nil
}
