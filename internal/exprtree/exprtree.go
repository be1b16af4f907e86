// Package exprtree is a small host-language Tree implementation used
// across the egraph test suites (spec §8.3's worked scenarios): an
// arithmetic language (+ - * / << >>) and a propositional language
// (~ & | ->) share the same representation, since both are just
// operators over a leaf alphabet of integer literals and named atoms.
package exprtree

import (
	"strconv"

	"github.com/rogpeppe/eqsat/egraph"
)

// Key is the host key type: either an integer literal or a named
// operator/atom/pattern-variable token. It's plain Go-comparable, so
// anyhash.ComparableHasher[Key] suffices as its Hasher — no custom
// hashing is needed for this host language.
type Key struct {
	IsInt bool
	Op    string
	N     int64
}

// OpKey constructs a named-token key (an operator or an atom/variable
// name, depending on the Node that wraps it).
func OpKey(op string) Key { return Key{Op: op} }

// IntKey constructs an integer-literal key.
func IntKey(n int64) Key { return Key{IsInt: true, N: n} }

func (k Key) String() string {
	if k.IsInt {
		return strconv.FormatInt(k.N, 10)
	}
	return k.Op
}

// Node is a concrete term or pattern tree node. Pattern-symbol status
// lives on the Node, not the Key (spec §6: "pattern-symbol detection
// ... comes from the Tree abstraction"), so the same atom name can
// appear as a concrete leaf in a host term and as a pattern variable
// in a rule's left-hand side.
type Node struct {
	Key    Key
	Kids   []Node
	PatVar bool
}

func (n Node) Value() Key { return n.Key }

func (n Node) Children() []egraph.Tree[Key] {
	if len(n.Kids) == 0 {
		return nil
	}
	out := make([]egraph.Tree[Key], len(n.Kids))
	for i := range n.Kids {
		out[i] = n.Kids[i]
	}
	return out
}

func (n Node) IsPatternSymbol() bool { return n.PatVar }

// Lit is an integer-literal leaf.
func Lit(n int64) Node { return Node{Key: IntKey(n)} }

// Sym is a concrete named leaf (e.g. a variable in a host term, or an
// atom in the propositional language) — not a pattern variable.
func Sym(name string) Node { return Node{Key: OpKey(name)} }

// PatSym is a pattern-variable leaf, for use in a rule's pattern trees.
func PatSym(name string) Node { return Node{Key: OpKey(name), PatVar: true} }

// App builds an interior node applying op to kids, in order.
func App(op string, kids ...Node) Node { return Node{Key: OpKey(op), Kids: kids} }

// Build is an egraph.NodeBuilder for Node, the coupling the extractor
// (package extract) uses to reassemble a concrete term.
func Build(key Key, children []Node) Node {
	if len(children) == 0 {
		// Leaves carry nil Kids, as Lit and Sym build them.
		children = nil
	}
	return Node{Key: key, Kids: children}
}

// OpCost is an extract.CostModel[Key] driven by a per-operator cost
// table; operators absent from the table default to cost 1, and
// integer/atom leaves always cost 0.
type OpCost map[string]float64

func (c OpCost) Cost(n egraph.ENode[Key]) float64 {
	if n.Key.IsInt {
		return 0
	}
	if n.Arity() == 0 {
		return 0
	}
	if k, ok := c[n.Key.Op]; ok {
		return k
	}
	return 1
}

// IntOps implements analysis.IntOps[Key] for the constant-folding
// analysis, grounded on the original ExprConstantFolding.make's binop
// dispatch (+ - * / << >>), including its floor (not truncating)
// integer division and its guard against negative shift amounts.
type IntOps struct{}

func (IntOps) IntValue(k Key) (int64, bool) {
	if k.IsInt {
		return k.N, true
	}
	return 0, false
}

func (IntOps) MakeInt(n int64) Key { return IntKey(n) }

func (IntOps) Fold(k Key, a, b int64) (int64, bool) {
	if k.IsInt {
		return 0, false
	}
	switch k.Op {
	case "+":
		return a + b, true
	case "-":
		return a - b, true
	case "*":
		return a * b, true
	case "/":
		if b == 0 {
			return 0, false
		}
		q := a / b
		if a%b != 0 && (a < 0) != (b < 0) {
			q--
		}
		return q, true
	case "<<":
		if b < 0 {
			return 0, false
		}
		return a << uint(b), true
	case ">>":
		if b < 0 {
			return 0, false
		}
		return a >> uint(b), true
	}
	return 0, false
}
