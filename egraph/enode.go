package egraph

import (
	"hash/maphash"
	"slices"

	"github.com/rogpeppe/eqsat/anyhash"
)

// ENode is an immutable (operator, child-ids) record: a hash-consed
// e-node. Two ENode values are the same e-node iff they canonicalize to
// values equal under the egraph's key hasher and have pointwise-equal
// (post-canonicalization) Args.
type ENode[K any] struct {
	Key  K
	Args []Id
}

// Arity returns the number of children n has.
func (n ENode[K]) Arity() int {
	return len(n.Args)
}

// canonicalize returns n with every argument replaced by find(arg). n
// itself, and the host Key, are never touched: only Args are
// canonicalized (spec: "(key, args) → (key, [find(a) for a in args])").
func (n ENode[K]) canonicalize(find func(Id) Id) ENode[K] {
	args := make([]Id, len(n.Args))
	changed := false
	for i, a := range n.Args {
		c := find(a)
		args[i] = c
		if c != a {
			changed = true
		}
	}
	if !changed {
		return n
	}
	return ENode[K]{Key: n.Key, Args: args}
}

// isCanonical reports whether every argument of n is already canonical
// according to find.
func (n ENode[K]) isCanonical(find func(Id) Id) bool {
	for _, a := range n.Args {
		if find(a) != a {
			return false
		}
	}
	return true
}

// enodeHasher adapts a Hasher over the host key type K into a Hasher
// over whole ENode[K] values, for use as the hashcons table's key
// hasher. It composes the caller-supplied key hasher with positional
// hashing of the (comparable) Id arguments.
type enodeHasher[K any, H anyhash.Hasher[K]] struct {
	keyHasher H
}

func (h enodeHasher[K, H]) Hash(mh *maphash.Hash, n ENode[K]) {
	h.keyHasher.Hash(mh, n.Key)
	maphash.WriteComparable(mh, len(n.Args))
	for _, a := range n.Args {
		maphash.WriteComparable(mh, a)
	}
}

func (h enodeHasher[K, H]) Equal(a, b ENode[K]) bool {
	return h.keyHasher.Equal(a.Key, b.Key) && slices.Equal(a.Args, b.Args)
}
