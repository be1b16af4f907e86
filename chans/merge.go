// Package chans implements the deterministic fan-in the e-matcher
// needs: combine several goroutines' per-shard match streams, each
// already ordered by root e-class id, back into one globally ordered
// stream, so Ematch's result doesn't depend on goroutine scheduling
// (spec §4.5).
package chans

import "github.com/rogpeppe/eqsat/heap"

// Merge returns a channel that receives all the values sent on cs,
// preserving the global order implied by less: cs must each already
// be ordered by less, and Merge performs a k-way merge across them.
func Merge[T any](cs []<-chan T, less func(T, T) bool) <-chan T {
	if len(cs) == 0 {
		return Closed[T]()
	}
	if len(cs) == 1 {
		return cs[0]
	}
	rc := make(chan T)
	go mergeOrdered(cs, less, rc)
	return rc
}

type heapEntry[T any] struct {
	x     T
	index int
}

func mergeOrdered[T any](cs []<-chan T, less func(T, T) bool, rc chan<- T) {
	defer close(rc)
	items := heap.New[heapEntry[T]](nil, func(e1, e2 heapEntry[T]) bool {
		return less(e1.x, e2.x)
	})
	for i, c := range cs {
		if x, ok := <-c; ok {
			items.Push(heapEntry[T]{
				x:     x,
				index: i,
			})
		} else {
			cs[i] = nil
		}
	}
	for items.Len() > 0 {
		item := items.Pop()
		rc <- item.x
		if x, ok := <-cs[item.index]; ok {
			items.Push(heapEntry[T]{
				x:     x,
				index: item.index,
			})
		}
	}
}

// Closed returns a closed channel with element type T.
func Closed[T any]() <-chan T {
	c := make(chan T)
	close(c)
	return c
}
