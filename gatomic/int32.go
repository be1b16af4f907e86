// Package gatomic wraps the sync/atomic int32 primitives the engine
// needs to let a flag set by the single-threaded owning actor (spec
// §5) be polled safely from any other goroutine, without pulling in
// the full generic-pointer atomic surface the teacher package exposed.
package gatomic

import "sync/atomic"

// LoadInt32 atomically loads *x.
func LoadInt32(x *int32) int32 {
	return atomic.LoadInt32(x)
}

// StoreInt32 atomically stores v into *x.
func StoreInt32(x *int32, v int32) {
	atomic.StoreInt32(x, v)
}
