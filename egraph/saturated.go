package egraph

import "github.com/rogpeppe/eqsat/gatomic"

// saturated is stored as a plain int32 read and written exclusively
// through gatomic, so IsSaturated can be polled from any goroutine
// without taking the version watcher's mutex, even though the owning
// actor that drives add/merge/rebuild is itself single-threaded (spec
// §5: external callers only ever read is_saturated/version).
func loadSaturated(p *int32) int32 {
	return gatomic.LoadInt32(p)
}

func storeSaturated(p *int32, v int32) {
	gatomic.StoreInt32(p, v)
}
