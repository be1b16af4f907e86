package egraph

import "fmt"

// Id identifies an e-class. The zero Id is never issued by an [EGraph];
// it's reserved so the zero value of Id can be used as a sentinel.
//
// Ids are comparable and totally ordered by their numeric value, which
// is required for deterministic tie-breaking during union and for
// deterministic iteration order.
type Id struct {
	n uint32
}

// invalidId is returned by lookups that find nothing.
var invalidId = Id{}

func idFromIndex(i int) Id {
	return Id{n: uint32(i) + 1}
}

func (id Id) index() int {
	return int(id.n) - 1
}

// IsValid reports whether id was actually issued by an EGraph, as
// opposed to being a zero Id.
func (id Id) IsValid() bool {
	return id.n != 0
}

// Equal reports whether id and other are the same e-class id. It lets
// id.Id be compared by value (e.g. via go-cmp/qt.DeepEquals) without
// reaching into its unexported field.
func (id Id) Equal(other Id) bool {
	return id == other
}

// Less reports whether id is ordered before other. The ordering is by
// creation order: ids are assigned in monotonically increasing order as
// e-classes are created.
func (id Id) Less(other Id) bool {
	return id.n < other.n
}

// Compare returns -1, 0 or +1 according to whether id is less than, equal
// to, or greater than other.
func (id Id) Compare(other Id) int {
	switch {
	case id.n < other.n:
		return -1
	case id.n > other.n:
		return 1
	default:
		return 0
	}
}

func (id Id) String() string {
	if !id.IsValid() {
		return "<invalid-id>"
	}
	return fmt.Sprintf("e%d", id.n)
}
