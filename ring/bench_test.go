package ring

import "testing"

func BenchmarkQueueOneItem(b *testing.B) {
	var buf Buffer[int]
	for range b.N {
		buf.PushEnd(2)
		buf.PopStart()
	}
}

func BenchmarkSliceQueueOneItem(b *testing.B) {
	var buf []int
	for range b.N {
		buf = append(buf, 2)
		buf = buf[1:]
	}
}
