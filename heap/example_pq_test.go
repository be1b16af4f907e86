// Copyright 2012 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This example demonstrates a priority queue built using the Heap type.
package heap_test

import (
	"fmt"

	"github.com/rogpeppe/eqsat/heap"
)

// An Item is something we manage in a priority queue.
type Item struct {
	value    string // The value of the item; arbitrary.
	priority int    // The priority of the item in the queue.
}

func (i *Item) less(j *Item) bool {
	// We want Pop to give us the highest, not lowest, priority so we use greater than here.
	return i.priority > j.priority
}

// This example creates a PriorityQueue with some items and removes
// them in priority order.
func Example_priorityQueue() {
	itemsMap := map[string]int{
		"banana": 3,
		"apple":  2,
		"pear":   4,
	}

	items := make([]*Item, 0, len(itemsMap))
	for value, priority := range itemsMap {
		items = append(items, &Item{value: value, priority: priority})
	}
	pq := heap.New(items, (*Item).less)

	pq.Push(&Item{value: "orange", priority: 5})

	for pq.Len() > 0 {
		item := pq.Pop()
		fmt.Printf("%.2d:%s ", item.priority, item.value)
	}
	// Output:
	// 05:orange 04:pear 03:banana 02:apple
}
