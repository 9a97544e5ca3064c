// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package mapper

type pqItem struct {
	value    int
	priority float64
	index    int
}

// A priorityQueue implements heap.Interface and holds pqItems. Pqids
// maps values back to heap positions for decrease-key updates.
type priorityQueue struct {
	Items []*pqItem
	Pqids []int
}

func newPriorityQueue(n int) *priorityQueue {
	pq := &priorityQueue{
		Items: make([]*pqItem, 0, n),
		Pqids: make([]int, n),
	}
	for i := range pq.Pqids {
		pq.Pqids[i] = -1
	}
	return pq
}

func (pq priorityQueue) Len() int { return len(pq.Items) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq.Items[i].priority < pq.Items[j].priority
}

func (pq priorityQueue) Swap(i, j int) {
	pq.Items[i], pq.Items[j] = pq.Items[j], pq.Items[i]
	pq.Items[i].index = i
	pq.Items[j].index = j
	pq.Pqids[pq.Items[i].value] = i
	pq.Pqids[pq.Items[j].value] = j
}

func (pq *priorityQueue) Push(x interface{}) {
	n := len(pq.Items)
	item := x.(*pqItem)
	item.index = n
	pq.Items = append(pq.Items, item)
	pq.Pqids[item.value] = n
}

func (pq *priorityQueue) Pop() interface{} {
	old := pq.Items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	pq.Items = old[0 : n-1]
	pq.Pqids[item.value] = -1
	return item
}
