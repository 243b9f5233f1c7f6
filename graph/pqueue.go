package graph

import "container/heap"

// priorityQueue is a min-queue of vertices keyed by int64 priorities. Entries
// with equal keys are popped in unspecified order; callers needing stable
// results fold a tie-breaker into the key.
type priorityQueue struct {
	items pqItems
}

type pqItem struct {
	key int64
	idx ObjIdx
}

type pqItems []pqItem

func (q pqItems) Len() int           { return len(q) }
func (q pqItems) Less(i, j int) bool { return q[i].key < q[j].key }
func (q pqItems) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *pqItems) Push(x any)        { *q = append(*q, x.(pqItem)) }
func (q *pqItems) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

func (pq *priorityQueue) insert(key int64, idx ObjIdx) {
	heap.Push(&pq.items, pqItem{key: key, idx: idx})
}

func (pq *priorityQueue) pop() (int64, ObjIdx) {
	it := heap.Pop(&pq.items).(pqItem)
	return it.key, it.idx
}

func (pq *priorityQueue) empty() bool {
	return len(pq.items) == 0
}

func (pq *priorityQueue) reset() {
	pq.items = pq.items[:0]
}
