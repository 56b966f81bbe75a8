package decimate

import (
	"container/heap"
	stdmath "math"

	"github.com/ttzck/gm-meshproc/pkg/mesh"
)

// collapseNode is a halfedge collapse candidate in the queue.
type collapseNode struct {
	H     mesh.Halfedge
	Cost  float64
	Index int // position in the heap, -1 when not queued
}

// collapseHeap orders candidates by cost, then by halfedge handle so that
// equal costs resolve in enumeration order.
type collapseHeap []*collapseNode

func (h collapseHeap) Len() int { return len(h) }
func (h collapseHeap) Less(i, j int) bool {
	if h[i].Cost != h[j].Cost {
		return h[i].Cost < h[j].Cost
	}
	return h[i].H < h[j].H
}
func (h collapseHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].Index = i
	h[j].Index = j
}

func (h *collapseHeap) Push(x interface{}) {
	n := len(*h)
	node := x.(*collapseNode)
	node.Index = n
	*h = append(*h, node)
}

func (h *collapseHeap) Pop() interface{} {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.Index = -1
	*h = old[0 : n-1]
	return node
}

// collapseQueue is an indexed min-heap of halfedges keyed by collapse cost.
// Every halfedge slot owns one node, so costs can be looked up and changed
// in place.
type collapseQueue struct {
	nodes []collapseNode
	heap  collapseHeap
}

func newCollapseQueue(slots int) *collapseQueue {
	q := &collapseQueue{
		nodes: make([]collapseNode, slots),
		heap:  make(collapseHeap, 0, slots),
	}
	for i := range q.nodes {
		q.nodes[i] = collapseNode{H: mesh.Halfedge(i), Cost: stdmath.Inf(1), Index: -1}
	}
	return q
}

// setCost records a cost without touching the heap. Call init afterwards.
func (q *collapseQueue) setCost(h mesh.Halfedge, cost float64) {
	q.nodes[h].Cost = cost
}

// init builds the heap from the given halfedges using their recorded costs.
func (q *collapseQueue) init(hs []mesh.Halfedge) {
	q.heap = q.heap[:0]
	for i := range q.nodes {
		q.nodes[i].Index = -1
	}
	for _, h := range hs {
		n := &q.nodes[h]
		n.Index = len(q.heap)
		q.heap = append(q.heap, n)
	}
	heap.Init(&q.heap)
}

// cost returns the recorded cost of h.
func (q *collapseQueue) cost(h mesh.Halfedge) float64 {
	return q.nodes[h].Cost
}

// update sets the cost of h and restores heap order, queueing h if needed.
func (q *collapseQueue) update(h mesh.Halfedge, cost float64) {
	n := &q.nodes[h]
	n.Cost = cost
	if n.Index < 0 {
		heap.Push(&q.heap, n)
		return
	}
	heap.Fix(&q.heap, n.Index)
}

// remove drops h from the heap if it is queued.
func (q *collapseQueue) remove(h mesh.Halfedge) {
	n := &q.nodes[h]
	if n.Index >= 0 {
		heap.Remove(&q.heap, n.Index)
	}
	n.Cost = stdmath.Inf(1)
}

// peek returns the cheapest queued halfedge without removing it.
func (q *collapseQueue) peek() (mesh.Halfedge, float64, bool) {
	if len(q.heap) == 0 {
		return mesh.NoHalfedge, stdmath.Inf(1), false
	}
	n := q.heap[0]
	return n.H, n.Cost, true
}

func (q *collapseQueue) size() int { return len(q.heap) }
