package graph

import "container/heap"

// edgeHeap is a min-heap of edges keyed on weight.
type edgeHeap []indexedEdge

type indexedEdge struct {
	u, v int
	w    float64
}

func (h edgeHeap) Len() int            { return len(h) }
func (h edgeHeap) Less(i, j int) bool  { return h[i].w < h[j].w }
func (h edgeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *edgeHeap) Push(x interface{}) { *h = append(*h, x.(indexedEdge)) }
func (h *edgeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// PrimMST returns the minimum spanning tree via Prim's algorithm. Edges are
// returned sorted ascending by weight. MSTs are unique only when edge
// weights are distinct; equal-weight edges may swap between runs of
// different algorithms but the total weight is invariant.
func (g *Graph) PrimMST() []Edge {
	n := len(g.labels)
	if n < 2 {
		return nil
	}

	inTree := make([]bool, n)
	inTree[0] = true
	h := &edgeHeap{}
	for j := 1; j < n; j++ {
		heap.Push(h, indexedEdge{u: 0, v: j, w: g.dist.At(0, j)})
	}

	tree := make([]Edge, 0, n-1)
	for len(tree) < n-1 && h.Len() > 0 {
		e := heap.Pop(h).(indexedEdge)
		if inTree[e.v] {
			continue
		}
		inTree[e.v] = true
		tree = append(tree, Edge{U: g.labels[e.u], V: g.labels[e.v], Weight: e.w})
		for j := 0; j < n; j++ {
			if !inTree[j] {
				heap.Push(h, indexedEdge{u: e.v, v: j, w: g.dist.At(e.v, j)})
			}
		}
	}
	SortEdges(tree)
	return tree
}

// KruskalMST returns the minimum spanning tree via Kruskal's algorithm with
// a union-find over vertex indices (path compression + union by rank).
// Edges are returned sorted ascending by weight.
func (g *Graph) KruskalMST() []Edge {
	n := len(g.labels)
	if n < 2 {
		return nil
	}

	h := &edgeHeap{}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			*h = append(*h, indexedEdge{u: i, v: j, w: g.dist.At(i, j)})
		}
	}
	heap.Init(h)

	uf := newUnionFind(n)
	tree := make([]Edge, 0, n-1)
	for len(tree) < n-1 && h.Len() > 0 {
		e := heap.Pop(h).(indexedEdge)
		if uf.find(e.u) == uf.find(e.v) {
			continue
		}
		uf.union(e.u, e.v)
		tree = append(tree, Edge{U: g.labels[e.u], V: g.labels[e.v], Weight: e.w})
	}
	SortEdges(tree)
	return tree
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path compression
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}
