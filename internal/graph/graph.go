// Package graph builds a weighted undirected graph from a symmetric
// distance matrix and extracts its minimum spanning tree, the standard
// construction for correlation-based asset trees (Mantegna & Stanley,
// Introduction to Econophysics, ch. 13).
package graph

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Edge is an undirected weighted edge between two labelled vertices.
type Edge struct {
	U, V   string
	Weight float64
}

// Graph holds vertex labels and the full distance matrix.
type Graph struct {
	labels []string
	dist   *mat.SymDense
}

// New builds a graph from vertex labels and their pairwise distances.
// The matrix diagonal is ignored (self distances are not edges).
func New(labels []string, dist *mat.SymDense) (*Graph, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("graph: no vertices")
	}
	if dist.SymmetricDim() != len(labels) {
		return nil, fmt.Errorf("graph: %d labels but %dx%d matrix", len(labels), dist.SymmetricDim(), dist.SymmetricDim())
	}
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if seen[l] {
			return nil, fmt.Errorf("graph: duplicate vertex %q", l)
		}
		seen[l] = true
	}
	return &Graph{labels: labels, dist: dist}, nil
}

// Vertices returns the vertex labels in construction order.
func (g *Graph) Vertices() []string {
	out := make([]string, len(g.labels))
	copy(out, g.labels)
	return out
}

// Order returns the vertex count.
func (g *Graph) Order() int { return len(g.labels) }

// Edges returns every distinct undirected edge (upper triangle), unsorted.
func (g *Graph) Edges() []Edge {
	n := len(g.labels)
	edges := make([]Edge, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			edges = append(edges, Edge{U: g.labels[i], V: g.labels[j], Weight: g.dist.At(i, j)})
		}
	}
	return edges
}

// TotalWeight sums edge weights.
func TotalWeight(edges []Edge) float64 {
	var t float64
	for _, e := range edges {
		t += e.Weight
	}
	return t
}

// SortEdges orders edges by ascending weight, then lexicographically, so
// MST output is stable for reporting and tests.
func SortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Weight != edges[j].Weight {
			return edges[i].Weight < edges[j].Weight
		}
		if edges[i].U != edges[j].U {
			return edges[i].U < edges[j].U
		}
		return edges[i].V < edges[j].V
	})
}
