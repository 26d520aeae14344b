package graph

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// bookGraph is the six-stock distance matrix from Mantegna & Stanley ch. 13.
func bookGraph(t *testing.T) *Graph {
	t.Helper()
	labels := []string{"CHV", "GE", "KO", "PG", "TX", "XON"}
	dist := mat.NewSymDense(6, []float64{
		0, 1.15, 1.18, 1.15, 0.84, 0.89,
		1.15, 0, 0.86, 0.89, 1.26, 1.16,
		1.18, 0.86, 0, 0.74, 1.27, 1.11,
		1.15, 0.89, 0.74, 0, 1.26, 1.10,
		0.84, 1.26, 1.27, 1.26, 0, 0.94,
		0.89, 1.16, 1.11, 1.10, 0.94, 0,
	})
	g, err := New(labels, dist)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func hasEdge(edges []Edge, a, b string, w float64) bool {
	for _, e := range edges {
		if e.Weight == w && ((e.U == a && e.V == b) || (e.U == b && e.V == a)) {
			return true
		}
	}
	return false
}

func TestBookMST(t *testing.T) {
	g := bookGraph(t)
	for name, mst := range map[string][]Edge{
		"prim":    g.PrimMST(),
		"kruskal": g.KruskalMST(),
	} {
		if len(mst) != 5 {
			t.Fatalf("%s: got %d edges, want 5", name, len(mst))
		}
		// The chapter 13 tree.
		checks := []struct {
			a, b string
			w    float64
		}{
			{"KO", "PG", 0.74},
			{"CHV", "TX", 0.84},
			{"KO", "GE", 0.86},
			{"CHV", "XON", 0.89},
			{"PG", "XON", 1.10},
		}
		for _, c := range checks {
			if !hasEdge(mst, c.a, c.b, c.w) {
				t.Errorf("%s: missing edge %s-%s (%v)", name, c.a, c.b, c.w)
			}
		}
		// Sorted ascending.
		for i := 1; i < len(mst); i++ {
			if mst[i-1].Weight > mst[i].Weight {
				t.Errorf("%s: edges not sorted at %d", name, i)
			}
		}
	}
}

func TestPrimKruskalAgreeOnTotalWeight(t *testing.T) {
	g := bookGraph(t)
	prim := TotalWeight(g.PrimMST())
	kruskal := TotalWeight(g.KruskalMST())
	if math.Abs(prim-kruskal) > 1e-12 {
		t.Errorf("total weights differ: prim=%v kruskal=%v", prim, kruskal)
	}
	if math.Abs(prim-4.43) > 1e-9 {
		t.Errorf("tree weight = %v, want 4.43", prim)
	}
}

func TestEdges(t *testing.T) {
	g := bookGraph(t)
	edges := g.Edges()
	if len(edges) != 15 { // C(6,2)
		t.Errorf("got %d edges, want 15", len(edges))
	}
}

func TestNew_Errors(t *testing.T) {
	d2 := mat.NewSymDense(2, []float64{0, 1, 1, 0})
	if _, err := New(nil, d2); err == nil {
		t.Error("expected error for no labels")
	}
	if _, err := New([]string{"A"}, d2); err == nil {
		t.Error("expected error for dimension mismatch")
	}
	if _, err := New([]string{"A", "A"}, d2); err == nil {
		t.Error("expected error for duplicate labels")
	}
}

func TestTwoVertexTree(t *testing.T) {
	d := mat.NewSymDense(2, []float64{0, 0.5, 0.5, 0})
	g, err := New([]string{"A", "B"}, d)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for name, mst := range map[string][]Edge{"prim": g.PrimMST(), "kruskal": g.KruskalMST()} {
		if len(mst) != 1 || mst[0].Weight != 0.5 {
			t.Errorf("%s: mst = %+v", name, mst)
		}
	}
}
