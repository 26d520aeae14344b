package optimize

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func annealProblem() *Problem {
	return &Problem{
		Symbols:     []string{"A", "B", "C"},
		Mu:          []float64{0.08, 0.15, 0.11},
		Sigma:       diagSigma(0.02, 0.06, 0.03),
		Granularity: 20,
		Objective:   MaxSharpe,
	}
}

func TestAnnealer_FeasibleResult(t *testing.T) {
	p := annealProblem()
	p.MinWeights = []float64{0.1, 0.1, 0.1}
	p.MaxWeights = []float64{0.8, 0.8, 0.8}

	res, err := (&Annealer{Seed: 1, Steps: 20000}).Optimize(context.Background(), p)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	var sum float64
	for i, w := range res.Weights {
		sum += w
		if w < p.MinWeights[i]-1e-12 || w > p.MaxWeights[i]+1e-12 {
			t.Errorf("weight %d = %v outside [%v, %v]", i, w, p.MinWeights[i], p.MaxWeights[i])
		}
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("weights sum to %v, want 1", sum)
	}
	if res.Accepted <= 0 || res.Accepted > res.Steps {
		t.Errorf("accepted = %d of %d steps", res.Accepted, res.Steps)
	}
}

func TestAnnealer_NeverBeatsBruteForce(t *testing.T) {
	p := annealProblem()
	exact, err := (&BruteForce{}).Optimize(context.Background(), p)
	if err != nil {
		t.Fatalf("BruteForce: %v", err)
	}
	for seed := int64(1); seed <= 5; seed++ {
		approx, err := (&Annealer{Seed: seed, Steps: 30000}).Optimize(context.Background(), p)
		if err != nil {
			t.Fatalf("Annealer(seed=%d): %v", seed, err)
		}
		if approx.Score > exact.Score+1e-12 {
			t.Errorf("seed %d: annealer score %v beats exhaustive optimum %v", seed, approx.Score, exact.Score)
		}
	}
}

func TestAnnealer_Reproducible(t *testing.T) {
	p := annealProblem()
	a, err := (&Annealer{Seed: 42, Steps: 10000}).Optimize(context.Background(), p)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := (&Annealer{Seed: 42, Steps: 10000}).Optimize(context.Background(), p)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if diff := cmp.Diff(a.Weights, b.Weights); diff != "" {
		t.Errorf("same seed produced different weights (-a +b):\n%s", diff)
	}
	if a.Score != b.Score || a.Accepted != b.Accepted {
		t.Errorf("same seed produced different stats: %+v vs %+v", a, b)
	}
}

func TestAnnealer_FindsOptimumOnTinySpace(t *testing.T) {
	// With two assets and a coarse grid the walk covers the whole space,
	// so annealing must land on the exhaustive optimum.
	p := &Problem{
		Symbols:     []string{"A", "B"},
		Mu:          []float64{0.05, 0.20},
		Sigma:       diagSigma(0.04, 0.04),
		Granularity: 5,
		Objective:   MaxSharpe,
	}
	exact, err := (&BruteForce{}).Optimize(context.Background(), p)
	if err != nil {
		t.Fatalf("BruteForce: %v", err)
	}
	approx, err := (&Annealer{Seed: 7, Steps: 50000}).Optimize(context.Background(), p)
	if err != nil {
		t.Fatalf("Annealer: %v", err)
	}
	if math.Abs(approx.Score-exact.Score) > 1e-12 {
		t.Errorf("annealer score %v, exhaustive %v", approx.Score, exact.Score)
	}
}

func TestAnnealer_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&Annealer{Seed: 1}).Optimize(ctx, annealProblem()); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestFeasibleStart(t *testing.T) {
	buckets, err := feasibleStart(10, []int{2, 0, 3}, []int{10, 10, 10})
	if err != nil {
		t.Fatalf("feasibleStart: %v", err)
	}
	sum := 0
	for i, b := range buckets {
		sum += b
		if b < []int{2, 0, 3}[i] {
			t.Errorf("bucket %d = %d below minimum", i, b)
		}
	}
	if sum != 10 {
		t.Errorf("buckets sum to %d, want 10", sum)
	}
}
