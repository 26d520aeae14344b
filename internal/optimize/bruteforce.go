package optimize

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of a search over the discretized weight space.
type Result struct {
	// Weights is the canonical optimum: among equal-scoring candidates,
	// the lexicographically smallest weight vector.
	Weights []float64
	Score   float64
	// Ties holds every candidate achieving Score, Weights included,
	// in lexicographic order.
	Ties      [][]float64
	Evaluated int64
	Elapsed   time.Duration
}

// BruteForce enumerates every feasible candidate and returns the global
// optimum of the discretized space. The result is deterministic and
// independent of Workers.
type BruteForce struct {
	// Workers caps the enumeration goroutines; 0 means GOMAXPROCS.
	Workers int
	Logger  *zap.Logger
}

// ctxCheckInterval is how many evaluations a worker runs between
// cancellation checks.
const ctxCheckInterval = 4096

// searchState accumulates the best candidates seen by one worker.
type searchState struct {
	best      float64
	ties      [][]int
	evaluated int64
	found     bool
}

func (st *searchState) observe(score float64, buckets []int) {
	st.evaluated++
	switch {
	case !st.found || score > st.best:
		st.found = true
		st.best = score
		st.ties = st.ties[:0]
		st.ties = append(st.ties, append([]int(nil), buckets...))
	case score == st.best:
		st.ties = append(st.ties, append([]int(nil), buckets...))
	}
}

// Optimize runs the exhaustive search. It honors ctx cancellation and
// returns ctx.Err() when interrupted before completion.
func (bf *BruteForce) Optimize(ctx context.Context, p *Problem) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	logger := bf.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := bf.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	minB, maxB, err := p.bucketBounds()
	if err != nil {
		return nil, err
	}
	space, err := p.SpaceSize()
	if err != nil {
		return nil, err
	}
	logger.Info("starting exhaustive search",
		zap.Int("assets", len(p.Symbols)),
		zap.Int("granularity", p.Granularity),
		zap.Int64("candidates", space),
		zap.Int("workers", workers),
		zap.String("objective", string(p.Objective)))

	start := time.Now()
	score := p.scorer()

	// Suffix sums of the bucket bounds let the enumeration prune branches
	// that can no longer reach the target sum.
	n := len(p.Symbols)
	sufMin := make([]int, n+1)
	sufMax := make([]int, n+1)
	for i := n - 1; i >= 0; i-- {
		sufMin[i] = sufMin[i+1] + minB[i]
		sufMax[i] = sufMax[i+1] + maxB[i]
	}

	// Shard on the first coordinate: each worker takes whole k0 slices so
	// local results merge deterministically afterwards.
	firstLo := maxInt(minB[0], p.Granularity-sufMax[1])
	firstHi := minInt(maxB[0], p.Granularity-sufMin[1])
	shards := make(chan int)
	states := make([]*searchState, workers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(shards)
		for k := firstLo; k <= firstHi; k++ {
			select {
			case shards <- k:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for wi := 0; wi < workers; wi++ {
		st := &searchState{}
		states[wi] = st
		g.Go(func() error {
			buckets := make([]int, n)
			for k0 := range shards {
				buckets[0] = k0
				if err := enumerate(gctx, buckets, 1, p.Granularity-k0, minB, maxB, sufMin, sufMax, func(b []int) {
					st.observe(score(p.weightsOf(b)), b)
				}, st); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := mergeStates(states)
	if !merged.found {
		return nil, fmt.Errorf("no feasible candidate at granularity %d", p.Granularity)
	}
	sortBuckets(merged.ties)

	res := &Result{
		Score:     merged.best,
		Evaluated: merged.evaluated,
		Elapsed:   time.Since(start),
	}
	for _, b := range merged.ties {
		res.Ties = append(res.Ties, p.weightsOf(b))
	}
	res.Weights = res.Ties[0]

	logger.Info("exhaustive search complete",
		zap.Int64("evaluated", res.Evaluated),
		zap.Float64("score", res.Score),
		zap.Int("ties", len(res.Ties)),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// enumerate walks every assignment of buckets[i:] summing to rem within the
// per-asset bounds, invoking visit for each complete vector.
func enumerate(ctx context.Context, buckets []int, i, rem int, minB, maxB, sufMin, sufMax []int, visit func([]int), st *searchState) error {
	if st.evaluated%ctxCheckInterval == 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	n := len(buckets)
	if i == n {
		if rem == 0 {
			visit(buckets)
		}
		return nil
	}
	lo := maxInt(minB[i], rem-sufMax[i+1])
	hi := minInt(maxB[i], rem-sufMin[i+1])
	for k := lo; k <= hi; k++ {
		buckets[i] = k
		if err := enumerate(ctx, buckets, i+1, rem-k, minB, maxB, sufMin, sufMax, visit, st); err != nil {
			return err
		}
	}
	return nil
}

// mergeStates folds per-worker results into one, preserving determinism.
func mergeStates(states []*searchState) *searchState {
	out := &searchState{}
	for _, st := range states {
		out.evaluated += st.evaluated
		if !st.found {
			continue
		}
		switch {
		case !out.found || st.best > out.best:
			out.found = true
			out.best = st.best
			out.ties = append([][]int(nil), st.ties...)
		case st.best == out.best:
			out.ties = append(out.ties, st.ties...)
		}
	}
	return out
}

func sortBuckets(bs [][]int) {
	sort.Slice(bs, func(i, j int) bool {
		a, b := bs[i], bs[j]
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
