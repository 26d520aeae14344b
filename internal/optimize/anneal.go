package optimize

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Annealer searches the same discretized weight space as BruteForce with
// classical simulated annealing: a random walk over neighboring candidates
// with temperature-controlled acceptance of downhill moves. It is not
// guaranteed to find the global optimum.
type Annealer struct {
	// Steps is the number of proposal iterations; 0 means 100000.
	Steps int
	// InitialTemp is the starting temperature; 0 means 1.0.
	InitialTemp float64
	// Cooling is the geometric decay applied per step; 0 means 0.9995.
	Cooling float64
	// Seed fixes the RNG for reproducible runs; 0 seeds from the clock.
	Seed   int64
	Logger *zap.Logger
}

// AnnealResult extends Result with acceptance statistics.
type AnnealResult struct {
	Result
	Steps    int
	Accepted int
}

// Optimize runs the annealing schedule. The returned Result's Ties always
// holds exactly the single best state visited.
func (a *Annealer) Optimize(ctx context.Context, p *Problem) (*AnnealResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	steps := a.Steps
	if steps <= 0 {
		steps = 100000
	}
	temp := a.InitialTemp
	if temp <= 0 {
		temp = 1.0
	}
	cooling := a.Cooling
	if cooling <= 0 || cooling >= 1 {
		cooling = 0.9995
	}
	seed := a.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	minB, maxB, err := p.bucketBounds()
	if err != nil {
		return nil, err
	}
	current, err := feasibleStart(p.Granularity, minB, maxB)
	if err != nil {
		return nil, err
	}
	score := p.scorer()

	logger.Info("starting annealing search",
		zap.Int("assets", len(p.Symbols)),
		zap.Int("granularity", p.Granularity),
		zap.Int("steps", steps),
		zap.Float64("temp", temp),
		zap.Int64("seed", seed))

	start := time.Now()
	curScore := score(p.weightsOf(current))
	best := append([]int(nil), current...)
	bestScore := curScore
	accepted := 0
	evaluated := int64(1)

	n := len(current)
	for step := 0; step < steps; step++ {
		if step%1024 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
		temp *= cooling

		// Neighbor: move one bucket from asset i to asset j.
		i := rng.Intn(n)
		j := rng.Intn(n)
		if i == j || current[i] <= minB[i] || current[j] >= maxB[j] {
			continue
		}
		current[i]--
		current[j]++
		nextScore := score(p.weightsOf(current))
		evaluated++

		delta := nextScore - curScore
		if delta >= 0 || rng.Float64() < math.Exp(delta/temp) {
			accepted++
			curScore = nextScore
			if curScore > bestScore {
				bestScore = curScore
				copy(best, current)
			}
		} else {
			// Revert the move.
			current[i]++
			current[j]--
		}
	}

	w := p.weightsOf(best)
	res := &AnnealResult{
		Result: Result{
			Weights:   w,
			Score:     bestScore,
			Ties:      [][]float64{w},
			Evaluated: evaluated,
			Elapsed:   time.Since(start),
		},
		Steps:    steps,
		Accepted: accepted,
	}
	logger.Info("annealing search complete",
		zap.Float64("score", res.Score),
		zap.Int("accepted", accepted),
		zap.Int("steps", steps),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// feasibleStart builds a bucket vector within bounds summing to g: start
// every asset at its minimum and hand out the remainder round-robin.
func feasibleStart(g int, minB, maxB []int) ([]int, error) {
	buckets := append([]int(nil), minB...)
	rem := g
	for _, b := range buckets {
		rem -= b
	}
	if rem < 0 {
		return nil, fmt.Errorf("infeasible bounds: minimums exceed granularity %d", g)
	}
	for rem > 0 {
		moved := false
		for i := range buckets {
			if rem == 0 {
				break
			}
			if buckets[i] < maxB[i] {
				buckets[i]++
				rem--
				moved = true
			}
		}
		if !moved {
			return nil, fmt.Errorf("infeasible bounds: maximums below granularity %d", g)
		}
	}
	return buckets, nil
}
