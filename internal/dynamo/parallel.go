package dynamo

import (
	"context"
	"sync"
)

// Factory builds an independent simulator for one ensemble member. Systems
// that carry mutable solver state must not be shared between members.
type Factory func(idx int) (*Simulator, error)

type Ensemble struct {
	build   Factory
	workers int
}

func NewEnsemble(build Factory, workers int) *Ensemble {
	if workers < 1 {
		workers = 1
	}
	return &Ensemble{build: build, workers: workers}
}

// Run integrates every initial state concurrently and returns results in
// input order. The first error encountered is returned after all members
// finish.
func (e *Ensemble) Run(ctx context.Context, x0s []State, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(x0s))
	errs := make([]error, len(x0s))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				sim, err := e.build(idx)
				if err != nil {
					errs[idx] = err
					continue
				}
				results[idx], errs[idx] = sim.Run(ctx, x0s[idx], cfg)
			}
		}()
	}

	for i := range x0s {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}

	return results, nil
}
