package worker

import (
	"context"
	"fmt"
	"sort"
)

// RunSections runs one job per section with bounded concurrency and collects
// every output before returning. Any single failure fails the whole batch: a
// silently missing section would break the fixed section count the rest of
// the pipeline assumes.
func RunSections(ctx context.Context, concurrency int, jobs []SectionJob) (map[int]string, error) {
	if len(jobs) == 0 {
		return map[int]string{}, nil
	}

	pool := NewPool(concurrency)
	pool.Start()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			pool.Shutdown()
		case <-done:
		}
	}()

	for _, job := range jobs {
		pool.Submit(job)
	}
	results := pool.Wait()
	close(done)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Number < results[j].Number })

	bodies := make(map[int]string, len(results))
	for _, r := range results {
		if r.Err != nil {
			return nil, fmt.Errorf("section %d (%s): %w", r.Number, r.Name, r.Err)
		}
		bodies[r.Number] = r.Body
	}
	if len(bodies) != len(jobs) {
		return nil, fmt.Errorf("collected %d of %d sections", len(bodies), len(jobs))
	}
	return bodies, nil
}
