// Package worker provides the bounded-concurrency pool used for per-section
// LLM calls and the per-domain rate limiter used by the link checker.
package worker

import (
	"context"
	"sync"
)

// SectionJob drafts or rewrites one memo section.
type SectionJob struct {
	Number int
	Name   string
	Run    func(ctx context.Context) (string, error)
}

// SectionResult is the outcome of one section job.
type SectionResult struct {
	Number int
	Name   string
	Body   string
	Err    error
}

// Pool runs section jobs with a fixed number of workers.
type Pool struct {
	workers    int
	jobQueue   chan SectionJob
	results    chan SectionResult
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan SectionJob, workers*2),
		results:    make(chan SectionResult, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start starts the worker pool
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			body, err := job.Run(p.ctx)
			result := SectionResult{Number: job.Number, Name: job.Name, Body: body, Err: err}
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit submits a job to the pool for execution
func (p *Pool) Submit(job SectionJob) {
	select {
	case <-p.ctx.Done():
	case p.jobQueue <- job:
	}
}

// Wait waits for all submitted jobs to complete and returns their results.
func (p *Pool) Wait() []SectionResult {
	close(p.jobQueue)

	go func() {
		p.wg.Wait()
		p.closeResults()
	}()

	var results []SectionResult
	for result := range p.results {
		results = append(results, result)
	}

	return results
}

// Shutdown shuts down the worker pool immediately
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
