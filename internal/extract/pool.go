package extract

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/524D/breathx/internal/logger"
)

// Job is the extraction of one file; Index is its position in the results
type Job struct {
	Index int
	Path  string
}

// Result is the outcome of one Job. Extraction is nil if Err is set.
type Result struct {
	Path       string
	Extraction *Extraction
	Err        error
	Elapsed    time.Duration
}

// Pool runs extractions on a fixed number of goroutines
type Pool struct {
	opts    Options
	find    func(string, Options) (*Extraction, error)
	jobs    chan Job
	results []Result
	wg      sync.WaitGroup
}

// NewPool creates a pool for n jobs
func NewPool(opts Options, n int) *Pool {
	if n < 1 {
		n = 1
	}
	return &Pool{
		opts:    opts,
		find:    ExtractFile,
		jobs:    make(chan Job, n),
		results: make([]Result, n),
	}
}

// Start launches the worker goroutines
func (p *Pool) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.results[job.Index] = p.process(job)
			}
		}()
	}
}

// Submit queues a job. Jobs with an index outside the pool are dropped.
func (p *Pool) Submit(job Job) {
	if job.Index < 0 || job.Index >= len(p.results) {
		logger.Warn("dropping job", zap.String("file", job.Path), zap.Int("index", job.Index))
		return
	}
	p.jobs <- job
}

// Stop waits for the queued jobs to finish and returns their results
// in index order
func (p *Pool) Stop() []Result {
	close(p.jobs)
	p.wg.Wait()
	return p.results
}

func (p *Pool) process(job Job) (r Result) {
	t := time.Now()
	r.Path = job.Path
	defer func() {
		if v := recover(); v != nil {
			r.Extraction, r.Err = nil, fmt.Errorf("%s: %v", job.Path, v)
		}
		r.Elapsed = time.Since(t)
		if r.Err != nil {
			logger.Warn("extraction failed", zap.String("file", job.Path), zap.Error(r.Err))
			return
		}
		logger.Info("extracted", zap.String("file", job.Path),
			zap.Int("features", r.Extraction.Table.Len()), zap.Duration("elapsed", r.Elapsed))
	}()
	r.Extraction, r.Err = p.find(job.Path, p.opts)
	return r
}

// Batch extracts the features of all paths using the given number of
// workers. A failing file only affects its own result.
func Batch(paths []string, opts Options, workers int) []Result {
	p := NewPool(opts, len(paths))
	p.Start(workers)
	for i, path := range paths {
		p.Submit(Job{Index: i, Path: path})
	}
	return p.Stop()[:len(paths)]
}
