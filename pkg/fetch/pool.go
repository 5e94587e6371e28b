// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

// Package fetch runs a handful of enrichment-source fetches concurrently
// with a shared rate limit, so the build pipeline's external sources
// never exceed what they advertise as a safe request rate. Its one
// caller is cmd/asndb-build's RDAP pass.
//
// Adapted and trimmed from pkg/util/workers/pool.go in the teacher
// repo: the retry/backoff half of that file is dropped (the builder
// pipeline treats a failed source as skippable, not retryable), but the
// semaphore + rate.Limiter combination is kept as-is.
package fetch

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Task is one unit of fetch work.
type Task func(ctx context.Context) error

// Result is the outcome of running one Task, tagged with its index in
// the submitted batch so callers can line results back up with sources.
type Result struct {
	Index int
	Err   error
}

// Pool runs tasks with bounded concurrency and an optional shared rate
// limit.
type Pool struct {
	sem     chan struct{}
	limiter *rate.Limiter
	results chan Result
	wg      sync.WaitGroup
}

// Config configures a Pool. RateLimit is requests per second; zero
// means unlimited.
type Config struct {
	Workers   int
	RateLimit float64
	Burst     int
}

// New returns a Pool ready to accept Submit calls.
func New(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.Workers
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)
	}

	return &Pool{
		sem:     make(chan struct{}, cfg.Workers),
		limiter: limiter,
		results: make(chan Result, cfg.Workers*2),
	}
}

// Submit runs task in a new goroutine, subject to the pool's
// concurrency cap and rate limit.
func (p *Pool) Submit(ctx context.Context, index int, task Task) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		select {
		case p.sem <- struct{}{}:
			defer func() { <-p.sem }()
		case <-ctx.Done():
			p.results <- Result{Index: index, Err: ctx.Err()}
			return
		}

		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				p.results <- Result{Index: index, Err: err}
				return
			}
		}

		p.results <- Result{Index: index, Err: task(ctx)}
	}()
}

// Wait blocks until every submitted task has finished and returns all
// results, in completion order.
func (p *Pool) Wait() []Result {
	go func() {
		p.wg.Wait()
		close(p.results)
	}()

	var out []Result
	for r := range p.results {
		out = append(out, r)
	}
	return out
}
