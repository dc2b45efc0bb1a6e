// Package pool provides a fixed set of workers used to parallelize the modular
// exponentiations of share dealing and verification.
package pool

import (
	"runtime"
	"sync"
)

// job asks a worker to compute f(i) and store it in results[i].
type job struct {
	i       int
	f       func(int) interface{}
	results []interface{}
	done    *sync.WaitGroup
}

// worker listens to jobs until the pool is torn down.
func worker(jobs <-chan job) {
	for j := range jobs {
		j.results[j.i] = j.f(j.i)
		j.done.Done()
	}
}

// Pool represents a pool of workers, used for parallelizing functions.
//
// Functions needing a *Pool will work with a nil receiver, doing the equivalent
// work on the current thread instead.
//
// By creating a pool, you avoid the overhead of spinning up goroutines for
// each new operation.
type Pool struct {
	// The common channel used to send jobs to the workers.
	//
	// This effectively makes a work stealing pool.
	jobs chan job
	// This holds the number of workers we've created
	workerCount int
	once        sync.Once
}

// NewPool creates a new pool, with a certain number of workers.
//
// If count <= 0, this will use the number of available CPUs instead.
func NewPool(count int) *Pool {
	if count <= 0 {
		count = runtime.NumCPU()
	}
	p := &Pool{
		jobs:        make(chan job, count),
		workerCount: count,
	}
	for i := 0; i < count; i++ {
		go worker(p.jobs)
	}
	return p
}

// TearDown cleanly tears down a pool. It is safe to call it more than once.
func (p *Pool) TearDown() {
	if p == nil {
		return
	}
	p.once.Do(func() { close(p.jobs) })
}

// Parallelize calls a function count times, passing in indices from 0..count-1.
//
// The result will be a slice containing [f(0), f(1), ..., f(count - 1)].
// f must not read from a shared source of randomness, since the order of the
// calls is not deterministic.
func (p *Pool) Parallelize(count int, f func(int) interface{}) []interface{} {
	results := make([]interface{}, count)
	if p == nil {
		for i := range results {
			results[i] = f(i)
		}
		return results
	}

	var done sync.WaitGroup
	done.Add(count)
	for i := 0; i < count; i++ {
		p.jobs <- job{i: i, f: f, results: results, done: &done}
	}
	done.Wait()
	return results
}

// Errors runs f for every index in 0..count-1 and returns the errors in order.
func (p *Pool) Errors(count int, f func(int) error) []error {
	results := p.Parallelize(count, func(i int) interface{} {
		return f(i)
	})
	errs := make([]error, count)
	for i, r := range results {
		if r != nil {
			errs[i] = r.(error)
		}
	}
	return errs
}
