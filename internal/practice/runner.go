package practice

import "sync"

// Runner executes backend calls off the caller's goroutine
type Runner interface {
	Go(task func())
}

// GoroutineRunner runs every task on its own goroutine
type GoroutineRunner struct {
	wg sync.WaitGroup
}

// Go starts task in a new goroutine
func (r *GoroutineRunner) Go(task func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		task()
	}()
}

// Wait blocks until every started task has returned
func (r *GoroutineRunner) Wait() {
	r.wg.Wait()
}
