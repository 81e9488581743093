package practice

import (
	"context"
	"sync"

	"github.com/lamim/drillforge/pkg/models"
)

// Promise is a single-resolution result of RequestFlashcard
type Promise struct {
	done chan struct{}
	once sync.Once
	fc   *models.Flashcard
	err  error
}

func newPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

func rejectedPromise(err error) *Promise {
	p := newPromise()
	p.reject(err)
	return p
}

// Done is closed once the promise settles
func (p *Promise) Done() <-chan struct{} {
	return p.done
}

// Settled reports whether the promise has resolved or rejected
func (p *Promise) Settled() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Result returns the flashcard or the rejection error. It must only be
// called after Done is closed.
func (p *Promise) Result() (*models.Flashcard, error) {
	<-p.done
	return p.fc, p.err
}

// Wait blocks until the promise settles or ctx ends
func (p *Promise) Wait(ctx context.Context) (*models.Flashcard, error) {
	select {
	case <-p.done:
		return p.fc, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Promise) resolve(fc *models.Flashcard) {
	p.once.Do(func() {
		p.fc = fc
		close(p.done)
	})
}

func (p *Promise) reject(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}
