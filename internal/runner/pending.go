package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

// ErrExited is the rejection reason of a computation whose goroutine called
// runtime.Goexit before returning.
var ErrExited = errors.New("test procedure exited without returning")

// PanicError is the rejection reason of a computation that panicked.
type PanicError struct {
	Value any
	stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(e.Value)
}

// Unwrap returns the panic value when it is an error, so errors.As can reach
// an *assert.Failure or a runtime.Error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Stack returns the goroutine stack captured when the panic was recovered.
func (e *PanicError) Stack() string {
	return e.stack
}

// Pending is a computation that settles exactly once, either resolved (nil)
// or rejected (non-nil error).
type Pending struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// Go runs fn on a new goroutine and returns the pending computation it drives.
// A returned error rejects it; so does a panic (as *PanicError) or a call to
// runtime.Goexit (as ErrExited).
func Go(fn func() error) *Pending {
	p := newPending()
	go func() {
		returned := false
		defer func() {
			if r := recover(); r != nil {
				p.settle(&PanicError{Value: r, stack: string(debug.Stack())})
				return
			}
			if !returned {
				p.settle(ErrExited)
			}
		}()
		err := fn()
		returned = true
		p.settle(err)
	}()
	return p
}

// Resolved returns an already resolved computation.
func Resolved() *Pending {
	p := newPending()
	p.settle(nil)
	return p
}

// Rejected returns a computation already rejected with err.
func Rejected(err error) *Pending {
	if err == nil {
		err = errors.New("rejected")
	}
	p := newPending()
	p.settle(err)
	return p
}

func (p *Pending) settle(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// Done is closed once the computation settles.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the computation settles and returns the rejection reason,
// or nil when it resolved.
func (p *Pending) Wait() error {
	<-p.done
	return p.err
}

// Procedure is a single test body. It passes by returning nil and fails by
// returning an error or panicking.
type Procedure func(ctx context.Context) error

// Func adapts a test body with no result into a Procedure.
func Func(fn func()) Procedure {
	return func(context.Context) error {
		fn()
		return nil
	}
}

// Async adapts a test body that hands back a pending computation.
// The test passes when the computation resolves. A nil computation counts as
// resolved.
func Async(fn func(ctx context.Context) *Pending) Procedure {
	return func(ctx context.Context) error {
		p := fn(ctx)
		if p == nil {
			return nil
		}
		return p.Wait()
	}
}
