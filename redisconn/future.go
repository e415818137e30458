package redisconn

import "sync"

// Future is a waitable token for an asynchronous operation.
type Future struct {
	done chan struct{}
	once sync.Once
	err  error
}

// NewFuture returns a pending future and the function that completes it.
// Only the first call to complete has any effect.
func NewFuture() (*Future, func(err error)) {
	f := &Future{done: make(chan struct{})}
	return f, f.complete
}

// Completed returns a future that has already finished with err.
func Completed(err error) *Future {
	f, complete := NewFuture()
	complete(err)
	return f
}

func (f *Future) complete(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done is closed once the operation has finished.
func (f *Future) Done() <-chan struct{} { return f.done }

// Err returns the outcome. It is nil while the operation is still running.
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}
