package redisconn

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"sync"
	"time"

	"github.com/ggoodman/redis-session-go/connstring"
	"github.com/redis/go-redis/v9"
)

// State is the lifecycle stage of a Conn.
type State int

const (
	StateNew State = iota
	StateOpening
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is a single Redis connection handle.
type Conn struct {
	settings connstring.Settings
	client   *redis.Client

	mu    sync.Mutex
	state State
}

// New builds an unopened handle from s. No network I/O happens until Open.
func New(s connstring.Settings) *Conn {
	opts := &redis.Options{
		Addr:         s.Addr(),
		ReadTimeout:  s.IOTimeoutDuration(),
		WriteTimeout: s.IOTimeoutDuration(),
		PoolSize:     1,
		MaxRetries:   -1,
	}
	// A non-positive sync timeout leaves go-redis' own dial and pool defaults.
	if d := s.SyncTimeoutDuration(); d > 0 {
		opts.DialTimeout = d
		opts.PoolTimeout = d
	}
	if pw, ok := s.Password(); ok {
		opts.Password = pw
	}

	client := redis.NewClient(opts)
	if !s.AllowAdmin() {
		client.AddHook(adminGuard{})
	}
	if n := s.MaxUnsent(); n > 0 && n != math.MaxInt {
		client.AddHook(newBacklogLimiter(n))
	}

	return &Conn{settings: s, client: client, state: StateNew}
}

// Settings returns the parameters the handle was built from.
func (c *Conn) Settings() connstring.Settings { return c.settings }

// Client exposes the command surface.
func (c *Conn) Client() *redis.Client { return c.client }

// State reports the current lifecycle stage.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Open starts connecting to the server and returns a future for the result.
// Only a new handle can be opened; otherwise the returned future has already
// failed with ErrNotNew. An open that runs out of time, whether dialling,
// waiting for the reply or on ctx's deadline, fails with ErrSyncTimeout so
// that it reads the same as Wait giving up.
func (c *Conn) Open(ctx context.Context) *Future {
	c.mu.Lock()
	if c.state != StateNew {
		c.mu.Unlock()
		return Completed(ErrNotNew)
	}
	c.state = StateOpening
	c.mu.Unlock()

	f, complete := NewFuture()
	go func() {
		if d := c.settings.SyncTimeoutDuration(); d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		err := timeoutAsSync(c.client.Ping(ctx).Err())

		c.mu.Lock()
		switch {
		case err != nil:
			c.state = StateClosed
			c.mu.Unlock()
			_ = c.client.Close()
		case c.state == StateOpening:
			c.state = StateOpen
			c.mu.Unlock()
		default:
			// Closed while opening; Close owns the transition.
			c.mu.Unlock()
		}
		complete(err)
	}()
	return f
}

// Wait blocks until f completes and returns its error. It gives up with
// ErrSyncTimeout after the handle's sync timeout; a non-positive sync timeout
// waits indefinitely.
func (c *Conn) Wait(f *Future) error {
	timeout := c.settings.SyncTimeoutDuration()
	if timeout <= 0 {
		<-f.Done()
		return f.Err()
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-f.Done():
		return f.Err()
	case <-t.C:
		return ErrSyncTimeout
	}
}

// Close releases the client. Closing an already closed handle is a no-op.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.state == StateClosing || c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosing
	c.mu.Unlock()

	err := c.client.Close()

	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()
	return err
}

// timeoutAsSync replaces a deadline failure with ErrSyncTimeout. The cause is
// kept in the message only, so the result is never a transport fault.
func timeoutAsSync(err error) error {
	if err == nil {
		return nil
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: %v", ErrSyncTimeout, err)
	}
	return err
}
