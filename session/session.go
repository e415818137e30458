package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ggoodman/redis-session-go/connconfig"
	"github.com/ggoodman/redis-session-go/connstring"
	"github.com/ggoodman/redis-session-go/internal/logctx"
	"github.com/ggoodman/redis-session-go/redisconn"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultName is the connection string a Session binds to unless WithName
// or WithSettings is given.
const DefaultName = connconfig.DefaultName

// LevelTrace is below slog.LevelDebug and is used for failures IsAvailable swallows.
const LevelTrace = slog.Level(-8)

// connMu serialises connection creation and opening across every Session in
// the process.
var connMu sync.Mutex

// Handle is the connection a Session manages. *redisconn.Conn implements it.
type Handle interface {
	State() redisconn.State
	Open(ctx context.Context) *redisconn.Future
	Wait(f *redisconn.Future) error
	Close() error
	Client() *redis.Client
}

// Factory builds an unopened handle from settings.
type Factory func(connstring.Settings) (Handle, error)

var errNoHandle = errors.New("session: factory returned no connection")

func defaultFactory(s connstring.Settings) (Handle, error) {
	return redisconn.New(s), nil
}

// Session owns at most one connection handle at a time.
type Session struct {
	id       string
	name     string
	source   connstring.Source
	settings *connstring.Settings
	factory  Factory
	log      *slog.Logger
	metrics  *Metrics

	// conn is guarded by connMu.
	conn Handle
}

// Option customizes a Session.
type Option func(*Session)

// WithName binds the session to a named connection string.
func WithName(name string) Option {
	return func(s *Session) { s.name = name }
}

// WithSource sets where named connection strings are resolved. The default
// reads environment variables (see connconfig.Env).
func WithSource(src connstring.Source) Option {
	return func(s *Session) {
		if src != nil {
			s.source = src
		}
	}
}

// WithSettings uses fixed settings instead of a named lookup. Replacement
// connections are built from the same settings.
func WithSettings(settings connstring.Settings) Option {
	return func(s *Session) { s.settings = &settings }
}

// WithFactory overrides how handles are built.
func WithFactory(f Factory) Option {
	return func(s *Session) {
		if f != nil {
			s.factory = f
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics records connection lifecycle events on m.
func WithMetrics(m *Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// New returns a session with no connection. Nothing is resolved or dialled
// until GetConnection.
func New(opts ...Option) *Session {
	s := &Session{
		id:      uuid.NewString(),
		name:    DefaultName,
		source:  connconfig.Env(connconfig.DefaultEnvPrefix),
		factory: defaultFactory,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// Name is the connection string name the session resolves.
func (s *Session) Name() string { return s.name }

// GetConnection returns the session's connection, creating or opening it as
// needed. It returns a *ConnectionError when a replacement cannot be created
// or the server cannot be reached; other failures are returned unchanged.
func (s *Session) GetConnection(ctx context.Context) (Handle, error) {
	connMu.Lock()
	defer connMu.Unlock()

	ctx = logctx.WithSessionData(ctx, &logctx.SessionData{SessionID: s.id, Name: s.name})

	if s.conn == nil {
		conn, err := s.create()
		if err != nil {
			s.metrics.connFailed(stageCreate)
			return nil, err
		}
		s.conn = conn
		s.metrics.connCreated()
		s.log.DebugContext(ctx, "session.conn.created")
	}

	switch s.conn.State() {
	case redisconn.StateOpening:
		s.log.DebugContext(ctx, "session.conn.opening")
		return s.conn, nil
	case redisconn.StateClosing, redisconn.StateClosed:
		// The stale handle stays until a replacement exists, so a failure
		// here is retried on the next call.
		conn, err := s.create()
		if err != nil {
			s.metrics.connFailed(stageCreate)
			return nil, &ConnectionError{Err: err}
		}
		s.conn = conn
		s.metrics.connCreated()
		s.log.DebugContext(ctx, "session.conn.recreated")
	}

	if s.conn.State() == redisconn.StateNew {
		if err := s.conn.Wait(s.conn.Open(ctx)); err != nil {
			s.metrics.connFailed(stageOpen)
			if redisconn.IsTransport(err) {
				return nil, &ConnectionError{Err: err}
			}
			return nil, err
		}
		s.metrics.connOpened()
		s.log.DebugContext(ctx, "session.conn.opened")
	}

	return s.conn, nil
}

// IsAvailable reports whether a connection can be obtained. A
// *ConnectionError is logged at LevelTrace and reported as false with a nil
// error; every other failure is returned.
func (s *Session) IsAvailable(ctx context.Context) (bool, error) {
	conn, err := s.GetConnection(ctx)
	if err != nil {
		var connErr *ConnectionError
		if errors.As(err, &connErr) {
			ctx = logctx.WithSessionData(ctx, &logctx.SessionData{SessionID: s.id, Name: s.name})
			s.metrics.sessionUnavailable()
			s.log.Log(ctx, LevelTrace, "session.unavailable", slog.String("err", err.Error()))
			return false, nil
		}
		return false, err
	}
	return conn != nil, nil
}

// Close closes and releases the held connection, if any. A later
// GetConnection starts over with a fresh one.
func (s *Session) Close() error {
	connMu.Lock()
	defer connMu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *Session) create() (Handle, error) {
	var settings connstring.Settings
	if s.settings != nil {
		settings = *s.settings
	} else {
		resolved, err := connstring.FromSource(s.source, s.name)
		if err != nil {
			return nil, err
		}
		settings = resolved
	}

	conn, err := s.factory(settings)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, errNoHandle
	}
	return conn, nil
}
