package connstring

import (
	"math"
	"net"
	"strconv"
	"strings"
	"time"
)

// Default values applied to every Settings before options or parsed keys.
const (
	DefaultHost        = "127.0.0.1"
	DefaultPort        = 6379
	DefaultIOTimeout   = -1 // unlimited
	DefaultMaxUnsent   = math.MaxInt
	DefaultSyncTimeout = 10000
)

// Settings is an immutable bundle of connection parameters. The zero value is
// not useful; start from Default, New or Parse.
type Settings struct {
	host        string
	port        int
	ioTimeout   int
	password    string
	hasPassword bool
	maxUnsent   int
	allowAdmin  bool
	syncTimeout int
}

// Option configures Settings during New.
type Option func(*Settings)

// Default returns Settings populated with the package defaults.
func Default() Settings {
	return Settings{
		host:        DefaultHost,
		port:        DefaultPort,
		ioTimeout:   DefaultIOTimeout,
		maxUnsent:   DefaultMaxUnsent,
		syncTimeout: DefaultSyncTimeout,
	}
}

// New builds Settings from the defaults and the given options. Values are not
// validated here; the connection handle reports bad hosts or ports when it is
// opened.
func New(opts ...Option) Settings {
	s := Default()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithHost sets the hostname or IP of the Redis server.
func WithHost(host string) Option {
	return func(s *Settings) { s.host = host }
}

// WithPort sets the server port.
func WithPort(port int) Option {
	return func(s *Settings) { s.port = port }
}

// WithIOTimeout sets the IO timeout in milliseconds. Negative means unlimited.
func WithIOTimeout(ms int) Option {
	return func(s *Settings) { s.ioTimeout = ms }
}

// WithPassword sets the password used to authenticate.
func WithPassword(password string) Option {
	return func(s *Settings) {
		s.password = password
		s.hasPassword = true
	}
}

// WithMaxUnsent sets how many commands may be in flight before new requests block.
func WithMaxUnsent(n int) Option {
	return func(s *Settings) { s.maxUnsent = n }
}

// WithAllowAdmin permits administrative commands such as FLUSHALL or CONFIG.
func WithAllowAdmin(allow bool) Option {
	return func(s *Settings) { s.allowAdmin = allow }
}

// WithSyncTimeout sets how long, in milliseconds, a blocking wait may take.
func WithSyncTimeout(ms int) Option {
	return func(s *Settings) { s.syncTimeout = ms }
}

func (s Settings) Host() string { return s.host }
func (s Settings) Port() int    { return s.port }

// IOTimeout is in milliseconds; negative means unlimited.
func (s Settings) IOTimeout() int { return s.ioTimeout }

// Password reports the configured password and whether one was set at all.
func (s Settings) Password() (string, bool) { return s.password, s.hasPassword }

func (s Settings) MaxUnsent() int   { return s.maxUnsent }
func (s Settings) AllowAdmin() bool { return s.allowAdmin }

// SyncTimeout is in milliseconds.
func (s Settings) SyncTimeout() int { return s.syncTimeout }

// Addr returns the dialable host:port.
func (s Settings) Addr() string {
	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

// IOTimeoutDuration converts IOTimeout to a duration. A negative result means
// no timeout.
func (s Settings) IOTimeoutDuration() time.Duration {
	if s.ioTimeout < 0 {
		return -1
	}
	return time.Duration(s.ioTimeout) * time.Millisecond
}

// SyncTimeoutDuration converts SyncTimeout to a duration.
func (s Settings) SyncTimeoutDuration() time.Duration {
	return time.Duration(s.syncTimeout) * time.Millisecond
}

// String renders the settings as a connection string. The password, when set,
// is masked so the result is safe to log.
func (s Settings) String() string {
	var b strings.Builder
	b.WriteString("HOST=" + s.host)
	b.WriteString(";PORT=" + strconv.Itoa(s.port))
	b.WriteString(";IOTIMEOUT=" + strconv.Itoa(s.ioTimeout))
	if s.hasPassword {
		b.WriteString(";PASSWORD=*****")
	}
	b.WriteString(";MAXUNSENT=" + strconv.Itoa(s.maxUnsent))
	b.WriteString(";ALLOWADMIN=" + strconv.FormatBool(s.allowAdmin))
	b.WriteString(";SYNCTIMEOUT=" + strconv.Itoa(s.syncTimeout))
	return b.String()
}
