package connconfig

import (
	"os"
	"strings"

	"github.com/ggoodman/redis-session-go/connstring"
)

// DefaultEnvPrefix is prepended to the normalised name by Env lookups.
const DefaultEnvPrefix = "REDIS_CONNECTION_STRING_"

// Map is a fixed set of named connection strings.
type Map map[string]string

// Lookup implements connstring.Source.
func (m Map) Lookup(name string) (string, bool, error) {
	v, ok := m[name]
	return v, ok, nil
}

// EnvSource resolves names from environment variables.
type EnvSource struct {
	prefix string
}

// Env returns a source reading <prefix><NAME>, where NAME is the upper-cased
// name with every character outside [A-Z0-9] replaced by '_'. An empty prefix
// selects DefaultEnvPrefix.
func Env(prefix string) *EnvSource {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	return &EnvSource{prefix: prefix}
}

// Variable returns the environment variable consulted for name.
func (e *EnvSource) Variable(name string) string {
	return e.prefix + envName(name)
}

// Lookup implements connstring.Source.
func (e *EnvSource) Lookup(name string) (string, bool, error) {
	v, ok := os.LookupEnv(e.Variable(name))
	return v, ok, nil
}

func envName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}

// ChainSource tries each source in order.
type ChainSource []connstring.Source

// Chain combines sources; nil entries are dropped.
func Chain(sources ...connstring.Source) ChainSource {
	out := make(ChainSource, 0, len(sources))
	for _, s := range sources {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Lookup returns the first hit. A read error from any source stops the search.
func (c ChainSource) Lookup(name string) (string, bool, error) {
	for _, s := range c {
		v, ok, err := s.Lookup(name)
		if err != nil {
			return "", false, err
		}
		if ok {
			return v, true, nil
		}
	}
	return "", false, nil
}

// Compile-time interface checks
var (
	_ connstring.Source = Map(nil)
	_ connstring.Source = (*EnvSource)(nil)
	_ connstring.Source = ChainSource(nil)
)
