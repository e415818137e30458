package connstring

import (
	"errors"
	"fmt"
	"strings"
)

// Source resolves named connection strings, e.g. from the environment or a
// configuration file. Lookup reports ok == false when the name is unknown and
// returns an error only when the source itself could not be read.
type Source interface {
	Lookup(name string) (value string, ok bool, err error)
}

// Error types
var (
	// ErrBlankName is returned when the connection string name is empty or white space.
	ErrBlankName = errors.New("connstring: the connection string name cannot be blank")
	// ErrNotFound is returned when the source has no entry for the name.
	ErrNotFound = errors.New("connstring: connection string not found")
	// ErrNoSource is returned when no Source was supplied.
	ErrNoSource = errors.New("connstring: no configuration source")
)

// ConfigError reports a named connection string that could not be resolved.
type ConfigError struct {
	Name string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Name == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("connection string %q: %v", e.Name, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FromSource looks name up in src and parses the result. It fails with a
// *ConfigError if the name is blank, src is nil, the entry is missing or the
// source could not be read.
func FromSource(src Source, name string) (Settings, error) {
	if strings.TrimSpace(name) == "" {
		return Settings{}, &ConfigError{Name: name, Err: ErrBlankName}
	}
	if src == nil {
		return Settings{}, &ConfigError{Name: name, Err: ErrNoSource}
	}

	value, ok, err := src.Lookup(name)
	if err != nil {
		return Settings{}, &ConfigError{Name: name, Err: err}
	}
	if !ok {
		return Settings{}, &ConfigError{Name: name, Err: ErrNotFound}
	}

	return Parse(value), nil
}
