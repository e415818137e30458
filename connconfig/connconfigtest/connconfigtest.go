// Package connconfigtest provides a conformance suite for connstring.Source
// implementations.
package connconfigtest

import (
	"errors"
	"testing"

	"github.com/ggoodman/redis-session-go/connstring"
)

// SourceFactory creates a source pre-populated with entries.
type SourceFactory func(t *testing.T, entries map[string]string) connstring.Source

// RunSourceTests runs the complete Source test suite against the provided factory.
func RunSourceTests(t *testing.T, factory SourceFactory) {
	t.Run("Lookup_KnownName", func(t *testing.T) { testKnownName(t, factory) })
	t.Run("Lookup_UnknownName", func(t *testing.T) { testUnknownName(t, factory) })
	t.Run("Lookup_EmptyValueIsKnown", func(t *testing.T) { testEmptyValue(t, factory) })
	t.Run("Lookup_Isolation", func(t *testing.T) { testIsolation(t, factory) })
	t.Run("FromSource_Parses", func(t *testing.T) { testFromSource(t, factory) })
	t.Run("FromSource_MissingIsConfigError", func(t *testing.T) { testFromSourceMissing(t, factory) })
}

func testKnownName(t *testing.T, factory SourceFactory) {
	src := factory(t, map[string]string{"Redis": "HOST=a;PORT=1"})
	v, ok, err := src.Lookup("Redis")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !ok {
		t.Fatalf("expected name to be found")
	}
	if v != "HOST=a;PORT=1" {
		t.Fatalf("value = %q", v)
	}
}

func testUnknownName(t *testing.T, factory SourceFactory) {
	src := factory(t, map[string]string{"Redis": "HOST=a"})
	_, ok, err := src.Lookup("Missing")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if ok {
		t.Fatalf("expected unknown name to be reported as not found")
	}
}

func testEmptyValue(t *testing.T, factory SourceFactory) {
	src := factory(t, map[string]string{"Empty": ""})
	v, ok, err := src.Lookup("Empty")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !ok || v != "" {
		t.Fatalf("got %q (%v), want empty and found", v, ok)
	}
}

func testIsolation(t *testing.T, factory SourceFactory) {
	src := factory(t, map[string]string{
		"Primary": "HOST=primary",
		"Replica": "HOST=replica",
	})
	for name, want := range map[string]string{"Primary": "HOST=primary", "Replica": "HOST=replica"} {
		v, ok, err := src.Lookup(name)
		if err != nil || !ok {
			t.Fatalf("lookup %s: ok=%v err=%v", name, ok, err)
		}
		if v != want {
			t.Fatalf("lookup %s = %q, want %q", name, v, want)
		}
	}
}

func testFromSource(t *testing.T, factory SourceFactory) {
	src := factory(t, map[string]string{"Redis": "HOST=cache;PORT=6390;ALLOWADMIN=true"})
	s, err := connstring.FromSource(src, "Redis")
	if err != nil {
		t.Fatalf("FromSource: %v", err)
	}
	if s.Host() != "cache" || s.Port() != 6390 || !s.AllowAdmin() {
		t.Fatalf("unexpected settings %s", s)
	}
}

func testFromSourceMissing(t *testing.T, factory SourceFactory) {
	src := factory(t, map[string]string{"Redis": "HOST=cache"})
	_, err := connstring.FromSource(src, "Nope")
	var cfgErr *connstring.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *connstring.ConfigError, got %T: %v", err, err)
	}
	if !errors.Is(err, connstring.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
