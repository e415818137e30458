package connconfig

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ggoodman/redis-session-go/connconfig/connconfigtest"
	"github.com/ggoodman/redis-session-go/connstring"
	"gopkg.in/yaml.v3"
)

var envSeq atomic.Int64

func writeDoc(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	data, err := yaml.Marshal(fileDocument{ConnectionStrings: entries})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestMapSource(t *testing.T) {
	connconfigtest.RunSourceTests(t, func(t *testing.T, entries map[string]string) connstring.Source {
		return Map(entries)
	})
}

func TestEnvSource(t *testing.T) {
	connconfigtest.RunSourceTests(t, func(t *testing.T, entries map[string]string) connstring.Source {
		prefix := "CONNCONFIG_TEST_" + strconv.FormatInt(envSeq.Add(1), 10) + "_"
		src := Env(prefix)
		for name, v := range entries {
			t.Setenv(src.Variable(name), v)
		}
		return src
	})
}

func TestFileSource(t *testing.T) {
	connconfigtest.RunSourceTests(t, func(t *testing.T, entries map[string]string) connstring.Source {
		path := filepath.Join(t.TempDir(), "connections.yaml")
		writeDoc(t, path, entries)
		return File(path)
	})
}

func TestChainSource(t *testing.T) {
	connconfigtest.RunSourceTests(t, func(t *testing.T, entries map[string]string) connstring.Source {
		return Chain(nil, Map{}, Map(entries))
	})
}

func TestEnvVariableName(t *testing.T) {
	src := Env("")
	cases := map[string]string{
		"Redis":         "REDIS_CONNECTION_STRING_REDIS",
		"session-cache": "REDIS_CONNECTION_STRING_SESSION_CACHE",
		"a.b:c1":        "REDIS_CONNECTION_STRING_A_B_C1",
	}
	for name, want := range cases {
		if got := src.Variable(name); got != want {
			t.Errorf("Variable(%q) = %q, want %q", name, got, want)
		}
	}
}

type errSource struct{ err error }

func (e errSource) Lookup(string) (string, bool, error) { return "", false, e.err }

func TestChainPrecedence(t *testing.T) {
	c := Chain(Map{"Redis": "HOST=first"}, Map{"Redis": "HOST=second", "Other": "HOST=other"})
	if v, _, _ := c.Lookup("Redis"); v != "HOST=first" {
		t.Fatalf("expected first source to win, got %q", v)
	}
	if v, ok, _ := c.Lookup("Other"); !ok || v != "HOST=other" {
		t.Fatalf("expected fallback to second source, got %q (%v)", v, ok)
	}

	boom := errors.New("boom")
	c = Chain(errSource{boom}, Map{"Redis": "HOST=x"})
	if _, _, err := c.Lookup("Redis"); !errors.Is(err, boom) {
		t.Fatalf("expected read error to stop the chain, got %v", err)
	}
}

func TestFileErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("Missing", func(t *testing.T) {
		_, err := connstring.FromSource(File(filepath.Join(dir, "nope.yaml")), "Redis")
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected not-exist error, got %v", err)
		}
		var cfgErr *connstring.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigError, got %T", err)
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("connectionStrings: [unterminated"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, _, err := File(path).Lookup("Redis"); err == nil {
			t.Fatalf("expected parse error")
		}
	})

	t.Run("EmptyDocument", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatal(err)
		}
		_, ok, err := File(path).Lookup("Redis")
		if err != nil || ok {
			t.Fatalf("expected not found without error, got ok=%v err=%v", ok, err)
		}
	})
}

func TestFileInvalidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connections.yaml")
	writeDoc(t, path, map[string]string{"Redis": "HOST=old"})

	src := File(path)
	if v, _, _ := src.Lookup("Redis"); v != "HOST=old" {
		t.Fatalf("got %q", v)
	}

	writeDoc(t, path, map[string]string{"Redis": "HOST=new"})
	if v, _, _ := src.Lookup("Redis"); v != "HOST=old" {
		t.Fatalf("expected cached value before invalidation, got %q", v)
	}

	src.Invalidate()
	if v, _, _ := src.Lookup("Redis"); v != "HOST=new" {
		t.Fatalf("expected reloaded value, got %q", v)
	}
}

func TestFileWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connections.yaml")
	writeDoc(t, path, map[string]string{"Redis": "HOST=old"})

	src := File(path)
	if v, _, _ := src.Lookup("Redis"); v != "HOST=old" {
		t.Fatalf("got %q", v)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Watch(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		writeDoc(t, path, map[string]string{"Redis": "HOST=new"})
		time.Sleep(50 * time.Millisecond)
		if v, _, _ := src.Lookup("Redis"); v == "HOST=new" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("file change was not observed")
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("watch did not stop after cancel")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("REDIS_SESSION_CONFIG_FILE", "")
		t.Setenv("REDIS_CONNECTION_STRING_PREFIX", "")
		t.Setenv("REDIS_SESSION_NAME", "")
		cfg, err := FromEnv()
		if err != nil {
			t.Fatalf("FromEnv: %v", err)
		}
		if cfg.Name != DefaultName || cfg.EnvPrefix != DefaultEnvPrefix || cfg.File != "" {
			t.Fatalf("unexpected config %+v", cfg)
		}
		if _, ok := cfg.Source().(*EnvSource); !ok {
			t.Fatalf("expected env-only source, got %T", cfg.Source())
		}
	})

	t.Run("Unset", func(t *testing.T) {
		for _, name := range []string{"REDIS_SESSION_CONFIG_FILE", "REDIS_CONNECTION_STRING_PREFIX", "REDIS_SESSION_NAME"} {
			t.Setenv(name, "")
			if err := os.Unsetenv(name); err != nil {
				t.Fatal(err)
			}
		}
		cfg, err := FromEnv()
		if err != nil {
			t.Fatalf("FromEnv: %v", err)
		}
		// The struct tag defaults and the package constants must agree.
		if cfg.Name != DefaultName || cfg.EnvPrefix != DefaultEnvPrefix {
			t.Fatalf("unexpected config %+v", cfg)
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "c.yaml")
		writeDoc(t, path, map[string]string{"Cache": "HOST=from-file"})
		t.Setenv("REDIS_SESSION_CONFIG_FILE", path)
		t.Setenv("REDIS_CONNECTION_STRING_PREFIX", "MYAPP_")
		t.Setenv("REDIS_SESSION_NAME", "Cache")
		t.Setenv("MYAPP_OTHER", "HOST=from-env")

		cfg, err := FromEnv()
		if err != nil {
			t.Fatalf("FromEnv: %v", err)
		}
		if cfg.Name != "Cache" || cfg.EnvPrefix != "MYAPP_" || cfg.File != path {
			t.Fatalf("unexpected config %+v", cfg)
		}

		src := cfg.Source()
		if v, ok, err := src.Lookup("Cache"); err != nil || !ok || v != "HOST=from-file" {
			t.Fatalf("file lookup: %q %v %v", v, ok, err)
		}
		if v, ok, err := src.Lookup("Other"); err != nil || !ok || v != "HOST=from-env" {
			t.Fatalf("env fallback: %q %v %v", v, ok, err)
		}
	})
}
