package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ggoodman/redis-session-go/redisconn/redisconntest"
)

func TestRun(t *testing.T) {
	srv := redisconntest.NewServer(t)
	t.Setenv("REDIS_SESSION_CONFIG_FILE", "")
	t.Setenv("REDIS_CONNECTION_STRING_PREFIX", "RUN_TEST_")
	t.Setenv("RUN_TEST_REDIS", srv.ConnectionString())
	t.Setenv("RUN_TEST_DOWN", fmt.Sprintf("HOST=127.0.0.1;PORT=%d;SYNCTIMEOUT=2000", redisconntest.ClosedPort(t)))
	t.Setenv("OTHER_REDIS", srv.ConnectionString())

	cases := []struct {
		name string
		args []string
		want int
	}{
		{"available", []string{"--ping"}, 0},
		{"unreachable", []string{"--name", "Down"}, 1},
		{"missing", []string{"-n", "Nope"}, 1},
		{"prefix override", []string{"--prefix", "OTHER_"}, 0},
		{"bad flag", []string{"--bogus"}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"redis-session"}, tc.args...)
			if got := run(args, io.Discard, io.Discard); got != tc.want {
				t.Fatalf("run(%v) = %d, want %d", tc.args, got, tc.want)
			}
		})
	}
}

func TestRunWithConfigFile(t *testing.T) {
	srv := redisconntest.NewServer(t)
	path := filepath.Join(t.TempDir(), "redis.yaml")
	doc := fmt.Sprintf("connectionStrings:\n  Cache: %q\n", srv.ConnectionString())
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	var stderr bytes.Buffer
	args := []string{"redis-session", "--config", path, "--name", "Cache", "-V"}
	if got := run(args, io.Discard, &stderr); got != 0 {
		t.Fatalf("run = %d, want 0; stderr:\n%s", got, stderr.String())
	}
	if srv.Count("ping") != 1 {
		t.Fatalf("expected the session to open against the file's server, got %v", srv.Commands())
	}
	if !strings.Contains(stderr.String(), `"msg":"redis available"`) {
		t.Fatalf("missing availability log:\n%s", stderr.String())
	}
}

func TestRunPrintsMetrics(t *testing.T) {
	t.Setenv("REDIS_SESSION_CONFIG_FILE", "")
	t.Setenv("REDIS_CONNECTION_STRING_PREFIX", "METRICS_TEST_")
	t.Setenv("METRICS_TEST_REDIS", fmt.Sprintf("HOST=127.0.0.1;PORT=%d;SYNCTIMEOUT=2000", redisconntest.ClosedPort(t)))

	var stdout bytes.Buffer
	if got := run([]string{"redis-session", "--metrics"}, &stdout, io.Discard); got != 1 {
		t.Fatalf("run = %d, want 1", got)
	}
	for _, want := range []string{
		"redis_session_connections_created_total 1",
		`redis_session_connection_failures_total{stage="open"} 1`,
		"redis_session_unavailable_total 1",
	} {
		if !strings.Contains(stdout.String(), want) {
			t.Fatalf("metrics output missing %q:\n%s", want, stdout.String())
		}
	}
}
