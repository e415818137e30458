package connconfig

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/ggoodman/redis-session-go/connstring"
	"gopkg.in/yaml.v3"
)

// fileDocument is the on-disk YAML layout.
type fileDocument struct {
	ConnectionStrings map[string]string `yaml:"connectionStrings"`
}

// FileSource resolves names from a YAML file. The file is parsed on first
// lookup and cached until Invalidate is called or Watch observes a change.
type FileSource struct {
	path string
	log  *slog.Logger

	mu      sync.Mutex
	entries map[string]string
	loaded  bool
}

// FileOption customizes a FileSource.
type FileOption func(*FileSource)

// WithFileLogger overrides the logger used by Watch.
func WithFileLogger(l *slog.Logger) FileOption {
	return func(f *FileSource) {
		if l != nil {
			f.log = l
		}
	}
}

// File returns a source backed by the YAML document at path. The file is not
// read until the first lookup.
func File(path string, opts ...FileOption) *FileSource {
	f := &FileSource{path: path, log: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the file the source reads.
func (f *FileSource) Path() string { return f.path }

// Lookup implements connstring.Source. A missing or malformed file is reported
// as an error rather than as an unknown name.
func (f *FileSource) Lookup(name string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.loaded {
		entries, err := readFile(f.path)
		if err != nil {
			return "", false, err
		}
		f.entries = entries
		f.loaded = true
	}

	v, ok := f.entries[name]
	return v, ok, nil
}

// Invalidate drops the cached document so the next lookup re-reads the file.
func (f *FileSource) Invalidate() {
	f.mu.Lock()
	f.entries = nil
	f.loaded = false
	f.mu.Unlock()
}

// Watch invalidates the cache whenever the file is written, created, renamed
// or removed. It blocks until ctx is done. The parent directory is watched so
// that editors replacing the file atomically are picked up.
func (f *FileSource) Watch(ctx context.Context) error {
	abs, err := filepath.Abs(f.path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", f.path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() {
		_ = w.Close()
	}()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			f.Invalidate()
			f.log.DebugContext(ctx, "connection strings file changed",
				slog.String("path", abs),
				slog.String("op", ev.Op.String()),
			)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			f.log.DebugContext(ctx, "fsnotify error", slog.String("err", err.Error()))
		}
	}
}

func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read connection strings: %w", err)
	}
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse connection strings %s: %w", path, err)
	}
	if doc.ConnectionStrings == nil {
		doc.ConnectionStrings = map[string]string{}
	}
	return doc.ConnectionStrings, nil
}

var _ connstring.Source = (*FileSource)(nil)
