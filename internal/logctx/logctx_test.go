package logctx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestHandlerAddsSessionGroup(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(Handler{Handler: slog.NewJSONHandler(&buf, nil)}).With("component", "test")

	ctx := WithSessionData(context.Background(), &SessionData{SessionID: "abc", Name: "Redis"})
	log.InfoContext(ctx, "hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	sess, _ := rec["sess"].(map[string]any)
	if sess["id"] != "abc" || sess["name"] != "Redis" {
		t.Fatalf("unexpected sess group %v", rec["sess"])
	}
	if rec["component"] != "test" {
		t.Fatalf("WithAttrs lost the wrapper: %v", rec)
	}
}

func TestHandlerWithoutContextData(t *testing.T) {
	var buf bytes.Buffer
	slog.New(Handler{Handler: slog.NewJSONHandler(&buf, nil)}).Info("plain")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := rec["sess"]; ok {
		t.Fatalf("unexpected sess group")
	}
}
