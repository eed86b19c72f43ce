package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestInfoWritesJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, "info")
	t.Cleanup(func() { Configure(os.Stdout, "info") })

	Info("roadmap.generated", map[string]any{
		"roadmap_id": "rm-1",
		"stages":     3,
		"err":        errors.New("boom"),
	})

	line := strings.TrimSpace(buf.String())
	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("decode log json: %v (%q)", err, line)
	}
	if payload["msg"] != "roadmap.generated" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if payload["level"] != "info" {
		t.Fatalf("unexpected level: %v", payload["level"])
	}
	if payload["roadmap_id"] != "rm-1" {
		t.Fatalf("unexpected roadmap_id: %v", payload["roadmap_id"])
	}
	if payload["err"] != "boom" {
		t.Fatalf("expected error rendered as string, got %v", payload["err"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("missing ts")
	}
}

func TestLevelFiltersLowerEntries(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, "error")
	t.Cleanup(func() { Configure(os.Stdout, "info") })

	Info("dropped", nil)
	Warn("dropped too", nil)
	Error("kept", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"kept"`) {
		t.Fatalf("unexpected line: %s", lines[0])
	}
}
