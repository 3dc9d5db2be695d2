package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogger_WritesLevelsToFilesAndConsole(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer

	l := NewWithWriters(dir, &out, &errOut)
	defer l.Close()

	l.Info("frames processed: %d", 42)
	l.Warning("face skipped at %s", "edge")
	l.Error("model failed: %v", "boom")

	if !strings.Contains(out.String(), "frames processed: 42") {
		t.Errorf("Expected info on console, got %q", out.String())
	}
	if !strings.Contains(out.String(), "face skipped at edge") {
		t.Errorf("Expected warning on console, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "model failed: boom") {
		t.Errorf("Expected error on error console, got %q", errOut.String())
	}

	files := map[string]string{
		"info.log":    "frames processed: 42",
		"warning.log": "face skipped at edge",
		"error.log":   "model failed: boom",
	}
	for name, want := range files {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("Failed to read %s: %v", name, err)
		}
		if !strings.Contains(string(data), want) {
			t.Errorf("%s: expected %q, got %q", name, want, string(data))
		}
	}
}

func TestLogger_CleanLogs(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	l := NewWithWriters(dir, &out, &out)
	defer l.Close()

	l.Warning("something odd")
	l.CleanLogs("warning.log")

	data, err := os.ReadFile(filepath.Join(dir, "warning.log"))
	if err != nil {
		t.Fatalf("Failed to read warning.log: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected empty warning.log after clean, got %q", string(data))
	}
}
