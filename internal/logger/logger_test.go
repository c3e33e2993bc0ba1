package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"framecheck/internal/config"
)

func TestWriterLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)

	l.Info("frame %d analyzed", 7)
	l.Warning("queue full")
	l.Error("kernel failed: %v", "boom")

	out := buf.String()
	for _, want := range []string{"INFO", "frame 7 analyzed", "WARNING", "queue full", "ERROR", "kernel failed: boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got: %s", want, out)
		}
	}
	if !strings.Contains(out, "logger_test.go") {
		t.Errorf("Expected caller file in output, got: %s", out)
	}
}

func TestFileLogger_WritesAndCleans(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l, err := NewLogger(&config.Config{LogDirectory: dir})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer l.Close()

	l.Warning("dark frame")

	data, err := os.ReadFile(filepath.Join(dir, "warning.log"))
	if err != nil {
		t.Fatalf("Failed to read warning.log: %v", err)
	}
	if !strings.Contains(string(data), "dark frame") {
		t.Errorf("Expected warning.log to contain entry, got: %s", data)
	}

	if err := l.CleanLogs("warning.log"); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "warning.log"))
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("Expected empty warning.log after clean, got %d bytes", info.Size())
	}
}
