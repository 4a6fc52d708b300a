package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_ConsoleOnly(t *testing.T) {
	log, err := New("info", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("started")
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "standin.log")
	log, err := New("debug", path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("hello from test")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Fatalf("log file missing entry: %s", data)
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New("loud", ""); err == nil {
		t.Fatal("expected error for invalid level")
	}
}
