package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	if _, err := NewLogger(Config{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewLoggerWritesRotatingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scribe.log")
	log, err := NewLogger(Config{Level: "debug", Format: "json", Timezone: "UTC", Filename: path})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	log.Info("hello")
	_ = log.Sync()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat log file: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("expected log file to contain data")
	}
}
