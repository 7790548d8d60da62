package study

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWatchArtifactLogsRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "study_time_model.json")
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	core, logs := observer.New(zap.InfoLevel)
	watcher, err := WatchArtifact(path, zap.New(core))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer watcher.Close()

	if err := os.Remove(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if logs.FilterMessageSnippet("removed").Len() > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected a removal log entry")
}
