package watchmsg //nolint:testpackage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestVerbose(t *testing.T) { //nolint:paralleltest
	Verbose(func(fmt string, args ...interface{}) {})
}

func TestNew(t *testing.T) { //nolint:paralleltest
	if _, err := New("/non/existent/directory", time.Hour, time.Hour); err == nil {
		t.Fatalf("New() = nil, want error for a non-existent directory")
	}
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o666); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if _, err := New(file, time.Hour, time.Hour); err == nil {
		t.Fatalf("New() = nil, want error for a non-directory")
	}
	if _, err := New(t.TempDir(), time.Hour, time.Hour); err != nil {
		t.Fatalf("New() = %v, want nil", err)
	}
}

func TestWatchAndNotify(t *testing.T) { //nolint:paralleltest
	spool := t.TempDir()
	watcher, err := New(spool, time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("New() = %v, want nil", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- watcher.WatchAndNotify(ctx)
	}()
	// Give the watch a moment to establish before dropping files.
	time.Sleep(200 * time.Millisecond)

	ignored := filepath.Join(spool, "message.tmp")
	if err := os.WriteFile(ignored, []byte("ignored"), 0o666); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	message := filepath.Join(spool, "message.json")
	if err := os.WriteFile(message, []byte(`{"location": "s3://b/k", "survey": "s", "period": "p"}`), 0o666); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	select {
	case event := <-watcher.WatchChan():
		if event.Path != message {
			t.Fatalf("notified about %v, want %v", event.Path, message)
		}
		if event.Missed {
			t.Fatalf("event marked missed, want a live notification")
		}
	case <-ctx.Done():
		t.Fatalf("no notification for %v", message)
	}

	// After acknowledgment, rewriting the same pathname notifies again.
	watcher.WatchAckChan() <- []string{message}
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(message, []byte(`{}`), 0o666); err != nil {
		t.Fatalf("failed to rewrite file: %v", err)
	}
	select {
	case event := <-watcher.WatchChan():
		if event.Path != message {
			t.Fatalf("notified about %v, want %v", event.Path, message)
		}
	case <-ctx.Done():
		t.Fatalf("no notification after acknowledgment for %v", message)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("WatchAndNotify() = %v, want nil", err)
	}
}

func TestFindMissed(t *testing.T) { //nolint:paralleltest
	spool := t.TempDir()
	// Drop the message file before the watch is established so only
	// the missed-file scan can find it.
	message := filepath.Join(spool, "missed.json")
	if err := os.WriteFile(message, []byte(`{}`), 0o666); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	watcher, err := New(spool, 10*time.Millisecond, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("New() = %v, want nil", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go watcher.WatchAndNotify(ctx) //nolint:errcheck

	select {
	case event := <-watcher.WatchChan():
		if event.Path != message || !event.Missed {
			t.Fatalf("got %+v, want a missed notification for %v", event, message)
		}
	case <-ctx.Done():
		t.Fatalf("missed file %v was never found", message)
	}
}
