package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

const testDebounce = 50 * time.Millisecond

// start runs a watcher over dir and returns a channel that receives one value
// per onChange call.
func start(t *testing.T, dir string, ignore ...string) <-chan struct{} {
	t.Helper()
	w, err := New([]string{dir}, testDebounce, ignore...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan struct{}, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, func() { changes <- struct{}{} })
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return changes
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(time.Now().String()), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func waitChange(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}

func expectQuiet(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
		t.Fatal("unexpected change notification")
	case <-time.After(4 * testDebounce):
	}
}

func TestRun_CoalescesBurst(t *testing.T) {
	dir := t.TempDir()
	changes := start(t, dir)

	for i := 0; i < 5; i++ {
		touch(t, filepath.Join(dir, "a.js"))
	}
	waitChange(t, changes)
	expectQuiet(t, changes)
}

func TestRun_SeparateBursts(t *testing.T) {
	dir := t.TempDir()
	changes := start(t, dir)

	touch(t, filepath.Join(dir, "a.js"))
	waitChange(t, changes)
	touch(t, filepath.Join(dir, "b.js"))
	waitChange(t, changes)
}

func TestRun_WatchesNewSubdirectories(t *testing.T) {
	dir := t.TempDir()
	changes := start(t, dir)

	sub := filepath.Join(dir, "components")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	waitChange(t, changes)

	touch(t, filepath.Join(sub, "button.js"))
	waitChange(t, changes)
}

func TestRun_IgnoresOutputDir(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "dist")
	if err := os.Mkdir(out, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	changes := start(t, dir, out)

	touch(t, filepath.Join(out, "bundle.js"))
	expectQuiet(t, changes)
}

func TestRun_SkipsHiddenAndNodeModules(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{".git", "node_modules"} {
		if err := os.Mkdir(filepath.Join(dir, d), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	changes := start(t, dir)

	touch(t, filepath.Join(dir, ".git", "HEAD"))
	touch(t, filepath.Join(dir, "node_modules", "x.js"))
	expectQuiet(t, changes)
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(nil, testDebounce); err == nil {
		t.Error("expected error for no directories")
	}
	if _, err := New([]string{filepath.Join(t.TempDir(), "missing")}, testDebounce); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestWatch_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, []string{t.TempDir()}, testDebounce, func() { calls.Add(1) }) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
	if calls.Load() != 0 {
		t.Errorf("onChange called %d times", calls.Load())
	}
}
