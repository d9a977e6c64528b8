// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (r *recorder) handle(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return r.err
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// start runs w in the background and returns a stop function that waits
// for Run to return.
func start(t *testing.T, w *Watcher) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	// Give fsnotify time to register the directory.
	time.Sleep(100 * time.Millisecond)
	return func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
}

func TestWatcherHandlesReportFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	rec := &recorder{}
	stop := start(t, New(dir, rec.handle, Options{Settle: 50 * time.Millisecond}))

	report := filepath.Join(dir, "twitter-2026-03-15.md")
	require.NoError(t, os.WriteFile(report, []byte("# Report\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".draft.md"), []byte("x"), 0o644))

	assert.Eventually(t, func() bool { return len(rec.seen()) > 0 }, 3*time.Second, 20*time.Millisecond)
	stop()

	assert.Equal(t, []string{report}, rec.seen(), "create and write events collapse into one call")
}

func TestWatcherKeepsRunningAfterHandlerError(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	core, logs := observer.New(zap.WarnLevel)
	rec := &recorder{err: errors.New("tracker down")}
	stop := start(t, New(dir, rec.handle, Options{Settle: 50 * time.Millisecond, Logger: zap.New(core)}))

	first := filepath.Join(dir, "a.json")
	require.NoError(t, os.WriteFile(first, []byte("{}"), 0o644))
	assert.Eventually(t, func() bool { return len(rec.seen()) == 1 }, 3*time.Second, 20*time.Millisecond)

	second := filepath.Join(dir, "b.md")
	require.NoError(t, os.WriteFile(second, []byte("# B\n"), 0o644))
	assert.Eventually(t, func() bool { return len(rec.seen()) == 2 }, 3*time.Second, 20*time.Millisecond)
	stop()

	assert.Equal(t, []string{first, second}, rec.seen())
	assert.Equal(t, 2, logs.FilterMessage("report not handled").Len())
}

func TestWatcherMissingDir(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := New(filepath.Join(t.TempDir(), "missing"), func(context.Context, string) error { return nil }, Options{})
	err := w.Run(context.Background())
	require.Error(t, err)
}

func TestIsReportFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"reports/journal-report-2026-03-15.md", true},
		{"analysis.JSON", true},
		{"reports/.report-123.tmp", false},
		{".hidden.md", false},
		{"report.md~", false},
		{"notes.txt", false},
		{"README", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsReportFile(tt.name))
		})
	}
}
