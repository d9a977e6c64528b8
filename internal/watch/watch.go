// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watch reacts to report files dropped into a directory by other
// scouts. Each created or rewritten .md or .json file is handed to a
// handler once its writes have settled.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultSettle is how long a file must be quiet before it is handled.
const DefaultSettle = 500 * time.Millisecond

// Handler processes one report file. Errors are logged; the watcher keeps
// running.
type Handler func(ctx context.Context, path string) error

// Options tunes a Watcher.
type Options struct {
	Settle time.Duration
	Logger *zap.Logger
}

// Watcher watches one directory, non-recursively.
type Watcher struct {
	dir    string
	handle Handler
	settle time.Duration
	log    *zap.Logger
}

// New returns a Watcher for dir.
func New(dir string, h Handler, opts Options) *Watcher {
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Watcher{dir: dir, handle: h, settle: opts.Settle, log: opts.Logger}
}

// Run blocks until ctx is done, handling report files as they appear.
// It returns nil on cancellation and an error only when the directory
// cannot be watched.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.log.Info("watching for reports", zap.String("dir", w.dir))

	tick := time.NewTicker(w.settle / 4)
	defer tick.Stop()

	// Last event time per path, waiting to settle.
	pending := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !IsReportFile(ev.Name) {
				continue
			}
			pending[ev.Name] = time.Now()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))

		case now := <-tick.C:
			for path, last := range pending {
				if now.Sub(last) < w.settle {
					continue
				}
				delete(pending, path)
				if err := w.handle(ctx, path); err != nil {
					w.log.Warn("report not handled", zap.String("path", path), zap.Error(err))
				}
			}
		}
	}
}

// IsReportFile reports whether name looks like a finished report: a .md or
// .json file that is neither hidden nor a temp file.
func IsReportFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".md", ".json":
		return true
	}
	return false
}
