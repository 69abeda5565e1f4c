// Package spool applies event payloads dropped into a directory.
//
// Producers should write a payload under a temporary name and rename it
// to *.json once complete. Each payload is applied once, then renamed
// to *.json.done or *.json.failed.
package spool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/discussion-sync/internal/adapters/driving/event"
	"github.com/custodia-labs/discussion-sync/internal/core/domain"
	"github.com/custodia-labs/discussion-sync/internal/core/ports/driving"
	"github.com/custodia-labs/discussion-sync/internal/logger"
)

const (
	// PayloadExt marks files waiting to be applied.
	PayloadExt = ".json"

	// DoneExt is appended to payloads applied successfully.
	DoneExt = ".done"

	// FailedExt is appended to payloads that could not be applied.
	FailedExt = ".failed"

	// DefaultSettle is how long a payload must be quiet before it is read.
	DefaultSettle = 200 * time.Millisecond
)

// Result reports what happened to one payload.
type Result struct {
	// Path is the payload path before it was renamed.
	Path string

	// Outcome is set when the engine accepted the event.
	Outcome *domain.Outcome

	// Err is set when the payload failed.
	Err error
}

// Options configures a Watcher.
type Options struct {
	// Settle delays processing until a payload has stopped changing.
	Settle time.Duration

	// OnResult, if set, is called after each payload is processed.
	OnResult func(Result)
}

// Watcher feeds spool payloads to a Syncer, one at a time.
type Watcher struct {
	dir    string
	syncer driving.Syncer
	opts   Options

	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string
	done    chan struct{}
}

// New creates a watcher over dir.
func New(dir string, syncer driving.Syncer, opts Options) *Watcher {
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	return &Watcher{
		dir:     dir,
		syncer:  syncer,
		opts:    opts,
		pending: make(map[string]*time.Timer),
		ready:   make(chan string, 100),
		done:    make(chan struct{}),
	}
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run drains existing payloads in name order, then applies new ones as
// they arrive until ctx is cancelled. A Watcher runs once.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.done)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	// Watch before draining so nothing dropped in between is missed.
	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch spool directory %s: %w", w.dir, err)
	}

	if _, err := w.Drain(ctx); err != nil {
		return err
	}

	logger.Info("Watching %s for event payloads", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if isPayload(ev.Name) && ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.schedule(ev.Name)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Spool watcher error: %v", err)

		case path := <-w.ready:
			w.Process(ctx, path)
		}
	}
}

// Drain applies every payload currently in the directory, in name order.
// It returns the number of payloads processed.
func (w *Watcher) Drain(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("%w: read spool directory: %w", domain.ErrFilesystem, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && isPayload(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		w.Process(ctx, filepath.Join(w.dir, name))
	}
	return len(names), nil
}

// Process applies one payload and renames it by result.
func (w *Watcher) Process(ctx context.Context, path string) Result {
	res := Result{Path: path}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Debug("Payload %s already gone", path)
		return res
	}

	ev, err := event.LoadFile(path)
	if err == nil {
		res.Outcome, err = w.syncer.Apply(ctx, ev)
	}
	res.Err = err

	suffix := DoneExt
	if err != nil {
		suffix = FailedExt
		logger.Error("Payload %s failed: %v", filepath.Base(path), err)
	} else {
		logger.Info("Payload %s: %s %s (%s)",
			filepath.Base(path), res.Outcome.Action, res.Outcome.DiscussionID, res.Outcome.Status)
	}

	if rerr := os.Rename(path, path+suffix); rerr != nil {
		logger.Error("Failed to rename %s: %v", path, rerr)
		if res.Err == nil {
			res.Err = fmt.Errorf("%w: rename payload: %w", domain.ErrFilesystem, rerr)
		}
	}

	if w.opts.OnResult != nil {
		w.opts.OnResult(res)
	}
	return res
}

// schedule (re)arms the settle timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.opts.Settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.opts.Settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func isPayload(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(base, PayloadExt) && !strings.HasPrefix(base, ".")
}
