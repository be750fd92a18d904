// Package watch reloads a deck document when it changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zeusync/xiuli/internal/core/deck"
	"github.com/zeusync/xiuli/internal/core/observability/log"
)

const DefaultDebounce = 200 * time.Millisecond

// ReloadFunc receives every deck that loaded cleanly after a change.
type ReloadFunc func(d *deck.Deck) error

var ErrNilReload = errors.New("nil reload func")

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Reloads       int
	Errors        int
	LastEventTime time.Time
	LastEventOp   string
}

// DeckWatcher watches a single deck file. The parent directory is watched
// rather than the file so that editors which save by rename keep working.
type DeckWatcher struct {
	mu       sync.Mutex
	path     string
	reload   ReloadFunc
	debounce time.Duration
	logger   log.Log

	pendingSince time.Time
	stats        Stats
}

type Option func(*DeckWatcher)

// WithDebounce sets how long the file must stay quiet before a reload.
func WithDebounce(d time.Duration) Option {
	return func(w *DeckWatcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func WithLogger(l log.Log) Option {
	return func(w *DeckWatcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewDeckWatcher creates a watcher for the deck at path.
func NewDeckWatcher(path string, reload ReloadFunc, opts ...Option) (*DeckWatcher, error) {
	if reload == nil {
		return nil, ErrNilReload
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &DeckWatcher{
		path:     abs,
		reload:   reload,
		debounce: DefaultDebounce,
		logger:   log.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *DeckWatcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err = fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching deck", log.String("path", w.path), log.Duration("debounce", w.debounce))

	tick := w.debounce / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("deck watcher error", log.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.processDebounced()
		}
	}
}

func (w *DeckWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	// chmod and remove alone leave nothing new to load
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}

	w.logger.Debug("deck changed", log.String("op", event.Op.String()))

	w.mu.Lock()
	now := time.Now()
	w.stats.Events++
	w.stats.LastEventTime = now
	w.stats.LastEventOp = event.Op.String()
	w.pendingSince = now
	w.mu.Unlock()
}

func (w *DeckWatcher) processDebounced() {
	w.mu.Lock()
	if w.pendingSince.IsZero() || time.Since(w.pendingSince) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pendingSince = time.Time{}
	w.mu.Unlock()

	d, err := deck.LoadFile(w.path)
	if err == nil {
		err = w.reload(d)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		// a half-saved file is common; keep presenting the previous deck
		w.logger.Warn("deck reload failed", log.String("path", w.path), log.Error(err))
		w.stats.Errors++
		return
	}
	w.stats.Reloads++
	w.logger.Info("deck reloaded", log.String("path", w.path), log.Int("slides", len(d.Slides)))
}

// Stats returns a snapshot of watcher activity.
func (w *DeckWatcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Path is the absolute path being watched.
func (w *DeckWatcher) Path() string {
	return w.path
}
