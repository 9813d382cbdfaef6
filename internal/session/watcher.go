/*-------------------------------------------------------------------------
 *
 * Session Identity File Watcher
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package session

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"pgedge-dbchat/internal/logging"
)

// Watcher watches the session identity file for changes made outside this
// process and triggers a reload callback
type Watcher struct {
	watcher  *fsnotify.Watcher
	filePath string
	reloadFn func() error
	done     chan bool
}

// NewWatcher creates a watcher for the identity file. The callback runs
// debounced, after the file has settled.
func NewWatcher(filePath string, reloadFn func() error) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		watcher:  watcher,
		filePath: filePath,
		reloadFn: reloadFn,
		done:     make(chan bool),
	}

	// Watch the directory containing the file (not the file itself)
	// because the manager replaces the file via rename on every rotate
	dir := filepath.Dir(filePath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	return w, nil
}

// Start begins watching for file changes
func (w *Watcher) Start() {
	go w.watch()
}

// Stop stops watching for file changes
func (w *Watcher) Stop() {
	close(w.done)
	w.watcher.Close()
}

// watch monitors file events and triggers reloads
func (w *Watcher) watch() {
	// Debounce timer to avoid multiple reloads for rapid changes
	var debounceTimer *time.Timer
	debounceDuration := 100 * time.Millisecond

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// Only process events for our specific file
			if event.Name != w.filePath {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					if err := w.reloadFn(); err != nil {
						logging.Warn("Failed to reload session identity", "path", w.filePath, "error", err.Error())
					} else {
						logging.Info("Reloaded session identity", "path", w.filePath)
					}
				})
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("Session watcher error", "path", w.filePath, "error", err.Error())

		case <-w.done:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		}
	}
}
