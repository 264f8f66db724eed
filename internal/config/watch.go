// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// CONFIG WATCHER
// =============================================================================

// DefaultWatchDebounce is how long Watch waits after the last write before
// reloading. Editors often write a file in several steps.
const DefaultWatchDebounce = 150 * time.Millisecond

// Watcher reloads a config file when it changes on disk.
type Watcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	onChange func(*Config)
	onError  func(error)

	mu    sync.Mutex
	timer *time.Timer
}

// Watch starts watching path and calls onChange with each successfully
// reloaded configuration. Reload failures go to onError when it is non-nil.
// Watching stops when ctx is done.
//
// The parent directory is watched rather than the file itself so the watch
// survives editors and AtomicWriteFile replacing the file by rename.
func Watch(ctx context.Context, path string, onChange func(*Config), onError func(error)) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}

	w := &Watcher{
		path:     absPath,
		debounce: DefaultWatchDebounce,
		watcher:  fsw,
		onChange: onChange,
		onError:  onError,
	}
	go w.processEvents(ctx)
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.reportError(err)
		}
	}
}

// schedule restarts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := LoadFromPath(w.path)
	if err != nil {
		w.reportError(err)
		return
	}
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

func (w *Watcher) reportError(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}
