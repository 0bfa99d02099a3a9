// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config file when it changes on disk and hands each
// valid reload to a callback. Long-running commands (serve) use this so a
// typing-delay or log-level edit takes effect without a restart.
//
// Start should only be called once.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	callback func(Config)
}

// NewWatcher creates a watcher for the config file at path. The callback
// receives every successfully loaded and validated config; invalid edits are
// logged and skipped, keeping the last good config in effect.
func NewWatcher(path string, callback func(Config)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		path:     path,
		watcher:  watcher,
		callback: callback,
	}, nil
}

// Start begins watching for config changes. Blocks until the context is
// cancelled; run it in a goroutine.
func (w *Watcher) Start(ctx context.Context) {
	defer w.watcher.Close()

	// Watch the directory, not the file: editors replace files on save,
	// which drops a direct file watch.
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		slog.Warn("Failed to watch config directory",
			"dir", dir,
			"error", err)
		return
	}

	slog.Debug("Started watching config",
		"path", w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Config watcher error",
				"error", err)

		case <-ctx.Done():
			slog.Debug("Config watcher stopping")
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	cfg, err := Load(w.path)
	if err != nil {
		slog.Warn("Ignoring invalid config reload",
			"path", w.path,
			"error", err)
		return
	}

	slog.Info("Config reloaded",
		"path", w.path)
	w.callback(cfg)
}
