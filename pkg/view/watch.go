package view

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch invalidates cached templates when their files change on disk. It
// blocks until ctx is cancelled and is meant to run in its own goroutine
// alongside the server during development.
func (e *Engine) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	for _, dir := range []string{e.views, e.layouts} {
		if err := watchDirRecursive(watcher, dir); err != nil {
			e.logger.Error("failed to watch template directory", "dir", dir, "error", err)
			// Keep serving from the cache without watching.
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != ".html" {
				continue
			}
			e.logger.Debug("template changed, invalidating", "file", event.Name)
			e.cache.invalidate(event.Name)

		case err := <-watcher.Errors:
			e.logger.Error("watcher error", "error", err)
		}
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
