/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

const watchDebounce = 300 * time.Millisecond

// watchFiles calls onChange after any of the given files, or anything in
// the given directories, has changed. Bursts of events within debounce are
// reported once. Files are watched through their parent directory so that
// editors replacing them on save are noticed.
func watchFiles(ctx context.Context, paths []string, debounce time.Duration, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	files := map[string]bool{}
	dirs := map[string]bool{}
	for _, path := range paths {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			watcher.Close()
			return err
		}

		dir := filepath.Dir(abs)
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			dirs[abs] = true
			dir = abs
		} else {
			files[abs] = true
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return err
		}
		log.WithField("path", abs).Debug("Watching for changes")
	}

	relevant := func(name string) bool {
		return files[name] || dirs[name] || dirs[filepath.Dir(name)]
	}

	go func() {
		defer watcher.Close()

		timer := time.NewTimer(debounce)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Chmod) || !relevant(event.Name) {
					continue
				}
				log.WithFields(log.Fields{
					"path": event.Name,
					"op":   event.Op.String(),
				}).Debug("Change detected")
				timer.Reset(debounce)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("File watcher error")
			case <-timer.C:
				log.Info("Rebuilding after change")
				onChange()
			}
		}
	}()

	return nil
}
