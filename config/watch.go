package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joyautomation/synapse-go/log"
)

// debounce coalesces bursts of filesystem events (many editors write a file
// by renaming a temp file over it, which fires Create+Remove+Write in quick
// succession) into a single reload.
const debounce = 200 * time.Millisecond

// Watch watches filename (or, if filename is a directory, the directory
// itself) for changes and invokes onChange with the freshly loaded Config
// each time the file is modified. Watch blocks until ctx is canceled or the
// watcher fails to start, closing the watcher before it returns.
//
// Watch is best-effort: a reload that fails to parse is logged and skipped,
// keeping the previously loaded Config in effect rather than tearing down a
// running node or host over a transient editor save.
func Watch(ctx context.Context, filename string, onChange func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir, isDir := filepath.Dir(filename), false
	if info, err := os.Stat(filename); err == nil && info.IsDir() {
		dir, isDir = filename, true
	}
	if err := w.Add(dir); err != nil {
		return err
	}

	log.Debug("Watching config", "path", filename)

	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}

			return nil
		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if isDir {
				if filepath.Dir(filepath.Clean(e.Name)) != filepath.Clean(dir) {
					break
				}
			} else if filepath.Clean(e.Name) != filepath.Clean(filename) {
				break
			}
			if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
				break
			}

			if timer == nil {
				timer = time.AfterFunc(debounce, func() {
					select {
					case reload <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(debounce)
			}
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}

			log.Error("Config watcher error", werr)
		case <-reload:
			cfg, err := Load(filename)
			if err != nil {
				log.Error("Failed to reload config", err, "path", filename)
				break
			}

			onChange(cfg)
		}
	}
}
