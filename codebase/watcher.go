package codebase

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
)

// Watcher reports changed Java sources under a set of directories. Events
// are collected until no new one arrives for the debounce period.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

func NewWatcher(dirs []string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create file watcher")
	}
	w := &Watcher{watcher: fw, debounce: debounce}
	for _, dir := range dirs {
		if err := w.addRecursive(dir); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return errors.Wrapf(err, "watch %s", path)
		}
		return nil
	})
}

func relevant(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".java", ".zip", ".jar":
		return true
	}
	return false
}

// Run calls onChange with the sorted list of changed files after every
// quiet period, until ctx is done. It closes the watcher on return.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	defer w.watcher.Close()

	pending := map[string]bool{}
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						log.Warningf("%s", err)
					}
					continue
				}
			}
			if event.Op == fsnotify.Chmod || !relevant(event.Name) {
				continue
			}
			pending[event.Name] = true
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = map[string]bool{}
			log.Debugf("%d files changed", len(paths))
			onChange(paths)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Errorf("file watcher: %s", err)
		}
	}
}
