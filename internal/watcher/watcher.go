// Package watcher turns file system events under a directory tree into
// analyzer changes and signals when the tree has been quiet long enough
// to commit.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nahidhasan98/autocommit/internal/analyzer"
	"github.com/nahidhasan98/autocommit/internal/logger"
)

// Options configures a Watcher
type Options struct {
	// Delay is the quiet period after the last event before OnQuiet runs
	Delay time.Duration
	// IgnorePatterns are matched against every segment of a path
	IgnorePatterns []string
	// OnChange receives every relevant event, relative to the root
	OnChange func(path string, kind analyzer.Kind)
	// OnQuiet runs once the tree has been quiet for Delay. It runs off the
	// event loop; at most one call is in flight, and a quiet period that
	// ends while one is running queues exactly one more call.
	OnQuiet func(ctx context.Context)
}

// Watcher watches a directory tree recursively
type Watcher struct {
	root   string
	opts   Options
	fsw    *fsnotify.Watcher
	ignore Matcher
	log    *logger.Logger
}

// New creates a watcher for root. Call Run to start it.
func New(root string, opts Options, log *logger.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve watch path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("watch path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch path %s is not a directory", abs)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	if log == nil {
		log = logger.Nop()
	}
	if opts.OnChange == nil {
		opts.OnChange = func(string, analyzer.Kind) {}
	}

	return &Watcher{
		root:   abs,
		opts:   opts,
		fsw:    fsw,
		ignore: NewMatcher(opts.IgnorePatterns),
		log:    log.Component("watcher"),
	}, nil
}

// Root returns the absolute watch root
func (w *Watcher) Root() string {
	return w.root
}

// Run watches until ctx is done. It always closes the underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	w.log.Infof("Watching %s (commit delay %s)", w.root, w.opts.Delay)

	deb := NewDebouncer(w.opts.Delay)
	defer deb.Stop()

	var (
		wg      sync.WaitGroup
		running bool
		queued  bool
		settled = make(chan struct{}, 1)
	)
	defer wg.Wait()

	quiet := func() {
		running = true
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.opts.OnQuiet(ctx)
			settled <- struct{}{}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-deb.C():
			if w.opts.OnQuiet == nil {
				continue
			}
			if running {
				queued = true
				continue
			}
			quiet()

		case <-settled:
			running = false
			if queued {
				queued = false
				quiet()
			}

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(event) {
				deb.Trigger()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.WarnErr("File watcher error", err)
		}
	}
}

// handle forwards one event and reports whether it counted as a change
func (w *Watcher) handle(event fsnotify.Event) bool {
	rel, ok := w.relative(event.Name)
	if !ok || rel == "" || w.ignore.Match(rel) {
		return false
	}

	switch {
	case event.Has(fsnotify.Create):
		if isDir(event.Name) {
			// Files moved in with the directory never get their own events
			if err := w.addRecursive(event.Name); err != nil {
				w.log.WarnErr("Failed to watch new directory", err)
			}
			return w.reportFiles(event.Name) > 0
		}
		w.opts.OnChange(rel, analyzer.KindCreated)
	case event.Has(fsnotify.Write):
		if isDir(event.Name) {
			return false
		}
		w.opts.OnChange(rel, analyzer.KindModified)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.opts.OnChange(rel, analyzer.KindDeleted)
	default:
		// chmod only
		return false
	}

	w.log.Debugf("%s %s", event.Op, rel)
	return true
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.relative(path); ok && rel != "" && w.ignore.Match(rel) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) reportFiles(dir string) int {
	n := 0
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, ok := w.relative(path)
		if !ok || w.ignore.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			w.opts.OnChange(rel, analyzer.KindCreated)
			n++
		}
		return nil
	})
	return n
}

// relative maps an absolute event path onto a slash separated path under root
func (w *Watcher) relative(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "", true
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
