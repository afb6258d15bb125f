// SPDX-License-Identifier: MPL-2.0

// Package watch rebuilds a modpack when its inputs change.
//
// A Watcher monitors mod directories and single files (the configuration)
// and invokes a callback after a debounce period. Events within the debounce
// window are coalesced so the callback fires once with the full set of
// changed paths.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// defaultDebounce is the delay before firing the callback after the last
// filesystem event, long enough for archive tools that write then rename.
const defaultDebounce = 500 * time.Millisecond

// defaultIgnores are gitignore patterns that never trigger a rebuild.
var defaultIgnores = []string{
	".git/",
	"*.swp",
	"*.swo",
	"*~",
	"*.tmp",
	".DS_Store",
	"Thumbs.db",
}

// ErrAlreadyRunning is returned by a second call to Watcher.Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Dirs are watched recursively. Reported paths are relative to the
		// directory they belong to.
		Dirs []string

		// Files are watched individually and reported by base name. Other
		// entries of their parent directories are ignored.
		Files []string

		// Ignore are gitignore patterns matched against paths below Dirs,
		// added to the built-in default ignores.
		Ignore []string

		// Exclude are paths never reported, with everything below them.
		// Use it for the staging directory and the output archive.
		Exclude []string

		// Debounce is the quiet period after the last event before the
		// callback fires. Zero or negative values fall back to defaultDebounce.
		Debounce time.Duration

		// OnChange is called after the debounce window closes with the sorted,
		// deduplicated changed paths. A nil callback is a no-op.
		OnChange func(ctx context.Context, changed []string) error

		// Logger defaults to slog.Default().
		Logger *slog.Logger
	}

	// Watcher monitors mod inputs and fires a debounced callback when they
	// change. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		dirs     []string
		files    map[string]bool
		exclude  []string
		ignore   gitignore.Matcher
		logger   *slog.Logger
		debounce time.Duration
		started  atomic.Bool
	}
)

// New creates a Watcher from cfg and registers every directory below
// cfg.Dirs that is not ignored.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Dirs) == 0 && len(cfg.Files) == 0 {
		return nil, errors.New("watch: nothing to watch")
	}

	patterns := slices.Concat(defaultIgnores, cfg.Ignore)
	if err := validatePatterns(patterns); err != nil {
		return nil, err
	}
	ps := make([]gitignore.Pattern, len(patterns))
	for i, p := range patterns {
		ps[i] = gitignore.ParsePattern(p, nil)
	}

	w := &Watcher{
		cfg:      cfg,
		files:    make(map[string]bool),
		ignore:   gitignore.NewMatcher(ps),
		logger:   cfg.Logger,
		debounce: cfg.Debounce,
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.debounce <= 0 {
		w.debounce = defaultDebounce
	}

	var err error
	if w.dirs, err = absAll(cfg.Dirs); err != nil {
		return nil, err
	}
	if w.exclude, err = absAll(cfg.Exclude); err != nil {
		return nil, err
	}
	files, err := absAll(cfg.Files)
	if err != nil {
		return nil, err
	}

	if w.fsw, err = fsnotify.NewWatcher(); err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	for _, f := range files {
		w.files[f] = true
		if err := w.fsw.Add(filepath.Dir(f)); err != nil {
			w.close()
			return nil, fmt.Errorf("watch: add %q: %w", f, err)
		}
	}
	for _, d := range w.dirs {
		if err := w.addDirectories(d); err != nil {
			w.close()
			return nil, err
		}
	}
	return w, nil
}

// Run blocks until ctx is cancelled, processing filesystem events and
// dispatching debounced callbacks. It returns nil on cancellation and
// propagates fatal watcher errors. Callback errors are logged, not returned.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire may run after ctx is cancelled; the callback gets ctx and must
	// check it itself. A fire while the previous callback is still running
	// is postponed by one debounce period.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Debug("rebuild still running, postponing")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		w.logger.Debug("inputs changed", "paths", changed)
		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("rebuild failed", "error", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		w.close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			rel, ok := w.classify(evt.Name)
			if !ok {
				continue
			}
			// Directories created after startup are watched as well.
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "error", err)
		}
	}
}

// classify returns the reported name of an event path, or false when the
// path must not trigger a rebuild.
func (w *Watcher) classify(name string) (string, bool) {
	if w.excluded(name) {
		return "", false
	}
	if w.files[name] {
		return filepath.Base(name), true
	}
	for _, d := range w.dirs {
		rel, err := filepath.Rel(d, name)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if w.isIgnored(rel, isDir(name)) {
			return "", false
		}
		return filepath.ToSlash(rel), true
	}
	return "", false
}

// addDirectories walks root and watches every directory that is neither
// ignored nor excluded. Unreadable directories are skipped with a warning.
func (w *Watcher) addDirectories(root string) error {
	walkErr := filepath.WalkDir(root, func(p string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			w.logger.Warn("skipping inaccessible path", "path", p, "error", walkDirErr)
			return nil //nolint:nilerr // intentional skip of inaccessible paths
		}
		if !d.IsDir() {
			return nil
		}
		if w.excluded(p) {
			return filepath.SkipDir
		}
		if rel, err := filepath.Rel(root, p); err == nil && rel != "." && w.isIgnored(rel, true) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", p, err)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk %s: %w", root, walkErr)
	}
	return nil
}

// maybeAddDir watches p when it is a new directory below one of the
// watched directories.
func (w *Watcher) maybeAddDir(p string) {
	if !isDir(p) {
		return
	}
	for _, d := range w.dirs {
		if rel, err := filepath.Rel(d, p); err == nil && !strings.HasPrefix(rel, "..") {
			if err := w.addDirectories(p); err != nil {
				w.logger.Warn("cannot watch new directory", "path", p, "error", err)
			}
			return
		}
	}
}

func (w *Watcher) isIgnored(rel string, dir bool) bool {
	return w.ignore.Match(strings.Split(filepath.ToSlash(rel), "/"), dir)
}

func (w *Watcher) excluded(p string) bool {
	for _, e := range w.exclude {
		if p == e || strings.HasPrefix(p, e+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) close() {
	if err := w.fsw.Close(); err != nil {
		w.logger.Warn("close fsnotify watcher", "error", err)
	}
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

// validatePatterns checks that every gitignore pattern is a valid glob.
func validatePatterns(patterns []string) error {
	for _, p := range patterns {
		for _, part := range strings.Split(strings.Trim(strings.TrimPrefix(p, "!"), "/"), "/") {
			if part == "**" {
				continue
			}
			if _, err := path.Match(part, ""); err != nil {
				return fmt.Errorf("watch: invalid ignore pattern %q: %w", p, err)
			}
		}
	}
	return nil
}

func absAll(paths []string) ([]string, error) {
	out := make([]string, len(paths))
	for i, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve %q: %w", p, err)
		}
		out[i] = abs
	}
	return out, nil
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
