// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// startWatcher runs w until the test ends and reports Run's result.
func startWatcher(t *testing.T, w *Watcher) (cancel func() error) {
	t.Helper()

	ctx, stop := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	var once sync.Once
	var runErr error
	cancel = func() error {
		once.Do(func() {
			stop()
			select {
			case runErr = <-errCh:
			case <-time.After(5 * time.Second):
				runErr = errors.New("Run() did not return after cancellation")
			}
		})
		return runErr
	}
	t.Cleanup(func() { _ = cancel() })
	return cancel
}

func write(t *testing.T, p string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func waitChanged(t *testing.T, ch <-chan []string) []string {
	t.Helper()
	select {
	case changed := <-ch:
		return changed
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
		return nil
	}
}

// TestWatcherDebounce verifies that rapid events are coalesced into one
// callback carrying every changed path.
func TestWatcherDebounce(t *testing.T) {
	t.Parallel()

	mods := t.TempDir()
	if err := os.Mkdir(filepath.Join(mods, "a"), 0o755); err != nil {
		t.Fatal(err)
	}

	var (
		mu    sync.Mutex
		calls int
	)
	changedCh := make(chan []string, 10)
	w, err := New(Config{
		Dirs:     []string{mods},
		Debounce: 100 * time.Millisecond,
		Logger:   discard,
		OnChange: func(_ context.Context, changed []string) error {
			mu.Lock()
			calls++
			mu.Unlock()
			changedCh <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	cancel := startWatcher(t, w)

	for _, name := range []string{"a/x.cfg", "a/y.cfg", "b.pak"} {
		write(t, filepath.Join(mods, filepath.FromSlash(name)))
		time.Sleep(10 * time.Millisecond)
	}

	changed := waitChanged(t, changedCh)
	time.Sleep(300 * time.Millisecond)
	if err := cancel(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("callbacks = %d, want 1", calls)
	}
	for _, want := range []string{"a/x.cfg", "a/y.cfg", "b.pak"} {
		if !slices.Contains(changed, want) {
			t.Errorf("changed = %v, want %q in it", changed, want)
		}
	}
	if !slices.IsSorted(changed) {
		t.Errorf("changed = %v, want sorted", changed)
	}
}

// TestWatcherFilters verifies that ignored and excluded paths and siblings
// of a watched file do not trigger the callback.
func TestWatcherFilters(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mods := filepath.Join(root, "mods")
	staging := filepath.Join(mods, "staging")
	cfg := filepath.Join(root, "modpak.toml")
	write(t, cfg)
	if err := os.MkdirAll(staging, 0o755); err != nil {
		t.Fatal(err)
	}

	changedCh := make(chan []string, 10)
	w, err := New(Config{
		Dirs:     []string{mods},
		Files:    []string{cfg},
		Ignore:   []string{"*.log"},
		Exclude:  []string{staging},
		Debounce: 50 * time.Millisecond,
		Logger:   discard,
		OnChange: func(_ context.Context, changed []string) error {
			changedCh <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	startWatcher(t, w)

	write(t, filepath.Join(mods, "debug.log"))
	write(t, filepath.Join(mods, "item.cfg.swp"))
	write(t, filepath.Join(staging, "gamedata", "a.cfg"))
	write(t, filepath.Join(root, "notes.txt"))
	time.Sleep(200 * time.Millisecond)

	write(t, cfg)
	changed := waitChanged(t, changedCh)
	if !slices.Equal(changed, []string{"modpak.toml"}) {
		t.Errorf("changed = %v, want [modpak.toml]", changed)
	}
}

// TestWatcherNewDirectory verifies that directories created after startup
// are watched too.
func TestWatcherNewDirectory(t *testing.T) {
	t.Parallel()

	mods := t.TempDir()
	changedCh := make(chan []string, 10)
	w, err := New(Config{
		Dirs:     []string{mods},
		Debounce: 50 * time.Millisecond,
		Logger:   discard,
		OnChange: func(_ context.Context, changed []string) error {
			changedCh <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	startWatcher(t, w)

	if err := os.Mkdir(filepath.Join(mods, "new_mod"), 0o755); err != nil {
		t.Fatal(err)
	}
	waitChanged(t, changedCh)

	write(t, filepath.Join(mods, "new_mod", "a.ini"))
	changed := waitChanged(t, changedCh)
	if !slices.Contains(changed, "new_mod/a.ini") {
		t.Errorf("changed = %v, want new_mod/a.ini in it", changed)
	}
}

// TestWatcherSkipIfBusy verifies that callbacks never overlap when a rebuild
// takes longer than the debounce period.
func TestWatcherSkipIfBusy(t *testing.T) {
	t.Parallel()

	mods := t.TempDir()
	var (
		mu      sync.Mutex
		calls   int
		active  int
		overlap bool
	)
	firstDone := make(chan struct{})
	w, err := New(Config{
		Dirs:     []string{mods},
		Debounce: 50 * time.Millisecond,
		Logger:   discard,
		OnChange: func(_ context.Context, _ []string) error {
			mu.Lock()
			calls++
			n := calls
			active++
			overlap = overlap || active > 1
			mu.Unlock()

			if n == 1 {
				time.Sleep(300 * time.Millisecond)
				close(firstDone)
			}

			mu.Lock()
			active--
			mu.Unlock()
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	cancel := startWatcher(t, w)

	write(t, filepath.Join(mods, "first.cfg"))
	time.Sleep(100 * time.Millisecond)
	write(t, filepath.Join(mods, "second.cfg"))

	select {
	case <-firstDone:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the first callback")
	}
	time.Sleep(300 * time.Millisecond)
	if err := cancel(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if overlap {
		t.Error("callbacks overlapped")
	}
	if calls != 2 {
		t.Errorf("callbacks = %d, want 2 (the postponed rebuild must still run)", calls)
	}
}

func TestWatcherDoubleRun(t *testing.T) {
	t.Parallel()

	w, err := New(Config{Dirs: []string{t.TempDir()}, Logger: discard})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	cancel := startWatcher(t, w)
	time.Sleep(50 * time.Millisecond)

	if err := w.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want %v", err, ErrAlreadyRunning)
	}
	if err := cancel(); err != nil {
		t.Fatalf("first Run() error: %v", err)
	}
}

func TestNewErrors(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}); err == nil {
		t.Error("New() without paths should fail")
	}
	if _, err := New(Config{Dirs: []string{t.TempDir()}, Ignore: []string{"[invalid"}}); err == nil {
		t.Error("New() should reject an invalid ignore pattern")
	}
	if _, err := New(Config{Dirs: []string{filepath.Join(t.TempDir(), "missing")}, Logger: discard}); err != nil {
		t.Errorf("New() with a missing directory error = %v, want it skipped", err)
	}
}

func TestDefaultIgnores(t *testing.T) {
	t.Parallel()

	w, err := New(Config{Dirs: []string{t.TempDir()}, Logger: discard})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(w.close)

	tests := []struct {
		path    string
		dir     bool
		ignored bool
	}{
		{".git", true, true},
		{"mod/.git/config", false, true},
		{"mod/item.cfg.swp", false, true},
		{"mod/item.cfg~", false, true},
		{"mod/.DS_Store", false, true},
		{"mod/gamedata/item.cfg", false, false},
		{"mod.pak", false, false},
		{".gitignore", false, false},
	}
	for _, tt := range tests {
		if got := w.isIgnored(tt.path, tt.dir); got != tt.ignored {
			t.Errorf("isIgnored(%q) = %v, want %v", tt.path, got, tt.ignored)
		}
	}

	ignores := DefaultIgnores()
	ignores[0] = "changed"
	if DefaultIgnores()[0] == "changed" {
		t.Error("DefaultIgnores() should return a copy")
	}
}
