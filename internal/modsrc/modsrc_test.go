// SPDX-License-Identifier: MPL-2.0

package modsrc

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/go-cmp/cmp"

	"github.com/invowk/modpak/internal/codec"
	"github.com/invowk/modpak/internal/pak"
)

func mustWrite(t *testing.T, p, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func writePak(t *testing.T, p, mount string, files map[string]string) {
	t.Helper()
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer f.Close()
	w, err := pak.NewWriter(f, "test", mount)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	for name, content := range files {
		if err := w.Add(name, []byte(content)); err != nil {
			t.Fatalf("Add(%q) error = %v", name, err)
		}
	}
	if _, err := w.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
}

func writeZip(t *testing.T, p string, files map[string]string) {
	t.Helper()
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, content := range files {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip Create(%q) error = %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("zip Write(%q) error = %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip Close() error = %v", err)
	}
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "b-mod", "gamedata", "a.cfg"), "a = 1\n")
	mustWrite(t, filepath.Join(dir, "readme.txt"), "not a mod")
	writePak(t, filepath.Join(dir, "a-mod.pak"), pak.DefaultMountPoint, map[string]string{"x.ini": "k = v\n"})
	writeZip(t, filepath.Join(dir, "c-mod.zip"), map[string]string{"y.ini": "k = v\n"})

	mods, err := Discover(dir, nil)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	want := []Mod{
		{Name: "a-mod", Path: filepath.Join(dir, "a-mod.pak"), Kind: KindArchive, Priority: 0},
		{Name: "b-mod", Path: filepath.Join(dir, "b-mod"), Kind: KindDir, Priority: 1},
		{Name: "c-mod", Path: filepath.Join(dir, "c-mod.zip"), Kind: KindArchive, Priority: 2},
	}
	if diff := cmp.Diff(want, mods); diff != "" {
		t.Errorf("Discover() mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	t.Parallel()

	_, err := Discover(filepath.Join(t.TempDir(), "missing"), nil)
	if !errors.Is(err, ErrModsDir) {
		t.Errorf("Discover() error = %v, want %v", err, ErrModsDir)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Discover() error = %v, want wrapped %v", err, os.ErrNotExist)
	}
}

func names(mods []Mod) []string {
	out := make([]string, len(mods))
	for i, m := range mods {
		out[i] = m.Name
	}
	return out
}

func TestPrioritize(t *testing.T) {
	t.Parallel()

	enumerated := []Mod{
		{Name: "alpha", Priority: 0},
		{Name: "beta", Priority: 1},
		{Name: "gamma", Priority: 2},
		{Name: "delta", Priority: 3},
	}

	tests := []struct {
		name       string
		priorities map[string]int
		want       []string
	}{
		{
			name: "defaults keep enumeration order",
			want: []string{"alpha", "beta", "gamma", "delta"},
		},
		{
			name:       "explicit priorities reorder",
			priorities: map[string]int{"alpha": 10, "delta": -1},
			want:       []string{"delta", "beta", "gamma", "alpha"},
		},
		{
			name:       "keys match case-insensitively",
			priorities: map[string]int{"GAMMA": -5},
			want:       []string{"gamma", "alpha", "beta", "delta"},
		},
		{
			name:       "ties keep enumeration order",
			priorities: map[string]int{"alpha": 1, "gamma": 1, "beta": 1},
			want:       []string{"alpha", "beta", "gamma", "delta"},
		},
		{
			name:       "unknown keys are ignored",
			priorities: map[string]int{"omega": -100},
			want:       []string{"alpha", "beta", "gamma", "delta"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Prioritize(enumerated, tt.priorities)
			if err != nil {
				t.Fatalf("Prioritize() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, names(got)); diff != "" {
				t.Errorf("Prioritize() order mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if enumerated[0].Priority != 0 || enumerated[0].Explicit {
		t.Errorf("Prioritize() modified its input: %+v", enumerated[0])
	}
}

func TestPrioritizeDeterministic(t *testing.T) {
	t.Parallel()

	priorities := map[string]int{"one": 1, "two": 2, "three": 3}
	shuffled := []Mod{{Name: "two"}, {Name: "one"}, {Name: "three"}}
	sorted := []Mod{{Name: "one"}, {Name: "two"}, {Name: "three"}}

	a, err := Prioritize(shuffled, priorities)
	if err != nil {
		t.Fatalf("Prioritize() error = %v", err)
	}
	b, err := Prioritize(sorted, priorities)
	if err != nil {
		t.Fatalf("Prioritize() error = %v", err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Prioritize() depends on enumeration order (-shuffled +sorted):\n%s", diff)
	}
	for _, m := range a {
		if !m.Explicit {
			t.Errorf("Prioritize() mod %s Explicit = false, want true", m.Name)
		}
	}
}

func TestPrioritizeConflict(t *testing.T) {
	t.Parallel()

	_, err := Prioritize([]Mod{{Name: "mod"}}, map[string]int{"Mod": 1, "MOD": 2})
	if !errors.Is(err, ErrPriorityConflict) {
		t.Errorf("Prioritize() error = %v, want %v", err, ErrPriorityConflict)
	}

	if _, err := Prioritize([]Mod{{Name: "mod"}}, map[string]int{"Mod": 1, "MOD": 1}); err != nil {
		t.Errorf("Prioritize() with agreeing keys error = %v", err)
	}
}

func TestMaterializeDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "gamedata", "configs", "a.cfg"), "a = 1\n")
	mustWrite(t, filepath.Join(dir, "gamedata", "data.json"), `{"b":[1,2],"a":"x"}`)
	mustWrite(t, filepath.Join(dir, ".git", "HEAD"), "ref: refs/heads/main\n")

	dst := memfs.New()
	n, err := Materialize(context.Background(), Mod{Name: "m", Path: dir, Kind: KindDir}, dst)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Materialize() = %d, want 2", n)
	}

	got, err := util.ReadFile(dst, "gamedata/configs/a.cfg")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "a = 1\n" {
		t.Errorf("a.cfg = %q, want %q", got, "a = 1\n")
	}

	got, err = util.ReadFile(dst, "gamedata/data.json")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want, err := codec.PrettyJSON([]byte(`{"b":[1,2],"a":"x"}`))
	if err != nil {
		t.Fatalf("PrettyJSON() error = %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("data.json = %q, want %q", got, want)
	}

	if _, err := dst.Stat(".git/HEAD"); err == nil {
		t.Error("Materialize() copied the .git directory")
	}
}

func TestMaterializeArchive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pakPath := filepath.Join(dir, "m.pak")
	writePak(t, pakPath, pak.DefaultMountPoint, map[string]string{
		"gamedata/x.ini": "[s]\nk = v\n",
		"gamedata/y.cfg": "y = 2\n",
	})
	zipPath := filepath.Join(dir, "z.zip")
	writeZip(t, zipPath, map[string]string{"gamedata/z.ini": "[z]\n"})

	dst := memfs.New()
	n, err := Materialize(context.Background(), Mod{Name: "m", Path: pakPath, Kind: KindArchive}, dst)
	if err != nil {
		t.Fatalf("Materialize(pak) error = %v", err)
	}
	if n != 2 {
		t.Errorf("Materialize(pak) = %d, want 2", n)
	}
	if _, err := Materialize(context.Background(), Mod{Name: "z", Path: zipPath, Kind: KindArchive}, dst); err != nil {
		t.Fatalf("Materialize(zip) error = %v", err)
	}

	for _, name := range []string{"gamedata/x.ini", "gamedata/y.cfg", "gamedata/z.ini"} {
		if _, err := dst.Stat(name); err != nil {
			t.Errorf("Stat(%q) error = %v", name, err)
		}
	}
	if _, err := dst.Stat(pak.IndexName); err == nil {
		t.Errorf("Materialize() extracted %s", pak.IndexName)
	}
}

func TestMaterializeMalformedJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "bad.json"), `{"a":`)

	_, err := Materialize(context.Background(), Mod{Name: "m", Path: dir, Kind: KindDir}, memfs.New())
	if !errors.Is(err, codec.ErrDecode) {
		t.Errorf("Materialize() error = %v, want %v", err, codec.ErrDecode)
	}
}

func TestMaterializeCanceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.cfg"), "a = 1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Materialize(ctx, Mod{Name: "m", Path: dir, Kind: KindDir}, memfs.New())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Materialize() error = %v, want %v", err, context.Canceled)
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()

	for kind, want := range map[Kind]string{KindDir: "directory", KindArchive: "archive", Kind(9): "unknown"} {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(kind), got, want)
		}
	}
}
