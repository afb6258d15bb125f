// SPDX-License-Identifier: MPL-2.0

package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invowk/modpak/internal/codec"
	"github.com/invowk/modpak/internal/layer"
	"github.com/invowk/modpak/internal/modsrc"
	"github.com/invowk/modpak/internal/pak"
)

const baseCfg = `root : struct.begin
   x = 1
   y = 2
struct.end
`

func tickingClock() func() time.Time {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

// modTree writes a mod directory named name under modsDir.
func modTree(t *testing.T, modsDir, name string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(modsDir, name, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

type fixture struct {
	modsDir string
	orch    *Orchestrator
	output  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		modsDir: filepath.Join(root, "mods"),
		output:  filepath.Join(root, "out", "pack.pak"),
	}
	require.NoError(t, os.MkdirAll(f.modsDir, 0o755))
	f.orch = New(Options{
		Name:         "pack",
		StagingDir:   filepath.Join(root, "staging"),
		Output:       f.output,
		LayerOptions: []layer.Option{layer.WithClock(tickingClock())},
	})
	return f
}

func (f *fixture) run(t *testing.T, priorities map[string]int) *Report {
	t.Helper()
	mods, err := modsrc.Discover(f.modsDir, nil)
	require.NoError(t, err)
	mods, err = modsrc.Prioritize(mods, priorities)
	require.NoError(t, err)
	report, err := f.orch.Run(context.Background(), mods)
	require.NoError(t, err)
	return report
}

// archiveFiles returns the content of every file in the output archive,
// keyed by path relative to the mount point.
func (f *fixture) archiveFiles(t *testing.T) map[string]string {
	t.Helper()
	r, err := pak.Open(f.output)
	require.NoError(t, err)
	defer r.Close()

	files := make(map[string]string)
	for _, name := range r.Entries() {
		if name == pak.IndexName {
			continue
		}
		rel, err := pak.Relative(name, r.MountPoint())
		require.NoError(t, err)
		data, err := r.ReadEntry(name)
		require.NoError(t, err)
		files[rel] = string(data)
	}
	return files
}

func modReport(t *testing.T, r *Report, name string) ModReport {
	t.Helper()
	for _, m := range r.Mods {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("no report for mod %s", name)
	return ModReport{}
}

func TestRunTakesOneSidedChanges(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	modTree(t, f.modsDir, "a", map[string]string{
		"gamedata/configs/a.cfg": baseCfg,
		"gamedata/data.json":     `{"k":[1,2]}`,
	})
	modTree(t, f.modsDir, "b", map[string]string{
		"gamedata/configs/a.cfg": "root : struct.begin\n   x = 5\n   y = 2\nstruct.end\n",
		"gamedata/b.ini":         "[s]\nk = v\n",
	})

	report := f.run(t, nil)

	a := modReport(t, report, "a")
	assert.Equal(t, "mods/a", a.Layer)
	assert.True(t, a.NewFiles)
	assert.False(t, a.Modified)
	assert.Equal(t, []Strategy{StrategyCustom}, a.Strategies)

	b := modReport(t, report, "b")
	assert.True(t, b.NewFiles)
	assert.True(t, b.Modified)
	assert.Equal(t, []string{"gamedata/configs/a.cfg"}, b.Taken)
	assert.Empty(t, b.Unresolved)
	assert.NotEmpty(t, b.Commit)

	pretty, err := codec.PrettyJSON([]byte(`{"k":[1,2]}`))
	require.NoError(t, err)
	want := map[string]string{
		"gamedata/configs/a.cfg": "root : struct.begin\n   x = 5\n   y = 2\nstruct.end\n",
		"gamedata/b.ini":         "[s]\nk = v\n",
		"gamedata/data.json":     string(pretty),
	}
	if diff := cmp.Diff(want, f.archiveFiles(t)); diff != "" {
		t.Errorf("archive content mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, report.Packed)
	assert.Equal(t, f.output, report.Output)
}

func TestRunSemanticMerge(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	modTree(t, f.modsDir, "a", map[string]string{"gamedata/a.cfg": baseCfg})
	modTree(t, f.modsDir, "b", map[string]string{
		"gamedata/a.cfg": "root : struct.begin\n   x = 10\n   y = 2\nstruct.end\n",
	})
	modTree(t, f.modsDir, "c", map[string]string{
		"gamedata/a.cfg": "root : struct.begin\n   x = 20\n   y = 2\n   z = 3\nstruct.end\n",
	})

	report := f.run(t, nil)

	c := modReport(t, report, "c")
	assert.Equal(t, []Strategy{StrategyCustom}, c.Strategies)
	require.Len(t, c.Semantic, 1)
	assert.Equal(t, SemanticMerge{Path: "gamedata/a.cfg", Codec: "struct-config", Ours: 1, Theirs: 2}, c.Semantic[0])

	got := f.archiveFiles(t)["gamedata/a.cfg"]
	assert.Equal(t, "root : struct.begin\n   x = 20\n   y = 2\n   z = 3\nstruct.end\n", got)
}

func TestRunEscalatesToTheirs(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	modTree(t, f.modsDir, "a", map[string]string{"readme.txt": "a\nb\nc\n"})
	modTree(t, f.modsDir, "b", map[string]string{"readme.txt": "a\nB\nc\n"})
	modTree(t, f.modsDir, "c", map[string]string{"readme.txt": "a\nC\nc\n"})

	report := f.run(t, nil)

	c := modReport(t, report, "c")
	assert.Equal(t, []Strategy{StrategyCustom, StrategyTheirs}, c.Strategies)
	assert.True(t, c.Escalated())
	require.Len(t, c.Escalations, 1)
	assert.Equal(t, "readme.txt", c.Escalations[0].Path)
	assert.ErrorIs(t, &c.Escalations[0], codec.ErrNoCodec)
	assert.Equal(t, []string{"readme.txt"}, c.TextMerged)
	assert.Empty(t, c.Unresolved)

	assert.Equal(t, "a\nC\nc\n", f.archiveFiles(t)["readme.txt"])
}

func TestRunMalformedConfigEscalates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	modTree(t, f.modsDir, "a", map[string]string{"a.cfg": baseCfg})
	modTree(t, f.modsDir, "b", map[string]string{
		"a.cfg": "root : struct.begin\n   x = 10\n   y = 2\nstruct.end\n",
	})
	modTree(t, f.modsDir, "c", map[string]string{
		"a.cfg": "root : struct.begin\n   x = 20\n   y = 2\nstruct.end\nstruct.end\n",
	})

	report := f.run(t, nil)

	c := modReport(t, report, "c")
	assert.Equal(t, StrategyTheirs, c.Strategy())
	require.Len(t, c.Escalations, 1)
	assert.Equal(t, StrategyCustom, c.Escalations[0].Strategy)
	assert.Error(t, c.Escalations[0].Cause)
}

func TestRunEscalationTerminates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	modTree(t, f.modsDir, "a", map[string]string{"textures/t.dds": "DDS\x00\x01\x02"})
	modTree(t, f.modsDir, "b", map[string]string{"textures/t.dds": "DDS\x00\x01\x03"})
	modTree(t, f.modsDir, "c", map[string]string{"textures/t.dds": "DDS\x00\x01\x04"})

	report := f.run(t, nil)

	c := modReport(t, report, "c")
	assert.Equal(t, []Strategy{StrategyCustom, StrategyTheirs, StrategyOverwrite}, c.Strategies)
	assert.Len(t, c.Escalations, 2)
	assert.Equal(t, []string{"textures/t.dds"}, c.Forced)
	assert.Empty(t, c.Unresolved)
	assert.Equal(t, 1, report.Forced())

	assert.Equal(t, "DDS\x00\x01\x03", f.archiveFiles(t)["textures/t.dds"])
}

func TestRunPriorityDeterminism(t *testing.T) {
	t.Parallel()

	files := func(v string) map[string]string {
		return map[string]string{"cfg/shared.ini": "[s]\nk = " + v + "\n"}
	}

	// Enumerated b, c, d with explicit priorities 2, 1, 3.
	explicit := newFixture(t)
	modTree(t, explicit.modsDir, "b", files("b"))
	modTree(t, explicit.modsDir, "c", files("c"))
	modTree(t, explicit.modsDir, "d", files("d"))
	r1 := explicit.run(t, map[string]int{"B": 2, "c": 1, "d": 3})

	// The same mods enumerated already in priority order.
	sorted := newFixture(t)
	modTree(t, sorted.modsDir, "1-c", files("c"))
	modTree(t, sorted.modsDir, "2-b", files("b"))
	modTree(t, sorted.modsDir, "3-d", files("d"))
	sorted.run(t, nil)

	if diff := cmp.Diff(sorted.archiveFiles(t), explicit.archiveFiles(t)); diff != "" {
		t.Errorf("archive depends on enumeration order (-sorted +explicit):\n%s", diff)
	}
	var order []string
	for _, m := range r1.Mods {
		order = append(order, m.Name)
	}
	assert.Equal(t, []string{"c", "b", "d"}, order)
	assert.Contains(t, explicit.archiveFiles(t)["cfg/shared.ini"], "k = d\n")
}

func TestRunDuplicateLayerNames(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	modTree(t, f.modsDir, "My Mod", map[string]string{"a.txt": "1\n"})
	modTree(t, f.modsDir, "My_Mod", map[string]string{"b.txt": "2\n"})

	report := f.run(t, nil)
	require.Len(t, report.Mods, 2)
	assert.Equal(t, "mods/My_Mod", report.Mods[0].Layer)
	assert.Equal(t, "mods/My_Mod_2", report.Mods[1].Layer)
}

func TestRunRecreatesStaging(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	modTree(t, f.modsDir, "a", map[string]string{"a.txt": "1\n"})
	f.run(t, nil)

	stray := filepath.Join(f.orch.opts.StagingDir, "stray.txt")
	require.NoError(t, os.WriteFile(stray, []byte("x"), 0o644))
	f.run(t, nil)

	_, err := os.Stat(stray)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, map[string]string{"a.txt": "1\n"}, f.archiveFiles(t))
}

func TestRunCanceled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	modTree(t, f.modsDir, "a", map[string]string{"a.txt": "1\n"})
	mods, err := modsrc.Discover(f.modsDir, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.orch.Run(ctx, mods)
	require.ErrorIs(t, err, context.Canceled)

	_, err = os.Stat(f.output)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRunWithoutOutput(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.orch.opts.Output = ""
	modTree(t, f.modsDir, "a", map[string]string{"a.txt": "1\n"})

	report := f.run(t, nil)
	assert.Empty(t, report.Output)
	assert.Zero(t, report.Packed)

	data, err := os.ReadFile(filepath.Join(report.Workspace, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1\n", string(data))
}
