// SPDX-License-Identifier: MPL-2.0

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/invowk/modpak/internal/codec"
	"github.com/invowk/modpak/internal/layer"
	"github.com/invowk/modpak/internal/modsrc"
	"github.com/invowk/modpak/internal/pak"
	"github.com/invowk/modpak/pkg/refname"
)

type (
	// Options configures an Orchestrator.
	Options struct {
		// Name is the modpack name, stored in the archive index.
		Name string
		// StagingDir holds the workspace. It is deleted and recreated by Run.
		StagingDir string
		// Output is the archive path. Packing is skipped when empty.
		Output string
		// MountPoint prefixes every archive entry; pak.DefaultMountPoint when empty.
		MountPoint string
		// Codecs defaults to codec.DefaultRegistry().
		Codecs *codec.Registry
		// Logger defaults to slog.Default().
		Logger *slog.Logger
		// LayerOptions are passed to layer.Init.
		LayerOptions []layer.Option
	}

	// Orchestrator runs builds. It is not safe for concurrent use.
	Orchestrator struct {
		opts   Options
		codecs *codec.Registry
		logger *slog.Logger
	}

	// staged is a mod together with its layer.
	staged struct {
		mod    modsrc.Mod
		report *ModReport
	}
)

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{opts: opts, codecs: opts.Codecs, logger: opts.Logger}
	if o.codecs == nil {
		o.codecs = codec.DefaultRegistry()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.opts.MountPoint == "" {
		o.opts.MountPoint = pak.DefaultMountPoint
	}
	return o
}

// Run builds the modpack from mods, which must already be in priority
// order. Layer failures abort the run; files that cannot be merged are
// recorded in the report. The workspace is left on disk.
func (o *Orchestrator) Run(ctx context.Context, mods []modsrc.Mod) (*Report, error) {
	ws, err := o.prepareWorkspace()
	if err != nil {
		return nil, err
	}
	report := &Report{Name: o.opts.Name, Workspace: ws.Root(), Mods: make([]ModReport, len(mods))}

	alloc := refname.NewAllocator()
	queue := make([]staged, len(mods))
	for i, m := range mods {
		report.Mods[i] = ModReport{
			Name:     m.Name,
			Layer:    alloc.Next(m.Name),
			Priority: m.Priority,
			Explicit: m.Explicit,
		}
		queue[i] = staged{mod: m, report: &report.Mods[i]}
	}

	for _, s := range queue {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := o.stage(ctx, ws, s); err != nil {
			return report, err
		}
	}
	for _, s := range queue {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := o.integrate(ws, s.report); err != nil {
			return report, err
		}
	}

	if o.opts.Output == "" {
		return report, nil
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	packed, err := o.pack(ctx, ws)
	if err != nil {
		return report, err
	}
	report.Output = o.opts.Output
	report.Packed = packed
	return report, nil
}

func (o *Orchestrator) prepareWorkspace() (*layer.Workspace, error) {
	if o.opts.StagingDir == "" {
		return nil, errors.New("staging directory not set")
	}
	if err := os.RemoveAll(o.opts.StagingDir); err != nil {
		return nil, fmt.Errorf("failed to clear staging directory: %w", err)
	}
	if err := os.MkdirAll(o.opts.StagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	opts := append([]layer.Option{layer.WithLogger(o.logger)}, o.opts.LayerOptions...)
	return layer.Init(o.opts.StagingDir, opts...)
}

// stage copies a mod over the baseline, commits its new files on the
// baseline and its modifications on the mod's layer.
func (o *Orchestrator) stage(ctx context.Context, ws *layer.Workspace, s staged) error {
	if err := ws.Switch(refname.Baseline); err != nil {
		return err
	}
	n, err := modsrc.Materialize(ctx, s.mod, ws.Filesystem())
	if err != nil {
		return err
	}
	s.report.Files = n

	if _, s.report.NewFiles, err = ws.Checkpoint(s.mod.Name, true); err != nil {
		return err
	}
	if err := ws.Fork(s.report.Layer); err != nil {
		return err
	}
	if _, s.report.Modified, err = ws.Checkpoint(s.mod.Name, false); err != nil {
		return err
	}
	o.logger.Info("staged mod", "mod", s.mod.Name, "layer", s.report.Layer, "files", n,
		"newFiles", s.report.NewFiles, "modified", s.report.Modified)
	return nil
}

// integrate merges a staged layer into the baseline, escalating the strategy
// while files stay unresolved.
func (o *Orchestrator) integrate(ws *layer.Workspace, r *ModReport) error {
	if err := ws.Switch(refname.Baseline); err != nil {
		return err
	}
	head, err := ws.Head()
	if err != nil {
		return err
	}

	strategy := StrategyCustom
	for {
		r.Strategies = append(r.Strategies, strategy)
		unresolved, err := o.integratePass(ws, r, strategy)
		if err != nil {
			return err
		}
		commit, err := ws.Commit(fmt.Sprintf("Merge layer '%s' (%s)", r.Name, strategy), head)
		if err != nil {
			return err
		}
		r.Commit = commit.String()

		next, ok := strategy.Next()
		if len(unresolved) == 0 || !ok {
			r.Unresolved = unresolved
			break
		}
		o.logger.Warn("escalating integration", "mod", r.Name, "from", strategy.String(),
			"to", next.String(), "unresolved", len(unresolved))
		r.Escalations = append(r.Escalations, unresolved...)
		if err := ws.ResetTo(head); err != nil {
			return err
		}
		strategy = next
	}

	o.logger.Info("integrated mod", "mod", r.Name, "strategy", strategy.String(),
		"taken", len(r.Taken), "textMerged", len(r.TextMerged), "semantic", len(r.Semantic),
		"forced", len(r.Forced), "commit", r.Commit)
	return nil
}

// integratePass runs one merge of the mod's layer and settles its conflicts.
// The report's file lists are replaced with those of this pass.
func (o *Orchestrator) integratePass(ws *layer.Workspace, r *ModReport, strategy Strategy) ([]UnresolvedConflict, error) {
	res, err := ws.Merge(r.Layer, strategy.favor())
	if err != nil {
		return nil, err
	}
	r.Taken = res.Taken
	r.TextMerged = res.TextMerged
	r.Forced = res.Kept
	r.Semantic = nil

	var unresolved []UnresolvedConflict
	for _, c := range res.Conflicts {
		sm, err := o.mergeConflict(ws, c)
		if errors.Is(err, layer.ErrLayerOperation) {
			return nil, err
		}
		if err == nil {
			r.Semantic = append(r.Semantic, *sm)
			continue
		}

		uc := UnresolvedConflict{Path: c.Path, Mod: r.Name, Strategy: strategy, Cause: err}
		o.logger.Debug("unresolved conflict", "path", c.Path, "mod", r.Name, "strategy", strategy.String(), "error", err)
		if err := o.keepOurs(ws, c); err != nil {
			return nil, err
		}
		unresolved = append(unresolved, uc)
	}
	return unresolved, nil
}

// mergeConflict merges the three versions of a conflicted file with the codec
// for its extension and stages the result.
func (o *Orchestrator) mergeConflict(ws *layer.Workspace, c layer.Conflict) (*SemanticMerge, error) {
	if c.Base == nil || c.Ours == nil || c.Theirs == nil {
		return nil, ErrMissingVersion
	}
	cd, ok := o.codecs.Lookup(c.Path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", codec.ErrNoCodec, filepath.Ext(c.Path))
	}

	var blobs [3][]byte
	for i, v := range []*layer.Version{c.Base, c.Ours, c.Theirs} {
		data, err := ws.ReadBlob(v)
		if err != nil {
			return nil, err
		}
		blobs[i] = data
	}
	out, err := cd.Merge(blobs[0], blobs[1], blobs[2])
	if err != nil {
		return nil, fmt.Errorf("%s merge: %w", cd.Name(), err)
	}
	if err := ws.WriteFile(c.Path, out.Data, c.Ours.Mode); err != nil {
		return nil, err
	}
	return &SemanticMerge{Path: c.Path, Codec: cd.Name(), Ours: out.Ours, Theirs: out.Theirs}, nil
}

// keepOurs puts the baseline version of a conflicted file back in place.
func (o *Orchestrator) keepOurs(ws *layer.Workspace, c layer.Conflict) error {
	if c.Ours == nil {
		return ws.RemoveFile(c.Path)
	}
	data, err := ws.ReadBlob(c.Ours)
	if err != nil {
		return err
	}
	return ws.WriteFile(c.Path, data, c.Ours.Mode)
}

// pack writes the baseline worktree to the output archive.
func (o *Orchestrator) pack(ctx context.Context, ws *layer.Workspace) (n int, err error) {
	if dir := filepath.Dir(o.opts.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(o.opts.Output)
	if err != nil {
		return 0, fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close archive: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(o.opts.Output)
		}
	}()

	w, err := pak.NewWriter(f, o.opts.Name, o.opts.MountPoint)
	if err != nil {
		return 0, err
	}
	if n, err = pak.PackFilesystem(ctx, ws.Filesystem(), w, ".git"); err != nil {
		return 0, err
	}
	if _, err := w.Finalize(); err != nil {
		return 0, err
	}
	o.logger.Info("wrote archive", "path", o.opts.Output, "files", n)
	return n, nil
}
