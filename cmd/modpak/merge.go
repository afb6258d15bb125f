// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/invowk/modpak/internal/codec"
	"github.com/invowk/modpak/internal/issue"
)

type mergeFlags struct {
	base   string
	ours   string
	theirs string
	output string
}

// newMergeCommand creates the `modpak merge` command.
func newMergeCommand(app *App) *cobra.Command {
	flags := &mergeFlags{}
	mergeCmd := &cobra.Command{
		Use:   "merge --base FILE --ours FILE --theirs FILE",
		Short: "Merge three versions of a configuration file",
		Long: `Merge three versions of a configuration file field by field.

The format is chosen by the extension of --ours: .cfg (struct
configuration), .ini or .json. Changes from both sides are combined; when
both sides change the same field the value of --theirs wins. The result is
written to --output, or to standard output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(app, flags)
		},
	}

	mergeCmd.Flags().StringVar(&flags.base, "base", "", "common ancestor version (required)")
	mergeCmd.Flags().StringVar(&flags.ours, "ours", "", "current version (required)")
	mergeCmd.Flags().StringVar(&flags.theirs, "theirs", "", "incoming version (required)")
	mergeCmd.Flags().StringVarP(&flags.output, "output", "o", "", "write the result to this file")
	_ = mergeCmd.MarkFlagRequired("base")
	_ = mergeCmd.MarkFlagRequired("ours")
	_ = mergeCmd.MarkFlagRequired("theirs")

	return mergeCmd
}

func runMerge(app *App, flags *mergeFlags) error {
	var inputs [3][]byte
	for i, p := range []string{flags.base, flags.ours, flags.theirs} {
		data, err := os.ReadFile(p)
		if err != nil {
			return issue.NewErrorContext().
				WithOperation("read merge input").
				WithResource(p).
				WithIssue(classifyError(err)).
				Wrap(err).
				BuildError()
		}
		inputs[i] = data
	}

	out, err := app.Codecs.MergeFile(flags.ours, inputs[0], inputs[1], inputs[2])
	if err != nil {
		if errors.Is(err, codec.ErrNoCodec) || errors.Is(err, codec.ErrDecode) || errors.Is(err, codec.ErrEncode) {
			return newServiceError(err, issue.MergeInputInvalidId, "")
		}
		return err
	}

	if flags.output == "" {
		_, err = app.stdout.Write(out.Data)
		return err
	}
	if err := os.WriteFile(flags.output, out.Data, 0o644); err != nil {
		return issue.WrapWithContext(err, "write merge result", flags.output)
	}
	app.logger.Info("merged", "output", flags.output, "ours", out.Ours, "theirs", out.Theirs)
	return nil
}
