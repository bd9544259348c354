package app

import (
	"context"
	"errors"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/chaosinthecrd/tag/internal/tag/app/options"
	"github.com/chaosinthecrd/tag/internal/tag/playbook"
)

const (
	helpOutput = "Generates real file, process and network activity so that an EDR agent has telemetry to report, and logs what was done."
)

// NewCommand returns a new instance of the tag command.
func NewCommand(ctx context.Context) *cobra.Command {
	return newCommand(ctx, afero.NewOsFs())
}

func newCommand(ctx context.Context, fs afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tag",
		Short:         helpOutput,
		Long:          helpOutput,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newFileCommand(ctx, fs),
		newForkCommand(ctx, fs),
		newNetworkCommand(ctx, fs),
		newPlaybookCommand(ctx, fs),
	)

	return cmd
}

func newFileCommand(ctx context.Context, fs afero.Fs) *cobra.Command {
	opts := options.New().WithFile()

	cmd := &cobra.Command{
		Use:   "file",
		Short: "Create a file, optionally write to it, then delete it.",
		Long:  "Creates a uniquely named file in a directory, optionally writes to it, then deletes it.",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.Complete()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(opts.File.Path) == 0 {
				return errors.New("--path is required")
			}
			if len(opts.File.Extension) == 0 {
				return errors.New("--extension is required")
			}

			return run(ctx, fs, opts, []playbook.Spec{playbook.File{
				Modify:    opts.File.Modify,
				Directory: opts.File.Path,
				Extension: opts.File.Extension,
			}})
		},
	}

	opts.Prepare(cmd)

	return cmd
}

func newForkCommand(ctx context.Context, fs afero.Fs) *cobra.Command {
	opts := options.New().WithProcess()

	cmd := &cobra.Command{
		Use:     "fork",
		Aliases: []string{"process"},
		Short:   "Fork a child process, optionally exec /bin/true in it.",
		Long:    "Forks a child process and waits for it. With --exec the child replaces itself with /bin/true.",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.Complete()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(ctx, fs, opts, []playbook.Spec{playbook.Process{Exec: opts.Process.Exec}})
		},
	}

	opts.Prepare(cmd)

	return cmd
}

func newNetworkCommand(ctx context.Context, fs afero.Fs) *cobra.Command {
	opts := options.New().WithNetwork()

	cmd := &cobra.Command{
		Use:   "network",
		Short: "Open a TCP connection and send a few bytes.",
		Long:  "Opens a TCP connection to a target and sends a 4 byte probe over it.",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.Complete()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(ctx, fs, opts, []playbook.Spec{playbook.Network{}})
		},
	}

	opts.Prepare(cmd)

	return cmd
}

func newPlaybookCommand(ctx context.Context, fs afero.Fs) *cobra.Command {
	opts := options.New().WithPlaybook().WithNetwork()

	cmd := &cobra.Command{
		Use:   "playbook",
		Short: "Run the activities listed in a playbook file.",
		Long:  "Runs the activities listed in a playbook YAML file in order, aborting on the first failure.",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.Complete()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(opts.Playbook.Path) == 0 {
				return errors.New("--playbook is required")
			}

			specs, err := playbook.Load(fs, opts.Playbook.Path)
			if err != nil {
				return err
			}

			return run(ctx, fs, opts, specs)
		},
	}

	opts.Prepare(cmd)

	return cmd
}
