package main

import (
	"github.com/spf13/cobra"

	"yt/internal/burndown"
)

func newBurndownCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "burndown <group>",
		Short: "Show the open estimate of a group over time",
		Long: `Replays the index history and shows the total open estimate of a group at
each committed revision, newest first. The series ends at the first revision
before the group had any open work.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			agg := burndown.New(a.backend, a.store.IndexPath(), a.logger)
			points, walkErr := agg.Burndown(cmd.Context(), args[0])
			if points == nil {
				points = []burndown.Checkpoint{}
			}
			if err := render(cmd.OutOrStdout(), &burndownResponse{Group: args[0], Checkpoints: points}, opts.outputFormat(a.cfg)); err != nil {
				return err
			}
			return walkErr
		},
	}
}
