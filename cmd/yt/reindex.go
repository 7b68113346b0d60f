package main

import (
	"github.com/spf13/cobra"

	"yt/internal/errors"
)

func newReindexCmd(opts *globalOptions) *cobra.Command {
	var all, check bool

	cmd := &cobra.Command{
		Use:   "reindex [id]",
		Short: "Rebuild index entries from the record files",
		Long: `Rewrites the index entry of one record, or of every record with --all.
Use it after a write left the index behind. --check only reports which
entries differ.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !check && !all && len(args) == 0 {
				return errors.New(errors.InvalidInput, "pass a record id, --all or --check", nil)
			}

			a, err := openApp(opts, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			resp := &reindexResponse{}
			var runErr error
			switch {
			case check:
				f, err := a.store.Freshness(ctx)
				if err != nil {
					return err
				}
				resp.Freshness = &f
			case all:
				resp.Reindexed, runErr = a.store.ReindexAll(ctx)
			default:
				if err := a.store.Reindex(ctx, args[0]); err != nil {
					return err
				}
				resp.Reindexed = 1
			}

			if err := render(cmd.OutOrStdout(), resp, opts.outputFormat(a.cfg)); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Reindex every record")
	cmd.Flags().BoolVar(&check, "check", false, "Report index drift without writing")
	return cmd
}
