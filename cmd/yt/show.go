package main

import (
	"github.com/spf13/cobra"
)

func newShowCmd(opts *globalOptions) *cobra.Command {
	var detail bool

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show a record",
		Long: `Shows the current fields of a record. With --detail every committed
revision of the record is listed with its author, the files committed with it
and what changed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.resolveID(cmd.Context(), args)
			if err != nil {
				return err
			}
			snaps, err := a.store.Read(cmd.Context(), id, detail)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), &showResponse{ID: id, Snapshots: snaps}, opts.outputFormat(a.cfg))
		},
	}
	cmd.Flags().BoolVarP(&detail, "detail", "d", false, "Include the record's history")
	return cmd
}
