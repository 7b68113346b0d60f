package main

import (
	"github.com/spf13/cobra"

	"yt/internal/record"
)

func newListCmd(opts *globalOptions) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records",
		Long:  "Lists the records whose status contains the given text, read from the index.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.store.List(cmd.Context(), status)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), &listResponse{Status: status, Entries: entries}, opts.outputFormat(a.cfg))
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", record.StatusOpen, "Only list records with this status, empty for all")
	return cmd
}
