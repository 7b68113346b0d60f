package main

import (
	"github.com/spf13/cobra"

	"yt/internal/version"
)

func newVersionCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := version.Get()
			format := opts.outputFormat(nil)
			if format == FormatHuman {
				return render(cmd.OutOrStdout(), &messageResponse{Message: b.String()}, format)
			}
			return render(cmd.OutOrStdout(), &b, format)
		},
	}
}
