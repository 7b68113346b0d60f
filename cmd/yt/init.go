package main

import (
	"github.com/spf13/cobra"

	"yt/internal/store"
)

func newInitCmd(opts *globalOptions) *cobra.Command {
	var schemaPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the record folder",
		Long: `Creates the record folder with its schema files and an empty index,
stages them with git add, and keeps the local .yt/ state directory out of
version control.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set := defaultSchemaSet()
			if schemaPath != "" {
				var err error
				if set, err = loadSchemaFile(schemaPath); err != nil {
					return err
				}
			}

			a, err := openApp(opts, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := store.Init(cmd.Context(), a.root, a.cfg, a.backend, a.logger, set.schema, set.creation, set.index)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), &messageResponse{
				Message: "Initialized record folder " + s.Folder(),
			}, opts.outputFormat(a.cfg))
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "TOML file describing the record fields")
	return cmd
}
