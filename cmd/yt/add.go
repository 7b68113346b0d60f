package main

import (
	"github.com/spf13/cobra"

	"yt/internal/errors"
)

func newAddCmd(opts *globalOptions, fields fieldSchemas) *cobra.Command {
	var ff *fieldFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a record",
		Long: `Adds a record. Fields not given take their schema default; status
starts as "open". The new record file is staged but not committed, so it can
be committed together with the work it tracks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.store.Create(cmd.Context(), ff.collect(cmd))
			if id == "" {
				return err
			}
			if rerr := render(cmd.OutOrStdout(), &messageResponse{Message: "Added record: " + id, ID: id}, opts.outputFormat(a.cfg)); rerr != nil {
				return rerr
			}
			return err
		},
	}
	ff = addFieldFlags(cmd, fields.schema, fields.creation)
	return cmd
}

func newEditCmd(opts *globalOptions, fields fieldSchemas) *cobra.Command {
	var ff *fieldFlags

	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit a record",
		Long: `Updates the given fields of a record and leaves the rest as they are.
Without an id the record is guessed from the files changed in the working
tree.`,
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
			err = a.store.Update(cmd.Context(), id, ff.collect(cmd))
			if err != nil && !errors.IsSoft(err) {
				return err
			}
			if rerr := render(cmd.OutOrStdout(), &messageResponse{Message: "Updated record: " + id, ID: id}, opts.outputFormat(a.cfg)); rerr != nil {
				return rerr
			}
			return err
		},
	}
	ff = addFieldFlags(cmd, fields.schema, nil)
	return cmd
}

func newCloseCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "close [id]",
		Short: "Close a record",
		Long:  "Sets a record's status to closed. Without an id the record is guessed from the files changed in the working tree.",
		Args:  cobra.MaximumNArgs(1),
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
			err = a.store.Close(cmd.Context(), id)
			if err != nil && !errors.IsSoft(err) {
				return err
			}
			if rerr := render(cmd.OutOrStdout(), &messageResponse{Message: "Closed record: " + id, ID: id}, opts.outputFormat(a.cfg)); rerr != nil {
				return rerr
			}
			return err
		},
	}
}
