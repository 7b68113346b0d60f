package main

import (
	"github.com/spf13/cobra"

	"yt/internal/paths"
	"yt/internal/related"
)

func newRelatedCmd(opts *globalOptions) *cobra.Command {
	var globs bool

	cmd := &cobra.Command{
		Use:   "related [files...]",
		Short: "List open records related to files",
		Long: `Lists the open records whose history touched each file. Without files
the modified and added files of the working tree are used, leaving out the
record folder itself. File arguments are relative to the current directory;
with --glob they are patterns matched against repository paths.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(opts, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			var files []string
			switch {
			case globs && len(args) > 0:
				files = args
			case len(args) > 0:
				base, err := baseDir(opts.dir)
				if err != nil {
					return err
				}
				for _, f := range args {
					rel, err := paths.RepoRelative(f, base, a.root)
					if err != nil {
						return err
					}
					files = append(files, rel)
				}
			default:
				globs = false
				changed, err := a.backend.ModifiedOrAdded(ctx)
				if err != nil {
					return err
				}
				for _, f := range changed {
					if !paths.InFolder(f, a.store.Folder()) {
						files = append(files, f)
					}
				}
			}

			candidates, err := a.openCandidates(ctx)
			if err != nil {
				return err
			}
			ids := make([]string, len(candidates))
			titles := make(map[string]string, len(candidates))
			for i, c := range candidates {
				ids[i] = c.ID
				titles[c.ID] = c.Title
			}

			scanner := related.NewScanner(a.backend, a.store.Folder(), a.logger)
			resp := &relatedResponse{}
			for _, f := range files {
				m := related.Files([]string{f})
				if globs {
					if m, err = related.Globs([]string{f}); err != nil {
						return err
					}
				}
				matched, err := scanner.Related(ctx, m, ids)
				if err != nil {
					return err
				}
				sec := relatedSection{File: f, Records: []related.Candidate{}}
				for _, id := range matched {
					sec.Records = append(sec.Records, related.Candidate{ID: id, Title: titles[id]})
				}
				resp.Sections = append(resp.Sections, sec)
			}
			return render(cmd.OutOrStdout(), resp, opts.outputFormat(a.cfg))
		},
	}
	cmd.Flags().BoolVar(&globs, "glob", false, "Treat arguments as glob patterns")
	return cmd
}
