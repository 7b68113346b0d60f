package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"yt/internal/config"
	"yt/internal/errors"
	"yt/internal/record"
	"yt/internal/slogutil"
	"yt/internal/store"
	"yt/internal/version"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	verbose int
	quiet   bool
	format  string
	noColor bool
	dir     string
}

// outputFormat returns the --format value, or the configured default.
func (o *globalOptions) outputFormat(cfg *config.Config) OutputFormat {
	if o.format != "" {
		return OutputFormat(o.format)
	}
	if cfg != nil && cfg.Output.Format != "" {
		return OutputFormat(cfg.Output.Format)
	}
	return FormatHuman
}

// fieldSchemas are the record fields add and edit expose as flags.
type fieldSchemas struct {
	schema   *record.Schema
	creation *record.Schema
}

func newRootCmd(fields fieldSchemas, stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "yt",
		Short: "yt - a record tracker that lives in your git working tree",
		Long: `yt keeps one YAML file per record plus an index inside the repository.
Record history is rebuilt from git, and records are linked to the code
changes committed alongside them.`,
		Version:       version.Get().Short(),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				text.DisableColors()
			}
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetVersionTemplate("yt version {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.CountVarP(&opts.verbose, "verbose", "v", "Increase log verbosity (repeatable)")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress all log output")
	pf.StringVar(&opts.format, "format", "", "Output format (human, json, yaml, toml)")
	pf.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	pf.StringVarP(&opts.dir, "dir", "C", "", "Run as if started in this directory")

	rootCmd.AddCommand(
		newInitCmd(opts),
		newAddCmd(opts, fields),
		newEditCmd(opts, fields),
		newListCmd(opts),
		newShowCmd(opts),
		newRelatedCmd(opts),
		newCloseCmd(opts),
		newBurndownCmd(opts),
		newReindexCmd(opts),
		newVersionCmd(opts),
	)
	return rootCmd
}

// run executes one invocation and returns the process exit code. Soft
// failures are reported as warnings and still exit 0.
func run(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(loadFieldSchemas(dirFromArgs(args)), stdout, stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}
	if errors.IsSoft(err) {
		fmt.Fprintf(stderr, "Warning: %v\n", err)
		printFixes(stderr, err)
		return 0
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	printFixes(stderr, err)
	return 1
}

func printFixes(w io.Writer, err error) {
	var te *errors.TrakError
	if !stderrors.As(err, &te) {
		return
	}
	for _, fix := range te.SuggestedFixes {
		if fix.Command != "" {
			fmt.Fprintf(w, "  try: %s\n", fix.Command)
		} else if fix.Description != "" {
			fmt.Fprintf(w, "  hint: %s\n", fix.Description)
		}
	}
}

// loadFieldSchemas reads the record schema before flags are parsed so add
// and edit can offer one flag per field. Outside an initialized repository
// the built-in schema is used; the command itself reports the real problem.
func loadFieldSchemas(dir string) fieldSchemas {
	fallback := fieldSchemas{schema: record.DefaultSchema(), creation: record.DefaultCreationSchema()}

	root, err := resolveRoot(dir)
	if err != nil {
		return fallback
	}
	cfg, err := config.LoadConfig(root)
	if err != nil {
		cfg = config.DefaultConfig()
	}
	s, err := store.Open(root, cfg, nil, slogutil.NewDiscardLogger())
	if err != nil {
		return fallback
	}
	schema, err := s.Schema()
	if err != nil {
		return fallback
	}
	creation, err := s.CreationSchema()
	if err != nil {
		creation = record.NewSchema()
	}
	return fieldSchemas{schema: schema, creation: creation}
}

// dirFromArgs finds -C/--dir ahead of cobra's own parsing.
func dirFromArgs(args []string) string {
	for i, a := range args {
		switch {
		case a == "--":
			return ""
		case a == "-C" || a == "--dir":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(a, "--dir="):
			return strings.TrimPrefix(a, "--dir=")
		case strings.HasPrefix(a, "-C") && len(a) > 2:
			return strings.TrimPrefix(strings.TrimPrefix(a, "-C"), "=")
		}
	}
	return ""
}
