package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/text"

	"yt/internal/backends/git"
	"yt/internal/config"
	"yt/internal/errors"
	"yt/internal/record"
	"yt/internal/related"
	"yt/internal/repostate"
	"yt/internal/slogutil"
	"yt/internal/storage"
	"yt/internal/store"
)

// app is everything one invocation works with.
type app struct {
	root    string
	cfg     *config.Config
	logger  *slog.Logger
	backend *git.GitAdapter
	store   *store.Store

	cache     *storage.BlobCache
	logCloser io.Closer
}

// openApp resolves the repository, loads config, and wires logging, the
// revision cache and the git backend. With withStore the record folder must
// already be initialized.
func openApp(opts *globalOptions, stderr io.Writer, withStore bool) (*app, error) {
	root, err := resolveRoot(opts.dir)
	if err != nil {
		return nil, err
	}

	cfg, cfgErr := config.LoadConfig(root)
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}

	logFile := cfg.Logging.File
	if logFile != "" && !filepath.IsAbs(logFile) {
		logFile = filepath.Join(root, logFile)
	}
	logger, closer, logErr := slogutil.Setup(slogutil.Options{
		Console:    stderr,
		Level:      slogutil.LevelFromVerbosity(opts.verbose, opts.quiet),
		File:       logFile,
		FileLevel:  slogutil.LevelFromString(cfg.Logging.Level),
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	logger = logger.With("run", uuid.NewString()[:8])
	if logErr != nil {
		logger.Warn("Log file unavailable", "file", logFile, "error", logErr)
	}
	if cfgErr != nil {
		logger.Warn("Failed to load config, using defaults", "error", cfgErr)
	}

	if !cfg.Output.Color {
		text.DisableColors()
	}

	a := &app{root: root, cfg: cfg, logger: logger, logCloser: closer}

	var gitOpts []git.Option
	if cfg.Cache.Enabled {
		cache, err := storage.OpenBlobCache(cfg.CachePath(root), logger)
		if err != nil {
			logger.Warn("Revision cache disabled", "error", err)
		} else {
			a.cache = cache
			gitOpts = append(gitOpts, git.WithBlobCache(cache))
		}
	}

	a.backend, err = git.NewGitAdapter(root, cfg, logger, gitOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	if withStore {
		a.store, err = store.Open(root, cfg, a.backend, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	logger.Debug("Invocation ready", "root", root, "folder", cfg.DBFolder)
	return a, nil
}

// Close releases the cache and flushes the log file.
func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Debug("Closing revision cache failed", "error", err)
		}
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

func resolveRoot(dir string) (string, error) {
	base, err := baseDir(dir)
	if err != nil {
		return "", err
	}
	return repostate.GetRepoRoot(base)
}

// baseDir is the directory relative paths on the command line start from.
func baseDir(dir string) (string, error) {
	if dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", errors.New(errors.InvalidInput, "bad --dir", err)
		}
		return abs, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.New(errors.InternalError, "failed to get current directory", err)
	}
	return wd, nil
}

// resolveID returns the id given on the command line, or guesses it from
// the working tree changes and the open records.
func (a *app) resolveID(ctx context.Context, args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	candidates, err := a.openCandidates(ctx)
	if err != nil {
		return "", err
	}
	return related.NewScanner(a.backend, a.store.Folder(), a.logger).Guess(ctx, candidates)
}

func (a *app) openCandidates(ctx context.Context) ([]related.Candidate, error) {
	entries, err := a.store.List(ctx, record.StatusOpen)
	if err != nil {
		return nil, err
	}
	out := make([]related.Candidate, len(entries))
	for i, e := range entries {
		out[i] = related.Candidate{ID: e.ID, Title: e.Record.Title()}
	}
	return out, nil
}
