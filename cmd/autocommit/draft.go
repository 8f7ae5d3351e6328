package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nahidhasan98/autocommit/internal/analyzer"
	"github.com/nahidhasan98/autocommit/internal/app"
	"github.com/nahidhasan98/autocommit/internal/batch"
	"github.com/nahidhasan98/autocommit/internal/config"
	"github.com/nahidhasan98/autocommit/internal/generator"
	"github.com/nahidhasan98/autocommit/internal/git"
	"github.com/nahidhasan98/autocommit/internal/history"
	"github.com/nahidhasan98/autocommit/internal/logger"
)

func newDraftCommand(envFile *string) *cobra.Command {
	var (
		doCommit bool
		useLLM   bool
	)

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Print the commit message for the current git status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if useLLM && !cfg.LLM.Enabled {
				return fmt.Errorf("--llm needs OPENAI_API_KEY")
			}
			if !useLLM {
				cfg.LLM.Enabled = false
			}

			// stdout carries the message only
			log := logger.NewWithWriter(os.Stderr, cfg.Log.Level, cfg.Log.Format)
			return draft(cmd.Context(), cmd.OutOrStdout(), cfg, log, doCommit)
		},
	}

	cmd.Flags().BoolVar(&doCommit, "commit", false, "stage and commit the changes with the message")
	cmd.Flags().BoolVar(&useLLM, "llm", false, "ask the language model, falling back to the local draft")

	return cmd
}

func draft(ctx context.Context, out io.Writer, cfg *config.Config, log *logger.Logger, doCommit bool) error {
	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	client, err := git.New(cfg.Watch.RepoPath, cfg.Git.Remote, 0)
	if err != nil {
		return err
	}
	if !client.IsRepo(ctx) {
		return fmt.Errorf("%s is not a git repository", client.Path())
	}
	if err := client.UseToplevel(ctx); err != nil {
		return err
	}

	changes, err := client.Status(ctx)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		fmt.Fprintln(out, "nothing to commit")
		return nil
	}

	gen := newGenerator(cfg, log)
	if doCommit {
		return commitNow(ctx, out, cfg, log, engine, client, gen, changes)
	}

	var diff string
	if cfg.LLM.Enabled {
		if diff, err = client.StagedDiff(ctx, cfg.LLM.MaxDiffSize); err != nil {
			log.WarnErr("Failed to read staged diff", err)
		}
	}

	res, err := gen.Generate(ctx, generator.NewRequest(engine, changes, diff))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, res.Message)
	return nil
}

// commitNow runs one flush over changes with the same service the watcher uses
func commitNow(ctx context.Context, out io.Writer, cfg *config.Config, log *logger.Logger,
	engine *analyzer.Engine, client *git.Client, gen generator.Generator, changes []analyzer.Change) error {
	store, err := history.Open(ctx, cfg.History.Driver, cfg.History.DSN, cfg.History.MaxEntries)
	if err != nil {
		return err
	}
	defer store.Close()

	tracker := batch.NewTracker()
	for _, c := range changes {
		tracker.Add(c.Path, c.Kind)
	}

	svc := app.NewService(engine, tracker, client, gen, store, nil, app.Options{
		RepoName:    filepath.Base(client.Path()),
		AutoPush:    cfg.Git.AutoPush,
		MaxDiffSize: cfg.LLM.MaxDiffSize,
	}, log)

	res, err := svc.Flush(ctx)
	if err != nil {
		return err
	}
	if res.Empty() {
		fmt.Fprintln(out, "nothing to commit")
		return nil
	}

	fmt.Fprintln(out, res.Message)
	fmt.Fprintf(out, "\ncommitted %s (%d files, %s)\n", res.Hash, len(res.Files), res.Source)
	if res.Warning != "" {
		fmt.Fprintf(out, "warning: %s\n", res.Warning)
	}
	return nil
}

func newClassifyCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <path>...",
		Short: "Print the category of each path",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			engine, err := newEngine(cfg)
			if err != nil {
				return err
			}
			return classify(cmd.OutOrStdout(), engine, args)
		},
	}
}

func classify(out io.Writer, engine *analyzer.Engine, paths []string) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, p := range paths {
		fmt.Fprintf(tw, "%s\t%s\n", engine.Classify(p), p)
	}
	return tw.Flush()
}
