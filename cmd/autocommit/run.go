package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nahidhasan98/autocommit/internal/analyzer"
	"github.com/nahidhasan98/autocommit/internal/app"
	"github.com/nahidhasan98/autocommit/internal/batch"
	"github.com/nahidhasan98/autocommit/internal/config"
	"github.com/nahidhasan98/autocommit/internal/errors"
	"github.com/nahidhasan98/autocommit/internal/generator"
	"github.com/nahidhasan98/autocommit/internal/git"
	"github.com/nahidhasan98/autocommit/internal/handlers"
	"github.com/nahidhasan98/autocommit/internal/history"
	"github.com/nahidhasan98/autocommit/internal/logger"
	"github.com/nahidhasan98/autocommit/internal/notify"
	"github.com/nahidhasan98/autocommit/internal/server"
	"github.com/nahidhasan98/autocommit/internal/validation"
	"github.com/nahidhasan98/autocommit/internal/watcher"
)

// finalFlushTimeout bounds the flush that runs after shutdown is requested
const finalFlushTimeout = 30 * time.Second

func newRunCommand(envFile *string) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the working tree and commit after each quiet period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(*envFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if once {
				cfg.Watch.Once = true
			}
			log := logger.New(cfg.Log.Level, cfg.Log.Format)
			log.Info("Starting autocommit")

			return run(ctx, cfg, log)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "commit the pending changes once and exit (WATCH_ONCE)")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	repo, err := openRepo(ctx, cfg, log)
	if err != nil {
		return err
	}

	store, err := history.Open(ctx, cfg.History.Driver, cfg.History.DSN, cfg.History.MaxEntries)
	if err != nil {
		return err
	}
	defer store.Close()

	notifier, err := startNotifier(ctx, cfg, log)
	if err != nil {
		return err
	}
	if wa, ok := notifier.(*notify.WhatsApp); ok {
		defer wa.Stop()
	}

	repoPath, err := filepath.Abs(cfg.Watch.RepoPath)
	if err != nil {
		return fmt.Errorf("resolve repository path: %w", err)
	}
	if repo != nil {
		repoPath = repo.Path()
	}

	tracker := batch.NewTracker()
	svc := app.NewService(engine, tracker, repoOrNil(repo), newGenerator(cfg, log), store, notifier, app.Options{
		RepoName:    filepath.Base(repoPath),
		Simulation:  cfg.Git.Simulation,
		AutoPush:    cfg.Git.AutoPush,
		MaxDiffSize: cfg.LLM.MaxDiffSize,
	}, log)

	prefix, err := watchPrefix(repoPath, cfg.Watch.Path)
	if err != nil {
		return err
	}

	if cfg.Watch.Once {
		return runOnce(ctx, svc, repoOrNil(repo), tracker, prefix, cfg.Watch.IgnorePatterns, log)
	}

	w, err := watcher.New(cfg.Watch.Path, watcher.Options{
		Delay:          cfg.Watch.CommitDelay,
		IgnorePatterns: cfg.Watch.IgnorePatterns,
		OnChange: func(p string, kind analyzer.Kind) {
			if prefix != "" {
				p = path.Join(prefix, p)
			}
			tracker.Add(p, kind)
		},
		OnQuiet: func(ctx context.Context) {
			flush(ctx, svc, log)
		},
	}, log)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})

	if cfg.Server.Enabled {
		h := handlers.New(svc, store, notifier, log, cfg.Webhooks.GitHubSecret, cfg.Webhooks.GiteaSecret)
		srv := server.New(cfg.Server, cfg.Security.APIKeys, h, log)
		g.Go(func() error {
			return srv.Run(gctx)
		})
	}

	runErr := g.Wait()
	if runErr != nil {
		log.Error("Service failed", runErr)
	} else {
		log.Info("Received shutdown signal")
	}

	// commit whatever arrived after the last quiet period
	flushCtx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
	defer cancel()
	flush(flushCtx, svc, log)

	log.Info("Application stopped")
	return runErr
}

// runOnce commits what git reports as pending under the watch path and
// returns. Without a repository nothing is pending.
func runOnce(ctx context.Context, svc *app.Service, repo app.Repo, tracker *batch.Tracker,
	prefix string, ignorePatterns []string, log *logger.Logger) error {
	if repo != nil {
		n, err := seed(ctx, repo, tracker, prefix, watcher.NewMatcher(ignorePatterns))
		if err != nil {
			return errors.GitFailed(err)
		}
		log.Infof("Found %d pending changes", n)
	}

	res, err := svc.Flush(ctx)
	if err != nil {
		return err
	}
	if res.Empty() {
		log.Info("Nothing to commit")
	} else {
		log.Infof("Committed %d files (%s)", len(res.Files), res.Status)
	}
	if res.Warning != "" {
		log.Warnf("Committed with warning: %s", res.Warning)
	}
	return nil
}

// seed queues the work tree changes below prefix that are not ignored
func seed(ctx context.Context, repo app.Repo, tracker *batch.Tracker, prefix string, ignore watcher.Matcher) (int, error) {
	changes, err := repo.Status(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, c := range changes {
		rel := c.Path
		if prefix != "" {
			if !strings.HasPrefix(rel, prefix+"/") {
				continue
			}
			rel = strings.TrimPrefix(rel, prefix+"/")
		}
		if ignore.Match(rel) {
			continue
		}
		tracker.Add(c.Path, c.Kind)
		n++
	}
	return n, nil
}

func newEngine(cfg *config.Config) (*analyzer.Engine, error) {
	rules, err := config.LoadRules(cfg.Rules.File)
	if err != nil {
		return nil, err
	}
	return analyzer.New(rules)
}

// openRepo returns nil in simulation mode. Otherwise the repository is
// initialised when the path is not inside a work tree yet.
func openRepo(ctx context.Context, cfg *config.Config, log *logger.Logger) (*git.Client, error) {
	if cfg.Git.Simulation {
		log.Info("Simulation mode: commits are recorded but git is never run")
		return nil, nil
	}

	client, err := git.New(cfg.Watch.RepoPath, cfg.Git.Remote, 0)
	if err != nil {
		return nil, err
	}
	if v, err := client.Version(ctx); err == nil {
		log.Debugf("Using %s", v)
	}
	if !client.IsRepo(ctx) {
		log.Infof("Initializing git repository in %s", client.Path())
		if err := client.Init(ctx); err != nil {
			return nil, errors.GitFailed(err)
		}
	}
	// REPO_PATH may name a subdirectory of the work tree
	if err := client.UseToplevel(ctx); err != nil {
		return nil, errors.GitFailed(err)
	}
	return client, nil
}

// repoOrNil keeps a nil client from becoming a non-nil interface
func repoOrNil(c *git.Client) app.Repo {
	if c == nil {
		return nil
	}
	return c
}

func newGenerator(cfg *config.Config, log *logger.Logger) generator.Generator {
	if !cfg.LLM.Enabled {
		return generator.Local{}
	}
	return generator.NewFallback(generator.NewLLM(cfg.LLM, log), log)
}

func startNotifier(ctx context.Context, cfg *config.Config, log *logger.Logger) (notify.Notifier, error) {
	if !cfg.WhatsApp.Enabled {
		return notify.Nop{}, nil
	}
	if !validation.New().IsValidJID(cfg.WhatsApp.Recipient) {
		log.Warnf("WhatsApp recipient %q does not look like a phone or group JID", cfg.WhatsApp.Recipient)
	}

	wa, err := notify.NewWhatsApp(ctx, cfg.WhatsApp, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create WhatsApp client: %w", err)
	}
	if err := wa.Start(ctx); err != nil {
		return nil, err
	}
	return wa, nil
}

// watchPrefix is the watch path relative to the repository, in slash form.
// Events are relative to the watch path while git wants repository paths.
func watchPrefix(repoPath, watchPath string) (string, error) {
	watchAbs, err := resolvePath(watchPath)
	if err != nil {
		return "", fmt.Errorf("resolve watch path: %w", err)
	}
	if repoPath, err = resolvePath(repoPath); err != nil {
		return "", fmt.Errorf("resolve repository path: %w", err)
	}
	rel, err := filepath.Rel(repoPath, watchAbs)
	if err != nil {
		return "", fmt.Errorf("watch path %s is not inside %s: %w", watchAbs, repoPath, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("watch path %s is not inside %s", watchAbs, repoPath)
	}
	if rel == "." {
		return "", nil
	}
	return rel, nil
}

// resolvePath is the absolute path with symlinks resolved when it exists,
// so it compares equal to what git reports as the top level
func resolvePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

func flush(ctx context.Context, svc *app.Service, log *logger.Logger) {
	res, err := svc.Flush(ctx)

	var appErr *errors.AppError
	switch {
	case stderrors.As(err, &appErr) && appErr.Code == errors.ErrCodeFlushInProgress:
		log.Debug("Flush already running, changes stay queued")
	case err != nil:
		log.Error("Flush failed", err)
	case res.Empty():
		log.Debug("Nothing to commit")
	case res.Warning != "":
		log.Warnf("Committed with warning: %s", res.Warning)
	}
}
