package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"captioner/internal/api"
	"captioner/internal/config"
	"captioner/internal/deps"
	"captioner/internal/fileutil"
	"captioner/internal/jobs"
	"captioner/internal/logging"
	"captioner/internal/pipeline"
	"captioner/internal/preflight"
	"captioner/internal/services/execrun"
	"captioner/internal/staging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bindFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the staging sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if bind := strings.TrimSpace(bindFlag); bind != "" {
				cfg.Server.Bind = bind
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&bindFlag, "bind", "", "Override the configured listen address")
	return cmd
}

func runServer(cmdCtx context.Context, cfg *config.Config) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	archiveErr := archivePreviousLog(cfg.Paths.LogDir)
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if archiveErr != nil {
		logging.WarnWithContext(logger, "previous log not archived", "log_archive_failed",
			logging.Error(archiveErr),
			logging.String(logging.FieldErrorHint, "check log_dir permissions"),
			logging.String(logging.FieldImpact, "this run appends to the previous log file"),
		)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "captioner-*.log"},
	)

	runner := execrun.NewExecRunner(logger)
	for _, result := range preflight.Failed(preflight.RunAll(signalCtx, cfg, runner)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run `captioner check` for details"),
			logging.String(logging.FieldImpact, "requests that need this dependency will fail"),
		)
	}
	for _, feature := range deps.Missing(preflight.CheckSystemDeps(cfg)) {
		logger.Info("engine feature unavailable",
			logging.String("feature", string(feature)),
			logging.String(logging.FieldEventType, "feature_unavailable"),
		)
	}

	pipelineOpts := pipeline.Options{
		Transcriber:  newTranscriber(cfg, runner, logger),
		Renderer:     newOrchestrator(cfg, runner, logger),
		StagingDir:   cfg.Paths.StagingDir,
		CleanupGrace: cfg.CleanupGrace(),
		Logger:       logger,
	}
	serverOpts := api.Options{Config: cfg, Logger: logger}

	if cfg.History.Enabled {
		store, err := openLedger(signalCtx, cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		pipelineOpts.Ledger = store
		serverOpts.Jobs = store
	}
	serverOpts.Pipeline = pipeline.New(pipelineOpts)

	sweeper := staging.NewSweeper(cfg.Paths.StagingDir, cfg.SweepInterval(), cfg.StagingMaxAge(), logger)
	go sweeper.Run(signalCtx)

	gin.SetMode(gin.ReleaseMode)
	server, err := api.NewServer(serverOpts)
	if err != nil {
		return fmt.Errorf("create api server: %w", err)
	}
	if err := server.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("captioner shutting down", logging.String(logging.FieldEventType, "shutdown"))
	server.Stop()
	return nil
}

// openLedger opens the job ledger and prunes entries past retention.
func openLedger(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*jobs.Store, error) {
	store, err := jobs.Open(cfg.HistoryDBPath())
	if err != nil {
		return nil, fmt.Errorf("open job ledger: %w", err)
	}
	if days := cfg.History.RetentionDays; days > 0 {
		cutoff := time.Now().AddDate(0, 0, -days)
		pruned, err := store.Prune(ctx, cutoff)
		if err != nil {
			logging.WarnWithContext(logger, "job ledger prune failed", "ledger_prune_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the ledger database if it is corrupt"),
				logging.String(logging.FieldImpact, "old job entries are kept"),
			)
		} else if pruned > 0 {
			logger.Info("job ledger pruned", logging.Int64("removed", pruned))
		}
	}
	return store, nil
}

// archivePreviousLog renames the last run's log file to a timestamped name
// so retention can prune it.
func archivePreviousLog(logDir string) error {
	if strings.TrimSpace(logDir) == "" {
		return nil
	}
	current := filepath.Join(logDir, logging.LogFileName)
	info, err := os.Stat(current)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return nil
	}
	stamp := info.ModTime().UTC().Format("20060102T150405.000Z")
	return fileutil.MoveFile(current, filepath.Join(logDir, fmt.Sprintf("captioner-%s.log", stamp)))
}
