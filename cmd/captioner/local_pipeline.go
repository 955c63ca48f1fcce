package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"captioner/internal/config"
	"captioner/internal/fileutil"
	"captioner/internal/pipeline"
	"captioner/internal/services"
	"captioner/internal/services/execrun"
	"captioner/internal/staging"
)

// localPipeline builds a pipeline for one CLI invocation. The returned close
// function releases the job ledger when history is enabled.
func localPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, func(), error) {
	runner := execrun.NewExecRunner(logger)
	opts := pipeline.Options{
		Transcriber: newTranscriber(cfg, runner, logger),
		Renderer:    newOrchestrator(cfg, runner, logger),
		StagingDir:  cfg.Paths.StagingDir,
		Logger:      logger,
	}
	closeFn := func() {}
	if cfg.History.Enabled {
		store, err := openLedger(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		opts.Ledger = store
		closeFn = func() { _ = store.Close() }
	}
	return pipeline.New(opts), closeFn, nil
}

// stageCopy copies a user file into the staging directory and tracks the
// copy, so pipeline cleanup never touches the original.
func stageCopy(cfg *config.Config, scope *staging.Scope, src, prefix string) (string, error) {
	if _, err := fileutil.NonEmptyRegular(src); err != nil {
		return "", services.Wrap(services.ErrInvalidInput, "cli", "stage", src, err)
	}
	dest := staging.NewPath(cfg.Paths.StagingDir, prefix, filepath.Ext(src))
	scope.Track(dest)
	if err := fileutil.CopyFile(src, dest); err != nil {
		return "", fmt.Errorf("stage %s: %w", src, err)
	}
	return dest, nil
}
