package app

import (
	"context"

	"github.com/avorobev/tube-grabber/internal/client/ytdlp"
	"github.com/avorobev/tube-grabber/internal/config"
	"github.com/avorobev/tube-grabber/internal/deps"
	"github.com/avorobev/tube-grabber/internal/logger"
	"github.com/avorobev/tube-grabber/internal/service/grabber"
)

// ExecuteRootCommand is the entry point for the download command.
// It verifies the external tools, wires the service components, and runs
// a background download session over the provided URLs.
func ExecuteRootCommand(ctx context.Context, cfg *config.Config, urls []string) {
	checker := deps.NewChecker()
	if err := checker.CheckAll(ctx); err != nil {
		logger.Fatalf(ctx, "Dependency check failed: %v", err)
	}

	mediaClient, err := ytdlp.NewClient(cfg)
	if err != nil {
		logger.Fatalf(ctx, "Failed to initialize media client: %v", err)
	}

	urlProcessor := grabber.NewURLProcessor()
	templateManager := grabber.NewTemplateManager(ctx, cfg)
	tagProcessor := grabber.NewTagProcessor()
	artworkProcessor := grabber.NewArtworkProcessor(int(cfg.MaxCoverSize))

	s := grabber.NewService(cfg, mediaClient, urlProcessor, templateManager, tagProcessor, artworkProcessor)

	// Ensure statistics are ALWAYS printed, even on panic.
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(ctx, "Panic recovered: %v", r)
		}

		s.PrintDownloadSummary(ctx)
	}()

	worker := grabber.NewWorker(s)

	callbacks := grabber.WorkerCallbacks{
		OnLog: func(message string) {
			logger.Info(ctx, message)
		},
		OnProgress: func(percent float64) {
			logger.Infof(ctx, "Session progress: %.0f%%", percent)
		},
		OnDone: func(stopped bool) {
			if stopped {
				logger.Warn(ctx, "Download session interrupted")
				return
			}

			logger.Info(ctx, "Download session completed")
		},
	}

	if err = worker.Start(ctx, urls, callbacks); err != nil {
		logger.Fatalf(ctx, "Failed to start download session: %v", err)
	}

	// Stop lets the in-flight URL finish once the context is canceled.
	go func() {
		<-ctx.Done()
		worker.Stop()
	}()

	worker.Wait()
}
