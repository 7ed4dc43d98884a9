package app

import (
	"context"

	"github.com/avorobev/tube-grabber/internal/config"
	"github.com/avorobev/tube-grabber/internal/logger"
	"github.com/avorobev/tube-grabber/internal/service/browser"
)

// ExecuteCookiesCommand executes the cookies export command.
// It opens a browser, waits for the user to sign in to YouTube, writes the
// session cookies to a Netscape-format file, and records its path in the
// configuration file.
func ExecuteCookiesCommand(ctx context.Context, cfg *config.Config) {
	logger.Info(ctx, "Starting cookie export process")

	// Create the browser cookie export service.
	browserService, err := browser.NewService(cfg)
	if err != nil {
		logger.Fatalf(ctx, "Failed to initialize browser service: %v", err)
		return
	}

	// Perform the sign-in and export the session cookies.
	cookiesPath, err := browserService.LoginAndExportCookies(ctx)
	if err != nil {
		logger.Fatalf(ctx, "Cookie export failed: %v", err)
		return
	}

	// Update configuration with the exported cookies file.
	cfg.CookiesFile = cookiesPath

	// Save configuration to file.
	if err = config.SaveConfig(cfg); err != nil {
		logger.Fatalf(ctx, "Failed to save configuration: %v", err)
		return
	}

	// Print success message.
	logger.Info(ctx, "Configuration updated successfully!")
	logger.Info(ctx, "Cookie export complete! Age-restricted and private videos are now reachable.")
	logger.Info(ctx, "")
	logger.Info(ctx, "Try downloading a video:")
	logger.Info(ctx, "tube-grabber https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	logger.Info(ctx, "")
	logger.Info(ctx, "Or a playlist:")
	logger.Info(ctx, "tube-grabber https://www.youtube.com/playlist?list=PLx0sYbCqOb8TBPRdmBHs5Iftvv9TPboYG")
}
