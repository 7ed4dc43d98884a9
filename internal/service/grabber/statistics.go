package grabber

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/avorobev/tube-grabber/internal/logger"
)

const (
	// unknownParentKey is used as a fallback key when the parent playlist is unknown.
	unknownParentKey = "unknown"

	// minMeaningfulDuration filters out durations too short to display.
	minMeaningfulDuration = 100 * time.Millisecond
)

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}

// beginSession records the session start time and mode for the summary.
func (s *ServiceImpl) beginSession() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.StartTime = time.Now()
	s.stats.IsDryRun = s.cfg.DryRun
}

// endSession records the session end time for the summary.
func (s *ServiceImpl) endSession() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.EndTime = time.Now()
}

// incrementTrackDownloaded atomically increments the downloaded tracks counter and adds bytes.
func (s *ServiceImpl) incrementTrackDownloaded(bytes int64) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.TracksDownloaded++
	s.stats.TotalTracksProcessed++
	s.stats.TotalBytesDownloaded += bytes
}

// incrementTrackSkipped atomically increments the skipped tracks counter.
func (s *ServiceImpl) incrementTrackSkipped() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.TracksSkipped++
	s.stats.TotalTracksProcessed++
}

// incrementTrackFailed atomically increments the failed tracks counter.
func (s *ServiceImpl) incrementTrackFailed() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.TracksFailed++
	s.stats.TotalTracksProcessed++
}

// incrementCoverEmbedded atomically increments the embedded covers counter.
func (s *ServiceImpl) incrementCoverEmbedded() {
	atomic.AddInt64(&s.stats.CoversEmbedded, 1)
}

// incrementCoverFailed atomically increments the failed covers counter.
func (s *ServiceImpl) incrementCoverFailed() {
	atomic.AddInt64(&s.stats.CoversFailed, 1)
}

// groupErrors separates per-video errors from playlist errors for better display organization.
func (s *ServiceImpl) groupErrors(errors []DownloadError) (videoErrors, playlistErrors []DownloadError) {
	for i := range errors {
		if errors[i].Category == DownloadCategoryPlaylist {
			playlistErrors = append(playlistErrors, errors[i])
		} else {
			videoErrors = append(videoErrors, errors[i])
		}
	}

	return videoErrors, playlistErrors
}

// PrintDownloadSummary prints a formatted summary of download statistics.
func (s *ServiceImpl) PrintDownloadSummary(ctx context.Context) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	stats := s.stats

	// If nothing was processed, don't print summary.
	if stats.TotalTracksProcessed == 0 {
		return
	}

	// Check if the context was canceled (CTRL+C or timeout).
	wasInterrupted := ctx.Err() != nil

	s.printSummaryHeader(ctx, wasInterrupted, stats.IsDryRun)
	s.printTrackStatistics(ctx, stats)
	s.printDataTransferStatistics(ctx, stats)
	s.printCoverArtStatistics(ctx, stats)
	s.printSummaryFooter(ctx)
	s.printErrorDetails(ctx, stats)
	s.printFinalMessage(ctx, wasInterrupted, stats)
	s.printDryRunSuggestion(ctx, stats)
}

// printSummaryHeader prints the summary header.
func (s *ServiceImpl) printSummaryHeader(ctx context.Context, wasInterrupted, isDryRun bool) {
	logger.Info(ctx, "")

	switch {
	case isDryRun:
		logger.Info(ctx, "═══════════════════════════════════════════════════════════════")
		logger.Info(ctx, "                  DRY-RUN PREVIEW")
		logger.Info(ctx, "═══════════════════════════════════════════════════════════════")
	case wasInterrupted:
		logger.Info(ctx, "═══════════════════════════════════════════════════════════════")
		logger.Info(ctx, "           DOWNLOAD SUMMARY (Interrupted)")
		logger.Info(ctx, "═══════════════════════════════════════════════════════════════")
	default:
		logger.Info(ctx, "═══════════════════════════════════════════════════════════════")
		logger.Info(ctx, "                     DOWNLOAD SUMMARY")
		logger.Info(ctx, "═══════════════════════════════════════════════════════════════")
	}
}

// printTrackStatistics prints track download statistics.
func (s *ServiceImpl) printTrackStatistics(ctx context.Context, stats *DownloadStatistics) {
	if stats.IsDryRun {
		logger.Infof(ctx, "Tracks:           %d total", stats.TotalTracksProcessed)

		if stats.TracksDownloaded > 0 {
			logger.Infof(ctx, "  Would Download: %d", stats.TracksDownloaded)
		}

		if stats.TracksSkipped > 0 {
			logger.Infof(ctx, "  Already Have:   %d", stats.TracksSkipped)
		}

		if stats.TracksFailed > 0 {
			logger.Infof(ctx, "  Unavailable:    %d", stats.TracksFailed)
		}

		return
	}

	logger.Infof(ctx, "Tracks:           %d total processed", stats.TotalTracksProcessed)

	if stats.TracksDownloaded > 0 {
		logger.Infof(ctx, "  Downloaded:      %d", stats.TracksDownloaded)
	}

	if stats.TracksSkipped > 0 {
		logger.Infof(ctx, "  Already Exist:   %d", stats.TracksSkipped)
	}

	if stats.TracksFailed > 0 {
		logger.Infof(ctx, "  Failed:          %d", stats.TracksFailed)
	}

	// Success rate.
	if stats.TotalTracksProcessed > 0 {
		successCount := stats.TracksDownloaded + stats.TracksSkipped
		successRate := float64(successCount) / float64(stats.TotalTracksProcessed) * 100
		logger.Infof(ctx, "  Success Rate:    %.1f%%", successRate)
	}
}

// printDataTransferStatistics prints data transfer statistics.
func (s *ServiceImpl) printDataTransferStatistics(ctx context.Context, stats *DownloadStatistics) {
	if stats.TotalBytesDownloaded > 0 {
		logger.Info(ctx, "")

		//nolint:gosec // TotalBytesDownloaded is always positive, no overflow risk.
		logger.Infof(ctx, "Data Downloaded:  %s", humanize.Bytes(uint64(stats.TotalBytesDownloaded)))
	}

	// Print duration if we have both start and end times (skip for dry-run).
	if !stats.IsDryRun && !stats.StartTime.IsZero() && !stats.EndTime.IsZero() {
		duration := stats.EndTime.Sub(stats.StartTime)

		// Only show if duration is meaningful.
		if duration > minMeaningfulDuration {
			logger.Infof(ctx, "Duration:         %s", formatDuration(duration))

			// Calculate and show average speed if we downloaded anything.
			if stats.TotalBytesDownloaded > 0 {
				bytesPerSecond := float64(stats.TotalBytesDownloaded) / duration.Seconds()
				logger.Infof(ctx, "Average Speed:    %s/s", humanize.Bytes(uint64(bytesPerSecond)))
			}
		}
	}
}

// printCoverArtStatistics prints cover art embedding statistics.
func (s *ServiceImpl) printCoverArtStatistics(ctx context.Context, stats *DownloadStatistics) {
	totalCovers := stats.CoversEmbedded + stats.CoversFailed
	if totalCovers == 0 {
		return
	}

	logger.Info(ctx, "")
	logger.Infof(ctx, "Cover Art:        %d total", totalCovers)

	if stats.CoversEmbedded > 0 {
		logger.Infof(ctx, "  Embedded:       %d", stats.CoversEmbedded)
	}

	if stats.CoversFailed > 0 {
		logger.Infof(ctx, "  Failed:         %d", stats.CoversFailed)
	}
}

// printSummaryFooter prints the summary footer separator.
func (s *ServiceImpl) printSummaryFooter(ctx context.Context) {
	logger.Info(ctx, "═══════════════════════════════════════════════════════════════")
}

// printErrorDetails prints detailed error information if any errors occurred.
func (s *ServiceImpl) printErrorDetails(ctx context.Context, stats *DownloadStatistics) {
	if len(stats.Errors) == 0 {
		return
	}

	logger.Info(ctx, "")
	logger.Errorf(ctx, "ERRORS ENCOUNTERED: %d", len(stats.Errors))

	// Group errors by parent playlist for better readability.
	videoErrors, playlistErrors := s.groupErrors(stats.Errors)

	s.printPlaylistErrors(ctx, playlistErrors)
	s.printVideoErrors(ctx, videoErrors)

	logger.Info(ctx, "")
	logger.Info(ctx, "═══════════════════════════════════════════════════════════════")

	// Print retry command for failed items.
	s.printRetryCommand(ctx, stats.Errors)
}

// printPlaylistErrors prints playlist-level errors.
func (s *ServiceImpl) printPlaylistErrors(ctx context.Context, playlistErrors []DownloadError) {
	if len(playlistErrors) == 0 {
		return
	}

	logger.Info(ctx, "")
	logger.Errorf(ctx, "PLAYLIST ERRORS:")

	for i := range playlistErrors {
		logger.Info(ctx, "")
		logger.Errorf(ctx, "  [%d] %s: %s", i+1, playlistErrors[i].Category, playlistErrors[i].ItemTitle)

		if playlistErrors[i].ItemURL != "" {
			logger.Errorf(ctx, "      URL: %s", playlistErrors[i].ItemURL)
		}

		logger.Errorf(ctx, "      ID: %s", playlistErrors[i].ItemID)
		logger.Errorf(ctx, "      Phase: %s", playlistErrors[i].Phase)
		logger.Errorf(ctx, "      Error: %s", playlistErrors[i].ErrorMessage)
	}
}

// printVideoErrors prints per-video errors grouped by parent playlist.
func (s *ServiceImpl) printVideoErrors(ctx context.Context, videoErrors []DownloadError) {
	if len(videoErrors) == 0 {
		return
	}

	logger.Info(ctx, "")
	logger.Errorf(ctx, "VIDEO ERRORS:")

	// Group by parent.
	parentGroups := s.groupVideoErrorsByParent(videoErrors)

	// Print grouped errors.
	for _, errs := range parentGroups {
		if len(errs) == 0 {
			continue
		}

		s.printParentGroupErrors(ctx, errs)
	}
}

// groupVideoErrorsByParent groups per-video errors by their parent playlist.
func (s *ServiceImpl) groupVideoErrorsByParent(videoErrors []DownloadError) map[string][]DownloadError {
	parentGroups := make(map[string][]DownloadError)

	for i := range videoErrors {
		key := videoErrors[i].ParentURL
		if key == "" {
			key = unknownParentKey
		}

		parentGroups[key] = append(parentGroups[key], videoErrors[i])
	}

	return parentGroups
}

// printParentGroupErrors prints errors for videos from a specific parent playlist.
func (s *ServiceImpl) printParentGroupErrors(ctx context.Context, errs []DownloadError) {
	firstErr := errs[0]

	logger.Info(ctx, "")

	if firstErr.ParentTitle != "" {
		logger.Errorf(ctx, "  From playlist: %s (%s)", firstErr.ParentTitle, firstErr.ParentURL)
	} else {
		logger.Errorf(ctx, "  Standalone videos:")
	}

	for i := range errs {
		logger.Info(ctx, "")
		logger.Errorf(ctx, "    [%d] %s", i+1, errs[i].ItemTitle)
		logger.Errorf(ctx, "        Video ID: %s", errs[i].ItemID)
		logger.Errorf(ctx, "        Phase: %s", errs[i].Phase)
		logger.Errorf(ctx, "        Error: %s", errs[i].ErrorMessage)
	}
}

// printRetryCommand generates and prints a command to retry failed downloads.
func (s *ServiceImpl) printRetryCommand(ctx context.Context, errors []DownloadError) {
	if len(errors) == 0 {
		return
	}

	// Collect unique URLs from failed items. For per-video failures inside a
	// playlist, retrying the playlist URL is the cheapest recovery path.
	var (
		urlsMap = make(map[string]bool)
		urls    []string
	)

	for i := range errors {
		url := errors[i].ItemURL
		if errors[i].ParentURL != "" {
			url = errors[i].ParentURL
		}

		if url == "" || urlsMap[url] {
			continue
		}

		urlsMap[url] = true

		urls = append(urls, url)
	}

	// If we have any failed items, show the retry command.
	if len(urls) > 0 {
		logger.Info(ctx, "")
		logger.Info(ctx, "To retry only failed downloads, run:")
		logger.Info(ctx, "")

		// Build command line.
		command := "tube-grabber"
		for _, url := range urls {
			command += " " + url
		}

		logger.Infof(ctx, "  %s", command)
	}
}

// printDryRunSuggestion prints a suggestion to proceed with actual download after dry-run.
func (s *ServiceImpl) printDryRunSuggestion(ctx context.Context, stats *DownloadStatistics) {
	if !stats.IsDryRun || stats.TracksDownloaded == 0 {
		return
	}

	logger.Info(ctx, "")
	logger.Info(ctx, "To proceed with actual download, remove the --dry-run flag:")
	logger.Info(ctx, "  tube-grabber <same command without --dry-run>")
}

// printFinalMessage prints a helpful message based on download results.
func (s *ServiceImpl) printFinalMessage(ctx context.Context, wasInterrupted bool, stats *DownloadStatistics) {
	// Dry-run specific messages.
	if stats.IsDryRun {
		if stats.TracksDownloaded == 0 && stats.TracksSkipped > 0 {
			logger.Info(ctx, "")
			logger.Info(ctx, "All tracks already exist - nothing to download.")
		}

		return
	}

	// Regular download messages.
	switch {
	case wasInterrupted:
		logger.Info(ctx, "")
		logger.Warn(ctx, "Download interrupted by user (CTRL+C).")

		if stats.TracksDownloaded > 0 {
			logger.Infof(ctx, "Successfully downloaded %d track(s) before interruption.", stats.TracksDownloaded)
		}
	case len(stats.Errors) > 0:
		logger.Info(ctx, "")
		logger.Warnf(ctx, "%d error(s) occurred during download. See detailed error log above.", len(stats.Errors))
	case stats.TracksDownloaded > 0:
		logger.Info(ctx, "")
		logger.Info(ctx, "All downloads completed successfully!")
	case stats.TracksSkipped > 0 && stats.TracksDownloaded == 0:
		logger.Info(ctx, "")
		logger.Info(ctx, "All tracks already exist in the output directory.")
	}
}
