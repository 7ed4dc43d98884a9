package grabber

//go:generate $MOCKGEN -source=service.go -destination=mocks/service_mock.go

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/avorobev/tube-grabber/internal/client/ytdlp"
	"github.com/avorobev/tube-grabber/internal/config"
	"github.com/avorobev/tube-grabber/internal/constants"
	"github.com/avorobev/tube-grabber/internal/logger"
	"github.com/avorobev/tube-grabber/internal/utils"
)

// Service provides methods for downloading audio from video and playlist URLs.
type Service interface {
	// ProcessURL downloads a single URL argument, expanding URL list files
	// into their items, and returns a human-readable status line describing
	// the last processed entry.
	ProcessURL(ctx context.Context, url string) (string, error)
	// PrintDownloadSummary prints a formatted summary of download statistics.
	PrintDownloadSummary(ctx context.Context)
}

// ServiceImpl implements the audio download service with metadata and cover art handling.
type ServiceImpl struct {
	// cfg contains the application configuration.
	cfg *config.Config
	// mediaClient probes URLs and downloads audio through yt-dlp.
	mediaClient ytdlp.Client
	// urlProcessor handles URL parsing and categorization.
	urlProcessor URLProcessor
	// templateManager generates filenames and folder names.
	templateManager TemplateManager
	// tagProcessor writes metadata tags to audio files.
	tagProcessor TagProcessor
	// artworkProcessor converts thumbnails into embeddable cover art.
	artworkProcessor ArtworkProcessor
	// stats tracks download statistics for the current session.
	stats *DownloadStatistics
	// statsMutex protects concurrent access to statistics.
	statsMutex *sync.Mutex
}

// NewService creates a download service instance with dependency-injected components.
func NewService(
	cfg *config.Config,
	mediaClient ytdlp.Client,
	urlProcessor URLProcessor,
	templateManager TemplateManager,
	tagProcessor TagProcessor,
	artworkProcessor ArtworkProcessor,
) Service {
	return &ServiceImpl{
		cfg:              cfg,
		mediaClient:      mediaClient,
		urlProcessor:     urlProcessor,
		templateManager:  templateManager,
		tagProcessor:     tagProcessor,
		artworkProcessor: artworkProcessor,
		stats:            new(DownloadStatistics),
		statsMutex:       new(sync.Mutex),
	}
}

// ProcessURL downloads a single URL argument, expanding URL list files
// into their items, and returns a human-readable status line describing
// the last processed entry.
func (s *ServiceImpl) ProcessURL(ctx context.Context, url string) (string, error) {
	if !s.ensureOutputPath(ctx) {
		return "", fmt.Errorf("failed to create output path '%s'", s.cfg.OutputPath)
	}

	// A single argument can expand into many items when it names a text
	// file with one URL per line.
	response, err := s.urlProcessor.ExtractDownloadItems(ctx, []string{url})
	if err != nil {
		return "", err
	}

	// Process playlists first to maintain organizational structure,
	// then standalone videos.
	items := make([]*DownloadItem, 0, len(response.Playlists)+len(response.Videos))
	items = append(items, response.Playlists...)
	items = append(items, response.Videos...)
	items = s.urlProcessor.DeduplicateDownloadItems(items)

	if len(items) == 0 {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedURL, url)
	}

	itemsCount := len(items)

	var (
		lastStatus string
		lastErr    error
		succeeded  bool
	)

	for index, item := range items {
		// Check if context was canceled (CTRL+C pressed) - stop immediately.
		select {
		case <-ctx.Done():
			return lastStatus, ctx.Err()
		default:
		}

		logger.Infof(ctx, "Downloading item: %v (%d / %d)", item, index+1, itemsCount)

		status, err := s.downloadItem(ctx, item)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return lastStatus, err
			}

			// Per-item errors are already recorded in statistics, so a
			// failing item does not abort the rest of a URL list.
			lastErr = err

			continue
		}

		succeeded = true

		if status != "" {
			lastStatus = status
		}
	}

	if !succeeded {
		return "", lastErr
	}

	return lastStatus, nil
}

// ensureOutputPath creates the configured output directory.
// Returns false when the directory cannot be created.
func (s *ServiceImpl) ensureOutputPath(ctx context.Context) bool {
	if s.cfg.DryRun {
		logger.Infof(ctx, "[DRY-RUN] Would create output directory: %s", s.cfg.OutputPath)

		return true
	}

	if err := os.MkdirAll(s.cfg.OutputPath, constants.DefaultFolderPermissions); err != nil {
		logger.Errorf(ctx, "Failed to create output path: %v", err)

		return false
	}

	return true
}

// downloadItem probes a single item and downloads each of its entries sequentially.
// It returns the status line of the last processed entry.
func (s *ServiceImpl) downloadItem(ctx context.Context, item *DownloadItem) (string, error) {
	logger.Infof(ctx, "Probing metadata: %v", item)

	media, err := s.mediaClient.FetchMetadata(ctx, item.URL)
	if err != nil {
		s.errorHandler().HandleError(ctx, err, &ErrorContext{
			Category:  item.Category,
			ItemID:    item.ItemID,
			ItemTitle: item.URL,
			ItemURL:   item.URL,
			Phase:     "probing metadata",
		}, false)

		return "", err
	}

	if len(media.Entries) == 0 {
		err = fmt.Errorf("%w: %s", ErrNoMediaEntries, item.URL)
		s.errorHandler().HandleError(ctx, err, &ErrorContext{
			Category:  item.Category,
			ItemID:    item.ItemID,
			ItemTitle: media.Title,
			ItemURL:   item.URL,
			Phase:     "probing metadata",
		}, false)

		return "", err
	}

	outputDir, err := s.resolveOutputDir(ctx, item, media)
	if err != nil {
		return "", err
	}

	entriesCount := len(media.Entries)

	var lastStatus string

	for index, entry := range media.Entries {
		// Check if context was canceled (CTRL+C pressed) - stop immediately.
		select {
		case <-ctx.Done():
			return lastStatus, ctx.Err()
		default:
		}

		request := &downloadEntryRequest{
			item:  item,
			media: media,
			entry: entry,
			// Track numbers start at 1 for user-facing numbering.
			entryIndex:   int64(index) + 1,
			entriesCount: int64(entriesCount),
			outputDir:    outputDir,
		}

		lastStatus = s.downloadEntry(ctx, request)

		// Add a random pause between downloads to avoid rate limiting.
		if index < entriesCount-1 {
			utils.RandomPause(0, s.cfg.ParsedMaxDownloadPause)
		}
	}

	return lastStatus, nil
}

// resolveOutputDir returns the directory entries of the item are written to,
// creating a per-playlist folder when configured.
func (s *ServiceImpl) resolveOutputDir(
	ctx context.Context,
	item *DownloadItem,
	media *ytdlp.MediaMetadata,
) (string, error) {
	outputDir := s.cfg.OutputPath

	if item.Category != DownloadCategoryPlaylist || !s.cfg.CreatePlaylistFolders {
		return outputDir, nil
	}

	folderName := s.templateManager.GetPlaylistFolderName(ctx, map[string]string{
		"playlistTitle":    media.Title,
		"playlistUploader": media.Uploader,
		"playlistID":       media.ID,
	})

	outputDir = filepath.Join(outputDir, utils.SanitizeFilename(folderName))

	if s.cfg.DryRun {
		logger.Infof(ctx, "[DRY-RUN] Would create playlist folder: %s", outputDir)

		return outputDir, nil
	}

	if err := os.MkdirAll(outputDir, constants.DefaultFolderPermissions); err != nil {
		logger.Errorf(ctx, "Failed to create playlist folder: %v", err)
		s.recordError(&ErrorContext{
			Category:  item.Category,
			ItemID:    item.ItemID,
			ItemTitle: media.Title,
			ItemURL:   item.URL,
			Phase:     "creating playlist folder",
		}, err)

		return "", err
	}

	return outputDir, nil
}

// errorHandler returns a handler bound to this service instance.
func (s *ServiceImpl) errorHandler() *ErrorHandler {
	return NewErrorHandler(s)
}
