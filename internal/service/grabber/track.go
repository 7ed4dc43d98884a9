package grabber

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/avorobev/tube-grabber/internal/client/ytdlp"
	"github.com/avorobev/tube-grabber/internal/constants"
	"github.com/avorobev/tube-grabber/internal/logger"
	"github.com/avorobev/tube-grabber/internal/utils"
)

// Tag summary messages shown in per-entry status lines.
const (
	tagSummaryWithCover    = "Tags and cover embedded"
	tagSummaryWithoutCover = "Tags embedded"
	tagSummaryCoverFailed  = "Tags embedded, cover unavailable"
)

// thumbnailExtensions lists sidecar thumbnail extensions in preference order.
//
//nolint:gochecknoglobals // This is a justified global variable: immutable data, performance optimization, and reusability.
var thumbnailExtensions = []string{
	constants.ExtensionWebP,
	constants.ExtensionJPEG,
	constants.ExtensionPNG,
}

// downloadEntryRequest carries everything needed to download a single entry of an item.
type downloadEntryRequest struct {
	// item is the parsed download item the entry belongs to.
	item *DownloadItem
	// media is the probe result for the whole item.
	media *ytdlp.MediaMetadata
	// entry is the video being downloaded.
	entry *ytdlp.EntryMetadata
	// entryIndex is the 1-based position of the entry within the item.
	entryIndex int64
	// entriesCount is the total number of entries in the item.
	entriesCount int64
	// outputDir is the directory the final file is written to.
	outputDir string
}

// entryURL returns the downloadable URL of the entry,
// reconstructing a watch URL from the video ID when the probe omitted it.
func (req *downloadEntryRequest) entryURL() string {
	if req.entry.WebpageURL != "" {
		return req.entry.WebpageURL
	}

	return "https://www.youtube.com/watch?v=" + req.entry.ID
}

// downloadEntry downloads a single entry, embeds tags and cover art,
// and returns a human-readable status line.
//
//nolint:funlen,cyclop // Function orchestrates complex download workflow with multiple sequential steps.
func (s *ServiceImpl) downloadEntry(ctx context.Context, req *downloadEntryRequest) string {
	format := AudioFormat(s.cfg.AudioFormat)

	// Generate track filename with proper extension.
	trackTags := s.fillTrackTagsForTemplating(req)
	trackFilename := s.templateManager.GetTrackFilename(ctx, trackTags)
	trackFilename = utils.SetFileExtension(utils.SanitizeFilename(trackFilename), format.Extension(), true)
	trackPath := filepath.Join(req.outputDir, trackFilename)

	errCtx := s.entryErrorContext(req)

	// Check if the final file already exists.
	if !s.cfg.ReplaceTracks && fileExists(ctx, trackPath) {
		if s.cfg.DryRun {
			logger.Infof(ctx, "[DRY-RUN] Track '%s' already exists, would skip", trackPath)
		} else {
			logger.Infof(ctx, "Track '%s' already exists, skipping download", trackPath)
		}

		s.errorHandler().HandleSkip(nil, errCtx)

		return fmt.Sprintf("Skipped (already exists): %s", trackPath)
	}

	// Dry-run mode: report what would happen without touching the network.
	if s.cfg.DryRun {
		logger.Infof(ctx, "[DRY-RUN] Would download track to: %s", trackPath)
		s.incrementTrackDownloaded(0)

		return fmt.Sprintf("[DRY-RUN] Would download: %s", trackPath)
	}

	logger.Infof(
		ctx,
		"Downloading track %d of %d: %s (%s)",
		req.entryIndex,
		req.entriesCount,
		req.entry.Title,
		format)

	result, err := s.downloadWithRetries(ctx, req, trackPath, format)
	if err != nil {
		// Don't log context cancellation - it's expected when user presses CTRL+C.
		if !errors.Is(err, context.Canceled) {
			logger.Errorf(ctx, "Failed to download track: %v", err)
		}

		s.incrementTrackFailed()

		errCtx.Phase = "downloading track"
		s.recordError(errCtx, err)

		return fmt.Sprintf("Failed: %s", req.entry.Title)
	}

	defer s.cleanupTempThumbnails(ctx, result)

	// Prepare cover art for embedding.
	tagSummary := tagSummaryWithoutCover

	var cover *CoverArt

	if s.cfg.EmbedCovers {
		cover, err = s.prepareCover(ctx, result, req.entry)
		if err != nil {
			logger.Warnf(ctx, "Failed to prepare cover art for '%s': %v", req.entry.Title, err)
			s.incrementCoverFailed()

			tagSummary = tagSummaryCoverFailed
		} else {
			tagSummary = tagSummaryWithCover
		}
	}

	// Write metadata tags to the temporary file BEFORE renaming for atomic operation.
	writeTagsRequest := &WriteTagsRequest{
		TrackPath: result.TempPath,
		Format:    format,
		TrackTags: trackTags,
		Cover:     cover,
	}

	err = s.tagProcessor.WriteTags(ctx, writeTagsRequest)
	if err != nil {
		logger.Errorf(ctx, "Failed to write track tags: %v", err)

		s.incrementTrackFailed()

		errCtx.Phase = "writing metadata tags"
		s.recordError(errCtx, err)

		// Clean up the temporary file on tagging failure.
		_ = os.Remove(result.TempPath)

		return fmt.Sprintf("Failed: %s", req.entry.Title)
	}

	// Atomically rename the temporary file to its final name.
	// At this point, the file has complete audio data AND metadata tags.
	if err = os.Rename(result.TempPath, trackPath); err != nil {
		logger.Errorf(ctx, "Failed to finalize track file: %v", err)

		s.incrementTrackFailed()

		errCtx.Phase = "renaming temporary file"
		s.recordError(errCtx, err)

		// Clean up the temporary file on rename failure.
		_ = os.Remove(result.TempPath)

		return fmt.Sprintf("Failed: %s", req.entry.Title)
	}

	s.incrementTrackDownloaded(result.BytesDownloaded)

	if cover != nil {
		s.incrementCoverEmbedded()
	}

	status := fmt.Sprintf("Done: %s. %s", trackPath, tagSummary)
	logger.Info(ctx, status)

	return status
}

// downloadWithRetries runs the download, retrying transient failures with a random pause.
func (s *ServiceImpl) downloadWithRetries(
	ctx context.Context,
	req *downloadEntryRequest,
	trackPath string,
	format AudioFormat,
) (*DownloadTrackResult, error) {
	attempts := s.cfg.RetryAttemptsCount
	if attempts < 1 {
		attempts = 1
	}

	var (
		result *DownloadTrackResult
		err    error
	)

	for attempt := int64(1); attempt <= attempts; attempt++ {
		result, err = s.downloadTrackFile(ctx, req, trackPath, format)
		if err == nil || errors.Is(err, context.Canceled) {
			return result, err
		}

		if attempt < attempts {
			logger.Warnf(ctx, "Download attempt %d of %d failed: %v", attempt, attempts, err)
			utils.RandomPause(s.cfg.ParsedMinRetryPause, s.cfg.ParsedMaxRetryPause)
		}
	}

	return nil, err
}

// downloadTrackFile invokes yt-dlp to download and transcode a single entry
// into a temporary file next to its final path.
func (s *ServiceImpl) downloadTrackFile(
	ctx context.Context,
	req *downloadEntryRequest,
	trackPath string,
	format AudioFormat,
) (*DownloadTrackResult, error) {
	// Download to a UUID-based temporary file first for atomic operation and
	// to avoid clashes with leftovers from interrupted sessions. The extraction
	// tool picks the extension, so the template keeps the %(ext)s placeholder.
	tempBase := strings.TrimSuffix(trackPath, format.Extension()) +
		"_" + uuid.New().String() + constants.ExtensionPart

	downloadRequest := &ytdlp.DownloadRequest{
		URL:            req.entryURL(),
		OutputTemplate: tempBase + ".%(ext)s",
		AudioCodec:     format.Codec(),
		AudioQuality:   format.Bitrate(),
		WriteThumbnail: s.cfg.EmbedCovers,
		NoPlaylist:     true,
	}

	// Progress bars are shown only when the log level allows regular output.
	var bar *progressbar.ProgressBar

	if logger.Level() <= zap.InfoLevel {
		downloadRequest.OnProgress = func(p ytdlp.Progress) {
			if bar == nil && p.TotalBytes > 0 {
				bar = progressbar.DefaultBytes(p.TotalBytes, "Downloading")
			}

			if bar != nil {
				_ = bar.Set64(p.DownloadedBytes)
			}
		}
	}

	downloadResult, err := s.mediaClient.Download(ctx, downloadRequest)

	if bar != nil {
		_ = bar.Finish()
	}

	if err != nil {
		s.cleanupTempFiles(ctx, tempBase, format)

		return nil, err
	}

	// Determine the produced audio file path; fall back to the expected
	// temporary path when yt-dlp didn't report one.
	tempAudioPath := tempBase + format.Extension()

	if len(downloadResult.Entries) > 0 && downloadResult.Entries[0].FilePath != "" {
		tempAudioPath = downloadResult.Entries[0].FilePath
	}

	fileInfo, err := os.Stat(tempAudioPath)
	if err != nil {
		s.cleanupTempFiles(ctx, tempBase, format)

		return nil, fmt.Errorf("%w: %s", ErrEmptyDownloadPath, req.entry.Title)
	}

	// Collect sidecar thumbnails written next to the audio file.
	var thumbnailPaths []string

	for _, extension := range thumbnailExtensions {
		if thumbnailPath := tempBase + extension; fileExists(ctx, thumbnailPath) {
			thumbnailPaths = append(thumbnailPaths, thumbnailPath)
		}
	}

	return &DownloadTrackResult{
		IsExist:         false,
		TempPath:        tempAudioPath,
		ThumbnailPaths:  thumbnailPaths,
		BytesDownloaded: fileInfo.Size(),
	}, nil
}

// prepareCover obtains cover art for an entry, preferring sidecar thumbnails
// and falling back to fetching the thumbnail URL from the probe metadata.
func (s *ServiceImpl) prepareCover(
	ctx context.Context,
	result *DownloadTrackResult,
	entry *ytdlp.EntryMetadata,
) (*CoverArt, error) {
	for _, thumbnailPath := range result.ThumbnailPaths {
		cover, err := s.artworkProcessor.PrepareCoverFromFile(thumbnailPath)
		if err == nil {
			return cover, nil
		}

		logger.Warnf(ctx, "Failed to prepare cover from '%s': %v", thumbnailPath, err)
	}

	if entry.ThumbnailURL != "" {
		data, err := s.mediaClient.FetchThumbnail(ctx, entry.ThumbnailURL)
		if err != nil {
			return nil, err
		}

		return s.artworkProcessor.PrepareCover(data)
	}

	return nil, ErrCoverNotAvailable
}

// fileExists reports whether a regular file exists, logging stat failures.
func fileExists(ctx context.Context, path string) bool {
	exists, err := utils.IsFileExist(path)
	if err != nil {
		logger.Warnf(ctx, "Failed to check if file '%s' exists: %v", path, err)
	}

	return exists
}

// cleanupTempFiles removes leftover temporary files after a failed download.
func (s *ServiceImpl) cleanupTempFiles(ctx context.Context, tempBase string, format AudioFormat) {
	candidates := make([]string, 0, len(thumbnailExtensions)+1)
	candidates = append(candidates, tempBase+format.Extension())

	for _, extension := range thumbnailExtensions {
		candidates = append(candidates, tempBase+extension)
	}

	for _, candidate := range candidates {
		if err := os.Remove(candidate); err != nil && !os.IsNotExist(err) {
			logger.Warnf(ctx, "Failed to clean up temporary file '%s': %v", candidate, err)
		}
	}
}

// cleanupTempThumbnails removes sidecar thumbnail files after embedding.
func (s *ServiceImpl) cleanupTempThumbnails(ctx context.Context, result *DownloadTrackResult) {
	for _, thumbnailPath := range result.ThumbnailPaths {
		if err := os.Remove(thumbnailPath); err != nil && !os.IsNotExist(err) {
			logger.Warnf(ctx, "Failed to clean up thumbnail '%s': %v", thumbnailPath, err)
		}
	}
}

// entryErrorContext builds the base error context for a per-entry failure.
func (s *ServiceImpl) entryErrorContext(req *downloadEntryRequest) *ErrorContext {
	errCtx := &ErrorContext{
		Category:  DownloadCategoryVideo,
		ItemID:    req.entry.ID,
		ItemTitle: req.entry.Title,
		ItemURL:   req.entryURL(),
	}

	if req.item.Category == DownloadCategoryPlaylist {
		errCtx.ParentTitle = req.media.Title
		errCtx.ParentURL = req.item.URL
	}

	return errCtx
}

// fillTrackTagsForTemplating builds the tag map used by both
// filename templating and metadata embedding.
func (s *ServiceImpl) fillTrackTagsForTemplating(req *downloadEntryRequest) map[string]string {
	entry := req.entry

	trackNumber := int64(entry.PlaylistIndex)
	if trackNumber == 0 {
		trackNumber = req.entryIndex
	}

	var uploadYear string
	if len(entry.UploadDate) >= 4 {
		uploadYear = entry.UploadDate[:4]
	}

	playlistTitle := entry.PlaylistTitle
	if playlistTitle == "" && req.item.Category == DownloadCategoryPlaylist {
		playlistTitle = req.media.Title
	}

	return map[string]string{
		"trackTitle":     entry.Title,
		"trackArtist":    entry.Uploader,
		"playlistTitle":  playlistTitle,
		"uploadDate":     entry.UploadDate,
		"uploadYear":     uploadYear,
		"trackNumber":    strconv.FormatInt(trackNumber, 10),
		"trackNumberPad": fmt.Sprintf("%02d", trackNumber),
		"trackCount":     strconv.FormatInt(req.entriesCount, 10),
		"videoID":        entry.ID,
		"sourceURL":      req.entryURL(),
	}
}
