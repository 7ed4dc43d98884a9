package ytdlp

//go:generate $MOCKGEN -source=client.go -destination=mocks/client_mock.go

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	goytdlp "github.com/lrstanley/go-ytdlp"

	"github.com/avorobev/tube-grabber/internal/config"
	"github.com/avorobev/tube-grabber/internal/logger"
	http_transport "github.com/avorobev/tube-grabber/internal/transport/http"
	"github.com/avorobev/tube-grabber/internal/utils"
)

// Client defines the interface for driving the yt-dlp extraction tool.
type Client interface {
	// FetchMetadata probes a URL without downloading and returns its metadata.
	FetchMetadata(ctx context.Context, mediaURL string) (*MediaMetadata, error)
	// Download runs yt-dlp for the request and returns the produced files.
	Download(ctx context.Context, request *DownloadRequest) (*DownloadResult, error)
	// FetchThumbnail downloads a thumbnail image over plain HTTP.
	FetchThumbnail(ctx context.Context, thumbnailURL string) ([]byte, error)
}

// ClientImpl implements the Client interface on top of the go-ytdlp bindings.
type ClientImpl struct {
	// cfg contains the application configuration.
	cfg *config.Config
	// httpClient is used for thumbnail fetches outside yt-dlp.
	httpClient *http.Client
	// metadataCache caches probe results so a URL is only extracted once per session.
	metadataCache *lru.Cache[string, *MediaMetadata]
}

const (
	// metadataCacheSize defines the maximum number of probed URLs to cache.
	// A session rarely touches more than a few playlists.
	metadataCacheSize = 1000

	// progressFrequency is how often yt-dlp progress updates are forwarded.
	progressFrequency = 500 * time.Millisecond

	// printAfterMove makes yt-dlp print the final file path after postprocessing.
	// Changing this breaks parseStdout.
	printAfterMove = "after_move:filepath"
)

// Static error definitions for better error handling.
var (
	// ErrEmptyURL indicates that the request URL is missing.
	ErrEmptyURL = errors.New("url cannot be empty")
	// ErrNoMetadata indicates that the probe produced no usable metadata.
	ErrNoMetadata = errors.New("no metadata extracted")
	// ErrNoFilesProduced indicates that the download finished without writing any file.
	ErrNoFilesProduced = errors.New("no files were produced")
	// ErrUnexpectedHTTPStatus indicates an unexpected HTTP status code was received.
	ErrUnexpectedHTTPStatus = errors.New("unexpected HTTP status")
)

// NewClient creates and returns a new instance of ClientImpl.
func NewClient(cfg *config.Config) (Client, error) {
	httpClient := &http.Client{
		Transport: http_transport.NewUserAgentInjector(
			http_transport.NewLogTransport(http.DefaultTransport, 0),
			utils.NewSimpleUserAgentProvider(http_transport.DefaultUserAgent)),
		Timeout: http_transport.DefaultTimeout,
	}

	metadataCache, err := lru.New[string, *MediaMetadata](metadataCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata cache: %w", err)
	}

	return &ClientImpl{
		cfg:           cfg,
		httpClient:    httpClient,
		metadataCache: metadataCache,
	}, nil
}

// FetchMetadata probes a URL with a flat playlist extraction and no download.
func (c *ClientImpl) FetchMetadata(ctx context.Context, mediaURL string) (*MediaMetadata, error) {
	mediaURL = strings.TrimSpace(mediaURL)
	if mediaURL == "" {
		return nil, ErrEmptyURL
	}

	if cached, ok := c.metadataCache.Get(mediaURL); ok {
		logger.Debugf(ctx, "Metadata cache hit for %s", mediaURL)

		return cached, nil
	}

	command := goytdlp.New().
		SkipDownload().
		FlatPlaylist().
		PrintJSON()

	command = c.applyNetworkOptions(command)

	result, err := command.Run(ctx, mediaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to probe URL: %w", err)
	}

	entries, err := parseStdout(result.Stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse probe output: %w", err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMetadata, mediaURL)
	}

	metadata := buildMediaMetadata(mediaURL, entries)
	c.metadataCache.Add(mediaURL, metadata)

	return metadata, nil
}

// Download runs yt-dlp with the audio extraction postprocessor and
// returns the files it produced together with their per-video metadata.
func (c *ClientImpl) Download(ctx context.Context, request *DownloadRequest) (*DownloadResult, error) {
	if request == nil || strings.TrimSpace(request.URL) == "" {
		return nil, ErrEmptyURL
	}

	command := goytdlp.New().
		Format("bestaudio/best").
		ExtractAudio().
		AudioFormat(request.AudioCodec).
		Output(request.OutputTemplate).
		PrintJSON().
		Print(printAfterMove)

	if request.AudioQuality != "" {
		command = command.AudioQuality(request.AudioQuality)
	}

	if request.WriteThumbnail {
		command = command.WriteThumbnail()
	}

	if request.NoPlaylist {
		command = command.NoPlaylist()
	}

	if request.OnProgress != nil {
		onProgress := request.OnProgress

		command = command.ProgressFunc(progressFrequency, func(update goytdlp.ProgressUpdate) {
			onProgress(Progress{
				Filename:        update.Filename,
				Status:          string(update.Status),
				DownloadedBytes: int64(update.DownloadedBytes),
				TotalBytes:      int64(update.TotalBytes),
			})
		})
	}

	command = c.applyNetworkOptions(command)

	result, err := command.Run(ctx, request.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to run download: %w", err)
	}

	entries, err := parseStdout(result.Stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse download output: %w", err)
	}

	downloadResult := &DownloadResult{}

	for _, entry := range entries {
		if entry.Filename == "" {
			logger.Warnf(ctx, "No output file reported for '%s', skipping", entry.Title)

			continue
		}

		downloadResult.Entries = append(downloadResult.Entries, &DownloadedEntry{
			Metadata: entry.toEntryMetadata(),
			FilePath: entry.Filename,
		})
	}

	if len(downloadResult.Entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFilesProduced, request.URL)
	}

	return downloadResult, nil
}

// FetchThumbnail downloads a thumbnail image over plain HTTP.
// It is the fallback when yt-dlp did not write a thumbnail file.
func (c *ClientImpl) FetchThumbnail(ctx context.Context, thumbnailURL string) ([]byte, error) {
	if strings.TrimSpace(thumbnailURL) == "" {
		return nil, ErrEmptyURL
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, thumbnailURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}

	defer response.Body.Close() //nolint:errcheck // Error on close is not critical here.

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedHTTPStatus, response.StatusCode)
	}

	return io.ReadAll(response.Body)
}

// applyNetworkOptions attaches cookies, proxy and rate limit settings from the configuration.
func (c *ClientImpl) applyNetworkOptions(command *goytdlp.Command) *goytdlp.Command {
	if c.cfg.CookiesFile != "" {
		command = command.Cookies(c.cfg.CookiesFile)
	}

	if c.cfg.ProxyURL != "" {
		command = command.Proxy(c.cfg.ProxyURL)
	}

	if c.cfg.ParsedDownloadSpeedLimit > 0 {
		command = command.LimitRate(strconv.FormatInt(c.cfg.ParsedDownloadSpeedLimit, 10))
	}

	return command
}

// buildMediaMetadata folds per-entry probe output into a single metadata value.
func buildMediaMetadata(mediaURL string, entries []*entryJSON) *MediaMetadata {
	metadata := &MediaMetadata{
		WebpageURL: mediaURL,
		Entries:    utils.Map(entries, (*entryJSON).toEntryMetadata),
	}

	first := entries[0]

	metadata.IsPlaylist = len(entries) > 1 || first.PlaylistCount > 0

	if metadata.IsPlaylist {
		metadata.ID = first.ID
		metadata.Title = firstNonEmpty(first.PlaylistTitle, first.Playlist, first.Title)
		metadata.Uploader = firstNonEmpty(first.Uploader, first.Channel)

		return metadata
	}

	metadata.ID = first.ID
	metadata.Title = first.Title
	metadata.Uploader = firstNonEmpty(first.Uploader, first.Channel)

	if first.WebpageURL != "" {
		metadata.WebpageURL = first.WebpageURL
	}

	return metadata
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
