package grabber

import (
	"fmt"
	"strings"
	"time"

	"github.com/avorobev/tube-grabber/internal/constants"
)

// DownloadCategory represents the type of content being downloaded.
type DownloadCategory uint8

const (
	// DownloadCategoryUnknown - unknown category.
	DownloadCategoryUnknown DownloadCategory = iota
	// DownloadCategoryVideo - single video.
	DownloadCategoryVideo
	// DownloadCategoryPlaylist - playlist.
	DownloadCategoryPlaylist
)

// String returns a human-readable representation of the DownloadCategory.
func (dc DownloadCategory) String() string {
	switch dc {
	case DownloadCategoryUnknown:
		return "unknown"
	case DownloadCategoryVideo:
		return "video"
	case DownloadCategoryPlaylist:
		return "playlist"
	default:
		return fmt.Sprintf("unknown: %d", dc)
	}
}

// AudioFormat represents the target audio format and bitrate.
type AudioFormat uint8

const (
	// AudioFormatUnknown represents an unknown or unspecified audio format.
	AudioFormatUnknown AudioFormat = iota
	// AudioFormatMP3Mid represents MP3 at 128 Kbps.
	AudioFormatMP3Mid
	// AudioFormatMP3High represents MP3 at 192 Kbps.
	AudioFormatMP3High
	// AudioFormatMP3Top represents MP3 at 320 Kbps.
	AudioFormatMP3Top
	// AudioFormatFLAC represents FLAC lossless.
	AudioFormatFLAC
)

// Constants for repeated string literals.
const (
	// audioCodecMP3 is the codec name passed to the extraction tool for MP3.
	audioCodecMP3 = "mp3"
	// audioCodecFLAC is the codec name passed to the extraction tool for FLAC.
	audioCodecFLAC = "flac"
)

// String returns the display value of the AudioFormat enum.
func (af AudioFormat) String() string {
	//nolint:exhaustive // All meaningful cases are explicitly handled; default covers unknown values.
	switch af {
	case AudioFormatMP3Mid:
		return "MP3, 128 Kbps (standard quality)"
	case AudioFormatMP3High:
		return "MP3, 192 Kbps (good quality)"
	case AudioFormatMP3Top:
		return "MP3, 320 Kbps (high quality)"
	case AudioFormatFLAC:
		return "FLAC (lossless quality)"
	default:
		return "unknown format"
	}
}

// Extension returns the file extension for the AudioFormat enum.
func (af AudioFormat) Extension() string {
	if af == AudioFormatFLAC {
		return constants.ExtensionFLAC
	}

	return constants.ExtensionMP3
}

// Codec returns the audio codec name passed to the extraction tool.
func (af AudioFormat) Codec() string {
	if af == AudioFormatFLAC {
		return audioCodecFLAC
	}

	return audioCodecMP3
}

// Bitrate returns the target bitrate parameter for lossy formats, empty for lossless.
func (af AudioFormat) Bitrate() string {
	//nolint:exhaustive // All meaningful cases are explicitly handled; default covers unknown values.
	switch af {
	case AudioFormatMP3Mid:
		return "128K"
	case AudioFormatMP3High:
		return "192K"
	case AudioFormatMP3Top:
		return "320K"
	default:
		return ""
	}
}

// ParseAudioFormat converts a string to an AudioFormat enum.
// It accepts both the numeric config values and symbolic names.
func ParseAudioFormat(s string) AudioFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "mp3-128":
		return AudioFormatMP3Mid
	case "2", "mp3-192", audioCodecMP3:
		return AudioFormatMP3High
	case "3", "mp3-320":
		return AudioFormatMP3Top
	case "4", audioCodecFLAC:
		return AudioFormatFLAC
	default:
		return AudioFormatUnknown
	}
}

// DownloadItem represents a downloadable URL together with its category.
type DownloadItem struct {
	// Category is the type of content (video or playlist).
	Category DownloadCategory
	// URL is the source URL.
	URL string
	// ItemID is the extractor-visible identifier parsed from the URL.
	ItemID string
}

// String returns a human-readable representation of the DownloadItem.
func (di DownloadItem) String() string {
	return fmt.Sprintf("category: %v, ID: %s", di.Category, di.ItemID)
}

// ShortDownloadItem is a lightweight version of DownloadItem without the URL.
// It is used as a deduplication key.
type ShortDownloadItem struct {
	// Category is the type of content.
	Category DownloadCategory
	// ItemID is the identifier parsed from the URL.
	ItemID string
}

// GetShortVersion converts a full DownloadItem into a ShortDownloadItem by stripping the URL.
func (di DownloadItem) GetShortVersion() ShortDownloadItem {
	return ShortDownloadItem{
		Category: di.Category,
		ItemID:   di.ItemID,
	}
}

// DownloadTrackResult describes the outcome of downloading a single track file.
type DownloadTrackResult struct {
	// IsExist indicates the final file already existed and the download was skipped.
	IsExist bool
	// TempPath is the path to the temporary audio file (empty if download was skipped or failed).
	TempPath string
	// ThumbnailPaths lists temporary thumbnail files written next to the audio file.
	ThumbnailPaths []string
	// BytesDownloaded is the size of the downloaded audio file in bytes.
	BytesDownloaded int64
}

// DownloadStatistics tracks metrics for a download session.
type DownloadStatistics struct {
	// StartTime is when the download session began.
	StartTime time.Time
	// EndTime is when the download session completed.
	EndTime time.Time
	// IsDryRun indicates if this was a dry-run preview.
	IsDryRun bool
	// TotalTracksProcessed is the total number of tracks attempted.
	TotalTracksProcessed int64
	// TracksDownloaded is the number of tracks successfully downloaded.
	TracksDownloaded int64
	// TracksSkipped is the number of tracks skipped because they already exist.
	TracksSkipped int64
	// TracksFailed is the number of tracks that failed to download.
	TracksFailed int64
	// TotalBytesDownloaded is the total size of downloaded content in bytes.
	TotalBytesDownloaded int64
	// CoversEmbedded is the number of cover art images embedded into files.
	CoversEmbedded int64
	// CoversFailed is the number of cover art images that could not be prepared.
	CoversFailed int64
	// Errors is a list of all errors encountered during the download process.
	Errors []DownloadError
}

// DownloadError represents a single error that occurred during download.
type DownloadError struct {
	// Category is the type of item that failed (video or playlist).
	Category DownloadCategory
	// ItemID is the identifier of the item that failed.
	ItemID string
	// ItemTitle is the human-readable title of the item.
	ItemTitle string
	// ItemURL is the URL of the failed item.
	ItemURL string
	// ErrorMessage is the error message.
	ErrorMessage string
	// Phase indicates when the error occurred (e.g., "probing metadata", "downloading track").
	Phase string
	// ParentTitle is the title of the containing playlist for per-track failures.
	ParentTitle string
	// ParentURL is the URL of the containing playlist.
	ParentURL string
}
