package grabber

import (
	"context"
	"errors"
)

// Common errors for the service layer.
var (
	// ErrAlreadyRunning indicates that a download session is already in progress.
	ErrAlreadyRunning = errors.New("download is already running")
	// ErrNoMediaEntries indicates that the probed URL produced no downloadable entries.
	ErrNoMediaEntries = errors.New("no downloadable entries found")
	// ErrUnsupportedURL indicates that the URL matches no known video or playlist pattern.
	ErrUnsupportedURL = errors.New("unsupported URL")
	// ErrEmptyDownloadPath indicates that the download produced no output file.
	ErrEmptyDownloadPath = errors.New("download produced no output file")
	// ErrUnsupportedAudioFile indicates that the file extension has no tag writer.
	ErrUnsupportedAudioFile = errors.New("unsupported audio file extension")
	// ErrCoverNotAvailable indicates no thumbnail could be obtained for an entry.
	ErrCoverNotAvailable = errors.New("cover art is not available")
)

// ErrorContext provides context information for download errors.
type ErrorContext struct {
	// Category is the type of item that failed (video or playlist).
	Category DownloadCategory
	// ItemID is the unique identifier of the item that failed.
	ItemID string
	// ItemTitle is the human-readable title of the item.
	ItemTitle string
	// ItemURL is the URL of the failed item.
	ItemURL string
	// Phase indicates when the error occurred (e.g., "probing metadata", "downloading entry").
	Phase string
	// ParentTitle is the title of the containing playlist for per-entry failures.
	ParentTitle string
	// ParentURL is the URL of the containing playlist.
	ParentURL string
}

// recordError records an error in the statistics with proper context.
// Context cancellation errors are ignored as they are expected during graceful shutdown.
func (s *ServiceImpl) recordError(errCtx *ErrorContext, err error) {
	if errCtx == nil || err == nil {
		return
	}

	// Don't record context cancellation as an error - it's expected when user presses CTRL+C.
	if errors.Is(err, context.Canceled) {
		return
	}

	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	downloadErr := DownloadError{
		Category:     errCtx.Category,
		ItemID:       errCtx.ItemID,
		ItemTitle:    errCtx.ItemTitle,
		ItemURL:      errCtx.ItemURL,
		ErrorMessage: err.Error(),
		Phase:        errCtx.Phase,
		ParentTitle:  errCtx.ParentTitle,
		ParentURL:    errCtx.ParentURL,
	}

	s.stats.Errors = append(s.stats.Errors, downloadErr)
}
