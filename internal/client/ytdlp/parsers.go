package ytdlp

import (
	"bufio"
	"encoding/json"
	"regexp"
	"strings"
)

const (
	// scannerBufferSize is the initial buffer size for stdout scanning.
	scannerBufferSize = 4 * 1024
	// maxJSONLineSize caps a single stdout line; full video metadata easily exceeds the bufio default.
	maxJSONLineSize = 10 * 1024 * 1024
)

// filePathPattern matches plain file path lines printed between JSON lines.
//
//nolint:gochecknoglobals // This is immutable, pre-compiled regex pattern and used as a constant.
var filePathPattern = regexp.MustCompile(`(?i)^[^\{\[\n].*\.[a-z0-9]{1,6}$`)

// entryJSON mirrors the per-video JSON object yt-dlp prints with --print-json.
type entryJSON struct {
	Type          string  `json:"_type"`
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Uploader      string  `json:"uploader"`
	Channel       string  `json:"channel"`
	UploadDate    string  `json:"upload_date"`
	Duration      float64 `json:"duration"`
	Playlist      string  `json:"playlist"`
	PlaylistTitle string  `json:"playlist_title"`
	PlaylistIndex int     `json:"playlist_index"`
	PlaylistCount int     `json:"playlist_count"`
	Thumbnail     string  `json:"thumbnail"`
	WebpageURL    string  `json:"webpage_url"`
	URL           string  `json:"url"`
	Ext           string  `json:"ext"`

	// Filename is filled from the plain path line following the JSON line
	// when "--print after_move:filepath" is active.
	Filename string `json:"-"`
}

// parseStdout splits yt-dlp stdout into per-video JSON objects.
// A plain file path line is attached to the preceding JSON object,
// matching the order yt-dlp prints them in.
func parseStdout(stdout string) ([]*entryJSON, error) {
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	scanner.Buffer(make([]byte, scannerBufferSize), maxJSONLineSize)

	var entries []*entryJSON

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry entryJSON
		if err := json.Unmarshal([]byte(line), &entry); err == nil {
			entries = append(entries, &entry)

			continue
		}

		if filePathPattern.MatchString(line) && len(entries) > 0 {
			entries[len(entries)-1].Filename = line
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// toEntryMetadata converts a raw JSON entry into the exported metadata type.
func (e *entryJSON) toEntryMetadata() *EntryMetadata {
	uploader := e.Uploader
	if uploader == "" {
		uploader = e.Channel
	}

	playlistTitle := e.PlaylistTitle
	if playlistTitle == "" {
		playlistTitle = e.Playlist
	}

	// Flat playlist entries carry "url" instead of "webpage_url".
	webpageURL := e.WebpageURL
	if webpageURL == "" {
		webpageURL = e.URL
	}

	return &EntryMetadata{
		ID:            e.ID,
		Title:         e.Title,
		Uploader:      uploader,
		UploadDate:    e.UploadDate,
		Duration:      e.Duration,
		PlaylistTitle: playlistTitle,
		PlaylistIndex: e.PlaylistIndex,
		ThumbnailURL:  e.Thumbnail,
		WebpageURL:    webpageURL,
	}
}
