package grabber

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avorobev/tube-grabber/internal/constants"
)

// TestDownloadCategory_String tests the String method of DownloadCategory.
func TestDownloadCategory_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		category DownloadCategory
		expected string
	}{
		{name: "unknown", category: DownloadCategoryUnknown, expected: "unknown"},
		{name: "video", category: DownloadCategoryVideo, expected: "video"},
		{name: "playlist", category: DownloadCategoryPlaylist, expected: "playlist"},
		{name: "out of range", category: DownloadCategory(99), expected: "unknown: 99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.category.String())
		})
	}
}

// TestAudioFormat_Extension tests the Extension method of AudioFormat.
func TestAudioFormat_Extension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, constants.ExtensionMP3, AudioFormatMP3Mid.Extension())
	assert.Equal(t, constants.ExtensionMP3, AudioFormatMP3High.Extension())
	assert.Equal(t, constants.ExtensionMP3, AudioFormatMP3Top.Extension())
	assert.Equal(t, constants.ExtensionFLAC, AudioFormatFLAC.Extension())
}

// TestAudioFormat_Codec tests the Codec method of AudioFormat.
func TestAudioFormat_Codec(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "mp3", AudioFormatMP3High.Codec())
	assert.Equal(t, "flac", AudioFormatFLAC.Codec())
}

// TestAudioFormat_Bitrate tests the Bitrate method of AudioFormat.
func TestAudioFormat_Bitrate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		format   AudioFormat
		expected string
	}{
		{name: "mp3 128", format: AudioFormatMP3Mid, expected: "128K"},
		{name: "mp3 192", format: AudioFormatMP3High, expected: "192K"},
		{name: "mp3 320", format: AudioFormatMP3Top, expected: "320K"},
		{name: "flac is lossless", format: AudioFormatFLAC, expected: ""},
		{name: "unknown", format: AudioFormatUnknown, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.format.Bitrate())
		})
	}
}

// TestParseAudioFormat tests the ParseAudioFormat function.
func TestParseAudioFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected AudioFormat
	}{
		{name: "numeric mp3 128", input: "1", expected: AudioFormatMP3Mid},
		{name: "numeric mp3 192", input: "2", expected: AudioFormatMP3High},
		{name: "numeric mp3 320", input: "3", expected: AudioFormatMP3Top},
		{name: "numeric flac", input: "4", expected: AudioFormatFLAC},
		{name: "symbolic mp3", input: "mp3", expected: AudioFormatMP3High},
		{name: "symbolic flac", input: "flac", expected: AudioFormatFLAC},
		{name: "symbolic with case and spaces", input: "  FLAC ", expected: AudioFormatFLAC},
		{name: "mp3 with bitrate", input: "mp3-320", expected: AudioFormatMP3Top},
		{name: "empty", input: "", expected: AudioFormatUnknown},
		{name: "garbage", input: "wav", expected: AudioFormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, ParseAudioFormat(tt.input))
		})
	}
}

// TestDownloadItem_GetShortVersion tests the GetShortVersion method.
func TestDownloadItem_GetShortVersion(t *testing.T) {
	t.Parallel()

	item := DownloadItem{
		Category: DownloadCategoryVideo,
		URL:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		ItemID:   "dQw4w9WgXcQ",
	}

	short := item.GetShortVersion()
	assert.Equal(t, DownloadCategoryVideo, short.Category)
	assert.Equal(t, "dQw4w9WgXcQ", short.ItemID)
}
