package ytdlp

// MediaMetadata describes a probed URL before downloading.
// A playlist URL carries its entries; a single video has exactly one entry.
type MediaMetadata struct {
	// ID is the extractor-assigned identifier of the video or playlist.
	ID string
	// Title is the video or playlist title.
	Title string
	// Uploader is the channel or account that published the media.
	Uploader string
	// WebpageURL is the canonical URL of the media.
	WebpageURL string
	// IsPlaylist indicates whether the URL resolves to a playlist.
	IsPlaylist bool
	// Entries lists the individual videos; a single video yields one entry.
	Entries []*EntryMetadata
}

// EntryMetadata describes a single video inside a probe result.
type EntryMetadata struct {
	// ID is the extractor-assigned video identifier.
	ID string
	// Title is the video title.
	Title string
	// Uploader is the channel or account that published the video.
	Uploader string
	// UploadDate is the upload date in yt-dlp's YYYYMMDD format.
	UploadDate string
	// Duration is the video duration in seconds.
	Duration float64
	// PlaylistTitle is the containing playlist title, if any.
	PlaylistTitle string
	// PlaylistIndex is the 1-based position inside the playlist, 0 otherwise.
	PlaylistIndex int
	// ThumbnailURL points to the best available thumbnail image.
	ThumbnailURL string
	// WebpageURL is the canonical URL of the video.
	WebpageURL string
}

// DownloadRequest describes a single yt-dlp download invocation.
type DownloadRequest struct {
	// URL is the video or playlist URL to download.
	URL string
	// OutputTemplate is the yt-dlp output template for produced files.
	OutputTemplate string
	// AudioCodec is the target codec passed to the audio extraction postprocessor (e.g. "mp3", "flac").
	AudioCodec string
	// AudioQuality is the target bitrate for lossy codecs (e.g. "192K"), empty for lossless.
	AudioQuality string
	// WriteThumbnail requests that yt-dlp saves the thumbnail next to the audio file.
	WriteThumbnail bool
	// NoPlaylist restricts a watch URL with a playlist parameter to the single video.
	NoPlaylist bool
	// OnProgress receives byte-level progress updates while downloading, may be nil.
	OnProgress func(Progress)
}

// Progress is a byte-level progress snapshot of an in-flight download.
type Progress struct {
	// Filename is the file currently being written.
	Filename string
	// Status is the yt-dlp hook status (downloading, finished, ...).
	Status string
	// DownloadedBytes is the number of bytes fetched so far.
	DownloadedBytes int64
	// TotalBytes is the expected total size, 0 when unknown.
	TotalBytes int64
}

// DownloadedEntry pairs a produced audio file with the metadata of its video.
type DownloadedEntry struct {
	// Metadata is the per-video metadata reported by yt-dlp.
	Metadata *EntryMetadata
	// FilePath is the final path of the transcoded audio file.
	FilePath string
}

// DownloadResult is the outcome of a single yt-dlp invocation.
type DownloadResult struct {
	// Entries lists the produced files in download order.
	Entries []*DownloadedEntry
}
