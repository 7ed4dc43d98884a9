// Package ytdlp wraps the yt-dlp extraction tool behind a small client interface.
// It probes URLs for metadata, runs audio downloads with transcoding delegated
// to yt-dlp and ffmpeg, and parses the tool's JSON output into typed results.
package ytdlp
