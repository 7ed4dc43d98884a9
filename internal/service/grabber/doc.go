// Package grabber implements the audio download pipeline: URL categorization,
// sequential downloading through the yt-dlp client, thumbnail conversion,
// tag embedding, and session statistics. A background worker exposes the
// pipeline with progress callbacks and cooperative cancellation.
package grabber
