// Package deps verifies that the external binaries the downloader shells
// out to are installed and runnable before any work starts.
package deps
