// Package browser provides interactive browser-based cookie export.
// It opens a visible Chrome window, waits for the user to sign in to
// YouTube, then writes the session cookies to a Netscape-format file
// that the extraction tool can consume.
package browser
