// Package app provides the main application logic for downloading audio from
// YouTube URLs. It wires the media client, URL processor, template manager,
// tag processor, and artwork processor together, and drives background
// download sessions with cooperative cancellation.
package app
