package deps

//go:generate $MOCKGEN -source=checker.go -destination=mocks/checker_mock.go

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/avorobev/tube-grabber/internal/logger"
)

// BinaryName represents the name of an external binary dependency.
type BinaryName string

// External binary names.
const (
	BinaryYTDLP  BinaryName = "yt-dlp"
	BinaryFFmpeg BinaryName = "ffmpeg"
)

// versionCheckTimeout bounds a single version probe.
const versionCheckTimeout = 10 * time.Second

// Static error definitions for better error handling.
var (
	// ErrBinaryNotFound is returned when a required binary is missing from PATH.
	ErrBinaryNotFound = errors.New("required binary not found in PATH")

	// ErrBinaryNotRunnable is returned when a binary exists but cannot be executed.
	ErrBinaryNotRunnable = errors.New("required binary could not be executed")
)

// installHints maps each binary to a short instruction shown when it is missing.
var installHints = map[BinaryName]string{
	BinaryYTDLP:  "install it from https://github.com/yt-dlp/yt-dlp#installation",
	BinaryFFmpeg: "install it from https://ffmpeg.org/download.html or your package manager",
}

// Checker verifies the external binaries the downloader depends on.
type Checker interface {
	// CheckAll verifies all required binaries and fails on the first missing one.
	CheckAll(ctx context.Context) error

	// BinaryPath returns the resolved path of a verified binary, or empty
	// if CheckAll has not verified it.
	BinaryPath(name BinaryName) string
}

// CheckerImpl implements the Checker interface using PATH lookups.
type CheckerImpl struct {
	mu       sync.RWMutex
	binPaths map[BinaryName]string
}

// NewChecker creates a new external binary checker.
func NewChecker() *CheckerImpl {
	return &CheckerImpl{
		binPaths: make(map[BinaryName]string),
	}
}

// CheckAll verifies that yt-dlp and ffmpeg are installed and runnable.
func (c *CheckerImpl) CheckAll(ctx context.Context) error {
	binaries := []BinaryName{BinaryYTDLP, BinaryFFmpeg}

	for _, binary := range binaries {
		if err := c.check(ctx, binary); err != nil {
			return err
		}
	}

	return nil
}

// BinaryPath returns the resolved path of a verified binary.
func (c *CheckerImpl) BinaryPath(name BinaryName) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.binPaths[name]
}

// check looks the binary up in PATH and runs its version command.
func (c *CheckerImpl) check(ctx context.Context, name BinaryName) error {
	path, err := exec.LookPath(string(name))
	if err != nil {
		return fmt.Errorf("%w: %s, %s", ErrBinaryNotFound, name, installHints[name])
	}

	checkCtx, cancel := context.WithTimeout(ctx, versionCheckTimeout)
	defer cancel()

	output, err := exec.CommandContext(checkCtx, path, versionArg(name)).Output()
	if err != nil {
		return fmt.Errorf("%w: %s at %s: %v", ErrBinaryNotRunnable, name, path, err)
	}

	version := firstLine(string(output))
	logger.Debugf(ctx, "Found %s at %s (%s)", name, path, version)

	c.mu.Lock()
	c.binPaths[name] = path
	c.mu.Unlock()

	return nil
}

// versionArg returns the version flag the binary understands.
func versionArg(name BinaryName) string {
	if name == BinaryFFmpeg {
		return "-version"
	}

	return "--version"
}

// firstLine returns the first line of the given output.
func firstLine(output string) string {
	line, _, _ := strings.Cut(output, "\n")

	return strings.TrimSpace(line)
}
