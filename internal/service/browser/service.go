package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"

	"github.com/avorobev/tube-grabber/internal/config"
	"github.com/avorobev/tube-grabber/internal/logger"
)

const (
	// browserSlowMotionDelay is the delay between browser actions for visibility during debugging.
	browserSlowMotionDelay = 200 * time.Millisecond

	// youtubeHomeURL is the main YouTube landing page.
	youtubeHomeURL = "https://www.youtube.com/"

	// youtubeDomain is the main YouTube domain.
	youtubeDomain = "youtube.com"

	// googleDomain covers the Google sign-in pages the login flow passes through.
	googleDomain = "google.com"

	// loginCookieName is the cookie YouTube sets once a Google account session is active.
	loginCookieName = "LOGIN_INFO"

	// avatarButtonSelector is the CSS selector for the account avatar button (appears when signed in).
	avatarButtonSelector = `button#avatar-btn`

	// signInButtonSelector is the CSS selector for the sign-in link (appears when not signed in).
	signInButtonSelector = `a[href*="ServiceLogin"]`

	// loginPollInterval is the interval for polling the login status.
	loginPollInterval = 1 * time.Second

	// maxLoginWaitTime is the maximum time to wait for user to complete login.
	maxLoginWaitTime = 10 * time.Minute

	// sessionEstablishDelay is the delay after login to allow session cookies to fully settle.
	sessionEstablishDelay = 2 * time.Second

	// humanBehaviorMinDelay is the minimum delay for simulated human actions.
	humanBehaviorMinDelay = 500 * time.Millisecond
	// humanBehaviorMaxDelay is the maximum delay for simulated human actions.
	humanBehaviorMaxDelay = 2 * time.Second

	// mouseMovementsPerCheck is the number of random mouse movements to simulate per polling cycle.
	mouseMovementsPerCheck = 2

	// mouseMovementMinDelay is the minimum delay between mouse movements.
	mouseMovementMinDelay = 100 * time.Millisecond
	// mouseMovementMaxDelay is the maximum delay between mouse movements.
	mouseMovementMaxDelay = 400 * time.Millisecond

	// scrollProbability is the probability of scrolling (1 in N).
	scrollProbability = 3
	// scrollMinAmount is the minimum scroll amount in pixels.
	scrollMinAmount = -100
	// scrollMaxAmount is the maximum scroll amount in pixels.
	scrollMaxAmount = 200

	// interactionProbability is the probability of random interaction (1 in N).
	interactionProbability = 5
	// interactionActionCount is the number of possible random interaction actions.
	interactionActionCount = 4

	// smallScrollRange is the range for small random scrolls.
	smallScrollRange = 100
	// smallScrollOffset is the offset to center small scroll range.
	smallScrollOffset = 50

	// pauseMinDelay is the minimum pause duration for human-like pauses.
	pauseMinDelay = 500 * time.Millisecond
	// pauseMaxDelay is the maximum pause duration for human-like pauses.
	pauseMaxDelay = 1500 * time.Millisecond

	// browserCleanupDelay is the delay to wait for Chrome to release file locks before cleanup.
	browserCleanupDelay = 500 * time.Millisecond
)

var (
	// ErrLoginTimeout is returned when login takes too long.
	ErrLoginTimeout = errors.New("login timeout exceeded")

	// ErrBrowserClosed is returned when the browser is closed by the user.
	ErrBrowserClosed = errors.New("browser was closed by user")

	// ErrNavigatedAway is returned when the user navigates away from the login flow.
	ErrNavigatedAway = errors.New("user navigated away from login flow")

	// ErrLoginCookieNotFound is returned when the session cookie cannot be found after login.
	ErrLoginCookieNotFound = errors.New("login cookie not found - sign-in may have failed")

	// ErrNoCookiesExported is returned when no cookies matched the YouTube domains.
	ErrNoCookiesExported = errors.New("no cookies found for youtube.com or google.com")
)

// Service provides browser-based cookie export.
type Service interface {
	// LoginAndExportCookies opens a browser, waits for the user to sign in to
	// YouTube, then writes the session cookies to a Netscape-format file and
	// returns its path.
	LoginAndExportCookies(ctx context.Context) (string, error)
}

// ServiceImpl drives a Chrome instance through the YouTube sign-in flow.
type ServiceImpl struct {
	cfg     *config.Config
	browser *rod.Browser
	page    *rod.Page
	// tempDir stores the temporary profile directory for cleanup.
	tempDir string
}

// NewService creates a new browser cookie export service.
func NewService(cfg *config.Config) (*ServiceImpl, error) {
	return &ServiceImpl{
		cfg: cfg,
	}, nil
}

// LoginAndExportCookies opens a browser, waits for the user to sign in, then
// exports the session cookies to a Netscape-format file.
func (s *ServiceImpl) LoginAndExportCookies(ctx context.Context) (string, error) {
	logger.Info(ctx, "Starting browser-based cookie export")

	// Initialize browser.
	if err := s.initBrowser(ctx); err != nil {
		return "", fmt.Errorf("failed to initialize browser: %w", err)
	}

	defer s.cleanup(ctx)

	// Navigate to YouTube and wait for user to complete the sign-in.
	if err := s.waitForUserLogin(ctx); err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}

	// Export cookies from the browser session.
	cookiesPath, err := s.exportCookies(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to export cookies: %w", err)
	}

	logger.Infof(ctx, "Cookies exported successfully to %s", cookiesPath)

	return cookiesPath, nil
}
