package browser

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/avorobev/tube-grabber/internal/logger"
)

// waitForUserLogin navigates to YouTube and waits for a successful sign-in.
func (s *ServiceImpl) waitForUserLogin(ctx context.Context) error {
	logger.Info(ctx, "Opening YouTube homepage...")

	logger.Debugf(ctx, "Navigating to %s", youtubeHomeURL)

	// Add random delay before navigation to appear more human.
	randomHumanDelay()

	s.page.MustNavigate(youtubeHomeURL)

	// Wait for page to fully load with random delay.
	randomHumanDelay()

	// Perform some human-like mouse movements after page load.
	s.simulateHumanBehavior(ctx)

	currentURL := s.page.MustInfo().URL
	logger.Debugf(ctx, "Navigation complete. Current URL: %s", currentURL)

	logger.Info(ctx, "")
	logger.Info(ctx, "╔══════════════════════════════════════════════════════════════════╗")
	logger.Info(ctx, "║                     SIGN-IN INSTRUCTIONS                         ║")
	logger.Info(ctx, "╚══════════════════════════════════════════════════════════════════╝")
	logger.Info(ctx, "")
	logger.Info(ctx, "Please complete the sign-in in the browser:")
	logger.Info(ctx, "")
	logger.Info(ctx, "1. Click the 'Sign in' button in the top right corner")
	logger.Info(ctx, "")
	logger.Info(ctx, "2. Enter your Google account email and password")
	logger.Info(ctx, "")
	logger.Info(ctx, "3. Complete any two-factor authentication prompts")
	logger.Info(ctx, "")
	logger.Info(ctx, "4. Wait until YouTube shows your account avatar")
	logger.Info(ctx, "")
	logger.Info(ctx, "5. DO NOT CLOSE THE BROWSER - the tool detects the sign-in itself")
	logger.Info(ctx, "")
	logger.Info(ctx, "CRITICAL RULES:")
	logger.Info(ctx, "- ONLY interact with sign-in forms")
	logger.Info(ctx, "- Do NOT close browser manually")
	logger.Info(ctx, "- Do NOT navigate away from YouTube/Google domains")
	logger.Info(ctx, "")
	logger.Info(ctx, "Waiting for sign-in to complete...")
	logger.Info(ctx, "")

	// Wait for login by monitoring the process.
	if err := s.waitForLoginComplete(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "Sign-in completed successfully!")

	// Give the session a moment to fully establish.
	time.Sleep(sessionEstablishDelay)

	return nil
}

// waitForLoginComplete monitors the sign-in process and validates success by
// checking for the session cookie or the account avatar button.
func (s *ServiceImpl) waitForLoginComplete(ctx context.Context) error {
	var (
		startTime = time.Now()
		lastURL   string
	)

	for {
		// Check context cancellation.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Check timeout.
		if time.Since(startTime) > maxLoginWaitTime {
			return fmt.Errorf("%w: waited for %v", ErrLoginTimeout, maxLoginWaitTime)
		}

		// Check if browser was closed.
		if !s.isBrowserAlive(ctx) {
			return ErrBrowserClosed
		}

		// Get current URL safely.
		currentURL, err := s.getCurrentURL(ctx)
		if err != nil {
			return fmt.Errorf("failed to get current URL: %w", err)
		}

		// Log URL changes for debugging.
		if currentURL != lastURL {
			s.logURLChange(ctx, currentURL)
			lastURL = currentURL
		}

		// The session cookie is the authoritative signal.
		if s.hasLoginCookie(ctx) {
			logger.Info(ctx, "Session cookie detected - sign-in successful!")
			return nil
		}

		// Fall back to the avatar button when back on YouTube.
		if strings.Contains(currentURL, youtubeDomain) {
			if loggedIn, checkErr := s.checkIfLoggedIn(ctx); checkErr == nil && loggedIn {
				return nil
			}
		}

		// Validate user hasn't navigated away.
		if err = s.validateLoginURL(currentURL); err != nil {
			return err
		}

		// Simulate human behavior to avoid bot detection.
		s.simulateHumanBehavior(ctx)

		// Occasionally add extra random interactions.
		//nolint:gosec // Weak random is fine for simulating human behavior.
		if rand.IntN(interactionProbability) == 0 {
			s.simulateRandomPageInteraction(ctx)
		}

		// Wait before checking again with some randomness.
		time.Sleep(loginPollInterval)
		randomHumanDelay()
	}
}

// logURLChange logs URL changes and page details in debug mode.
func (s *ServiceImpl) logURLChange(ctx context.Context, currentURL string) {
	logger.Debugf(ctx, "URL changed: %s", currentURL)

	if !logger.IsDebugLevel() {
		return
	}

	// Show page title.
	pageInfo, err := s.page.Info()
	if err == nil {
		logger.Debugf(ctx, "Page title: %s", pageInfo.Title)
	}
}

// checkIfLoggedIn checks if the user is signed in by looking for the avatar button.
func (s *ServiceImpl) checkIfLoggedIn(ctx context.Context) (bool, error) {
	logger.Debug(ctx, "On youtube.com - checking for successful sign-in...")

	// Try to find the avatar button (appears only when signed in).
	avatarExists, _, err := s.page.Has(avatarButtonSelector)
	if err == nil && avatarExists {
		logger.Debug(ctx, "Avatar button found - sign-in successful!")
		return true, nil
	}

	// Also check if the sign-in link still exists (not signed in).
	signInExists, _, err := s.page.Has(signInButtonSelector)
	if err == nil && signInExists {
		logger.Debug(ctx, "Still see 'Sign in' button - not signed in yet, waiting...")
	}

	return false, err
}

// validateLoginURL validates that the user hasn't navigated away from allowed domains.
func (s *ServiceImpl) validateLoginURL(currentURL string) error {
	if !strings.Contains(currentURL, youtubeDomain) &&
		!strings.Contains(currentURL, googleDomain) {
		return fmt.Errorf("%w to: %s", ErrNavigatedAway, currentURL)
	}

	return nil
}
