package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-rod/rod/lib/proto"

	"github.com/avorobev/tube-grabber/internal/constants"
	"github.com/avorobev/tube-grabber/internal/logger"
)

// netscapeFileHeader is the header yt-dlp and curl expect in a cookies file.
const netscapeFileHeader = "# Netscape HTTP Cookie File\n" +
	"# https://curl.se/docs/http-cookies.html\n" +
	"# This file was generated by tube-grabber. Do not edit.\n\n"

// defaultCookiesFilename is used when no cookies file path is configured.
const defaultCookiesFilename = "cookies" + constants.ExtensionTXT

// hasLoginCookie reports whether the session cookie is present, without logging.
func (s *ServiceImpl) hasLoginCookie(ctx context.Context) bool {
	defer func() {
		if r := recover(); r != nil {
			logger.Debugf(ctx, "hasLoginCookie panic recovered: %v", r)
		}
	}()

	cookies, err := s.browser.GetCookies()
	if err != nil {
		return false
	}

	for _, cookie := range cookies {
		if cookie.Name == loginCookieName && cookie.Value != "" {
			return true
		}
	}

	return false
}

// exportCookies collects the YouTube session cookies from the browser and
// writes them to a Netscape-format file.
func (s *ServiceImpl) exportCookies(ctx context.Context) (string, error) {
	logger.Info(ctx, "Exporting session cookies from browser...")

	cookies, err := s.browser.GetCookies()
	if err != nil {
		return "", fmt.Errorf("failed to read browser cookies: %w", err)
	}

	logger.Debugf(ctx, "Found %d cookies in the browser session", len(cookies))

	relevant := filterRelevantCookies(cookies)
	if len(relevant) == 0 {
		return "", ErrNoCookiesExported
	}

	if !containsLoginCookie(relevant) {
		return "", ErrLoginCookieNotFound
	}

	cookiesPath, err := s.resolveCookiesPath()
	if err != nil {
		return "", err
	}

	if err = writeNetscapeCookies(cookiesPath, relevant); err != nil {
		return "", fmt.Errorf("failed to write cookies file: %w", err)
	}

	logger.Debugf(ctx, "Wrote %d cookies to %s", len(relevant), cookiesPath)

	return cookiesPath, nil
}

// filterRelevantCookies keeps only cookies belonging to the YouTube and Google domains.
func filterRelevantCookies(cookies []*proto.NetworkCookie) []*proto.NetworkCookie {
	result := make([]*proto.NetworkCookie, 0, len(cookies))

	for _, cookie := range cookies {
		domain := strings.TrimPrefix(cookie.Domain, ".")
		if strings.HasSuffix(domain, youtubeDomain) || strings.HasSuffix(domain, googleDomain) {
			result = append(result, cookie)
		}
	}

	return result
}

// containsLoginCookie reports whether the session cookie is among the given cookies.
func containsLoginCookie(cookies []*proto.NetworkCookie) bool {
	for _, cookie := range cookies {
		if cookie.Name == loginCookieName && cookie.Value != "" {
			return true
		}
	}

	return false
}

// resolveCookiesPath returns the path the cookies file should be written to.
// A configured path wins, otherwise the file lands in the working directory.
func (s *ServiceImpl) resolveCookiesPath() (string, error) {
	if s.cfg.CookiesFile != "" {
		return s.cfg.CookiesFile, nil
	}

	absPath, err := filepath.Abs(defaultCookiesFilename)
	if err != nil {
		return "", fmt.Errorf("failed to resolve cookies file path: %w", err)
	}

	return absPath, nil
}

// writeNetscapeCookies writes the cookies to the given path in Netscape format.
func writeNetscapeCookies(path string, cookies []*proto.NetworkCookie) error {
	var builder strings.Builder

	builder.WriteString(netscapeFileHeader)

	for _, cookie := range cookies {
		builder.WriteString(formatNetscapeLine(cookie))
		builder.WriteString("\n")
	}

	return os.WriteFile(path, []byte(builder.String()), constants.DefaultFilePermissions)
}

// formatNetscapeLine renders a single cookie as a Netscape cookies.txt line.
// HTTP-only cookies get the "#HttpOnly_" domain prefix that curl and yt-dlp
// both understand.
func formatNetscapeLine(cookie *proto.NetworkCookie) string {
	domain := cookie.Domain
	if cookie.HTTPOnly {
		domain = "#HttpOnly_" + domain
	}

	includeSubdomains := "FALSE"
	if strings.HasPrefix(cookie.Domain, ".") {
		includeSubdomains = "TRUE"
	}

	secure := "FALSE"
	if cookie.Secure {
		secure = "TRUE"
	}

	// Session cookies carry no expiry timestamp.
	var expires int64
	if !cookie.Session && cookie.Expires > 0 {
		expires = int64(cookie.Expires)
	}

	return fmt.Sprintf("%s\t%s\t%s\t%s\t%d\t%s\t%s",
		domain, includeSubdomains, cookie.Path, secure, expires, cookie.Name, cookie.Value)
}
