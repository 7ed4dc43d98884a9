package browser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avorobev/tube-grabber/internal/config"
)

// TestNewService tests the NewService function.
func TestNewService(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		CookiesFile: "cookies.txt",
	}

	service, err := NewService(cfg)

	require.NoError(t, err)
	assert.NotNil(t, service)
	assert.Equal(t, cfg, service.cfg)
	assert.Nil(t, service.browser)
	assert.Nil(t, service.page)
}

// TestValidateLoginURL tests the validateLoginURL function.
func TestValidateLoginURL(t *testing.T) {
	t.Parallel()

	service := &ServiceImpl{}

	tests := []struct {
		name        string
		url         string
		expectError bool
	}{
		{
			name:        "valid youtube.com URL",
			url:         "https://www.youtube.com/",
			expectError: false,
		},
		{
			name:        "valid accounts.google.com URL",
			url:         "https://accounts.google.com/ServiceLogin",
			expectError: false,
		},
		{
			name:        "valid myaccount.google.com URL",
			url:         "https://myaccount.google.com/",
			expectError: false,
		},
		{
			name:        "invalid URL - different domain",
			url:         "https://example.com",
			expectError: true,
		},
		{
			name:        "invalid URL - malicious site",
			url:         "https://evil.com/phishing",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := service.validateLoginURL(tt.url)

			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrNavigatedAway)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestSentinelErrors tests that all sentinel errors are defined and have proper messages.
func TestSentinelErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		err   error
		wants string
	}{
		{
			name:  "ErrLoginTimeout",
			err:   ErrLoginTimeout,
			wants: "login timeout exceeded",
		},
		{
			name:  "ErrBrowserClosed",
			err:   ErrBrowserClosed,
			wants: "browser was closed by user",
		},
		{
			name:  "ErrNavigatedAway",
			err:   ErrNavigatedAway,
			wants: "user navigated away from login flow",
		},
		{
			name:  "ErrLoginCookieNotFound",
			err:   ErrLoginCookieNotFound,
			wants: "login cookie not found - sign-in may have failed",
		},
		{
			name:  "ErrNoCookiesExported",
			err:   ErrNoCookiesExported,
			wants: "no cookies found for youtube.com or google.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Error(t, tt.err)
			assert.Equal(t, tt.wants, tt.err.Error())
		})
	}
}

// TestConstants tests that all constants are properly defined.
func TestConstants(t *testing.T) {
	t.Parallel()

	// Test URL constants.
	assert.Equal(t, "https://www.youtube.com/", youtubeHomeURL)
	assert.Equal(t, "youtube.com", youtubeDomain)
	assert.Equal(t, "google.com", googleDomain)

	// Test cookie name.
	assert.Equal(t, "LOGIN_INFO", loginCookieName)

	// Test CSS selectors.
	assert.Equal(t, `button#avatar-btn`, avatarButtonSelector)
	assert.Equal(t, `a[href*="ServiceLogin"]`, signInButtonSelector)

	// Test timing constants.
	assert.Equal(t, 200, int(browserSlowMotionDelay.Milliseconds()))
	assert.Equal(t, 1, int(loginPollInterval.Seconds()))
	assert.Equal(t, 10, int(maxLoginWaitTime.Minutes()))
	assert.Equal(t, 2, int(sessionEstablishDelay.Seconds()))
}

// TestServiceImpl_Cleanup tests the cleanup function.
func TestServiceImpl_Cleanup(t *testing.T) {
	t.Parallel()

	service := &ServiceImpl{
		browser: nil, // No browser initialized.
	}

	// Should not panic even with nil browser.
	assert.NotPanics(t, func() {
		service.cleanup(context.Background())
	})
}

// TestFilterRelevantCookies checks the domain filter the export applies.
func TestFilterRelevantCookies(t *testing.T) {
	t.Parallel()

	cookies := []*proto.NetworkCookie{
		{Name: "LOGIN_INFO", Value: "abc", Domain: ".youtube.com"},
		{Name: "SID", Value: "def", Domain: ".google.com"},
		{Name: "session", Value: "ghi", Domain: "accounts.google.com"},
		{Name: "tracker", Value: "jkl", Domain: ".example.com"},
	}

	relevant := filterRelevantCookies(cookies)

	require.Len(t, relevant, 3)

	for _, cookie := range relevant {
		assert.NotEqual(t, ".example.com", cookie.Domain)
	}
}

// TestContainsLoginCookie checks the session cookie detection.
func TestContainsLoginCookie(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cookies []*proto.NetworkCookie
		wants   bool
	}{
		{
			name: "login cookie present",
			cookies: []*proto.NetworkCookie{
				{Name: "LOGIN_INFO", Value: "abc", Domain: ".youtube.com"},
			},
			wants: true,
		},
		{
			name: "login cookie empty",
			cookies: []*proto.NetworkCookie{
				{Name: "LOGIN_INFO", Value: "", Domain: ".youtube.com"},
			},
			wants: false,
		},
		{
			name: "no login cookie",
			cookies: []*proto.NetworkCookie{
				{Name: "SID", Value: "def", Domain: ".google.com"},
			},
			wants: false,
		},
		{
			name:    "empty list",
			cookies: nil,
			wants:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.wants, containsLoginCookie(tt.cookies))
		})
	}
}

// TestFormatNetscapeLine checks the cookies.txt line rendering.
func TestFormatNetscapeLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cookie *proto.NetworkCookie
		wants  string
	}{
		{
			name: "secure subdomain cookie",
			cookie: &proto.NetworkCookie{
				Name:    "LOGIN_INFO",
				Value:   "token123",
				Domain:  ".youtube.com",
				Path:    "/",
				Expires: 1767225600,
				Secure:  true,
			},
			wants: ".youtube.com\tTRUE\t/\tTRUE\t1767225600\tLOGIN_INFO\ttoken123",
		},
		{
			name: "http-only cookie gets the domain prefix",
			cookie: &proto.NetworkCookie{
				Name:     "SID",
				Value:    "abc",
				Domain:   ".google.com",
				Path:     "/",
				Expires:  1767225600,
				HTTPOnly: true,
			},
			wants: "#HttpOnly_.google.com\tTRUE\t/\tFALSE\t1767225600\tSID\tabc",
		},
		{
			name: "session cookie has zero expiry",
			cookie: &proto.NetworkCookie{
				Name:    "YSC",
				Value:   "xyz",
				Domain:  "www.youtube.com",
				Path:    "/",
				Expires: -1,
				Session: true,
			},
			wants: "www.youtube.com\tFALSE\t/\tFALSE\t0\tYSC\txyz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.wants, formatNetscapeLine(tt.cookie))
		})
	}
}

// TestWriteNetscapeCookies checks the full cookies file layout.
func TestWriteNetscapeCookies(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cookies.txt")

	cookies := []*proto.NetworkCookie{
		{Name: "LOGIN_INFO", Value: "token123", Domain: ".youtube.com", Path: "/", Expires: 1767225600, Secure: true},
		{Name: "YSC", Value: "xyz", Domain: "www.youtube.com", Path: "/", Expires: -1, Session: true},
	}

	require.NoError(t, writeNetscapeCookies(path, cookies))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(content)
	assert.True(t, strings.HasPrefix(text, "# Netscape HTTP Cookie File\n"))
	assert.Contains(t, text, "LOGIN_INFO\ttoken123")
	assert.Contains(t, text, "YSC\txyz")

	// Two cookie lines after the header block.
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	assert.Len(t, lines, 6)
}

// TestResolveCookiesPath checks where the exported file lands.
func TestResolveCookiesPath(t *testing.T) {
	t.Parallel()

	t.Run("configured path wins", func(t *testing.T) {
		t.Parallel()

		service := &ServiceImpl{cfg: &config.Config{CookiesFile: "/tmp/custom.txt"}}

		path, err := service.resolveCookiesPath()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/custom.txt", path)
	})

	t.Run("defaults to working directory", func(t *testing.T) {
		t.Parallel()

		service := &ServiceImpl{cfg: &config.Config{}}

		path, err := service.resolveCookiesPath()
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(path))
		assert.Equal(t, "cookies.txt", filepath.Base(path))
	})
}
