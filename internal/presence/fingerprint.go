// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package presence

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/tomtom215/visitline/internal/cache"
	"github.com/tomtom215/visitline/internal/models"
)

// Device classes.
const (
	DeviceTablet  = "tablet"
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
)

// Browser families.
const (
	BrowserEdge    = "Edge"
	BrowserOpera   = "Opera"
	BrowserFirefox = "Firefox"
	BrowserChrome  = "Chrome"
	BrowserSafari  = "Safari"
	BrowserOther   = "Other"
)

// family pairs a result with the matcher that recognizes it.
type family struct {
	name    string
	matcher *cache.PatternMatcher
}

func newFamily(name string, tokens ...string) family {
	return family{name: name, matcher: cache.NewPatternMatcher(tokens, name)}
}

var (
	tabletFamily = newFamily(DeviceTablet, "ipad", "tablet", "playbook", "silk", "kindle")
	mobileFamily = newFamily(DeviceMobile, "mobi", "iphone", "ipod", "android", "blackberry", "iemobile", "opera mini")

	// Checked in order: Edge and Opera user agents also contain "Chrome/"
	// and "Safari/".
	browserFamilies = []family{
		newFamily(BrowserEdge, "edg/", "edge/", "edga/", "edgios/"),
		newFamily(BrowserOpera, "opr/", "opera"),
		newFamily(BrowserFirefox, "firefox", "fxios"),
		newFamily(BrowserChrome, "chrome/", "crios/"),
		newFamily(BrowserSafari, "safari/"),
	}
)

// DetectDevice classifies a user agent as tablet, mobile or desktop.
func DetectDevice(userAgent string) string {
	switch {
	case tabletFamily.matcher.Contains(userAgent):
		return DeviceTablet
	case isAndroidTablet(userAgent):
		return DeviceTablet
	case mobileFamily.matcher.Contains(userAgent):
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

// isAndroidTablet reports Android user agents without the "Mobile" token.
func isAndroidTablet(userAgent string) bool {
	lower := strings.ToLower(userAgent)
	return strings.Contains(lower, "android") && !strings.Contains(lower, "mobile")
}

// DetectBrowser returns the browser family of a user agent.
func DetectBrowser(userAgent string) string {
	for _, f := range browserFamilies {
		if f.matcher.Contains(userAgent) {
			return f.name
		}
	}
	return BrowserOther
}

// HashString is a 32-bit rolling hash (h = h*31 + c over UTF-16 code units)
// rendered as "fp" plus eight lowercase hex digits. It is stable but not
// cryptographic.
func HashString(s string) string {
	var h uint32
	for _, unit := range utf16.Encode([]rune(s)) {
		h = h*31 + uint32(unit)
	}
	return fmt.Sprintf("fp%08x", h)
}

// Environment is the raw description of a presence client.
type Environment struct {
	UserAgent    string
	Language     string
	Timezone     string
	ScreenWidth  int
	ScreenHeight int
}

// FingerprintSource returns the string hashed into the fingerprint.
func FingerprintSource(env Environment, device, browser string) string {
	return strings.Join([]string{
		env.UserAgent,
		device,
		browser,
		env.Language,
		env.Timezone,
		strconv.Itoa(env.ScreenWidth) + "x" + strconv.Itoa(env.ScreenHeight),
	}, "|")
}

// BuildMetadata derives the client metadata and fingerprint for env.
func BuildMetadata(env Environment) models.ClientMetadata {
	device := DetectDevice(env.UserAgent)
	browser := DetectBrowser(env.UserAgent)
	return models.ClientMetadata{
		UserAgent:    env.UserAgent,
		Device:       device,
		Browser:      browser,
		Language:     env.Language,
		Timezone:     env.Timezone,
		ScreenWidth:  env.ScreenWidth,
		ScreenHeight: env.ScreenHeight,
		Fingerprint:  HashString(FingerprintSource(env, device, browser)),
	}
}

// HostEnvironment describes the current process as a headless client.
func HostEnvironment(version string) Environment {
	return Environment{
		UserAgent: fmt.Sprintf("Visitline/%s (%s; %s) Go-http-client", version, runtime.GOOS, runtime.GOARCH),
		Language:  hostLanguage(),
		Timezone:  hostTimezone(),
	}
}

// hostLanguage converts LANG style values ("en_US.UTF-8") to BCP 47 ("en-US").
func hostLanguage() string {
	for _, key := range []string{"LC_ALL", "LANG"} {
		value := os.Getenv(key)
		if value == "" || value == "C" || value == "POSIX" {
			continue
		}
		if i := strings.IndexAny(value, ".@"); i >= 0 {
			value = value[:i]
		}
		return strings.ReplaceAll(value, "_", "-")
	}
	return "en-US"
}

func hostTimezone() string {
	if tz := os.Getenv("TZ"); tz != "" {
		return strings.TrimPrefix(tz, ":")
	}
	if name := time.Local.String(); name != "" && name != "Local" {
		return name
	}
	return "UTC"
}
