package platform

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// TitleBarStyle selects how the main window's chrome is drawn
type TitleBarStyle int

const (
	// TitleBarDefault leaves the platform's opaque title bar alone
	TitleBarDefault TitleBarStyle = iota
	// TitleBarOverlay draws a transparent title bar over the window content
	TitleBarOverlay
)

func (s TitleBarStyle) String() string {
	switch s {
	case TitleBarOverlay:
		return "overlay"
	default:
		return "default"
	}
}

// TitleBarPreference is the configured request: auto, overlay or default
type TitleBarPreference string

const (
	PreferAuto    TitleBarPreference = "auto"
	PreferOverlay TitleBarPreference = "overlay"
	PreferDefault TitleBarPreference = "default"
)

// ParseTitleBarPreference accepts auto, overlay or default (case-insensitive, empty means auto)
func ParseTitleBarPreference(value string) (TitleBarPreference, error) {
	switch TitleBarPreference(strings.ToLower(strings.TrimSpace(value))) {
	case "", PreferAuto:
		return PreferAuto, nil
	case PreferOverlay:
		return PreferOverlay, nil
	case PreferDefault:
		return PreferDefault, nil
	default:
		return PreferAuto, fmt.Errorf("unknown title bar style %q (want auto, overlay or default)", value)
	}
}

// Capabilities describes what the running platform supports
type Capabilities struct {
	OS               string `json:"os"`
	OSVersion        string `json:"osVersion"`
	OverlayTitleBar  bool   `json:"overlayTitleBar"`
	DisplayAvailable bool   `json:"displayAvailable"`
	DisplayReason    string `json:"displayReason,omitempty"`
}

// Detect queries the running platform
func Detect() Capabilities {
	caps := detect()
	caps.OS = runtime.GOOS
	return caps
}

// ResolveTitleBarStyle picks the style to apply. An overlay request on a
// platform without overlay support falls back to the default style.
func ResolveTitleBarStyle(pref TitleBarPreference, caps Capabilities) TitleBarStyle {
	switch pref {
	case PreferDefault:
		return TitleBarDefault
	case PreferOverlay, PreferAuto:
		if caps.OverlayTitleBar {
			return TitleBarOverlay
		}
		return TitleBarDefault
	default:
		return TitleBarDefault
	}
}

// versionAtLeast compares the leading major.minor of a dotted version string
func versionAtLeast(version string, major, minor int) bool {
	parts := strings.SplitN(strings.TrimSpace(version), ".", 3)
	if len(parts) == 0 || parts[0] == "" {
		return false
	}

	gotMajor, ok := leadingInt(parts[0])
	if !ok {
		return false
	}
	gotMinor := 0
	if len(parts) > 1 {
		gotMinor, _ = leadingInt(parts[1])
	}

	if gotMajor != major {
		return gotMajor > major
	}
	return gotMinor >= minor
}

// leadingInt parses the digits at the start of s ("0-rc1" is 0)
func leadingInt(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	return v, err == nil
}
