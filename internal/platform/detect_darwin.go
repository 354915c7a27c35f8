//go:build darwin

package platform

import (
	"golang.org/x/sys/unix"
)

// Full-size content views with a transparent title bar arrived in OS X 10.10
const (
	overlayMinMajor = 10
	overlayMinMinor = 10
)

func detect() Capabilities {
	version := productVersion()
	return Capabilities{
		OSVersion:        version,
		OverlayTitleBar:  versionAtLeast(version, overlayMinMajor, overlayMinMinor),
		DisplayAvailable: true,
	}
}

// productVersion returns the macOS version ("14.4.1"). Older systems lack
// kern.osproductversion, so the Darwin kernel release is mapped instead
// (Darwin 14 is OS X 10.10).
func productVersion() string {
	if v, err := unix.Sysctl("kern.osproductversion"); err == nil && v != "" {
		return v
	}
	release, err := unix.Sysctl("kern.osrelease")
	if err != nil {
		return ""
	}
	if versionAtLeast(release, 14, 0) {
		return "10.10"
	}
	return "10.9"
}
