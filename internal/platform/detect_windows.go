//go:build windows

package platform

import (
	"fmt"

	"golang.org/x/sys/windows"
)

func detect() Capabilities {
	return Capabilities{
		OSVersion:        windowsVersion(),
		DisplayAvailable: true,
	}
}

// windowsVersion uses RtlGetVersion, which is not subject to manifest-based version lies
func windowsVersion() string {
	info := windows.RtlGetVersion()
	if info == nil {
		return ""
	}
	return fmt.Sprintf("%d.%d.%d", info.MajorVersion, info.MinorVersion, info.BuildNumber)
}
