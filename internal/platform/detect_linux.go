//go:build linux

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

func detect() Capabilities {
	caps := Capabilities{OSVersion: kernelRelease()}
	caps.DisplayAvailable, caps.DisplayReason = displayFromEnv(os.Getenv)
	return caps
}

func kernelRelease() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return ""
	}
	return unix.ByteSliceToString(uts.Release[:])
}
