//go:build !darwin && !linux && !windows

package platform

import "os"

func detect() Capabilities {
	caps := Capabilities{}
	caps.DisplayAvailable, caps.DisplayReason = displayFromEnv(os.Getenv)
	return caps
}
