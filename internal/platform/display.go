package platform

// displayFromEnv reports whether an X11 or Wayland display server is reachable
// according to the session environment.
func displayFromEnv(getenv func(string) string) (bool, string) {
	if getenv("WAYLAND_DISPLAY") != "" || getenv("DISPLAY") != "" {
		return true, ""
	}
	return false, "neither DISPLAY nor WAYLAND_DISPLAY is set"
}
