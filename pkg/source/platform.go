package source

import (
	"runtime"
	"strings"
)

// platformFromGOOS maps Go's GOOS names to platform tags.
func platformFromGOOS(goos string) string {
	switch goos {
	case "windows":
		return "win32"
	case "solaris", "illumos":
		return "sunos"
	default:
		return goos
	}
}

// platformFromSysname maps a uname sysname to a platform tag.
func platformFromSysname(sysname string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(sysname)) {
	case "linux":
		return "linux", true
	case "darwin":
		return "darwin", true
	case "freebsd":
		return "freebsd", true
	case "openbsd":
		return "openbsd", true
	case "sunos":
		return "sunos", true
	case "aix":
		return "aix", true
	default:
		return "", false
	}
}

// Detect returns the platform tag of the running host.
func Detect() string {
	if p, ok := detectSysname(); ok {
		return p
	}
	return platformFromGOOS(runtime.GOOS)
}
