// Package appdirs resolves platform-specific candidate directories for user
// configuration files.
package appdirs

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	unixFallback    = "~/.config"
	macDir          = "~/Library/Application Support"
	windowsVar      = "APPDATA"
	windowsFallback = "~\\AppData\\Roaming"
)

// ConfigDirs returns the candidate user configuration directories for the
// current platform, highest priority first. The last element is the
// fallback used when no higher-priority config file exists. Paths are
// expanded, absolute, and deduplicated.
func ConfigDirs() []string {
	var paths []string

	switch runtime.GOOS {
	case "darwin":
		paths = append(paths, unixFallback, macDir)
		paths = append(paths, xdgConfigDirs()...)
	case "windows":
		paths = append(paths, windowsFallback)
		if dir := os.Getenv(windowsVar); dir != "" {
			paths = append(paths, dir)
		}
	default:
		paths = append(paths, unixFallback)
		paths = append(paths, xdgConfigDirs()...)
	}

	var out []string
	seen := map[string]bool{}
	for _, p := range paths {
		p = Expand(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// xdgConfigDirs returns paths taken from the XDG_CONFIG_HOME and
// XDG_CONFIG_DIRS environment variables if they are set.
func xdgConfigDirs() []string {
	var paths []string
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		paths = append(paths, home)
	}
	if dirs := os.Getenv("XDG_CONFIG_DIRS"); dirs != "" {
		paths = append(paths, strings.Split(dirs, ":")...)
	} else {
		paths = append(paths, "/etc/xdg")
	}
	paths = append(paths, "/etc")
	return paths
}

// Expand resolves a leading tilde and makes the path absolute.
func Expand(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~\\") {
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			path = filepath.Join(home, path[1:])
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
