package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// ConfigHome returns $XDG_CONFIG_HOME, falling back to $HOME/.config.
func ConfigHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(homeDir(), ".config")
}

// RuntimeDir returns $XDG_RUNTIME_DIR, falling back to the system temp dir.
func RuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}

// VideosDir returns the user's videos directory.
//
// $XDG_VIDEOS_DIR wins when set. Otherwise the XDG_VIDEOS_DIR line of
// $XDG_CONFIG_HOME/user-dirs.dirs is used, and $HOME/Videos when neither
// is present.
func VideosDir() string {
	if dir := os.Getenv("XDG_VIDEOS_DIR"); dir != "" {
		return dir
	}
	if dir := readUserDir(filepath.Join(ConfigHome(), "user-dirs.dirs"), "XDG_VIDEOS_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(homeDir(), "Videos")
}

// readUserDir parses one entry of a user-dirs.dirs file.
// Lines look like: XDG_VIDEOS_DIR="$HOME/Videos"
func readUserDir(path, key string) string {
	f, err := os.Open(path) //nolint:gosec // path is derived from XDG_CONFIG_HOME
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(name) != key {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		value = strings.ReplaceAll(value, "$HOME", homeDir())
		return value
	}
	return ""
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "/"
}
