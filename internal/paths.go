package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "chat-timeline"

// AppPaths holds the detected per-user directories of the application
type AppPaths struct {
	ConfigDir string // config.yaml
	DataDir   string // session database and per-session data directories
	CacheDir  string // conversation indexes
}

// DetectAppPaths detects the application directories based on the operating
// system. On Linux the XDG base directory variables are honored.
func DetectAppPaths() (AppPaths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return AppPaths{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		base := filepath.Join(home, "Library/Application Support", appName)
		return AppPaths{
			ConfigDir: base,
			DataDir:   filepath.Join(base, "data"),
			CacheDir:  filepath.Join(home, "Library/Caches", appName),
		}, nil
	case "linux":
		return AppPaths{
			ConfigDir: filepath.Join(xdgDir("XDG_CONFIG_HOME", filepath.Join(home, ".config")), appName),
			DataDir:   filepath.Join(xdgDir("XDG_DATA_HOME", filepath.Join(home, ".local/share")), appName),
			CacheDir:  filepath.Join(xdgDir("XDG_CACHE_HOME", filepath.Join(home, ".cache")), appName),
		}, nil
	default:
		return AppPaths{}, fmt.Errorf("unsupported OS: %s (only macOS and Linux are supported)", runtime.GOOS)
	}
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" && filepath.IsAbs(dir) {
		return dir
	}
	return fallback
}

// PathsUnder returns paths rooted at a single directory, as used by
// --data-dir.
func PathsUnder(root string) AppPaths {
	return AppPaths{
		ConfigDir: root,
		DataDir:   filepath.Join(root, "data"),
		CacheDir:  filepath.Join(root, "cache"),
	}
}

// ConfigPath returns the path to config.yaml
func (p AppPaths) ConfigPath() string {
	return filepath.Join(p.ConfigDir, "config.yaml")
}

// SessionDBPath returns the default path of the session database
func (p AppPaths) SessionDBPath() string {
	return filepath.Join(p.DataDir, "sessions.db")
}

// SessionDBExists checks if the session database exists
func (p AppPaths) SessionDBExists() bool {
	_, err := os.Stat(p.SessionDBPath())
	return err == nil
}

// FindSessionDataDirs returns the per-session data directories under
// DataDir, i.e. every subdirectory.
func (p AppPaths) FindSessionDataDirs() ([]string, error) {
	entries, err := os.ReadDir(p.DataDir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan data directory: %w", err)
	}

	dirs := []string{}
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(p.DataDir, e.Name()))
		}
	}
	return dirs, nil
}
