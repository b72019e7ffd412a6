package paths

import (
	"os"
	"path/filepath"
)

// DefaultDataDir returns ~/.feedsinkd, the default location for the message
// database, logs and the instance lock.
func DefaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".feedsinkd")
}

// ConfigPath returns the config file path under the data dir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config.toml")
}

// DBPath returns the message database path.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, "messages.db")
}

// LogDir returns the log directory.
func LogDir(dataDir string) string {
	return filepath.Join(dataDir, "logs")
}

// LogPath returns the daemon log file path.
func LogPath(dataDir string) string {
	return filepath.Join(LogDir(dataDir), "feedsinkd.log")
}

// EnsureDirs creates the data directory tree with proper permissions.
func EnsureDirs(dataDir string) error {
	dirs := []string{
		dataDir,
		LogDir(dataDir),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
