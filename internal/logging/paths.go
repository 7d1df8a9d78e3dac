package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.thaitok/logs/).
// Falls back to the temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".thaitok", "logs")
	}
	return filepath.Join(home, ".thaitok", "logs")
}

// DefaultLogPath returns the default sidecar log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "thaitok.log")
}

// EnsureLogDir creates the log directory if it doesn't exist.
func EnsureLogDir() error {
	return os.MkdirAll(DefaultLogDir(), 0o755)
}
