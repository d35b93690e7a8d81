// Package workdir locates the per-user state directory.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// LogFile is the name of the log file written while the terminal UI owns
// the terminal.
const LogFile = "screentalk.log"

// Root returns the base directory for screentalk state files.
// The path is expanded at runtime to resolve to:
//
//	$XDG_CONFIG_HOME/screentalk (or the platform equivalent)
func Root() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(dir, "screentalk"), nil
}

// FilePath returns the full path for a file in the state directory.
func FilePath(filename string) (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, filename), nil
}

// Prep ensures that the state directory exists.
func Prep() error {
	root, err := Root()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", root, err)
	}

	return nil
}

// OpenLog prepares the state directory and opens the log file for appending.
func OpenLog() (*os.File, error) {
	if err := Prep(); err != nil {
		return nil, err
	}

	path, err := FilePath(LogFile)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	return f, nil
}
