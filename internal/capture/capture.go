// Package capture grabs the entire display surface and stores it as a JPEG
// at a fixed, overwritable path.
package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Capturer takes a screenshot and returns the path of the stored image.
type Capturer interface {
	Capture(ctx context.Context) (string, error)
}

// Error reports a failed capture.
type Error struct {
	Backend string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("screen capture failed (%s): %v", e.Backend, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Backend names accepted by New.
const (
	BackendDisplay = "display"
	BackendCommand = "command"
)

// New returns the capturer for backend writing to path. command is only
// consulted by the command backend; nil selects the platform default.
func New(backend, path string, command []string) (Capturer, error) {
	switch backend {
	case BackendDisplay, "":
		return NewDisplayCapturer(path), nil
	case BackendCommand:
		if len(command) == 0 {
			command = DefaultCommand()
		}
		if len(command) == 0 {
			return nil, fmt.Errorf("no default screenshot command for this platform: set CAPTURE_COMMAND")
		}
		return NewCommandCapturer(path, command), nil
	default:
		return nil, fmt.Errorf("unknown capture backend %q", backend)
	}
}

// replaceFile writes through a temp file in the target directory so readers
// never observe a half-written image.
func replaceFile(path string, write func(f *os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".screentalk-*.jpg")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}
