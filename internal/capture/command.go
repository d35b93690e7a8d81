package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// pathPlaceholder is replaced by the output path in command arguments.
const pathPlaceholder = "{path}"

// DefaultCommand returns the screenshot utility invocation for the current
// platform, or nil when there is no sensible default.
func DefaultCommand() []string {
	switch runtime.GOOS {
	case "darwin":
		// -x: do not play sound, -t: output format
		return []string{"screencapture", "-x", "-t", "jpg", pathPlaceholder}
	case "linux", "freebsd", "openbsd", "netbsd":
		// ImageMagick
		return []string{"import", "-window", "root", pathPlaceholder}
	default:
		return nil
	}
}

// CommandCapturer shells out to an external screenshot utility.
type CommandCapturer struct {
	path string
	argv []string
}

// NewCommandCapturer creates a capturer that runs argv, substituting
// "{path}" with the output path. When no argument carries the placeholder
// the path is appended.
func NewCommandCapturer(path string, argv []string) *CommandCapturer {
	return &CommandCapturer{
		path: path,
		argv: argv,
	}
}

// Capture runs the command and checks that it produced a non-empty file.
func (c *CommandCapturer) Capture(ctx context.Context) (string, error) {
	args := c.args()

	// The command writes the file itself; remove the previous one so a
	// silent failure cannot hand back a stale image.
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", &Error{Backend: BackendCommand, Err: fmt.Errorf("failed to remove previous screenshot: %w", err)}
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // command comes from local configuration
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			err = fmt.Errorf("%s failed: %w: %s", args[0], err, msg)
		} else {
			err = fmt.Errorf("%s failed: %w", args[0], err)
		}
		return "", &Error{Backend: BackendCommand, Err: err}
	}

	info, err := os.Stat(c.path)
	if err != nil {
		return "", &Error{Backend: BackendCommand, Err: fmt.Errorf("screenshot not written: %w", err)}
	}
	if info.Size() == 0 {
		return "", &Error{Backend: BackendCommand, Err: errors.New("screenshot is empty")}
	}

	slog.Debug("screen captured", "path", c.path, "command", args[0], "bytes", info.Size())

	return c.path, nil
}

func (c *CommandCapturer) args() []string {
	args := make([]string, 0, len(c.argv)+1)
	substituted := false
	for _, a := range c.argv {
		if strings.Contains(a, pathPlaceholder) {
			a = strings.ReplaceAll(a, pathPlaceholder, c.path)
			substituted = true
		}
		args = append(args, a)
	}
	if !substituted {
		args = append(args, c.path)
	}
	return args
}
