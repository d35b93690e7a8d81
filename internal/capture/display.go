package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"

	"github.com/kbinani/screenshot"
)

// JPEGQuality is the encoder quality used for stored screenshots.
const JPEGQuality = 90

// DisplayCapturer captures the union of all active displays through the
// platform screen APIs.
type DisplayCapturer struct {
	path string

	// overridable for tests
	bounds func() []image.Rectangle
	grab   func(image.Rectangle) (*image.RGBA, error)
}

// NewDisplayCapturer creates a capturer that writes to path.
func NewDisplayCapturer(path string) *DisplayCapturer {
	return &DisplayCapturer{
		path:   path,
		bounds: Displays,
		grab:   screenshot.CaptureRect,
	}
}

// Displays returns the bounds of every active display.
func Displays() []image.Rectangle {
	n := screenshot.NumActiveDisplays()
	out := make([]image.Rectangle, 0, n)
	for i := range n {
		out = append(out, screenshot.GetDisplayBounds(i))
	}
	return out
}

// Capture grabs every display as one image and stores it as JPEG.
func (d *DisplayCapturer) Capture(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Backend: BackendDisplay, Err: err}
	}

	displays := d.bounds()
	if len(displays) == 0 {
		return "", &Error{Backend: BackendDisplay, Err: errors.New("no active displays")}
	}

	var area image.Rectangle
	for _, b := range displays {
		area = area.Union(b)
	}

	img, err := d.grab(area)
	if err != nil {
		return "", &Error{Backend: BackendDisplay, Err: fmt.Errorf("failed to grab %v: %w", area, err)}
	}

	// The grab can be slow on large desktops; honor cancellation before writing.
	if err := ctx.Err(); err != nil {
		return "", &Error{Backend: BackendDisplay, Err: err}
	}

	err = replaceFile(d.path, func(f *os.File) error {
		if err := jpeg.Encode(f, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return fmt.Errorf("failed to encode jpeg: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", &Error{Backend: BackendDisplay, Err: err}
	}

	slog.Debug("screen captured", "path", d.path, "displays", len(displays), "bounds", area.String())

	return d.path, nil
}
