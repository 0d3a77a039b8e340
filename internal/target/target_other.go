//go:build !windows

package target

import (
	"fmt"

	"github.com/kbinani/screenshot"

	"vlmcollector/internal/geometry"
)

// displayTarget targets one whole display. None of this module's
// non-Windows build targets are a real recording target (there is no
// per-window foreground/cursor/DPI query off Windows) — this exists so
// internal/frame and its tests have a concrete, cross-platform
// RectProvider to exercise, matching the "virtual clock" treatment
// clock.NewVirtual gives the same build tag.
type displayTarget struct {
	index int
}

// NewDisplayTarget wraps the index-th active display, as reported by
// kbinani/screenshot.
func NewDisplayTarget(index int) Window {
	return &displayTarget{index: index}
}

// Rect implements frame.RectProvider with the display's full bounds.
func (t *displayTarget) Rect() (x, y, w, h int, err error) {
	if t.index < 0 || t.index >= screenshot.NumActiveDisplays() {
		return 0, 0, 0, 0, fmt.Errorf("target: display index %d out of range", t.index)
	}
	b := screenshot.GetDisplayBounds(t.index)
	return b.Min.X, b.Min.Y, b.Dx(), b.Dy(), nil
}

// Geometry reports a fixed always-foreground state with no cursor
// sample: there is no foreground-window or per-window DPI concept for a
// whole-display target, so CursorGeometry.Sample's zero-dimension guard
// is relied on to keep the cursor at (0,0) rather than this function
// inventing a position.
func (t *displayTarget) Geometry() (geometry.WindowGeometry, error) {
	return geometry.WindowGeometry{IsForeground: true}, nil
}
