// Package target resolves the single capture target spec.md §1 fixes
// for the whole process lifetime: the window (or, off Windows, display)
// FrameSource captures from and CursorGeometry samples against. It is
// the "external collaborator" spec.md §3's SessionLayout and §4.4 assume
// already exists, adapted here into a concrete Window so cmd/collector
// can hand one value to both internal/frame and internal/orchestrator.
package target

import (
	"errors"

	"vlmcollector/internal/geometry"
)

// Window is the capture target: a screen rectangle for FrameSource
// (frame.RectProvider) plus the foreground/cursor/DPI state
// CursorGeometry needs (orchestrator.TargetWindow). Re-deriving the rect
// on every call, rather than caching it at construction, is what lets a
// moved or resized window be picked up without restarting capture
// (spec.md §4.3 step (i)).
type Window interface {
	Rect() (x, y, w, h int, err error)
	Geometry() (geometry.WindowGeometry, error)
}

// ErrTitleResolutionUnsupported is returned by ResolveByTitle: matching
// a window by title requires enumerating top-level windows
// (EnumWindows), which nothing in the retrieval pack grounds convincingly
// enough to fabricate (see DESIGN.md's Open Question decision). The
// supported path is --target-hwnd.
var ErrTitleResolutionUnsupported = errors.New("target: window-title resolution is not implemented, use --target-hwnd")

// ResolveByTitle would look up a window by its title substring. Left
// unimplemented on every platform; callers should fall back to an
// explicit handle or a single-display target instead.
func ResolveByTitle(title string) (Window, error) {
	return nil, ErrTitleResolutionUnsupported
}
