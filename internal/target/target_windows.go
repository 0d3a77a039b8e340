//go:build windows

package target

import (
	"fmt"

	"vlmcollector/internal/geometry"
	"vlmcollector/internal/win32"
)

// windowTarget targets one real HWND: spec.md's Non-goals fix the
// session to a single window for its whole lifetime, resolved once at
// startup via --target-hwnd.
type windowTarget struct {
	hwnd win32.Handle
}

// NewWindowTarget wraps an already-resolved window handle.
func NewWindowTarget(hwnd win32.Handle) Window {
	return &windowTarget{hwnd: hwnd}
}

// Rect implements frame.RectProvider: the window's current screen
// bounds, re-queried on every call so a move/resize is picked up without
// restarting capture (spec.md §4.3 step (i)).
func (t *windowTarget) Rect() (x, y, w, h int, err error) {
	r, err := win32.GetWindowRect(t.hwnd)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("target: window rect: %w", err)
	}
	return int(r.Left), int(r.Top), int(r.Width()), int(r.Height()), nil
}

// Geometry implements orchestrator.TargetWindow by gathering the raw
// Win32 state CursorGeometry.Sample (spec.md §4.4) transforms: foreground
// status, cursor visibility and screen position, the target's client
// rect, and its DPI.
func (t *windowTarget) Geometry() (geometry.WindowGeometry, error) {
	var g geometry.WindowGeometry

	fg, err := win32.GetForegroundWindow()
	g.IsForeground = err == nil && fg == t.hwnd

	visible, err := win32.IsCursorVisible()
	if err != nil {
		return geometry.WindowGeometry{}, fmt.Errorf("target: cursor visibility: %w", err)
	}
	g.CursorVisible = visible

	sx, sy, err := win32.GetCursorPos()
	if err != nil {
		return geometry.WindowGeometry{}, fmt.Errorf("target: cursor pos: %w", err)
	}
	g.CursorScreenX, g.CursorScreenY = sx, sy

	client, err := win32.GetClientRect(t.hwnd)
	if err != nil {
		return geometry.WindowGeometry{}, fmt.Errorf("target: client rect: %w", err)
	}
	g.ClientW, g.ClientH = client.Width(), client.Height()

	// spec.md §4.4 step 3: "if the client rect is empty, report (0,0)
	// and proceed" — ClientX/Y stay zero and Sample's own zero-dimension
	// guard handles the rest.
	if g.ClientW > 0 && g.ClientH > 0 {
		cx, cy, err := win32.ScreenToClient(t.hwnd, sx, sy)
		if err != nil {
			return geometry.WindowGeometry{}, fmt.Errorf("target: screen to client: %w", err)
		}
		g.ClientX, g.ClientY = cx, cy
	}

	dpi, err := win32.GetDPIForWindow(t.hwnd)
	if err != nil {
		dpi = 96
	}
	g.DPI = dpi

	return g, nil
}
