//go:build windows

package main

import (
	"fmt"

	"vlmcollector/internal/clock"
	"vlmcollector/internal/input"
	"vlmcollector/internal/target"
	"vlmcollector/internal/win32"
)

// newLiveClock returns the QPC-backed Clock (spec.md §4.1's default).
func newLiveClock() clock.Clock {
	return clock.NewQPC()
}

// newLiveTarget resolves the capture target from --target-hwnd. A
// window title resolver is not wired yet (see target.ResolveByTitle),
// so a missing or zero handle is a hard configuration error on Windows
// rather than a silent fallback to the whole display.
func newLiveTarget(targetHWND uint64, _ string) (target.Window, error) {
	if targetHWND == 0 {
		return nil, fmt.Errorf("collector: --target-hwnd is required on Windows (window-title resolution is not implemented)")
	}
	return target.NewWindowTarget(win32.Handle(targetHWND)), nil
}

// newLiveInputWorker builds the raw-input pump worker bound to the
// target window resolved above.
func newLiveInputWorker(c *input.Collector, clk clock.Clock, targetHWND uint64, foregroundOnly bool) *input.Worker {
	cfg := input.Config{
		TargetHWND:     win32.Handle(targetHWND),
		ForegroundOnly: foregroundOnly,
	}
	return input.NewWorker(c, clk, cfg)
}
