//go:build !windows

package main

import (
	"vlmcollector/internal/clock"
	"vlmcollector/internal/input"
	"vlmcollector/internal/target"
)

// newLiveClock falls back to a virtual clock ticking at 1MHz (µs
// resolution): there is no QPC equivalent wired on non-Windows builds,
// and none of this module's other platforms are a real recording
// target (see the doc comment of the display target behind
// target.NewDisplayTarget).
func newLiveClock() clock.Clock {
	return clock.NewVirtual(1_000_000)
}

// newLiveTarget ignores targetHWND (HWNDs do not exist here) and always
// targets the primary display.
func newLiveTarget(_ uint64, _ string) (target.Window, error) {
	return target.NewDisplayTarget(0), nil
}

// newLiveInputWorker returns the stub Worker: Start() reports
// win32.ErrUnsupported, matching the fact that this module's raw-input
// subsystem is Windows-only.
func newLiveInputWorker(c *input.Collector, clk clock.Clock, _ uint64, foregroundOnly bool) *input.Worker {
	return input.NewWorker(c, clk, input.Config{ForegroundOnly: foregroundOnly})
}
