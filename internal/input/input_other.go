//go:build !windows

package input

import (
	"vlmcollector/internal/clock"
	"vlmcollector/internal/win32"
)

// Worker stub: raw input pumping is a Windows-only concept. Non-Windows
// builds exist so the rest of the module, and Collector's tests, build
// and run without a display.
type Worker struct{}

// Config mirrors the Windows worker's foreground-filter knobs so callers
// compile identically on both platforms.
type Config struct {
	ForegroundOnly bool
}

func NewWorker(_ *Collector, _ clock.Clock, _ Config) *Worker { return &Worker{} }

func (w *Worker) Start() error {
	return win32.ErrUnsupported
}

func (w *Worker) Stop() {}
