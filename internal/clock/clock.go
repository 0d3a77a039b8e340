// Package clock provides the high-resolution tick source the rest of the
// pipeline paces itself against. On Windows it wraps QueryPerformanceCounter
// via the same lazy-DLL syscall style internal/win32 uses elsewhere in this
// module (no cgo); on other platforms, and in tests, a manually set and
// advanced virtual clock stands in, as spec.md §4.1 permits.
package clock

import "vlmcollector/internal/model"

// Clock exposes a monotonic counter and its frequency. now() and
// frequency() are total and pure except for reading the OS counter.
type Clock interface {
	Now() model.Tick
	Frequency() uint64
}

// StepTicks derives "ticks per step" from a clock's frequency and a
// step duration in milliseconds: max(1, frequency * step_ms / 1000).
func StepTicks(c Clock, stepMs int64) uint64 {
	if stepMs <= 0 {
		stepMs = model.StepMsDefault
	}
	freq := c.Frequency()
	ticks := freq * uint64(stepMs) / 1000
	if ticks < 1 {
		ticks = 1
	}
	return ticks
}

// Virtual is a deterministic, manually-advanced clock: the frame tests
// drive it directly instead of reading the OS counter, and non-Windows
// builds use it as their clock.
type Virtual struct {
	tick model.Tick
	freq uint64
}

// NewVirtual creates a virtual clock with the given frequency (ticks/sec).
// A frequency of 0 is replaced with 1,000,000 (microsecond resolution),
// a convenient default for tests that reason in milliseconds.
func NewVirtual(freq uint64) *Virtual {
	if freq == 0 {
		freq = 1_000_000
	}
	return &Virtual{freq: freq}
}

func (v *Virtual) Now() model.Tick    { return v.tick }
func (v *Virtual) Frequency() uint64  { return v.freq }

// Set pins the clock to an exact tick value.
func (v *Virtual) Set(t model.Tick) { v.tick = t }

// Advance moves the clock forward by delta ticks and returns the new value.
func (v *Virtual) Advance(delta model.Tick) model.Tick {
	v.tick += delta
	return v.tick
}
