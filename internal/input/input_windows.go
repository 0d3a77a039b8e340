//go:build windows

package input

import (
	"fmt"
	"runtime"

	"vlmcollector/internal/clock"
	"vlmcollector/internal/keyname"
	"vlmcollector/internal/model"
	"vlmcollector/internal/win32"
)

// wheelDelta is WHEEL_DELTA: one notch of a standard mouse wheel.
const wheelDelta = 120

// Config parameterizes the pump worker's foreground filtering.
type Config struct {
	TargetHWND     win32.Handle
	ForegroundOnly bool
}

// Worker is the pumping worker described in spec.md §4.2: it owns the
// hidden message-sink window, decodes raw input, timestamps at decode
// time, and pushes InputEvents onto a Collector.
type Worker struct {
	collector *Collector
	clk       clock.Clock
	cfg       Config
	sink      *win32.MessageSink
}

// NewWorker creates a pump worker. Call Start to register for raw input
// and begin pumping; Stop to request shutdown.
func NewWorker(collector *Collector, clk clock.Clock, cfg Config) *Worker {
	return &Worker{collector: collector, clk: clk, cfg: cfg}
}

// Start launches the pump worker on its own goroutine, locked to its OS
// thread for the lifetime of the session, and returns once that thread
// has created the hidden message-sink window and registered it for raw
// mouse and keyboard input (Win32 message queues are thread-affine, so
// the window and its message loop share the one thread).
func (w *Worker) Start() error {
	errc := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		sink, err := win32.NewMessageSink(w)
		if err != nil {
			w.collector.SetState(StateErrored)
			errc <- fmt.Errorf("input: %w", err)
			return
		}
		w.sink = sink
		w.collector.SetState(StateReady)
		errc <- nil
		w.collector.SetState(StatePumping)
		sink.Run()
		w.collector.SetState(StateJoined)
	}()
	return <-errc
}

// Stop requests the pump worker quit and blocks until its thread joins.
func (w *Worker) Stop() {
	if w.sink == nil {
		return
	}
	w.collector.SetState(StateQuitRequested)
	w.sink.Close()
}

// foregroundOK implements the foreground-only filter (spec.md §4.2a):
// when enabled, events are dropped unless the target window is currently
// the OS foreground window.
func (w *Worker) foregroundOK() bool {
	if !w.cfg.ForegroundOnly {
		return true
	}
	fg, err := win32.GetForegroundWindow()
	if err != nil {
		return false
	}
	return fg == w.cfg.TargetHWND
}

// HandleMouse implements win32.RawInputHandler for RAWMOUSE records:
// relative motion and wheel deltas become MouseMove/MouseWheel events;
// button transitions become MouseButtonEvent pairs.
func (w *Worker) HandleMouse(m *win32.RAWMOUSE) {
	tick := w.clk.Now()
	if !w.foregroundOK() {
		return
	}

	if m.LLastX != 0 || m.LLastY != 0 {
		w.collector.Push(model.InputEvent{Tick: tick, Kind: model.MouseMove, Dx: m.LLastX, Dy: m.LLastY})
	}

	flags := m.UsButtonFlags
	if flags&win32.RIMouseWheel != 0 {
		notches := int32(int16(m.UsButtonData)) / wheelDelta
		if notches != 0 {
			w.collector.Push(model.InputEvent{Tick: tick, Kind: model.MouseWheel, Delta: notches})
		}
	}

	type transition struct {
		downFlag, upFlag uint16
		button           model.MouseButton
	}
	transitions := [5]transition{
		{win32.RIMouseLeftButtonDown, win32.RIMouseLeftButtonUp, model.MouseLeft},
		{win32.RIMouseRightButtonDown, win32.RIMouseRightButtonUp, model.MouseRight},
		{win32.RIMouseMiddleButtonDown, win32.RIMouseMiddleButtonUp, model.MouseMiddle},
		{win32.RIMouseButton4Down, win32.RIMouseButton4Up, model.MouseX1},
		{win32.RIMouseButton5Down, win32.RIMouseButton5Up, model.MouseX2},
	}
	for _, t := range transitions {
		if flags&t.downFlag != 0 {
			w.collector.Push(model.InputEvent{Tick: tick, Kind: model.MouseButtonEvent, Button: t.button, IsDown: true})
		}
		if flags&t.upFlag != 0 {
			w.collector.Push(model.InputEvent{Tick: tick, Kind: model.MouseButtonEvent, Button: t.button, IsDown: false})
		}
	}
}

// HandleKeyboard implements win32.RawInputHandler for RAWKEYBOARD
// records. Unknown virtual-key codes are dropped silently per spec.md
// §4.2's key-name mapping rule.
func (w *Worker) HandleKeyboard(k *win32.RAWKEYBOARD) {
	tick := w.clk.Now()
	if !w.foregroundOK() {
		return
	}
	name, ok := keyname.Lookup(k.VKey)
	if !ok {
		return
	}
	kind := model.KeyDown
	if k.Flags&win32.RIKeyBreak != 0 {
		kind = model.KeyUp
	}
	w.collector.Push(model.InputEvent{Tick: tick, Kind: kind, Key: name})
}
