// Package frame implements FrameSource (spec.md §4.3). The teacher's
// capture stack has no Go binding for the Windows Graphics Capture API
// this component was originally specified against, so capture is built
// on github.com/kbinani/screenshot instead (see SPEC_FULL.md §4.3); the
// "frame-arrived callback -> channel signal -> pull owned state"
// inversion from spec.md §9's design notes is preserved by running the
// capture call on its own goroutine and handing finished frames across a
// small buffered channel, rather than blocking NextFrame on the capture
// call directly.
package frame

import (
	"errors"
	"sync"
	"time"

	"vlmcollector/internal/clock"
	"vlmcollector/internal/geometry"
	"vlmcollector/internal/model"
)

// ErrEndOfStream is returned by NextFrame once the source has been
// stopped and all buffered frames drained.
var ErrEndOfStream = errors.New("frame: end of stream")

// RectProvider resolves the capture target's current screen rectangle.
// Implementations re-derive this every poll so a moved or resized window
// is picked up without restarting capture.
type RectProvider interface {
	Rect() (x, y, w, h int, err error)
}

// Capturer grabs one screen region as tightly-packed BGRA8 pixels. The
// production implementation wraps kbinani/screenshot; tests supply a
// fake.
type Capturer interface {
	CaptureBGRA(x, y, w, h int) (pixels []byte, err error)
}

type rawFrame struct {
	pixels []byte
	w, h   int
}

// Source is a fixed-rate, letterboxing FrameSource. It owns a background
// goroutine that polls Capturer at roughly the configured capture
// interval and a consumer-side gate (in NextFrame) that enforces the
// step cadence independently of how fast frames actually arrive.
type Source struct {
	provider RectProvider
	capturer Capturer
	clk      clock.Clock
	recordW  int
	recordH  int
	stepTick model.Tick

	frames chan rawFrame
	stop   chan struct{}
	wg     sync.WaitGroup

	nextCaptureTick model.Tick
	stepIndex       model.StepIndex
	started         bool
}

// New builds a Source. stepTick is Clock-frequency-scaled ticks per step
// (clock.StepTicks), the same cadence the Orchestrator windows input by.
func New(provider RectProvider, capturer Capturer, clk clock.Clock, recordW, recordH int, stepTick model.Tick) *Source {
	return &Source{
		provider: provider,
		capturer: capturer,
		clk:      clk,
		recordW:  recordW,
		recordH:  recordH,
		stepTick: stepTick,
	}
}

// Start launches the background capture poller. pollInterval should be
// at or below the step cadence so NextFrame's gate has fresh frames to
// choose from; spec.md's default fps=5 implies 200ms.
func (s *Source) Start(pollInterval time.Duration) {
	if s.started {
		return
	}
	s.started = true
	s.frames = make(chan rawFrame, 2)
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.pump(pollInterval)
}

// Stop halts the poller and releases its goroutine. Safe to call once.
func (s *Source) Stop() {
	if !s.started {
		return
	}
	close(s.stop)
	s.wg.Wait()
}

func (s *Source) pump(interval time.Duration) {
	defer s.wg.Done()
	defer close(s.frames)
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			x, y, w, h, err := s.provider.Rect()
			if err != nil || w <= 0 || h <= 0 {
				continue // transient miss; loop, per spec.md §4.3 failure semantics
			}
			pixels, err := s.capturer.CaptureBGRA(x, y, w, h)
			if err != nil {
				continue
			}
			select {
			case s.frames <- rawFrame{pixels: pixels, w: w, h: h}:
			case <-s.stop:
				return
			}
		}
	}
}

// NextFrame blocks for the next gated, letterboxed frame. It returns
// ErrEndOfStream once Stop has drained the channel closed.
func (s *Source) NextFrame() (model.FrameRecord, error) {
	for {
		raw, ok := <-s.frames
		if !ok {
			return model.FrameRecord{}, ErrEndOfStream
		}

		now := s.clk.Now()
		if s.nextCaptureTick == 0 {
			s.nextCaptureTick = now
		}
		if now < s.nextCaptureTick {
			continue // earlier than the gate; skip without advancing step_index
		}
		// Catch up in step_tick increments rather than bursting duplicate
		// frames for every missed tick.
		for s.nextCaptureTick+s.stepTick <= now {
			s.nextCaptureTick += s.stepTick
		}
		s.nextCaptureTick += s.stepTick

		dst := make([]byte, s.recordW*s.recordH*4)
		geometry.LetterboxBGRA(raw.pixels, raw.w, raw.h, dst, s.recordW, s.recordH)

		idx := s.stepIndex
		s.stepIndex++
		return model.FrameRecord{
			StepIndex: idx,
			Tick:      now,
			SrcW:      raw.w,
			SrcH:      raw.h,
			Width:     s.recordW,
			Height:    s.recordH,
			Pixels:    dst,
		}, nil
	}
}
