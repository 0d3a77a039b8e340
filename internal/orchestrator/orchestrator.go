// Package orchestrator implements the step loop (spec.md §4.7): pull a
// frame, window the input deque against it, sample cursor geometry, fold
// both into a step record, and write every sink — looping until stopped
// or a source reaches end of stream.
package orchestrator

import (
	"errors"
	"log"
	"sync/atomic"
	"time"

	"vlmcollector/internal/aggregate"
	"vlmcollector/internal/clock"
	"vlmcollector/internal/frame"
	"vlmcollector/internal/geometry"
	"vlmcollector/internal/model"
	"vlmcollector/internal/registry"
	"vlmcollector/internal/telemetry"
)

// FrameSource is the subset of internal/frame.Source the Orchestrator
// needs, narrowed to an interface so tests can drive it with a fake.
type FrameSource interface {
	NextFrame() (model.FrameRecord, error)
}

// InputCollector is the subset of internal/input.Collector the
// Orchestrator needs.
type InputCollector interface {
	DrainEvents(start, end model.Tick) []model.InputEvent
	Dropped() uint64
}

// TargetWindow resolves cursor/foreground geometry for the capture
// target, matching internal/target.Window (adapted into
// geometry.WindowGeometry by the caller).
type TargetWindow interface {
	Geometry() (geometry.WindowGeometry, error)
}

// Writer is the subset of internal/writer.SessionWriter the Orchestrator
// drives per step.
type Writer interface {
	WriteWindow(snapshot model.ActionSnapshot, compiled string) error
	WriteFrame(pixels []byte) error
	WriteThought(line string) error
	Finalize() (string, error)
}

// Config parameterizes one run of the loop.
type Config struct {
	SessionName   string
	StepTicks     model.Tick
	MaxSteps      int64 // 0 means unbounded (run until EndOfStream/stop)
	StatsInterval time.Duration
	DebugCursor   bool
}

// Orchestrator owns the AggregatorState and drives one session's loop.
type Orchestrator struct {
	cfg      Config
	frames   FrameSource
	input    InputCollector
	target   TargetWindow
	writer   Writer
	clk      clock.Clock
	thoughts *ThoughtProvider
	registry *registry.Registry
	telem    *telemetry.Publisher

	state        *aggregate.State
	stopRequested atomic.Bool
	stepsWritten  atomic.Uint64
}

// New builds an Orchestrator. registry and telemetry are both optional
// (nil disables them); neither failure is fatal to the loop.
func New(cfg Config, frames FrameSource, input InputCollector, target TargetWindow, w Writer, clk clock.Clock, thoughts *ThoughtProvider, reg *registry.Registry, telem *telemetry.Publisher) *Orchestrator {
	return &Orchestrator{
		cfg: cfg, frames: frames, input: input, target: target, writer: w,
		clk: clk, thoughts: thoughts, registry: reg, telem: telem,
		state: aggregate.NewState(),
	}
}

// Stop requests the loop exit before its next frame pull. finalize
// still runs afterward (spec.md §5).
func (o *Orchestrator) Stop() {
	o.stopRequested.Store(true)
}

// Run executes spec.md §4.7's loop until stopped, EndOfStream, MaxSteps
// is reached, or a fatal write/encoder error occurs. It always calls
// writer.Finalize() before returning, per §5's "finalize must still run
// to rename the session directory."
func (o *Orchestrator) Run() (string, error) {
	statsDone := make(chan struct{})
	if o.cfg.StatsInterval > 0 {
		go o.statsLoop(statsDone)
		defer close(statsDone)
	}

	var loopErr error
loop:
	for {
		if o.stopRequested.Load() {
			break
		}
		if o.cfg.MaxSteps > 0 && int64(o.stepsWritten.Load()) >= o.cfg.MaxSteps {
			break
		}

		fr, err := o.frames.NextFrame()
		if err != nil {
			if !errors.Is(err, frame.ErrEndOfStream) {
				loopErr = err
			}
			break loop
		}

		windowEnd := fr.Tick
		windowStart := windowEnd - o.cfg.StepTicks
		events := o.input.DrainEvents(windowStart, windowEnd)

		geom, err := o.target.Geometry()
		var cursor model.CursorSample
		var isForeground bool
		if err == nil {
			isForeground, cursor, _ = geometry.Sample(geom, fr.SrcW, fr.SrcH, fr.Width, fr.Height)
		}

		out := aggregate.Run(events, windowStart, windowEnd, fr.StepIndex, isForeground, cursor, o.state)

		if o.cfg.DebugCursor {
			log.Printf("orchestrator: step=%d foreground=%v cursor_visible=%v cursor=(%.3f,%.3f)",
				fr.StepIndex, isForeground, cursor.Visible, cursor.XNorm, cursor.YNorm)
		}

		if err := o.writer.WriteWindow(out.Snapshot, out.Compiled); err != nil {
			loopErr = err
			break
		}
		if err := o.writer.WriteFrame(fr.Pixels); err != nil {
			loopErr = err
			break
		}
		thought := formatThought(o.currentThought())
		if err := o.writer.WriteThought(thought); err != nil {
			loopErr = err
			break
		}

		o.stepsWritten.Add(1)

		if o.telem != nil {
			if err := o.telem.PublishStep(o.cfg.SessionName, uint64(fr.StepIndex), uint64(fr.Tick), o.input.Dropped()); err != nil {
				log.Printf("orchestrator: telemetry publish failed: %v", err)
			}
		}
	}

	finalPath, finalizeErr := o.writer.Finalize()

	if o.registry != nil {
		status := "finalized"
		if loopErr != nil || finalizeErr != nil {
			status = "failed"
		}
		if err := o.registry.FinishSession(o.cfg.SessionName, status, time.Now()); err != nil {
			log.Printf("orchestrator: registry update failed: %v", err)
		}
	}

	if loopErr != nil {
		return "", loopErr
	}
	if finalizeErr != nil {
		return "", finalizeErr
	}
	return finalPath, nil
}

func (o *Orchestrator) currentThought() string {
	if o.thoughts == nil {
		return ""
	}
	return o.thoughts.Current()
}

func (o *Orchestrator) statsLoop(done <-chan struct{}) {
	ticker := time.NewTicker(o.cfg.StatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			dropped := o.input.Dropped()
			steps := o.stepsWritten.Load()
			log.Printf("orchestrator: session=%s steps=%d dropped_events=%d", o.cfg.SessionName, steps, dropped)
			if o.registry != nil {
				if err := o.registry.UpdateProgress(o.cfg.SessionName, steps, dropped); err != nil {
					log.Printf("orchestrator: registry progress update failed: %v", err)
				}
			}
		}
	}
}
