package orchestrator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vlmcollector/internal/frame"
	"vlmcollector/internal/geometry"
	"vlmcollector/internal/model"
)

type fakeFrames struct {
	frames []model.FrameRecord
	idx    int
}

func (f *fakeFrames) NextFrame() (model.FrameRecord, error) {
	if f.idx >= len(f.frames) {
		return model.FrameRecord{}, frame.ErrEndOfStream
	}
	fr := f.frames[f.idx]
	f.idx++
	return fr, nil
}

type fakeInput struct {
	events  []model.InputEvent
	dropped uint64
}

func (f *fakeInput) DrainEvents(start, end model.Tick) []model.InputEvent {
	var out []model.InputEvent
	for _, e := range f.events {
		if e.Tick >= start && e.Tick < end {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeInput) Dropped() uint64 { return f.dropped }

type fakeTarget struct {
	geom geometry.WindowGeometry
	err  error
}

func (f fakeTarget) Geometry() (geometry.WindowGeometry, error) { return f.geom, f.err }

type fakeWriter struct {
	windows    int
	frames     int
	thoughts   []string
	finalized  bool
	finalErr   error
	writeErr   error
}

func (w *fakeWriter) WriteWindow(snapshot model.ActionSnapshot, compiled string) error {
	if w.writeErr != nil {
		return w.writeErr
	}
	w.windows++
	return nil
}

func (w *fakeWriter) WriteFrame(pixels []byte) error {
	w.frames++
	return nil
}

func (w *fakeWriter) WriteThought(line string) error {
	w.thoughts = append(w.thoughts, line)
	return nil
}

func (w *fakeWriter) Finalize() (string, error) {
	w.finalized = true
	return "/tmp/final", w.finalErr
}

func TestOrchestratorRunsUntilEndOfStream(t *testing.T) {
	frames := &fakeFrames{frames: []model.FrameRecord{
		{StepIndex: 0, Tick: 200},
		{StepIndex: 1, Tick: 400},
	}}
	in := &fakeInput{}
	target := fakeTarget{geom: geometry.WindowGeometry{IsForeground: true, ClientW: 100, ClientH: 100, DPI: 96}}
	w := &fakeWriter{}

	o := New(Config{SessionName: "s", StepTicks: 200}, frames, in, target, w, nil, nil, nil, nil)
	path, err := o.Run()

	require.NoError(t, err)
	assert.Equal(t, "/tmp/final", path)
	assert.Equal(t, 2, w.windows)
	assert.Equal(t, 2, w.frames)
	assert.Len(t, w.thoughts, 2)
	assert.True(t, w.finalized)
}

func TestOrchestratorDefaultThoughtPlaceholder(t *testing.T) {
	frames := &fakeFrames{frames: []model.FrameRecord{{StepIndex: 0, Tick: 200}}}
	in := &fakeInput{}
	target := fakeTarget{geom: geometry.WindowGeometry{IsForeground: true, ClientW: 100, ClientH: 100, DPI: 96}}
	w := &fakeWriter{}

	o := New(Config{SessionName: "s", StepTicks: 200}, frames, in, target, w, nil, nil, nil, nil)
	_, err := o.Run()
	require.NoError(t, err)
	require.Len(t, w.thoughts, 1)
	assert.Equal(t, "<|labeling_instruct_start|>Labeling Instruct <|labeling_instruct_end|>", w.thoughts[0])
}

func TestOrchestratorUsesThoughtProvider(t *testing.T) {
	frames := &fakeFrames{frames: []model.FrameRecord{{StepIndex: 0, Tick: 200}}}
	in := &fakeInput{}
	target := fakeTarget{geom: geometry.WindowGeometry{IsForeground: true, ClientW: 100, ClientH: 100, DPI: 96}}
	w := &fakeWriter{}
	tp := NewThoughtProvider()
	tp.Set("pick up the key")

	o := New(Config{SessionName: "s", StepTicks: 200}, frames, in, target, w, nil, tp, nil, nil)
	_, err := o.Run()
	require.NoError(t, err)
	assert.Equal(t, "<|labeling_instruct_start|>pick up the key <|labeling_instruct_end|>", w.thoughts[0])
}

func TestOrchestratorStopsOnMaxSteps(t *testing.T) {
	frames := &fakeFrames{frames: []model.FrameRecord{
		{StepIndex: 0, Tick: 200},
		{StepIndex: 1, Tick: 400},
		{StepIndex: 2, Tick: 600},
	}}
	in := &fakeInput{}
	target := fakeTarget{geom: geometry.WindowGeometry{IsForeground: true, ClientW: 100, ClientH: 100, DPI: 96}}
	w := &fakeWriter{}

	o := New(Config{SessionName: "s", StepTicks: 200, MaxSteps: 2}, frames, in, target, w, nil, nil, nil, nil)
	_, err := o.Run()
	require.NoError(t, err)
	assert.Equal(t, 2, w.windows)
}

func TestOrchestratorStopRequestedBeforeNextFrame(t *testing.T) {
	frames := &fakeFrames{frames: []model.FrameRecord{
		{StepIndex: 0, Tick: 200},
		{StepIndex: 1, Tick: 400},
	}}
	in := &fakeInput{}
	target := fakeTarget{geom: geometry.WindowGeometry{IsForeground: true, ClientW: 100, ClientH: 100, DPI: 96}}
	w := &fakeWriter{}

	o := New(Config{SessionName: "s", StepTicks: 200}, frames, in, target, w, nil, nil, nil, nil)
	o.Stop()
	path, err := o.Run()
	require.NoError(t, err)
	assert.Equal(t, 0, w.windows)
	assert.Equal(t, "/tmp/final", path)
}

func TestOrchestratorFatalWriteErrorStillFinalizes(t *testing.T) {
	frames := &fakeFrames{frames: []model.FrameRecord{{StepIndex: 0, Tick: 200}}}
	in := &fakeInput{}
	target := fakeTarget{geom: geometry.WindowGeometry{IsForeground: true, ClientW: 100, ClientH: 100, DPI: 96}}
	w := &fakeWriter{writeErr: errors.New("disk full")}

	o := New(Config{SessionName: "s", StepTicks: 200}, frames, in, target, w, nil, nil, nil, nil)
	_, err := o.Run()
	assert.Error(t, err)
	assert.True(t, w.finalized, "finalize must still run on a fatal write error, per spec.md §5")
}
