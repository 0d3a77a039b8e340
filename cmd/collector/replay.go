package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"vlmcollector/internal/frame"
	"vlmcollector/internal/geometry"
	"vlmcollector/internal/input"
	"vlmcollector/internal/model"
)

// replayFrameSource feeds a single raw BGRA8 frame (read once from
// --frame-raw) back for every step, without waiting: each call advances
// the frame tick by exactly one step. It exists for the --frame-raw/--events-jsonl/
// --thoughts-jsonl CLI surface (spec.md §6): an external collaborator
// driving the pipeline without a live OS capture session, e.g. for demos
// and cross-platform testing of the Orchestrator wiring.
type replayFrameSource struct {
	pixels    []byte
	srcW, srcH int
	recordW, recordH int
	stepIndex model.StepIndex
	steps     int64
	maxSteps  int64
	tick      model.Tick
	stepTick  model.Tick
}

func newReplayFrameSource(path string, srcW, srcH, recordW, recordH int, maxSteps int64, stepTick model.Tick) (*replayFrameSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("replay: read frame-raw: %w", err)
	}
	want := srcW * srcH * 4
	if len(raw) != want {
		return nil, fmt.Errorf("replay: frame-raw size mismatch: got %d want %d", len(raw), want)
	}
	dst := make([]byte, recordW*recordH*4)
	geometry.LetterboxBGRA(raw, srcW, srcH, dst, recordW, recordH)
	return &replayFrameSource{
		pixels: dst, srcW: srcW, srcH: srcH, recordW: recordW, recordH: recordH,
		maxSteps: maxSteps, stepTick: stepTick,
	}, nil
}

func (r *replayFrameSource) NextFrame() (model.FrameRecord, error) {
	if r.maxSteps > 0 && r.steps >= r.maxSteps {
		return model.FrameRecord{}, frame.ErrEndOfStream
	}
	r.tick += r.stepTick
	r.steps++
	idx := r.stepIndex
	r.stepIndex++
	return model.FrameRecord{
		StepIndex: idx, Tick: r.tick,
		SrcW: r.srcW, SrcH: r.srcH, Width: r.recordW, Height: r.recordH,
		Pixels: r.pixels,
	}, nil
}

// replayEventsCollector preloads events from a JSONL file (one
// model.InputEvent per line) into an input.Collector so the Orchestrator
// can drain them exactly as it would from a live pumping worker.
func replayEventsCollector(path string, maxEvents int) (*input.Collector, error) {
	c := input.NewCollector(maxEvents)
	if path == "" {
		return c, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: open events-jsonl: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e model.InputEvent
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("replay: parse event line: %w", err)
		}
		c.Push(e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("replay: scan events-jsonl: %w", err)
	}
	return c, nil
}

// replayThoughts reads one thought line per step from a file, falling
// back to the placeholder once exhausted.
type replayThoughts struct {
	lines []string
	idx   int
}

func loadReplayThoughts(path string) (*replayThoughts, error) {
	if path == "" {
		return &replayThoughts{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("replay: read thoughts-jsonl: %w", err)
	}
	rt := &replayThoughts{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		rt.lines = append(rt.lines, scanner.Text())
	}
	return rt, nil
}

func (rt *replayThoughts) Current() string {
	if rt.idx >= len(rt.lines) {
		return ""
	}
	line := rt.lines[rt.idx]
	rt.idx++
	return line
}
