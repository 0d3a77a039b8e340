// Package config implements the layered configuration SPEC_FULL.md §4.8
// describes: model.DefaultOptions() as the base, an optional --config
// YAML file merged over it, and CLI flags merged last so they always
// win. YAML decoding uses gopkg.in/yaml.v3, matching the teacher's
// dependency for structured config.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"vlmcollector/internal/model"
)

// File is the subset of Options a YAML config file may override. Every
// field is a pointer so "absent in the file" is distinguishable from
// "explicitly zero", letting Merge apply only what was actually set.
type File struct {
	Capture *struct {
		FPS                  *int    `yaml:"fps"`
		RecordWidth          *int    `yaml:"record_width"`
		RecordHeight         *int    `yaml:"record_height"`
		IncludeCursorInVideo *bool   `yaml:"include_cursor_in_video"`
		WindowTitle          *string `yaml:"window_title"`
		ProcessName          *string `yaml:"process_name"`
	} `yaml:"capture"`
	Input *struct {
		ForegroundOnly *bool `yaml:"foreground_only"`
	} `yaml:"input"`
	Timing *struct {
		StepMs *int64 `yaml:"step_ms"`
	} `yaml:"timing"`
}

// Load reads and parses a YAML config file. A missing path is not an
// error at this layer; callers pass "" to skip loading entirely.
func Load(path string) (*File, error) {
	if path == "" {
		return &File{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &f, nil
}

// Merge layers f over base (model.DefaultOptions()), returning a new
// Options. Only fields explicitly present in f are applied.
func Merge(base model.Options, f *File) model.Options {
	out := base
	if f == nil {
		return out
	}
	if f.Capture != nil {
		if f.Capture.FPS != nil {
			out.Capture.FPS = *f.Capture.FPS
			out.Timing.FPS = *f.Capture.FPS
		}
		if f.Capture.RecordWidth != nil {
			out.Capture.RecordResolution[0] = *f.Capture.RecordWidth
		}
		if f.Capture.RecordHeight != nil {
			out.Capture.RecordResolution[1] = *f.Capture.RecordHeight
		}
		if f.Capture.IncludeCursorInVideo != nil {
			out.Capture.IncludeCursorInVideo = *f.Capture.IncludeCursorInVideo
		}
		if f.Capture.WindowTitle != nil {
			out.Capture.Target.WindowTitle = f.Capture.WindowTitle
		}
		if f.Capture.ProcessName != nil {
			out.Capture.Target.ProcessName = f.Capture.ProcessName
		}
	}
	if f.Input != nil && f.Input.ForegroundOnly != nil {
		out.Input.ForegroundOnly = *f.Input.ForegroundOnly
	}
	if f.Timing != nil && f.Timing.StepMs != nil {
		out.Timing.StepMs = *f.Timing.StepMs
	}
	return out
}
