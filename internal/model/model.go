// Package model defines the wire and in-memory data types shared by every
// stage of the recording pipeline: clock ticks, input events, frame and
// action records, and the on-disk options/meta schema.
package model

// Tick is a reading of the OS's high-resolution monotonic performance
// counter. It is strictly non-decreasing within a process and must never
// wrap during a session's lifetime.
type Tick uint64

// StepIndex identifies one record in every sink. It starts at 0 and
// increases by exactly 1 per produced frame/window pair.
type StepIndex uint64

// MouseButton enumerates the physical mouse buttons the collector tracks.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
	MouseX1
	MouseX2
)

// EventKind tags the variant carried by an InputEvent.
type EventKind int

const (
	KeyDown EventKind = iota
	KeyUp
	MouseMove
	MouseWheel
	MouseButtonEvent
)

// InputEvent is a single timestamped OS-level input notification.
// Exactly one of the Key/Dx,Dy/Delta/Button fields is meaningful,
// selected by Kind.
type InputEvent struct {
	Tick   Tick
	Kind   EventKind
	Key    string // KeyDown, KeyUp
	Dx, Dy int32  // MouseMove
	Delta  int32  // MouseWheel
	Button MouseButton
	IsDown bool // MouseButtonEvent
}

// CursorSample is a single foreground-relative cursor observation,
// normalized into record space.
type CursorSample struct {
	Visible bool    `json:"visible"`
	XNorm   float32 `json:"x_norm"`
	YNorm   float32 `json:"y_norm"`
}

// FrameRecord is one captured and letterboxed video frame.
type FrameRecord struct {
	StepIndex StepIndex
	Tick      Tick
	SrcW      int
	SrcH      int
	Width     int
	Height    int
	Pixels    []byte // BGRA8, exactly Width*Height*4 bytes
}

// WindowState reports whether the capture target was the OS foreground
// window at the moment a step's snapshot was taken.
type WindowState struct {
	IsForeground bool `json:"is_foreground"`
}

// MouseButtons is a "went down during this window" mask: a button-up event
// inside the window does not clear its bit (see Aggregator, §4.5).
type MouseButtons struct {
	Left   bool `json:"left"`
	Right  bool `json:"right"`
	Middle bool `json:"middle"`
	X1     bool `json:"x1"`
	X2     bool `json:"x2"`
}

// MouseSnapshot is the per-step mouse summary.
type MouseSnapshot struct {
	Dx      int32        `json:"dx"`
	Dy      int32        `json:"dy"`
	Wheel   int32        `json:"wheel"`
	Buttons MouseButtons `json:"buttons"`
	Cursor  CursorSample `json:"cursor"`
}

// KeyboardSnapshot lists keys in canonical sorted order (§4.6).
type KeyboardSnapshot struct {
	Down     []string `json:"down"`
	Pressed  []string `json:"pressed"`
	Released []string `json:"released"`
}

// ActionSnapshot is the structured per-step record written to
// actions.jsonl.
type ActionSnapshot struct {
	StepIndex StepIndex        `json:"step_index"`
	Tick      Tick             `json:"tick"`
	Window    WindowState      `json:"window"`
	Mouse     MouseSnapshot    `json:"mouse"`
	Keyboard  KeyboardSnapshot `json:"keyboard"`
}

// --- options.json / meta.json schema ---

const SchemaVersion = 1

type CaptureTarget struct {
	Method      string  `json:"method"`
	WindowTitle *string `json:"window_title,omitempty"`
	ProcessName *string `json:"process_name,omitempty"`
}

type CaptureOptions struct {
	API                   string        `json:"api"`
	FPS                   int           `json:"fps"`
	RecordResolution      [2]int        `json:"record_resolution"`
	ResizeMode            string        `json:"resize_mode"`
	ColorFormat           string        `json:"color_format"`
	IncludeCursorInVideo  bool          `json:"include_cursor_in_video"`
	Target                CaptureTarget `json:"target"`
}

type InputOptions struct {
	KeyboardAPI     string `json:"keyboard_api"`
	MouseAPI        string `json:"mouse_api"`
	MouseMode       string `json:"mouse_mode"`
	DpiAwareness    string `json:"dpi_awareness"`
	ForegroundOnly  bool   `json:"foreground_only"`
}

type TimingOptions struct {
	Clock  string `json:"clock"`
	StepMs int64  `json:"step_ms"`
	FPS    int    `json:"fps"`
}

type AutoEventsOptions struct {
	Enabled         bool   `json:"enabled"`
	ROIConfig       string `json:"roi_config"`
	StabilityFrames int    `json:"stability_frames"`
}

type Options struct {
	SchemaVersion int               `json:"schema_version"`
	Capture       CaptureOptions    `json:"capture"`
	Input         InputOptions      `json:"input"`
	Timing        TimingOptions     `json:"timing"`
	AutoEvents    AutoEventsOptions `json:"auto_events"`
}

type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

type Meta struct {
	SessionID       string    `json:"session_id"`
	Game            string    `json:"game"`
	OS              string    `json:"os"`
	CPU             string    `json:"cpu"`
	GPU             string    `json:"gpu"`
	ClockFrequencyHz uint64   `json:"clock_frequency_hz"`
	Build           BuildInfo `json:"build"`
	Notes           string    `json:"notes"`
}

const (
	StepMsDefault        = 200
	CaptureFPSDefault    = 5
	RecordWidthDefault   = 1280
	RecordHeightDefault  = 720
	MaxEventsDefault     = 20_000
	DxDyClamp            = 1000
	WheelClamp           = 5
	SubBinCount          = 6
	MaxKeysPerBin        = 4
	FlushLinesDefault    = 10
	FlushIntervalDefault = 1 // seconds
)

// DefaultOptions returns the schema_version=1 default configuration
// described in spec.md §6 and §4.1's Options::default_v1 analogue.
func DefaultOptions() Options {
	return Options{
		SchemaVersion: SchemaVersion,
		Capture: CaptureOptions{
			API:                  "WindowsGraphicsCapture",
			FPS:                  CaptureFPSDefault,
			RecordResolution:     [2]int{RecordWidthDefault, RecordHeightDefault},
			ResizeMode:           "letterbox",
			ColorFormat:          "BGRA8",
			IncludeCursorInVideo: false,
			Target: CaptureTarget{
				Method: "gui",
			},
		},
		Input: InputOptions{
			KeyboardAPI:    "RawInput",
			MouseAPI:       "RawInput",
			MouseMode:      "relative_plus_pointer_mixed",
			DpiAwareness:   "PerMonitorV2",
			ForegroundOnly: true,
		},
		Timing: TimingOptions{
			Clock:  "QPC",
			StepMs: StepMsDefault,
			FPS:    CaptureFPSDefault,
		},
		AutoEvents: AutoEventsOptions{
			Enabled:         false,
			ROIConfig:       "rois_config_1280x720.json",
			StabilityFrames: 3,
		},
	}
}
