// vlmcollector is the recording daemon (spec.md §6): it captures the
// target window's video, raw mouse/keyboard input, and an externally
// supplied "thought" stream into one dataset session directory.
// Implements graceful shutdown with SIGTERM/SIGINT handling.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"vlmcollector/internal/clock"
	"vlmcollector/internal/config"
	"vlmcollector/internal/frame"
	"vlmcollector/internal/input"
	"vlmcollector/internal/model"
	"vlmcollector/internal/orchestrator"
	"vlmcollector/internal/registry"
	"vlmcollector/internal/telemetry"
	"vlmcollector/internal/writer"
)

// Version identifies this build; surfaced in meta.json's build block.
const Version = "1.0.0"

// Config holds the resolved CLI/file/default configuration for one run.
type Config struct {
	DatasetRoot  string
	SessionName  string
	EncoderPath  string
	MaxSteps     int64
	TargetHWND   uint64
	WindowTitle  string
	ConfigPath   string
	RedisAddr    string
	RegistryDB   string
	DebugCursor  bool
	Status       bool
	FrameRawPath string
	FrameSrcW    int
	FrameSrcH    int
	EventsJSONL  string
	ThoughtsJSONL string
	StatsInterval time.Duration
}

func main() {
	log.Printf("vlmcollector v%s starting (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)

	cfg := parseFlags()

	if cfg.Status {
		if err := runStatus(cfg); err != nil {
			log.Fatalf("status: %v", err)
		}
		return
	}

	path, err := run(cfg)
	if err != nil {
		log.Fatalf("collector: %v", err)
	}
	fmt.Println(path)
}

// parseFlags defines the CLI surface spec.md §6 and its SPEC_FULL.md
// extensions add.
func parseFlags() Config {
	datasetRoot := flag.String("dataset-root", "./dataset", "root directory sessions are written under")
	sessionName := flag.String("session-name", "", "session directory name (default: generated uuid)")
	encoderPath := flag.String("encoder", "ffmpeg", "path to the ffmpeg binary used to encode video.mp4")
	steps := flag.Int64("steps", 0, "stop after this many steps (0 = unbounded, run until stopped)")
	targetHWND := flag.String("target-hwnd", "", "capture target window handle, hex (0x...) or decimal; required on Windows")
	windowTitle := flag.String("window-title", "", "capture target window title, recorded in options.json; not used to select the window (Windows uses --target-hwnd, other builds capture the primary display)")
	configPath := flag.String("config", "", "optional YAML file overriding model.DefaultOptions()")
	redisAddr := flag.String("redis-addr", "", "optional Redis address for the collector:steps telemetry stream")
	registryDB := flag.String("registry-db", "./dataset/registry.db", "path to the local session registry SQLite database")
	debugCursor := flag.Bool("debug-cursor", false, "log each step's foreground flag, cursor visibility and normalized cursor position for geometry debugging")
	status := flag.Bool("status", false, "list known sessions from the registry and exit")
	frameRaw := flag.String("frame-raw", "", "replay mode: path to a single raw BGRA8 frame repeated every step, instead of live capture")
	frameSrcW := flag.Int("frame-src-w", 1920, "replay mode: width of the --frame-raw buffer")
	frameSrcH := flag.Int("frame-src-h", 1080, "replay mode: height of the --frame-raw buffer")
	eventsJSONL := flag.String("events-jsonl", "", "replay mode: preload input events (one model.InputEvent per line) instead of live raw input")
	thoughtsJSONL := flag.String("thoughts-jsonl", "", "replay mode: read one thought line per step instead of a live ThoughtProvider")
	statsInterval := flag.Duration("stats-interval", 10*time.Second, "interval between registry progress updates and stats log lines")

	flag.Parse()

	hwnd, err := parseHWND(*targetHWND)
	if err != nil {
		log.Fatalf("collector: --target-hwnd: %v", err)
	}

	name := *sessionName
	if name == "" {
		name = uuid.NewString()
	}

	return Config{
		DatasetRoot: *datasetRoot, SessionName: name, EncoderPath: *encoderPath,
		MaxSteps: *steps, TargetHWND: hwnd, WindowTitle: *windowTitle,
		ConfigPath: *configPath, RedisAddr: *redisAddr, RegistryDB: *registryDB,
		DebugCursor: *debugCursor, Status: *status,
		FrameRawPath: *frameRaw, FrameSrcW: *frameSrcW, FrameSrcH: *frameSrcH,
		EventsJSONL: *eventsJSONL, ThoughtsJSONL: *thoughtsJSONL,
		StatsInterval: *statsInterval,
	}
}

func parseHWND(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	base := 10
	if len(s) > 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		s = s[2:]
		base = 16
	}
	return strconv.ParseUint(s, base, 64)
}

// runStatus opens the registry read-only (from main's perspective; the
// registry itself always opens read-write) and prints every known
// session.
func runStatus(cfg Config) error {
	reg, err := registry.Open(cfg.RegistryDB)
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	defer reg.Close()

	sessions, err := reg.List()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("no sessions recorded")
		return nil
	}
	for _, s := range sessions {
		finished := "-"
		if s.FinishedAt.Valid {
			finished = s.FinishedAt.String
		}
		fmt.Printf("%-36s %-10s steps=%-8d dropped=%-6s started=%s finished=%s\n",
			s.Name, s.Status, s.StepsWritten, humanize.Comma(int64(s.DroppedEvents)), s.StartedAt, finished)
	}
	return nil
}

// run wires and drives one recording session, returning the finalized
// session directory path on success.
func run(cfg Config) (string, error) {
	opts := model.DefaultOptions()
	file, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	opts = config.Merge(opts, file)
	if cfg.WindowTitle != "" {
		opts.Capture.Target.WindowTitle = &cfg.WindowTitle
	}

	clk := newLiveClock()
	stepTicks := model.Tick(clock.StepTicks(clk, opts.Timing.StepMs))

	recordW, recordH := opts.Capture.RecordResolution[0], opts.Capture.RecordResolution[1]

	tgt, err := newLiveTarget(cfg.TargetHWND, cfg.WindowTitle)
	if err != nil {
		return "", fmt.Errorf("resolve target: %w", err)
	}

	collector := input.NewCollector(model.MaxEventsDefault)
	var inputWorker *input.Worker
	var frameSrc orchestrator.FrameSource

	if cfg.FrameRawPath != "" || cfg.EventsJSONL != "" {
		log.Printf("collector: replay mode (frame-raw=%q events-jsonl=%q)", cfg.FrameRawPath, cfg.EventsJSONL)
		if cfg.FrameRawPath == "" {
			return "", fmt.Errorf("replay mode requires --frame-raw")
		}
		rfs, err := newReplayFrameSource(cfg.FrameRawPath, cfg.FrameSrcW, cfg.FrameSrcH, recordW, recordH, cfg.MaxSteps, stepTicks)
		if err != nil {
			return "", err
		}
		frameSrc = rfs
		collector, err = replayEventsCollector(cfg.EventsJSONL, model.MaxEventsDefault)
		if err != nil {
			return "", err
		}
	} else {
		source := frame.New(tgt, frame.ScreenCapturer{}, clk, recordW, recordH, stepTicks)
		pollInterval := time.Duration(1000/max(1, opts.Capture.FPS)) * time.Millisecond
		source.Start(pollInterval)
		defer source.Stop()
		frameSrc = source

		inputWorker = newLiveInputWorker(collector, clk, cfg.TargetHWND, opts.Input.ForegroundOnly)
		if err := inputWorker.Start(); err != nil {
			return "", fmt.Errorf("start input worker: %w", err)
		}
		defer inputWorker.Stop()
	}

	thoughts := orchestrator.NewThoughtProvider()
	var replayTh *replayThoughts
	if cfg.ThoughtsJSONL != "" {
		replayTh, err = loadReplayThoughts(cfg.ThoughtsJSONL)
		if err != nil {
			return "", err
		}
	}

	sw, err := writer.Create(writer.Config{
		DatasetRoot: cfg.DatasetRoot, Name: cfg.SessionName, EncoderPath: cfg.EncoderPath,
		FlushLines: model.FlushLinesDefault, FlushInterval: model.FlushIntervalDefault * time.Second,
		Width: recordW, Height: recordH, FPS: opts.Capture.FPS,
		CRF: 23, GOP: opts.Capture.FPS * 2, EncoderGrace: 5 * time.Second,
	})
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	if err := sw.WriteOptions(opts); err != nil {
		return "", fmt.Errorf("write options.json: %w", err)
	}
	meta := model.Meta{
		SessionID:        cfg.SessionName,
		OS:               runtime.GOOS,
		ClockFrequencyHz: clk.Frequency(),
		Build:            model.BuildInfo{Version: Version},
	}
	if err := sw.WriteMeta(meta); err != nil {
		return "", fmt.Errorf("write meta.json: %w", err)
	}

	var reg *registry.Registry
	if cfg.RegistryDB != "" {
		reg, err = registry.Open(cfg.RegistryDB)
		if err != nil {
			log.Printf("collector: registry unavailable, continuing without it: %v", err)
			reg = nil
		} else {
			defer reg.Close()
			if err := reg.StartSession(cfg.SessionName, cfg.DatasetRoot, time.Now()); err != nil {
				log.Printf("collector: registry start-session failed: %v", err)
			}
		}
	}

	var telem *telemetry.Publisher
	if cfg.RedisAddr != "" {
		telem, err = telemetry.Connect(cfg.RedisAddr, "", 0)
		if err != nil {
			log.Printf("collector: telemetry unavailable, continuing without it: %v", err)
			telem = nil
		} else {
			defer telem.Close()
		}
	}

	orchCfg := orchestrator.Config{
		SessionName: cfg.SessionName, StepTicks: stepTicks, MaxSteps: cfg.MaxSteps,
		StatsInterval: cfg.StatsInterval, DebugCursor: cfg.DebugCursor,
	}
	orch := orchestrator.New(orchCfg, frameSrc, collector, tgt, sw, clk, thoughts, reg, telem)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	if replayTh != nil {
		go pollReplayThoughts(ctx, thoughts, replayTh, time.Duration(opts.Timing.StepMs)*time.Millisecond)
	}

	runDone := make(chan runResult, 1)
	go func() {
		path, err := orch.Run()
		runDone <- runResult{path: path, err: err}
	}()

	interactive := isatty.IsTerminal(os.Stdout.Fd())
	if interactive {
		log.Println("collector: recording started, press Ctrl+C to stop gracefully")
	}

	select {
	case sig := <-stop:
		log.Printf("collector: received signal %v, stopping gracefully", sig)
		orch.Stop()
		cancel()
	case res := <-runDone:
		return res.path, res.err
	}

	select {
	case res := <-runDone:
		return res.path, res.err
	case <-time.After(30 * time.Second):
		return "", fmt.Errorf("shutdown timeout exceeded")
	}
}

type runResult struct {
	path string
	err  error
}

// pollReplayThoughts feeds the ThoughtProvider from a preloaded file at
// roughly the step cadence, since the Orchestrator always reads
// whatever is current rather than pulling from the file itself.
func pollReplayThoughts(ctx context.Context, tp *orchestrator.ThoughtProvider, rt *replayThoughts, interval time.Duration) {
	if interval <= 0 {
		interval = model.StepMsDefault * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tp.Set(rt.Current())
		}
	}
}

