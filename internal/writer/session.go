package writer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vlmcollector/internal/model"
)

// ErrAlreadyExists is returned by Create when either the final or temp
// session directory already exists (spec.md §7's AlreadyExists kind).
var ErrAlreadyExists = fmt.Errorf("writer: session already exists")

// Config parameterizes Create: where sessions live, the session's name,
// the flush policy shared by every jsonl log, and the encoder's wiring.
type Config struct {
	DatasetRoot   string
	Name          string
	EncoderPath   string
	FlushLines    int
	FlushInterval time.Duration
	Width         int
	Height        int
	FPS           int
	CRF           int
	GOP           int
	EncoderGrace  time.Duration
}

// SessionWriter owns the four jsonl logs and the video encoder for one
// session, and performs the single filesystem commit point: renaming
// <name>.tmp/ to <name>/ once every sink has closed cleanly.
type SessionWriter struct {
	cfg       Config
	tmpDir    string
	finalDir  string
	actions   *jsonlLog
	compiled  *jsonlLog
	thoughts  *jsonlLog
	autoEvts  *jsonlLog
	enc       *encoder
	frameSize int
}

// Create implements spec.md §4.6's create(): it fails if either sibling
// directory already exists, otherwise stages every sink under
// <name>.tmp/.
func Create(cfg Config) (*SessionWriter, error) {
	sessionsDir := filepath.Join(cfg.DatasetRoot, "sessions")
	finalDir := filepath.Join(sessionsDir, cfg.Name)
	tmpDir := finalDir + ".tmp"

	if _, err := os.Stat(finalDir); err == nil {
		return nil, ErrAlreadyExists
	}
	if _, err := os.Stat(tmpDir); err == nil {
		return nil, ErrAlreadyExists
	}

	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("writer: create temp dir: %w", err)
	}

	sw := &SessionWriter{cfg: cfg, tmpDir: tmpDir, finalDir: finalDir, frameSize: cfg.Width * cfg.Height * 4}

	var err error
	if sw.actions, err = openJSONL(filepath.Join(tmpDir, "actions.jsonl"), cfg.FlushLines, cfg.FlushInterval); err != nil {
		return nil, sw.abort(err)
	}
	if sw.compiled, err = openJSONL(filepath.Join(tmpDir, "compiled_actions.jsonl"), cfg.FlushLines, cfg.FlushInterval); err != nil {
		return nil, sw.abort(err)
	}
	if sw.thoughts, err = openJSONL(filepath.Join(tmpDir, "thoughts.jsonl"), cfg.FlushLines, cfg.FlushInterval); err != nil {
		return nil, sw.abort(err)
	}
	if sw.autoEvts, err = openJSONL(filepath.Join(tmpDir, "auto_events.jsonl"), cfg.FlushLines, cfg.FlushInterval); err != nil {
		return nil, sw.abort(err)
	}

	grace := cfg.EncoderGrace
	if grace <= 0 {
		grace = 5 * time.Second
	}
	sw.enc, err = startEncoder(encoderConfig{
		Path: cfg.EncoderPath, Width: cfg.Width, Height: cfg.Height, FPS: cfg.FPS,
		PixFmt: "bgra", CRF: cfg.CRF, GOP: cfg.GOP,
		OutputPath: filepath.Join(tmpDir, "video.mp4"),
	})
	if err != nil {
		return nil, sw.abort(err)
	}

	return sw, nil
}

// abort leaves the temp directory in place for inspection (spec.md §7:
// "on any earlier error the temp directory remains") and wraps err.
func (sw *SessionWriter) abort(err error) error {
	return fmt.Errorf("writer: %w", err)
}

// WriteWindow serializes one step's ActionSnapshot and compiled string.
func (sw *SessionWriter) WriteWindow(snapshot model.ActionSnapshot, compiled string) error {
	line, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("writer: marshal snapshot: %w", err)
	}
	if err := sw.actions.writeLine(string(line)); err != nil {
		return err
	}
	return sw.compiled.writeLine(compiled)
}

// WriteFrame validates and forwards one frame's raw BGRA8 bytes to the
// encoder's stdin.
func (sw *SessionWriter) WriteFrame(pixels []byte) error {
	if len(pixels) != sw.frameSize {
		return fmt.Errorf("writer: frame size mismatch: got %d want %d", len(pixels), sw.frameSize)
	}
	return sw.enc.writeFrame(pixels)
}

// WriteThought appends one pre-formatted thought line. The caller is
// responsible for it containing no embedded newline.
func (sw *SessionWriter) WriteThought(line string) error {
	return sw.thoughts.writeLine(line)
}

// WriteAutoEvent appends one line to the reserved auto_events log.
func (sw *SessionWriter) WriteAutoEvent(line string) error {
	return sw.autoEvts.writeLine(line)
}

// WriteOptions writes options.json atomically (create + write, no
// partial-file risk since it's written once up front).
func (sw *SessionWriter) WriteOptions(opts model.Options) error {
	return writeJSONFile(filepath.Join(sw.tmpDir, "options.json"), opts)
}

// WriteMeta writes meta.json atomically.
func (sw *SessionWriter) WriteMeta(meta model.Meta) error {
	return writeJSONFile(filepath.Join(sw.tmpDir, "meta.json"), meta)
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("writer: marshal %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Finalize flushes and closes every sink, waits for the encoder, and
// performs the single commit-point rename. On any failure the temp
// directory is left exactly as it was so it can be inspected; no rename
// occurs, so no partial "final" session ever becomes visible.
func (sw *SessionWriter) Finalize() (string, error) {
	for _, l := range []*jsonlLog{sw.actions, sw.compiled, sw.thoughts, sw.autoEvts} {
		if err := l.close(); err != nil {
			return "", sw.abort(err)
		}
	}

	grace := sw.cfg.EncoderGrace
	if grace <= 0 {
		grace = 5 * time.Second
	}
	if err := sw.enc.close(grace); err != nil {
		return "", fmt.Errorf("writer: encoder: %w", err)
	}

	if _, err := os.Stat(sw.finalDir); err == nil {
		return "", ErrAlreadyExists
	}

	if err := os.Rename(sw.tmpDir, sw.finalDir); err != nil {
		return "", fmt.Errorf("writer: rename: %w", err)
	}
	return sw.finalDir, nil
}
