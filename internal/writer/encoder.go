package writer

import (
	"fmt"
	"io"
	"os/exec"
	"time"
)

// encoder wraps the video-encoder child process (spec.md §4.6): it reads
// raw BGRA8 frames on stdin and writes the finished video inside the
// session's temp directory. stdout/stderr are discarded; ownership of
// stdin is what lets the Orchestrator apply natural backpressure by
// blocking on Write when the subprocess falls behind (spec.md §5).
type encoder struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	done   chan error
}

// encoderConfig parameterizes the child process's command line.
type encoderConfig struct {
	Path       string // path to the encoder binary (e.g. ffmpeg)
	Width      int
	Height     int
	FPS        int
	PixFmt     string // e.g. "bgra"
	CRF        int
	GOP        int
	OutputPath string
}

func startEncoder(cfg encoderConfig) (*encoder, error) {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", cfg.PixFmt,
		"-s", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"-r", fmt.Sprintf("%d", cfg.FPS),
		"-i", "-",
		"-c:v", "libx264",
		"-crf", fmt.Sprintf("%d", cfg.CRF),
		"-g", fmt.Sprintf("%d", cfg.GOP),
		"-pix_fmt", "yuv420p",
		cfg.OutputPath,
	}
	cmd := exec.Command(cfg.Path, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("writer: encoder stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("writer: encoder start: %w", err)
	}

	e := &encoder{cmd: cmd, stdin: stdin, done: make(chan error, 1)}
	go func() { e.done <- cmd.Wait() }()
	return e, nil
}

// writeFrame blocks until the subprocess has accepted the frame bytes.
func (e *encoder) writeFrame(pixels []byte) error {
	_, err := e.stdin.Write(pixels)
	return err
}

// close closes stdin (signaling end-of-stream to the encoder), waits for
// exit with a grace period, and force-kills if it overruns. Returns an
// error if the encoder exited non-zero.
func (e *encoder) close(grace time.Duration) error {
	e.stdin.Close()
	select {
	case err := <-e.done:
		return err
	case <-time.After(grace):
		if e.cmd.Process != nil {
			e.cmd.Process.Kill()
		}
		return fmt.Errorf("writer: encoder shutdown timed out after %s", grace)
	}
}
