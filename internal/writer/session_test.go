package writer

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vlmcollector/internal/model"
)

func requireBinary(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available in PATH: %v", name, err)
	}
	return path
}

func baseConfig(t *testing.T, root, name, encoder string) Config {
	return Config{
		DatasetRoot:   root,
		Name:          name,
		EncoderPath:   encoder,
		FlushLines:    10,
		FlushInterval: time.Second,
		Width:         2,
		Height:        2,
		FPS:           5,
		CRF:           23,
		GOP:           10,
		EncoderGrace:  2 * time.Second,
	}
}

func TestSessionWriterFullLifecycle(t *testing.T) {
	// Stand-in encoder: ignores the ffmpeg-style arguments, drains stdin,
	// and exits 0.
	shPath := requireBinary(t, "sh")
	root := t.TempDir()
	encoderPath := filepath.Join(t.TempDir(), "fake-encoder.sh")
	require.NoError(t, os.WriteFile(encoderPath, []byte("#!"+shPath+"\ncat > /dev/null\n"), 0o755))

	sw, err := Create(baseConfig(t, root, "sess1", encoderPath))
	require.NoError(t, err)

	snap := model.ActionSnapshot{StepIndex: 0, Tick: 100}
	require.NoError(t, sw.WriteWindow(snap, "<|action_start|>0 0 0 ; ; ; ; ; ;<|action_end|>"))
	require.NoError(t, sw.WriteFrame(make([]byte, 2*2*4)))
	require.NoError(t, sw.WriteThought("<|labeling_instruct_start|>hi <|labeling_instruct_end|>"))
	require.NoError(t, sw.WriteOptions(model.DefaultOptions()))
	require.NoError(t, sw.WriteMeta(model.Meta{SessionID: "abc"}))

	finalDir, err := sw.Finalize()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "sessions", "sess1"), finalDir)

	for _, f := range []string{"actions.jsonl", "compiled_actions.jsonl", "thoughts.jsonl", "auto_events.jsonl", "options.json", "meta.json"} {
		_, err := os.Stat(filepath.Join(finalDir, f))
		assert.NoError(t, err, "expected %s to exist", f)
	}
	_, err = os.Stat(finalDir + ".tmp")
	assert.True(t, os.IsNotExist(err), "tmp dir must not survive a successful finalize")
}

func TestSessionWriterRejectsExistingFinal(t *testing.T) {
	catPath := requireBinary(t, "cat")
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sessions", "dup"), 0o755))

	_, err := Create(baseConfig(t, root, "dup", catPath))
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestSessionWriterRejectsExistingTmp(t *testing.T) {
	catPath := requireBinary(t, "cat")
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sessions", "dup.tmp"), 0o755))

	_, err := Create(baseConfig(t, root, "dup", catPath))
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestWriteFrameRejectsWrongSize(t *testing.T) {
	catPath := requireBinary(t, "cat")
	root := t.TempDir()
	sw, err := Create(baseConfig(t, root, "sizecheck", catPath))
	require.NoError(t, err)
	defer sw.Finalize()

	err = sw.WriteFrame(make([]byte, 3))
	assert.Error(t, err)
}

// TestFinalizeFailsWhenEncoderExitsNonZero is P10: a failed finalize must
// not produce the final directory, and the tmp directory is left for
// inspection.
func TestFinalizeFailsWhenEncoderExitsNonZero(t *testing.T) {
	falsePath := requireBinary(t, "false")
	root := t.TempDir()
	sw, err := Create(baseConfig(t, root, "willfail", falsePath))
	require.NoError(t, err)

	// The encoder may have already exited; writes can fail or succeed
	// depending on scheduling, both are acceptable prior to Finalize.
	_ = sw.WriteFrame(make([]byte, 2*2*4))

	_, err = sw.Finalize()
	assert.Error(t, err)

	finalDir := filepath.Join(root, "sessions", "willfail")
	_, statErr := os.Stat(finalDir)
	assert.True(t, os.IsNotExist(statErr), "final directory must not appear when finalize fails")

	_, statErr = os.Stat(finalDir + ".tmp")
	assert.NoError(t, statErr, "tmp directory must remain for inspection")
}
