package aggregate

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vlmcollector/internal/model"
)

func TestRunEmptyWindow(t *testing.T) {
	state := NewState()
	out := Run(nil, 0, 200_000, 0, true, model.CursorSample{}, state)

	assert.Equal(t, "<|action_start|>0 0 0 ; ; ; ; ; ;<|action_end|>", out.Compiled)
	assert.Equal(t, model.StepIndex(0), out.Snapshot.StepIndex)
	assert.True(t, out.Snapshot.Window.IsForeground)
	assert.Equal(t, int32(0), out.Snapshot.Mouse.Dx)
	assert.Equal(t, int32(0), out.Snapshot.Mouse.Dy)
	assert.Equal(t, int32(0), out.Snapshot.Mouse.Wheel)
	assert.Empty(t, out.Snapshot.Keyboard.Down)
	assert.Empty(t, out.Snapshot.Keyboard.Pressed)
	assert.Empty(t, out.Snapshot.Keyboard.Released)
}

func TestRunSingleKeyDownHeldAcrossBins(t *testing.T) {
	state := NewState()
	events := []model.InputEvent{
		{Tick: 10, Kind: model.KeyDown, Key: "W"},
	}
	out := Run(events, 0, 200, 0, true, model.CursorSample{}, state)

	assert.Equal(t, []string{"W"}, out.Snapshot.Keyboard.Down)
	assert.Equal(t, []string{"W"}, out.Snapshot.Keyboard.Pressed)
	assert.Empty(t, out.Snapshot.Keyboard.Released)

	// Held in every bin from first occurrence onward: base=200/6=33, so
	// tick 10 falls in bin 0; W must appear in all 6 bins.
	for i := 0; i < model.SubBinCount; i++ {
		assert.Contains(t, out.Compiled, "W", "bin %d should contain W", i)
	}
	count := strings.Count(out.Compiled, "W")
	assert.Equal(t, model.SubBinCount, count)
}

func TestRunMouseMoveSaturation(t *testing.T) {
	state := NewState()
	events := []model.InputEvent{
		{Tick: 5, Kind: model.MouseMove, Dx: 1000, Dy: -800},
		{Tick: 6, Kind: model.MouseMove, Dx: 1000, Dy: -700},
	}
	out := Run(events, 0, 200, 0, true, model.CursorSample{}, state)

	// Structured snapshot keeps the raw, unclamped sum.
	assert.Equal(t, int32(2000), out.Snapshot.Mouse.Dx)
	assert.Equal(t, int32(-1500), out.Snapshot.Mouse.Dy)

	// Compiled wire string clamps to +-1000.
	assert.True(t, strings.HasPrefix(out.Compiled, "<|action_start|>1000 -1000 0"))
}

func TestRunForegroundLossZeroesButPreservesHeldState(t *testing.T) {
	state := NewState()
	events := []model.InputEvent{
		{Tick: 1, Kind: model.KeyDown, Key: "X"},
		{Tick: 2, Kind: model.MouseMove, Dx: 50, Dy: 50},
	}
	out := Run(events, 0, 200, 0, false, model.CursorSample{Visible: true, XNorm: 0.5, YNorm: 0.5}, state)

	assert.False(t, out.Snapshot.Window.IsForeground)
	assert.Equal(t, int32(0), out.Snapshot.Mouse.Dx)
	assert.Equal(t, int32(0), out.Snapshot.Mouse.Dy)
	assert.Equal(t, int32(0), out.Snapshot.Mouse.Wheel)
	assert.Empty(t, out.Snapshot.Keyboard.Down)
	assert.Empty(t, out.Snapshot.Keyboard.Pressed)
	assert.Empty(t, out.Snapshot.Keyboard.Released)
	// Cursor sample still passes through even when not foreground.
	assert.Equal(t, model.CursorSample{Visible: true, XNorm: 0.5, YNorm: 0.5}, out.Snapshot.Mouse.Cursor)

	// State.down still holds X: a later foreground window with no
	// events should report X held.
	out2 := Run(nil, 200, 400, 1, true, model.CursorSample{}, state)
	assert.Equal(t, []string{"X"}, out2.Snapshot.Keyboard.Down)
}

func TestRunKeyUpReleases(t *testing.T) {
	state := NewState()
	Run([]model.InputEvent{{Tick: 1, Kind: model.KeyDown, Key: "A"}}, 0, 200, 0, true, model.CursorSample{}, state)
	out := Run([]model.InputEvent{{Tick: 201, Kind: model.KeyUp, Key: "A"}}, 200, 400, 1, true, model.CursorSample{}, state)

	assert.Empty(t, out.Snapshot.Keyboard.Down)
	assert.Equal(t, []string{"A"}, out.Snapshot.Keyboard.Released)
	assert.Empty(t, out.Snapshot.Keyboard.Pressed)
}

func TestRunMouseButtonMaskIsWentDownNotCurrentlyDown(t *testing.T) {
	state := NewState()
	events := []model.InputEvent{
		{Tick: 1, Kind: model.MouseButtonEvent, Button: model.MouseLeft, IsDown: true},
		{Tick: 2, Kind: model.MouseButtonEvent, Button: model.MouseLeft, IsDown: false},
	}
	out := Run(events, 0, 200, 0, true, model.CursorSample{}, state)
	assert.True(t, out.Snapshot.Mouse.Buttons.Left, "button-up within the window must not clear the mask")
}

func TestRunBinAssignmentFollowsTickOrder(t *testing.T) {
	// A key pressed at the very start of the window must appear in the
	// first sub-bin (P2: events fold in tick order).
	state := NewState()
	events := []model.InputEvent{
		{Tick: 0, Kind: model.KeyDown, Key: "one"},
	}
	out := Run(events, 0, 200, 0, true, model.CursorSample{}, state)
	bins := strings.Split(out.Compiled, ";")
	require.Equal(t, 7, len(bins))
	assert.Contains(t, bins[1], "one")
}

var compiledRe = regexp.MustCompile(`^<\|action_start\|>-?\d+ -?\d+ -?\d+( ;( [^ ;<]+)*){6}<\|action_end\|>$`)

func TestCompiledFormatMatchesWireRegex(t *testing.T) {
	state := NewState()
	events := []model.InputEvent{
		{Tick: 10, Kind: model.KeyDown, Key: "W"},
		{Tick: 20, Kind: model.MouseMove, Dx: 5, Dy: 5},
		{Tick: 30, Kind: model.MouseWheel, Delta: 2},
	}
	out := Run(events, 0, 200, 0, true, model.CursorSample{}, state)
	assert.Regexp(t, compiledRe, out.Compiled)
	assert.Equal(t, 6, strings.Count(out.Compiled, ";"))
}

func TestCompiledMaxFourKeysPerBin(t *testing.T) {
	state := NewState()
	events := []model.InputEvent{
		{Tick: 1, Kind: model.KeyDown, Key: "zero"},
		{Tick: 1, Kind: model.KeyDown, Key: "one"},
		{Tick: 1, Kind: model.KeyDown, Key: "two"},
		{Tick: 1, Kind: model.KeyDown, Key: "three"},
		{Tick: 1, Kind: model.KeyDown, Key: "four"},
	}
	out := Run(events, 0, 200, 0, true, model.CursorSample{}, state)
	assert.Regexp(t, compiledRe, out.Compiled)
	// First bin lists at most 4 keys.
	firstBin := strings.Split(out.Compiled, ";")[1]
	keys := strings.Fields(firstBin)
	assert.LessOrEqual(t, len(keys), 4)
}

func TestSortKeysCanonicalOrder(t *testing.T) {
	in := []string{"D", "Ctrl", "MouseRight", "Tab", "nine", "zzz", "A", "Shift", "MouseLeft"}
	out := sortKeys(in)
	// Mouse buttons first (Left before Right), then modifiers
	// (Shift before Ctrl), then movement (A before D), then nav (Tab),
	// then numeric (zero..nine), then lexicographic "other".
	assert.Equal(t, []string{"MouseLeft", "MouseRight", "Shift", "Ctrl", "A", "D", "Tab", "nine", "zzz"}, out)
}

func TestWheelClampOnlyAffectsCompiled(t *testing.T) {
	state := NewState()
	events := []model.InputEvent{
		{Tick: 1, Kind: model.MouseWheel, Delta: 100},
	}
	out := Run(events, 0, 200, 0, true, model.CursorSample{}, state)
	assert.Equal(t, int32(100), out.Snapshot.Mouse.Wheel)
	assert.Contains(t, out.Compiled, "0 0 5")
}
