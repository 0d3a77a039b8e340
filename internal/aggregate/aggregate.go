// Package aggregate implements the Aggregator (spec.md §4.5): a single
// pass over one step's input events that produces both the structured
// ActionSnapshot and the compiled action string together, sharing one
// fold and one sub-bin partition so held-key state cannot diverge
// between the two artifacts (spec.md §9, "Two aggregations, one pass").
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"vlmcollector/internal/keyname"
	"vlmcollector/internal/model"
)

// State is the process-lifetime-scoped held-input state (spec.md's
// AggregatorState): which keys and mouse buttons are currently down,
// persisted across window boundaries so a hold survives into the next
// snapshot even through a foreground loss.
type State struct {
	downKeys    map[string]bool
	downButtons map[model.MouseButton]bool
}

// NewState returns an empty held-input state.
func NewState() *State {
	return &State{
		downKeys:    make(map[string]bool),
		downButtons: make(map[model.MouseButton]bool),
	}
}

// Output bundles the two artifacts one Run call produces.
type Output struct {
	Snapshot model.ActionSnapshot
	Compiled string
}

// Run folds events[start,end) into an ActionSnapshot and compiled action
// string, mutating state's held-key/button sets as it goes.
//
// The compiled string's per-bin key sets are built bin-by-bin, matching
// original_source/compiler/src/lib.rs's compile_window: each bin seeds
// from the keys/buttons already held entering the bin, then every
// KeyDown/MouseButtonDown event inside the bin adds to that bin's set —
// but a KeyUp/MouseButtonUp only removes from the persistent held-state,
// never from a bin already seeded or being built. A key pressed and
// released within the same bin therefore still appears in that bin, even
// though it is absent from state.down by the time the bin closes.
func Run(events []model.InputEvent, windowStart, windowEnd model.Tick, stepIndex model.StepIndex, isForeground bool, cursor model.CursorSample, state *State) Output {
	var dx, dy, wheel int32
	var buttons model.MouseButtons
	pressed := make(map[string]bool)
	released := make(map[string]bool)

	bounds := binBoundaries(windowStart, windowEnd)
	binKeySets := make([]map[string]bool, model.SubBinCount)

	i := 0
	for bin := 0; bin < model.SubBinCount; bin++ {
		binEnd := bounds[bin+1]
		keys := currentDownSet(state)

		for i < len(events) && events[i].Tick < binEnd {
			e := events[i]
			switch e.Kind {
			case model.MouseMove:
				dx = addSat32(dx, e.Dx)
				dy = addSat32(dy, e.Dy)
			case model.MouseWheel:
				wheel = addSat32(wheel, e.Delta)
			case model.KeyDown:
				state.downKeys[e.Key] = true
				keys[e.Key] = true
				pressed[e.Key] = true
			case model.KeyUp:
				delete(state.downKeys, e.Key)
				released[e.Key] = true
			case model.MouseButtonEvent:
				if e.IsDown {
					state.downButtons[e.Button] = true
					if name := keyname.MouseButtonName(e.Button); name != "" {
						keys[name] = true
					}
					setButtonMask(&buttons, e.Button, true)
				} else {
					delete(state.downButtons, e.Button)
				}
			}
			i++
		}
		binKeySets[bin] = keys
	}

	// Scenario 3 (spec.md §8): the structured snapshot keeps the raw
	// saturating-added deltas; only the compiled string clamps to the
	// wire format's ±1000/±5 range.
	clampedDx := clampI32(dx, -model.DxDyClamp, model.DxDyClamp)
	clampedDy := clampI32(dy, -model.DxDyClamp, model.DxDyClamp)
	clampedWheel := clampI32(wheel, -model.WheelClamp, model.WheelClamp)

	var snap model.ActionSnapshot
	snap.StepIndex = stepIndex
	snap.Tick = windowEnd
	snap.Window = model.WindowState{IsForeground: isForeground}

	if isForeground {
		snap.Mouse = model.MouseSnapshot{
			Dx: dx, Dy: dy, Wheel: wheel,
			Buttons: buttons, Cursor: cursor,
		}
		snap.Keyboard = model.KeyboardSnapshot{
			Down:     sortKeys(keysOf(state.downKeys)),
			Pressed:  sortKeys(keysOf(pressed)),
			Released: sortKeys(keysOf(released)),
		}
	} else {
		// spec.md §4.5: foreground-false emits zeroed motion, empty key
		// lists, and default button mask, but still carries the cursor
		// sample. state.down is not cleared: the fold above has already
		// applied this window's key and button events to it, so holds
		// carry across the foreground loss.
		snap.Mouse = model.MouseSnapshot{Cursor: cursor}
		snap.Keyboard = model.KeyboardSnapshot{
			Down:     []string{},
			Pressed:  []string{},
			Released: []string{},
		}
	}

	binKeys := make([][]string, model.SubBinCount)
	for bin, set := range binKeySets {
		names := make([]string, 0, len(set))
		for k := range set {
			names = append(names, k)
		}
		binKeys[bin] = sortKeys(names)
	}

	compiled := compile(clampedDx, clampedDy, clampedWheel, binKeys)
	return Output{Snapshot: snap, Compiled: compiled}
}

// binBoundaries returns the 6 sub-bin start ticks plus a trailing
// windowEnd sentinel, per spec.md §4.5: equal bins of duration
// (end-start)/6, the last bin absorbing any remainder.
func binBoundaries(start, end model.Tick) [model.SubBinCount + 1]model.Tick {
	var bounds [model.SubBinCount + 1]model.Tick
	span := uint64(end - start)
	base := span / model.SubBinCount
	for i := 0; i < model.SubBinCount; i++ {
		bounds[i] = start + model.Tick(base*uint64(i))
	}
	bounds[model.SubBinCount] = end
	return bounds
}

// currentDownSet copies the held keys and mouse buttons into a fresh
// name set, seeding one compiled-action sub-bin before its events fold
// in (see Run's doc comment for why this must be a mutable copy, not a
// shared reference to state's own maps).
func currentDownSet(state *State) map[string]bool {
	names := make(map[string]bool, len(state.downKeys)+len(state.downButtons))
	for k := range state.downKeys {
		names[k] = true
	}
	for b := range state.downButtons {
		if name := keyname.MouseButtonName(b); name != "" {
			names[name] = true
		}
	}
	return names
}

func keysOf(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func setButtonMask(b *model.MouseButtons, button model.MouseButton, down bool) {
	if !down {
		return
	}
	switch button {
	case model.MouseLeft:
		b.Left = true
	case model.MouseRight:
		b.Right = true
	case model.MouseMiddle:
		b.Middle = true
	case model.MouseX1:
		b.X1 = true
	case model.MouseX2:
		b.X2 = true
	}
}

func clampI32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// addSat32 is Go's stand-in for Rust's i32::saturating_add, matching
// original_source/aggregator/src/lib.rs and compiler/src/lib.rs: dx, dy,
// and wheel accumulate this way so P6's "saturating addition never
// overflows" holds at the int32 boundary, not just at the wire format's
// tighter ±1000/±5 clamp.
func addSat32(a, b int32) int32 {
	sum := int64(a) + int64(b)
	switch {
	case sum > math.MaxInt32:
		return math.MaxInt32
	case sum < math.MinInt32:
		return math.MinInt32
	default:
		return int32(sum)
	}
}

// compile renders the wire format literal:
// <|action_start|>DX DY WHEEL ; B0 ; B1 ; B2 ; B3 ; B4 ; B5<|action_end|>
func compile(dx, dy, wheel int32, binKeys [][]string) string {
	var sb strings.Builder
	sb.WriteString("<|action_start|>")
	fmt.Fprintf(&sb, "%d %d %d", dx, dy, wheel)
	for _, bin := range binKeys {
		keys := bin
		if len(keys) > model.MaxKeysPerBin {
			keys = keys[:model.MaxKeysPerBin]
		}
		sb.WriteString(" ;")
		if len(keys) > 0 {
			sb.WriteString(" ")
			sb.WriteString(strings.Join(keys, " "))
		}
	}
	sb.WriteString("<|action_end|>")
	return sb.String()
}

var (
	modifierRank = map[string]int{"Shift": 0, "Ctrl": 1, "Alt": 2}
	movementRank = map[string]int{"W": 0, "A": 1, "S": 2, "D": 3}
	navRank      = map[string]int{"Space": 0, "Esc": 1, "Tab": 2, "Enter": 3}
	mouseRank    = map[string]int{"MouseLeft": 0, "MouseRight": 1, "MouseMiddle": 2}
	numericRank  = func() map[string]int {
		m := make(map[string]int)
		digitWords := []string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}
		for i, w := range digitWords {
			m[w] = i
		}
		funcWords := []string{"One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine", "Ten", "Eleven", "Twelve"}
		for i, w := range funcWords {
			m[w] = len(digitWords) + i
		}
		return m
	}()
)

// rank returns (group, orderWithinGroup) per spec.md §4.5's canonical
// key ordering table. Group 5 ("Other") is lexicographic only, so its
// within-group order is always 0 and ties resolve by name.
func rank(name string) (int, int) {
	if o, ok := mouseRank[name]; ok {
		return 0, o
	}
	if o, ok := modifierRank[name]; ok {
		return 1, o
	}
	if o, ok := movementRank[name]; ok {
		return 2, o
	}
	if o, ok := navRank[name]; ok {
		return 3, o
	}
	if o, ok := numericRank[name]; ok {
		return 4, o
	}
	return 5, 0
}

// sortKeys orders names by (group rank, order-within-group), ties broken
// lexicographically, per spec.md §4.5.
func sortKeys(names []string) []string {
	out := append([]string(nil), names...)
	sort.Slice(out, func(i, j int) bool {
		gi, oi := rank(out[i])
		gj, oj := rank(out[j])
		if gi != gj {
			return gi < gj
		}
		if oi != oj {
			return oi < oj
		}
		return out[i] < out[j]
	})
	return out
}
