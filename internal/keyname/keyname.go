// Package keyname maps Windows virtual-key codes to the stable symbolic key
// names used throughout the wire format (compiled action strings and
// ActionSnapshot.Keyboard). A precomputed lookup table replaces the
// ad-hoc switch statements a naive port would reach for (see spec.md §9,
// "Dynamic key name table"): indexing is O(1) and unknown codes uniformly
// resolve to ("", false) so callers drop them without special-casing.
package keyname

import "vlmcollector/internal/model"

// table[vk] holds the symbolic name for virtual-key code vk, or "" if the
// code has no stable mapping and should be dropped.
var table [256]string

func init() {
	for vk := 0x41; vk <= 0x5A; vk++ { // A-Z
		table[vk] = string(rune('A' + (vk - 0x41)))
	}
	digitWords := [10]string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}
	for vk := 0x30; vk <= 0x39; vk++ { // 0-9
		table[vk] = digitWords[vk-0x30]
	}
	for vk := 0x60; vk <= 0x69; vk++ { // Numpad0-9
		table[vk] = "Numpad" + string(rune('0'+(vk-0x60)))
	}

	funcWords := [12]string{"One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine", "Ten", "Eleven", "Twelve"}
	for i, name := range funcWords { // F1-F12 (VK_F1 = 0x70)
		table[0x70+i] = name
	}

	table[0x10] = "Shift"
	table[0x11] = "Ctrl"
	table[0x12] = "Alt"
	table[0x20] = "Space"
	table[0x1B] = "Esc"
	table[0x09] = "Tab"
	table[0x0D] = "Enter"
	table[0x08] = "Backspace"
	table[0x2D] = "Insert"
	table[0x2E] = "Delete"
	table[0x24] = "Home"
	table[0x23] = "End"
	table[0x21] = "PageUp"
	table[0x22] = "PageDown"
	table[0x13] = "Pause"
	table[0x2C] = "PrintScreen"
	table[0x14] = "CapsLock"
	table[0x90] = "NumLock"
	table[0x91] = "ScrollLock"
	table[0x26] = "Up"
	table[0x28] = "Down"
	table[0x25] = "Left"
	table[0x27] = "Right"
	table[0x5B] = "LWin"
	table[0x5C] = "RWin"
	table[0x5D] = "Menu"
	table[0x6A] = "NumpadMultiply"
	table[0x6B] = "NumpadAdd"
	table[0x6D] = "NumpadSubtract"
	table[0x6E] = "NumpadDecimal"
	table[0x6F] = "NumpadDivide"
}

// Lookup returns the symbolic name for a virtual-key code and whether one
// exists. Scancode 255 (the keyboard driver's "no mapping" sentinel) and any
// other unmapped code report ok=false; callers must drop the event
// silently per spec.md §4.2.
func Lookup(vk uint16) (name string, ok bool) {
	if vk >= 255 {
		return "", false
	}
	name = table[vk]
	return name, name != ""
}

// MouseButtonName returns the key-set name a mouse button is treated as
// when it appears in the compiled action string's per-bin key lists
// (spec.md §4.5).
func MouseButtonName(button model.MouseButton) string {
	switch button {
	case model.MouseLeft:
		return "MouseLeft"
	case model.MouseRight:
		return "MouseRight"
	case model.MouseMiddle:
		return "MouseMiddle"
	case model.MouseX1:
		return "MouseX1"
	case model.MouseX2:
		return "MouseX2"
	default:
		return ""
	}
}
