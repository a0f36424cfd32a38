package io

import (
	"fmt"
	"iter"
	"maps"
)

const (
	KEY_COUNT = 16 // Number of keypad keys, 0x0 through 0xF.
)

var _keyboard_defines = map[string]string{
	"KEY_COUNT": fmt.Sprintf("%v", KEY_COUNT),
}

// waitState is the state of the wait-for-keypress latch.
type waitState int

const (
	waitIdle     = waitState(0) // No wait in progress.
	waitPending  = waitState(1) // Armed, no key released yet.
	waitResolved = waitState(2) // A key was released while armed.
)

// Keyboard is the 16-key keypad. The host feeds press and release edges;
// the engine reads level state and polls the wait latch.
//
// A wait resolves on a key release, not a press: the program blocked on
// the LD Vx, K instruction continues only after a full press-then-release
// of some key.
type Keyboard struct {
	pressed [KEY_COUNT]bool

	wait    waitState
	waitKey uint8
}

// Defines returns an iter of defines for the keyboard.
func (kb *Keyboard) Defines() iter.Seq2[string, string] {
	return maps.All(_keyboard_defines)
}

// Press records a key-down edge. Keys outside the keypad are ignored.
func (kb *Keyboard) Press(key uint8) {
	if int(key) >= len(kb.pressed) {
		return
	}

	kb.pressed[key] = true
}

// Release records a key-up edge, resolving a pending wait with this key.
// Keys outside the keypad are ignored.
func (kb *Keyboard) Release(key uint8) {
	if int(key) >= len(kb.pressed) {
		return
	}

	kb.pressed[key] = false

	if kb.wait == waitPending {
		kb.wait = waitResolved
		kb.waitKey = key
	}
}

// IsPressed reports the level state of a key.
func (kb *Keyboard) IsPressed(key uint8) bool {
	return int(key) < len(kb.pressed) && kb.pressed[key]
}

// WaitKey polls the wait latch. The first poll arms it and reports not
// resolved; once a key release resolves the wait, the next poll returns
// that key and idles the latch again.
func (kb *Keyboard) WaitKey() (key uint8, ok bool) {
	switch kb.wait {
	case waitIdle:
		kb.wait = waitPending
	case waitResolved:
		kb.wait = waitIdle
		key = kb.waitKey
		ok = true
	}

	return
}

// Reset releases every key and idles the wait latch.
func (kb *Keyboard) Reset() {
	clear(kb.pressed[:])
	kb.wait = waitIdle
	kb.waitKey = 0
}
