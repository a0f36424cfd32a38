// Package io implements the CHIP-8 peripheral devices: the 64x32
// monochrome display and the 16-key keypad. The engine is the only writer
// of the display; the host is the only writer of the keypad.
package io
