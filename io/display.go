package io

import (
	"fmt"
	"iter"
	"maps"
)

const (
	DISPLAY_W = 64 // Display width in pixels.
	DISPLAY_H = 32 // Display height in pixels.
)

var _display_defines = map[string]string{
	"DISPLAY_W": fmt.Sprintf("%v", DISPLAY_W),
	"DISPLAY_H": fmt.Sprintf("%v", DISPLAY_H),
}

// Display is the monochrome framebuffer. Pixels are stored row-major;
// true is lit.
type Display struct {
	pixels [DISPLAY_W * DISPLAY_H]bool
}

// Defines returns an iter of defines for the display.
func (d *Display) Defines() iter.Seq2[string, string] {
	return maps.All(_display_defines)
}

// Clear sets every pixel to unlit.
func (d *Display) Clear() {
	clear(d.pixels[:])
}

// Pixel returns the state of the pixel at (x, y).
func (d *Display) Pixel(x, y int) bool {
	return d.pixels[d.index(x, y)]
}

// Pixels exposes the framebuffer, row-major, for rendering.
func (d *Display) Pixels() []bool {
	return d.pixels[:]
}

func (d *Display) index(x, y int) int {
	return y*DISPLAY_W + x
}

// xorPixel flips the pixel at (x, y) when value is set, and reports
// whether the pixel went from lit to unlit.
func (d *Display) xorPixel(x, y int, value bool) bool {
	idx := d.index(x, y)
	last := d.pixels[idx]
	d.pixels[idx] = last != value

	return last && value
}

// DrawSprite XORs a sprite into the framebuffer at (x, y), one byte per
// row, most significant bit leftmost. Coordinates wrap toroidally past
// either edge. Reports whether any pixel went from lit to unlit.
func (d *Display) DrawSprite(x, y uint8, sprite []uint8) (collision bool) {
	for row, bits := range sprite {
		for col := range 8 {
			value := bits>>(7-col)&1 != 0
			px := (int(x) + col) % DISPLAY_W
			py := (int(y) + row) % DISPLAY_H
			if d.xorPixel(px, py, value) {
				collision = true
			}
		}
	}

	return
}
