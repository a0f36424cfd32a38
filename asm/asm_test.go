package asm

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleSource = `
; draw a sprite, then spin
.equ SPRITE_ROWS 5

start:  cls
        ld v0, 0x20
        ld i, sprite            ; forward label
        drw v0, v0, SPRITE_ROWS
loop:   jp loop

sprite: .db 0xF0, 0x90, 0xF0, 0x90, 0x90
`

func TestAssembler_Parse(t *testing.T) {
	assert := assert.New(t)

	a := &Assembler{}
	rom, err := a.Parse(strings.NewReader(sampleSource))
	assert.NoError(err)

	assert.Equal([]byte{
		0x00, 0xE0, // 200: CLS
		0x60, 0x20, // 202: LD V0, 0x20
		0xA2, 0x0A, // 204: LD I, sprite
		0xD0, 0x05, // 206: DRW V0, V0, 5
		0x12, 0x08, // 208: JP loop
		0xF0, 0x90, 0xF0, 0x90, 0x90, // 20A: sprite
	}, rom)

	assert.Equal(uint16(0x208), a.Label["loop"])
	assert.Equal(uint16(0x20A), a.Label["sprite"])
}

func TestAssembler_ParenEval(t *testing.T) {
	assert := assert.New(t)

	a := &Assembler{}
	a.Predefine("FONT_STRIDE", "5")

	rom, err := a.Parse(strings.NewReader(`
.equ GLYPH 0xA
ld i, $(GLYPH * FONT_STRIDE)
ld v1, $(1 << 6)
`))
	assert.NoError(err)
	assert.Equal([]byte{0xA0, 0x32, 0x61, 0x40}, rom)
}

func TestAssembler_Lineno(t *testing.T) {
	assert := assert.New(t)

	a := &Assembler{}
	rom, err := a.Parse(strings.NewReader(`ld v0, $(LINENO)`))
	assert.NoError(err)
	assert.Equal([]byte{0x60, 0x01}, rom)
}

func TestAssembler_Origin(t *testing.T) {
	assert := assert.New(t)

	a := &Assembler{Origin: 0x300}
	rom, err := a.Parse(strings.NewReader(`
here: jp here
`))
	assert.NoError(err)
	assert.Equal([]byte{0x13, 0x00}, rom)
}

func TestAssembler_LdForms(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		source string
		rom    []byte
	}{
		{"ld v2, 0xAB", []byte{0x62, 0xAB}},
		{"ld v2, v3", []byte{0x82, 0x30}},
		{"ld i, 0x210", []byte{0xA2, 0x10}},
		{"ld v2, dt", []byte{0xF2, 0x07}},
		{"ld v2, k", []byte{0xF2, 0x0A}},
		{"ld dt, v2", []byte{0xF2, 0x15}},
		{"ld st, v2", []byte{0xF2, 0x18}},
		{"ld f, v2", []byte{0xF2, 0x29}},
		{"ld b, v2", []byte{0xF2, 0x33}},
		{"ld [i], v2", []byte{0xF2, 0x55}},
		{"ld v2, [i]", []byte{0xF2, 0x65}},
		{"add i, v2", []byte{0xF2, 0x1E}},
		{"add v2, v3", []byte{0x82, 0x34}},
		{"add v2, 0x10", []byte{0x72, 0x10}},
		{"jp v0, 0x300", []byte{0xB3, 0x00}},
		{"se v2, v3", []byte{0x52, 0x30}},
		{"se v2, 0x42", []byte{0x32, 0x42}},
		{"sne v2, v3", []byte{0x92, 0x30}},
		{"shr v2", []byte{0x82, 0x06}},
		{"shl v2", []byte{0x82, 0x0E}},
		{"rnd v2, 0x0F", []byte{0xC2, 0x0F}},
		{"skp v2", []byte{0xE2, 0x9E}},
		{"sknp v2", []byte{0xE2, 0xA1}},
		{"sys 0x123", []byte{0x01, 0x23}},
	}

	for _, test := range table {
		a := &Assembler{}
		rom, err := a.Parse(strings.NewReader(test.source))
		assert.NoError(err, test.source)
		assert.Equal(test.rom, rom, test.source)
	}
}

func TestAssembler_Errors(t *testing.T) {
	table := []struct {
		name   string
		source string
		err    error
	}{
		{"label duplicated", "x: cls\nx: cls", ErrLabelDuplicate},
		{"label missing", "jp nowhere", ErrLabelMissing("nowhere")},
		{"equate duplicated", ".equ A 1\n.equ A 2", ErrEquateDuplicate},
		{"equate syntax", ".equ A", ErrEquateSyntax},
		{"opcode invalid", "nop", ErrOpcodeInvalid},
		{"argument count", "drw v0, v1", ErrOpcodeArgs},
		{"register invalid", "shr vG", ErrRegisterInvalid},
		{"target invalid", "ld q, v0", ErrTargetInvalid},
		{"immediate range", "ld v0, 0x100", ErrValueRange("0x100")},
		{"address range", "jp 0x1000", ErrValueRange("0x1000")},
		{"db range", ".db 0x100", ErrValueRange("0x100")},
		{"not a number", ".db zork, 0x01", ErrParseNumber("zork")},
		{"bad expression", "ld v0, $(-1)", ErrParseExpression("")},
	}

	for _, test := range table {
		t.Run(test.name, func(t *testing.T) {
			assert := assert.New(t)

			a := &Assembler{}
			_, err := a.Parse(strings.NewReader(test.source))
			assert.Error(err)

			if _, ok := test.err.(ErrParseExpression); ok {
				var perr ErrParseExpression
				assert.True(errors.As(err, &perr))
				return
			}

			assert.ErrorIs(err, test.err)
		})
	}
}

func TestAssembler_ErrSyntax_Location(t *testing.T) {
	assert := assert.New(t)

	a := &Assembler{}
	_, err := a.Parse(strings.NewReader("cls\nbogus v0\ncls"))

	var serr ErrSyntax
	assert.True(errors.As(err, &serr))
	assert.Equal(2, serr.LineNo)
	assert.ErrorIs(err, ErrOpcodeInvalid)
}
