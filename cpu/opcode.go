package cpu

import (
	"fmt"
)

// Code is a single 16-bit instruction word, fetched big-endian.
type Code uint16

// MakeCode builds an instruction word from two memory bytes, high byte first.
func MakeCode(hi, lo uint8) Code {
	return Code(uint16(hi)<<8 | uint16(lo))
}

// Family returns the high nibble selecting the instruction group.
func (code Code) Family() uint8 {
	return uint8(code>>12) & 0xf
}

// X returns the first register operand nibble.
func (code Code) X() uint8 {
	return uint8(code>>8) & 0xf
}

// Y returns the second register operand nibble.
func (code Code) Y() uint8 {
	return uint8(code>>4) & 0xf
}

// N returns the low nibble (sub-opcode discriminator or sprite height).
func (code Code) N() uint8 {
	return uint8(code) & 0xf
}

// KK returns the 8-bit immediate in the low byte.
func (code Code) KK() uint8 {
	return uint8(code)
}

// NNN returns the 12-bit address in the low bits.
func (code Code) NNN() uint16 {
	return uint16(code) & 0xfff
}

// String returns the assembly language representation of this instruction.
func (code Code) String() (out string) {
	x := code.X()
	y := code.Y()

	switch code.Family() {
	case 0x0:
		switch code {
		case 0x00E0:
			return "CLS"
		case 0x00EE:
			return "RET"
		}
		return fmt.Sprintf("SYS %03X", code.NNN())
	case 0x1:
		return fmt.Sprintf("JP %03X", code.NNN())
	case 0x2:
		return fmt.Sprintf("CALL %03X", code.NNN())
	case 0x3:
		return fmt.Sprintf("SE V%X, %02X", x, code.KK())
	case 0x4:
		return fmt.Sprintf("SNE V%X, %02X", x, code.KK())
	case 0x5:
		if code.N() == 0 {
			return fmt.Sprintf("SE V%X, V%X", x, y)
		}
	case 0x6:
		return fmt.Sprintf("LD V%X, %02X", x, code.KK())
	case 0x7:
		return fmt.Sprintf("ADD V%X, %02X", x, code.KK())
	case 0x8:
		switch code.N() {
		case 0x0:
			return fmt.Sprintf("LD V%X, V%X", x, y)
		case 0x1:
			return fmt.Sprintf("OR V%X, V%X", x, y)
		case 0x2:
			return fmt.Sprintf("AND V%X, V%X", x, y)
		case 0x3:
			return fmt.Sprintf("XOR V%X, V%X", x, y)
		case 0x4:
			return fmt.Sprintf("ADD V%X, V%X", x, y)
		case 0x5:
			return fmt.Sprintf("SUB V%X, V%X", x, y)
		case 0x6:
			return fmt.Sprintf("SHR V%X", x)
		case 0x7:
			return fmt.Sprintf("SUBN V%X, V%X", x, y)
		case 0xE:
			return fmt.Sprintf("SHL V%X", x)
		}
	case 0x9:
		if code.N() == 0 {
			return fmt.Sprintf("SNE V%X, V%X", x, y)
		}
	case 0xA:
		return fmt.Sprintf("LD I, %03X", code.NNN())
	case 0xB:
		return fmt.Sprintf("JP V0, %03X", code.NNN())
	case 0xC:
		return fmt.Sprintf("RND V%X, %02X", x, code.KK())
	case 0xD:
		return fmt.Sprintf("DRW V%X, V%X, %X", x, y, code.N())
	case 0xE:
		switch code.KK() {
		case 0x9E:
			return fmt.Sprintf("SKP V%X", x)
		case 0xA1:
			return fmt.Sprintf("SKNP V%X", x)
		}
	case 0xF:
		switch code.KK() {
		case 0x07:
			return fmt.Sprintf("LD V%X, DT", x)
		case 0x0A:
			return fmt.Sprintf("LD V%X, K", x)
		case 0x15:
			return fmt.Sprintf("LD DT, V%X", x)
		case 0x18:
			return fmt.Sprintf("LD ST, V%X", x)
		case 0x1E:
			return fmt.Sprintf("ADD I, V%X", x)
		case 0x29:
			return fmt.Sprintf("LD F, V%X", x)
		case 0x33:
			return fmt.Sprintf("LD B, V%X", x)
		case 0x55:
			return fmt.Sprintf("LD [I], V%X", x)
		case 0x65:
			return fmt.Sprintf("LD V%X, [I]", x)
		}
	}

	return fmt.Sprintf(".db %02X, %02X", uint8(code>>8), uint8(code))
}
