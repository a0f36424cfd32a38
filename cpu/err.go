package cpu

import (
	"errors"

	"github.com/ocho8/ocho/translate"
)

var f = translate.From

var (
	// Load errors
	ErrRomTooLarge = errors.New(f("rom too large"))

	// Execution errors
	ErrStackEmpty   = errors.New(f("stack empty"))
	ErrStackFull    = errors.New(f("stack full"))
	ErrKeyInvalid   = errors.New(f("key invalid"))
	ErrOpcodeDecode = errors.New(f("decode"))
)

// ErrAddress is an effective address outside the 4096-byte memory space.
type ErrAddress uint16

func (ea ErrAddress) Error() string {
	return f("address 0x%03x out of range", uint16(ea))
}

func (ea ErrAddress) Is(err error) (ok bool) {
	_, ok = err.(ErrAddress)
	return
}

// ErrOpcode carries the instruction word that faulted.
type ErrOpcode Code

func (eo ErrOpcode) Error() string {
	return f("bad opcode 0x%04x %v", uint16(eo), Code(eo).String())
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}
