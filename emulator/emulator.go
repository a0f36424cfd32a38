package emulator

import (
	"iter"

	"github.com/ocho8/ocho/cpu"
	"github.com/ocho8/ocho/internal"
	"github.com/ocho8/ocho/io"
)

// Emulator wraps the CPU and its devices behind the host-facing surface:
// load a ROM, step the machine, render the display, feed key edges, and
// gate the beeper on the sound timer.
type Emulator struct {
	Verbose bool // If set, enables verbose logging.

	Cpu *cpu.Cpu // Reference to the CPU simulation.

	rom []byte
}

// NewEmulator creates an emulator with no program loaded.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu: cpu.NewCpu(),
	}

	return
}

// Defines returns an iterator over all of the machine defines, for the
// assembler's predefined equates.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(
		emu.Cpu.Defines(),
		emu.Cpu.Display.Defines(),
		emu.Cpu.Keyboard.Defines(),
	)
}

// Load loads a ROM image and resets the machine to power-on state.
// Fails, leaving the previous program in place, if the ROM does not fit.
func (emu *Emulator) Load(rom []byte) (err error) {
	emu.Cpu.Verbose = emu.Verbose

	err = emu.Cpu.Reset(rom)
	if err != nil {
		return
	}

	emu.rom = rom
	return
}

// Reset restarts the loaded ROM from power-on state.
func (emu *Emulator) Reset() (err error) {
	return emu.Load(emu.rom)
}

// Step executes a single instruction cycle. Faults are reported with the
// program counter of the faulting instruction, which is left unchanged.
func (emu *Emulator) Step() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	pc := emu.Cpu.Registers.PC
	err = emu.Cpu.Tick()
	if err != nil {
		err = &ErrRuntime{Pc: pc, Err: err}
	}

	return
}

// Display returns the framebuffer for rendering.
func (emu *Emulator) Display() *io.Display {
	return &emu.Cpu.Display
}

// SoundActive reports whether the sound timer is running; the host maps
// this to tone on/off.
func (emu *Emulator) SoundActive() bool {
	return emu.Cpu.Registers.Sound > 0
}

// KeyPressed feeds a key-down edge from the host.
func (emu *Emulator) KeyPressed(key uint8) {
	emu.Cpu.Keyboard.Press(key)
}

// KeyReleased feeds a key-up edge from the host.
func (emu *Emulator) KeyReleased(key uint8) {
	emu.Cpu.Keyboard.Release(key)
}
