package cpu

const (
	FLAG_REGISTER = 0xF // vF, overwritten by arithmetic and shift outputs.
)

// Registers is the CHIP-8 register file.
type Registers struct {
	V     [16]uint8 // General-purpose registers v0-vF.
	I     uint16    // Index register; only the low 12 bits address memory.
	PC    uint16    // Program counter.
	Delay uint8     // Delay timer.
	Sound uint8     // Sound timer.
	Stack Stack     // Call stack of return addresses.
}

// Reset restores the power-on register state.
func (r *Registers) Reset() {
	clear(r.V[:])
	r.I = 0
	r.PC = PROGRAM_START
	r.Delay = 0
	r.Sound = 0
	r.Stack.Reset()
}

// setFlag writes the vF output of an arithmetic or shift instruction.
func (r *Registers) setFlag(set bool) {
	if set {
		r.V[FLAG_REGISTER] = 1
	} else {
		r.V[FLAG_REGISTER] = 0
	}
}

// tickTimers decrements the delay and sound timers, floored at zero.
func (r *Registers) tickTimers() {
	if r.Delay > 0 {
		r.Delay--
	}
	if r.Sound > 0 {
		r.Sound--
	}
}
