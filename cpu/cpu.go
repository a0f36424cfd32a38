package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"math/rand"
	"time"

	"github.com/ocho8/ocho/io"
)

var _cpu_defines = map[string]string{
	"MEMORY_SIZE":   fmt.Sprintf("%v", MEMORY_SIZE),
	"PROGRAM_START": fmt.Sprintf("%#x", PROGRAM_START),
	"FONT_START":    fmt.Sprintf("%#x", FONT_START),
	"FONT_STRIDE":   fmt.Sprintf("%v", FONT_STRIDE),
	"STACK_LIMIT":   fmt.Sprintf("%v", STACK_LIMIT),
}

// Cpu is the execution engine: the register file plus the memory and
// devices it exclusively owns. The host drives it one Tick at a time and
// reads the devices between ticks.
type Cpu struct {
	Verbose bool // Set to enable verbose execution logging.

	Registers Registers
	Memory    Memory
	Display   io.Display
	Keyboard  io.Keyboard

	Rand *rand.Rand // Source for the RND instruction.
}

// NewCpu creates a CPU with no program loaded.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{
		Rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset restores power-on state and loads the ROM at PROGRAM_START.
func (cpu *Cpu) Reset(rom []byte) (err error) {
	if cpu.Verbose {
		log.Printf("cpu: reset, %v byte rom", len(rom))
	}

	err = cpu.Memory.LoadRom(rom)
	if err != nil {
		return
	}

	cpu.Registers.Reset()
	cpu.Display.Clear()
	cpu.Keyboard.Reset()

	return
}

// fetch reads the big-endian instruction word at the program counter.
// The program counter is not advanced; Execute decides where it goes.
func (cpu *Cpu) fetch() (code Code, err error) {
	word, err := cpu.Memory.Range(cpu.Registers.PC, 2)
	if err != nil {
		return
	}

	code = MakeCode(word[0], word[1])
	return
}

// Tick executes a single instruction cycle: decrement the timers, fetch
// the word at the program counter, and execute it.
func (cpu *Cpu) Tick() (err error) {
	cpu.Registers.tickTimers()

	code, err := cpu.fetch()
	if err != nil {
		return
	}

	if cpu.Verbose {
		log.Printf("%03x: %v", cpu.Registers.PC, code)
	}

	return cpu.Execute(code)
}

// Execute executes a single decoded instruction.
//
// Every instruction advances the program counter by 2, except jumps and
// calls (which set it), skips (which add 4 when taken), and an unresolved
// key wait (which leaves it in place to re-execute). A fault returns
// before the program counter moves, so the engine state stays at the
// faulting instruction.
func (cpu *Cpu) Execute(code Code) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()

	r := &cpu.Registers
	x := code.X()
	y := code.Y()

	next := r.PC + 2
	skip := func(taken bool) {
		if taken {
			next += 2
		}
	}

	switch code.Family() {
	case 0x0:
		switch code {
		case 0x00E0: // CLS
			cpu.Display.Clear()
		case 0x00EE: // RET
			addr, ok := r.Stack.Pop()
			if !ok {
				return ErrStackEmpty
			}
			next = addr
		default: // SYS is not implemented on this machine.
			return ErrOpcodeDecode
		}
	case 0x1: // JP nnn
		next = code.NNN()
	case 0x2: // CALL nnn
		if r.Stack.Full() {
			return ErrStackFull
		}
		r.Stack.Push(next)
		next = code.NNN()
	case 0x3: // SE Vx, kk
		skip(r.V[x] == code.KK())
	case 0x4: // SNE Vx, kk
		skip(r.V[x] != code.KK())
	case 0x5: // SE Vx, Vy
		if code.N() != 0 {
			return ErrOpcodeDecode
		}
		skip(r.V[x] == r.V[y])
	case 0x6: // LD Vx, kk
		r.V[x] = code.KK()
	case 0x7: // ADD Vx, kk, no flag
		r.V[x] += code.KK()
	case 0x8:
		err = cpu.executeAlu(code)
		if err != nil {
			return
		}
	case 0x9: // SNE Vx, Vy
		if code.N() != 0 {
			return ErrOpcodeDecode
		}
		skip(r.V[x] != r.V[y])
	case 0xA: // LD I, nnn
		r.I = code.NNN()
	case 0xB: // JP V0, nnn
		next = code.NNN() + uint16(r.V[0])
	case 0xC: // RND Vx, kk
		r.V[x] = uint8(cpu.Rand.Uint32()) & code.KK()
	case 0xD: // DRW Vx, Vy, n
		sprite, serr := cpu.Memory.Range(r.I, uint16(code.N()))
		if serr != nil {
			return serr
		}
		r.setFlag(cpu.Display.DrawSprite(r.V[x], r.V[y], sprite))
	case 0xE:
		key := r.V[x]
		if key >= io.KEY_COUNT {
			return ErrKeyInvalid
		}
		switch code.KK() {
		case 0x9E: // SKP Vx
			skip(cpu.Keyboard.IsPressed(key))
		case 0xA1: // SKNP Vx
			skip(!cpu.Keyboard.IsPressed(key))
		default:
			return ErrOpcodeDecode
		}
	case 0xF:
		switch code.KK() {
		case 0x07: // LD Vx, DT
			r.V[x] = r.Delay
		case 0x0A: // LD Vx, K
			key, ok := cpu.Keyboard.WaitKey()
			if !ok {
				// Not resolved; re-execute this instruction next tick.
				next = r.PC
				break
			}
			r.V[x] = key
		case 0x15: // LD DT, Vx
			r.Delay = r.V[x]
		case 0x18: // LD ST, Vx
			r.Sound = r.V[x]
		case 0x1E: // ADD I, Vx
			r.I += uint16(r.V[x])
		case 0x29: // LD F, Vx
			r.I = FONT_START + uint16(r.V[x])*FONT_STRIDE
		case 0x33: // LD B, Vx
			digits, derr := cpu.Memory.Range(r.I, 3)
			if derr != nil {
				return derr
			}
			digits[0] = r.V[x] / 100
			digits[1] = (r.V[x] % 100) / 10
			digits[2] = r.V[x] % 10
		case 0x55: // LD [I], Vx
			dst, derr := cpu.Memory.Range(r.I, uint16(x)+1)
			if derr != nil {
				return derr
			}
			copy(dst, r.V[:x+1])
		case 0x65: // LD Vx, [I]
			src, serr := cpu.Memory.Range(r.I, uint16(x)+1)
			if serr != nil {
				return serr
			}
			copy(r.V[:x+1], src)
		default:
			return ErrOpcodeDecode
		}
	default:
		return ErrOpcodeDecode
	}

	r.PC = next
	return
}

// executeAlu executes the 8xyN register-to-register group. The flag
// register is written after the result, so vF always holds the flag
// output even when it is also the destination.
func (cpu *Cpu) executeAlu(code Code) (err error) {
	r := &cpu.Registers
	x := code.X()
	y := code.Y()

	switch code.N() {
	case 0x0: // LD Vx, Vy
		r.V[x] = r.V[y]
	case 0x1: // OR Vx, Vy
		r.V[x] |= r.V[y]
	case 0x2: // AND Vx, Vy
		r.V[x] &= r.V[y]
	case 0x3: // XOR Vx, Vy
		r.V[x] ^= r.V[y]
	case 0x4: // ADD Vx, Vy
		carry := uint16(r.V[x])+uint16(r.V[y]) > 0xff
		r.V[x] += r.V[y]
		r.setFlag(carry)
	case 0x5: // SUB Vx, Vy
		noBorrow := r.V[x] > r.V[y]
		r.V[x] -= r.V[y]
		r.setFlag(noBorrow)
	case 0x6: // SHR Vx
		lsb := r.V[x]&0x01 != 0
		r.V[x] >>= 1
		r.setFlag(lsb)
	case 0x7: // SUBN Vx, Vy
		noBorrow := r.V[y] > r.V[x]
		r.V[x] = r.V[y] - r.V[x]
		r.setFlag(noBorrow)
	case 0xE: // SHL Vx
		msb := r.V[x]&0x80 != 0
		r.V[x] <<= 1
		r.setFlag(msb)
	default:
		err = ErrOpcodeDecode
	}

	return
}
