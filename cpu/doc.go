// Package cpu implements the CHIP-8 execution engine.
//
// The engine consists of a 4096-byte memory with a built-in hexadecimal
// font, sixteen 8-bit general-purpose registers (v0-vF, with vF reserved
// as the flag output of arithmetic and shift instructions), a 16-bit index
// register, a 16-entry call stack, and two 8-bit countdown timers.
//
// A single Tick decrements the timers, fetches the big-endian instruction
// word at the program counter, and executes it. Faults (unknown opcodes,
// stack exhaustion, out-of-range addresses) abort the instruction and are
// reported to the caller with the program counter left at the faulting
// instruction.
package cpu
