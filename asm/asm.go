// Package asm implements an assembler for the CHIP-8 instruction set,
// using the conventional two-operand mnemonics (CLS, JP, LD, DRW, ...).
//
// Source lines are `[label:] mnemonic [operand[, operand...]]` with `;`
// comments. `.equ NAME value` defines an equate, `.db` emits raw bytes,
// and `$( ... )` evaluates a compile-time Starlark expression with all
// equates and predefines in scope. Forward jump targets are recorded per
// opcode and resolved in a final link step.
package asm

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ocho8/ocho/cpu"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Opcode represents an assembled source line with its generated bytes.
type Opcode struct {
	LineNo    int
	Addr      uint16
	Words     []string
	Bytes     []uint8
	LinkLabel string // Unresolved address operand, patched at link time.
}

// Assembler is a single pass assembler with link-time label resolution.
type Assembler struct {
	Verbose bool   // If set, verbosely logs the assembler actions.
	Origin  uint16 // Address of the first emitted byte; cpu.PROGRAM_START if zero.

	Opcode []Opcode          // List of generated opcodes.
	Label  map[string]uint16 // Map of labels to their addresses.
	Equate map[string]string // Map of equates.

	predefine map[string]string // Predefines
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

var labelRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// valueOf returns the numeric value of a word, resolving equates first.
func (asm *Assembler) valueOf(word string) (value uint16, err error) {
	for range len(asm.Equate) + 1 {
		next, ok := asm.Equate[word]
		if !ok {
			break
		}
		word = next
	}

	v64, err := strconv.ParseInt(word, 0, 17)
	if err != nil || v64 < 0 {
		err = ErrParseNumber(word)
		return
	}

	value = uint16(v64)
	return
}

// register returns the register index of a v0-vF operand.
func register(word string) (reg uint8, ok bool) {
	if len(word) != 2 || (word[0] != 'v' && word[0] != 'V') {
		return
	}

	v64, err := strconv.ParseUint(word[1:], 16, 4)
	if err != nil {
		return
	}

	return uint8(v64), true
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint16, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value16 uint16
		value16, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(int(value16))
	}
	err = nil
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok || st_int64 < 0 || st_int64 > 0xffff {
		err = ErrParseExpression(expr)
		return
	}
	value = uint16(st_int64)
	return
}

// parseLine splits a source line into operand words, after stripping the
// comment and expanding $() expressions.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	if n := strings.IndexByte(line, ';'); n >= 0 {
		line = line[:n]
	}

	// Do $() evaluations
	re := regexp.MustCompile(`\$\([^\$\)]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	words = strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})

	return
}

// Parse assembles the source into a ROM image ready for loading at the
// program origin.
func (asm *Assembler) Parse(in io.Reader) (rom []byte, err error) {
	asm.Opcode = nil
	asm.Label = map[string]uint16{}
	asm.Equate = map[string]string{}
	for key, value := range sysEquate {
		asm.Equate[key] = value
	}
	for key, value := range asm.predefine {
		asm.Equate[key] = value
	}

	origin := asm.Origin
	if origin == 0 {
		origin = cpu.PROGRAM_START
	}

	lineno := 0
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		lineno++
		line := scanner.Text()

		err = asm.parseOne(line, lineno, origin)
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
			return
		}
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	return asm.link(origin)
}

// parseOne assembles a single source line into zero or more opcodes.
func (asm *Assembler) parseOne(line string, lineno int, origin uint16) (err error) {
	words, err := asm.parseLine(line, lineno)
	if err != nil {
		return
	}

	// Leading label.
	if len(words) > 0 && strings.HasSuffix(words[0], ":") {
		label := strings.TrimSuffix(words[0], ":")
		if !labelRe.MatchString(label) {
			return ErrTargetInvalid
		}
		if _, dup := asm.Label[label]; dup {
			return ErrLabelDuplicate
		}
		asm.Label[label] = asm.here(origin)
		words = words[1:]
	}

	if len(words) == 0 {
		return
	}

	if asm.Verbose {
		log.Printf("asm: %03x: %v", asm.here(origin), words)
	}

	op := Opcode{
		LineNo: lineno,
		Addr:   asm.here(origin),
		Words:  words,
	}

	switch strings.ToLower(words[0]) {
	case ".equ":
		if len(words) != 3 {
			return ErrEquateSyntax
		}
		if _, dup := asm.Equate[words[1]]; dup {
			return ErrEquateDuplicate
		}
		asm.Equate[words[1]] = words[2]
		return
	case ".db":
		for _, word := range words[1:] {
			var value uint16
			value, err = asm.valueOf(word)
			if err != nil {
				return
			}
			if value > 0xff {
				return ErrValueRange(word)
			}
			op.Bytes = append(op.Bytes, uint8(value))
		}
	default:
		var code cpu.Code
		code, op.LinkLabel, err = asm.assemble(words)
		if err != nil {
			return
		}
		op.Bytes = []uint8{uint8(code >> 8), uint8(code)}
	}

	asm.Opcode = append(asm.Opcode, op)
	return
}

// here returns the address of the next byte to emit.
func (asm *Assembler) here(origin uint16) uint16 {
	addr := origin
	for _, op := range asm.Opcode {
		addr += uint16(len(op.Bytes))
	}

	return addr
}

// link patches the recorded label references and concatenates the image.
func (asm *Assembler) link(origin uint16) (rom []byte, err error) {
	for n := range asm.Opcode {
		op := &asm.Opcode[n]
		if op.LinkLabel == "" {
			rom = append(rom, op.Bytes...)
			continue
		}

		addr, ok := asm.Label[op.LinkLabel]
		if !ok {
			err = ErrSyntax{LineNo: op.LineNo, Line: strings.Join(op.Words, " "), Err: ErrLabelMissing(op.LinkLabel)}
			return
		}

		code := cpu.MakeCode(op.Bytes[0], op.Bytes[1])
		code = code&0xf000 | cpu.Code(addr&0x0fff)
		op.Bytes = []uint8{uint8(code >> 8), uint8(code)}
		rom = append(rom, op.Bytes...)
	}

	return
}

// addr parses a 12-bit address operand, which may be a forward label.
func (asm *Assembler) addr(word string) (value uint16, link string, err error) {
	value, err = asm.valueOf(word)
	if err == nil {
		if value > 0xfff {
			err = ErrValueRange(word)
		}
		return
	}

	if labelRe.MatchString(word) {
		// Resolved at link time.
		err = nil
		link = word
		return
	}

	return
}

// imm parses an immediate operand of at most max.
func (asm *Assembler) imm(word string, max uint16) (value uint16, err error) {
	value, err = asm.valueOf(word)
	if err != nil {
		return
	}

	if value > max {
		err = ErrValueRange(word)
	}

	return
}

// assemble encodes a single instruction from its mnemonic and operands.
func (asm *Assembler) assemble(words []string) (code cpu.Code, link string, err error) {
	op := strings.ToLower(words[0])
	args := words[1:]

	need := func(n int) bool {
		if len(args) != n {
			err = ErrOpcodeArgs
		}
		return err == nil
	}

	nnn := func(family cpu.Code, word string) {
		var value uint16
		value, link, err = asm.addr(word)
		code = family | cpu.Code(value&0xfff)
	}

	xkk := func(family cpu.Code, xw, kw string) {
		x, ok := register(xw)
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		var kk uint16
		kk, err = asm.imm(kw, 0xff)
		code = family | cpu.Code(x)<<8 | cpu.Code(kk)
	}

	xy := func(family cpu.Code, xw, yw string) {
		x, okx := register(xw)
		y, oky := register(yw)
		if !okx || !oky {
			err = ErrRegisterInvalid
			return
		}
		code = family | cpu.Code(x)<<8 | cpu.Code(y)<<4
	}

	fx := func(family cpu.Code, xw string) {
		x, ok := register(xw)
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		code = family | cpu.Code(x)<<8
	}

	switch op {
	case "cls":
		if need(0) {
			code = 0x00E0
		}
	case "ret":
		if need(0) {
			code = 0x00EE
		}
	case "sys":
		if need(1) {
			nnn(0x0000, args[0])
		}
	case "jp":
		if len(args) == 2 && strings.EqualFold(args[0], "v0") {
			nnn(0xB000, args[1])
		} else if need(1) {
			nnn(0x1000, args[0])
		}
	case "call":
		if need(1) {
			nnn(0x2000, args[0])
		}
	case "se":
		if need(2) {
			if _, ok := register(args[1]); ok {
				xy(0x5000, args[0], args[1])
			} else {
				xkk(0x3000, args[0], args[1])
			}
		}
	case "sne":
		if need(2) {
			if _, ok := register(args[1]); ok {
				xy(0x9000, args[0], args[1])
			} else {
				xkk(0x4000, args[0], args[1])
			}
		}
	case "add":
		switch {
		case !need(2):
		case strings.EqualFold(args[0], "i"):
			fx(0xF01E, args[1])
		case isRegister(args[1]):
			xy(0x8004, args[0], args[1])
		default:
			xkk(0x7000, args[0], args[1])
		}
	case "or":
		if need(2) {
			xy(0x8001, args[0], args[1])
		}
	case "and":
		if need(2) {
			xy(0x8002, args[0], args[1])
		}
	case "xor":
		if need(2) {
			xy(0x8003, args[0], args[1])
		}
	case "sub":
		if need(2) {
			xy(0x8005, args[0], args[1])
		}
	case "subn":
		if need(2) {
			xy(0x8007, args[0], args[1])
		}
	case "shr":
		if need(1) {
			fx(0x8006, args[0])
		}
	case "shl":
		if need(1) {
			fx(0x800E, args[0])
		}
	case "rnd":
		if need(2) {
			xkk(0xC000, args[0], args[1])
		}
	case "drw":
		if need(3) {
			xy(0xD000, args[0], args[1])
			if err == nil {
				var n uint16
				n, err = asm.imm(args[2], 0xf)
				code |= cpu.Code(n)
			}
		}
	case "skp":
		if need(1) {
			fx(0xE09E, args[0])
		}
	case "sknp":
		if need(1) {
			fx(0xE0A1, args[0])
		}
	case "ld":
		code, link, err = asm.assembleLd(args)
	default:
		err = ErrOpcodeInvalid
	}

	return
}

// assembleLd encodes the overloaded LD forms.
func (asm *Assembler) assembleLd(args []string) (code cpu.Code, link string, err error) {
	if len(args) != 2 {
		err = ErrOpcodeArgs
		return
	}

	dst := strings.ToLower(args[0])
	src := strings.ToLower(args[1])

	fx := func(family cpu.Code, word string) {
		x, ok := register(word)
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		code = family | cpu.Code(x)<<8
	}

	switch {
	case dst == "i":
		var value uint16
		value, link, err = asm.addr(args[1])
		code = 0xA000 | cpu.Code(value&0xfff)
	case dst == "dt":
		fx(0xF015, args[1])
	case dst == "st":
		fx(0xF018, args[1])
	case dst == "f":
		fx(0xF029, args[1])
	case dst == "b":
		fx(0xF033, args[1])
	case dst == "[i]":
		fx(0xF055, args[1])
	case isRegister(args[0]) && src == "dt":
		fx(0xF007, args[0])
	case isRegister(args[0]) && src == "k":
		fx(0xF00A, args[0])
	case isRegister(args[0]) && src == "[i]":
		fx(0xF065, args[0])
	case isRegister(args[0]) && isRegister(args[1]):
		x, _ := register(args[0])
		y, _ := register(args[1])
		code = 0x8000 | cpu.Code(x)<<8 | cpu.Code(y)<<4
	case isRegister(args[0]):
		x, _ := register(args[0])
		var kk uint16
		kk, err = asm.imm(args[1], 0xff)
		code = 0x6000 | cpu.Code(x)<<8 | cpu.Code(kk)
	default:
		err = ErrTargetInvalid
	}

	return
}

func isRegister(word string) bool {
	_, ok := register(word)
	return ok
}
