package cpu

const (
	MEMORY_SIZE   = 4096  // Total addressable bytes.
	PROGRAM_START = 0x200 // First address of loaded ROM code.
	FONT_START    = 0x000 // First address of the hexadecimal digit font.
	FONT_STRIDE   = 5     // Bytes per font glyph.
)

// font is the built-in hexadecimal digit font, one 8x5 glyph per digit.
var font = [16 * FONT_STRIDE]uint8{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Memory is the flat byte-addressable memory. Addresses below
// PROGRAM_START are reserved for the interpreter; the font lives there.
type Memory struct {
	Data [MEMORY_SIZE]uint8
}

// LoadRom clears memory, installs the font at FONT_START, and copies the
// ROM image to PROGRAM_START. A ROM that does not fit is rejected and
// memory is left untouched.
func (m *Memory) LoadRom(rom []byte) (err error) {
	if len(rom) > MEMORY_SIZE-PROGRAM_START {
		return ErrRomTooLarge
	}

	clear(m.Data[:])
	copy(m.Data[FONT_START:], font[:])
	copy(m.Data[PROGRAM_START:], rom)

	return
}

// ReadByte returns the byte at addr.
func (m *Memory) ReadByte(addr uint16) (value uint8, err error) {
	if int(addr) >= len(m.Data) {
		err = ErrAddress(addr)
		return
	}

	value = m.Data[addr]
	return
}

// WriteByte stores value at addr.
func (m *Memory) WriteByte(addr uint16, value uint8) (err error) {
	if int(addr) >= len(m.Data) {
		err = ErrAddress(addr)
		return
	}

	m.Data[addr] = value
	return
}

// Range returns the n bytes starting at addr as a live view into memory.
func (m *Memory) Range(addr uint16, n uint16) (data []uint8, err error) {
	if int(addr)+int(n) > len(m.Data) {
		err = ErrAddress(addr + n - 1)
		return
	}

	data = m.Data[addr : addr+n]
	return
}
