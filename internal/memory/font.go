package memory

const (
	// FontBase is the address of the first glyph of the built-in font.
	FontBase = 0x050

	// GlyphSize is the number of bytes, and sprite rows, per font glyph.
	GlyphSize = 5
)

// font contains the sprites for the hex digits 0-F, each 4 pixels wide and 5 rows high.
var font = [16 * GlyphSize]byte{
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

// LoadFont writes the font set to FontBase.
func (m *AddressSpace) LoadFont() {
	copy(m.data[FontBase:], font[:])
}

// FontAddress returns the address of the glyph sprite for the given digit.
// The digit is not masked, values above 0xF point past the font set.
func FontAddress(digit byte) uint16 {
	return FontBase + uint16(digit)*GlyphSize
}
