// Package keypad contains the state of the 16 key hex keypad and the
// mapping of a QWERTY keyboard to it.
package keypad

// Keys is the number of keypad keys, indexed 0x0-0xF.
const Keys = 16

// State holds the pressed state of every keypad key.
type State [Keys]bool

// Set updates a key, indexes outside of 0-15 are ignored.
func (s *State) Set(index int, pressed bool) {
	if index < 0 || index >= Keys {
		return
	}
	s[index] = pressed
}

// Pressed returns whether the key is pressed. Register values above 0xF do not
// address any key and are reported as not pressed.
func (s *State) Pressed(key byte) bool {
	if int(key) >= Keys {
		return false
	}
	return s[key]
}

// FirstPressed returns the lowest index of all pressed keys.
func (s *State) FirstPressed() (byte, bool) {
	for i, pressed := range s {
		if pressed {
			return byte(i), true
		}
	}
	return 0, false
}

// Reset releases all keys.
func (s *State) Reset() {
	*s = State{}
}

// Layout maps keyboard characters to keypad indexes.
type Layout map[rune]byte

// DefaultLayout maps the left 4x4 block of a QWERTY keyboard to the COSMAC VIP
// keypad:
//
//	1 2 3 4      1 2 3 C
//	q w e r  ->  4 5 6 D
//	a s d f      7 8 9 E
//	z x c v      A 0 B F
var DefaultLayout = Layout{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

// Key returns the keypad index for a keyboard character, upper case
// characters map like their lower case variant.
func (l Layout) Key(ch rune) (byte, bool) {
	if ch >= 'A' && ch <= 'Z' {
		ch += 'a' - 'A'
	}
	key, ok := l[ch]
	return key, ok
}
