package contract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxWidth is the widest Word in bits.
const MaxWidth = 256

const limbBits = 64

// Word is an unsigned integer of up to 256 bits stored as little-endian
// 64-bit limbs: Word[0] holds bits 0..63.
type Word [4]uint64

// ErrWordTooWide is returned by ParseWord for literals over 256 bits.
var ErrWordTooWide = errors.New("hex literal exceeds 256 bits")

// FromUint64 returns a Word holding v.
func FromUint64(v uint64) Word {
	return Word{v}
}

// Mask returns a Word with the low width bits set.
func Mask(width int) Word {
	var m Word

	for i := range m {
		lo := i * limbBits

		switch {
		case width >= lo+limbBits:
			m[i] = ^uint64(0)
		case width > lo:
			m[i] = (uint64(1) << uint(width-lo)) - 1
		}
	}

	return m
}

// RepeatNibble fills the low width bits with the hex digit n:
// RepeatNibble(0xA, 16) is 0xAAAA.
func RepeatNibble(n byte, width int) Word {
	limb := uint64(0)
	for range limbBits / 4 {
		limb = limb<<4 | uint64(n&0xF)
	}

	return Word{limb, limb, limb, limb}.And(Mask(width))
}

// And returns w & o.
func (w Word) And(o Word) Word {
	for i := range w {
		w[i] &= o[i]
	}

	return w
}

// Xor returns w ^ o.
func (w Word) Xor(o Word) Word {
	for i := range w {
		w[i] ^= o[i]
	}

	return w
}

// Masked truncates w to width bits.
func (w Word) Masked(width int) Word {
	return w.And(Mask(width))
}

// IsZero reports whether every bit is clear.
func (w Word) IsZero() bool {
	return w == Word{}
}

// Uint64 returns the low 64 bits.
func (w Word) Uint64() uint64 {
	return w[0]
}

// Limb returns the i-th 64-bit limb, least significant first.
func (w Word) Limb(i int) uint64 {
	return w[i]
}

// Hex formats the low width bits as lowercase hex without a prefix,
// zero-padded to one digit per four bits (at least one digit).
func (w Word) Hex(width int) string {
	digits := HexDigits(width)

	var b strings.Builder

	for i := len(w) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "%016x", w[i])
	}

	s := b.String()

	return s[len(s)-digits:]
}

// String formats the full 256-bit value with a 0x prefix, without
// leading zeros.
func (w Word) String() string {
	s := strings.TrimLeft(w.Hex(MaxWidth), "0")
	if s == "" {
		s = "0"
	}

	return "0x" + s
}

// HexDigits is the number of hex digits Hex produces for width.
func HexDigits(width int) int {
	return max(1, (width+3)/4)
}

// ParseWord parses a hex literal with an optional 0x prefix.
func ParseWord(s string) (Word, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return Word{}, fmt.Errorf("parse word: empty literal")
	}

	s = strings.TrimLeft(s, "0")
	if len(s) > MaxWidth/4 {
		return Word{}, ErrWordTooWide
	}

	var w Word

	for i := 0; s != ""; i++ {
		cut := max(0, len(s)-limbBits/4)

		limb, err := strconv.ParseUint(s[cut:], 16, 64)
		if err != nil {
			return Word{}, fmt.Errorf("parse word %q: %w", s, err)
		}

		w[i] = limb
		s = s[:cut]
	}

	return w, nil
}
