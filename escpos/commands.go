// Package escpos encodes printer operations into ESC/POS byte sequences.
//
// Every function returns a fresh slice. Functions that take a range-limited
// argument return a *fault.Error of kind Validation instead of clamping.
package escpos

import (
	"github.com/nixxel-company-limited/escpos-go/fault"
)

// Control bytes.
const (
	ESC = 0x1B
	GS  = 0x1D
	LF  = 0x0A
)

// Text size multipliers accepted by TextSize.
const (
	MinTextMultiplier = 1
	MaxTextMultiplier = 8
)

// Init resets the printer to its power-on state (ESC @).
func Init() []byte {
	return []byte{ESC, '@'}
}

// Reset restores default formatting without re-initializing the printer:
// left alignment, font A, no emphasis, no underline, no double-strike,
// normal size, default line spacing, no flip, no reverse colours.
func Reset() []byte {
	var b []byte
	b = append(b, ESC, 'a', byte(AlignLeft))
	b = append(b, ESC, '!', 0x00)
	b = append(b, ESC, 'M', byte(FontA))
	b = append(b, ESC, 'E', 0)
	b = append(b, ESC, '-', byte(UnderlineNone))
	b = append(b, ESC, 'G', 0)
	b = append(b, GS, '!', 0x00)
	b = append(b, ESC, '2')
	b = append(b, ESC, '{', 0)
	b = append(b, GS, 'B', 0)
	return b
}

// Align sets justification (ESC a n).
func Align(a Alignment) ([]byte, error) {
	if !a.Valid() {
		return nil, fault.Invalid("align", a, "unknown alignment")
	}
	return []byte{ESC, 'a', byte(a)}, nil
}

// LeftMargin sets the left margin in dots (GS L nL nH).
func LeftMargin(dots uint16) []byte {
	return []byte{GS, 'L', byte(dots), byte(dots >> 8)}
}

// PrintWidth sets the printable area width in dots (GS W nL nH).
func PrintWidth(dots uint16) []byte {
	return []byte{GS, 'W', byte(dots), byte(dots >> 8)}
}

// SelectFont selects a character font (ESC M n).
func SelectFont(f Font) ([]byte, error) {
	if !f.Valid() {
		return nil, fault.Invalid("font", f, "unknown font")
	}
	return []byte{ESC, 'M', byte(f)}, nil
}

// Bold turns emphasized mode on or off (ESC E n).
func Bold(on bool) []byte {
	return []byte{ESC, 'E', flag(on)}
}

// TextSize sets character width and height multipliers (GS ! n).
// Both multipliers must be within 1..8.
func TextSize(width, height uint8) ([]byte, error) {
	if width < MinTextMultiplier || width > MaxTextMultiplier {
		return nil, fault.Invalid("text_size", width, "width multiplier must be %d..%d", MinTextMultiplier, MaxTextMultiplier)
	}
	if height < MinTextMultiplier || height > MaxTextMultiplier {
		return nil, fault.Invalid("text_size", height, "height multiplier must be %d..%d", MinTextMultiplier, MaxTextMultiplier)
	}
	return []byte{GS, '!', (width-1)<<4 | (height - 1)}, nil
}

// ResetTextSize restores 1x1 characters.
func ResetTextSize() []byte {
	return []byte{GS, '!', 0x00}
}

// Underline sets the underline mode (ESC - n).
func Underline(mode UnderlineMode) ([]byte, error) {
	if !mode.Valid() {
		return nil, fault.Invalid("underline", mode, "unknown underline mode")
	}
	return []byte{ESC, '-', byte(mode)}, nil
}

// DoubleStrike turns double-strike mode on or off (ESC G n).
func DoubleStrike(on bool) []byte {
	return []byte{ESC, 'G', flag(on)}
}

// LineSpacing sets the line spacing to n motion units (ESC 3 n).
func LineSpacing(n uint8) []byte {
	return []byte{ESC, '3', n}
}

// ResetLineSpacing selects the default line spacing (ESC 2).
func ResetLineSpacing() []byte {
	return []byte{ESC, '2'}
}

// Flip turns upside-down printing on or off (ESC { n).
func Flip(on bool) []byte {
	return []byte{ESC, '{', flag(on)}
}

// Reverse turns white-on-black printing on or off (GS B n).
func Reverse(on bool) []byte {
	return []byte{GS, 'B', flag(on)}
}

// Feed prints the buffer and feeds n lines (ESC d n). Zero lines encodes to
// nothing.
func Feed(n uint8) []byte {
	if n == 0 {
		return nil
	}
	return []byte{ESC, 'd', n}
}

// ReverseFeed prints the buffer and feeds n lines backwards (ESC e n). Zero
// lines encodes to nothing.
func ReverseFeed(n uint8) []byte {
	if n == 0 {
		return nil
	}
	return []byte{ESC, 'e', n}
}

// Cut performs a full cut (GS V 0).
func Cut() []byte {
	return []byte{GS, 'V', 0x00}
}

// PartialCut performs a cut leaving one point uncut (GS V 1).
func PartialCut() []byte {
	return []byte{GS, 'V', 0x01}
}

// Text returns s as printable bytes.
func Text(s string) []byte {
	return []byte(s)
}

// Line returns s followed by a line feed.
func Line(s string) []byte {
	b := make([]byte, 0, len(s)+1)
	b = append(b, s...)
	return append(b, LF)
}

func flag(on bool) byte {
	if on {
		return 1
	}
	return 0
}
