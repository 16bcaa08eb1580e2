// Package charclass implements the W3C XML 1.0 NameStartChar/NameChar
// predicates for both the Fourth and Fifth Editions, plus PubidChar
// (spec §4.1). Edition 5 is ordinary inline range comparisons, ASCII
// first, in the style of helium's isInCharacterRange (dump.go); Edition
// 4 is a hybrid of inline ASCII checks and a compile-time bitmap for the
// 0x0100-0xFFFF range (see bitmap.go).
package charclass

//go:generate go run ./gen

// StartChar5 reports whether r is a valid XML 1.0 Fifth Edition
// NameStartChar.
func StartChar5(r rune) bool {
	switch {
	case r == ':' || r == '_':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= 0xC0 && r <= 0xD6:
		return true
	case r >= 0xD8 && r <= 0xF6:
		return true
	case r >= 0xF8 && r <= 0x2FF:
		return true
	case r >= 0x370 && r <= 0x37D:
		return true
	case r >= 0x37F && r <= 0x1FFF:
		return true
	case r >= 0x200C && r <= 0x200D:
		return true
	case r >= 0x2070 && r <= 0x218F:
		return true
	case r >= 0x2C00 && r <= 0x2FEF:
		return true
	case r >= 0x3001 && r <= 0xD7FF:
		return true
	case r >= 0xF900 && r <= 0xFDCF:
		return true
	case r >= 0xFDF0 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0xEFFFF:
		return true
	default:
		return false
	}
}

// Char5 reports whether r is a valid XML 1.0 Fifth Edition NameChar:
// NameStartChar extended with '-', '.', digits, U+00B7, the combining
// diacritical marks block, and U+203F-U+2040.
func Char5(r rune) bool {
	switch {
	case StartChar5(r):
		return true
	case r == '-' || r == '.':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == 0xB7:
		return true
	case r >= 0x0300 && r <= 0x036F:
		return true
	case r >= 0x203F && r <= 0x2040:
		return true
	default:
		return false
	}
}
