package charclass

type bitset int

const (
	bitStart bitset = iota
	bitChar
)

// bitmapLookup tests a single bit of the generated bitmap for r, which
// must already be known to be in [bitmapLow, bitmapLow+8*bitmapSize).
func bitmapLookup(r rune, which bitset) bool {
	idx := int(r) - bitmapLow
	byteIdx := idx / 8
	bitIdx := uint(idx % 8)

	var table *[bitmapSize]byte
	switch which {
	case bitStart:
		table = &bitmapStart
	case bitChar:
		table = &bitmapChar
	default:
		return false
	}
	return table[byteIdx]&(1<<bitIdx) != 0
}
