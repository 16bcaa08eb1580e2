package charclass_test

import (
	"testing"

	"github.com/lestrrat-go/xmlstream/charclass"
	"github.com/stretchr/testify/assert"
)

func TestEdition5StartChar(t *testing.T) {
	assert.True(t, charclass.StartChar5('a'))
	assert.True(t, charclass.StartChar5('_'))
	assert.True(t, charclass.StartChar5(':'))
	assert.False(t, charclass.StartChar5('1'))
	assert.False(t, charclass.StartChar5('-'))
	assert.True(t, charclass.StartChar5(0x10000))
}

func TestEdition5Char(t *testing.T) {
	assert.True(t, charclass.Char5('1'))
	assert.True(t, charclass.Char5('-'))
	assert.True(t, charclass.Char5('.'))
	assert.True(t, charclass.Char5(0xB7))
	assert.False(t, charclass.Char5(' '))
}

func TestEdition4ASCII(t *testing.T) {
	assert.True(t, charclass.StartChar4('a'))
	assert.True(t, charclass.StartChar4('_'))
	assert.True(t, charclass.StartChar4(':'))
	assert.False(t, charclass.StartChar4('1'))
	assert.True(t, charclass.Char4('1'))
}

func TestEdition4BMPBitmap(t *testing.T) {
	// U+0100 (LATIN CAPITAL LETTER A WITH MACRON, "Ā") is a letter and
	// must be accepted as a NameStartChar under both editions.
	assert.True(t, charclass.StartChar4(0x0100))
	assert.True(t, charclass.StartChar5(0x0100))
}

func TestEdition4RejectsAstral(t *testing.T) {
	// Codepoints above 0xFFFF are invalid in Edition 4 (scenario 7).
	assert.False(t, charclass.StartChar4(0x10000))
	assert.False(t, charclass.Char4(0x10000))
}

func TestEdition5IsSupersetOfEdition4(t *testing.T) {
	// Testable property (spec §8): any name valid under edition 4 is
	// also valid under edition 5.
	sample := []rune{'a', 'Z', '_', ':', '-', '.', '0', 0x0100, 0x00C0, 0x4E00}
	for _, r := range sample {
		if charclass.StartChar4(r) {
			assert.True(t, charclass.StartChar5(r), "edition5 must accept %U", r)
		}
		if charclass.Char4(r) {
			assert.True(t, charclass.Char5(r), "edition5 must accept %U", r)
		}
	}
}

func TestValidPubidChar(t *testing.T) {
	assert.True(t, charclass.ValidPubidChar(' '))
	assert.True(t, charclass.ValidPubidChar('A'))
	assert.True(t, charclass.ValidPubidChar('-'))
	assert.False(t, charclass.ValidPubidChar('<'))
	assert.False(t, charclass.ValidPubidChar('&'))
}
