package tokenizer

import (
	"github.com/lestrrat-go/xmlstream"
	"github.com/lestrrat-go/xmlstream/xerr"
)

// scanDoctype scans a "<!DOCTYPE ...>" declaration, with or without an
// internal subset, emitting its raw text (from after "<!" to before the
// closing '>') as a single Doctype event (spec §4.2, §4.5). The DTD
// parser in package dtd re-parses this raw text into a Model.
func (t *Tokenizer) scanDoctype(startPos xmlstream.Position) xmlstream.Event {
	t.advance(2) // consume "<!", leaving "DOCTYPE ..." at the cursor
	rawStart := t.cursor

	end, ok := t.findDoctypeEnd()
	if !ok {
		return t.errEvent(xerr.ParseError, "unterminated DOCTYPE declaration")
	}
	raw := string(t.buf[rawStart : rawStart+end])
	t.advance(end)
	t.advance(1) // consume the closing '>'
	t.constructCount++
	return xmlstream.NewDoctype(startPos, raw)
}

// findDoctypeEnd locates the '>' that closes the DOCTYPE declaration
// begun at the cursor (positioned right after "<!"), honoring quoted
// strings, "<!-- -->" comments, and nested "<...>" markup declarations
// inside the internal subset (spec §9: this must be a hand-written
// scanner, not a regular expression, since none of those constructs
// nest regularly). Returns the offset of the matching '>' relative to
// the cursor, not including it.
//
// The scan tracks a single angle-bracket depth starting at 1 (the
// DOCTYPE's own still-open '<'): every internal-subset declaration
// ("<!ELEMENT ...>", "<!ATTLIST ...>", "<!ENTITY ...>", "<!NOTATION
// ...>") is a sibling '<...>' pair that pushes depth to 2 and pops it
// back to 1, so depth only reaches 0 at the DOCTYPE's own terminator.
// Square brackets delimiting the internal subset need no separate
// tracking under this scheme; they are literal characters that never
// participate in angle-bracket matching.
func (t *Tokenizer) findDoctypeEnd() (int, bool) {
	i := 0
	depth := 1
	var quote byte
	inComment := false

	for {
		if !t.ensure(i + 1) {
			return 0, false
		}
		c := t.buf[t.cursor+i]

		switch {
		case inComment:
			if c == '>' && i >= 2 && t.buf[t.cursor+i-1] == '-' && t.buf[t.cursor+i-2] == '-' {
				inComment = false
			}
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
			i++
		case c == '"' || c == '\'':
			quote = c
			i++
		case c == '<' && t.hasPrefixAt(i, "<!--"):
			inComment = true
			i += 4
		case c == '<':
			depth++
			i++
		case c == '>':
			depth--
			if depth == 0 {
				return i, true
			}
			i++
		default:
			i++
		}
	}
}
