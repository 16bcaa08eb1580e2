package tokenizer

import (
	"strings"
	"unicode/utf8"
)

// scanName consumes a Name production (NameStartChar NameChar*) under
// the Tokenizer's edition rules, advancing the cursor. Returns ok=false
// without advancing if the current position is not a valid name start.
func (t *Tokenizer) scanName() (string, bool) {
	r, w := t.decodeRuneAt(0)
	if w == 0 || !t.rules.StartChar(r) {
		return "", false
	}
	n := w
	for {
		r, w = t.decodeRuneAt(n)
		if w == 0 || !t.rules.Char(r) {
			break
		}
		n += w
	}
	name := string(t.buf[t.cursor : t.cursor+n])
	t.advance(n)
	return name, true
}

// decodeRuneAt decodes the rune at cursor+off, pulling more chunks as
// needed so a multi-byte rune split across chunk boundaries still
// decodes correctly. Returns width 0 if no byte is available there.
func (t *Tokenizer) decodeRuneAt(off int) (rune, int) {
	t.ensure(off + utf8.UTFMax)
	if len(t.buf)-t.cursor <= off {
		return 0, 0
	}
	avail := t.buf[t.cursor+off:]
	r, w := utf8.DecodeRune(avail)
	if r == utf8.RuneError && w <= 1 {
		return 0, 0
	}
	return r, w
}

// skipWS consumes zero or more literal space/tab/newline/carriage-return
// bytes (XML 1.0 S production).
func (t *Tokenizer) skipWS() {
	for {
		if !t.ensure(1) {
			return
		}
		switch t.buf[t.cursor] {
		case ' ', '\t', '\n', '\r':
			t.advance(1)
		default:
			return
		}
	}
}

// splitQName splits a qualified name into its prefix and local part;
// prefix is empty when name is unprefixed.
func splitQName(name string) (prefix, local string) {
	if i := strings.IndexByte(name, ':'); i != -1 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// isAllWhitespace reports whether s consists entirely of XML S
// characters, used to distinguish Characters from Whitespace events.
func isAllWhitespace(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
