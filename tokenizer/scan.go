package tokenizer

import (
	"bytes"

	"github.com/lestrrat-go/xmlstream"
	"github.com/lestrrat-go/xmlstream/xerr"
)

// findTerminator searches for sep starting at the cursor, pulling
// further chunks from the source as needed (spec §5's chunked-input
// requirement). Returns the offset of sep relative to the cursor, or
// ok=false if the source is exhausted before sep appears.
func (t *Tokenizer) findTerminator(sep []byte) (int, bool) {
	for {
		avail := t.buf[t.cursor:]
		if idx := bytes.Index(avail, sep); idx != -1 {
			return idx, true
		}
		if t.atEOF {
			return -1, false
		}
		if !t.ensure(len(avail) + 1) {
			return -1, false
		}
	}
}

// scanText consumes a run of character data up to the next '<' or EOF,
// resolving entities and line-ending normalization, and classifies it
// as Characters or Whitespace (spec §4.3, §4.4).
func (t *Tokenizer) scanText() xmlstream.Event {
	startPos := t.pos()
	idx, found := t.findTerminator([]byte{'<'})
	var raw string
	if found {
		raw = string(t.buf[t.cursor : t.cursor+idx])
		t.advance(idx)
	} else {
		raw = string(t.buf[t.cursor:])
		t.advance(len(t.buf) - t.cursor)
	}
	t.constructCount++

	content := resolveText(raw)
	if isAllWhitespace(content) {
		return xmlstream.NewText(xmlstream.Whitespace, startPos, content)
	}
	return xmlstream.NewText(xmlstream.Characters, startPos, content)
}

// scanPIOrProlog handles both "<?xml ...?>" (the Prolog, only valid as
// the document's first construct) and ordinary "<?target data?>"
// processing instructions. A non-leading "<?xml?>" is a ParseError, the
// resolved reading of an Open Question in spec §9.
func (t *Tokenizer) scanPIOrProlog() xmlstream.Event {
	startPos := t.pos()
	t.advance(2) // "<?"

	name, ok := t.scanName()
	if !ok {
		return t.errEvent(xerr.InvalidNameStart, "expected a target name after '<?'")
	}

	if name == "xml" {
		if t.constructCount != 0 {
			t.constructCount++
			return t.errEvent(xerr.ParseError, "an xml declaration may only appear as the document's first construct")
		}
		attrs := t.scanPseudoAttrs()
		b1, ok1 := t.byteAt(0)
		b2, ok2 := t.byteAt(1)
		if !ok1 || !ok2 || b1 != '?' || b2 != '>' {
			return t.errEvent(xerr.UnclosedProcessingInstruction, "unterminated xml declaration")
		}
		t.advance(2)
		t.constructCount++
		return xmlstream.NewProlog(startPos, attrs)
	}

	t.skipWS()
	dataStart := t.cursor
	idx, found := t.findTerminator([]byte("?>"))
	if !found {
		return t.errEvent(xerr.UnclosedProcessingInstruction, "unterminated processing instruction %q", name)
	}
	data := string(t.buf[dataStart : dataStart+idx])
	t.advance(idx)
	t.advance(2)
	t.constructCount++
	return xmlstream.NewPI(startPos, name, data)
}

// scanBang dispatches "<!"-prefixed constructs: comments, CDATA
// sections, and DOCTYPE declarations.
func (t *Tokenizer) scanBang() xmlstream.Event {
	startPos := t.pos()

	if t.hasPrefixAt(0, "<!--") {
		return t.scanComment(startPos)
	}
	if t.hasPrefixAt(0, "<![CDATA[") {
		return t.scanCDATA(startPos)
	}
	if t.hasPrefixAt(0, "<!DOCTYPE") {
		return t.scanDoctype(startPos)
	}

	t.advance(2)
	t.constructCount++
	return t.errEvent(xerr.ParseError, "unrecognized '<!' construct")
}

// hasPrefixAt reports whether the bytes at cursor+off start with s,
// pulling chunks as needed.
func (t *Tokenizer) hasPrefixAt(off int, s string) bool {
	t.ensure(off + len(s))
	avail := t.buf[t.cursor:]
	if off > len(avail) {
		return false
	}
	return bytes.HasPrefix(avail[off:], []byte(s))
}

func (t *Tokenizer) scanComment(startPos xmlstream.Position) xmlstream.Event {
	t.advance(4) // "<!--"
	idx, found := t.findTerminator([]byte("-->"))
	if !found {
		return t.errEvent(xerr.UnclosedComment, "unterminated comment")
	}
	raw := string(t.buf[t.cursor : t.cursor+idx])
	t.advance(idx)
	t.advance(3)
	t.constructCount++
	return xmlstream.NewComment(startPos, normalizeNewlines(raw))
}

func (t *Tokenizer) scanCDATA(startPos xmlstream.Position) xmlstream.Event {
	t.advance(9) // "<![CDATA["
	idx, found := t.findTerminator([]byte("]]>"))
	if !found {
		return t.errEvent(xerr.UnclosedCDATA, "unterminated CDATA section")
	}
	raw := string(t.buf[t.cursor : t.cursor+idx])
	t.advance(idx)
	t.advance(3)
	t.constructCount++
	return xmlstream.NewCDATA(startPos, normalizeNewlines(raw))
}

func (t *Tokenizer) scanEndTag() xmlstream.Event {
	startPos := t.pos()
	t.advance(2) // "</"

	name, ok := t.scanName()
	if !ok {
		return t.errEvent(xerr.InvalidNameStart, "expected element name in end tag")
	}
	t.skipWS()
	if b, ok := t.byteAt(0); !ok || b != '>' {
		return t.errEvent(xerr.UnclosedTag, "expected '>' to close end tag %q", name)
	}
	t.advance(1)
	t.constructCount++

	prefix, _ := splitQName(name)
	return xmlstream.NewEndElement(startPos, name, prefix)
}

func (t *Tokenizer) scanStartTag() xmlstream.Event {
	startPos := t.pos()
	t.advance(1) // "<"

	name, ok := t.scanName()
	if !ok {
		return t.errEvent(xerr.InvalidNameStart, "expected element name")
	}

	attrs, selfClose, errEv := t.scanStartTagAttrs()
	if errEv != nil {
		return *errEv
	}
	t.constructCount++
	t.sawRoot = true

	prefix, _ := splitQName(name)
	ev := xmlstream.NewStartElement(startPos, name, prefix, xmlstream.NewAttributeList(attrs))
	if selfClose {
		t.queue = append(t.queue, xmlstream.NewEndElement(startPos, name, prefix))
	}
	return ev
}
