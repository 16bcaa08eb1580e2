package tokenizer

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/lestrrat-go/xmlstream"
	"github.com/lestrrat-go/xmlstream/charclass"
	"github.com/lestrrat-go/xmlstream/internal/debug"
	"github.com/lestrrat-go/xmlstream/xerr"
)

type state int

const (
	stateInit state = iota
	stateBody
	stateDone
)

// Tokenizer is a re-entrant, single-pass byte scanner producing
// xmlstream.Events. It is not safe to drive two concurrent parses from
// the same Tokenizer (spec §4.2); a fresh Tokenizer per parse is cheap.
type Tokenizer struct {
	src   Source
	rules charclass.Edition
	opts  xmlstream.Options

	buf    []byte
	base   int64 // absolute offset corresponding to buf[0]
	cursor int   // index into buf

	line      int
	lineStart int64 // absolute offset of the first byte of the current line

	atEOF bool // source has returned io.EOF

	state           state
	constructCount  int
	sawRoot         bool
	rootErrReported bool

	queue []xmlstream.Event
}

// New4 builds a Tokenizer enforcing Edition 4 name-character rules.
func New4(src Source, opts xmlstream.Options) *Tokenizer {
	return newTokenizer(src, charclass.Edition4Rules, opts)
}

// New5 builds a Tokenizer enforcing Edition 5 name-character rules (the
// default edition).
func New5(src Source, opts xmlstream.Options) *Tokenizer {
	return newTokenizer(src, charclass.Edition5Rules, opts)
}

// New builds a Tokenizer for opts.Edition, dispatching to New4 or New5
// so that each edition's hot path stays monomorphic over its own
// predicate pair (spec §4.2 "Edition dispatch").
func New(src Source, opts xmlstream.Options) *Tokenizer {
	if opts.Edition == xmlstream.Edition4 {
		return New4(src, opts)
	}
	return New5(src, opts)
}

func newTokenizer(src Source, rules charclass.Edition, opts xmlstream.Options) *Tokenizer {
	return &Tokenizer{
		src:       src,
		rules:     rules,
		opts:      opts,
		line:      1,
		lineStart: 0,
	}
}

// Next pulls the next Event. The second return value is false once the
// stream is exhausted (after EndDocument has already been returned).
func (t *Tokenizer) Next() (xmlstream.Event, bool) {
	if len(t.queue) > 0 {
		ev := t.queue[0]
		t.queue = t.queue[1:]
		return ev, true
	}

	switch t.state {
	case stateInit:
		t.state = stateBody
		t.consumeBOM()
		return xmlstream.NewEvent(xmlstream.StartDocument, xmlstream.Position{}), true
	case stateDone:
		return xmlstream.Event{}, false
	}

	ev, ok := t.scanOne()
	if !ok {
		t.state = stateDone
		return xmlstream.NewEvent(xmlstream.EndDocument, xmlstream.Position{}), true
	}
	t.compact()
	if debug.Enabled {
		p := t.pos()
		debug.PosPrintf(p.Line(), int(p.Column()), "tokenizer.Next: %s", ev.Kind())
	}
	return ev, true
}

func (t *Tokenizer) pos() xmlstream.Position {
	switch t.opts.Positions {
	case xmlstream.PositionsNone:
		return xmlstream.Position{}
	case xmlstream.PositionsLineOnly:
		return xmlstream.NewPosition(t.line, 0, 0)
	}
	return xmlstream.NewPosition(t.line, t.lineStart, t.base+int64(t.cursor))
}

// consumeBOM silently drops a UTF-8 byte-order mark if present (spec §6).
func (t *Tokenizer) consumeBOM() {
	if !t.ensure(3) {
		return
	}
	if bytes.HasPrefix(t.buf[t.cursor:], []byte{0xEF, 0xBB, 0xBF}) {
		t.advance(3)
	}
}

// ensure pulls chunks from src until at least n unread bytes are
// available in buf, or the source is exhausted. It reports whether n
// bytes are now available.
func (t *Tokenizer) ensure(n int) bool {
	for len(t.buf)-t.cursor < n {
		if t.atEOF {
			return len(t.buf)-t.cursor >= n
		}
		chunk, err := t.src.NextChunk()
		if len(chunk) > 0 {
			t.buf = append(t.buf, chunk...)
		}
		if err != nil {
			if err == io.EOF {
				t.atEOF = true
			} else {
				t.atEOF = true // treat any read error as end of input
			}
		}
		if len(chunk) == 0 && t.atEOF {
			return len(t.buf)-t.cursor >= n
		}
	}
	return true
}

// advance moves the cursor forward by k bytes over already-available
// buffer content, maintaining line/column bookkeeping. Line breaks are
// counted per the normalized-newline rule (\r\n and lone \r each count
// as a single break) even though the raw bytes are left untouched here;
// normalization of the extracted substrings happens in resolveText.
func (t *Tokenizer) advance(k int) {
	end := t.cursor + k
	for i := t.cursor; i < end; i++ {
		switch t.buf[i] {
		case '\n':
			t.line++
			t.lineStart = t.base + int64(i+1)
		case '\r':
			if i+1 < len(t.buf) && t.buf[i+1] == '\n' {
				continue // counted when we reach the '\n'
			}
			t.line++
			t.lineStart = t.base + int64(i+1)
		}
	}
	t.cursor = end
}

// compact drops already-consumed bytes from the front of buf, bounding
// the working buffer to roughly the largest still-pending token (spec
// §4.2, §5).
func (t *Tokenizer) compact() {
	if t.cursor == 0 {
		return
	}
	t.buf = append(t.buf[:0], t.buf[t.cursor:]...)
	t.base += int64(t.cursor)
	t.cursor = 0
}

// BufferedBytes reports the size of the working buffer, which
// compact() keeps bounded to roughly the largest still-pending token
// rather than the whole document (spec §4.2, §5). Exposed for callers
// and tests that need to observe the memory bound directly.
func (t *Tokenizer) BufferedBytes() int {
	return len(t.buf)
}

func (t *Tokenizer) byteAt(off int) (byte, bool) {
	if !t.ensure(off + 1) {
		return 0, false
	}
	return t.buf[t.cursor+off], true
}

// scanOne produces exactly one primary, non-suppressed event, possibly
// queuing additional events (self-closing EndElement, splices). Returns
// ok=false only once the source is truly exhausted. Event kinds named
// in opts.DisabledEvents are skipped at the source rather than emitted
// (spec §4.2, §6).
func (t *Tokenizer) scanOne() (xmlstream.Event, bool) {
	for {
		ev, ok := t.scanStep()
		if !ok {
			return ev, false
		}
		if t.suppressed(ev) {
			continue
		}
		return ev, true
	}
}

func (t *Tokenizer) suppressed(ev xmlstream.Event) bool {
	switch ev.Kind() {
	case xmlstream.Whitespace:
		return t.opts.Disabled(xmlstream.DisableWhitespace)
	case xmlstream.Comment:
		return t.opts.Disabled(xmlstream.DisableComment)
	case xmlstream.CDATA:
		return t.opts.Disabled(xmlstream.DisableCDATA)
	case xmlstream.Prolog:
		return t.opts.Disabled(xmlstream.DisableProlog)
	case xmlstream.Characters:
		return t.opts.Disabled(xmlstream.DisableCharacters)
	case xmlstream.ProcessingInstruction:
		return t.opts.Disabled(xmlstream.DisableProcessingInstruction)
	default:
		return false
	}
}

func (t *Tokenizer) scanStep() (xmlstream.Event, bool) {
	if !t.ensure(1) {
		if !t.sawRoot && !t.rootErrReported {
			t.rootErrReported = true
			return t.errEvent(xerr.ParseError, "document has no root element"), true
		}
		return xmlstream.Event{}, false
	}

	if t.buf[t.cursor] != '<' {
		return t.scanText(), true
	}

	b1, ok := t.byteAt(1)
	if !ok {
		return t.errEvent(xerr.UnclosedTag, "unexpected end of input after '<'"), true
	}

	switch b1 {
	case '?':
		return t.scanPIOrProlog(), true
	case '!':
		return t.scanBang(), true
	case '/':
		return t.scanEndTag(), true
	default:
		return t.scanStartTag(), true
	}
}

func (t *Tokenizer) errEvent(kind xerr.Kind, format string, args ...interface{}) xmlstream.Event {
	pos := t.pos()
	e := xerr.Newf(kind, pos.XerrPosition(), format, args...)
	return xmlstream.NewErrorEventFrom(pos, e)
}

// resolveText resolves character references and the five predefined
// entity references, and normalizes \r\n / \r line endings to \n. Other
// general entity references (&name;) are left verbatim for the
// EntitySubsystem (spec §3, §4.2).
func resolveText(s string) string {
	s = normalizeNewlines(s)
	if strings.IndexByte(s, '&') == -1 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '&' {
			b.WriteByte(s[i])
			i++
			continue
		}
		if rep, n, ok := decodeEntityRef(s[i:]); ok {
			b.WriteString(rep)
			i += n
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// normalizeNewlines collapses \r\n and lone \r to \n (XML 1.0 §2.11),
// applied to every text-bearing construct before further processing.
func normalizeNewlines(s string) string {
	if strings.IndexByte(s, '\r') == -1 {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// decodeEntityRef decodes one &...; reference at the start of s, if it
// is a character reference or one of the five predefined entities.
// Returns the replacement text, the number of input bytes consumed, and
// whether a decode happened.
func decodeEntityRef(s string) (string, int, bool) {
	semi := strings.IndexByte(s, ';')
	if semi == -1 {
		return "", 0, false
	}
	body := s[1:semi] // between '&' and ';'
	n := semi + 1

	if strings.HasPrefix(body, "#") {
		var cp int64
		var err error
		if strings.HasPrefix(body, "#x") || strings.HasPrefix(body, "#X") {
			cp, err = strconv.ParseInt(body[2:], 16, 32)
		} else {
			cp, err = strconv.ParseInt(body[1:], 10, 32)
		}
		if err != nil || cp < 0 || cp > utf8.MaxRune {
			return "", 0, false
		}
		return string(rune(cp)), n, true
	}

	switch body {
	case "amp":
		return "&", n, true
	case "lt":
		return "<", n, true
	case "gt":
		return ">", n, true
	case "apos":
		return "'", n, true
	case "quot":
		return "\"", n, true
	default:
		return "", 0, false
	}
}

// normalizeAttrWhitespace replaces literal tab/newline/carriage-return
// with a single space, the unconditional step of attribute-value
// normalization the tokenizer performs regardless of declared type
// (spec §4.2; type-aware collapsing is left to a consumer holding a DTD
// Model, see package dtd's NormalizeAttributeValue).
func normalizeAttrWhitespace(s string) string {
	if strings.IndexAny(s, "\t\n\r") == -1 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\t', '\n', '\r':
			b.WriteByte(' ')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
