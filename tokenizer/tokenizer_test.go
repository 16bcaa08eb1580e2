package tokenizer_test

import (
	"io"
	"strings"
	"testing"

	"github.com/lestrrat-go/xmlstream"
	"github.com/lestrrat-go/xmlstream/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, tok *tokenizer.Tokenizer) []xmlstream.Event {
	t.Helper()
	var out []xmlstream.Event
	for {
		ev, ok := tok.Next()
		if !ok {
			break
		}
		out = append(out, ev)
	}
	return out
}

func kinds(evs []xmlstream.Event) []xmlstream.Kind {
	out := make([]xmlstream.Kind, len(evs))
	for i, e := range evs {
		out[i] = e.Kind()
	}
	return out
}

func newTok(src string) *tokenizer.Tokenizer {
	return tokenizer.New5(tokenizer.NewBufferSource([]byte(src)), xmlstream.DefaultOptions())
}

func TestSelfClosingStartTagExpandsToEndElement(t *testing.T) {
	tok := newTok(`<root a="1" b="2"/>`)
	evs := drain(t, tok)

	require.Equal(t, []xmlstream.Kind{
		xmlstream.StartDocument,
		xmlstream.StartElement,
		xmlstream.EndElement,
		xmlstream.EndDocument,
	}, kinds(evs))

	start := evs[1]
	assert.Equal(t, "root", start.Tag())
	v, ok := start.Attrs().Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)
	v, ok = start.Attrs().Get("b")
	require.True(t, ok)
	assert.Equal(t, "2", v)
}

func TestCharacterDataResolvesPredefinedEntity(t *testing.T) {
	tok := newTok(`<a>hello &amp; world</a>`)
	evs := drain(t, tok)

	var text xmlstream.Event
	for _, e := range evs {
		if e.Kind() == xmlstream.Characters {
			text = e
		}
	}
	assert.Equal(t, "hello & world", text.Content())
}

func TestEndTagNameIsCapturedVerbatim(t *testing.T) {
	// The Tokenizer does not itself enforce tag matching; that is the
	// Pipeline's job (spec §4.4). It must still tokenize mismatched tags
	// without erroring so the Pipeline can inject TagMismatch.
	tok := newTok(`<a></b>`)
	evs := drain(t, tok)

	require.Equal(t, []xmlstream.Kind{
		xmlstream.StartDocument,
		xmlstream.StartElement,
		xmlstream.EndElement,
		xmlstream.EndDocument,
	}, kinds(evs))
	assert.Equal(t, "a", evs[1].Tag())
	assert.Equal(t, "b", evs[2].Tag())
}

func TestCDATAContainingDoubleCloseBracketWithoutGT(t *testing.T) {
	tok := newTok(`<a><![CDATA[x]]y]]></a>`)
	evs := drain(t, tok)

	var cdata xmlstream.Event
	for _, e := range evs {
		if e.Kind() == xmlstream.CDATA {
			cdata = e
		}
	}
	assert.Equal(t, "x]]y", cdata.Content())
}

func TestCommentBody(t *testing.T) {
	tok := newTok(`<a><!-- note --></a>`)
	evs := drain(t, tok)

	var comment xmlstream.Event
	for _, e := range evs {
		if e.Kind() == xmlstream.Comment {
			comment = e
		}
	}
	assert.Equal(t, " note ", comment.Content())
}

func TestProcessingInstruction(t *testing.T) {
	tok := newTok(`<a><?target some data?></a>`)
	evs := drain(t, tok)

	var pi xmlstream.Event
	for _, e := range evs {
		if e.Kind() == xmlstream.ProcessingInstruction {
			pi = e
		}
	}
	assert.Equal(t, "target", pi.Tag())
	assert.Equal(t, "some data", pi.PIData())
}

func TestLeadingXMLDeclarationIsProlog(t *testing.T) {
	tok := newTok(`<?xml version="1.0" encoding="UTF-8"?><a/>`)
	evs := drain(t, tok)

	require.Equal(t, xmlstream.Prolog, evs[1].Kind())
	v, ok := evs[1].Attrs().Get("version")
	require.True(t, ok)
	assert.Equal(t, "1.0", v)
	v, ok = evs[1].Attrs().Get("encoding")
	require.True(t, ok)
	assert.Equal(t, "UTF-8", v)
}

func TestNonLeadingXMLDeclarationIsError(t *testing.T) {
	tok := newTok(`<a/><?xml version="1.0"?>`)
	evs := drain(t, tok)

	var sawError bool
	for _, e := range evs {
		if e.Kind() == xmlstream.Error {
			sawError = true
		}
	}
	assert.True(t, sawError)
}

func TestDoctypeWithInternalSubset(t *testing.T) {
	tok := newTok(`<!DOCTYPE root [<!ENTITY x "y">]><root/>`)
	evs := drain(t, tok)

	var doctype xmlstream.Event
	for _, e := range evs {
		if e.Kind() == xmlstream.Doctype {
			doctype = e
		}
	}
	assert.Equal(t, `DOCTYPE root [<!ENTITY x "y">]`, doctype.Content())
}

func TestDoctypeSubsetToleratesGTInsideQuotedValue(t *testing.T) {
	tok := newTok(`<!DOCTYPE root [<!ENTITY x "a > b">]><root/>`)
	evs := drain(t, tok)

	var doctype xmlstream.Event
	for _, e := range evs {
		if e.Kind() == xmlstream.Doctype {
			doctype = e
		}
	}
	assert.Equal(t, `DOCTYPE root [<!ENTITY x "a > b">]`, doctype.Content())
}

func TestNoRootElementIsError(t *testing.T) {
	tok := newTok(`   `)
	evs := drain(t, tok)

	var sawError bool
	for _, e := range evs {
		if e.Kind() == xmlstream.Error {
			sawError = true
		}
	}
	assert.True(t, sawError)
}

func TestChunkedInputResumesAcrossTagBoundary(t *testing.T) {
	full := `<root attr="value">text &amp; more</root>`
	chunks := make([]string, 0, len(full))
	for i := 0; i < len(full); i++ {
		chunks = append(chunks, full[i:i+1])
	}
	idx := 0
	src := tokenizer.ChunkFunc(func() ([]byte, error) {
		if idx >= len(chunks) {
			return nil, io.EOF
		}
		c := chunks[idx]
		idx++
		return []byte(c), nil
	})

	tok := tokenizer.New5(src, xmlstream.DefaultOptions())
	evs := drain(t, tok)

	var gotText string
	for _, e := range evs {
		if e.Kind() == xmlstream.Characters {
			gotText = e.Content()
		}
	}
	assert.Equal(t, "text & more", gotText)
	assert.True(t, strings.Contains(full, "root"))
}

func TestChunkedInputKeepsWorkingBufferBounded(t *testing.T) {
	var b strings.Builder
	b.WriteString("<root>")
	const items = 200_000
	for i := 0; i < items; i++ {
		b.WriteString("<item>some text payload</item>")
	}
	b.WriteString("</root>")
	full := b.String()
	require.Greater(t, len(full), 5_000_000) // a genuinely multi-MB document

	tok := tokenizer.New5(tokenizer.NewReaderSource(strings.NewReader(full), 4096), xmlstream.DefaultOptions())

	var maxBuffered int
	for {
		_, ok := tok.Next()
		if buffered := tok.BufferedBytes(); buffered > maxBuffered {
			maxBuffered = buffered
		}
		if !ok {
			break
		}
	}

	// The working buffer should track at most a handful of chunks'
	// worth of the largest indivisible token, never the whole document.
	assert.Less(t, maxBuffered, 1<<20)
}
