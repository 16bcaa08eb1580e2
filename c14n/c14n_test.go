package c14n_test

import (
	"testing"

	"github.com/lestrrat-go/xmlstream"
	"github.com/lestrrat-go/xmlstream/c14n"
	"github.com/lestrrat-go/xmlstream/tokenizer"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertCanonicalEqual compares two canonical forms, reporting a unified
// diff on mismatch rather than testify's single-line want/got dump —
// useful here since a canonical form mismatch is often a single
// namespace declaration or attribute out of place in an otherwise long
// line.
func assertCanonicalEqual(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	require.NoError(t, err)
	t.Errorf("canonical form mismatch:\n%s", text)
}

// reparseEvents tokenizes raw back into an Event sequence, dropping the
// document bookends, for round-tripping a Canonicalize result back
// through the Canonicalizer.
func reparseEvents(t *testing.T, raw string) []xmlstream.Event {
	t.Helper()
	tok := tokenizer.New5(tokenizer.NewBufferSource([]byte(raw)), xmlstream.DefaultOptions())
	var out []xmlstream.Event
	for {
		ev, ok := tok.Next()
		if !ok {
			break
		}
		switch ev.Kind() {
		case xmlstream.StartDocument, xmlstream.EndDocument:
			continue
		}
		out = append(out, ev)
	}
	return out
}

// sliceSource adapts a fixed []xmlstream.Event to c14n.Source.
type sliceSource struct {
	evs []xmlstream.Event
	i   int
}

func (s *sliceSource) Next() (xmlstream.Event, bool) {
	if s.i >= len(s.evs) {
		return xmlstream.Event{}, false
	}
	ev := s.evs[s.i]
	s.i++
	return ev, true
}

var zeroPos xmlstream.Position

func attrs(a ...xmlstream.Attribute) xmlstream.AttributeList {
	return xmlstream.NewAttributeList(a)
}

func TestCanonicalizeNestedNamespaceDefault(t *testing.T) {
	evs := []xmlstream.Event{
		xmlstream.NewStartElement(zeroPos, "root", "", attrs(
			xmlstream.Attribute{Name: "xmlns", Value: "urn:a"},
		)),
		xmlstream.NewStartElement(zeroPos, "child", "", attrs()),
		xmlstream.NewText(xmlstream.Characters, zeroPos, "hi"),
		xmlstream.NewEndElement(zeroPos, "child", ""),
		xmlstream.NewEndElement(zeroPos, "root", ""),
	}
	out, err := c14n.Canonicalize(&sliceSource{evs: evs}, xmlstream.Options{})
	require.NoError(t, err)
	assert.Equal(t, `<root xmlns="urn:a"><child>hi</child></root>`, string(out))
}

func TestCanonicalizeExclusiveOmitsUnusedAncestorNamespace(t *testing.T) {
	evs := []xmlstream.Event{
		xmlstream.NewStartElement(zeroPos, "root", "", attrs(
			xmlstream.Attribute{Name: "xmlns:a", Value: "urn:a"},
			xmlstream.Attribute{Name: "xmlns:b", Value: "urn:b"},
		)),
		xmlstream.NewStartElement(zeroPos, "a:child", "a", attrs()),
		xmlstream.NewEndElement(zeroPos, "a:child", "a"),
		xmlstream.NewEndElement(zeroPos, "root", ""),
	}
	out, err := c14n.Canonicalize(&sliceSource{evs: evs}, xmlstream.Options{Algorithm: xmlstream.ExclusiveC14N})
	require.NoError(t, err)
	// "root" itself declares nothing it visibly uses, so neither xmlns:a
	// nor xmlns:b renders there; xmlns:a renders on a:child since that's
	// where the prefix is actually used.
	assert.Equal(t, `<root><a:child xmlns:a="urn:a"></a:child></root>`, string(out))
}

func TestCanonicalizeInclusiveKeepsUnusedAncestorNamespace(t *testing.T) {
	evs := []xmlstream.Event{
		xmlstream.NewStartElement(zeroPos, "root", "", attrs(
			xmlstream.Attribute{Name: "xmlns:a", Value: "urn:a"},
			xmlstream.Attribute{Name: "xmlns:b", Value: "urn:b"},
		)),
		xmlstream.NewStartElement(zeroPos, "a:child", "a", attrs()),
		xmlstream.NewEndElement(zeroPos, "a:child", "a"),
		xmlstream.NewEndElement(zeroPos, "root", ""),
	}
	out, err := c14n.Canonicalize(&sliceSource{evs: evs}, xmlstream.Options{Algorithm: xmlstream.C14N10})
	require.NoError(t, err)
	assert.Equal(t, `<root xmlns:a="urn:a" xmlns:b="urn:b"><a:child></a:child></root>`, string(out))
}

func TestCanonicalizeEmptyElementNeverSelfCloses(t *testing.T) {
	evs := []xmlstream.Event{
		xmlstream.NewStartElement(zeroPos, "root", "", attrs()),
		xmlstream.NewStartElement(zeroPos, "empty", "", attrs()),
		xmlstream.NewEndElement(zeroPos, "empty", ""),
		xmlstream.NewEndElement(zeroPos, "root", ""),
	}
	out, err := c14n.Canonicalize(&sliceSource{evs: evs}, xmlstream.Options{})
	require.NoError(t, err)
	assert.Equal(t, `<root><empty></empty></root>`, string(out))
}

func TestCanonicalizeCommentsSuppressedByDefault(t *testing.T) {
	evs := []xmlstream.Event{
		xmlstream.NewStartElement(zeroPos, "root", "", attrs()),
		xmlstream.NewComment(zeroPos, " note "),
		xmlstream.NewEndElement(zeroPos, "root", ""),
	}
	out, err := c14n.Canonicalize(&sliceSource{evs: evs}, xmlstream.Options{Algorithm: xmlstream.C14N10})
	require.NoError(t, err)
	assert.Equal(t, `<root></root>`, string(out))

	out, err = c14n.Canonicalize(&sliceSource{evs: evs}, xmlstream.Options{Algorithm: xmlstream.C14N10WithComments})
	require.NoError(t, err)
	assert.Equal(t, `<root><!-- note --></root>`, string(out))
}

func TestCanonicalizeAttributeSortOrder(t *testing.T) {
	// Attributes sort by (namespace URI, local name); unprefixed
	// attributes sort with an empty namespace key regardless of any
	// default namespace in scope, so "unprefixed" precedes "a:z" even
	// though the default namespace here is non-empty.
	evs := []xmlstream.Event{
		xmlstream.NewStartElement(zeroPos, "root", "", attrs(
			xmlstream.Attribute{Name: "xmlns", Value: "urn:default"},
			xmlstream.Attribute{Name: "xmlns:a", Value: "urn:a"},
			xmlstream.Attribute{Name: "a:z", Value: "1"},
			xmlstream.Attribute{Name: "unprefixed", Value: "2"},
		)),
		xmlstream.NewEndElement(zeroPos, "root", ""),
	}
	out, err := c14n.Canonicalize(&sliceSource{evs: evs}, xmlstream.Options{})
	require.NoError(t, err)
	assert.Equal(t, `<root xmlns="urn:default" xmlns:a="urn:a" unprefixed="2" a:z="1"></root>`, string(out))
}

func TestCanonicalizePIAndTextEscaping(t *testing.T) {
	evs := []xmlstream.Event{
		xmlstream.NewPI(zeroPos, "style", "color=red"), // before root: dropped
		xmlstream.NewStartElement(zeroPos, "root", "", attrs()),
		xmlstream.NewPI(zeroPos, "target", ""),
		xmlstream.NewText(xmlstream.Characters, zeroPos, "a < b & c\r"),
		xmlstream.NewEndElement(zeroPos, "root", ""),
	}
	out, err := c14n.Canonicalize(&sliceSource{evs: evs}, xmlstream.Options{})
	require.NoError(t, err)
	assert.Equal(t, "<root><?target?>a &lt; b &amp; c&#xD;</root>", string(out))
}

func TestCanonicalizeRoundTripIsIdempotent(t *testing.T) {
	evs := []xmlstream.Event{
		xmlstream.NewStartElement(zeroPos, "root", "", attrs(
			xmlstream.Attribute{Name: "xmlns:a", Value: "urn:a"},
		)),
		xmlstream.NewStartElement(zeroPos, "a:child", "a", attrs(
			xmlstream.Attribute{Name: "x", Value: "1"},
		)),
		xmlstream.NewText(xmlstream.Characters, zeroPos, "body"),
		xmlstream.NewEndElement(zeroPos, "a:child", "a"),
		xmlstream.NewEndElement(zeroPos, "root", ""),
	}
	first, err := c14n.Canonicalize(&sliceSource{evs: evs}, xmlstream.Options{})
	require.NoError(t, err)

	// A second pass over already-canonical input must reproduce it byte
	// for byte (W3C C14N's idempotency property).
	reparsed := reparseEvents(t, string(first))
	second, err := c14n.Canonicalize(&sliceSource{evs: reparsed}, xmlstream.Options{})
	require.NoError(t, err)

	assertCanonicalEqual(t, string(first), string(second))
}
