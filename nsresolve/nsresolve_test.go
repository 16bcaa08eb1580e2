package nsresolve_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lestrrat-go/xmlstream"
	"github.com/lestrrat-go/xmlstream/nsresolve"
	"github.com/lestrrat-go/xmlstream/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func drain[Acc any](p *pipeline.Pipeline[Acc]) []xmlstream.Event {
	var out []xmlstream.Event
	for {
		ev, ok := p.Next()
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}

func newAttrs(pairs ...string) xmlstream.AttributeList {
	var out []xmlstream.Attribute
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, xmlstream.Attribute{Name: pairs[i], Value: pairs[i+1]})
	}
	return xmlstream.NewAttributeList(out)
}

func run(evs []xmlstream.Event) []xmlstream.Event {
	cb, initAcc := nsresolve.Resolver()
	p := pipeline.New(&sliceSource{evs: evs}, initAcc, cb)
	return drain(p)
}

func TestDefaultNamespaceAppliesToUnprefixedElement(t *testing.T) {
	start := xmlstream.NewStartElement(xmlstream.Position{}, "root", "", newAttrs("xmlns", "http://example.com/ns"))
	out := run([]xmlstream.Event{start, xmlstream.NewEndElement(xmlstream.Position{}, "root", "")})

	require.Len(t, out, 2)
	assert.Equal(t, "http://example.com/ns", out[0].NamespaceURI())
}

func TestUnprefixedAttributeDoesNotInheritDefaultNamespace(t *testing.T) {
	start := xmlstream.NewStartElement(xmlstream.Position{}, "root", "",
		newAttrs("xmlns", "http://example.com/ns", "plain", "v"))
	out := run([]xmlstream.Event{start, xmlstream.NewEndElement(xmlstream.Position{}, "root", "")})

	require.Len(t, out, 2)
	v := out[0].Attrs().All()[1]
	assert.Equal(t, "plain", v.Name)
	assert.Equal(t, "", v.NamespaceURI)
}

func TestPrefixedAttributeResolves(t *testing.T) {
	start := xmlstream.NewStartElement(xmlstream.Position{}, "foo:root", "foo",
		newAttrs("xmlns:foo", "http://example.com/foo", "foo:attr", "v"))
	out := run([]xmlstream.Event{start, xmlstream.NewEndElement(xmlstream.Position{}, "foo:root", "foo")})

	require.Len(t, out, 2)
	assert.Equal(t, "http://example.com/foo", out[0].NamespaceURI())
	attr := out[0].Attrs().All()[1]
	assert.Equal(t, "http://example.com/foo", attr.NamespaceURI)
}

func TestUndeclaredPrefixIsError(t *testing.T) {
	start := xmlstream.NewStartElement(xmlstream.Position{}, "foo:root", "foo", newAttrs())
	out := run([]xmlstream.Event{start, xmlstream.NewEndElement(xmlstream.Position{}, "foo:root", "foo")})

	var sawError bool
	for _, e := range out {
		if e.Kind() == xmlstream.Error {
			sawError = true
			assert.Equal(t, "UndeclaredNamespace", e.ErrorKind())
		}
	}
	assert.True(t, sawError)
}

func TestPrefixedAttributeResolvesFullAttributeList(t *testing.T) {
	start := xmlstream.NewStartElement(xmlstream.Position{}, "foo:root", "foo",
		newAttrs("xmlns:foo", "http://example.com/foo", "plain", "v", "foo:attr", "w"))
	out := run([]xmlstream.Event{start, xmlstream.NewEndElement(xmlstream.Position{}, "foo:root", "foo")})
	require.Len(t, out, 2)

	want := []xmlstream.Attribute{
		{Name: "xmlns:foo", Value: "http://example.com/foo"},
		{Name: "plain", Value: "v"},
		{Name: "foo:attr", Value: "w", NamespaceURI: "http://example.com/foo"},
	}
	// Each Attribute carries three fields; cmp.Diff across the whole
	// resolved list is more legible than a per-field assert.Equal chain
	// once NamespaceURI enters the comparison alongside Name/Value.
	if diff := cmp.Diff(want, out[0].Attrs().All()); diff != "" {
		t.Errorf("resolved attribute list mismatch (-want +got):\n%s", diff)
	}
}

func TestNestedScopesPopOnEndElement(t *testing.T) {
	outer := xmlstream.NewStartElement(xmlstream.Position{}, "a", "", newAttrs("xmlns", "http://example.com/a"))
	inner := xmlstream.NewStartElement(xmlstream.Position{}, "b", "", newAttrs())
	innerEnd := xmlstream.NewEndElement(xmlstream.Position{}, "b", "")
	outerEnd := xmlstream.NewEndElement(xmlstream.Position{}, "a", "")

	out := run([]xmlstream.Event{outer, inner, innerEnd, outerEnd})
	require.Len(t, out, 4)
	assert.Equal(t, "http://example.com/a", out[0].NamespaceURI())
	assert.Equal(t, "http://example.com/a", out[1].NamespaceURI()) // inherits parent's default namespace
}
