package validate_test

import (
	"testing"

	"github.com/lestrrat-go/xmlstream"
	"github.com/lestrrat-go/xmlstream/pipeline"
	"github.com/lestrrat-go/xmlstream/validate"
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

func errorKinds(evs []xmlstream.Event) []string {
	var out []string
	for _, e := range evs {
		if e.Kind() == xmlstream.Error {
			out = append(out, e.ErrorKind())
		}
	}
	return out
}

func TestWellFormedRejectsSecondRoot(t *testing.T) {
	src := &sliceSource{evs: []xmlstream.Event{
		xmlstream.NewStartElement(xmlstream.Position{}, "a", "", xmlstream.AttributeList{}),
		xmlstream.NewEndElement(xmlstream.Position{}, "a", ""),
		xmlstream.NewStartElement(xmlstream.Position{}, "b", "", xmlstream.AttributeList{}),
		xmlstream.NewEndElement(xmlstream.Position{}, "b", ""),
	}}
	cb, initAcc := validate.WellFormed()
	p := pipeline.New(src, initAcc, cb)
	out := drain(p)
	assert.Contains(t, errorKinds(out), "ParseError")
}

func TestAttributesFlagsDuplicates(t *testing.T) {
	attrs := xmlstream.NewAttributeList([]xmlstream.Attribute{
		{Name: "a", Value: "1"},
		{Name: "a", Value: "2"},
	})
	src := &sliceSource{evs: []xmlstream.Event{
		xmlstream.NewStartElement(xmlstream.Position{}, "root", "", attrs),
		xmlstream.NewEndElement(xmlstream.Position{}, "root", ""),
	}}
	p := pipeline.New(src, struct{}{}, validate.Attributes())
	out := drain(p)
	require.Contains(t, errorKinds(out), "DuplicateAttr")
}

func TestCommentsRejectDoubleDash(t *testing.T) {
	src := &sliceSource{evs: []xmlstream.Event{
		xmlstream.NewComment(xmlstream.Position{}, "bad -- comment"),
	}}
	p := pipeline.New(src, struct{}{}, validate.Comments())
	out := drain(p)
	require.Contains(t, errorKinds(out), "InvalidCharacter")
}

func TestProcessingInstructionsRejectXMLTarget(t *testing.T) {
	src := &sliceSource{evs: []xmlstream.Event{
		xmlstream.NewPI(xmlstream.Position{}, "XML", "foo"),
	}}
	p := pipeline.New(src, struct{}{}, validate.ProcessingInstructions())
	out := drain(p)
	require.Contains(t, errorKinds(out), "ParseError")
}

func TestNamespacesRejectsMisboundXMLPrefix(t *testing.T) {
	attrs := xmlstream.NewAttributeList([]xmlstream.Attribute{
		{Name: "xmlns:xml", Value: "http://example.com/wrong"},
	})
	src := &sliceSource{evs: []xmlstream.Event{
		xmlstream.NewStartElement(xmlstream.Position{}, "root", "", attrs),
	}}
	p := pipeline.New(src, struct{}{}, validate.Namespaces())
	out := drain(p)
	require.Contains(t, errorKinds(out), "ParseError")
}

func TestNamespacesAllowsCorrectXMLPrefixBinding(t *testing.T) {
	attrs := xmlstream.NewAttributeList([]xmlstream.Attribute{
		{Name: "xmlns:xml", Value: "http://www.w3.org/XML/1998/namespace"},
	})
	src := &sliceSource{evs: []xmlstream.Event{
		xmlstream.NewStartElement(xmlstream.Position{}, "root", "", attrs),
	}}
	p := pipeline.New(src, struct{}{}, validate.Namespaces())
	out := drain(p)
	assert.Empty(t, errorKinds(out))
}
