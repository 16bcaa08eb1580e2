package pipeline_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lestrrat-go/xmlstream"
	"github.com/lestrrat-go/xmlstream/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource adapts a fixed slice of events into a pipeline.Source.
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

func passthrough(ev xmlstream.Event, _ pipeline.Path, acc int) ([]xmlstream.Event, int) {
	return []xmlstream.Event{ev}, acc + 1
}

func TestPassthroughCountsEvents(t *testing.T) {
	src := &sliceSource{evs: []xmlstream.Event{
		xmlstream.NewStartElement(xmlstream.Position{}, "root", "", xmlstream.AttributeList{}),
		xmlstream.NewEndElement(xmlstream.Position{}, "root", ""),
	}}
	p := pipeline.New[int](src, 0, passthrough)
	out := drain(p)

	require.Len(t, out, 2)
	assert.Equal(t, 2, p.Acc())
}

func TestTagMismatchInjectsError(t *testing.T) {
	src := &sliceSource{evs: []xmlstream.Event{
		xmlstream.NewStartElement(xmlstream.Position{}, "a", "", xmlstream.AttributeList{}),
		xmlstream.NewEndElement(xmlstream.Position{}, "b", ""),
	}}
	p := pipeline.New[int](src, 0, passthrough)
	out := drain(p)

	require.Len(t, out, 3) // StartElement, injected TagMismatch, EndElement
	assert.Equal(t, xmlstream.Error, out[1].Kind())
	assert.Equal(t, "TagMismatch", out[1].ErrorKind())
	assert.Equal(t, "a", out[1].ErrorContext()["expected"])
	assert.Equal(t, "b", out[1].ErrorContext()["got"])
}

func TestUnexpectedCloseWithEmptyStack(t *testing.T) {
	src := &sliceSource{evs: []xmlstream.Event{
		xmlstream.NewEndElement(xmlstream.Position{}, "a", ""),
	}}
	p := pipeline.New[int](src, 0, passthrough)
	out := drain(p)

	require.Len(t, out, 2)
	assert.Equal(t, "UnexpectedClose", out[0].ErrorKind())
}

func TestTextOutsideRootInjectsError(t *testing.T) {
	src := &sliceSource{evs: []xmlstream.Event{
		xmlstream.NewText(xmlstream.Characters, xmlstream.Position{}, "hello"),
	}}
	p := pipeline.New[int](src, 0, passthrough)
	out := drain(p)

	require.Len(t, out, 2)
	assert.Equal(t, xmlstream.Error, out[0].Kind())
}

func TestUnclosedTagAtEndOfInput(t *testing.T) {
	src := &sliceSource{evs: []xmlstream.Event{
		xmlstream.NewStartElement(xmlstream.Position{}, "outer", "", xmlstream.AttributeList{}),
		xmlstream.NewStartElement(xmlstream.Position{}, "inner", "", xmlstream.AttributeList{}),
	}}
	p := pipeline.New[int](src, 0, passthrough)
	out := drain(p)

	require.Len(t, out, 4) // two StartElements + two injected UnclosedTag, innermost first
	assert.Equal(t, "UnclosedTag", out[2].ErrorKind())
	assert.Equal(t, "inner", out[2].ErrorContext()["name"])
	assert.Equal(t, "UnclosedTag", out[3].ErrorKind())
	assert.Equal(t, "outer", out[3].ErrorContext()["name"])
}

func TestCallbackCanSuppressEvents(t *testing.T) {
	src := &sliceSource{evs: []xmlstream.Event{
		xmlstream.NewText(xmlstream.Whitespace, xmlstream.Position{}, "  "),
	}}
	suppressWhitespace := func(ev xmlstream.Event, _ pipeline.Path, acc int) ([]xmlstream.Event, int) {
		if ev.Kind() == xmlstream.Whitespace {
			return nil, acc
		}
		return []xmlstream.Event{ev}, acc
	}
	p := pipeline.New[int](src, 0, suppressWhitespace)
	out := drain(p)
	assert.Empty(t, out)
}

func TestCallbackCanEmitMultipleEvents(t *testing.T) {
	wrapped := &sliceSource{evs: []xmlstream.Event{
		xmlstream.NewStartElement(xmlstream.Position{}, "a", "", xmlstream.AttributeList{}),
		xmlstream.NewText(xmlstream.Characters, xmlstream.Position{}, "x"),
		xmlstream.NewEndElement(xmlstream.Position{}, "a", ""),
	}}
	duplicate := func(ev xmlstream.Event, _ pipeline.Path, acc int) ([]xmlstream.Event, int) {
		if ev.Kind() == xmlstream.Characters {
			return []xmlstream.Event{ev, ev}, acc
		}
		return []xmlstream.Event{ev}, acc
	}
	p := pipeline.New[int](wrapped, 0, duplicate)
	out := drain(p)
	require.Len(t, out, 4) // StartElement, Characters x2, EndElement
}

func TestCallbackObservesPath(t *testing.T) {
	var gotPaths []pipeline.Path
	recordPath := func(ev xmlstream.Event, path pipeline.Path, acc int) ([]xmlstream.Event, int) {
		gotPaths = append(gotPaths, append(pipeline.Path(nil), path...))
		return []xmlstream.Event{ev}, acc
	}
	src := &sliceSource{evs: []xmlstream.Event{
		xmlstream.NewStartElement(xmlstream.Position{}, "a", "", xmlstream.AttributeList{}),
		xmlstream.NewStartElement(xmlstream.Position{}, "b", "x", xmlstream.AttributeList{}),
		xmlstream.NewEndElement(xmlstream.Position{}, "b", "x"),
		xmlstream.NewEndElement(xmlstream.Position{}, "a", ""),
	}}
	p := pipeline.New[int](src, 0, recordPath)
	drain(p)

	want := []pipeline.Path{
		{{Name: "a"}},
		{{Name: "a"}, {Name: "b", Prefix: "x"}},
		{{Name: "a"}, {Name: "b", Prefix: "x"}},
		{{Name: "a"}},
	}
	// Path holds multiple Elem fields per entry; cmp.Diff pinpoints which
	// field of which stack entry is wrong instead of just "not equal".
	for i, got := range gotPaths {
		if diff := cmp.Diff(want[i], got); diff != "" {
			t.Errorf("path at event %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}
