package dtd_test

import (
	"testing"

	"github.com/lestrrat-go/xmlstream"
	"github.com/lestrrat-go/xmlstream/dtd"
	"github.com/lestrrat-go/xmlstream/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseElementAttlistEntityNotation(t *testing.T) {
	raw := `DOCTYPE note [
<!ELEMENT note (to,from,heading,body)>
<!ELEMENT to (#PCDATA)>
<!ATTLIST note version CDATA "1.0" lang (en|fr) #IMPLIED id ID #REQUIRED>
<!ENTITY writer "Jani">
<!ENTITY % draft SYSTEM "draft.dtd">
<!NOTATION png SYSTEM "image/png">
]`
	model, err := dtd.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "note", model.Root)

	note := model.Elements["note"]
	assert.Equal(t, dtd.ContentChildren, note.Type)

	to := model.Elements["to"]
	assert.Equal(t, dtd.ContentMixed, to.Type)

	version := model.Attributes["note"]["version"]
	assert.Equal(t, dtd.AttrCDATA, version.Type)
	assert.Equal(t, "1.0", version.Value)

	lang := model.Attributes["note"]["lang"]
	assert.Equal(t, dtd.AttrEnumeration, lang.Type)
	assert.Equal(t, dtd.Enumeration{"en", "fr"}, lang.Values)
	assert.Equal(t, dtd.AttrDefaultImplied, lang.Default)

	id := model.Attributes["note"]["id"]
	assert.Equal(t, dtd.AttrID, id.Type)
	assert.Equal(t, dtd.AttrDefaultRequired, id.Default)

	writer, ok := model.General["writer"]
	require.True(t, ok)
	assert.Equal(t, "Jani", writer.Value)

	draft, ok := model.Parameter["draft"]
	require.True(t, ok)
	assert.Equal(t, "draft.dtd", draft.SystemID)

	png, ok := model.Notations["png"]
	require.True(t, ok)
	assert.Equal(t, "image/png", png.SystemID)
}

func TestHasCycleDetectsMutualReference(t *testing.T) {
	raw := `DOCTYPE r [<!ENTITY a "&b;"><!ENTITY b "&a;">]`
	model, err := dtd.Parse(raw)
	require.NoError(t, err)
	name, ok := model.HasCycle()
	assert.True(t, ok)
	assert.Contains(t, []string{"a", "b"}, name)
}

func TestHasCycleAllowsAcyclicChain(t *testing.T) {
	raw := `DOCTYPE r [<!ENTITY a "&b;"><!ENTITY b "leaf">]`
	model, err := dtd.Parse(raw)
	require.NoError(t, err)
	_, ok := model.HasCycle()
	assert.False(t, ok)
}

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

func drain(p *pipeline.Pipeline[dtd.State]) []xmlstream.Event {
	var out []xmlstream.Event
	for {
		ev, ok := p.Next()
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}

func run(opts xmlstream.Options, evs []xmlstream.Event) []xmlstream.Event {
	cb, initAcc := dtd.Resolver(opts)
	p := pipeline.New(&sliceSource{evs: evs}, initAcc, cb)
	return drain(p)
}

func TestResolverExpandsGeneralEntityInCharacters(t *testing.T) {
	doctype := xmlstream.NewDoctype(xmlstream.Position{}, `DOCTYPE r [<!ENTITY writer "Jani">]`)
	root := xmlstream.NewStartElement(xmlstream.Position{}, "r", "", xmlstream.AttributeList{})
	text := xmlstream.NewText(xmlstream.Characters, xmlstream.Position{}, "by &writer;")
	end := xmlstream.NewEndElement(xmlstream.Position{}, "r", "")

	out := run(xmlstream.DefaultOptions(), []xmlstream.Event{doctype, root, text, end})

	var gotText string
	for _, e := range out {
		if e.Kind() == xmlstream.Characters {
			gotText = e.Content()
		}
	}
	assert.Equal(t, "by Jani", gotText)
}

func TestResolverSplicesMarkupFromEntityValue(t *testing.T) {
	doctype := xmlstream.NewDoctype(xmlstream.Position{}, `DOCTYPE r [<!ENTITY bold "<b>hi</b>">]`)
	root := xmlstream.NewStartElement(xmlstream.Position{}, "r", "", xmlstream.AttributeList{})
	text := xmlstream.NewText(xmlstream.Characters, xmlstream.Position{}, "&bold;")
	end := xmlstream.NewEndElement(xmlstream.Position{}, "r", "")

	out := run(xmlstream.DefaultOptions(), []xmlstream.Event{doctype, root, text, end})

	var sawStart, sawChars bool
	for _, e := range out {
		if e.Kind() == xmlstream.StartElement && e.Tag() == "b" {
			sawStart = true
		}
		if e.Kind() == xmlstream.Characters && e.Content() == "hi" {
			sawChars = true
		}
	}
	assert.True(t, sawStart)
	assert.True(t, sawChars)
}

func TestResolverWithoutDoctypeOnlyResolvesPredefined(t *testing.T) {
	root := xmlstream.NewStartElement(xmlstream.Position{}, "r", "", xmlstream.AttributeList{})
	text := xmlstream.NewText(xmlstream.Characters, xmlstream.Position{}, "a &unknown; b")
	end := xmlstream.NewEndElement(xmlstream.Position{}, "r", "")

	opts := xmlstream.DefaultOptions()
	opts.OnUnknownEntity = xmlstream.UnknownEntityEmitError
	out := run(opts, []xmlstream.Event{root, text, end})

	var sawError bool
	for _, e := range out {
		if e.Kind() == xmlstream.Error {
			sawError = true
		}
	}
	assert.True(t, sawError)
}

func TestResolverRejectsCyclicEntities(t *testing.T) {
	doctype := xmlstream.NewDoctype(xmlstream.Position{}, `DOCTYPE r [<!ENTITY a "&b;"><!ENTITY b "&a;">]`)
	root := xmlstream.NewStartElement(xmlstream.Position{}, "r", "", xmlstream.AttributeList{})
	text := xmlstream.NewText(xmlstream.Characters, xmlstream.Position{}, "&a;")
	end := xmlstream.NewEndElement(xmlstream.Position{}, "r", "")

	out := run(xmlstream.DefaultOptions(), []xmlstream.Event{doctype, root, text, end})

	var sawError bool
	for _, e := range out {
		if e.Kind() == xmlstream.Error {
			sawError = true
		}
	}
	assert.True(t, sawError)

	var gotText string
	for _, e := range out {
		if e.Kind() == xmlstream.Characters {
			gotText = e.Content()
		}
	}
	assert.Equal(t, "&a;", gotText, "cyclic model is dropped, so &a; falls back to the unknown-entity policy")
}
