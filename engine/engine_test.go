package engine_test

import (
	"testing"

	"github.com/lestrrat-go/xmlstream"
	"github.com/lestrrat-go/xmlstream/engine"
	"github.com/lestrrat-go/xmlstream/tokenizer"
	"github.com/stretchr/testify/assert"
)

func drain(p *engine.Parser) []xmlstream.Event {
	var out []xmlstream.Event
	for {
		ev, ok := p.Next()
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}

func kinds(evs []xmlstream.Event) []xmlstream.Kind {
	out := make([]xmlstream.Kind, len(evs))
	for i, e := range evs {
		out[i] = e.Kind()
	}
	return out
}

func TestParserWithNoOptionalStagesMatchesBareTokenizer(t *testing.T) {
	raw := `<root xmlns:a="urn:a"><a:child>hi</a:child></root>`
	p := engine.NewParser(tokenizer.NewBufferSource([]byte(raw)), xmlstream.DefaultOptions())
	evs := drain(p)

	bare := tokenizer.New(tokenizer.NewBufferSource([]byte(raw)), xmlstream.DefaultOptions())
	var bareEvs []xmlstream.Event
	for {
		ev, ok := bare.Next()
		if !ok {
			break
		}
		bareEvs = append(bareEvs, ev)
	}
	assert.Equal(t, kinds(bareEvs), kinds(evs))
	assert.Equal(t, bareEvs, evs)

	var sawStart bool
	for _, e := range evs {
		if e.Kind() == xmlstream.StartElement && e.Tag() == "a:child" {
			sawStart = true
			// Namespace resolution was not requested: the element's
			// NamespaceURI is never populated.
			assert.Empty(t, e.NamespaceURI())
		}
	}
	assert.True(t, sawStart)
}

func TestParserWithNamespaceResolutionExpandsPrefixedElement(t *testing.T) {
	raw := `<root xmlns:a="urn:a"><a:child/></root>`
	p := engine.NewParser(
		tokenizer.NewBufferSource([]byte(raw)),
		xmlstream.DefaultOptions(),
		engine.WithNamespaceResolution(),
	)
	evs := drain(p)

	var found bool
	for _, e := range evs {
		if e.Kind() == xmlstream.StartElement && e.Tag() == "a:child" {
			found = true
			assert.Equal(t, "urn:a", e.NamespaceURI())
		}
	}
	assert.True(t, found)
}

func TestParserWithEntityResolutionExpandsCharacterData(t *testing.T) {
	raw := "<!DOCTYPE note [\n<!ENTITY writer \"Jani\">\n]>\n<note>by &writer;</note>"
	p := engine.NewParser(
		tokenizer.NewBufferSource([]byte(raw)),
		xmlstream.DefaultOptions(),
		engine.WithEntityResolution(),
	)
	evs := drain(p)

	var text string
	for _, e := range evs {
		if e.Kind() == xmlstream.Characters {
			text += e.Content()
		}
	}
	assert.Equal(t, "by Jani", text)
}

func TestParserWithValidatorsFlagsDuplicateAttributes(t *testing.T) {
	raw := `<root a="1" a="2"/>`
	p := engine.NewParser(
		tokenizer.NewBufferSource([]byte(raw)),
		xmlstream.DefaultOptions(),
		engine.WithValidators(engine.ValidateAttributes),
	)
	evs := drain(p)

	var sawError bool
	for _, e := range evs {
		if e.Kind() == xmlstream.Error {
			sawError = true
		}
	}
	assert.True(t, sawError)
}
