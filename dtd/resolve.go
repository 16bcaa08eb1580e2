// Package dtd also implements the streaming half of the EntitySubsystem
// (spec §4.7): a pipeline.Callback that buffers every event seen before
// the root element, parses a Doctype when one arrives, then switches to
// resolving "&name;" references against the assembled Model for the
// rest of the stream.
//
// Grounded on the same buffer-then-flush shape the Tokenizer uses for
// its own XML-declaration-must-be-first check (tokenizer/scan.go's
// constructCount == 0 test), generalized here from "reject a late
// declaration" to "withhold the whole prefix until its meaning is
// known".
package dtd

import (
	"strings"

	"github.com/lestrrat-go/xmlstream"
	"github.com/lestrrat-go/xmlstream/pipeline"
	"github.com/lestrrat-go/xmlstream/tokenizer"
	"github.com/lestrrat-go/xmlstream/xerr"
)

type resolveMode int

const (
	modeBuffering resolveMode = iota
	modeStreaming
)

// State is the Resolver's accumulator: the buffered prefix, the parsed
// Model once seen, and the merged name->replacement-text map consulted
// during streaming (predefined entities are always present; a Model's
// general entities are merged in once its Doctype is seen).
type State struct {
	mode     resolveMode
	buffer   []xmlstream.Event
	model    *Model
	entities map[string]string
	opts     xmlstream.Options
}

func newState(opts xmlstream.Options) State {
	entities := make(map[string]string, len(Predefined))
	for name, e := range Predefined {
		entities[name] = e.Value
	}
	return State{opts: opts, entities: entities}
}

// Resolver returns the pipeline.Callback implementing the EntitySubsystem
// (spec §4.7), alongside a fresh initial accumulator seeded with the
// predefined entities.
func Resolver(opts xmlstream.Options) (pipeline.Callback[State], State) {
	cb := func(ev xmlstream.Event, _ pipeline.Path, acc State) ([]xmlstream.Event, State) {
		if acc.mode == modeBuffering {
			out := acc.stepBuffering(ev)
			return out, acc
		}
		return acc.stepStreaming(ev), acc
	}
	return cb, newState(opts)
}

func (acc *State) stepBuffering(ev xmlstream.Event) []xmlstream.Event {
	acc.buffer = append(acc.buffer, ev)
	switch ev.Kind() {
	case xmlstream.Doctype:
		return acc.onDoctype(ev)
	case xmlstream.StartElement, xmlstream.Error, xmlstream.EndDocument:
		return acc.flush()
	default:
		return nil
	}
}

func (acc *State) onDoctype(ev xmlstream.Event) []xmlstream.Event {
	model, err := Parse(ev.Content())
	if err != nil {
		return acc.flush(errEvent(ev.Pos(), xerr.ParseError, "invalid DOCTYPE declaration: %v", err))
	}
	if name, cyclic := model.HasCycle(); cyclic {
		return acc.flush(errEvent(ev.Pos(), xerr.ParseError, "entity reference cycle detected at %q", name))
	}
	acc.model = model
	for name, e := range model.General {
		acc.entities[name] = e.Value
	}
	out := acc.flush()
	doctype := out[len(out)-1]
	out[len(out)-1] = xmlstream.NewDoctypeModel(ev.Pos(), model)
	return append(out, doctype)
}

func (acc *State) flush(extra ...xmlstream.Event) []xmlstream.Event {
	acc.mode = modeStreaming
	out := acc.buffer
	acc.buffer = nil
	return append(out, extra...)
}

func (acc *State) stepStreaming(ev xmlstream.Event) []xmlstream.Event {
	switch ev.Kind() {
	case xmlstream.Characters:
		return acc.resolveCharacters(ev)
	case xmlstream.StartElement:
		return []xmlstream.Event{acc.resolveAttrs(ev)}
	default:
		return []xmlstream.Event{ev}
	}
}

func (acc *State) resolveAttrs(ev xmlstream.Event) xmlstream.Event {
	attrs := ev.Attrs()
	for i, a := range attrs.All() {
		if !strings.Contains(a.Value, "&") {
			continue
		}
		resolved, _ := acc.resolveText(a.Value, ev.Pos())
		attrs = attrs.WithValue(i, resolved)
	}
	return ev.WithAttrs(attrs)
}

func (acc *State) resolveCharacters(ev xmlstream.Event) []xmlstream.Event {
	resolved, errs := acc.resolveText(ev.Content(), ev.Pos())
	if !strings.Contains(resolved, "<") {
		out := make([]xmlstream.Event, 0, len(errs)+1)
		out = append(out, errs...)
		out = append(out, ev.WithContent(resolved))
		return out
	}
	out := make([]xmlstream.Event, 0, len(errs)+1)
	out = append(out, errs...)
	out = append(out, acc.spliceMarkup(resolved)...)
	return out
}

// spliceMarkup re-parses an entity-expanded fragment that introduced
// markup through a nested Tokenizer, discarding its synthetic
// StartDocument/EndDocument bookends so the resulting events splice
// cleanly into the outer stream in the expanded Characters event's
// place (spec §4.7). The spliced events carry the nested tokenizer's
// own positions, relative to the fragment rather than the outer
// document; callers that need exact source offsets for expanded markup
// should not rely on monotonic positions across a splice.
func (acc *State) spliceMarkup(fragment string) []xmlstream.Event {
	tok := tokenizer.New(tokenizer.NewBufferSource([]byte(fragment)), acc.opts)
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

// resolveText replaces every "&name;" reference in s that is not a
// predefined/character reference (the Tokenizer already resolves those)
// with its expanded value, applying the unknown-entity policy to names
// absent from entities.
func (acc *State) resolveText(s string, pos xmlstream.Position) (string, []xmlstream.Event) {
	if !strings.Contains(s, "&") {
		return s, nil
	}
	var errs []xmlstream.Event
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '&' {
			b.WriteByte(s[i])
			i++
			continue
		}
		semi := strings.IndexByte(s[i:], ';')
		if semi == -1 {
			b.WriteByte(s[i])
			i++
			continue
		}
		name := s[i+1 : i+semi]
		i += semi + 1
		if name == "" {
			continue
		}
		budget := 0
		val, err := expandEntity(name, acc.entities, 0, acc.opts.MaxExpansionDepth, &budget, acc.opts.MaxTotalExpansion)
		if err == nil {
			b.WriteString(val)
			continue
		}
		switch err {
		case errDepthExceeded:
			errs = append(errs, errEvent(pos, xerr.BufferOverflow, "entity %q exceeds max expansion depth (%d)", name, acc.opts.MaxExpansionDepth))
			b.WriteString("&" + name + ";")
		case errExpansionLimit:
			errs = append(errs, errEvent(pos, xerr.BufferOverflow, "entity %q exceeds max total expansion (%d bytes)", name, acc.opts.MaxTotalExpansion))
			b.WriteString("&" + name + ";")
		default: // errUnknownEntity
			switch acc.opts.OnUnknownEntity {
			case xmlstream.UnknownEntityDrop:
				// write nothing
			case xmlstream.UnknownEntityKeep:
				b.WriteString("&" + name + ";")
			default: // UnknownEntityEmitError, UnknownEntityRaise
				// A fold callback has no way to halt the stream
				// mid-expansion, so Raise is treated the same as
				// EmitError here: inject the diagnostic and keep the
				// reference verbatim rather than silently swallowing
				// it. The stream is not halted here, and no stage of
				// this module reads Options.HaltOnError; a caller
				// wanting halt-on-error behavior stops draining at the
				// first Error event.
				errs = append(errs, errEvent(pos, xerr.ParseError, "unresolved entity reference &%s;", name))
				b.WriteString("&" + name + ";")
			}
		}
	}
	return b.String(), errs
}

func errEvent(pos xmlstream.Position, kind xerr.Kind, format string, args ...interface{}) xmlstream.Event {
	e := xerr.Newf(kind, pos.XerrPosition(), format, args...)
	return xmlstream.NewErrorEventFrom(pos, e)
}
