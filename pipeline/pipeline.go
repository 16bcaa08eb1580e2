// Package pipeline implements the spec's Pipeline component (§4.4): a
// `transform` fold over an Event source that maintains an open-tag
// stack, invokes a user Callback, and injects structural Error events
// inline. A Pipeline itself satisfies Source, so stages compose as
// `parse ▷ v1 ▷ v2 ▷ …` (spec §4.5).
//
// Grounded on helium's SAX ContentHandler dispatch style
// (sax/interface.go: one handler func per event kind, invoked by
// tree.go's walk) generalized per spec §9's callback-polymorphism
// redesign flag into a single fold callback over one Event type,
// always returning ([]Event, Acc).
package pipeline

import (
	"github.com/lestrrat-go/xmlstream"
	"github.com/lestrrat-go/xmlstream/internal/debug"
	"github.com/lestrrat-go/xmlstream/xerr"
)

// Elem is one entry of the open-tag stack.
type Elem struct {
	Name   string
	Prefix string
}

// Path is the open-tag stack, outermost first. A Callback observing a
// StartElement sees Path with that element already pushed; observing
// an EndElement, it sees Path with that element still present (popped
// only after the callback returns).
type Path []Elem

// Source is anything a Pipeline can pull Events from: a tokenizer, or
// another Pipeline.
type Source interface {
	Next() (xmlstream.Event, bool)
}

// Callback is invoked once per upstream Event. It returns the event(s)
// to emit downstream and the updated accumulator. Returning a nil or
// empty slice suppresses the input event; returning one or more events
// emits them in order (spec §4.4's three callback-return shapes are
// unified into this single signature).
type Callback[Acc any] func(ev xmlstream.Event, path Path, acc Acc) ([]xmlstream.Event, Acc)

// Pipeline drives src, maintains stack discipline, and invokes cb.
type Pipeline[Acc any] struct {
	src Source
	cb  Callback[Acc]
	acc Acc

	stack Path

	pending   []xmlstream.Event
	srcDone   bool
	finalDone bool
}

// New builds a Pipeline over src with the given callback and initial
// accumulator.
func New[Acc any](src Source, initAcc Acc, cb Callback[Acc]) *Pipeline[Acc] {
	return &Pipeline[Acc]{src: src, cb: cb, acc: initAcc}
}

// Acc returns the current accumulator. Its final value is only
// meaningful once Next has returned ok=false.
func (p *Pipeline[Acc]) Acc() Acc { return p.acc }

// Next implements Source, pulling from src as needed and buffering any
// extra events a single upstream Event expanded into (pipeline-injected
// errors, multi-event callback returns, and finalizer-injected errors).
func (p *Pipeline[Acc]) Next() (xmlstream.Event, bool) {
	for len(p.pending) == 0 {
		if p.finalDone {
			return xmlstream.Event{}, false
		}
		if p.srcDone {
			p.pending = p.finalize()
			p.finalDone = true
			continue
		}
		ev, ok := p.src.Next()
		if !ok {
			p.srcDone = true
			continue
		}
		p.pending = p.step(ev)
	}
	out := p.pending[0]
	p.pending = p.pending[1:]
	return out, true
}

// step applies stack discipline to ev, injecting structural errors
// ahead of the callback's own emissions (spec §4.4's ordering
// guarantee: pipeline-injected errors for the same input event precede
// the callback's emission), then invokes cb.
func (p *Pipeline[Acc]) step(ev xmlstream.Event) []xmlstream.Event {
	var injected []xmlstream.Event
	popAfter := false

	switch ev.Kind() {
	case xmlstream.StartElement:
		p.stack = append(p.stack, Elem{Name: ev.Tag(), Prefix: ev.Prefix()})

	case xmlstream.EndElement:
		if len(p.stack) == 0 {
			injected = append(injected, errEventCtx(ev.Pos(), xerr.UnexpectedClose,
				xerr.Context{"name": ev.Tag()}, "unexpected end tag </%s>, no open element", ev.Tag()))
		} else {
			top := p.stack[len(p.stack)-1]
			if top.Name != ev.Tag() {
				injected = append(injected, tagMismatchEvent(ev.Pos(), top.Name, ev.Tag()))
			}
			popAfter = true
		}

	case xmlstream.Characters:
		if len(p.stack) == 0 {
			injected = append(injected, errEvent(ev.Pos(), xerr.ParseError, "text outside root element"))
		}
	}

	path := p.currentPath()
	if debug.Enabled {
		debug.Dump("pipeline.step path", path)
	}
	emitted, acc := p.cb(ev, path, p.acc)
	p.acc = acc
	if popAfter {
		p.stack = p.stack[:len(p.stack)-1]
	}

	out := make([]xmlstream.Event, 0, len(injected)+len(emitted))
	out = append(out, injected...)
	out = append(out, emitted...)
	return out
}

// currentPath returns the Path as the callback should see it: with a
// StartElement already pushed, and an EndElement not yet popped (spec
// §4.4).
func (p *Pipeline[Acc]) currentPath() Path {
	if len(p.stack) == 0 {
		return nil
	}
	path := make(Path, len(p.stack))
	copy(path, p.stack)
	return path
}

// finalize runs once the source is exhausted: a non-empty stack
// injects UnclosedTag from innermost to outermost (spec §4.4).
func (p *Pipeline[Acc]) finalize() []xmlstream.Event {
	var out []xmlstream.Event
	for i := len(p.stack) - 1; i >= 0; i-- {
		elem := p.stack[i]
		out = append(out, errEventCtx(xmlstream.Position{}, xerr.UnclosedTag,
			xerr.Context{"name": elem.Name}, "unclosed element <%s>", elem.Name))
	}
	p.stack = nil
	return out
}

func errEvent(pos xmlstream.Position, kind xerr.Kind, format string, args ...interface{}) xmlstream.Event {
	e := xerr.Newf(kind, pos.XerrPosition(), format, args...)
	return xmlstream.NewErrorEventFrom(pos, e)
}

func errEventCtx(pos xmlstream.Position, kind xerr.Kind, ctx xerr.Context, format string, args ...interface{}) xmlstream.Event {
	e := xerr.Newf(kind, pos.XerrPosition(), format, args...).WithContext(ctx)
	return xmlstream.NewErrorEventFrom(pos, e)
}

func tagMismatchEvent(pos xmlstream.Position, expected, got string) xmlstream.Event {
	e := xerr.TagMismatchError(pos.XerrPosition(), expected, got)
	return xmlstream.NewErrorEventFrom(pos, e)
}
