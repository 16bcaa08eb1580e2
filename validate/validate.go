// Package validate implements the spec's Validators (§4.5): small,
// single-purpose pipeline.Callbacks that are pure with respect to the
// event stream and only ever inject Error events, never rewrite
// payloads. They compose by stacking, one pipeline.Pipeline per
// validator, mirroring `parse ▷ v1 ▷ v2 ▷ …`.
//
// Grounded on helium's split of sax.DTDHandler/LexicalHandler/
// ContentHandler into small single-purpose interfaces (sax/
// interface.go), generalized from "one interface per concern" to "one
// pipeline.Callback per concern".
package validate

import (
	"strings"

	"github.com/lestrrat-go/xmlstream"
	"github.com/lestrrat-go/xmlstream/pipeline"
	"github.com/lestrrat-go/xmlstream/xerr"
)

const (
	xmlNamespaceURI   = "http://www.w3.org/XML/1998/namespace"
	xmlnsNamespaceURI = "http://www.w3.org/2000/xmlns/"
)

func relay(ev xmlstream.Event) []xmlstream.Event { return []xmlstream.Event{ev} }

func errEvent(pos xmlstream.Position, kind xerr.Kind, format string, args ...interface{}) xmlstream.Event {
	e := xerr.Newf(kind, pos.XerrPosition(), format, args...)
	return xmlstream.NewErrorEventFrom(pos, e)
}

func errEventCtx(pos xmlstream.Position, kind xerr.Kind, ctx xerr.Context, format string, args ...interface{}) xmlstream.Event {
	e := xerr.Newf(kind, pos.XerrPosition(), format, args...).WithContext(ctx)
	return xmlstream.NewErrorEventFrom(pos, e)
}

// wellFormedState is the accumulator WellFormed folds over: the count
// of StartElements observed directly at the document root.
type wellFormedState struct {
	rootCount int
	depth     int
}

// WellFormed enforces the single remaining structural check not
// already covered by Pipeline's own stack discipline: exactly one root
// element (spec §4.5). It returns its callback alongside a fresh zero
// accumulator, since its accumulator type is unexported: callers thread
// it straight into pipeline.New without needing to spell the type.
func WellFormed() (pipeline.Callback[wellFormedState], wellFormedState) {
	cb := func(ev xmlstream.Event, _ pipeline.Path, acc wellFormedState) ([]xmlstream.Event, wellFormedState) {
		switch ev.Kind() {
		case xmlstream.StartElement:
			if acc.depth == 0 {
				acc.rootCount++
				if acc.rootCount > 1 {
					acc.depth++
					return []xmlstream.Event{
						errEvent(ev.Pos(), xerr.ParseError, "document must have exactly one root element, found a second <%s>", ev.Tag()),
						ev,
					}, acc
				}
			}
			acc.depth++
		case xmlstream.EndElement:
			if acc.depth > 0 {
				acc.depth--
			}
		}
		return relay(ev), acc
	}
	return cb, wellFormedState{}
}

// Attributes reports DuplicateAttr for every attribute name that
// appears more than once within a single StartElement (spec §4.5).
func Attributes() pipeline.Callback[struct{}] {
	return func(ev xmlstream.Event, _ pipeline.Path, acc struct{}) ([]xmlstream.Event, struct{}) {
		if ev.Kind() != xmlstream.StartElement {
			return relay(ev), acc
		}
		dups := ev.Attrs().DuplicateNames()
		if len(dups) == 0 {
			return relay(ev), acc
		}
		out := make([]xmlstream.Event, 0, len(dups)+1)
		for _, name := range dups {
			out = append(out, errEventCtx(ev.Pos(), xerr.DuplicateAttr, xerr.Context{"name": name},
				"duplicate attribute %q on <%s>", name, ev.Tag()))
		}
		return append(out, ev), acc
	}
}

// Comments rejects a "--" substring inside a comment body, which XML
// 1.0 forbids (spec §4.5).
func Comments() pipeline.Callback[struct{}] {
	return func(ev xmlstream.Event, _ pipeline.Path, acc struct{}) ([]xmlstream.Event, struct{}) {
		if ev.Kind() != xmlstream.Comment {
			return relay(ev), acc
		}
		if strings.Contains(ev.Content(), "--") {
			return []xmlstream.Event{
				errEvent(ev.Pos(), xerr.InvalidCharacter, `comment body must not contain "--"`),
				ev,
			}, acc
		}
		return relay(ev), acc
	}
}

// ProcessingInstructions rejects a target of "xml" in any letter case,
// reserved by XML 1.0 for the declaration itself (spec §4.5). A
// leading "<?xml ...?>" never reaches this validator as a
// ProcessingInstruction event; the Tokenizer already classifies it as
// Prolog.
func ProcessingInstructions() pipeline.Callback[struct{}] {
	return func(ev xmlstream.Event, _ pipeline.Path, acc struct{}) ([]xmlstream.Event, struct{}) {
		if ev.Kind() != xmlstream.ProcessingInstruction {
			return relay(ev), acc
		}
		if strings.EqualFold(ev.Tag(), "xml") {
			return []xmlstream.Event{
				errEvent(ev.Pos(), xerr.ParseError, "processing instruction target %q is reserved", ev.Tag()),
				ev,
			}, acc
		}
		return relay(ev), acc
	}
}

// Namespaces rejects the two declaration-time namespace misuses spec
// §4.5 calls out directly (as opposed to reference-time misuse, which
// is package nsresolve's UndeclaredNamespace): binding the "xml" prefix
// to anything but its fixed URI, and binding any prefix to one of the
// two reserved URIs other than its fixed prefix. It inspects raw
// "xmlns"/"xmlns:*" attribute declarations, so it may run before or
// after nsresolve in the stack.
func Namespaces() pipeline.Callback[struct{}] {
	return func(ev xmlstream.Event, _ pipeline.Path, acc struct{}) ([]xmlstream.Event, struct{}) {
		if ev.Kind() != xmlstream.StartElement {
			return relay(ev), acc
		}
		var errs []xmlstream.Event
		for _, a := range ev.Attrs().All() {
			switch {
			case a.Name == "xmlns:xml":
				if a.Value != xmlNamespaceURI {
					errs = append(errs, errEvent(ev.Pos(), xerr.ParseError,
						`prefix "xml" must be bound to %q, got %q`, xmlNamespaceURI, a.Value))
				}
			case a.Name == "xmlns:xmlns":
				errs = append(errs, errEvent(ev.Pos(), xerr.ParseError, `prefix "xmlns" must not be redeclared`))
			case strings.HasPrefix(a.Name, "xmlns:"):
				prefix := strings.TrimPrefix(a.Name, "xmlns:")
				if a.Value == xmlNamespaceURI && prefix != "xml" {
					errs = append(errs, errEvent(ev.Pos(), xerr.ParseError,
						"only prefix \"xml\" may be bound to %q", xmlNamespaceURI))
				}
				if a.Value == xmlnsNamespaceURI {
					errs = append(errs, errEvent(ev.Pos(), xerr.ParseError,
						"no prefix may be bound to the reserved URI %q", xmlnsNamespaceURI))
				}
			}
		}
		if len(errs) == 0 {
			return relay(ev), acc
		}
		return append(errs, ev), acc
	}
}
