// Package nsresolve implements the spec's NamespaceResolver (§4.6): a
// pipeline.Callback maintaining a stack of prefix→URI scopes, expanding
// element and attribute names with their resolved namespace URI.
//
// Grounded on ucarion-c14n's internal/stack package (a stack of
// per-element declaration maps with shadow-aware Get, used there to
// track which namespace declarations are "known" vs "rendered" during
// canonicalization) adapted here to the simpler "known, scoped" half of
// that bookkeeping: one map of new declarations per scope, looked up by
// walking the stack from the innermost scope outward.
package nsresolve

import (
	"strings"

	"github.com/lestrrat-go/xmlstream"
	"github.com/lestrrat-go/xmlstream/pipeline"
	"github.com/lestrrat-go/xmlstream/xerr"
)

const (
	xmlPrefix   = "xml"
	xmlURI      = "http://www.w3.org/XML/1998/namespace"
	xmlnsPrefix = "xmlns"
	xmlnsURI    = "http://www.w3.org/2000/xmlns/"
)

// scope is the set of prefix->URI declarations introduced by a single
// StartElement; "" is the key for the default namespace.
type scope map[string]string

// State is the Resolver's accumulator: a stack of scopes, outermost
// first, with a permanent base scope pre-binding "xml" and "xmlns".
type State struct {
	scopes []scope
}

// NewState builds the initial accumulator, with "xml" and "xmlns"
// pre-bound per XML Namespaces §4 (spec §4.6).
func NewState() State {
	return State{scopes: []scope{{xmlPrefix: xmlURI, xmlnsPrefix: xmlnsURI}}}
}

// Get resolves prefix by walking the scope stack from innermost to
// outermost (base scope last).
func (s State) Get(prefix string) (string, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if uri, ok := s.scopes[i][prefix]; ok {
			return uri, true
		}
	}
	return "", false
}

func (s State) push(sc scope) State {
	out := make([]scope, len(s.scopes)+1)
	copy(out, s.scopes)
	out[len(s.scopes)] = sc
	return State{scopes: out}
}

func (s State) pop() State {
	return State{scopes: s.scopes[:len(s.scopes)-1]}
}

// Resolver returns the pipeline.Callback implementing NamespaceResolver,
// alongside a fresh initial accumulator (spec §4.6).
func Resolver() (pipeline.Callback[State], State) {
	cb := func(ev xmlstream.Event, _ pipeline.Path, acc State) ([]xmlstream.Event, State) {
		switch ev.Kind() {
		case xmlstream.StartElement:
			return resolveStart(ev, acc)
		case xmlstream.EndElement:
			return []xmlstream.Event{ev}, acc.pop()
		default:
			return []xmlstream.Event{ev}, acc
		}
	}
	return cb, NewState()
}

func resolveStart(ev xmlstream.Event, acc State) ([]xmlstream.Event, State) {
	declared := scope{}
	for _, a := range ev.Attrs().All() {
		switch {
		case a.Name == xmlnsPrefix:
			declared[""] = a.Value
		case strings.HasPrefix(a.Name, xmlnsPrefix+":"):
			declared[strings.TrimPrefix(a.Name, xmlnsPrefix+":")] = a.Value
		}
	}

	next := acc.push(declared)

	var errs []xmlstream.Event
	uri := resolveName(ev.Pos(), ev.Prefix(), next, &errs)
	ev = ev.WithNamespaceURI(uri)

	attrs := ev.Attrs()
	for i, a := range attrs.All() {
		prefix, _ := splitQName(a.Name)
		if prefix == "" {
			continue // unprefixed attributes never inherit the default namespace (XML Namespaces §6.2)
		}
		if a.Name == xmlnsPrefix || strings.HasPrefix(a.Name, xmlnsPrefix+":") {
			continue // declarations are not themselves looked up
		}
		attrURI := resolveName(ev.Pos(), prefix, next, &errs)
		attrs = attrs.WithExpandedURI(i, attrURI)
	}
	ev = ev.WithAttrs(attrs)

	out := make([]xmlstream.Event, 0, len(errs)+1)
	out = append(out, errs...)
	out = append(out, ev)
	return out, next
}

// resolveName looks up prefix in scope, appending an UndeclaredNamespace
// error to *errs if prefix is non-empty and unresolved. An empty prefix
// resolves to the default namespace, or "" if none is declared (absence
// of a default namespace is not an error).
func resolveName(pos xmlstream.Position, prefix string, sc State, errs *[]xmlstream.Event) string {
	if prefix == "" {
		uri, _ := sc.Get("")
		return uri
	}
	uri, ok := sc.Get(prefix)
	if !ok {
		e := xerr.Newf(xerr.UndeclaredNamespace, pos.XerrPosition(), "undeclared namespace prefix %q", prefix).
			WithContext(xerr.Context{"prefix": prefix})
		*errs = append(*errs, xmlstream.NewErrorEventFrom(pos, e))
		return ""
	}
	return uri
}

func splitQName(name string) (prefix, local string) {
	if i := strings.IndexByte(name, ':'); i != -1 {
		return name[:i], name[i+1:]
	}
	return "", name
}
