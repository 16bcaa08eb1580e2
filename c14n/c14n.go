// Package c14n implements the spec's Canonicalizer (§4.8): W3C C14N 1.0
// and Exclusive C14N serialization of an xmlstream event sequence, in
// all four mode combinations (canonical/exclusive, with/without
// comments).
//
// Grounded on ucarion-c14n's token-driven Canonicalize (c14n.go):
// its two-stack (known vs. rendered namespace declarations)
// shouldRender test and its sortattr ordering rule are reused near
// verbatim in meaning, adapted from encoding/xml.Token's auto-resolved
// Space field (which ucarion's RawTokenReader contract deliberately
// keeps as the raw, unresolved prefix) to this module's Event, whose
// Tag/Prefix accessors already preserve the document's literal prefix
// independently of NamespaceURI. The empty-element lookahead this
// spec requires (never emit "<tag/>") has no ucarion-c14n analogue —
// its token source never distinguishes self-closing from separately
// closed elements — and is grounded instead on the Tokenizer's own
// one-construct-of-lookahead technique for self-closing tags
// (tokenizer/scan.go's queued synthetic EndElement).
package c14n

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/lestrrat-go/xmlstream"
)

// Source is anything producing an xmlstream.Event sequence;
// pipeline.Pipeline and tokenizer.Tokenizer both satisfy it.
type Source interface {
	Next() (xmlstream.Event, bool)
}

// scope is the set of prefix->URI declarations (or renderings)
// introduced by a single element; "" is the default-namespace key.
type scope map[string]string

type nsStack struct{ scopes []scope }

func (s *nsStack) push(sc scope) { s.scopes = append(s.scopes, sc) }
func (s *nsStack) pop()          { s.scopes = s.scopes[:len(s.scopes)-1] }

func (s *nsStack) get(prefix string) (string, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if uri, ok := s.scopes[i][prefix]; ok {
			return uri, true
		}
	}
	return "", false
}

// all returns every prefix currently in scope, innermost value wins.
func (s *nsStack) all() scope {
	out := scope{}
	for i := len(s.scopes) - 1; i >= 0; i-- {
		for p, uri := range s.scopes[i] {
			if _, ok := out[p]; !ok {
				out[p] = uri
			}
		}
	}
	return out
}

// Canonicalize drains src and returns its C14N serialization per
// opts.Algorithm (spec §4.8). Rendering starts at the first
// StartElement and stops once that element's matching EndElement has
// been written; anything before or after the document element
// (Prolog, Doctype, leading/trailing whitespace) is not part of the
// canonical form this spec defines.
func Canonicalize(src Source, opts xmlstream.Options) ([]byte, error) {
	var buf bytes.Buffer
	var known, rendered nsStack
	var pendingOpen *string
	depth := 0
	alg := opts.Algorithm

	flush := func() {
		if pendingOpen != nil {
			buf.WriteString(*pendingOpen)
			pendingOpen = nil
		}
	}

	for {
		ev, ok := src.Next()
		if !ok {
			break
		}
		switch ev.Kind() {
		case xmlstream.StartDocument, xmlstream.EndDocument, xmlstream.Prolog, xmlstream.Doctype, xmlstream.DoctypeModel, xmlstream.Error:
			continue
		case xmlstream.StartElement:
			flush()
			open := renderStart(ev, &known, &rendered, alg, opts.InclusiveNamespaces)
			pendingOpen = &open
			depth++
		case xmlstream.EndElement:
			closeTag := "</" + ev.Tag() + ">"
			if pendingOpen != nil {
				buf.WriteString(*pendingOpen) // spec §4.8: never "<tag/>"
				buf.WriteString(closeTag)
				pendingOpen = nil
			} else {
				buf.WriteString(closeTag)
			}
			known.pop()
			rendered.pop()
			depth--
			if depth == 0 {
				return buf.Bytes(), nil
			}
		case xmlstream.Characters, xmlstream.CDATA, xmlstream.Whitespace:
			if depth == 0 { // outside the document element: not canonicalized
				continue
			}
			flush()
			buf.WriteString(escapeText(ev.Content()))
		case xmlstream.Comment:
			if depth == 0 || !alg.WithComments() {
				continue
			}
			flush()
			buf.WriteString("<!--")
			buf.WriteString(ev.Content())
			buf.WriteString("-->")
		case xmlstream.ProcessingInstruction:
			if depth == 0 {
				continue
			}
			flush()
			fmt.Fprintf(&buf, "<?%s", ev.Tag())
			if ev.PIData() != "" {
				buf.WriteByte(' ')
				buf.WriteString(ev.PIData())
			}
			buf.WriteString("?>")
		}
	}
	return buf.Bytes(), nil
}

// renderStart computes the opening-tag text for a StartElement, pushing
// its namespace declarations onto known and the subset actually
// rendered onto rendered.
func renderStart(ev xmlstream.Event, known, rendered *nsStack, alg xmlstream.C14NAlgorithm, inclusive []string) string {
	declared := scope{}
	visiblyUsed := map[string]bool{ev.Prefix(): true}

	var realAttrs []xmlstream.Attribute
	for _, a := range ev.Attrs().All() {
		if prefix, ok := namespaceDeclName(a.Name); ok {
			declared[prefix] = a.Value
			continue
		}
		prefix, _ := splitQName(a.Name)
		visiblyUsed[prefix] = true
		realAttrs = append(realAttrs, a)
	}

	previousDefault, _ := known.get("")
	known.push(declared)

	inclusiveSet := make(map[string]bool, len(inclusive))
	for _, p := range inclusive {
		inclusiveSet[p] = true
	}

	allKnown := known.all()
	toRender := make(scope)
	for prefix, uri := range allKnown {
		used := true
		if alg.Exclusive() {
			used = visiblyUsed[prefix] || inclusiveSet[prefix]
		}

		var shouldRender bool
		if prefix == "" && uri == "" {
			// xmlns="" is special-cased (spec's "constrained
			// implementation" note): only render the undeclaration
			// if it's actually overriding a prior non-empty default
			// that was itself rendered.
			_, declaredHere := declared[""]
			_, isRendered := rendered.get("")
			shouldRender = used && (!declaredHere || declared[""] != previousDefault) && isRendered
		} else {
			renderedVal, isRendered := rendered.get(prefix)
			shouldRender = used && (!isRendered || renderedVal != uri)
		}
		if shouldRender {
			toRender[prefix] = uri
		}
	}
	rendered.push(toRender)

	type nsAttr struct{ prefix, uri string }
	nsAttrs := make([]nsAttr, 0, len(toRender))
	for p, uri := range toRender {
		nsAttrs = append(nsAttrs, nsAttr{p, uri})
	}
	sort.Slice(nsAttrs, func(i, j int) bool {
		if nsAttrs[i].prefix == "" {
			return true
		}
		if nsAttrs[j].prefix == "" {
			return false
		}
		return nsAttrs[i].prefix < nsAttrs[j].prefix
	})

	sortedAttrs := append([]xmlstream.Attribute(nil), realAttrs...)
	sort.SliceStable(sortedAttrs, func(i, j int) bool {
		pi, li := splitQName(sortedAttrs[i].Name)
		pj, lj := splitQName(sortedAttrs[j].Name)
		var ui, uj string
		if pi != "" {
			ui, _ = known.get(pi)
		}
		if pj != "" {
			uj, _ = known.get(pj)
		}
		if ui != uj {
			return ui < uj
		}
		return li < lj
	})

	var b strings.Builder
	fmt.Fprintf(&b, "<%s", ev.Tag())
	for _, n := range nsAttrs {
		if n.prefix == "" {
			fmt.Fprintf(&b, ` xmlns="%s"`, escapeAttr(n.uri))
		} else {
			fmt.Fprintf(&b, ` xmlns:%s="%s"`, n.prefix, escapeAttr(n.uri))
		}
	}
	for _, a := range sortedAttrs {
		fmt.Fprintf(&b, ` %s="%s"`, a.Name, escapeAttr(a.Value))
	}
	b.WriteByte('>')
	return b.String()
}

// namespaceDeclName reports the prefix declared by a "xmlns" or
// "xmlns:foo" attribute name ("" for the default namespace).
func namespaceDeclName(name string) (string, bool) {
	if name == "xmlns" {
		return "", true
	}
	if prefix, ok := strings.CutPrefix(name, "xmlns:"); ok {
		return prefix, true
	}
	return "", false
}

func splitQName(name string) (prefix, local string) {
	if i := strings.IndexByte(name, ':'); i != -1 {
		return name[:i], name[i+1:]
	}
	return "", name
}

var textReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\r", "&#xD;",
)

var attrReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	`"`, "&quot;",
	"\t", "&#x9;",
	"\n", "&#xA;",
	"\r", "&#xD;",
)

func escapeText(s string) string { return textReplacer.Replace(s) }
func escapeAttr(s string) string { return attrReplacer.Replace(s) }
