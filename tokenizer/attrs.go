package tokenizer

import (
	"github.com/lestrrat-go/xmlstream"
	"github.com/lestrrat-go/xmlstream/xerr"
)

// scanOneAttr scans a single Name Eq AttValue production. The cursor
// must already be positioned at the attribute name's first byte.
// Returns a non-nil error event if the production is malformed.
func (t *Tokenizer) scanOneAttr() (xmlstream.Attribute, *xmlstream.Event) {
	name, ok := t.scanName()
	if !ok {
		ev := t.errEvent(xerr.InvalidNameStart, "expected attribute name")
		return xmlstream.Attribute{}, &ev
	}

	t.skipWS()
	if b, ok := t.byteAt(0); !ok || b != '=' {
		ev := t.errEvent(xerr.MissingAttrValue, "expected '=' after attribute name %q", name)
		return xmlstream.Attribute{}, &ev
	}
	t.advance(1)
	t.skipWS()

	quote, ok := t.byteAt(0)
	if !ok || (quote != '\'' && quote != '"') {
		ev := t.errEvent(xerr.InvalidQuote, "expected quote to start value of attribute %q", name)
		return xmlstream.Attribute{}, &ev
	}
	t.advance(1)

	idx, found := t.findTerminator([]byte{quote})
	if !found {
		ev := t.errEvent(xerr.UnclosedTag, "unterminated value for attribute %q", name)
		return xmlstream.Attribute{}, &ev
	}
	raw := string(t.buf[t.cursor : t.cursor+idx])
	t.advance(idx)
	t.advance(1) // closing quote

	value := resolveText(normalizeAttrWhitespace(raw))
	return xmlstream.Attribute{Name: name, Value: value}, nil
}

// scanStartTagAttrs scans the attribute list and closing delimiter of a
// start tag, the cursor positioned just after the element name. Returns
// the attributes, whether the tag was self-closing ("/>"), and an error
// event on malformed input.
func (t *Tokenizer) scanStartTagAttrs() ([]xmlstream.Attribute, bool, *xmlstream.Event) {
	var attrs []xmlstream.Attribute
	for {
		t.skipWS()
		b, ok := t.byteAt(0)
		if !ok {
			ev := t.errEvent(xerr.UnclosedTag, "unterminated start tag")
			return attrs, false, &ev
		}
		if b == '/' {
			if b2, ok := t.byteAt(1); !ok || b2 != '>' {
				ev := t.errEvent(xerr.UnclosedTag, "expected '>' after '/' in start tag")
				return attrs, false, &ev
			}
			t.advance(2)
			return attrs, true, nil
		}
		if b == '>' {
			t.advance(1)
			return attrs, false, nil
		}
		attr, errEv := t.scanOneAttr()
		if errEv != nil {
			return attrs, false, errEv
		}
		attrs = append(attrs, attr)
	}
}

// scanPseudoAttrs scans the pseudo-attribute list of an XML declaration
// ("<?xml" already consumed), stopping at "?>" (left unconsumed; the
// caller consumes it). Malformed pseudo-attributes stop the scan early
// rather than failing the whole declaration, since version/encoding/
// standalone values are re-validated by a higher layer.
func (t *Tokenizer) scanPseudoAttrs() xmlstream.AttributeList {
	var attrs []xmlstream.Attribute
	for {
		t.skipWS()
		b1, ok1 := t.byteAt(0)
		b2, ok2 := t.byteAt(1)
		if ok1 && ok2 && b1 == '?' && b2 == '>' {
			break
		}
		if !ok1 {
			break
		}
		attr, errEv := t.scanOneAttr()
		if errEv != nil {
			break
		}
		attrs = append(attrs, attr)
	}
	return xmlstream.NewAttributeList(attrs)
}
