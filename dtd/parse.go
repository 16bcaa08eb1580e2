package dtd

import (
	"fmt"
	"strings"
)

// Parse parses the raw declaration text of a Doctype event (everything
// from after "<!" to before the closing ">", as tokenizer.scanDoctype
// captures it, so raw still begins with the "DOCTYPE" keyword) into a
// Model (spec §4.7).
func Parse(raw string) (*Model, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "DOCTYPE")
	s = strings.TrimLeft(s, " \t\r\n")

	root, rest := splitToken(s)
	if root == "" {
		return nil, fmt.Errorf("dtd: missing root element name")
	}
	model := NewModel(root)

	rest = strings.TrimLeft(rest, " \t\r\n")
	rest, err := parseExternalID(rest, model)
	if err != nil {
		return nil, err
	}

	rest = strings.TrimLeft(rest, " \t\r\n")
	if rest == "" || rest[0] != '[' {
		return model, nil
	}
	end, ok := matchBracket(rest, 0)
	if !ok {
		return nil, fmt.Errorf("dtd: unterminated internal subset")
	}
	subset := rest[1:end]

	for i := 0; i < len(subset); {
		for i < len(subset) && isSubsetSpace(subset[i]) {
			i++
		}
		if i >= len(subset) {
			break
		}
		if strings.HasPrefix(subset[i:], "<!--") {
			close := strings.Index(subset[i:], "-->")
			if close == -1 {
				return nil, fmt.Errorf("dtd: unterminated comment in internal subset")
			}
			i += close + len("-->")
			continue
		}
		if subset[i] != '<' {
			// stray parameter-entity reference or other markup this
			// parser does not expand; skip to the next declaration.
			j := strings.IndexByte(subset[i:], '<')
			if j == -1 {
				break
			}
			i += j
			continue
		}
		decl, next, ok := scanOneDecl(subset, i)
		if !ok {
			return nil, fmt.Errorf("dtd: malformed declaration at offset %d", i)
		}
		i = next
		if err := parseDecl(decl, model); err != nil {
			return nil, err
		}
	}

	return model, nil
}

func isSubsetSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// parseExternalID consumes a leading "SYSTEM "uri"" or "PUBLIC "pub"
// "uri"" external identifier, if present, recording it on model.
func parseExternalID(s string, model *Model) (string, error) {
	switch {
	case strings.HasPrefix(s, "SYSTEM"):
		s = strings.TrimLeft(s[len("SYSTEM"):], " \t\r\n")
		sysID, rest, ok := scanQuoted(s)
		if !ok {
			return "", fmt.Errorf("dtd: malformed SYSTEM identifier")
		}
		model.SystemID = sysID
		return rest, nil
	case strings.HasPrefix(s, "PUBLIC"):
		s = strings.TrimLeft(s[len("PUBLIC"):], " \t\r\n")
		pubID, rest, ok := scanQuoted(s)
		if !ok {
			return "", fmt.Errorf("dtd: malformed PUBLIC identifier")
		}
		rest = strings.TrimLeft(rest, " \t\r\n")
		sysID, rest, ok := scanQuoted(rest)
		if !ok {
			return "", fmt.Errorf("dtd: malformed PUBLIC system identifier")
		}
		model.PublicID, model.SystemID = pubID, sysID
		return rest, nil
	default:
		return s, nil
	}
}

// matchBracket finds the index in s of the ']' matching the '[' at
// s[start], tracking quotes so a quoted ']' doesn't end the subset
// early. Conditional sections ("<![INCLUDE[" / "<![IGNORE[") nest an
// extra level of brackets, so plain depth counting (mirroring
// tokenizer/doctype.go's findDoctypeEnd, adapted to a plain string
// rather than a live chunked cursor) is still correct.
func matchBracket(s string, start int) (int, bool) {
	depth := 1
	inQuote := byte(0)
	for i := start + 1; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			}
		case c == '"' || c == '\'':
			inQuote = c
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// scanOneDecl scans one "<!...>" declaration starting at s[start],
// quote-aware since ENTITY/ATTLIST default values may contain ">".
// Unlike matchBracket, declarations never nest, so this tracks no
// depth beyond the single opening "<!".
func scanOneDecl(s string, start int) (decl string, next int, ok bool) {
	if !strings.HasPrefix(s[start:], "<!") {
		return "", 0, false
	}
	inQuote := byte(0)
	for i := start + 2; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			}
		case c == '"' || c == '\'':
			inQuote = c
		case c == '>':
			return s[start : i+1], i + 1, true
		}
	}
	return "", 0, false
}

func parseDecl(decl string, model *Model) error {
	body := strings.TrimSuffix(strings.TrimPrefix(decl, "<!"), ">")
	body = strings.TrimSpace(body)
	switch {
	case strings.HasPrefix(body, "ELEMENT"):
		return parseElement(strings.TrimSpace(body[len("ELEMENT"):]), model)
	case strings.HasPrefix(body, "ATTLIST"):
		return parseAttlist(strings.TrimSpace(body[len("ATTLIST"):]), model)
	case strings.HasPrefix(body, "ENTITY"):
		return parseEntity(strings.TrimSpace(body[len("ENTITY"):]), model)
	case strings.HasPrefix(body, "NOTATION"):
		return parseNotation(strings.TrimSpace(body[len("NOTATION"):]), model)
	default:
		return nil // unrecognized/parameter-entity-only declaration: ignored
	}
}

func parseElement(body string, model *Model) error {
	name, rest := splitToken(body)
	if name == "" {
		return fmt.Errorf("dtd: malformed ELEMENT declaration")
	}
	rest = strings.TrimSpace(rest)
	decl := ElementDecl{Name: name, Content: rest}
	switch {
	case rest == "EMPTY":
		decl.Type = ContentEmpty
	case rest == "ANY":
		decl.Type = ContentAny
	case strings.Contains(rest, "#PCDATA"):
		decl.Type = ContentMixed
	default:
		decl.Type = ContentChildren
	}
	model.Elements[name] = decl
	return nil
}

func parseAttlist(body string, model *Model) error {
	tokens := tokenize(body)
	if len(tokens) == 0 {
		return fmt.Errorf("dtd: malformed ATTLIST declaration")
	}
	elem := tokens[0]
	tokens = tokens[1:]

	for len(tokens) >= 2 {
		attr := AttributeDecl{Element: elem, Name: tokens[0]}
		typeTok := tokens[1]
		tokens = tokens[2:]

		switch {
		case typeTok == "NOTATION":
			if len(tokens) == 0 {
				return fmt.Errorf("dtd: ATTLIST %s.%s: missing NOTATION enumeration", elem, attr.Name)
			}
			attr.Type = AttrNotation
			attr.Notation = splitEnum(tokens[0])
			tokens = tokens[1:]
		case strings.HasPrefix(typeTok, "("):
			attr.Type = AttrEnumeration
			attr.Values = splitEnum(typeTok)
		default:
			t, err := parseAttrType(typeTok)
			if err != nil {
				return fmt.Errorf("dtd: ATTLIST %s.%s: %w", elem, attr.Name, err)
			}
			attr.Type = t
		}

		if len(tokens) == 0 {
			return fmt.Errorf("dtd: ATTLIST %s.%s: missing default", elem, attr.Name)
		}
		defTok := tokens[0]
		switch defTok {
		case "#REQUIRED":
			attr.Default = AttrDefaultRequired
			tokens = tokens[1:]
		case "#IMPLIED":
			attr.Default = AttrDefaultImplied
			tokens = tokens[1:]
		case "#FIXED":
			if len(tokens) < 2 {
				return fmt.Errorf("dtd: ATTLIST %s.%s: missing FIXED value", elem, attr.Name)
			}
			attr.Default = AttrDefaultFixed
			attr.Value = unquote(tokens[1])
			tokens = tokens[2:]
		default:
			attr.Default = AttrDefaultNone
			attr.Value = unquote(defTok)
			tokens = tokens[1:]
		}

		model.addAttribute(attr)
	}
	return nil
}

func parseAttrType(tok string) (AttributeType, error) {
	switch tok {
	case "CDATA":
		return AttrCDATA, nil
	case "ID":
		return AttrID, nil
	case "IDREF":
		return AttrIDRef, nil
	case "IDREFS":
		return AttrIDRefs, nil
	case "ENTITY":
		return AttrEntity, nil
	case "ENTITIES":
		return AttrEntities, nil
	case "NMTOKEN":
		return AttrNmtoken, nil
	case "NMTOKENS":
		return AttrNmtokens, nil
	default:
		return AttrCDATA, fmt.Errorf("unknown attribute type %q", tok)
	}
}

func splitEnum(paren string) Enumeration {
	body := strings.TrimSuffix(strings.TrimPrefix(paren, "("), ")")
	parts := strings.Split(body, "|")
	out := make(Enumeration, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func parseEntity(body string, model *Model) error {
	isParam := strings.HasPrefix(body, "%")
	if isParam {
		body = strings.TrimSpace(body[1:])
	}
	name, rest := splitToken(body)
	if name == "" {
		return fmt.Errorf("dtd: malformed ENTITY declaration")
	}
	rest = strings.TrimSpace(rest)

	kind := GeneralEntity
	if isParam {
		kind = ParameterEntity
	}
	e := Entity{Name: name, Kind: kind}

	switch {
	case strings.HasPrefix(rest, "SYSTEM"):
		rest = strings.TrimSpace(rest[len("SYSTEM"):])
		sysID, rest2, ok := scanQuoted(rest)
		if !ok {
			return fmt.Errorf("dtd: ENTITY %s: malformed SYSTEM identifier", name)
		}
		e.SystemID = sysID
		if ndata, ok := parseNDATA(rest2); ok {
			e.NDATA = ndata
		}
	case strings.HasPrefix(rest, "PUBLIC"):
		rest = strings.TrimSpace(rest[len("PUBLIC"):])
		pubID, rest2, ok := scanQuoted(rest)
		if !ok {
			return fmt.Errorf("dtd: ENTITY %s: malformed PUBLIC identifier", name)
		}
		rest2 = strings.TrimSpace(rest2)
		sysID, rest3, ok := scanQuoted(rest2)
		if !ok {
			return fmt.Errorf("dtd: ENTITY %s: malformed PUBLIC system identifier", name)
		}
		e.PublicID, e.SystemID = pubID, sysID
		if ndata, ok := parseNDATA(rest3); ok {
			e.NDATA = ndata
		}
	default:
		val, _, ok := scanQuoted(rest)
		if !ok {
			return fmt.Errorf("dtd: ENTITY %s: malformed value", name)
		}
		e.Value = val
	}

	if isParam {
		model.Parameter[name] = e
	} else {
		model.General[name] = e
	}
	return nil
}

func parseNDATA(rest string) (string, bool) {
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "NDATA") {
		return "", false
	}
	name, _ := splitToken(strings.TrimSpace(rest[len("NDATA"):]))
	return name, name != ""
}

func parseNotation(body string, model *Model) error {
	name, rest := splitToken(body)
	if name == "" {
		return fmt.Errorf("dtd: malformed NOTATION declaration")
	}
	rest = strings.TrimSpace(rest)
	n := Notation{Name: name}
	switch {
	case strings.HasPrefix(rest, "SYSTEM"):
		rest = strings.TrimSpace(rest[len("SYSTEM"):])
		sysID, _, ok := scanQuoted(rest)
		if !ok {
			return fmt.Errorf("dtd: NOTATION %s: malformed SYSTEM identifier", name)
		}
		n.SystemID = sysID
	case strings.HasPrefix(rest, "PUBLIC"):
		rest = strings.TrimSpace(rest[len("PUBLIC"):])
		pubID, rest2, ok := scanQuoted(rest)
		if !ok {
			return fmt.Errorf("dtd: NOTATION %s: malformed PUBLIC identifier", name)
		}
		n.PublicID = pubID
		rest2 = strings.TrimSpace(rest2)
		if sysID, _, ok := scanQuoted(rest2); ok {
			n.SystemID = sysID
		}
	}
	model.Notations[name] = n
	return nil
}

// splitToken splits s at the first run of whitespace, returning the
// leading token and the (untrimmed) remainder.
func splitToken(s string) (token, rest string) {
	i := 0
	for i < len(s) && !isSubsetSpace(s[i]) {
		i++
	}
	token = s[:i]
	if i < len(s) {
		rest = s[i:]
	}
	return token, rest
}

// scanQuoted scans a leading quoted string (single or double), returning
// its unquoted content and the remainder after the closing quote.
func scanQuoted(s string) (value, rest string, ok bool) {
	if s == "" || (s[0] != '"' && s[0] != '\'') {
		return "", s, false
	}
	q := s[0]
	end := strings.IndexByte(s[1:], q)
	if end == -1 {
		return "", s, false
	}
	return s[1 : 1+end], s[1+end+1:], true
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// tokenize splits an ATTLIST body into whitespace-separated tokens,
// treating a parenthesized enumeration or a quoted string as a single
// token.
func tokenize(s string) []string {
	var out []string
	i := 0
	for i < len(s) {
		for i < len(s) && isSubsetSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			break
		}
		switch s[i] {
		case '(':
			depth := 0
			start := i
			for i < len(s) {
				if s[i] == '(' {
					depth++
				} else if s[i] == ')' {
					depth--
					i++
					if depth == 0 {
						break
					}
					continue
				}
				i++
			}
			out = append(out, s[start:i])
		case '"', '\'':
			q := s[i]
			start := i
			i++
			for i < len(s) && s[i] != q {
				i++
			}
			if i < len(s) {
				i++
			}
			out = append(out, s[start:i])
		default:
			start := i
			for i < len(s) && !isSubsetSpace(s[i]) && s[i] != '(' {
				i++
			}
			out = append(out, s[start:i])
		}
	}
	return out
}
