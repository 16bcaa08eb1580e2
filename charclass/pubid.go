package charclass

// ValidPubidChar reports whether r is a valid PubidChar, per the
// production:
//
//	PubidChar ::= #x20 | #xD | #xA | [a-zA-Z0-9] | [-'()+,./:=?;!*#@$_%]
func ValidPubidChar(r rune) bool {
	switch {
	case r == 0x20 || r == 0x0D || r == 0x0A:
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '-' || r == '\'' || r == '(' || r == ')' || r == '+' || r == ',':
		return true
	case r == '.' || r == '/' || r == ':' || r == '=' || r == '?' || r == ';':
		return true
	case r == '!' || r == '*' || r == '#' || r == '@' || r == '$' || r == '_' || r == '%':
		return true
	default:
		return false
	}
}
