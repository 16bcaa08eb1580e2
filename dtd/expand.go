package dtd

import (
	"errors"
	"strconv"
	"strings"
)

var (
	errUnknownEntity  = errors.New("unknown entity")
	errDepthExceeded  = errors.New("max expansion depth exceeded")
	errExpansionLimit = errors.New("max total expansion exceeded")
)

// expandEntity recursively expands entities[name]'s replacement text,
// resolving any further "&ref;"/character references it contains,
// enforcing maxDepth and the shared total budget (spec §4.7: two hard
// limits, counted per top-level reference).
func expandEntity(name string, entities map[string]string, depth, maxDepth int, budget *int, maxTotal int) (string, error) {
	if depth > maxDepth {
		return "", errDepthExceeded
	}
	val, ok := entities[name]
	if !ok {
		return "", errUnknownEntity
	}

	var b strings.Builder
	for i := 0; i < len(val); {
		if val[i] != '&' {
			b.WriteByte(val[i])
			i++
			continue
		}
		semi := strings.IndexByte(val[i:], ';')
		if semi == -1 {
			b.WriteByte(val[i])
			i++
			continue
		}
		ref := val[i+1 : i+semi]
		i += semi + 1
		if ref == "" {
			continue
		}
		if ref[0] == '#' {
			r, ok := decodeCharRef(ref)
			if !ok {
				b.WriteString("&" + ref + ";")
				continue
			}
			b.WriteRune(r)
			continue
		}
		sub, err := expandEntity(ref, entities, depth+1, maxDepth, budget, maxTotal)
		if err != nil {
			return "", err
		}
		b.WriteString(sub)
	}

	out := b.String()
	*budget += len(out)
	if *budget > maxTotal {
		return "", errExpansionLimit
	}
	return out, nil
}

// decodeCharRef decodes the body of a "#<digits>" or "#x<hex>" character
// reference (the part between "&" and ";", with the leading "#" still
// attached).
func decodeCharRef(ref string) (rune, bool) {
	body := ref[1:]
	var n int64
	var err error
	if strings.HasPrefix(body, "x") || strings.HasPrefix(body, "X") {
		n, err = strconv.ParseInt(body[1:], 16, 32)
	} else {
		n, err = strconv.ParseInt(body, 10, 32)
	}
	if err != nil || n < 0 || n > 0x10FFFF {
		return 0, false
	}
	return rune(n), true
}
