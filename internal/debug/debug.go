// Package debug provides the indented entry/exit tracer used across the
// xmlstream packages. It is adapted from helium's internal/debug package:
// same Enabled flag and IPrintf/IRelease guard shape, gated on an
// environment variable instead of a build tag, with an optional position
// suffix since a stuck parse is almost always debugged by its position.
package debug

import (
	"fmt"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// Enabled is true when XMLSTREAM_DEBUG is set to a non-empty value.
var Enabled = os.Getenv("XMLSTREAM_DEBUG") != ""

var depth int

// Guard is returned by IPrintf and released with IRelease to print the
// matching exit trace line at the same indentation depth.
type Guard struct {
	label string
}

// Printf prints a single trace line at the current indentation depth.
// It is a no-op unless Enabled.
func Printf(format string, args ...interface{}) {
	if !Enabled {
		return
	}
	fmt.Fprintf(os.Stderr, "%s%s\n", indent(), fmt.Sprintf(format, args...))
}

// PosPrintf is like Printf but appends a position suffix, formatted as
// "@line:col", for call sites where the source position is relevant.
func PosPrintf(line, col int, format string, args ...interface{}) {
	if !Enabled {
		return
	}
	fmt.Fprintf(os.Stderr, "%s%s @%d:%d\n", indent(), fmt.Sprintf(format, args...), line, col)
}

// IPrintf prints an entry trace line and increments the indentation
// depth; call IRelease on the returned Guard to print the matching exit
// line and restore the depth.
func IPrintf(format string, args ...interface{}) *Guard {
	label := fmt.Sprintf(format, args...)
	if Enabled {
		fmt.Fprintf(os.Stderr, "%s%s\n", indent(), label)
		depth++
	}
	return &Guard{label: label}
}

// IRelease prints the exit trace line matching the Guard's entry line and
// decrements the indentation depth.
func (g *Guard) IRelease(format string, args ...interface{}) {
	if !Enabled {
		return
	}
	depth--
	fmt.Fprintf(os.Stderr, "%s%s\n", indent(), fmt.Sprintf(format, args...))
}

// Dump prints a recursively-expanded, multi-line dump of v (via
// go-spew) under label, for values too structured for Printf's
// single-line format — an open-tag stack or accumulator, say. No-op
// unless Enabled.
func Dump(label string, v interface{}) {
	if !Enabled {
		return
	}
	fmt.Fprintf(os.Stderr, "%s%s:\n%s", indent(), label, spew.Sdump(v))
}

func indent() string {
	if depth == 0 {
		return ""
	}
	return strings.Repeat("  ", depth)
}
