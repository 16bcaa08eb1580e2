// Package xerr implements the spec's ErrorModel (§4.9): a closed set of
// error kinds, a structured Error value carrying position and context,
// and a source-window formatter. It is grounded on helium's split
// between plain errors.New sentinels for programmer-error conditions
// (interface.go's ErrNilNode, ErrInvalidOperation) and a richer,
// field-carrying struct for data-error conditions (ErrUnimplemented) —
// generalized here into one struct type with a closed Kind enum, since
// the spec requires a closed set of kinds that all carry position and
// context uniformly.
package xerr

import (
	"fmt"
	"strings"
)

// Kind is the closed set of error kinds named in spec §4.9.
type Kind int

const (
	ParseError Kind = iota
	TagMismatch
	UnexpectedClose
	DuplicateAttr
	InvalidCharacter
	InvalidNameStart
	UndeclaredNamespace
	UnclosedTag
	UnclosedCDATA
	UnclosedComment
	UnclosedProcessingInstruction
	MissingAttrValue
	InvalidQuote
	BufferOverflow
	StreamError
)

var kindNames = [...]string{
	"ParseError",
	"TagMismatch",
	"UnexpectedClose",
	"DuplicateAttr",
	"InvalidCharacter",
	"InvalidNameStart",
	"UndeclaredNamespace",
	"UnclosedTag",
	"UnclosedCDATA",
	"UnclosedComment",
	"UnclosedProcessingInstruction",
	"MissingAttrValue",
	"InvalidQuote",
	"BufferOverflow",
	"StreamError",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// Position is the minimal subset of xmlstream.Position this package
// needs for formatting; it avoids an import cycle with the root
// package, which itself carries xerr-produced Kind strings on Events.
type Position struct {
	Line   int
	Column int64
}

// Context carries structured detail about an error, e.g.
// {"expected": "a", "got": "b"} for TagMismatch.
type Context map[string]string

// Error is a single, value-typed error carrying a closed Kind, a
// human-readable message, a source position, and structured context.
type Error struct {
	Kind    Kind
	Message string
	Pos     Position
	Context Context
}

// New builds an Error with no context.
func New(kind Kind, pos Position, message string) *Error {
	return &Error{Kind: kind, Message: message, Pos: pos}
}

// Newf builds an Error with a formatted message.
func Newf(kind Kind, pos Position, format string, args ...interface{}) *Error {
	return New(kind, pos, fmt.Sprintf(format, args...))
}

// WithContext returns a copy of e with the given context map attached.
func (e *Error) WithContext(ctx Context) *Error {
	cp := *e
	cp.Context = ctx
	return &cp
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil error>"
	}
	return fmt.Sprintf("%s at %d:%d: %s", e.Kind, e.Pos.Line, e.Pos.Column, e.Message)
}

// TagMismatchError builds the spec's exact TagMismatch message and
// context shape (spec §4.4): message "Expected </X>, got </Y>", context
// {"expected": X, "got": Y}.
func TagMismatchError(pos Position, expected, got string) *Error {
	return Newf(TagMismatch, pos, "Expected </%s>, got </%s>", expected, got).
		WithContext(Context{"expected": expected, "got": got})
}

// SourceWindow formats a three-lines-before/three-lines-after window of
// src around pos, with a '^' caret under the offending column, per spec
// §4.9's formatting helper.
func SourceWindow(src []byte, pos Position) string {
	lines := strings.Split(string(src), "\n")
	idx := pos.Line - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(lines) {
		idx = len(lines) - 1
	}
	if idx < 0 {
		return ""
	}

	start := idx - 3
	if start < 0 {
		start = 0
	}
	end := idx + 3
	if end >= len(lines) {
		end = len(lines) - 1
	}

	var b strings.Builder
	for i := start; i <= end; i++ {
		fmt.Fprintf(&b, "%5d | %s\n", i+1, lines[i])
		if i == idx {
			col := pos.Column
			if col < 0 {
				col = 0
			}
			b.WriteString(strings.Repeat(" ", 8+int(col)))
			b.WriteString("^\n")
		}
	}
	return b.String()
}
