package xmlstream

import "github.com/lestrrat-go/xmlstream/xerr"

// XerrPosition converts a Position into the minimal xerr.Position shape.
func (p Position) XerrPosition() xerr.Position {
	return xerr.Position{Line: p.line, Column: p.Column()}
}

// NewErrorEventFrom builds an Event from an *xerr.Error, threading its
// Kind (stringified), Message, and Context onto the Error event.
func NewErrorEventFrom(pos Position, err *xerr.Error) Event {
	var ctx ErrorContext
	if err.Context != nil {
		ctx = ErrorContext(err.Context)
	}
	return NewErrorEvent(pos, err.Kind.String(), err.Message, ctx)
}
