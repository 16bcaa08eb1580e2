package xmlstream

// Kind identifies the variant of an Event. Consumers must branch on Kind
// and use the accessors below; the struct's fields are not a stable
// pattern-match surface (spec §4.3), only the accessors are.
type Kind int

const (
	// StartDocument is always the first event of a stream.
	StartDocument Kind = iota
	// EndDocument is always the last event of a stream.
	EndDocument
	// Prolog carries the <?xml ...?> pseudo-attributes. Emitted at most
	// once, before the root element.
	Prolog
	// Doctype carries the raw <!DOCTYPE ...> declaration text.
	Doctype
	// DoctypeModel is a synthetic event carrying the parsed DTD Model,
	// emitted immediately before Doctype when the DTD parser is enabled.
	DoctypeModel
	// StartElement opens a tagged element.
	StartElement
	// EndElement closes a tagged element.
	EndElement
	// Characters carries resolved character data.
	Characters
	// Whitespace carries whitespace found outside or between elements.
	Whitespace
	// Comment carries a <!-- ... --> body.
	Comment
	// CDATA carries a <![CDATA[ ... ]]> body.
	CDATA
	// ProcessingInstruction carries a <?target data?> construct.
	ProcessingInstruction
	// Error is a non-fatal (unless the consumer halts) diagnostic event.
	Error
)

func (k Kind) String() string {
	switch k {
	case StartDocument:
		return "StartDocument"
	case EndDocument:
		return "EndDocument"
	case Prolog:
		return "Prolog"
	case Doctype:
		return "Doctype"
	case DoctypeModel:
		return "DoctypeModel"
	case StartElement:
		return "StartElement"
	case EndElement:
		return "EndElement"
	case Characters:
		return "Characters"
	case Whitespace:
		return "Whitespace"
	case Comment:
		return "Comment"
	case CDATA:
		return "CDATA"
	case ProcessingInstruction:
		return "ProcessingInstruction"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// Attribute is an ordered (name, value) pair. Name may be qualified
// ("prefix:local"); namespace expansion, when performed, is recorded
// separately (see NamespaceURI).
type Attribute struct {
	Name  string
	Value string

	// NamespaceURI is set by the NamespaceResolver; empty until then.
	NamespaceURI string
}

// AttributeList is an ordered attribute list with an additional O(1)
// keyed view. Order is preserved as declared (spec §3); duplicates may
// be present before the Attributes validator runs.
type AttributeList struct {
	ordered []Attribute
	index   map[string]int // name -> index of last occurrence
}

// NewAttributeList builds an AttributeList from an ordered slice,
// preserving declaration order including any duplicates.
func NewAttributeList(attrs []Attribute) AttributeList {
	al := AttributeList{ordered: attrs}
	al.reindex()
	return al
}

func (al *AttributeList) reindex() {
	al.index = make(map[string]int, len(al.ordered))
	for i, a := range al.ordered {
		al.index[a.Name] = i
	}
}

// Len returns the number of attributes, including duplicates.
func (al AttributeList) Len() int { return len(al.ordered) }

// At returns the i-th attribute in declaration order.
func (al AttributeList) At(i int) Attribute { return al.ordered[i] }

// All returns the ordered view. The returned slice must not be mutated.
func (al AttributeList) All() []Attribute { return al.ordered }

// Get returns the value of the last-declared attribute with the given
// qualified name, and whether it was present.
func (al AttributeList) Get(name string) (string, bool) {
	i, ok := al.index[name]
	if !ok {
		return "", false
	}
	return al.ordered[i].Value, true
}

// DuplicateNames returns the set of qualified names that appear more
// than once, in first-seen order. Used by the Attributes validator.
func (al AttributeList) DuplicateNames() []string {
	seen := make(map[string]int, len(al.ordered))
	var dups []string
	dupSeen := make(map[string]bool)
	for _, a := range al.ordered {
		seen[a.Name]++
		if seen[a.Name] == 2 && !dupSeen[a.Name] {
			dups = append(dups, a.Name)
			dupSeen[a.Name] = true
		}
	}
	return dups
}

// WithExpandedURI returns a copy of the list with the URI of the
// attribute at index i set, used by the NamespaceResolver to rewrite
// events without mutating the original list in place.
func (al AttributeList) WithExpandedURI(i int, uri string) AttributeList {
	out := make([]Attribute, len(al.ordered))
	copy(out, al.ordered)
	out[i].NamespaceURI = uri
	return NewAttributeList(out)
}

// WithValue returns a copy of the list with the Value of the attribute
// at index i set, used by the EntitySubsystem to rewrite attribute
// values with entity references resolved, without mutating the
// original list in place.
func (al AttributeList) WithValue(i int, value string) AttributeList {
	out := make([]Attribute, len(al.ordered))
	copy(out, al.ordered)
	out[i].Value = value
	return NewAttributeList(out)
}

// ErrorContext carries structured detail about an Error event, e.g.
// {"expected": "a", "got": "b"} for TagMismatch.
type ErrorContext map[string]string

// Event is the single tagged variant carrying every producer-side and
// pipeline-injected occurrence in the stream. Only the Kind-appropriate
// fields are meaningful for a given event; use the accessors, not direct
// field access, so that future optional fields don't break callers
// (spec §4.3).
type Event struct {
	kind Kind
	pos  Position

	tag      string // StartElement/EndElement/ProcessingInstruction target
	uri      string // namespace URI of tag, once resolved
	prefix   string // namespace prefix of tag
	attrs    AttributeList
	content  string // Characters/Whitespace/Comment/CDATA/Doctype/error message
	piData   string // ProcessingInstruction data
	errKind  string // Error kind, as a string to avoid an import cycle with xerr
	errCtx   ErrorContext
	dtdModel interface{} // *dtd.Model, carried opaquely to avoid an import cycle
}

// NewEvent builds a plain Event of the given kind at the given position.
func NewEvent(kind Kind, pos Position) Event { return Event{kind: kind, pos: pos} }

// Kind returns the event's variant.
func (e Event) Kind() Kind { return e.kind }

// Pos returns the event's source position.
func (e Event) Pos() Position { return e.pos }

// Tag returns the element/PI-target name. Valid for StartElement,
// EndElement, and ProcessingInstruction (where it is the target).
func (e Event) Tag() string { return e.tag }

// Prefix returns the namespace prefix of Tag, if qualified.
func (e Event) Prefix() string { return e.prefix }

// NamespaceURI returns the expanded namespace URI of Tag, if the
// NamespaceResolver has run; empty otherwise.
func (e Event) NamespaceURI() string { return e.uri }

// Attrs returns the attribute list. Valid for StartElement and Prolog.
func (e Event) Attrs() AttributeList { return e.attrs }

// Content returns the text payload: Characters, Whitespace, Comment,
// CDATA text, or the raw Doctype declaration text.
func (e Event) Content() string { return e.content }

// PIData returns the data portion of a ProcessingInstruction.
func (e Event) PIData() string { return e.piData }

// ErrorKind returns the string form of the error kind for an Error
// event (see package xerr for the closed enum this stringifies).
func (e Event) ErrorKind() string { return e.errKind }

// ErrorContext returns the structured context map for an Error event.
func (e Event) ErrorContext() ErrorContext { return e.errCtx }

// DoctypeModel returns the opaque *dtd.Model payload of a DoctypeModel
// event. Callers import package dtd and type-assert.
func (e Event) DoctypeModel() interface{} { return e.dtdModel }

// WithTag returns a copy of e with Tag/Prefix set.
func (e Event) WithTag(tag, prefix string) Event {
	e.tag, e.prefix = tag, prefix
	return e
}

// WithNamespaceURI returns a copy of e with NamespaceURI set.
func (e Event) WithNamespaceURI(uri string) Event {
	e.uri = uri
	return e
}

// WithAttrs returns a copy of e with Attrs set.
func (e Event) WithAttrs(attrs AttributeList) Event {
	e.attrs = attrs
	return e
}

// WithContent returns a copy of e with Content set.
func (e Event) WithContent(content string) Event {
	e.content = content
	return e
}

// WithPIData returns a copy of e with PIData set.
func (e Event) WithPIData(data string) Event {
	e.piData = data
	return e
}

// WithDoctypeModel returns a copy of e with an opaque DTD model payload.
func (e Event) WithDoctypeModel(model interface{}) Event {
	e.dtdModel = model
	return e
}

// NewErrorEvent builds an Error event.
func NewErrorEvent(pos Position, kind, message string, ctx ErrorContext) Event {
	return Event{kind: Error, pos: pos, errKind: kind, content: message, errCtx: ctx}
}

// NewStartElement builds a StartElement event.
func NewStartElement(pos Position, tag, prefix string, attrs AttributeList) Event {
	return Event{kind: StartElement, pos: pos, tag: tag, prefix: prefix, attrs: attrs}
}

// NewEndElement builds an EndElement event.
func NewEndElement(pos Position, tag, prefix string) Event {
	return Event{kind: EndElement, pos: pos, tag: tag, prefix: prefix}
}

// NewText builds a Characters or Whitespace event depending on kind.
func NewText(kind Kind, pos Position, content string) Event {
	return Event{kind: kind, pos: pos, content: content}
}

// NewComment builds a Comment event.
func NewComment(pos Position, content string) Event {
	return Event{kind: Comment, pos: pos, content: content}
}

// NewCDATA builds a CDATA event.
func NewCDATA(pos Position, content string) Event {
	return Event{kind: CDATA, pos: pos, content: content}
}

// NewPI builds a ProcessingInstruction event.
func NewPI(pos Position, target, data string) Event {
	return Event{kind: ProcessingInstruction, pos: pos, tag: target, piData: data}
}

// NewProlog builds a Prolog event.
func NewProlog(pos Position, attrs AttributeList) Event {
	return Event{kind: Prolog, pos: pos, tag: "xml", attrs: attrs}
}

// NewDoctype builds a Doctype event carrying the raw declaration text.
func NewDoctype(pos Position, raw string) Event {
	return Event{kind: Doctype, pos: pos, content: raw}
}

// NewDoctypeModel builds a synthetic DoctypeModel event.
func NewDoctypeModel(pos Position, model interface{}) Event {
	return Event{kind: DoctypeModel, pos: pos, dtdModel: model}
}
