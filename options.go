package xmlstream

// Edition selects which W3C XML 1.0 edition's name-character rules the
// tokenizer enforces (spec §4.1, §6).
type Edition int

const (
	// Edition5 is the Fifth Edition NameStartChar/NameChar rules
	// (the default) — a superset of Edition4.
	Edition5 Edition = iota
	// Edition4 is the Fourth Edition Appendix B rules.
	Edition4
)

// DisabledEvent is a bitmask flag identifying an event kind the
// tokenizer may skip at the source, following helium's ParseOption
// iota-bitmask idiom (interface.go) generalized to this spec's
// disable_events option (spec §6).
type DisabledEvent int

const (
	DisableWhitespace DisabledEvent = 1 << iota
	DisableComment
	DisableCDATA
	DisableProlog
	DisableCharacters
	DisableProcessingInstruction
)

// PositionMode controls how much position detail is attached to events.
type PositionMode int

const (
	// PositionsFull attaches the full (line, lineStart, absolute) triple.
	PositionsFull PositionMode = iota
	// PositionsLineOnly attaches only the line number; column and
	// absolute offset are reported as zero.
	PositionsLineOnly
	// PositionsNone attaches no position (always the zero Position).
	PositionsNone
)

// UnknownEntityPolicy selects the EntitySubsystem's behavior when it
// encounters a general entity reference it cannot resolve (spec §4.7,
// §6).
type UnknownEntityPolicy int

const (
	// UnknownEntityRaise is handled by dtd.Resolver exactly like
	// UnknownEntityEmitError: it injects an Error event and keeps the
	// reference verbatim. The resolver does not halt the stream.
	UnknownEntityRaise UnknownEntityPolicy = iota
	// UnknownEntityEmitError injects an Error event and keeps the
	// reference verbatim in the output.
	UnknownEntityEmitError
	// UnknownEntityDrop silently drops the reference.
	UnknownEntityDrop
	// UnknownEntityKeep silently keeps the reference verbatim.
	UnknownEntityKeep
)

// ExternalResolver fetches the bytes of an external entity identified by
// its system and public identifiers. No network or filesystem access is
// performed by the engine itself; this hook is the caller's contract
// (spec §4.7, §5).
type ExternalResolver func(systemID, publicID string) ([]byte, error)

// C14NAlgorithm identifies one of the four Canonicalizer modes and the
// exact algorithm URI it corresponds to (spec §6).
type C14NAlgorithm int

const (
	C14N10 C14NAlgorithm = iota
	C14N10WithComments
	ExclusiveC14N
	ExclusiveC14NWithComments
)

// URI returns the exact W3C algorithm identifier string for a (spec §6).
func (a C14NAlgorithm) URI() string {
	switch a {
	case C14N10:
		return "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	case C14N10WithComments:
		return "http://www.w3.org/TR/2001/REC-xml-c14n-20010315#WithComments"
	case ExclusiveC14N:
		return "http://www.w3.org/2001/10/xml-exc-c14n#"
	case ExclusiveC14NWithComments:
		return "http://www.w3.org/2001/10/xml-exc-c14n#WithComments"
	default:
		return ""
	}
}

func (a C14NAlgorithm) withComments() bool {
	return a == C14N10WithComments || a == ExclusiveC14NWithComments
}

func (a C14NAlgorithm) exclusive() bool {
	return a == ExclusiveC14N || a == ExclusiveC14NWithComments
}

// WithComments reports whether this algorithm retains Comment events.
func (a C14NAlgorithm) WithComments() bool { return a.withComments() }

// Exclusive reports whether this algorithm is one of the two Exclusive
// C14N variants.
func (a C14NAlgorithm) Exclusive() bool { return a.exclusive() }

// Options holds every tunable named in spec §6, with explicit defaults
// (DefaultOptions), replacing what the spec's §9 redesign flag calls "a
// dynamic per-call option dictionary" with one struct of named fields.
type Options struct {
	Edition          Edition
	DisabledEvents   DisabledEvent
	Positions        PositionMode
	HaltOnError      bool
	ExternalResolver ExternalResolver

	MaxExpansionDepth int
	MaxTotalExpansion int
	OnUnknownEntity   UnknownEntityPolicy

	Algorithm           C14NAlgorithm
	InclusiveNamespaces []string
}

// DefaultOptions returns the spec's documented defaults (§4.7, §6).
func DefaultOptions() Options {
	return Options{
		Edition:           Edition5,
		Positions:         PositionsFull,
		MaxExpansionDepth: 10,
		MaxTotalExpansion: 1_000_000,
		OnUnknownEntity:   UnknownEntityRaise,
		Algorithm:         C14N10,
	}
}

// Disabled reports whether the given event kind is suppressed by
// DisabledEvents.
func (o Options) Disabled(flag DisabledEvent) bool {
	return o.DisabledEvents&flag != 0
}
