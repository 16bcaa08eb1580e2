// Package engine composes the other packages' stages in the order spec
// §2 describes: Tokenizer -> NamespaceResolver -> EntitySubsystem ->
// Validators, each layered as its own pipeline.Pipeline (spec §4.5's
// "parse ▷ v1 ▷ v2 ▷ …" composition) so every stage's open-tag stack
// discipline is independently re-verified. NamespaceResolver and
// EntitySubsystem are each optional. A Parser built with no stage
// options at all runs no Pipeline, so draining it yields the
// Tokenizer's own output untouched, with no tag-matching or single-root
// checks; those come from adding WithValidators(ValidateWellFormed).
//
// This lives in its own package, rather than the root xmlstream
// package, because tokenizer/pipeline/nsresolve/dtd/validate all import
// xmlstream for its Event and Options types; a facade wiring all of
// them together has to sit above xmlstream in the import graph, not
// inside it.
//
// Grounded on helium's top-level Parse/NewParser entry point
// (interface.go) generalized from "one fixed SAX walk" to "caller
// selects which optional stages to layer" per spec §9's pipeline
// redesign flag.
package engine

import (
	"github.com/lestrrat-go/xmlstream"
	"github.com/lestrrat-go/xmlstream/dtd"
	"github.com/lestrrat-go/xmlstream/nsresolve"
	"github.com/lestrrat-go/xmlstream/pipeline"
	"github.com/lestrrat-go/xmlstream/tokenizer"
	"github.com/lestrrat-go/xmlstream/validate"
)

// Source supplies the raw bytes a Tokenizer scans; tokenizer.Source
// implementations (tokenizer.NewBufferSource, tokenizer.NewReaderSource)
// satisfy it directly.
type Source = tokenizer.Source

// ValidatorKind selects one of the Validators stage's checks (spec §4.5).
type ValidatorKind int

const (
	ValidateWellFormed ValidatorKind = iota
	ValidateAttributes
	ValidateComments
	ValidateProcessingInstructions
	ValidateNamespaces
)

// ParserOption configures a Parser built by NewParser.
type ParserOption func(*parserConfig)

type parserConfig struct {
	resolveNS       bool
	resolveEntities bool
	validators      []ValidatorKind
}

// WithNamespaceResolution enables the NamespaceResolver stage (spec §4.6).
func WithNamespaceResolution() ParserOption {
	return func(c *parserConfig) { c.resolveNS = true }
}

// WithEntityResolution enables the EntitySubsystem stage (spec §4.7).
func WithEntityResolution() ParserOption {
	return func(c *parserConfig) { c.resolveEntities = true }
}

// WithValidators appends one or more Validators stages, wired in the
// order given.
func WithValidators(kinds ...ValidatorKind) ParserOption {
	return func(c *parserConfig) { c.validators = append(c.validators, kinds...) }
}

// Parser is the engine's fully wired stage chain; it satisfies
// pipeline.Source and c14n.Source, so a Parser's output can feed
// c14n.Canonicalize directly (spec §2's "consumer (Canonicalizer or
// external)").
type Parser struct {
	head pipeline.Source
}

// NewParser builds a Parser reading from src.
func NewParser(src Source, opts xmlstream.Options, optFns ...ParserOption) *Parser {
	var cfg parserConfig
	for _, fn := range optFns {
		fn(&cfg)
	}

	var head pipeline.Source = tokenizer.New(src, opts)

	if cfg.resolveNS {
		cb, init := nsresolve.Resolver()
		head = pipeline.New(head, init, cb)
	}
	if cfg.resolveEntities {
		cb, init := dtd.Resolver(opts)
		head = pipeline.New(head, init, cb)
	}
	for _, kind := range cfg.validators {
		head = wireValidator(head, kind)
	}

	return &Parser{head: head}
}

func wireValidator(src pipeline.Source, kind ValidatorKind) pipeline.Source {
	switch kind {
	case ValidateWellFormed:
		cb, init := validate.WellFormed()
		return pipeline.New(src, init, cb)
	case ValidateAttributes:
		return pipeline.New(src, struct{}{}, validate.Attributes())
	case ValidateComments:
		return pipeline.New(src, struct{}{}, validate.Comments())
	case ValidateProcessingInstructions:
		return pipeline.New(src, struct{}{}, validate.ProcessingInstructions())
	case ValidateNamespaces:
		return pipeline.New(src, struct{}{}, validate.Namespaces())
	default:
		return src
	}
}

// Next returns the next Event from the fully wired stage chain.
func (p *Parser) Next() (xmlstream.Event, bool) { return p.head.Next() }
