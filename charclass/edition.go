package charclass

// Edition is a compile-time-selectable predicate pair, monomorphizing
// callers (the tokenizer in particular) over the edition's character
// rules so the hot loop has no runtime dispatch (spec §4.1, §9
// "Runtime module selection (edition dispatch)" redesign flag: the
// actual monomorphization happens at the tokenizer's two edition-
// specific constructors, which each close over one of these two
// package-level values instead of branching per-call).
type Edition struct {
	StartChar func(rune) bool
	Char      func(rune) bool
}

// Edition5Rules is the Fifth Edition predicate pair, the default.
var Edition5Rules = Edition{StartChar: StartChar5, Char: Char5}

// Edition4Rules is the Fourth Edition predicate pair.
var Edition4Rules = Edition{StartChar: StartChar4, Char: Char4}
