package config

// DefaultRewriteLimit bounds the number of evaluate/quote/build iterations
// optimize will run on a single declaration before it is considered a
// non-terminating rewrite (a fatal engineering bug, never a legitimate
// program property).
const DefaultRewriteLimit = 10000

// TraceHistorySize is how many distinct rewrite-site descriptions a
// RewriteLimitExceededError retains for its diagnostic, so the error
// surfaces enough context to find the offending declaration without
// growing without bound on pathological loops.
const TraceHistorySize = 5

// PrimModuleName is the synthetic module that hosts primitive operators.
// Per the module driver's import-closure contract, "Prim" is always
// subtracted out of a module's reported imports.
const PrimModuleName = "Prim"

// IsTestMode mirrors the teacher's convention of a package-level test-mode
// flag. No code path in this module reads it; gensym naming
// (ir.GensymIdent) is UUID-backed in every mode.
var IsTestMode = false

// DirectiveFileExtensions are the extensions named for standalone
// inline-directive fixture files. No code or test in this module reads
// the list.
var DirectiveFileExtensions = []string{".directives", ".directives.yaml"}
