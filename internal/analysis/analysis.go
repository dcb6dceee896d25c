// Package analysis implements the per-node Analysis record of design §4.1:
// a monoid-like summary of complexity, size, parameter usage, per-level
// usage, module dependencies and a pending-rewrite flag, threaded through
// every build-IR node by Eval/Quote/Build.
package analysis

import "github.com/nbecore/optcore/internal/ir"

// Complexity classifies how expensive a subexpression is judged to be by
// the inline policy. The rewriter depends on exact ordering: Trivial <
// Deref < KnownSize < NonTrivial.
type Complexity int

const (
	Trivial Complexity = iota
	Deref
	KnownSize
	NonTrivial
)

// combineComplexity returns the complexity of evaluating two subexpressions in
// sequence: the worse of the two, since an enclosing expression is at
// least as complex as its most complex child.
func combineComplexity(a, b Complexity) Complexity {
	if a > b {
		return a
	}
	return b
}

// Usage records how a bound level (or a formal parameter) is used by the
// body that can see it.
type Usage struct {
	Count    int
	Captured bool // used underneath an abstraction (closed over)
}

func (u Usage) add(o Usage) Usage {
	return Usage{Count: u.Count + o.Count, Captured: u.Captured || o.Captured}
}

func (u Usage) scale(n int) Usage {
	return Usage{Count: u.Count * n, Captured: u.Captured}
}

// ArgUsage describes how one formal parameter of an abstraction is used
// by its body, in parameter order.
type ArgUsage = Usage

// Analysis is the per-node summary threaded through the build IR.
type Analysis struct {
	Complexity Complexity
	Size       int
	Args       []ArgUsage
	Usages     map[ir.Level]Usage
	Deps       map[ir.ModuleName]struct{}
	Rewrite    bool
}

// Leaf returns the analysis for an irreducible node of size 1 (e.g. a
// literal boolean) with no usages and no dependencies.
func Leaf(c Complexity) Analysis {
	return Analysis{Complexity: c, Size: 1}
}

// Var returns the analysis for a reference to a global, which depends on
// the module that defines it.
func Var(mod ir.ModuleName) Analysis {
	a := Analysis{Complexity: Deref, Size: 1}
	a.Deps = map[ir.ModuleName]struct{}{mod: {}}
	return a
}

// Local returns the analysis for a reference to a bound level, used once,
// not (yet) captured under an abstraction.
func Local(lvl ir.Level) Analysis {
	return Analysis{
		Complexity: Deref,
		Size:       1,
		Usages:     map[ir.Level]Usage{lvl: {Count: 1}},
	}
}

// Seq composes the analyses of subexpressions visited in sequence
// (left-to-right, per §5 Ordering): sizes add, complexity takes the
// worst case, usages and deps union, and the rewrite bit is sticky.
func Seq(parts ...Analysis) Analysis {
	out := Analysis{}
	for _, p := range parts {
		out = seq2(out, p)
	}
	return out
}

func seq2(a, b Analysis) Analysis {
	out := Analysis{
		Complexity: combineComplexity(a.Complexity, b.Complexity),
		Size:       a.Size + b.Size,
		Rewrite:    a.Rewrite || b.Rewrite,
	}
	out.Usages = unionUsages(a.Usages, b.Usages)
	out.Deps = unionDeps(a.Deps, b.Deps)
	return out
}

func unionUsages(a, b map[ir.Level]Usage) map[ir.Level]Usage {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[ir.Level]Usage, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = out[k].add(v)
	}
	return out
}

func unionDeps(a, b map[ir.ModuleName]struct{}) map[ir.ModuleName]struct{} {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[ir.ModuleName]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

// Bound removes lvl from usages, the operation applied at each binding
// site before an analysis escapes the scope that introduced the level
// (invariant 5).
func Bound(lvl ir.Level, a Analysis) Analysis {
	if _, ok := a.Usages[lvl]; !ok {
		return a
	}
	out := a
	out.Usages = make(map[ir.Level]Usage, len(a.Usages))
	for k, v := range a.Usages {
		if k == lvl {
			continue
		}
		out.Usages[k] = v
	}
	return out
}

// Captured marks every usage currently recorded in a as captured-under-an
// -abstraction, applied when an analysis is about to be wrapped in a
// closure body (Abs, UncurriedAbs, the continuation of a Let, ...).
func Captured(a Analysis) Analysis {
	if len(a.Usages) == 0 {
		return a
	}
	out := a
	out.Usages = make(map[ir.Level]Usage, len(a.Usages))
	for k, v := range a.Usages {
		v.Captured = true
		out.Usages[k] = v
	}
	return out
}

// Power scales every usage count in a by n, modeling a subexpression that
// is duplicated n times (e.g. a loop unrolled n times, or inlined at n
// call sites). Captured bits are unaffected.
func Power(a Analysis, n int) Analysis {
	if n == 1 || len(a.Usages) == 0 {
		return a
	}
	out := a
	out.Usages = make(map[ir.Level]Usage, len(a.Usages))
	for k, v := range a.Usages {
		out.Usages[k] = v.scale(n)
	}
	return out
}

// WithRewrite sets the rewrite-pending bit, marking the containing
// expression for reconsideration during the next optimize pass.
func WithRewrite(a Analysis) Analysis {
	a.Rewrite = true
	return a
}

// ClearRewrite drops the rewrite-pending bit, used by Freeze which emits
// a rewrite-free result by construction.
func ClearRewrite(a Analysis) Analysis {
	a.Rewrite = false
	return a
}

// UsageOf returns the recorded usage for lvl (the zero Usage if unused).
func (a Analysis) UsageOf(lvl ir.Level) Usage {
	return a.Usages[lvl]
}

// DepSet materializes Deps as a slice, for callers that need to iterate
// deterministically (callers should sort it themselves by String()).
func (a Analysis) DepSet() []ir.ModuleName {
	out := make([]ir.ModuleName, 0, len(a.Deps))
	for m := range a.Deps {
		out = append(out, m)
	}
	return out
}
