package build

import (
	"github.com/nbecore/optcore/internal/analysis"
	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/ir"
)

// Let implements let associativity (rule 3) and let inlining (rule 4).
func Let(id *ir.Ident, lvl ir.Level, binding, body expr.Expr) expr.Expr {
	if shouldInlineLet(lvl, binding, body) {
		ann := analysis.WithRewrite(analysis.Bound(lvl, analysis.Seq(binding.Analysis(), body.Analysis())))
		return &expr.RewriteInline{Ann: ann, Id: id, Level: lvl, Binding: binding, Body: body}
	}

	bAssoc := AssocBindingOf(id, lvl, binding)

	if inner, ok := body.(*expr.RewriteLetAssoc); ok {
		// Re-associating onto an already-flat chain is the shape Eval/Quote
		// mechanically reconstruct every pass even when nothing downstream
		// changed; analysis.Seq already carries forward any genuine pending
		// rewrite from binding or inner, so the bit is not forced here —
		// doing so would keep Optimize's fixpoint from ever converging on a
		// multi-binding let chain.
		merged := append([]expr.AssocBinding{bAssoc}, inner.Bindings...)
		ann := analysis.Bound(lvl, analysis.Seq(binding.Analysis(), inner.Ann))
		return &expr.RewriteLetAssoc{Ann: ann, Bindings: merged, Body: inner.Body}
	}

	// Unlike the merge branch above, this is the stable shape for a let
	// that neither inlines nor associates with anything: nothing changed,
	// so the rewrite bit stays clear to let Optimize's fixpoint converge.
	ann := analysis.Bound(lvl, analysis.Seq(binding.Analysis(), body.Analysis()))
	return &expr.RewriteLetAssoc{Ann: ann, Bindings: []expr.AssocBinding{bAssoc}, Body: body}
}

func AssocBindingOf(id *ir.Ident, lvl ir.Level, binding expr.Expr) expr.AssocBinding {
	return expr.AssocBinding{Id: id, Level: lvl, Binding: binding}
}

// shouldInlineLet implements the let-inline policy of §4.4 rule 4.
func shouldInlineLet(lvl ir.Level, b, body expr.Expr) bool {
	usage := body.Analysis().UsageOf(lvl)

	if usage.Count == 0 {
		return true
	}
	if !usage.Captured && (usage.Count == 1 || (b.Analysis().Complexity <= analysis.Deref && b.Analysis().Size < 5)) {
		return true
	}
	if _, isAbs := b.(*expr.Abs); isAbs {
		bUsages := b.Analysis()
		if usage.Count == 1 || len(bUsages.Usages) == 0 || bUsages.Size < 16 {
			return true
		}
	}
	if b.Analysis().Complexity == analysis.Trivial && b.Analysis().Size < 5 {
		return true
	}
	return false
}

func LetRec(startLevel ir.Level, bindings []expr.RecBinding, body expr.Expr) expr.Expr {
	parts := []analysis.Analysis{body.Analysis()}
	for _, b := range bindings {
		parts = append(parts, b.Expr.Analysis())
	}
	ann := analysis.Seq(parts...)
	for i := range bindings {
		ann = analysis.Bound(startLevel+ir.Level(i), ann)
	}
	return &expr.LetRec{Ann: ann, StartLevel: startLevel, Bindings: bindings, Body: body}
}

// EffectBind implements the EffectBind-of-EffectPure rule (§4.4 rule 5).
func EffectBind(id *ir.Ident, lvl ir.Level, m, k expr.Expr) expr.Expr {
	if pure, ok := m.(*expr.EffectPure); ok {
		return Let(id, lvl, pure.V, k)
	}
	// m is stuck, not EffectPure: this is the stable shape for an
	// EffectBind with nothing to collapse, so the bit stays whatever m and
	// k's own analyses already carry rather than being forced, or every
	// effectful declaration would re-mark itself pending forever.
	ann := analysis.Bound(lvl, analysis.Seq(m.Analysis(), k.Analysis()))
	return &expr.EffectBind{Ann: ann, Id: id, Level: lvl, M: m, K: k}
}
