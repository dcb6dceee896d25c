// Package build implements the smart constructors of design §4.4: every
// quoted node is run through one of these, which locally pattern-matches
// and rewrites (App/Abs flattening, let associativity and inlining,
// branch simplification, double-negation elimination) before the node is
// handed back to its caller. §4.6's Freeze also lives here, since it
// operates directly on the node shapes these constructors produce;
// §4.5's Optimize fixpoint is in internal/optimize.
package build

import (
	"github.com/nbecore/optcore/internal/analysis"
	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/ir"
)

func analysesOf(es []expr.Expr) []analysis.Analysis {
	out := make([]analysis.Analysis, len(es))
	for i, e := range es {
		out[i] = e.Analysis()
	}
	return out
}

func bindParams(params []expr.Param, ann analysis.Analysis) analysis.Analysis {
	out := ann
	for _, p := range params {
		out = analysis.Bound(p.Level, out)
	}
	return out
}

// Var and Local are leaf constructors with no rewrite to apply; they exist
// so every node in a quoted tree is produced through this package, not
// assembled ad hoc by Quote.
func Var(q ir.Qualified, mod ir.ModuleName) expr.Expr {
	return &expr.Var{Ann: analysis.Var(mod), Q: q}
}

func Local(id *ir.Ident, lvl ir.Level) expr.Expr {
	return &expr.Local{Ann: analysis.Local(lvl), Id: id, Level: lvl}
}

func Lit(l expr.Lit, childSeq []analysis.Analysis) expr.Expr {
	ann := analysis.Seq(childSeq...)
	if ann.Size == 0 {
		ann = analysis.Leaf(analysis.Trivial)
	}
	return &expr.LitExpr{Ann: ann, Lit: l}
}

// App implements App flattening (§4.4 rule 1).
func App(head expr.Expr, args []expr.Expr) expr.Expr {
	if len(args) == 0 {
		return head
	}
	if inner, ok := head.(*expr.App); ok {
		merged := append(append([]expr.Expr(nil), inner.Args...), args...)
		ann := analysis.WithRewrite(analysis.Seq(append([]analysis.Analysis{inner.Head.Analysis()}, analysesOf(merged)...)...))
		return &expr.App{Ann: ann, Head: inner.Head, Args: merged}
	}
	ann := analysis.Seq(append([]analysis.Analysis{head.Analysis()}, analysesOf(args)...)...)
	return &expr.App{Ann: ann, Head: head, Args: args}
}

// Abs implements Abs flattening (§4.4 rule 2).
func Abs(params []expr.Param, body expr.Expr) expr.Expr {
	if len(params) == 0 {
		return body
	}
	if inner, ok := body.(*expr.Abs); ok {
		merged := append(append([]expr.Param(nil), params...), inner.Params...)
		ann := analysis.WithRewrite(bindParams(params, analysis.Captured(inner.Ann)))
		return &expr.Abs{Ann: ann, Params: merged, Body: inner.Body}
	}
	ann := bindParams(params, analysis.Captured(body.Analysis()))
	return &expr.Abs{Ann: ann, Params: params, Body: body}
}

// UncurriedApp/UncurriedEffectApp have no flattening rule in §4.4; the
// interop forms are never nested by construction since evalMkFn always
// produces exactly one MkFn chain per lifted value.
func UncurriedApp(head expr.Expr, args []expr.Expr) expr.Expr {
	if len(args) == 0 {
		return head
	}
	ann := analysis.Seq(append([]analysis.Analysis{head.Analysis()}, analysesOf(args)...)...)
	return &expr.UncurriedApp{Ann: ann, Head: head, Args: args}
}

func UncurriedEffectApp(head expr.Expr, args []expr.Expr) expr.Expr {
	if len(args) == 0 {
		return head
	}
	ann := analysis.Seq(append([]analysis.Analysis{head.Analysis()}, analysesOf(args)...)...)
	return &expr.UncurriedEffectApp{Ann: ann, Head: head, Args: args}
}

func UncurriedAbs(params []expr.Param, body expr.Expr) expr.Expr {
	ann := bindParams(params, analysis.Captured(body.Analysis()))
	return &expr.UncurriedAbs{Ann: ann, Params: params, Body: body}
}

func UncurriedEffectAbs(params []expr.Param, body expr.Expr) expr.Expr {
	ann := bindParams(params, analysis.Captured(body.Analysis()))
	return &expr.UncurriedEffectAbs{Ann: ann, Params: params, Body: body}
}

func EffectPure(v expr.Expr) expr.Expr {
	return &expr.EffectPure{Ann: v.Analysis(), V: v}
}

func Accessor(e expr.Expr, acc ir.Accessor) expr.Expr {
	return &expr.Accessor{Ann: e.Analysis(), E: e, Acc: acc}
}

func Update(e expr.Expr, props []expr.UpdateField) expr.Expr {
	parts := []analysis.Analysis{e.Analysis()}
	for _, p := range props {
		parts = append(parts, p.Value.Analysis())
	}
	return &expr.Update{Ann: analysis.Seq(parts...), E: e, Props: props}
}

func PrimOpBinary(op ir.BinOp, lhs, rhs expr.Expr) expr.Expr {
	ann := analysis.Seq(lhs.Analysis(), rhs.Analysis())
	if ann.Complexity < analysis.KnownSize {
		ann.Complexity = analysis.KnownSize
	}
	return &expr.PrimOpBinary{Ann: ann, Op: op, Lhs: lhs, Rhs: rhs}
}

func Fail(decl ir.Qualified, msg string) expr.Expr {
	return &expr.Fail{Ann: analysis.Leaf(analysis.NonTrivial), Msg: msg}
}

func CtorDef(ct ir.CtorKind, ty ir.Ident, tag string, fields []ir.Ident) expr.Expr {
	return &expr.CtorDef{Ann: analysis.Leaf(analysis.KnownSize), CtorKind: ct, TypeName: ty, Tag: tag, Fields: fields}
}

func CtorSaturated(q ir.Qualified, ct ir.CtorKind, ty ir.Ident, tag string, fields []expr.CtorFieldVal) expr.Expr {
	parts := make([]analysis.Analysis, len(fields))
	for i, f := range fields {
		parts[i] = f.Value.Analysis()
	}
	ann := analysis.Seq(parts...)
	if ann.Complexity < analysis.KnownSize {
		ann.Complexity = analysis.KnownSize
	}
	return &expr.CtorSaturated{Ann: ann, Q: q, CtorKind: ct, TypeName: ty, Tag: tag, Fields: fields}
}

// RewriteStop is a stable terminal marker, not a pending rewrite: Freeze
// maps it to Var by node type (build/freeze.go), so leaving the rewrite
// bit clear here is what lets an InlineNever declaration's fixpoint
// converge instead of re-triggering Optimize every pass.
func RewriteStop(q ir.Qualified, mod ir.ModuleName) expr.Expr {
	return &expr.RewriteStop{Ann: analysis.Var(mod), Q: q}
}
