package build

import (
	"github.com/nbecore/optcore/internal/analysis"
	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/ir"
)

// Branch implements simplifyBranches (§4.4 rule 6) plus double negation
// (rule 7), applied here since branch simplification is the rule most
// likely to introduce a fresh `not`.
func Branch(pairs []expr.BranchPair, def expr.Expr) expr.Expr {
	if len(pairs) == 1 {
		if b, ok := litBoolOf(pairs[0].Body); ok && b && isLitBoolFalse(def) {
			return pairs[0].Guard
		}
		if b, ok := litBoolOf(pairs[0].Body); ok && !b && isLitBoolTrue(def) {
			return Not(pairs[0].Guard)
		}
	}

	if len(pairs) == 2 && isFail(def) && sameGuardLevel(pairs[0].Guard, pairs[1].Guard) {
		return fuse(pairs[:1], pairs[1].Body)
	}

	if inner, ok := def.(*expr.Branch); ok {
		merged := append(append([]expr.BranchPair(nil), pairs...), inner.Pairs...)
		return fuse(merged, inner.Default)
	}

	return fuse(pairs, def)
}

func fuse(pairs []expr.BranchPair, def expr.Expr) expr.Expr {
	parts := make([]analysis.Analysis, 0, len(pairs)*2+1)
	for _, p := range pairs {
		parts = append(parts, p.Guard.Analysis(), p.Body.Analysis())
	}
	if def != nil {
		parts = append(parts, def.Analysis())
	}
	ann := analysis.Seq(parts...)
	return &expr.Branch{Ann: ann, Pairs: pairs, Default: def}
}

func litBoolOf(e expr.Expr) (bool, bool) {
	lit, ok := e.(*expr.LitExpr)
	if !ok {
		return false, false
	}
	b, ok := lit.Lit.(expr.LitBool)
	return b.Value, ok
}

func isLitBoolTrue(e expr.Expr) bool  { b, ok := litBoolOf(e); return ok && b }
func isLitBoolFalse(e expr.Expr) bool { b, ok := litBoolOf(e); return ok && !b }

func isFail(e expr.Expr) bool {
	_, ok := e.(*expr.Fail)
	return ok
}

// sameGuardLevel recognizes the "if l then a else if not l then b else
// fail" shape of simplifyBranches' third rule: g1 is a bare Local at level
// l, and g2 is `not` applied to a Local at the same level.
func sameGuardLevel(g1, g2 expr.Expr) bool {
	l1, ok := g1.(*expr.Local)
	if !ok {
		return false
	}
	notExpr, ok := g2.(*expr.PrimOpUnary)
	if !ok || notExpr.Op.Kind != ir.UnNot {
		return false
	}
	l2, ok := notExpr.Arg.(*expr.Local)
	return ok && l1.Level == l2.Level
}

// Not applies PrimOpUnary(not, ...) with double-negation elimination
// (§4.4 rule 7). The plain-wrap case below does not set the rewrite bit:
// it is already the stable shape for a `not` with nothing to cancel, and
// tainting it would keep Optimize's fixpoint from ever converging.
func Not(e expr.Expr) expr.Expr {
	if u, ok := e.(*expr.PrimOpUnary); ok && u.Op.Kind == ir.UnNot {
		return u.Arg
	}
	if b, ok := litBoolOf(e); ok {
		return litBoolExpr(!b)
	}
	ann := e.Analysis()
	if ann.Complexity < analysis.Deref {
		ann.Complexity = analysis.Deref
	}
	return &expr.PrimOpUnary{Ann: ann, Op: ir.UnOp{Kind: ir.UnNot}, Arg: e}
}

func PrimOpUnary(op ir.UnOp, arg expr.Expr) expr.Expr {
	if op.Kind == ir.UnNot {
		return Not(arg)
	}
	ann := arg.Analysis()
	if ann.Complexity < analysis.Deref {
		ann.Complexity = analysis.Deref
	}
	return &expr.PrimOpUnary{Ann: ann, Op: op, Arg: arg}
}

func litBoolExpr(b bool) expr.Expr {
	return &expr.LitExpr{Ann: analysis.Leaf(analysis.Trivial), Lit: expr.LitBool{Value: b}}
}

// BuildPair implements pair-compression (§4.4 rule 8): when quoting a
// conditional whose body is itself a single-pair default-less branch,
// fuse the two guards with a conjunction rather than nesting branches.
func BuildPair(guard1 expr.Expr, body expr.Expr) (expr.Expr, expr.Expr, bool) {
	inner, ok := body.(*expr.Branch)
	if !ok || len(inner.Pairs) != 1 || inner.Default != nil {
		return nil, nil, false
	}
	and := PrimOpBinary(ir.BinOp{Kind: ir.BinAnd}, guard1, inner.Pairs[0].Guard)
	return and, inner.Pairs[0].Body, true
}

// BuildBranchCond implements branch-to-boolean folding (§4.4 rule 9): a
// branch whose body is a literal boolean and whose else arm is a "boolean
// tail" (itself a literal, variable, local or primop) folds into a
// boolean expression over the guard and the else arm.
func BuildBranchCond(guard, body, elseArm expr.Expr) (expr.Expr, bool) {
	b, ok := litBoolOf(body)
	if !ok || !isBooleanTail(elseArm) {
		return nil, false
	}
	if b {
		return PrimOpBinary(ir.BinOp{Kind: ir.BinOr}, guard, elseArm), true
	}
	return PrimOpBinary(ir.BinOp{Kind: ir.BinAnd}, Not(guard), elseArm), true
}

func isBooleanTail(e expr.Expr) bool {
	switch e.(type) {
	case *expr.LitExpr, *expr.Var, *expr.Local, *expr.PrimOpUnary, *expr.PrimOpBinary:
		return true
	default:
		return false
	}
}
