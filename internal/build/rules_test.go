package build

import (
	"testing"

	"github.com/nbecore/optcore/internal/analysis"
	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/ir"
)

func mkLit32(v int32) expr.Expr {
	return &expr.LitExpr{Ann: analysis.Leaf(analysis.Trivial), Lit: expr.LitInt32{Value: v}}
}

// An unused binding always inlines away to RewriteInline, §4.4 rule 4's
// zero-usage case.
func TestLetInlinesUnusedBinding(t *testing.T) {
	body := mkLit32(9) // never mentions level 0
	got := Let(nil, ir.Level(0), mkLit32(1), body)
	if _, ok := got.(*expr.RewriteInline); !ok {
		t.Fatalf("expected RewriteInline for an unused binding, got %T", got)
	}
}

// A let whose binding is too large to inline and whose body mentions the
// bound level more than once stays a single-binding RewriteLetAssoc with
// the rewrite bit clear, so Optimize's fixpoint can converge on it.
func TestLetStableShapeLeavesRewriteBitClear(t *testing.T) {
	args := make([]expr.Expr, 6)
	for i := range args {
		args[i] = mkLit32(int32(i))
	}
	big := App(Local(nil, ir.Level(0)), args)
	big.(*expr.App).Ann.Complexity = analysis.NonTrivial

	body := App(Local(nil, ir.Level(1)), []expr.Expr{Local(nil, ir.Level(0)), Local(nil, ir.Level(0))})

	got := Let(nil, ir.Level(0), big, body)
	assoc, ok := got.(*expr.RewriteLetAssoc)
	if !ok {
		t.Fatalf("expected *expr.RewriteLetAssoc, got %T", got)
	}
	if assoc.Ann.Rewrite {
		t.Fatalf("expected the rewrite bit clear on the stable shape")
	}
	if len(assoc.Bindings) != 1 {
		t.Fatalf("expected a single binding, got %d", len(assoc.Bindings))
	}
}

// Not cancels a double negation instead of nesting a second PrimOpUnary.
func TestNotCancelsDoubleNegation(t *testing.T) {
	inner := Not(Local(nil, ir.Level(0)))
	outer := Not(inner)
	if _, isUnary := outer.(*expr.PrimOpUnary); isUnary {
		t.Fatalf("expected double negation to cancel, got %T", outer)
	}
	if loc, ok := outer.(*expr.Local); !ok || loc.Level != 0 {
		t.Fatalf("expected the original local back, got %#v", outer)
	}
}

// Not folds a literal boolean directly rather than wrapping it.
func TestNotFoldsLiteralBool(t *testing.T) {
	got := Not(&expr.LitExpr{Ann: analysis.Leaf(analysis.Trivial), Lit: expr.LitBool{Value: true}})
	lit, ok := got.(*expr.LitExpr)
	if !ok {
		t.Fatalf("expected *expr.LitExpr, got %T", got)
	}
	if b, ok := lit.Lit.(expr.LitBool); !ok || b.Value {
		t.Fatalf("expected literal false, got %#v", lit.Lit)
	}
}

// Branch with a single pair whose body is literal-true and whose default
// is literal-false reduces to the bare guard (rule 6's first case).
func TestBranchFoldsTrivialGuard(t *testing.T) {
	guard := Local(nil, ir.Level(0))
	truth := &expr.LitExpr{Ann: analysis.Leaf(analysis.Trivial), Lit: expr.LitBool{Value: true}}
	falsity := &expr.LitExpr{Ann: analysis.Leaf(analysis.Trivial), Lit: expr.LitBool{Value: false}}
	got := Branch([]expr.BranchPair{{Guard: guard, Body: truth}}, falsity)
	if got != guard {
		t.Fatalf("expected the branch to fold to the guard itself, got %#v", got)
	}
}

// Freeze's gated eta rule reduces \x -> f x to f when f does not mention
// x, but leaves it alone when eta reduction is disabled.
func TestFreezeEtaReduction(t *testing.T) {
	f := Var(ir.LocalQualified(ir.GlobalIdent("f")), ir.NewModuleName("Test"))
	abs := Abs([]expr.Param{{Level: 0}}, App(f, []expr.Expr{Local(nil, ir.Level(0))}))

	offResult := Freeze(FreezeOptions{EnableEtaReduction: false}, abs)
	if _, ok := offResult.(*expr.Abs); !ok {
		t.Fatalf("expected eta reduction left off by default to preserve the Abs, got %T", offResult)
	}

	got := Freeze(FreezeOptions{EnableEtaReduction: true}, abs)
	v, ok := got.(*expr.Var)
	if !ok {
		t.Fatalf("expected eta reduction to yield the bare function, got %T", got)
	}
	if v.Q.Name.Name() != "f" {
		t.Fatalf("expected the reduced form to name f, got %q", v.Q.Name.Name())
	}
}
