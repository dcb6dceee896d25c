package buildcache

import (
	"context"
	"testing"

	"github.com/nbecore/optcore/internal/analysis"
	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/impl"
	"github.com/nbecore/optcore/internal/ir"
)

func TestKeyStableAndSensitiveToSource(t *testing.T) {
	decl := ir.NewQualified(ir.NewModuleName("App"), ir.GlobalIdent("run"))
	k1 := Key(decl, []byte("source-a"))
	k2 := Key(decl, []byte("source-a"))
	k3 := Key(decl, []byte("source-b"))

	if k1 != k2 {
		t.Fatalf("expected Key to be deterministic, got %s and %s", k1, k2)
	}
	if k1 == k3 {
		t.Fatalf("expected Key to change when the source hash changes")
	}
}

func TestEncodeDecodeEntryRoundTrip(t *testing.T) {
	mod := ir.NewModuleName("App")
	q := ir.NewQualified(mod, ir.GlobalIdent("answer"))

	body := &expr.App{
		Ann:  analysis.Leaf(analysis.Deref),
		Head: &expr.Var{Ann: analysis.Var(mod), Q: q},
		Args: []expr.Expr{&expr.LitExpr{Ann: analysis.Leaf(analysis.Trivial), Lit: expr.LitInt32{Value: 7}}},
	}
	entry := impl.Entry{
		Ann:  body.Analysis(),
		Impl: impl.ImplExpr{Neutral: body},
	}

	payload, err := EncodeEntry(entry)
	if err != nil {
		t.Fatalf("EncodeEntry: %v", err)
	}

	decoded, err := DecodeEntry(payload)
	if err != nil {
		t.Fatalf("DecodeEntry: %v", err)
	}

	got, ok := decoded.Impl.(impl.ImplExpr)
	if !ok {
		t.Fatalf("expected ImplExpr, got %T", decoded.Impl)
	}
	app, ok := got.Neutral.(*expr.App)
	if !ok {
		t.Fatalf("expected *expr.App, got %T", got.Neutral)
	}
	lit, ok := app.Args[0].(*expr.LitExpr)
	if !ok {
		t.Fatalf("expected *expr.LitExpr arg, got %T", app.Args[0])
	}
	if n, ok := lit.Lit.(expr.LitInt32); !ok || n.Value != 7 {
		t.Fatalf("expected literal 7, got %#v", lit.Lit)
	}
	v, ok := app.Head.(*expr.Var)
	if !ok || !v.Q.Equal(q) {
		t.Fatalf("expected head Var(%s), got %#v", q, app.Head)
	}
}

func TestEncodeEntryUnsupportedNodeIsAMiss(t *testing.T) {
	entry := impl.Entry{
		Impl: impl.ImplExpr{Neutral: &expr.LetRec{}},
	}
	if _, err := EncodeEntry(entry); err == nil {
		t.Fatalf("expected EncodeEntry to report an unsupported node")
	}
}

func TestCacheGetPutRoundTrip(t *testing.T) {
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	decl := ir.NewQualified(ir.NewModuleName("App"), ir.GlobalIdent("answer"))
	entry := impl.Entry{
		Ann:  analysis.Leaf(analysis.Trivial),
		Impl: impl.ImplExpr{Neutral: &expr.LitExpr{Ann: analysis.Leaf(analysis.Trivial), Lit: expr.LitInt32{Value: 42}}},
	}
	key := Key(decl, []byte("source"))

	if _, ok := c.GetEntry(ctx, key); ok {
		t.Fatalf("expected a miss before any Put")
	}

	if err := c.PutEntry(ctx, key, entry); err != nil {
		t.Fatalf("PutEntry: %v", err)
	}

	got, ok := c.GetEntry(ctx, key)
	if !ok {
		t.Fatalf("expected a hit after Put")
	}
	impExpr, ok := got.Impl.(impl.ImplExpr)
	if !ok {
		t.Fatalf("expected ImplExpr, got %T", got.Impl)
	}
	lit, ok := impExpr.Neutral.(*expr.LitExpr)
	if !ok {
		t.Fatalf("expected *expr.LitExpr, got %T", impExpr.Neutral)
	}
	if n, ok := lit.Lit.(expr.LitInt32); !ok || n.Value != 42 {
		t.Fatalf("expected literal 42, got %#v", lit.Lit)
	}

	// Put is idempotent/overwriting: writing the same key again must not
	// error and must still read back cleanly.
	if err := c.PutEntry(ctx, key, entry); err != nil {
		t.Fatalf("second PutEntry: %v", err)
	}
}

func TestCacheGetMissingKey(t *testing.T) {
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if _, ok, err := c.Get(context.Background(), "does-not-exist"); err != nil || ok {
		t.Fatalf("expected a clean miss, got ok=%v err=%v", ok, err)
	}
}
