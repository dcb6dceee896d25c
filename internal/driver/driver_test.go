package driver

import (
	"testing"

	"github.com/nbecore/optcore/internal/analysis"
	"github.com/nbecore/optcore/internal/build"
	"github.com/nbecore/optcore/internal/convert"
	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/impl"
	"github.com/nbecore/optcore/internal/ir"
)

func litInt32(n int32) expr.Expr {
	return build.Lit(expr.LitInt32{Value: n}, nil)
}

// TestRunInlinesAcrossModules compiles two modules, where the second
// imports a trivial literal binding from the first, and checks the
// import is inlined to the literal by the time the dependent module is
// compiled (§4.2.6 "expr is a Lit that passes shouldInlineExternLiteral:
// evaluate inline").
func TestRunInlinesAcrossModules(t *testing.T) {
	baseMod := ir.NewModuleName("Base")
	answer := ir.NewIdent("answer")
	baseQ := ir.NewQualified(baseMod, ir.GlobalIdent(answer.Name()))

	base := convert.SourceModule{
		Name: baseMod,
		Groups: []convert.BindGroup{{
			Bindings: []convert.Binding{{Id: answer, Expr: litInt32(42)}},
		}},
	}

	appMod := ir.NewModuleName("App")
	useAnswer := ir.NewIdent("useAnswer")
	app := convert.SourceModule{
		Name:    appMod,
		Imports: []ir.ModuleName{baseMod},
		Groups: []convert.BindGroup{{
			Bindings: []convert.Binding{{Id: useAnswer, Expr: build.Var(baseQ, baseMod)}},
		}},
	}

	outputs, state, err := Run([]convert.SourceModule{base, app}, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.ModuleIndex != 2 {
		t.Fatalf("expected moduleIndex 2, got %d", state.ModuleIndex)
	}

	appOut := outputs[1]
	if len(appOut.Bindings) != 1 {
		t.Fatalf("expected 1 binding in App, got %d", len(appOut.Bindings))
	}

	lit, ok := appOut.Bindings[0].Expr.(*expr.LitExpr)
	if !ok {
		t.Fatalf("expected useAnswer to inline to a literal, got %T", appOut.Bindings[0].Expr)
	}
	n, ok := lit.Lit.(expr.LitInt32)
	if !ok || n.Value != 42 {
		t.Fatalf("expected literal 42, got %#v", lit.Lit)
	}
}

// TestRunHonorsInlineNeverDirective checks that an InlineNever export
// directive from the defining module prevents inlining into a later
// module, per §8 property 6 ("Directive monotonicity").
func TestRunHonorsInlineNeverDirective(t *testing.T) {
	baseMod := ir.NewModuleName("Base")
	secret := ir.NewIdent("secret")

	base := convert.SourceModule{
		Name: baseMod,
		Groups: []convert.BindGroup{{
			Bindings: []convert.Binding{{Id: secret, Expr: litInt32(7)}},
		}},
		DirectiveComments: []string{"exports:\n  - ref: secret\n    directive: inline-never\n"},
	}

	appMod := ir.NewModuleName("App")
	useSecret := ir.NewIdent("useSecret")
	secretQ := ir.NewQualified(baseMod, ir.GlobalIdent(secret.Name()))
	app := convert.SourceModule{
		Name:    appMod,
		Imports: []ir.ModuleName{baseMod},
		Groups: []convert.BindGroup{{
			Bindings: []convert.Binding{{Id: useSecret, Expr: build.Var(secretQ, baseMod)}},
		}},
	}

	outputs, _, err := Run([]convert.SourceModule{base, app}, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := outputs[1].Bindings[0].Expr
	v, ok := got.(*expr.Var)
	if !ok || !v.Q.Equal(secretQ) {
		t.Fatalf("expected Var(%s) to survive InlineNever, got %#v", secretQ, got)
	}
}

// TestDeriveImplCtor checks §4.8's ImplCtor case directly.
func TestDeriveImplCtor(t *testing.T) {
	def := &expr.CtorDef{
		Ann:      analysis.Leaf(analysis.Trivial),
		CtorKind: ir.SumType,
		TypeName: ir.NewIdent("Maybe"),
		Tag:      "Just",
		Fields:   []ir.Ident{ir.NewIdent("value")},
	}

	entry := deriveImpl(nil, def)
	ctor, ok := entry.Impl.(impl.ImplCtor)
	if !ok {
		t.Fatalf("expected ImplCtor, got %T", entry.Impl)
	}
	if ctor.Tag != "Just" || len(ctor.Fields) != 1 {
		t.Fatalf("unexpected ImplCtor shape: %#v", ctor)
	}
}
