package convert

import (
	"testing"

	"github.com/nbecore/optcore/internal/analysis"
	"github.com/nbecore/optcore/internal/build"
	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/ir"
)

func ctorDef(kind ir.CtorKind, typeName, tag string, fields []ir.Ident) expr.Expr {
	return &expr.CtorDef{
		Ann:      analysis.Leaf(analysis.Trivial),
		CtorKind: kind,
		TypeName: ir.NewIdent(typeName),
		Tag:      tag,
		Fields:   fields,
	}
}

func TestConvertDataTypes(t *testing.T) {
	mod := ir.NewModuleName("Maybe")
	just := ir.NewIdent("Just")
	none := ir.NewIdent("None")

	group := BindGroup{Bindings: []Binding{
		{Id: just, Expr: ctorDef(ir.SumType, "Maybe", "Just", []ir.Ident{ir.NewIdent("value")})},
		{Id: none, Expr: ctorDef(ir.SumType, "Maybe", "None", nil)},
	}}

	bm, err := Convert(SourceModule{Name: mod, Groups: []BindGroup{group}})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	ty, ok := bm.DataTypes["Maybe"]
	if !ok {
		t.Fatalf("expected Maybe data type, got %v", bm.DataTypes)
	}
	if ty.Size != 1 {
		t.Fatalf("expected max field count 1, got %d", ty.Size)
	}
	if _, ok := ty.Constructors["Just"]; !ok {
		t.Fatalf("expected Just constructor")
	}
	if _, ok := ty.Constructors["None"]; !ok {
		t.Fatalf("expected None constructor")
	}
}

func TestConvertImportClosureExcludesSelfAndPrim(t *testing.T) {
	self := ir.NewModuleName("App")
	prim := ir.NewModuleName("Prim")
	other := ir.NewModuleName("Data.List")

	varExpr := build.Var(ir.NewQualified(other, ir.NewIdent("map")), other)
	group := BindGroup{Bindings: []Binding{{Id: ir.NewIdent("run"), Expr: varExpr}}}

	bm, err := Convert(SourceModule{Name: self, Imports: []ir.ModuleName{self, prim, other}, Groups: []BindGroup{group}})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if len(bm.Imports) != 1 || !bm.Imports[0].Equal(other) {
		t.Fatalf("expected imports = [Data.List], got %v", bm.Imports)
	}
}

func TestParseDirectives(t *testing.T) {
	mod := ir.NewModuleName("App")
	comments := []string{`
exports:
  - ref: helper
    directive: inline-arity
    arity: 2
locals:
  - ref: secret
    directive: inline-never
`}

	dirs, err := ParseDirectives(mod, comments)
	if err != nil {
		t.Fatalf("ParseDirectives: %v", err)
	}

	helper := ir.ExternRef(ir.NewQualified(mod, ir.GlobalIdent("helper")))
	dir, ok := dirs.Exports[helper]
	if !ok || dir.Kind != ir.DirectiveInlineArity || dir.Arity != 2 {
		t.Fatalf("expected exported inline-arity(2) for helper, got %v ok=%v", dir, ok)
	}

	secret := ir.ExternRef(ir.NewQualified(mod, ir.GlobalIdent("secret")))
	dir, ok = dirs.Locals[secret]
	if !ok || dir.Kind != ir.DirectiveInlineNever {
		t.Fatalf("expected local inline-never for secret, got %v ok=%v", dir, ok)
	}
}

func TestParseDirectivesRejectsUnknownKind(t *testing.T) {
	mod := ir.NewModuleName("App")
	_, err := ParseDirectives(mod, []string{"exports:\n  - ref: x\n    directive: bogus\n"})
	if err == nil {
		t.Fatalf("expected an error for an unknown directive kind")
	}
}
