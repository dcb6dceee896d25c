package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nbecore/optcore/internal/analysis"
	"github.com/nbecore/optcore/internal/buildcache"
	"github.com/nbecore/optcore/internal/convert"
	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/impl"
	"github.com/nbecore/optcore/internal/ir"
)

func TestParseArgs(t *testing.T) {
	cfg, rest := parseArgs([]string{"-config", "optcore.yaml", "a.json", "b.json"})
	if cfg != "optcore.yaml" {
		t.Fatalf("expected config path optcore.yaml, got %q", cfg)
	}
	if len(rest) != 2 || rest[0] != "a.json" || rest[1] != "b.json" {
		t.Fatalf("unexpected rest: %v", rest)
	}
}

func TestParseArgsNoConfig(t *testing.T) {
	cfg, rest := parseArgs([]string{"a.json"})
	if cfg != "" {
		t.Fatalf("expected no config path, got %q", cfg)
	}
	if len(rest) != 1 || rest[0] != "a.json" {
		t.Fatalf("unexpected rest: %v", rest)
	}
}

func TestLoadModuleSet(t *testing.T) {
	lit, err := buildcache.EncodeExprMap(&expr.LitExpr{
		Ann: analysis.Leaf(analysis.Trivial),
		Lit: expr.LitInt32{Value: 9},
	})
	if err != nil {
		t.Fatalf("EncodeExprMap: %v", err)
	}

	doc := []jsonModule{{
		Name: "App",
		Groups: []jsonBindGroup{{
			Bindings: []jsonBinding{{Id: "answer", Expr: lit}},
		}},
	}}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}

	path := filepath.Join(t.TempDir(), "set.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	modules, err := loadModuleSet(path)
	if err != nil {
		t.Fatalf("loadModuleSet: %v", err)
	}
	if len(modules) != 1 || !modules[0].Name.Equal(ir.NewModuleName("App")) {
		t.Fatalf("unexpected modules: %#v", modules)
	}
	got, ok := modules[0].Groups[0].Bindings[0].Expr.(*expr.LitExpr)
	if !ok {
		t.Fatalf("expected *expr.LitExpr, got %T", modules[0].Groups[0].Bindings[0].Expr)
	}
	if n, ok := got.Lit.(expr.LitInt32); !ok || n.Value != 9 {
		t.Fatalf("expected literal 9, got %#v", got.Lit)
	}
}

func TestWarmModuleSubstitutesCacheHit(t *testing.T) {
	cache, err := buildcache.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cache.Close()

	ctx := context.Background()
	mod := ir.NewModuleName("App")
	input := &expr.LitExpr{Ann: analysis.Leaf(analysis.Trivial), Lit: expr.LitInt32{Value: 1}}
	groups := []convert.BindGroup{{Bindings: []convert.Binding{{Id: ir.NewIdent("answer"), Expr: input}}}}

	hashes, err := warmModule(ctx, cache, mod, groups)
	if err != nil {
		t.Fatalf("warmModule: %v", err)
	}
	if groups[0].Bindings[0].Expr != input {
		t.Fatalf("expected a cache miss to leave the input untouched")
	}

	decl := ir.NewQualified(mod, ir.GlobalIdent("answer"))
	hash := hashes[decl.String()]
	if hash == nil {
		t.Fatalf("expected a source hash to be recorded even on a miss")
	}

	optimized := &expr.LitExpr{Ann: analysis.Leaf(analysis.Trivial), Lit: expr.LitInt32{Value: 42}}
	entry := impl.Entry{Ann: optimized.Ann, Impl: impl.ImplExpr{Neutral: optimized}}
	if err := cache.PutEntry(ctx, buildcache.Key(decl, hash), entry); err != nil {
		t.Fatalf("PutEntry: %v", err)
	}

	groups2 := []convert.BindGroup{{Bindings: []convert.Binding{{Id: ir.NewIdent("answer"), Expr: input}}}}
	if _, err := warmModule(ctx, cache, mod, groups2); err != nil {
		t.Fatalf("warmModule (second): %v", err)
	}
	got, ok := groups2[0].Bindings[0].Expr.(*expr.LitExpr)
	if !ok {
		t.Fatalf("expected the cached literal to be substituted, got %T", groups2[0].Bindings[0].Expr)
	}
	if n, ok := got.Lit.(expr.LitInt32); !ok || n.Value != 42 {
		t.Fatalf("expected cached literal 42, got %#v", got.Lit)
	}
}
