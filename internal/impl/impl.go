// Package impl defines the per-declaration implementation shape
// published to later declarations and modules (§3 "Per-declaration
// implementation (Impl)", §4.8 Impl derivation). It is kept separate
// from internal/eval and internal/quote so both can depend on it without
// a cycle: Eval's extern dispatch (§4.2.6) reads Impl to decide whether
// to inline, and the driver (§4.7) writes Impl after Freeze.
package impl

import (
	"github.com/nbecore/optcore/internal/analysis"
	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/ir"
)

// Impl is the published shape of an optimized top-level declaration.
type Impl interface {
	implNode()
}

// ImplExpr is a normal value. Group is the set of qualified idents in
// its recursive binding group (empty if the declaration is not
// recursive).
type ImplExpr struct {
	Group   []ir.Qualified
	Neutral expr.Expr
}

// ImplRec is semantically identical to ImplExpr when the declaration is
// recursive; kept as a distinct constructor because §3 calls it out as
// the form used for a binding whose group is non-empty, mirroring the
// original implementation's own redundant-but-documented distinction.
type ImplRec struct {
	Group   []ir.Qualified
	Neutral expr.Expr
}

// DictField is one field of a literal-record implementation, retaining
// its own analysis so the inliner can decide per-field rather than for
// the dictionary as a whole.
type DictField struct {
	Prop    string
	Ann     analysis.Analysis
	Neutral expr.Expr
}

// ImplDict is a literal record binding (a class-like dictionary),
// enabling per-field inlining.
type ImplDict struct {
	Group  []ir.Qualified
	Fields []DictField
}

// ImplCtor says the declaration is itself a constructor definition.
type ImplCtor struct {
	CtorKind ir.CtorKind
	TypeName ir.Ident
	Tag      string
	Fields   []ir.Ident
}

func (ImplExpr) implNode() {}
func (ImplRec) implNode()  {}
func (ImplDict) implNode() {}
func (ImplCtor) implNode() {}

// Entry is the (Analysis, Impl) pair §4.1's lookupExtern returns and the
// driver's global `implementations` map stores.
type Entry struct {
	Ann  analysis.Analysis
	Impl Impl
}

// Lookup is the lookupExtern(q) collaborator of §4.1/§4.3: returns the
// analysis and neutral IR of a previously compiled declaration.
type Lookup func(q ir.Qualified) (Entry, bool)

// DictFieldByProp returns the field named prop, if present.
func (d ImplDict) DictFieldByProp(prop string) (DictField, bool) {
	for _, f := range d.Fields {
		if f.Prop == prop {
			return f, true
		}
	}
	return DictField{}, false
}

// InGroup reports whether q is a member of group.
func InGroup(group []ir.Qualified, q ir.Qualified) bool {
	for _, g := range group {
		if g.Equal(q) {
			return true
		}
	}
	return false
}
