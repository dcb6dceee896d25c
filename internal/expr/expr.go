// Package expr defines BackendExpr (§3): the tagged build-IR node that
// carries an Analysis plus one syntactic or rewrite form. Go has no
// native sum types, so each form is a concrete struct implementing the
// Expr interface; Eval, Quote and Build dispatch on it with a type
// switch, the same idiom the teacher's own evaluator uses over its AST
// (internal/evaluator/evaluator.go's `switch node := node.(type)`).
package expr

import (
	"github.com/nbecore/optcore/internal/analysis"
	"github.com/nbecore/optcore/internal/ir"
)

// Expr is any build-IR node. Concrete types are never mutated after
// construction: every rewrite produces a new node via a constructor, so
// a *Var, *App, etc. can be shared freely across the tree.
type Expr interface {
	Analysis() analysis.Analysis
	exprNode()
}

// Param is one formal parameter of an Abs/UncurriedAbs/UncurriedEffectAbs.
// Id is optional (present only for diagnostics); Level is the level the
// parameter is bound at.
type Param struct {
	Id    *ir.Ident
	Level ir.Level
}

// ---- Syntactic forms (§3) ----

type Var struct {
	Ann analysis.Analysis
	Q   ir.Qualified
}

type Local struct {
	Ann   analysis.Analysis
	Id    *ir.Ident
	Level ir.Level
}

type LitExpr struct {
	Ann analysis.Analysis
	Lit Lit
}

// App is a curried application; Args is never empty.
type App struct {
	Ann  analysis.Analysis
	Head Expr
	Args []Expr
}

// Abs is a curried abstraction; Params is never empty.
type Abs struct {
	Ann    analysis.Analysis
	Params []Param
	Body   Expr
}

type UncurriedApp struct {
	Ann  analysis.Analysis
	Head Expr
	Args []Expr
}

type UncurriedAbs struct {
	Ann    analysis.Analysis
	Params []Param
	Body   Expr
}

type UncurriedEffectApp struct {
	Ann  analysis.Analysis
	Head Expr
	Args []Expr
}

type UncurriedEffectAbs struct {
	Ann    analysis.Analysis
	Params []Param
	Body   Expr
}

type Let struct {
	Ann     analysis.Analysis
	Id      *ir.Ident
	Level   ir.Level
	Binding Expr
	Body    Expr
}

// RecBinding is one binder of a LetRec group.
type RecBinding struct {
	Id   ir.Ident
	Expr Expr
}

// LetRec is a mutually recursive binding group; StartLevel is the level
// of the first binder, with subsequent binders at consecutive levels.
type LetRec struct {
	Ann        analysis.Analysis
	StartLevel ir.Level
	Bindings   []RecBinding
	Body       Expr
}

type EffectBind struct {
	Ann   analysis.Analysis
	Id    *ir.Ident
	Level ir.Level
	M     Expr
	K     Expr
}

type EffectPure struct {
	Ann analysis.Analysis
	V   Expr
}

type Accessor struct {
	Ann analysis.Analysis
	E   Expr
	Acc ir.Accessor
}

// UpdateField is one key/value pair of a functional record update.
type UpdateField struct {
	Key   string
	Value Expr
}

type Update struct {
	Ann   analysis.Analysis
	E     Expr
	Props []UpdateField
}

// BranchPair is one guarded arm of a Branch.
type BranchPair struct {
	Guard Expr
	Body  Expr
}

// Branch is an ordered guarded expression (§3 invariant 4); Pairs is
// never empty. Default is nil when there is no fallthrough.
type Branch struct {
	Ann     analysis.Analysis
	Pairs   []BranchPair
	Default Expr // nil if absent
}

type PrimOpUnary struct {
	Ann analysis.Analysis
	Op  ir.UnOp
	Arg Expr
}

type PrimOpBinary struct {
	Ann  analysis.Analysis
	Op   ir.BinOp
	Lhs  Expr
	Rhs  Expr
}

type Fail struct {
	Ann analysis.Analysis
	Msg string
}

// CtorDef reifies a constructor as a first-class value.
type CtorDef struct {
	Ann      analysis.Analysis
	CtorKind ir.CtorKind
	TypeName ir.Ident
	Tag      string
	Fields   []ir.Ident
}

type CtorSaturated struct {
	Ann      analysis.Analysis
	Q        ir.Qualified
	CtorKind ir.CtorKind
	TypeName ir.Ident
	Tag      string
	Fields   []CtorFieldVal
}

func (e *Var) Analysis() analysis.Analysis                { return e.Ann }
func (e *Local) Analysis() analysis.Analysis               { return e.Ann }
func (e *LitExpr) Analysis() analysis.Analysis              { return e.Ann }
func (e *App) Analysis() analysis.Analysis                 { return e.Ann }
func (e *Abs) Analysis() analysis.Analysis                 { return e.Ann }
func (e *UncurriedApp) Analysis() analysis.Analysis        { return e.Ann }
func (e *UncurriedAbs) Analysis() analysis.Analysis        { return e.Ann }
func (e *UncurriedEffectApp) Analysis() analysis.Analysis  { return e.Ann }
func (e *UncurriedEffectAbs) Analysis() analysis.Analysis  { return e.Ann }
func (e *Let) Analysis() analysis.Analysis                 { return e.Ann }
func (e *LetRec) Analysis() analysis.Analysis              { return e.Ann }
func (e *EffectBind) Analysis() analysis.Analysis          { return e.Ann }
func (e *EffectPure) Analysis() analysis.Analysis          { return e.Ann }
func (e *Accessor) Analysis() analysis.Analysis            { return e.Ann }
func (e *Update) Analysis() analysis.Analysis              { return e.Ann }
func (e *Branch) Analysis() analysis.Analysis              { return e.Ann }
func (e *PrimOpUnary) Analysis() analysis.Analysis         { return e.Ann }
func (e *PrimOpBinary) Analysis() analysis.Analysis        { return e.Ann }
func (e *Fail) Analysis() analysis.Analysis                { return e.Ann }
func (e *CtorDef) Analysis() analysis.Analysis             { return e.Ann }
func (e *CtorSaturated) Analysis() analysis.Analysis       { return e.Ann }

func (*Var) exprNode()                {}
func (*Local) exprNode()              {}
func (*LitExpr) exprNode()            {}
func (*App) exprNode()                {}
func (*Abs) exprNode()                {}
func (*UncurriedApp) exprNode()       {}
func (*UncurriedAbs) exprNode()       {}
func (*UncurriedEffectApp) exprNode() {}
func (*UncurriedEffectAbs) exprNode() {}
func (*Let) exprNode()                {}
func (*LetRec) exprNode()             {}
func (*EffectBind) exprNode()         {}
func (*EffectPure) exprNode()         {}
func (*Accessor) exprNode()           {}
func (*Update) exprNode()             {}
func (*Branch) exprNode()             {}
func (*PrimOpUnary) exprNode()        {}
func (*PrimOpBinary) exprNode()       {}
func (*Fail) exprNode()               {}
func (*CtorDef) exprNode()            {}
func (*CtorSaturated) exprNode()      {}

// ---- Rewrite forms (§3) ----
//
// These never appear in input IR; they are introduced by Build (§4.4) and
// stripped back out by Freeze (§4.6). A node carrying one is still an
// Expr so the evaluator (§4.2, "Rewrite forms") can interpret it directly
// without a separate freeze pass before every optimize iteration.

type RewriteInline struct {
	Ann     analysis.Analysis
	Id      *ir.Ident
	Level   ir.Level
	Binding Expr
	Body    Expr
}

// AssocBinding is one binding of a RewriteLetAssoc chain.
type AssocBinding struct {
	Id      *ir.Ident
	Level   ir.Level
	Binding Expr
}

type RewriteLetAssoc struct {
	Ann      analysis.Analysis
	Bindings []AssocBinding
	Body     Expr
}

type RewriteStop struct {
	Ann analysis.Analysis
	Q   ir.Qualified
}

func (e *RewriteInline) Analysis() analysis.Analysis    { return e.Ann }
func (e *RewriteLetAssoc) Analysis() analysis.Analysis  { return e.Ann }
func (e *RewriteStop) Analysis() analysis.Analysis      { return e.Ann }

func (*RewriteInline) exprNode()    {}
func (*RewriteLetAssoc) exprNode()  {}
func (*RewriteStop) exprNode()      {}
