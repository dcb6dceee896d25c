package sem

import "github.com/nbecore/optcore/internal/ir"

// Sem is any semantic value produced by Eval and consumed by Quote.
type Sem interface {
	semNode()
}

// ---- Closures (§3, §9 "Closures as host functions") ----

// Lam is a single-argument closure using a host-level function, the
// essence of normalization by evaluation: applying it is just calling F.
type Lam struct {
	Id *ir.Ident
	F  func(Sem) Sem
}

// MkFn is the uncurried-closure spine described in §3: a chain of
// MkFnNext nodes collecting arguments, terminated by MkFnApplied once
// all arguts have been supplied to the wrapped semantic value.
type MkFn interface {
	mkFnNode()
}

type MkFnNext struct {
	Id *ir.Ident
	K  func(Sem) MkFn
}

type MkFnApplied struct {
	V Sem
}

func (*MkFnNext) mkFnNode()    {}
func (*MkFnApplied) mkFnNode() {}

// MkFnVal and MkEffectFnVal wrap an MkFn chain as a Sem value, for the
// effect-free and effectful uncurried interop forms respectively.
type MkFnVal struct{ Kont MkFn }
type MkEffectFnVal struct{ Kont MkFn }

// ---- Preserved let/effect forms ----

type Let struct {
	Id *ir.Ident
	V  Sem
	F  func(Sem) Sem
}

// LetRecBinding is one thunked binder of a recursive group; the thunk
// ties the knot by closing over the table of sibling thunks.
type LetRecBinding struct {
	Id    ir.Ident
	Bound *Thunk[Sem]
}

type LetRec struct {
	Group []LetRecBinding
	F     func([]Sem) Sem
}

type EffectBind struct {
	Id *ir.Ident
	V  Sem
	F  func(Sem) Sem
}

type EffectPure struct {
	V Sem
}

// ---- Branch (§3, §4.2.4, §9 "Branch continuation threading") ----

// Cond is one not-yet-resolved guarded arm. Kont receives the Try that
// should be exposed as env.try while evaluating the committed body, so
// nested conditionals can see their enclosing fallthrough.
type Cond struct {
	Guard Sem
	Kont  func(*Try) Sem
}

// Try is the "else-tail": the conditionals not yet tried plus the
// default, threaded into a committed branch's continuation.
type Try struct {
	Remaining []*Thunk[*Cond]
	HasDefault bool
	Default    *Thunk[Sem]
}

// Branch is a stuck conditional: every conditional so far has an unknown
// (non-literal) guard. Conds is always non-empty by construction.
type Branch struct {
	Conds      []*Thunk[*Cond]
	HasDefault bool
	Default    *Thunk[Sem]
}

func (*Lam) semNode()         {}
func (*MkFnVal) semNode()     {}
func (*MkEffectFnVal) semNode() {}
func (*Let) semNode()         {}
func (*LetRec) semNode()      {}
func (*EffectBind) semNode()  {}
func (*EffectPure) semNode()  {}
func (*Branch) semNode()      {}

// ---- Extern (§3, §4.2.6) ----

// ExternSpineItem is one pending operation in an Extern's spine: a
// coalesced run of applied arguments, a field/index/offset accessor, or
// a unary primop. Consecutive ExternApp items must never appear
// side-by-side (invariant 2): callers append via AppendApp, which
// coalesces into the trailing ExternApp if there is one.
type ExternSpineItem interface {
	spineNode()
}

type ExternApp struct{ Args []Sem }
type ExternAccessor struct{ Acc ir.Accessor }
type ExternPrimOp struct{ Op ir.UnOp }

func (ExternApp) spineNode()      {}
func (ExternAccessor) spineNode() {}
func (ExternPrimOp) spineNode()   {}

// AppendApp appends args to spine, coalescing with a trailing ExternApp
// if present (the normalization invariant of §3).
func AppendApp(spine []ExternSpineItem, args []Sem) []ExternSpineItem {
	if len(spine) > 0 {
		if last, ok := spine[len(spine)-1].(ExternApp); ok {
			out := append([]ExternSpineItem(nil), spine[:len(spine)-1]...)
			return append(out, ExternApp{Args: append(append([]Sem(nil), last.Args...), args...)})
		}
	}
	return append(append([]ExternSpineItem(nil), spine...), ExternApp{Args: args})
}

// Extern is a pending cross-declaration reference awaiting more spine
// before it commits to a value via policy or is reified as a neutral.
type Extern struct {
	Q        ir.Qualified
	Spine    []ExternSpineItem
	Fallback *Thunk[Sem]
}

func (*Extern) semNode() {}

// ---- Neutrals (§3) ----

type NeutLocal struct {
	Id    *ir.Ident
	Level ir.Level
}

type NeutVar struct{ Q ir.Qualified }
type NeutStop struct{ Q ir.Qualified }

type NeutField struct {
	Field ir.Ident
	Value Sem
}

type NeutData struct {
	Q        ir.Qualified
	CtorKind ir.CtorKind
	TypeName ir.Ident
	Tag      string
	Fields   []NeutField
}

type NeutCtorDef struct {
	Q        ir.Qualified
	CtorKind ir.CtorKind
	TypeName ir.Ident
	Tag      string
	Fields   []ir.Ident
}

// NeutApp's Args is always non-empty and Head is never itself a NeutApp
// (invariant 2); evalApp/mkNeutApp enforce the flattening.
type NeutApp struct {
	Head Sem
	Args []Sem
}

type NeutUncurriedApp struct {
	Head Sem
	Args []Sem
}

type NeutUncurriedEffectApp struct {
	Head Sem
	Args []Sem
}

type NeutAccessor struct {
	E   Sem
	Acc ir.Accessor
}

type NeutUpdateField struct {
	Key   string
	Value Sem
}

type NeutUpdate struct {
	E     Sem
	Props []NeutUpdateField
}

// Literal is the Sem-level mirror of ir.Lit: array/record children are
// Sem rather than unevaluated Expr.
type Literal interface {
	litSemNode()
}

type LitInt32 struct{ Value int32 }
type LitNumber struct{ Value float64 }
type LitString struct{ Value string }
type LitChar struct{ Value rune }
type LitBool struct{ Value bool }
type LitArray struct{ Elems []Sem }

type RecordField struct {
	Key   string
	Value Sem
}
type LitRecord struct{ Fields []RecordField }

func (LitInt32) litSemNode()  {}
func (LitNumber) litSemNode() {}
func (LitString) litSemNode() {}
func (LitChar) litSemNode()   {}
func (LitBool) litSemNode()   {}
func (LitArray) litSemNode()  {}
func (LitRecord) litSemNode() {}

// FieldByKey returns the field with the given key, if present.
func (r LitRecord) FieldByKey(key string) (Sem, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

type NeutLit struct{ Value Literal }

type NeutPrimOpUnary struct {
	Op  ir.UnOp
	Arg Sem
}

type NeutPrimOpBinary struct {
	Op  ir.BinOp
	Lhs Sem
	Rhs Sem
}

type NeutFail struct{ Msg string }

func (*NeutLocal) semNode()             {}
func (*NeutVar) semNode()               {}
func (*NeutStop) semNode()              {}
func (*NeutData) semNode()              {}
func (*NeutCtorDef) semNode()           {}
func (*NeutApp) semNode()               {}
func (*NeutUncurriedApp) semNode()      {}
func (*NeutUncurriedEffectApp) semNode() {}
func (*NeutAccessor) semNode()          {}
func (*NeutUpdate) semNode()            {}
func (*NeutLit) semNode()               {}
func (*NeutPrimOpUnary) semNode()       {}
func (*NeutPrimOpBinary) semNode()      {}
func (*NeutFail) semNode()              {}
