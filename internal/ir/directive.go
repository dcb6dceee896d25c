package ir

// Directive is an external override of the inline policy for a named
// declaration or field (§6 Directive syntax, §8 property 6/7).
type Directive struct {
	Kind  DirectiveKind
	Arity int // meaningful only for DirectiveInlineArity
}

type DirectiveKind int

const (
	DirectiveInlineNever DirectiveKind = iota
	DirectiveInlineAlways
	DirectiveInlineArity
)

func InlineNever() Directive             { return Directive{Kind: DirectiveInlineNever} }
func InlineAlways() Directive            { return Directive{Kind: DirectiveInlineAlways} }
func InlineArity(n int) Directive        { return Directive{Kind: DirectiveInlineArity, Arity: n} }

// EvalRefKind distinguishes the two shapes of EvalRef.
type EvalRefKind int

const (
	EvalRefExtern EvalRefKind = iota
	EvalRefLocal
)

// EvalRef identifies what a Directive applies to: either an extern
// (optionally narrowed to one of its record-field accessors, for
// per-field dictionary inlining) or a local binder. EvalRef is
// comparable so it can key env.directives directly.
type EvalRef struct {
	Kind EvalRefKind

	// EvalRefExtern
	Q      Qualified
	HasAcc bool
	Acc    Accessor

	// EvalRefLocal
	HasId bool
	Id    Ident
	Level Level
}

func ExternRef(q Qualified) EvalRef {
	return EvalRef{Kind: EvalRefExtern, Q: q}
}

func ExternFieldRef(q Qualified, acc Accessor) EvalRef {
	return EvalRef{Kind: EvalRefExtern, Q: q, HasAcc: true, Acc: acc}
}

func LocalRef(id *Ident, level Level) EvalRef {
	r := EvalRef{Kind: EvalRefLocal, Level: level}
	if id != nil {
		r.HasId = true
		r.Id = *id
	}
	return r
}
