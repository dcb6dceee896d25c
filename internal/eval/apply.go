package eval

import (
	"github.com/nbecore/optcore/internal/diag"
	"github.com/nbecore/optcore/internal/ir"
	"github.com/nbecore/optcore/internal/sem"
)

// evalApp reduces an application of h to args (§4.2.1). args is never
// empty on entry from Eval, but recursive calls may pass the tail down to
// zero, at which point h is simply returned.
func evalApp(ctx Ctx, env *sem.Env, h sem.Sem, args []sem.Sem) sem.Sem {
	if len(args) == 0 {
		return h
	}
	switch v := h.(type) {
	case *sem.Lam:
		a, rest := args[0], args[1:]
		return &sem.Let{Id: v.Id, V: a, F: func(bound sem.Sem) sem.Sem {
			return evalApp(ctx, env, v.F(bound), rest)
		}}

	case *sem.Extern:
		a, rest := args[0], args[1:]
		next := EvalExtern(ctx, env, v.Q, sem.AppendApp(v.Spine, []sem.Sem{a}))
		return evalApp(ctx, env, next, rest)

	case *sem.Let:
		// No argument is consumed here: the application is pushed under the
		// let in its entirety, preserving let-associativity in the result
		// (and therefore in anything later quoted from it).
		outerV, k := v.V, v.F
		return &sem.Let{Id: v.Id, V: outerV, F: func(v1 sem.Sem) sem.Sem {
			inner := k(v1)
			return &sem.Let{Id: nil, V: inner, F: func(f sem.Sem) sem.Sem {
				return evalApp(ctx, env, f, args)
			}}
		}}

	default:
		return mkNeutApp(h, args)
	}
}

// mkNeutApp builds a stuck application, flattening nested NeutApp heads so
// NeutApp never appears nested (invariant 2).
func mkNeutApp(h sem.Sem, args []sem.Sem) sem.Sem {
	if na, ok := h.(*sem.NeutApp); ok {
		return &sem.NeutApp{Head: na.Head, Args: append(append([]sem.Sem(nil), na.Args...), args...)}
	}
	return &sem.NeutApp{Head: h, Args: args}
}

// evalMkFn lifts sem into an n-ary uncurried closure (§4.2.7), the
// mechanism foreign-interop layers use to coerce a curried implementation
// into an uncurried FFI shape.
func evalMkFn(ctx Ctx, env *sem.Env, n int, v sem.Sem) sem.MkFn {
	if n == 0 {
		return &sem.MkFnApplied{V: v}
	}
	if lam, ok := v.(*sem.Lam); ok {
		return &sem.MkFnNext{Id: lam.Id, K: func(a sem.Sem) sem.MkFn {
			return evalMkFn(ctx, env, n-1, lam.F(a))
		}}
	}
	synth := ir.GensymIdent("eta")
	return &sem.MkFnNext{Id: &synth, K: func(a sem.Sem) sem.MkFn {
		applied := evalApp(ctx, env, v, []sem.Sem{a})
		return evalMkFn(ctx, env, n-1, applied)
	}}
}

// applyUncurried applies args to h where h is the evaluated head of an
// UncurriedApp/UncurriedEffectApp. effectful selects which wrapper
// (MkFnVal/MkEffectFnVal) a partially-applied remainder is re-wrapped as.
func applyUncurried(ctx Ctx, env *sem.Env, h sem.Sem, args []sem.Sem, effectful bool) sem.Sem {
	if len(args) == 0 {
		return h
	}
	switch v := h.(type) {
	case *sem.MkFnVal:
		return runKont(ctx, env, v.Kont, args, effectful)

	case *sem.MkEffectFnVal:
		return runKont(ctx, env, v.Kont, args, effectful)

	case *sem.Extern:
		return EvalExtern(ctx, env, v.Q, sem.AppendApp(v.Spine, args))

	case *sem.Let:
		outerV, k := v.V, v.F
		return &sem.Let{Id: v.Id, V: outerV, F: func(v1 sem.Sem) sem.Sem {
			return applyUncurried(ctx, env, k(v1), args, effectful)
		}}

	default:
		if effectful {
			return &sem.NeutUncurriedEffectApp{Head: h, Args: args}
		}
		return &sem.NeutUncurriedApp{Head: h, Args: args}
	}
}

// runKont drives an MkFn chain against args one parameter at a time.
// Under-application re-wraps the unconsumed tail of the chain as a
// partially-applied MkFn(Effect)Val; over-application falls through to
// ordinary curried application of the chain's final value.
func runKont(ctx Ctx, env *sem.Env, k sem.MkFn, args []sem.Sem, effectful bool) sem.Sem {
	switch n := k.(type) {
	case *sem.MkFnNext:
		if len(args) == 0 {
			if effectful {
				return &sem.MkEffectFnVal{Kont: n}
			}
			return &sem.MkFnVal{Kont: n}
		}
		a, rest := args[0], args[1:]
		return runKont(ctx, env, n.K(a), rest, effectful)

	case *sem.MkFnApplied:
		if len(args) == 0 {
			return n.V
		}
		return evalApp(ctx, env, n.V, args)
	}
	panic(&diag.ImpossiblePatternOpError{Decl: ctx.Decl, Op: "unrecognized MkFn node"})
}
