// Package eval implements Eval (§4.2): interpreting build IR into
// semantic values by normalization-by-evaluation. It is total on
// well-formed, well-typed input; the only failure modes are the fatal
// programmer-IR-bug diagnostics of §7, raised by panicking with a
// concrete *diag.* error type and recovered at the driver boundary
// (internal/optimize.Optimize), the same panic/recover-at-the-boundary
// idiom the teacher uses around its own VM's step function
// (internal/vm/vm.go's step()).
package eval

import (
	"github.com/nbecore/optcore/internal/diag"
	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/ir"
	"github.com/nbecore/optcore/internal/sem"
)

// OverflowMode controls whether 32-bit integer addition, subtraction and
// multiplication on two literal operands fold (§4.2.5, §7, §9 Open
// Questions); integer division and modulo by a non-zero literal fold
// under either mode.
type OverflowMode int

const (
	Wrap32 OverflowMode = iota
	Unfolded
)

// Ctx carries the evaluation options and the declaration currently being
// compiled, threaded alongside *sem.Env so diagnostics can always name
// the offending declaration.
type Ctx struct {
	Decl        ir.Qualified
	IntOverflow OverflowMode
}

// Eval interprets e into a semantic value under env (§4.2).
func Eval(ctx Ctx, env *sem.Env, e expr.Expr) sem.Sem {
	switch n := e.(type) {
	case *expr.Var:
		return EvalExtern(ctx, env, n.Q, nil)

	case *expr.Local:
		return evalLocal(ctx, env, n)

	case *expr.LitExpr:
		return evalLit(ctx, env, n.Lit)

	case *expr.App:
		h := Eval(ctx, env, n.Head)
		args := evalArgs(ctx, env, n.Args)
		return evalApp(ctx, env, h, args)

	case *expr.Abs:
		return evalAbs(ctx, env, n.Params, n.Body)

	case *expr.UncurriedApp:
		h := Eval(ctx, env, n.Head)
		args := evalArgs(ctx, env, n.Args)
		return applyUncurried(ctx, env, h, args, false)

	case *expr.UncurriedAbs:
		return &sem.MkFnVal{Kont: evalUncurriedAbs(ctx, env, n.Params, n.Body, false)}

	case *expr.UncurriedEffectApp:
		h := Eval(ctx, env, n.Head)
		args := evalArgs(ctx, env, n.Args)
		return applyUncurried(ctx, env, h, args, true)

	case *expr.UncurriedEffectAbs:
		return &sem.MkEffectFnVal{Kont: evalUncurriedAbs(ctx, env, n.Params, n.Body, true)}

	case *expr.Let:
		v := Eval(ctx, env, n.Binding)
		return &sem.Let{Id: n.Id, V: v, F: func(bound sem.Sem) sem.Sem {
			return Eval(ctx, env.WithLocal(bound), n.Body)
		}}

	case *expr.LetRec:
		return evalLetRec(ctx, env, n)

	case *expr.EffectBind:
		m := Eval(ctx, env.ClearTry(), n.M)
		return &sem.EffectBind{Id: n.Id, V: m, F: func(bound sem.Sem) sem.Sem {
			return Eval(ctx, env.WithLocal(bound), n.K)
		}}

	case *expr.EffectPure:
		return &sem.EffectPure{V: Eval(ctx, env.ClearTry(), n.V)}

	case *expr.Accessor:
		return evalAccessor(ctx, env, Eval(ctx, env.ClearTry(), n.E), n.Acc)

	case *expr.Update:
		return evalUpdate(ctx, env, n)

	case *expr.Branch:
		return evalBranches(ctx, env, n.Pairs, n.Default)

	case *expr.PrimOpUnary:
		return evalPrimOpUnary(ctx, env, n.Op, Eval(ctx, env.ClearTry(), n.Arg))

	case *expr.PrimOpBinary:
		return evalPrimOpBinary(ctx, env, n.Op,
			Eval(ctx, env.ClearTry(), n.Lhs), Eval(ctx, env.ClearTry(), n.Rhs))

	case *expr.Fail:
		return &sem.NeutFail{Msg: n.Msg}

	case *expr.CtorDef:
		q := ir.NewQualified(env.CurrentModule, ir.TagIdent(n.Tag))
		return &sem.NeutCtorDef{Q: q, CtorKind: n.CtorKind, TypeName: n.TypeName, Tag: n.Tag, Fields: n.Fields}

	case *expr.CtorSaturated:
		fields := make([]sem.NeutField, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = sem.NeutField{Field: f.Field, Value: Eval(ctx, env.ClearTry(), f.Value)}
		}
		return &sem.NeutData{Q: n.Q, CtorKind: n.CtorKind, TypeName: n.TypeName, Tag: n.Tag, Fields: fields}

	// Rewrite forms (§3, §4.2 "Rewrite forms")
	case *expr.RewriteInline:
		v := Eval(ctx, env, n.Binding)
		return Eval(ctx, env.WithLocal(v), n.Body)

	case *expr.RewriteLetAssoc:
		return evalRewriteLetAssoc(ctx, env, n.Bindings, n.Body)

	case *expr.RewriteStop:
		return &sem.NeutStop{Q: n.Q}
	}
	panic(&diag.ImpossiblePatternOpError{Decl: ctx.Decl, Op: "unrecognized expr node"})
}

func evalLocal(ctx Ctx, env *sem.Env, n *expr.Local) sem.Sem {
	idx := int(n.Level)
	if idx < 0 || idx >= len(env.Locals) {
		panic(&diag.UnboundLocalError{Decl: ctx.Decl, Level: n.Level, Id: idOf(n.Id)})
	}
	switch b := env.Locals[idx].(type) {
	case sem.OneLocal:
		return b.V
	case sem.GroupLocal:
		for _, bind := range b.Bindings {
			if n.Id != nil && bind.Id.Equal(*n.Id) {
				return bind.Bound.Force()
			}
		}
		if len(b.Bindings) == 1 {
			return b.Bindings[0].Bound.Force()
		}
		panic(&diag.UnboundLocalError{Decl: ctx.Decl, Level: n.Level, Id: idOf(n.Id)})
	default:
		panic(&diag.UnboundLocalError{Decl: ctx.Decl, Level: n.Level, Id: idOf(n.Id)})
	}
}

func idOf(id *ir.Ident) string {
	if id == nil {
		return ""
	}
	return id.Name()
}

func evalArgs(ctx Ctx, env *sem.Env, args []expr.Expr) []sem.Sem {
	out := make([]sem.Sem, len(args))
	for i, a := range args {
		out[i] = Eval(ctx, env.ClearTry(), a)
	}
	return out
}

func evalAbs(ctx Ctx, env *sem.Env, params []expr.Param, body expr.Expr) sem.Sem {
	if len(params) == 0 {
		return Eval(ctx, env, body)
	}
	p := params[0]
	rest := params[1:]
	return &sem.Lam{Id: p.Id, F: func(v sem.Sem) sem.Sem {
		return evalAbs(ctx, env.WithLocal(v), rest, body)
	}}
}

func evalUncurriedAbs(ctx Ctx, env *sem.Env, params []expr.Param, body expr.Expr, effectful bool) sem.MkFn {
	if len(params) == 0 {
		return &sem.MkFnApplied{V: Eval(ctx, env, body)}
	}
	p := params[0]
	rest := params[1:]
	return &sem.MkFnNext{Id: p.Id, K: func(v sem.Sem) sem.MkFn {
		return evalUncurriedAbs(ctx, env.WithLocal(v), rest, body, effectful)
	}}
}

func evalLetRec(ctx Ctx, env *sem.Env, n *expr.LetRec) sem.Sem {
	if len(n.Bindings) == 0 {
		panic(&diag.EmptyRecGroupError{Decl: ctx.Decl})
	}
	bindings := make([]sem.LetRecBinding, len(n.Bindings))
	var groupEnv *sem.Env
	for i, b := range n.Bindings {
		id := b.Id
		rhs := b.Expr
		bindings[i] = sem.LetRecBinding{Id: id, Bound: sem.NewThunk(func() sem.Sem {
			return Eval(ctx, groupEnv, rhs)
		})}
	}
	groupEnv = env.WithGroup(bindings)
	return &sem.LetRec{Group: bindings, F: func(vs []sem.Sem) sem.Sem {
		bodyEnv := env
		for _, v := range vs {
			bodyEnv = bodyEnv.WithLocal(v)
		}
		return Eval(ctx, bodyEnv, n.Body)
	}}
}

func evalRewriteLetAssoc(ctx Ctx, env *sem.Env, bindings []expr.AssocBinding, body expr.Expr) sem.Sem {
	if len(bindings) == 0 {
		return Eval(ctx, env, body)
	}
	b := bindings[0]
	rest := bindings[1:]
	v := Eval(ctx, env, b.Binding)
	return &sem.Let{Id: b.Id, V: v, F: func(bound sem.Sem) sem.Sem {
		return evalRewriteLetAssoc(ctx, env.WithLocal(bound), rest, body)
	}}
}
