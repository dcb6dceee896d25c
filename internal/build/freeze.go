package build

import (
	"github.com/nbecore/optcore/internal/analysis"
	"github.com/nbecore/optcore/internal/expr"
)

// FreezeOptions controls the optional, off-by-default rewrites Freeze may
// apply while stripping a declaration's rewrite forms.
type FreezeOptions struct {
	// EnableEtaReduction reduces `\x -> f x` to `f` whenever x is exactly
	// the abstraction's own trailing parameters, in order, and f does not
	// itself mention them. Off by default: eta reduction changes a
	// closure's arity as observed by strictness in its captured
	// environment, which is only safe when nothing downstream depends on
	// partial-application identity (§9 Open Questions).
	EnableEtaReduction bool
}

// Freeze implements §4.6: it strips every remaining rewrite-form node
// (RewriteInline, RewriteLetAssoc, RewriteStop) out of e, replacing it
// with the plain syntactic form it stands for, and clears the rewrite bit
// throughout so the result is safe to hand to a codegen backend that has
// no notion of rewrite forms.
func Freeze(opts FreezeOptions, e expr.Expr) expr.Expr {
	switch n := e.(type) {
	case *expr.Var:
		return n
	case *expr.Local:
		return n

	case *expr.LitExpr:
		return &expr.LitExpr{Ann: analysis.ClearRewrite(n.Ann), Lit: freezeLit(opts, n.Lit)}

	case *expr.App:
		return &expr.App{Ann: analysis.ClearRewrite(n.Ann), Head: Freeze(opts, n.Head), Args: freezeAll(opts, n.Args)}

	case *expr.Abs:
		return freezeAbs(opts, n.Params, n.Body, n.Ann)

	case *expr.UncurriedApp:
		return &expr.UncurriedApp{Ann: analysis.ClearRewrite(n.Ann), Head: Freeze(opts, n.Head), Args: freezeAll(opts, n.Args)}
	case *expr.UncurriedEffectApp:
		return &expr.UncurriedEffectApp{Ann: analysis.ClearRewrite(n.Ann), Head: Freeze(opts, n.Head), Args: freezeAll(opts, n.Args)}
	case *expr.UncurriedAbs:
		return &expr.UncurriedAbs{Ann: analysis.ClearRewrite(n.Ann), Params: n.Params, Body: Freeze(opts, n.Body)}
	case *expr.UncurriedEffectAbs:
		return &expr.UncurriedEffectAbs{Ann: analysis.ClearRewrite(n.Ann), Params: n.Params, Body: Freeze(opts, n.Body)}

	case *expr.Let:
		return &expr.Let{Ann: analysis.ClearRewrite(n.Ann), Id: n.Id, Level: n.Level, Binding: Freeze(opts, n.Binding), Body: Freeze(opts, n.Body)}

	case *expr.LetRec:
		bindings := make([]expr.RecBinding, len(n.Bindings))
		for i, b := range n.Bindings {
			bindings[i] = expr.RecBinding{Id: b.Id, Expr: Freeze(opts, b.Expr)}
		}
		return &expr.LetRec{Ann: analysis.ClearRewrite(n.Ann), StartLevel: n.StartLevel, Bindings: bindings, Body: Freeze(opts, n.Body)}

	case *expr.EffectBind:
		return &expr.EffectBind{Ann: analysis.ClearRewrite(n.Ann), Id: n.Id, Level: n.Level, M: Freeze(opts, n.M), K: Freeze(opts, n.K)}
	case *expr.EffectPure:
		return &expr.EffectPure{Ann: analysis.ClearRewrite(n.Ann), V: Freeze(opts, n.V)}

	case *expr.Accessor:
		return &expr.Accessor{Ann: analysis.ClearRewrite(n.Ann), E: Freeze(opts, n.E), Acc: n.Acc}

	case *expr.Update:
		props := make([]expr.UpdateField, len(n.Props))
		for i, p := range n.Props {
			props[i] = expr.UpdateField{Key: p.Key, Value: Freeze(opts, p.Value)}
		}
		return &expr.Update{Ann: analysis.ClearRewrite(n.Ann), E: Freeze(opts, n.E), Props: props}

	case *expr.Branch:
		pairs := make([]expr.BranchPair, len(n.Pairs))
		for i, p := range n.Pairs {
			pairs[i] = expr.BranchPair{Guard: Freeze(opts, p.Guard), Body: Freeze(opts, p.Body)}
		}
		var def expr.Expr
		if n.Default != nil {
			def = Freeze(opts, n.Default)
		}
		return &expr.Branch{Ann: analysis.ClearRewrite(n.Ann), Pairs: pairs, Default: def}

	case *expr.PrimOpUnary:
		return &expr.PrimOpUnary{Ann: analysis.ClearRewrite(n.Ann), Op: n.Op, Arg: Freeze(opts, n.Arg)}
	case *expr.PrimOpBinary:
		return &expr.PrimOpBinary{Ann: analysis.ClearRewrite(n.Ann), Op: n.Op, Lhs: Freeze(opts, n.Lhs), Rhs: Freeze(opts, n.Rhs)}

	case *expr.Fail:
		return n

	case *expr.CtorDef:
		return n

	case *expr.CtorSaturated:
		fields := make([]expr.CtorFieldVal, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = expr.CtorFieldVal{Field: f.Field, Value: Freeze(opts, f.Value)}
		}
		return &expr.CtorSaturated{Ann: analysis.ClearRewrite(n.Ann), Q: n.Q, CtorKind: n.CtorKind, TypeName: n.TypeName, Tag: n.Tag, Fields: fields}

	// ---- Rewrite forms: the whole point of this pass ----

	case *expr.RewriteInline:
		binding := Freeze(opts, n.Binding)
		body := Freeze(opts, n.Body)
		return &expr.Let{Ann: analysis.ClearRewrite(n.Ann), Id: n.Id, Level: n.Level, Binding: binding, Body: body}

	case *expr.RewriteLetAssoc:
		return freezeLetAssoc(opts, n.Bindings, n.Body)

	case *expr.RewriteStop:
		return &expr.Var{Ann: analysis.ClearRewrite(n.Ann), Q: n.Q}
	}
	return e
}

func freezeAll(opts FreezeOptions, es []expr.Expr) []expr.Expr {
	out := make([]expr.Expr, len(es))
	for i, e := range es {
		out[i] = Freeze(opts, e)
	}
	return out
}

func freezeLit(opts FreezeOptions, l expr.Lit) expr.Lit {
	switch v := l.(type) {
	case expr.LitArray:
		return expr.LitArray{Elems: freezeAll(opts, v.Elems)}
	case expr.LitRecord:
		fields := make([]expr.RecordField, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = expr.RecordField{Key: f.Key, Value: Freeze(opts, f.Value)}
		}
		return expr.NewLitRecord(fields)
	default:
		return l
	}
}

// freezeLetAssoc turns a chain of associated bindings into a right-nested
// *expr.Let per binding (§4.6).
func freezeLetAssoc(opts FreezeOptions, bindings []expr.AssocBinding, body expr.Expr) expr.Expr {
	frozenBody := Freeze(opts, body)
	for i := len(bindings) - 1; i >= 0; i-- {
		b := bindings[i]
		binding := Freeze(opts, b.Binding)
		letAnn := analysis.Bound(b.Level, analysis.Seq(binding.Analysis(), frozenBody.Analysis()))
		frozenBody = &expr.Let{Ann: letAnn, Id: b.Id, Level: b.Level, Binding: binding, Body: frozenBody}
	}
	return frozenBody
}

// freezeAbs freezes an abstraction's body, then applies the gated eta rule
// when enabled: \x1..xn -> f x1 .. xn reduces to f exactly when f's own
// analysis shows no usage of any of the xi (so f cannot be one of them,
// nor close over them) and the application's argument list is precisely
// those parameters, in order.
func freezeAbs(opts FreezeOptions, params []expr.Param, body expr.Expr, ann analysis.Analysis) expr.Expr {
	frozenBody := Freeze(opts, body)
	if opts.EnableEtaReduction {
		if f, ok := etaReduce(params, frozenBody); ok {
			return f
		}
	}
	return &expr.Abs{Ann: analysis.ClearRewrite(ann), Params: params, Body: frozenBody}
}

func etaReduce(params []expr.Param, body expr.Expr) (expr.Expr, bool) {
	app, ok := body.(*expr.App)
	if !ok || len(app.Args) != len(params) {
		return nil, false
	}
	for i, p := range params {
		loc, ok := app.Args[i].(*expr.Local)
		if !ok || loc.Level != p.Level {
			return nil, false
		}
	}
	fAnn := app.Head.Analysis()
	for _, p := range params {
		if fAnn.UsageOf(p.Level).Count != 0 {
			return nil, false
		}
	}
	return app.Head, true
}
