package eval

import (
	"github.com/nbecore/optcore/internal/analysis"
	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/impl"
	"github.com/nbecore/optcore/internal/ir"
	"github.com/nbecore/optcore/internal/sem"
)

// EvalExtern dispatches a pending cross-declaration reference (§4.2.6).
// The InlineNever fast paths are checked before consulting env.EvalExtern
// at all, so a directive can veto inlining even for a declaration whose
// implementation has not been looked up yet.
func EvalExtern(ctx Ctx, env *sem.Env, q ir.Qualified, spine []sem.ExternSpineItem) sem.Sem {
	if len(spine) == 0 {
		if d, ok := env.DirectiveFor(ir.ExternRef(q)); ok && d.Kind == ir.DirectiveInlineNever {
			return &sem.NeutStop{Q: q}
		}
	} else if len(spine) == 1 {
		if accItem, ok := spine[0].(sem.ExternAccessor); ok {
			if d, ok := env.DirectiveFor(ir.ExternFieldRef(q, accItem.Acc)); ok && d.Kind == ir.DirectiveInlineNever {
				return evalAccessor(ctx, env, &sem.NeutStop{Q: q}, accItem.Acc)
			}
		}
	}

	if env.EvalExtern != nil {
		if v, ok := env.EvalExtern(env, q, spine); ok {
			return v
		}
	}

	spineCopy := append([]sem.ExternSpineItem(nil), spine...)
	return &sem.Extern{
		Q:     q,
		Spine: spine,
		Fallback: sem.NewThunk(func() sem.Sem {
			return neutralize(ctx, env, &sem.NeutVar{Q: q}, spineCopy)
		}),
	}
}

// neutralize replays spine on top of base using the same per-operation
// folding rules Eval already uses, which is safe here because base is
// always already maximally stuck (a NeutVar or NeutStop): none of those
// folding rules has a case that matches a bare neutral, so this simply
// builds the mechanical Neut* wrapper chain.
func neutralize(ctx Ctx, env *sem.Env, base sem.Sem, spine []sem.ExternSpineItem) sem.Sem {
	cur := base
	for _, item := range spine {
		switch it := item.(type) {
		case sem.ExternApp:
			cur = evalApp(ctx, env, cur, it.Args)
		case sem.ExternAccessor:
			cur = evalAccessor(ctx, env, cur, it.Acc)
		case sem.ExternPrimOp:
			cur = evalPrimOpUnary(ctx, env, it.Op, cur)
		}
	}
	return cur
}

// FromImplLookup builds the env.EvalExtern hook driven by a previously
// compiled declaration's (Analysis, Impl) pair — the default evalExtern
// policy once implementations are known (§4.2.6). The driver assigns the
// result to Env.EvalExtern once per declaration being optimized, closing
// over that declaration's Ctx for diagnostics.
func FromImplLookup(ctx Ctx, lookup impl.Lookup) sem.EvalExternFn {
	return func(env *sem.Env, q ir.Qualified, spine []sem.ExternSpineItem) (sem.Sem, bool) {
		entry, ok := lookup(q)
		if !ok {
			return nil, false
		}
		dir, hasDir := env.DirectiveFor(ir.ExternRef(q))
		return evalExternFromImpl(ctx, env, q, entry, dir, hasDir, spine)
	}
}

func evalExternFromImpl(ctx Ctx, env *sem.Env, q ir.Qualified, entry impl.Entry, dir ir.Directive, hasDir bool, spine []sem.ExternSpineItem) (sem.Sem, bool) {
	switch im := entry.Impl.(type) {
	case impl.ImplCtor:
		return evalExternCtor(q, im, spine)
	case impl.ImplExpr:
		return evalExternExpr(ctx, env, im.Group, entry.Ann, im.Neutral, dir, hasDir, spine)
	case impl.ImplRec:
		return evalExternExpr(ctx, env, im.Group, entry.Ann, im.Neutral, dir, hasDir, spine)
	case impl.ImplDict:
		return evalExternDict(ctx, env, q, im, spine)
	}
	return nil, false
}

func evalExternCtor(q ir.Qualified, im impl.ImplCtor, spine []sem.ExternSpineItem) (sem.Sem, bool) {
	if len(spine) == 0 {
		return &sem.NeutData{Q: q, CtorKind: im.CtorKind, TypeName: im.TypeName, Tag: im.Tag}, true
	}
	if len(spine) == 1 {
		if app, ok := spine[0].(sem.ExternApp); ok && len(app.Args) == len(im.Fields) {
			fields := make([]sem.NeutField, len(im.Fields))
			for i, f := range im.Fields {
				fields[i] = sem.NeutField{Field: f, Value: app.Args[i]}
			}
			return &sem.NeutData{Q: q, CtorKind: im.CtorKind, TypeName: im.TypeName, Tag: im.Tag, Fields: fields}, true
		}
	}
	return nil, false
}

func evalExternExpr(ctx Ctx, env *sem.Env, group []ir.Qualified, ann analysis.Analysis, neutral expr.Expr, dir ir.Directive, hasDir bool, spine []sem.ExternSpineItem) (sem.Sem, bool) {
	stopped := addStop(ctx, env, group)

	switch len(spine) {
	case 0:
		if v, ok := neutral.(*expr.Var); ok {
			return Eval(ctx, stopped, v), true
		}
		if lit, ok := neutral.(*expr.LitExpr); ok && shouldInlineExternLiteral(ann, dir, hasDir) {
			return Eval(ctx, stopped, lit), true
		}
		return nil, false

	case 1:
		if app, ok := spine[0].(sem.ExternApp); ok && shouldInlineExternApp(ann, dir, hasDir) {
			base := Eval(ctx, stopped, neutral)
			return evalApp(ctx, env, base, app.Args), true
		}
		return nil, false
	}
	return nil, false
}

func evalExternDict(ctx Ctx, env *sem.Env, q ir.Qualified, dict impl.ImplDict, spine []sem.ExternSpineItem) (sem.Sem, bool) {
	switch len(spine) {
	case 1:
		acc, ok := spine[0].(sem.ExternAccessor)
		if !ok {
			return nil, false
		}
		prop, ok := acc.Acc.(ir.GetProp)
		if !ok {
			return nil, false
		}
		field, found := dict.DictFieldByProp(prop.Key)
		if !found {
			return nil, false
		}
		dir, hasDir := env.DirectiveFor(ir.ExternFieldRef(q, acc.Acc))
		if !shouldInlineExternAccessor(field.Ann, dir, hasDir) {
			return nil, false
		}
		stopped := addStop(ctx, env, dict.Group)
		return Eval(ctx, stopped, field.Neutral), true

	case 2:
		acc, ok1 := spine[0].(sem.ExternAccessor)
		app, ok2 := spine[1].(sem.ExternApp)
		if !ok1 || !ok2 {
			return nil, false
		}
		prop, ok := acc.Acc.(ir.GetProp)
		if !ok {
			return nil, false
		}
		field, found := dict.DictFieldByProp(prop.Key)
		if !found {
			return nil, false
		}
		dir, hasDir := env.DirectiveFor(ir.ExternFieldRef(q, acc.Acc))
		if !shouldInlineExternApp(field.Ann, dir, hasDir) {
			return nil, false
		}
		stopped := addStop(ctx, env, dict.Group)
		base := Eval(ctx, stopped, field.Neutral)
		return evalApp(ctx, env, base, app.Args), true
	}
	return nil, false
}

// addStop returns env with any extern lookup against a member of group
// short-circuited to NeutStop before falling through to the real lookup,
// preventing mutual recursion through a dictionary while evaluating one
// of its own fields (§4.2.6).
func addStop(ctx Ctx, env *sem.Env, group []ir.Qualified) *sem.Env {
	if len(group) == 0 {
		return env
	}
	inner := env.EvalExtern
	next := *env
	next.EvalExtern = func(e *sem.Env, q ir.Qualified, spine []sem.ExternSpineItem) (sem.Sem, bool) {
		if impl.InGroup(group, q) {
			return neutralize(ctx, e, &sem.NeutStop{Q: q}, spine), true
		}
		if inner != nil {
			return inner(e, q, spine)
		}
		return nil, false
	}
	return &next
}

// shouldInlineExternLiteral decides whether a bare-literal implementation
// inlines at a use site with no spine (§4.2.6). Literals are always cheap
// to duplicate, so only an explicit veto stops them — a directive override
// is checked by the caller before this is ever reached, so absence of a
// directive is always a yes.
func shouldInlineExternLiteral(ann analysis.Analysis, dir ir.Directive, hasDir bool) bool {
	if hasDir && dir.Kind == ir.DirectiveInlineAlways {
		return true
	}
	return true
}

// shouldInlineExternApp decides whether an implementation applied to a
// saturated spine of arguments inlines (§4.2.6), mirroring the size/
// complexity threshold shouldInlineLet (§4.4) uses for the analogous
// decision on local bindings.
func shouldInlineExternApp(ann analysis.Analysis, dir ir.Directive, hasDir bool) bool {
	if hasDir {
		switch dir.Kind {
		case ir.DirectiveInlineAlways, ir.DirectiveInlineArity:
			return true
		case ir.DirectiveInlineNever:
			return false
		}
	}
	return ann.Complexity <= analysis.Deref && ann.Size < 5
}

// shouldInlineExternAccessor decides whether a dictionary field access
// with no trailing application inlines (§4.2.6); a field projection is
// cheaper to duplicate than a full application, so the threshold is one
// complexity tier more permissive than shouldInlineExternApp.
func shouldInlineExternAccessor(ann analysis.Analysis, dir ir.Directive, hasDir bool) bool {
	if hasDir {
		switch dir.Kind {
		case ir.DirectiveInlineAlways, ir.DirectiveInlineArity:
			return true
		case ir.DirectiveInlineNever:
			return false
		}
	}
	return ann.Complexity <= analysis.KnownSize
}
