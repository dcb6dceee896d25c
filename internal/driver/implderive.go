package driver

import (
	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/impl"
	"github.com/nbecore/optcore/internal/ir"
)

// deriveImpl implements §4.8 Impl derivation from a declaration's
// frozen, rewrite-free body.
func deriveImpl(group []ir.Qualified, frozen expr.Expr) impl.Entry {
	ann := frozen.Analysis()

	if lit, ok := frozen.(*expr.LitExpr); ok {
		if rec, ok := lit.Lit.(expr.LitRecord); ok {
			fields := make([]impl.DictField, len(rec.Fields))
			for i, f := range rec.Fields {
				fields[i] = impl.DictField{Prop: f.Key, Ann: f.Value.Analysis(), Neutral: f.Value}
			}
			return impl.Entry{Ann: ann, Impl: impl.ImplDict{Group: group, Fields: fields}}
		}
	}

	if def, ok := frozen.(*expr.CtorDef); ok {
		return impl.Entry{Ann: ann, Impl: impl.ImplCtor{
			CtorKind: def.CtorKind, TypeName: def.TypeName, Tag: def.Tag, Fields: def.Fields,
		}}
	}

	if len(group) > 0 {
		return impl.Entry{Ann: ann, Impl: impl.ImplRec{Group: group, Neutral: frozen}}
	}
	return impl.Entry{Ann: ann, Impl: impl.ImplExpr{Group: group, Neutral: frozen}}
}

// arityPropagation implements §4.8's addendum: when frozen is
// App(Var q, args) and q carries an InlineArity n directive with
// k = len(args) < n, decl self-publishes InlineArity(n-k), so a caller
// of decl two hops removed from q can still see through the partial
// application.
func arityPropagation(decl ir.Qualified, frozen expr.Expr, directiveFor func(ir.EvalRef) (ir.Directive, bool)) (ir.EvalRef, ir.Directive, bool) {
	app, ok := frozen.(*expr.App)
	if !ok {
		return ir.EvalRef{}, ir.Directive{}, false
	}
	v, ok := app.Head.(*expr.Var)
	if !ok {
		return ir.EvalRef{}, ir.Directive{}, false
	}
	dir, hasDir := directiveFor(ir.ExternRef(v.Q))
	if !hasDir || dir.Kind != ir.DirectiveInlineArity {
		return ir.EvalRef{}, ir.Directive{}, false
	}
	k := len(app.Args)
	if k >= dir.Arity {
		return ir.EvalRef{}, ir.Directive{}, false
	}
	return ir.ExternRef(decl), ir.InlineArity(dir.Arity - k), true
}
