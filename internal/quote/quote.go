// Package quote implements Quote (§4.3): reifying a semantic value back
// into build IR by entering every closure with a fresh neutral local and
// walking the result. Every syntactic node produced here is built through
// internal/build's smart constructors, so the rewrite rules of §4.4 apply
// uniformly whether a node came from source-level Convert or from
// quoting an evaluated value.
package quote

import (
	"github.com/nbecore/optcore/internal/analysis"
	"github.com/nbecore/optcore/internal/build"
	"github.com/nbecore/optcore/internal/diag"
	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/ir"
	"github.com/nbecore/optcore/internal/sem"
)

// Ctx carries the level cursor (the next level Quote is free to allocate)
// plus a pointer-identity memo. The memo maps an already-forced Sem value
// to the Expr Quote decided it reifies to; it is what lets a LetRec
// binding referenced from two call sites quote to a single Local
// reference instead of being duplicated at every use (§9 "Quote sharing").
type Ctx struct {
	Level         ir.Level
	Decl          ir.Qualified
	CurrentModule ir.ModuleName
	Memo          map[sem.Sem]expr.Expr
}

// NewCtx starts a fresh quoting pass for one declaration at startLevel
// (the number of parameters already bound by the declaration's own
// signature, 0 for a nullary declaration).
func NewCtx(decl ir.Qualified, mod ir.ModuleName, startLevel ir.Level) Ctx {
	return Ctx{Level: startLevel, Decl: decl, CurrentModule: mod, Memo: map[sem.Sem]expr.Expr{}}
}

func (c Ctx) fresh() (ir.Level, Ctx) {
	lvl := c.Level
	next := c
	next.Level = lvl + 1
	return lvl, next
}

// Quote reifies v into build IR, consulting the sharing memo first.
func Quote(ctx Ctx, v sem.Sem) expr.Expr {
	if e, ok := ctx.Memo[v]; ok {
		return e
	}
	return quoteNode(ctx, v)
}

func quoteArgs(ctx Ctx, args []sem.Sem) []expr.Expr {
	out := make([]expr.Expr, len(args))
	for i, a := range args {
		out[i] = Quote(ctx, a)
	}
	return out
}

func moduleOf(ctx Ctx, q ir.Qualified) ir.ModuleName {
	if q.HasModule {
		return q.Module
	}
	return ctx.CurrentModule
}

func quoteNode(ctx Ctx, v sem.Sem) expr.Expr {
	switch n := v.(type) {
	case *sem.Lam:
		lvl, next := ctx.fresh()
		arg := &sem.NeutLocal{Id: n.Id, Level: lvl}
		body := Quote(next, n.F(arg))
		return build.Abs([]expr.Param{{Id: n.Id, Level: lvl}}, body)

	case *sem.MkFnVal:
		params, applied, after := quoteMkFn(ctx, n.Kont)
		return build.UncurriedAbs(params, Quote(after, applied))

	case *sem.MkEffectFnVal:
		params, applied, after := quoteMkFn(ctx, n.Kont)
		return build.UncurriedEffectAbs(params, Quote(after, applied))

	case *sem.Let:
		binding := Quote(ctx, n.V)
		lvl, next := ctx.fresh()
		arg := &sem.NeutLocal{Id: n.Id, Level: lvl}
		body := Quote(next, n.F(arg))
		return build.Let(n.Id, lvl, binding, body)

	case *sem.LetRec:
		return quoteLetRec(ctx, n)

	case *sem.EffectBind:
		m := Quote(ctx, n.V)
		lvl, next := ctx.fresh()
		arg := &sem.NeutLocal{Id: n.Id, Level: lvl}
		k := Quote(next, n.F(arg))
		return build.EffectBind(n.Id, lvl, m, k)

	case *sem.EffectPure:
		return build.EffectPure(Quote(ctx, n.V))

	case *sem.Branch:
		return quoteBranch(ctx, n)

	case *sem.Extern:
		return Quote(ctx, n.Fallback.Force())

	case *sem.NeutLocal:
		return build.Local(n.Id, n.Level)

	case *sem.NeutVar:
		return build.Var(n.Q, moduleOf(ctx, n.Q))

	case *sem.NeutStop:
		return build.RewriteStop(n.Q, moduleOf(ctx, n.Q))

	case *sem.NeutData:
		// A nullary constructor (no fields) quotes as a bare Var, not a
		// saturated-ctor node with an empty field list.
		if len(n.Fields) == 0 {
			return build.Var(n.Q, moduleOf(ctx, n.Q))
		}
		fields := make([]expr.CtorFieldVal, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = expr.CtorFieldVal{Field: f.Field, Value: Quote(ctx, f.Value)}
		}
		return build.CtorSaturated(n.Q, n.CtorKind, n.TypeName, n.Tag, fields)

	case *sem.NeutCtorDef:
		return build.CtorDef(n.CtorKind, n.TypeName, n.Tag, n.Fields)

	case *sem.NeutApp:
		return build.App(Quote(ctx, n.Head), quoteArgs(ctx, n.Args))

	case *sem.NeutUncurriedApp:
		return build.UncurriedApp(Quote(ctx, n.Head), quoteArgs(ctx, n.Args))

	case *sem.NeutUncurriedEffectApp:
		return build.UncurriedEffectApp(Quote(ctx, n.Head), quoteArgs(ctx, n.Args))

	case *sem.NeutAccessor:
		return build.Accessor(Quote(ctx, n.E), n.Acc)

	case *sem.NeutUpdate:
		props := make([]expr.UpdateField, len(n.Props))
		for i, p := range n.Props {
			props[i] = expr.UpdateField{Key: p.Key, Value: Quote(ctx, p.Value)}
		}
		return build.Update(Quote(ctx, n.E), props)

	case *sem.NeutLit:
		return quoteLiteral(ctx, n.Value)

	case *sem.NeutPrimOpUnary:
		return build.PrimOpUnary(n.Op, Quote(ctx, n.Arg))

	case *sem.NeutPrimOpBinary:
		return build.PrimOpBinary(n.Op, Quote(ctx, n.Lhs), Quote(ctx, n.Rhs))

	case *sem.NeutFail:
		return build.Fail(ctx.Decl, n.Msg)
	}
	panic(&diag.ImpossiblePatternOpError{Decl: ctx.Decl, Op: "unrecognized semantic value"})
}

// quoteMkFn walks an uncurried-interop closure chain (§4.2.7), allocating
// one fresh level per collected argument.
func quoteMkFn(ctx Ctx, k sem.MkFn) ([]expr.Param, sem.Sem, Ctx) {
	var params []expr.Param
	for {
		switch n := k.(type) {
		case *sem.MkFnNext:
			lvl, next := ctx.fresh()
			arg := &sem.NeutLocal{Id: n.Id, Level: lvl}
			params = append(params, expr.Param{Id: n.Id, Level: lvl})
			ctx = next
			k = n.K(arg)
		case *sem.MkFnApplied:
			return params, n.V, ctx
		default:
			panic(&diag.ImpossiblePatternOpError{Decl: ctx.Decl, Op: "unreachable MkFn variant"})
		}
	}
}

// quoteLetRec reconstructs a recursive binding group, registering each
// binding's forced identity in the sharing memo before descending into any
// of the bodies so that self- and mutual-recursive references quote back
// to a Local rather than being duplicated inline (§9 "Quote sharing").
func quoteLetRec(ctx Ctx, n *sem.LetRec) expr.Expr {
	start := ctx.Level
	count := ir.Level(len(n.Group))
	placeholders := make([]expr.Expr, len(n.Group))
	forced := make([]sem.Sem, len(n.Group))
	for i, b := range n.Group {
		lvl := start + ir.Level(i)
		id := b.Id
		placeholders[i] = build.Local(&id, lvl)
		forced[i] = b.Bound.Force()
		if _, ok := ctx.Memo[forced[i]]; !ok {
			ctx.Memo[forced[i]] = placeholders[i]
		}
	}

	bodyCtx := ctx
	bodyCtx.Level = start + count

	bindings := make([]expr.RecBinding, len(n.Group))
	for i, b := range n.Group {
		bindings[i] = expr.RecBinding{Id: b.Id, Expr: quoteNode(bodyCtx, forced[i])}
	}

	body := Quote(bodyCtx, n.F(forced))
	return build.LetRec(start, bindings, body)
}

func quoteLiteral(ctx Ctx, lit sem.Literal) expr.Expr {
	switch v := lit.(type) {
	case sem.LitInt32:
		return build.Lit(expr.LitInt32{Value: v.Value}, nil)
	case sem.LitNumber:
		return build.Lit(expr.LitNumber{Value: v.Value}, nil)
	case sem.LitString:
		return build.Lit(expr.LitString{Value: v.Value}, nil)
	case sem.LitChar:
		return build.Lit(expr.LitChar{Value: v.Value}, nil)
	case sem.LitBool:
		return build.Lit(expr.LitBool{Value: v.Value}, nil)
	case sem.LitArray:
		elems := make([]expr.Expr, len(v.Elems))
		childSeq := make([]analysis.Analysis, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = Quote(ctx, e)
			childSeq[i] = elems[i].Analysis()
		}
		return build.Lit(expr.LitArray{Elems: elems}, childSeq)
	case sem.LitRecord:
		fields := make([]expr.RecordField, len(v.Fields))
		childSeq := make([]analysis.Analysis, len(v.Fields))
		for i, f := range v.Fields {
			val := Quote(ctx, f.Value)
			fields[i] = expr.RecordField{Key: f.Key, Value: val}
			childSeq[i] = val.Analysis()
		}
		return build.Lit(expr.NewLitRecord(fields), childSeq)
	}
	panic(&diag.ImpossiblePatternOpError{Decl: ctx.Decl, Op: "unrecognized semantic literal"})
}
