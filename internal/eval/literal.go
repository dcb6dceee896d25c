package eval

import (
	"github.com/nbecore/optcore/internal/diag"
	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/sem"
)

// evalLit interprets a literal's children, if any, producing the Sem-level
// mirror (§4.2, "literals"). Scalars pass through unchanged; array and
// record literals have their element/field Exprs evaluated eagerly, since
// by-need laziness is already provided by the enclosing Let/LetRec thunks
// that produced them.
func evalLit(ctx Ctx, env *sem.Env, l expr.Lit) sem.Sem {
	switch v := l.(type) {
	case expr.LitInt32:
		return &sem.NeutLit{Value: sem.LitInt32{Value: v.Value}}
	case expr.LitNumber:
		return &sem.NeutLit{Value: sem.LitNumber{Value: v.Value}}
	case expr.LitString:
		return &sem.NeutLit{Value: sem.LitString{Value: v.Value}}
	case expr.LitChar:
		return &sem.NeutLit{Value: sem.LitChar{Value: v.Value}}
	case expr.LitBool:
		return &sem.NeutLit{Value: sem.LitBool{Value: v.Value}}
	case expr.LitArray:
		elems := make([]sem.Sem, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = Eval(ctx, env.ClearTry(), e)
		}
		return &sem.NeutLit{Value: sem.LitArray{Elems: elems}}
	case expr.LitRecord:
		fields := make([]sem.RecordField, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = sem.RecordField{Key: f.Key, Value: Eval(ctx, env.ClearTry(), f.Value)}
		}
		return &sem.NeutLit{Value: sem.LitRecord{Fields: fields}}
	}
	panic(&diag.ImpossiblePatternOpError{Decl: ctx.Decl, Op: "unrecognized literal"})
}
