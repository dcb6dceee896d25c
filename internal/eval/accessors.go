package eval

import (
	"sort"

	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/ir"
	"github.com/nbecore/optcore/internal/sem"
)

// evalAccessor reduces a field/index/offset projection (§4.2.2), pushing
// under any surrounding Let first so the accessor can see through shared
// bindings to the literal or extern it projects from.
func evalAccessor(ctx Ctx, env *sem.Env, e sem.Sem, acc ir.Accessor) sem.Sem {
	if l, ok := e.(*sem.Let); ok {
		return &sem.Let{Id: l.Id, V: l.V, F: func(v sem.Sem) sem.Sem {
			return evalAccessor(ctx, env, l.F(v), acc)
		}}
	}

	switch v := e.(type) {
	case *sem.Extern:
		return EvalExtern(ctx, env, v.Q, append(append([]sem.ExternSpineItem(nil), v.Spine...), sem.ExternAccessor{Acc: acc}))

	case *sem.NeutLit:
		switch lit := v.Value.(type) {
		case sem.LitRecord:
			if a, ok := acc.(ir.GetProp); ok {
				if val, found := lit.FieldByKey(a.Key); found {
					return val
				}
			}
		case sem.LitArray:
			if a, ok := acc.(ir.GetIndex); ok && a.N >= 0 && a.N < len(lit.Elems) {
				return lit.Elems[a.N]
			}
		}

	case *sem.NeutData:
		if a, ok := acc.(ir.GetOffset); ok && a.N >= 0 && a.N < len(v.Fields) {
			return v.Fields[a.N].Value
		}
	}

	return &sem.NeutAccessor{E: e, Acc: acc}
}

// evalUpdate reduces a functional record update (§4.2.3): when the target
// folds to a literal record, merge the update's properties in by key
// (later wins) and renormalize; otherwise the update stays stuck.
func evalUpdate(ctx Ctx, env *sem.Env, n *expr.Update) sem.Sem {
	base := Eval(ctx, env.ClearTry(), n.E)
	if l, ok := base.(*sem.Let); ok {
		return &sem.Let{Id: l.Id, V: l.V, F: func(v sem.Sem) sem.Sem {
			return evalUpdateOn(ctx, env, l.F(v), n.Props)
		}}
	}
	return evalUpdateOn(ctx, env, base, n.Props)
}

func evalUpdateOn(ctx Ctx, env *sem.Env, base sem.Sem, props []expr.UpdateField) sem.Sem {
	updates := make([]sem.RecordField, len(props))
	for i, p := range props {
		updates[i] = sem.RecordField{Key: p.Key, Value: Eval(ctx, env.ClearTry(), p.Value)}
	}

	if lit, ok := base.(*sem.NeutLit); ok {
		if rec, ok := lit.Value.(sem.LitRecord); ok {
			return &sem.NeutLit{Value: sem.LitRecord{Fields: mergeFields(rec.Fields, updates)}}
		}
	}

	neutProps := make([]sem.NeutUpdateField, len(updates))
	for i, u := range updates {
		neutProps[i] = sem.NeutUpdateField{Key: u.Key, Value: u.Value}
	}
	return &sem.NeutUpdate{E: base, Props: neutProps}
}

// mergeFields implements the "update" merge of §4.2.3 for already-evaluated
// record fields: later entries win at the same key, then the combined set
// is canonicalized by key, first occurrence per group.
func mergeFields(base, updates []sem.RecordField) []sem.RecordField {
	merged := make(map[string]sem.Sem, len(base)+len(updates))
	order := make([]string, 0, len(base)+len(updates))
	for _, f := range base {
		if _, ok := merged[f.Key]; !ok {
			order = append(order, f.Key)
		}
		merged[f.Key] = f.Value
	}
	for _, f := range updates {
		if _, ok := merged[f.Key]; !ok {
			order = append(order, f.Key)
		}
		merged[f.Key] = f.Value
	}
	sortedKeys := append([]string(nil), order...)
	sort.Strings(sortedKeys)
	out := make([]sem.RecordField, 0, len(sortedKeys))
	for _, k := range sortedKeys {
		out = append(out, sem.RecordField{Key: k, Value: merged[k]})
	}
	return out
}
