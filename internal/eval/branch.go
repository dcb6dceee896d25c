package eval

import (
	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/sem"
)

// evalBranches reduces an ordered guarded expression (§4.2.4). Guards are
// forced left to right; a guard that folds to a literal boolean commits or
// drops its pair immediately, while an unresolved guard is kept and the
// walk continues. The committed body's continuation is handed the
// remaining (as yet unvisited) conditionals plus the default as its
// env.try, so nested conditionals inside that body see this branch's
// fallthrough as their own.
func evalBranches(ctx Ctx, env *sem.Env, pairs []expr.BranchPair, def expr.Expr) sem.Sem {
	conds := make([]*sem.Thunk[*sem.Cond], len(pairs))
	for i, p := range pairs {
		guardExpr, bodyExpr := p.Guard, p.Body
		conds[i] = sem.NewThunk(func() *sem.Cond {
			guard := Eval(ctx, env.ClearTry(), guardExpr)
			return &sem.Cond{Guard: guard, Kont: func(try *sem.Try) sem.Sem {
				return Eval(ctx, env.WithTry(try), bodyExpr)
			}}
		})
	}

	var defThunk *sem.Thunk[sem.Sem]
	hasDefault := def != nil
	if hasDefault {
		defExpr := def
		defThunk = sem.NewThunk(func() sem.Sem {
			return Eval(ctx, env, defExpr)
		})
	}

	pending := conds
	// §4.2/§9 "Branch continuation threading": a default-less Branch
	// adopts env.Try as its fallthrough, so a nested conditional inside a
	// committed branch's body chains into that branch's own remaining
	// conditionals and default instead of failing outright.
	if !hasDefault && env.Try != nil {
		pending = append(append([]*sem.Thunk[*sem.Cond](nil), conds...), env.Try.Remaining...)
		hasDefault = env.Try.HasDefault
		defThunk = env.Try.Default
	}

	return walkBranches(ctx, env, pending, hasDefault, defThunk)
}

func walkBranches(ctx Ctx, env *sem.Env, pending []*sem.Thunk[*sem.Cond], hasDefault bool, def *sem.Thunk[sem.Sem]) sem.Sem {
	acc := make([]*sem.Thunk[*sem.Cond], 0, len(pending))
	for i, ct := range pending {
		cond := ct.Force()
		lit, isLit := literalBool(cond.Guard)
		if !isLit {
			acc = append(acc, ct)
			continue
		}
		if !lit {
			continue
		}
		// Guard is literal True: if every conditional so far was resolved
		// (acc empty), it commits outright. If an earlier guard is still
		// stuck, this pair instead becomes the absorbing fallthrough for
		// whatever remains stuck so far, since a True constant reached at
		// runtime always matches and everything lexically after it is
		// therefore unreachable.
		try := &sem.Try{Remaining: pending[i+1:], HasDefault: hasDefault, Default: def}
		if len(acc) == 0 {
			return cond.Kont(try)
		}
		kont := cond.Kont
		return &sem.Branch{Conds: acc, HasDefault: true, Default: sem.NewThunk(func() sem.Sem {
			return kont(try)
		})}
	}

	if len(acc) > 0 {
		return &sem.Branch{Conds: acc, HasDefault: hasDefault, Default: def}
	}
	if hasDefault {
		return def.Force()
	}
	return &sem.NeutFail{Msg: "Failed pattern match"}
}

func literalBool(v sem.Sem) (bool, bool) {
	lit, ok := v.(*sem.NeutLit)
	if !ok {
		return false, false
	}
	b, ok := lit.Value.(sem.LitBool)
	if !ok {
		return false, false
	}
	return b.Value, true
}
