package quote

import (
	"github.com/nbecore/optcore/internal/build"
	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/sem"
)

// quoteBranch reconstructs a stuck conditional right-to-left, folding each
// guard/body pair against the already-quoted continuation via
// build.BuildBranchCond (rule 9) and build.BuildPair (rule 8) before
// falling back to build.Branch's own simplifyBranches pass (rule 6).
func quoteBranch(ctx Ctx, n *sem.Branch) expr.Expr {
	var def expr.Expr
	if n.HasDefault {
		def = Quote(ctx, n.Default.Force())
	}

	for i := len(n.Conds) - 1; i >= 0; i-- {
		cond := n.Conds[i].Force()
		try := &sem.Try{Remaining: n.Conds[i+1:], HasDefault: n.HasDefault, Default: n.Default}
		guard := Quote(ctx, cond.Guard)
		body := Quote(ctx, cond.Kont(try))

		if folded, ok := build.BuildBranchCond(guard, body, def); ok {
			def = folded
			continue
		}
		if g2, b2, ok := build.BuildPair(guard, body); ok {
			guard, body = g2, b2
		}
		def = build.Branch([]expr.BranchPair{{Guard: guard, Body: body}}, def)
	}

	return def
}
