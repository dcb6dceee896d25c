// Package optimize drives the evaluate/quote/build fixpoint of §4.5: it
// is the one place Eval's and Quote's panics are recovered into ordinary
// Go errors, mirroring the teacher's own VM loop, which recovers a
// panicking step() at the call boundary of Run rather than threading
// (value, error) through every instruction handler
// (internal/vm/vm.go).
package optimize

import (
	"fmt"

	"github.com/nbecore/optcore/internal/build"
	"github.com/nbecore/optcore/internal/config"
	"github.com/nbecore/optcore/internal/diag"
	"github.com/nbecore/optcore/internal/eval"
	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/ir"
	"github.com/nbecore/optcore/internal/quote"
	"github.com/nbecore/optcore/internal/sem"
)

// Options configures one declaration's optimize pass (§6 "Options").
type Options struct {
	RewriteLimit       int
	IntOverflow        eval.OverflowMode
	EnableEtaReduction bool

	// Trace, if non-nil, is called once per evaluate/quote iteration
	// with the iteration number and whether the quoted result still
	// carries a pending rewrite bit, letting a caller (internal/driver)
	// print one line per iteration without this package knowing
	// anything about io.Writer or terminal coloring.
	Trace func(iteration int, rewritePending bool)
}

func (o Options) limit() int {
	if o.RewriteLimit > 0 {
		return o.RewriteLimit
	}
	return config.DefaultRewriteLimit
}

// Optimize runs e's evaluate/quote fixpoint to completion under env,
// then freezes the result (§4.6). It recovers any *diag.* panic raised
// by Eval or Quote and reports it as an ordinary error naming decl.
func Optimize(decl ir.Qualified, env *sem.Env, e expr.Expr, opts Options) (result expr.Expr, err error) {
	defer func() {
		if r := recover(); r != nil {
			if de, ok := r.(error); ok {
				err = de
				return
			}
			panic(r)
		}
	}()
	return optimizeLoop(decl, env, e, opts)
}

func optimizeLoop(decl ir.Qualified, env *sem.Env, e expr.Expr, opts Options) (expr.Expr, error) {
	ctx := eval.Ctx{Decl: decl, IntOverflow: opts.IntOverflow}
	limit := opts.limit()
	freezeOpts := build.FreezeOptions{EnableEtaReduction: opts.EnableEtaReduction}

	cur := e
	history := make([]string, 0, config.TraceHistorySize)
	for i := 1; i <= limit; i++ {
		v := eval.Eval(ctx, env, cur)
		qc := quote.NewCtx(decl, env.CurrentModule, env.NextLevel())
		next := quote.Quote(qc, v)
		pending := next.Analysis().Rewrite

		if opts.Trace != nil {
			opts.Trace(i, pending)
		}

		if !pending {
			return build.Freeze(freezeOpts, next), nil
		}

		history = append(history, describeSite(i, next))
		if len(history) > config.TraceHistorySize {
			history = history[len(history)-config.TraceHistorySize:]
		}
		cur = next
	}

	return nil, &diag.RewriteLimitExceededError{Decl: decl, Limit: limit, Iteration: limit, History: history}
}

// describeSite gives a short, human-readable label for an iteration's
// result, enough to roughly locate an oscillating rewrite without walking
// the whole tree: the root node's shape plus its aggregate size.
func describeSite(iteration int, e expr.Expr) string {
	return fmt.Sprintf("iter %d: %T (size=%d)", iteration, e, e.Analysis().Size)
}
