package driver

import (
	"github.com/nbecore/optcore/internal/ir"
	"github.com/nbecore/optcore/internal/sem"
)

// ForeignSemantics is the "foreignSemantics" collaborator of §6: a
// hand-coded evaluation hook for a primitive the optimizer must
// understand natively rather than discover from an Impl (e.g. Int.add
// variants, unsafeCoerce, runEffectFn). Returning false means "miss",
// falling through to the regular implementation lookup.
type ForeignSemantics func(env *sem.Env, q ir.Qualified, spine []sem.ExternSpineItem) (sem.Sem, bool)

// combineEvalExtern implements §6's "Called first; hits short-circuit
// regular impl lookup": a module's foreign-semantics table is consulted
// before the compiled-implementation lookup derived from earlier
// declarations.
func combineEvalExtern(foreign map[ir.Qualified]ForeignSemantics, fromImpl sem.EvalExternFn) sem.EvalExternFn {
	return func(env *sem.Env, q ir.Qualified, spine []sem.ExternSpineItem) (sem.Sem, bool) {
		if fn, ok := foreign[q]; ok {
			if v, ok := fn(env, q, spine); ok {
				return v, true
			}
		}
		if fromImpl != nil {
			return fromImpl(env, q, spine)
		}
		return nil, false
	}
}
