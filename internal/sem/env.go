package sem

import "github.com/nbecore/optcore/internal/ir"

// LocalBinding is one entry of env.locals (§3): either a single bound
// value, or a thunked recursive group searched by identifier.
type LocalBinding interface {
	localNode()
}

type OneLocal struct{ V Sem }
type GroupLocal struct{ Bindings []LetRecBinding }

func (OneLocal) localNode()   {}
func (GroupLocal) localNode() {}

// EvalExternFn is env.evalExtern (§3): dispatches a pending extern
// reference to foreign semantics then to cached implementations. The
// bool result is the "Maybe": false means "miss", matching evalExtern's
// contract of returning Extern-with-fallback on miss (§4.2.6).
type EvalExternFn func(env *Env, q ir.Qualified, spine []ExternSpineItem) (Sem, bool)

// Env is threaded explicitly through Eval (§3, §5 "no shared mutable
// state beyond the driver's accumulator"). Env values are never mutated
// in place; With* methods return a shallow-extended copy, so sharing one
// Env across sibling evaluations (e.g. branch arms) is always safe.
type Env struct {
	CurrentModule ir.ModuleName
	EvalExtern    EvalExternFn
	Locals        []LocalBinding
	Directives    map[ir.EvalRef]ir.Directive
	Try           *Try
}

// WithLocal returns env extended with one more local binding at the next
// level (append-only: locals are indexed directly by level).
func (env *Env) WithLocal(v Sem) *Env {
	next := *env
	next.Locals = append(append([]LocalBinding(nil), env.Locals...), OneLocal{V: v})
	return &next
}

// WithGroup returns env extended with a thunked recursive group at the
// next level.
func (env *Env) WithGroup(bindings []LetRecBinding) *Env {
	next := *env
	next.Locals = append(append([]LocalBinding(nil), env.Locals...), GroupLocal{Bindings: bindings})
	return &next
}

// WithTry returns env with its pending else-tail replaced, precisely the
// operation §9's "Branch continuation threading" requires callers to
// perform exactly on evaluation of a committed branch's continuation.
func (env *Env) WithTry(t *Try) *Env {
	next := *env
	next.Try = t
	return &next
}

// ClearTry returns env with no pending else-tail, used whenever a
// sub-evaluation is not itself a continuation of a branch pair.
func (env *Env) ClearTry() *Env {
	return env.WithTry(nil)
}

// DirectiveFor looks up a directive for ref, if one is in scope.
func (env *Env) DirectiveFor(ref ir.EvalRef) (ir.Directive, bool) {
	if env.Directives == nil {
		return ir.Directive{}, false
	}
	d, ok := env.Directives[ref]
	return d, ok
}

// NextLevel is the level that a new local pushed via WithLocal/WithGroup
// will occupy: locals are dense and level-indexed, so it is simply the
// current length.
func (env *Env) NextLevel() ir.Level {
	return ir.Level(len(env.Locals))
}
