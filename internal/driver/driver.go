// Package driver implements the cross-module fold of §4.7 plus Impl
// derivation (§4.8) and the external interfaces of §6: it is the one
// place that threads implementations, directives and a module index
// across a topologically sorted module list, compiling each module's
// declarations to fixpoint via internal/optimize and publishing their
// Impl shapes for the modules after it. Errors raised by the
// declarations it compiles are wrapped with module/declaration context
// the same way the teacher's pipeline threads structured errors up
// through pipeline.PipelineContext, so a caller can still errors.As
// down to the concrete *diag.* kind.
package driver

import (
	"fmt"
	"io"

	"github.com/nbecore/optcore/internal/convert"
	"github.com/nbecore/optcore/internal/eval"
	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/impl"
	"github.com/nbecore/optcore/internal/ir"
	"github.com/nbecore/optcore/internal/optimize"
	"github.com/nbecore/optcore/internal/sem"
)

// ForeignSemantics is declared in foreign.go; PrepareHook is
// onPrepareModule (§4.7 step 1): a chance to rewrite a
// module before Convert sees it (e.g. injecting synthetic bindings).
type PrepareHook func(convert.SourceModule) (convert.SourceModule, error)

// CodegenHook is onCodegenModule (§4.7 step 3): receives one module's
// compiled Output, with this module's own contribution already present
// in Output.Implementations alongside everything carried in from
// earlier modules.
type CodegenHook func(Output) error

// Options configures one driver Run (§6 "Configuration flags", §4.2.5
// IntOverflow, §9 EnableEtaReduction).
type Options struct {
	RewriteLimit       int
	IntOverflow        eval.OverflowMode
	EnableEtaReduction bool

	ForeignSemantics map[ir.Qualified]ForeignSemantics

	OnPrepareModule PrepareHook
	OnCodegenModule CodegenHook

	// Trace, if non-nil, receives one line per optimize-fixpoint
	// iteration per declaration (declaration name, iteration count,
	// whether a rewrite bit was still set), mirroring the teacher's
	// Evaluator.Out field.
	Trace io.Writer
}

func (o Options) optimizeOptions(decl ir.Qualified) optimize.Options {
	opts := optimize.Options{
		RewriteLimit:       o.RewriteLimit,
		IntOverflow:        o.IntOverflow,
		EnableEtaReduction: o.EnableEtaReduction,
	}
	if o.Trace != nil {
		opts.Trace = func(iteration int, pending bool) {
			fmt.Fprintf(o.Trace, "optcore: %s iter=%d rewrite=%v\n", decl, iteration, pending)
		}
	}
	return opts
}

// State is the accumulator threaded across the module fold (§4.7):
// `{ directives, implementations, moduleIndex }`.
type State struct {
	Directives      map[ir.EvalRef]ir.Directive
	Implementations map[ir.Qualified]impl.Entry
	ModuleIndex     int
}

// NewState returns an empty accumulator, the starting point of a fresh
// driver Run.
func NewState() State {
	return State{
		Directives:      map[ir.EvalRef]ir.Directive{},
		Implementations: map[ir.Qualified]impl.Entry{},
	}
}

// Binding is one compiled top-level declaration (§6 Output "bindings").
type Binding struct {
	Id   ir.Ident
	Q    ir.Qualified
	Expr expr.Expr
}

// Output is one module's compiled result (§6 "Output per module").
type Output struct {
	Module          convert.BackendModule
	Bindings        []Binding
	Implementations map[ir.Qualified]impl.Entry
}

// Run folds modules left to right (§4.7), compiling every declaration
// of every module to fixpoint and threading State across module
// boundaries. modules must already be topologically sorted by import;
// sorting them is, per §1, an external collaborator's job.
func Run(modules []convert.SourceModule, opts Options) ([]Output, State, error) {
	state := NewState()
	outputs := make([]Output, 0, len(modules))

	for _, m := range modules {
		if opts.OnPrepareModule != nil {
			prepared, err := opts.OnPrepareModule(m)
			if err != nil {
				return outputs, state, fmt.Errorf("optcore: preparing module %s: %w", m.Name, err)
			}
			m = prepared
		}

		bm, err := convert.Convert(m)
		if err != nil {
			return outputs, state, err
		}

		out, err := compileModule(bm, &state, opts)
		if err != nil {
			return outputs, state, fmt.Errorf("optcore: compiling module %s: %w", bm.Name, err)
		}

		if opts.OnCodegenModule != nil {
			if err := opts.OnCodegenModule(out); err != nil {
				return outputs, state, fmt.Errorf("optcore: codegen for module %s: %w", bm.Name, err)
			}
		}

		for ref, d := range bm.Directives.Exports {
			state.Directives[ref] = d
		}
		for q, e := range out.Implementations {
			state.Implementations[q] = e
		}
		state.ModuleIndex++
		outputs = append(outputs, out)
	}

	return outputs, state, nil
}

// compileModule implements §4.7 step 2: translate m's bind groups,
// compiling each binding in declaration order against a growing,
// module-local copy of the carried implementations so later bindings in
// the same module (and later modules) can see earlier ones. Within a
// recursive group, a later sibling sees an earlier one (inlined with
// references to the whole group stopped, see eval's addStop), while an
// earlier sibling cannot see a later one, which stays an unresolved Var
// reference.
func compileModule(bm convert.BackendModule, state *State, opts Options) (Output, error) {
	moduleImpls := make(map[ir.Qualified]impl.Entry, len(state.Implementations))
	for q, e := range state.Implementations {
		moduleImpls[q] = e
	}

	directives := make(map[ir.EvalRef]ir.Directive, len(state.Directives)+len(bm.Directives.Locals))
	for ref, d := range state.Directives {
		directives[ref] = d
	}
	for ref, d := range bm.Directives.Locals {
		directives[ref] = d
	}

	var bindings []Binding
	for _, g := range bm.Groups {
		var group []ir.Qualified
		if g.Recursive {
			group = make([]ir.Qualified, len(g.Bindings))
			for i, b := range g.Bindings {
				group[i] = qualify(bm.Name, b.Id)
			}
		}

		for _, b := range g.Bindings {
			q := qualify(bm.Name, b.Id)
			entry, frozen, err := compileBinding(bm.Name, q, group, b.Expr, moduleImpls, directives, opts)
			if err != nil {
				return Output{}, fmt.Errorf("declaration %s: %w", q, err)
			}
			moduleImpls[q] = entry
			directiveFor := func(r ir.EvalRef) (ir.Directive, bool) { d, ok := directives[r]; return d, ok }
			if ref, dir, ok := arityPropagation(q, frozen, directiveFor); ok {
				state.Directives[ref] = dir
			}
			bindings = append(bindings, Binding{Id: b.Id, Q: q, Expr: frozen})
		}
	}

	return Output{Module: bm, Bindings: bindings, Implementations: moduleImpls}, nil
}

// qualify addresses a top-level declaration by name rather than by the
// front end's Ident identity: a cross-module *expr.Var reference or a
// directive-comment ref can only ever name a declaration by its
// spelling, never by the counter-backed identity NewIdent mints, so
// every Qualified this package constructs for a declaration (as opposed
// to a true lexical local) must route through ir.GlobalIdent.
func qualify(mod ir.ModuleName, id ir.Ident) ir.Qualified {
	return ir.NewQualified(mod, ir.GlobalIdent(id.Name()))
}

// compileBinding runs one declaration's optimize fixpoint (§4.7 step 2
// "build Env with empty locals, optimize to fixpoint, freeze, derive
// Impl"), then applies arity propagation (§4.8 addendum).
func compileBinding(
	mod ir.ModuleName,
	decl ir.Qualified,
	group []ir.Qualified,
	e expr.Expr,
	impls map[ir.Qualified]impl.Entry,
	directives map[ir.EvalRef]ir.Directive,
	opts Options,
) (impl.Entry, expr.Expr, error) {
	lookup := func(q ir.Qualified) (impl.Entry, bool) {
		entry, ok := impls[q]
		return entry, ok
	}
	ctx := eval.Ctx{Decl: decl, IntOverflow: opts.IntOverflow}
	evalExtern := combineEvalExtern(opts.ForeignSemantics, eval.FromImplLookup(ctx, lookup))

	env := &sem.Env{CurrentModule: mod, EvalExtern: evalExtern, Directives: directives}

	frozen, err := optimize.Optimize(decl, env, e, opts.optimizeOptions(decl))
	if err != nil {
		return impl.Entry{}, nil, err
	}

	entry := deriveImpl(group, frozen)

	if ref, dir, ok := arityPropagation(decl, frozen, env.DirectiveFor); ok {
		directives[ref] = dir
	}

	return entry, frozen, nil
}
