// Package convert implements the narrow slice of the Convert step (§2,
// §6) that this module owns: module-comment directive parsing,
// data-type metadata construction, and import-closure computation. The
// surface-IR-to-build-IR term translation itself (global-by-default
// variable resolution, newtype erasure, single-constructor ProductType
// inference) is an external collaborator per §1's "Out of scope" list;
// this package assumes its input already carries build IR
// (*expr.Expr trees with Local/Var already resolved) and performs only
// the module-level bookkeeping the driver needs on top of that. See
// DESIGN.md for why this is a narrowed local stand-in rather than a
// full surface-language front end.
package convert

import (
	"fmt"
	"sort"

	"github.com/nbecore/optcore/internal/config"
	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/ir"
)

// Export is a direct or re-exported binding (§6 Output "exports").
type Export struct {
	Id ir.Ident
	Q  ir.Qualified
}

// Binding is one top-level name bound to a build-IR expression.
type Binding struct {
	Id   ir.Ident
	Expr expr.Expr
}

// BindGroup is either one non-recursive binding or a mutually recursive
// group of bindings (§6 Input "a list of top-level bind groups (Rec or
// NonRec)").
type BindGroup struct {
	Recursive bool
	Bindings  []Binding
}

// SourceModule is a single pre-sorted compilation unit as the driver
// receives it (§6 Input).
type SourceModule struct {
	Name      ir.ModuleName
	Imports   []ir.ModuleName
	Exports   []Export
	ReExports []Export
	Foreign   []ir.Ident
	Groups    []BindGroup

	// DirectiveComments holds the raw YAML blocks collected from this
	// module's source comments (§6 "Directive syntax"), parsed by
	// ParseDirectives during Convert.
	DirectiveComments []string
}

// CtorShape is one constructor's field layout (§6 Output "dataTypes").
type CtorShape struct {
	Fields []ir.Ident
	Tag    string
}

// DataType is a type's constructor table plus its maximum field count
// across constructors (§6 Output "dataTypes": "size is the maximum
// field count across constructors").
type DataType struct {
	Constructors map[string]CtorShape
	Size         int
}

// BackendModule is Convert's output (§6 Output), ready for the module
// driver to optimize declaration by declaration.
type BackendModule struct {
	Name       ir.ModuleName
	Imports    []ir.ModuleName
	Exports    []Export
	DataTypes  map[string]DataType
	Groups     []BindGroup
	Foreign    []ir.Ident
	Directives Directives
}

// Convert implements §6's Convert step for the parts owned by this
// package: directive-comment parsing, data-type metadata construction
// and a recomputed import closure. It does not perform surface-to-build
// IR term translation (see package doc).
func Convert(m SourceModule) (BackendModule, error) {
	dirs, err := ParseDirectives(m.Name, m.DirectiveComments)
	if err != nil {
		return BackendModule{}, fmt.Errorf("optcore: parsing directives for module %s: %w", m.Name, err)
	}

	exports := make([]Export, 0, len(m.Exports)+len(m.ReExports))
	exports = append(exports, m.Exports...)
	exports = append(exports, m.ReExports...)

	return BackendModule{
		Name:       m.Name,
		Imports:    importClosure(m.Name, m.Groups, m.Imports),
		Exports:    exports,
		DataTypes:  collectDataTypes(m.Groups),
		Groups:     m.Groups,
		Foreign:    m.Foreign,
		Directives: dirs,
	}, nil
}

// collectDataTypes scans every binding for a *expr.CtorDef and folds its
// shape into the owning type's constructor table (§6 Output
// "dataTypes"). A type ends up with CtorKind ProductType, carried on
// each CtorDef itself, exactly when it has one constructor; this
// package does not need to re-derive that, only tabulate it.
func collectDataTypes(groups []BindGroup) map[string]DataType {
	types := map[string]DataType{}
	for _, g := range groups {
		for _, b := range g.Bindings {
			def, ok := b.Expr.(*expr.CtorDef)
			if !ok {
				continue
			}
			name := def.TypeName.Name()
			ty := types[name]
			if ty.Constructors == nil {
				ty.Constructors = map[string]CtorShape{}
			}
			ty.Constructors[def.Tag] = CtorShape{Fields: def.Fields, Tag: def.Tag}
			if len(def.Fields) > ty.Size {
				ty.Size = len(def.Fields)
			}
			types[name] = ty
		}
	}
	return types
}

// importClosure derives the module's dependency closure minus itself
// and the Prim module (§6 Output "imports") from each binding's own
// analysis, rather than trusting declared imports blindly: a stale
// declared-imports list cannot then desynchronize from what the
// bindings actually reference.
func importClosure(self ir.ModuleName, groups []BindGroup, declared []ir.ModuleName) []ir.ModuleName {
	prim := ir.NewModuleName(config.PrimModuleName)
	seen := map[string]ir.ModuleName{}

	add := func(m ir.ModuleName) {
		if m.Equal(self) || m.Equal(prim) {
			return
		}
		seen[m.String()] = m
	}

	for _, m := range declared {
		add(m)
	}
	for _, g := range groups {
		for _, b := range g.Bindings {
			for _, m := range b.Expr.Analysis().DepSet() {
				add(m)
			}
		}
	}

	out := make([]ir.ModuleName, 0, len(seen))
	for _, m := range seen {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
