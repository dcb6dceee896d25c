package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nbecore/optcore/internal/buildcache"
	"github.com/nbecore/optcore/internal/convert"
	"github.com/nbecore/optcore/internal/ir"
)

// jsonQualified mirrors ir.Qualified for a module-set file's export
// table, the one place a raw name needs to resolve to a possibly
// cross-module reference.
type jsonQualified struct {
	HasModule bool   `json:"hasModule"`
	Module    string `json:"module"`
	Name      string `json:"name"`
}

func (q jsonQualified) toIR() ir.Qualified {
	name := ir.GlobalIdent(q.Name)
	if q.HasModule {
		return ir.NewQualified(ir.NewModuleName(q.Module), name)
	}
	return ir.LocalQualified(name)
}

type jsonExport struct {
	Id string        `json:"id"`
	Q  jsonQualified `json:"q"`
}

type jsonBinding struct {
	Id   string         `json:"id"`
	Expr map[string]any `json:"expr"`
}

type jsonBindGroup struct {
	Recursive bool          `json:"recursive"`
	Bindings  []jsonBinding `json:"bindings"`
}

type jsonModule struct {
	Name              string          `json:"name"`
	Imports           []string        `json:"imports"`
	Exports           []jsonExport    `json:"exports"`
	ReExports         []jsonExport    `json:"reExports"`
	Foreign           []string        `json:"foreign"`
	Groups            []jsonBindGroup `json:"groups"`
	DirectiveComments []string        `json:"directiveComments"`
}

// loadModuleSet reads path as a JSON array of pre-sorted, build-IR
// shaped modules (§6 Input) and decodes it into convert.SourceModule,
// reusing internal/buildcache's Expr codec (buildcache.DecodeExprMap)
// for each binding body rather than a second tree decoder: a
// module-set file and a cache record describe exactly the same node
// shapes. Ordering modules by import is an external collaborator's job
// per §1 "Out of scope"; this loader trusts the file's own order.
func loadModuleSet(path string) ([]convert.SourceModule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("optcore: reading module set %s: %w", path, err)
	}

	var raw []jsonModule
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("optcore: parsing module set %s: %w", path, err)
	}

	out := make([]convert.SourceModule, len(raw))
	for i, m := range raw {
		groups := make([]convert.BindGroup, len(m.Groups))
		for j, g := range m.Groups {
			bindings := make([]convert.Binding, len(g.Bindings))
			for k, b := range g.Bindings {
				e, err := buildcache.DecodeExprMap(b.Expr)
				if err != nil {
					return nil, fmt.Errorf("optcore: %s: module %s binding %s: %w", path, m.Name, b.Id, err)
				}
				bindings[k] = convert.Binding{Id: ir.GlobalIdent(b.Id), Expr: e}
			}
			groups[j] = convert.BindGroup{Recursive: g.Recursive, Bindings: bindings}
		}

		imports := make([]ir.ModuleName, len(m.Imports))
		for j, name := range m.Imports {
			imports[j] = ir.NewModuleName(name)
		}
		foreign := make([]ir.Ident, len(m.Foreign))
		for j, name := range m.Foreign {
			foreign[j] = ir.GlobalIdent(name)
		}

		out[i] = convert.SourceModule{
			Name:              ir.NewModuleName(m.Name),
			Imports:           imports,
			Exports:           decodeExports(m.Exports),
			ReExports:         decodeExports(m.ReExports),
			Foreign:           foreign,
			Groups:            groups,
			DirectiveComments: m.DirectiveComments,
		}
	}
	return out, nil
}

func decodeExports(raw []jsonExport) []convert.Export {
	out := make([]convert.Export, len(raw))
	for i, e := range raw {
		out[i] = convert.Export{Id: ir.GlobalIdent(e.Id), Q: e.Q.toIR()}
	}
	return out
}
