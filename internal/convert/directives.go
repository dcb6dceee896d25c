package convert

import (
	"fmt"

	"github.com/nbecore/optcore/internal/ir"
	"gopkg.in/yaml.v3"
)

// Directives is the {locals, exports} pair a module's directive
// comments parse into (§6 "Directive syntax"): locals apply while
// optimizing this module, exports are published to downstream modules.
type Directives struct {
	Locals  map[ir.EvalRef]ir.Directive
	Exports map[ir.EvalRef]ir.Directive
}

// directiveDoc is the on-disk YAML shape of one directive comment block
// or standalone fixture file (matching config.DirectiveFileExtensions).
// Ref names a declaration defined in the module being parsed:
// ParseDirectives qualifies every ref with that module's name, so the
// comment syntax cannot name another module's declaration (§6). Exports
// still reach later modules, which the driver carries them into.
type directiveDoc struct {
	Locals  []directiveEntry `yaml:"locals,omitempty"`
	Exports []directiveEntry `yaml:"exports,omitempty"`
}

type directiveEntry struct {
	Ref       string `yaml:"ref"`
	Field     string `yaml:"field,omitempty"`
	Directive string `yaml:"directive"`
	Arity     int    `yaml:"arity,omitempty"`
}

// ParseDirectives parses mod's collected directive comments into
// Directives, qualifying every ref against mod.
func ParseDirectives(mod ir.ModuleName, comments []string) (Directives, error) {
	out := Directives{Locals: map[ir.EvalRef]ir.Directive{}, Exports: map[ir.EvalRef]ir.Directive{}}
	for _, c := range comments {
		var doc directiveDoc
		if err := yaml.Unmarshal([]byte(c), &doc); err != nil {
			return Directives{}, fmt.Errorf("optcore: invalid directive comment in module %s: %w", mod, err)
		}
		if err := applyEntries(mod, doc.Locals, out.Locals); err != nil {
			return Directives{}, err
		}
		if err := applyEntries(mod, doc.Exports, out.Exports); err != nil {
			return Directives{}, err
		}
	}
	return out, nil
}

func applyEntries(mod ir.ModuleName, entries []directiveEntry, into map[ir.EvalRef]ir.Directive) error {
	for _, e := range entries {
		dir, err := directiveOf(e)
		if err != nil {
			return err
		}
		q := ir.NewQualified(mod, ir.GlobalIdent(e.Ref))
		ref := ir.ExternRef(q)
		if e.Field != "" {
			ref = ir.ExternFieldRef(q, ir.GetProp{Key: e.Field})
		}
		into[ref] = dir
	}
	return nil
}

func directiveOf(e directiveEntry) (ir.Directive, error) {
	switch e.Directive {
	case "inline-never":
		return ir.InlineNever(), nil
	case "inline-always":
		return ir.InlineAlways(), nil
	case "inline-arity":
		return ir.InlineArity(e.Arity), nil
	default:
		return ir.Directive{}, fmt.Errorf("optcore: unknown directive %q for ref %q", e.Directive, e.Ref)
	}
}
