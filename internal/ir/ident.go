// Package ir defines the build intermediate representation: the
// ANF-like, de-Bruijn-leveled tree that the evaluator, quoter and
// rewriter operate over (§3 of the design).
package ir

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Ident is an opaque unique name. Two Idents are the same binder iff they
// compare equal; the human-readable Name is for diagnostics only. Ident
// is comparable so it can key a map directly (usages, directive tables).
type Ident struct {
	name string
	uniq uint64
}

var identCounter uint64

// NewIdent returns a fresh Ident carrying name for diagnostics.
func NewIdent(name string) Ident {
	identCounter++
	return Ident{name: name, uniq: identCounter}
}

// GensymIdent mints a synthetic identifier with no source name, used
// where evalMkFn (§4.2.7) must introduce a parameter
// that has no corresponding source binder. It is backed by a UUID rather
// than the process-local counter so that synthetic names stay unique
// across an entire driver run, including across declarations whose
// frozen output gets inlined into later modules via Impl.
func GensymIdent(hint string) Ident {
	u := uuid.New()
	name := hint
	if name == "" {
		name = "tmp"
	}
	return Ident{name: fmt.Sprintf("%s$%s", name, strings.ReplaceAll(u.String(), "-", "")[:8])}
}

// GlobalIdent builds an Ident identified purely by name (uniq left
// zero), used for any identifier that must compare equal across
// independently constructed references: a module-level declaration
// name, a foreign-linked ident, or a constructor tag. Two GlobalIdents
// for the same name always denote the same binder, unlike NewIdent's
// counter-backed identity, which exists precisely so that two
// source-level binders sharing a spelling (shadowing) do not collide.
func GlobalIdent(name string) Ident { return Ident{name: name} }

// TagIdent is GlobalIdent specialized to constructor tags: two CtorDef
// evaluations for the same tag must compare equal, which a
// counter-backed NewIdent would not guarantee.
func TagIdent(tag string) Ident { return GlobalIdent(tag) }

func (id Ident) String() string { return id.name }

// Name returns the diagnostic name, which may be empty for an anonymous
// binder introduced purely for analysis purposes.
func (id Ident) Name() string { return id.name }

// Equal reports whether two Idents denote the same binder.
func (id Ident) Equal(other Ident) bool {
	if id.uniq != 0 || other.uniq != 0 {
		return id.uniq == other.uniq
	}
	return id.name == other.name
}

// ModuleName is an opaque segmented name, e.g. Data.List. It is stored
// joined rather than as a slice so that it stays a comparable value
// usable directly as a map key (dependency sets, cross-module caches).
type ModuleName struct {
	joined string
}

func NewModuleName(segments ...string) ModuleName {
	return ModuleName{joined: strings.Join(segments, ".")}
}

func (m ModuleName) String() string { return m.joined }

func (m ModuleName) Equal(other ModuleName) bool { return m.joined == other.joined }

// Qualified is a global reference: an identifier, optionally qualified by
// the module that defines it. HasModule false means "the current
// module"; Convert does not rewrite such references, and Quote attributes
// them to the module being compiled. Qualified is comparable, used as a map key for
// the driver's global implementations/directives tables.
type Qualified struct {
	HasModule bool
	Module    ModuleName
	Name      Ident
}

func NewQualified(mod ModuleName, name Ident) Qualified {
	return Qualified{HasModule: true, Module: mod, Name: name}
}

// LocalQualified builds a Qualified with no module component.
func LocalQualified(name Ident) Qualified {
	return Qualified{Name: name}
}

func (q Qualified) String() string {
	if !q.HasModule {
		return q.Name.String()
	}
	return q.Module.String() + "." + q.Name.String()
}

func (q Qualified) Equal(other Qualified) bool {
	if !q.Name.Equal(other.Name) {
		return false
	}
	if q.HasModule != other.HasModule {
		return false
	}
	if !q.HasModule {
		return true
	}
	return q.Module.Equal(other.Module)
}

// Level is a de Bruijn level: counted from the outside, stable across body
// motion (unlike an index). Levels are allocated monotonically per
// declaration by the quoter and reset across declarations.
type Level uint64

func (l Level) Next() Level { return l + 1 }
