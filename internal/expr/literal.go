package expr

import (
	"sort"

	"github.com/nbecore/optcore/internal/ir"
)

// Lit is a literal value occurring in build IR. Array and record literals
// carry child Exprs rather than nested literals, since a field may be any
// unevaluated expression prior to optimization; this is why Lit lives in
// package expr rather than package ir (ir must not depend on expr).
type Lit interface {
	litNode()
}

type LitInt32 struct{ Value int32 }
type LitNumber struct{ Value float64 }
type LitString struct{ Value string }
type LitChar struct{ Value rune }
type LitBool struct{ Value bool }
type LitArray struct{ Elems []Expr }

// RecordField is one key/value pair of a record literal.
type RecordField struct {
	Key   string
	Value Expr
}

// LitRecord is a record literal. Fields is always normalized per
// invariant 3: stable-sorted by key, first occurrence wins within a key
// group. Use NewLitRecord rather than constructing this directly.
type LitRecord struct{ Fields []RecordField }

func (LitInt32) litNode()  {}
func (LitNumber) litNode() {}
func (LitString) litNode() {}
func (LitChar) litNode()   {}
func (LitBool) litNode()   {}
func (LitArray) litNode()  {}
func (LitRecord) litNode() {}

// NewLitRecord normalizes fields per invariant 3: a stable sort by key
// followed by first-occurrence-wins within each key group. Quote, Freeze
// and the cache decoders build record literals through it; eval's own
// Update folding (§4.2.3) sorts and merges semantic fields separately.
func NewLitRecord(fields []RecordField) LitRecord {
	return LitRecord{Fields: normalizeRecordFields(fields)}
}

func normalizeRecordFields(fields []RecordField) []RecordField {
	stable := make([]RecordField, len(fields))
	copy(stable, fields)
	sort.SliceStable(stable, func(i, j int) bool { return stable[i].Key < stable[j].Key })
	out := make([]RecordField, 0, len(stable))
	seen := make(map[string]bool, len(stable))
	for _, f := range stable {
		if seen[f.Key] {
			continue
		}
		seen[f.Key] = true
		out = append(out, f)
	}
	return out
}

// MergeRecordFields implements the "update" merge of §4.2.3: later
// (update) fields win over earlier (base) fields at the same key, then
// the combined set is normalized by NewLitRecord.
func MergeRecordFields(base, updates []RecordField) LitRecord {
	merged := make(map[string]Expr, len(base)+len(updates))
	order := make([]string, 0, len(base)+len(updates))
	for _, f := range base {
		if _, ok := merged[f.Key]; !ok {
			order = append(order, f.Key)
		}
		merged[f.Key] = f.Value
	}
	for _, f := range updates {
		if _, ok := merged[f.Key]; !ok {
			order = append(order, f.Key)
		}
		merged[f.Key] = f.Value
	}
	fields := make([]RecordField, 0, len(order))
	for _, k := range order {
		fields = append(fields, RecordField{Key: k, Value: merged[k]})
	}
	return NewLitRecord(fields)
}

// FieldByKey returns the field with the given key, if present.
func (r LitRecord) FieldByKey(key string) (Expr, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// CtorFieldVal is one field of a saturated constructor application.
type CtorFieldVal struct {
	Field ir.Ident
	Value Expr
}
