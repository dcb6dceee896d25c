package buildcache

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nbecore/optcore/internal/analysis"
	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/impl"
	"github.com/nbecore/optcore/internal/ir"
)

// ErrUnsupportedNode is returned by the codec for any Expr or Impl shape
// it does not cover. Caching is purely additive (§3 Domain Stack): a
// caller must treat this, like any other decode failure, as an ordinary
// cache miss rather than a compile error.
var ErrUnsupportedNode = errors.New("buildcache: node shape not supported by codec")

// Analysis fields persisted per node are narrowed to Complexity and
// Size: the only two fields the inline policy (shouldInlineExternApp,
// shouldInlineExternLiteral, shouldInlineExternAccessor in
// internal/eval/extern.go) reads from a compiled declaration's Impl.Ann
// after Freeze. Usages, Args and Deps describe how a node's *own* locals
// and parameters are used while it is still being optimized; none of
// that survives past Freeze, since a frozen declaration has no free
// locals left to account for. Dropping them keeps the codec small
// without weakening any inline decision a cache hit can feed back into.
func encodeAnn(ann analysis.Analysis) map[string]any {
	return map[string]any{
		"complexity": float64(ann.Complexity),
		"size":       float64(ann.Size),
	}
}

func decodeAnn(m map[string]any) analysis.Analysis {
	return analysis.Analysis{
		Complexity: analysis.Complexity(asFloat(m["complexity"])),
		Size:       int(asFloat(m["size"])),
	}
}

func asFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func encodeQualified(q ir.Qualified) map[string]any {
	return map[string]any{
		"hasModule": q.HasModule,
		"module":    q.Module.String(),
		"name":      q.Name.Name(),
	}
}

func decodeQualified(m map[string]any) ir.Qualified {
	name := ir.GlobalIdent(asString(m["name"]))
	if asBool(m["hasModule"]) {
		return ir.NewQualified(ir.NewModuleName(asString(m["module"])), name)
	}
	return ir.LocalQualified(name)
}

func encodeIdents(ids []ir.Ident) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id.Name()
	}
	return out
}

func decodeIdents(v []any) []ir.Ident {
	out := make([]ir.Ident, len(v))
	for i, e := range v {
		out[i] = ir.GlobalIdent(asString(e))
	}
	return out
}

func encodeParams(params []expr.Param) []any {
	out := make([]any, len(params))
	for i, p := range params {
		m := map[string]any{"level": float64(p.Level)}
		if p.Id != nil {
			m["id"] = p.Id.Name()
		}
		out[i] = m
	}
	return out
}

func decodeParams(v []any) []expr.Param {
	out := make([]expr.Param, len(v))
	for i, e := range v {
		m := asMap(e)
		p := expr.Param{Level: ir.Level(uint64(asFloat(m["level"])))}
		if name, ok := m["id"]; ok {
			id := ir.GlobalIdent(asString(name))
			p.Id = &id
		}
		out[i] = p
	}
	return out
}

func encodeAccessor(acc ir.Accessor) (map[string]any, error) {
	switch a := acc.(type) {
	case ir.GetProp:
		return map[string]any{"kind": "prop", "key": a.Key}, nil
	case ir.GetIndex:
		return map[string]any{"kind": "index", "n": float64(a.N)}, nil
	case ir.GetOffset:
		return map[string]any{"kind": "offset", "n": float64(a.N)}, nil
	}
	return nil, fmt.Errorf("%w: accessor %T", ErrUnsupportedNode, acc)
}

func decodeAccessor(m map[string]any) (ir.Accessor, error) {
	switch asString(m["kind"]) {
	case "prop":
		return ir.GetProp{Key: asString(m["key"])}, nil
	case "index":
		return ir.GetIndex{N: int(asFloat(m["n"]))}, nil
	case "offset":
		return ir.GetOffset{N: int(asFloat(m["n"]))}, nil
	}
	return nil, fmt.Errorf("%w: accessor kind %q", ErrUnsupportedNode, m["kind"])
}

func encodeExprList(es []expr.Expr) ([]any, error) {
	out := make([]any, len(es))
	for i, e := range es {
		m, err := encodeExprMap(e)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func decodeExprList(v []any) ([]expr.Expr, error) {
	out := make([]expr.Expr, len(v))
	for i, e := range v {
		d, err := decodeExprMap(asMap(e))
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

// EncodeExprMap and DecodeExprMap expose the Expr codec independently of
// EncodeEntry/DecodeEntry, so a module-set loader (cmd/optcore) can
// serialize build-IR expressions to plain JSON-compatible
// map[string]any trees (the same shape encoding/json produces and
// consumes for a map[string]any — JSON numbers decode as float64,
// exactly what asFloat expects) without going through impl.Entry or
// structpb at all.
func EncodeExprMap(e expr.Expr) (map[string]any, error) { return encodeExprMap(e) }
func DecodeExprMap(m map[string]any) (expr.Expr, error) { return decodeExprMap(m) }

// encodeExprMap covers the node shapes that survive into a frozen,
// rewrite-free declaration body: the syntactic forms of §3 minus
// LetRec/EffectBind/EffectPure/Update/Branch/Uncurried* and the
// rewrite forms, none of which this codec needs to round-trip since a
// declaration whose frozen body contains one is simply never offered to
// Put (a cache miss on the next compile costs a re-optimize, nothing
// more).
func encodeExprMap(e expr.Expr) (map[string]any, error) {
	ann := encodeAnn(e.Analysis())

	switch n := e.(type) {
	case *expr.Var:
		ann["kind"] = "var"
		ann["q"] = encodeQualified(n.Q)
		return ann, nil

	case *expr.Local:
		ann["kind"] = "local"
		ann["level"] = float64(n.Level)
		if n.Id != nil {
			ann["id"] = n.Id.Name()
		}
		return ann, nil

	case *expr.LitExpr:
		lit, err := encodeLit(n.Lit)
		if err != nil {
			return nil, err
		}
		ann["kind"] = "lit"
		ann["lit"] = lit
		return ann, nil

	case *expr.App:
		args, err := encodeExprList(n.Args)
		if err != nil {
			return nil, err
		}
		head, err := encodeExprMap(n.Head)
		if err != nil {
			return nil, err
		}
		ann["kind"] = "app"
		ann["head"] = head
		ann["args"] = args
		return ann, nil

	case *expr.Abs:
		body, err := encodeExprMap(n.Body)
		if err != nil {
			return nil, err
		}
		ann["kind"] = "abs"
		ann["params"] = encodeParams(n.Params)
		ann["body"] = body
		return ann, nil

	case *expr.Let:
		binding, err := encodeExprMap(n.Binding)
		if err != nil {
			return nil, err
		}
		body, err := encodeExprMap(n.Body)
		if err != nil {
			return nil, err
		}
		ann["kind"] = "let"
		ann["level"] = float64(n.Level)
		if n.Id != nil {
			ann["id"] = n.Id.Name()
		}
		ann["binding"] = binding
		ann["body"] = body
		return ann, nil

	case *expr.Accessor:
		sub, err := encodeExprMap(n.E)
		if err != nil {
			return nil, err
		}
		acc, err := encodeAccessor(n.Acc)
		if err != nil {
			return nil, err
		}
		ann["kind"] = "accessor"
		ann["e"] = sub
		ann["acc"] = acc
		return ann, nil

	case *expr.PrimOpUnary:
		arg, err := encodeExprMap(n.Arg)
		if err != nil {
			return nil, err
		}
		ann["kind"] = "primop1"
		ann["op"] = float64(n.Op.Kind)
		ann["tag"] = n.Op.Tag
		ann["arg"] = arg
		return ann, nil

	case *expr.PrimOpBinary:
		lhs, err := encodeExprMap(n.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := encodeExprMap(n.Rhs)
		if err != nil {
			return nil, err
		}
		ann["kind"] = "primop2"
		ann["opKind"] = float64(n.Op.Kind)
		ann["domain"] = float64(n.Op.Domain)
		ann["cmp"] = float64(n.Op.Cmp)
		ann["lhs"] = lhs
		ann["rhs"] = rhs
		return ann, nil

	case *expr.Fail:
		ann["kind"] = "fail"
		ann["msg"] = n.Msg
		return ann, nil

	case *expr.CtorDef:
		ann["kind"] = "ctordef"
		ann["ctorKind"] = float64(n.CtorKind)
		ann["typeName"] = n.TypeName.Name()
		ann["tag"] = n.Tag
		ann["fields"] = encodeIdents(n.Fields)
		return ann, nil

	case *expr.CtorSaturated:
		fields := make([]any, len(n.Fields))
		for i, f := range n.Fields {
			val, err := encodeExprMap(f.Value)
			if err != nil {
				return nil, err
			}
			fields[i] = map[string]any{"field": f.Field.Name(), "value": val}
		}
		ann["kind"] = "ctorsat"
		ann["q"] = encodeQualified(n.Q)
		ann["ctorKind"] = float64(n.CtorKind)
		ann["typeName"] = n.TypeName.Name()
		ann["tag"] = n.Tag
		ann["fields"] = fields
		return ann, nil
	}

	return nil, fmt.Errorf("%w: %T", ErrUnsupportedNode, e)
}

func decodeExprMap(m map[string]any) (expr.Expr, error) {
	ann := decodeAnn(m)

	switch asString(m["kind"]) {
	case "var":
		return &expr.Var{Ann: ann, Q: decodeQualified(asMap(m["q"]))}, nil

	case "local":
		l := &expr.Local{Ann: ann, Level: ir.Level(uint64(asFloat(m["level"])))}
		if name, ok := m["id"]; ok {
			id := ir.GlobalIdent(asString(name))
			l.Id = &id
		}
		return l, nil

	case "lit":
		lit, err := decodeLit(asMap(m["lit"]))
		if err != nil {
			return nil, err
		}
		return &expr.LitExpr{Ann: ann, Lit: lit}, nil

	case "app":
		head, err := decodeExprMap(asMap(m["head"]))
		if err != nil {
			return nil, err
		}
		args, err := decodeExprList(asSlice(m["args"]))
		if err != nil {
			return nil, err
		}
		return &expr.App{Ann: ann, Head: head, Args: args}, nil

	case "abs":
		body, err := decodeExprMap(asMap(m["body"]))
		if err != nil {
			return nil, err
		}
		return &expr.Abs{Ann: ann, Params: decodeParams(asSlice(m["params"])), Body: body}, nil

	case "let":
		binding, err := decodeExprMap(asMap(m["binding"]))
		if err != nil {
			return nil, err
		}
		body, err := decodeExprMap(asMap(m["body"]))
		if err != nil {
			return nil, err
		}
		l := &expr.Let{Ann: ann, Level: ir.Level(uint64(asFloat(m["level"]))), Binding: binding, Body: body}
		if name, ok := m["id"]; ok {
			id := ir.GlobalIdent(asString(name))
			l.Id = &id
		}
		return l, nil

	case "accessor":
		sub, err := decodeExprMap(asMap(m["e"]))
		if err != nil {
			return nil, err
		}
		acc, err := decodeAccessor(asMap(m["acc"]))
		if err != nil {
			return nil, err
		}
		return &expr.Accessor{Ann: ann, E: sub, Acc: acc}, nil

	case "primop1":
		arg, err := decodeExprMap(asMap(m["arg"]))
		if err != nil {
			return nil, err
		}
		return &expr.PrimOpUnary{
			Ann: ann,
			Op:  ir.UnOp{Kind: ir.UnOpKind(int(asFloat(m["op"]))), Tag: asString(m["tag"])},
			Arg: arg,
		}, nil

	case "primop2":
		lhs, err := decodeExprMap(asMap(m["lhs"]))
		if err != nil {
			return nil, err
		}
		rhs, err := decodeExprMap(asMap(m["rhs"]))
		if err != nil {
			return nil, err
		}
		return &expr.PrimOpBinary{
			Ann: ann,
			Op: ir.BinOp{
				Kind:   ir.BinOpKind(int(asFloat(m["opKind"]))),
				Domain: ir.OrdDomain(int(asFloat(m["domain"]))),
				Cmp:    ir.CmpKind(int(asFloat(m["cmp"]))),
			},
			Lhs: lhs,
			Rhs: rhs,
		}, nil

	case "fail":
		return &expr.Fail{Ann: ann, Msg: asString(m["msg"])}, nil

	case "ctordef":
		return &expr.CtorDef{
			Ann:      ann,
			CtorKind: ir.CtorKind(int(asFloat(m["ctorKind"]))),
			TypeName: ir.GlobalIdent(asString(m["typeName"])),
			Tag:      asString(m["tag"]),
			Fields:   decodeIdents(asSlice(m["fields"])),
		}, nil

	case "ctorsat":
		rawFields := asSlice(m["fields"])
		fields := make([]expr.CtorFieldVal, len(rawFields))
		for i, rf := range rawFields {
			fm := asMap(rf)
			val, err := decodeExprMap(asMap(fm["value"]))
			if err != nil {
				return nil, err
			}
			fields[i] = expr.CtorFieldVal{Field: ir.GlobalIdent(asString(fm["field"])), Value: val}
		}
		return &expr.CtorSaturated{
			Ann:      ann,
			Q:        decodeQualified(asMap(m["q"])),
			CtorKind: ir.CtorKind(int(asFloat(m["ctorKind"]))),
			TypeName: ir.GlobalIdent(asString(m["typeName"])),
			Tag:      asString(m["tag"]),
			Fields:   fields,
		}, nil
	}

	return nil, fmt.Errorf("%w: kind %q", ErrUnsupportedNode, m["kind"])
}

func encodeLit(lit expr.Lit) (map[string]any, error) {
	switch l := lit.(type) {
	case expr.LitInt32:
		return map[string]any{"kind": "int32", "value": float64(l.Value)}, nil
	case expr.LitNumber:
		return map[string]any{"kind": "number", "value": l.Value}, nil
	case expr.LitString:
		return map[string]any{"kind": "string", "value": l.Value}, nil
	case expr.LitBool:
		return map[string]any{"kind": "bool", "value": l.Value}, nil
	case expr.LitChar:
		return map[string]any{"kind": "char", "value": float64(l.Value)}, nil
	case expr.LitArray:
		elems, err := encodeExprList(l.Elems)
		if err != nil {
			return nil, err
		}
		return map[string]any{"kind": "array", "elems": elems}, nil
	case expr.LitRecord:
		fields := make([]any, len(l.Fields))
		for i, f := range l.Fields {
			v, err := encodeExprMap(f.Value)
			if err != nil {
				return nil, err
			}
			fields[i] = map[string]any{"key": f.Key, "value": v}
		}
		return map[string]any{"kind": "record", "fields": fields}, nil
	}
	return nil, fmt.Errorf("%w: literal %T", ErrUnsupportedNode, lit)
}

func decodeLit(m map[string]any) (expr.Lit, error) {
	switch asString(m["kind"]) {
	case "int32":
		return expr.LitInt32{Value: int32(asFloat(m["value"]))}, nil
	case "number":
		return expr.LitNumber{Value: asFloat(m["value"])}, nil
	case "string":
		return expr.LitString{Value: asString(m["value"])}, nil
	case "bool":
		return expr.LitBool{Value: asBool(m["value"])}, nil
	case "char":
		return expr.LitChar{Value: rune(int32(asFloat(m["value"])))}, nil
	case "array":
		elems, err := decodeExprList(asSlice(m["elems"]))
		if err != nil {
			return nil, err
		}
		return expr.LitArray{Elems: elems}, nil
	case "record":
		raw := asSlice(m["fields"])
		fields := make([]expr.RecordField, len(raw))
		for i, rf := range raw {
			fm := asMap(rf)
			v, err := decodeExprMap(asMap(fm["value"]))
			if err != nil {
				return nil, err
			}
			fields[i] = expr.RecordField{Key: asString(fm["key"]), Value: v}
		}
		return expr.NewLitRecord(fields), nil
	}
	return nil, fmt.Errorf("%w: literal kind %q", ErrUnsupportedNode, m["kind"])
}

func encodeGroup(group []ir.Qualified) []any {
	out := make([]any, len(group))
	for i, q := range group {
		out[i] = encodeQualified(q)
	}
	return out
}

func decodeGroup(v []any) []ir.Qualified {
	out := make([]ir.Qualified, len(v))
	for i, e := range v {
		out[i] = decodeQualified(asMap(e))
	}
	return out
}

// EncodeEntry marshals an impl.Entry (§4.8) to the byte payload Cache
// stores, covering the four Impl shapes the driver ever derives:
// ImplExpr, ImplRec, ImplDict and ImplCtor.
func EncodeEntry(entry impl.Entry) ([]byte, error) {
	ann := encodeAnn(entry.Ann)

	switch im := entry.Impl.(type) {
	case impl.ImplExpr:
		neutral, err := encodeExprMap(im.Neutral)
		if err != nil {
			return nil, err
		}
		ann["implKind"] = "expr"
		ann["group"] = encodeGroup(im.Group)
		ann["neutral"] = neutral

	case impl.ImplRec:
		neutral, err := encodeExprMap(im.Neutral)
		if err != nil {
			return nil, err
		}
		ann["implKind"] = "rec"
		ann["group"] = encodeGroup(im.Group)
		ann["neutral"] = neutral

	case impl.ImplDict:
		fields := make([]any, len(im.Fields))
		for i, f := range im.Fields {
			neutral, err := encodeExprMap(f.Neutral)
			if err != nil {
				return nil, err
			}
			fields[i] = map[string]any{
				"prop":    f.Prop,
				"ann":     encodeAnn(f.Ann),
				"neutral": neutral,
			}
		}
		ann["implKind"] = "dict"
		ann["group"] = encodeGroup(im.Group)
		ann["fields"] = fields

	case impl.ImplCtor:
		ann["implKind"] = "ctor"
		ann["ctorKind"] = float64(im.CtorKind)
		ann["typeName"] = im.TypeName.Name()
		ann["tag"] = im.Tag
		ann["fields"] = encodeIdents(im.Fields)

	default:
		return nil, fmt.Errorf("%w: impl %T", ErrUnsupportedNode, entry.Impl)
	}

	s, err := structpb.NewStruct(ann)
	if err != nil {
		return nil, fmt.Errorf("buildcache: building record: %w", err)
	}
	return proto.Marshal(s)
}

// DecodeEntry reverses EncodeEntry.
func DecodeEntry(data []byte) (impl.Entry, error) {
	s := &structpb.Struct{}
	if err := proto.Unmarshal(data, s); err != nil {
		return impl.Entry{}, fmt.Errorf("buildcache: unmarshaling record: %w", err)
	}
	m := s.AsMap()
	ann := decodeAnn(m)

	switch asString(m["implKind"]) {
	case "expr":
		neutral, err := decodeExprMap(asMap(m["neutral"]))
		if err != nil {
			return impl.Entry{}, err
		}
		return impl.Entry{Ann: ann, Impl: impl.ImplExpr{Group: decodeGroup(asSlice(m["group"])), Neutral: neutral}}, nil

	case "rec":
		neutral, err := decodeExprMap(asMap(m["neutral"]))
		if err != nil {
			return impl.Entry{}, err
		}
		return impl.Entry{Ann: ann, Impl: impl.ImplRec{Group: decodeGroup(asSlice(m["group"])), Neutral: neutral}}, nil

	case "dict":
		raw := asSlice(m["fields"])
		fields := make([]impl.DictField, len(raw))
		for i, rf := range raw {
			fm := asMap(rf)
			neutral, err := decodeExprMap(asMap(fm["neutral"]))
			if err != nil {
				return impl.Entry{}, err
			}
			fields[i] = impl.DictField{
				Prop:    asString(fm["prop"]),
				Ann:     decodeAnn(asMap(fm["ann"])),
				Neutral: neutral,
			}
		}
		return impl.Entry{Ann: ann, Impl: impl.ImplDict{Group: decodeGroup(asSlice(m["group"])), Fields: fields}}, nil

	case "ctor":
		return impl.Entry{Ann: ann, Impl: impl.ImplCtor{
			CtorKind: ir.CtorKind(int(asFloat(m["ctorKind"]))),
			TypeName: ir.GlobalIdent(asString(m["typeName"])),
			Tag:      asString(m["tag"]),
			Fields:   decodeIdents(asSlice(m["fields"])),
		}}, nil
	}

	return impl.Entry{}, fmt.Errorf("%w: implKind %q", ErrUnsupportedNode, m["implKind"])
}
