package eval

import (
	"github.com/nbecore/optcore/internal/ir"
	"github.com/nbecore/optcore/internal/sem"
)

// evalPrimOpUnary folds a unary primitive operator (§4.2.5). Folding
// happens bottom-up as the tree is built, so the "not of a not" and "not
// of an order comparison" rewrites naturally apply at the leaves first and
// propagate outward as equivalent subexpressions collapse.
func evalPrimOpUnary(ctx Ctx, env *sem.Env, op ir.UnOp, arg sem.Sem) sem.Sem {
	if l, ok := arg.(*sem.Let); ok {
		return &sem.Let{Id: l.Id, V: l.V, F: func(v sem.Sem) sem.Sem {
			return evalPrimOpUnary(ctx, env, op, l.F(v))
		}}
	}

	if ext, ok := arg.(*sem.Extern); ok {
		return EvalExtern(ctx, env, ext.Q, append(append([]sem.ExternSpineItem(nil), ext.Spine...), sem.ExternPrimOp{Op: op}))
	}

	switch op.Kind {
	case ir.UnNot:
		if b, ok := litBool(arg); ok {
			return litSem(sem.LitBool{Value: !b})
		}
		if inner, ok := notOf(arg); ok {
			return inner
		}
		if bin, ok := arg.(*sem.NeutPrimOpBinary); ok && bin.Op.Kind == ir.BinOrd {
			return &sem.NeutPrimOpBinary{
				Op:  ir.OrdOp(bin.Op.Domain, bin.Op.Cmp.Negate()),
				Lhs: bin.Lhs, Rhs: bin.Rhs,
			}
		}

	case ir.UnBNot:
		if n, ok := litInt32(arg); ok {
			return litSem(sem.LitInt32{Value: ^n})
		}

	case ir.UnIsTag:
		if nd, ok := arg.(*sem.NeutData); ok {
			return litSem(sem.LitBool{Value: nd.Tag == op.Tag})
		}

	case ir.UnArrayLen:
		if lit, ok := arg.(*sem.NeutLit); ok {
			if arr, ok := lit.Value.(sem.LitArray); ok {
				return litSem(sem.LitInt32{Value: int32(len(arr.Elems))})
			}
		}
	}

	return &sem.NeutPrimOpUnary{Op: op, Arg: arg}
}

// notOf reports whether v is itself `not x`, returning x.
func notOf(v sem.Sem) (sem.Sem, bool) {
	u, ok := v.(*sem.NeutPrimOpUnary)
	if !ok || u.Op.Kind != ir.UnNot {
		return nil, false
	}
	return u.Arg, true
}

// evalPrimOpBinary folds a binary primitive operator (§4.2.5).
func evalPrimOpBinary(ctx Ctx, env *sem.Env, op ir.BinOp, lhs, rhs sem.Sem) sem.Sem {
	if l, ok := lhs.(*sem.Let); ok {
		return &sem.Let{Id: l.Id, V: l.V, F: func(v sem.Sem) sem.Sem {
			return evalPrimOpBinary(ctx, env, op, l.F(v), rhs)
		}}
	}
	if l, ok := rhs.(*sem.Let); ok {
		return &sem.Let{Id: l.Id, V: l.V, F: func(v sem.Sem) sem.Sem {
			return evalPrimOpBinary(ctx, env, op, lhs, l.F(v))
		}}
	}

	switch op.Kind {
	case ir.BinAnd:
		if b, ok := litBool(lhs); ok {
			if !b {
				return litSem(sem.LitBool{Value: false})
			}
			return rhs
		}
		if b, ok := litBool(rhs); ok {
			if !b {
				return litSem(sem.LitBool{Value: false})
			}
			return lhs
		}

	case ir.BinOr:
		if b, ok := litBool(lhs); ok {
			if b {
				return litSem(sem.LitBool{Value: true})
			}
			return rhs
		}
		if b, ok := litBool(rhs); ok {
			if b {
				return litSem(sem.LitBool{Value: true})
			}
			return lhs
		}

	case ir.BinEq:
		if b, ok := litBool(lhs); ok {
			return eqWithBool(ctx, env, rhs, b)
		}
		if b, ok := litBool(rhs); ok {
			return eqWithBool(ctx, env, lhs, b)
		}

	case ir.BinOrd:
		if v, ok := foldOrd(op.Domain, op.Cmp, lhs, rhs); ok {
			return v
		}

	case ir.BinBitAnd, ir.BinBitOr, ir.BinBitXor, ir.BinShl, ir.BinShr, ir.BinUShr:
		if v, ok := foldBitwise(op.Kind, lhs, rhs); ok {
			return v
		}

	case ir.BinIntAdd, ir.BinIntSub, ir.BinIntMul:
		if ctx.IntOverflow == Wrap32 {
			if v, ok := foldIntWrap(op.Kind, lhs, rhs); ok {
				return v
			}
		}

	case ir.BinIntDiv, ir.BinIntMod:
		if v, ok := foldIntDivMod(op.Kind, lhs, rhs); ok {
			return v
		}

	case ir.BinFloatAdd, ir.BinFloatSub, ir.BinFloatMul, ir.BinFloatDiv:
		if v, ok := foldFloat(op.Kind, lhs, rhs); ok {
			return v
		}

	case ir.BinStringAppend:
		return evalPrimOpAssocL(lhs, rhs)
	}

	return &sem.NeutPrimOpBinary{Op: op, Lhs: lhs, Rhs: rhs}
}

func eqWithBool(ctx Ctx, env *sem.Env, other sem.Sem, b bool) sem.Sem {
	if b {
		return other
	}
	return evalPrimOpUnary(ctx, env, ir.UnOp{Kind: ir.UnNot}, other)
}

func foldOrd(domain ir.OrdDomain, cmp ir.CmpKind, lhs, rhs sem.Sem) (sem.Sem, bool) {
	switch domain {
	case ir.DomainInt:
		a, ok1 := litInt32(lhs)
		b, ok2 := litInt32(rhs)
		if ok1 && ok2 {
			return litSem(sem.LitBool{Value: cmpOrdered(cmp, int64(a), int64(b))}), true
		}
	case ir.DomainFloat:
		a, ok1 := litFloat(lhs)
		b, ok2 := litFloat(rhs)
		if ok1 && ok2 {
			return litSem(sem.LitBool{Value: cmpOrderedFloat(cmp, a, b)}), true
		}
	case ir.DomainChar:
		a, ok1 := litChar(lhs)
		b, ok2 := litChar(rhs)
		if ok1 && ok2 {
			return litSem(sem.LitBool{Value: cmpOrdered(cmp, int64(a), int64(b))}), true
		}
	case ir.DomainString:
		a, ok1 := litString(lhs)
		b, ok2 := litString(rhs)
		if ok1 && ok2 {
			return litSem(sem.LitBool{Value: cmpOrderedString(cmp, a, b)}), true
		}
	}
	return nil, false
}

func cmpOrdered(cmp ir.CmpKind, a, b int64) bool {
	switch cmp {
	case ir.CmpLt:
		return a < b
	case ir.CmpLe:
		return a <= b
	case ir.CmpGt:
		return a > b
	case ir.CmpGe:
		return a >= b
	case ir.CmpEq:
		return a == b
	case ir.CmpNotEq:
		return a != b
	}
	return false
}

func cmpOrderedFloat(cmp ir.CmpKind, a, b float64) bool {
	switch cmp {
	case ir.CmpLt:
		return a < b
	case ir.CmpLe:
		return a <= b
	case ir.CmpGt:
		return a > b
	case ir.CmpGe:
		return a >= b
	case ir.CmpEq:
		return a == b
	case ir.CmpNotEq:
		return a != b
	}
	return false
}

func cmpOrderedString(cmp ir.CmpKind, a, b string) bool {
	switch cmp {
	case ir.CmpLt:
		return a < b
	case ir.CmpLe:
		return a <= b
	case ir.CmpGt:
		return a > b
	case ir.CmpGe:
		return a >= b
	case ir.CmpEq:
		return a == b
	case ir.CmpNotEq:
		return a != b
	}
	return false
}

func foldBitwise(kind ir.BinOpKind, lhs, rhs sem.Sem) (sem.Sem, bool) {
	a, ok1 := litInt32(lhs)
	b, ok2 := litInt32(rhs)
	if !ok1 || !ok2 {
		return nil, false
	}
	switch kind {
	case ir.BinBitAnd:
		return litSem(sem.LitInt32{Value: a & b}), true
	case ir.BinBitOr:
		return litSem(sem.LitInt32{Value: a | b}), true
	case ir.BinBitXor:
		return litSem(sem.LitInt32{Value: a ^ b}), true
	case ir.BinShl:
		return litSem(sem.LitInt32{Value: a << (uint32(b) & 31)}), true
	case ir.BinShr:
		return litSem(sem.LitInt32{Value: a >> (uint32(b) & 31)}), true
	case ir.BinUShr:
		return litSem(sem.LitInt32{Value: int32(uint32(a) >> (uint32(b) & 31))}), true
	}
	return nil, false
}

func foldIntWrap(kind ir.BinOpKind, lhs, rhs sem.Sem) (sem.Sem, bool) {
	a, ok1 := litInt32(lhs)
	b, ok2 := litInt32(rhs)
	if !ok1 || !ok2 {
		return nil, false
	}
	switch kind {
	case ir.BinIntAdd:
		return litSem(sem.LitInt32{Value: a + b}), true
	case ir.BinIntSub:
		return litSem(sem.LitInt32{Value: a - b}), true
	case ir.BinIntMul:
		return litSem(sem.LitInt32{Value: a * b}), true
	}
	return nil, false
}

func foldIntDivMod(kind ir.BinOpKind, lhs, rhs sem.Sem) (sem.Sem, bool) {
	a, ok1 := litInt32(lhs)
	b, ok2 := litInt32(rhs)
	if !ok1 || !ok2 || b == 0 {
		return nil, false
	}
	switch kind {
	case ir.BinIntDiv:
		return litSem(sem.LitInt32{Value: a / b}), true
	case ir.BinIntMod:
		return litSem(sem.LitInt32{Value: a % b}), true
	}
	return nil, false
}

func foldFloat(kind ir.BinOpKind, lhs, rhs sem.Sem) (sem.Sem, bool) {
	a, ok1 := litFloat(lhs)
	b, ok2 := litFloat(rhs)
	if !ok1 || !ok2 {
		return nil, false
	}
	switch kind {
	case ir.BinFloatAdd:
		return litSem(sem.LitNumber{Value: a + b}), true
	case ir.BinFloatSub:
		return litSem(sem.LitNumber{Value: a - b}), true
	case ir.BinFloatMul:
		return litSem(sem.LitNumber{Value: a * b}), true
	case ir.BinFloatDiv:
		if b == 0 {
			return nil, false
		}
		return litSem(sem.LitNumber{Value: a / b}), true
	}
	return nil, false
}

// evalPrimOpAssocL folds string append associatively: two string
// literals are concatenated, and a string literal next to an append node
// is combined with that node's adjacent literal operand (one level deep,
// on either side) while the rest of the append tree's shape is preserved
// (§4.2.5). Array operands are never combined.
func evalPrimOpAssocL(lhs, rhs sem.Sem) sem.Sem {
	if a, ok := litString(lhs); ok {
		if b, ok := litString(rhs); ok {
			return litSem(sem.LitString{Value: a + b})
		}
	}

	appendOp := ir.BinOp{Kind: ir.BinStringAppend}

	if outer, ok := lhs.(*sem.NeutPrimOpBinary); ok && outer.Op.Kind == ir.BinStringAppend {
		if combined, ok := tryFoldStringPair(outer.Rhs, rhs); ok {
			return &sem.NeutPrimOpBinary{Op: appendOp, Lhs: outer.Lhs, Rhs: combined}
		}
	}
	if outer, ok := rhs.(*sem.NeutPrimOpBinary); ok && outer.Op.Kind == ir.BinStringAppend {
		if combined, ok := tryFoldStringPair(lhs, outer.Lhs); ok {
			return &sem.NeutPrimOpBinary{Op: appendOp, Lhs: combined, Rhs: outer.Rhs}
		}
	}

	return &sem.NeutPrimOpBinary{Op: appendOp, Lhs: lhs, Rhs: rhs}
}

func tryFoldStringPair(a, b sem.Sem) (sem.Sem, bool) {
	sa, ok1 := litString(a)
	sb, ok2 := litString(b)
	if !ok1 || !ok2 {
		return nil, false
	}
	return litSem(sem.LitString{Value: sa + sb}), true
}

// ---- literal extraction/construction helpers ----

func litSem(v sem.Literal) sem.Sem { return &sem.NeutLit{Value: v} }

func litBool(v sem.Sem) (bool, bool) {
	l, ok := v.(*sem.NeutLit)
	if !ok {
		return false, false
	}
	b, ok := l.Value.(sem.LitBool)
	return b.Value, ok
}

func litInt32(v sem.Sem) (int32, bool) {
	l, ok := v.(*sem.NeutLit)
	if !ok {
		return 0, false
	}
	n, ok := l.Value.(sem.LitInt32)
	return n.Value, ok
}

func litFloat(v sem.Sem) (float64, bool) {
	l, ok := v.(*sem.NeutLit)
	if !ok {
		return 0, false
	}
	n, ok := l.Value.(sem.LitNumber)
	return n.Value, ok
}

func litChar(v sem.Sem) (rune, bool) {
	l, ok := v.(*sem.NeutLit)
	if !ok {
		return 0, false
	}
	c, ok := l.Value.(sem.LitChar)
	return c.Value, ok
}

func litString(v sem.Sem) (string, bool) {
	l, ok := v.(*sem.NeutLit)
	if !ok {
		return "", false
	}
	s, ok := l.Value.(sem.LitString)
	return s.Value, ok
}
