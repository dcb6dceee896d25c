package build

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/nbecore/optcore/internal/expr"
	"github.com/nbecore/optcore/internal/ir"
)

// The golden fixtures under testdata/ describe a tiny nesting expression
// in a toy call-shaped DSL, run it through this package's smart
// constructors, and dump the result as an s-expression. This exercises
// the same flattening rules §4.4 rule 1 and rule 2 describe, without
// pinning the test to the Analysis bookkeeping every constructor also
// produces.
func TestGoldenRewrites(t *testing.T) {
	files := []string{"testdata/app_flatten.txtar", "testdata/abs_flatten.txtar"}
	for _, f := range files {
		f := f
		t.Run(f, func(t *testing.T) {
			a, err := txtar.ParseFile(f)
			if err != nil {
				t.Fatalf("ParseFile: %v", err)
			}
			input := findFile(a, "input")
			want := strings.TrimSpace(findFile(a, "want"))

			p := &dslParser{src: strings.TrimSpace(input)}
			e := p.parseExpr()
			if p.err != nil {
				t.Fatalf("parsing input: %v", p.err)
			}

			got := dump(e)
			if got != want {
				t.Fatalf("got  %s\nwant %s", got, want)
			}
		})
	}
}

func findFile(a *txtar.Archive, name string) string {
	for _, f := range a.Files {
		if f.Name == name {
			return string(f.Data)
		}
	}
	return ""
}

// dump renders e as a minimal s-expression for golden comparison.
func dump(e expr.Expr) string {
	switch n := e.(type) {
	case *expr.Var:
		return fmt.Sprintf("(var %s)", n.Q.Name.Name())
	case *expr.Local:
		return fmt.Sprintf("(local %d)", n.Level)
	case *expr.App:
		parts := []string{"app", dump(n.Head)}
		for _, a := range n.Args {
			parts = append(parts, dump(a))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *expr.Abs:
		levels := make([]string, len(n.Params))
		for i, p := range n.Params {
			levels[i] = strconv.FormatUint(uint64(p.Level), 10)
		}
		return fmt.Sprintf("(abs (%s) %s)", strings.Join(levels, " "), dump(n.Body))
	default:
		return fmt.Sprintf("<%T>", n)
	}
}

// dslParser parses the tiny call-shaped fixture language:
//
//	expr    := "var(" NAME ")" | "local(" INT ")" | "app(" expr {"," expr} ")"
//	         | "abs(" "[" INT {"," INT} "]" "," expr ")"
type dslParser struct {
	src string
	pos int
	err error
}

func (p *dslParser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf(format, args...)
	}
}

func (p *dslParser) peek() byte {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *dslParser) expect(c byte) {
	if p.peek() != c {
		p.fail("expected %q at %d in %q", c, p.pos, p.src)
		return
	}
	p.pos++
}

func (p *dslParser) ident() string {
	p.peek()
	start := p.pos
	for p.pos < len(p.src) && (isAlnum(p.src[p.pos])) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func (p *dslParser) parseExpr() expr.Expr {
	if p.err != nil {
		return nil
	}
	name := p.ident()
	p.expect('(')
	switch name {
	case "var":
		id := p.ident()
		p.expect(')')
		return Var(ir.LocalQualified(ir.GlobalIdent(id)), ir.NewModuleName("Test"))
	case "local":
		n := p.int()
		p.expect(')')
		return Local(nil, ir.Level(n))
	case "app":
		head := p.parseExpr()
		var args []expr.Expr
		for p.peek() == ',' {
			p.expect(',')
			args = append(args, p.parseExpr())
		}
		p.expect(')')
		return App(head, args)
	case "abs":
		p.expect('[')
		var params []expr.Param
		params = append(params, expr.Param{Level: ir.Level(p.int())})
		for p.peek() == ',' {
			p.expect(',')
			params = append(params, expr.Param{Level: ir.Level(p.int())})
		}
		p.expect(']')
		p.expect(',')
		body := p.parseExpr()
		p.expect(')')
		return Abs(params, body)
	}
	p.fail("unknown form %q", name)
	return nil
}

func (p *dslParser) int() int {
	p.peek()
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	n, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil {
		p.fail("bad int at %d in %q", start, p.src)
	}
	return n
}
