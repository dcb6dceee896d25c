// Package diag collects the fatal diagnostic error types of §7: small
// exported structs with an Error() string method, the same shape the
// teacher uses for its own structured errors (e.g.
// typesystem.SymbolNotFoundError, evaluator.Error). None of these are
// used for ordinary control flow — a well-formed, well-typed program
// never triggers one; they exist to fail loudly and with enough context
// to find the offending declaration when the optimizer's own invariants
// are violated.
package diag

import (
	"fmt"

	"github.com/nbecore/optcore/internal/ir"
)

// UnboundLocalError is raised when Local(id, lvl) has no corresponding
// env.locals entry: a programmer IR bug (§7), never a property of
// well-formed input.
type UnboundLocalError struct {
	Decl  ir.Qualified
	Level ir.Level
	Id    string
}

func (e *UnboundLocalError) Error() string {
	name := e.Id
	if name == "" {
		name = "<anon>"
	}
	return fmt.Sprintf("optcore: unbound local %s@%d while compiling %s", name, e.Level, e.Decl)
}

// EmptyRecGroupError is raised when a LetRec or implementation group
// would otherwise have zero bindings, which the data model never
// produces from well-formed input (§3 "Empty list is impossible by
// construction").
type EmptyRecGroupError struct {
	Decl ir.Qualified
}

func (e *EmptyRecGroupError) Error() string {
	return fmt.Sprintf("optcore: empty recursive binding group while compiling %s", e.Decl)
}

// ImpossiblePatternOpError is raised by a pattern-match decision
// procedure operation (branch-stack manipulation) that the evaluator's
// own invariants say cannot occur for well-typed input, e.g. committing
// to a branch pair whose Try has already been exhausted.
type ImpossiblePatternOpError struct {
	Decl ir.Qualified
	Op   string
}

func (e *ImpossiblePatternOpError) Error() string {
	return fmt.Sprintf("optcore: impossible pattern-match operation %q while compiling %s", e.Op, e.Decl)
}

// RewriteLimitExceededError is raised by Optimize (§4.5, §5) when a
// declaration's evaluate/quote/build fixpoint fails to converge within
// rewriteLimit iterations. History carries the last few distinct
// rewrite-site descriptions seen, so the error identifies not just which
// declaration but roughly where the oscillation lives.
type RewriteLimitExceededError struct {
	Decl      ir.Qualified
	Limit     int
	Iteration int
	History   []string
}

func (e *RewriteLimitExceededError) Error() string {
	return fmt.Sprintf(
		"optcore: rewrite limit (%d) exceeded at iteration %d while compiling %s; recent rewrite sites: %v",
		e.Limit, e.Iteration, e.Decl, e.History,
	)
}
