package eval

import (
	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/core/types"
)

// FindByTypeShape returns the admitted functions whose signature unifies with query,
// in name order. Type parameters on both sides are treated as variables, so
// "list X -> nat" finds length, and "nat" finds constants of type nat.
func (e *Env) FindByTypeShape(query types.TypeExpr) []*term.FunctionDef {
	q := types.Rename(query, "?q.")
	var found []*term.FunctionDef
	for fd := range e.Functions() {
		u := types.NewUnifier()
		if u.Unify(q, types.Rename(fd.Signature(), "?f.")) {
			found = append(found, fd)
		}
	}
	logger.Debug("searched by type shape", "query", query.String(), "found", len(found))
	return found
}
