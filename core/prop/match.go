package prop

import (
	"fmt"
	"strings"

	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/core/types"
	"github.com/cottand/lemma/util"
)

// Match unifies pattern with target using u, so that metavariables (see term.Meta) in either
// side get bound. It reports whether the two propositions have the same shape and their
// terms can be unified. On failure, u may be partially extended.
func Match(pattern, target Prop, u *term.Unifier) bool {
	switch p := pattern.(type) {
	case *Eq:
		t, ok := target.(*Eq)
		return ok && u.Unify(p.Left, t.Left) && u.Unify(p.Right, t.Right)
	case *Truth:
		_, ok := target.(*Truth)
		return ok
	case *Falsity:
		_, ok := target.(*Falsity)
		return ok
	case *And:
		t, ok := target.(*And)
		return ok && Match(p.Left, t.Left, u) && Match(p.Right, t.Right, u)
	case *Or:
		t, ok := target.(*Or)
		return ok && Match(p.Left, t.Left, u) && Match(p.Right, t.Right, u)
	case *Implies:
		t, ok := target.(*Implies)
		return ok && Match(p.Premise, t.Premise, u) && Match(p.Conclusion, t.Conclusion, u)
	case *Not:
		t, ok := target.(*Not)
		return ok && Match(p.Negated, t.Negated, u)
	case *ForAll:
		t, ok := target.(*ForAll)
		if !ok || !types.Equal(p.Type, t.Type) {
			return false
		}
		bodyP, bodyT := alignBound(p.Var, p.Body, t.Var, t.Body)
		return Match(bodyP, bodyT, u)
	case *Exists:
		t, ok := target.(*Exists)
		if !ok || !types.Equal(p.Type, t.Type) {
			return false
		}
		bodyP, bodyT := alignBound(p.Var, p.Body, t.Var, t.Body)
		return Match(bodyP, bodyT, u)
	case *Pred:
		t, ok := target.(*Pred)
		if !ok || p.Name != t.Name || len(p.Args) != len(t.Args) {
			return false
		}
		for i := range p.Args {
			if !u.Unify(p.Args[i], t.Args[i]) {
				return false
			}
		}
		return true
	default:
		panic(fmt.Sprintf("unreachable: unknown proposition %T", p))
	}
}

// Resolve replaces the metavariables of p which u has solved
func Resolve(p Prop, u *term.Unifier) Prop {
	return MapTerms(p, u.Resolve)
}

// Metas returns the unsolved metavariables of p, without their prefix
func Metas(p Prop) []string {
	var found []string
	seen := util.NewEmptySet[string]()
	MapTerms(p, func(t term.Term) term.Term {
		for _, name := range util.SortedKeys(term.FreeVars(t)) {
			if strings.HasPrefix(name, term.MetaPrefix) && !seen.Contains(name) {
				seen.Add(name)
				found = append(found, strings.TrimPrefix(name, term.MetaPrefix))
			}
		}
		return t
	})
	return found
}

// Instantiate replaces the variables bound by the leading quantifiers of p with metavariables,
// and returns the names of the quantified variables with the instantiated body.
// For example, forall x y, P x y becomes P ?x ?y.
func Instantiate(p Prop) ([]string, Prop) {
	var names []string
	for {
		all, ok := p.(*ForAll)
		if !ok {
			return names, p
		}
		names = append(names, all.Var)
		p = Subst(all.Body, all.Var, term.Meta(all.Var))
	}
}
