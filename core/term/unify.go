package term

import (
	"strings"

	"github.com/cottand/lemma/util"
	"github.com/samber/lo"
)

// MetaPrefix starts the name of every metavariable. No user-chosen name can start with it.
const MetaPrefix = "?"

// Meta returns the metavariable standing for name
func Meta(name string) *Var { return V(MetaPrefix + name) }

func IsMeta(t Term) bool {
	v, ok := t.(*Var)
	return ok && strings.HasPrefix(v.Name, MetaPrefix)
}

// Unifier solves equations between terms by binding metavariables (see Meta).
// Every other variable is rigid: it is only equal to itself.
//
// When residuals are allowed, equations which can neither be solved nor refuted
// structurally (such as a rigid variable against a constructor application) are
// recorded in Residual instead of failing. Equations between different constructors
// always fail, since distinct constructors never build equal values.
type Unifier struct {
	bindings      map[string]Term
	allowResidual bool
	Residual      []util.Pair[Term, Term]
}

func NewUnifier(allowResidual bool) *Unifier {
	return &Unifier{
		bindings:      make(map[string]Term),
		allowResidual: allowResidual,
	}
}

// Bound returns the solution for the metavariable m, if any
func (u *Unifier) Bound(m *Var) (Term, bool) {
	t, ok := u.bindings[m.Name]
	if !ok {
		return nil, false
	}
	return u.Resolve(t), true
}

// Resolve replaces every solved metavariable in t
func (u *Unifier) Resolve(t Term) Term {
	if len(u.bindings) == 0 {
		return t
	}
	switch t := t.(type) {
	case *Var:
		if bound, ok := u.bindings[t.Name]; ok {
			return u.Resolve(bound)
		}
		return t
	case *Ctor:
		return C(t.Name, lo.Map(t.Args, func(arg Term, _ int) Term { return u.Resolve(arg) })...)
	case *App:
		return Call(t.Func, lo.Map(t.Args, func(arg Term, _ int) Term { return u.Resolve(arg) })...)
	default:
		return t
	}
}

func (u *Unifier) Unify(a, b Term) bool {
	a, b = u.Resolve(a), u.Resolve(b)
	if Equal(a, b) {
		return true
	}
	if IsMeta(a) {
		return u.bind(a.(*Var), b)
	}
	if IsMeta(b) {
		return u.bind(b.(*Var), a)
	}
	nameA, argsA, isCtorA := AsConstructor(a)
	nameB, argsB, isCtorB := AsConstructor(b)
	if isCtorA && isCtorB {
		if nameA != nameB || len(argsA) != len(argsB) {
			return false
		}
		for i := range argsA {
			if !u.Unify(argsA[i], argsB[i]) {
				return false
			}
		}
		return true
	}
	if appA, ok := a.(*App); ok {
		if appB, ok := b.(*App); ok && appA.Func == appB.Func && len(appA.Args) == len(appB.Args) {
			// a solution of the arguments is a solution of the applications, but
			// not the only one, so fall back to a residual when it does not exist
			saved := u.save()
			allArgs := true
			for i := range appA.Args {
				if !u.Unify(appA.Args[i], appB.Args[i]) {
					allArgs = false
					break
				}
			}
			if allArgs {
				return true
			}
			u.restore(saved)
		}
	}
	if !u.allowResidual {
		return false
	}
	u.Residual = append(u.Residual, util.NewPair(a, b))
	return true
}

func (u *Unifier) bind(m *Var, t Term) bool {
	if Mentions(t, m.Name) {
		return false
	}
	u.bindings[m.Name] = t
	return true
}

type unifierState struct {
	bindings map[string]Term
	residual int
}

func (u *Unifier) save() unifierState {
	copied := make(map[string]Term, len(u.bindings))
	for k, v := range u.bindings {
		copied[k] = v
	}
	return unifierState{bindings: copied, residual: len(u.Residual)}
}

func (u *Unifier) restore(s unifierState) {
	u.bindings = s.bindings
	u.Residual = u.Residual[:s.residual]
}
