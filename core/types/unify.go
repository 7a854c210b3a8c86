package types

import (
	"fmt"
	"slices"
)

// Unifier solves equations between type expressions, treating every Param as a variable
type Unifier struct {
	subst map[string]TypeExpr
}

func NewUnifier() *Unifier {
	return &Unifier{subst: make(map[string]TypeExpr)}
}

// Resolve applies the current solution to t
func (u *Unifier) Resolve(t TypeExpr) TypeExpr {
	switch t := t.(type) {
	case *Param:
		if bound, ok := u.subst[t.Name]; ok {
			return u.Resolve(bound)
		}
		return t
	case *Named:
		if len(t.Args) == 0 {
			return t
		}
		args := make([]TypeExpr, len(t.Args))
		for i, arg := range t.Args {
			args[i] = u.Resolve(arg)
		}
		return &Named{Name: t.Name, Args: args}
	case *Arrow:
		return &Arrow{From: u.Resolve(t.From), To: u.Resolve(t.To)}
	default:
		panic(fmt.Sprintf("unreachable: unknown type expression %T", t))
	}
}

// Unify extends the current solution so that a and b are equal, and reports whether this is possible.
// When it is not, the solution may be partially extended and should be discarded.
func (u *Unifier) Unify(a, b TypeExpr) bool {
	a, b = u.Resolve(a), u.Resolve(b)
	if pa, ok := a.(*Param); ok {
		return u.bind(pa, b)
	}
	if pb, ok := b.(*Param); ok {
		return u.bind(pb, a)
	}
	switch a := a.(type) {
	case *Named:
		b, ok := b.(*Named)
		if !ok || a.Name != b.Name || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !u.Unify(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case *Arrow:
		b, ok := b.(*Arrow)
		return ok && u.Unify(a.From, b.From) && u.Unify(a.To, b.To)
	default:
		panic(fmt.Sprintf("unreachable: unknown type expression %T", a))
	}
}

func (u *Unifier) bind(p *Param, t TypeExpr) bool {
	if other, ok := t.(*Param); ok && other.Name == p.Name {
		return true
	}
	if slices.Contains(Params(t), p.Name) {
		// occurs check
		return false
	}
	u.subst[p.Name] = t
	return true
}

// Rename returns t with every Param renamed by prefixing it, which is used to
// keep the variables of two type expressions apart before unifying them
func Rename(t TypeExpr, prefix string) TypeExpr {
	with := make(map[string]TypeExpr)
	for _, name := range Params(t) {
		with[name] = Var(prefix + name)
	}
	return Subst(t, with)
}
