package prop

import (
	"fmt"

	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/core/types"
	"github.com/cottand/lemma/util"
	"github.com/hashicorp/go-set/v3"
	"github.com/samber/lo"
)

// FreeVars returns the term variables of p which are not bound by a quantifier in p
func FreeVars(p Prop) *set.Set[string] {
	switch p := p.(type) {
	case *Eq:
		free := term.FreeVars(p.Left)
		free.InsertSet(term.FreeVars(p.Right))
		return free
	case *Truth, *Falsity:
		return set.New[string](0)
	case *And:
		return union(FreeVars(p.Left), FreeVars(p.Right))
	case *Or:
		return union(FreeVars(p.Left), FreeVars(p.Right))
	case *Implies:
		return union(FreeVars(p.Premise), FreeVars(p.Conclusion))
	case *Not:
		return FreeVars(p.Negated)
	case *ForAll:
		free := FreeVars(p.Body)
		free.Remove(p.Var)
		return free
	case *Exists:
		free := FreeVars(p.Body)
		free.Remove(p.Var)
		return free
	case *Pred:
		free := set.New[string](len(p.Args))
		for _, arg := range p.Args {
			free.InsertSet(term.FreeVars(arg))
		}
		return free
	default:
		panic(fmt.Sprintf("unreachable: unknown proposition %T", p))
	}
}

// Mentions reports whether the variable name occurs free in p
func Mentions(p Prop, name string) bool {
	return FreeVars(p).Contains(name)
}

// MapTerms applies f to every term in p, including those under quantifiers
func MapTerms(p Prop, f func(term.Term) term.Term) Prop {
	switch p := p.(type) {
	case *Eq:
		return Equals(f(p.Left), f(p.Right))
	case *Truth, *Falsity:
		return p
	case *And:
		return Conj(MapTerms(p.Left, f), MapTerms(p.Right, f))
	case *Or:
		return Disj(MapTerms(p.Left, f), MapTerms(p.Right, f))
	case *Implies:
		return &Implies{Premise: MapTerms(p.Premise, f), Conclusion: MapTerms(p.Conclusion, f)}
	case *Not:
		return Neg(MapTerms(p.Negated, f))
	case *ForAll:
		return Forall(p.Var, p.Type, MapTerms(p.Body, f))
	case *Exists:
		return Exist(p.Var, p.Type, MapTerms(p.Body, f))
	case *Pred:
		return Holds(p.Name, lo.Map(p.Args, func(arg term.Term, _ int) term.Term { return f(arg) })...)
	default:
		panic(fmt.Sprintf("unreachable: unknown proposition %T", p))
	}
}

// Subst replaces the free occurrences of the variable name in p by t.
// Quantifiers which would capture a free variable of t are renamed.
func Subst(p Prop, name string, t term.Term) Prop {
	return SubstAll(p, map[string]term.Term{name: t})
}

// SubstAll replaces the free variables of p which are keys of with, simultaneously
func SubstAll(p Prop, with map[string]term.Term) Prop {
	if len(with) == 0 {
		return p
	}
	switch p := p.(type) {
	case *Eq:
		return Equals(term.Subst(p.Left, with), term.Subst(p.Right, with))
	case *Truth, *Falsity:
		return p
	case *And:
		return Conj(SubstAll(p.Left, with), SubstAll(p.Right, with))
	case *Or:
		return Disj(SubstAll(p.Left, with), SubstAll(p.Right, with))
	case *Implies:
		return &Implies{Premise: SubstAll(p.Premise, with), Conclusion: SubstAll(p.Conclusion, with)}
	case *Not:
		return Neg(SubstAll(p.Negated, with))
	case *ForAll:
		name, body := substUnder(p.Var, p.Body, with)
		return Forall(name, p.Type, body)
	case *Exists:
		name, body := substUnder(p.Var, p.Body, with)
		return Exist(name, p.Type, body)
	case *Pred:
		return Holds(p.Name, lo.Map(p.Args, func(arg term.Term, _ int) term.Term { return term.Subst(arg, with) })...)
	default:
		panic(fmt.Sprintf("unreachable: unknown proposition %T", p))
	}
}

// substUnder substitutes in the body of a quantifier binding name,
// and returns the possibly renamed bound variable with the new body
func substUnder(name string, body Prop, with map[string]term.Term) (string, Prop) {
	inner := make(map[string]term.Term, len(with))
	replacementVars := set.New[string](len(with))
	bodyVars := FreeVars(body)
	for k, v := range with {
		if k == name || !bodyVars.Contains(k) {
			continue
		}
		inner[k] = v
		replacementVars.InsertSet(term.FreeVars(v))
	}
	if len(inner) == 0 {
		return name, body
	}
	if replacementVars.Contains(name) {
		used := union(bodyVars, replacementVars)
		fresh := util.FreshName(name, used)
		inner[name] = term.V(fresh)
		logger.Debug("renamed bound variable to avoid capture", "from", name, "to", fresh)
		name = fresh
	}
	return name, SubstAll(body, inner)
}

// Rewrite replaces every occurrence of the term from in p by to, and reports whether any happened.
// Quantifiers binding a variable of from or to are not looked under.
func Rewrite(p Prop, from, to term.Term) (Prop, bool) {
	blocked := union(term.FreeVars(from), term.FreeVars(to))
	changed := false
	replace := func(t term.Term) term.Term {
		replaced, ok := term.Replace(t, from, to)
		changed = changed || ok
		return replaced
	}
	var rewrite func(Prop) Prop
	rewrite = func(p Prop) Prop {
		switch p := p.(type) {
		case *Eq:
			return Equals(replace(p.Left), replace(p.Right))
		case *Truth, *Falsity:
			return p
		case *And:
			return Conj(rewrite(p.Left), rewrite(p.Right))
		case *Or:
			return Disj(rewrite(p.Left), rewrite(p.Right))
		case *Implies:
			return &Implies{Premise: rewrite(p.Premise), Conclusion: rewrite(p.Conclusion)}
		case *Not:
			return Neg(rewrite(p.Negated))
		case *ForAll:
			if blocked.Contains(p.Var) {
				return p
			}
			return Forall(p.Var, p.Type, rewrite(p.Body))
		case *Exists:
			if blocked.Contains(p.Var) {
				return p
			}
			return Exist(p.Var, p.Type, rewrite(p.Body))
		case *Pred:
			return Holds(p.Name, lo.Map(p.Args, func(arg term.Term, _ int) term.Term { return replace(arg) })...)
		default:
			panic(fmt.Sprintf("unreachable: unknown proposition %T", p))
		}
	}
	rewritten := rewrite(p)
	return rewritten, changed
}

// Equal is equality up to the names of quantified variables
func Equal(a, b Prop) bool {
	switch a := a.(type) {
	case *Eq:
		b, ok := b.(*Eq)
		return ok && term.Equal(a.Left, b.Left) && term.Equal(a.Right, b.Right)
	case *Truth:
		_, ok := b.(*Truth)
		return ok
	case *Falsity:
		_, ok := b.(*Falsity)
		return ok
	case *And:
		b, ok := b.(*And)
		return ok && Equal(a.Left, b.Left) && Equal(a.Right, b.Right)
	case *Or:
		b, ok := b.(*Or)
		return ok && Equal(a.Left, b.Left) && Equal(a.Right, b.Right)
	case *Implies:
		b, ok := b.(*Implies)
		return ok && Equal(a.Premise, b.Premise) && Equal(a.Conclusion, b.Conclusion)
	case *Not:
		b, ok := b.(*Not)
		return ok && Equal(a.Negated, b.Negated)
	case *ForAll:
		b, ok := b.(*ForAll)
		if !ok || !types.Equal(a.Type, b.Type) {
			return false
		}
		bodyA, bodyB := alignBound(a.Var, a.Body, b.Var, b.Body)
		return Equal(bodyA, bodyB)
	case *Exists:
		b, ok := b.(*Exists)
		if !ok || !types.Equal(a.Type, b.Type) {
			return false
		}
		bodyA, bodyB := alignBound(a.Var, a.Body, b.Var, b.Body)
		return Equal(bodyA, bodyB)
	case *Pred:
		b, ok := b.(*Pred)
		if !ok || a.Name != b.Name || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !term.Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	default:
		panic(fmt.Sprintf("unreachable: unknown proposition %T", a))
	}
}

// alignBound renames the bound variables of two quantifier bodies to the same fresh name
func alignBound(nameA string, bodyA Prop, nameB string, bodyB Prop) (Prop, Prop) {
	if nameA == nameB {
		return bodyA, bodyB
	}
	used := union(FreeVars(bodyA), FreeVars(bodyB))
	used.Insert(nameA)
	used.Insert(nameB)
	common := term.V(util.FreshName(nameA, used))
	return Subst(bodyA, nameA, common), Subst(bodyB, nameB, common)
}

func union(a, b *set.Set[string]) *set.Set[string] {
	u := a.Copy()
	u.InsertSet(b)
	return u
}
