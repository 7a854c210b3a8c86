package term

import (
	"fmt"
	"slices"

	"github.com/cottand/lemma/util"
	"github.com/hashicorp/go-set/v3"
	"github.com/samber/lo"
)

// Equal is structural equality. Since nat constructors are folded into literals
// by C, equal values are always syntactically equal.
func Equal(a, b Term) bool {
	switch a := a.(type) {
	case *Var:
		b, ok := b.(*Var)
		return ok && a.Name == b.Name
	case *Lit:
		b, ok := b.(*Lit)
		return ok && a.N == b.N
	case *Ctor:
		b, ok := b.(*Ctor)
		return ok && a.Name == b.Name && slices.EqualFunc(a.Args, b.Args, Equal)
	case *App:
		b, ok := b.(*App)
		return ok && a.Func == b.Func && slices.EqualFunc(a.Args, b.Args, Equal)
	case *Match:
		b, ok := b.(*Match)
		// matches are compared syntactically, without renaming pattern variables
		return ok && a.String() == b.String()
	default:
		panic(fmt.Sprintf("unreachable: unknown term %T", a))
	}
}

// FreeVars returns the variables of t which are not bound by a pattern in t
func FreeVars(t Term) *set.Set[string] {
	free := set.New[string](4)
	collectFree(t, free, util.NewEmptySet[string]())
	return free
}

func collectFree(t Term, free *set.Set[string], bound util.MSet[string]) {
	switch t := t.(type) {
	case *Var:
		if !bound.Contains(t.Name) {
			free.Insert(t.Name)
		}
	case *Lit:
	case *Ctor:
		for _, arg := range t.Args {
			collectFree(arg, free, bound)
		}
	case *App:
		for _, arg := range t.Args {
			collectFree(arg, free, bound)
		}
	case *Match:
		for _, s := range t.Scrutinees {
			collectFree(s, free, bound)
		}
		for _, arm := range t.Arms {
			armBound := bound.Copy()
			for _, p := range arm.Patterns {
				armBound.Add(PatternVars(p)...)
			}
			collectFree(arm.Body, free, armBound)
		}
	default:
		panic(fmt.Sprintf("unreachable: unknown term %T", t))
	}
}

// Mentions reports whether the variable name occurs free in t
func Mentions(t Term, name string) bool {
	return FreeVars(t).Contains(name)
}

// Subst replaces the free variables of t which are keys of with.
// Pattern variables which would capture a free variable of a replacement are renamed.
func Subst(t Term, with map[string]Term) Term {
	if len(with) == 0 {
		return t
	}
	switch t := t.(type) {
	case *Var:
		if replacement, ok := with[t.Name]; ok {
			return replacement
		}
		return t
	case *Lit:
		return t
	case *Ctor:
		return C(t.Name, substAll(t.Args, with)...)
	case *App:
		return Call(t.Func, substAll(t.Args, with)...)
	case *Match:
		return substMatch(t, with)
	default:
		panic(fmt.Sprintf("unreachable: unknown term %T", t))
	}
}

func substAll(ts []Term, with map[string]Term) []Term {
	return lo.Map(ts, func(t Term, _ int) Term { return Subst(t, with) })
}

func substMatch(t *Match, with map[string]Term) *Match {
	replacementVars := set.New[string](len(with))
	for _, replacement := range with {
		replacementVars.InsertSet(FreeVars(replacement))
	}
	arms := make([]Arm, len(t.Arms))
	for i, arm := range t.Arms {
		armWith := make(map[string]Term, len(with))
		for k, v := range with {
			armWith[k] = v
		}
		used := FreeVars(arm.Body)
		used.InsertSet(replacementVars)
		renames := make(map[string]string)
		for _, p := range arm.Patterns {
			for _, name := range PatternVars(p) {
				// the pattern shadows name
				delete(armWith, name)
				used.Insert(name)
				if replacementVars.Contains(name) {
					fresh := util.FreshName(name, used)
					used.Insert(fresh)
					renames[name] = fresh
					armWith[name] = V(fresh)
				}
			}
		}
		arms[i] = Arm{
			Patterns: lo.Map(arm.Patterns, func(p Pattern, _ int) Pattern { return renamePattern(p, renames) }),
			Body:     Subst(arm.Body, armWith),
		}
	}
	return &Match{Scrutinees: substAll(t.Scrutinees, with), Arms: arms}
}

func renamePattern(p Pattern, renames map[string]string) Pattern {
	if len(renames) == 0 {
		return p
	}
	switch p := p.(type) {
	case *PVar:
		if renamed, ok := renames[p.Name]; ok {
			return PV(renamed)
		}
		return p
	case *PCtor:
		return PC(p.Name, lo.Map(p.Args, func(arg Pattern, _ int) Pattern { return renamePattern(arg, renames) })...)
	default:
		return p
	}
}

// Replace returns t with every subterm equal to from replaced by to, and
// whether any replacement happened.
// Matches are not looked into, since from could mention pattern variables.
func Replace(t, from, to Term) (Term, bool) {
	if Equal(t, from) {
		return to, true
	}
	switch t := t.(type) {
	case *Ctor:
		args, changed := replaceAll(t.Args, from, to)
		if !changed {
			return t, false
		}
		return C(t.Name, args...), true
	case *App:
		args, changed := replaceAll(t.Args, from, to)
		if !changed {
			return t, false
		}
		return Call(t.Func, args...), true
	default:
		return t, false
	}
}

func replaceAll(ts []Term, from, to Term) ([]Term, bool) {
	anyChanged := false
	replaced := make([]Term, len(ts))
	for i, t := range ts {
		var changed bool
		replaced[i], changed = Replace(t, from, to)
		anyChanged = anyChanged || changed
	}
	return replaced, anyChanged
}
