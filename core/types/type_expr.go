package types

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

var (
	_ TypeExpr = (*Named)(nil)
	_ TypeExpr = (*Param)(nil)
	_ TypeExpr = (*Arrow)(nil)
)

// TypeExpr is the syntax of types:
//
//	Named:  a declared inductive type applied to type arguments, like `list day`
//	Param:  a type parameter, like the X in `list X`
//	Arrow:  a function type. No values of function type can be built,
//	        it exists so that constructor arguments can be checked for strict positivity
type TypeExpr interface {
	fmt.Stringer
	typeExpr()
}

type Named struct {
	Name string
	Args []TypeExpr
}

type Param struct {
	Name string
}

type Arrow struct {
	From, To TypeExpr
}

func (*Named) typeExpr() {}
func (*Param) typeExpr() {}
func (*Arrow) typeExpr() {}

// T builds a Named type
func T(name string, args ...TypeExpr) *Named { return &Named{Name: name, Args: args} }

// Var builds a type Param
func Var(name string) *Param { return &Param{Name: name} }

// Func builds a curried Arrow type ending in the last element of ts
func Func(ts ...TypeExpr) TypeExpr {
	if len(ts) == 0 {
		panic("Func needs at least one type")
	}
	if len(ts) == 1 {
		return ts[0]
	}
	return &Arrow{From: ts[0], To: Func(ts[1:]...)}
}

func (t *Named) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	args := lo.Map(t.Args, func(arg TypeExpr, _ int) string {
		if named, ok := arg.(*Named); ok && len(named.Args) == 0 {
			return named.String()
		}
		if _, ok := arg.(*Param); ok {
			return arg.String()
		}
		return "(" + arg.String() + ")"
	})
	return t.Name + " " + strings.Join(args, " ")
}

func (t *Param) String() string { return t.Name }

func (t *Arrow) String() string {
	if _, ok := t.From.(*Arrow); ok {
		return "(" + t.From.String() + ") -> " + t.To.String()
	}
	return t.From.String() + " -> " + t.To.String()
}

// Equal is structural equality of type expressions
func Equal(a, b TypeExpr) bool {
	switch a := a.(type) {
	case *Named:
		b, ok := b.(*Named)
		return ok && a.Name == b.Name && slices.EqualFunc(a.Args, b.Args, Equal)
	case *Param:
		b, ok := b.(*Param)
		return ok && a.Name == b.Name
	case *Arrow:
		b, ok := b.(*Arrow)
		return ok && Equal(a.From, b.From) && Equal(a.To, b.To)
	case nil:
		return b == nil
	default:
		panic(fmt.Sprintf("unreachable: unknown type expression %T", a))
	}
}

// Subst replaces the Params of t which are present in with
func Subst(t TypeExpr, with map[string]TypeExpr) TypeExpr {
	if len(with) == 0 {
		return t
	}
	switch t := t.(type) {
	case *Named:
		if len(t.Args) == 0 {
			return t
		}
		return &Named{Name: t.Name, Args: lo.Map(t.Args, func(arg TypeExpr, _ int) TypeExpr { return Subst(arg, with) })}
	case *Param:
		if replacement, ok := with[t.Name]; ok {
			return replacement
		}
		return t
	case *Arrow:
		return &Arrow{From: Subst(t.From, with), To: Subst(t.To, with)}
	default:
		panic(fmt.Sprintf("unreachable: unknown type expression %T", t))
	}
}

// Params returns the names of the type parameters in t, in order of first appearance
func Params(t TypeExpr) []string {
	var names []string
	var walk func(TypeExpr)
	walk = func(t TypeExpr) {
		switch t := t.(type) {
		case *Named:
			for _, arg := range t.Args {
				walk(arg)
			}
		case *Param:
			if !slices.Contains(names, t.Name) {
				names = append(names, t.Name)
			}
		case *Arrow:
			walk(t.From)
			walk(t.To)
		}
	}
	walk(t)
	return names
}

// Head returns the name of the inductive type t refers to, if t is Named
func Head(t TypeExpr) (string, bool) {
	named, ok := t.(*Named)
	if !ok {
		return "", false
	}
	return named.Name, true
}
