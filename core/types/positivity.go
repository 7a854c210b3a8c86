package types

import (
	"fmt"

	"github.com/cottand/lemma/core/lerr"
)

// checkPositive fails when typ occurs in arg anywhere other than a strictly positive position.
//
// typ may not appear to the left of an Arrow, and may only appear as the
// argument of another type if that type uses the corresponding parameter
// strictly positively itself. This guarantees that values of typ are finite trees.
func (r *Registry) checkPositive(current *snapshot, typ *InductiveType, ctor *Constructor, arg TypeExpr) error {
	if !strictlyPositive(current, typ.Name, typ.Name, arg) {
		return lerr.New(lerr.PositivityError{
			Type:        typ.Name,
			Constructor: ctor.Name,
			Occurrence:  arg.String(),
		})
	}
	return nil
}

// strictlyPositive reports whether every occurrence of name in t (as a
// Named type or as a Param) is strictly positive.
//
// self is the type whose constructor t is an argument of. Occurrences of self are
// uniform (see checkWellFormed) and are not looked into again.
func strictlyPositive(current *snapshot, name, self string, t TypeExpr) bool {
	switch t := t.(type) {
	case *Param:
		return true
	case *Arrow:
		return !mentions(t.From, name) && strictlyPositive(current, name, self, t.To)
	case *Named:
		if t.Name == name || t.Name == self {
			return true
		}
		other, ok := current.types.Get(t.Name)
		if !ok {
			// checkWellFormed reports unknown types
			return true
		}
		for i, typeArg := range t.Args {
			if !mentions(typeArg, name) {
				continue
			}
			if i >= len(other.Params) || !paramStrictlyPositive(current, other, other.Params[i]) {
				return false
			}
			if !strictlyPositive(current, name, self, typeArg) {
				return false
			}
		}
		return true
	default:
		panic(fmt.Sprintf("unreachable: unknown type expression %T", t))
	}
}

// paramStrictlyPositive reports whether the parameter param of typ only occurs strictly positively
// in the arguments of typ's constructors
func paramStrictlyPositive(current *snapshot, typ *InductiveType, param string) bool {
	for _, ctor := range typ.Constructors {
		for _, arg := range ctor.Args {
			if !strictlyPositive(current, param, typ.Name, arg) {
				return false
			}
		}
	}
	return true
}

func mentions(t TypeExpr, name string) bool {
	switch t := t.(type) {
	case *Param:
		return t.Name == name
	case *Arrow:
		return mentions(t.From, name) || mentions(t.To, name)
	case *Named:
		if t.Name == name {
			return true
		}
		for _, arg := range t.Args {
			if mentions(arg, name) {
				return true
			}
		}
		return false
	default:
		panic(fmt.Sprintf("unreachable: unknown type expression %T", t))
	}
}
