package prop

import (
	"fmt"

	"github.com/cottand/lemma/core/check"
	"github.com/cottand/lemma/core/lerr"
)

// TypeCheck checks that the terms in p are well typed, when the variables in scope
// have their types: both sides of an equality have the same type, quantifiers range
// over declared types, and predicates are applied to indices of their declared types.
func (r *Registry) TypeCheck(ty *check.Typer, scope check.Scope, p Prop) error {
	return r.typeCheck(ty, scope, p, nil)
}

// typeCheck is TypeCheck where declaring is a family which is not registered yet,
// so that its rules can mention it
func (r *Registry) typeCheck(ty *check.Typer, scope check.Scope, p Prop, declaring *Family) error {
	switch p := p.(type) {
	case *Eq:
		left, err := ty.Infer(scope, p.Left)
		if err != nil {
			return err
		}
		return ty.Check(scope, p.Right, left)
	case *Truth, *Falsity:
		return nil
	case *And:
		return firstError(r.typeCheck(ty, scope, p.Left, declaring), r.typeCheck(ty, scope, p.Right, declaring))
	case *Or:
		return firstError(r.typeCheck(ty, scope, p.Left, declaring), r.typeCheck(ty, scope, p.Right, declaring))
	case *Implies:
		return firstError(r.typeCheck(ty, scope, p.Premise, declaring), r.typeCheck(ty, scope, p.Conclusion, declaring))
	case *Not:
		return r.typeCheck(ty, scope, p.Negated, declaring)
	case *ForAll:
		if err := r.checkType(p.Var, p.Type); err != nil {
			return err
		}
		return r.typeCheck(ty, scope.With(p.Var, p.Type), p.Body, declaring)
	case *Exists:
		if err := r.checkType(p.Var, p.Type); err != nil {
			return err
		}
		return r.typeCheck(ty, scope.With(p.Var, p.Type), p.Body, declaring)
	case *Pred:
		family := declaring
		if family == nil || family.Name != p.Name {
			var err error
			if family, err = r.Lookup(p.Name); err != nil {
				return err
			}
		}
		if len(p.Args) != len(family.IndexTypes) {
			return r.malformed(p.String(), "'%s' has %d indices but is applied to %d", p.Name, len(family.IndexTypes), len(p.Args))
		}
		indexTypes := ty.Instantiate(family.IndexTypes...)
		for i, arg := range p.Args {
			if err := ty.Check(scope, arg, indexTypes[i]); err != nil {
				return err
			}
		}
		return nil
	default:
		return lerr.New(lerr.MalformedDefinitionError{Name: fmt.Sprint(p), Reason: fmt.Sprintf("unknown proposition %T", p)})
	}
}
