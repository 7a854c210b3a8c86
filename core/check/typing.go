package check

import (
	"fmt"
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/lemma/core/lerr"
	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/core/types"
	"github.com/pkg/errors"
)

// flexiblePrefix starts the names of the type variables a Typer solves for.
// Every other Param is rigid: it stands for one type which is not known.
const flexiblePrefix = "?"

// rigidPrefix names the Named types that rigid Params are turned into, so that
// the unifier never binds them
const rigidPrefix = "'"

// Scope holds the types of the variables a term may mention
type Scope struct {
	vars *immutable.Map[string, types.TypeExpr]
}

func NewScope() Scope {
	return Scope{vars: immutable.NewMap[string, types.TypeExpr](nil)}
}

// With returns a copy of s where name has type t
func (s Scope) With(name string, t types.TypeExpr) Scope {
	if s.vars == nil {
		s = NewScope()
	}
	return Scope{vars: s.vars.Set(name, rigid(t))}
}

func (s Scope) Lookup(name string) (types.TypeExpr, bool) {
	if s.vars == nil {
		return nil, false
	}
	return s.vars.Get(name)
}

func rigid(t types.TypeExpr) types.TypeExpr {
	with := make(map[string]types.TypeExpr)
	for _, name := range types.Params(t) {
		if !strings.HasPrefix(name, flexiblePrefix) {
			with[name] = types.T(rigidPrefix + name)
		}
	}
	return types.Subst(t, with)
}

// display turns rigid types back into the Params they came from
func display(t types.TypeExpr) types.TypeExpr {
	switch t := t.(type) {
	case *types.Named:
		if name, ok := strings.CutPrefix(t.Name, rigidPrefix); ok {
			return types.Var(name)
		}
		args := make([]types.TypeExpr, len(t.Args))
		for i, arg := range t.Args {
			args[i] = display(arg)
		}
		return types.T(t.Name, args...)
	case *types.Arrow:
		return &types.Arrow{From: display(t.From), To: display(t.To)}
	default:
		return t
	}
}

// Typer infers the types of terms. This is simple first-order inference: the type
// parameters of constructors and functions are instantiated afresh at every use, and
// solved by unification. A Typer accumulates what it solves, so the terms checked by
// one Typer may share type variables, like the two sides of an equality.
type Typer struct {
	reg *types.Registry
	fns Functions
	// self is the definition being checked, which may call itself before it is admitted
	self *term.FunctionDef
	u    *types.Unifier
	next int
}

// NewTyper returns a Typer where functions are looked up in fns, which may be nil
// when terms may not call any function
func NewTyper(reg *types.Registry, fns Functions) *Typer {
	return &Typer{reg: reg, fns: fns, u: types.NewUnifier()}
}

// Instantiate renames the Params of ts to type variables which this Typer may solve.
// A Param which occurs in several of ts is renamed to the same variable in each.
func (ty *Typer) Instantiate(ts ...types.TypeExpr) []types.TypeExpr {
	ty.next++
	prefix := fmt.Sprintf("%s%d.", flexiblePrefix, ty.next)
	with := make(map[string]types.TypeExpr)
	for _, t := range ts {
		for _, name := range types.Params(t) {
			with[name] = types.Var(prefix + name)
		}
	}
	instantiated := make([]types.TypeExpr, len(ts))
	for i, t := range ts {
		instantiated[i] = types.Subst(t, with)
	}
	return instantiated
}

// Resolve returns t with everything solved so far substituted in
func (ty *Typer) Resolve(t types.TypeExpr) types.TypeExpr {
	return display(ty.u.Resolve(t))
}

// Check infers the type of t and unifies it with expected
func (ty *Typer) Check(scope Scope, t term.Term, expected types.TypeExpr) error {
	found, err := ty.Infer(scope, t)
	if err != nil {
		return err
	}
	return ty.expect(t, found, rigid(expected))
}

func (ty *Typer) expect(at fmt.Stringer, found, expected types.TypeExpr) error {
	if ty.u.Unify(found, expected) {
		return nil
	}
	return lerr.New(lerr.TypeMismatchError{
		Term:     at.String(),
		Expected: ty.Resolve(expected).String(),
		Found:    ty.Resolve(found).String(),
	})
}

// Infer returns the type of t, in which some type variables may remain unsolved
func (ty *Typer) Infer(scope Scope, t term.Term) (types.TypeExpr, error) {
	switch t := t.(type) {
	case *term.Var:
		typ, ok := scope.Lookup(t.Name)
		if !ok {
			return nil, lerr.New(lerr.MalformedDefinitionError{Name: t.Name, Reason: "variable is not bound"})
		}
		return typ, nil
	case *term.Lit:
		return types.NatType, nil
	case *term.Ctor:
		inductive, ctor, err := ty.reg.TypeOfConstructor(t.Name)
		if err != nil {
			return nil, err
		}
		self, argTypes := ty.constructor(inductive, ctor)
		if err := ty.arguments(scope, t, t.Name, t.Args, argTypes); err != nil {
			return nil, err
		}
		return self, nil
	case *term.App:
		fd, err := ty.function(t.Func)
		if err != nil {
			return nil, err
		}
		paramTypes := make([]types.TypeExpr, len(fd.Params)+1)
		for i, p := range fd.Params {
			paramTypes[i] = p.Type
		}
		paramTypes[len(fd.Params)] = fd.Result
		paramTypes = ty.Instantiate(paramTypes...)
		if err := ty.arguments(scope, t, t.Func, t.Args, paramTypes[:len(fd.Params)]); err != nil {
			return nil, err
		}
		return paramTypes[len(fd.Params)], nil
	case *term.Match:
		return ty.match(scope, t)
	default:
		return nil, lerr.New(lerr.MalformedDefinitionError{Name: fmt.Sprint(t), Reason: fmt.Sprintf("unknown term %T", t)})
	}
}

// constructor returns the type ctor builds, and the types of its arguments,
// with the parameters of inductive instantiated afresh
func (ty *Typer) constructor(inductive *types.InductiveType, ctor *types.Constructor) (types.TypeExpr, []types.TypeExpr) {
	instantiated := ty.Instantiate(append([]types.TypeExpr{inductive.Self()}, ctor.Args...)...)
	return instantiated[0], instantiated[1:]
}

func (ty *Typer) function(name string) (*term.FunctionDef, error) {
	if ty.self != nil && ty.self.Name == name {
		return ty.self, nil
	}
	if ty.fns != nil {
		if fd, ok := ty.fns.Function(name); ok {
			return fd, nil
		}
	}
	return nil, lerr.New(lerr.UnknownFunctionError{Name: name})
}

func (ty *Typer) arguments(scope Scope, at term.Term, head string, args []term.Term, expected []types.TypeExpr) error {
	if len(args) != len(expected) {
		return lerr.New(lerr.MalformedDefinitionError{
			Name:   at.String(),
			Reason: fmt.Sprintf("'%s' expects %d argument(s) but got %d", head, len(expected), len(args)),
		})
	}
	for i, arg := range args {
		found, err := ty.Infer(scope, arg)
		if err != nil {
			return err
		}
		if err := ty.expect(arg, found, expected[i]); err != nil {
			return err
		}
	}
	return nil
}

func (ty *Typer) match(scope Scope, m *term.Match) (types.TypeExpr, error) {
	scrutinees := make([]types.TypeExpr, len(m.Scrutinees))
	for i, s := range m.Scrutinees {
		var err error
		if scrutinees[i], err = ty.Infer(scope, s); err != nil {
			return nil, err
		}
	}
	result := ty.Instantiate(types.Var("result"))[0]
	for _, arm := range m.Arms {
		if len(arm.Patterns) != len(scrutinees) {
			return nil, lerr.New(lerr.MalformedDefinitionError{
				Name:   m.String(),
				Reason: fmt.Sprintf("arm has %d pattern(s) for %d scrutinee(s)", len(arm.Patterns), len(scrutinees)),
			})
		}
		armScope := scope
		for i, p := range arm.Patterns {
			var err error
			if armScope, err = ty.pattern(armScope, p, scrutinees[i]); err != nil {
				return nil, err
			}
		}
		body, err := ty.Infer(armScope, arm.Body)
		if err != nil {
			return nil, err
		}
		if err := ty.expect(arm.Body, body, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// pattern checks that p can match values of type expected, and adds the variables it binds to scope
func (ty *Typer) pattern(scope Scope, p term.Pattern, expected types.TypeExpr) (Scope, error) {
	switch p := p.(type) {
	case *term.PWild:
		return scope, nil
	case *term.PVar:
		return scope.With(p.Name, ty.u.Resolve(expected)), nil
	case *term.PLit:
		return scope, ty.expect(p, types.NatType, expected)
	case *term.PCtor:
		inductive, ctor, err := ty.reg.TypeOfConstructor(p.Name)
		if err != nil {
			return scope, err
		}
		self, argTypes := ty.constructor(inductive, ctor)
		if err := ty.expect(p, self, expected); err != nil {
			return scope, err
		}
		if len(p.Args) != len(argTypes) {
			return scope, lerr.New(lerr.MalformedDefinitionError{
				Name:   p.String(),
				Reason: fmt.Sprintf("'%s' expects %d argument(s) but got %d", p.Name, len(argTypes), len(p.Args)),
			})
		}
		for i, arg := range p.Args {
			if scope, err = ty.pattern(scope, arg, argTypes[i]); err != nil {
				return scope, err
			}
		}
		return scope, nil
	default:
		return scope, lerr.New(lerr.MalformedDefinitionError{Name: fmt.Sprint(p), Reason: fmt.Sprintf("unknown pattern %T", p)})
	}
}

// TypeCheck checks that the body of fd has type fd.Result when its parameters have
// their declared types. Inside fd, its type parameters are rigid: a function of
// type list X -> X cannot return a nat.
func TypeCheck(reg *types.Registry, fns Functions, fd *term.FunctionDef) error {
	ty := NewTyper(reg, fns)
	ty.self = fd
	scope := NewScope()
	for _, p := range fd.Params {
		scope = scope.With(p.Name, p.Type)
	}
	if err := ty.Check(scope, fd.Body, fd.Result); err != nil {
		return errors.Wrapf(err, "in the definition of '%s'", fd.Name)
	}
	return nil
}
