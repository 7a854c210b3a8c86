package check

import (
	"fmt"

	"github.com/cottand/lemma/core/lerr"
	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/core/types"
	"github.com/cottand/lemma/internal/log"
	"github.com/cottand/lemma/util"
)

var logger = log.DefaultLogger.With("section", "check")

// Functions is the table of definitions which have already been admitted
type Functions interface {
	Function(name string) (*term.FunctionDef, bool)
}

// Resolve checks that every name used in fd refers to something declared and is used
// with the right number of arguments. A FunctionDef may call itself and previously
// admitted functions only.
func Resolve(reg *types.Registry, fns Functions, fd *term.FunctionDef) error {
	r := resolver{reg: reg, fns: fns, fd: fd}
	scope := util.NewEmptySet[string]()
	for _, p := range fd.Params {
		if scope.Contains(p.Name) {
			return r.malformed("parameter '%s' is declared twice", p.Name)
		}
		scope.Add(p.Name)
		if err := r.resolveType(p.Type); err != nil {
			return err
		}
	}
	if fd.Result == nil {
		return r.malformed("missing result type")
	}
	if err := r.resolveType(fd.Result); err != nil {
		return err
	}
	if fd.Decreasing != "" && !scope.Contains(fd.Decreasing) {
		return r.malformed("decreasing parameter '%s' is not a parameter", fd.Decreasing)
	}
	if fd.Body == nil {
		return r.malformed("missing body")
	}
	return r.resolveTerm(fd.Body, scope)
}

type resolver struct {
	reg *types.Registry
	fns Functions
	fd  *term.FunctionDef
}

func (r resolver) malformed(format string, args ...any) error {
	return lerr.New(lerr.MalformedDefinitionError{Name: r.fd.Name, Reason: fmt.Sprintf(format, args...)})
}

func (r resolver) resolveType(t types.TypeExpr) error {
	switch t := t.(type) {
	case *types.Param:
		return nil
	case *types.Arrow:
		if err := r.resolveType(t.From); err != nil {
			return err
		}
		return r.resolveType(t.To)
	case *types.Named:
		typ, err := r.reg.Lookup(t.Name)
		if err != nil {
			return err
		}
		if len(typ.Params) != len(t.Args) {
			return r.malformed("type '%s' expects %d type argument(s) but got %d", t.Name, len(typ.Params), len(t.Args))
		}
		for _, arg := range t.Args {
			if err := r.resolveType(arg); err != nil {
				return err
			}
		}
		return nil
	default:
		return r.malformed("unknown type expression %T", t)
	}
}

func (r resolver) resolveTerm(t term.Term, scope util.MSet[string]) error {
	switch t := t.(type) {
	case *term.Var:
		if !scope.Contains(t.Name) {
			return r.malformed("variable '%s' is not bound", t.Name)
		}
		return nil
	case *term.Lit:
		return nil
	case *term.Ctor:
		ctor, err := r.reg.LookupConstructor(t.Name)
		if err != nil {
			return err
		}
		if ctor.Arity() != len(t.Args) {
			return r.malformed("constructor '%s' expects %d argument(s) but got %d", t.Name, ctor.Arity(), len(t.Args))
		}
		return r.resolveAll(t.Args, scope)
	case *term.App:
		arity := len(r.fd.Params)
		if t.Func != r.fd.Name {
			callee, ok := r.fns.Function(t.Func)
			if !ok {
				return lerr.New(lerr.UnknownFunctionError{Name: t.Func})
			}
			arity = len(callee.Params)
		}
		if arity != len(t.Args) {
			return r.malformed("function '%s' expects %d argument(s) but got %d", t.Func, arity, len(t.Args))
		}
		return r.resolveAll(t.Args, scope)
	case *term.Match:
		if err := r.resolveAll(t.Scrutinees, scope); err != nil {
			return err
		}
		for i, arm := range t.Arms {
			if len(arm.Patterns) != len(t.Scrutinees) {
				return r.malformed("arm %d of '%s' has %d pattern(s) for %d scrutinee(s)", i, t, len(arm.Patterns), len(t.Scrutinees))
			}
			armScope := scope.Copy()
			bound := util.NewEmptySet[string]()
			for _, p := range arm.Patterns {
				if err := r.resolvePattern(p); err != nil {
					return err
				}
				for _, name := range term.PatternVars(p) {
					if bound.Contains(name) {
						return r.malformed("variable '%s' is bound twice in pattern '%s'", name, p)
					}
					bound.Add(name)
					armScope.Add(name)
				}
			}
			if err := r.resolveTerm(arm.Body, armScope); err != nil {
				return err
			}
		}
		return nil
	default:
		return r.malformed("unknown term %T", t)
	}
}

func (r resolver) resolveAll(ts []term.Term, scope util.MSet[string]) error {
	for _, t := range ts {
		if err := r.resolveTerm(t, scope); err != nil {
			return err
		}
	}
	return nil
}

func (r resolver) resolvePattern(p term.Pattern) error {
	ctorPattern, ok := p.(*term.PCtor)
	if !ok {
		return nil
	}
	ctor, err := r.reg.LookupConstructor(ctorPattern.Name)
	if err != nil {
		return err
	}
	if ctor.Arity() != len(ctorPattern.Args) {
		return r.malformed("pattern '%s' has %d argument(s) but '%s' expects %d", p, len(ctorPattern.Args), ctor.Name, ctor.Arity())
	}
	for _, arg := range ctorPattern.Args {
		if err := r.resolvePattern(arg); err != nil {
			return err
		}
	}
	return nil
}
