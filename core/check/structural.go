package check

import (
	"fmt"

	"github.com/cottand/lemma/core/lerr"
	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/util"
)

// Structural checks that fd terminates because every recursive call is made on a
// strict sub-term of one of its parameters, and returns the name of that parameter.
//
// When fd.Decreasing is set only that parameter is considered. Otherwise the parameters
// are tried in order, and the first one which works is returned.
// Non-recursive definitions pass with an empty result.
func Structural(fd *term.FunctionDef) (string, error) {
	if !fd.IsRecursive() {
		return "", nil
	}
	if fd.Decreasing != "" {
		if fd.ParamIndex(fd.Decreasing) < 0 {
			return "", lerr.New(lerr.MalformedDefinitionError{
				Name:   fd.Name,
				Reason: fmt.Sprintf("decreasing parameter '%s' is not a parameter", fd.Decreasing),
			})
		}
		return fd.Decreasing, decreasesOn(fd, fd.Decreasing)
	}
	var firstErr error
	for _, p := range fd.Params {
		err := decreasesOn(fd, p.Name)
		if err == nil {
			logger.Debug("inferred decreasing parameter", "function", fd.Name, "parameter", p.Name)
			return p.Name, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		return "", lerr.New(lerr.NonTerminatingDefinitionError{
			Function: fd.Name,
			CallSite: term.Calls(fd.Body, fd.Name)[0].String(),
			Reason:   "a recursive definition needs at least one parameter",
		})
	}
	return "", firstErr
}

// sizeScope tracks, for one decreasing parameter, which variables in scope
// are that parameter under another name, and which are strictly smaller than it
type sizeScope struct {
	alias   util.MSet[string]
	smaller util.MSet[string]
}

func (s sizeScope) copy() sizeScope {
	return sizeScope{alias: s.alias.Copy(), smaller: s.smaller.Copy()}
}

func decreasesOn(fd *term.FunctionDef, param string) error {
	position := fd.ParamIndex(param)
	s := sizeScope{alias: util.NewSetOf(param), smaller: util.NewEmptySet[string]()}
	return walkSizes(fd, position, param, fd.Body, s)
}

func walkSizes(fd *term.FunctionDef, position int, param string, t term.Term, s sizeScope) error {
	switch t := t.(type) {
	case *term.Var, *term.Lit:
		return nil
	case *term.Ctor:
		for _, arg := range t.Args {
			if err := walkSizes(fd, position, param, arg, s); err != nil {
				return err
			}
		}
		return nil
	case *term.App:
		for _, arg := range t.Args {
			if err := walkSizes(fd, position, param, arg, s); err != nil {
				return err
			}
		}
		if t.Func != fd.Name {
			return nil
		}
		if position >= len(t.Args) {
			return nonTerminating(fd, t, "the call does not pass '%s'", param)
		}
		arg := t.Args[position]
		v, ok := arg.(*term.Var)
		switch {
		case ok && s.smaller.Contains(v.Name):
			return nil
		case ok && s.alias.Contains(v.Name):
			return nonTerminating(fd, t, "'%s' is passed unchanged", param)
		case ok:
			return nonTerminating(fd, t, "'%s' is not a sub-term of '%s'", v.Name, param)
		default:
			return nonTerminating(fd, t, "'%s' is not a variable bound by a pattern on '%s'", arg, param)
		}
	case *term.Match:
		for _, scrutinee := range t.Scrutinees {
			if err := walkSizes(fd, position, param, scrutinee, s); err != nil {
				return err
			}
		}
		for _, arm := range t.Arms {
			armScope := s.copy()
			for _, p := range arm.Patterns {
				shadowed := term.PatternVars(p)
				armScope.alias.Remove(shadowed...)
				armScope.smaller.Remove(shadowed...)
			}
			for i, p := range arm.Patterns {
				scrutinee, ok := t.Scrutinees[i].(*term.Var)
				if !ok {
					continue
				}
				switch {
				case s.alias.Contains(scrutinee.Name):
					bindSizes(p, armScope, false)
				case s.smaller.Contains(scrutinee.Name):
					bindSizes(p, armScope, true)
				}
			}
			if err := walkSizes(fd, position, param, arm.Body, armScope); err != nil {
				return err
			}
		}
		return nil
	default:
		return lerr.New(lerr.MalformedDefinitionError{Name: fd.Name, Reason: fmt.Sprintf("unknown term %T", t)})
	}
}

// bindSizes records the variables of p, a pattern over the decreasing parameter
// (or over something smaller than it when below is set)
func bindSizes(p term.Pattern, s sizeScope, below bool) {
	switch p := p.(type) {
	case *term.PVar:
		if below {
			s.smaller.Add(p.Name)
		} else {
			s.alias.Add(p.Name)
		}
	case *term.PCtor:
		for _, arg := range p.Args {
			bindSizes(arg, s, true)
		}
	}
}

func nonTerminating(fd *term.FunctionDef, call *term.App, format string, args ...any) error {
	return lerr.New(lerr.NonTerminatingDefinitionError{
		Function: fd.Name,
		CallSite: call.String(),
		Reason:   fmt.Sprintf(format, args...),
	})
}
