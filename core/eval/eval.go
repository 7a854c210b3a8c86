package eval

import (
	"fmt"
	"strings"

	"github.com/cottand/lemma/core/check"
	"github.com/cottand/lemma/core/lerr"
	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/core/types"
	"github.com/cottand/lemma/util"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// errStuck is returned while normalising when a match needs to inspect
// a term which is not a constructor application yet, such as a free variable
var errStuck = errors.New("evaluation is stuck")

// Evaluate calls fd on args, which must all be values. fd does not need to be admitted,
// but then evaluation can fail with a NonExhaustiveMatchError.
func (e *Env) Evaluate(fd *term.FunctionDef, args ...term.Term) (term.Term, error) {
	if err := e.checkArguments(fd, args); err != nil {
		return nil, err
	}
	ev := evaluation{env: e, self: fd}
	result, err := ev.call(fd, args)
	if errors.Is(err, errStuck) {
		return nil, errors.Wrapf(err, "evaluating '%s'", fd.Name)
	}
	return result, err
}

// checkArguments checks that args are values of the types of the parameters of fd
func (e *Env) checkArguments(fd *term.FunctionDef, args []term.Term) error {
	if len(args) != len(fd.Params) {
		return lerr.New(lerr.InvalidArgumentError{
			Function: fd.Name,
			Reason:   fmt.Sprintf("expected %d argument(s) but got %d", len(fd.Params), len(args)),
		})
	}
	ty := check.NewTyper(e.Types, e)
	paramTypes := ty.Instantiate(lo.Map(fd.Params, func(p term.Param, _ int) types.TypeExpr { return p.Type })...)
	for i, arg := range args {
		if !term.IsValue(arg) {
			return lerr.New(lerr.InvalidArgumentError{
				Function: fd.Name,
				Reason:   fmt.Sprintf("argument %d is not a value: %s", i+1, arg),
			})
		}
		if err := ty.Check(check.NewScope(), arg, paramTypes[i]); err != nil {
			return errors.Wrapf(err, "argument %d of '%s'", i+1, fd.Name)
		}
	}
	return nil
}

// Call evaluates the admitted function called name on args
func (e *Env) Call(name string, args ...term.Term) (term.Term, error) {
	fd, ok := e.Function(name)
	if !ok {
		return nil, lerr.New(lerr.UnknownFunctionError{Name: name})
	}
	return e.Evaluate(fd, args...)
}

// Normalize evaluates t as far as its free variables allow. A call which would need
// to look inside a free variable to pick a match arm is left unevaluated,
// with its arguments normalised.
func (e *Env) Normalize(t term.Term) (term.Term, error) {
	ev := evaluation{env: e, symbolic: true}
	normal, err := ev.reduce(t, nil)
	if errors.Is(err, errStuck) {
		return t, nil
	}
	return normal, err
}

// CachedResults is the number of memoised calls
func (e *Env) CachedResults() int {
	n := 0
	e.memo.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

type evaluation struct {
	env *Env
	// self is the definition being evaluated when it may not be admitted,
	// so that its recursive calls refer to it
	self     *term.FunctionDef
	symbolic bool
}

func (ev evaluation) lookup(name string) (*term.FunctionDef, error) {
	if ev.self != nil && ev.self.Name == name {
		return ev.self, nil
	}
	fd, ok := ev.env.Function(name)
	if !ok {
		return nil, lerr.New(lerr.UnknownFunctionError{Name: name})
	}
	return fd, nil
}

func memoKey(fd *term.FunctionDef, args []term.Term) string {
	return fd.Name + "(" + strings.Join(lo.Map(args, func(arg term.Term, _ int) string { return arg.String() }), ", ") + ")"
}

// call evaluates fd on values
func (ev evaluation) call(fd *term.FunctionDef, args []term.Term) (term.Term, error) {
	admitted, _ := ev.env.Function(fd.Name)
	memoize := ev.env.Settings.Memoize && admitted == fd
	var key string
	if memoize {
		key = memoKey(fd, args)
		if cached, ok := ev.env.memo.Load(key); ok {
			return cached.(term.Term), nil
		}
	}
	result, err := ev.reduce(fd.Body, bindParams(fd, args))
	if err != nil {
		var nonExhaustive lerr.NonExhaustiveMatchError
		if lerr.As(err, &nonExhaustive) && nonExhaustive.Function == "" {
			nonExhaustive.Function = fd.Name
			return nil, lerr.New(nonExhaustive)
		}
		return nil, err
	}
	if memoize {
		actual, _ := ev.env.memo.LoadOrStore(key, result)
		result = actual.(term.Term)
	}
	return result, nil
}

func bindParams(fd *term.FunctionDef, args []term.Term) map[string]term.Term {
	bindings := make(map[string]term.Term, len(args))
	for _, bound := range util.Zip(fd.Params, args) {
		bindings[bound.Fst.Name] = bound.Snd
	}
	return bindings
}

// reduce evaluates t where the variables in bindings stand for the given terms.
// Variables which are not bound are left as they are.
func (ev evaluation) reduce(t term.Term, bindings map[string]term.Term) (term.Term, error) {
	switch t := t.(type) {
	case *term.Var:
		if bound, ok := bindings[t.Name]; ok {
			return bound, nil
		}
		return t, nil
	case *term.Lit:
		return t, nil
	case *term.Ctor:
		if len(t.Args) == 0 {
			return t, nil
		}
		args, err := ev.reduceAll(t.Args, bindings)
		if err != nil {
			return nil, err
		}
		return term.C(t.Name, args...), nil
	case *term.App:
		args, err := ev.reduceAll(t.Args, bindings)
		if err != nil {
			return nil, err
		}
		fd, err := ev.lookup(t.Func)
		if err != nil {
			return nil, err
		}
		if len(args) != len(fd.Params) {
			return nil, lerr.New(lerr.InvalidArgumentError{
				Function: fd.Name,
				Reason:   fmt.Sprintf("expected %d argument(s) but got %d", len(fd.Params), len(args)),
			})
		}
		if lo.EveryBy(args, term.IsValue) {
			return ev.call(fd, args)
		}
		if !ev.symbolic {
			return nil, errors.Wrapf(errStuck, "'%s' applied to open terms", fd.Name)
		}
		unfolded, err := ev.reduce(fd.Body, bindParams(fd, args))
		if errors.Is(err, errStuck) {
			return term.Call(t.Func, args...), nil
		}
		return unfolded, err
	case *term.Match:
		return ev.reduceMatch(t, bindings)
	default:
		return nil, errors.Errorf("unknown term %T", t)
	}
}

func (ev evaluation) reduceAll(ts []term.Term, bindings map[string]term.Term) ([]term.Term, error) {
	reduced := make([]term.Term, len(ts))
	for i, t := range ts {
		var err error
		reduced[i], err = ev.reduce(t, bindings)
		if err != nil {
			return nil, err
		}
	}
	return reduced, nil
}

func (ev evaluation) reduceMatch(m *term.Match, bindings map[string]term.Term) (term.Term, error) {
	scrutinees, err := ev.reduceAll(m.Scrutinees, bindings)
	if err != nil {
		return nil, err
	}
	for _, arm := range m.Arms {
		armBindings := make(map[string]term.Term, len(bindings)+len(arm.Patterns))
		for k, v := range bindings {
			armBindings[k] = v
		}
		outcome := matched
		for i, p := range arm.Patterns {
			outcome = outcome.and(matchPattern(p, scrutinees[i], armBindings))
		}
		switch outcome {
		case matched:
			return ev.reduce(arm.Body, armBindings)
		case stuck:
			return nil, errStuck
		}
	}
	return nil, lerr.New(lerr.NonExhaustiveMatchError{
		Missing: strings.Join(lo.Map(scrutinees, func(s term.Term, _ int) string { return s.String() }), ", "),
	})
}

type matchOutcome int

const (
	matched matchOutcome = iota
	noMatch
	// stuck means the pattern may or may not match, depending on the value of a free variable
	stuck
)

// and combines the outcomes of two patterns which must both match.
// A certain mismatch wins over not knowing.
func (o matchOutcome) and(other matchOutcome) matchOutcome {
	if o == noMatch || other == noMatch {
		return noMatch
	}
	if o == stuck || other == stuck {
		return stuck
	}
	return matched
}

func matchPattern(p term.Pattern, t term.Term, bindings map[string]term.Term) matchOutcome {
	switch p := p.(type) {
	case *term.PWild:
		return matched
	case *term.PVar:
		bindings[p.Name] = t
		return matched
	}
	ctorPattern, _ := term.AsConstructorPattern(p)
	name, args, ok := term.AsConstructor(t)
	if !ok {
		return stuck
	}
	if name != ctorPattern.Name || len(args) != len(ctorPattern.Args) {
		return noMatch
	}
	outcome := matched
	for i, sub := range ctorPattern.Args {
		outcome = outcome.and(matchPattern(sub, args[i], bindings))
	}
	return outcome
}
