package eval_test

import (
	"sync"
	"testing"

	"github.com/cottand/lemma/core/eval"
	"github.com/cottand/lemma/core/lerr"
	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/core/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	days    = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	dayType = types.T("day")
	listOf  = func(t types.TypeExpr) types.TypeExpr { return types.T("list", t) }
)

func dayList(names ...string) term.Term {
	l := term.C("nil")
	for i := len(names) - 1; i >= 0; i-- {
		l = term.C("cons", term.C(names[i]), l)
	}
	return l
}

func newEnv(t *testing.T, settings eval.Settings) *eval.Env {
	r := types.NewRegistry()
	_, err := r.DeclareType(types.TypeDecl{
		Name:         "day",
		Constructors: lo.Map(days, func(d string, _ int) types.ConstructorDecl { return types.Ctor(d) }),
	})
	require.NoError(t, err)
	x := types.Var("X")
	_, err = r.DeclareType(types.TypeDecl{
		Name:         "list",
		Params:       []string{"X"},
		Constructors: []types.ConstructorDecl{types.Ctor("nil"), types.Ctor("cons", x, listOf(x))},
	})
	require.NoError(t, err)

	env := eval.NewEnv(r, settings)
	eqbArms := lo.Map(days, func(d string, _ int) term.Arm { return term.When(term.True, term.PC(d), term.PC(d)) })
	eqbArms = append(eqbArms, term.When(term.False, term.Wild, term.Wild))

	for _, fd := range []*term.FunctionDef{
		{
			Name:   "orb",
			Params: []term.Param{{Name: "b1", Type: types.BoolType}, {Name: "b2", Type: types.BoolType}},
			Result: types.BoolType,
			Body: term.Case(term.V("b1"),
				term.When(term.True, term.PC(types.TrueName)),
				term.When(term.V("b2"), term.PC(types.FalseName)),
			),
		},
		{
			Name:   "eqb_day",
			Params: []term.Param{{Name: "d1", Type: dayType}, {Name: "d2", Type: dayType}},
			Result: types.BoolType,
			Body:   term.CaseN([]term.Term{term.V("d1"), term.V("d2")}, eqbArms...),
		},
		{
			Name:   "length",
			Params: []term.Param{{Name: "l", Type: listOf(types.Var("X"))}},
			Result: types.NatType,
			Body: term.Case(term.V("l"),
				term.When(term.N(0), term.PC("nil")),
				term.When(term.C(types.SuccName, term.Call("length", term.V("t"))), term.PC("cons", term.Wild, term.PV("t"))),
			),
		},
		{
			Name:   "work_week",
			Result: listOf(dayType),
			Body:   dayList("Monday", "Tuesday", "Wednesday", "Thursday", "Friday"),
		},
		{
			Name:   "is_a_member",
			Params: []term.Param{{Name: "w", Type: dayType}, {Name: "l", Type: listOf(dayType)}},
			Result: types.BoolType,
			Body: term.Case(term.V("l"),
				term.When(term.False, term.PC("nil")),
				term.When(
					term.Call("orb", term.Call("eqb_day", term.V("w"), term.V("h")), term.Call("is_a_member", term.V("w"), term.V("t"))),
					term.PC("cons", term.PV("h"), term.PV("t")),
				),
			),
		},
	} {
		_, err := env.Define(fd)
		require.NoError(t, err, fd.Name)
	}
	return env
}

func TestCallAdmittedFunctions(t *testing.T) {
	env := newEnv(t, eval.DefaultSettings)

	ww, err := env.Call("work_week")
	require.NoError(t, err)
	assert.Equal(t, "cons Monday (cons Tuesday (cons Wednesday (cons Thursday (cons Friday nil))))", ww.String())

	n, err := env.Call("length", ww)
	require.NoError(t, err)
	assert.Equal(t, term.N(5), n)

	tests := []struct {
		name   string
		f      string
		args   []term.Term
		result term.Term
	}{
		{name: "eqb_day diagonal", f: "eqb_day", args: []term.Term{term.C("Friday"), term.C("Friday")}, result: term.True},
		{name: "eqb_day off diagonal", f: "eqb_day", args: []term.Term{term.C("Friday"), term.C("Monday")}, result: term.False},
		{name: "orb", f: "orb", args: []term.Term{term.False, term.True}, result: term.True},
		{name: "member", f: "is_a_member", args: []term.Term{term.C("Thursday"), ww}, result: term.True},
		{name: "not member", f: "is_a_member", args: []term.Term{term.C("Sunday"), ww}, result: term.False},
		{name: "empty list", f: "length", args: []term.Term{term.C("nil")}, result: term.N(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := env.Call(tt.f, tt.args...)
			require.NoError(t, err)
			assert.True(t, term.Equal(tt.result, result), "got %s", result)
		})
	}
}

func TestDefineRecordsDecreasingParameter(t *testing.T) {
	env := newEnv(t, eval.DefaultSettings)
	length, ok := env.Function("length")
	require.True(t, ok)
	assert.Equal(t, "l", length.Decreasing)

	orb, ok := env.Function("orb")
	require.True(t, ok)
	assert.Empty(t, orb.Decreasing)
}

func TestDefineRejections(t *testing.T) {
	env := newEnv(t, eval.DefaultSettings)
	tests := []struct {
		name string
		fd   *term.FunctionDef
		code lerr.ErrCode
	}{
		{
			name: "redeclared",
			fd:   &term.FunctionDef{Name: "orb", Result: types.BoolType, Body: term.True},
			code: lerr.Redeclaration,
		},
		{
			name: "non exhaustive",
			fd: &term.FunctionDef{
				Name:   "is_monday",
				Params: []term.Param{{Name: "d", Type: dayType}},
				Result: types.BoolType,
				Body:   term.Case(term.V("d"), term.When(term.True, term.PC("Monday"))),
			},
			code: lerr.NonExhaustiveMatch,
		},
		{
			name: "non terminating",
			fd: &term.FunctionDef{
				Name:   "spin",
				Params: []term.Param{{Name: "l", Type: listOf(dayType)}},
				Result: types.NatType,
				Body:   term.Call("spin", term.C("cons", term.C("Monday"), term.V("l"))),
			},
			code: lerr.NonTerminatingDefinition,
		},
		{
			name: "matches a day against nat patterns",
			fd: &term.FunctionDef{
				Name:   "is_zero",
				Params: []term.Param{{Name: "d", Type: dayType}},
				Result: types.BoolType,
				Body: term.Case(term.V("d"),
					term.When(term.True, term.PC(types.ZeroName)),
					term.When(term.False, term.PC(types.SuccName, term.Wild)),
				),
			},
			code: lerr.TypeMismatch,
		},
		{
			name: "returns the wrong type",
			fd: &term.FunctionDef{
				Name:   "first_day",
				Params: []term.Param{{Name: "l", Type: listOf(dayType)}},
				Result: types.BoolType,
				Body: term.Case(term.V("l"),
					term.When(term.False, term.PC("nil")),
					term.When(term.V("h"), term.PC("cons", term.PV("h"), term.Wild)),
				),
			},
			code: lerr.TypeMismatch,
		},
		{
			name: "arms disagree",
			fd: &term.FunctionDef{
				Name:   "weird",
				Params: []term.Param{{Name: "b", Type: types.BoolType}},
				Result: types.Var("A"),
				Body: term.Case(term.V("b"),
					term.When(term.N(1), term.PC(types.TrueName)),
					term.When(term.C("Monday"), term.PC(types.FalseName)),
				),
			},
			code: lerr.TypeMismatch,
		},
		{
			name: "calls with an argument of the wrong type",
			fd: &term.FunctionDef{
				Name:   "not_monday",
				Params: []term.Param{{Name: "d", Type: dayType}},
				Result: types.BoolType,
				Body:   term.Call("orb", term.V("d"), term.False),
			},
			code: lerr.TypeMismatch,
		},
		{
			name: "builds an ill-typed list",
			fd: &term.FunctionDef{
				Name:   "mixed",
				Result: listOf(dayType),
				Body:   term.C("cons", term.C("Monday"), term.C("cons", term.N(0), term.C("nil"))),
			},
			code: lerr.TypeMismatch,
		},
		{
			name: "treats a type parameter as a concrete type",
			fd: &term.FunctionDef{
				Name:   "head_or_zero",
				Params: []term.Param{{Name: "l", Type: listOf(types.Var("X"))}},
				Result: types.NatType,
				Body: term.Case(term.V("l"),
					term.When(term.N(0), term.PC("nil")),
					term.When(term.V("h"), term.PC("cons", term.PV("h"), term.Wild)),
				),
			},
			code: lerr.TypeMismatch,
		},
		{
			name: "calls an unknown function",
			fd:   &term.FunctionDef{Name: "g", Result: types.BoolType, Body: term.Call("h")},
			code: lerr.UnknownFunction,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(env.FindByTypeShape(types.Var("A")))
			_, err := env.Define(tt.fd)
			require.Error(t, err)
			assert.Equal(t, tt.code, lerr.CodeOf(err), err.Error())
			assert.Len(t, env.FindByTypeShape(types.Var("A")), before)
		})
	}
}

func TestEvaluateBypassingDefineCanFail(t *testing.T) {
	env := newEnv(t, eval.DefaultSettings)
	isMonday := &term.FunctionDef{
		Name:   "is_monday",
		Params: []term.Param{{Name: "d", Type: dayType}},
		Result: types.BoolType,
		Body:   term.Case(term.V("d"), term.When(term.True, term.PC("Monday"))),
	}
	result, err := env.Evaluate(isMonday, term.C("Monday"))
	require.NoError(t, err)
	assert.Equal(t, term.True, result)

	_, err = env.Evaluate(isMonday, term.C("Tuesday"))
	var nonExhaustive lerr.NonExhaustiveMatchError
	require.ErrorAs(t, err, &nonExhaustive)
	assert.Equal(t, "is_monday", nonExhaustive.Function)
	assert.Equal(t, "Tuesday", nonExhaustive.Missing)
}

func TestEvaluateRequiresValues(t *testing.T) {
	env := newEnv(t, eval.DefaultSettings)
	length, _ := env.Function("length")
	_, err := env.Evaluate(length, term.V("l"))
	assert.ErrorContains(t, err, "not a value")
	assert.Equal(t, lerr.InvalidArgument, lerr.CodeOf(err))
	_, err = env.Evaluate(length)
	assert.ErrorContains(t, err, "expected 1 argument(s)")
	assert.Equal(t, lerr.InvalidArgument, lerr.CodeOf(err))
}

func TestCallChecksArgumentTypes(t *testing.T) {
	env := newEnv(t, eval.DefaultSettings)
	_, err := env.Call("is_a_member", term.N(1), dayList("Monday"))
	var mismatch lerr.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "1", mismatch.Term)
	assert.Equal(t, "day", mismatch.Expected)
	assert.Equal(t, "nat", mismatch.Found)

	_, err = env.Call("length", term.C("cons", term.C("Monday"), term.C("cons", term.True, term.C("nil"))))
	assert.Equal(t, lerr.TypeMismatch, lerr.CodeOf(err))

	n, err := env.Call("length", term.C("cons", term.N(4), term.C("nil")))
	require.NoError(t, err)
	assert.Equal(t, term.N(1), n)
}

func TestMemoisation(t *testing.T) {
	env := newEnv(t, eval.DefaultSettings)
	ww := dayList("Monday", "Tuesday", "Wednesday", "Thursday", "Friday")
	first, err := env.Call("length", ww)
	require.NoError(t, err)
	assert.Positive(t, env.CachedResults())
	second, err := env.Call("length", ww)
	require.NoError(t, err)
	assert.Same(t, first, second)

	uncached := newEnv(t, eval.Settings{Memoize: false})
	first, err = uncached.Call("length", ww)
	require.NoError(t, err)
	second, err = uncached.Call("length", ww)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Zero(t, uncached.CachedResults())
}

func TestConcurrentEvaluationIsDeterministic(t *testing.T) {
	env := newEnv(t, eval.DefaultSettings)
	results := make([]term.Term, 16)
	wg := sync.WaitGroup{}
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = env.Normalize(term.Call("length", term.Call("work_week")))
		}()
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, term.N(5), r)
	}
}

func TestNormalize(t *testing.T) {
	env := newEnv(t, eval.DefaultSettings)
	tests := []struct {
		name   string
		in     term.Term
		normal string
	}{
		{name: "closed", in: term.Call("length", term.Call("work_week")), normal: "5"},
		{
			name:   "member of cons unfolds one step",
			in:     term.Call("is_a_member", term.V("w"), term.C("cons", term.V("h"), term.V("t"))),
			normal: "orb (eqb_day w h) (is_a_member w t)",
		},
		{name: "member of nil", in: term.Call("is_a_member", term.V("w"), term.C("nil")), normal: "false"},
		{name: "orb decided by first argument", in: term.Call("orb", term.True, term.V("b")), normal: "true"},
		{name: "orb stuck on first argument", in: term.Call("orb", term.V("b"), term.True), normal: "orb b true"},
		{name: "length of open list", in: term.Call("length", term.C("cons", term.V("d"), term.V("t"))), normal: "S (length t)"},
		{name: "diagonal stuck", in: term.Call("eqb_day", term.V("d"), term.C("Monday")), normal: "eqb_day d Monday"},
		{name: "variable", in: term.V("x"), normal: "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normal, err := env.Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.normal, normal.String())
		})
	}

	_, err := env.Normalize(term.Call("nope", term.V("x")))
	assert.Equal(t, lerr.UnknownFunction, lerr.CodeOf(err))
}

func TestFindByTypeShape(t *testing.T) {
	env := newEnv(t, eval.DefaultSettings)
	names := func(fds []*term.FunctionDef) []string {
		return lo.Map(fds, func(fd *term.FunctionDef, _ int) string { return fd.Name })
	}
	x, y := types.Var("X"), types.Var("Y")
	assert.Equal(t, []string{"length"}, names(env.FindByTypeShape(types.Func(listOf(x), types.NatType))))
	assert.Equal(t, []string{"length"}, names(env.FindByTypeShape(types.Func(listOf(dayType), types.NatType))))
	assert.Equal(t, []string{"eqb_day"}, names(env.FindByTypeShape(types.Func(dayType, dayType, types.BoolType))))
	assert.Equal(t, []string{"work_week"}, names(env.FindByTypeShape(listOf(dayType))))
	assert.Equal(t, []string{"eqb_day", "is_a_member", "orb"}, names(env.FindByTypeShape(types.Func(x, y, types.BoolType))))
	assert.Empty(t, env.FindByTypeShape(types.Func(types.NatType, types.NatType)))
}

func TestDecompose(t *testing.T) {
	env := newEnv(t, eval.DefaultSettings)
	ctor, args, err := env.Decompose(term.N(3))
	require.NoError(t, err)
	assert.Equal(t, types.SuccName, ctor.Name)
	assert.Equal(t, 1, ctor.Tag)
	assert.Equal(t, []term.Term{term.N(2)}, args)

	ctor, args, err = env.Decompose(term.C("Wednesday"))
	require.NoError(t, err)
	assert.Equal(t, 2, ctor.Tag)
	assert.Empty(t, args)

	_, _, err = env.Decompose(term.V("x"))
	assert.Error(t, err)
}
