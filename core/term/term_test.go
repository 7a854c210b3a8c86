package term_test

import (
	"testing"

	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNatConstructorsFoldIntoLiterals(t *testing.T) {
	three := term.C(types.SuccName, term.C(types.SuccName, term.C(types.SuccName, term.C(types.ZeroName))))
	assert.Equal(t, term.N(3), three)

	symbolic := term.C(types.SuccName, term.V("n"))
	assert.IsType(t, &term.Ctor{}, symbolic)

	name, args, ok := term.AsConstructor(term.N(3))
	require.True(t, ok)
	assert.Equal(t, types.SuccName, name)
	assert.Equal(t, []term.Term{term.N(2)}, args)

	name, args, ok = term.AsConstructor(term.N(0))
	require.True(t, ok)
	assert.Equal(t, types.ZeroName, name)
	assert.Empty(t, args)
}

func TestIsValue(t *testing.T) {
	assert.True(t, term.IsValue(term.C("cons", term.C("Monday"), term.C("nil"))))
	assert.True(t, term.IsValue(term.N(4)))
	assert.False(t, term.IsValue(term.C("cons", term.V("x"), term.C("nil"))))
	assert.False(t, term.IsValue(term.Call("length", term.C("nil"))))
}

func TestString(t *testing.T) {
	l := term.C("cons", term.C("Monday"), term.C("cons", term.V("d"), term.C("nil")))
	assert.Equal(t, "cons Monday (cons d nil)", l.String())
	assert.Equal(t, "length (cons Monday (cons d nil))", term.Call("length", l).String())

	m := term.Case(term.V("l"),
		term.When(term.N(0), term.PC("nil")),
		term.When(term.C(types.SuccName, term.Call("length", term.V("t"))), term.PC("cons", term.Wild, term.PV("t"))),
	)
	assert.Equal(t, "match l with | nil => 0 | cons _ t => S (length t) end", m.String())
}

func TestSubstAvoidsCapture(t *testing.T) {
	// match l with cons h t => f h x, then replace x by h
	m := term.Case(term.V("l"),
		term.When(term.Call("f", term.V("h"), term.V("x")), term.PC("cons", term.PV("h"), term.PV("t"))),
	)
	substituted := term.Subst(m, map[string]term.Term{"x": term.V("h"), "l": term.V("k")})
	assert.Equal(t, "match k with | cons h0 t => f h0 h end", substituted.String())

	free := term.FreeVars(substituted)
	assert.True(t, free.Contains("h"))
	assert.True(t, free.Contains("k"))
	assert.False(t, free.Contains("t"))
	assert.False(t, free.Contains("h0"))
}

func TestSubstRefoldsLiterals(t *testing.T) {
	succ := term.C(types.SuccName, term.V("n"))
	assert.Equal(t, term.N(5), term.Subst(succ, map[string]term.Term{"n": term.N(4)}))
}

func TestReplace(t *testing.T) {
	target := term.Call("is_a_member", term.V("w"), term.C("cons", term.V("h"), term.V("t")))
	replaced, changed := term.Replace(target, term.V("w"), term.V("h"))
	require.True(t, changed)
	assert.Equal(t, "is_a_member h (cons h t)", replaced.String())

	_, changed = term.Replace(target, term.V("z"), term.V("h"))
	assert.False(t, changed)
}

func TestUnifierBindsMetas(t *testing.T) {
	u := term.NewUnifier(false)
	pattern := term.Call("orb", term.Meta("a"), term.Meta("b"))
	target := term.Call("orb", term.Call("eqb_day", term.V("w"), term.V("h")), term.V("rest"))
	require.True(t, u.Unify(pattern, target))

	a, ok := u.Bound(term.Meta("a"))
	require.True(t, ok)
	assert.Equal(t, "eqb_day w h", a.String())
	assert.Equal(t, target.String(), u.Resolve(pattern).String())
}

func TestUnifierClashesAndResiduals(t *testing.T) {
	strict := term.NewUnifier(false)
	assert.False(t, strict.Unify(term.C("Monday"), term.C("Tuesday")))
	assert.False(t, strict.Unify(term.V("l"), term.C("nil")))

	lenient := term.NewUnifier(true)
	// Mem h (cons h t) against Mem w l: h := w, then l = cons w t is a residual equation
	ok := lenient.Unify(term.Meta("h"), term.V("w")) &&
		lenient.Unify(term.C("cons", term.Meta("h"), term.Meta("t")), term.V("l"))
	require.True(t, ok)
	require.Len(t, lenient.Residual, 1)
	assert.Equal(t, "cons w ?t", lenient.Residual[0].Fst.String())
	assert.Equal(t, "l", lenient.Residual[0].Snd.String())

	// constructor clashes are never residuals
	assert.False(t, lenient.Unify(term.C("nil"), term.C("cons", term.V("x"), term.V("y"))))
	assert.False(t, lenient.Unify(term.N(0), term.C(types.SuccName, term.V("n"))))
}

func TestUnifierOccursCheck(t *testing.T) {
	u := term.NewUnifier(false)
	assert.False(t, u.Unify(term.Meta("x"), term.C("cons", term.Meta("x"), term.C("nil"))))
}

func TestFunctionDefHelpers(t *testing.T) {
	length := &term.FunctionDef{
		Name:   "length",
		Params: []term.Param{{Name: "l", Type: types.T("list", types.Var("X"))}},
		Result: types.NatType,
		Body: term.Case(term.V("l"),
			term.When(term.N(0), term.PC("nil")),
			term.When(term.C(types.SuccName, term.Call("length", term.V("t"))), term.PC("cons", term.Wild, term.PV("t"))),
		),
	}
	assert.True(t, length.IsRecursive())
	assert.Equal(t, 0, length.ParamIndex("l"))
	assert.Equal(t, -1, length.ParamIndex("t"))
	assert.Equal(t, "list X -> nat", length.Signature().String())
}
