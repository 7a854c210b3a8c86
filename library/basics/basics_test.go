package basics_test

import (
	"testing"

	"github.com/cottand/lemma/core/eval"
	"github.com/cottand/lemma/core/lerr"
	"github.com/cottand/lemma/core/proof"
	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/library/basics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	lib, err := basics.Load(eval.DefaultSettings, proof.DefaultSettings)
	require.NoError(t, err)

	for _, fd := range basics.FunctionDefs() {
		_, ok := lib.Env.Function(fd.Name)
		assert.True(t, ok, fd.Name)
	}
	mem, err := lib.Preds.Lookup("Mem")
	require.NoError(t, err)
	assert.Len(t, mem.Rules, 2)

	n, err := lib.Env.Call("length", basics.List(term.C("Monday"), term.C("Sunday")))
	require.NoError(t, err)
	assert.Equal(t, term.N(2), n)
}

func TestProveAll(t *testing.T) {
	lib, err := basics.Load(eval.DefaultSettings, proof.DefaultSettings)
	require.NoError(t, err)

	states, err := lib.ProveAll()
	require.NoError(t, err)
	require.Len(t, states, len(basics.Theorems()))
	for i, th := range basics.Theorems() {
		assert.True(t, states[i].Done(), th.Name)
		assert.Len(t, states[i].Steps, len(th.Script), th.Name)
		_, proved := lib.Prover.Theorem(th.Name)
		assert.True(t, proved, th.Name)
	}
}

func TestProveTwice(t *testing.T) {
	lib, err := basics.Load(eval.DefaultSettings, proof.DefaultSettings)
	require.NoError(t, err)
	th := basics.Theorems()[0]

	_, err = lib.Prove(th)
	require.NoError(t, err)
	_, err = lib.Prove(th)
	assert.Equal(t, lerr.Redeclaration, lerr.CodeOf(err))
	assert.ErrorContains(t, err, "proving orb_true_elim")
}

func TestProofsDependOnEarlierTheorems(t *testing.T) {
	lib, err := basics.Load(eval.DefaultSettings, proof.DefaultSettings)
	require.NoError(t, err)
	theorems := basics.Theorems()
	memberMem := theorems[len(theorems)-1]

	s, err := lib.Prove(memberMem)
	assert.Equal(t, lerr.UnknownHypothesis, lerr.CodeOf(err))
	assert.False(t, s.Done())
}

func TestEvaluationWithoutMemoisation(t *testing.T) {
	lib, err := basics.Load(eval.Settings{Memoize: false}, proof.DefaultSettings)
	require.NoError(t, err)

	_, err = lib.Env.Call("is_a_member", term.C("Saturday"), term.Call("work_week"))
	require.Error(t, err, "arguments must be values")

	ww, err := lib.Env.Call("work_week")
	require.NoError(t, err)
	member, err := lib.Env.Call("is_a_member", term.C("Saturday"), ww)
	require.NoError(t, err)
	assert.Equal(t, term.False, member)
	assert.Zero(t, lib.Env.CachedResults())
}
