package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cottand/lemma/core/lerr"
	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	root := NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCheck(t *testing.T) {
	out, err := execute(t, "check")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 7)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "ok   "), line)
	}
	assert.Contains(t, out, "ok   member_mem (16 steps)")

	out, err = execute(t, "check", "--verbose", "length_work_week")
	require.NoError(t, err)
	assert.Equal(t, "ok   length_work_week (1 steps)\n     length work_week = 5\n", out)

	_, err = execute(t, "check", "fermat")
	assert.Equal(t, lerr.UnknownHypothesis, lerr.CodeOf(err))
}

func TestSearch(t *testing.T) {
	tests := []struct {
		query    string
		expected string
	}{
		{"list X -> nat", "length : list X -> nat\n"},
		{"A -> A -> bool", "eqb_day : day -> day -> bool\norb : bool -> bool -> bool\n"},
		{"list day", "work_week : list day\n"},
		{"(day -> bool) -> nat", "no function has shape (day -> bool) -> nat\n"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			out, err := execute(t, "search", tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}

	_, err := execute(t, "search", "list ->")
	assert.Error(t, err)
}

func TestEval(t *testing.T) {
	tests := []struct {
		args     []string
		expected string
	}{
		{[]string{"length", "work_week"}, "5"},
		{[]string{"is_a_member", "Friday", "work_week"}, "true"},
		{[]string{"is_a_member", "Sunday", "(cons Monday (cons Sunday nil))"}, "true"},
		{[]string{"eqb_day", "Monday", "Tuesday"}, "false"},
		{[]string{"work_week"}, "cons Monday (cons Tuesday (cons Wednesday (cons Thursday (cons Friday nil))))"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, err := execute(t, append([]string{"eval", "--no-memo"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected+"\n", out)
		})
	}

	_, err := execute(t, "eval", "plus", "1", "2")
	assert.Equal(t, lerr.UnknownFunction, lerr.CodeOf(err))

	_, err = execute(t, "eval", "Monday")
	assert.ErrorContains(t, err, "not a function application")

	_, err = execute(t, "eval", "eqb_day", "Monday")
	assert.Equal(t, lerr.MalformedDefinition, lerr.CodeOf(err))

	_, err = execute(t, "eval", "length", "Monday")
	assert.Equal(t, lerr.TypeMismatch, lerr.CodeOf(err))

	_, err = execute(t, "eval", "orb", "true", "(eqb_day", "Monday", "3)")
	assert.Equal(t, lerr.TypeMismatch, lerr.CodeOf(err))
}

func TestParseType(t *testing.T) {
	parsed, err := parseType("(list X -> nat) -> list (list day)")
	require.NoError(t, err)
	expected := types.Func(
		types.Func(types.T("list", types.Var("X")), types.NatType),
		types.T("list", types.T("list", types.T("day"))),
	)
	assert.True(t, types.Equal(expected, parsed), parsed.String())

	for _, bad := range []string{"", "->", "(nat", "nat)", "X nat"} {
		_, err := parseType(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseTerm(t *testing.T) {
	registry := types.NewRegistry()
	_, err := registry.DeclareType(types.TypeDecl{Name: "day", Constructors: []types.ConstructorDecl{types.Ctor("Monday")}})
	require.NoError(t, err)

	parsed, err := parseTerm("f (S 2) Monday g", registry)
	require.NoError(t, err)
	assert.True(t, term.Equal(term.Call("f", term.N(3), term.C("Monday"), term.Call("g")), parsed), parsed.String())

	for _, bad := range []string{"", "f (", "f )", "2 3"} {
		_, err := parseTerm(bad, registry)
		assert.Error(t, err, bad)
	}
}
