package types_test

import (
	"testing"

	"github.com/cottand/lemma/core/types"
	"github.com/stretchr/testify/assert"
)

func TestUnify(t *testing.T) {
	x, y := types.Var("X"), types.Var("Y")
	listX := types.T("list", x)

	cases := []struct {
		name     string
		a, b     types.TypeExpr
		ok       bool
		resolved string
	}{
		{"same constant", types.NatType, types.NatType, true, "nat"},
		{"different constants", types.NatType, types.BoolType, false, ""},
		{"variable binds", listX, types.T("list", types.NatType), true, "list nat"},
		{"arrows", types.Func(listX, types.NatType), types.Func(types.T("list", y), y), true, "list nat -> nat"},
		{"occurs check", x, listX, false, ""},
		{"arity", types.T("list", x), types.T("list"), false, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			u := types.NewUnifier()
			ok := u.Unify(c.a, c.b)
			assert.Equal(t, c.ok, ok)
			if ok {
				assert.Equal(t, c.resolved, u.Resolve(c.a).String())
				assert.True(t, types.Equal(u.Resolve(c.a), u.Resolve(c.b)))
			}
		})
	}
}

func TestRenameAndString(t *testing.T) {
	arrow := types.Func(types.T("list", types.Var("X")), types.Func(types.Var("X"), types.BoolType), types.NatType)
	assert.Equal(t, "list X -> (X -> bool) -> nat", arrow.String())
	assert.Equal(t, "list fX -> (fX -> bool) -> nat", types.Rename(arrow, "f").String())
	assert.Equal(t, []string{"X"}, types.Params(arrow))
}
