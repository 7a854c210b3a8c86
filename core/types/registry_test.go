package types_test

import (
	"sync"
	"testing"

	"github.com/cottand/lemma/core/lerr"
	"github.com/cottand/lemma/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dayDecl() types.TypeDecl {
	return types.TypeDecl{
		Name: "day",
		Constructors: []types.ConstructorDecl{
			types.Ctor("Monday"), types.Ctor("Tuesday"), types.Ctor("Wednesday"),
			types.Ctor("Thursday"), types.Ctor("Friday"), types.Ctor("Saturday"), types.Ctor("Sunday"),
		},
	}
}

func listDecl() types.TypeDecl {
	x := types.Var("X")
	return types.TypeDecl{
		Name:   "list",
		Params: []string{"X"},
		Constructors: []types.ConstructorDecl{
			types.Ctor("nil"),
			types.Ctor("cons", x, types.T("list", x)),
		},
	}
}

func TestBuiltins(t *testing.T) {
	r := types.NewRegistry()
	nat, err := r.Lookup(types.NatTypeName)
	require.NoError(t, err)
	require.Len(t, nat.Constructors, 2)
	assert.Equal(t, types.ZeroName, nat.Constructors[0].Name)
	assert.Equal(t, 1, nat.Constructors[1].Arity())

	typ, ctor, err := r.TypeOfConstructor(types.FalseName)
	require.NoError(t, err)
	assert.Equal(t, types.BoolTypeName, typ.Name)
	assert.Equal(t, 1, ctor.Tag)
}

func TestDeclareTypeAssignsDenseTags(t *testing.T) {
	r := types.NewRegistry()
	day, err := r.DeclareType(dayDecl())
	require.NoError(t, err)
	for i, ctor := range day.Constructors {
		assert.Equal(t, i, ctor.Tag)
		assert.Equal(t, "day", ctor.Type)
	}

	lookedUp, err := r.Lookup("day")
	require.NoError(t, err)
	assert.Same(t, day, lookedUp)

	friday, err := r.LookupConstructor("Friday")
	require.NoError(t, err)
	assert.Equal(t, 4, friday.Tag)
}

func TestDeclarePolymorphicList(t *testing.T) {
	r := types.NewRegistry()
	list, err := r.DeclareType(listDecl())
	require.NoError(t, err)
	assert.Equal(t, "list X", list.Self().String())

	cons, ok := list.Constructor("cons")
	require.True(t, ok)
	argTypes := list.ArgTypes(cons, []types.TypeExpr{types.NatType})
	assert.Equal(t, "nat", argTypes[0].String())
	assert.Equal(t, "list nat", argTypes[1].String())
}

func TestDeclarationErrors(t *testing.T) {
	cases := map[string]struct {
		decl types.TypeDecl
		code lerr.ErrCode
	}{
		"type redeclared": {
			decl: types.TypeDecl{Name: "day", Constructors: []types.ConstructorDecl{types.Ctor("Funday")}},
			code: lerr.Redeclaration,
		},
		"constructor redeclared": {
			decl: types.TypeDecl{Name: "weekend", Constructors: []types.ConstructorDecl{types.Ctor("Saturday")}},
			code: lerr.Redeclaration,
		},
		"constructor repeated within type": {
			decl: types.TypeDecl{Name: "twice", Constructors: []types.ConstructorDecl{types.Ctor("A"), types.Ctor("A")}},
			code: lerr.Redeclaration,
		},
		"unknown argument type": {
			decl: types.TypeDecl{Name: "box", Constructors: []types.ConstructorDecl{types.Ctor("Box", types.T("weekday"))}},
			code: lerr.UnknownType,
		},
		"unbound parameter": {
			decl: types.TypeDecl{Name: "box", Constructors: []types.ConstructorDecl{types.Ctor("Box", types.Var("Y"))}},
			code: lerr.UnknownType,
		},
		"negative occurrence": {
			decl: types.TypeDecl{Name: "bad", Constructors: []types.ConstructorDecl{
				types.Ctor("Bad", types.Func(types.T("bad"), types.BoolType)),
			}},
			code: lerr.Positivity,
		},
		"occurrence nested in a domain": {
			decl: types.TypeDecl{Name: "bad", Constructors: []types.ConstructorDecl{
				types.Ctor("Bad", types.Func(types.Func(types.T("bad"), types.NatType), types.NatType)),
			}},
			code: lerr.Positivity,
		},
		"wrong type arity": {
			decl: types.TypeDecl{Name: "box", Constructors: []types.ConstructorDecl{types.Ctor("Box", types.T("list"))}},
			code: lerr.MalformedDefinition,
		},
		"non uniform recursion": {
			decl: types.TypeDecl{Name: "nest", Params: []string{"X"}, Constructors: []types.ConstructorDecl{
				types.Ctor("Nest", types.T("nest", types.T("list", types.Var("X")))),
			}},
			code: lerr.MalformedDefinition,
		},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			r := types.NewRegistry()
			_, err := r.DeclareType(dayDecl())
			require.NoError(t, err)
			_, err = r.DeclareType(listDecl())
			require.NoError(t, err)
			before := len(collectTypes(r))

			_, err = r.DeclareType(c.decl)
			require.Error(t, err)
			assert.Equal(t, c.code, lerr.CodeOf(err), "unexpected error: %v", err)
			assert.Len(t, collectTypes(r), before, "a failed declaration must leave the registry unchanged")
			_, err = r.LookupConstructor("Box")
			assert.Error(t, err)
		})
	}
}

func TestPositivityThroughTypeArguments(t *testing.T) {
	r := types.NewRegistry()
	_, err := r.DeclareType(listDecl())
	require.NoError(t, err)
	// rose trees are fine: list uses its parameter strictly positively
	_, err = r.DeclareType(types.TypeDecl{Name: "rose", Constructors: []types.ConstructorDecl{
		types.Ctor("Node", types.NatType, types.T("list", types.T("rose"))),
	}})
	assert.NoError(t, err)

	// pred X = Pred (X -> bool) uses X negatively, so X may not be instantiated with the type being declared
	_, err = r.DeclareType(types.TypeDecl{Name: "pred", Params: []string{"X"}, Constructors: []types.ConstructorDecl{
		types.Ctor("Pred", types.Func(types.Var("X"), types.BoolType)),
	}})
	require.NoError(t, err)
	_, err = r.DeclareType(types.TypeDecl{Name: "loop", Constructors: []types.ConstructorDecl{
		types.Ctor("Loop", types.T("pred", types.T("loop"))),
	}})
	var positivity lerr.PositivityError
	require.True(t, lerr.As(err, &positivity), "expected a positivity error but got %v", err)
	assert.Equal(t, "Loop", positivity.Constructor)
}

func TestConcurrentDeclarationsOfSameName(t *testing.T) {
	r := types.NewRegistry()
	wg := sync.WaitGroup{}
	var mu sync.Mutex
	succeeded := 0
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.DeclareType(dayDecl()); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)
}

func collectTypes(r *types.Registry) []string {
	var names []string
	for typ := range r.Types() {
		names = append(names, typ.Name)
	}
	return names
}

func TestTypesInNameOrder(t *testing.T) {
	r := types.NewRegistry()
	_, err := r.DeclareType(listDecl())
	require.NoError(t, err)
	_, err = r.DeclareType(dayDecl())
	require.NoError(t, err)
	assert.Equal(t, []string{"bool", "day", "list", "nat"}, collectTypes(r))
}
