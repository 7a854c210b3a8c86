package term

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cottand/lemma/core/types"
	"github.com/samber/lo"
)

type Param struct {
	Name string
	Type types.TypeExpr
}

// FunctionDef is a named function over values of inductive types.
//
// Its Body is usually a Match over some of its Params. A recursive FunctionDef
// (one whose Body calls itself) needs a Decreasing parameter, which must shrink
// structurally on every recursive call. Decreasing may be left empty, in which
// case it is inferred when the definition is checked.
type FunctionDef struct {
	Name       string
	Params     []Param
	Result     types.TypeExpr
	Body       Term
	Decreasing string
}

// Signature is the curried function type of f, or its Result if f takes no parameters
func (f *FunctionDef) Signature() types.TypeExpr {
	ts := lo.Map(f.Params, func(p Param, _ int) types.TypeExpr { return p.Type })
	return types.Func(append(ts, f.Result)...)
}

// ParamIndex returns the position of the parameter called name, or -1
func (f *FunctionDef) ParamIndex(name string) int {
	return slices.IndexFunc(f.Params, func(p Param) bool { return p.Name == name })
}

// IsRecursive reports whether the body of f calls f
func (f *FunctionDef) IsRecursive() bool {
	return len(Calls(f.Body, f.Name)) > 0
}

func (f *FunctionDef) String() string {
	params := lo.Map(f.Params, func(p Param, _ int) string { return fmt.Sprintf("(%s : %s)", p.Name, p.Type) })
	return fmt.Sprintf("%s %s : %s := %s", f.Name, strings.Join(params, " "), f.Result, f.Body)
}

// Calls returns every application of the function called name in t, outermost first
func Calls(t Term, name string) []*App {
	var found []*App
	var walk func(Term)
	walk = func(t Term) {
		switch t := t.(type) {
		case *App:
			if t.Func == name {
				found = append(found, t)
			}
			for _, arg := range t.Args {
				walk(arg)
			}
		case *Ctor:
			for _, arg := range t.Args {
				walk(arg)
			}
		case *Match:
			for _, s := range t.Scrutinees {
				walk(s)
			}
			for _, arm := range t.Arms {
				walk(arm.Body)
			}
		}
	}
	walk(t)
	return found
}
