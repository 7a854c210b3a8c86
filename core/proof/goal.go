package proof

import (
	"slices"
	"strings"

	"github.com/cottand/lemma/core/check"
	"github.com/cottand/lemma/core/prop"
	"github.com/cottand/lemma/core/types"
	"github.com/cottand/lemma/util"
	"github.com/hashicorp/go-set/v3"
)

// Hypothesis is a named assumption in the context of a Goal.
// It is either a Prop which may be assumed to hold, or a variable standing
// for an arbitrary value of a Type.
type Hypothesis struct {
	Name string
	Prop prop.Prop
	Type types.TypeExpr
}

func Assume(name string, p prop.Prop) Hypothesis { return Hypothesis{Name: name, Prop: p} }

func Variable(name string, t types.TypeExpr) Hypothesis { return Hypothesis{Name: name, Type: t} }

func (h Hypothesis) IsVariable() bool { return h.Prop == nil }

func (h Hypothesis) String() string {
	if h.IsVariable() {
		return h.Name + " : " + h.Type.String()
	}
	return h.Name + " : " + h.Prop.String()
}

// Goal is a Conclusion left to prove under the hypotheses of its Context
type Goal struct {
	ID         int
	Context    []Hypothesis
	Conclusion prop.Prop
}

// Lookup finds the hypothesis called name
func (g *Goal) Lookup(name string) (Hypothesis, bool) {
	i := g.index(name)
	if i < 0 {
		return Hypothesis{}, false
	}
	return g.Context[i], true
}

func (g *Goal) index(name string) int {
	return slices.IndexFunc(g.Context, func(h Hypothesis) bool { return h.Name == name })
}

// used returns every name which a new hypothesis or variable must not take
func (g *Goal) used() *set.Set[string] {
	used := prop.FreeVars(g.Conclusion)
	for _, h := range g.Context {
		used.Insert(h.Name)
		if !h.IsVariable() {
			used.InsertSet(prop.FreeVars(h.Prop))
		}
	}
	return used
}

// scope holds the types of the variables of g
func (g *Goal) scope() check.Scope {
	scope := check.NewScope()
	for _, h := range g.Context {
		if h.IsVariable() {
			scope = scope.With(h.Name, h.Type)
		}
	}
	return scope
}

// fresh returns a name based on base which is not used in g
func (g *Goal) fresh(base string) string {
	return util.FreshName(base, g.used())
}

// derive returns a copy of g with a new conclusion, sharing nothing mutable with g
func (g *Goal) derive(conclusion prop.Prop) *Goal {
	return &Goal{Context: slices.Clone(g.Context), Conclusion: conclusion}
}

// with returns a copy of g with hyps added at the end of the context
func (g *Goal) with(hyps ...Hypothesis) *Goal {
	derived := g.derive(g.Conclusion)
	derived.Context = append(derived.Context, hyps...)
	return derived
}

// replacing returns a copy of g where the hypothesis called name is replaced by hyps, in place
func (g *Goal) replacing(name string, hyps ...Hypothesis) *Goal {
	i := g.index(name)
	derived := g.derive(g.Conclusion)
	derived.Context = slices.Concat(g.Context[:i], hyps, g.Context[i+1:])
	return derived
}

// mapProps returns a copy of g where f is applied to the conclusion and to every assumption
func (g *Goal) mapProps(f func(prop.Prop) prop.Prop) *Goal {
	derived := g.derive(f(g.Conclusion))
	for i, h := range derived.Context {
		if !h.IsVariable() {
			derived.Context[i].Prop = f(h.Prop)
		}
	}
	return derived
}

func (g *Goal) String() string {
	sb := &strings.Builder{}
	for _, h := range g.Context {
		sb.WriteString(h.String())
		sb.WriteString("\n")
	}
	sb.WriteString("============================\n")
	sb.WriteString(g.Conclusion.String())
	return sb.String()
}
