package prop

// when adding propositions here, you should add them to the switch cases in:
// - prop:subst.go
// - prop:match.go
// - proof:tactics.go, for the tactics which introduce or eliminate them

import (
	"fmt"
	"strings"

	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/core/types"
	"github.com/cottand/lemma/internal/log"
)

var logger = log.DefaultLogger.With("section", "prop")

var (
	_ Prop = (*Eq)(nil)
	_ Prop = (*Truth)(nil)
	_ Prop = (*Falsity)(nil)
	_ Prop = (*And)(nil)
	_ Prop = (*Or)(nil)
	_ Prop = (*Implies)(nil)
	_ Prop = (*Not)(nil)
	_ Prop = (*ForAll)(nil)
	_ Prop = (*Exists)(nil)
	_ Prop = (*Pred)(nil)
)

// Prop is a logical statement about terms. Unlike a term of type bool, a Prop is
// never evaluated: it holds when a proof of it can be built with tactics.
type Prop interface {
	fmt.Stringer
	propNode()
}

// Eq states that two terms are equal
type Eq struct {
	Left, Right term.Term
}

// Truth is the proposition that always holds
type Truth struct{}

// Falsity is the proposition that never holds
type Falsity struct{}

type And struct {
	Left, Right Prop
}

type Or struct {
	Left, Right Prop
}

type Implies struct {
	Premise, Conclusion Prop
}

type Not struct {
	Negated Prop
}

type ForAll struct {
	Var  string
	Type types.TypeExpr
	Body Prop
}

type Exists struct {
	Var  string
	Type types.TypeExpr
	Body Prop
}

// Pred is the application of an inductively defined predicate, see Family
type Pred struct {
	Name string
	Args []term.Term
}

func (*Eq) propNode()      {}
func (*Truth) propNode()   {}
func (*Falsity) propNode() {}
func (*And) propNode()     {}
func (*Or) propNode()      {}
func (*Implies) propNode() {}
func (*Not) propNode()     {}
func (*ForAll) propNode()  {}
func (*Exists) propNode()  {}
func (*Pred) propNode()    {}

var (
	True  = &Truth{}
	False = &Falsity{}
)

func Equals(left, right term.Term) *Eq { return &Eq{Left: left, Right: right} }
func Conj(left, right Prop) *And       { return &And{Left: left, Right: right} }
func Disj(left, right Prop) *Or        { return &Or{Left: left, Right: right} }
func Neg(p Prop) *Not                  { return &Not{Negated: p} }

// Impl builds P1 -> P2 -> ... -> Pn
func Impl(first Prop, rest ...Prop) Prop {
	if len(rest) == 0 {
		return first
	}
	return &Implies{Premise: first, Conclusion: Impl(rest[0], rest[1:]...)}
}

func Forall(name string, t types.TypeExpr, body Prop) *ForAll {
	return &ForAll{Var: name, Type: t, Body: body}
}

func Exist(name string, t types.TypeExpr, body Prop) *Exists {
	return &Exists{Var: name, Type: t, Body: body}
}

func Holds(name string, args ...term.Term) *Pred { return &Pred{Name: name, Args: args} }

// precedence of each proposition when printed, the higher the tighter
func precedence(p Prop) int {
	switch p.(type) {
	case *ForAll, *Exists:
		return 0
	case *Implies:
		return 1
	case *Or:
		return 2
	case *And:
		return 3
	case *Not:
		return 4
	case *Eq:
		return 5
	default:
		return 6
	}
}

func wrap(p Prop, atLeast int) string {
	if precedence(p) < atLeast {
		return "(" + p.String() + ")"
	}
	return p.String()
}

func (p *Eq) String() string    { return p.Left.String() + " = " + p.Right.String() }
func (*Truth) String() string   { return "True" }
func (*Falsity) String() string { return "False" }

func (p *And) String() string     { return wrap(p.Left, 4) + " /\\ " + wrap(p.Right, 3) }
func (p *Or) String() string      { return wrap(p.Left, 3) + " \\/ " + wrap(p.Right, 2) }
func (p *Implies) String() string { return wrap(p.Premise, 2) + " -> " + wrap(p.Conclusion, 1) }
func (p *Not) String() string     { return "~ " + wrap(p.Negated, 4) }

func (p *ForAll) String() string {
	return fmt.Sprintf("forall %s : %s, %s", p.Var, p.Type, p.Body)
}

func (p *Exists) String() string {
	return fmt.Sprintf("exists %s : %s, %s", p.Var, p.Type, p.Body)
}

func (p *Pred) String() string {
	if len(p.Args) == 0 {
		return p.Name
	}
	sb := &strings.Builder{}
	sb.WriteString(p.Name)
	for _, arg := range p.Args {
		sb.WriteString(" ")
		// the String of a term application is never wrapped in parentheses
		if strings.Contains(arg.String(), " ") {
			sb.WriteString("(" + arg.String() + ")")
		} else {
			sb.WriteString(arg.String())
		}
	}
	return sb.String()
}
