package term

// when adding terms here, you should add them to the switch cases in:
// - term:subst.go
// - eval:eval.go/eval
// - check:structural.go/walk
// - check:resolve.go/resolveTerm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cottand/lemma/core/types"
	"github.com/samber/lo"
)

var (
	_ Term = (*Var)(nil)
	_ Term = (*Ctor)(nil)
	_ Term = (*Lit)(nil)
	_ Term = (*App)(nil)
	_ Term = (*Match)(nil)
)

// Term is the base for all terms.
//
// The following terms are supported:
//
//	Var:    variable, bound by a function parameter, a pattern, or a proof context
//	Ctor:   constructor application
//	Lit:    natural number literal
//	App:    application of a defined function
//	Match:  case analysis over the shapes of one or more scrutinees
//
// A Value is a Term built only out of Ctor and Lit, see IsValue.
// Terms are immutable once built, so subterms are shared freely.
type Term interface {
	fmt.Stringer
	termNode()
}

type Var struct {
	Name string
}

type Ctor struct {
	Name string
	Args []Term
}

// Lit is a natural number. O and S applied to a Lit are always folded into a Lit by C.
type Lit struct {
	N uint64
}

type App struct {
	Func string
	Args []Term
}

type Match struct {
	Scrutinees []Term
	Arms       []Arm
}

// Arm is one case of a Match. It has one pattern per scrutinee.
type Arm struct {
	Patterns []Pattern
	Body     Term
}

func (*Var) termNode()   {}
func (*Ctor) termNode()  {}
func (*Lit) termNode()   {}
func (*App) termNode()   {}
func (*Match) termNode() {}

func V(name string) *Var { return &Var{Name: name} }

// N builds a natural number literal
func N(n uint64) *Lit { return &Lit{N: n} }

// C builds a constructor application. Nat constructors applied to literals are folded
// so that every closed nat is a Lit.
func C(name string, args ...Term) Term {
	switch name {
	case types.ZeroName:
		if len(args) == 0 {
			return N(0)
		}
	case types.SuccName:
		if len(args) == 1 {
			if lit, ok := args[0].(*Lit); ok {
				return N(lit.N + 1)
			}
		}
	}
	return &Ctor{Name: name, Args: args}
}

func Call(f string, args ...Term) *App { return &App{Func: f, Args: args} }

// Case builds a Match over a single scrutinee
func Case(scrutinee Term, arms ...Arm) *Match {
	return &Match{Scrutinees: []Term{scrutinee}, Arms: arms}
}

func CaseN(scrutinees []Term, arms ...Arm) *Match {
	return &Match{Scrutinees: scrutinees, Arms: arms}
}

// When builds an Arm, with one pattern per scrutinee
func When(body Term, patterns ...Pattern) Arm {
	return Arm{Patterns: patterns, Body: body}
}

var (
	True  = C(types.TrueName)
	False = C(types.FalseName)
)

// AsConstructor views t as a constructor application, which includes
// viewing a Lit as O or S applied to a smaller Lit
func AsConstructor(t Term) (name string, args []Term, ok bool) {
	switch t := t.(type) {
	case *Ctor:
		return t.Name, t.Args, true
	case *Lit:
		if t.N == 0 {
			return types.ZeroName, nil, true
		}
		return types.SuccName, []Term{N(t.N - 1)}, true
	default:
		return "", nil, false
	}
}

// IsValue reports whether t is fully evaluated and closed
func IsValue(t Term) bool {
	switch t := t.(type) {
	case *Lit:
		return true
	case *Ctor:
		return lo.EveryBy(t.Args, IsValue)
	default:
		return false
	}
}

func (t *Var) String() string { return t.Name }
func (t *Lit) String() string { return strconv.FormatUint(t.N, 10) }

func (t *Ctor) String() string { return application(t.Name, t.Args) }
func (t *App) String() string  { return application(t.Func, t.Args) }

func (t *Match) String() string {
	sb := &strings.Builder{}
	sb.WriteString("match ")
	sb.WriteString(strings.Join(lo.Map(t.Scrutinees, func(s Term, _ int) string { return s.String() }), ", "))
	sb.WriteString(" with")
	for _, arm := range t.Arms {
		sb.WriteString(" | ")
		sb.WriteString(strings.Join(lo.Map(arm.Patterns, func(p Pattern, _ int) string { return p.String() }), ", "))
		sb.WriteString(" => ")
		sb.WriteString(arm.Body.String())
	}
	sb.WriteString(" end")
	return sb.String()
}

func application(head string, args []Term) string {
	if len(args) == 0 {
		return head
	}
	sb := &strings.Builder{}
	sb.WriteString(head)
	for _, arg := range args {
		sb.WriteString(" ")
		if isAtomic(arg) {
			sb.WriteString(arg.String())
		} else {
			sb.WriteString("(" + arg.String() + ")")
		}
	}
	return sb.String()
}

func isAtomic(t Term) bool {
	switch t := t.(type) {
	case *Var, *Lit:
		return true
	case *Ctor:
		return len(t.Args) == 0
	case *App:
		return len(t.Args) == 0
	default:
		return false
	}
}
