package proof

import (
	"fmt"
	"strings"

	"github.com/cottand/lemma/core/term"
	"github.com/samber/lo"
)

// Tactic is one step of a proof. The set of tactics is closed: every Tactic
// is one of the types in this file, and Prover.Apply dispatches on them.
type Tactic interface {
	fmt.Stringer
	tactic()
}

var (
	_ Tactic = Intro{}
	_ Tactic = Intros{}
	_ Tactic = Split{}
	_ Tactic = Left{}
	_ Tactic = Right{}
	_ Tactic = Trivial{}
	_ Tactic = Reflexivity{}
	_ Tactic = Exists{}
	_ Tactic = Apply{}
	_ Tactic = ApplyIn{}
	_ Tactic = Destruct{}
	_ Tactic = Contradiction{}
	_ Tactic = Rewrite{}
	_ Tactic = Inversion{}
	_ Tactic = Simpl{}
	_ Tactic = Induction{}
	_ Tactic = Assumption{}
	_ Tactic = Pose{}
	_ Tactic = Exfalso{}
)

// Intro moves the premise of an implication (or the variable of a universal
// quantification, or the negated proposition of a negation) into the context.
// Name may be empty, in which case a fresh one is chosen.
type Intro struct {
	Name string
}

// Intros is Intro once per name, or as many times as possible when Names is empty
type Intros struct {
	Names []string
}

// Split proves a conjunction by proving both sides
type Split struct{}

// Left proves a disjunction by proving its left side
type Left struct{}

// Right proves a disjunction by proving its right side
type Right struct{}

// Trivial proves True, a goal which is a hypothesis, or an equality between identical terms
type Trivial struct{}

// Reflexivity proves an equality whose sides evaluate to the same term
type Reflexivity struct{}

// Exists proves an existential by providing a Witness for it
type Exists struct {
	Witness term.Term
}

// Apply proves the goal with Hyp, a hypothesis, theorem or predicate rule whose conclusion
// matches the goal. The premises of Hyp become new goals.
// With instantiates the leading quantified variables of Hyp in order; the others
// are inferred by matching.
type Apply struct {
	Hyp  string
	With []term.Term
}

// ApplyIn uses Hyp on the hypothesis Target: Target must match the first premise
// of Hyp, and is replaced by what Hyp concludes from it
type ApplyIn struct {
	Hyp    string
	Target string
	With   []term.Term
}

// Destruct takes apart the hypothesis Hyp: a conjunction gives both sides,
// a disjunction gives one goal per side, an existential gives its witness, a predicate
// gives one goal per rule which could have derived it, and a variable gives one goal
// per constructor of its type. Names are used for the new hypotheses in order.
type Destruct struct {
	Hyp   string
	Names []string
}

// Contradiction proves any goal from a False hypothesis, or from a hypothesis and its negation.
// When Hyp is empty the whole context is searched.
type Contradiction struct {
	Hyp string
}

// Rewrite replaces the left side of the equality Hyp by its right side in the goal,
// or in the hypothesis In when it is set. Reverse rewrites from right to left.
type Rewrite struct {
	Hyp     string
	Reverse bool
	In      string
}

// Inversion uses the fact that constructors are distinct and injective on the equality Hyp:
// an equality between different constructors proves any goal, and one between the same
// constructor is replaced by equalities between their arguments.
// On a predicate it behaves like Destruct.
type Inversion struct {
	Hyp string
}

// Simpl evaluates the terms of the goal, or of the hypothesis In when it is set,
// as far as their variables allow
type Simpl struct {
	In string
}

// Induction proves the goal for every value of the variable Var, by proving it for every
// constructor of its type, assuming it for the recursive arguments of that constructor
type Induction struct {
	Var   string
	Names []string
}

// Assumption proves a goal which is one of its hypotheses
type Assumption struct{}

// Pose adds the statement of Lemma to the context as As,
// with its leading quantified variables instantiated by With
type Pose struct {
	Lemma string
	With  []term.Term
	As    string
}

// Exfalso replaces the goal by False
type Exfalso struct{}

func (Intro) tactic()         {}
func (Intros) tactic()        {}
func (Split) tactic()         {}
func (Left) tactic()          {}
func (Right) tactic()         {}
func (Trivial) tactic()       {}
func (Reflexivity) tactic()   {}
func (Exists) tactic()        {}
func (Apply) tactic()         {}
func (ApplyIn) tactic()       {}
func (Destruct) tactic()      {}
func (Contradiction) tactic() {}
func (Rewrite) tactic()       {}
func (Inversion) tactic()     {}
func (Simpl) tactic()         {}
func (Induction) tactic()     {}
func (Assumption) tactic()    {}
func (Pose) tactic()          {}
func (Exfalso) tactic()       {}

func (t Intro) String() string {
	if t.Name == "" {
		return "intro"
	}
	return "intro " + t.Name
}

func (t Intros) String() string {
	return strings.TrimSpace("intros " + strings.Join(t.Names, " "))
}

func (Split) String() string       { return "split" }
func (Left) String() string        { return "left" }
func (Right) String() string       { return "right" }
func (Trivial) String() string     { return "trivial" }
func (Reflexivity) String() string { return "reflexivity" }
func (Assumption) String() string  { return "assumption" }
func (Exfalso) String() string     { return "exfalso" }

func (t Exists) String() string { return "exists " + parenthesised(t.Witness) }

func (t Apply) String() string { return "apply " + t.Hyp + withArgs(t.With) }

func (t ApplyIn) String() string {
	return "apply " + t.Hyp + withArgs(t.With) + " in " + t.Target
}

func (t Destruct) String() string {
	return "destruct " + t.Hyp + asNames(t.Names)
}

func (t Contradiction) String() string {
	return strings.TrimSpace("contradiction " + t.Hyp)
}

func (t Rewrite) String() string {
	s := "rewrite -> " + t.Hyp
	if t.Reverse {
		s = "rewrite <- " + t.Hyp
	}
	if t.In != "" {
		s += " in " + t.In
	}
	return s
}

func (t Inversion) String() string { return "inversion " + t.Hyp }

func (t Simpl) String() string {
	if t.In == "" {
		return "simpl"
	}
	return "simpl in " + t.In
}

func (t Induction) String() string {
	return "induction " + t.Var + asNames(t.Names)
}

func (t Pose) String() string {
	s := "pose proof (" + t.Lemma + withArgs(t.With) + ")"
	if t.As != "" {
		s += " as " + t.As
	}
	return s
}

func parenthesised(t term.Term) string {
	if strings.Contains(t.String(), " ") {
		return "(" + t.String() + ")"
	}
	return t.String()
}

func withArgs(args []term.Term) string {
	if len(args) == 0 {
		return ""
	}
	return " with " + strings.Join(lo.Map(args, func(arg term.Term, _ int) string { return parenthesised(arg) }), " ")
}

func asNames(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return " as [" + strings.Join(names, " ") + "]"
}
