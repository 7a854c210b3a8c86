package basics

import (
	"github.com/cottand/lemma/core/proof"
	"github.com/cottand/lemma/core/prop"
	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/core/types"
)

// Theorem is a statement together with the tactic script proving it
type Theorem struct {
	Name      string
	Statement prop.Prop
	Script    []proof.Tactic
}

// Theorems returns the theorems of the library. Later ones may use earlier ones.
func Theorems() []Theorem {
	return []Theorem{
		orbTrueElim(),
		eqbDayTrue(),
		{
			Name:      "length_work_week",
			Statement: prop.Equals(term.Call("length", term.Call("work_week")), term.N(5)),
			Script:    []proof.Tactic{proof.Reflexivity{}},
		},
		{
			Name:      "monday_not_tuesday",
			Statement: prop.Neg(prop.Equals(term.C("Monday"), term.C("Tuesday"))),
			Script:    []proof.Tactic{proof.Intro{Name: "H"}, proof.Inversion{Hyp: "H"}},
		},
		{
			Name:      "monday_in_work_week",
			Statement: prop.Holds("Mem", term.C("Monday"), term.Call("work_week")),
			Script:    []proof.Tactic{proof.Simpl{}, proof.Apply{Hyp: "mem_here"}},
		},
		{
			Name:      "some_work_day",
			Statement: prop.Exist("d", DayType, prop.Equals(term.Call("is_a_member", term.V("d"), term.Call("work_week")), term.True)),
			Script:    []proof.Tactic{proof.Exists{Witness: term.C("Wednesday")}, proof.Reflexivity{}},
		},
		memberMem(),
	}
}

func orbTrueElim() Theorem {
	a, b := term.V("a"), term.V("b")
	return Theorem{
		Name: "orb_true_elim",
		Statement: prop.Forall("a", types.BoolType, prop.Forall("b", types.BoolType, prop.Impl(
			prop.Equals(term.Call("orb", a, b), term.True),
			prop.Disj(prop.Equals(a, term.True), prop.Equals(b, term.True)),
		))),
		Script: []proof.Tactic{
			proof.Intros{Names: []string{"a", "b", "H"}},
			proof.Destruct{Hyp: "a"},
			// a = true
			proof.Left{},
			proof.Reflexivity{},
			// a = false
			proof.Simpl{In: "H"},
			proof.Right{},
			proof.Apply{Hyp: "H"},
		},
	}
}

// eqbDayTrue checks every pair of days: equal ones by reflexivity,
// and different ones because eqb_day gives false for them
func eqbDayTrue() Theorem {
	d1, d2 := term.V("d1"), term.V("d2")
	script := []proof.Tactic{
		proof.Intros{Names: []string{"d1", "d2", "H"}},
		proof.Destruct{Hyp: "d1"},
	}
	for i := range Days {
		script = append(script, proof.Destruct{Hyp: "d2"})
		for j := range Days {
			script = append(script, proof.Simpl{In: "H"})
			if i == j {
				script = append(script, proof.Reflexivity{})
			} else {
				script = append(script, proof.Inversion{Hyp: "H"})
			}
		}
	}
	return Theorem{
		Name: "eqb_day_true",
		Statement: prop.Forall("d1", DayType, prop.Forall("d2", DayType, prop.Impl(
			prop.Equals(term.Call("eqb_day", d1, d2), term.True),
			prop.Equals(d1, d2),
		))),
		Script: script,
	}
}

func memberMem() Theorem {
	w, l := term.V("w"), term.V("l")
	return Theorem{
		Name: "member_mem",
		Statement: prop.Forall("w", DayType, prop.Forall("l", ListOf(DayType), prop.Impl(
			prop.Equals(term.Call("is_a_member", w, l), term.True),
			prop.Holds("Mem", w, l),
		))),
		Script: []proof.Tactic{
			proof.Intro{Name: "w"},
			proof.Intro{Name: "l"},
			proof.Induction{Var: "l", Names: []string{"h", "t"}},
			// l = nil
			proof.Intro{Name: "H"},
			proof.Simpl{In: "H"},
			proof.Inversion{Hyp: "H"},
			// l = cons h t
			proof.Intro{Name: "H"},
			proof.Simpl{In: "H"},
			proof.ApplyIn{Hyp: "orb_true_elim", Target: "H"},
			proof.Destruct{Hyp: "H", Names: []string{"H1", "H2"}},
			// eqb_day w h = true
			proof.ApplyIn{Hyp: "eqb_day_true", Target: "H1"},
			proof.Rewrite{Hyp: "H1"},
			proof.Apply{Hyp: "mem_here"},
			// is_a_member w t = true
			proof.Apply{Hyp: "mem_there"},
			proof.Apply{Hyp: "IHt"},
			proof.Apply{Hyp: "H2"},
		},
	}
}
