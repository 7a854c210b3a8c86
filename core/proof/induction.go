package proof

import (
	"unicode"

	"github.com/cottand/lemma/core/lerr"
	"github.com/cottand/lemma/core/prop"
	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/core/types"
	"github.com/samber/lo"
)

func (p *Prover) induction(goal *Goal, t Induction) ([]*Goal, error) {
	// a variable still bound by the conclusion is introduced first, along with what precedes it
	for {
		if _, ok := goal.Lookup(t.Var); ok {
			break
		}
		if !quantifies(goal.Conclusion, t.Var) {
			return nil, lerr.New(lerr.UnknownHypothesisError{Name: t.Var})
		}
		var err error
		if goal, err = p.intro(goal, t, ""); err != nil {
			return nil, err
		}
	}
	h, _ := goal.Lookup(t.Var)
	if !h.IsVariable() {
		return nil, inapplicable(t, "a variable", h)
	}
	return p.caseAnalysis(goal, t, h, t.Names, true)
}

// quantifies reports whether name is bound by one of the leading quantifiers of p,
// looking past premises
func quantifies(p prop.Prop, name string) bool {
	for {
		switch q := p.(type) {
		case *prop.ForAll:
			if q.Var == name {
				return true
			}
			p = q.Body
		case *prop.Implies:
			p = q.Conclusion
		default:
			return false
		}
	}
}

// caseAnalysis gives one goal per constructor of the type of the variable x, where x is that
// constructor applied to fresh variables. With induction, hypotheses mentioning x are reverted
// into the conclusion first, and every argument of the same type as x gets an induction hypothesis.
func (p *Prover) caseAnalysis(goal *Goal, t Tactic, x Hypothesis, given []string, induction bool) ([]*Goal, error) {
	named, ok := x.Type.(*types.Named)
	if !ok {
		return nil, inapplicable(t, "a variable of an inductive type", x)
	}
	typ, err := p.Env.Types.Lookup(named.Name)
	if err != nil {
		return nil, err
	}

	base := goal.replacing(x.Name)
	motive := goal.Conclusion
	if induction {
		reverted := lo.Filter(base.Context, func(h Hypothesis, _ int) bool {
			return !h.IsVariable() && prop.Mentions(h.Prop, x.Name)
		})
		if len(reverted) > 0 {
			premises := lo.Map(reverted, func(h Hypothesis, _ int) prop.Prop { return h.Prop })
			motive = prop.Impl(premises[0], append(premises[1:], motive)...)
			base.Context = lo.Reject(base.Context, func(h Hypothesis, _ int) bool {
				return !h.IsVariable() && prop.Mentions(h.Prop, x.Name)
			})
			logger.Debug("reverted hypotheses", "variable", x.Name, "count", len(reverted))
		}
	}
	base.Conclusion = motive

	names, err := newNameSupply(t, goal.used(), given)
	if err != nil {
		return nil, err
	}
	goals := make([]*Goal, 0, len(typ.Constructors))
	for _, ctor := range typ.Constructors {
		argTypes := typ.ArgTypes(ctor, named.Args)
		args := make([]Hypothesis, len(argTypes))
		for i, argType := range argTypes {
			args[i] = Variable(names.fresh(nameFor(argType)), argType)
		}
		value := term.C(ctor.Name, lo.Map(args, func(arg Hypothesis, _ int) term.Term { return term.V(arg.Name) })...)

		caseGoal := base.mapProps(func(p prop.Prop) prop.Prop { return prop.Subst(p, x.Name, value) })
		caseGoal.Context = append(caseGoal.Context, args...)
		if induction {
			for _, arg := range args {
				if argNamed, ok := arg.Type.(*types.Named); ok && argNamed.Name == named.Name {
					ih := names.fresh("IH" + arg.Name)
					caseGoal.Context = append(caseGoal.Context, Assume(ih, prop.Subst(motive, x.Name, term.V(arg.Name))))
				}
			}
		}
		goals = append(goals, caseGoal)
	}
	return goals, nil
}

// nameFor picks the base of the name for a new variable of type t: the initial of its type
func nameFor(t types.TypeExpr) string {
	head, ok := types.Head(t)
	if param, isParam := t.(*types.Param); isParam {
		head, ok = param.Name, true
	}
	if !ok {
		return "f"
	}
	for _, r := range head {
		if unicode.IsLetter(r) {
			return string(unicode.ToLower(r))
		}
	}
	return "x"
}
