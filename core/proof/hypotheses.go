package proof

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cottand/lemma/core/prop"
	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/core/types"
	"github.com/cottand/lemma/util"
	"github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// stage is a statement with some of its leading binders and premises peeled off.
// Peeled binders are replaced by metavariables in the rest of the statement.
type stage struct {
	metas []string
	// binders are the types of the binders metas stand for
	binders  []types.TypeExpr
	premises []prop.Prop
	rest     prop.Prop
}

// peel returns every way of peeling statement, from nothing peeled to as much as possible
func peel(statement prop.Prop) []stage {
	used := set.New[string](4)
	current := stage{rest: statement}
	stages := []stage{current}
	for {
		switch p := current.rest.(type) {
		case *prop.ForAll:
			name := util.FreshName(p.Var, used)
			used.Insert(name)
			meta := term.Meta(name)
			current = stage{
				metas:    append(slices.Clone(current.metas), meta.Name),
				binders:  append(slices.Clone(current.binders), p.Type),
				premises: current.premises,
				rest:     prop.Subst(p.Body, p.Var, meta),
			}
		case *prop.Implies:
			current = stage{
				metas:    current.metas,
				binders:  current.binders,
				premises: append(slices.Clone(current.premises), p.Premise),
				rest:     p.Conclusion,
			}
		default:
			return stages
		}
		stages = append(stages, current)
	}
}

// explicit binds the first metas of s to the given terms
func (s stage) explicit(u *term.Unifier, with []term.Term) {
	for i, arg := range with {
		u.Unify(term.V(s.metas[i]), arg)
	}
}

func metaList(names []string) stringer {
	return stringer(strings.Join(lo.Map(names, func(n string, _ int) string { return term.MetaPrefix + n }), ", "))
}

func (p *Prover) apply(goal *Goal, t Apply) ([]*Goal, error) {
	statement, err := p.statementOf(goal, t.Hyp)
	if err != nil {
		return nil, err
	}
	stages := peel(statement)
	last := stages[len(stages)-1]
	if quantified := len(last.metas); len(t.With) > quantified {
		return nil, inapplicable(t, fmt.Sprintf("at most %d instantiations", quantified), statement)
	}
	explicit := term.NewUnifier(false)
	last.explicit(explicit, t.With)
	if err := p.checkInstances(goal, last.metas, last.binders, explicit); err != nil {
		return nil, err
	}
	for _, st := range stages {
		if len(st.metas) < len(t.With) {
			continue
		}
		if !p.Settings.AutoInstantiate && len(st.metas) > len(t.With) {
			continue
		}
		u := term.NewUnifier(false)
		st.explicit(u, t.With)
		if !prop.Match(st.rest, goal.Conclusion, u) {
			continue
		}
		if err := p.checkInstances(goal, st.metas, st.binders, u); err != nil {
			return nil, err
		}
		premises := lo.Map(st.premises, func(premise prop.Prop, _ int) prop.Prop { return prop.Resolve(premise, u) })
		var unsolved []string
		for _, premise := range premises {
			unsolved = append(unsolved, prop.Metas(premise)...)
		}
		if len(unsolved) > 0 {
			return nil, inapplicable(t, "explicit instantiations for "+string(metaList(lo.Uniq(unsolved))), statement)
		}
		logger.Debug("applied statement", "name", t.Hyp, "premises", len(premises))
		return lo.Map(premises, func(premise prop.Prop, _ int) *Goal { return goal.derive(premise) }), nil
	}
	return nil, inapplicable(t, fmt.Sprintf("a goal matching the conclusion of %s : %s", t.Hyp, statement), goal.Conclusion)
}

func (p *Prover) applyIn(goal *Goal, t ApplyIn) (*Goal, error) {
	statement, err := p.statementOf(goal, t.Hyp)
	if err != nil {
		return nil, err
	}
	target, err := p.lookupProp(goal, t, t.Target)
	if err != nil {
		return nil, err
	}
	st, found := lo.Find(peel(statement), func(st stage) bool { return len(st.premises) == 1 })
	if !found {
		return nil, inapplicable(t, "a statement with a premise", statement)
	}
	if len(t.With) > len(st.metas) {
		return nil, inapplicable(t, fmt.Sprintf("at most %d instantiations", len(st.metas)), statement)
	}
	u := term.NewUnifier(false)
	st.explicit(u, t.With)
	if !prop.Match(st.premises[0], target.Prop, u) {
		return nil, inapplicable(t, "a hypothesis matching "+st.premises[0].String(), target)
	}
	if err := p.checkInstances(goal, st.metas, st.binders, u); err != nil {
		return nil, err
	}
	concluded := prop.Resolve(st.rest, u)
	if unsolved := prop.Metas(concluded); len(unsolved) > 0 {
		return nil, inapplicable(t, "explicit instantiations for "+string(metaList(unsolved)), statement)
	}
	return goal.replacing(target.Name, Assume(target.Name, concluded)), nil
}

func (p *Prover) pose(goal *Goal, t Pose) (*Goal, error) {
	statement, err := p.statementOf(goal, t.Lemma)
	if err != nil {
		return nil, err
	}
	var binders []*prop.ForAll
	for rest := statement; len(binders) < len(t.With); {
		all, ok := rest.(*prop.ForAll)
		if !ok {
			return nil, inapplicable(t, "a universal quantification to instantiate", rest)
		}
		binders = append(binders, all)
		rest = all.Body
	}
	ty := p.typer()
	binderTypes := ty.Instantiate(lo.Map(binders, func(all *prop.ForAll, _ int) types.TypeExpr { return all.Type })...)
	scope := goal.scope()
	for i, arg := range t.With {
		if err := ty.Check(scope, arg, binderTypes[i]); err != nil {
			return nil, errors.Wrapf(err, "instantiating %s", binders[i].Var)
		}
		all := statement.(*prop.ForAll)
		statement = prop.Subst(all.Body, all.Var, arg)
	}
	name := t.As
	if name == "" {
		name = goal.fresh("H")
	} else if goal.used().Contains(name) {
		return nil, inapplicable(t, "a fresh name", stringer(name))
	}
	return goal.with(Assume(name, statement)), nil
}

func (p *Prover) destruct(goal *Goal, t Destruct) ([]*Goal, error) {
	h, err := p.lookup(goal, t.Hyp)
	if err != nil {
		return nil, err
	}
	if h.IsVariable() {
		return p.caseAnalysis(goal, t, h, t.Names, false)
	}
	without := goal.replacing(h.Name)
	names, err := newNameSupply(t, without.used(), t.Names)
	if err != nil {
		return nil, err
	}
	switch hp := h.Prop.(type) {
	case *prop.And:
		left := names.fresh(h.Name)
		right := names.fresh(h.Name)
		return []*Goal{goal.replacing(h.Name, Assume(left, hp.Left), Assume(right, hp.Right))}, nil
	case *prop.Or:
		pick := func(i int) string {
			if i < len(t.Names) && t.Names[i] != "" && t.Names[i] != "_" {
				return t.Names[i]
			}
			return h.Name
		}
		return []*Goal{
			goal.replacing(h.Name, Assume(pick(0), hp.Left)),
			goal.replacing(h.Name, Assume(pick(1), hp.Right)),
		}, nil
	case *prop.Exists:
		witness := names.fresh(hp.Var)
		body := names.fresh(h.Name)
		return []*Goal{goal.replacing(h.Name,
			Variable(witness, hp.Type),
			Assume(body, prop.Subst(hp.Body, hp.Var, term.V(witness))),
		)}, nil
	case *prop.Falsity:
		return nil, nil
	case *prop.Pred:
		return p.destructPred(goal, h, hp, names)
	default:
		return nil, inapplicable(t, "a conjunction, disjunction, existential, predicate or variable", h)
	}
}

// destructPred gives one goal per rule of the family of pred whose conclusion could be pred.
// The hypothesis h is replaced by the variables and premises of the rule, and by the equations
// its conclusion must satisfy for the rule to derive pred. Rules which cannot derive pred at all,
// because their conclusion builds different constructors, give no goal.
func (p *Prover) destructPred(goal *Goal, h Hypothesis, pred *prop.Pred, names *nameSupply) ([]*Goal, error) {
	family, err := p.Preds.Lookup(pred.Name)
	if err != nil {
		return nil, err
	}
	base := goal.replacing(h.Name)
	var goals []*Goal
	for _, rule := range family.Rules {
		metas := make(map[string]term.Term, len(rule.Binders))
		for _, b := range rule.Binders {
			metas[b.Name] = term.Meta(b.Name)
		}
		u := term.NewUnifier(true)
		if !prop.Match(prop.SubstAll(rule.Conclusion, metas), pred, u) {
			logger.Debug("rule cannot derive hypothesis", "rule", rule.Name, "hypothesis", prop.Slog(pred))
			continue
		}
		supply := &nameSupply{given: names.given, next: names.next, used: names.used.Copy()}
		var hyps []Hypothesis
		for _, b := range rule.Binders {
			meta := term.Meta(b.Name)
			if _, solved := u.Bound(meta); solved {
				continue
			}
			name := supply.fresh(b.Name)
			hyps = append(hyps, Variable(name, b.Type))
			u.Unify(meta, term.V(name))
		}
		for _, premise := range rule.Premises {
			hyps = append(hyps, Assume(supply.fresh(premise.Name), prop.Resolve(prop.SubstAll(premise.Prop, metas), u)))
		}
		for _, residual := range u.Residual {
			hyps = append(hyps, Assume(supply.fresh("Heq"), prop.Equals(u.Resolve(residual.Snd), u.Resolve(residual.Fst))))
		}
		goals = append(goals, base.with(hyps...))
	}
	return goals, nil
}

func (p *Prover) rewrite(goal *Goal, t Rewrite) (*Goal, error) {
	statement, err := p.statementOf(goal, t.Hyp)
	if err != nil {
		return nil, err
	}
	names, body := prop.Instantiate(statement)
	eq, ok := body.(*prop.Eq)
	if !ok {
		return nil, inapplicable(t, "an equality", statement)
	}
	from, to := eq.Left, eq.Right
	if t.Reverse {
		from, to = to, from
	}
	target := goal.Conclusion
	var hyp Hypothesis
	if t.In != "" {
		if hyp, err = p.lookupProp(goal, t, t.In); err != nil {
			return nil, err
		}
		target = hyp.Prop
	}
	if len(prop.Metas(prop.Equals(from, to))) > 0 {
		u, found := instance(target, from)
		if !found {
			return nil, inapplicable(t, fmt.Sprintf("an instance of '%s'", eq.Left), target)
		}
		metas := lo.Map(names, func(name string, _ int) string { return term.Meta(name).Name })
		if err := p.checkInstances(goal, metas, binderTypes(statement), u); err != nil {
			return nil, err
		}
		from, to = u.Resolve(from), u.Resolve(to)
		if unsolved := prop.Metas(prop.Equals(from, to)); len(unsolved) > 0 {
			return nil, inapplicable(t, "explicit instantiations for "+string(metaList(unsolved)), statement)
		}
	}
	rewritten, changed := prop.Rewrite(target, from, to)
	if !changed {
		return nil, inapplicable(t, fmt.Sprintf("an occurrence of '%s'", from), target)
	}
	if t.In != "" {
		return goal.replacing(hyp.Name, Assume(hyp.Name, rewritten)), nil
	}
	return goal.derive(rewritten), nil
}

// instance finds the first subterm of target which from matches,
// and returns the metavariables solved by that match
func instance(target prop.Prop, from term.Term) (*term.Unifier, bool) {
	var candidates []term.Term
	prop.MapTerms(target, func(t term.Term) term.Term {
		candidates = append(candidates, subterms(t)...)
		return t
	})
	for _, candidate := range candidates {
		u := term.NewUnifier(false)
		if u.Unify(from, candidate) {
			return u, true
		}
	}
	return nil, false
}

// binderTypes returns the types of the leading universal quantifiers of p
func binderTypes(p prop.Prop) []types.TypeExpr {
	var found []types.TypeExpr
	for {
		all, ok := p.(*prop.ForAll)
		if !ok {
			return found
		}
		found = append(found, all.Type)
		p = all.Body
	}
}

// subterms lists t and its subterms, outermost first
func subterms(t term.Term) []term.Term {
	found := []term.Term{t}
	switch t := t.(type) {
	case *term.Ctor:
		for _, arg := range t.Args {
			found = append(found, subterms(arg)...)
		}
	case *term.App:
		for _, arg := range t.Args {
			found = append(found, subterms(arg)...)
		}
	}
	return found
}

func (p *Prover) inversion(goal *Goal, t Inversion) ([]*Goal, error) {
	h, err := p.lookupProp(goal, t, t.Hyp)
	if err != nil {
		return nil, err
	}
	switch hp := h.Prop.(type) {
	case *prop.Pred:
		names, err := newNameSupply(t, goal.replacing(h.Name).used(), nil)
		if err != nil {
			return nil, err
		}
		return p.destructPred(goal, h, hp, names)
	case *prop.Eq:
		left, err := p.Env.Normalize(hp.Left)
		if err != nil {
			return nil, err
		}
		right, err := p.Env.Normalize(hp.Right)
		if err != nil {
			return nil, err
		}
		_, _, leftErr := p.Env.Decompose(left)
		_, _, rightErr := p.Env.Decompose(right)
		if leftErr != nil || rightErr != nil {
			return nil, inapplicable(t, "an equality between constructor applications", h)
		}
		var equations []util.Pair[term.Term, term.Term]
		if clash := injective(left, right, &equations); clash {
			logger.Debug("constructors clash", "hypothesis", h.Name)
			return nil, nil
		}
		names := util.FreshNames(goal.replacing(h.Name).used(), lo.Map(equations, func(util.Pair[term.Term, term.Term], int) string { return h.Name })...)
		hyps := lo.Map(equations, func(eq util.Pair[term.Term, term.Term], i int) Hypothesis {
			return Assume(names[i], prop.Equals(eq.Fst, eq.Snd))
		})
		return []*Goal{goal.replacing(h.Name, hyps...)}, nil
	default:
		return nil, inapplicable(t, "an equality or a predicate", h)
	}
}

// injective decomposes the equality a = b between constructor applications into equalities
// between their arguments, added to equations. It reports whether the constructors clash somewhere,
// in which case the equality cannot hold.
func injective(a, b term.Term, equations *[]util.Pair[term.Term, term.Term]) (clash bool) {
	if term.Equal(a, b) {
		return false
	}
	nameA, argsA, okA := term.AsConstructor(a)
	nameB, argsB, okB := term.AsConstructor(b)
	if !okA || !okB {
		*equations = append(*equations, util.NewPair(a, b))
		return false
	}
	if nameA != nameB || len(argsA) != len(argsB) {
		return true
	}
	for i := range argsA {
		if injective(argsA[i], argsB[i], equations) {
			return true
		}
	}
	return false
}
