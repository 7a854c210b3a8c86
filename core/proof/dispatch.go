package proof

import (
	"fmt"
	"strings"

	"github.com/cottand/lemma/core/lerr"
	"github.com/cottand/lemma/core/prop"
	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/util"
	"github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"
)

// run applies t to goal, and returns the goals which replace it
func (p *Prover) run(goal *Goal, t Tactic) ([]*Goal, error) {
	switch t := t.(type) {
	case Intro:
		return one(p.intro(goal, t, t.Name))
	case Intros:
		return one(p.intros(goal, t))
	case Split:
		and, ok := goal.Conclusion.(*prop.And)
		if !ok {
			return nil, inapplicable(t, "a conjunction", goal.Conclusion)
		}
		return []*Goal{goal.derive(and.Left), goal.derive(and.Right)}, nil
	case Left:
		or, ok := goal.Conclusion.(*prop.Or)
		if !ok {
			return nil, inapplicable(t, "a disjunction", goal.Conclusion)
		}
		return []*Goal{goal.derive(or.Left)}, nil
	case Right:
		or, ok := goal.Conclusion.(*prop.Or)
		if !ok {
			return nil, inapplicable(t, "a disjunction", goal.Conclusion)
		}
		return []*Goal{goal.derive(or.Right)}, nil
	case Trivial:
		return nil, p.trivial(goal, t)
	case Reflexivity:
		return nil, p.reflexivity(goal, t)
	case Exists:
		return one(p.exists(goal, t))
	case Apply:
		return p.apply(goal, t)
	case ApplyIn:
		return one(p.applyIn(goal, t))
	case Destruct:
		return p.destruct(goal, t)
	case Contradiction:
		return nil, p.contradiction(goal, t)
	case Rewrite:
		return one(p.rewrite(goal, t))
	case Inversion:
		return p.inversion(goal, t)
	case Simpl:
		return one(p.simpl(goal, t))
	case Induction:
		return p.induction(goal, t)
	case Assumption:
		if _, found := assumed(goal, goal.Conclusion); !found {
			return nil, inapplicable(t, "a hypothesis matching the goal", goal.Conclusion)
		}
		return nil, nil
	case Pose:
		return one(p.pose(goal, t))
	case Exfalso:
		return []*Goal{goal.derive(prop.False)}, nil
	default:
		panic(fmt.Sprintf("unreachable: unknown tactic %T", t))
	}
}

func one(g *Goal, err error) ([]*Goal, error) {
	if err != nil {
		return nil, err
	}
	return []*Goal{g}, nil
}

func inapplicable(t Tactic, expected string, found fmt.Stringer) error {
	return lerr.New(lerr.InapplicableTacticError{Tactic: t.String(), Expected: expected, Found: found.String()})
}

// assumed finds a hypothesis of goal which states p
func assumed(goal *Goal, p prop.Prop) (Hypothesis, bool) {
	for _, h := range goal.Context {
		if !h.IsVariable() && prop.Equal(h.Prop, p) {
			return h, true
		}
	}
	return Hypothesis{}, false
}

func (p *Prover) lookup(goal *Goal, name string) (Hypothesis, error) {
	h, ok := goal.Lookup(name)
	if !ok {
		return Hypothesis{}, lerr.New(lerr.UnknownHypothesisError{Name: name})
	}
	return h, nil
}

// lookupProp finds the hypothesis called name, which must be a Prop rather than a variable
func (p *Prover) lookupProp(goal *Goal, t Tactic, name string) (Hypothesis, error) {
	h, err := p.lookup(goal, name)
	if err != nil {
		return h, err
	}
	if h.IsVariable() {
		return h, inapplicable(t, "a hypothesis", h)
	}
	return h, nil
}

// nameSupply hands out the names a tactic was given, then fresh ones
type nameSupply struct {
	given []string
	next  int
	used  *set.Set[string]
}

func newNameSupply(t Tactic, used *set.Set[string], given []string) (*nameSupply, error) {
	seen := set.New[string](len(given))
	for _, name := range given {
		if name == "" || name == "_" {
			continue
		}
		if used.Contains(name) || !seen.Insert(name) {
			return nil, inapplicable(t, "fresh names", stringer(name))
		}
	}
	return &nameSupply{given: given, used: used}, nil
}

func (s *nameSupply) fresh(base string) string {
	if s.next < len(s.given) {
		name := s.given[s.next]
		s.next++
		if name != "" && name != "_" {
			s.used.Insert(name)
			return name
		}
	}
	name := util.FreshName(base, s.used)
	s.used.Insert(name)
	return name
}

type stringer string

func (s stringer) String() string { return string(s) }

func (p *Prover) intro(goal *Goal, t Tactic, name string) (*Goal, error) {
	if name != "" && goal.used().Contains(name) {
		return nil, inapplicable(t, "a fresh name", stringer(name))
	}
	pick := func(base string) string {
		if name != "" {
			return name
		}
		return goal.fresh(base)
	}
	switch c := goal.Conclusion.(type) {
	case *prop.Implies:
		introduced := goal.with(Assume(pick("H"), c.Premise))
		introduced.Conclusion = c.Conclusion
		return introduced, nil
	case *prop.Not:
		introduced := goal.with(Assume(pick("H"), c.Negated))
		introduced.Conclusion = prop.False
		return introduced, nil
	case *prop.ForAll:
		n := pick(c.Var)
		introduced := goal.with(Variable(n, c.Type))
		introduced.Conclusion = c.Body
		if n != c.Var {
			introduced.Conclusion = prop.Subst(c.Body, c.Var, term.V(n))
		}
		return introduced, nil
	default:
		return nil, inapplicable(t, "an implication, a universal quantification or a negation", goal.Conclusion)
	}
}

func introducible(p prop.Prop) bool {
	switch p.(type) {
	case *prop.Implies, *prop.Not, *prop.ForAll:
		return true
	default:
		return false
	}
}

func (p *Prover) intros(goal *Goal, t Intros) (*Goal, error) {
	var err error
	if len(t.Names) == 0 {
		for introducible(goal.Conclusion) {
			if goal, err = p.intro(goal, t, ""); err != nil {
				return nil, err
			}
		}
		return goal, nil
	}
	for _, name := range t.Names {
		if goal, err = p.intro(goal, t, name); err != nil {
			return nil, err
		}
	}
	return goal, nil
}

func (p *Prover) trivial(goal *Goal, t Trivial) error {
	switch c := goal.Conclusion.(type) {
	case *prop.Truth:
		return nil
	case *prop.Eq:
		if term.Equal(c.Left, c.Right) {
			return nil
		}
	}
	if _, found := assumed(goal, goal.Conclusion); found {
		return nil
	}
	return inapplicable(t, "True, a hypothesis or an equality between identical terms", goal.Conclusion)
}

func (p *Prover) reflexivity(goal *Goal, t Reflexivity) error {
	eq, ok := goal.Conclusion.(*prop.Eq)
	if !ok {
		return inapplicable(t, "an equality", goal.Conclusion)
	}
	left, err := p.Env.Normalize(eq.Left)
	if err != nil {
		return err
	}
	right, err := p.Env.Normalize(eq.Right)
	if err != nil {
		return err
	}
	if !term.Equal(left, right) {
		return lerr.New(lerr.NotDefinitionallyEqualError{Left: left.String(), Right: right.String()})
	}
	return nil
}

func (p *Prover) exists(goal *Goal, t Exists) (*Goal, error) {
	ex, ok := goal.Conclusion.(*prop.Exists)
	if !ok {
		return nil, inapplicable(t, "an existential", goal.Conclusion)
	}
	var unknown []string
	for _, name := range util.SortedKeys(term.FreeVars(t.Witness)) {
		if h, ok := goal.Lookup(name); !ok || !h.IsVariable() {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return nil, inapplicable(t, "a witness built from variables in context", stringer(strings.Join(unknown, ", ")))
	}
	if err := p.typer().Check(goal.scope(), t.Witness, ex.Type); err != nil {
		return nil, errors.Wrapf(err, "witness for %s", ex.Var)
	}
	return goal.derive(prop.Subst(ex.Body, ex.Var, t.Witness)), nil
}

func (p *Prover) contradiction(goal *Goal, t Contradiction) error {
	candidates := goal.Context
	if t.Hyp != "" {
		h, err := p.lookupProp(goal, t, t.Hyp)
		if err != nil {
			return err
		}
		candidates = []Hypothesis{h}
	}
	for _, h := range candidates {
		if h.IsVariable() {
			continue
		}
		if _, isFalse := h.Prop.(*prop.Falsity); isFalse {
			return nil
		}
		if not, isNot := h.Prop.(*prop.Not); isNot {
			if _, found := assumed(goal, not.Negated); found {
				return nil
			}
		}
		if _, found := assumed(goal, prop.Neg(h.Prop)); found {
			return nil
		}
	}
	return inapplicable(t, "a False hypothesis, or a hypothesis and its negation", goal.Conclusion)
}

func (p *Prover) simpl(goal *Goal, t Simpl) (*Goal, error) {
	normalize := func(in prop.Prop) (prop.Prop, error) {
		var err error
		normal := prop.MapTerms(in, func(t term.Term) term.Term {
			n, normErr := p.Env.Normalize(t)
			if normErr != nil {
				err = normErr
				return t
			}
			return n
		})
		return normal, err
	}
	if t.In == "" {
		conclusion, err := normalize(goal.Conclusion)
		if err != nil {
			return nil, err
		}
		return goal.derive(conclusion), nil
	}
	h, err := p.lookupProp(goal, t, t.In)
	if err != nil {
		return nil, err
	}
	simplified, err := normalize(h.Prop)
	if err != nil {
		return nil, err
	}
	return goal.replacing(h.Name, Assume(h.Name, simplified)), nil
}
