package proof

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/lemma/core/check"
	"github.com/cottand/lemma/core/eval"
	"github.com/cottand/lemma/core/lerr"
	"github.com/cottand/lemma/core/prop"
	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/core/types"
	"github.com/cottand/lemma/internal/log"
	"github.com/cottand/lemma/util"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var logger = log.DefaultLogger.With("section", "tactic")

type Settings struct {
	// AutoInstantiate lets apply infer the quantified variables of a statement
	// which are not given explicitly, by matching its conclusion against the goal
	AutoInstantiate bool
}

var DefaultSettings = Settings{AutoInstantiate: true}

// Step records one successful tactic application
type Step struct {
	Tactic string
	// Goal is the ID of the goal the tactic was applied to
	Goal int
	// Produced is the number of goals which replaced it
	Produced int
}

// State is a proof in progress. States are never modified: Prover.Apply returns a new one.
type State struct {
	Name      string
	Statement prop.Prop
	// Goals are the goals left to prove. Tactics apply to the first one.
	Goals   []*Goal
	Steps   []Step
	Session uuid.UUID

	nextGoalID int
}

func (s *State) Done() bool { return len(s.Goals) == 0 }

func (s *State) String() string {
	if s.Done() {
		return fmt.Sprintf("%s: no more goals", s.Name)
	}
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "%s: %d goal(s)\n", s.Name, len(s.Goals))
	sb.WriteString(s.Goals[0].String())
	for i, g := range s.Goals[1:] {
		fmt.Fprintf(sb, "\n\ngoal %d is:\n%s", i+2, g.Conclusion)
	}
	return sb.String()
}

func (s *State) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("theorem", s.Name),
		slog.String("session", s.Session.String()),
		slog.Int("goals", len(s.Goals)),
	)
}

// Prover runs tactics against proof states, and keeps the library of proved theorems
// which later proofs may use
type Prover struct {
	Env      *eval.Env
	Preds    *prop.Registry
	Settings Settings

	theorems *util.Registry[string, prop.Prop]
}

func NewProver(env *eval.Env, preds *prop.Registry, settings Settings) *Prover {
	return &Prover{
		Env:      env,
		Preds:    preds,
		Settings: settings,
		theorems: util.NewRegistry[string, prop.Prop](),
	}
}

// Start begins the proof of the closed statement
func (p *Prover) Start(name string, statement prop.Prop) (*State, error) {
	if free := util.SortedKeys(prop.FreeVars(statement)); len(free) > 0 {
		return nil, lerr.New(lerr.MalformedDefinitionError{
			Name:   name,
			Reason: fmt.Sprintf("statement has free variables %s", strings.Join(free, ", ")),
		})
	}
	if err := p.Preds.TypeCheck(p.typer(), check.NewScope(), statement); err != nil {
		return nil, errors.Wrapf(err, "statement of '%s'", name)
	}
	s := &State{
		Name:       name,
		Statement:  statement,
		Goals:      []*Goal{{ID: 0, Conclusion: statement}},
		Session:    uuid.New(),
		nextGoalID: 1,
	}
	logger.Debug("started proof", "state", s, "statement", prop.Slog(statement))
	return s, nil
}

// Apply runs t on the first goal of s. The goals t produces take its place,
// ahead of the other goals. When t fails, s is left as it was.
func (p *Prover) Apply(s *State, t Tactic) (*State, error) {
	if s.Done() {
		return s, lerr.New(lerr.InapplicableTacticError{Tactic: t.String(), Expected: "an open goal", Found: "no goals"})
	}
	goal := s.Goals[0]
	produced, err := p.run(goal, t)
	if err != nil {
		logger.Debug("tactic failed", "state", s, "tactic", t.String(), "error", err)
		return s, err
	}
	next := &State{
		Name:       s.Name,
		Statement:  s.Statement,
		Session:    s.Session,
		Steps:      append(slices.Clip(s.Steps), Step{Tactic: t.String(), Goal: goal.ID, Produced: len(produced)}),
		nextGoalID: s.nextGoalID,
	}
	numbered := make([]*Goal, len(produced))
	for i, g := range produced {
		numbered[i] = &Goal{ID: next.nextGoalID, Context: g.Context, Conclusion: g.Conclusion}
		next.nextGoalID++
	}
	next.Goals = slices.Concat(numbered, s.Goals[1:])
	logger.Debug("applied tactic", "state", next, "tactic", t.String(), "produced", len(produced))
	return next, nil
}

// Run applies tactics in order, stopping at the first failure.
// It returns the last state reached.
func (p *Prover) Run(s *State, tactics ...Tactic) (*State, error) {
	for i, t := range tactics {
		next, err := p.Apply(s, t)
		if err != nil {
			return s, errors.Wrapf(err, "step %d (%s) of '%s'", i+1, t, s.Name)
		}
		s = next
	}
	return s, nil
}

// Qed adds the statement of the finished proof s to the theorems of p
func (p *Prover) Qed(s *State) error {
	if !s.Done() {
		return lerr.New(lerr.UnprovedTheoremError{Name: s.Name, OpenGoals: len(s.Goals)})
	}
	err := p.theorems.Update(func(current *immutable.SortedMap[string, prop.Prop]) ([]util.Pair[string, prop.Prop], error) {
		if _, exists := current.Get(s.Name); exists {
			return nil, lerr.New(lerr.RedeclarationError{Kind: "theorem", Name: s.Name})
		}
		return []util.Pair[string, prop.Prop]{util.NewPair(s.Name, s.Statement)}, nil
	})
	if err != nil {
		return err
	}
	logger.Info("proved theorem", "state", s, "steps", len(s.Steps))
	return nil
}

// Prove runs a whole proof script, and admits the theorem when it succeeds
func (p *Prover) Prove(name string, statement prop.Prop, tactics ...Tactic) (*State, error) {
	s, err := p.Start(name, statement)
	if err != nil {
		return nil, err
	}
	s, err = p.Run(s, tactics...)
	if err != nil {
		return s, err
	}
	return s, p.Qed(s)
}

// Theorem returns the statement of the proved theorem called name
func (p *Prover) Theorem(name string) (prop.Prop, bool) {
	return p.theorems.Get(name)
}

// Theorems iterates over the proved theorems in name order
func (p *Prover) Theorems() iter.Seq2[string, prop.Prop] {
	return p.theorems.All()
}

func (p *Prover) typer() *check.Typer {
	return check.NewTyper(p.Env.Types, p.Env)
}

// checkInstances checks that the terms u binds metas to have the types of the
// binders the metas stand for. The binders may share type parameters.
func (p *Prover) checkInstances(goal *Goal, metas []string, binderTypes []types.TypeExpr, u *term.Unifier) error {
	ty := p.typer()
	instantiated := ty.Instantiate(binderTypes...)
	scope := goal.scope()
	for i, meta := range metas {
		scope = scope.With(meta, instantiated[i])
	}
	for i, meta := range metas {
		bound, solved := u.Bound(term.V(meta))
		if !solved {
			continue
		}
		if err := ty.Check(scope, bound, instantiated[i]); err != nil {
			return errors.Wrapf(err, "instantiating %s", strings.TrimPrefix(meta, term.MetaPrefix))
		}
	}
	return nil
}

// statementOf finds what name refers to from goal: a hypothesis, a theorem, or a predicate rule
func (p *Prover) statementOf(goal *Goal, name string) (prop.Prop, error) {
	if h, ok := goal.Lookup(name); ok {
		if h.IsVariable() {
			return nil, lerr.New(lerr.InapplicableTacticError{Tactic: name, Expected: "a hypothesis, theorem or rule", Found: h.String()})
		}
		return h.Prop, nil
	}
	if statement, ok := p.Theorem(name); ok {
		return statement, nil
	}
	if rule, ok := p.Preds.Rule(name); ok {
		return rule.AsProp(), nil
	}
	return nil, lerr.New(lerr.UnknownHypothesisError{Name: name})
}
