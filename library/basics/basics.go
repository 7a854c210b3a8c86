// Package basics is a small library of days, booleans and lists, with functions over them,
// the Mem predicate, and proofs relating is_a_member to Mem.
package basics

import (
	"github.com/cottand/lemma/core/eval"
	"github.com/cottand/lemma/core/lerr"
	"github.com/cottand/lemma/core/proof"
	"github.com/cottand/lemma/core/prop"
	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/core/types"
	"github.com/cottand/lemma/internal/log"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var logger = log.DefaultLogger.With("section", "library")

var Days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var (
	DayType = types.T("day")
	x       = types.Var("X")
)

func ListOf(t types.TypeExpr) *types.Named { return types.T("list", t) }

// List builds the list value holding elems
func List(elems ...term.Term) term.Term {
	l := term.C("nil")
	for i := len(elems) - 1; i >= 0; i-- {
		l = term.C("cons", elems[i], l)
	}
	return l
}

// Library is a loaded set of declarations, ready for evaluation and proofs
type Library struct {
	Types  *types.Registry
	Env    *eval.Env
	Preds  *prop.Registry
	Prover *proof.Prover
}

func TypeDecls() []types.TypeDecl {
	return []types.TypeDecl{
		{
			Name:         "day",
			Constructors: lo.Map(Days, func(d string, _ int) types.ConstructorDecl { return types.Ctor(d) }),
		},
		{
			Name:         "list",
			Params:       []string{"X"},
			Constructors: []types.ConstructorDecl{types.Ctor("nil"), types.Ctor("cons", x, ListOf(x))},
		},
	}
}

func FunctionDefs() []*term.FunctionDef {
	v := term.V
	eqbArms := lo.Map(Days, func(d string, _ int) term.Arm { return term.When(term.True, term.PC(d), term.PC(d)) })
	eqbArms = append(eqbArms, term.When(term.False, term.Wild, term.Wild))

	return []*term.FunctionDef{
		{
			Name:   "orb",
			Params: []term.Param{{Name: "b1", Type: types.BoolType}, {Name: "b2", Type: types.BoolType}},
			Result: types.BoolType,
			Body: term.Case(v("b1"),
				term.When(term.True, term.PC(types.TrueName)),
				term.When(v("b2"), term.PC(types.FalseName)),
			),
		},
		{
			Name:   "eqb_day",
			Params: []term.Param{{Name: "d1", Type: DayType}, {Name: "d2", Type: DayType}},
			Result: types.BoolType,
			Body:   term.CaseN([]term.Term{v("d1"), v("d2")}, eqbArms...),
		},
		{
			Name:   "length",
			Params: []term.Param{{Name: "l", Type: ListOf(x)}},
			Result: types.NatType,
			Body: term.Case(v("l"),
				term.When(term.N(0), term.PC("nil")),
				term.When(term.C(types.SuccName, term.Call("length", v("t"))), term.PC("cons", term.Wild, term.PV("t"))),
			),
		},
		{
			Name:   "work_week",
			Result: ListOf(DayType),
			Body:   List(lo.Map(Days[:5], func(d string, _ int) term.Term { return term.C(d) })...),
		},
		{
			Name:   "is_a_member",
			Params: []term.Param{{Name: "w", Type: DayType}, {Name: "l", Type: ListOf(DayType)}},
			Result: types.BoolType,
			Body: term.Case(v("l"),
				term.When(term.False, term.PC("nil")),
				term.When(
					term.Call("orb", term.Call("eqb_day", v("w"), v("h")), term.Call("is_a_member", v("w"), v("t"))),
					term.PC("cons", term.PV("h"), term.PV("t")),
				),
			),
		},
	}
}

// MemRules are the rules of Mem w l, which holds when the day w is in the list l
func MemRules() []*prop.Rule {
	w, h, t := term.V("w"), term.V("h"), term.V("t")
	return []*prop.Rule{
		{
			Name:       "mem_here",
			Binders:    []prop.Binder{{Name: "h", Type: DayType}, {Name: "t", Type: ListOf(DayType)}},
			Conclusion: prop.Holds("Mem", h, term.C("cons", h, t)),
		},
		{
			Name: "mem_there",
			Binders: []prop.Binder{
				{Name: "w", Type: DayType},
				{Name: "h", Type: DayType},
				{Name: "t", Type: ListOf(DayType)},
			},
			Premises:   []prop.Premise{{Name: "H", Prop: prop.Holds("Mem", w, t)}},
			Conclusion: prop.Holds("Mem", w, term.C("cons", h, t)),
		},
	}
}

// Load declares every type, function and predicate of the library. Declarations which fail
// are all reported together; theorems are not proved (see ProveAll).
func Load(evalSettings eval.Settings, proofSettings proof.Settings) (*Library, error) {
	registry := types.NewRegistry()
	collect := func(errs *lerr.Errors, err error) *lerr.Errors {
		var lemmaErr lerr.LemmaError
		if lerr.As(err, &lemmaErr) {
			return errs.With(lemmaErr)
		}
		return errs
	}

	var typeErrs *lerr.Errors
	for _, decl := range TypeDecls() {
		if _, err := registry.DeclareType(decl); err != nil {
			typeErrs = collect(typeErrs, err)
		}
	}
	env := eval.NewEnv(registry, evalSettings)
	var defErrs *lerr.Errors
	for _, fd := range FunctionDefs() {
		if _, err := env.Define(fd); err != nil {
			defErrs = collect(defErrs, err)
		}
	}
	preds := prop.NewRegistry(registry)
	preds.Functions = env
	if _, err := preds.DeclarePredicate("Mem", []types.TypeExpr{DayType, ListOf(DayType)}, MemRules()...); err != nil {
		defErrs = collect(defErrs, err)
	}
	if errs := typeErrs.Merge(defErrs); errs.HasError() {
		logger.Error("could not load library", "errors", errs)
		return nil, errors.Wrap(errs.Err(), "loading basics")
	}
	logger.Info("loaded library", "functions", len(FunctionDefs()))
	return &Library{
		Types:  registry,
		Env:    env,
		Preds:  preds,
		Prover: proof.NewProver(env, preds, proofSettings),
	}, nil
}

// ProveAll proves the theorems of the library in order, stopping at the first which fails
func (l *Library) ProveAll() ([]*proof.State, error) {
	var states []*proof.State
	for _, th := range Theorems() {
		s, err := l.Prove(th)
		states = append(states, s)
		if err != nil {
			return states, err
		}
	}
	return states, nil
}

// Prove replays the script of th and admits it as a theorem
func (l *Library) Prove(th Theorem) (*proof.State, error) {
	s, err := l.Prover.Prove(th.Name, th.Statement, th.Script...)
	if err != nil {
		return s, errors.Wrapf(err, "proving %s", th.Name)
	}
	return s, nil
}
