package prop

import (
	"fmt"
	"iter"
	"strings"
	"sync"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/lemma/core/check"
	"github.com/cottand/lemma/core/lerr"
	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/core/types"
	"github.com/cottand/lemma/util"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

type Binder struct {
	Name string
	Type types.TypeExpr
}

// Premise is a named hypothesis of a Rule
type Premise struct {
	Name string
	Prop Prop
}

// Rule is one way of deriving a Pred of its Family: for every value of the Binders,
// if all Premises hold then the Conclusion holds.
type Rule struct {
	Name       string
	Family     string
	Binders    []Binder
	Premises   []Premise
	Conclusion *Pred
}

// AsProp is the statement of r, such as forall w h t, Mem w t -> Mem w (cons h t)
func (r *Rule) AsProp() Prop {
	var body Prop = r.Conclusion
	for premise := range util.Reverse(r.Premises) {
		body = &Implies{Premise: premise.Prop, Conclusion: body}
	}
	for binder := range util.Reverse(r.Binders) {
		body = Forall(binder.Name, binder.Type, body)
	}
	return body
}

func (r *Rule) String() string {
	return r.Name + " : " + r.AsProp().String()
}

// Family is an inductively defined predicate: a Pred of the family holds exactly when
// it can be derived by a finite number of applications of its Rules.
type Family struct {
	Name       string
	IndexTypes []types.TypeExpr
	Rules      []*Rule
}

func (f *Family) String() string {
	sb := &strings.Builder{}
	sb.WriteString("Inductive ")
	sb.WriteString(f.Name)
	sb.WriteString(" : ")
	for _, t := range f.IndexTypes {
		sb.WriteString(t.String())
		sb.WriteString(" -> ")
	}
	sb.WriteString("Prop :=")
	for _, r := range f.Rules {
		sb.WriteString(" | ")
		sb.WriteString(r.String())
	}
	return sb.String()
}

// Registry holds the declared predicate families, and their rules by name.
// Like types.Registry, it is append-only and readers never lock.
type Registry struct {
	Types *types.Registry
	// Functions are the functions rules may call. When nil, rules may only build values.
	Functions check.Functions

	mu       sync.Mutex
	families *util.Registry[string, *Family]
	rules    *util.Registry[string, *Rule]
}

func NewRegistry(typeRegistry *types.Registry) *Registry {
	return &Registry{
		Types:    typeRegistry,
		families: util.NewRegistry[string, *Family](),
		rules:    util.NewRegistry[string, *Rule](),
	}
}

// DeclarePredicate declares the family name, whose arguments have the given indexTypes,
// defined by rules. The conclusion of every rule must be a Pred of this family, and every
// variable in a rule must be one of its binders.
func (r *Registry) DeclarePredicate(name string, indexTypes []types.TypeExpr, rules ...*Rule) (*Family, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.families.Get(name); exists {
		return nil, lerr.New(lerr.RedeclarationError{Kind: "predicate", Name: name})
	}
	for _, t := range indexTypes {
		if err := r.checkType(name, t); err != nil {
			return nil, err
		}
	}
	family := &Family{Name: name, IndexTypes: indexTypes}
	ruleNames := util.NewEmptySet[string]()
	for _, rule := range rules {
		if _, exists := r.rules.Get(rule.Name); exists || ruleNames.Contains(rule.Name) {
			return nil, lerr.New(lerr.RedeclarationError{Kind: "rule", Name: rule.Name})
		}
		ruleNames.Add(rule.Name)
		declared := *rule
		declared.Family = name
		if err := r.checkRule(family, &declared); err != nil {
			return nil, err
		}
		family.Rules = append(family.Rules, &declared)
	}

	err := r.families.Update(func(*immutable.SortedMap[string, *Family]) ([]util.Pair[string, *Family], error) {
		return []util.Pair[string, *Family]{util.NewPair(name, family)}, nil
	})
	if err != nil {
		return nil, err
	}
	err = r.rules.Update(func(*immutable.SortedMap[string, *Rule]) ([]util.Pair[string, *Rule], error) {
		return lo.Map(family.Rules, func(rule *Rule, _ int) util.Pair[string, *Rule] { return util.NewPair(rule.Name, rule) }), nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("declared predicate", "family", LogFamily(family))
	return family, nil
}

func (r *Registry) malformed(name, format string, args ...any) error {
	return lerr.New(lerr.MalformedDefinitionError{Name: name, Reason: fmt.Sprintf(format, args...)})
}

func (r *Registry) checkType(name string, t types.TypeExpr) error {
	switch t := t.(type) {
	case *types.Param:
		return nil
	case *types.Arrow:
		if err := r.checkType(name, t.From); err != nil {
			return err
		}
		return r.checkType(name, t.To)
	case *types.Named:
		typ, err := r.Types.Lookup(t.Name)
		if err != nil {
			return err
		}
		if len(typ.Params) != len(t.Args) {
			return r.malformed(name, "type '%s' expects %d type argument(s) but got %d", t.Name, len(typ.Params), len(t.Args))
		}
		for _, arg := range t.Args {
			if err := r.checkType(name, arg); err != nil {
				return err
			}
		}
		return nil
	default:
		return r.malformed(name, "unknown type expression %T", t)
	}
}

func (r *Registry) checkRule(family *Family, rule *Rule) error {
	if rule.Conclusion == nil || rule.Conclusion.Name != family.Name {
		return r.malformed(rule.Name, "the conclusion of a rule of '%s' must be '%s' applied to its indices", family.Name, family.Name)
	}
	if len(rule.Conclusion.Args) != len(family.IndexTypes) {
		return r.malformed(rule.Name, "'%s' has %d indices but the conclusion has %d", family.Name, len(family.IndexTypes), len(rule.Conclusion.Args))
	}
	bound := util.NewEmptySet[string]()
	for _, b := range rule.Binders {
		if bound.Contains(b.Name) {
			return r.malformed(rule.Name, "variable '%s' is bound twice", b.Name)
		}
		bound.Add(b.Name)
		if err := r.checkType(rule.Name, b.Type); err != nil {
			return err
		}
	}
	premiseNames := util.NewEmptySet[string]()
	for _, premise := range rule.Premises {
		if premiseNames.Contains(premise.Name) {
			return r.malformed(rule.Name, "premise '%s' is declared twice", premise.Name)
		}
		premiseNames.Add(premise.Name)
		if err := r.checkProp(family, rule, premise.Prop, bound); err != nil {
			return err
		}
	}
	if err := r.checkProp(family, rule, rule.Conclusion, bound); err != nil {
		return err
	}

	ty := check.NewTyper(r.Types, r.Functions)
	scope := check.NewScope()
	for _, b := range rule.Binders {
		scope = scope.With(b.Name, b.Type)
	}
	for _, premise := range rule.Premises {
		if err := r.typeCheck(ty, scope, premise.Prop, family); err != nil {
			return errors.Wrapf(err, "in premise '%s' of rule '%s'", premise.Name, rule.Name)
		}
	}
	if err := r.typeCheck(ty, scope, rule.Conclusion, family); err != nil {
		return errors.Wrapf(err, "in the conclusion of rule '%s'", rule.Name)
	}
	return nil
}

func (r *Registry) checkProp(family *Family, rule *Rule, p Prop, bound util.MSet[string]) error {
	for _, name := range util.SortedKeys(FreeVars(p)) {
		if !bound.Contains(name) {
			return r.malformed(rule.Name, "variable '%s' is not bound by the rule", name)
		}
	}
	var err error
	MapTerms(p, func(t term.Term) term.Term {
		if err == nil {
			err = r.checkConstructors(t)
		}
		return t
	})
	if err != nil {
		return err
	}
	return r.checkPreds(family, rule, p)
}

func (r *Registry) checkConstructors(t term.Term) error {
	switch t := t.(type) {
	case *term.Ctor:
		ctor, err := r.Types.LookupConstructor(t.Name)
		if err != nil {
			return err
		}
		if ctor.Arity() != len(t.Args) {
			return lerr.New(lerr.MalformedDefinitionError{
				Name:   t.String(),
				Reason: fmt.Sprintf("constructor '%s' expects %d argument(s) but got %d", t.Name, ctor.Arity(), len(t.Args)),
			})
		}
		for _, arg := range t.Args {
			if err := r.checkConstructors(arg); err != nil {
				return err
			}
		}
	case *term.App:
		for _, arg := range t.Args {
			if err := r.checkConstructors(arg); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkPreds checks that every Pred in p belongs to family or to a declared family
func (r *Registry) checkPreds(family *Family, rule *Rule, p Prop) error {
	switch p := p.(type) {
	case *Pred:
		arity := len(family.IndexTypes)
		if p.Name != family.Name {
			other, err := r.Lookup(p.Name)
			if err != nil {
				return err
			}
			arity = len(other.IndexTypes)
		}
		if arity != len(p.Args) {
			return r.malformed(rule.Name, "'%s' has %d indices but is applied to %d", p.Name, arity, len(p.Args))
		}
		return nil
	case *And:
		return firstError(r.checkPreds(family, rule, p.Left), r.checkPreds(family, rule, p.Right))
	case *Or:
		return firstError(r.checkPreds(family, rule, p.Left), r.checkPreds(family, rule, p.Right))
	case *Implies:
		return firstError(r.checkPreds(family, rule, p.Premise), r.checkPreds(family, rule, p.Conclusion))
	case *Not:
		return r.checkPreds(family, rule, p.Negated)
	case *ForAll:
		return r.checkPreds(family, rule, p.Body)
	case *Exists:
		return r.checkPreds(family, rule, p.Body)
	default:
		return nil
	}
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) Lookup(name string) (*Family, error) {
	family, ok := r.families.Get(name)
	if !ok {
		return nil, lerr.New(lerr.UnknownPredicateError{Name: name})
	}
	return family, nil
}

// Rule returns the rule called name, of any family
func (r *Registry) Rule(name string) (*Rule, bool) {
	return r.rules.Get(name)
}

// Families iterates over the declared families in name order
func (r *Registry) Families() iter.Seq[*Family] {
	return func(yield func(*Family) bool) {
		for _, family := range r.families.All() {
			if !yield(family) {
				return
			}
		}
	}
}
