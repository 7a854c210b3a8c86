package types

import (
	"fmt"
	"iter"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/lemma/core/lerr"
	"github.com/cottand/lemma/internal/log"
	"github.com/samber/lo"
)

var logger = log.DefaultLogger.With("section", "registry")

const (
	BoolTypeName = "bool"
	TrueName     = "true"
	FalseName    = "false"

	// NatTypeName is the type of natural numbers. Its values are represented as numeral
	// literals rather than towers of SuccName.
	NatTypeName = "nat"
	ZeroName    = "O"
	SuccName    = "S"
)

var (
	BoolType = T(BoolTypeName)
	NatType  = T(NatTypeName)
)

type Constructor struct {
	Name string
	// Type is the name of the InductiveType this constructor belongs to
	Type string
	// Tag is the position of the constructor in its type's declaration
	Tag  int
	Args []TypeExpr
}

func (c *Constructor) Arity() int { return len(c.Args) }

func (c *Constructor) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " : " + Func(append(slices.Clone(c.Args), T(c.Type))...).String()
}

type InductiveType struct {
	Name         string
	Params       []string
	Constructors []*Constructor
}

// Self is the type expression of t applied to its own parameters, like `list X`
func (t *InductiveType) Self() *Named {
	return T(t.Name, lo.Map(t.Params, func(p string, _ int) TypeExpr { return Var(p) })...)
}

func (t *InductiveType) Constructor(name string) (*Constructor, bool) {
	return lo.Find(t.Constructors, func(c *Constructor) bool { return c.Name == name })
}

// ArgTypes returns the argument types of c when its type is instantiated with typeArgs.
// Missing typeArgs leave the corresponding parameters in place.
func (t *InductiveType) ArgTypes(c *Constructor, typeArgs []TypeExpr) []TypeExpr {
	with := make(map[string]TypeExpr, len(t.Params))
	for i, param := range t.Params {
		if i < len(typeArgs) {
			with[param] = typeArgs[i]
		}
	}
	return lo.Map(c.Args, func(arg TypeExpr, _ int) TypeExpr { return Subst(arg, with) })
}

func (t *InductiveType) String() string {
	ctors := lo.Map(t.Constructors, func(c *Constructor, _ int) string { return c.String() })
	return fmt.Sprintf("%s = %v", t.Self(), ctors)
}

// ConstructorDecl is what a front end provides to declare a Constructor.
// Its tag is assigned at declaration.
type ConstructorDecl struct {
	Name string
	Args []TypeExpr
}

func Ctor(name string, args ...TypeExpr) ConstructorDecl {
	return ConstructorDecl{Name: name, Args: args}
}

type TypeDecl struct {
	Name         string
	Params       []string
	Constructors []ConstructorDecl
}

type snapshot struct {
	types *immutable.SortedMap[string, *InductiveType]
	ctors *immutable.Map[string, *Constructor]
}

// Registry is the append-only table of declared inductive types and their constructors.
//
// Declarations are serialised, while lookups read an immutable snapshot
// and are safe to perform concurrently with a declaration.
type Registry struct {
	mu      sync.Mutex
	current atomic.Pointer[snapshot]
}

// NewRegistry returns a Registry where the built-in bool and nat types are already declared
func NewRegistry() *Registry {
	r := &Registry{}
	r.current.Store(&snapshot{
		types: immutable.NewSortedMap[string, *InductiveType](nil),
		ctors: immutable.NewMap[string, *Constructor](nil),
	})
	builtins := []TypeDecl{
		{Name: BoolTypeName, Constructors: []ConstructorDecl{Ctor(TrueName), Ctor(FalseName)}},
		{Name: NatTypeName, Constructors: []ConstructorDecl{Ctor(ZeroName), Ctor(SuccName, NatType)}},
	}
	for _, decl := range builtins {
		if _, err := r.DeclareType(decl); err != nil {
			panic("failed to declare built-in type: " + err.Error())
		}
	}
	return r
}

// DeclareType registers a new inductive type and assigns tags to its constructors.
// A failed declaration leaves the registry unchanged.
func (r *Registry) DeclareType(decl TypeDecl) (*InductiveType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.current.Load()

	if _, exists := current.types.Get(decl.Name); exists {
		return nil, lerr.New(lerr.RedeclarationError{Kind: "type", Name: decl.Name})
	}
	if len(lo.Uniq(decl.Params)) != len(decl.Params) {
		return nil, lerr.New(lerr.MalformedDefinitionError{Name: decl.Name, Reason: "type parameters must be distinct"})
	}

	typ := &InductiveType{
		Name:         decl.Name,
		Params:       slices.Clone(decl.Params),
		Constructors: make([]*Constructor, 0, len(decl.Constructors)),
	}
	seen := make(map[string]bool, len(decl.Constructors))
	for tag, ctorDecl := range decl.Constructors {
		if _, exists := current.ctors.Get(ctorDecl.Name); exists || seen[ctorDecl.Name] {
			return nil, lerr.New(lerr.RedeclarationError{Kind: "constructor", Name: ctorDecl.Name})
		}
		seen[ctorDecl.Name] = true
		ctor := &Constructor{
			Name: ctorDecl.Name,
			Type: decl.Name,
			Tag:  tag,
			Args: slices.Clone(ctorDecl.Args),
		}
		for _, arg := range ctor.Args {
			if err := r.checkWellFormed(current, typ, ctor, arg); err != nil {
				return nil, err
			}
			if err := r.checkPositive(current, typ, ctor, arg); err != nil {
				return nil, err
			}
		}
		typ.Constructors = append(typ.Constructors, ctor)
	}

	next := &snapshot{
		types: current.types.Set(typ.Name, typ),
		ctors: current.ctors,
	}
	for _, ctor := range typ.Constructors {
		next.ctors = next.ctors.Set(ctor.Name, ctor)
	}
	r.current.Store(next)
	logger.Debug("declared type", "type", typ.String())
	return typ, nil
}

// checkWellFormed makes sure every name in arg refers to a declared type applied
// to the right number of arguments, or to a parameter of typ
func (r *Registry) checkWellFormed(current *snapshot, typ *InductiveType, ctor *Constructor, arg TypeExpr) error {
	switch arg := arg.(type) {
	case *Param:
		if !slices.Contains(typ.Params, arg.Name) {
			return lerr.New(lerr.UnknownTypeError{Name: arg.Name})
		}
		return nil
	case *Arrow:
		if err := r.checkWellFormed(current, typ, ctor, arg.From); err != nil {
			return err
		}
		return r.checkWellFormed(current, typ, ctor, arg.To)
	case *Named:
		if arg.Name == typ.Name {
			// recursive occurrences must be uniform so that values are regular trees
			if !Equal(arg, typ.Self()) {
				return lerr.New(lerr.MalformedDefinitionError{
					Name:   ctor.Name,
					Reason: fmt.Sprintf("recursive occurrence '%s' must be '%s'", arg, typ.Self()),
				})
			}
			return nil
		}
		other, ok := current.types.Get(arg.Name)
		if !ok {
			return lerr.New(lerr.UnknownTypeError{Name: arg.Name})
		}
		if len(other.Params) != len(arg.Args) {
			return lerr.New(lerr.MalformedDefinitionError{
				Name:   ctor.Name,
				Reason: fmt.Sprintf("type '%s' expects %d type argument(s) but got %d", other.Name, len(other.Params), len(arg.Args)),
			})
		}
		for _, typeArg := range arg.Args {
			if err := r.checkWellFormed(current, typ, ctor, typeArg); err != nil {
				return err
			}
		}
		return nil
	default:
		panic(fmt.Sprintf("unreachable: unknown type expression %T", arg))
	}
}

func (r *Registry) Lookup(name string) (*InductiveType, error) {
	typ, ok := r.current.Load().types.Get(name)
	if !ok {
		return nil, lerr.New(lerr.UnknownTypeError{Name: name})
	}
	return typ, nil
}

func (r *Registry) LookupConstructor(name string) (*Constructor, error) {
	ctor, ok := r.current.Load().ctors.Get(name)
	if !ok {
		return nil, lerr.New(lerr.UnknownConstructorError{Name: name})
	}
	return ctor, nil
}

// TypeOfConstructor returns the InductiveType which owns the constructor called name
func (r *Registry) TypeOfConstructor(name string) (*InductiveType, *Constructor, error) {
	ctor, err := r.LookupConstructor(name)
	if err != nil {
		return nil, nil, err
	}
	typ, err := r.Lookup(ctor.Type)
	if err != nil {
		return nil, nil, err
	}
	return typ, ctor, nil
}

// Types iterates over the declared types in name order
func (r *Registry) Types() iter.Seq[*InductiveType] {
	types := r.current.Load().types
	return func(yield func(*InductiveType) bool) {
		it := types.Iterator()
		for !it.Done() {
			_, typ, _ := it.Next()
			if !yield(typ) {
				return
			}
		}
	}
}
