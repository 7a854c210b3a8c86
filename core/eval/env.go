package eval

import (
	"iter"
	"sync"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/lemma/core/check"
	"github.com/cottand/lemma/core/lerr"
	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/core/types"
	"github.com/cottand/lemma/internal/log"
	"github.com/cottand/lemma/util"
)

var logger = log.DefaultLogger.With("section", "eval")

type Settings struct {
	// Memoize caches the result of every call of an admitted function on values.
	// Evaluation is pure, so this never changes a result.
	Memoize bool
}

var DefaultSettings = Settings{Memoize: true}

// Env holds the functions which have been admitted, and evaluates them.
// An Env is safe for concurrent use.
type Env struct {
	Types    *types.Registry
	Settings Settings

	functions *util.Registry[string, *term.FunctionDef]
	memo      sync.Map
}

var _ check.Functions = (*Env)(nil)

func NewEnv(registry *types.Registry, settings Settings) *Env {
	return &Env{
		Types:     registry,
		Settings:  settings,
		functions: util.NewRegistry[string, *term.FunctionDef](),
	}
}

// Define admits fd once it is known to be well-formed, exhaustive and terminating.
// It returns the admitted definition, whose Decreasing parameter is always set when
// fd is recursive.
func (e *Env) Define(fd *term.FunctionDef) (*term.FunctionDef, error) {
	if _, exists := e.functions.Get(fd.Name); exists {
		return nil, lerr.New(lerr.RedeclarationError{Kind: "function", Name: fd.Name})
	}
	if err := check.Resolve(e.Types, e, fd); err != nil {
		return nil, err
	}
	if err := check.TypeCheck(e.Types, e, fd); err != nil {
		return nil, err
	}
	if err := check.Exhaustive(e.Types, fd); err != nil {
		return nil, err
	}
	decreasing, err := check.Structural(fd)
	if err != nil {
		return nil, err
	}
	admitted := *fd
	admitted.Decreasing = decreasing

	err = e.functions.Update(func(current *immutable.SortedMap[string, *term.FunctionDef]) ([]util.Pair[string, *term.FunctionDef], error) {
		if _, exists := current.Get(fd.Name); exists {
			return nil, lerr.New(lerr.RedeclarationError{Kind: "function", Name: fd.Name})
		}
		return []util.Pair[string, *term.FunctionDef]{util.NewPair(fd.Name, &admitted)}, nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("admitted function", "name", fd.Name, "signature", admitted.Signature().String(), "decreasing", decreasing, "admitted", e.functions.Len())
	return &admitted, nil
}

// Function returns the admitted function called name
func (e *Env) Function(name string) (*term.FunctionDef, bool) {
	return e.functions.Get(name)
}

// Functions iterates over the admitted functions in name order
func (e *Env) Functions() iter.Seq[*term.FunctionDef] {
	return func(yield func(*term.FunctionDef) bool) {
		for _, fd := range e.functions.All() {
			if !yield(fd) {
				return
			}
		}
	}
}

// Decompose returns the constructor v is built with, and its arguments
func (e *Env) Decompose(v term.Term) (*types.Constructor, []term.Term, error) {
	name, args, ok := term.AsConstructor(v)
	if !ok {
		return nil, nil, lerr.New(lerr.MalformedDefinitionError{Name: v.String(), Reason: "not a constructor application"})
	}
	ctor, err := e.Types.LookupConstructor(name)
	if err != nil {
		return nil, nil, err
	}
	return ctor, args, nil
}
