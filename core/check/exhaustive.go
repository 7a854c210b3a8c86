package check

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/cottand/lemma/core/lerr"
	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/core/types"
	"github.com/samber/lo"
	"github.com/xtgo/set"
)

// Exhaustive checks that every Match in the body of fd covers every possible value of its scrutinees.
// It also warns about arms which can never be selected because earlier arms cover them.
//
// This is the usefulness algorithm over pattern matrices: a match is exhaustive when a row
// of wildcards would not be useful after all of its arms.
// See Maranget, "Warnings for pattern matching" (2007).
func Exhaustive(reg *types.Registry, fd *term.FunctionDef) error {
	c := &coverage{reg: reg}
	var err error
	walkMatches(fd.Body, func(m *term.Match) bool {
		rows := lo.Map(m.Arms, func(arm term.Arm, _ int) []term.Pattern { return arm.Patterns })
		for i, row := range rows {
			useful, rowErr := c.useful(rows[:i], row)
			if rowErr != nil {
				err = rowErr
				return false
			}
			if !useful {
				logger.Warn("unreachable match arm", "function", fd.Name, "arm", i, "match", term.Slog(m))
			}
		}
		witness, missing, missingErr := c.missing(rows, len(m.Scrutinees))
		if missingErr != nil {
			err = missingErr
			return false
		}
		if missing {
			err = lerr.New(lerr.NonExhaustiveMatchError{
				Function: fd.Name,
				Missing:  strings.Join(lo.Map(witness, func(p term.Pattern, _ int) string { return p.String() }), ", "),
			})
			return false
		}
		return true
	})
	if err != nil {
		var malformed lerr.MalformedDefinitionError
		if lerr.As(err, &malformed) && malformed.Name == "" {
			malformed.Name = fd.Name
			return lerr.New(malformed)
		}
	}
	return err
}

// walkMatches calls f on every Match in t, outermost first, until f returns false
func walkMatches(t term.Term, f func(*term.Match) bool) bool {
	switch t := t.(type) {
	case *term.Ctor:
		for _, arg := range t.Args {
			if !walkMatches(arg, f) {
				return false
			}
		}
	case *term.App:
		for _, arg := range t.Args {
			if !walkMatches(arg, f) {
				return false
			}
		}
	case *term.Match:
		if !f(t) {
			return false
		}
		for _, s := range t.Scrutinees {
			if !walkMatches(s, f) {
				return false
			}
		}
		for _, arm := range t.Arms {
			if !walkMatches(arm.Body, f) {
				return false
			}
		}
	}
	return true
}

type coverage struct {
	reg *types.Registry
}

// signature returns the type of the constructors heading the first column of rows,
// and the names of those constructors, sorted and without duplicates
func (c *coverage) signature(rows [][]term.Pattern) (*types.InductiveType, []string, error) {
	var typ *types.InductiveType
	var heads []string
	for _, row := range rows {
		ctor, ok := term.AsConstructorPattern(row[0])
		if !ok {
			continue
		}
		ctorType, _, err := c.reg.TypeOfConstructor(ctor.Name)
		if err != nil {
			return nil, nil, err
		}
		if typ != nil && typ.Name != ctorType.Name {
			return nil, nil, lerr.New(lerr.MalformedDefinitionError{
				Reason: fmt.Sprintf("patterns of types '%s' and '%s' are mixed in the same column", typ.Name, ctorType.Name),
			})
		}
		typ = ctorType
		heads = append(heads, ctor.Name)
	}
	sort.Strings(heads)
	heads = heads[:set.Uniq(sort.StringSlice(heads))]
	return typ, heads, nil
}

// uncovered returns the constructors of typ which are not in heads, in declaration order
func uncovered(typ *types.InductiveType, heads []string) []*types.Constructor {
	all := lo.Map(typ.Constructors, func(ctor *types.Constructor, _ int) string { return ctor.Name })
	sort.Strings(all)
	data := append(all, heads...)
	missingNames := data[:set.Diff(sort.StringSlice(data), len(all))]
	return lo.Filter(typ.Constructors, func(ctor *types.Constructor, _ int) bool {
		_, found := slices.BinarySearch(missingNames, ctor.Name)
		return found
	})
}

// specialize keeps the rows whose first pattern accepts the constructor name with the given arity,
// replacing that pattern by its sub-patterns
func specialize(rows [][]term.Pattern, name string, arity int) [][]term.Pattern {
	var specialized [][]term.Pattern
	for _, row := range rows {
		ctor, isCtor := term.AsConstructorPattern(row[0])
		switch {
		case !isCtor:
			specialized = append(specialized, slices.Concat(wildcards(arity), row[1:]))
		case ctor.Name == name:
			specialized = append(specialized, slices.Concat(ctor.Args, row[1:]))
		}
	}
	return specialized
}

// defaultRows keeps the rows whose first pattern accepts anything, without that pattern
func defaultRows(rows [][]term.Pattern) [][]term.Pattern {
	var kept [][]term.Pattern
	for _, row := range rows {
		if _, isCtor := term.AsConstructorPattern(row[0]); !isCtor {
			kept = append(kept, row[1:])
		}
	}
	return kept
}

func wildcards(n int) []term.Pattern {
	ws := make([]term.Pattern, n)
	for i := range ws {
		ws[i] = term.Wild
	}
	return ws
}

// useful reports whether some value vector matched by q is matched by no row of rows
func (c *coverage) useful(rows [][]term.Pattern, q []term.Pattern) (bool, error) {
	if len(q) == 0 {
		return len(rows) == 0, nil
	}
	if ctor, ok := term.AsConstructorPattern(q[0]); ok {
		return c.useful(specialize(rows, ctor.Name, len(ctor.Args)), slices.Concat(ctor.Args, q[1:]))
	}
	typ, heads, err := c.signature(rows)
	if err != nil {
		return false, err
	}
	if typ == nil || len(uncovered(typ, heads)) > 0 {
		return c.useful(defaultRows(rows), q[1:])
	}
	for _, ctor := range typ.Constructors {
		useful, err := c.useful(specialize(rows, ctor.Name, ctor.Arity()), slices.Concat(wildcards(ctor.Arity()), q[1:]))
		if err != nil || useful {
			return useful, err
		}
	}
	return false, nil
}

// missing returns n patterns describing values that no row of rows matches, if there are any
func (c *coverage) missing(rows [][]term.Pattern, n int) ([]term.Pattern, bool, error) {
	if n == 0 {
		return []term.Pattern{}, len(rows) == 0, nil
	}
	typ, heads, err := c.signature(rows)
	if err != nil {
		return nil, false, err
	}
	if typ == nil {
		witness, missing, err := c.missing(defaultRows(rows), n-1)
		if err != nil || !missing {
			return nil, false, err
		}
		return slices.Concat([]term.Pattern{term.Wild}, witness), true, nil
	}
	if notCovered := uncovered(typ, heads); len(notCovered) > 0 {
		witness, missing, err := c.missing(defaultRows(rows), n-1)
		if err != nil || !missing {
			return nil, false, err
		}
		example := term.PC(notCovered[0].Name, wildcards(notCovered[0].Arity())...)
		return slices.Concat([]term.Pattern{example}, witness), true, nil
	}
	for _, ctor := range typ.Constructors {
		arity := ctor.Arity()
		witness, missing, err := c.missing(specialize(rows, ctor.Name, arity), arity+n-1)
		if err != nil {
			return nil, false, err
		}
		if missing {
			example := term.PC(ctor.Name, witness[:arity]...)
			return slices.Concat([]term.Pattern{example}, witness[arity:]), true, nil
		}
	}
	return nil, false, nil
}
