package cmd

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/cottand/lemma/core/term"
	"github.com/cottand/lemma/core/types"
	"github.com/pkg/errors"
)

// tokens splits src into identifiers, numerals, parentheses and arrows
func tokens(src string) []string {
	src = strings.NewReplacer("(", " ( ", ")", " ) ", "->", " -> ").Replace(src)
	return strings.Fields(src)
}

type parser struct {
	toks []string
	pos  int
}

func (p *parser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *parser) next() string {
	tok := p.peek()
	p.pos++
	return tok
}

func (p *parser) expect(tok string) error {
	if got := p.next(); got != tok {
		return errors.Errorf("expected '%s' but found '%s'", tok, got)
	}
	return nil
}

func (p *parser) done() error {
	if p.pos < len(p.toks) {
		return errors.Errorf("unexpected '%s'", strings.Join(p.toks[p.pos:], " "))
	}
	return nil
}

func isIdent(tok string) bool {
	if tok == "" {
		return false
	}
	for i, r := range tok {
		if !unicode.IsLetter(r) && r != '_' && (i == 0 || !unicode.IsDigit(r) && r != '\'') {
			return false
		}
	}
	return true
}

// parseType reads a type such as 'list X -> nat'. Capitalised names are type parameters.
func parseType(src string) (types.TypeExpr, error) {
	p := &parser{toks: tokens(src)}
	t, err := p.arrow()
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse type '%s'", src)
	}
	if err := p.done(); err != nil {
		return nil, errors.Wrapf(err, "could not parse type '%s'", src)
	}
	return t, nil
}

func (p *parser) arrow() (types.TypeExpr, error) {
	from, err := p.typeApp()
	if err != nil {
		return nil, err
	}
	if p.peek() != "->" {
		return from, nil
	}
	p.next()
	to, err := p.arrow()
	if err != nil {
		return nil, err
	}
	return &types.Arrow{From: from, To: to}, nil
}

func (p *parser) typeApp() (types.TypeExpr, error) {
	head, err := p.typeAtom()
	if err != nil {
		return nil, err
	}
	var args []types.TypeExpr
	for isIdent(p.peek()) || p.peek() == "(" {
		arg, err := p.typeAtom()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if len(args) == 0 {
		return head, nil
	}
	named, ok := head.(*types.Named)
	if !ok {
		return nil, errors.Errorf("'%s' cannot be applied to type arguments", head)
	}
	return types.T(named.Name, append(named.Args, args...)...), nil
}

func (p *parser) typeAtom() (types.TypeExpr, error) {
	tok := p.next()
	switch {
	case tok == "(":
		t, err := p.arrow()
		if err != nil {
			return nil, err
		}
		return t, p.expect(")")
	case isIdent(tok) && unicode.IsUpper([]rune(tok)[0]):
		return types.Var(tok), nil
	case isIdent(tok):
		return types.T(tok), nil
	default:
		return nil, errors.Errorf("expected a type but found '%s'", tok)
	}
}

// parseTerm reads an application such as 'is_a_member Friday (cons Friday nil)'.
// Names of constructors in registry build values, and other names call functions.
func parseTerm(src string, registry *types.Registry) (term.Term, error) {
	p := &parser{toks: tokens(src)}
	t, err := p.termApp(registry)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse term '%s'", src)
	}
	if err := p.done(); err != nil {
		return nil, errors.Wrapf(err, "could not parse term '%s'", src)
	}
	return t, nil
}

func (p *parser) termApp(registry *types.Registry) (term.Term, error) {
	head := p.next()
	if head == "(" {
		t, err := p.termApp(registry)
		if err != nil {
			return nil, err
		}
		return t, p.expect(")")
	}
	if n, err := strconv.ParseUint(head, 10, 64); err == nil {
		return term.N(n), nil
	}
	if !isIdent(head) {
		return nil, errors.Errorf("expected a name but found '%s'", head)
	}
	var args []term.Term
	for p.peek() != "" && p.peek() != ")" {
		arg, err := p.termAtom(registry)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if _, err := registry.LookupConstructor(head); err == nil {
		return term.C(head, args...), nil
	}
	return term.Call(head, args...), nil
}

func (p *parser) termAtom(registry *types.Registry) (term.Term, error) {
	tok := p.peek()
	if tok == "(" {
		return p.termApp(registry)
	}
	p.next()
	if n, err := strconv.ParseUint(tok, 10, 64); err == nil {
		return term.N(n), nil
	}
	if !isIdent(tok) {
		return nil, errors.Errorf("expected an argument but found '%s'", tok)
	}
	if _, err := registry.LookupConstructor(tok); err == nil {
		return term.C(tok), nil
	}
	return term.Call(tok), nil
}
