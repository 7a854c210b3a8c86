package term

import (
	"strconv"

	"github.com/cottand/lemma/core/types"
)

var (
	_ Pattern = (*PWild)(nil)
	_ Pattern = (*PVar)(nil)
	_ Pattern = (*PCtor)(nil)
	_ Pattern = (*PLit)(nil)
)

// Pattern describes the shape of a value a Match arm accepts
type Pattern interface {
	String() string
	patternNode()
}

// PWild matches anything and binds nothing
type PWild struct{}

// PVar matches anything and binds it to Name
type PVar struct {
	Name string
}

type PCtor struct {
	Name string
	Args []Pattern
}

// PLit matches a natural number literal
type PLit struct {
	N uint64
}

func (*PWild) patternNode() {}
func (*PVar) patternNode()  {}
func (*PCtor) patternNode() {}
func (*PLit) patternNode()  {}

var Wild = &PWild{}

func PV(name string) *PVar                     { return &PVar{Name: name} }
func PC(name string, args ...Pattern) *PCtor { return &PCtor{Name: name, Args: args} }
func PN(n uint64) *PLit                        { return &PLit{N: n} }

func (*PWild) String() string  { return "_" }
func (p *PVar) String() string { return p.Name }
func (p *PLit) String() string { return strconv.FormatUint(p.N, 10) }

func (p *PCtor) String() string {
	s := p.Name
	for _, arg := range p.Args {
		if ctor, ok := arg.(*PCtor); ok && len(ctor.Args) > 0 {
			s += " (" + arg.String() + ")"
		} else {
			s += " " + arg.String()
		}
	}
	return s
}

// AsConstructorPattern views a PLit as O or S applied to a smaller PLit
func AsConstructorPattern(p Pattern) (*PCtor, bool) {
	switch p := p.(type) {
	case *PCtor:
		return p, true
	case *PLit:
		if p.N == 0 {
			return PC(types.ZeroName), true
		}
		return PC(types.SuccName, PN(p.N-1)), true
	default:
		return nil, false
	}
}

// PatternVars returns the variables bound by p, left to right
func PatternVars(p Pattern) []string {
	switch p := p.(type) {
	case *PVar:
		return []string{p.Name}
	case *PCtor:
		var names []string
		for _, arg := range p.Args {
			names = append(names, PatternVars(arg)...)
		}
		return names
	default:
		return nil
	}
}
