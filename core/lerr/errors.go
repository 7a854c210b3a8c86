package lerr

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// enableDebugErrorPrinting makes FormatWithCode include the frame the error was created at
const enableDebugErrorPrinting bool = false
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	Redeclaration
	UnknownType
	UnknownConstructor
	UnknownFunction
	UnknownPredicate
	UnknownHypothesis
	Positivity
	MalformedDefinition
	NonExhaustiveMatch
	NonTerminatingDefinition
	InapplicableTactic
	NotDefinitionallyEqual
	UnprovedTheorem
	TypeMismatch
	InvalidArgument
)

type LemmaError interface {
	Error() string
	Code() ErrCode

	withStack([]byte) LemmaError
	getStack() []byte
}

func FormatWithCode(e LemmaError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			lines := strings.Split(stack, "\n")
			if len(lines) > 6 {
				stack = strings.TrimSpace(lines[6])
			}
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

// New records the current stack in err
func New[E LemmaError](err E) LemmaError {
	return err.withStack(debug.Stack())
}

// CodeOf returns the ErrCode of err, or None if err is not a LemmaError
func CodeOf(err error) ErrCode {
	var asLemma LemmaError
	if !As(err, &asLemma) {
		return None
	}
	return asLemma.Code()
}

type RedeclarationError struct {
	// Kind is what was being declared, such as "type" or "constructor"
	Kind  string
	Name  string
	stack []byte
}

func (e RedeclarationError) Error() string {
	return fmt.Sprintf("%s '%s' is already declared", e.Kind, e.Name)
}
func (e RedeclarationError) Code() ErrCode    { return Redeclaration }
func (e RedeclarationError) getStack() []byte { return e.stack }
func (e RedeclarationError) withStack(stack []byte) LemmaError {
	e.stack = stack
	return e
}

type UnknownTypeError struct {
	Name  string
	stack []byte
}

func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("type '%s' is not declared", e.Name)
}
func (e UnknownTypeError) Code() ErrCode    { return UnknownType }
func (e UnknownTypeError) getStack() []byte { return e.stack }
func (e UnknownTypeError) withStack(stack []byte) LemmaError {
	e.stack = stack
	return e
}

type UnknownConstructorError struct {
	Name  string
	stack []byte
}

func (e UnknownConstructorError) Error() string {
	return fmt.Sprintf("constructor '%s' is not declared", e.Name)
}
func (e UnknownConstructorError) Code() ErrCode    { return UnknownConstructor }
func (e UnknownConstructorError) getStack() []byte { return e.stack }
func (e UnknownConstructorError) withStack(stack []byte) LemmaError {
	e.stack = stack
	return e
}

type UnknownFunctionError struct {
	Name  string
	stack []byte
}

func (e UnknownFunctionError) Error() string {
	return fmt.Sprintf("function '%s' is not defined", e.Name)
}
func (e UnknownFunctionError) Code() ErrCode    { return UnknownFunction }
func (e UnknownFunctionError) getStack() []byte { return e.stack }
func (e UnknownFunctionError) withStack(stack []byte) LemmaError {
	e.stack = stack
	return e
}

type UnknownPredicateError struct {
	Name  string
	stack []byte
}

func (e UnknownPredicateError) Error() string {
	return fmt.Sprintf("predicate '%s' is not declared", e.Name)
}
func (e UnknownPredicateError) Code() ErrCode    { return UnknownPredicate }
func (e UnknownPredicateError) getStack() []byte { return e.stack }
func (e UnknownPredicateError) withStack(stack []byte) LemmaError {
	e.stack = stack
	return e
}

type UnknownHypothesisError struct {
	Name  string
	stack []byte
}

func (e UnknownHypothesisError) Error() string {
	return fmt.Sprintf("no hypothesis, theorem or rule named '%s'", e.Name)
}
func (e UnknownHypothesisError) Code() ErrCode    { return UnknownHypothesis }
func (e UnknownHypothesisError) getStack() []byte { return e.stack }
func (e UnknownHypothesisError) withStack(stack []byte) LemmaError {
	e.stack = stack
	return e
}

type PositivityError struct {
	Type        string
	Constructor string
	// Occurrence is the offending argument type, rendered
	Occurrence string
	stack      []byte
}

func (e PositivityError) Error() string {
	return fmt.Sprintf("non strictly positive occurrence of '%s' in constructor '%s': %s", e.Type, e.Constructor, e.Occurrence)
}
func (e PositivityError) Code() ErrCode    { return Positivity }
func (e PositivityError) getStack() []byte { return e.stack }
func (e PositivityError) withStack(stack []byte) LemmaError {
	e.stack = stack
	return e
}

type MalformedDefinitionError struct {
	Name   string
	Reason string
	stack  []byte
}

func (e MalformedDefinitionError) Error() string {
	return fmt.Sprintf("malformed definition of '%s': %s", e.Name, e.Reason)
}
func (e MalformedDefinitionError) Code() ErrCode    { return MalformedDefinition }
func (e MalformedDefinitionError) getStack() []byte { return e.stack }
func (e MalformedDefinitionError) withStack(stack []byte) LemmaError {
	e.stack = stack
	return e
}

// NonExhaustiveMatchError is reported by the exhaustiveness checker when a definition is declared,
// and by the evaluator when no arm matches. The latter is an internal invariant violation,
// and means a definition was evaluated without being checked first.
type NonExhaustiveMatchError struct {
	Function string
	// Missing is an example of a value shape no arm covers, if known
	Missing string
	stack   []byte
}

func (e NonExhaustiveMatchError) Error() string {
	if e.Missing == "" {
		return fmt.Sprintf("non-exhaustive match in '%s'", e.Function)
	}
	return fmt.Sprintf("non-exhaustive match in '%s': case '%s' is not covered", e.Function, e.Missing)
}
func (e NonExhaustiveMatchError) Code() ErrCode    { return NonExhaustiveMatch }
func (e NonExhaustiveMatchError) getStack() []byte { return e.stack }
func (e NonExhaustiveMatchError) withStack(stack []byte) LemmaError {
	e.stack = stack
	return e
}

type NonTerminatingDefinitionError struct {
	Function string
	CallSite string
	Reason   string
	stack    []byte
}

func (e NonTerminatingDefinitionError) Error() string {
	return fmt.Sprintf("recursive call '%s' in '%s' is not structurally decreasing: %s", e.CallSite, e.Function, e.Reason)
}
func (e NonTerminatingDefinitionError) Code() ErrCode    { return NonTerminatingDefinition }
func (e NonTerminatingDefinitionError) getStack() []byte { return e.stack }
func (e NonTerminatingDefinitionError) withStack(stack []byte) LemmaError {
	e.stack = stack
	return e
}

type InapplicableTacticError struct {
	Tactic   string
	Expected string
	Found    string
	stack    []byte
}

func (e InapplicableTacticError) Error() string {
	return fmt.Sprintf("tactic '%s' is not applicable: expected %s, but found '%s'", e.Tactic, e.Expected, e.Found)
}
func (e InapplicableTacticError) Code() ErrCode    { return InapplicableTactic }
func (e InapplicableTacticError) getStack() []byte { return e.stack }
func (e InapplicableTacticError) withStack(stack []byte) LemmaError {
	e.stack = stack
	return e
}

type NotDefinitionallyEqualError struct {
	Left, Right string
	stack       []byte
}

func (e NotDefinitionallyEqualError) Error() string {
	return fmt.Sprintf("'%s' and '%s' are not definitionally equal", e.Left, e.Right)
}
func (e NotDefinitionallyEqualError) Code() ErrCode    { return NotDefinitionallyEqual }
func (e NotDefinitionallyEqualError) getStack() []byte { return e.stack }
func (e NotDefinitionallyEqualError) withStack(stack []byte) LemmaError {
	e.stack = stack
	return e
}

type UnprovedTheoremError struct {
	Name      string
	OpenGoals int
	stack     []byte
}

func (e UnprovedTheoremError) Error() string {
	return fmt.Sprintf("theorem '%s' still has %d open goal(s)", e.Name, e.OpenGoals)
}
func (e UnprovedTheoremError) Code() ErrCode    { return UnprovedTheorem }
func (e UnprovedTheoremError) getStack() []byte { return e.stack }
func (e UnprovedTheoremError) withStack(stack []byte) LemmaError {
	e.stack = stack
	return e
}

type TypeMismatchError struct {
	Term     string
	Expected string
	Found    string
	stack    []byte
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("'%s' has type '%s' but '%s' was expected", e.Term, e.Found, e.Expected)
}
func (e TypeMismatchError) Code() ErrCode    { return TypeMismatch }
func (e TypeMismatchError) getStack() []byte { return e.stack }
func (e TypeMismatchError) withStack(stack []byte) LemmaError {
	e.stack = stack
	return e
}

// InvalidArgumentError is returned when a function is called with the wrong number
// of arguments, or with arguments which are not values
type InvalidArgumentError struct {
	Function string
	Reason   string
	stack    []byte
}

func (e InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid call of '%s': %s", e.Function, e.Reason)
}
func (e InvalidArgumentError) Code() ErrCode    { return InvalidArgument }
func (e InvalidArgumentError) getStack() []byte { return e.stack }
func (e InvalidArgumentError) withStack(stack []byte) LemmaError {
	e.stack = stack
	return e
}
