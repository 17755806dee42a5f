package hydra

import "fmt"

// Each compilation/execution stage fails with its own error kind,
// always carrying a Position, formatted the way
// clarete-langlang/go/errors.go formats ParsingError — message plus
// location — adapted to the host-facing "ERROR path:line:col: msg"
// shape required by spec §6.4.

// LexErrorKind enumerates spec §4.1's lexer failure kinds.
type LexErrorKind int

const (
	BadCharacter LexErrorKind = iota
	BadIntLiteral
	BadFloatLiteral
	UnclosedChar
	UnclosedString
	ExpectedEscape
	ExpectedCharacter
)

var lexErrorNames = map[LexErrorKind]string{
	BadCharacter:      "bad character",
	BadIntLiteral:     "invalid integer literal",
	BadFloatLiteral:   "invalid float literal",
	UnclosedChar:      "unclosed character literal",
	UnclosedString:    "unclosed string literal",
	ExpectedEscape:    "expected escape character",
	ExpectedCharacter: "expected character",
}

// LexError is returned by the lexer (spec §4.1).
type LexError struct {
	K   LexErrorKind
	Msg string
	Pos Position
}

func newLexError(k LexErrorKind, pos Position, detail string) *LexError {
	return &LexError{K: k, Msg: detail, Pos: pos}
}

func (e *LexError) Error() string {
	msg := lexErrorNames[e.K]
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Msg)
	}
	return fmt.Sprintf("ERROR %s: %s", e.Pos, msg)
}

// ParseErrorKind enumerates spec §4.2's parser failure kinds.
type ParseErrorKind int

const (
	UnexpectedEOF ParseErrorKind = iota
	UnexpectedEOL
	ExpectedNewLine
	ExpectedIndentedBlock
	UnexpectedToken
	ExpectedToken
)

// ParseError is returned by the parser (spec §4.2, §7).
type ParseError struct {
	K        ParseErrorKind
	Got      string
	Expected string
	Pos      Position
}

func (e *ParseError) Error() string {
	var msg string
	switch e.K {
	case UnexpectedEOF:
		msg = "unexpected end of file"
	case UnexpectedEOL:
		msg = "unexpected end of line"
	case ExpectedNewLine:
		msg = "expected a new line"
	case ExpectedIndentedBlock:
		msg = "expected an indented block"
	case UnexpectedToken:
		msg = fmt.Sprintf("unexpected token %s", e.Got)
	case ExpectedToken:
		msg = fmt.Sprintf("expected %s, got %s", e.Expected, e.Got)
	}
	return fmt.Sprintf("ERROR %s: %s", e.Pos, msg)
}

// CompileErrorKind enumerates compiler failure kinds (spec §7: "the
// compiler never produces errors; it trusts the AST"). Compile raises
// only JumpOutsideLoop, the check documented in SPEC_FULL.md /
// DESIGN.md. TooManyRegisters and TooManyConstants have messages but
// no code path produces them: Compile does not check register or
// constant-pool overflow.
type CompileErrorKind int

const (
	JumpOutsideLoop CompileErrorKind = iota
	TooManyRegisters
	TooManyConstants
)

// CompileError is the error type for lowering failures; an
// unexpected AST shape is an assertion (panic), per spec §7.
type CompileError struct {
	K   CompileErrorKind
	Pos Position
}

func (e *CompileError) Error() string {
	var msg string
	switch e.K {
	case JumpOutsideLoop:
		msg = "'continue'/'break' outside of a loop"
	case TooManyRegisters:
		msg = "function uses too many registers"
	case TooManyConstants:
		msg = "function uses too many constants"
	}
	return fmt.Sprintf("ERROR %s: %s", e.Pos, msg)
}

// RuntimeErrorKind enumerates spec §7's runtime error kinds.
type RuntimeErrorKind int

const (
	IndexOutOfRange RuntimeErrorKind = iota
	InvalidField
	InvalidFieldHead
	CannotCall
	IllegalBinaryOperation
	IllegalUnaryOperation
	UnknownTypeCast
	DivisionByZero
	Custom
)

// RuntimeError is the error surfaced by the interpreter (spec §7,
// §4.4). Pos is filled in by the caller that knows the running
// closure's source path and the instruction's line (spec §3.4).
type RuntimeError struct {
	K       RuntimeErrorKind
	Message string
	Pos     Position
}

func (e *RuntimeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ERROR %s: %s", e.Pos, e.Message)
	}
	return fmt.Sprintf("ERROR %s: runtime error", e.Pos)
}

func runtimeErrorf(pos Position, k RuntimeErrorKind, format string, args ...any) *RuntimeError {
	return &RuntimeError{K: k, Message: fmt.Sprintf(format, args...), Pos: pos}
}
