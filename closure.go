package hydra

import (
	"fmt"
	"strings"

	"github.com/sty00a4-code/hydra-go/internal/ascii"
)

// This file implements spec §3.4: the Closure record and the fixed
// opcode set, each opcode its own struct implementing ByteCode —
// grounded on clarete-langlang/go/vm_instructions.go's one-struct-
// per-instruction shape, narrowed from the teacher's open PEG
// instruction set to spec §3.4's closed register-machine set.

// Source is a read-only opcode operand (spec §3.4).
type Source interface{ isSource() }

type SrcNull struct{}
type SrcBool struct{ Value bool }
type SrcChar struct{ Value rune }
type SrcInt struct{ Value int64 }
type SrcFloat struct{ Value float64 }
type SrcRegister struct{ Reg byte }
type SrcGlobal struct{ Addr uint16 }
type SrcConstant struct{ Addr uint16 }

func (SrcNull) isSource()     {}
func (SrcBool) isSource()     {}
func (SrcChar) isSource()     {}
func (SrcInt) isSource()      {}
func (SrcFloat) isSource()    {}
func (SrcRegister) isSource() {}
func (SrcGlobal) isSource()   {}
func (SrcConstant) isSource() {}

func (s SrcNull) String() string     { return "null" }
func (s SrcBool) String() string     { return fmt.Sprintf("%t", s.Value) }
func (s SrcChar) String() string     { return fmt.Sprintf("%q", s.Value) }
func (s SrcInt) String() string      { return fmt.Sprintf("%d", s.Value) }
func (s SrcFloat) String() string    { return fmt.Sprintf("%g", s.Value) }
func (s SrcRegister) String() string { return fmt.Sprintf("r%d", s.Reg) }
func (s SrcGlobal) String() string   { return fmt.Sprintf("g[%d]", s.Addr) }
func (s SrcConstant) String() string { return fmt.Sprintf("k[%d]", s.Addr) }

// Location is a writable opcode operand (spec §3.4).
type Location interface{ isLocation() }

type LocRegister struct{ Reg byte }
type LocGlobal struct{ Addr uint16 }

func (LocRegister) isLocation() {}
func (LocGlobal) isLocation()   {}

func (l LocRegister) String() string { return fmt.Sprintf("r%d", l.Reg) }
func (l LocGlobal) String() string   { return fmt.Sprintf("g[%d]", l.Addr) }

// locEqual reports whether two locations denote the same register or
// global slot. moveChecked compares a Source against a Location with
// srcIsLoc instead; nothing in the package calls locEqual.
func locEqual(a, b Location) bool {
	switch av := a.(type) {
	case LocRegister:
		bv, ok := b.(LocRegister)
		return ok && av.Reg == bv.Reg
	case LocGlobal:
		bv, ok := b.(LocGlobal)
		return ok && av.Addr == bv.Addr
	}
	return false
}

// srcIsLoc reports whether a Source reads exactly the Location loc
// (a Register/Global source operand pointing at the same slot), so
// move_checked can compare a compiled source against a destination.
func srcIsLoc(s Source, loc Location) bool {
	switch sv := s.(type) {
	case SrcRegister:
		lv, ok := loc.(LocRegister)
		return ok && lv.Reg == sv.Reg
	case SrcGlobal:
		lv, ok := loc.(LocGlobal)
		return ok && lv.Addr == sv.Addr
	}
	return false
}

// ByteCode is implemented by every opcode (spec §3.4).
type ByteCode interface {
	Name() string
}

type OpNone struct{}

func (OpNone) Name() string { return "none" }

type OpJump struct{ Addr int }

func (OpJump) Name() string { return "jump" }

type OpJumpIf struct {
	Negate bool
	Cond   Source
	Addr   int
}

func (OpJumpIf) Name() string { return "jump_if" }

type OpJumpIfSome struct {
	Negate bool
	Src    Source
	Addr   int
}

func (OpJumpIfSome) Name() string { return "jump_if_some" }

type OpCall struct {
	Dst    *Location
	Func   Source
	Start  byte
	Amount byte
}

func (OpCall) Name() string { return "call" }

type OpReturn struct{ Src *Source }

func (OpReturn) Name() string { return "return" }

type OpMove struct {
	Dst Location
	Src Source
}

func (OpMove) Name() string { return "move" }

type OpField struct {
	Dst   Location
	Head  Source
	Field Source
}

func (OpField) Name() string { return "field" }

type OpSetField struct {
	Head  Source
	Field Source
	Src   Source
}

func (OpSetField) Name() string { return "set_field" }

type OpVector struct {
	Dst    Location
	Start  byte
	Amount byte
}

func (OpVector) Name() string { return "vector" }

type OpTuple struct {
	Dst    Location
	Start  byte
	Amount byte
}

func (OpTuple) Name() string { return "tuple" }

type OpMap struct{ Dst Location }

func (OpMap) Name() string { return "map" }

// OpFn's Addr indexes the enclosing Closure's Closures pool.
type OpFn struct {
	Dst  Location
	Addr int
}

func (OpFn) Name() string { return "fn" }

type OpBinary struct {
	Op    BinOp
	Dst   Location
	Left  Source
	Right Source
}

func (OpBinary) Name() string { return "binary" }

type OpUnary struct {
	Op    UnOp
	Dst   Location
	Right Source
}

func (OpUnary) Name() string { return "unary" }

// Closure is the compiled, immutable representation of a function
// body (spec §3.4/glossary).
type Closure struct {
	Path string
	Name string

	Code  []ByteCode // parallel with Lines
	Lines []int

	Parameters byte
	Registers  byte
	Varargs    bool

	Closures  []*Closure
	Constants []Value
}

func (c *Closure) displayName() string {
	if c.Name != "" {
		return c.Name
	}
	if c.Path != "" {
		return c.Path
	}
	return "<anonymous>"
}

var binOpNames = map[BinOp]string{
	BAdd: "+", BSub: "-", BMul: "*", BDiv: "/", BMod: "%", BPow: "^",
	BEq: "==", BNeq: "!=", BLt: "<", BGt: ">", BLe: "<=", BGe: ">=",
	BAnd: "and", BOr: "or", BIs: "is", BIn: "in", BAs: "as",
}

var unOpNames = map[UnOp]string{UNeg: "-", UNot: "not"}

// Disassemble renders the Closure tree as human-readable bytecode,
// grounded on clarete-langlang/go/vm_program.go's
// Program.PrettyString/HighlightPrettyString, reusing the same ascii
// theme table; wired to `hydra debug`/`--dump-bytecode` (spec §6.3).
func (c *Closure) Disassemble(highlight bool) string {
	var sb strings.Builder
	c.disassemble(&sb, highlight, 0)
	return sb.String()
}

func colorize(highlight bool, color, s string) string {
	if !highlight {
		return s
	}
	return ascii.Color(color, "%s", s)
}

func (c *Closure) disassemble(sb *strings.Builder, highlight bool, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(sb, "%s%s params=%d regs=%d varargs=%t\n",
		indent, colorize(highlight, ascii.DefaultTheme.Label, c.displayName()),
		c.Parameters, c.Registers, c.Varargs)
	for i, op := range c.Code {
		fmt.Fprintf(sb, "%s  %s %s\n",
			indent,
			colorize(highlight, ascii.DefaultTheme.Comment, fmt.Sprintf("%04d", i)),
			colorize(highlight, ascii.DefaultTheme.Operator, opDisasm(op)))
	}
	for _, nested := range c.Closures {
		nested.disassemble(sb, highlight, depth+1)
	}
}

func opDisasm(op ByteCode) string {
	switch o := op.(type) {
	case OpNone:
		return "none"
	case OpJump:
		return fmt.Sprintf("jump %d", o.Addr)
	case OpJumpIf:
		return fmt.Sprintf("jump_if negate=%t %v %d", o.Negate, o.Cond, o.Addr)
	case OpJumpIfSome:
		return fmt.Sprintf("jump_if_some negate=%t %v %d", o.Negate, o.Src, o.Addr)
	case OpCall:
		dst := "_"
		if o.Dst != nil {
			dst = fmt.Sprintf("%v", *o.Dst)
		}
		return fmt.Sprintf("call %s = %v(%d..%d)", dst, o.Func, o.Start, o.Start+o.Amount)
	case OpReturn:
		if o.Src == nil {
			return "return"
		}
		return fmt.Sprintf("return %v", *o.Src)
	case OpMove:
		return fmt.Sprintf("move %v = %v", o.Dst, o.Src)
	case OpField:
		return fmt.Sprintf("field %v = %v[%v]", o.Dst, o.Head, o.Field)
	case OpSetField:
		return fmt.Sprintf("set_field %v[%v] = %v", o.Head, o.Field, o.Src)
	case OpVector:
		return fmt.Sprintf("vector %v = (%d..%d)", o.Dst, o.Start, o.Start+o.Amount)
	case OpTuple:
		return fmt.Sprintf("tuple %v = (%d..%d)", o.Dst, o.Start, o.Start+o.Amount)
	case OpMap:
		return fmt.Sprintf("map %v = {}", o.Dst)
	case OpFn:
		return fmt.Sprintf("fn %v = closures[%d]", o.Dst, o.Addr)
	case OpBinary:
		return fmt.Sprintf("binary %v = %v %s %v", o.Dst, o.Left, binOpNames[o.Op], o.Right)
	case OpUnary:
		return fmt.Sprintf("unary %v = %s %v", o.Dst, unOpNames[o.Op], o.Right)
	default:
		return "?"
	}
}
