package hydra

import (
	"math"
	"strconv"
	"strings"
)

// This file implements spec §4.4: the register-machine interpreter.
// The dispatch shape — one big step() switch over opcode structs,
// advancing a program counter, with failure short-circuiting the
// caller — mirrors clarete-langlang/go/vm.go's virtualMachine.Match
// loop, but the stack holds call frames instead of PEG backtracking
// frames: Hydra has no backtracking, so there is nothing analogous to
// vm_stack.go's frameType_Backtracking/frameType_Capture, only the
// call/return half of that file's frameType_Call.
//
// Each CallFrame's register file is a plain []Value rather than the
// per-slot shared cell the spec describes: a popped frame's return
// value is written straight into the caller's slice by returnCall
// while the caller frame is still reachable on the stack, so no
// pointer-per-register aliasing is needed to satisfy move_checked or
// call-destination writeback.

// CallFrame is one activation record (spec §4.4.1).
type CallFrame struct {
	Closure   *Closure
	Registers []Value
	PC        int
	Dst       *Location
}

func (f *CallFrame) pos() Position {
	ln := 0
	if idx := f.PC - 1; idx >= 0 && idx < len(f.Closure.Lines) {
		ln = f.Closure.Lines[idx]
	}
	return NewPosition(f.Closure.Path, ln, 0)
}

// Interpreter runs compiled Closures (spec §4.4). Globals are a flat
// String->Value map (spec §4.4.6); the stdlib is populated into it
// before user code runs.
type Interpreter struct {
	Globals map[string]Value

	frames []*CallFrame
	// pendingResult carries a Return's value up to whichever run()
	// call is waiting on it (spec §4.4.3: "bubble the value up to
	// run()"). Safe as a single shared field only because execution
	// is synchronous and single-threaded (spec §5): a nested run()
	// (via CallValue, for native functions that call back into user
	// code) always reads the field immediately after the step that
	// set it, before any other frame can overwrite it.
	pendingResult Value
}

// NewInterpreter constructs an Interpreter with empty globals; the
// host populates the standard library before calling Run (spec
// §4.4.6, §6.3).
func NewInterpreter() *Interpreter {
	return &Interpreter{Globals: map[string]Value{}}
}

func (in *Interpreter) GetGlobal(name string) Value {
	if v, ok := in.Globals[name]; ok {
		return v
	}
	return Null{}
}

func (in *Interpreter) SetGlobal(name string, v Value) {
	in.Globals[name] = v
}

// Run executes a top-level Closure to completion (spec §4.4.2's
// call protocol with no arguments, §4.4.3's execution loop).
func (in *Interpreter) Run(cl *Closure) (Value, error) {
	in.pushCallFrame(cl, nil, nil)
	return in.run()
}

// CallValue invokes a callable Value (closure or native) from host or
// native code, re-entering the execution loop for closures (used by
// the standard library's iterator/higher-order functions to call
// back into user-defined closures).
func (in *Interpreter) CallValue(fn Value, args []Value) (Value, error) {
	switch f := fn.(type) {
	case *Function:
		in.pushCallFrame(f.Closure, args, nil)
		return in.run()
	case *NativeFn:
		return f.Fn(in, args)
	default:
		return nil, runtimeErrorf(Position{}, CannotCall, "cannot call value of type %s", fn.Typ())
	}
}

func (in *Interpreter) run() (Value, error) {
	offset := len(in.frames) - 1
	for len(in.frames) > offset {
		if err := in.step(); err != nil {
			return nil, err
		}
	}
	return in.pendingResult, nil
}

// pushCallFrame implements spec §4.4.2's call protocol: populate
// fixed parameter registers from args (missing -> Null), collect the
// remainder into a vector for varargs, pad the rest with Null.
// pushCallFrame sizes the register file to Registers+1 (spec §9's
// "register-wide stack padding": several opcodes — notably the
// contiguous Start..Start+Amount staging ranges for zero-arg
// Vector/Tuple/Call — are emitted assuming one spare slot beyond the
// frame's high-water mark is always addressable).
func (in *Interpreter) pushCallFrame(cl *Closure, args []Value, dst *Location) {
	regs := make([]Value, int(cl.Registers)+1)
	for i := range regs {
		regs[i] = Null{}
	}
	p := int(cl.Parameters)
	if cl.Varargs {
		p--
	}
	for i := 0; i < p; i++ {
		if i < len(args) {
			regs[i] = args[i]
		}
	}
	if cl.Varargs {
		var rest []Value
		if len(args) > p {
			rest = append(rest, args[p:]...)
		}
		regs[p] = NewVector(rest)
	}
	in.frames = append(in.frames, &CallFrame{Closure: cl, Registers: regs, Dst: dst})
}

// returnCall implements spec §4.4.2's return protocol.
func (in *Interpreter) returnCall(v Value) {
	f := in.frames[len(in.frames)-1]
	in.frames = in.frames[:len(in.frames)-1]
	if f.Dst == nil {
		in.pendingResult = v
		return
	}
	if len(in.frames) == 0 {
		in.pendingResult = v
		return
	}
	caller := in.frames[len(in.frames)-1]
	in.writeLocation(caller, *f.Dst, v)
}

func (in *Interpreter) top() *CallFrame { return in.frames[len(in.frames)-1] }

func constantString(cl *Closure, addr uint16) string {
	if s, ok := cl.Constants[addr].(String); ok {
		return string(s)
	}
	return ""
}

func (in *Interpreter) readSource(f *CallFrame, src Source) Value {
	switch s := src.(type) {
	case SrcNull:
		return Null{}
	case SrcBool:
		return Bool(s.Value)
	case SrcChar:
		return Char(s.Value)
	case SrcInt:
		return Int(s.Value)
	case SrcFloat:
		return Float(s.Value)
	case SrcRegister:
		return f.Registers[s.Reg]
	case SrcGlobal:
		return in.GetGlobal(constantString(f.Closure, s.Addr))
	case SrcConstant:
		return f.Closure.Constants[s.Addr]
	}
	panic("unreachable source kind")
}

func (in *Interpreter) writeLocation(f *CallFrame, loc Location, v Value) {
	switch l := loc.(type) {
	case LocRegister:
		f.Registers[l.Reg] = v
	case LocGlobal:
		in.SetGlobal(constantString(f.Closure, l.Addr), v)
	}
}

// step executes exactly one instruction of the top frame (spec
// §4.4.3).
func (in *Interpreter) step() error {
	f := in.top()
	if f.PC >= len(f.Closure.Code) {
		in.returnCall(Null{})
		return nil
	}
	op := f.Closure.Code[f.PC]
	f.PC++

	switch o := op.(type) {
	case OpNone:

	case OpJump:
		f.PC = o.Addr

	case OpJumpIf:
		cond := in.readSource(f, o.Cond).Truthy()
		if o.Negate {
			cond = !cond
		}
		if cond {
			f.PC = o.Addr
		}

	case OpJumpIfSome:
		_, isNull := in.readSource(f, o.Src).(Null)
		some := !isNull
		if o.Negate {
			some = !some
		}
		if some {
			f.PC = o.Addr
		}

	case OpCall:
		return in.execCall(f, o)

	case OpReturn:
		v := Value(Null{})
		if o.Src != nil {
			v = in.readSource(f, *o.Src)
		}
		in.returnCall(v)

	case OpMove:
		in.writeLocation(f, o.Dst, in.readSource(f, o.Src))

	case OpField:
		head := in.readSource(f, o.Head)
		field := in.readSource(f, o.Field)
		v, err := in.readField(f.pos(), head, field)
		if err != nil {
			return err
		}
		in.writeLocation(f, o.Dst, v)

	case OpSetField:
		head := in.readSource(f, o.Head)
		field := in.readSource(f, o.Field)
		val := in.readSource(f, o.Src)
		if err := writeField(f.pos(), head, field, val); err != nil {
			return err
		}

	case OpVector:
		items := make([]Value, o.Amount)
		for i := byte(0); i < o.Amount; i++ {
			items[i] = f.Registers[o.Start+i]
		}
		in.writeLocation(f, o.Dst, NewVector(items))

	case OpTuple:
		items := make([]Value, o.Amount)
		for i := byte(0); i < o.Amount; i++ {
			items[i] = f.Registers[o.Start+i]
		}
		in.writeLocation(f, o.Dst, NewTuple(items))

	case OpMap:
		in.writeLocation(f, o.Dst, NewMap())

	case OpFn:
		in.writeLocation(f, o.Dst, &Function{Closure: f.Closure.Closures[o.Addr]})

	case OpBinary:
		l := in.readSource(f, o.Left)
		r := in.readSource(f, o.Right)
		v, err := binaryOp(f.pos(), o.Op, l, r)
		if err != nil {
			return err
		}
		in.writeLocation(f, o.Dst, v)

	case OpUnary:
		r := in.readSource(f, o.Right)
		v, err := unaryOp(f.pos(), o.Op, r)
		if err != nil {
			return err
		}
		in.writeLocation(f, o.Dst, v)

	default:
		panic("unreachable opcode kind")
	}
	return nil
}

func (in *Interpreter) execCall(f *CallFrame, o OpCall) error {
	callee := in.readSource(f, o.Func)
	args := make([]Value, o.Amount)
	for i := byte(0); i < o.Amount; i++ {
		args[i] = f.Registers[o.Start+i]
	}
	switch fn := callee.(type) {
	case *Function:
		in.pushCallFrame(fn.Closure, args, o.Dst)
		return nil
	case *NativeFn:
		v, err := fn.Fn(in, args)
		if err != nil {
			if re, ok := err.(*RuntimeError); ok {
				return re
			}
			return runtimeErrorf(f.pos(), Custom, "%s", err.Error())
		}
		if o.Dst != nil {
			in.writeLocation(f, *o.Dst, v)
		}
		return nil
	default:
		return runtimeErrorf(f.pos(), CannotCall, "cannot call value of type %s", callee.Typ())
	}
}

// ---- field semantics (spec §4.4.4) ----

func (in *Interpreter) readField(pos Position, head, field Value) (Value, error) {
	switch h := head.(type) {
	case String:
		idx, ok := field.(Int)
		if !ok {
			return nil, runtimeErrorf(pos, InvalidField, "string field must be an int, got %s", field.Typ())
		}
		runes := []rune(string(h))
		i, ok := normalizeIndex(int(idx), len(runes))
		if !ok {
			return Null{}, nil
		}
		return Char(runes[i]), nil

	case *Vector:
		idx, ok := field.(Int)
		if !ok {
			return nil, runtimeErrorf(pos, InvalidField, "vector field must be an int, got %s", field.Typ())
		}
		v, ok := h.Get(int(idx))
		if !ok {
			return Null{}, nil
		}
		return v, nil

	case *Tuple:
		idx, ok := field.(Int)
		if !ok {
			return nil, runtimeErrorf(pos, InvalidField, "tuple field must be an int, got %s", field.Typ())
		}
		v, ok := h.Get(int(idx))
		if !ok {
			return Null{}, nil
		}
		return v, nil

	case *Map:
		key, ok := field.(String)
		if !ok {
			return nil, runtimeErrorf(pos, InvalidField, "map field must be a string, got %s", field.Typ())
		}
		v, ok := h.Get(string(key))
		if !ok {
			return Null{}, nil
		}
		return v, nil

	case NativeObject:
		key, ok := field.(String)
		if !ok {
			return nil, runtimeErrorf(pos, InvalidField, "%s field must be a string, got %s", h.NativeType(), field.Typ())
		}
		if v, ok := h.Get(string(key)); ok {
			return v, nil
		}
		name := string(key)
		if caller, ok := h.(Caller); ok {
			return &NativeFn{Name: name, Fn: func(interp *Interpreter, args []Value) (Value, error) {
				return caller.Call(name, interp, args)
			}}, nil
		}
		if mc, ok := h.(MutCaller); ok {
			return &NativeFn{Name: name, Fn: func(interp *Interpreter, args []Value) (Value, error) {
				return mc.CallMut(name, interp, args)
			}}, nil
		}
		return Null{}, nil
	}
	return nil, runtimeErrorf(pos, InvalidFieldHead, "cannot index into %s", head.Typ())
}

func writeField(pos Position, head, field, val Value) error {
	switch h := head.(type) {
	case String:
		return runtimeErrorf(pos, InvalidField, "strings are read-only")

	case *Vector:
		idx, ok := field.(Int)
		if !ok {
			return runtimeErrorf(pos, InvalidField, "vector field must be an int, got %s", field.Typ())
		}
		if !h.Set(int(idx), val) {
			return runtimeErrorf(pos, IndexOutOfRange, "vector index %d out of range", idx)
		}
		return nil

	case *Tuple:
		idx, ok := field.(Int)
		if !ok {
			return runtimeErrorf(pos, InvalidField, "tuple field must be an int, got %s", field.Typ())
		}
		if !h.Set(int(idx), val) {
			return runtimeErrorf(pos, IndexOutOfRange, "tuple index %d out of range", idx)
		}
		return nil

	case *Map:
		key, ok := field.(String)
		if !ok {
			return runtimeErrorf(pos, InvalidField, "map field must be a string, got %s", field.Typ())
		}
		h.Set(string(key), val)
		return nil

	case NativeObject:
		return runtimeErrorf(pos, InvalidField, "%s has no generic setter", h.NativeType())
	}
	return runtimeErrorf(pos, InvalidFieldHead, "cannot index into %s", head.Typ())
}

// ---- arithmetic and comparison (spec §4.4.5) ----

func binaryOp(pos Position, op BinOp, l, r Value) (Value, error) {
	switch op {
	case BAdd, BSub, BMul, BDiv, BMod, BPow:
		if lt, ok := l.(*Tuple); ok {
			if rt, ok2 := r.(*Tuple); ok2 {
				return tupleElementwise(pos, op, lt, rt)
			}
		}
		return arithOp(pos, op, l, r)
	case BEq:
		return Bool(Equal(l, r)), nil
	case BNeq:
		return Bool(!Equal(l, r)), nil
	case BLt, BGt, BLe, BGe:
		return compareOp(pos, op, l, r)
	case BAnd:
		return Bool(l.Truthy() && r.Truthy()), nil
	case BOr:
		return Bool(l.Truthy() || r.Truthy()), nil
	case BIs:
		name, ok := r.(String)
		if !ok {
			return nil, runtimeErrorf(pos, IllegalBinaryOperation, "'is' requires a string type name, got %s", r.Typ())
		}
		return Bool(l.Typ() == string(name)), nil
	case BAs:
		name, ok := r.(String)
		if !ok {
			return nil, runtimeErrorf(pos, IllegalBinaryOperation, "'as' requires a string type name, got %s", r.Typ())
		}
		return castAs(pos, l, string(name))
	case BIn:
		return inOp(pos, l, r)
	}
	panic("unreachable binary op")
}

func tupleElementwise(pos Position, op BinOp, l, r *Tuple) (Value, error) {
	ls, rs := l.Snapshot(), r.Snapshot()
	if len(ls) != len(rs) {
		return nil, runtimeErrorf(pos, IllegalBinaryOperation, "tuple length mismatch: %d vs %d", len(ls), len(rs))
	}
	out := make([]Value, len(ls))
	for i := range ls {
		v, err := arithOp(pos, op, ls[i], rs[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return NewTuple(out), nil
}

func repeatString(s string, n int64) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(s, int(n))
}

// intPow implements spec §4.4.5's "pow (negative exponent -> 0)" and
// relies on native int64 wraparound for overflow (SPEC_FULL.md's
// resolved open question).
func intPow(base, exp int64) int64 {
	if exp < 0 {
		return 0
	}
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		result *= base
	}
	return result
}

func arithOp(pos Position, op BinOp, l, r Value) (Value, error) {
	if op == BAdd {
		if ls, ok := l.(String); ok {
			if rs, ok2 := r.(String); ok2 {
				return ls + rs, nil
			}
		}
	}
	if op == BMul {
		if ls, ok := l.(String); ok {
			if ri, ok2 := r.(Int); ok2 {
				return String(repeatString(string(ls), int64(ri))), nil
			}
		}
		if li, ok := l.(Int); ok {
			if rs, ok2 := r.(String); ok2 {
				return String(repeatString(string(rs), int64(li))), nil
			}
		}
	}
	if !isNumeric(l) || !isNumeric(r) {
		return nil, runtimeErrorf(pos, IllegalBinaryOperation, "cannot apply '%s' to %s and %s", binOpNames[op], l.Typ(), r.Typ())
	}
	li, lIsInt := l.(Int)
	ri, rIsInt := r.(Int)
	if lIsInt && rIsInt {
		switch op {
		case BAdd:
			return li + ri, nil
		case BSub:
			return li - ri, nil
		case BMul:
			return li * ri, nil
		case BDiv:
			if ri == 0 {
				return nil, runtimeErrorf(pos, DivisionByZero, "integer division by zero")
			}
			return li / ri, nil
		case BMod:
			if ri == 0 {
				return nil, runtimeErrorf(pos, DivisionByZero, "integer modulo by zero")
			}
			return li % ri, nil
		case BPow:
			return Int(intPow(int64(li), int64(ri))), nil
		}
	}
	lf, rf := asFloat(l), asFloat(r)
	switch op {
	case BAdd:
		return Float(lf + rf), nil
	case BSub:
		return Float(lf - rf), nil
	case BMul:
		return Float(lf * rf), nil
	case BDiv:
		return Float(lf / rf), nil
	case BMod:
		return Float(math.Mod(lf, rf)), nil
	case BPow:
		return Float(math.Pow(lf, rf)), nil
	}
	panic("unreachable arithmetic op")
}

func compareOp(pos Position, op BinOp, l, r Value) (Value, error) {
	if lc, ok := l.(Char); ok {
		if rc, ok2 := r.(Char); ok2 {
			return Bool(orderedCompare(op, float64(lc), float64(rc))), nil
		}
	}
	if isNumeric(l) && isNumeric(r) {
		return Bool(orderedCompare(op, asFloat(l), asFloat(r))), nil
	}
	return nil, runtimeErrorf(pos, IllegalBinaryOperation, "cannot compare %s and %s", l.Typ(), r.Typ())
}

func orderedCompare(op BinOp, a, b float64) bool {
	switch op {
	case BLt:
		return a < b
	case BGt:
		return a > b
	case BLe:
		return a <= b
	case BGe:
		return a >= b
	}
	panic("unreachable comparison op")
}

func inOp(pos Position, l, r Value) (Value, error) {
	switch rv := r.(type) {
	case String:
		lc, ok := l.(Char)
		if !ok {
			return nil, runtimeErrorf(pos, IllegalBinaryOperation, "'in' a string requires a char, got %s", l.Typ())
		}
		return Bool(strings.ContainsRune(string(rv), rune(lc))), nil
	case *Map:
		ls, ok := l.(String)
		if !ok {
			return nil, runtimeErrorf(pos, IllegalBinaryOperation, "'in' a map requires a string key, got %s", l.Typ())
		}
		_, found := rv.Get(string(ls))
		return Bool(found), nil
	case *Vector:
		for _, it := range rv.Snapshot() {
			if Equal(it, l) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	case *Tuple:
		for _, it := range rv.Snapshot() {
			if Equal(it, l) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	}
	return nil, runtimeErrorf(pos, IllegalBinaryOperation, "'in' requires a string, map, vector or tuple, got %s", r.Typ())
}

func unaryOp(pos Position, op UnOp, v Value) (Value, error) {
	switch op {
	case UNeg:
		switch x := v.(type) {
		case Int:
			return -x, nil
		case Float:
			return -x, nil
		}
		return nil, runtimeErrorf(pos, IllegalUnaryOperation, "cannot negate %s", v.Typ())
	case UNot:
		return Bool(!v.Truthy()), nil
	}
	panic("unreachable unary op")
}

// validCastTypes enumerates spec §4.4.5's recognized type names for
// `as`; a name outside this set is UnknownTypeCast, one inside it
// that just can't convert the given value yields Null.
var validCastTypes = map[string]bool{
	"null": true, "int": true, "float": true, "bool": true, "char": true,
	"string": true, "vector": true, "tuple": true, "map": true, "fn": true,
}

func castAs(pos Position, v Value, typ string) (Value, error) {
	if !validCastTypes[typ] {
		return nil, runtimeErrorf(pos, UnknownTypeCast, "unknown type '%s'", typ)
	}
	switch typ {
	case "null":
		return Null{}, nil
	case "int":
		switch x := v.(type) {
		case Int:
			return x, nil
		case Float:
			return Int(int64(x)), nil
		case Bool:
			if x {
				return Int(1), nil
			}
			return Int(0), nil
		case Char:
			return Int(int64(x)), nil
		case String:
			n, err := strconv.ParseInt(strings.TrimSpace(string(x)), 10, 64)
			if err != nil {
				return Null{}, nil
			}
			return Int(n), nil
		}
	case "float":
		switch x := v.(type) {
		case Int:
			return Float(x), nil
		case Float:
			return x, nil
		case String:
			f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
			if err != nil {
				return Null{}, nil
			}
			return Float(f), nil
		}
	case "bool":
		return Bool(v.Truthy()), nil
	case "char":
		switch x := v.(type) {
		case Int:
			return Char(rune(x)), nil
		case Char:
			return x, nil
		case String:
			rs := []rune(string(x))
			if len(rs) == 1 {
				return Char(rs[0]), nil
			}
		}
	case "string":
		return String(v.String()), nil
	}
	return Null{}, nil
}
