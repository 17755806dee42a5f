package hydra

import (
	"github.com/josharian/intern"
)

// This file implements spec §4.3: the compiler's frame/scope/register
// model, lowering the AST into a Closure tree. The shape is closer in
// spirit to rami3l-golox's single-pass Compiler (enclosing/locals/
// depth) than to clarete-langlang/go/grammar_compiler.go's label-
// indirection visitor, because spec §4.3.5's jumps are patched
// eagerly against known absolute addresses rather than late-bound
// labels resolved in a second backpatch pass.

type scope struct {
	locals    map[string]byte
	offset    byte
	isLoop    bool
	breaks    []int
	continues []int
}

func newScope(offset byte, isLoop bool) *scope {
	return &scope{locals: map[string]byte{}, offset: offset, isLoop: isLoop}
}

type frame struct {
	closure    *Closure
	scopes     []*scope
	regHigh    byte
	maxRegs    byte
	constIndex map[string]int
}

func newFrame(path, name string) *frame {
	f := &frame{
		closure:    &Closure{Path: path, Name: name},
		constIndex: map[string]int{},
	}
	f.scopes = append(f.scopes, newScope(0, false))
	return f
}

// Compiler lowers a Chunk into a Closure tree (spec §4.3).
type Compiler struct {
	frames []*frame
	path   string
}

// Compile is the compiler's entry point (spec §4.3, used by api.go's
// CompileChunk and RunWithGlobals).
func Compile(chunk *Chunk) (*Closure, error) {
	c := &Compiler{path: chunk.Path}
	c.pushFrame(chunk.Path, "")
	if err := c.compileStatements(chunk.Body.Stmts); err != nil {
		return nil, err
	}
	ln := 0
	if len(chunk.Body.Stmts) > 0 {
		ln = chunk.Body.Stmts[len(chunk.Body.Stmts)-1].Position().LnEnd
	}
	c.returnSafe(ln)
	return c.popFrame(), nil
}

// ---- frame/scope/register bookkeeping (spec §4.3.1) ----

func (c *Compiler) cur() *frame { return c.frames[len(c.frames)-1] }

func (c *Compiler) curScope() *scope {
	f := c.cur()
	return f.scopes[len(f.scopes)-1]
}

func (c *Compiler) pushFrame(path, name string) {
	c.frames = append(c.frames, newFrame(path, name))
}

func (c *Compiler) popFrame() *Closure {
	f := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]
	f.closure.Registers = f.maxRegs
	return f.closure
}

func (c *Compiler) pushScope() {
	f := c.cur()
	f.scopes = append(f.scopes, newScope(f.regHigh, false))
}

func (c *Compiler) pushScopeLoop() {
	f := c.cur()
	f.scopes = append(f.scopes, newScope(f.regHigh, true))
}

func (c *Compiler) popScope() {
	f := c.cur()
	s := f.scopes[len(f.scopes)-1]
	f.scopes = f.scopes[:len(f.scopes)-1]
	f.regHigh = s.offset
}

// popScopeLoop pops the innermost loop scope and returns it so the
// caller can patch its pending break/continue addresses.
func (c *Compiler) popScopeLoop() *scope {
	f := c.cur()
	s := f.scopes[len(f.scopes)-1]
	f.scopes = f.scopes[:len(f.scopes)-1]
	f.regHigh = s.offset
	return s
}

func (c *Compiler) allocRegisters(n byte) byte {
	f := c.cur()
	start := f.regHigh
	f.regHigh += n
	if f.regHigh > f.maxRegs {
		f.maxRegs = f.regHigh
	}
	return start
}

func (c *Compiler) newRegister() byte { return c.allocRegisters(1) }

// innermostLoop finds the nearest enclosing loop scope within the
// current frame, or nil (closures don't capture outer frames, and
// neither do loops span a frame boundary).
func (c *Compiler) innermostLoop() *scope {
	f := c.cur()
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if f.scopes[i].isLoop {
			return f.scopes[i]
		}
	}
	return nil
}

// resolveLocal searches every scope of the current frame, top-down,
// for a live local named `name` (spec §4.3.6: closures do NOT
// capture outer frames, so only the current frame's scopes are
// searched).
func (c *Compiler) resolveLocal(name string) (byte, bool) {
	f := c.cur()
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if reg, ok := f.scopes[i].locals[name]; ok {
			return reg, true
		}
	}
	return 0, false
}

func (c *Compiler) bindLocal(name string, reg byte) {
	intern.String(name)
	c.curScope().locals[name] = reg
}

// resolveSource resolves a bare identifier read to a Source: a local
// register, or a global (constant-pool string) location (spec
// §4.3.6).
func (c *Compiler) resolveSource(name string) Source {
	if reg, ok := c.resolveLocal(name); ok {
		return SrcRegister{Reg: reg}
	}
	return SrcGlobal{Addr: c.newConstant(String(intern.String(name)))}
}

// resolveLocation resolves an identifier assignment target to a
// Location (spec §4.3.6).
func (c *Compiler) resolveLocation(name string) Location {
	if reg, ok := c.resolveLocal(name); ok {
		return LocRegister{Reg: reg}
	}
	return LocGlobal{Addr: c.newConstant(String(intern.String(name)))}
}

// ---- constant/closure interning (spec §4.3.2) ----

// newConstant returns the index of v in the current frame's constant
// pool, interning strings (github.com/josharian/intern, mirroring
// rami3l-golox's use of intern.String on function names) so equal
// string constants share one slot and one backing allocation
// (spec invariant #7).
func (c *Compiler) newConstant(v Value) uint16 {
	f := c.cur()
	if s, ok := v.(String); ok {
		key := intern.String(string(s))
		if idx, ok := f.constIndex[key]; ok {
			return uint16(idx)
		}
		idx := len(f.closure.Constants)
		f.closure.Constants = append(f.closure.Constants, String(key))
		f.constIndex[key] = idx
		return uint16(idx)
	}
	for i, existing := range f.closure.Constants {
		if Equal(existing, v) {
			return uint16(i)
		}
	}
	idx := len(f.closure.Constants)
	f.closure.Constants = append(f.closure.Constants, v)
	return uint16(idx)
}

func (c *Compiler) newClosure(nested *Closure) int {
	f := c.cur()
	f.closure.Closures = append(f.closure.Closures, nested)
	return len(f.closure.Closures) - 1
}

// ---- emission primitives (spec §4.3.3) ----

func (c *Compiler) write(op ByteCode, ln int) int {
	f := c.cur()
	f.closure.Code = append(f.closure.Code, op)
	f.closure.Lines = append(f.closure.Lines, ln)
	return len(f.closure.Code) - 1
}

func (c *Compiler) overwrite(addr int, op ByteCode, ln int) {
	f := c.cur()
	f.closure.Code[addr] = op
	f.closure.Lines[addr] = ln
}

func (c *Compiler) none(ln int) int { return c.write(OpNone{}, ln) }

// overwriteJump elides a no-op jump whose target is the instruction
// immediately following it (spec §4.3.3).
func (c *Compiler) overwriteJump(addr, to, ln int) {
	if to == addr+1 {
		c.overwrite(addr, OpNone{}, ln)
		return
	}
	c.overwrite(addr, OpJump{Addr: to}, ln)
}

func (c *Compiler) overwriteJumpIf(addr int, negate bool, cond Source, to, ln int) {
	if to == addr+1 {
		c.overwrite(addr, OpNone{}, ln)
		return
	}
	c.overwrite(addr, OpJumpIf{Negate: negate, Cond: cond, Addr: to}, ln)
}

func (c *Compiler) overwriteJumpIfSome(addr int, negate bool, src Source, to, ln int) {
	if to == addr+1 {
		c.overwrite(addr, OpNone{}, ln)
		return
	}
	c.overwrite(addr, OpJumpIfSome{Negate: negate, Src: src, Addr: to}, ln)
}

// returnSafe is idempotent: reuses a trailing Return already emitted,
// otherwise appends Return{None} (spec §4.3.3, used at chunk/fn end).
func (c *Compiler) returnSafe(ln int) {
	f := c.cur()
	if n := len(f.closure.Code); n > 0 {
		if _, ok := f.closure.Code[n-1].(OpReturn); ok {
			return
		}
	}
	c.write(OpReturn{}, ln)
}

// moveChecked elides a self-assignment: emits nothing if src already
// denotes dst, otherwise a Move (spec §4.3.3, invariant #6).
func (c *Compiler) moveChecked(dst Location, src Source, ln int) {
	if srcIsLoc(src, dst) {
		return
	}
	c.write(OpMove{Dst: dst, Src: src}, ln)
}

func locToSource(l Location) Source {
	switch v := l.(type) {
	case LocRegister:
		return SrcRegister{Reg: v.Reg}
	case LocGlobal:
		return SrcGlobal{Addr: v.Addr}
	}
	panic("unreachable location kind")
}

// ---- pattern binding (spec §4.3.4's "Pattern binding") ----

func tupleOrVectorNames(p Parameter) []Parameter {
	switch v := p.(type) {
	case *TupleParam:
		return v.Names
	case *VectorParam:
		return v.Names
	}
	return nil
}

// bindPattern implements spec §4.3.4's pattern-binding rules for
// `let`/`if let`/`while let`/`for` and inner names of destructuring
// patterns: Ident allocates a fresh local and move-checks src into
// it; Tuple/Vector extract by index; Map extracts by string key.
func (c *Compiler) bindPattern(p Parameter, src Source, ln int) {
	switch v := p.(type) {
	case *IdentParam:
		reg := c.newRegister()
		c.bindLocal(v.Name, reg)
		c.moveChecked(LocRegister{Reg: reg}, src, ln)
	case *TupleParam, *VectorParam:
		for i, inner := range tupleOrVectorNames(v) {
			c.bindIndexed(inner, src, i, ln)
		}
	case *MapParam:
		for _, name := range v.Names {
			c.bindKeyed(name, src, name, ln)
		}
	}
}

func (c *Compiler) bindIndexed(inner Parameter, src Source, idx int, ln int) {
	if ident, ok := inner.(*IdentParam); ok {
		reg := c.newRegister()
		c.bindLocal(ident.Name, reg)
		c.write(OpField{Dst: LocRegister{Reg: reg}, Head: src, Field: SrcInt{Value: int64(idx)}}, ln)
		return
	}
	tmp := c.newRegister()
	c.write(OpField{Dst: LocRegister{Reg: tmp}, Head: src, Field: SrcInt{Value: int64(idx)}}, ln)
	c.bindPattern(inner, SrcRegister{Reg: tmp}, ln)
}

func (c *Compiler) bindKeyed(name string, src Source, key string, ln int) {
	reg := c.newRegister()
	c.bindLocal(name, reg)
	c.write(OpField{Dst: LocRegister{Reg: reg}, Head: src, Field: SrcConstant{Addr: c.newConstant(String(key))}}, ln)
}

// bindTopLevelParam binds a function's top-level parameter pattern
// directly against its preallocated incoming register: an Ident
// param becomes that register with no copy (spec §4.3.4); composite
// patterns extract from it exactly as bindIndexed/bindKeyed do.
func (c *Compiler) bindTopLevelParam(p Parameter, reg byte, ln int) {
	switch v := p.(type) {
	case *IdentParam:
		c.bindLocal(v.Name, reg)
	case *TupleParam, *VectorParam:
		for i, inner := range tupleOrVectorNames(v) {
			c.bindIndexed(inner, SrcRegister{Reg: reg}, i, ln)
		}
	case *MapParam:
		for _, name := range v.Names {
			c.bindKeyed(name, SrcRegister{Reg: reg}, name, ln)
		}
	}
}

// ---- statement lowering (spec §4.3.4/§4.3.5) ----

func (c *Compiler) compileStatements(stmts []Statement) error {
	for _, s := range stmts {
		terminated, err := c.compileStmt(s)
		if err != nil {
			return err
		}
		if terminated {
			return nil
		}
	}
	return nil
}

func (c *Compiler) compileBlock(b *Block) error {
	c.pushScope()
	err := c.compileStatements(b.Stmts)
	c.popScope()
	return err
}

// compileStmt returns (terminated, err): terminated is true once a
// Return has been compiled, signalling the block walker to stop
// emitting subsequent statements (spec §4.3.4).
func (c *Compiler) compileStmt(s Statement) (bool, error) {
	ln := s.Position().LnStart
	switch v := s.(type) {
	case *LetBinding:
		src := c.compileExpr(v.Expr)
		c.bindPattern(v.Param, src, ln)
		return false, nil

	case *Assign:
		if err := c.compileAssign(v, ln); err != nil {
			return false, err
		}
		return false, nil

	case *FnStmt:
		if err := c.compileFn(v, ln); err != nil {
			return false, err
		}
		return false, nil

	case *CallStmt:
		c.compileCall(v.Call, false)
		return false, nil

	case *SelfCallStmt:
		c.compileSelfCall(v.Call, false)
		return false, nil

	case *ReturnStmt:
		if v.Expr == nil {
			c.write(OpReturn{}, ln)
		} else {
			src := c.compileExpr(v.Expr)
			c.write(OpReturn{Src: &src}, ln)
		}
		return true, nil

	case *IfStmt:
		c.compileIf(v, ln)
		return false, nil

	case *IfLetStmt:
		c.compileIfLet(v, ln)
		return false, nil

	case *WhileStmt:
		c.compileWhile(v, ln)
		return false, nil

	case *WhileLetStmt:
		c.compileWhileLet(v, ln)
		return false, nil

	case *ForStmt:
		c.compileFor(v, ln)
		return false, nil

	case *ContinueStmt:
		loop := c.innermostLoop()
		if loop == nil {
			return false, &CompileError{K: JumpOutsideLoop, Pos: v.Pos}
		}
		addr := c.none(ln)
		loop.continues = append(loop.continues, addr)
		return false, nil

	case *BreakStmt:
		loop := c.innermostLoop()
		if loop == nil {
			return false, &CompileError{K: JumpOutsideLoop, Pos: v.Pos}
		}
		addr := c.none(ln)
		loop.breaks = append(loop.breaks, addr)
		return false, nil
	}
	panic("unreachable statement kind")
}

func (c *Compiler) compileAssign(a *Assign, ln int) error {
	switch target := a.Target.(type) {
	case *IdentExpr:
		dst := c.resolveLocation(target.Name)
		if a.Op == ANone {
			src := c.compileExpr(a.Expr)
			c.moveChecked(dst, src, ln)
			return nil
		}
		rhs := c.compileExpr(a.Expr)
		resultReg := c.newRegister()
		c.write(OpBinary{Op: assignBinOp(a.Op), Dst: LocRegister{Reg: resultReg}, Left: locToSource(dst), Right: rhs}, ln)
		c.moveChecked(dst, SrcRegister{Reg: resultReg}, ln)
		return nil

	case *FieldExpr:
		head := c.compileExpr(target.Head)
		field := SrcConstant{Addr: c.newConstant(String(target.Field))}
		if a.Op == ANone {
			src := c.compileExpr(a.Expr)
			c.write(OpSetField{Head: head, Field: field, Src: src}, ln)
			return nil
		}
		cur := c.newRegister()
		c.write(OpField{Dst: LocRegister{Reg: cur}, Head: head, Field: field}, ln)
		rhs := c.compileExpr(a.Expr)
		result := c.newRegister()
		c.write(OpBinary{Op: assignBinOp(a.Op), Dst: LocRegister{Reg: result}, Left: SrcRegister{Reg: cur}, Right: rhs}, ln)
		c.write(OpSetField{Head: head, Field: field, Src: SrcRegister{Reg: result}}, ln)
		return nil

	case *IndexExpr:
		head := c.compileExpr(target.Head)
		field := c.compileExpr(target.Index)
		if a.Op == ANone {
			src := c.compileExpr(a.Expr)
			c.write(OpSetField{Head: head, Field: field, Src: src}, ln)
			return nil
		}
		cur := c.newRegister()
		c.write(OpField{Dst: LocRegister{Reg: cur}, Head: head, Field: field}, ln)
		rhs := c.compileExpr(a.Expr)
		result := c.newRegister()
		c.write(OpBinary{Op: assignBinOp(a.Op), Dst: LocRegister{Reg: result}, Left: SrcRegister{Reg: cur}, Right: rhs}, ln)
		c.write(OpSetField{Head: head, Field: field, Src: SrcRegister{Reg: result}}, ln)
		return nil
	}
	panic("unreachable assign target kind")
}

func assignBinOp(op AssignOp) BinOp {
	switch op {
	case AAdd:
		return BAdd
	case ASub:
		return BSub
	case AMul:
		return BMul
	case ADiv:
		return BDiv
	case AMod:
		return BMod
	case APow:
		return BPow
	}
	panic("unreachable assign op")
}

func (c *Compiler) compileFn(s *FnStmt, ln int) error {
	dstReg := c.newRegister()
	c.bindLocal(s.Name, dstReg)

	c.pushFrame(c.path, intern.String(s.Name))
	var paramCount byte
	paramRegs := make([]byte, len(s.Params))
	for i := range s.Params {
		paramRegs[i] = c.newRegister()
		paramCount++
	}
	if s.Varargs != "" {
		reg := c.newRegister()
		paramCount++
		c.bindLocal(s.Varargs, reg)
	}
	for i, p := range s.Params {
		c.bindTopLevelParam(p, paramRegs[i], ln)
	}
	if err := c.compileStatements(s.Body.Stmts); err != nil {
		return err
	}
	endLn := s.Body.Pos.LnEnd
	c.returnSafe(endLn)

	nested := c.popFrame()
	nested.Parameters = paramCount
	nested.Varargs = s.Varargs != ""

	idx := c.newClosure(nested)
	c.write(OpFn{Dst: LocRegister{Reg: dstReg}, Addr: idx}, ln)
	return nil
}

func (c *Compiler) compileIf(s *IfStmt, ln int) {
	cond := c.compileExpr(s.Cond)
	jumpToElse := c.none(ln)
	_ = c.compileBlock(s.Case)
	jumpToExit := c.none(ln)
	elseAddr := c.here()
	if s.Else != nil {
		_ = c.compileBlock(s.Else)
	}
	exitAddr := c.here()
	c.overwriteJumpIf(jumpToElse, true, cond, elseAddr, ln)
	c.overwriteJump(jumpToExit, exitAddr, ln)
}

func (c *Compiler) compileIfLet(s *IfLetStmt, ln int) {
	src := c.compileExpr(s.Expr)
	jumpToElse := c.none(ln)

	c.pushScope()
	c.bindPattern(s.Param, src, ln)
	_ = c.compileStatements(s.Case.Stmts)
	c.popScope()

	jumpToExit := c.none(ln)
	elseAddr := c.here()
	if s.Else != nil {
		_ = c.compileBlock(s.Else)
	}
	exitAddr := c.here()
	c.overwriteJumpIfSome(jumpToElse, true, src, elseAddr, ln)
	c.overwriteJump(jumpToExit, exitAddr, ln)
}

func (c *Compiler) compileWhile(s *WhileStmt, ln int) {
	start := c.here()
	c.pushScopeLoop()
	cond := c.compileExpr(s.Cond)
	jumpToExit := c.none(ln)
	_ = c.compileStatements(s.Body.Stmts)
	c.write(OpJump{Addr: start}, ln)
	exit := c.here()
	c.overwriteJumpIf(jumpToExit, true, cond, exit, ln)

	loop := c.popScopeLoop()
	for _, addr := range loop.breaks {
		c.overwriteJump(addr, exit, ln)
	}
	for _, addr := range loop.continues {
		c.overwriteJump(addr, start, ln)
	}
}

func (c *Compiler) compileWhileLet(s *WhileLetStmt, ln int) {
	start := c.here()
	c.pushScopeLoop()
	src := c.compileExpr(s.Expr)
	jumpToExit := c.none(ln)
	c.bindPattern(s.Param, src, ln)
	_ = c.compileStatements(s.Body.Stmts)
	c.write(OpJump{Addr: start}, ln)
	exit := c.here()
	c.overwriteJumpIfSome(jumpToExit, true, src, exit, ln)

	loop := c.popScopeLoop()
	for _, addr := range loop.breaks {
		c.overwriteJump(addr, exit, ln)
	}
	for _, addr := range loop.continues {
		c.overwriteJump(addr, start, ln)
	}
}

func (c *Compiler) compileFor(s *ForStmt, ln int) {
	iterSrc := c.compileExpr(s.Iter)
	itReg := c.newRegister()
	c.emitGlobalCall1("iter", iterSrc, &LocRegister{Reg: itReg}, ln)

	loopStart := c.here()
	c.pushScopeLoop()
	valReg := c.newRegister()
	c.emitGlobalCall1("next", SrcRegister{Reg: itReg}, &LocRegister{Reg: valReg}, ln)

	jumpExit := c.none(ln)
	c.bindPattern(s.Param, SrcRegister{Reg: valReg}, ln)
	_ = c.compileStatements(s.Body.Stmts)
	c.write(OpJump{Addr: loopStart}, ln)

	exit := c.here()
	c.overwriteJumpIfSome(jumpExit, true, SrcRegister{Reg: valReg}, exit, ln)

	loop := c.popScopeLoop()
	for _, addr := range loop.breaks {
		c.overwriteJump(addr, exit, ln)
	}
	for _, addr := range loop.continues {
		c.overwriteJump(addr, loopStart, ln)
	}
}

// emitGlobalCall1 calls a host-resolved global name with one
// argument (used by `for`'s iter/next desugaring, spec §4.3.5).
func (c *Compiler) emitGlobalCall1(name string, arg Source, dst *Location, ln int) {
	c.pushScope()
	start := c.allocRegisters(1)
	c.moveChecked(LocRegister{Reg: start}, arg, ln)
	c.popScope()
	funcSrc := SrcGlobal{Addr: c.newConstant(String(name))}
	c.write(OpCall{Dst: dst, Func: funcSrc, Start: start, Amount: 1}, ln)
}

func (c *Compiler) here() int { return len(c.cur().closure.Code) }

// ---- expression lowering (spec §4.3.6) ----

func (c *Compiler) compileExpr(e Expression) Source {
	ln := e.Position().LnStart
	switch v := e.(type) {
	case *NullAtom:
		return SrcNull{}
	case *IntAtom:
		return SrcInt{Value: v.Value}
	case *FloatAtom:
		return SrcFloat{Value: v.Value}
	case *BoolAtom:
		return SrcBool{Value: v.Value}
	case *CharAtom:
		return SrcChar{Value: v.Value}
	case *StringAtom:
		return SrcConstant{Addr: c.newConstant(String(v.Value))}

	case *IdentExpr:
		return c.resolveSource(v.Name)

	case *TupleAtom:
		return c.compileAggregate(v.Items, ln, true)
	case *VectorAtom:
		return c.compileAggregate(v.Items, ln, false)

	case *MapAtom:
		dst := c.newRegister()
		c.write(OpMap{Dst: LocRegister{Reg: dst}}, ln)
		for _, entry := range v.Entries {
			val := c.compileExpr(entry.Value)
			key := SrcConstant{Addr: c.newConstant(String(entry.Key))}
			c.write(OpSetField{Head: SrcRegister{Reg: dst}, Field: key, Src: val}, ln)
		}
		return SrcRegister{Reg: dst}

	case *FieldExpr:
		head := c.compileExpr(v.Head)
		field := SrcConstant{Addr: c.newConstant(String(v.Field))}
		dst := c.newRegister()
		c.write(OpField{Dst: LocRegister{Reg: dst}, Head: head, Field: field}, ln)
		return SrcRegister{Reg: dst}

	case *IndexExpr:
		head := c.compileExpr(v.Head)
		field := c.compileExpr(v.Index)
		dst := c.newRegister()
		c.write(OpField{Dst: LocRegister{Reg: dst}, Head: head, Field: field}, ln)
		return SrcRegister{Reg: dst}

	case *BinaryExpr:
		l := c.compileExpr(v.L)
		r := c.compileExpr(v.R)
		dst := c.newRegister()
		c.write(OpBinary{Op: v.Op, Dst: LocRegister{Reg: dst}, Left: l, Right: r}, ln)
		return SrcRegister{Reg: dst}

	case *UnaryExpr:
		r := c.compileExpr(v.R)
		dst := c.newRegister()
		c.write(OpUnary{Op: v.Op, Dst: LocRegister{Reg: dst}, Right: r}, ln)
		return SrcRegister{Reg: dst}

	case *CallExpr:
		return c.compileCall(v, true)

	case *SelfCallExpr:
		return c.compileSelfCall(v, true)
	}
	panic("unreachable expression kind")
}

// compileAggregate stages items into contiguous registers (spec
// §4.3.4's call-argument staging pattern, reused verbatim for
// Vector/Tuple literals) then emits the Vector/Tuple opcode.
func (c *Compiler) compileAggregate(items []Expression, ln int, isTuple bool) Source {
	c.pushScope()
	start := c.allocRegisters(byte(len(items)))
	for i, it := range items {
		src := c.compileExpr(it)
		c.moveChecked(LocRegister{Reg: start + byte(i)}, src, ln)
	}
	c.popScope()
	dst := c.newRegister()
	if isTuple {
		c.write(OpTuple{Dst: LocRegister{Reg: dst}, Start: start, Amount: byte(len(items))}, ln)
	} else {
		c.write(OpVector{Dst: LocRegister{Reg: dst}, Start: start, Amount: byte(len(items))}, ln)
	}
	return SrcRegister{Reg: dst}
}

func (c *Compiler) compileCall(call *CallExpr, wantResult bool) Source {
	ln := call.Pos.LnStart
	funcSrc := c.compileExpr(call.Head)

	c.pushScope()
	start := c.allocRegisters(byte(len(call.Args)))
	for i, arg := range call.Args {
		src := c.compileExpr(arg)
		c.moveChecked(LocRegister{Reg: start + byte(i)}, src, ln)
	}
	c.popScope()

	var dstLoc *Location
	var result byte
	if wantResult {
		result = c.newRegister()
		loc := Location(LocRegister{Reg: result})
		dstLoc = &loc
	}
	c.write(OpCall{Dst: dstLoc, Func: funcSrc, Start: start, Amount: byte(len(call.Args))}, ln)
	if wantResult {
		return SrcRegister{Reg: result}
	}
	return SrcNull{}
}

func (c *Compiler) compileSelfCall(call *SelfCallExpr, wantResult bool) Source {
	ln := call.Pos.LnStart
	headSrc := c.compileExpr(call.Head)
	funcReg := c.newRegister()
	c.write(OpField{
		Dst:   LocRegister{Reg: funcReg},
		Head:  headSrc,
		Field: SrcConstant{Addr: c.newConstant(String(call.Field))},
	}, ln)

	c.pushScope()
	start := c.allocRegisters(byte(1 + len(call.Args)))
	c.moveChecked(LocRegister{Reg: start}, headSrc, ln)
	for i, arg := range call.Args {
		src := c.compileExpr(arg)
		c.moveChecked(LocRegister{Reg: start + byte(1+i)}, src, ln)
	}
	c.popScope()

	var dstLoc *Location
	var result byte
	if wantResult {
		result = c.newRegister()
		loc := Location(LocRegister{Reg: result})
		dstLoc = &loc
	}
	c.write(OpCall{Dst: dstLoc, Func: SrcRegister{Reg: funcReg}, Start: start, Amount: byte(1 + len(call.Args))}, ln)
	if wantResult {
		return SrcRegister{Reg: result}
	}
	return SrcNull{}
}
