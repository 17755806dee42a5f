package hydra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOK(t *testing.T, src string) *Chunk {
	t.Helper()
	chunk, err := Parse("<test>", src)
	require.NoError(t, err)
	return chunk
}

func TestParseLetBinding(t *testing.T) {
	chunk := parseOK(t, "let x = 1 + 2 * 3\n")
	require.Len(t, chunk.Body.Stmts, 1)
	let, ok := chunk.Body.Stmts[0].(*LetBinding)
	require.True(t, ok)
	bin, ok := let.Expr.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, BAdd, bin.Op)
	rhs, ok := bin.R.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, BMul, rhs.Op)
}

func TestParseExponentIsLeftAssociative(t *testing.T) {
	chunk := parseOK(t, "let x = 2 ^ 3 ^ 2\n")
	let := chunk.Body.Stmts[0].(*LetBinding)
	top, ok := let.Expr.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, BPow, top.Op)
	left, ok := top.L.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, BPow, left.Op)
}

func TestParseIfElseBlock(t *testing.T) {
	src := "if x > 0\n    let y = 1\nelse\n    let y = 2\n"
	chunk := parseOK(t, src)
	require.Len(t, chunk.Body.Stmts, 1)
	ifs, ok := chunk.Body.Stmts[0].(*IfStmt)
	require.True(t, ok)
	require.NotNil(t, ifs.Case)
	require.NotNil(t, ifs.Else)
	assert.Len(t, ifs.Case.Stmts, 1)
	assert.Len(t, ifs.Else.Stmts, 1)
}

func TestParseMissingIndentedBlockIsError(t *testing.T) {
	_, err := Parse("<test>", "if x\nlet y = 1\n")
	require.Error(t, err)
	perr, ok := err.(*ParseError)
	require.True(t, ok)
	assert.Equal(t, ExpectedIndentedBlock, perr.K)
}

func TestParseForLoop(t *testing.T) {
	src := "for x in xs\n    print(x)\n"
	chunk := parseOK(t, src)
	forStmt, ok := chunk.Body.Stmts[0].(*ForStmt)
	require.True(t, ok)
	_, ok = forStmt.Param.(*IdentParam)
	assert.True(t, ok)
	_, ok = forStmt.Iter.(*IdentExpr)
	assert.True(t, ok)
}

func TestParseFnWithTupleParam(t *testing.T) {
	src := "fn f((a, b))\n    return a\n"
	chunk := parseOK(t, src)
	fn, ok := chunk.Body.Stmts[0].(*FnStmt)
	require.True(t, ok)
	require.Len(t, fn.Params, 1)
	_, ok = fn.Params[0].(*TupleParam)
	assert.True(t, ok)
}

func TestParseSelfCallSyntax(t *testing.T) {
	chunk := parseOK(t, "h:push(1)\n")
	stmt, ok := chunk.Body.Stmts[0].(*SelfCallStmt)
	require.True(t, ok)
	ident, ok := stmt.Call.Head.(*IdentExpr)
	require.True(t, ok)
	assert.Equal(t, "h", ident.Name)
	assert.Equal(t, "push", stmt.Call.Field)
}

func TestParseVectorAndTupleAtoms(t *testing.T) {
	chunk := parseOK(t, "let v = [1, 2, 3]\nlet t = (1, 2)\nlet u = ()\n")
	let1 := chunk.Body.Stmts[0].(*LetBinding)
	vec, ok := let1.Expr.(*VectorAtom)
	require.True(t, ok)
	assert.Len(t, vec.Items, 3)

	let2 := chunk.Body.Stmts[1].(*LetBinding)
	tup, ok := let2.Expr.(*TupleAtom)
	require.True(t, ok)
	assert.Len(t, tup.Items, 2)

	let3 := chunk.Body.Stmts[2].(*LetBinding)
	empty, ok := let3.Expr.(*TupleAtom)
	require.True(t, ok)
	assert.Len(t, empty.Items, 0)
}

func TestParseMapAtom(t *testing.T) {
	chunk := parseOK(t, "let m = { a = 1, b = 2 }\n")
	let := chunk.Body.Stmts[0].(*LetBinding)
	m, ok := let.Expr.(*MapAtom)
	require.True(t, ok)
	assert.Len(t, m.Entries, 2)
}

func TestParseCompoundAssign(t *testing.T) {
	chunk := parseOK(t, "x += 1\n")
	assign, ok := chunk.Body.Stmts[0].(*Assign)
	require.True(t, ok)
	assert.Equal(t, AAdd, assign.Op)
}

func TestParseWhileLet(t *testing.T) {
	src := "while let (a, b) = next_pair()\n    print(a)\n"
	chunk := parseOK(t, src)
	_, ok := chunk.Body.Stmts[0].(*WhileLetStmt)
	assert.True(t, ok)
}

func TestParseTopLevelAggregatesMultipleErrors(t *testing.T) {
	_, err := Parse("<test>", "let = 1\nlet = 2\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 errors occurred")
}

func TestParseFieldAndIndexChain(t *testing.T) {
	chunk := parseOK(t, "let v = a.b[0].c\n")
	let := chunk.Body.Stmts[0].(*LetBinding)
	field, ok := let.Expr.(*FieldExpr)
	require.True(t, ok)
	assert.Equal(t, "c", field.Field)
	idx, ok := field.Head.(*IndexExpr)
	require.True(t, ok)
	_ = idx
}
