package hydra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runOK(t *testing.T, src string) Value {
	t.Helper()
	v, err := Run("<test>", src, nil)
	require.NoError(t, err)
	return v
}

func TestRunArithmeticWrapsIntOverflow(t *testing.T) {
	v := runOK(t, "let max = 9223372036854775807\nreturn max + 1\n")
	assert.Equal(t, Int(-9223372036854775808), v)
}

func TestRunDivisionByZeroIsRuntimeError(t *testing.T) {
	_, err := Run("<test>", "let x = 1 / 0\nreturn x\n", nil)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, DivisionByZero, rerr.K)
}

func TestRunTupleEqualityByValue(t *testing.T) {
	v := runOK(t, "let a = (1, 2)\nlet b = (1, 2)\nreturn a == b\n")
	assert.Equal(t, Bool(true), v)
}

func TestRunTupleElementwiseArithmetic(t *testing.T) {
	v := runOK(t, "let a = (1, 2)\nlet b = (3, 4)\nreturn a + b\n")
	tup, ok := v.(*Tuple)
	require.True(t, ok)
	items := tup.Snapshot()
	require.Len(t, items, 2)
	assert.Equal(t, Int(4), items[0])
	assert.Equal(t, Int(6), items[1])
}

func TestRunInOperatorOnVector(t *testing.T) {
	v := runOK(t, "let xs = [1, 2, 3]\nreturn 2 in xs\n")
	assert.Equal(t, Bool(true), v)
}

func TestRunOrIsLogicalOr(t *testing.T) {
	v := runOK(t, "return false or true\n")
	assert.Equal(t, Bool(true), v)
}

func TestRunFunctionCallReturnsValue(t *testing.T) {
	src := "fn add(a, b)\n" +
		"    return a + b\n" +
		"return add(3, 4)\n"
	v := runOK(t, src)
	assert.Equal(t, Int(7), v)
}

// Nested function definitions don't capture the enclosing frame's
// locals (spec §4.3.6) — only the current frame's own scopes and
// globals are searched, so a free identifier inside a nested fn
// resolves through the global table, not the outer function's
// registers.
func TestRunNestedFunctionReadsGlobalNotOuterLocal(t *testing.T) {
	src := "shared = 100\n" + // bare assignment to an undeclared name writes a global
		"fn outer(n)\n" +
		"    let shared = 5\n" + // outer local of the same name, not seen by inner
		"    fn inner(x)\n" +
		"        return x + shared\n" +
		"    return inner(n)\n" +
		"return outer(1)\n"
	v := runOK(t, src)
	assert.Equal(t, Int(101), v)
}

func TestRunIfElseBranching(t *testing.T) {
	src := "let x = 10\n" +
		"if x > 5\n" +
		"    return \"big\"\n" +
		"else\n" +
		"    return \"small\"\n"
	v := runOK(t, src)
	assert.Equal(t, String("big"), v)
}

func TestRunWhileLoopAccumulates(t *testing.T) {
	src := "let i = 0\n" +
		"let total = 0\n" +
		"while i < 5\n" +
		"    total += i\n" +
		"    i += 1\n" +
		"return total\n"
	v := runOK(t, src)
	assert.Equal(t, Int(10), v)
}

func TestRunNullTruthiness(t *testing.T) {
	v := runOK(t, "if null\n    return 1\nelse\n    return 0\n")
	assert.Equal(t, Int(0), v)
}

func TestRunVectorMutationIsShared(t *testing.T) {
	src := "fn mutate(v)\n" +
		"    v[0] = 99\n" +
		"let xs = [1, 2, 3]\n" +
		"mutate(xs)\n" +
		"return xs[0]\n"
	v := runOK(t, src)
	assert.Equal(t, Int(99), v)
}

func TestRunCannotCallNonFunction(t *testing.T) {
	_, err := Run("<test>", "let x = 1\nreturn x()\n", nil)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, CannotCall, rerr.K)
}
