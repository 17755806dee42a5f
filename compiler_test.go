package hydra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileOK(t *testing.T, src string) *Closure {
	t.Helper()
	chunk, err := Parse("<test>", src)
	require.NoError(t, err)
	closure, err := Compile(chunk)
	require.NoError(t, err)
	return closure
}

func TestCompileProducesNonEmptyCode(t *testing.T) {
	closure := compileOK(t, "let x = 1\nlet y = x + 2\n")
	assert.NotEmpty(t, closure.Code)
	assert.Len(t, closure.Code, len(closure.Lines))
}

func TestCompileConstantPoolDedupes(t *testing.T) {
	closure := compileOK(t, "let a = \"same\"\nlet b = \"same\"\n")
	count := 0
	for _, c := range closure.Constants {
		if s, ok := c.(String); ok && string(s) == "same" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestCompileFnProducesNestedClosure(t *testing.T) {
	closure := compileOK(t, "fn add(a, b)\n    return a + b\n")
	require.Len(t, closure.Closures, 1)
	fn := closure.Closures[0]
	assert.Equal(t, "add", fn.Name)
	assert.EqualValues(t, 2, fn.Parameters)
}

func TestCompileBreakOutsideLoopIsError(t *testing.T) {
	chunk, err := Parse("<test>", "break\n")
	require.NoError(t, err)
	_, err = Compile(chunk)
	require.Error(t, err)
	cerr, ok := err.(*CompileError)
	require.True(t, ok)
	assert.Equal(t, JumpOutsideLoop, cerr.K)
}

func TestCompileContinueOutsideLoopIsError(t *testing.T) {
	chunk, err := Parse("<test>", "continue\n")
	require.NoError(t, err)
	_, err = Compile(chunk)
	require.Error(t, err)
	_, ok := err.(*CompileError)
	assert.True(t, ok)
}

func TestCompileWhileLoopAllowsBreakAndContinue(t *testing.T) {
	_, err := Compile(mustParse(t, "while true\n    break\n"))
	assert.NoError(t, err)
	_, err = Compile(mustParse(t, "while true\n    continue\n"))
	assert.NoError(t, err)
}

func mustParse(t *testing.T, src string) *Chunk {
	t.Helper()
	chunk, err := Parse("<test>", src)
	require.NoError(t, err)
	return chunk
}
