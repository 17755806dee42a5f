package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hydra "github.com/sty00a4-code/hydra-go"
)

func newInterp(t *testing.T) *hydra.Interpreter {
	t.Helper()
	interp := hydra.NewInterpreter()
	Register(interp)
	return interp
}

func callGlobal(t *testing.T, interp *hydra.Interpreter, name string, args ...hydra.Value) (hydra.Value, error) {
	t.Helper()
	fn, ok := interp.GetGlobal(name).(*hydra.NativeFn)
	require.True(t, ok, "global %q is not a native function", name)
	return fn.Fn(interp, args)
}

func TestLenAcrossCollections(t *testing.T) {
	interp := newInterp(t)

	v, err := callGlobal(t, interp, "len", hydra.String("hello"))
	require.NoError(t, err)
	assert.Equal(t, hydra.Int(5), v)

	vec := hydra.NewVector([]hydra.Value{hydra.Int(1), hydra.Int(2), hydra.Int(3)})
	v, err = callGlobal(t, interp, "len", vec)
	require.NoError(t, err)
	assert.Equal(t, hydra.Int(3), v)
}

func TestPushMutatesVector(t *testing.T) {
	interp := newInterp(t)
	vec := hydra.NewVector([]hydra.Value{hydra.Int(1)})
	v, err := callGlobal(t, interp, "push", vec, hydra.Int(2))
	require.NoError(t, err)
	assert.Same(t, vec, v)
	assert.Equal(t, 2, vec.Len())
}

func TestKeysSortedAscending(t *testing.T) {
	interp := newInterp(t)
	m := hydra.NewMap()
	m.Set("b", hydra.Int(1))
	m.Set("a", hydra.Int(2))
	v, err := callGlobal(t, interp, "keys", m)
	require.NoError(t, err)
	vec, ok := v.(*hydra.Vector)
	require.True(t, ok)
	assert.Equal(t, []hydra.Value{hydra.String("a"), hydra.String("b")}, vec.Snapshot())
}

func TestSplitAndJoinRoundTrip(t *testing.T) {
	interp := newInterp(t)
	parts, err := callGlobal(t, interp, "split", hydra.String("a,b,c"), hydra.String(","))
	require.NoError(t, err)
	joined, err := callGlobal(t, interp, "join", parts, hydra.String("-"))
	require.NoError(t, err)
	assert.Equal(t, hydra.String("a-b-c"), joined)
}

func TestFormatSubstitutesPositionally(t *testing.T) {
	interp := newInterp(t)
	v, err := callGlobal(t, interp, "format", hydra.String("{} plus {} is {}"),
		hydra.Int(1), hydra.Int(2), hydra.Int(3))
	require.NoError(t, err)
	assert.Equal(t, hydra.String("1 plus 2 is 3"), v)
}

func TestEnumerateProducesIndexValuePairs(t *testing.T) {
	interp := newInterp(t)
	vec := hydra.NewVector([]hydra.Value{hydra.String("x"), hydra.String("y")})
	v, err := callGlobal(t, interp, "enumerate", vec)
	require.NoError(t, err)
	out, ok := v.(*hydra.Vector)
	require.True(t, ok)
	require.Equal(t, 2, out.Len())
	first, _ := out.Get(0)
	pair, ok := first.(*hydra.Tuple)
	require.True(t, ok)
	assert.Equal(t, 2, pair.Len())
	idx, _ := pair.Get(0)
	assert.Equal(t, hydra.Int(0), idx)
}

func TestParseIntAndFloat(t *testing.T) {
	interp := newInterp(t)

	v, err := callGlobal(t, interp, "parse_int", hydra.String("42"))
	require.NoError(t, err)
	assert.Equal(t, hydra.Int(42), v)

	v, err = callGlobal(t, interp, "parse_int", hydra.String("not a number"))
	require.NoError(t, err)
	assert.Equal(t, hydra.Null{}, v)

	v, err = callGlobal(t, interp, "parse_float", hydra.String("3.5"))
	require.NoError(t, err)
	assert.Equal(t, hydra.Float(3.5), v)

	v, err = callGlobal(t, interp, "parse_float", hydra.String("nope"))
	require.NoError(t, err)
	assert.Equal(t, hydra.Null{}, v)
}

func TestIterNextExhaustsToNull(t *testing.T) {
	interp := newInterp(t)
	vec := hydra.NewVector([]hydra.Value{hydra.Int(1), hydra.Int(2)})
	cur, err := callGlobal(t, interp, "iter", vec)
	require.NoError(t, err)

	v1, err := callGlobal(t, interp, "next", cur)
	require.NoError(t, err)
	assert.Equal(t, hydra.Int(1), v1)

	v2, err := callGlobal(t, interp, "next", cur)
	require.NoError(t, err)
	assert.Equal(t, hydra.Int(2), v2)

	v3, err := callGlobal(t, interp, "next", cur)
	require.NoError(t, err)
	assert.Equal(t, hydra.Null{}, v3)
}

func TestIterOverMapYieldsSortedKeys(t *testing.T) {
	interp := newInterp(t)
	m := hydra.NewMap()
	m.Set("z", hydra.Int(1))
	m.Set("a", hydra.Int(2))
	cur, err := callGlobal(t, interp, "iter", m)
	require.NoError(t, err)
	v1, err := callGlobal(t, interp, "next", cur)
	require.NoError(t, err)
	assert.Equal(t, hydra.String("a"), v1)
}

func TestMathConstantsAndFunctions(t *testing.T) {
	interp := newInterp(t)
	mathObj, ok := interp.GetGlobal("math").(hydra.NativeObject)
	require.True(t, ok)

	pi, ok := mathObj.Get("pi")
	require.True(t, ok)
	assert.InDelta(t, 3.14159, float64(pi.(hydra.Float)), 1e-4)

	sqrtFn, ok := mathObj.Get("sqrt")
	require.True(t, ok)
	fn, ok := sqrtFn.(*hydra.NativeFn)
	require.True(t, ok)
	v, err := fn.Fn(interp, []hydra.Value{hydra.Float(9)})
	require.NoError(t, err)
	assert.Equal(t, hydra.Float(3), v)
}

func TestMathAbsPreservesIntType(t *testing.T) {
	interp := newInterp(t)
	mathObj := interp.GetGlobal("math").(hydra.NativeObject)
	absFn, _ := mathObj.Get("abs")
	fn := absFn.(*hydra.NativeFn)
	v, err := fn.Fn(interp, []hydra.Value{hydra.Int(-5)})
	require.NoError(t, err)
	assert.Equal(t, hydra.Int(5), v)
}

func TestEnvGetSetRoundTrip(t *testing.T) {
	interp := newInterp(t)
	envObj := interp.GetGlobal("env").(hydra.NativeObject)
	setFn, _ := envObj.Get("set")
	getFn, _ := envObj.Get("get")

	_, err := setFn.(*hydra.NativeFn).Fn(interp, []hydra.Value{hydra.String("HYDRA_STD_TEST"), hydra.String("ok")})
	require.NoError(t, err)

	v, err := getFn.(*hydra.NativeFn).Fn(interp, []hydra.Value{hydra.String("HYDRA_STD_TEST")})
	require.NoError(t, err)
	assert.Equal(t, hydra.String("ok"), v)
}

func TestFsWriteReadRemoveRoundTrip(t *testing.T) {
	interp := newInterp(t)
	fsObj := interp.GetGlobal("fs").(hydra.NativeObject)
	writeFn, _ := fsObj.Get("write_file")
	readFn, _ := fsObj.Get("read_file")
	existsFn, _ := fsObj.Get("exists")
	removeFn, _ := fsObj.Get("remove")

	path := t.TempDir() + "/hydra_stdlib_test.txt"
	_, err := writeFn.(*hydra.NativeFn).Fn(interp, []hydra.Value{hydra.String(path), hydra.String("hi")})
	require.NoError(t, err)

	ex, err := existsFn.(*hydra.NativeFn).Fn(interp, []hydra.Value{hydra.String(path)})
	require.NoError(t, err)
	assert.Equal(t, hydra.Bool(true), ex)

	content, err := readFn.(*hydra.NativeFn).Fn(interp, []hydra.Value{hydra.String(path)})
	require.NoError(t, err)
	assert.Equal(t, hydra.String("hi"), content)

	_, err = removeFn.(*hydra.NativeFn).Fn(interp, []hydra.Value{hydra.String(path)})
	require.NoError(t, err)

	ex, err = existsFn.(*hydra.NativeFn).Fn(interp, []hydra.Value{hydra.String(path)})
	require.NoError(t, err)
	assert.Equal(t, hydra.Bool(false), ex)
}
