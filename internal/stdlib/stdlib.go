// Package stdlib implements spec.md §6.2's native-function/native-object
// protocol with the standard library SPEC_FULL.md §3 names but spec.md §1
// scopes out of the core: math, fs/io/os/env, net, string/vector/map
// helpers, and the iter/next globals spec §6.2 requires `for` to desugar
// onto. Grounded on clarete-langlang/go/value.go's Value interface shape
// (Type/String), generalized to Hydra's NativeObject protocol, plus
// lookbusy1344-arm_emulator/config and /loader's explicit-error-wrapping
// style for the filesystem wrappers.
package stdlib

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	hydra "github.com/sty00a4-code/hydra-go"
)

// Register installs every stdlib global into interp (called by
// cmd/hydra before executing a file/REPL line, either directly or as
// the setup hook of hydra.RunWithGlobals; hydra.Run does not call it).
func Register(interp *hydra.Interpreter) {
	interp.SetGlobal("print", &hydra.NativeFn{Name: "print", Fn: nativePrint(os.Stdout)})
	interp.SetGlobal("eprint", &hydra.NativeFn{Name: "eprint", Fn: nativePrint(os.Stderr)})
	interp.SetGlobal("read_line", &hydra.NativeFn{Name: "read_line", Fn: readLine(os.Stdin)})

	interp.SetGlobal("len", &hydra.NativeFn{Name: "len", Fn: lenFn})
	interp.SetGlobal("push", &hydra.NativeFn{Name: "push", Fn: pushFn})
	interp.SetGlobal("keys", &hydra.NativeFn{Name: "keys", Fn: keysFn})
	interp.SetGlobal("split", &hydra.NativeFn{Name: "split", Fn: splitFn})
	interp.SetGlobal("join", &hydra.NativeFn{Name: "join", Fn: joinFn})
	interp.SetGlobal("format", &hydra.NativeFn{Name: "format", Fn: formatFn})
	interp.SetGlobal("enumerate", &hydra.NativeFn{Name: "enumerate", Fn: enumerateFn})
	interp.SetGlobal("parse_int", &hydra.NativeFn{Name: "parse_int", Fn: parseIntFn})
	interp.SetGlobal("parse_float", &hydra.NativeFn{Name: "parse_float", Fn: parseFloatFn})

	interp.SetGlobal("iter", &hydra.NativeFn{Name: "iter", Fn: iterFn})
	interp.SetGlobal("next", &hydra.NativeFn{Name: "next", Fn: nextFn})

	interp.SetGlobal("math", newMathObject())
	interp.SetGlobal("fs", newFsObject())
	interp.SetGlobal("os", newOsObject())
	interp.SetGlobal("env", newEnvObject())
	interp.SetGlobal("net", newNetObject())
}

// ---- a minimal generic NativeObject: a fixed field table ----

type object struct {
	typ    string
	fields map[string]hydra.Value
}

func newObject(typ string, fns map[string]hydra.NativeFunc, consts map[string]hydra.Value) *object {
	fields := make(map[string]hydra.Value, len(fns)+len(consts))
	for name, fn := range fns {
		fields[name] = &hydra.NativeFn{Name: typ + "." + name, Fn: fn}
	}
	for name, v := range consts {
		fields[name] = v
	}
	return &object{typ: typ, fields: fields}
}

func (o *object) Typ() string        { return o.typ }
func (o *object) Truthy() bool       { return true }
func (o *object) String() string     { return fmt.Sprintf("<%s>", o.typ) }
func (o *object) NativeType() string { return o.typ }
func (o *object) Get(key string) (hydra.Value, bool) {
	v, ok := o.fields[key]
	return v, ok
}

// ---- print / eprint / read_line (baseline I/O, implemented directly
// per original_source/src/std_hydra/std_io.rs, not boxed in an "io"
// object) ----

func nativePrint(w io.Writer) hydra.NativeFunc {
	return func(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}
		fmt.Fprintln(w, strings.Join(parts, " "))
		return hydra.Null{}, nil
	}
}

func readLine(r io.Reader) hydra.NativeFunc {
	reader := bufio.NewReader(r)
	return func(_ *hydra.Interpreter, _ []hydra.Value) (hydra.Value, error) {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return hydra.Null{}, nil
		}
		return hydra.String(strings.TrimRight(line, "\r\n")), nil
	}
}

// ---- len / push / keys / split / join / format / enumerate ----

func lenFn(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("len expects 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case hydra.String:
		return hydra.Int(len([]rune(string(v)))), nil
	case *hydra.Vector:
		return hydra.Int(v.Len()), nil
	case *hydra.Tuple:
		return hydra.Int(v.Len()), nil
	case *hydra.Map:
		return hydra.Int(len(v.Keys())), nil
	}
	return nil, fmt.Errorf("len: unsupported type %s", args[0].Typ())
}

func pushFn(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("push expects 2 arguments, got %d", len(args))
	}
	v, ok := args[0].(*hydra.Vector)
	if !ok {
		return nil, fmt.Errorf("push: first argument must be a vector, got %s", args[0].Typ())
	}
	v.Push(args[1])
	return v, nil
}

func keysFn(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("keys expects 1 argument, got %d", len(args))
	}
	m, ok := args[0].(*hydra.Map)
	if !ok {
		return nil, fmt.Errorf("keys: argument must be a map, got %s", args[0].Typ())
	}
	ks := m.Keys()
	sort.Strings(ks)
	items := make([]hydra.Value, len(ks))
	for i, k := range ks {
		items[i] = hydra.String(k)
	}
	return hydra.NewVector(items), nil
}

func splitFn(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("split expects 2 arguments, got %d", len(args))
	}
	s, ok := args[0].(hydra.String)
	if !ok {
		return nil, fmt.Errorf("split: first argument must be a string, got %s", args[0].Typ())
	}
	sep, ok := args[1].(hydra.String)
	if !ok {
		return nil, fmt.Errorf("split: second argument must be a string, got %s", args[1].Typ())
	}
	parts := strings.Split(string(s), string(sep))
	items := make([]hydra.Value, len(parts))
	for i, p := range parts {
		items[i] = hydra.String(p)
	}
	return hydra.NewVector(items), nil
}

func joinFn(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("join expects 2 arguments, got %d", len(args))
	}
	v, ok := args[0].(*hydra.Vector)
	if !ok {
		return nil, fmt.Errorf("join: first argument must be a vector, got %s", args[0].Typ())
	}
	sep, ok := args[1].(hydra.String)
	if !ok {
		return nil, fmt.Errorf("join: second argument must be a string, got %s", args[1].Typ())
	}
	items := v.Snapshot()
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return hydra.String(strings.Join(parts, string(sep))), nil
}

// formatFn substitutes "{}" placeholders in order, the way
// clarete-langlang's diagnostics build host-facing strings from a
// template plus positional values.
func formatFn(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("format expects at least 1 argument")
	}
	tmpl, ok := args[0].(hydra.String)
	if !ok {
		return nil, fmt.Errorf("format: first argument must be a string, got %s", args[0].Typ())
	}
	var sb strings.Builder
	rest := args[1:]
	s := string(tmpl)
	i := 0
	for i < len(s) {
		if i+1 < len(s) && s[i] == '{' && s[i+1] == '}' {
			if len(rest) > 0 {
				sb.WriteString(rest[0].String())
				rest = rest[1:]
			}
			i += 2
			continue
		}
		sb.WriteByte(s[i])
		i++
	}
	return hydra.String(sb.String()), nil
}

func parseIntFn(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
	s, err := stringArg(args, 0, "parse_int")
	if err != nil {
		return nil, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return hydra.Null{}, nil
	}
	return hydra.Int(n), nil
}

func parseFloatFn(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
	s, err := stringArg(args, 0, "parse_float")
	if err != nil {
		return nil, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return hydra.Null{}, nil
	}
	return hydra.Float(f), nil
}

func enumerateFn(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("enumerate expects 1 argument, got %d", len(args))
	}
	items, err := snapshotIterable(args[0])
	if err != nil {
		return nil, err
	}
	out := make([]hydra.Value, len(items))
	for i, it := range items {
		out[i] = hydra.NewTuple([]hydra.Value{hydra.Int(i), it})
	}
	return hydra.NewVector(out), nil
}

// ---- iter/next (spec §6.2's for-loop desugar target) ----

type cursor struct {
	items []hydra.Value
	idx   int
}

func (*cursor) Typ() string        { return "iterator" }
func (*cursor) Truthy() bool       { return true }
func (*cursor) String() string     { return "<iterator>" }
func (*cursor) NativeType() string { return "iterator" }
func (*cursor) Get(string) (hydra.Value, bool) { return nil, false }

func (c *cursor) next() hydra.Value {
	if c.idx >= len(c.items) {
		return hydra.Null{}
	}
	v := c.items[c.idx]
	c.idx++
	return v
}

func snapshotIterable(v hydra.Value) ([]hydra.Value, error) {
	switch it := v.(type) {
	case *hydra.Vector:
		return it.Snapshot(), nil
	case *hydra.Tuple:
		return it.Snapshot(), nil
	case hydra.String:
		runes := []rune(string(it))
		items := make([]hydra.Value, len(runes))
		for i, r := range runes {
			items[i] = hydra.Char(r)
		}
		return items, nil
	case *hydra.Map:
		keys := it.Keys()
		sort.Strings(keys)
		items := make([]hydra.Value, len(keys))
		for i, k := range keys {
			items[i] = hydra.String(k)
		}
		return items, nil
	case *cursor:
		return it.items[it.idx:], nil
	}
	return nil, fmt.Errorf("cannot iterate over %s", v.Typ())
}

func iterFn(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("iter expects 1 argument, got %d", len(args))
	}
	items, err := snapshotIterable(args[0])
	if err != nil {
		return nil, err
	}
	return &cursor{items: items}, nil
}

func nextFn(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("next expects 1 argument, got %d", len(args))
	}
	c, ok := args[0].(*cursor)
	if !ok {
		return nil, fmt.Errorf("next: argument is not an iterator")
	}
	return c.next(), nil
}

// ---- math ----

func newMathObject() *object {
	unary := func(f func(float64) float64) hydra.NativeFunc {
		return func(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
			x, err := floatArg(args, 0, "math")
			if err != nil {
				return nil, err
			}
			return hydra.Float(f(x)), nil
		}
	}
	return newObject("math", map[string]hydra.NativeFunc{
		"sqrt":  unary(math.Sqrt),
		"floor": unary(math.Floor),
		"ceil":  unary(math.Ceil),
		"round": unary(math.Round),
		"trunc": unary(math.Trunc),
		"sin":   unary(math.Sin),
		"cos":   unary(math.Cos),
		"tan":   unary(math.Tan),
		"log":   unary(math.Log),
		"log2":  unary(math.Log2),
		"log10": unary(math.Log10),
		"abs": func(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("math.abs expects 1 argument")
			}
			switch n := args[0].(type) {
			case hydra.Int:
				if n < 0 {
					return -n, nil
				}
				return n, nil
			case hydra.Float:
				return hydra.Float(math.Abs(float64(n))), nil
			}
			return nil, fmt.Errorf("math.abs: unsupported type %s", args[0].Typ())
		},
		"pow": func(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
			a, err := floatArg(args, 0, "math.pow")
			if err != nil {
				return nil, err
			}
			b, err := floatArg(args, 1, "math.pow")
			if err != nil {
				return nil, err
			}
			return hydra.Float(math.Pow(a, b)), nil
		},
		"min": func(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
			return minMax(args, false)
		},
		"max": func(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
			return minMax(args, true)
		},
	}, map[string]hydra.Value{
		"pi": hydra.Float(math.Pi),
		"e":  hydra.Float(math.E),
	})
}

func floatArg(args []hydra.Value, i int, who string) (float64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("%s: missing argument %d", who, i)
	}
	switch n := args[i].(type) {
	case hydra.Int:
		return float64(n), nil
	case hydra.Float:
		return float64(n), nil
	}
	return 0, fmt.Errorf("%s: argument %d must be numeric, got %s", who, i, args[i].Typ())
}

func minMax(args []hydra.Value, wantMax bool) (hydra.Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("expects at least 1 argument")
	}
	best := args[0]
	bestF, err := floatArg(args, 0, "min/max")
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(args); i++ {
		f, err := floatArg(args, i, "min/max")
		if err != nil {
			return nil, err
		}
		if (wantMax && f > bestF) || (!wantMax && f < bestF) {
			best, bestF = args[i], f
		}
	}
	return best, nil
}

// ---- fs ----

func newFsObject() *object {
	return newObject("fs", map[string]hydra.NativeFunc{
		"read_file": func(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
			path, err := stringArg(args, 0, "fs.read_file")
			if err != nil {
				return nil, err
			}
			data, err := os.ReadFile(path) // #nosec G304 -- script-directed path
			if err != nil {
				return nil, fmt.Errorf("fs.read_file: %w", err)
			}
			return hydra.String(data), nil
		},
		"write_file": func(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
			path, err := stringArg(args, 0, "fs.write_file")
			if err != nil {
				return nil, err
			}
			content, err := stringArg(args, 1, "fs.write_file")
			if err != nil {
				return nil, err
			}
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				return nil, fmt.Errorf("fs.write_file: %w", err)
			}
			return hydra.Null{}, nil
		},
		"exists": func(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
			path, err := stringArg(args, 0, "fs.exists")
			if err != nil {
				return nil, err
			}
			_, statErr := os.Stat(path)
			return hydra.Bool(statErr == nil), nil
		},
		"remove": func(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
			path, err := stringArg(args, 0, "fs.remove")
			if err != nil {
				return nil, err
			}
			if err := os.Remove(path); err != nil {
				return nil, fmt.Errorf("fs.remove: %w", err)
			}
			return hydra.Null{}, nil
		},
		"list_dir": func(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
			path, err := stringArg(args, 0, "fs.list_dir")
			if err != nil {
				return nil, err
			}
			entries, err := os.ReadDir(path)
			if err != nil {
				return nil, fmt.Errorf("fs.list_dir: %w", err)
			}
			items := make([]hydra.Value, len(entries))
			for i, e := range entries {
				items[i] = hydra.String(e.Name())
			}
			return hydra.NewVector(items), nil
		},
	}, nil)
}

func stringArg(args []hydra.Value, i int, who string) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%s: missing argument %d", who, i)
	}
	s, ok := args[i].(hydra.String)
	if !ok {
		return "", fmt.Errorf("%s: argument %d must be a string, got %s", who, i, args[i].Typ())
	}
	return string(s), nil
}

// ---- os / env ----

func newOsObject() *object {
	return newObject("os", map[string]hydra.NativeFunc{
		"args": func(interp *hydra.Interpreter, _ []hydra.Value) (hydra.Value, error) {
			return interp.GetGlobal("args"), nil
		},
		"exit": func(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
			code := 0
			if len(args) > 0 {
				if n, ok := args[0].(hydra.Int); ok {
					code = int(n)
				}
			}
			os.Exit(code)
			return hydra.Null{}, nil
		},
	}, nil)
}

func newEnvObject() *object {
	return newObject("env", map[string]hydra.NativeFunc{
		"get": func(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
			name, err := stringArg(args, 0, "env.get")
			if err != nil {
				return nil, err
			}
			v, ok := os.LookupEnv(name)
			if !ok {
				return hydra.Null{}, nil
			}
			return hydra.String(v), nil
		},
		"set": func(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
			name, err := stringArg(args, 0, "env.set")
			if err != nil {
				return nil, err
			}
			val, err := stringArg(args, 1, "env.set")
			if err != nil {
				return nil, err
			}
			if err := os.Setenv(name, val); err != nil {
				return nil, fmt.Errorf("env.set: %w", err)
			}
			return hydra.Null{}, nil
		},
	}, nil)
}

// ---- net ----

func newNetObject() *object {
	client := &http.Client{}
	return newObject("net", map[string]hydra.NativeFunc{
		"get": func(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
			url, err := stringArg(args, 0, "net.get")
			if err != nil {
				return nil, err
			}
			resp, err := client.Get(url) // #nosec G107 -- script-directed URL
			if err != nil {
				return nil, fmt.Errorf("net.get: %w", err)
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("net.get: %w", err)
			}
			m := hydra.NewMap()
			m.Set("status", hydra.Int(resp.StatusCode))
			m.Set("body", hydra.String(body))
			return m, nil
		},
		"post": func(_ *hydra.Interpreter, args []hydra.Value) (hydra.Value, error) {
			url, err := stringArg(args, 0, "net.post")
			if err != nil {
				return nil, err
			}
			body, err := stringArg(args, 1, "net.post")
			if err != nil {
				return nil, err
			}
			resp, err := client.Post(url, "application/octet-stream", strings.NewReader(body))
			if err != nil {
				return nil, fmt.Errorf("net.post: %w", err)
			}
			defer resp.Body.Close()
			respBody, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("net.post: %w", err)
			}
			m := hydra.NewMap()
			m.Set("status", hydra.Int(resp.StatusCode))
			m.Set("body", hydra.String(respBody))
			return m, nil
		},
	}, nil)
}
