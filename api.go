package hydra

// This file is the module's public entry point, replacing
// clarete-langlang/go/api.go's GrammarFromBytes/GrammarFromFile/
// GrammarTransformations pipeline (parse-a-grammar -> apply grammar
// transforms) with spec §6.3's three core entry points: `parse`,
// `compile`, `run`.
//
// Neither function registers the standard library: `internal/stdlib`
// imports this package to build native Values, so this package can't
// import it back without a cycle. Callers that want the stdlib globals
// (every `cmd/hydra` subcommand does) call stdlib.Register(interp)
// themselves between NewInterpreter and Run — see RunWithGlobals below
// for the common case of "parse, compile, register, run" in one call.

// CompileChunk lowers an already-parsed Chunk to a top-level Closure
// (spec §4.3's entry point, split out from Run so callers that only
// want the bytecode — e.g. `hydra debug --dump-bytecode` — don't pay
// for an Interpreter they won't use).
func CompileChunk(chunk *Chunk) (*Closure, error) {
	return Compile(chunk)
}

// Run parses, compiles and executes source text in one call (spec
// §6.3's `run(text, args, path?) -> Option<Value>`), returning the
// surfaced return value (Null when the program never returns one) or
// the first error from any stage. The interpreter it builds has no
// globals registered beyond `args`; use RunWithGlobals to also install
// the standard library.
func Run(path, source string, args []string) (Value, error) {
	return RunWithGlobals(path, source, args, nil)
}

// RunWithGlobals is Run plus a setup hook invoked on the freshly built
// Interpreter before execution starts (e.g. stdlib.Register), so a
// host can inject native globals without this package depending on
// whichever package defines them.
func RunWithGlobals(path, source string, args []string, setup func(*Interpreter)) (Value, error) {
	chunk, err := Parse(path, source)
	if err != nil {
		return nil, err
	}
	closure, err := Compile(chunk)
	if err != nil {
		return nil, err
	}
	interp := NewInterpreter()
	argv := make([]Value, len(args))
	for i, a := range args {
		argv[i] = String(a)
	}
	interp.SetGlobal("args", NewVector(argv))
	if setup != nil {
		setup(interp)
	}
	return interp.Run(closure)
}
