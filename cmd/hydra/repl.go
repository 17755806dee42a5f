package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	hydra "github.com/sty00a4-code/hydra-go"
	"github.com/sty00a4-code/hydra-go/internal/stdlib"
)

// newReplCmd builds an interactive session on chzyer/readline, the
// same line-editing library rami3l-golox's manifest pulls in for its
// own REPL. Hydra has no incremental-compilation unit smaller than a
// whole chunk, so each accepted line is appended to a growing source
// buffer and the buffer is reparsed/recompiled/rerun from scratch;
// slower than true incremental evaluation, but it keeps bindings from
// earlier lines visible without the VM needing a notion of a
// persistent top-level frame.
func newReplCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive Hydra session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cfg)
		},
	}
}

func runRepl(cfg *Config) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      cfg.Repl.Prompt,
		HistoryFile: cfg.Repl.HistoryFile,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		candidate := buf.String() + line + "\n"
		interp := hydra.NewInterpreter()
		stdlib.Register(interp)

		chunk, parseErr := hydra.Parse("<repl>", candidate)
		if parseErr != nil {
			fmt.Println(parseErr)
			continue
		}
		closure, compileErr := hydra.CompileChunk(chunk)
		if compileErr != nil {
			fmt.Println(compileErr)
			continue
		}
		result, runErr := interp.Run(closure)
		if runErr != nil {
			fmt.Println(runErr)
			continue
		}
		buf.WriteString(line)
		buf.WriteString("\n")
		if _, isNull := result.(hydra.Null); !isNull {
			fmt.Println(result.String())
		}
	}
}
