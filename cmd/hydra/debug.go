package main

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"

	hydra "github.com/sty00a4-code/hydra-go"
	"github.com/sty00a4-code/hydra-go/internal/stdlib"
)

// newDebugCmd opens a panel-based bytecode inspector, grounded on
// lookbusy1344-arm_emulator/debugger/tui.go's tview.Flex layout of
// bordered TextViews (source / disassembly / output), narrowed from
// that debugger's live register/memory/breakpoint panels (Hydra has
// no separate memory address space to display) down to a static view
// over one compiled Closure plus its run output.
func newDebugCmd(cfg *Config) *cobra.Command {
	var dumpOnly bool
	cmd := &cobra.Command{
		Use:   "debug <file>",
		Short: "Inspect a Hydra script's compiled bytecode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			source, err := os.ReadFile(path) // #nosec G304 -- user-supplied script path
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			chunk, err := hydra.Parse(path, string(source))
			if err != nil {
				return err
			}
			closure, err := hydra.CompileChunk(chunk)
			if err != nil {
				return err
			}
			if dumpOnly {
				fmt.Println(closure.Disassemble(true))
				return nil
			}
			return runDebugTUI(string(source), closure)
		},
	}
	cmd.Flags().BoolVar(&dumpOnly, "dump-bytecode", false, "print disassembly and exit instead of opening the TUI")
	return cmd
}

type debugTUI struct {
	app         *tview.Application
	sourceView  *tview.TextView
	bytecodeView *tview.TextView
	outputView  *tview.TextView
}

func newDebugTUI(source string, closure *hydra.Closure) *debugTUI {
	t := &debugTUI{app: tview.NewApplication()}

	t.sourceView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.sourceView.SetBorder(true).SetTitle(" Source ")
	fmt.Fprint(t.sourceView, source)

	t.bytecodeView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.bytecodeView.SetBorder(true).SetTitle(" Bytecode ")
	fmt.Fprint(t.bytecodeView, closure.Disassemble(true))

	t.outputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.outputView.SetBorder(true).SetTitle(" Output (press r to run, q to quit) ")

	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.sourceView, 0, 1, false).
		AddItem(t.outputView, 0, 1, false)
	layout := tview.NewFlex().
		AddItem(left, 0, 1, false).
		AddItem(t.bytecodeView, 0, 1, false)

	t.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch ev.Rune() {
		case 'q':
			t.app.Stop()
			return nil
		case 'r':
			t.outputView.Clear()
			interp := hydra.NewInterpreter()
			stdlib.Register(interp)
			result, err := interp.Run(closure)
			if err != nil {
				fmt.Fprintf(t.outputView, "[red]%s[-]\n", err)
			} else if _, isNull := result.(hydra.Null); !isNull {
				fmt.Fprintln(t.outputView, result.String())
			}
			return nil
		}
		return ev
	})

	t.app.SetRoot(layout, true)
	return t
}

func runDebugTUI(source string, closure *hydra.Closure) error {
	return newDebugTUI(source, closure).app.Run()
}
