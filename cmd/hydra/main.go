// Command hydra is the CLI front end for the Hydra scripting language:
// run a script, drop into a REPL, or inspect compiled bytecode. Built
// on the rami3l-golox manifest's tool stack (cobra for subcommands,
// logrus for structured logging, chzyer/readline for the REPL), the
// same stack clarete-langlang's own `cmd/main.go` used flag for, now
// organized as subcommands instead of flags since Hydra has three
// distinct entry points instead of one grammar-to-parser pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/sirupsen/logrus"
	easy "github.com/t-tomalak/logrus-easy-formatter"

	"github.com/spf13/cobra"
)

var log = logrus.New()

func configureLogging(level string) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&easy.Formatter{
		TimestampFormat: "15:04:05",
		LogFormat:       "[%lvl%] %time% - %msg%\n",
	})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
}

func main() {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hydra: loading config: %v\n", err)
		cfg = DefaultConfig()
	}
	configureLogging(cfg.Logging.Level)

	root := &cobra.Command{
		Use:   "hydra",
		Short: "Run and inspect Hydra scripts",
		Long: heredoc.Doc(`
			hydra compiles and runs programs written in the Hydra
			scripting language: a register-based bytecode VM with a
			small, expression-oriented, indentation-sensitive syntax.
		`),
	}

	root.AddCommand(newRunCmd(cfg), newReplCmd(cfg), newDebugCmd(cfg))

	if err := root.Execute(); err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
