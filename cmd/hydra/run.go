package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	hydra "github.com/sty00a4-code/hydra-go"
	"github.com/sty00a4-code/hydra-go/internal/stdlib"
)

func newRunCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Run a Hydra script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			source, err := os.ReadFile(path) // #nosec G304 -- user-supplied script path
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			log.WithField("path", path).Debug("running script")
			result, err := hydra.RunWithGlobals(path, string(source), args[1:], stdlib.Register)
			if err != nil {
				return err
			}
			if _, isNull := result.(hydra.Null); !isNull {
				fmt.Println(result.String())
			}
			return nil
		},
	}
}
