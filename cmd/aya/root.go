package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"aya/internal/logging"
	"aya/internal/toolconfig"
)

// appState is the shared state every subcommand's RunE reads: the resolved
// config and a logger, both set up once in the root command's
// PersistentPreRunE after flags are parsed.
type appState struct {
	v      *viper.Viper
	cfg    toolconfig.Config
	logger *slog.Logger
	ring   *logging.RingBuffer
}

func newRootCmd() *cobra.Command {
	state := &appState{v: toolconfig.New()}

	root := &cobra.Command{
		Use:           "aya",
		Short:         "Assemble, pack, run, and disassemble Aya console ROMs",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			state.cfg = toolconfig.Load(state.v)
			debug, _ := cmd.Flags().GetBool("debug")
			level := slog.LevelInfo
			if state.cfg.Verbosity == "debug" {
				level = slog.LevelDebug
			}
			state.logger, state.ring = logging.New(debug, level)
			return nil
		},
	}

	if err := toolconfig.BindFlags(root, state.v); err != nil {
		panic(err)
	}

	root.AddCommand(newAsmCmd(state))
	root.AddCommand(newPackCmd(state))
	root.AddCommand(newRunCmd(state))
	root.AddCommand(newDisasmCmd(state))
	return root
}
