// Command partialstream repairs, extracts and streams partial JSON produced
// by language models.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deepankarm/partialstream/internal/config"
	"github.com/deepankarm/partialstream/internal/logging"
)

// app carries the state shared by all subcommands.
type app struct {
	configPath string
	envFiles   []string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.DefaultConfig(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "partialstream",
		Short: "Partial JSON from LLM token streams",
		Long: `partialstream turns incomplete JSON, as produced token by token by a
language model, into valid values.

Each subcommand reads a file argument or standard input.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringSliceVar(&a.envFiles, "env", nil, "dotenv files to load (default .env)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newParseCmd(a))
	root.AddCommand(newExtractCmd(a))
	root.AddCommand(newStreamCmd(a))
	root.AddCommand(newServeCmd(a))
	return root
}

func (a *app) init() error {
	if err := config.LoadEnv(a.envFiles...); err != nil {
		return err
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

// readInput reads the file named by args[0], or the command's input.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	r := cmd.InOrStdin()
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
