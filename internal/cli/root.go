// Package cli builds the cobra commands behind cmd/prepare and cmd/train.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ezoic/phishing-classifier/internal/config"
	"github.com/ezoic/phishing-classifier/pkg/log"
)

// Env is what a command needs from the process: the filesystem and the
// stream console logs go to.
type Env struct {
	Fs     afero.Fs
	Stderr io.Writer
}

type globalFlags struct {
	configPath string
	logLevel   string
}

func (g *globalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&g.configPath, "config", "", "Optional config file (yaml, json or toml)")
	cmd.Flags().StringVar(&g.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
}

// setup loads the config and installs a console logger for the command.
func (g *globalFlags) setup(cmd *cobra.Command, env Env) (*config.Config, log.Logger, error) {
	cfg, err := config.Load(env.Fs, g.configPath, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	provider := log.NewConsoleProvider(env.Stderr, cfg.LogLevel())
	log.SetProvider(provider)
	provider.BridgeWarnings()
	return cfg, provider.GetLoggerWithName(cmd.Name()), nil
}

// Execute runs cmd and reports a failure on env.Stderr. It returns the
// process exit code.
func Execute(cmd *cobra.Command, env Env) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(env.Stderr, "%s: %v\n", cmd.Name(), err)
		return 1
	}
	return 0
}

func newCommand(use, short string) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}
