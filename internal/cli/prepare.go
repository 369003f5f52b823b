package cli

import (
	"github.com/spf13/cobra"

	"github.com/ezoic/phishing-classifier/internal/workflow"
)

// NewPrepareCommand returns the command that splits a raw dataset.
//
//	prepare -d data/data.csv
func NewPrepareCommand(env Env) *cobra.Command {
	var (
		g        globalFlags
		dataPath string
	)

	cmd := newCommand("prepare", "Prepare dataset for training")
	cmd.Long = "Split a labeled CSV dataset into data/split/phishing_train.csv and data/split/phishing_test.csv."
	cmd.Flags().StringVarP(&dataPath, "data", "d", "", "Filepath to raw data. Example: data/data.csv")
	_ = cmd.MarkFlagRequired("data")
	g.register(cmd)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := g.setup(cmd, env)
		if err != nil {
			return err
		}

		wf := workflow.New(env.Fs, logger)
		if _, err := wf.Prepare(cmd.Context(), workflow.NewPrepareOptions(cfg, dataPath)); err != nil {
			logger.Error("prepare failed", err)
			return err
		}
		return nil
	}
	return cmd
}
