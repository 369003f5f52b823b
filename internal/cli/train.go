package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ezoic/phishing-classifier/internal/workflow"
)

// NewTrainCommand returns the command that fits and saves the model.
//
//	train -d data/split/phishing_train.csv -m model/model.gob --metrics metrics/metrics.json
func NewTrainCommand(env Env) *cobra.Command {
	var (
		g                                      globalFlags
		dataPath, modelPath, metricsPath, plot string
	)

	cmd := newCommand("train", "Train model")
	cmd.Long = "Fit the phishing classifier pipeline on a training CSV, save the model and write its classification report."
	cmd.Flags().StringVarP(&dataPath, "data", "d", "", "Filepath to load training data. Example: data/train.csv")
	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "Filepath to save the trained model. Example: model.gob")
	cmd.Flags().StringVar(&metricsPath, "metrics", "", "Filepath to save the model performance. Example: metrics.json")
	cmd.Flags().StringVar(&plot, "plot", "", "Optional filepath for a PNG chart of the report")
	for _, name := range []string{"data", "model", "metrics"} {
		_ = cmd.MarkFlagRequired(name)
	}
	g.register(cmd)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := g.setup(cmd, env)
		if err != nil {
			return err
		}

		opts := workflow.NewTrainOptions(cfg, dataPath, modelPath, metricsPath)
		opts.PlotPath = plot

		wf := workflow.New(env.Fs, logger)
		res, err := wf.Train(cmd.Context(), opts)
		if err != nil {
			logger.Error("train failed", err)
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), res.Report.String())
		fmt.Fprintf(cmd.OutOrStdout(), "Done training in %.3fs\n", res.Duration.Seconds())
		return nil
	}
	return cmd
}
