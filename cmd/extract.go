package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract a skill profile from a job description",
	Run: func(cmd *cobra.Command, _ []string) {
		extract(cmd)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("file", "f", "-", "job description file, - for stdin")
	extractCmd.Flags().StringP("out", "o", "", "write the profile to this file instead of stdout")
}

func extract(cmd *cobra.Command) {
	ctx := context.Background()

	config, logger := setup()
	defer logger.Sync()

	description, err := readInput(cmd.Flag("file").Value.String())
	if err != nil {
		logger.Fatal("reading job description", zap.Error(err))
	}

	p := newPipeline(config, logger)

	profile, err := p.extractor.Extract(ctx, description)
	if err != nil {
		logger.Fatal("extracting skills", zap.Error(err))
	}

	if err := writeJSON(cmd.Flag("out").Value.String(), profile); err != nil {
		logger.Fatal("writing profile", zap.Error(err))
	}
}
