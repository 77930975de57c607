package cmd

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hh-assessor/internal/assessment"
)

// assessmentFile is what generate writes and take reads.
type assessmentFile struct {
	Profile   *assessment.SkillProfile `json:"profile"`
	Questions []assessment.Question    `json:"questions"`
	Summary   assessment.Summary       `json:"summary"`
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Extract a skill profile and generate an assessment for it",
	Run: func(cmd *cobra.Command, _ []string) {
		generate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	defaults := assessment.DefaultGenerationConfig

	generateCmd.Flags().StringP("file", "f", "-", "job description file, - for stdin")
	generateCmd.Flags().StringP("out", "o", "", "write the assessment to this file instead of stdout")
	generateCmd.Flags().Int("mcq", defaults.MCQCount, "number of multiple-choice questions")
	generateCmd.Flags().Int("subjective", defaults.SubjectiveCount, "number of free text questions")
	generateCmd.Flags().Int("coding", defaults.CodingCount, "number of coding problems")
	generateCmd.Flags().String("difficulty", "", "easy, medium or hard (default is the recommended difficulty)")
}

func generate(cmd *cobra.Command) {
	ctx := context.Background()

	config, logger := setup()
	defer logger.Sync()

	cfg, err := generationConfig(cmd)
	if err != nil {
		logger.Fatal("parsing flags", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid question counts", zap.Error(err))
	}

	description, err := readInput(cmd.Flag("file").Value.String())
	if err != nil {
		logger.Fatal("reading job description", zap.Error(err))
	}

	p := newPipeline(config, logger)

	profile, err := p.extractor.Extract(ctx, description)
	if err != nil {
		logger.Fatal("extracting skills", zap.Error(err))
	}

	generated, err := p.questions.Generate(ctx, profile, cfg)
	if err != nil {
		logger.Fatal("generating questions", zap.Error(err))
	}

	out := assessmentFile{Profile: profile, Questions: generated.Questions(), Summary: generated.Summary}
	if err := writeJSON(cmd.Flag("out").Value.String(), out); err != nil {
		logger.Fatal("writing assessment", zap.Error(err))
	}

	logger.Info("assessment ready",
		zap.Int("questions", generated.Summary.TotalQuestions),
		zap.Int("total_marks", generated.Summary.TotalMarks),
		zap.Int("estimated_minutes", generated.Summary.EstimatedDurationMinutes),
	)
}

func generationConfig(cmd *cobra.Command) (assessment.GenerationConfig, error) {
	var cfg assessment.GenerationConfig

	for name, target := range map[string]*int{
		"mcq":        &cfg.MCQCount,
		"subjective": &cfg.SubjectiveCount,
		"coding":     &cfg.CodingCount,
	} {
		n, err := strconv.Atoi(cmd.Flag(name).Value.String())
		if err != nil {
			return cfg, err
		}
		*target = n
	}

	cfg.Difficulty = assessment.Difficulty(cmd.Flag("difficulty").Value.String())
	return cfg, nil
}
