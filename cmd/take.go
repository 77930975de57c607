package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hh-assessor/internal/assessment"
)

const (
	PromptSkip = "Skip this question"
	PromptQuit = "Finish and submit"
)

var errFinish = errors.New("finish requested")

var takeCmd = &cobra.Command{
	Use:   "take",
	Short: "Answer a generated assessment in the terminal and score it",
	Run: func(cmd *cobra.Command, _ []string) {
		take(cmd)
	},
}

func init() {
	rootCmd.AddCommand(takeCmd)

	takeCmd.Flags().StringP("assessment", "a", "assessment.json", "assessment file written by the generate command")
	takeCmd.Flags().StringP("candidate", "c", "", "candidate name")
	takeCmd.Flags().StringP("language", "l", "python", "language of coding answers")
	takeCmd.Flags().StringP("out", "o", "", "write the evaluation to this file instead of stdout")
}

func take(cmd *cobra.Command) {
	ctx := context.Background()

	config, logger := setup()
	defer logger.Sync()

	file, err := readAssessment(cmd.Flag("assessment").Value.String())
	if err != nil {
		logger.Fatal("reading assessment", zap.Error(err))
	}

	language := cmd.Flag("language").Value.String()

	answers := make([]assessment.Answer, 0, len(file.Questions))
	for i, q := range file.Questions {
		fmt.Printf("\n[%d/%d] %s (%d marks)\n", i+1, len(file.Questions), q.Type, q.Marks)

		resp, err := ask(q, language)
		if errors.Is(err, errFinish) {
			break
		}
		if err != nil {
			logger.Fatal("reading an answer", zap.Error(err))
		}

		answers = append(answers, assessment.Answer{QuestionID: q.ID, Response: resp})
	}

	jobTitle := ""
	if file.Profile != nil {
		jobTitle = file.Profile.Title
	}

	p := newPipeline(config, logger)

	result, err := p.scorer.Evaluate(ctx, file.Questions, assessment.Submission{
		Answers:       answers,
		JobTitle:      jobTitle,
		CandidateName: cmd.Flag("candidate").Value.String(),
	})
	if err != nil {
		logger.Fatal("evaluating answers", zap.Error(err))
	}

	if err := writeJSON(cmd.Flag("out").Value.String(), result); err != nil {
		logger.Fatal("writing evaluation", zap.Error(err))
	}

	logger.Info("assessment scored",
		zap.Int("total_score", result.TotalScore),
		zap.Int("total_possible", result.TotalPossible),
		zap.Int("percentage", result.Percentage),
		zap.String("recommendation", string(result.Feedback.Recommendation)),
	)
}

func readAssessment(path string) (*assessmentFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file assessmentFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(file.Questions) == 0 {
		return nil, fmt.Errorf("%s has no questions", path)
	}
	for _, q := range file.Questions {
		if !q.HasContent() {
			return nil, fmt.Errorf("%s: question %q has no %s content", path, q.ID, q.Type)
		}
	}

	return &file, nil
}

// ask shows one question and collects the response. A skipped question
// returns an empty response.
func ask(q assessment.Question, language string) (assessment.Response, error) {
	switch q.Type {
	case assessment.MCQ:
		return askMCQ(q.MCQ)
	case assessment.Subjective:
		fmt.Println(q.Subjective.Question)
		text, err := askLine("Your answer")
		return assessment.Response{Text: text}, err
	case assessment.Coding:
		printCoding(q.Coding, language)
		code, err := askCode()
		return assessment.Response{Code: code, Language: language}, err
	default:
		return assessment.Response{}, fmt.Errorf("unknown question type %q", q.Type)
	}
}

func askMCQ(content *assessment.MCQContent) (assessment.Response, error) {
	prompt := promptui.Select{
		Label: content.Question,
		Items: append(append([]string{}, content.Options...), PromptSkip, PromptQuit),
		Size:  len(content.Options) + 2,
	}

	index, selected, err := prompt.Run()
	if errors.Is(err, promptui.ErrInterrupt) {
		return assessment.Response{}, errFinish
	}
	if err != nil {
		return assessment.Response{}, err
	}

	switch selected {
	case PromptSkip:
		return assessment.Response{}, nil
	case PromptQuit:
		return assessment.Response{}, errFinish
	}

	return assessment.Response{SelectedOption: &index}, nil
}

func askLine(label string) (string, error) {
	prompt := promptui.Prompt{Label: label}

	text, err := prompt.Run()
	if errors.Is(err, promptui.ErrInterrupt) {
		return "", errFinish
	}
	return strings.TrimSpace(text), err
}

// askCode reads the solution from a file, since the prompt is single line.
func askCode() (string, error) {
	prompt := promptui.Prompt{
		Label: "Path to your solution (empty to skip)",
		Validate: func(path string) error {
			path = strings.TrimSpace(path)
			if path == "" {
				return nil
			}
			_, err := os.Stat(path)
			return err
		},
	}

	path, err := prompt.Run()
	if errors.Is(err, promptui.ErrInterrupt) {
		return "", errFinish
	}
	if err != nil {
		return "", err
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}

	return readInput(path)
}

func printCoding(content *assessment.CodingContent, language string) {
	fmt.Println(content.ProblemStatement)
	if content.InputFormat != "" {
		fmt.Printf("\nInput: %s\n", content.InputFormat)
	}
	if content.OutputFormat != "" {
		fmt.Printf("Output: %s\n", content.OutputFormat)
	}
	for _, c := range content.Constraints {
		fmt.Printf("  - %s\n", c)
	}
	for i, ex := range content.Examples {
		fmt.Printf("\nExample %d:\n  in:  %s\n  out: %s\n", i+1, ex.Input, ex.Output)
	}
	if starter, ok := content.StarterCode[language]; ok {
		fmt.Printf("\nStarter code (%s):\n%s\n", language, starter)
	}
}
