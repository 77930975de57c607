package scoring

import "github.com/spigell/hh-assessor/internal/assessment"

// Path tells how a score was produced.
type Path string

const (
	// PathRule is a deterministic rule such as an mcq key match.
	PathRule Path = "rule"
	// PathGraded is a score returned by the grader and clamped to the marks.
	PathGraded Path = "graded"
	// PathFallback is the length heuristic used when grading failed.
	PathFallback Path = "fallback"
	// PathSkipped is an answer too short to be graded.
	PathSkipped Path = "skipped"
)

// Outcome is the result of scoring one answer.
type Outcome struct {
	Answer assessment.EvaluatedAnswer
	Path   Path
	// Cause is the grading failure that led to PathFallback.
	Cause error
}
