package services

import (
	"strings"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// GradeResult is the outcome of grading a single answer value.
type GradeResult struct {
	IsCorrect bool `json:"is_correct"`
	Points    int  `json:"points"`
}

// Grade computes correctness and awarded points for a submitted value. It is
// pure and stateless: grading the same question with the same value always
// yields the same result.
//
// Equality is type-sensitive: a text value submitted for an mcq question is
// simply wrong, never coerced.
func Grade(question *models.Question, value models.AnswerValue) GradeResult {
	correct := false

	switch question.Type {
	case models.MultipleChoice:
		correct = value.Selected != nil &&
			question.CorrectIndex != nil &&
			*value.Selected == *question.CorrectIndex

	case models.TrueFalse:
		correct = value.Flag != nil &&
			question.CorrectBool != nil &&
			*value.Flag == *question.CorrectBool

	case models.FillBlank:
		correct = value.Text != nil &&
			question.CorrectText != nil &&
			normalizeBlank(*value.Text) == normalizeBlank(*question.CorrectText)

	case models.Essay:
		// Essays require manual grading; auto-grading always scores zero.
		correct = false
	}

	points := 0
	if correct {
		points = question.Points
	}
	return GradeResult{IsCorrect: correct, Points: points}
}

func normalizeBlank(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Recalculate recomputes the aggregate score of an attempt over its current
// answer set. Idempotent: answers are summed, never accumulated across calls.
func Recalculate(attempt *models.Attempt) {
	total := 0
	for _, answer := range attempt.Answers {
		total += answer.Points
	}
	attempt.TotalScore = total

	if attempt.MaxScore > 0 {
		attempt.Percentage = float64(attempt.TotalScore) / float64(attempt.MaxScore) * 100
	} else {
		// A quiz with zero total points scores zero, not NaN.
		attempt.Percentage = 0
	}
}
