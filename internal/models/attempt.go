package models

import (
	"time"
)

type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "in-progress"
	AttemptStatusSubmitted  AttemptStatus = "submitted"
)

// SubmitReason tags which trigger sealed an attempt. All three converge on the
// same submit transition.
type SubmitReason string

const (
	SubmitManual             SubmitReason = "manual"
	SubmitTimeExpired        SubmitReason = "time-expired"
	SubmitIntegrityViolation SubmitReason = "integrity-violation"
)

// AnswerValue is the submitted value for one question. Exactly one field is
// set; a value of the wrong kind for the question type never grades correct.
type AnswerValue struct {
	Selected *int    `json:"selected,omitempty"`
	Flag     *bool   `json:"flag,omitempty"`
	Text     *string `json:"text,omitempty"`
}

func SelectedValue(i int) AnswerValue { return AnswerValue{Selected: &i} }
func FlagValue(b bool) AnswerValue    { return AnswerValue{Flag: &b} }
func TextValue(s string) AnswerValue  { return AnswerValue{Text: &s} }

// Answer is one graded response. Exactly one live Answer exists per
// (attempt, question) pair; resubmission replaces it in place.
type Answer struct {
	ID         string       `json:"id" gorm:"primaryKey;size:64"`
	AttemptID  string       `json:"attempt_id" gorm:"not null;index;size:64"`
	QuestionID string       `json:"question_id" gorm:"not null;index;size:64"`
	QuizID     string       `json:"quiz_id" gorm:"not null;size:64"`
	UserID     string       `json:"user_id" gorm:"not null;size:255"`
	Type       QuestionType `json:"type" gorm:"not null;size:20"`

	Value     AnswerValue `json:"value" gorm:"serializer:json"`
	IsCorrect bool        `json:"is_correct"`
	Points    int         `json:"points"`

	SubmittedAt time.Time `json:"submitted_at"`
}

func (Answer) TableName() string {
	return "attempt_answers"
}

// Attempt is one timed run of a quiz by one principal. It is mutated by answer
// recording and score recomputation until Seal, immutable afterwards.
type Attempt struct {
	ID     string `json:"id" gorm:"primaryKey;size:64"`
	QuizID string `json:"quiz_id" gorm:"not null;index;size:64"`
	UserID string `json:"user_id" gorm:"not null;index;size:255"`

	// Ordered by first submission per question; replacement keeps the slot.
	Answers []Answer `json:"answers" gorm:"foreignKey:AttemptID"`

	TotalScore int     `json:"total_score"`
	MaxScore   int     `json:"max_score"`
	Percentage float64 `json:"percentage"`

	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Duration  *int       `json:"duration,omitempty"` // whole seconds
	TimeLimit int        `json:"time_limit"`         // seconds

	Status       AttemptStatus `json:"status" gorm:"not null;index;size:20"`
	SubmitReason *SubmitReason `json:"submit_reason,omitempty" gorm:"size:30"`
}

func (Attempt) TableName() string {
	return "attempts"
}

func (a *Attempt) IsSealed() bool {
	return a.Status == AttemptStatusSubmitted
}

// AnswerFor returns the live answer for a question, if any.
func (a *Attempt) AnswerFor(questionID string) (*Answer, bool) {
	for i := range a.Answers {
		if a.Answers[i].QuestionID == questionID {
			return &a.Answers[i], true
		}
	}
	return nil, false
}

// UpsertAnswer replaces the answer for its question, preserving the insertion
// order of the first occurrence, or appends it.
func (a *Attempt) UpsertAnswer(answer Answer) {
	for i := range a.Answers {
		if a.Answers[i].QuestionID == answer.QuestionID {
			a.Answers[i] = answer
			return
		}
	}
	a.Answers = append(a.Answers, answer)
}

// Seal marks the attempt submitted. It is the caller's job to call it at most
// once; Elapsed is truncated to whole seconds.
func (a *Attempt) Seal(at time.Time, reason SubmitReason) {
	a.EndedAt = &at
	duration := int(at.Sub(a.StartedAt).Seconds())
	a.Duration = &duration
	a.Status = AttemptStatusSubmitted
	a.SubmitReason = &reason
}

// Remaining reports how many seconds of the time limit are left at the given
// instant. Used to re-arm the countdown after a restart.
func (a *Attempt) Remaining(now time.Time) int {
	elapsed := int(now.Sub(a.StartedAt).Seconds())
	remaining := a.TimeLimit - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
