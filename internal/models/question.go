package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "mcq"
	TrueFalse      QuestionType = "true-false"
	FillBlank      QuestionType = "fill-blank"
	Essay          QuestionType = "essay"
)

// Question is immutable once an attempt on its quiz has started.
// Correctness data is type-specific: CorrectIndex for mcq, CorrectBool for
// true-false, CorrectText for fill-blank. Essay questions carry none and are
// never auto-graded.
type Question struct {
	ID     string       `json:"id" gorm:"primaryKey;size:64"`
	QuizID string       `json:"quiz_id" gorm:"not null;index;size:64"`
	Text   string       `json:"text" gorm:"not null;type:text" validate:"required"`
	Type   QuestionType `json:"type" gorm:"not null;size:20" validate:"required,oneof=mcq true-false fill-blank essay"`
	Points int          `json:"points" gorm:"not null" validate:"required,min=1"`

	Options      []string `json:"options,omitempty" gorm:"serializer:json"`
	CorrectIndex *int     `json:"correct_index,omitempty" gorm:"-"`
	CorrectBool  *bool    `json:"correct_bool,omitempty" gorm:"-"`
	CorrectText  *string  `json:"correct_text,omitempty" gorm:"-"`

	Metadata datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
}

func (Question) TableName() string {
	return "questions"
}

// Quiz is external collaborator data: the engine only reads it to size the
// countdown and resolve questions.
type Quiz struct {
	ID          string     `json:"id" gorm:"primaryKey;size:64"`
	Title       string     `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description string     `json:"description" gorm:"type:text"`
	TimeLimit   int        `json:"time_limit" gorm:"not null" validate:"required,min=1,max=300"` // minutes
	Questions   []Question `json:"questions" gorm:"foreignKey:QuizID"`

	CreatedAt time.Time `json:"created_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// MaxScore is the sum of question points, fixed at attempt start.
func (q *Quiz) MaxScore() int {
	total := 0
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

// QuestionByID resolves a question reference within the quiz.
func (q *Quiz) QuestionByID(id string) (*Question, bool) {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return &q.Questions[i], true
		}
	}
	return nil, false
}
