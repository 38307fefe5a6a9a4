package utils

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// Validator wraps go-playground/validator with the engine's custom rules.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("question_type", validateQuestionType)
	_ = v.RegisterValidation("submit_reason", validateSubmitReason)
	return &Validator{validate: v}
}

func (v *Validator) Validate(s any) error {
	if err := v.validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

func validateQuestionType(fl validator.FieldLevel) bool {
	switch models.QuestionType(fl.Field().String()) {
	case models.MultipleChoice, models.TrueFalse, models.FillBlank, models.Essay:
		return true
	}
	return false
}

func validateSubmitReason(fl validator.FieldLevel) bool {
	switch models.SubmitReason(fl.Field().String()) {
	case models.SubmitManual, models.SubmitTimeExpired, models.SubmitIntegrityViolation:
		return true
	}
	return false
}
