package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/quizforge/quiz-service/internal/models"
)

// Custom validation functions

func ValidateQuestionType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, validType := range models.AllQuestionTypes() {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func ValidateDifficultyLevel(fl validator.FieldLevel) bool {
	validLevels := []models.DifficultyLevel{
		models.DifficultyEasy,
		models.DifficultyStandard,
		models.DifficultyAdvanced,
	}

	value := fl.Field().String()
	for _, validLevel := range validLevels {
		if string(validLevel) == value {
			return true
		}
	}
	return false
}

// NewValidator builds the service validator with the custom tags registered.
func NewValidator() *validator.Validate {
	validate := validator.New()
	RegisterCustomValidators(validate)
	return validate
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", ValidateQuestionType)
	validate.RegisterValidation("difficulty_level", ValidateDifficultyLevel)

	// Report json field names in validation errors instead of Go names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
