package errors

import (
	"testing"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("title", "is required", "")

	if err.Field != "title" {
		t.Errorf("Expected field to be 'title', got '%s'", err.Field)
	}

	if err.Message != "is required" {
		t.Errorf("Expected message to be 'is required', got '%s'", err.Message)
	}

	expected := "validation error on field 'title': is required"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	errs = append(errs, *NewValidationError("title", "is required", nil))
	expected := "validation failed: title is required"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for single error, got '%s'", expected, errs.Error())
	}

	errs = append(errs, *NewValidationError("difficulty", "must be easy, standard, or advanced", nil))
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}
