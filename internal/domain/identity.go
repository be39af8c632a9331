package domain

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var identityValidator = validator.New()

// Identity is the (studentId, studentName) pair entered at the authentication
// gate. It is immutable for the session and discarded on exit.
type Identity struct {
	StudentID   string `json:"studentId" validate:"required,alphanum,min=3"`
	StudentName string `json:"studentName" validate:"required,min=2,max=50"`
}

// Normalized returns a copy with surrounding whitespace removed from both
// fields. Validation and all ledger comparisons operate on this form.
func (id Identity) Normalized() Identity {
	return Identity{
		StudentID:   strings.TrimSpace(id.StudentID),
		StudentName: strings.TrimSpace(id.StudentName),
	}
}

// Validate checks the identity constraints: studentId trimmed, alphanumeric,
// at least 3 characters; studentName trimmed, 2 to 50 characters. The first
// violation is reported as a *ValidationError.
func (id Identity) Validate() error {
	err := identityValidator.Struct(id.Normalized())
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Field: "identity", Reason: err.Error()}
	}
	return describeFieldError(fieldErrs[0])
}

func describeFieldError(fe validator.FieldError) *ValidationError {
	switch fe.Field() {
	case "StudentID":
		switch fe.Tag() {
		case "required", "min":
			return &ValidationError{Field: "studentId", Reason: "must be at least 3 characters"}
		case "alphanum":
			return &ValidationError{Field: "studentId", Reason: "must contain only letters and digits"}
		}
		return &ValidationError{Field: "studentId", Reason: "is not valid"}
	case "StudentName":
		switch fe.Tag() {
		case "required", "min":
			return &ValidationError{Field: "studentName", Reason: "must be at least 2 characters"}
		case "max":
			return &ValidationError{Field: "studentName", Reason: "must be at most 50 characters"}
		}
		return &ValidationError{Field: "studentName", Reason: "is not valid"}
	}
	return &ValidationError{Field: fe.Field(), Reason: "is not valid"}
}
