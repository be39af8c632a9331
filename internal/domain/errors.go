package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyAttempted signals that the ledger already holds a record for
	// this identity. It is an expected terminal outcome, not a failure.
	ErrAlreadyAttempted = errors.New("student has already attempted the quiz")
	// ErrDuplicateAttempt is returned by ledger backends that can detect a
	// second append for the same identity at write time.
	ErrDuplicateAttempt = errors.New("attempt record already exists for student")
	// ErrPersistence wraps a failed ledger append. It is fatal for the
	// session: a score that was not durably recorded must never be shown.
	ErrPersistence = errors.New("failed to persist attempt record")
	// ErrQuestionSetNotFound indicates the named question set could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrQuestionNotFound indicates an answered question ID is not in the set.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a chosen option is not one of the question's options.
	ErrOptionNotFound = errors.New("option not found")
)

// ValidationError reports a rejected identity field. It is recoverable: the
// session stays at the authentication gate and the student may retry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
