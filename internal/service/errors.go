package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Sentinel errors returned by the service layer. The API layer maps each
// to a status code.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrRelationMissing    = errors.New("relation does not exist")
	ErrForbidden          = errors.New("forbidden")
	ErrSelfFollow         = errors.New("cannot subscribe to yourself")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError aggregates every violation of one submission so the
// caller sees all of them at once.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func newValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// isDuplicate reports whether err is a unique constraint violation. With
// TranslateError enabled gorm normalizes these across drivers.
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
