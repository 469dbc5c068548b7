package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"outfitted/internal/repository"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrReaderNil          = errors.New("reader is nil")
	ErrEmailRequired      = errors.New("users must have an email address")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("unable to authenticate with provided credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInactiveUser       = errors.New("user inactive or deleted")
	ErrInvalidImage       = errors.New("upload a valid image")
	ErrImageTooLarge      = errors.New("image exceeds the size limit")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// rejectNUL fails for text Postgres cannot store.
func rejectNUL(field, s string) error {
	if strings.ContainsRune(s, 0) {
		return invalid(field, "null characters are not allowed")
	}
	return nil
}

func missingPK(field string, id int64) *ValidationError {
	return invalid(field, "invalid pk %q - object does not exist", strconv.FormatInt(id, 10))
}

// relationValidation maps a relation removed after validation to the same
// error an unknown id gets up front.
func relationValidation(err error) error {
	var missing *repository.MissingRelationError
	if errors.As(err, &missing) {
		return missingPK(missing.Field, missing.ID)
	}
	return nil
}
