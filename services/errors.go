package services

import (
	"strings"

	"github.com/pkg/errors"

	"questify/store"
	"questify/utils"
)

// ValidationError rejects malformed input before any store call.
type ValidationError struct {
	Err    error
	Fields []utils.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Err.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Error)
	}
	return e.Err.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

var errInvalidInput = errors.New("invalid input")

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Err: errors.Errorf(format, args...)}
}

func invalidFields(fields []utils.FieldError) error {
	return &ValidationError{Err: errInvalidInput, Fields: fields}
}

// validate runs the struct's validate tags.
func validate(in interface{}) error {
	if fields := utils.ValidateStruct(in); fields != nil {
		return invalidFields(fields)
	}
	return nil
}

// PersistenceError is a store failure that is not a missing row or a
// conflict. Transient failures end up here once retries are exhausted.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

// IsValidation reports whether err rejects caller input.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool { return errors.Is(err, store.ErrNotFound) }
func IsConflict(err error) bool { return errors.Is(err, store.ErrConflict) }

// storeErr annotates err with op. Not-found and conflict keep their sentinel
// so callers can branch on them; anything else becomes a PersistenceError.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case IsValidation(err):
		return err
	case IsNotFound(err), IsConflict(err):
		return errors.Wrap(err, op)
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
