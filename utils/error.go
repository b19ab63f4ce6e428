package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ValidationError is malformed or out-of-range input: negative quantity,
// non-numeric damage value, missing file, wrong file type.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError is a referenced part, company, purchase line, or stock entry
// that does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

func IsNotFoundError(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe) || errors.Is(err, ErrorRecordNotFound)
}

// ConflictError is a concurrent-update conflict that survived the bounded
// retry on the stock ledger mutation path.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func NewConflictError(message string) error {
	return &ConflictError{Message: message}
}

func IsConflictError(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// ParseError is an unreadable upload or a row that cannot be coerced into the
// expected columns. Row is 1-based as shown in the sheet (0 when the failure
// is not tied to a row).
type ParseError struct {
	Row     int
	Message string
}

func (e *ParseError) Error() string { return e.Message }

func NewParseError(row int, message string) error {
	return &ParseError{Row: row, Message: message}
}

func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
