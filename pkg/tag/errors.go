package tag

import "errors"

// Structural error causes.
var (
	ErrTruncated    = errors.New("truncated data")
	ErrInvalidCount = errors.New("invalid element count")
	ErrTypeMismatch = errors.New("value type mismatch")
	ErrValueRange   = errors.New("value does not fit field")
	ErrUnresolved   = errors.New("reference has no resolver")
)

// FieldError reports a failure at a field path such as
// "pitch_range.permutations[2].gain".
type FieldError struct {
	Path string
	Err  error
}

func (e *FieldError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldError(path string, err error) error {
	var fe *FieldError
	if errors.As(err, &fe) {
		return err
	}
	return &FieldError{Path: path, Err: err}
}
