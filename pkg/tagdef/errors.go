package tagdef

import (
	"errors"
	"fmt"
	"strings"

	"github.com/EchoTools/tagtool/pkg/cache"
)

// Definition error causes. They are raised while a layout is built, never on field access.
var (
	ErrUnregistered       = errors.New("unregistered type")
	ErrSizeMismatch       = errors.New("size mismatch")
	ErrAmbiguousField     = errors.New("ambiguous field declaration")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrInvalidField       = errors.New("invalid field declaration")
	ErrRecursive          = errors.New("recursive inline structure")
)

// DefinitionError reports an inconsistency in a structure definition.
type DefinitionError struct {
	Type    string
	Version cache.Version
	Field   string
	Err     error
	Detail  string
}

func (e *DefinitionError) Error() string {
	var b strings.Builder
	b.WriteString("definition ")
	b.WriteString(e.Type)
	if e.Version != cache.Unknown {
		fmt.Fprintf(&b, " (%s)", e.Version)
	}
	if e.Field != "" {
		b.WriteString(".")
		b.WriteString(e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *DefinitionError) Unwrap() error {
	return e.Err
}

func defError(typ string, v cache.Version, field string, err error, format string, args ...any) *DefinitionError {
	return &DefinitionError{
		Type:    typ,
		Version: v,
		Field:   field,
		Err:     err,
		Detail:  fmt.Sprintf(format, args...),
	}
}
