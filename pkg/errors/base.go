package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across the tool servers.
var (
	ErrMissingCredentials = errors.New("credentials not configured")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrTokenExpired       = errors.New("token expired and no refresh token available")
)

type Error struct {
	Errs []error
	Msgs []any
}

// NewError aggregates a mix of errors and plain messages into a single error
// value. Nil errors and unknown types are ignored; all-nil input returns nil.
func NewError(errs ...any) error {
	err := &Error{}

	for _, msg := range errs {
		switch v := msg.(type) {
		case error:
			if v != nil {
				err.Errs = append(err.Errs, v)
			}
		case string:
			err.Msgs = append(err.Msgs, v)
		}
	}

	if len(err.Errs) == 0 && len(err.Msgs) == 0 {
		return nil
	}

	return err
}

func (err *Error) Error() string {
	builder := &strings.Builder{}

	for _, err := range err.Errs {
		builder.WriteString(err.Error())
		builder.WriteString("\n")
	}

	for _, msg := range err.Msgs {
		builder.WriteString(fmt.Sprintf("%v\n", msg))
	}

	return builder.String()
}

func (err *Error) Unwrap() []error {
	return err.Errs
}
