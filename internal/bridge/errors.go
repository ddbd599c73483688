package bridge

import (
	"errors"
	"fmt"

	"github.com/danmuck/clipbridge/internal/auth"
	"github.com/danmuck/clipbridge/internal/protocol/session"
)

var (
	ErrCommandNotFound = errors.New("bridge: command not registered")
	ErrCommandExists   = errors.New("bridge: command already registered")
	ErrInvalidName     = errors.New("bridge: invalid command name")
	ErrNilHandler      = errors.New("bridge: nil handler")
	ErrInvalidArgs     = errors.New("bridge: invalid arguments")
)

// CommandError tags a handler failure with the wire kind reported to the caller.
type CommandError struct {
	Kind string
	Err  error
}

func (e *CommandError) Error() string {
	return e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Fail wraps err so the caller sees kind instead of the generic command_failed.
func Fail(kind string, err error) error {
	if err == nil {
		return nil
	}
	return &CommandError{Kind: kind, Err: err}
}

func invalidArgs(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgs, fmt.Sprintf(format, a...))
}

// KindOf maps a dispatch error to its wire failure kind.
func KindOf(err error) string {
	var cmdErr *CommandError
	switch {
	case errors.As(err, &cmdErr):
		return cmdErr.Kind
	case errors.Is(err, ErrCommandNotFound):
		return session.KindCommandNotFound
	case errors.Is(err, ErrInvalidArgs):
		return session.KindInvalidArgs
	case errors.Is(err, auth.ErrUnauthorized):
		return session.KindUnauthorized
	default:
		return session.KindCommandFailed
	}
}
