package invoke

import (
	"errors"
	"fmt"

	"github.com/danmuck/clipbridge/internal/protocol/session"
)

var (
	ErrAddressRequired   = errors.New("invoke: bridge address required")
	ErrBridgeUnavailable = errors.New("invoke: bridge unavailable")
	ErrClientClosed      = errors.New("invoke: client closed")

	ErrCommandNotFound      = errors.New("invoke: command not registered")
	ErrInvalidArgs          = errors.New("invoke: invalid arguments")
	ErrUnauthorized         = errors.New("invoke: unauthorized")
	ErrClipboardUnavailable = errors.New("invoke: clipboard unavailable")
	ErrCommandFailed        = errors.New("invoke: command failed")
	ErrProtocol             = errors.New("invoke: protocol error")
)

// BridgeError is a failure reported by the host for one command.
type BridgeError struct {
	Command string
	Kind    string
	Message string
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Command, e.Kind, e.Message)
}

// Is matches the sentinel for the reported kind, so callers can test with errors.Is.
func (e *BridgeError) Is(target error) bool {
	return target == kindSentinel(e.Kind)
}

func kindSentinel(kind string) error {
	switch kind {
	case session.KindCommandNotFound:
		return ErrCommandNotFound
	case session.KindInvalidArgs:
		return ErrInvalidArgs
	case session.KindUnauthorized:
		return ErrUnauthorized
	case session.KindClipboardUnavailable:
		return ErrClipboardUnavailable
	case session.KindProtocol:
		return ErrProtocol
	default:
		return ErrCommandFailed
	}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrBridgeUnavailable, err)
}
