// Package clipboard owns the host's access to the OS clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/clipbridge/internal/tools"
)

const (
	BackendSystem  = "system"
	BackendMemory  = "memory"
	BackendCommand = "command"
)

var (
	ErrUnavailable    = errors.New("clipboard: unavailable")
	ErrUnknownBackend = errors.New("clipboard: unknown backend")
)

// Clipboard reads and writes plain text on a clipboard.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(text string) error
}

// Options selects and configures a backend.
type Options struct {
	Backend      string
	CopyCommand  []string
	PasteCommand []string
	Runner       tools.CommandRunner
}

// New returns the named backend. An empty name selects the system clipboard.
func New(backend string) (Clipboard, error) {
	return Open(Options{Backend: backend})
}

func Open(opts Options) (Clipboard, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendSystem:
		return NewSystem()
	case BackendMemory:
		return NewMemory(), nil
	case BackendCommand:
		return NewCommand(opts.Runner, opts.CopyCommand, opts.PasteCommand)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
