package clipboard

import (
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

// System writes through to the OS clipboard via pbcopy, clip.exe, wl-copy, xclip or xsel.
type System struct {
	// the OS helpers are spawned per call; serializing keeps one writer in flight per host
	mu sync.Mutex
}

// NewSystem fails with ErrUnavailable when no clipboard helper exists on this host.
func NewSystem() (*System, error) {
	if clipboard.Unsupported {
		return nil, fmt.Errorf("%w: no clipboard utility found (install wl-clipboard, xclip or xsel)", ErrUnavailable)
	}
	return &System{}, nil
}

func (s *System) ReadText() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("%w: read: %v", ErrUnavailable, err)
	}
	return text, nil
}

func (s *System) WriteText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("%w: write: %v", ErrUnavailable, err)
	}
	return nil
}
