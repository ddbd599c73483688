package clipboard

import "sync"

// Memory is an in-process clipboard for headless hosts and tests.
type Memory struct {
	mu     sync.RWMutex
	text   string
	writes int
	err    error
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) ReadText() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.text = text
	m.writes++
	return nil
}

// Writes reports how many writes succeeded.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// FailWith makes every later call return err. A nil err restores normal behavior.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}
