package clipboard

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/clipbridge/internal/tools"
)

const commandTimeout = 5 * time.Second

// Command drives user configured helper programs, e.g. ["wl-copy"] and
// ["wl-paste", "--no-newline"]. Text is written to the copy command's stdin.
type Command struct {
	runner tools.CommandRunner
	copy   []string
	paste  []string

	mu sync.Mutex
}

func NewCommand(runner tools.CommandRunner, copyCmd, pasteCmd []string) (*Command, error) {
	if len(copyCmd) == 0 || strings.TrimSpace(copyCmd[0]) == "" {
		return nil, errors.New("clipboard: command backend requires copy_command")
	}
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return &Command{runner: runner, copy: copyCmd, paste: pasteCmd}, nil
}

func (c *Command) ReadText() (string, error) {
	if len(c.paste) == 0 {
		return "", fmt.Errorf("%w: no paste_command configured", ErrUnavailable)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	res, err := c.run(nil, c.paste)
	if err != nil {
		return "", err
	}
	return string(res.Stdout), nil
}

func (c *Command) WriteText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.run([]byte(text), c.copy)
	return err
}

func (c *Command) run(stdin []byte, argv []string) (tools.Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	res, err := c.runner.Run(ctx, stdin, argv[0], argv[1:]...)
	if err == nil {
		return res, nil
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) || res.ExitCode == 127 {
		return res, fmt.Errorf("%w: %s: %v", ErrUnavailable, argv[0], err)
	}
	msg := strings.TrimSpace(string(res.Stderr))
	if msg == "" {
		msg = err.Error()
	}
	return res, fmt.Errorf("clipboard: %s exit=%d: %s", argv[0], res.ExitCode, msg)
}
