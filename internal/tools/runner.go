package tools

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Result is the captured outcome of one external command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int32
}

// CommandRunner abstracts external command execution so adapters can be tested without a host binary.
type CommandRunner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) (Result, error)
}

// ExecRunner executes commands on the local host.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = int32(exitErr.ExitCode())
		return res, err
	}

	res.ExitCode = 1
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		res.ExitCode = 127
	}
	return res, err
}
