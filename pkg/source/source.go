// Package source acquires the raw text the dialect parsers read: command
// output and file contents.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single command run.
const DefaultTimeout = 5 * time.Second

const waitDelay = 500 * time.Millisecond

var errEmptyOutput = errors.New("command produced no output")

// Runner runs a command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// Reader returns the contents of a file.
type Reader interface {
	ReadFile(path string) (string, error)
}

// Exec is a Runner backed by os/exec.
type Exec struct {
	Timeout time.Duration
}

// NewExec creates a new Exec runner. A zero timeout selects DefaultTimeout.
func NewExec(timeout time.Duration) Runner {
	return &Exec{Timeout: timeout}
}

// Run executes the command. A non-zero exit status, a timeout or empty
// standard output are all failures.
func (e *Exec) Run(ctx context.Context, name string, args ...string) (string, error) {
	timeout := e.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// children holding the output pipes must not outlive the deadline
	cmd.WaitDelay = waitDelay
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("run %s: %w: %s", name, err, msg)
		}
		return "", fmt.Errorf("run %s: %w", name, err)
	}
	if stdout.Len() == 0 {
		return "", fmt.Errorf("run %s: %w", name, errEmptyOutput)
	}
	return stdout.String(), nil
}

// FS is a Reader backed by the local file system.
type FS struct{}

// NewFS creates a new FS reader.
func NewFS() Reader {
	return FS{}
}

// ReadFile reads the whole file as text.
func (FS) ReadFile(path string) (string, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(bs), nil
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, name string, args ...string) (string, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) (string, error) {
	return f(ctx, name, args...)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(path string) (string, error)

// ReadFile calls f.
func (f ReaderFunc) ReadFile(path string) (string, error) {
	return f(path)
}
