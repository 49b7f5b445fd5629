// Package session opens an interactive ssh session to a selected instance.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"
	"go.uber.org/zap"
)

const (
	DefaultSSHPath = "/usr/bin/ssh"

	versionTimeout = 5 * time.Second
)

var ErrNoAddress = errors.New("instance has no address")

// ParseOptions splits a shell style option string such as
// `-i ~/.ssh/key -o "StrictHostKeyChecking no"` into arguments
func ParseOptions(options string) ([]string, error) {
	args, err := shellwords.Parse(options)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ssh options %q: %w", options, err)
	}
	return args, nil
}

// Launcher runs the ssh binary against an address
type Launcher struct {
	logger  *zap.Logger
	path    string
	user    string
	options []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewLauncher creates a launcher; an empty path uses DefaultSSHPath
func NewLauncher(logger *zap.Logger, path, user string, options []string) *Launcher {
	if path == "" {
		path = DefaultSSHPath
	}
	return &Launcher{
		logger:  logger,
		path:    path,
		user:    user,
		options: options,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Args returns the argument vector, without the binary, used to reach address
func (l *Launcher) Args(address string) []string {
	args := append([]string{}, l.options...)
	target := address
	if l.user != "" {
		target = l.user + "@" + address
	}
	return append(args, target)
}

// Path returns the ssh binary the launcher runs
func (l *Launcher) Path() string {
	return l.path
}

// Detect checks the ssh binary can be found and returns its version banner
func (l *Launcher) Detect(ctx context.Context) (string, error) {
	path, err := exec.LookPath(l.path)
	if err != nil {
		return "", fmt.Errorf("ssh binary not found: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	// ssh prints its version on stderr
	out, err := exec.CommandContext(ctx, path, "-V").CombinedOutput()
	if err != nil {
		l.logger.Debug("ssh version probe failed", zap.String("path", path), zap.Error(err))
		return "", nil
	}
	version, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return version, nil
}

// Run starts ssh attached to the launcher's stdio and waits for it to exit
func (l *Launcher) Run(ctx context.Context, address string) error {
	if address == "" {
		return ErrNoAddress
	}

	args := l.Args(address)
	l.logger.Debug("Launching ssh",
		zap.String("path", l.path),
		zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, l.path, args...)
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run %s: %w", l.path, err)
	}
	return nil
}
