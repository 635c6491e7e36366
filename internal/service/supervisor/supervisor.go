package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/oshokin/fabric-install/internal/logger"
)

const (
	// installerMode selects the client installation flow.
	installerMode = "client"
	// snapshotFlag allows snapshot game versions.
	snapshotFlag = "-snapshot"
	// versionFlag precedes the requested game version.
	versionFlag = "-mcversion"
)

var (
	// ErrLauncherNotFound is returned when the launcher executable cannot be found.
	ErrLauncherNotFound = errors.New("installer launcher not found")
	// ErrTimedOut is returned when the installer was killed after the configured timeout.
	ErrTimedOut = errors.New("installer timed out")
	// ErrInterrupted is returned when the caller cancelled the run.
	ErrInterrupted = errors.New("installer interrupted")
	// errPathRequired is returned when no installer path is provided.
	errPathRequired = errors.New("installer path must be provided")
	// errVersionRequired is returned when no version is provided.
	errVersionRequired = errors.New("version must be provided")
)

// ExitError reports an installer that ran but exited unsuccessfully.
type ExitError struct {
	// Code is the exit status, or -1 when the process was killed by a signal.
	Code int
	// Err is the underlying error from os/exec.
	Err error
}

// Error implements error.
func (e *ExitError) Error() string {
	return fmt.Sprintf("installer exited with code %d: %v", e.Code, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// Supervisor launches installers.
type Supervisor struct {
	// launcher is the executable that runs the installer, usually java.
	launcher string
	// timeout bounds the child process; zero means none.
	timeout time.Duration
	// env is appended to the inherited environment.
	env []string
}

// Option configures the supervisor.
type Option func(*Supervisor)

// WithTimeout kills the installer after timeout. Zero disables the deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Supervisor) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithEnv appends KEY=VALUE pairs to the child's inherited environment.
func WithEnv(env ...string) Option {
	return func(s *Supervisor) {
		s.env = append(s.env, env...)
	}
}

// New creates a supervisor that starts installers with launcher.
func New(launcher string, opts ...Option) *Supervisor {
	s := &Supervisor{
		launcher: launcher,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Args returns the launcher arguments for installing version with the installer at path.
func Args(path, version string) []string {
	return []string{"-jar", path, installerMode, snapshotFlag, versionFlag, version}
}

// Command builds the child process without starting it.
func (s *Supervisor) Command(ctx context.Context, path, version string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, s.launcher, Args(path, version)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if len(s.env) > 0 {
		cmd.Env = append(os.Environ(), s.env...)
	}

	return cmd
}

// Run starts the installer at path for version and waits for it to exit.
func (s *Supervisor) Run(ctx context.Context, path, version string) error {
	if path == "" {
		return errPathRequired
	}

	if version == "" {
		return errVersionRequired
	}

	runCtx, cancel := s.runContext(ctx)
	defer cancel()

	cmd := s.Command(runCtx, path, version)

	logger.InfoKV(ctx, "Running installer", "launcher", s.launcher, "path", path, "version", version)

	if err := cmd.Run(); err != nil {
		return s.classify(ctx, runCtx, err)
	}

	logger.DebugKV(ctx, "Installer exited", "code", cmd.ProcessState.ExitCode())

	return nil
}

// classify maps a failed run to the supervisor's error kinds.
// Deadline and cancellation take precedence over the kill they caused.
func (s *Supervisor) classify(parent, runCtx context.Context, err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%s: %w", s.launcher, ErrLauncherNotFound)
	}

	if parent.Err() != nil {
		return fmt.Errorf("%w: %w", ErrInterrupted, parent.Err())
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("after %s: %w", s.timeout, ErrTimedOut)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode(), Err: err}
	}

	return fmt.Errorf("start installer: %w", err)
}

// runContext returns a context with the supervisor's timeout if configured,
// otherwise a cancellable child context without a deadline.
func (s *Supervisor) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, s.timeout)
}
