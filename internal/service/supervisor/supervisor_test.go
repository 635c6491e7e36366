package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/fabric-install/internal/testutil/fakejava"
)

func TestMain(m *testing.M) {
	fakejava.Main()
	os.Exit(m.Run())
}

// TestArgs verifies the exact launcher argument list.
func TestArgs(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		[]string{"-jar", "/tmp/cache/installer-1.2.3.jar", "client", "-snapshot", "-mcversion", "1.20.4"},
		Args("/tmp/cache/installer-1.2.3.jar", "1.20.4"))
}

// TestCommand checks the launcher, arguments and shared streams of the child.
func TestCommand(t *testing.T) {
	t.Parallel()

	cmd := New("java").Command(context.Background(), "/tmp/cache/installer.jar", "1.20.4")

	require.Equal(t, []string{"java", "-jar", "/tmp/cache/installer.jar", "client", "-snapshot", "-mcversion", "1.20.4"}, cmd.Args)
	require.Same(t, os.Stdout, cmd.Stdout)
	require.Same(t, os.Stderr, cmd.Stderr)
	require.Same(t, os.Stdin, cmd.Stdin)
	require.Nil(t, cmd.Env)
}

// TestRun_PassesArgumentsToChild runs a fake launcher and inspects what it received.
func TestRun_PassesArgumentsToChild(t *testing.T) {
	t.Parallel()

	argsFile := filepath.Join(t.TempDir(), "args")
	s := New(fakejava.Launcher(), WithEnv(fakejava.Env(fakejava.ModeSucceed, argsFile)...))

	require.NoError(t, s.Run(context.Background(), "/tmp/cache/installer-1.2.3.jar", "1.20.4"))

	got, err := fakejava.ReadArgs(argsFile)
	require.NoError(t, err)
	require.Equal(t, []string{"-jar", "/tmp/cache/installer-1.2.3.jar", "client", "-snapshot", "-mcversion", "1.20.4"}, got)
}

// TestRun_NonZeroExit ensures an unsuccessful exit is reported with its code.
func TestRun_NonZeroExit(t *testing.T) {
	t.Parallel()

	argsFile := filepath.Join(t.TempDir(), "args")
	s := New(fakejava.Launcher(), WithEnv(fakejava.Env(fakejava.ModeFail, argsFile)...))

	err := s.Run(context.Background(), "installer.jar", "1.20.4")

	var exitErr *ExitError

	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, fakejava.FailureCode, exitErr.Code)
}

// TestRun_LauncherNotFound reports a missing launcher distinctly.
func TestRun_LauncherNotFound(t *testing.T) {
	t.Parallel()

	err := New("fabric-install-no-such-java").Run(context.Background(), "installer.jar", "1.20.4")
	require.ErrorIs(t, err, ErrLauncherNotFound)
}

// TestRun_Timeout maps a killed-by-deadline child to ErrTimedOut.
func TestRun_Timeout(t *testing.T) {
	t.Parallel()

	argsFile := filepath.Join(t.TempDir(), "args")
	s := New(fakejava.Launcher(),
		WithTimeout(200*time.Millisecond),
		WithEnv(fakejava.Env(fakejava.ModeHang, argsFile)...))

	started := time.Now()
	err := s.Run(context.Background(), "installer.jar", "1.20.4")

	require.ErrorIs(t, err, ErrTimedOut)
	require.Less(t, time.Since(started), 30*time.Second)
}

// TestRun_Interrupted maps caller cancellation to ErrInterrupted.
func TestRun_Interrupted(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	argsFile := filepath.Join(t.TempDir(), "args")
	s := New(fakejava.Launcher(), WithEnv(fakejava.Env(fakejava.ModeHang, argsFile)...))

	err := s.Run(ctx, "installer.jar", "1.20.4")
	require.ErrorIs(t, err, ErrInterrupted)
	require.NotErrorIs(t, err, ErrTimedOut)
}

// TestRun_ValidatesArguments rejects an empty path or version before spawning anything.
func TestRun_ValidatesArguments(t *testing.T) {
	t.Parallel()

	s := New("fabric-install-no-such-java")

	require.ErrorIs(t, s.Run(context.Background(), "", "1.20.4"), errPathRequired)
	require.ErrorIs(t, s.Run(context.Background(), "installer.jar", ""), errVersionRequired)
}
