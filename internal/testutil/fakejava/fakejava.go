// Package fakejava lets a test binary stand in for the java launcher.
//
// Tests call Main from TestMain. When the helper environment variables are
// set, the binary records its arguments and exits as instructed instead of
// running tests.
package fakejava

import (
	"os"
	"strings"
	"time"
)

const (
	// modeEnv selects the behaviour of the fake launcher.
	modeEnv = "FAKE_JAVA_MODE"
	// outputEnv names the file receiving the recorded arguments.
	outputEnv = "FAKE_JAVA_ARGS_FILE"

	// ModeSucceed records arguments and exits with status 0.
	ModeSucceed = "succeed"
	// ModeFail records arguments and exits with FailureCode.
	ModeFail = "fail"
	// ModeHang sleeps long enough to be killed.
	ModeHang = "hang"

	// FailureCode is the exit status used by ModeFail.
	FailureCode = 3

	hangDuration = time.Minute
)

// Main turns the current process into the fake launcher if requested.
// It returns normally when the process is an ordinary test run.
func Main() {
	mode := os.Getenv(modeEnv)
	if mode == "" {
		return
	}

	if out := os.Getenv(outputEnv); out != "" {
		_ = os.WriteFile(out, []byte(strings.Join(os.Args[1:], "\n")), 0o600)
	}

	switch mode {
	case ModeFail:
		os.Exit(FailureCode)
	case ModeHang:
		time.Sleep(hangDuration)
	}

	os.Exit(0)
}

// Env returns the environment that makes a re-executed test binary act in mode,
// recording its arguments to argsFile.
func Env(mode, argsFile string) []string {
	return []string{modeEnv + "=" + mode, outputEnv + "=" + argsFile}
}

// Launcher returns the path of the running test binary.
func Launcher() string {
	path, err := os.Executable()
	if err != nil {
		return os.Args[0]
	}

	return path
}

// ReadArgs returns the arguments recorded in argsFile.
func ReadArgs(argsFile string) ([]string, error) {
	data, err := os.ReadFile(argsFile)
	if err != nil {
		return nil, err
	}

	return strings.Split(string(data), "\n"), nil
}
