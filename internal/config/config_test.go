package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks defaults and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))

	// Defaults are filled.
	settings := &Config{CacheDir: t.TempDir()}
	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultMetadataURL, settings.MetadataURL)
	require.Equal(t, DefaultJavaExecutable, settings.JavaExecutable)
	require.Equal(t, DefaultLogLevel, settings.LogLevel)

	// Bad metadata URL.
	settings = &Config{CacheDir: t.TempDir(), MetadataURL: "not a url"}
	require.Error(t, Validate(settings))

	settings = &Config{CacheDir: t.TempDir(), MetadataURL: "ftp://meta.example/installers"}
	require.ErrorIs(t, Validate(settings), errMetadataURLScheme)

	// Negative timeouts.
	settings = &Config{CacheDir: t.TempDir(), InstallTimeout: -time.Second}
	require.ErrorIs(t, Validate(settings), errNegativeTimeout)

	// Unknown level.
	settings = &Config{CacheDir: t.TempDir(), LogLevel: "chatty"}
	require.ErrorIs(t, Validate(settings), errUnknownLogLevel)
}

// TestCacheDirFromHome verifies the cache layout under the home directory.
func TestCacheDirFromHome(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		filepath.Join("/home/steve", ".cache", "fabric-installers"),
		CacheDirFromHome("/home/steve"))
}

// TestLoad_EmptyPathUsesDefaults ensures an absent config file is not an error.
func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		// Home directory may be unresolvable in minimal sandboxes.
		t.Skipf("home directory unavailable: %v", err)
	}

	require.Equal(t, DefaultMetadataURL, cfg.MetadataURL)
	require.NotEmpty(t, cfg.CacheDir)
}

// TestLoad_MissingFile ensures an explicit but missing file is reported.
func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Config{
		MetadataURL:    "https://meta.local/v2/versions/installer",
		CacheDir:       filepath.Join(dir, "cache"),
		JavaExecutable: "/opt/jdk/bin/java",
		Timeout:        30 * time.Second,
		InstallTimeout: 10 * time.Minute,
		LogLevel:       "debug",
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings, loaded)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestValidate_RequiresHome fails when the cache directory must be derived from an empty HOME.
func TestValidate_RequiresHome(t *testing.T) {
	t.Setenv(HomeEnv, "")

	require.ErrorIs(t, Validate(&Config{}), ErrHomeNotSet)

	// An explicit cache directory does not need HOME.
	dir := t.TempDir()
	settings := &Config{CacheDir: dir}
	require.NoError(t, Validate(settings))
	require.Equal(t, dir, settings.CacheDir)
}

// TestValidate_CacheDirFromHome derives the default cache directory from HOME.
func TestValidate_CacheDirFromHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)

	settings := &Config{}
	require.NoError(t, Validate(settings))
	require.Equal(t, CacheDirFromHome(home), settings.CacheDir)
}
