package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/fabric-install/internal/logger"
)

// Config holds the settings shared by every pipeline stage.
type Config struct {
	// MetadataURL is the endpoint listing installer versions, newest first.
	MetadataURL string `yaml:"metadata_url"`
	// CacheDir is the single-slot directory holding the downloaded installer.
	CacheDir string `yaml:"cache_dir"`
	// JavaExecutable is the launcher used to run the installer jar.
	JavaExecutable string `yaml:"java_executable"`
	// Timeout bounds each HTTP request. Zero means no deadline.
	Timeout time.Duration `yaml:"timeout"`
	// InstallTimeout bounds the installer process. Zero means no deadline.
	InstallTimeout time.Duration `yaml:"install_timeout"`
	// LogLevel is the minimum level of log messages (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultMetadataURL lists Fabric installer releases.
	DefaultMetadataURL = "https://meta.fabricmc.net/v2/versions/installer"

	// DefaultJavaExecutable is looked up in PATH.
	DefaultJavaExecutable = "java"

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// ToolName names the cache directory under ~/.cache.
	ToolName = "fabric"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNegativeTimeout is returned when a timeout is below zero.
	errNegativeTimeout = errors.New("timeout must not be negative")
	// errUnknownLogLevel is returned for an unparsable log level.
	errUnknownLogLevel = errors.New("unknown log level")
	// errMetadataURLScheme is returned for a metadata URL that is not HTTP(S).
	errMetadataURLScheme = errors.New("metadata URL must use http or https")
	// ErrHomeNotSet is returned when the cache directory must be derived but HOME is empty.
	ErrHomeNotSet = errors.New("HOME is not set and no cache_dir is configured")
)

// HomeEnv names the variable the default cache directory is derived from.
const HomeEnv = "HOME"

// Default returns settings with every field at its default, except the
// cache directory which depends on the home directory.
func Default() *Config {
	return &Config{
		MetadataURL:    DefaultMetadataURL,
		JavaExecutable: DefaultJavaExecutable,
		LogLevel:       DefaultLogLevel,
	}
}

// Load reads configuration from the provided path and validates it.
// An empty path yields the validated defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		contents, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("read settings: %w", err)
		}

		if err = yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills defaults for empty fields.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.MetadataURL == "" {
		settings.MetadataURL = DefaultMetadataURL
	}

	metadataURL, err := url.ParseRequestURI(settings.MetadataURL)
	if err != nil {
		return fmt.Errorf("invalid metadata URL: %w", err)
	}

	if metadataURL.Scheme != "http" && metadataURL.Scheme != "https" {
		return fmt.Errorf("%s: %w", settings.MetadataURL, errMetadataURLScheme)
	}

	if settings.JavaExecutable == "" {
		settings.JavaExecutable = DefaultJavaExecutable
	}

	if settings.Timeout < 0 || settings.InstallTimeout < 0 {
		return errNegativeTimeout
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%s: %w", settings.LogLevel, errUnknownLogLevel)
	}

	if settings.CacheDir == "" {
		home := os.Getenv(HomeEnv)
		if home == "" {
			return ErrHomeNotSet
		}

		settings.CacheDir = CacheDirFromHome(home)

		return nil
	}

	expanded, err := homedir.Expand(settings.CacheDir)
	if err != nil {
		return fmt.Errorf("expand cache directory: %w", err)
	}

	settings.CacheDir = expanded

	return nil
}

// CacheDirFromHome derives the installer cache directory from a home directory.
func CacheDirFromHome(home string) string {
	return filepath.Join(home, ".cache", ToolName+"-installers")
}
