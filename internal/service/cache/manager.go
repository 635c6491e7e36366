package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/fabric-install/internal/domain/installer"
	"github.com/oshokin/fabric-install/internal/logger"
	"github.com/oshokin/fabric-install/internal/service/common"
)

const (
	// DefaultDirMode is used when creating the cache directory.
	DefaultDirMode os.FileMode = 0o755

	// DefaultFileMode is used for downloaded installers.
	DefaultFileMode os.FileMode = 0o644

	// stagingSuffix marks files still being received.
	stagingSuffix = ".part"
)

var (
	// ErrEmptyArtifactName is returned when no file name can be derived from the URL.
	ErrEmptyArtifactName = errors.New("unable to derive artifact file name")
	// ErrTargetIsDirectory is returned when the cache key names a directory.
	ErrTargetIsDirectory = errors.New("cached artifact path is a directory")
)

// KeyFunc derives the cache file name for a download URL.
type KeyFunc func(rawURL string) string

// CacheKey names cached files after the last URL path segment.
// It assumes the metadata service never reuses a file name for different content.
func CacheKey(rawURL string) string {
	return installer.FileName(rawURL)
}

// Manager owns a single-slot cache directory.
type Manager struct {
	// dir is the cache directory.
	dir string
	// client downloads artifacts.
	client *common.Client
	// key derives the cached file name from a URL.
	key KeyFunc
}

// Option configures the manager.
type Option func(*Manager)

// WithKeyFunc replaces the cache key derivation.
func WithKeyFunc(key KeyFunc) Option {
	return func(m *Manager) {
		if key != nil {
			m.key = key
		}
	}
}

// New creates a manager for dir that downloads through client.
func New(dir string, client *common.Client, opts ...Option) *Manager {
	if client == nil {
		client = common.NewClient()
	}

	m := &Manager{
		dir:    filepath.Clean(dir),
		client: client,
		key:    CacheKey,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Dir returns the cache directory.
func (m *Manager) Dir() string {
	return m.dir
}

// EnsureCached makes the installer at rawURL the only file in the cache
// directory and returns its location. An existing file with the same name
// is reused without any network access.
func (m *Manager) EnsureCached(ctx context.Context, rawURL string) (*installer.CachedArtifact, error) {
	name := m.key(rawURL)
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrEmptyArtifactName)
	}

	ctx = logger.WithKV(ctx, "cache_dir", m.dir)

	if err := os.MkdirAll(m.dir, DefaultDirMode); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	artifact := &installer.CachedArtifact{
		Path: filepath.Join(m.dir, name),
		Name: name,
	}

	hit, err := m.isCached(artifact.Path)
	if err != nil {
		return nil, err
	}

	if hit {
		logger.InfoKV(ctx, "You already have the newest installer, skipping download", "path", artifact.Path)

		artifact.Hit = true

		return artifact, nil
	}

	if err = m.purge(ctx); err != nil {
		return nil, fmt.Errorf("remove stale installers: %w", err)
	}

	logger.InfoKV(ctx, "Downloading installer", "url", rawURL, "path", artifact.Path)

	if err = m.download(ctx, rawURL, artifact.Path); err != nil {
		m.discard(ctx)

		return nil, fmt.Errorf("download installer: %w", err)
	}

	if err = m.removeAllExcept(ctx, name, "Removing staging leftover"); err != nil {
		return nil, fmt.Errorf("remove staging leftovers: %w", err)
	}

	logger.Info(ctx, "Downloaded!")

	return artifact, nil
}

// isCached reports whether a regular file already exists at path.
func (m *Manager) isCached(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("stat cached installer: %w", err)
	}

	if info.IsDir() {
		return false, fmt.Errorf("%s: %w", path, ErrTargetIsDirectory)
	}

	return true, nil
}

// purge removes every regular file directly inside the cache directory.
// Subdirectories and their contents are left untouched.
func (m *Manager) purge(ctx context.Context) error {
	return m.removeAllExcept(ctx, "", "Found an old installer, removing")
}

// removeAllExcept removes regular files in the cache directory other than keep.
func (m *Manager) removeAllExcept(ctx context.Context, keep, message string) error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() || entry.Name() == keep {
			continue
		}

		logger.InfoKV(ctx, message, "file", entry.Name())

		if err = os.Remove(filepath.Join(m.dir, entry.Name())); err != nil {
			return err
		}
	}

	return nil
}

// download streams rawURL into a staging file and atomically swaps it into target.
func (m *Manager) download(ctx context.Context, rawURL, target string) error {
	return m.client.Fetch(ctx, rawURL, func(body io.Reader) error {
		staged, err := m.stage(ctx, body, filepath.Base(target))
		if err != nil {
			return err
		}

		defer func() {
			_ = staged.Close()
			_ = os.Remove(staged.Name())
		}()

		// go-update swaps an existing target, so give it an empty one to replace.
		placeholder, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, DefaultFileMode)
		if err != nil {
			return fmt.Errorf("create installer file: %w", err)
		}

		if err = placeholder.Close(); err != nil {
			return fmt.Errorf("close installer file: %w", err)
		}

		options := goupdate.Options{
			TargetPath: target,
			TargetMode: DefaultFileMode,
		}

		if err = goupdate.Apply(staged, options); err != nil {
			return fmt.Errorf("write installer file: %w", err)
		}

		return nil
	})
}

// stage copies body into a hidden file in the cache directory
// and returns it rewound for reading.
func (m *Manager) stage(ctx context.Context, body io.Reader, name string) (*os.File, error) {
	staged, err := os.CreateTemp(m.dir, "."+name+".*"+stagingSuffix)
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}

	written, err := io.Copy(staged, body)
	if err == nil {
		_, err = staged.Seek(0, io.SeekStart)
	}

	if err != nil {
		_ = staged.Close()
		_ = os.Remove(staged.Name())

		return nil, fmt.Errorf("receive body: %w", err)
	}

	logger.DebugKV(ctx, "Installer received", "bytes", written)

	return staged, nil
}

// discard removes whatever a failed download left behind.
// The directory was purged before the download, so every file is debris.
func (m *Manager) discard(ctx context.Context) {
	if err := m.removeAllExcept(ctx, "", "Removing partial download"); err != nil {
		logger.WarnKV(ctx, "Unable to clean up after failed download", "error", err)
	}
}
