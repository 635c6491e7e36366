package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/oshokin/fabric-install/internal/config"
	domain "github.com/oshokin/fabric-install/internal/domain/installer"
	"github.com/oshokin/fabric-install/internal/logger"
	"github.com/oshokin/fabric-install/internal/repository/lock"
	"github.com/oshokin/fabric-install/internal/service/cache"
	"github.com/oshokin/fabric-install/internal/service/common"
	"github.com/oshokin/fabric-install/internal/service/resolver"
	"github.com/oshokin/fabric-install/internal/service/supervisor"
)

// Options are inputs accepted by the pipeline entry point.
type Options struct {
	// ConfigPath is the optional path to settings YAML file.
	ConfigPath string
	// Version is the game version handed to the installer.
	Version string
	// LogLevel overrides the configured log level when set.
	LogLevel string
	// Output receives the confirmation line. Defaults to stdout.
	Output io.Writer
}

var (
	// errVersionRequired is returned when no version is requested.
	errVersionRequired = errors.New("version must be provided")
	// errOptionsRequired is returned when no options are provided.
	errOptionsRequired = errors.New("options must be provided")
)

// runner holds the collaborators of a single pipeline execution.
type runner struct {
	cfg        *config.Config
	request    domain.Request
	resolver   *resolver.Resolver
	cache      *cache.Manager
	supervisor *supervisor.Supervisor
	lock       lock.Locker
	output     io.Writer
}

// Run executes the pipeline and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	if opts == nil {
		return errOptionsRequired
	}

	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "fabric-install")

	r, err := newRunner(opts)
	if err != nil {
		logger.ErrorKV(ctx, "Unable to prepare installation", "error", err)
		return err
	}

	ctx = logger.WithKV(ctx, "version", r.request.Version)

	if err = r.Run(ctx); err != nil {
		logger.ErrorKV(ctx, "Installation failed", "error", err)
		return err
	}

	return nil
}

// newRunner loads settings and wires the pipeline stages.
func newRunner(opts *Options) (*runner, error) {
	if opts.Version == "" {
		return nil, errVersionRequired
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	level, ok := logger.ParseLogLevel(cfg.LogLevel)
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}

	logger.SetLevel(level)

	output := opts.Output
	if output == nil {
		output = os.Stdout
	}

	client := common.NewClient(common.WithCallTimeout(cfg.Timeout))

	return &runner{
		cfg:        cfg,
		request:    domain.Request{Version: opts.Version},
		resolver:   resolver.New(cfg.MetadataURL, client),
		cache:      cache.New(cfg.CacheDir, client),
		supervisor: supervisor.New(cfg.JavaExecutable, supervisor.WithTimeout(cfg.InstallTimeout)),
		lock:       lock.NewFileLock(lock.PathFor(cfg.CacheDir)),
		output:     output,
	}, nil
}

// Run executes the pipeline for this runner instance:
// 1) Lock the cache directory.
// 2) Resolve the newest installer URL.
// 3) Make it the only cached installer.
// 4) Run it and wait.
// 5) Print the confirmation.
func (r *runner) Run(ctx context.Context) error {
	owner, err := common.DetectOwner()
	if err != nil {
		return fmt.Errorf("detect lock owner: %w", err)
	}

	if err = r.lock.Acquire(ctx, owner); err != nil {
		return fmt.Errorf("lock cache directory: %w", err)
	}

	defer func() {
		if releaseErr := r.lock.Release(ctx); releaseErr != nil {
			logger.WarnKV(ctx, "Unable to release the cache lock", "error", releaseErr)
		}
	}()

	logger.Info(ctx, "Looking up the latest installer")

	artifact, err := r.resolver.Latest(ctx)
	if err != nil {
		return err
	}

	cached, err := r.cache.EnsureCached(ctx, artifact.URL)
	if err != nil {
		return fmt.Errorf("cache installer: %w", err)
	}

	if err = r.supervisor.Run(ctx, cached.Path, r.request.Version); err != nil {
		return fmt.Errorf("run installer: %w", err)
	}

	r.confirm(cached)

	return nil
}

// confirm prints the success line naming the version and the installer used.
func (r *runner) confirm(cached *domain.CachedArtifact) {
	success := color.New(color.FgGreen, color.Bold)

	_, _ = success.Fprintf(r.output, "Successfully installed Fabric %s with %s\n", r.request.Version, cached.Path)
}
