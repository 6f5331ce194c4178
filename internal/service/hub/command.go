package hub

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oshokin/smart-home/internal/config"
	"github.com/oshokin/smart-home/internal/device/board"
	"github.com/oshokin/smart-home/internal/logger"
	"github.com/oshokin/smart-home/internal/service/instance"
	"github.com/oshokin/smart-home/internal/version"
)

// Options controls the home-hub process.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Simulate forces the in-memory board, whatever the settings say.
	Simulate bool
	// LogLevel overrides the configured log level when set.
	LogLevel string
	// HTTPAddress overrides the configured page listen address.
	HTTPAddress string
	// GRPCAddress overrides the configured gRPC listen address.
	GRPCAddress string
}

const (
	// openAttempts is how many times board bring-up is tried.
	openAttempts = 5
	// openBackoff is the first wait between two attempts; it doubles every time.
	openBackoff = 500 * time.Millisecond
	// shutdownTimeout bounds the wait for in-flight page requests.
	shutdownTimeout = 5 * time.Second
)

var errUnknownLogLevel = errors.New("unknown log level")

// Run starts the controller and blocks until ctx is canceled.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "home-hub")

	// Load configuration first, flags override it.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	applyOptions(cfg, opts)

	level, ok := logger.ParseLogLevel(cfg.LogLevel)
	if !ok {
		return fmt.Errorf("%q: %w", cfg.LogLevel, errUnknownLogLevel)
	}

	logger.SetLevel(level)
	logger.InfoKV(ctx, "Starting home hub", version.KV()...)

	// A second copy would fight over the GPIO lines.
	if err = instance.EnsureSingle(filepath.Base(os.Args[0])); err != nil {
		return err
	}

	b, err := openBoard(ctx, cfg)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := b.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Board not released cleanly", "error", closeErr)
		}
	}()

	h, err := New(ctx, cfg, b)
	if err != nil {
		return fmt.Errorf("initialise hub: %w", err)
	}

	return h.Serve(ctx)
}

func applyOptions(cfg *config.Config, opts *Options) {
	if opts.Simulate {
		cfg.Simulate = true
	}

	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	if opts.HTTPAddress != "" {
		cfg.HTTPAddress = opts.HTTPAddress
	}

	if opts.GRPCAddress != "" {
		cfg.GRPCAddress = opts.GRPCAddress
	}
}

// openBoard returns the simulated board or brings the real one up, retrying
// with a doubling backoff.
func openBoard(ctx context.Context, cfg *config.Config) (*board.Board, error) {
	if cfg.Simulate {
		logger.Info(ctx, "Using the simulated board")

		return board.Simulated(cfg), nil
	}

	return retry(ctx, openAttempts, openBackoff, func() (*board.Board, error) {
		return board.Open(ctx, cfg)
	})
}

// retry calls open until it succeeds, attempts run out or ctx is done.
func retry[T any](ctx context.Context, attempts int, backoff time.Duration, open func() (T, error)) (T, error) {
	var (
		zero T
		err  error
	)

	for attempt := 1; attempt <= attempts; attempt++ {
		var value T

		value, err = open()
		if err == nil {
			return value, nil
		}

		if attempt == attempts {
			break
		}

		logger.WarnKV(ctx, "Hardware initialisation failed, retrying",
			"attempt", attempt, "retry_in", backoff.String(), "error", err)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
	}

	return zero, fmt.Errorf("open board after %d attempts: %w", attempts, err)
}
