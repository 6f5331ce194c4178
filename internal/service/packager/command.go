package packager

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/smart-home/internal/config"
	"github.com/oshokin/smart-home/internal/logger"
	"github.com/oshokin/smart-home/internal/service/common"
	"github.com/oshokin/smart-home/internal/service/updater"
)

// Options contains inputs for the packager entry point.
type Options struct {
	// Dir holds the built release files; the manifest and settings are written there.
	Dir string
	// ServerAddress is the hub address written into the shipped settings.
	ServerAddress string
	// UpdateFolder is the URL where the release files will be uploaded.
	UpdateFolder string
	// Verify calls the hub at ServerAddress before writing anything.
	Verify bool
}

// errUpdaterRunning indicates that an update is in progress in Dir.
var errUpdaterRunning = errors.New("the updater is running now")

// packager prepares the release manifest.
type packager struct {
	dir  string
	cfg  *config.Config
	desc *updater.Description
}

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "home-packager")

	cfg := config.Default()
	cfg.ServerAddress = opts.ServerAddress
	cfg.UpdateFolder = opts.UpdateFolder

	if err := config.Validate(cfg); err != nil {
		return err
	}

	if updater.IsUpdaterRunningNow(ctx) {
		return errUpdaterRunning
	}

	if opts.Verify {
		if err := ensureHubReachable(ctx, cfg); err != nil {
			return fmt.Errorf("verify hub: %w", err)
		}
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	pkg := &packager{
		dir:  dir,
		cfg:  cfg,
		desc: updater.NewDescription(),
	}

	if err := pkg.Run(ctx); err != nil {
		return fmt.Errorf("packager failed: %w", err)
	}

	logger.Info(ctx, "Packager completed successfully")

	return nil
}

// Run saves the settings, then writes the manifest.
func (p *packager) Run(ctx context.Context) error {
	settingsPath := filepath.Join(p.dir, config.DefaultConfigFilename)

	logger.InfoKV(ctx, "Saving shipped settings", "path", settingsPath)

	if err := config.Save(settingsPath, p.cfg); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	if err := p.fillDescription(); err != nil {
		return err
	}

	manifestPath := filepath.Join(p.dir, updater.VersionFilename)

	logger.InfoKV(ctx, "Saving release manifest", "path", manifestPath, "version", p.desc.VersionNumber)

	contents, err := yaml.Marshal(p.desc)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err = os.WriteFile(manifestPath, contents, updater.DefaultFileMode); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	logger.Info(ctx, p.nextSteps())

	return nil
}

// fillDescription populates roles, executables and file checksums.
func (p *packager) fillDescription() error {
	for role, files := range updater.Roles() {
		p.desc.Roles[role] = slices.Clone(files)
	}

	maps.Copy(p.desc.Executables, updater.Executables())

	for _, fileName := range updater.FilesWithChecksum() {
		checksum, err := updater.FileChecksum(filepath.Join(p.dir, fileName))
		if err != nil {
			return fmt.Errorf("hash %s: %w", fileName, err)
		}

		p.desc.Files[fileName] = base64.StdEncoding.EncodeToString(checksum)
	}

	return nil
}

// nextSteps is the human-readable guidance printed after packaging.
func (p *packager) nextSteps() string {
	files := slices.Sorted(maps.Keys(p.desc.Files))
	files = append(files, updater.VersionFilename)

	var builder strings.Builder

	builder.WriteString("Upload the following files to ")
	builder.WriteString(p.cfg.UpdateFolder)
	builder.WriteString(":\n")
	builder.WriteString(strings.Join(files, ",\n"))

	for _, role := range slices.Sorted(maps.Keys(p.desc.Roles)) {
		builder.WriteString("\n\nFor the \"")
		builder.WriteString(role)
		builder.WriteString("\" role, copy the following files to the machine:\n")
		builder.WriteString(strings.Join(p.desc.Roles[role], ",\n"))
		builder.WriteString("\nThen run: home-ctl update ")
		builder.WriteString(role)
	}

	return builder.String()
}

// ensureHubReachable calls the hub once.
func ensureHubReachable(ctx context.Context, cfg *config.Config) error {
	client, err := common.Dial(ctx, cfg.ServerAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	// Best-effort cleanup.
	defer func() {
		_ = client.Close()
	}()

	if _, err = client.GetState(ctx); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Verified connection to home hub", "server_address", cfg.ServerAddress)

	return nil
}
