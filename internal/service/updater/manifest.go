package updater

import (
	"crypto"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/oshokin/smart-home/internal/config"
	"github.com/oshokin/smart-home/internal/version"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// VersionFilename is the manifest published next to the release files.
	VersionFilename = "home-hub-version.yaml"

	// MarkerFilename marks that an update is running right now.
	MarkerFilename = "home-hub-update-marker.bin"

	// DefaultFileMode is used when producing artifacts for distribution.
	DefaultFileMode os.FileMode = 0o755

	// DefaultChecksumFunction is used to calculate release file hashes.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512

	// RoleHub is the machine wired to the house.
	RoleHub = "hub"
	// RoleCtl is a machine that only controls the hub remotely.
	RoleCtl = "ctl"

	baseHubExecutable = "home-hub"
	baseCtlExecutable = "home-ctl"

	// defaultMapCapacity is the default initial capacity for manifest maps.
	defaultMapCapacity = 8
)

var errHashUnavailable = errors.New("hash function unavailable")

// Description is the release manifest.
type Description struct {
	// VersionNumber is the semantic version of this release.
	VersionNumber string `yaml:"version"`
	// Files maps filenames to their base64-encoded checksums.
	Files map[string]string `yaml:"files"`
	// Roles maps role names to lists of files required for that role.
	Roles map[string][]string `yaml:"roles"`
	// Executables maps role names to the program started after the update.
	Executables map[string]string `yaml:"executables"`
}

// NewDescription produces a Description for the running build.
func NewDescription() *Description {
	return &Description{
		VersionNumber: version.Short(),
		Files:         make(map[string]string, defaultMapCapacity),
		Roles:         make(map[string][]string, defaultMapCapacity),
		Executables:   make(map[string]string, defaultMapCapacity),
	}
}

// Roles returns the files every role needs on the current platform.
func Roles() map[string][]string {
	return map[string][]string{
		RoleHub: {HubExecutable(), CtlExecutable(), config.DefaultConfigFilename},
		RoleCtl: {CtlExecutable(), config.DefaultConfigFilename},
	}
}

// Executables returns the program restarted after an update, per role.
// The control role has no daemon to restart.
func Executables() map[string]string {
	return map[string]string{
		RoleHub: HubExecutable(),
	}
}

// FilesWithChecksum returns the release files of the current platform.
func FilesWithChecksum() []string {
	return []string{HubExecutable(), CtlExecutable(), config.DefaultConfigFilename}
}

// HubExecutable is the platform file name of home-hub.
func HubExecutable() string {
	return baseHubExecutable + executableExtension()
}

// CtlExecutable is the platform file name of home-ctl.
func CtlExecutable() string {
	return baseCtlExecutable + executableExtension()
}

// FileChecksum hashes the file at path with DefaultChecksumFunction.
func FileChecksum(path string) ([]byte, error) {
	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = file.Close()
	}()

	hasher := DefaultChecksumFunction.New()
	if _, err = io.Copy(hasher, file); err != nil {
		return nil, fmt.Errorf("calculate checksum of %s: %w", path, err)
	}

	return hasher.Sum(nil), nil
}

func executableExtension() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}

	return ""
}
