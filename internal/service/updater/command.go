package updater

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	goupdate "github.com/doitdistributed/go-update"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/smart-home/internal/config"
	"github.com/oshokin/smart-home/internal/logger"
	"github.com/oshokin/smart-home/internal/service/instance"
)

var (
	errUpdaterAlreadyRunning = errors.New("the updater is already running")
	errNoUpdateFolder        = errors.New("update folder is not configured")
	errUnknownRole           = errors.New("unknown role")
	errNoRoleFiles           = errors.New("unable to find files for role")
	errNoChecksum            = errors.New("checksum missing for file")
	errBadHTTPStatus         = errors.New("unexpected http status")
	errInvalidVersionOutput  = errors.New("invalid version output format")
)

// versionCommandTimeout is the timeout for asking the local executable its version.
const versionCommandTimeout = 10 * time.Second

// Options are inputs accepted by the updater entry point.
type Options struct {
	// ConfigPath is the optional path to settings YAML file.
	ConfigPath string
	// Role selects the file set to update: hub or ctl.
	Role string
	// Dir is the installation directory, the working directory when empty.
	Dir string
}

// runner holds the state of a single update execution.
type runner struct {
	role   string
	dir    string
	folder *url.URL
	client *http.Client

	description        *Description
	localVersion       string
	temporaryDirectory string
	// downloadedFiles maps release file names to their temporary copies.
	downloadedFiles map[string]string
}

// Run executes the updater lifecycle.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "home-updater")

	if IsUpdaterRunningNow(ctx) {
		return errUpdaterAlreadyRunning
	}

	if err := createMarker(); err != nil {
		return fmt.Errorf("create update marker: %w", err)
	}

	u, err := newRunner(opts)
	if err == nil {
		defer u.cleanup(ctx)

		err = u.Run(ctx)
	}

	_ = os.Remove(MarkerFilename)

	if err != nil {
		logger.ErrorKV(ctx, "Updater run failed", "error", err)

		return err
	}

	logger.Info(ctx, "Updater completed")

	return nil
}

func newRunner(opts *Options) (*runner, error) {
	role := strings.TrimSpace(opts.Role)
	if _, ok := Roles()[role]; !ok {
		return nil, fmt.Errorf("%q: %w", role, errUnknownRole)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if cfg.UpdateFolder == "" {
		return nil, errNoUpdateFolder
	}

	folder, err := url.Parse(cfg.UpdateFolder)
	if err != nil {
		return nil, fmt.Errorf("parse update folder: %w", err)
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	return &runner{
		role:            role,
		dir:             dir,
		folder:          folder,
		client:          &http.Client{Timeout: cfg.Timeout},
		downloadedFiles: make(map[string]string, defaultMapCapacity),
	}, nil
}

// Run stops the role executable, updates what differs and starts it again.
func (u *runner) Run(ctx context.Context) error {
	logger.Info(ctx, "Stopping running executables")

	if err := instance.Terminate(Roles()[u.role]...); err != nil {
		return fmt.Errorf("stop executables: %w", err)
	}

	u.localVersion = u.detectLocalVersion(ctx)

	logger.Info(ctx, "Downloading the release manifest")

	if err := u.fetchDescription(ctx); err != nil {
		return fmt.Errorf("download release manifest: %w", err)
	}

	outdated, err := u.outdatedFiles(ctx)
	if err != nil {
		return fmt.Errorf("compare checksums: %w", err)
	}

	if len(outdated) == 0 && u.localVersion == u.description.VersionNumber {
		logger.InfoKV(ctx, "No update required", "version", u.localVersion)
	} else {
		logger.InfoKV(ctx, "Update required",
			"local", u.localVersion, "remote", u.description.VersionNumber, "files", outdated)

		if err = u.downloadFiles(ctx, outdated); err != nil {
			return fmt.Errorf("download release files: %w", err)
		}

		if err = u.applyFiles(ctx); err != nil {
			return fmt.Errorf("apply release files: %w", err)
		}
	}

	return u.startExecutable(ctx)
}

// detectLocalVersion asks the installed role executable for its version.
// An empty result means a first install.
func (u *runner) detectLocalVersion(ctx context.Context) string {
	executable := filepath.Join(u.dir, Roles()[u.role][0])

	cmdCtx, cancel := context.WithTimeout(ctx, versionCommandTimeout)
	defer cancel()

	output, err := exec.CommandContext(cmdCtx, executable, "version").Output()
	if err != nil {
		logger.WarnKV(ctx, "Could not get local version", "executable", executable, "error", err)

		return ""
	}

	localVersion, err := parseVersionFromOutput(string(output))
	if err != nil {
		logger.WarnKV(ctx, "Unexpected version output", "executable", executable, "error", err)

		return ""
	}

	return localVersion
}

// parseVersionFromOutput extracts "1.0.0" from "version: 1.0.0, commit: abc123, built at: ...".
func parseVersionFromOutput(output string) (string, error) {
	first, _, _ := strings.Cut(strings.TrimSpace(output), ",")

	localVersion, found := strings.CutPrefix(first, "version: ")
	if !found || strings.TrimSpace(localVersion) == "" {
		return "", errInvalidVersionOutput
	}

	return strings.TrimSpace(localVersion), nil
}

func (u *runner) fetchDescription(ctx context.Context) error {
	data, err := u.download(ctx, VersionFilename)
	if err != nil {
		return err
	}

	var desc Description
	if err = yaml.Unmarshal(data, &desc); err != nil {
		return fmt.Errorf("unmarshal manifest: %w", err)
	}

	u.description = &desc

	return nil
}

// outdatedFiles returns the role files whose local checksum differs from the
// manifest. Missing local files are outdated.
func (u *runner) outdatedFiles(ctx context.Context) ([]string, error) {
	files, ok := u.description.Roles[u.role]
	if !ok {
		return nil, fmt.Errorf("role %s: %w", u.role, errNoRoleFiles)
	}

	var outdated []string

	for _, fileName := range files {
		expected, err := u.expectedChecksum(fileName)
		if err != nil {
			return nil, err
		}

		actual, err := FileChecksum(filepath.Join(u.dir, fileName))
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		}

		if !bytes.Equal(expected, actual) {
			logger.DebugKV(ctx, "Checksum mismatch", "file", fileName)

			outdated = append(outdated, fileName)
		}
	}

	return outdated, nil
}

func (u *runner) expectedChecksum(fileName string) ([]byte, error) {
	encoded, ok := u.description.Files[fileName]
	if !ok {
		return nil, fmt.Errorf("checksum for %s: %w", fileName, errNoChecksum)
	}

	checksum, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode checksum for %s: %w", fileName, err)
	}

	return checksum, nil
}

// download fetches a file of the release folder.
func (u *runner) download(ctx context.Context, fileName string) ([]byte, error) {
	fileURL := *u.folder
	// path.Join normalizes duplicate slashes.
	fileURL.Path = path.Join(fileURL.Path, fileName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL.String(), http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := u.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s, %s: %w", fileURL.String(), response.Status, errBadHTTPStatus)
	}

	return io.ReadAll(response.Body)
}

// downloadFiles stores the outdated files in a temporary directory.
func (u *runner) downloadFiles(ctx context.Context, files []string) error {
	temporaryDirectory, err := os.MkdirTemp("", "home-hub-updater-")
	if err != nil {
		return err
	}

	u.temporaryDirectory = temporaryDirectory

	for _, fileName := range files {
		data, err := u.download(ctx, fileName)
		if err != nil {
			return err
		}

		outputFileName := filepath.Join(temporaryDirectory, filepath.Base(fileName))
		if err = os.WriteFile(outputFileName, data, DefaultFileMode); err != nil {
			return err
		}

		u.downloadedFiles[fileName] = outputFileName
		logger.InfoKV(ctx, "Downloaded file", "file", fileName)
	}

	return nil
}

// applyFiles replaces local files with go-update, which verifies the checksum
// before swapping.
func (u *runner) applyFiles(ctx context.Context) error {
	names := make([]string, 0, len(u.downloadedFiles))
	for fileName := range u.downloadedFiles {
		names = append(names, fileName)
	}

	slices.Sort(names)

	for _, fileName := range names {
		checksum, err := u.expectedChecksum(fileName)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(u.downloadedFiles[fileName])
		if err != nil {
			return err
		}

		target := filepath.Join(u.dir, fileName)

		// go-update renames the target away first, so it has to exist.
		if _, err = os.Stat(target); errors.Is(err, os.ErrNotExist) {
			if err = os.WriteFile(target, nil, DefaultFileMode); err != nil {
				return err
			}
		}

		err = goupdate.Apply(bytes.NewReader(data), goupdate.Options{
			TargetPath: target,
			TargetMode: DefaultFileMode,
			Checksum:   checksum,
			Hash:       DefaultChecksumFunction,
		})
		if err != nil {
			return fmt.Errorf("update %s: %w", fileName, err)
		}

		// go-update leaves the previous file next to the new one.
		_ = os.Remove(target + ".old")

		logger.InfoKV(ctx, "Updated file", "file", fileName)
	}

	return nil
}

// startExecutable launches the role program, when the role has one.
func (u *runner) startExecutable(ctx context.Context) error {
	executable, ok := u.description.Executables[u.role]
	if !ok {
		logger.DebugKV(ctx, "Nothing to start", "role", u.role)

		return nil
	}

	executable = filepath.Join(u.dir, executable)

	logger.InfoKV(ctx, "Starting executable", "executable", executable)

	// The started program outlives the updater.
	startCtx := context.WithoutCancel(ctx)

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(startCtx, "cmd.exe", "/C", "start", executable)
	} else {
		cmd = exec.CommandContext(startCtx, executable)
	}

	cmd.Dir = u.dir

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", executable, err)
	}

	return nil
}

// cleanup removes the temporary directory.
func (u *runner) cleanup(ctx context.Context) {
	if u.temporaryDirectory != "" {
		_ = os.RemoveAll(u.temporaryDirectory)
	}

	logger.Debug(ctx, "Updater cleaned up")
}
