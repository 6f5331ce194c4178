package updater

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/oshokin/smart-home/internal/logger"
	"github.com/oshokin/smart-home/internal/service/instance"
)

// markerLifetime is the period after which a stale update marker is ignored.
const markerLifetime = 30 * time.Second

// IsUpdaterRunningNow reports whether a fresh update marker exists.
// A stale marker is removed after stopping the control executables that may
// have left it.
func IsUpdaterRunningNow(ctx context.Context) bool {
	fileInfo, err := os.Stat(MarkerFilename)

	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Debug(ctx, "Update marker not found")

		return false
	case err != nil:
		logger.WarnKV(ctx, "Unable to read update marker", "error", err)

		return false
	case time.Since(fileInfo.ModTime()) <= markerLifetime:
		return true
	}

	logger.Info(ctx, "The update marker is too old, attempting cleanup")

	if err = instance.Terminate(CtlExecutable()); err != nil {
		return true
	}

	return os.Remove(MarkerFilename) != nil
}

func createMarker() error {
	marker, err := os.Create(MarkerFilename)
	if err != nil {
		return err
	}

	return marker.Close()
}
