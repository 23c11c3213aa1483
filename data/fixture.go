package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/stuartleeks/home-dash/weather-dash/config"
)

// fixturePath resolves relative fixture names against DASHBOARD_INPUT_DIR.
func fixturePath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(config.GetDashboardInfoPath(), filename)
}

// readFixture decodes a JSON fixture under a shared flock, so a fixture rewritten in
// place by another process is never read half-written.
func readFixture[T any](filename string) (*T, error) {
	file, err := os.Open(fixturePath(filename))
	if err != nil {
		return nil, fmt.Errorf("opening fixture: %w", err)
	}
	defer file.Close()

	fd := int(file.Fd())
	if err := syscall.Flock(fd, syscall.LOCK_SH); err != nil {
		return nil, fmt.Errorf("locking fixture %s: %w", file.Name(), err)
	}
	defer func() { _ = syscall.Flock(fd, syscall.LOCK_UN) }()

	var v T
	if err := json.NewDecoder(file).Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding fixture %s: %w", file.Name(), err)
	}
	return &v, nil
}
