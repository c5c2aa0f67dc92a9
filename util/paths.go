package util

import (
	"os"
	"path/filepath"
)

// DataDirEnvVar overrides the data directory
const DataDirEnvVar = "CIBER_RADAR_DIR"

// GetDataDir returns the data directory path
func GetDataDir() string {
	if envDir := os.Getenv(DataDirEnvVar); envDir != "" {
		return envDir
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".ciber-radar-data")
	}
	return filepath.Join(home, ".ciber-radar-data")
}

// GetReportDir returns the directory scenario reports are written to
func GetReportDir() (string, error) {
	dir := filepath.Join(GetDataDir(), "reports")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
