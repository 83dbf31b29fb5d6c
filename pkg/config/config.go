// Package config provides path defaults for the proposal exporter.
package config

import (
	"os"
	"path/filepath"
)

// GetDataPath returns the data directory path.
// It checks for DATA_PATH environment variable, otherwise uses a default.
func GetDataPath() string {
	if path := os.Getenv("DATA_PATH"); path != "" {
		return path
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ".data"
	}
	return filepath.Join(cwd, ".data")
}

// GetDraftsDBPath returns the SQLite file holding saved proposal drafts.
func GetDraftsDBPath() string {
	if path := os.Getenv("DRAFTS_DB_PATH"); path != "" {
		return path
	}
	return filepath.Join(GetDataPath(), "drafts.db")
}

// GetAssetPath returns the directory local-relative image references resolve against.
func GetAssetPath() string {
	if path := os.Getenv("ASSET_PATH"); path != "" {
		return path
	}
	return filepath.Join(GetDataPath(), "assets")
}

// GetExportPath returns the default directory exports are written to.
func GetExportPath() string {
	if path := os.Getenv("EXPORT_PATH"); path != "" {
		return path
	}
	return filepath.Join(GetDataPath(), "exports")
}
