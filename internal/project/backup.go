package project

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/piwi3910/cutplan/internal/errors"
	"github.com/piwi3910/cutplan/internal/gcode"
	"github.com/piwi3910/cutplan/internal/model"
)

const backupVersion = "1.0.0"

// BackupData bundles the application config and custom post-processor
// profiles for moving a setup between machines.
type BackupData struct {
	Version   string          `json:"version"`
	CreatedAt string          `json:"created_at"`
	Config    AppConfig       `json:"config"`
	Profiles  []gcode.Profile `json:"profiles"`
}

// ExportAllData writes config and custom profiles to a single JSON file,
// creating parent directories as needed.
func ExportAllData(path string, config AppConfig, profiles []gcode.Profile) error {
	if profiles == nil {
		profiles = []gcode.Profile{}
	}
	data, err := json.MarshalIndent(BackupData{
		Version:   backupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
		Profiles:  profiles,
	}, "", "  ")
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "encode backup")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "create backup directory")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "write backup %s", path)
	}
	return nil
}

// ImportAllData reads a backup file. Config keys missing from the backup keep
// their defaults. The caller applies the result.
func ImportAllData(path string) (BackupData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return BackupData{}, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "backup %s not found", path)
		}
		return BackupData{}, err
	}

	backup := BackupData{Config: DefaultAppConfig()}
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "parse backup %s", path)
	}
	if backup.Version == "" {
		return BackupData{}, apperrors.New(apperrors.ErrCodeInvalidFormat, "backup %s has no version", path)
	}
	for i, p := range backup.Profiles {
		if p.Name == "" {
			return BackupData{}, apperrors.New(apperrors.ErrCodeInvalidFormat, "backup %s: profile %d has no name", path, i+1)
		}
	}
	if backup.Config.RecentProjects == nil {
		backup.Config.RecentProjects = []string{}
	}
	if err := model.ValidateSettings(backup.Config.Defaults); err != nil {
		return BackupData{}, err
	}
	return backup, nil
}
