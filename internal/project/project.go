// Package project persists projects, application config and backups.
package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	apperrors "github.com/piwi3910/cutplan/internal/errors"
	"github.com/piwi3910/cutplan/internal/model"
)

// Format is the on-disk encoding of a project file.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatFor picks the encoding from the file extension; anything other than
// .toml is JSON.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatJSON
}

// SaveProject writes a project to path in the format implied by its extension.
func SaveProject(path string, p model.Project) error {
	var data []byte
	switch FormatFor(path) {
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(p); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInternal, err, "encode project")
		}
		data = buf.Bytes()
	default:
		var err error
		data, err = json.MarshalIndent(p, "", "  ")
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInternal, err, "encode project")
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// LoadProject reads a project file. Settings missing from the file take the
// given defaults; pieces without a grain direction get "none". The result is
// validated before it is returned.
func LoadProject(path string, defaults model.Settings) (model.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Project{}, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "project %s not found", path)
		}
		return model.Project{}, err
	}

	p := model.NewProject()
	p.Settings = defaults
	switch FormatFor(path) {
	case FormatTOML:
		if _, err := toml.Decode(string(data), &p); err != nil {
			return model.Project{}, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "parse project %s", path)
		}
	default:
		if err := json.Unmarshal(data, &p); err != nil {
			return model.Project{}, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "parse project %s", path)
		}
	}

	for i := range p.Pieces {
		p.Pieces[i].Grain = model.ParseGrain(string(p.Pieces[i].Grain))
	}
	if p.Settings.Units == "" {
		p.Settings.Units = model.UnitsImperial
	}

	if err := model.ValidateSettings(p.Settings); err != nil {
		return model.Project{}, err
	}
	if err := model.ValidateInput(p.Sheets, p.Pieces); err != nil {
		return model.Project{}, err
	}
	return p, nil
}
